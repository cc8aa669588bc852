package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

const envelopeVersion = 1

type envelope struct {
	Version int                    `json:"version"`
	Session *model.CheckoutSession `json:"session"`
}

// Store is the single durable draft slot of one logical session. The slot is
// scoped to the namespace and, once set, to the owning customer.
type Store struct {
	kv        repository.KeyValueStore
	namespace string
	logger    *slog.Logger

	mu    sync.RWMutex
	owner string
}

// NewStore scopes the slot to namespace.
func NewStore(kv repository.KeyValueStore, namespace string, logger *slog.Logger) *Store {
	return &Store{kv: kv, namespace: namespace, logger: logger}
}

// SetOwner points the slot at the draft of owner. An empty owner selects the
// anonymous slot.
func (s *Store) SetOwner(owner string) {
	s.mu.Lock()
	s.owner = owner
	s.mu.Unlock()
}

// Key returns the storage key of the slot.
func (s *Store) Key() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.owner == "" {
		return s.namespace + ":draft"
	}
	return s.namespace + ":" + s.owner + ":draft"
}

// Load returns the stored draft. Missing, unreadable or corrupt values are
// reported as absent; corrupt ones are removed.
func (s *Store) Load(ctx context.Context) (*model.CheckoutSession, bool) {
	key := s.Key()
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("draft slot unreadable", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}

	session, err := decode(raw)
	if err != nil {
		s.logger.Warn("discarding corrupt draft", slog.String("key", key), slog.Any("error", err))
		if rmErr := s.kv.Remove(ctx, key); rmErr != nil {
			s.logger.Warn("failed to remove corrupt draft", slog.String("key", key), slog.Any("error", rmErr))
		}
		return nil, false
	}
	return session, true
}

// Save overwrites the slot with the whole session.
func (s *Store) Save(ctx context.Context, session *model.CheckoutSession) error {
	if session == nil {
		return errors.New("save nil session")
	}
	if err := session.Validate(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	raw, err := json.Marshal(envelope{Version: envelopeVersion, Session: session})
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.kv.Set(ctx, s.Key(), raw); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Clear empties the slot.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, s.Key()); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

func decode(raw []byte) (*model.CheckoutSession, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported draft version %d", env.Version)
	}
	if env.Session == nil {
		return nil, errors.New("envelope without session")
	}
	if err := env.Session.Validate(); err != nil {
		return nil, err
	}
	return env.Session, nil
}
