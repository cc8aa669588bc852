package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/adapter/payment"
	"github.com/polkiloo/storefront/internal/config"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/state"
)

// CheckoutAPI is the slice of the store backend the checkout needs.
type CheckoutAPI interface {
	FetchOrderSummary(ctx context.Context) (*model.OrderSummary, error)
	CancelPendingPayment(ctx context.Context) error
}

// DraftStore is the durable draft slot of one customer.
type DraftStore interface {
	Load(ctx context.Context) (*model.CheckoutSession, bool)
	Save(ctx context.Context, session *model.CheckoutSession) error
	Clear(ctx context.Context) error
	SetOwner(owner string)
}

// Phase is the lifecycle position of the checkout session.
type Phase string

const (
	PhaseAbsent    Phase = "ABSENT"
	PhaseLoading   Phase = "LOADING"
	PhaseDraft     Phase = "DRAFT"
	PhaseCommitted Phase = "COMMITTED"
	PhaseCancelled Phase = "CANCELLED"
)

type loadCall struct {
	done    chan struct{}
	session *model.CheckoutSession
	err     error
}

type commitCall struct {
	done   chan struct{}
	result model.CommitResult
	err    error
}

// CheckoutUseCase owns the single active checkout session. Every session that
// reaches DRAFT ends in exactly one of commit or cancel.
type CheckoutUseCase struct {
	api      CheckoutAPI
	store    DraftStore
	handoff  payment.Handoff
	rates    model.ShippingRates
	debounce time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu           sync.Mutex
	phase        Phase
	session      *model.CheckoutSession
	editSeq      uint64
	pending      []model.DraftPatch
	loading      *loadCall
	committing   *commitCall
	commitResult *model.CommitResult
	settling     chan struct{}
	errMsg       string
	disposed     bool
	cancelTimer  *time.Timer
	cancelGen    uint64

	// saveMu orders every write to the draft slot.
	saveMu   sync.Mutex
	savedSeq uint64

	view *state.Value[state.Session]
}

// NewCheckoutUseCase constructs CheckoutUseCase.
func NewCheckoutUseCase(api CheckoutAPI, store DraftStore, handoff payment.Handoff, cfg *config.Config, logger *slog.Logger) *CheckoutUseCase {
	return &CheckoutUseCase{
		api:     api,
		store:   store,
		handoff: handoff,
		rates: model.ShippingRates{
			model.DeliveryNormal:  cfg.ShippingNormal,
			model.DeliveryExpress: cfg.ShippingExpress,
		},
		debounce: cfg.CancelDebounce,
		logger:   logger,
		now:      time.Now,
		phase:    PhaseAbsent,
		view:     state.NewValue(state.Session{Phase: string(PhaseAbsent)}),
	}
}

// State returns the observed session state.
func (u *CheckoutUseCase) State() state.Session {
	return u.view.Get()
}

// Subscribe streams observed session state until the returned func is called.
func (u *CheckoutUseCase) Subscribe() (<-chan state.Session, func()) {
	return u.view.Subscribe()
}

// Phase returns the current lifecycle phase.
func (u *CheckoutUseCase) Phase() Phase {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.phase
}

// EnterCheckout returns the active session, materialising it from the draft
// slot or the order summary when there is none. Concurrent callers share one load.
func (u *CheckoutUseCase) EnterCheckout(ctx context.Context) (*model.CheckoutSession, error) {
	for {
		u.mu.Lock()
		u.stopScheduledCancelLocked()
		u.disposed = false

		if u.settling != nil {
			wait := u.settling
			u.mu.Unlock()
			if err := waitFor(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		switch u.phase {
		case PhaseDraft:
			s := u.session.Clone()
			u.mu.Unlock()
			return s, nil
		case PhaseLoading:
			call := u.loading
			u.mu.Unlock()
			return awaitLoad(ctx, call)
		default:
			call := &loadCall{done: make(chan struct{})}
			u.phase = PhaseLoading
			u.loading = call
			u.session = nil
			u.pending = nil
			u.commitResult = nil
			u.errMsg = ""
			u.publishLocked()
			u.mu.Unlock()
			// the load is shared, so it must outlive the caller that started it
			go u.runLoad(context.WithoutCancel(ctx), call)
			return awaitLoad(ctx, call)
		}
	}
}

func awaitLoad(ctx context.Context, call *loadCall) (*model.CheckoutSession, error) {
	if err := waitFor(ctx, call.done); err != nil {
		return nil, err
	}
	if call.err != nil {
		return nil, call.err
	}
	return call.session.Clone(), nil
}

func (u *CheckoutUseCase) runLoad(ctx context.Context, call *loadCall) {
	defer close(call.done)

	session, fromStore, err := u.materialize(ctx)

	u.mu.Lock()
	u.loading = nil
	if err != nil {
		call.err = fmt.Errorf("%w: %w", domainErrors.ErrSummaryUnavailable, err)
		u.phase = PhaseAbsent
		u.pending = nil
		u.errMsg = "Order summary is unavailable. Please try again."
		u.publishLocked()
		u.mu.Unlock()
		u.logger.Warn("checkout summary fetch failed", slog.Any("error", err))
		return
	}

	buffered := len(u.pending)
	for _, patch := range u.pending {
		u.applyLocked(session, patch)
	}
	u.pending = nil
	u.session = session
	u.phase = PhaseDraft
	seq := u.editSeq
	snapshot := session.Clone()
	u.publishLocked()
	u.mu.Unlock()

	if !fromStore || buffered > 0 {
		u.persist(ctx, snapshot, seq)
	}
	call.session = snapshot
	u.logger.Info("checkout entered",
		slog.String("session_id", snapshot.ID),
		slog.Bool("from_draft", fromStore),
		slog.Int("buffered_edits", buffered))
}

// materialize prefers the stored draft and falls back to the order summary.
func (u *CheckoutUseCase) materialize(ctx context.Context) (*model.CheckoutSession, bool, error) {
	if stored, ok := u.store.Load(ctx); ok {
		if !stored.Committed {
			return stored, true, nil
		}
		// the hand-off already happened for this draft; it must not be reused
		u.logger.Warn("discarding committed draft", slog.String("session_id", stored.ID))
		u.clearStore(ctx)
	}

	summary, err := u.api.FetchOrderSummary(ctx)
	if err != nil {
		return nil, false, err
	}
	return u.newSession(summary), false, nil
}

func (u *CheckoutUseCase) newSession(summary *model.OrderSummary) *model.CheckoutSession {
	s := &model.CheckoutSession{
		ID:            uuid.NewString(),
		Customer:      summary.Customer,
		DeliveryType:  summary.DeliveryType,
		PaymentMethod: summary.PaymentMethod,
		TotalPrice:    summary.TotalPrice,
		UpdatedAt:     u.now(),
	}
	if !s.DeliveryType.Valid() {
		s.DeliveryType = model.DeliveryNormal
	}
	if !s.PaymentMethod.Valid() {
		s.PaymentMethod = model.PaymentCard
	}
	s.ShippingPrice = u.shippingFor(s.DeliveryType, summary.ShippingPrice)
	return s
}

func (u *CheckoutUseCase) shippingFor(d model.DeliveryType, quoted decimal.NullDecimal) decimal.Decimal {
	if quoted.Valid {
		return quoted.Decimal
	}
	if rate, ok := u.rates.For(d); ok {
		return rate
	}
	return decimal.Zero
}

// UpdateDraft merges patch into the active session. Edits issued while the
// session is loading are buffered and applied on top of the loaded draft, in
// which case the returned session is nil.
func (u *CheckoutUseCase) UpdateDraft(ctx context.Context, patch model.DraftPatch) (*model.CheckoutSession, error) {
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidDraft, err)
	}

	u.mu.Lock()
	switch {
	case u.phase == PhaseLoading:
		u.pending = append(u.pending, patch)
		u.editSeq++
		u.mu.Unlock()
		return nil, nil
	case u.phase != PhaseDraft || u.session == nil:
		u.mu.Unlock()
		return nil, domainErrors.ErrNoActiveSession
	case u.session.Committed:
		s := u.session.Clone()
		u.mu.Unlock()
		return s, nil
	}

	u.applyLocked(u.session, patch)
	u.editSeq++
	seq := u.editSeq
	snapshot := u.session.Clone()
	u.publishLocked()
	u.mu.Unlock()

	u.persist(ctx, snapshot, seq)
	return snapshot, nil
}

// applyLocked re-derives shipping when the delivery type changes without an
// explicit price.
func (u *CheckoutUseCase) applyLocked(s *model.CheckoutSession, patch model.DraftPatch) {
	previous := s.DeliveryType
	patch.Apply(s)
	if patch.ShippingPrice == nil && s.DeliveryType != previous {
		if rate, ok := u.rates.For(s.DeliveryType); ok {
			s.ShippingPrice = rate
		}
	}
	s.UpdatedAt = u.now()
}

// Refresh re-fetches the priced summary for the active draft. A result that
// arrives after a newer edit is discarded.
func (u *CheckoutUseCase) Refresh(ctx context.Context) (*model.CheckoutSession, error) {
	u.mu.Lock()
	if u.phase != PhaseDraft || u.session == nil || u.session.Committed {
		u.mu.Unlock()
		return nil, domainErrors.ErrNoActiveSession
	}
	seq := u.editSeq
	id := u.session.ID
	u.mu.Unlock()

	summary, err := u.api.FetchOrderSummary(ctx)

	u.mu.Lock()
	if err != nil {
		if u.phase == PhaseDraft {
			u.errMsg = "Order summary is unavailable. Please try again."
			u.publishLocked()
		}
		u.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrSummaryUnavailable, err)
	}
	if u.phase != PhaseDraft || u.session == nil || u.session.ID != id {
		u.mu.Unlock()
		return nil, domainErrors.ErrNoActiveSession
	}
	if u.editSeq != seq {
		s := u.session.Clone()
		u.mu.Unlock()
		u.logger.Debug("discarding stale summary", slog.String("session_id", id))
		return s, nil
	}

	u.session.TotalPrice = summary.TotalPrice
	u.session.ShippingPrice = u.shippingFor(u.session.DeliveryType, summary.ShippingPrice)
	u.session.UpdatedAt = u.now()
	u.editSeq++
	seq = u.editSeq
	u.errMsg = ""
	snapshot := u.session.Clone()
	u.publishLocked()
	u.mu.Unlock()

	u.persist(ctx, snapshot, seq)
	return snapshot, nil
}

// Commit marks the session committed, persists that, and hands it to the
// payment processor. Repeated calls return the first successful result. A
// declined payment reverts the session to an uncommitted draft.
func (u *CheckoutUseCase) Commit(ctx context.Context) (model.CommitResult, error) {
	u.mu.Lock()
	if u.phase == PhaseCommitted && u.commitResult != nil {
		r := *u.commitResult
		u.mu.Unlock()
		return r, nil
	}
	if call := u.committing; call != nil {
		u.mu.Unlock()
		if err := waitFor(ctx, call.done); err != nil {
			return model.CommitResult{}, err
		}
		return call.result, call.err
	}
	if u.phase != PhaseDraft || u.session == nil {
		u.mu.Unlock()
		return model.CommitResult{}, domainErrors.ErrNoActiveSession
	}
	if err := readyToPay(u.session); err != nil {
		u.mu.Unlock()
		return model.CommitResult{}, fmt.Errorf("%w: %v", domainErrors.ErrInvalidDraft, err)
	}

	call := &commitCall{done: make(chan struct{})}
	defer close(call.done)
	u.committing = call
	u.session.Committed = true
	u.editSeq++
	seq := u.editSeq
	u.errMsg = ""
	snapshot := u.session.Clone()
	u.publishLocked()
	u.mu.Unlock()

	u.persist(ctx, snapshot, seq)

	var result model.PaymentResult
	pc, err := u.handoff.Initialize(ctx, snapshot)
	if err != nil {
		result = model.PaymentResult{Reason: err.Error()}
	} else {
		result = u.handoff.Submit(ctx, pc)
	}

	if result.Success {
		call.result = u.finishCommit(ctx, snapshot.ID, result.Reference)
		return call.result, nil
	}

	call.err = fmt.Errorf("%w: %s", domainErrors.ErrPaymentFailed, result.Reason)
	if u.revertCommit(ctx, result.Reason) {
		u.logger.Info("checkout left during failed commit, cancelling", slog.String("session_id", snapshot.ID))
		if err := u.Cancel(context.WithoutCancel(ctx)); err != nil {
			u.logger.Warn("cancel after failed commit", slog.Any("error", err))
		}
	}
	return model.CommitResult{}, call.err
}

func (u *CheckoutUseCase) finishCommit(ctx context.Context, id, reference string) model.CommitResult {
	u.mu.Lock()
	result := model.CommitResult{SessionID: id, Reference: reference}
	u.committing = nil
	u.phase = PhaseCommitted
	u.commitResult = &result
	u.disposed = false
	u.stopScheduledCancelLocked()
	settle := make(chan struct{})
	u.settling = settle
	u.publishLocked()
	u.mu.Unlock()

	u.clearStore(ctx)
	u.handoff.Forget(id)
	u.settle(settle)
	u.logger.Info("checkout committed", slog.String("session_id", id))
	return result
}

// revertCommit restores the uncommitted draft and reports whether the caller
// left checkout while the commit was in flight.
func (u *CheckoutUseCase) revertCommit(ctx context.Context, reason string) bool {
	u.mu.Lock()
	u.committing = nil
	u.session.Committed = false
	u.editSeq++
	seq := u.editSeq
	u.errMsg = reason
	left := u.disposed
	snapshot := u.session.Clone()
	u.publishLocked()
	u.mu.Unlock()

	u.persist(ctx, snapshot, seq)
	u.logger.Warn("payment failed", slog.String("session_id", snapshot.ID), slog.String("reason", reason))
	return left
}

func readyToPay(s *model.CheckoutSession) error {
	var errs []error
	if s.Customer.FirstName == "" || s.Customer.LastName == "" {
		errs = append(errs, errors.New("customer name is required"))
	}
	addr := s.Customer.ShippingAddress
	if addr == nil || addr.Address == "" || addr.City == "" || addr.ZipCode == "" || addr.Country == "" {
		errs = append(errs, errors.New("shipping address is incomplete"))
	}
	return errors.Join(errs...)
}

// Cancel releases an uncommitted session. It is a no-op when the session is
// committed or absent. The draft slot is cleared even when the backend call
// fails; that failure is returned as ErrCancelFailed and never surfaced in state.
func (u *CheckoutUseCase) Cancel(ctx context.Context) error {
	proceed, err := u.lockForCancel(ctx)
	if !proceed {
		return err
	}

	id := u.session.ID
	u.phase = PhaseCancelled
	u.session = nil
	u.pending = nil
	u.disposed = false
	u.errMsg = ""
	settle := make(chan struct{})
	u.settling = settle
	u.publishLocked()
	u.mu.Unlock()
	defer u.settle(settle)

	apiErr := u.api.CancelPendingPayment(ctx)
	u.clearStore(ctx)
	u.handoff.Forget(id)

	if apiErr != nil {
		u.logger.Warn("cancel pending payment failed", slog.String("session_id", id), slog.Any("error", apiErr))
		return fmt.Errorf("%w: %v", domainErrors.ErrCancelFailed, apiErr)
	}
	u.logger.Info("checkout cancelled", slog.String("session_id", id))
	return nil
}

// lockForCancel waits out an in-flight load and returns with u.mu held when
// there is an uncommitted draft to cancel.
func (u *CheckoutUseCase) lockForCancel(ctx context.Context) (bool, error) {
	for {
		u.mu.Lock()
		u.stopScheduledCancelLocked()

		if u.phase == PhaseLoading {
			call := u.loading
			u.mu.Unlock()
			if err := waitFor(ctx, call.done); err != nil {
				return false, err
			}
			continue
		}
		if u.phase != PhaseDraft || u.session == nil || u.session.Committed {
			u.mu.Unlock()
			return false, nil
		}
		return true, nil
	}
}

// Dispose is the exit contract of the checkout view. It schedules a cancel
// after the debounce window; re-entering checkout inside the window keeps the
// session. A commit in flight is left alone and cancelled only if it fails.
func (u *CheckoutUseCase) Dispose() {
	u.mu.Lock()
	if u.phase != PhaseDraft && u.phase != PhaseLoading {
		u.mu.Unlock()
		return
	}
	u.disposed = true
	if u.committing != nil || u.cancelTimer != nil {
		u.mu.Unlock()
		return
	}

	u.cancelGen++
	gen := u.cancelGen
	if u.debounce <= 0 {
		u.mu.Unlock()
		u.runScheduledCancel(gen)
		return
	}
	u.cancelTimer = time.AfterFunc(u.debounce, func() { u.runScheduledCancel(gen) })
	u.mu.Unlock()
}

func (u *CheckoutUseCase) runScheduledCancel(gen uint64) {
	u.mu.Lock()
	if gen != u.cancelGen || !u.disposed {
		u.mu.Unlock()
		return
	}
	u.cancelTimer = nil
	u.mu.Unlock()

	if err := u.Cancel(context.Background()); err != nil {
		u.logger.Warn("scheduled checkout cancel", slog.Any("error", err))
	}
}

// Flush runs a scheduled cancel immediately. It is called on shutdown.
func (u *CheckoutUseCase) Flush(ctx context.Context) error {
	u.mu.Lock()
	scheduled := u.cancelTimer != nil && u.disposed
	u.stopScheduledCancelLocked()
	u.mu.Unlock()

	if !scheduled {
		return nil
	}
	return u.Cancel(ctx)
}

func (u *CheckoutUseCase) stopScheduledCancelLocked() {
	if u.cancelTimer == nil {
		return
	}
	u.cancelTimer.Stop()
	u.cancelTimer = nil
	u.cancelGen++
}

// Rebind ends the checkout of the current customer and points the draft slot
// at owner. An uncommitted draft is cancelled and a commit in flight is
// awaited, so the next customer never sees the previous one's session.
func (u *CheckoutUseCase) Rebind(ctx context.Context, owner string) error {
	var cancelErr error
	for {
		u.mu.Lock()
		call, settling := u.committing, u.settling
		u.mu.Unlock()
		if call != nil {
			if err := waitFor(ctx, call.done); err != nil {
				return err
			}
			continue
		}
		if settling != nil {
			if err := waitFor(ctx, settling); err != nil {
				return err
			}
			continue
		}

		if err := u.Cancel(ctx); err != nil {
			if !errors.Is(err, domainErrors.ErrCancelFailed) {
				return err
			}
			cancelErr = err
		}

		u.saveMu.Lock()
		u.mu.Lock()
		uncommitted := u.phase == PhaseDraft && u.session != nil && !u.session.Committed
		if u.committing != nil || u.settling != nil || u.phase == PhaseLoading || uncommitted {
			// a racing entry or commit; settle it first
			u.mu.Unlock()
			u.saveMu.Unlock()
			continue
		}
		u.stopScheduledCancelLocked()
		u.phase = PhaseAbsent
		u.session = nil
		u.pending = nil
		u.commitResult = nil
		u.errMsg = ""
		u.disposed = false
		u.store.SetOwner(owner)
		u.savedSeq = 0
		u.publishLocked()
		u.mu.Unlock()
		u.saveMu.Unlock()

		u.logger.Info("checkout rebound to new customer", slog.Bool("anonymous", owner == ""))
		return cancelErr
	}
}

// persist writes snapshot unless the session ended or a newer edit was saved.
func (u *CheckoutUseCase) persist(ctx context.Context, snapshot *model.CheckoutSession, seq uint64) {
	u.saveMu.Lock()
	defer u.saveMu.Unlock()

	u.mu.Lock()
	current := u.phase == PhaseDraft && u.session != nil && u.session.ID == snapshot.ID
	u.mu.Unlock()
	if !current || seq < u.savedSeq {
		return
	}

	if err := u.store.Save(context.WithoutCancel(ctx), snapshot); err != nil {
		u.logger.Warn("failed to persist checkout draft", slog.String("session_id", snapshot.ID), slog.Any("error", err))
		return
	}
	u.savedSeq = seq
}

func (u *CheckoutUseCase) clearStore(ctx context.Context) {
	u.saveMu.Lock()
	defer u.saveMu.Unlock()

	if err := u.store.Clear(context.WithoutCancel(ctx)); err != nil {
		u.logger.Error("failed to clear checkout draft", slog.Any("error", err))
	}
	u.savedSeq = 0
}

func (u *CheckoutUseCase) settle(ch chan struct{}) {
	u.mu.Lock()
	if u.settling == ch {
		u.settling = nil
	}
	u.mu.Unlock()
	close(ch)
}

func (u *CheckoutUseCase) publishLocked() {
	u.view.Set(state.Session{
		Draft:        u.session.Clone(),
		Phase:        string(u.phase),
		IsLoading:    u.phase == PhaseLoading || u.committing != nil,
		ErrorMessage: u.errMsg,
	})
}

func waitFor(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
