package file

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/polkiloo/storefront/internal/domain/repository"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "drafts"), slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "customer:draft"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := store.Set(ctx, "customer:draft", []byte("one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "customer:draft", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	value, err := store.Get(ctx, "customer:draft")
	if err != nil || string(value) != "two" {
		t.Fatalf("expected two, got %q (%v)", value, err)
	}

	if err := store.Remove(ctx, "customer:draft"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove(ctx, "customer:draft"); err != nil {
		t.Fatalf("second remove must be a no-op: %v", err)
	}
	if _, err := store.Get(ctx, "customer:draft"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found after remove, got %v", err)
	}
}

func TestSetLeavesNoTempFiles(t *testing.T) {
	store := newStore(t)
	if err := store.Set(context.Background(), "a/b:c", []byte("x")); err != nil {
		t.Fatalf("set: %v", err)
	}

	entries, err := os.ReadDir(store.dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file, got %d", len(entries))
	}
	if entries[0].Name() != url.QueryEscape("a/b:c") {
		t.Fatalf("unexpected file name %q", entries[0].Name())
	}
}

func TestConcurrentWritesNeverTear(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	values := []string{"aaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbb", "cccccccccccccccc"}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			_ = store.Set(ctx, "k", []byte(v))
		}(values[i%len(values)])
	}
	wg.Wait()

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	found := false
	for _, v := range values {
		if string(got) == v {
			found = true
		}
	}
	if !found {
		t.Fatalf("torn value %q", got)
	}
}

func TestCancelledContext(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Set(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestDirFromURLAndPing(t *testing.T) {
	cases := map[string]string{
		"file://.storefront":     ".storefront",
		"file:///var/lib/drafts": filepath.FromSlash("/var/lib/drafts"),
	}
	for raw, want := range cases {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("parse %s: %v", raw, err)
		}
		if got := DirFromURL(u); got != want {
			t.Fatalf("DirFromURL(%s) = %q, want %q", raw, got, want)
		}
	}

	store := newStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := os.RemoveAll(store.dir); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error for missing dir")
	}

	if _, err := New("", nil); err == nil {
		t.Fatal("expected error for empty dir")
	}
}
