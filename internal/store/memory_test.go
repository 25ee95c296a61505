package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"filmorate/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryStores(t *testing.T) {
	runStoreSuite(t, NewMemoryStores(newTestLogger()))
}

func TestMemoryFilmStore_ConcurrentCreateGeneratesUniqueIDs(t *testing.T) {
	stores := NewMemoryStores(newTestLogger())
	ctx := context.Background()

	const workers = 50
	ids := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			film := &domain.Film{Name: "f", Description: "desc", ReleaseDate: domain.NewDate(2000, time.January, 1), Duration: 1}
			if err := stores.Films.Create(ctx, film); err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			ids <- film.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != workers {
		t.Errorf("got %d ids, want %d", len(seen), workers)
	}
}

func TestMemoryTxManager_NestedCallsDoNotDeadlock(t *testing.T) {
	tx := &MemoryTxManager{}
	ctx := context.Background()
	sentinel := errors.New("inner failure")

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			return sentinel
		})
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("got %v, want inner error", err)
	}
}

func TestMemoryStores_ReturnCopies(t *testing.T) {
	stores := NewMemoryStores(newTestLogger())
	ctx := context.Background()
	user := &domain.User{Email: "copy@example.com", Login: "copy", Name: "copy", Birthday: domain.NewDate(1990, time.May, 1)}
	if err := stores.Users.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, _ := stores.Users.GetByID(ctx, user.ID)
	got.Name = "mutated"

	again, _ := stores.Users.GetByID(ctx, user.ID)
	if again.Name != "copy" {
		t.Errorf("stored user mutated through returned pointer: %q", again.Name)
	}
}
