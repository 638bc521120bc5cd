package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stagepay/partner-connect/internal/core/ports/driven"
)

type countingStateStore struct {
	cleanups atomic.Int64
}

func (s *countingStateStore) Save(ctx context.Context, state *driven.OAuthState) error { return nil }

func (s *countingStateStore) GetAndDelete(ctx context.Context, state string) (*driven.OAuthState, error) {
	return nil, nil
}

func (s *countingStateStore) Cleanup(ctx context.Context) error {
	s.cleanups.Add(1)
	return nil
}

func TestJanitor_SweepsOnInterval(t *testing.T) {
	store := &countingStateStore{}
	j := NewJanitor(JanitorConfig{
		StateStore: store,
		Interval:   10 * time.Millisecond,
	})

	j.Start(context.Background())

	deadline := time.After(time.Second)
	for store.cleanups.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 sweeps, got %d", store.cleanups.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	j.Stop()
}

func TestJanitor_StopIsIdempotent(t *testing.T) {
	j := NewJanitor(JanitorConfig{
		StateStore: &countingStateStore{},
		Interval:   time.Minute,
	})

	j.Start(context.Background())
	j.Stop()
	j.Stop() // second stop must not panic or block

	// Restart after stop works.
	j.Start(context.Background())
	j.Stop()
}

func TestJanitor_ContextCancelStopsLoop(t *testing.T) {
	store := &countingStateStore{}
	j := NewJanitor(JanitorConfig{
		StateStore: store,
		Interval:   10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	j.Start(ctx)
	cancel()

	select {
	case <-j.doneCh:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after context cancel")
	}
}
