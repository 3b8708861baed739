package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueue(t *testing.T) {
	t.Run("DispatchesAndUnblocks", func(t *testing.T) {
		var got *Send
		q := New(func(ctx context.Context, s *Send) error {
			got = s
			return nil
		})
		defer q.Close()

		err := q.Enqueue(context.Background(), &Send{
			Target:  "alice",
			Payload: []byte("hi"),
		})
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		if got == nil || got.Target != "alice" {
			t.Fatalf("sender saw %+v, want target alice", got)
		}
		if got.ID == "" {
			t.Error("ID not filled in")
		}
		if got.EnqueuedAt.IsZero() {
			t.Error("EnqueuedAt not set")
		}
	})

	t.Run("FIFOWithinTarget", func(t *testing.T) {
		var mu sync.Mutex
		var order []string
		q := New(func(ctx context.Context, s *Send) error {
			mu.Lock()
			order = append(order, string(s.Payload))
			mu.Unlock()
			return nil
		})
		defer q.Close()

		// Submission order from a single caller must survive
		// dispatch.
		for _, p := range []string{"1", "2", "3", "4", "5"} {
			if err := q.Enqueue(context.Background(), &Send{Target: "alice", Payload: []byte(p)}); err != nil {
				t.Fatalf("Enqueue %s: %v", p, err)
			}
		}

		mu.Lock()
		defer mu.Unlock()
		want := []string{"1", "2", "3", "4", "5"}
		if len(order) != len(want) {
			t.Fatalf("dispatched %d sends, want %d", len(order), len(want))
		}
		for i, p := range want {
			if order[i] != p {
				t.Errorf("order[%d] = %s, want %s", i, order[i], p)
			}
		}
	})

	t.Run("TargetsInterleave", func(t *testing.T) {
		release := make(chan struct{})
		q := New(func(ctx context.Context, s *Send) error {
			if s.Target == "slow" {
				<-release
			}
			return nil
		})
		defer q.Close()

		slowDone := make(chan error, 1)
		go func() {
			slowDone <- q.Enqueue(context.Background(), &Send{Target: "slow"})
		}()

		// A send to a different target must not wait behind the
		// blocked one.
		fastDone := make(chan error, 1)
		go func() {
			fastDone <- q.Enqueue(context.Background(), &Send{Target: "fast"})
		}()

		select {
		case err := <-fastDone:
			if err != nil {
				t.Fatalf("fast Enqueue: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("send to fast target stuck behind slow target")
		}

		close(release)
		if err := <-slowDone; err != nil {
			t.Fatalf("slow Enqueue: %v", err)
		}
	})

	t.Run("RejectionFailsOnceWithoutRetry", func(t *testing.T) {
		sendErr := errors.New("bridge rejected frame")
		var calls atomic.Int32
		q := New(func(ctx context.Context, s *Send) error {
			calls.Add(1)
			return sendErr
		})
		defer q.Close()

		err := q.Enqueue(context.Background(), &Send{Target: "alice"})
		if !errors.Is(err, sendErr) {
			t.Fatalf("Enqueue returned %v, want %v", err, sendErr)
		}

		time.Sleep(50 * time.Millisecond)
		if calls.Load() != 1 {
			t.Errorf("sender called %d times, want 1", calls.Load())
		}
	})

	t.Run("ContextCancelUnblocksCaller", func(t *testing.T) {
		release := make(chan struct{})
		q := New(func(ctx context.Context, s *Send) error {
			<-release
			return nil
		})
		defer func() {
			close(release)
			q.Close()
		}()

		// Occupy the lane worker
		go func() {
			_ = q.Enqueue(context.Background(), &Send{Target: "alice"})
		}()

		time.Sleep(20 * time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- q.Enqueue(ctx, &Send{Target: "alice"})
		}()

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("Enqueue returned %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("cancelled Enqueue did not return")
		}
	})

	t.Run("CloseFailsWaitingSends", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		q := New(func(ctx context.Context, s *Send) error {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		})

		blocked := make(chan error, 1)
		go func() {
			blocked <- q.Enqueue(context.Background(), &Send{Target: "alice"})
		}()
		time.Sleep(20 * time.Millisecond)

		waiting := make(chan error, 1)
		go func() {
			waiting <- q.Enqueue(context.Background(), &Send{Target: "alice"})
		}()
		time.Sleep(20 * time.Millisecond)

		go q.Close()

		select {
		case err := <-waiting:
			if !errors.Is(err, ErrClosed) {
				t.Errorf("waiting Enqueue returned %v, want ErrClosed", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("waiting Enqueue did not return after Close")
		}
		<-blocked

		if err := q.Enqueue(context.Background(), &Send{Target: "bob"}); !errors.Is(err, ErrClosed) {
			t.Errorf("Enqueue after Close returned %v, want ErrClosed", err)
		}
	})

	t.Run("CloseIdempotent", func(t *testing.T) {
		q := New(func(ctx context.Context, s *Send) error { return nil })
		q.Close()
		q.Close()
	})

	t.Run("Pending", func(t *testing.T) {
		q := New(func(ctx context.Context, s *Send) error { return nil })
		defer q.Close()

		if got := q.Pending("nobody"); got != 0 {
			t.Errorf("Pending for unknown target = %d, want 0", got)
		}
	})
}
