package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestClosedPassesThrough(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	calls := 0
	err := b.Do(func() error { calls++; return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestOpensAfterMaxFailures(t *testing.T) {
	now := time.Now()
	b := NewBreaker(2, time.Minute)
	b.clock = fixedClock(&now)

	for i := 0; i < 2; i++ {
		if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}

	err := b.Do(func() error {
		t.Fatal("call must not run while open")
		return nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
}

func TestProbeAfterCooldownClosesOnSuccess(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, time.Minute)
	b.clock = fixedClock(&now)

	_ = b.Do(func() error { return errBoom })

	now = now.Add(2 * time.Minute)

	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("probe should run and succeed, got %v", err)
	}
	// Circuit closed again.
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("expected closed circuit, got %v", err)
	}
}

func TestProbeFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, time.Minute)
	b.clock = fixedClock(&now)

	_ = b.Do(func() error { return errBoom })
	now = now.Add(2 * time.Minute)

	if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("expected boom from probe, got %v", err)
	}

	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen after failed probe, got %v", err)
	}
}

func TestSingleProbeAtATime(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, time.Minute)
	b.clock = fixedClock(&now)

	_ = b.Do(func() error { return errBoom })
	now = now.Add(2 * time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- b.Do(func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	// Second call while the probe is in flight is rejected.
	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen during probe, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("probe failed: %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(2, time.Minute)

	_ = b.Do(func() error { return errBoom })
	_ = b.Do(func() error { return nil })
	_ = b.Do(func() error { return errBoom })

	// Only one consecutive failure; circuit stays closed.
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("expected closed circuit, got %v", err)
	}
}
