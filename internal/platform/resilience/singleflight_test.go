package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_DeduplicatesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var flight SingleFlight
	var executions atomic.Int32

	release := make(chan struct{})
	started := make(chan struct{})

	var wg sync.WaitGroup
	var shared atomic.Int32
	wg.Add(1)
	go func() {
		defer wg.Done()
		val, err, _ := flight.Do("k", func() (any, error) {
			close(started)
			<-release
			executions.Add(1)
			return 42, nil
		})
		if err != nil || val != 42 {
			t.Errorf("unexpected result %v %v", val, err)
		}
	}()

	<-started
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err, dedup := flight.Do("k", func() (any, error) {
				executions.Add(1)
				return 42, nil
			})
			if err != nil || val != 42 {
				t.Errorf("unexpected result %v %v", val, err)
			}
			if dedup {
				shared.Add(1)
			}
		}()
	}

	// Give the joiners time to attach before the first call finishes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	// Joiners attached before the release all share the first execution.
	if got := executions.Load(); int(got)+int(shared.Load()) != 9 {
		t.Fatalf("executions=%d shared=%d do not account for all callers", got, shared.Load())
	}
	if shared.Load() == 0 {
		t.Fatalf("expected at least one deduplicated caller")
	}
}

func TestSingleFlight_PropagatesErrors(t *testing.T) {
	t.Parallel()

	var flight SingleFlight
	boom := errors.New("boom")

	if _, err, _ := flight.Do("k", func() (any, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	// A finished call does not pin its error for later callers.
	val, err, _ := flight.Do("k", func() (any, error) {
		return "ok", nil
	})
	if err != nil || val != "ok" {
		t.Fatalf("expected fresh execution, got %v %v", val, err)
	}
}

func TestSingleFlight_DistinctKeysRunIndependently(t *testing.T) {
	t.Parallel()

	var flight SingleFlight
	var executions atomic.Int32

	for _, key := range []string{"a", "b"} {
		if _, err, _ := flight.Do(key, func() (any, error) {
			executions.Add(1)
			return key, nil
		}); err != nil {
			t.Fatalf("Do(%s) error: %v", key, err)
		}
	}

	if got := executions.Load(); got != 2 {
		t.Fatalf("expected one execution per key, got %d", got)
	}
}
