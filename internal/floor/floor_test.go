package floor

import (
	"sync"
	"sync/atomic"
	"testing"

	"buzzquiz/arbiter/internal/types"
)

func TestFirstBuzzTakesFloor(t *testing.T) {
	f := New(0, 4)
	f.Open(4)
	d := f.OnBuzz(2)
	if !d.Granted || d.Contestant != 2 {
		t.Fatalf("expected grant for 2, got %+v", d)
	}
	d = f.OnBuzz(1)
	if d.Granted || d.Reason != ReasonFloorHeld {
		t.Fatalf("expected floor_held, got %+v", d)
	}
	if h, ok := f.Holder(); !ok || h != 2 {
		t.Fatalf("holder should be 2, got %v/%v", h, ok)
	}
}

func TestRepeatBuzzIsDropped(t *testing.T) {
	f := New(0, 4)
	f.Open(4)
	f.OnBuzz(3)
	f.Release(3)
	d := f.OnBuzz(3)
	if d.Granted || d.Reason != ReasonAlreadyBuzzed {
		t.Fatalf("expected already_buzzed, got %+v", d)
	}
	if got := f.Buzzed(); len(got) != 1 {
		t.Fatalf("buzz order should hold one entry, got %v", got)
	}
}

func TestClosedRoundDropsBuzz(t *testing.T) {
	f := New(0, 4)
	if d := f.OnBuzz(0); d.Granted || d.Reason != ReasonClosed {
		t.Fatalf("expected round_closed, got %+v", d)
	}
	f.Open(4)
	f.Close()
	if d := f.OnBuzz(0); d.Granted {
		t.Fatalf("should not grant after close")
	}
}

func TestIneligibleAndQuota(t *testing.T) {
	f := New(1, 3)
	f.Open(2)
	if d := f.OnBuzz(0); d.Reason != ReasonIneligible {
		t.Fatalf("expected ineligible for 0, got %+v", d)
	}
	if d := f.OnBuzz(4); d.Reason != ReasonIneligible {
		t.Fatalf("expected ineligible for 4, got %+v", d)
	}
	f.OnBuzz(1)
	f.Release(1)
	f.OnBuzz(3)
	f.Release(3)
	if d := f.OnBuzz(2); d.Granted || d.Reason != ReasonQuotaReached {
		t.Fatalf("expected quota_reached, got %+v", d)
	}
}

func TestReleaseOnlyByHolder(t *testing.T) {
	f := New(0, 4)
	f.Open(4)
	f.OnBuzz(1)
	if f.Release(2) {
		t.Fatalf("non-holder must not release")
	}
	if !f.Release(1) {
		t.Fatalf("holder release should succeed")
	}
	if _, ok := f.Holder(); ok {
		t.Fatalf("floor should be free")
	}
}

func TestOpenResetsRound(t *testing.T) {
	f := New(0, 2)
	f.Open(2)
	f.OnBuzz(0)
	f.Release(0)
	f.Open(2)
	if d := f.OnBuzz(0); !d.Granted {
		t.Fatalf("new round should accept 0 again, got %+v", d)
	}
}

func TestConcurrentBuzzesGrantOnce(t *testing.T) {
	f := New(0, 64)
	f.Open(64)

	var grants atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(id types.ContestantID) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if f.OnBuzz(id).Granted {
					grants.Add(1)
				}
			}
		}(types.ContestantID(i))
	}
	wg.Wait()
	if grants.Load() != 1 {
		t.Fatalf("expected exactly one grant, got %d", grants.Load())
	}
}
