package parallel

import "errors"
import "sync/atomic"
import "testing"

func TestForEach(t *testing.T) {
	var out = make([]int, 100)
	var calls atomic.Int64
	ForEach(len(out), 7, func(i int) {
		calls.Add(1)
		out[i] = i * i
	})
	if calls.Load() != 100 {
		t.Errorf("expected 100 calls, got %d", calls.Load())
	}
	for i, v := range out {
		if v != i*i {
			t.Errorf("index %d not processed: %d", i, v)
		}
	}
	ForEach(0, 4, func(i int) {
		t.Errorf("body called for empty loop")
	})
}

func TestForEachErr(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	err := ForEachErr(10, 3, func(i int) error {
		switch i {
		case 3:
			return errA
		case 8:
			return errB
		}
		return nil
	})
	if err != errA {
		t.Errorf("expected lowest index error, got %v", err)
	}
	if ForEachErr(5, 2, func(int) error { return nil }) != nil {
		t.Errorf("unexpected error")
	}
}

func TestThreads(t *testing.T) {
	if Threads() <= 0 {
		t.Fatalf("no threads detected")
	}
	SetThreads(3)
	if Threads() != 3 {
		t.Errorf("override ignored: %d", Threads())
	}
	SetThreads(0)
	if Threads() <= 0 {
		t.Errorf("detection not restored")
	}
}
