package disposal

import (
	"errors"
	"fmt"
	"testing"
)

// eventLog records waits and frees in the order they happen.
type eventLog struct {
	events []string
}

func (l *eventLog) wait(name string) WaitFunc {
	return func() error {
		l.events = append(l.events, "wait:"+name)
		return nil
	}
}

func (l *eventLog) res(name string) Resource {
	return ResourceFunc(func() {
		l.events = append(l.events, "free:"+name)
	})
}

func (l *eventLog) equal(t *testing.T, want ...string) {
	t.Helper()
	if len(l.events) != len(want) {
		t.Fatalf("events = %v, want %v", l.events, want)
	}
	for i := range want {
		if l.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", l.events, want)
		}
	}
}

func modes() []Mode { return []Mode{SingleThreaded, MultiProducer} }

func TestQueueFlushScenario(t *testing.T) {
	for _, mode := range modes() {
		t.Run(mode.String(), func(t *testing.T) {
			var log eventLog
			q := New(WithMode(mode))

			q.Push(NewBatch(log.wait("A"), log.res("r1"), log.res("r2")))
			q.Push(NewBatch(nil, log.res("r3")))

			if len(log.events) != 0 {
				t.Fatalf("Push performed work: %v", log.events)
			}

			if err := q.Flush(); err != nil {
				t.Fatalf("Flush failed: %v", err)
			}
			log.equal(t, "wait:A", "free:r1", "free:r2", "free:r3")
			if q.Len() != 0 {
				t.Errorf("Len() = %d after Flush, want 0", q.Len())
			}
		})
	}
}

func TestQueueFlushOrder(t *testing.T) {
	var log eventLog
	q := New(WithMode(SingleThreaded))

	var want []string
	for i := range 5 {
		name := fmt.Sprintf("b%d", i)
		q.Push(NewBatch(log.wait(name), log.res(name+".0"), log.res(name+".1")))
		want = append(want, "wait:"+name, "free:"+name+".0", "free:"+name+".1")
	}

	if err := q.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	log.equal(t, want...)
}

func TestQueueFlushEmpty(t *testing.T) {
	q := New()
	if err := q.Flush(); err != nil {
		t.Errorf("Flush() on empty queue = %v", err)
	}
	if err := q.Flush(); err != nil {
		t.Errorf("second Flush() on empty queue = %v", err)
	}
	if s := q.Stats(); s.Pushed != 0 || s.Retired != 0 {
		t.Errorf("Stats() = %+v, want zero", s)
	}
}

func TestQueueWaitOnlyBatch(t *testing.T) {
	var log eventLog
	q := New()
	q.Push(NewBatch(log.wait("barrier")))

	if err := q.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	log.equal(t, "wait:barrier")
	if s := q.Stats(); s.Retired != 1 || s.Freed != 0 {
		t.Errorf("Stats() = %+v, want 1 retired, 0 freed", s)
	}
}

func TestQueueStallKeepsBatchAtHead(t *testing.T) {
	var log eventLog
	q := New(WithMode(SingleThreaded))

	attempts := 0
	q.Push(NewBatch(log.wait("A"), log.res("a")))
	b := NewBatch(func() error {
		attempts++
		if attempts == 1 {
			return ErrWaitTimeout
		}
		return nil
	}, log.res("b"))
	b.Label = "frame-2"
	q.Push(b)
	q.Push(NewBatch(nil, log.res("c")))

	err := q.Flush()
	var stalled *StalledError
	if !errors.As(err, &stalled) {
		t.Fatalf("Flush error = %v, want *StalledError", err)
	}
	if !errors.Is(err, ErrWaitTimeout) {
		t.Errorf("Flush error = %v, want ErrWaitTimeout", err)
	}
	if stalled.Seq != 2 || stalled.Label != "frame-2" {
		t.Errorf("stalled batch = %d (%q), want 2 (frame-2)", stalled.Seq, stalled.Label)
	}
	log.equal(t, "wait:A", "free:a")
	if q.Len() != 2 {
		t.Fatalf("Len() = %d after stall, want 2", q.Len())
	}

	if err := q.Flush(); err != nil {
		t.Fatalf("retry Flush failed: %v", err)
	}
	log.equal(t, "wait:A", "free:a", "free:b", "free:c")
	if attempts != 2 {
		t.Errorf("wait attempts = %d, want 2", attempts)
	}
}

func TestQueuePushDuringFlush(t *testing.T) {
	var log eventLog
	q := New()

	q.Push(NewBatch(func() error {
		q.Push(NewBatch(nil, log.res("late")))
		return nil
	}, log.res("early")))

	if err := q.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	log.equal(t, "free:early", "free:late")
}

func TestQueueCollect(t *testing.T) {
	var log eventLog
	q := New(WithMode(SingleThreaded))

	done := map[string]bool{"A": true}
	probe := func(name string) ReadyFunc {
		return func() bool { return done[name] }
	}

	q.Push(NewBatch(log.wait("A"), log.res("a")).SetReady(probe("A")))
	q.Push(NewBatch(nil, log.res("free")))
	q.Push(NewBatch(log.wait("B"), log.res("b")).SetReady(probe("B")))
	q.Push(NewBatch(nil, log.res("after-b")))
	q.Push(NewBatch(log.wait("C"), log.res("c")))

	n, err := q.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Collect() = %d, want 2", n)
	}
	log.equal(t, "wait:A", "free:a", "free:free")

	done["B"] = true
	n, err = q.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Collect() = %d, want 2", n)
	}
	// C has no probe, so only Flush retires it.
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}

	if err := q.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	log.equal(t, "wait:A", "free:a", "free:free", "wait:B", "free:b", "free:after-b", "wait:C", "free:c")
}

func TestQueueCollectStall(t *testing.T) {
	q := New()
	q.Push(NewBatch(func() error { return ErrWaitTimeout }).SetReady(func() bool { return true }))

	n, err := q.Collect()
	if n != 0 || !errors.Is(err, ErrWaitTimeout) {
		t.Errorf("Collect() = %d, %v; want 0, ErrWaitTimeout", n, err)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
}

func TestQueueStats(t *testing.T) {
	var log eventLog
	q := New()
	q.Defer(nil, log.res("a"), log.res("b"))
	q.Defer(log.wait("w"), log.res("c"))

	if s := q.Stats(); s.Pushed != 2 || s.Pending != 2 || s.Retired != 0 {
		t.Errorf("Stats() before flush = %+v", s)
	}
	if err := q.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	want := Stats{Pushed: 2, Retired: 2, Freed: 3, Pending: 0}
	if s := q.Stats(); s != want {
		t.Errorf("Stats() = %+v, want %+v", s, want)
	}
}

func TestQueuePushNilAndTwice(t *testing.T) {
	q := New()
	q.Push(nil)
	if q.Len() != 0 {
		t.Errorf("Len() = %d after Push(nil), want 0", q.Len())
	}

	b := NewBatch(nil)
	q.Push(b)
	if b.Seq() != 1 {
		t.Errorf("Seq() = %d, want 1", b.Seq())
	}

	defer func() {
		if recover() == nil {
			t.Error("second Push of the same batch did not panic")
		}
	}()
	q.Push(b)
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{MultiProducer, "MultiProducer"},
		{SingleThreaded, "SingleThreaded"},
		{Mode(7), "Mode(7)"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", int(tt.mode), got, tt.want)
		}
	}
}

func TestQueueDefaultMode(t *testing.T) {
	if m := New().Mode(); m != MultiProducer {
		t.Errorf("default Mode() = %v, want MultiProducer", m)
	}
	if _, ok := New(WithMode(SingleThreaded)).mu.(nopLocker); !ok {
		t.Error("SingleThreaded queue should not lock")
	}
}

func TestStalledErrorMessage(t *testing.T) {
	err := &StalledError{Seq: 3, Err: ErrWaitTimeout}
	if got, want := err.Error(), "disposal: batch 3 stalled: disposal: wait timed out"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	err.Label = "shadow"
	if got, want := err.Error(), "disposal: batch 3 (shadow) stalled: disposal: wait timed out"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
