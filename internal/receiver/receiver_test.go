package receiver

import (
	"fmt"
	"testing"
	"time"

	"github.com/fenilsonani/hunt/internal/walker"
)

// fakeClock lets a test fire the buffered-phase deadline synchronously
// instead of racing a real timer.
type fakeClock struct {
	ch chan time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{ch: make(chan time.Time, 1)} }

func (c *fakeClock) After(time.Duration) <-chan time.Time { return c.ch }

func (c *fakeClock) fire() { c.ch <- time.Now() }

type recordingSink struct {
	emitted []string
	phases  []Phase
	finished bool
}

func (s *recordingSink) Emit(e *walker.Entry, phase Phase) error {
	s.emitted = append(s.emitted, e.Path)
	s.phases = append(s.phases, phase)
	return nil
}

func (s *recordingSink) Finish() error {
	s.finished = true
	return nil
}

func entryMsg(path string) walker.Message {
	return walker.Message{Kind: walker.MsgEntry, Entry: walker.NewEntry(path, path, 1, nil, false)}
}

func TestReceiverBufferedPhaseSortsBeforeDeadline(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	r := New(Options{MaxBufferTime: time.Hour, Clock: clock}, &walker.CancelFlag{}, sink)

	ch := make(chan walker.Message, 8)
	ch <- entryMsg("b.txt")
	ch <- entryMsg("a.txt")
	ch <- entryMsg("c.txt")
	close(ch)

	// The buffered phase waits on ch until closed, then falls through to
	// the final flush since the deadline never fires.
	res := r.Run(ch)

	if res.Emitted != 3 {
		t.Fatalf("expected 3 entries emitted, got %d", res.Emitted)
	}
	want := []string{"a.txt", "b.txt", "c.txt"}
	for i, w := range want {
		if sink.emitted[i] != w {
			t.Errorf("emitted[%d] = %q, want %q (buffered phase must sort)", i, sink.emitted[i], w)
		}
	}
	if !sink.finished {
		t.Error("expected Finish to be called")
	}
}

func TestReceiverStreamingPhaseAfterSoftCap(t *testing.T) {
	// Never fire the deadline: crossing the soft cap is the only path to
	// the streaming phase here, which keeps the whole test single-
	// threaded and deterministic (no race between a timer and a send).
	clock := newFakeClock()
	sink := &recordingSink{}
	r := New(Options{MaxBufferTime: time.Hour, Clock: clock}, &walker.CancelFlag{}, sink)

	const fillerCount = bufferSoftCap
	ch := make(chan walker.Message, fillerCount+4)
	for i := 0; i < fillerCount; i++ {
		ch <- entryMsg(fmt.Sprintf("filler/%05d", i))
	}
	// Sent out of arrival order on purpose: once streaming, entries must
	// come through exactly as sent, not re-sorted.
	ch <- entryMsg("z.txt")
	ch <- entryMsg("y.txt")
	close(ch)

	res := r.Run(ch)

	if res.Emitted != fillerCount+2 {
		t.Fatalf("expected %d entries emitted, got %d", fillerCount+2, res.Emitted)
	}
	last := sink.emitted[len(sink.emitted)-2:]
	if last[0] != "z.txt" || last[1] != "y.txt" {
		t.Errorf("streaming phase must preserve arrival order, got %v", last)
	}
}

func TestReceiverMaxResultsCancelsWalker(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	cancel := &walker.CancelFlag{}
	r := New(Options{MaxBufferTime: time.Hour, MaxResults: 2, Clock: clock}, cancel, sink)

	ch := make(chan walker.Message, 8)
	ch <- entryMsg("a.txt")
	ch <- entryMsg("b.txt")
	ch <- entryMsg("c.txt")
	close(ch)

	res := r.Run(ch)

	if res.Emitted != 2 {
		t.Fatalf("expected exactly 2 entries under MaxResults=2, got %d", res.Emitted)
	}
	if !cancel.IsSet() {
		t.Error("expected the shared CancelFlag to be set once MaxResults is reached")
	}
}

func TestReceiverExecBatchAccumulatesAndSorts(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	r := New(Options{ExecBatch: true, Clock: clock}, &walker.CancelFlag{}, sink)

	ch := make(chan walker.Message, 8)
	ch <- entryMsg("z.txt")
	ch <- entryMsg("a.txt")
	ch <- walker.Message{Kind: walker.MsgQuit}
	close(ch)

	res := r.Run(ch)

	if res.Emitted != 2 {
		t.Fatalf("expected 2 entries emitted, got %d", res.Emitted)
	}
	if sink.emitted[0] != "a.txt" || sink.emitted[1] != "z.txt" {
		t.Errorf("batch mode must emit in sorted order, got %v", sink.emitted)
	}
}

func TestReceiverRecordsErrors(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	r := New(Options{MaxBufferTime: time.Hour, Clock: clock}, &walker.CancelFlag{}, sink)

	ch := make(chan walker.Message, 4)
	ch <- walker.Message{Kind: walker.MsgError, Err: &walker.WalkError{Path: "/broken", Kind: walker.ErrIO}}
	close(ch)

	res := r.Run(ch)

	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 recorded error, got %d", len(res.Errors))
	}
	if res.Errors[0].Path != "/broken" {
		t.Errorf("got error path %q, want /broken", res.Errors[0].Path)
	}
}
