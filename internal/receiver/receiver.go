// Package receiver implements the two-phase merge described in spec §4.2:
// entries are buffered and sorted until a deadline or a soft cap, then
// streamed in arrival order, with a hard max-results cap that signals the
// walker to stop.
package receiver

import (
	"sort"
	"time"

	"github.com/fenilsonani/hunt/internal/walker"
)

// Clock supplies the deadline source for the buffered phase. Production
// code uses realClock; tests inject a fake one to drive the deadline
// synchronously, per Design Notes "make the deadline source injectable".
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the production Clock.
var RealClock Clock = realClock{}

// Sink is the destination a Receiver hands accepted entries to, in the
// final emission order. Implementations are the output formatter for
// plain printing and the command executor for --exec / --exec-batch.
type Sink interface {
	// Emit handles one entry. Phase indicates whether it arrived during
	// the buffered (sorted) phase or the streaming phase.
	Emit(e *walker.Entry, phase Phase) error
	// Finish is called once, after the last Emit, whether or not the run
	// was cut short by cancellation.
	Finish() error
}

type Phase int

const (
	PhaseBuffered Phase = iota
	PhaseStreaming
)

const bufferSoftCap = 8192

// Options configures a Receiver.
type Options struct {
	MaxBufferTime time.Duration
	MaxResults    int // 0 = unbounded
	ExecBatch     bool
	Clock         Clock
}

// Receiver drains a walker output channel and applies the buffered-then-
// streaming emission policy to a Sink.
type Receiver struct {
	opts   Options
	cancel *walker.CancelFlag
	sink   Sink
}

// New constructs a Receiver. cancel is the same flag the walker polls;
// the receiver sets it once MaxResults is satisfied.
func New(opts Options, cancel *walker.CancelFlag, sink Sink) *Receiver {
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	return &Receiver{opts: opts, cancel: cancel, sink: sink}
}

// Result summarizes what happened, for exit-code aggregation.
type Result struct {
	Emitted  int
	Errors   []*walker.WalkError
	SinkErr  error
}

// Run drains ch to completion (or until cancellation) and drives sink.
func (r *Receiver) Run(ch <-chan walker.Message) *Result {
	res := &Result{}

	if r.opts.ExecBatch {
		return r.runBatch(ch, res)
	}

	var buf []*walker.Entry
	deadline := r.opts.Clock.After(r.opts.MaxBufferTime)
	streaming := false

	flush := func() error {
		sort.Slice(buf, func(i, j int) bool { return buf[i].Path < buf[j].Path })
		for _, e := range buf {
			if err := r.sink.Emit(e, PhaseBuffered); err != nil {
				return err
			}
			res.Emitted++
			if r.capReached(res.Emitted) {
				r.cancel.Set()
				return nil
			}
		}
		buf = nil
		return nil
	}

drain:
	for {
		if !streaming {
			select {
			case <-deadline:
				streaming = true
				if err := flush(); err != nil {
					res.SinkErr = err
					break drain
				}
				if r.cancel.IsSet() {
					break drain
				}
				continue drain
			case msg, ok := <-ch:
				if !ok {
					break drain
				}
				if r.handleMessage(msg, res) {
					continue drain
				}
				buf = append(buf, msg.Entry)
				if len(buf) >= bufferSoftCap {
					streaming = true
					if err := flush(); err != nil {
						res.SinkErr = err
						break drain
					}
					if r.cancel.IsSet() {
						break drain
					}
				}
			}
			continue
		}

		msg, ok := <-ch
		if !ok {
			break drain
		}
		if r.handleMessage(msg, res) {
			continue
		}
		if err := r.sink.Emit(msg.Entry, PhaseStreaming); err != nil {
			res.SinkErr = err
			break drain
		}
		res.Emitted++
		if r.capReached(res.Emitted) {
			r.cancel.Set()
			break drain
		}
	}

	if !streaming && res.SinkErr == nil {
		if err := flush(); err != nil {
			res.SinkErr = err
		}
	}

	if err := r.sink.Finish(); err != nil && res.SinkErr == nil {
		res.SinkErr = err
	}
	return res
}

func (r *Receiver) runBatch(ch <-chan walker.Message, res *Result) *Result {
	var all []*walker.Entry
	for msg := range ch {
		if r.handleMessage(msg, res) {
			continue
		}
		all = append(all, msg.Entry)
		if r.capReached(len(all)) {
			r.cancel.Set()
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Path < all[j].Path })
	if r.opts.MaxResults > 0 && len(all) > r.opts.MaxResults {
		all = all[:r.opts.MaxResults]
	}
	for _, e := range all {
		if err := r.sink.Emit(e, PhaseBuffered); err != nil {
			res.SinkErr = err
			break
		}
		res.Emitted++
	}
	if err := r.sink.Finish(); err != nil && res.SinkErr == nil {
		res.SinkErr = err
	}
	return res
}

func (r *Receiver) handleMessage(msg walker.Message, res *Result) bool {
	switch msg.Kind {
	case walker.MsgError:
		res.Errors = append(res.Errors, msg.Err)
		return true
	case walker.MsgQuit:
		return true
	default:
		return false
	}
}

func (r *Receiver) capReached(n int) bool {
	return r.opts.MaxResults > 0 && n >= r.opts.MaxResults
}
