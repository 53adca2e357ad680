package events

import (
	"fmt"
	"os"
)

// Queue is the single-producer/single-consumer channel the decoder
// posts events to. Delivery is FIFO; by default it is non-lossy — the
// queue grows without bound rather than drop events. A Queue
// constructed with NewLossy
// trades that guarantee for a bounded ring, which is the right
// tradeoff for a best-effort consumer like the GUI sink.
type Queue struct {
	in     chan<- Event
	out    <-chan Event
	lossy  bool
	warned bool
}

// New creates a non-lossy queue. initialCap sizes the internal backing
// slice; the queue itself is unbounded in the sense that Push always
// succeeds (it may block).
func New(initialCap int) *Queue {
	in, out := pump(initialCap, -1)
	return &Queue{in: in, out: out}
}

// NewLossy creates a queue that drops the oldest buffered event once
// hardLimit items are queued, logging a warning to stderr the first
// time it does so. Intended for sinks that must never apply
// backpressure to the decoder (e.g. a GUI).
func NewLossy(initialCap, hardLimit int) *Queue {
	in, out := pump(initialCap, hardLimit)
	return &Queue{in: in, out: out, lossy: true}
}

// Push enqueues an event. A slow consumer does not make it block: a
// non-lossy queue buffers the event, a lossy one drops its oldest.
func (q *Queue) Push(e Event) {
	q.in <- e
}

// Events returns the consumer-side channel.
func (q *Queue) Events() <-chan Event {
	return q.out
}

// pump is adapted from a generic unbounded-channel pump: grown to a
// slice-backed queue so Push never has to select against a fixed-size
// channel. hardLimit < 0 means never drop.
func pump(initialCap, hardLimit int) (chan<- Event, <-chan Event) {
	in := make(chan Event, 16)
	out := make(chan Event, 16)

	go func() {
		defer close(out)

		queue := make([]Event, 0, initialCap)
		warned := false

		for {
			var next Event
			var downstream chan Event

			if len(queue) > 0 {
				next = queue[0]
				downstream = out
			}

			select {
			case val, ok := <-in:
				if !ok {
					for _, item := range queue {
						out <- item
					}
					return
				}

				if hardLimit >= 0 && len(queue) >= hardLimit {
					if !warned {
						fmt.Fprintf(os.Stderr, "[events] queue limit reached (%d), dropping oldest event\n", hardLimit)
						warned = true
					}
					queue = queue[1:]
				}

				queue = append(queue, val)

			case downstream <- next:
				queue = queue[1:]
			}
		}
	}()

	return in, out
}
