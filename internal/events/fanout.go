package events

// Fanout replicates every event from one source Queue to any number of
// subscriber Queues. A Go channel delivers each value to exactly one
// receiver, so two sinks ranging over the same Queue would silently
// split the stream instead of both seeing every event; Fanout exists
// so a second sink (e.g. the GUI) can observe the same events the
// primary sink (the mapper) does.
type Fanout struct {
	source      *Queue
	subscribers []*Queue
}

// NewFanout creates a Fanout reading from source. Subscribe every
// output queue before calling Run.
func NewFanout(source *Queue) *Fanout {
	return &Fanout{source: source}
}

// Subscribe registers q to receive a copy of every event Run reads
// from the source, including the terminal Shutdown event.
func (f *Fanout) Subscribe(q *Queue) {
	f.subscribers = append(f.subscribers, q)
}

// Run reads from the source until its channel closes or a Shutdown
// event arrives, pushing each event to every subscriber in turn, then
// returns. It is meant to run on its own goroutine.
func (f *Fanout) Run() {
	for ev := range f.source.Events() {
		for _, sub := range f.subscribers {
			sub.Push(ev)
		}
		if ev.Type == Shutdown {
			return
		}
	}
}
