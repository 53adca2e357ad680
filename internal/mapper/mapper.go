// Package mapper implements the default event consumer: it logs events
// and deduplicates repeated room arrivals, standing in for full
// mapping/pathfinding logic, which is out of scope here.
package mapper

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/drake/mudgate/internal/events"
)

const dedupCacheSize = 256

// Sink consumes a decoder's event queue until it closes or a Shutdown
// event arrives, logging each event and suppressing duplicate Dynamic
// (room text) payloads seen within the last dedupCacheSize arrivals.
type Sink struct {
	log  *zap.Logger
	seen *lru.Cache[string, struct{}]
}

// New creates a Sink. log may be nil, in which case a no-op logger is
// used (convenient for tests).
func New(log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	cache, err := lru.New[string, struct{}](dedupCacheSize)
	if err != nil {
		// Only fails for a non-positive size, which dedupCacheSize never is.
		panic(err)
	}
	return &Sink{log: log, seen: cache}
}

// Run drains q until its channel closes or a Shutdown event arrives.
// It is meant to run on its own goroutine, one per session.
func (s *Sink) Run(q *events.Queue) {
	for ev := range q.Events() {
		if ev.Type == events.Shutdown {
			return
		}
		s.handle(ev)
	}
}

func (s *Sink) handle(ev events.Event) {
	switch ev.Type {
	case events.Dynamic:
		key := ev.Text()
		if _, dup := s.seen.Get(key); dup {
			s.log.Debug("mapper: duplicate room arrival suppressed")
			return
		}
		s.seen.Add(key, struct{}{})
		s.log.Info("mapper: room", zap.String("text", key))

	case events.Name, events.Description, events.Exits, events.Prompt:
		s.log.Debug("mapper: "+ev.Type.String(), zap.String("text", ev.Text()))

	case events.Movement:
		s.log.Info("mapper: movement", zap.String("dir", ev.Text()))

	case events.Line:
		s.log.Debug("mapper: line", zap.String("text", ev.Text()))

	case events.IacGa:
		s.log.Debug("mapper: prompt terminator")
	}
}
