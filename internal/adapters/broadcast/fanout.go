// Package broadcast holds snapshot sinks that leave the process.
package broadcast

import (
	"github.com/dkeye/Trivia/internal/core"
	"github.com/dkeye/Trivia/internal/domain"
)

// Fanout hands each snapshot to every sink in order. Nil sinks are skipped
// at construction.
type Fanout []core.BroadcastSink

func NewFanout(sinks ...core.BroadcastSink) Fanout {
	out := make(Fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f Fanout) Publish(id domain.SessionID, snap domain.Snapshot) {
	for _, s := range f {
		s.Publish(id, snap)
	}
}
