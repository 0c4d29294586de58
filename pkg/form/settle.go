package form

import (
	"context"
	"sync"
)

// Settle resolves once an update has been applied or discarded.
type Settle struct {
	done    chan struct{}
	once    sync.Once
	applied bool
}

func newSettle() *Settle {
	return &Settle{done: make(chan struct{})}
}

func settled(applied bool) *Settle {
	s := newSettle()
	s.resolve(applied)
	return s
}

func (s *Settle) resolve(applied bool) {
	s.once.Do(func() {
		s.applied = applied
		close(s.done)
	})
}

// Done is closed when the update has settled.
func (s *Settle) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the update settles or ctx is done.
func (s *Settle) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Applied reports whether the update took effect. It is false for updates
// superseded by a later one, and only meaningful after Done is closed.
func (s *Settle) Applied() bool {
	select {
	case <-s.done:
		return s.applied
	default:
		return false
	}
}
