package order

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// saga records undo steps as writes are applied, from any goroutine.
type saga struct {
	mu    sync.Mutex
	steps []compensation
}

func (s *saga) add(name string, undo func(ctx context.Context) error) {
	s.mu.Lock()
	s.steps = append(s.steps, compensation{name: name, undo: undo})
	s.mu.Unlock()
}

// rollback runs every undo step newest first. Failures are logged and do not
// stop the remaining steps.
func (s *saga) rollback(ctx context.Context, log logrus.FieldLogger) int {
	s.mu.Lock()
	steps := s.steps
	s.steps = nil
	s.mu.Unlock()

	failed := 0
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i].undo(ctx); err != nil {
			failed++
			log.WithError(err).WithField("step", steps[i].name).Error("compensation failed")
		}
	}
	return failed
}
