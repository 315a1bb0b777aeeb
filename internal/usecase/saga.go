package usecase

import (
	"context"
	"fmt"
	"time"
)

const defaultCompensationTimeout = 5 * time.Second

type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// CompensationError is returned when a step failed and undoing an earlier step failed as well.
type CompensationError struct {
	Step          string
	Compensating  string
	Err           error
	CompensateErr error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("step %s failed: %v; compensating %s failed: %v", e.Step, e.Err, e.Compensating, e.CompensateErr)
}

func (e *CompensationError) Unwrap() []error { return []error{e.Err, e.CompensateErr} }

// saga runs steps strictly in order. When a step fails, the compensations of the steps that already
// completed run in reverse order and the step's own error is returned unchanged. Compensations run on a
// context detached from the caller's cancellation, bounded by timeout.
type saga struct {
	steps     []sagaStep
	timeout   time.Duration
	onUndo    func(step string, err error)
	completed []sagaStep
}

func newSaga(timeout time.Duration) *saga {
	if timeout <= 0 {
		timeout = defaultCompensationTimeout
	}
	return &saga{timeout: timeout}
}

func (s *saga) step(name string, run, compensate func(ctx context.Context) error) *saga {
	s.steps = append(s.steps, sagaStep{name: name, run: run, compensate: compensate})
	return s
}

func (s *saga) execute(ctx context.Context) error {
	for _, st := range s.steps {
		if err := st.run(ctx); err != nil {
			return s.rollback(ctx, st.name, err)
		}
		s.completed = append(s.completed, st)
	}
	return nil
}

func (s *saga) rollback(ctx context.Context, failed string, cause error) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	for i := len(s.completed) - 1; i >= 0; i-- {
		st := s.completed[i]
		if st.compensate == nil {
			continue
		}
		err := st.compensate(cctx)
		if s.onUndo != nil {
			s.onUndo(st.name, err)
		}
		if err != nil {
			return &CompensationError{Step: failed, Compensating: st.name, Err: cause, CompensateErr: err}
		}
	}
	return cause
}
