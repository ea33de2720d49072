package scheduler

import (
	"context"
	"errors"

	"offloadd/internal/memtier"
	"offloadd/internal/resident"
)

// ComputeFunc is one invocation of a component's compute entry point. It runs
// while the component is resident on the accelerator.
type ComputeFunc func(ctx context.Context, c *resident.Component) error

// Run brackets one invocation: the component is made resident, fn runs, and
// the component is released to Host afterwards when its ReleaseAfterUse
// policy is set. The component cannot be evicted while fn is running.
func (s *Scheduler) Run(ctx context.Context, id string, fn ComputeFunc) error {
	c, err := s.Component(id)
	if err != nil {
		return err
	}
	s.opMu.Lock()
	if err := s.ensureLocked(ctx, c, memtier.Accelerator); err != nil {
		s.opMu.Unlock()
		return err
	}
	// Mark busy before dropping opMu so no eviction can slip in between.
	s.markBusy(id)
	s.opMu.Unlock()

	err = s.invoke(ctx, c, fn)
	s.markIdle(id)

	if c.ReleaseAfterUse() {
		// Release even when ctx was canceled during compute so the
		// accelerator residency stays bounded by the invocation.
		if rerr := s.Release(context.WithoutCancel(ctx), id); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}
	return err
}

func (s *Scheduler) invoke(ctx context.Context, c *resident.Component, fn ComputeFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{component: c.ID(), value: r}
		}
	}()
	return fn(ctx, c)
}

func (s *Scheduler) markBusy(id string) {
	s.mu.Lock()
	s.inflight[id]++
	s.mu.Unlock()
}

func (s *Scheduler) markIdle(id string) {
	s.mu.Lock()
	if s.inflight[id] <= 1 {
		delete(s.inflight, id)
	} else {
		s.inflight[id]--
	}
	close(s.idle)
	s.idle = make(chan struct{})
	s.mu.Unlock()
}

func (s *Scheduler) inflightCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[id]
}

// waitIdle blocks until id has no invocation in flight.
func (s *Scheduler) waitIdle(ctx context.Context, id string) error {
	for {
		s.mu.Lock()
		if s.inflight[id] == 0 {
			s.mu.Unlock()
			return nil
		}
		ch := s.idle
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
