package scheduler

import (
	"context"
	"errors"

	"offloadd/internal/memtier"
)

// Release evicts id back to Host right away instead of waiting for the next
// conflicting EnsureResident. It is a no-op for a component already on Host.
// If the component is still computing, Release waits for it to finish.
func (s *Scheduler) Release(ctx context.Context, id string) error {
	c, err := s.Component(id)
	if err != nil {
		return err
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()
	cur, err := s.reg.CurrentTier(id)
	if err != nil {
		return err
	}
	if cur != memtier.Accelerator {
		s.publisher.Publish(Event{Name: "release_skip", Component: id, Fields: map[string]any{"tier": string(cur)}})
		return nil
	}
	if err := s.waitIdle(ctx, id); err != nil {
		return err
	}
	if err := s.exec.Move(ctx, c, memtier.Accelerator, memtier.Host); err != nil {
		s.setErr(err)
		s.log.Error().Str("event", "release_fail").Str("component", id).Err(err).Msg("scheduler")
		return err
	}
	s.observeTiers()
	s.log.Debug().Str("event", "release").Str("component", id).Msg("scheduler")
	s.publisher.Publish(Event{Name: "release", Component: id, Fields: map[string]any{}})
	return nil
}

// Reset moves every accelerator resident back to Host, waiting for running
// invocations. Used before a pipeline run to start from an empty accelerator.
func (s *Scheduler) Reset(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.resetLocked(ctx)
}

func (s *Scheduler) resetLocked(ctx context.Context) error {
	var errs []error
	for _, id := range s.byLRU(s.reg.Occupants(memtier.Accelerator)) {
		if err := s.waitIdle(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.exec.Move(ctx, s.comps[id], memtier.Accelerator, memtier.Host); err != nil {
			errs = append(errs, err)
			continue
		}
		s.publisher.Publish(Event{Name: "release", Component: id, Fields: map[string]any{"reason": "reset"}})
	}
	s.observeTiers()
	return errors.Join(errs...)
}

// Close releases every accelerator resident and rejects further placement.
func (s *Scheduler) Close(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	err := s.resetLocked(ctx)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}
