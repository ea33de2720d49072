package scheduler

import (
	"context"
	"fmt"
	"time"

	"offloadd/internal/memtier"
	"offloadd/internal/resident"
)

// EnsureResident makes id resident in target, evicting conflicting
// residents first. It is called immediately before the component's compute
// entry point runs.
func (s *Scheduler) EnsureResident(ctx context.Context, id string, target memtier.Tier) error {
	c, err := s.Component(id)
	if err != nil {
		return err
	}
	if !target.Valid() {
		return fmt.Errorf("scheduler: invalid target tier %q", target)
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.ensureLocked(ctx, c, target)
}

// ensureLocked runs the placement algorithm; s.opMu must be held.
func (s *Scheduler) ensureLocked(ctx context.Context, c *resident.Component, target memtier.Tier) error {
	if s.isClosed() {
		return ErrClosed
	}
	id := c.ID()
	startTs := time.Now()
	cur, err := s.reg.CurrentTier(id)
	if err != nil {
		return err
	}
	if cur == target {
		if _, err := s.reg.Touch(id); err != nil {
			return err
		}
		ensureTotal.WithLabelValues("hit").Inc()
		s.publisher.Publish(Event{Name: "ensure_hit", Component: id, Fields: map[string]any{"tier": string(target)}})
		return nil
	}

	// A component larger than the whole tier never fits; fail before churning.
	if capacity := s.reg.Capacity(target); capacity > 0 && c.Footprint() > capacity {
		err := &memtier.CapacityError{Component: id, Tier: target, Required: c.Footprint(), Available: capacity}
		return s.ensureFailed(id, err)
	}

	s.log.Debug().Str("event", "ensure_start").Str("component", id).Str("from", string(cur)).
		Str("to", string(target)).Msg("scheduler")
	s.publisher.Publish(Event{Name: "ensure_start", Component: id, Fields: map[string]any{"from": string(cur), "to": string(target)}})

	if target == memtier.Accelerator {
		if err := s.evictGroupMembers(ctx, id); err != nil {
			return s.ensureFailed(id, err)
		}
		if err := s.evictUntilFits(ctx, c); err != nil {
			return s.ensureFailed(id, err)
		}
	}
	if cur == memtier.Accelerator {
		if err := s.waitIdle(ctx, id); err != nil {
			return s.ensureFailed(id, err)
		}
	}

	if err := s.exec.Move(ctx, c, cur, target); err != nil {
		if IsAllocationFailure(err) {
			err = &memtier.CapacityError{
				Component: id,
				Tier:      target,
				Required:  c.Footprint(),
				Available: s.reg.Available(target),
				Cause:     err,
			}
		}
		return s.ensureFailed(id, err)
	}
	if _, err := s.reg.Touch(id); err != nil {
		return err
	}
	s.observeTiers()
	s.setErr(nil)
	ensureTotal.WithLabelValues("moved").Inc()
	s.log.Info().Str("event", "ensure_ready").Str("component", id).Str("tier", string(target)).
		Dur("dur", time.Since(startTs)).Msg("scheduler")
	s.publisher.Publish(Event{Name: "ensure_ready", Component: id, Fields: map[string]any{"tier": string(target), "dur_ms": int(time.Since(startTs) / time.Millisecond)}})
	return nil
}

func (s *Scheduler) ensureFailed(id string, err error) error {
	s.observeTiers()
	s.setErr(err)
	ensureTotal.WithLabelValues("error").Inc()
	s.log.Error().Str("event", "ensure_fail").Str("component", id).Err(err).Msg("scheduler")
	s.publisher.Publish(Event{Name: "ensure_fail", Component: id, Fields: map[string]any{"error": err.Error()}})
	return err
}
