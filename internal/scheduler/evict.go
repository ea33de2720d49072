package scheduler

import (
	"context"
	"fmt"
	"sort"

	"offloadd/internal/memtier"
	"offloadd/internal/resident"
)

// byLRU orders ids by ascending last-used sequence; ties break on id so the
// order is deterministic.
func (s *Scheduler) byLRU(ids []string) []string {
	seq := make(map[string]uint64, len(ids))
	for _, id := range ids {
		n, _ := s.reg.LastUsed(id)
		seq[id] = n
	}
	sort.SliceStable(ids, func(i, j int) bool {
		if seq[ids[i]] != seq[ids[j]] {
			return seq[ids[i]] < seq[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// groupRivals returns the accelerator-resident members of every group that
// contains id, excluding id itself.
func (s *Scheduler) groupRivals(id string) []string {
	names := s.groupsOf[id]
	if len(names) == 0 {
		return nil
	}
	onAccel := make(map[string]bool)
	for _, occ := range s.reg.Occupants(memtier.Accelerator) {
		onAccel[occ] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, g := range s.groups {
		if !contains(names, g.Name) {
			continue
		}
		for _, m := range g.Members {
			if m == id || seen[m] || !onAccel[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// evictGroupMembers moves every accelerator-resident rival of id back to
// Host, least recently used first. A rival still computing is waited for.
func (s *Scheduler) evictGroupMembers(ctx context.Context, id string) error {
	for _, victim := range s.byLRU(s.groupRivals(id)) {
		if err := s.waitIdle(ctx, victim); err != nil {
			return fmt.Errorf("wait for %s to finish: %w", victim, err)
		}
		if err := s.evict(ctx, s.comps[victim], "group", id); err != nil {
			return err
		}
	}
	return nil
}

// evictUntilFits evicts idle accelerator residents LRU-first until c fits.
// Busy residents are skipped; if nothing is left to evict the subsequent
// move reports the shortfall.
func (s *Scheduler) evictUntilFits(ctx context.Context, c *resident.Component) error {
	for {
		fits, err := s.reg.WouldFit(memtier.Accelerator, c.ID())
		if err != nil {
			return err
		}
		if fits {
			return nil
		}
		var idle []string
		for _, occ := range s.reg.Occupants(memtier.Accelerator) {
			if occ != c.ID() && s.inflightCount(occ) == 0 {
				idle = append(idle, occ)
			}
		}
		if len(idle) == 0 {
			return nil
		}
		if err := s.evict(ctx, s.comps[s.byLRU(idle)[0]], "budget", c.ID()); err != nil {
			return err
		}
	}
}

func (s *Scheduler) evict(ctx context.Context, victim *resident.Component, reason, forID string) error {
	if err := s.exec.Move(ctx, victim, memtier.Accelerator, memtier.Host); err != nil {
		return fmt.Errorf("evict %s: %w", victim.ID(), err)
	}
	s.evictions.Add(1)
	evictionsTotal.WithLabelValues(reason).Inc()
	s.log.Info().Str("event", "evict").Str("component", victim.ID()).Str("reason", reason).
		Str("for", forID).Int64("bytes", victim.Footprint()).Msg("scheduler")
	s.publisher.Publish(Event{Name: "evict", Component: victim.ID(), Fields: map[string]any{"reason": reason, "for": forID}})
	return nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
