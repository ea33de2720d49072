package scheduler

import (
	"time"

	"offloadd/pkg/types"
)

// Status builds a detailed status response for /status.
func (s *Scheduler) Status() types.StatusResponse {
	tiers, comps := s.reg.Snapshot()
	s.mu.Lock()
	resp := types.StatusResponse{
		TransfersTotal: s.exec.Moves(),
		EvictionsTotal: s.evictions.Load(),
		LastError:      s.lastErr,
		UptimeSeconds:  int64(time.Since(s.startTime) / time.Second),
	}
	inflight := make(map[string]int, len(s.inflight))
	for id, n := range s.inflight {
		inflight[id] = n
	}
	s.mu.Unlock()

	resp.Tiers = make([]types.TierStatus, 0, len(tiers))
	for _, t := range tiers {
		resp.Tiers = append(resp.Tiers, types.TierStatus{
			Name:          string(t.Tier),
			CapacityBytes: max(t.Capacity, 0),
			UsedBytes:     t.Used,
			Occupants:     t.Occupants,
		})
	}
	resp.Components = make([]types.ComponentStatus, 0, len(comps))
	for _, c := range comps {
		resp.Components = append(resp.Components, types.ComponentStatus{
			ID:              c.ID,
			Tier:            string(c.Tier),
			FootprintBytes:  c.Footprint,
			LastUsedSeq:     c.LastUsed,
			Inflight:        inflight[c.ID],
			ReleaseAfterUse: s.comps[c.ID].ReleaseAfterUse(),
			Groups:          append([]string(nil), s.groupsOf[c.ID]...),
		})
	}
	return resp
}

// ListGroups returns the exclusivity groups as DTOs, in configuration order.
func (s *Scheduler) ListGroups() []types.Group {
	out := make([]types.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, types.Group{Name: g.Name, Members: append([]string(nil), g.Members...)})
	}
	return out
}

// ListComponents returns the configured components as DTOs.
func (s *Scheduler) ListComponents() []types.Component {
	out := make([]types.Component, 0, len(s.order))
	for _, id := range s.order {
		c := s.comps[id]
		out = append(out, types.Component{ID: id, FootprintBytes: c.Footprint(), ReleaseAfterUse: c.ReleaseAfterUse()})
	}
	return out
}
