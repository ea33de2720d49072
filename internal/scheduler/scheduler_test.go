package scheduler

import (
	"bytes"
	"testing"

	"offloadd/internal/memtier"
	"offloadd/internal/resident"
)

func TestNewValidatesGroups(t *testing.T) {
	a := comp("a", 1)
	if _, err := New(Config{Components: []*resident.Component{a}, Groups: []Group{{Name: "g", Members: []string{"a", "missing"}}}}); !IsUnknownComponent(err) {
		t.Fatalf("expected unknown component error, got %v", err)
	}
	if _, err := New(Config{Components: []*resident.Component{a}, Groups: []Group{{Name: "g"}, {Name: "g"}}}); err == nil {
		t.Fatalf("expected duplicate group error")
	}
	if _, err := New(Config{Components: []*resident.Component{a}, Groups: []Group{{Members: []string{"a"}}}}); err == nil {
		t.Fatalf("expected unnamed group error")
	}
	if _, err := New(Config{Components: []*resident.Component{a, comp("a", 2)}}); err == nil {
		t.Fatalf("expected duplicate component error")
	}
}

func TestNewStartsOnHost(t *testing.T) {
	s, _ := newTestScheduler(t, 10, nil, comp("a", 3), comp("b", 4))
	if got := s.Registry().Occupants(memtier.Host); !equalStrings(got, []string{"a", "b"}) {
		t.Fatalf("expected both on host, got %v", got)
	}
	if !s.Ready() {
		t.Fatalf("expected ready")
	}
}

func TestEnsureResidentPingPong(t *testing.T) {
	groups := []Group{{Name: "heavy", Members: []string{"x", "y"}}}
	s, pub := newTestScheduler(t, 10, groups, comp("x", 7), comp("y", 7))

	mustEnsure(t, s, "x")
	if got := s.Registry().Occupants(memtier.Accelerator); !equalStrings(got, []string{"x"}) {
		t.Fatalf("after x: occupancy=%v", got)
	}
	mustEnsure(t, s, "y")
	if got := s.Registry().Occupants(memtier.Accelerator); !equalStrings(got, []string{"y"}) {
		t.Fatalf("after y: occupancy=%v", got)
	}
	mustEnsure(t, s, "x")
	if got := s.Registry().Occupants(memtier.Accelerator); !equalStrings(got, []string{"x"}) {
		t.Fatalf("after x again: occupancy=%v", got)
	}
	if ev := pub.Named("evict"); !equalStrings(ev, []string{"x", "y"}) {
		t.Fatalf("unexpected evictions: %v", ev)
	}
	if used := s.Registry().UsedBytes(memtier.Accelerator); used != 7 {
		t.Fatalf("expected 7 bytes used, got %d", used)
	}
}

func TestEnsureResidentFastPath(t *testing.T) {
	s, pub := newTestScheduler(t, 10, nil, comp("x", 7))
	mustEnsure(t, s, "x")
	before := s.exec.Moves()
	seq1, _ := s.Registry().LastUsed("x")
	mustEnsure(t, s, "x")
	if s.exec.Moves() != before {
		t.Fatalf("fast path should not move")
	}
	seq2, _ := s.Registry().LastUsed("x")
	if seq2 <= seq1 {
		t.Fatalf("fast path should stamp last-used: %d -> %d", seq1, seq2)
	}
	if hits := pub.Named("ensure_hit"); len(hits) != 1 {
		t.Fatalf("expected one ensure_hit, got %v", hits)
	}
}

func TestEnsureResidentUnknownComponent(t *testing.T) {
	s, _ := newTestScheduler(t, 10, nil, comp("x", 1))
	if err := s.EnsureResident(testCtx(t), "nope", memtier.Accelerator); !IsUnknownComponent(err) {
		t.Fatalf("expected unknown component, got %v", err)
	}
	if err := s.Release(testCtx(t), "nope"); !IsUnknownComponent(err) {
		t.Fatalf("expected unknown component on release, got %v", err)
	}
	if err := s.EnsureResident(testCtx(t), "x", memtier.InTransit); err == nil {
		t.Fatalf("expected invalid tier error")
	}
}

func TestEnsureResidentOversizeIsCapacityExceeded(t *testing.T) {
	groups := []Group{{Name: "g", Members: []string{"big", "small"}}}
	s, pub := newTestScheduler(t, 10, groups, comp("big", 11), comp("small", 5))
	mustEnsure(t, s, "small")

	err := s.EnsureResident(testCtx(t), "big", memtier.Accelerator)
	if !IsCapacityExceeded(err) {
		t.Fatalf("expected capacity exceeded, got %v", err)
	}
	id, req, avail, ok := CapacityDetails(err)
	if !ok || id != "big" || req != 11 || avail != 10 {
		t.Fatalf("unexpected details: %s %d %d %v", id, req, avail, ok)
	}
	// No churn: the resident group member stays put.
	if tierOf(t, s, "small") != memtier.Accelerator {
		t.Fatalf("small should not be evicted for an impossible request")
	}
	if len(pub.Named("evict")) != 0 {
		t.Fatalf("unexpected evictions: %v", pub.Named("evict"))
	}
	if st := s.Status(); st.LastError == "" {
		t.Fatalf("expected last error to be recorded")
	}
}

func TestEvictionOrderLeastRecentlyUsedFirst(t *testing.T) {
	// a and b can coexist; c conflicts with both.
	groups := []Group{
		{Name: "ac", Members: []string{"a", "c"}},
		{Name: "bc", Members: []string{"b", "c"}},
	}
	s, pub := newTestScheduler(t, 100, groups, comp("a", 10), comp("b", 10), comp("c", 10))
	mustEnsure(t, s, "a")
	mustEnsure(t, s, "b")
	mustEnsure(t, s, "c")
	if ev := pub.Named("evict"); !equalStrings(ev, []string{"a", "b"}) {
		t.Fatalf("expected a evicted before b, got %v", ev)
	}

	// Reverse recency: touch a after b, so b is now least recently used.
	pub2 := NewMemoryPublisher()
	s.SetPublisher(pub2)
	mustEnsure(t, s, "b")
	mustEnsure(t, s, "a")
	mustEnsure(t, s, "c")
	if ev := pub2.Named("evict"); !equalStrings(ev, []string{"c", "b", "a"}) {
		t.Fatalf("expected c, then b before a, got %v", ev)
	}
}

func TestBudgetEvictionForUngroupedComponents(t *testing.T) {
	s, pub := newTestScheduler(t, 10, nil, comp("a", 6), comp("b", 3), comp("c", 6))
	mustEnsure(t, s, "a")
	mustEnsure(t, s, "b")
	mustEnsure(t, s, "c")
	if ev := pub.Named("evict"); !equalStrings(ev, []string{"a"}) {
		t.Fatalf("expected only a evicted, got %v", ev)
	}
	if got := s.Registry().Occupants(memtier.Accelerator); !equalStrings(got, []string{"b", "c"}) {
		t.Fatalf("unexpected occupancy %v", got)
	}
}

func TestAllocationFailureSurfacesAsCapacityExceeded(t *testing.T) {
	// Registry thinks 10 bytes fit; the device has only 4.
	x := comp("x", 8)
	want := append([]byte(nil), mustWeights(t, x)...)
	s, err := New(Config{
		Components:          []*resident.Component{x},
		AcceleratorCapacity: 10,
		Device:              newSmallDevice(4),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = s.EnsureResident(testCtx(t), "x", memtier.Accelerator)
	if !IsCapacityExceeded(err) || !IsAllocationFailure(err) {
		t.Fatalf("expected capacity exceeded wrapping allocation failure, got %v", err)
	}
	if tierOf(t, s, "x") != memtier.Host {
		t.Fatalf("component should remain on host")
	}
	if got := mustWeights(t, x); !bytes.Equal(got, want) {
		t.Fatalf("weights changed after failed move")
	}
}

func TestReleaseAndReset(t *testing.T) {
	s, pub := newTestScheduler(t, 100, nil, comp("a", 10), comp("b", 10))
	ctx := testCtx(t)
	if err := s.Release(ctx, "a"); err != nil {
		t.Fatalf("release on host: %v", err)
	}
	if len(pub.Named("release_skip")) != 1 {
		t.Fatalf("expected release_skip event")
	}
	mustEnsure(t, s, "a")
	mustEnsure(t, s, "b")
	if err := s.Release(ctx, "a"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if tierOf(t, s, "a") != memtier.Host || tierOf(t, s, "b") != memtier.Accelerator {
		t.Fatalf("unexpected tiers after release")
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if occ := s.Registry().Occupants(memtier.Accelerator); len(occ) != 0 {
		t.Fatalf("accelerator not empty after reset: %v", occ)
	}
}

func TestCloseRejectsPlacement(t *testing.T) {
	s, _ := newTestScheduler(t, 100, nil, comp("a", 10))
	mustEnsure(t, s, "a")
	if err := s.Close(testCtx(t)); err != nil {
		t.Fatalf("close: %v", err)
	}
	if tierOf(t, s, "a") != memtier.Host {
		t.Fatalf("close should release residents")
	}
	if err := s.EnsureResident(testCtx(t), "a", memtier.Accelerator); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if s.Ready() {
		t.Fatalf("closed scheduler should not be ready")
	}
}

func TestStatusReport(t *testing.T) {
	groups := []Group{{Name: "heavy", Members: []string{"x", "y"}}}
	s, _ := newTestScheduler(t, 10, groups, comp("x", 7), comp("y", 7), comp("vae", 2))
	mustEnsure(t, s, "x")
	mustEnsure(t, s, "y")
	st := s.Status()
	if st.TransfersTotal != 3 || st.EvictionsTotal != 1 {
		t.Fatalf("unexpected counters: %+v", st)
	}
	if len(st.Tiers) != 2 || st.Tiers[0].Name != "accelerator" || st.Tiers[0].UsedBytes != 7 {
		t.Fatalf("unexpected tiers: %+v", st.Tiers)
	}
	var groupsOfX []string
	for _, c := range st.Components {
		if c.ID == "x" {
			groupsOfX = c.Groups
			if c.Tier != "host" {
				t.Fatalf("x should be on host, got %s", c.Tier)
			}
		}
	}
	if !equalStrings(groupsOfX, []string{"heavy"}) {
		t.Fatalf("unexpected groups for x: %v", groupsOfX)
	}
	if got := s.ListComponents(); len(got) != 3 || got[0].ID != "x" {
		t.Fatalf("unexpected components: %+v", got)
	}
	gs := s.ListGroups()
	if len(gs) != 1 || gs[0].Name != "heavy" || !equalStrings(gs[0].Members, []string{"x", "y"}) {
		t.Fatalf("unexpected groups: %+v", gs)
	}
}
