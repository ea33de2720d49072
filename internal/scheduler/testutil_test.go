package scheduler

import (
	"context"
	"testing"
	"time"

	"offloadd/internal/memtier"
	"offloadd/internal/resident"
	"offloadd/internal/transfer"
)

// comp creates a component with a weight buffer of n bytes.
func comp(id string, n int, opts ...resident.Option) *resident.Component {
	w := make([]byte, n)
	for i := range w {
		w[i] = byte(len(id) + i)
	}
	return resident.New(id, w, opts...)
}

func newTestScheduler(t *testing.T, accelCap int64, groups []Group, comps ...*resident.Component) (*Scheduler, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	s, err := New(Config{
		Components:          comps,
		Groups:              groups,
		AcceleratorCapacity: accelCap,
		VerifyTransfers:     true,
		Publisher:           pub,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s, pub
}

func tierOf(t *testing.T, s *Scheduler, id string) memtier.Tier {
	t.Helper()
	tier, err := s.Registry().CurrentTier(id)
	if err != nil {
		t.Fatalf("current tier %s: %v", id, err)
	}
	return tier
}

func mustEnsure(t *testing.T, s *Scheduler, id string) {
	t.Helper()
	if err := s.EnsureResident(testCtx(t), id, memtier.Accelerator); err != nil {
		t.Fatalf("ensure %s: %v", id, err)
	}
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newSmallDevice(capacity int64) *transfer.SimDevice { return transfer.NewSimDevice(capacity) }

func mustWeights(t *testing.T, c *resident.Component) []byte {
	t.Helper()
	w, err := c.HostWeights()
	if err != nil {
		t.Fatalf("host weights %s: %v", c.ID(), err)
	}
	return w
}
