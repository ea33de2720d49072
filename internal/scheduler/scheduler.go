package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"offloadd/internal/memtier"
	"offloadd/internal/resident"
	"offloadd/internal/transfer"
)

// Scheduler owns tier placement for one pipeline. Construct it once with New
// and pass it to every stage.
type Scheduler struct {
	// opMu serializes every operation that mutates tier occupancy.
	opMu sync.Mutex

	reg  *memtier.Registry
	exec *transfer.Executor

	comps    map[string]*resident.Component
	order    []string
	groups   []Group
	groupsOf map[string][]string

	mu       sync.Mutex
	inflight map[string]int
	idle     chan struct{} // closed and replaced whenever an invocation ends
	lastErr  string
	closed   bool

	log       zerolog.Logger
	publisher EventPublisher
	evictions atomic.Uint64
	startTime time.Time
}

// SetPublisher installs an event publisher. Not safe to call concurrently
// with placement operations.
func (s *Scheduler) SetPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	s.publisher = p
}

// Registry exposes the read side of tier bookkeeping.
func (s *Scheduler) Registry() *memtier.Registry { return s.reg }

// Device returns the transfer device.
func (s *Scheduler) Device() transfer.Device { return s.exec.Device() }

// Component returns the configured component with the given id.
func (s *Scheduler) Component(id string) (*resident.Component, error) {
	c, ok := s.comps[id]
	if !ok {
		return nil, ErrUnknownComponent(id)
	}
	return c, nil
}

// Components returns the configured components in configuration order.
func (s *Scheduler) Components() []*resident.Component {
	out := make([]*resident.Component, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.comps[id])
	}
	return out
}

// Groups returns a copy of the exclusivity groups.
func (s *Scheduler) Groups() []Group {
	out := make([]Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = Group{Name: g.Name, Members: append([]string(nil), g.Members...)}
	}
	return out
}

// Ready reports whether the scheduler accepts placement calls.
func (s *Scheduler) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *Scheduler) setErr(err error) {
	s.mu.Lock()
	if err == nil {
		s.lastErr = ""
	} else {
		s.lastErr = err.Error()
	}
	s.mu.Unlock()
}

func (s *Scheduler) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
