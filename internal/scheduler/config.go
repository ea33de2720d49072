package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"offloadd/internal/memtier"
	"offloadd/internal/resident"
	"offloadd/internal/transfer"
)

// Group is a named set of components that may never be simultaneously
// resident on the accelerator.
type Group struct {
	Name    string
	Members []string
}

// Config encapsulates all tunables for Scheduler construction.
type Config struct {
	Components []*resident.Component
	Groups     []Group
	// Capacities in bytes; <= 0 leaves a tier unbounded.
	HostCapacity        int64
	AcceleratorCapacity int64
	// Device performs the copies. Defaults to a SimDevice sized like the
	// accelerator tier.
	Device transfer.Device
	// VerifyTransfers checks CRC32 of weights on the way back to host.
	VerifyTransfers bool
	Logger          *zerolog.Logger
	Publisher       EventPublisher
}

// New constructs a Scheduler from Config. All components start on Host.
func New(cfg Config) (*Scheduler, error) {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	dev := cfg.Device
	if dev == nil {
		dev = transfer.NewSimDevice(cfg.AcceleratorCapacity)
	}
	reg := memtier.NewRegistry(cfg.HostCapacity, cfg.AcceleratorCapacity)
	s := &Scheduler{
		reg:       reg,
		exec:      transfer.NewExecutor(reg, dev, transfer.WithLogger(log), transfer.WithVerify(cfg.VerifyTransfers)),
		comps:     make(map[string]*resident.Component, len(cfg.Components)),
		groupsOf:  make(map[string][]string),
		inflight:  make(map[string]int),
		idle:      make(chan struct{}),
		log:       log,
		publisher: cfg.Publisher,
		startTime: time.Now(),
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	for _, c := range cfg.Components {
		if c == nil {
			return nil, fmt.Errorf("scheduler: nil component")
		}
		if err := reg.Register(c.ID(), c.Footprint(), memtier.Host); err != nil {
			return nil, fmt.Errorf("scheduler: register %s: %w", c.ID(), err)
		}
		s.comps[c.ID()] = c
		s.order = append(s.order, c.ID())
	}
	seen := make(map[string]bool, len(cfg.Groups))
	for _, g := range cfg.Groups {
		if g.Name == "" {
			return nil, fmt.Errorf("scheduler: exclusivity group without a name")
		}
		if seen[g.Name] {
			return nil, fmt.Errorf("scheduler: duplicate exclusivity group %q", g.Name)
		}
		seen[g.Name] = true
		members := make([]string, 0, len(g.Members))
		dup := make(map[string]bool, len(g.Members))
		for _, id := range g.Members {
			if _, ok := s.comps[id]; !ok {
				return nil, fmt.Errorf("scheduler: group %q: %w", g.Name, ErrUnknownComponent(id))
			}
			if dup[id] {
				continue
			}
			dup[id] = true
			members = append(members, id)
			s.groupsOf[id] = append(s.groupsOf[id], g.Name)
		}
		sort.Strings(members)
		s.groups = append(s.groups, Group{Name: g.Name, Members: members})
	}
	s.observeTiers()
	return s, nil
}
