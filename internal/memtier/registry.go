package memtier

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Tier names a memory pool. InTransit is a component state, not a pool.
type Tier string

const (
	Host        Tier = "host"
	Accelerator Tier = "accelerator"
	InTransit   Tier = "in_transit"
)

// Tiers lists the pools in reporting order.
var Tiers = []Tier{Accelerator, Host}

// Valid reports whether t names a pool.
func (t Tier) Valid() bool { return t == Host || t == Accelerator }

// Other returns the alternate pool for t.
func (t Tier) Other() Tier {
	if t == Accelerator {
		return Host
	}
	return Accelerator
}

type entry struct {
	id        string
	footprint int64
	tier      Tier
	// set while tier == InTransit
	from, to Tier
	lastUsed uint64
}

type pool struct {
	capacity  int64 // <= 0 means unbounded
	used      int64 // residents plus outgoing transits
	incoming  int64 // reserved by transits heading here
	residents map[string]struct{}
}

func (p *pool) fits(n int64) bool {
	if p.capacity <= 0 {
		return true
	}
	return p.used+p.incoming+n <= p.capacity
}

func (p *pool) available() int64 {
	if p.capacity <= 0 {
		return math.MaxInt64
	}
	return p.capacity - p.used - p.incoming
}

// Registry is the bookkeeping for tier occupancy. It is safe for concurrent
// use; mutation is expected to come from a single scheduler.
type Registry struct {
	mu      sync.RWMutex
	pools   map[Tier]*pool
	entries map[string]*entry
	seq     uint64
}

// NewRegistry creates a registry with the given capacities in bytes.
// A capacity <= 0 leaves that tier unbounded.
func NewRegistry(hostCapacity, acceleratorCapacity int64) *Registry {
	return &Registry{
		pools: map[Tier]*pool{
			Host:        {capacity: hostCapacity, residents: map[string]struct{}{}},
			Accelerator: {capacity: acceleratorCapacity, residents: map[string]struct{}{}},
		},
		entries: make(map[string]*entry),
	}
}

// Register adds a component resident in the initial tier.
func (r *Registry) Register(id string, footprint int64, initial Tier) error {
	if id == "" {
		return fmt.Errorf("memtier: empty component id")
	}
	if footprint < 0 {
		return fmt.Errorf("memtier: negative footprint for %s", id)
	}
	if !initial.Valid() {
		return fmt.Errorf("memtier: invalid initial tier %q for %s", initial, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; ok {
		return duplicateComponentError{id: id}
	}
	p := r.pools[initial]
	if !p.fits(footprint) {
		return &CapacityError{Component: id, Tier: initial, Required: footprint, Available: p.available()}
	}
	r.entries[id] = &entry{id: id, footprint: footprint, tier: initial}
	p.residents[id] = struct{}{}
	p.used += footprint
	return nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, ErrUnknownComponent(id)
	}
	return e, nil
}

// CurrentTier returns where id lives now.
func (r *Registry) CurrentTier(id string) (Tier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.lookup(id)
	if err != nil {
		return "", err
	}
	return e.tier, nil
}

// Footprint returns the registered footprint of id.
func (r *Registry) Footprint(id string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.lookup(id)
	if err != nil {
		return 0, err
	}
	return e.footprint, nil
}

// Occupants returns the sorted ids resident in t. Components in transit are
// not resident anywhere.
func (r *Registry) Occupants(t Tier) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[t]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(p.residents))
	for id := range p.residents {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// WouldFit reports whether usedBytes(t) + footprint(id) <= capacity(t).
func (r *Registry) WouldFit(t Tier, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.lookup(id)
	if err != nil {
		return false, err
	}
	p, ok := r.pools[t]
	if !ok {
		return false, fmt.Errorf("memtier: invalid tier %q", t)
	}
	return p.fits(e.footprint), nil
}

// UsedBytes returns the bytes charged to t.
func (r *Registry) UsedBytes(t Tier) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.pools[t]; ok {
		return p.used
	}
	return 0
}

// Capacity returns the configured capacity of t (<= 0 = unbounded).
func (r *Registry) Capacity(t Tier) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.pools[t]; ok {
		return p.capacity
	}
	return 0
}

// Available returns the free bytes in t, math.MaxInt64 when unbounded.
func (r *Registry) Available(t Tier) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.pools[t]; ok {
		return p.available()
	}
	return 0
}

// LastUsed returns the last-used sequence number of id (0 = never).
func (r *Registry) LastUsed(id string) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.lookup(id)
	if err != nil {
		return 0, err
	}
	return e.lastUsed, nil
}

// Touch stamps id with the next sequence number and returns it.
func (r *Registry) Touch(id string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookup(id)
	if err != nil {
		return 0, err
	}
	r.seq++
	e.lastUsed = r.seq
	return e.lastUsed, nil
}

// BeginTransit marks id as moving to `to` and reserves its bytes there.
// It fails with a CapacityError when the destination cannot take it.
func (r *Registry) BeginTransit(id string, to Tier) (Tier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookup(id)
	if err != nil {
		return "", err
	}
	if e.tier == InTransit {
		return "", fmt.Errorf("%w: %s", ErrInTransit, id)
	}
	if !to.Valid() || to == e.tier {
		return "", fmt.Errorf("memtier: invalid transit %s -> %s for %s", e.tier, to, id)
	}
	dst := r.pools[to]
	if !dst.fits(e.footprint) {
		return "", &CapacityError{Component: id, Tier: to, Required: e.footprint, Available: dst.available()}
	}
	from := e.tier
	delete(r.pools[from].residents, id)
	dst.incoming += e.footprint
	e.from, e.to, e.tier = from, to, InTransit
	return from, nil
}

// CommitTransit completes a move started by BeginTransit.
func (r *Registry) CommitTransit(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	if e.tier != InTransit {
		return fmt.Errorf("%w: %s", ErrNotInTransit, id)
	}
	src, dst := r.pools[e.from], r.pools[e.to]
	src.used -= e.footprint
	dst.incoming -= e.footprint
	dst.used += e.footprint
	dst.residents[id] = struct{}{}
	e.tier = e.to
	e.from, e.to = "", ""
	return nil
}

// AbortTransit returns id to the tier it was moving from.
func (r *Registry) AbortTransit(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	if e.tier != InTransit {
		return fmt.Errorf("%w: %s", ErrNotInTransit, id)
	}
	r.pools[e.to].incoming -= e.footprint
	r.pools[e.from].residents[id] = struct{}{}
	e.tier = e.from
	e.from, e.to = "", ""
	return nil
}

// ComponentView is a read-only copy of one entry.
type ComponentView struct {
	ID        string
	Footprint int64
	Tier      Tier
	LastUsed  uint64
}

// TierView is a read-only copy of one pool.
type TierView struct {
	Tier      Tier
	Capacity  int64
	Used      int64
	Occupants []string
}

// Snapshot returns consistent copies of all pools and entries.
func (r *Registry) Snapshot() ([]TierView, []ComponentView) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tiers := make([]TierView, 0, len(Tiers))
	for _, t := range Tiers {
		p := r.pools[t]
		occ := make([]string, 0, len(p.residents))
		for id := range p.residents {
			occ = append(occ, id)
		}
		sort.Strings(occ)
		tiers = append(tiers, TierView{Tier: t, Capacity: p.capacity, Used: p.used, Occupants: occ})
	}
	comps := make([]ComponentView, 0, len(r.entries))
	for _, e := range r.entries {
		comps = append(comps, ComponentView{ID: e.id, Footprint: e.footprint, Tier: e.tier, LastUsed: e.lastUsed})
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i].ID < comps[j].ID })
	return tiers, comps
}
