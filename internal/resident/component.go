// Package resident wraps one heavy pipeline component (text encoder,
// transformer, autoencoder) together with the weight buffer it owns.
package resident

import (
	"errors"
	"hash/crc32"
	"sync"
)

// ErrNotOnHost is returned when host weights are requested while the
// buffer lives on the accelerator or is being copied.
var ErrNotOnHost = errors.New("resident: weights not on host")

// Component owns a weight buffer and knows its approximate footprint.
type Component struct {
	id              string
	footprint       int64
	releaseAfterUse bool

	mu   sync.Mutex
	host []byte // nil while the weights are off-host
}

// Option customizes a Component.
type Option func(*Component)

// WithFootprint overrides the footprint estimate, which otherwise equals
// the weight buffer length.
func WithFootprint(n int64) Option { return func(c *Component) { c.footprint = n } }

// WithReleaseAfterUse controls whether the scheduler evicts the component
// right after each invocation.
func WithReleaseAfterUse(v bool) Option { return func(c *Component) { c.releaseAfterUse = v } }

// New creates a host-resident component owning weights.
func New(id string, weights []byte, opts ...Option) *Component {
	c := &Component{id: id, footprint: int64(len(weights)), releaseAfterUse: true, host: weights}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ID returns the stable component identifier.
func (c *Component) ID() string { return c.id }

// Footprint is the byte count charged to a tier while the component is
// resident there.
func (c *Component) Footprint() int64 { return c.footprint }

// ReleaseAfterUse reports whether the scheduler moves the component back to
// Host after each invocation.
func (c *Component) ReleaseAfterUse() bool { return c.releaseAfterUse }

// HostWeights returns the host buffer. Callers must not retain it across a
// tier move.
func (c *Component) HostWeights() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.host == nil {
		return nil, ErrNotOnHost
	}
	return c.host, nil
}

// Checksum is a CRC32 of the host weights, used to verify round trips.
func (c *Component) Checksum() (uint32, error) {
	w, err := c.HostWeights()
	if err != nil {
		return 0, err
	}
	return crc32.ChecksumIEEE(w), nil
}

// DetachHost hands the host buffer to the transfer executor and leaves the
// component without host weights. It returns nil if there were none.
func (c *Component) DetachHost() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.host
	c.host = nil
	return b
}

// AttachHost installs buf as the host weights.
func (c *Component) AttachHost(buf []byte) {
	c.mu.Lock()
	c.host = buf
	c.mu.Unlock()
}
