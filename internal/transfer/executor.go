// Package transfer performs the synchronous tier-to-tier moves of component
// weights. A move either completes (component on the destination tier with
// identical bytes) or leaves the component untouched on its source tier.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"offloadd/internal/memtier"
	"offloadd/internal/resident"
)

// Executor moves components between Host and Accelerator through a Device
// and reports each move to the registry.
type Executor struct {
	reg    *memtier.Registry
	dev    Device
	log    zerolog.Logger
	verify bool

	mu   sync.Mutex
	sums map[string]uint32 // host checksum recorded at upload

	moves atomic.Uint64
}

// Option customizes an Executor.
type Option func(*Executor)

// WithLogger installs a structured logger.
func WithLogger(l zerolog.Logger) Option { return func(x *Executor) { x.log = l } }

// WithVerify enables CRC32 verification of weights on the way back to host.
func WithVerify(v bool) Option { return func(x *Executor) { x.verify = v } }

// NewExecutor creates an executor bound to a registry and device.
func NewExecutor(reg *memtier.Registry, dev Device, opts ...Option) *Executor {
	x := &Executor{reg: reg, dev: dev, log: zerolog.Nop(), sums: make(map[string]uint32)}
	for _, o := range opts {
		o(x)
	}
	return x
}

// Moves returns the number of completed moves.
func (x *Executor) Moves() uint64 { return x.moves.Load() }

// Device returns the underlying device.
func (x *Executor) Device() Device { return x.dev }

// Move copies c from one tier to the other. It blocks until the copy has
// finished or failed.
func (x *Executor) Move(ctx context.Context, c *resident.Component, from, to memtier.Tier) error {
	id := c.ID()
	if from == to {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cur, err := x.reg.CurrentTier(id)
	if err != nil {
		return err
	}
	if cur != from {
		return fmt.Errorf("transfer: %s is on %s, not %s", id, cur, from)
	}

	direction := string(from) + "_to_" + string(to)
	start := time.Now()
	if _, err := x.reg.BeginTransit(id, to); err != nil {
		transfersTotal.WithLabelValues(direction, "rejected").Inc()
		if memtier.IsCapacityExceeded(err) {
			return &AllocationError{Component: id, Tier: to, Bytes: c.Footprint(), Cause: err}
		}
		return err
	}
	x.log.Debug().Str("event", "move_start").Str("component", id).
		Str("from", string(from)).Str("to", string(to)).Int64("bytes", c.Footprint()).Msg("transfer")

	var n int
	switch to {
	case memtier.Accelerator:
		n, err = x.upload(ctx, c)
	default:
		n, err = x.download(ctx, c)
	}
	if err != nil {
		if aerr := x.reg.AbortTransit(id); aerr != nil {
			x.log.Error().Err(aerr).Str("component", id).Msg("abort transit")
		}
		transfersTotal.WithLabelValues(direction, "failed").Inc()
		x.log.Warn().Str("event", "move_failed").Str("component", id).
			Str("from", string(from)).Str("to", string(to)).Err(err).Msg("transfer")
		var ae *AllocationError
		if errors.Is(err, ErrOutOfMemory) && !errors.As(err, &ae) {
			err = &AllocationError{Component: id, Tier: to, Bytes: c.Footprint(), Cause: err}
		}
		return err
	}
	if err := x.reg.CommitTransit(id); err != nil {
		return err
	}
	x.moves.Add(1)
	transfersTotal.WithLabelValues(direction, "ok").Inc()
	transferBytes.WithLabelValues(direction).Add(float64(n))
	transferDuration.WithLabelValues(direction).Observe(time.Since(start).Seconds())
	x.log.Debug().Str("event", "move_done").Str("component", id).Str("to", string(to)).
		Dur("dur", time.Since(start)).Msg("transfer")
	return nil
}

func (x *Executor) upload(ctx context.Context, c *resident.Component) (int, error) {
	buf := c.DetachHost()
	if buf == nil {
		return 0, fmt.Errorf("transfer: %s has no host weights", c.ID())
	}
	if err := x.dev.Upload(ctx, c.ID(), buf); err != nil {
		c.AttachHost(buf)
		return 0, err
	}
	if x.verify {
		x.mu.Lock()
		x.sums[c.ID()] = crc32.ChecksumIEEE(buf)
		x.mu.Unlock()
	}
	return len(buf), nil
}

func (x *Executor) download(ctx context.Context, c *resident.Component) (int, error) {
	buf, err := x.dev.Download(ctx, c.ID())
	if err != nil {
		return 0, err
	}
	if x.verify {
		x.mu.Lock()
		want, ok := x.sums[c.ID()]
		x.mu.Unlock()
		if ok && crc32.ChecksumIEEE(buf) != want {
			return 0, fmt.Errorf("transfer: checksum mismatch for %s", c.ID())
		}
	}
	c.AttachHost(buf)
	if err := x.dev.Free(c.ID()); err != nil {
		// The host copy is complete; only the device buffer leaks.
		x.log.Warn().Str("component", c.ID()).Err(err).Msg("free device buffer")
	}
	x.mu.Lock()
	delete(x.sums, c.ID())
	x.mu.Unlock()
	return len(buf), nil
}
