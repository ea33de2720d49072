package pipeline

import (
	"context"

	"offloadd/internal/memtier"
	"offloadd/pkg/types"
)

// The methods below expose scheduler control next to Run so a Pipeline can
// back the HTTP API on its own.

// ListComponents returns the configured components.
func (p *Pipeline) ListComponents() []types.Component { return p.sched.ListComponents() }

// ListGroups returns the exclusivity groups.
func (p *Pipeline) ListGroups() []types.Group { return p.sched.ListGroups() }

// Status returns the scheduler snapshot.
func (p *Pipeline) Status() types.StatusResponse { return p.sched.Status() }

// Ready reports whether placement calls are accepted.
func (p *Pipeline) Ready() bool { return p.sched.Ready() }

// Ensure makes id resident on the accelerator.
func (p *Pipeline) Ensure(ctx context.Context, id string) error {
	return p.sched.EnsureResident(ctx, id, memtier.Accelerator)
}

// Release moves id back to host memory.
func (p *Pipeline) Release(ctx context.Context, id string) error {
	return p.sched.Release(ctx, id)
}
