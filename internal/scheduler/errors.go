package scheduler

import (
	"errors"
	"fmt"

	"offloadd/internal/memtier"
	"offloadd/internal/transfer"
)

// ErrClosed is returned by placement calls after Close.
var ErrClosed = errors.New("scheduler closed")

// ErrUnknownComponent returns an error for an id that was never configured.
func ErrUnknownComponent(id string) error { return memtier.ErrUnknownComponent(id) }

// IsUnknownComponent reports whether err refers to an unconfigured component.
func IsUnknownComponent(err error) bool { return memtier.IsUnknownComponent(err) }

// IsCapacityExceeded reports whether the component cannot fit the target
// tier. Not retried: freeing nothing more cannot make it fit.
func IsCapacityExceeded(err error) bool { return memtier.IsCapacityExceeded(err) }

// IsAllocationFailure reports whether the device failed to allocate. The
// component is left unmigrated, so a caller retry is safe.
func IsAllocationFailure(err error) bool { return transfer.IsAllocationFailure(err) }

// CapacityDetails extracts the offending component and byte counts.
func CapacityDetails(err error) (component string, required, available int64, ok bool) {
	var ce *memtier.CapacityError
	if !errors.As(err, &ce) {
		return "", 0, 0, false
	}
	return ce.Component, ce.Required, ce.Available, true
}

// panicError wraps a panic raised by compute so the invocation bracket can
// still release the component.
type panicError struct {
	component string
	value     any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("compute for %s panicked: %v", e.component, e.value)
}
