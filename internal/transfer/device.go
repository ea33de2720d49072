package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"offloadd/internal/memtier"
)

// Device is the accelerator-side copy primitive. Implementations must report
// a failed allocation with an error wrapping ErrOutOfMemory so it can be told
// apart from other device errors.
type Device interface {
	// Upload allocates accelerator memory for name and copies buf into it.
	Upload(ctx context.Context, name string, buf []byte) error
	// Download copies the accelerator buffer for name into new host memory.
	Download(ctx context.Context, name string) ([]byte, error)
	// Free releases the accelerator buffer for name.
	Free(name string) error
}

// Reader is implemented by devices that let compute read a resident buffer.
type Reader interface {
	Read(name string) ([]byte, error)
}

// ErrOutOfMemory is wrapped by devices when an allocation cannot be served.
var ErrOutOfMemory = errors.New("out of device memory")

// AllocationError reports that the destination tier could not allocate the
// component. The component is left on its source tier.
type AllocationError struct {
	Component string
	Tier      memtier.Tier
	Bytes     int64
	Cause     error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocation failure: %s (%s) on %s: %v",
		e.Component, humanize.IBytes(uint64(e.Bytes)), e.Tier, e.Cause)
}

func (e *AllocationError) Unwrap() error { return e.Cause }

// IsAllocationFailure reports whether err is (or wraps) an allocation failure.
func IsAllocationFailure(err error) bool {
	var e *AllocationError
	return errors.As(err, &e) || errors.Is(err, ErrOutOfMemory)
}
