package memtier

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// unknownComponentError is returned for ids that were never registered.
type unknownComponentError struct{ id string }

func (e unknownComponentError) Error() string { return "unknown component: " + e.id }

// ErrUnknownComponent constructs an unknown component error.
func ErrUnknownComponent(id string) error { return unknownComponentError{id: id} }

// IsUnknownComponent reports whether err (or anything it wraps) is an unknown component error.
func IsUnknownComponent(err error) bool {
	var e unknownComponentError
	return errors.As(err, &e)
}

// CapacityError describes a component that cannot fit a tier.
type CapacityError struct {
	Component string
	Tier      Tier
	Required  int64
	Available int64
	// Cause is set when the failure surfaced from the device rather than
	// from bookkeeping.
	Cause error
}

func (e *CapacityError) Error() string {
	msg := fmt.Sprintf("capacity exceeded: %s needs %s on %s, %s available",
		e.Component, humanize.IBytes(uint64(e.Required)), e.Tier, humanize.IBytes(uint64(max(e.Available, 0))))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *CapacityError) Unwrap() error { return e.Cause }

// IsCapacityExceeded reports whether err carries a CapacityError.
func IsCapacityExceeded(err error) bool {
	var e *CapacityError
	return errors.As(err, &e)
}

// duplicateComponentError is returned when an id is registered twice.
type duplicateComponentError struct{ id string }

func (e duplicateComponentError) Error() string { return "component already registered: " + e.id }

// IsDuplicate reports whether err indicates a repeated registration.
func IsDuplicate(err error) bool {
	var e duplicateComponentError
	return errors.As(err, &e)
}

// ErrInTransit is returned by BeginTransit for a component that is already
// moving.
var ErrInTransit = errors.New("memtier: component in transit")

// ErrNotInTransit is returned by CommitTransit and AbortTransit for a
// component with no move in progress.
var ErrNotInTransit = errors.New("memtier: component not in transit")
