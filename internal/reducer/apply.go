package reducer

import (
	"context"
	"fmt"
)

// Apply runs op on every region in order and concatenates the outputs.
// Processing stops at the first error or when ctx ends.
func Apply[T any](ctx context.Context, p Plan, op func(context.Context, Region) ([]T, error)) ([]T, error) {
	var out []T
	for _, r := range p.Regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part, err := op(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("region %d [%d,%d): %w", r.Index, r.Offset, r.End(), err)
		}
		out = append(out, part...)
	}
	return out, nil
}

// Reduce runs op on every region in order and folds the partial results
// into acc with merge. merge must be associative for the result to equal
// single-pass processing.
func Reduce[P, R any](ctx context.Context, p Plan, init R, op func(context.Context, Region) (P, error), merge func(R, P) R) (R, error) {
	acc := init
	for _, r := range p.Regions {
		if err := ctx.Err(); err != nil {
			return init, err
		}
		part, err := op(ctx, r)
		if err != nil {
			return init, fmt.Errorf("region %d [%d,%d): %w", r.Index, r.Offset, r.End(), err)
		}
		acc = merge(acc, part)
	}
	return acc, nil
}
