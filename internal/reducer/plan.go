package reducer

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// ErrUnitTooLarge is returned when a single unit of input does not fit the
// sub-region budget, so no decomposition can satisfy it.
var ErrUnitTooLarge = errors.New("reducer: one unit exceeds the sub-region budget")

// Region is one contiguous slice [Offset, Offset+Length) of the input,
// measured in units.
type Region struct {
	Index  int
	Offset int64
	Length int64
}

// End returns the exclusive end offset of r.
func (r Region) End() int64 { return r.Offset + r.Length }

// Plan is an ordered, gap-free cover of an input of Size units.
type Plan struct {
	Size           int64
	UnitBytes      int64
	MaxRegionBytes int64
	Regions        []Region
}

// Len returns the number of sub-regions.
func (p Plan) Len() int { return len(p.Regions) }

// MaxRegionUnits returns the largest region length in the plan.
func (p Plan) MaxRegionUnits() int64 {
	var m int64
	for _, r := range p.Regions {
		m = max(m, r.Length)
	}
	return m
}

type planOptions struct {
	unitBytes int64
}

// Option customizes PlanDecomposition.
type Option func(*planOptions)

// WithUnitBytes sets the working-set bytes needed per unit of input. The
// default is 1, so sizes are plain bytes.
func WithUnitBytes(n int64) Option { return func(o *planOptions) { o.unitBytes = n } }

// PlanDecomposition splits fullInputSize units into the smallest number of
// near-equal contiguous regions whose working set stays within
// maxSubRegionBytes. The result is deterministic; region lengths differ by
// at most one unit and earlier regions take the remainder.
func PlanDecomposition(fullInputSize, maxSubRegionBytes int64, opts ...Option) (Plan, error) {
	o := planOptions{unitBytes: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if fullInputSize < 0 {
		return Plan{}, fmt.Errorf("reducer: negative input size %d", fullInputSize)
	}
	if maxSubRegionBytes <= 0 {
		return Plan{}, fmt.Errorf("reducer: sub-region budget must be positive, got %d", maxSubRegionBytes)
	}
	if o.unitBytes <= 0 {
		return Plan{}, fmt.Errorf("reducer: unit size must be positive, got %d", o.unitBytes)
	}
	p := Plan{Size: fullInputSize, UnitBytes: o.unitBytes, MaxRegionBytes: maxSubRegionBytes}
	if fullInputSize == 0 {
		return p, nil
	}
	maxUnits := maxSubRegionBytes / o.unitBytes
	if maxUnits == 0 {
		return Plan{}, fmt.Errorf("%w: unit needs %s, budget %s", ErrUnitTooLarge,
			humanize.IBytes(uint64(o.unitBytes)), humanize.IBytes(uint64(maxSubRegionBytes)))
	}
	n := (fullInputSize + maxUnits - 1) / maxUnits
	base, rem := fullInputSize/n, fullInputSize%n
	p.Regions = make([]Region, 0, n)
	var off int64
	for i := int64(0); i < n; i++ {
		l := base
		if i < rem {
			l++
		}
		p.Regions = append(p.Regions, Region{Index: int(i), Offset: off, Length: l})
		off += l
	}
	return p, nil
}
