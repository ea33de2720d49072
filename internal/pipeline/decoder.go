package pipeline

import (
	"context"
	"fmt"
	"sync"

	"offloadd/internal/reducer"
)

// decodeCellBytes is the scratch working set per latent cell while decoding.
const decodeCellBytes = 4

// Decoder turns the final latent grid into output cells. With footprint
// reduction enabled it decodes tile by tile so its scratch buffer never
// exceeds the configured budget; the output is identical either way.
type Decoder struct {
	mu           sync.Mutex
	maxSubRegion int64
	peakScratch  int64
}

// EnableFootprintReduction bounds each decode sub-region to
// maxSubRegionBytes of scratch.
func (d *Decoder) EnableFootprintReduction(maxSubRegionBytes int64) error {
	if maxSubRegionBytes < decodeCellBytes {
		return fmt.Errorf("decoder: sub-region budget %d below one cell (%d bytes)", maxSubRegionBytes, decodeCellBytes)
	}
	d.mu.Lock()
	d.maxSubRegion = maxSubRegionBytes
	d.mu.Unlock()
	return nil
}

// DisableFootprintReduction restores single-pass decoding.
func (d *Decoder) DisableFootprintReduction() {
	d.mu.Lock()
	d.maxSubRegion = 0
	d.mu.Unlock()
}

// FootprintReduction returns the active sub-region budget, if any.
func (d *Decoder) FootprintReduction() (int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxSubRegion, d.maxSubRegion > 0
}

// PeakScratch returns the largest scratch buffer allocated by any decode.
func (d *Decoder) PeakScratch() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.peakScratch
}

func (d *Decoder) notePeak(n int64) {
	d.mu.Lock()
	d.peakScratch = max(d.peakScratch, n)
	d.mu.Unlock()
}

// decode returns the output grid and the number of sub-regions used.
func (d *Decoder) decode(ctx context.Context, w []byte, latent []uint32, height, width int) ([]uint32, int, error) {
	if len(latent) != height*width {
		return nil, 0, fmt.Errorf("decoder: latent has %d cells, grid is %dx%d", len(latent), height, width)
	}
	budget, reduce := d.FootprintReduction()
	if !reduce {
		scratch := make([]uint32, len(latent))
		d.notePeak(int64(len(scratch)) * decodeCellBytes)
		for i, v := range latent {
			scratch[i] = decodeCell(w, v, i)
		}
		return scratch, 1, nil
	}

	tp, err := reducer.PlanTiles(height, width, decodeCellBytes, budget)
	if err != nil {
		return nil, 0, err
	}
	out := make([]uint32, len(latent))
	err = reducer.ApplyTiles(ctx, tp, out, func(_ context.Context, t reducer.Tile) ([]uint32, error) {
		scratch := make([]uint32, 0, t.Height*t.Width)
		d.notePeak(int64(cap(scratch)) * decodeCellBytes)
		for y := t.Row; y < t.Row+t.Height; y++ {
			for x := t.Col; x < t.Col+t.Width; x++ {
				i := y*width + x
				scratch = append(scratch, decodeCell(w, latent[i], i))
			}
		}
		return scratch, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, len(tp.Tiles), nil
}
