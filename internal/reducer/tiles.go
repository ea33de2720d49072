package reducer

import (
	"context"
	"fmt"
)

// Tile is a rectangle of a row-major grid.
type Tile struct {
	Index  int
	Row    int
	Col    int
	Height int
	Width  int
}

// TilePlan covers a Height x Width grid with non-overlapping tiles, listed
// row-major.
type TilePlan struct {
	Height int
	Width  int
	Tiles  []Tile
}

// PlanTiles covers a height x width grid of bytesPerCell cells with tiles of
// at most maxTileBytes each. Full-width row bands are used when a single row
// fits; otherwise columns are split too.
func PlanTiles(height, width int, bytesPerCell, maxTileBytes int64) (TilePlan, error) {
	if height < 0 || width < 0 {
		return TilePlan{}, fmt.Errorf("reducer: invalid grid %dx%d", height, width)
	}
	tp := TilePlan{Height: height, Width: width}
	if height == 0 || width == 0 {
		return tp, nil
	}
	cols, err := PlanDecomposition(int64(width), maxTileBytes, WithUnitBytes(bytesPerCell))
	if err != nil {
		return TilePlan{}, err
	}
	rowBytes := cols.MaxRegionUnits() * bytesPerCell
	rows, err := PlanDecomposition(int64(height), maxTileBytes, WithUnitBytes(rowBytes))
	if err != nil {
		return TilePlan{}, err
	}
	for _, r := range rows.Regions {
		for _, c := range cols.Regions {
			tp.Tiles = append(tp.Tiles, Tile{
				Index:  len(tp.Tiles),
				Row:    int(r.Offset),
				Col:    int(c.Offset),
				Height: int(r.Length),
				Width:  int(c.Length),
			})
		}
	}
	return tp, nil
}

// ApplyTiles runs op on every tile and writes its row-major output back into
// dst, which holds the full Height x Width grid.
func ApplyTiles[T any](ctx context.Context, tp TilePlan, dst []T, op func(context.Context, Tile) ([]T, error)) error {
	if len(dst) != tp.Height*tp.Width {
		return fmt.Errorf("reducer: destination holds %d cells, grid needs %d", len(dst), tp.Height*tp.Width)
	}
	for _, t := range tp.Tiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		part, err := op(ctx, t)
		if err != nil {
			return fmt.Errorf("tile %d at (%d,%d): %w", t.Index, t.Row, t.Col, err)
		}
		if len(part) != t.Height*t.Width {
			return fmt.Errorf("tile %d: got %d cells, want %d", t.Index, len(part), t.Height*t.Width)
		}
		for y := 0; y < t.Height; y++ {
			copy(dst[(t.Row+y)*tp.Width+t.Col:], part[y*t.Width:(y+1)*t.Width])
		}
	}
	return nil
}
