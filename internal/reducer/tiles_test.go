package reducer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanTilesRowBands(t *testing.T) {
	// A 64-cell row of 4 bytes fits a 1 KiB budget, so only rows are split.
	tp, err := PlanTiles(32, 64, 4, 1024)
	require.NoError(t, err)
	require.Len(t, tp.Tiles, 8)
	for _, tile := range tp.Tiles {
		require.Equal(t, 64, tile.Width)
		require.Equal(t, 0, tile.Col)
		require.LessOrEqual(t, int64(tile.Height*tile.Width*4), int64(1024))
	}
}

func TestPlanTilesGrid(t *testing.T) {
	tp, err := PlanTiles(10, 10, 1, 9)
	require.NoError(t, err)
	area := 0
	for _, tile := range tp.Tiles {
		require.LessOrEqual(t, tile.Height*tile.Width, 9)
		area += tile.Height * tile.Width
	}
	require.Equal(t, 100, area)

	_, err = PlanTiles(4, 4, 16, 8)
	require.ErrorIs(t, err, ErrUnitTooLarge)
}

func TestApplyTilesMatchesSinglePass(t *testing.T) {
	const h, w = 13, 11
	src := make([]int, h*w)
	for i := range src {
		src[i] = i
	}
	tp, err := PlanTiles(h, w, 8, 8*10)
	require.NoError(t, err)
	require.Greater(t, len(tp.Tiles), 1)

	dst := make([]int, h*w)
	err = ApplyTiles(context.Background(), tp, dst, func(_ context.Context, tile Tile) ([]int, error) {
		out := make([]int, 0, tile.Height*tile.Width)
		for y := tile.Row; y < tile.Row+tile.Height; y++ {
			for x := tile.Col; x < tile.Col+tile.Width; x++ {
				out = append(out, src[y*w+x]+1)
			}
		}
		return out, nil
	})
	require.NoError(t, err)
	for i := range src {
		require.Equal(t, src[i]+1, dst[i], "cell %d", i)
	}

	require.Error(t, ApplyTiles(context.Background(), tp, make([]int, 3), func(context.Context, Tile) ([]int, error) { return nil, nil }))
}
