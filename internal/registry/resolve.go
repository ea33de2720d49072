package registry

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"sort"

	"offloadd/internal/config"
	"offloadd/internal/resident"
	"offloadd/pkg/types"
)

// Resolve merges the declared components of cfg with those discovered in
// cfg.CheckpointDir. Declared entries win; a zero declared footprint is
// filled from the scan. With no declared components every scanned one is
// used.
func Resolve(cfg config.Config) ([]types.Component, error) {
	scanned := map[string]types.Component{}
	var scannedOrder []string
	if cfg.CheckpointDir != "" {
		found, err := LoadDir(cfg.CheckpointDir)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			scanned[c.ID] = c
			scannedOrder = append(scannedOrder, c.ID)
		}
	}
	if len(cfg.Components) == 0 {
		out := make([]types.Component, 0, len(scannedOrder))
		for _, id := range scannedOrder {
			out = append(out, scanned[id])
		}
		return out, nil
	}
	out := make([]types.Component, 0, len(cfg.Components))
	for _, cc := range cfg.Components {
		c := types.Component{
			ID:              cc.ID,
			FootprintBytes:  cc.Footprint.Bytes(),
			Path:            cc.Path,
			ReleaseAfterUse: cc.ReleaseAfterUseOrDefault(),
		}
		if sc, ok := scanned[cc.ID]; ok {
			if c.FootprintBytes == 0 {
				c.FootprintBytes = sc.FootprintBytes
			}
			if c.Path == "" {
				c.Path = sc.Path
			}
		}
		if c.FootprintBytes <= 0 {
			return nil, fmt.Errorf("component %s: no footprint declared or found in checkpoint", c.ID)
		}
		out = append(out, c)
	}
	return out, nil
}

// Materialize builds resident components from descriptors. Each keeps its
// declared footprint for placement while its weight buffer holds at most
// sampleBytes: read from the component's weight files when Path is set,
// otherwise generated deterministically from the id.
func Materialize(comps []types.Component, sampleBytes int64) ([]*resident.Component, error) {
	out := make([]*resident.Component, 0, len(comps))
	for _, c := range comps {
		n := min(c.FootprintBytes, sampleBytes)
		var w []byte
		var err error
		if c.Path != "" {
			w, err = readSample(c.Path, n)
			if err != nil {
				return nil, fmt.Errorf("component %s: %w", c.ID, err)
			}
		}
		if len(w) == 0 {
			w = synthesize(c.ID, n)
		}
		out = append(out, resident.New(c.ID, w,
			resident.WithFootprint(c.FootprintBytes),
			resident.WithReleaseAfterUse(c.ReleaseAfterUse)))
	}
	return out, nil
}

// readSample reads up to n bytes from the weight files under dir, in path
// order.
func readSample(dir string, n int64) ([]byte, error) {
	scanner := NewScanner()
	var files []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && scanner.isWeight(d.Name()) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	buf := make([]byte, 0, n)
	for _, f := range files {
		if int64(len(buf)) >= n {
			break
		}
		fh, err := os.Open(f)
		if err != nil {
			return nil, err
		}
		chunk, err := io.ReadAll(io.LimitReader(fh, n-int64(len(buf))))
		fh.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		buf = append(buf, chunk...)
	}
	return buf, nil
}

func synthesize(id string, n int64) []byte {
	h := fnv.New64a()
	h.Write([]byte(id))
	x := h.Sum64()
	w := make([]byte, n)
	for i := range w {
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
		w[i] = byte(x)
	}
	return w
}
