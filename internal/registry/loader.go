package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"offloadd/internal/common/fsutil"
	"offloadd/pkg/types"
)

// DefaultWeightExts are the file extensions counted towards a footprint.
var DefaultWeightExts = []string{".safetensors", ".bin", ".pt", ".pth", ".gguf"}

// Scanner discovers pipeline components in a checkpoint directory. Every
// sub-directory holding weight files becomes one component whose footprint
// is the total size of those files.
type Scanner struct {
	exts map[string]bool
}

// NewScanner returns a Scanner matching exts, or DefaultWeightExts when none
// are given. Matching is case-insensitive.
func NewScanner(exts ...string) *Scanner {
	if len(exts) == 0 {
		exts = DefaultWeightExts
	}
	s := &Scanner{exts: make(map[string]bool, len(exts))}
	for _, e := range exts {
		s.exts[strings.ToLower(e)] = true
	}
	return s
}

func (s *Scanner) isWeight(name string) bool {
	return s.exts[strings.ToLower(filepath.Ext(name))]
}

// Scan walks the immediate sub-directories of dir. ID is the sub-directory
// name; Path is its absolute path. Sub-directories without weight files are
// skipped. Results are sorted by ID.
func (s *Scanner) Scan(dir string) ([]types.Component, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var comps []types.Component
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p := filepath.Join(abs, e.Name())
		size, files, err := fsutil.DirSize(p, s.isWeight)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", e.Name(), err)
		}
		if files == 0 {
			continue
		}
		comps = append(comps, types.Component{ID: e.Name(), FootprintBytes: size, Path: p, ReleaseAfterUse: true})
	}
	return comps, nil
}

// LoadDir scans dir with the default weight extensions.
func LoadDir(dir string) ([]types.Component, error) {
	return NewScanner().Scan(dir)
}
