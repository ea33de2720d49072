package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// ByteSize is a byte count that decodes from plain integers or human
// strings such as "7 GiB" or "512MB".
type ByteSize int64

// ParseByteSize parses a human byte size. Bare numbers are bytes.
func ParseByteSize(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ByteSize(n), nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("byte size %q overflows int64 (max %s)", s, humanize.IBytes(math.MaxInt64))
	}
	return ByteSize(n), nil
}

// Bytes returns the size as int64.
func (b ByteSize) Bytes() int64 { return int64(b) }

func (b ByteSize) String() string {
	if b < 0 {
		return strconv.FormatInt(int64(b), 10)
	}
	return humanize.IBytes(uint64(b))
}

// UnmarshalText implements encoding.TextUnmarshaler (used by TOML).
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// UnmarshalJSON accepts either a number or a string.
func (b *ByteSize) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*b = ByteSize(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("byte size must be a number or string: %s", data)
	}
	return b.UnmarshalText([]byte(s))
}

// UnmarshalYAML accepts either a number or a string.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: byte size must be a scalar", node.Line)
	}
	return b.UnmarshalText([]byte(node.Value))
}
