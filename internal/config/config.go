package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr          string `json:"addr" yaml:"addr" toml:"addr"`
	CheckpointDir string `json:"checkpoint_dir" yaml:"checkpoint_dir" toml:"checkpoint_dir"`
	// Tier capacities; zero leaves a tier unbounded.
	HostCapacity        ByteSize          `json:"host_capacity" yaml:"host_capacity" toml:"host_capacity"`
	AcceleratorCapacity ByteSize          `json:"accelerator_capacity" yaml:"accelerator_capacity" toml:"accelerator_capacity"`
	Components          []ComponentConfig `json:"components" yaml:"components" toml:"components"`
	Groups              []GroupConfig     `json:"groups" yaml:"groups" toml:"groups"`
	VerifyTransfers     bool              `json:"verify_transfers" yaml:"verify_transfers" toml:"verify_transfers"`
	ResetBeforeRun      bool              `json:"reset_before_run" yaml:"reset_before_run" toml:"reset_before_run"`
	Steps               int               `json:"steps" yaml:"steps" toml:"steps"`
	Decode              DecodeConfig      `json:"decode" yaml:"decode" toml:"decode"`
	LogLevel            string            `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat           string            `json:"log_format" yaml:"log_format" toml:"log_format"`
	CORS                CORSConfig        `json:"cors" yaml:"cors" toml:"cors"`
}

// ComponentConfig declares one pipeline component. Footprint may be left
// zero when CheckpointDir provides the weights.
type ComponentConfig struct {
	ID        string   `json:"id" yaml:"id" toml:"id"`
	Footprint ByteSize `json:"footprint" yaml:"footprint" toml:"footprint"`
	Path      string   `json:"path" yaml:"path" toml:"path"`
	// ReleaseAfterUse defaults to true.
	ReleaseAfterUse *bool `json:"release_after_use" yaml:"release_after_use" toml:"release_after_use"`
}

// ReleaseAfterUseOrDefault resolves the optional flag.
func (c ComponentConfig) ReleaseAfterUseOrDefault() bool {
	if c.ReleaseAfterUse == nil {
		return true
	}
	return *c.ReleaseAfterUse
}

// GroupConfig declares an exclusivity group.
type GroupConfig struct {
	Name    string   `json:"name" yaml:"name" toml:"name"`
	Members []string `json:"members" yaml:"members" toml:"members"`
}

// DecodeConfig sizes the latent grid and the decoder's footprint reduction.
type DecodeConfig struct {
	Height       int      `json:"height" yaml:"height" toml:"height"`
	Width        int      `json:"width" yaml:"width" toml:"width"`
	MaxSubRegion ByteSize `json:"max_sub_region" yaml:"max_sub_region" toml:"max_sub_region"`
}

// CORSConfig controls the optional CORS middleware of the HTTP API.
type CORSConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
}

// Defaults used by ApplyDefaults.
const (
	DefaultAddr      = ":8080"
	DefaultSteps     = 30
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// ApplyDefaults fills unspecified fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Steps == 0 {
		c.Steps = DefaultSteps
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

// Validate reports every problem in the configuration at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.HostCapacity < 0 {
		result = multierror.Append(result, fmt.Errorf("host_capacity must be >= 0"))
	}
	if c.AcceleratorCapacity < 0 {
		result = multierror.Append(result, fmt.Errorf("accelerator_capacity must be >= 0"))
	}
	if c.Steps < 0 {
		result = multierror.Append(result, fmt.Errorf("steps must be >= 0"))
	}
	if c.Decode.MaxSubRegion < 0 {
		result = multierror.Append(result, fmt.Errorf("decode.max_sub_region must be >= 0"))
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("log_format %q: want console or json", c.LogFormat))
	}

	ids := make(map[string]bool, len(c.Components))
	for i, comp := range c.Components {
		switch {
		case comp.ID == "":
			result = multierror.Append(result, fmt.Errorf("components[%d]: id is required", i))
			continue
		case ids[comp.ID]:
			result = multierror.Append(result, fmt.Errorf("components[%d]: duplicate id %q", i, comp.ID))
		}
		ids[comp.ID] = true
		if comp.Footprint < 0 {
			result = multierror.Append(result, fmt.Errorf("component %s: footprint must be >= 0", comp.ID))
		}
		if comp.Footprint == 0 && c.CheckpointDir == "" {
			result = multierror.Append(result, fmt.Errorf("component %s: footprint is required without checkpoint_dir", comp.ID))
		}
	}

	groups := make(map[string]bool, len(c.Groups))
	for i, g := range c.Groups {
		if g.Name == "" {
			result = multierror.Append(result, fmt.Errorf("groups[%d]: name is required", i))
			continue
		}
		if groups[g.Name] {
			result = multierror.Append(result, fmt.Errorf("groups[%d]: duplicate name %q", i, g.Name))
		}
		groups[g.Name] = true
		for _, m := range g.Members {
			if !ids[m] && c.CheckpointDir == "" {
				result = multierror.Append(result, fmt.Errorf("group %s: unknown member %q", g.Name, m))
			}
		}
	}
	return result.ErrorOrNil()
}
