package types

// Component describes one heavy, independently invokable unit of a pipeline
// (text encoder, transformer, autoencoder) together with its weight footprint.
type Component struct {
	// Stable identifier for the component.
	// example: transformer
	ID string `json:"id" yaml:"id" toml:"id" example:"transformer"`
	// Estimated bytes occupied while resident in a tier.
	// example: 12884901888
	FootprintBytes int64 `json:"footprint_bytes" yaml:"-" toml:"-" example:"12884901888"`
	// Directory holding the weight files, when discovered from a checkpoint.
	// example: /weights/LongCat-Image-Edit/transformer
	Path string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty" example:"/weights/LongCat-Image-Edit/transformer"`
	// Evict back to host memory right after each invocation.
	// example: true
	ReleaseAfterUse bool `json:"release_after_use" yaml:"-" toml:"-" example:"true"`
}

// Group is a named set of components that may never share the accelerator.
type Group struct {
	// example: heavy
	Name string `json:"name" yaml:"name" toml:"name" example:"heavy"`
	// example: ["text_encoder","transformer"]
	Members []string `json:"members" yaml:"members" toml:"members" example:"[\"text_encoder\",\"transformer\"]"`
}
