package types

// RunRequest triggers one pass of the staged pipeline.
type RunRequest struct {
	Prompt string `json:"prompt"`
	Steps  int    `json:"steps,omitempty"`
	Seed   int64  `json:"seed,omitempty"`
}
