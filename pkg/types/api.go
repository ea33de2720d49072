package types

// ComponentsResponse wraps the list of components returned by GET /components.
type ComponentsResponse struct {
	Components []Component `json:"components"`
	Groups     []Group     `json:"groups"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: unknown component: vae
	Error string `json:"error" example:"unknown component: vae"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// ComponentStatus summarizes one registered component for /status.
type ComponentStatus struct {
	// example: transformer
	ID string `json:"id" example:"transformer"`
	// Current tier: host, accelerator or in_transit.
	// example: accelerator
	Tier string `json:"tier" example:"accelerator"`
	// example: 12884901888
	FootprintBytes int64 `json:"footprint_bytes" example:"12884901888"`
	// Last-used sequence number (0 = never used).
	// example: 7
	LastUsedSeq uint64 `json:"last_used_seq" example:"7"`
	// Number of compute invocations currently running.
	// example: 0
	Inflight int `json:"inflight" example:"0"`
	// example: true
	ReleaseAfterUse bool `json:"release_after_use" example:"true"`
	// Exclusivity groups the component belongs to.
	Groups []string `json:"groups,omitempty"`
}

// TierStatus summarizes one memory tier.
type TierStatus struct {
	// example: accelerator
	Name string `json:"name" example:"accelerator"`
	// Capacity in bytes; 0 means unbounded.
	// example: 17179869184
	CapacityBytes int64 `json:"capacity_bytes" example:"17179869184"`
	// example: 12884901888
	UsedBytes int64 `json:"used_bytes" example:"12884901888"`
	// Resident component ids, sorted.
	Occupants []string `json:"occupants"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Tiers      []TierStatus      `json:"tiers"`
	Components []ComponentStatus `json:"components"`
	// Total number of tier moves performed.
	// example: 12
	TransfersTotal uint64 `json:"transfers_total" example:"12"`
	// Total number of evictions forced by placement.
	// example: 5
	EvictionsTotal uint64 `json:"evictions_total" example:"5"`
	// Last error observed by the scheduler (if any).
	LastError string `json:"last_error,omitempty"`
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
}

// RunResponse reports the outcome of one pipeline pass.
type RunResponse struct {
	// example: 30
	Steps int `json:"steps" example:"30"`
	// Checksum of the decoded output buffer.
	// example: 4a1f09c2
	Checksum string `json:"checksum" example:"4a1f09c2"`
	// example: 1250
	DurationMS int64 `json:"duration_ms" example:"1250"`
	// Number of sub-regions the decoder used (1 = no footprint reduction).
	// example: 4
	DecodeRegions int `json:"decode_regions" example:"4"`
}
