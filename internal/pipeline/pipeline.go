// Package pipeline drives the staged edit pass: the text encoder embeds the
// prompt, the transformer runs the denoising steps and the autoencoder
// decodes the result. Every stage runs through the scheduler so only the
// component that is computing occupies the accelerator.
package pipeline

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/rs/zerolog"

	"offloadd/internal/resident"
	"offloadd/internal/scheduler"
	"offloadd/internal/transfer"
	"offloadd/pkg/types"
)

// Stage component ids.
const (
	TextEncoder = "text_encoder"
	Transformer = "transformer"
	VAE         = "vae"
)

// Stages lists the component ids in execution order.
var Stages = []string{TextEncoder, Transformer, VAE}

// DefaultGroups keeps the text encoder and the transformer from ever sharing
// the accelerator.
func DefaultGroups() []scheduler.Group {
	return []scheduler.Group{{Name: "default", Members: []string{TextEncoder, Transformer}}}
}

// Config tunes a Pipeline.
type Config struct {
	// Latent grid dimensions.
	Height int
	Width  int
	// DefaultSteps applies when a request leaves Steps unset.
	DefaultSteps int
	// DecodeMaxSubRegion enables decoder footprint reduction when > 0.
	DecodeMaxSubRegion int64
	// ResetBeforeRun empties the accelerator before every pass.
	ResetBeforeRun bool
	MaxQueueDepth  int
	MaxWait        time.Duration
	Logger         *zerolog.Logger
}

// Pipeline runs staged passes over a Scheduler.
type Pipeline struct {
	sched   *scheduler.Scheduler
	dec     *Decoder
	cfg     Config
	log     zerolog.Logger
	queueCh chan struct{}
	runCh   chan struct{}
	maxWait time.Duration
}

// New validates that s knows every stage component and returns a Pipeline.
func New(s *scheduler.Scheduler, cfg Config) (*Pipeline, error) {
	for _, id := range Stages {
		if _, err := s.Component(id); err != nil {
			return nil, fmt.Errorf("pipeline: stage %s: %w", id, err)
		}
	}
	if cfg.Height <= 0 {
		cfg.Height = 64
	}
	if cfg.Width <= 0 {
		cfg.Width = 64
	}
	if cfg.DefaultSteps <= 0 {
		cfg.DefaultSteps = 30
	}
	if cfg.MaxQueueDepth <= 0 {
		cfg.MaxQueueDepth = 4
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 30 * time.Second
	}
	p := &Pipeline{
		sched:   s,
		dec:     &Decoder{},
		cfg:     cfg,
		log:     zerolog.Nop(),
		queueCh: make(chan struct{}, cfg.MaxQueueDepth),
		runCh:   make(chan struct{}, 1),
		maxWait: cfg.MaxWait,
	}
	if cfg.Logger != nil {
		p.log = *cfg.Logger
	}
	if cfg.DecodeMaxSubRegion > 0 {
		if err := p.dec.EnableFootprintReduction(cfg.DecodeMaxSubRegion); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Decoder exposes the autoencoder stage for footprint-reduction control.
func (p *Pipeline) Decoder() *Decoder { return p.dec }

// Scheduler returns the scheduler driving placement.
func (p *Pipeline) Scheduler() *scheduler.Scheduler { return p.sched }

// Run executes one pass: encode, denoise, decode.
func (p *Pipeline) Run(ctx context.Context, req types.RunRequest) (types.RunResponse, error) {
	start := time.Now()
	resp, err := p.run(ctx, req)
	result := "ok"
	if err != nil {
		result = "error"
		if IsTooBusy(err) {
			result = "busy"
		}
		p.log.Error().Str("event", "run_fail").Err(err).Msg("pipeline")
	} else {
		resp.DurationMS = time.Since(start).Milliseconds()
		p.log.Info().Str("event", "run_done").Int("steps", resp.Steps).Str("checksum", resp.Checksum).
			Int("decode_regions", resp.DecodeRegions).Int64("dur_ms", resp.DurationMS).Msg("pipeline")
	}
	runsTotal.WithLabelValues(result).Inc()
	return resp, err
}

func (p *Pipeline) run(ctx context.Context, req types.RunRequest) (types.RunResponse, error) {
	if req.Prompt == "" {
		return types.RunResponse{}, invalidRequestError{msg: "prompt is required"}
	}
	if req.Steps < 0 {
		return types.RunResponse{}, invalidRequestError{msg: fmt.Sprintf("steps must be >= 0, got %d", req.Steps)}
	}
	steps := req.Steps
	if steps == 0 {
		steps = p.cfg.DefaultSteps
	}

	release, err := p.admit(ctx)
	if err != nil {
		return types.RunResponse{}, err
	}
	defer release()

	if p.cfg.ResetBeforeRun {
		if err := p.sched.Reset(ctx); err != nil {
			return types.RunResponse{}, fmt.Errorf("reset accelerator: %w", err)
		}
	}

	cells := p.cfg.Height * p.cfg.Width
	seed := crc32.ChecksumIEEE([]byte(req.Prompt)) ^ uint32(req.Seed)
	var latent []uint32
	err = p.stage(ctx, TextEncoder, func(ctx context.Context, c *resident.Component) error {
		w, err := p.weights(c)
		if err != nil {
			return err
		}
		latent = encode(w, seed, cells)
		return nil
	})
	if err != nil {
		return types.RunResponse{}, err
	}

	err = p.stage(ctx, Transformer, func(ctx context.Context, c *resident.Component) error {
		w, err := p.weights(c)
		if err != nil {
			return err
		}
		for k := 0; k < steps; k++ {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("step %d: %w", k, err)
			}
			denoiseStep(w, latent, k)
		}
		return nil
	})
	if err != nil {
		return types.RunResponse{}, err
	}

	var out []uint32
	var regions int
	err = p.stage(ctx, VAE, func(ctx context.Context, c *resident.Component) error {
		w, err := p.weights(c)
		if err != nil {
			return err
		}
		out, regions, err = p.dec.decode(ctx, w, latent, p.cfg.Height, p.cfg.Width)
		return err
	})
	if err != nil {
		return types.RunResponse{}, err
	}
	decodeRegions.Set(float64(regions))

	return types.RunResponse{
		Steps:         steps,
		Checksum:      checksum(out),
		DecodeRegions: regions,
	}, nil
}

func (p *Pipeline) stage(ctx context.Context, id string, fn scheduler.ComputeFunc) error {
	start := time.Now()
	err := p.sched.Run(ctx, id, fn)
	stageDuration.WithLabelValues(id).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("stage %s: %w", id, err)
	}
	p.log.Debug().Str("event", "stage_done").Str("component", id).Dur("dur", time.Since(start)).Msg("pipeline")
	return nil
}

// weights returns the accelerator-resident weights of c. Devices that do not
// expose their buffers fall back to the component id as key material.
func (p *Pipeline) weights(c *resident.Component) ([]byte, error) {
	r, ok := p.sched.Device().(transfer.Reader)
	if !ok {
		return []byte(c.ID()), nil
	}
	return r.Read(c.ID())
}

func checksum(out []uint32) string {
	h := crc32.NewIEEE()
	var b [4]byte
	for _, v := range out {
		binary.LittleEndian.PutUint32(b[:], v)
		h.Write(b[:])
	}
	return fmt.Sprintf("%08x", h.Sum32())
}
