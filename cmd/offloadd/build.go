package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"offloadd/internal/config"
	"offloadd/internal/pipeline"
	"offloadd/internal/registry"
	"offloadd/internal/scheduler"
	"offloadd/internal/transfer"
)

// weightSampleBytes caps the bytes actually held per component; placement
// still accounts the full declared footprint.
const weightSampleBytes = 64 << 10

// demoConfig mirrors a 16 GiB card running an image-edit pipeline whose
// text encoder and transformer cannot both be resident.
func demoConfig() config.Config {
	cfg := config.Config{
		AcceleratorCapacity: 16 << 30,
		VerifyTransfers:     true,
		Components: []config.ComponentConfig{
			{ID: pipeline.TextEncoder, Footprint: 9 << 30},
			{ID: pipeline.Transformer, Footprint: 12 << 30},
			{ID: pipeline.VAE, Footprint: 320 << 20},
		},
		Decode: config.DecodeConfig{MaxSubRegion: 4 << 10},
	}
	for _, g := range pipeline.DefaultGroups() {
		cfg.Groups = append(cfg.Groups, config.GroupConfig{Name: g.Name, Members: g.Members})
	}
	cfg.ApplyDefaults()
	return cfg
}

// buildPipeline assembles scheduler and pipeline from cfg.
func buildPipeline(cfg config.Config, latency time.Duration, log zerolog.Logger) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	descs, err := registry.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	comps, err := registry.Materialize(descs, weightSampleBytes)
	if err != nil {
		return nil, err
	}
	groups := make([]scheduler.Group, 0, len(cfg.Groups))
	for _, g := range cfg.Groups {
		groups = append(groups, scheduler.Group{Name: g.Name, Members: g.Members})
	}
	if len(groups) == 0 {
		groups = pipeline.DefaultGroups()
	}
	schedLog := log.With().Str("component", "scheduler").Logger()
	sched, err := scheduler.New(scheduler.Config{
		Components:          comps,
		Groups:              groups,
		HostCapacity:        cfg.HostCapacity.Bytes(),
		AcceleratorCapacity: cfg.AcceleratorCapacity.Bytes(),
		Device:              transfer.NewSimDevice(cfg.AcceleratorCapacity.Bytes(), transfer.WithLatency(latency)),
		VerifyTransfers:     cfg.VerifyTransfers,
		Logger:              &schedLog,
	})
	if err != nil {
		return nil, err
	}
	pipeLog := log.With().Str("component", "pipeline").Logger()
	return pipeline.New(sched, pipeline.Config{
		Height:             cfg.Decode.Height,
		Width:              cfg.Decode.Width,
		DefaultSteps:       cfg.Steps,
		DecodeMaxSubRegion: cfg.Decode.MaxSubRegion.Bytes(),
		ResetBeforeRun:     cfg.ResetBeforeRun,
		Logger:             &pipeLog,
	})
}
