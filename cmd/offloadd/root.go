package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"offloadd/internal/config"
	"offloadd/internal/httpapi"
	"offloadd/internal/reducer"
	"offloadd/pkg/types"
)

// options holds the flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	logFormat  string
	accelCap   string
	latency    time.Duration
	cfg        config.Config
	log        zerolog.Logger
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "offloadd",
		Short:         "Staged device-memory offload scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", os.Getenv("OFFLOADD_CONFIG"), "Config file (.yaml, .json, .toml); built-in demo pipeline when empty")
	pf.StringVar(&o.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	pf.StringVar(&o.logFormat, "log-format", "", "Log format: console|json (overrides config)")
	pf.StringVar(&o.accelCap, "accelerator-capacity", "", "Accelerator budget, e.g. 16GiB (overrides config)")
	pf.DurationVar(&o.latency, "transfer-latency", 0, "Simulated per-copy latency of the device")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return o.load(cmd.ErrOrStderr())
	}

	root.AddCommand(newServeCmd(o), newRunCmd(o), newPlanCmd())
	return root
}

// load resolves configuration and the logger.
func (o *options) load(stderr io.Writer) error {
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		o.cfg = cfg
	} else {
		o.cfg = demoConfig()
	}
	if o.logLevel != "" {
		o.cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		o.cfg.LogFormat = o.logFormat
	}
	if o.accelCap != "" {
		n, err := config.ParseByteSize(o.accelCap)
		if err != nil {
			return err
		}
		o.cfg.AcceleratorCapacity = n
	}
	log, err := newLogger(stderr, o.cfg.LogLevel, o.cfg.LogFormat)
	if err != nil {
		return err
	}
	o.log = log
	return nil
}

func newServeCmd(o *options) *cobra.Command {
	var addr, corsOrigins string
	var runTimeout time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the status and control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				o.cfg.Addr = addr
			}
			if corsOrigins != "" {
				o.cfg.CORS.Enabled = true
				o.cfg.CORS.AllowedOrigins = splitCSV(corsOrigins)
			}
			p, err := buildPipeline(o.cfg, o.latency, o.log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			httpapi.SetLogger(o.log.With().Str("component", "http").Logger())
			httpapi.SetBaseContext(ctx)
			httpapi.SetRunTimeout(runTimeout)
			c := o.cfg.CORS
			httpapi.SetCORSOptions(c.Enabled, c.AllowedOrigins, c.AllowedMethods, c.AllowedHeaders)

			srv := &http.Server{Addr: o.cfg.Addr, Handler: httpapi.NewMux(p), ReadHeaderTimeout: 10 * time.Second}
			errCh := make(chan error, 1)
			go func() {
				o.log.Info().Str("addr", o.cfg.Addr).
					Str("accelerator", humanize.IBytes(uint64(o.cfg.AcceleratorCapacity))).
					Int("components", len(p.ListComponents())).Msg("offloadd listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
			case <-ctx.Done():
			}

			// Graceful shutdown, then hand the accelerator back.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				o.log.Error().Err(err).Msg("graceful shutdown error")
			}
			return p.Scheduler().Close(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("OFFLOADD_ADDR", ""), "HTTP listen address, e.g. :8080 (overrides config)")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", os.Getenv("OFFLOADD_CORS_ORIGINS"), "Comma-separated allowed CORS origins; enables CORS")
	cmd.Flags().DurationVar(&runTimeout, "run-timeout", 0, "Maximum duration of a POST /run request (0 disables)")
	return cmd
}

func newRunCmd(o *options) *cobra.Command {
	var req types.RunRequest
	var noReduce bool
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run one staged pipeline pass and print the result",
		Example: "  offloadd run --prompt \"make the sky purple\" --steps 30",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPipeline(o.cfg, o.latency, o.log)
			if err != nil {
				return err
			}
			if noReduce {
				p.Decoder().DisableFootprintReduction()
			}
			resp, err := p.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := p.Scheduler().Close(cmd.Context()); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				types.RunResponse
				Status types.StatusResponse `json:"status"`
			}{resp, p.Status()})
		},
	}
	cmd.Flags().StringVar(&req.Prompt, "prompt", "", "Edit instruction")
	cmd.Flags().IntVar(&req.Steps, "steps", 0, "Denoising steps (0 uses the configured default)")
	cmd.Flags().Int64Var(&req.Seed, "seed", 0, "Random seed")
	cmd.Flags().BoolVar(&noReduce, "no-footprint-reduction", false, "Decode in a single pass")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func newPlanCmd() *cobra.Command {
	var size, budget, unit string
	var height, width int
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show how an input would be decomposed under a sub-region budget",
		Example: "  offloadd plan --size 100 --max 30\n" +
			"  offloadd plan --height 128 --width 128 --unit 4 --max 16KiB",
		RunE: func(cmd *cobra.Command, args []string) error {
			maxBytes, err := config.ParseByteSize(budget)
			if err != nil {
				return err
			}
			unitBytes, err := config.ParseByteSize(unit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if height > 0 || width > 0 {
				tp, err := reducer.PlanTiles(height, width, unitBytes.Bytes(), maxBytes.Bytes())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d tiles over %dx%d\n", len(tp.Tiles), height, width)
				for _, t := range tp.Tiles {
					fmt.Fprintf(out, "  tile %d: rows %d-%d cols %d-%d (%s)\n", t.Index, t.Row, t.Row+t.Height-1,
						t.Col, t.Col+t.Width-1, humanize.IBytes(uint64(int64(t.Height*t.Width)*unitBytes.Bytes())))
				}
				return nil
			}
			n, err := config.ParseByteSize(size)
			if err != nil {
				return err
			}
			p, err := reducer.PlanDecomposition(n.Bytes(), maxBytes.Bytes(), reducer.WithUnitBytes(unitBytes.Bytes()))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d regions over %d units\n", p.Len(), p.Size)
			for _, r := range p.Regions {
				fmt.Fprintf(out, "  region %d: [%d, %d) %s\n", r.Index, r.Offset, r.End(),
					humanize.IBytes(uint64(r.Length*p.UnitBytes)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&size, "size", "0", "Input size in units")
	cmd.Flags().StringVar(&budget, "max", "", "Maximum sub-region working set, e.g. 64MiB")
	cmd.Flags().StringVar(&unit, "unit", "1", "Bytes per unit (or per cell with --height/--width)")
	cmd.Flags().IntVar(&height, "height", 0, "Grid height for tiled plans")
	cmd.Flags().IntVar(&width, "width", 0, "Grid width for tiled plans")
	_ = cmd.MarkFlagRequired("max")
	return cmd
}
