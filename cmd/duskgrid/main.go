package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/thurmanmarka/duskgrid/internal/config"
	"github.com/thurmanmarka/duskgrid/internal/logging"
	"github.com/thurmanmarka/duskgrid/internal/server"
	"github.com/thurmanmarka/duskgrid/internal/telemetry"
)

var (
	configPath string
	logger     zerolog.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "duskgrid",
	Short: "Solar noon, midnight and twilight schedules",
	Long: `duskgrid samples the Sun's altitude across each local day for an observer
and reports solar noon, solar midnight and the twilight band of every sample
over a range of dates.

Settings come from an optional YAML file (--config or DUSKGRID_CONFIG),
DUSKGRID_* environment variables, and command flags, in increasing order of
precedence.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve schedules over HTTP",
	Long:  "Start the HTTP server exposing /v1/schedule, /v1/bands, /healthz and Prometheus metrics.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var serveBind string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("DUSKGRID_CONFIG"), "path to a YAML configuration file")
	serveCmd.Flags().StringVar(&serveBind, "bind", "", "listen address (overrides http_bind)")
	rootCmd.AddCommand(scheduleCmd, serveCmd, bandsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration, lets apply override it from flags,
// and validates the result.
func loadConfig(apply func(*config.Config)) error {
	c, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apply != nil {
		apply(c)
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
	}
	cfg = c
	logger = logging.Setup(cfg.Environment)
	return nil
}

// startTracing initializes tracing from cfg. Spans from the stdout exporter
// go to stderr.
func startTracing(ctx context.Context, service string) (func(context.Context) error, error) {
	return telemetry.InitTracing(ctx, telemetry.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: service,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		Writer:      os.Stderr,
	}, logger)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, _ []string) error {
	err := loadConfig(func(c *config.Config) {
		if serveBind != "" {
			c.HTTPBind = serveBind
		}
	})
	if err != nil {
		return err
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	shutdown, err := startTracing(ctx, "duskgrid-server")
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer telemetry.ShutdownWithTimeout(context.Background(), shutdown, logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}
	logger.Info().
		Str("provider", cfg.Provider).
		Int("samples", cfg.Samples).
		Str("timezone", cfg.TimeZone).
		Msg("duskgrid server starting")
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info().Msg("duskgrid server stopped")
	return nil
}
