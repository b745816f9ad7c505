package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thurmanmarka/duskgrid"
	"github.com/thurmanmarka/duskgrid/ephem"
	"github.com/thurmanmarka/duskgrid/internal/config"
	"github.com/thurmanmarka/duskgrid/internal/report"
	"github.com/thurmanmarka/duskgrid/internal/telemetry"
)

var scheduleFlags struct {
	lat, lon    float64
	tz          string
	start       string
	days        int
	samples     int
	provider    string
	refraction  bool
	strict      bool
	transitions bool
	refine      time.Duration

	format string
	strip  int
	output string
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Compute a solar schedule",
	Long: `Compute solar noon, solar midnight and twilight bands for each date.

Examples:
  # Phoenix, one year from January 1 of the current year
  duskgrid schedule --lat 33.4484 --lon -112.074 --tz America/Phoenix

  # A week around the June solstice as CSV, using the Meeus ephemeris
  duskgrid schedule --lat 51.48 --lon 0 --tz Europe/London \
      --start 2025-06-18 --days 7 --provider meeus --format csv
`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	f := scheduleCmd.Flags()
	f.Float64Var(&scheduleFlags.lat, "lat", 0, "latitude in degrees (north positive)")
	f.Float64Var(&scheduleFlags.lon, "lon", 0, "longitude in degrees (east positive, west negative)")
	f.StringVar(&scheduleFlags.tz, "tz", "", "IANA time zone, e.g. America/Phoenix")
	f.StringVar(&scheduleFlags.start, "start", "", "first date, YYYY-MM-DD (default January 1 of the current year)")
	f.IntVar(&scheduleFlags.days, "days", 0, "number of dates (default 367)")
	f.IntVar(&scheduleFlags.samples, "samples", 0, "samples per day")
	f.StringVar(&scheduleFlags.provider, "provider", "", "altitude provider: "+strings.Join(ephem.Providers(), ", "))
	f.BoolVar(&scheduleFlags.refraction, "refraction", false, "apply atmospheric refraction")
	f.BoolVar(&scheduleFlags.strict, "strict", false, "treat NaN or infinite altitudes as provider failures")
	f.BoolVar(&scheduleFlags.transitions, "transitions", false, "list band transitions")
	f.DurationVar(&scheduleFlags.refine, "refine", 0, "refine transitions to this tolerance, e.g. 1s")
	f.StringVarP(&scheduleFlags.format, "format", "f", "text", "output format: text, csv, json or full")
	f.IntVar(&scheduleFlags.strip, "strip", 48, "band strip width in text output (0 hides it)")
	f.StringVarP(&scheduleFlags.output, "output", "o", "", "write output to a file instead of stdout")
}

// applyScheduleFlags copies explicitly set flags over c.
func applyScheduleFlags(cmd *cobra.Command) func(*config.Config) {
	changed := cmd.Flags().Changed
	return func(c *config.Config) {
		if changed("lat") {
			c.Location.Lat = scheduleFlags.lat
		}
		if changed("lon") {
			c.Location.Lon = scheduleFlags.lon
		}
		if changed("tz") {
			c.TimeZone = scheduleFlags.tz
		}
		if changed("start") {
			c.Start = scheduleFlags.start
		}
		if changed("days") {
			c.Days = scheduleFlags.days
		}
		if changed("samples") {
			c.Samples = scheduleFlags.samples
		}
		if changed("provider") {
			c.Provider = scheduleFlags.provider
		}
		if changed("refraction") {
			c.Refraction = scheduleFlags.refraction
		}
		if changed("strict") {
			c.Strict = scheduleFlags.strict
		}
		if changed("transitions") {
			c.Transitions = scheduleFlags.transitions
		}
		if changed("refine") {
			c.RefineTolerance = scheduleFlags.refine
		}
	}
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	switch scheduleFlags.format {
	case "text", "csv", "json", "full":
	default:
		return fmt.Errorf("unsupported format %q", scheduleFlags.format)
	}
	if err := loadConfig(applyScheduleFlags(cmd)); err != nil {
		return err
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	shutdown, err := startTracing(ctx, "duskgrid")
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer telemetry.ShutdownWithTimeout(context.Background(), shutdown, logger)

	res, err := computeSchedule(ctx, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scheduleFlags.output != "" {
		f, err := os.Create(scheduleFlags.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := writeSchedule(out, res); err != nil {
		return fmt.Errorf("write %s: %w", scheduleFlags.format, err)
	}
	return nil
}

func computeSchedule(ctx context.Context, c *config.Config) (*duskgrid.ScheduleResult, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, duskgrid.WithLogger(logger))
	computer, err := duskgrid.NewComputer(opts...)
	if err != nil {
		return nil, err
	}
	req, err := c.Request()
	if err != nil {
		return nil, err
	}
	return computer.Compute(ctx, req)
}

func writeSchedule(w io.Writer, res *duskgrid.ScheduleResult) error {
	switch scheduleFlags.format {
	case "csv":
		return report.WriteCSV(w, report.Summarize(res))
	case "json":
		return report.WriteJSON(w, report.NewSummary(res, cfg.TimeZone))
	case "full":
		return report.WriteJSON(w, res)
	}

	rows := report.Summarize(res)
	title := fmt.Sprintf("%.4f, %.4f (%s): %d dates, %d samples per day, %s provider",
		res.Location.Lat, res.Location.Lon, cfg.TimeZone, len(rows), res.SampleCount, cfg.Provider)
	if err := report.WriteText(w, rows, report.TextOptions{StripWidth: scheduleFlags.strip, Title: title}); err != nil {
		return err
	}
	if scheduleFlags.strip > 0 {
		fmt.Fprintln(w)
		if err := report.Legend(w); err != nil {
			return err
		}
	}
	if cfg.Transitions || cfg.RefineTolerance > 0 {
		fmt.Fprintln(w)
		return report.WriteTransitions(w, rows)
	}
	return nil
}
