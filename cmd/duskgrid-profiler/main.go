package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/thurmanmarka/duskgrid"
	"github.com/thurmanmarka/duskgrid/ephem"
	"github.com/thurmanmarka/duskgrid/internal/logging"
	"github.com/thurmanmarka/duskgrid/internal/report"
	"github.com/thurmanmarka/duskgrid/internal/timeutil"
)

// stats accumulates error samples in minutes. NaN samples are ignored.
type stats struct {
	count int
	sum   float64
	min   float64
	max   float64
}

func (s *stats) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	if s.count == 0 {
		s.min, s.max = v, v
	} else {
		s.min = math.Min(s.min, v)
		s.max = math.Max(s.max, v)
	}
	s.sum += v
	s.count++
}

func (s *stats) mean() float64 {
	if s.count == 0 {
		return math.NaN()
	}
	return s.sum / float64(s.count)
}

// metric tracks absolute and signed (ours - reference) errors of one quantity.
type metric struct {
	name   string
	abs    stats
	signed stats
}

func (m *metric) add(got, ref time.Time) float64 {
	d := diffMinutesSigned(got, ref)
	m.signed.add(d)
	m.abs.add(math.Abs(d))
	return d
}

func diffMinutesSigned(a, b time.Time) float64 {
	if a.IsZero() || b.IsZero() {
		return math.NaN()
	}
	return a.Sub(b).Minutes()
}

// refRow is one line of the reference CSV.
type refRow struct {
	line int
	date civil.Date
	rise string
	set  string
	noon string
}

// readReference parses
//
//	date,rise,set[,noon]
//	2025-01-01,07:32,17:12,12:22
//
// where times are local HH:MM or HH:MM:SS and empty cells mean "no event".
// A leading header row is skipped. Rows are returned sorted by date; rows
// that cannot be parsed are reported through skip and left out.
func readReference(r io.Reader, skip func(line int, reason string)) ([]refRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read reference csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty reference csv")
	}
	start := 0
	if len(records[0]) >= 1 && strings.EqualFold(strings.TrimSpace(records[0][0]), "date") {
		start = 1
	}

	var rows []refRow
	for i := start; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 3 {
			skip(i+1, fmt.Sprintf("expected at least 3 columns (date,rise,set), got %d", len(rec)))
			continue
		}
		d, err := civil.ParseDate(strings.TrimSpace(rec[0]))
		if err != nil {
			skip(i+1, fmt.Sprintf("invalid date %q", rec[0]))
			continue
		}
		row := refRow{line: i + 1, date: d, rise: strings.TrimSpace(rec[1]), set: strings.TrimSpace(rec[2])}
		if len(rec) > 3 {
			row.noon = strings.TrimSpace(rec[3])
		}
		rows = append(rows, row)
	}
	slices.SortStableFunc(rows, func(a, b refRow) int {
		return a.date.DaysSince(b.date)
	})
	return rows, nil
}

// parseLocalTime combines date with a HH:MM[:SS] clock reading in loc. An
// empty clock yields the zero time.
func parseLocalTime(date civil.Date, hhmm string, loc *time.Location) (time.Time, error) {
	if hhmm == "" {
		return time.Time{}, nil
	}
	layout := "15:04"
	if strings.Count(hhmm, ":") == 2 {
		layout = "15:04:05"
	}
	parsed, err := time.Parse(layout, hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year, date.Month, date.Day,
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0, loc), nil
}

// crossings returns the local hours at which the Sun rises above (dawn) and
// sinks below (dusk) the lower bound of band k, or NaN when it does not.
func crossings(day duskgrid.DaySample, k duskgrid.TwilightBand) (dawn, dusk float64) {
	dawn, dusk = math.NaN(), math.NaN()
	for _, tr := range day.Transitions {
		switch {
		case tr.From > k && tr.To <= k && math.IsNaN(dawn):
			dawn = tr.Hour
		case tr.From <= k && tr.To > k:
			dusk = tr.Hour
		}
	}
	return dawn, dusk
}

// atHour converts a local hour of day to an instant.
func atHour(day duskgrid.DaySample, hour float64) time.Time {
	if math.IsNaN(hour) {
		return time.Time{}
	}
	zone := time.FixedZone(report.FormatOffset(day.OffsetSeconds), day.OffsetSeconds)
	midnight := time.Date(day.Date.Year, day.Date.Month, day.Date.Day, 0, 0, 0, 0, zone)
	return midnight.Add(timeutil.HoursToDuration(hour))
}

type profileConfig struct {
	coords   duskgrid.Coordinates
	loc      *time.Location
	band     duskgrid.TwilightBand
	provider duskgrid.AltitudeProvider
	horizon  float64
	samples  int
	refine   time.Duration
	verbose  io.Writer
	out      *csv.Writer
}

type profile struct {
	dawn, dusk, noon, sunrise, sunset metric
	skipped                           int
}

func newProfile(band duskgrid.TwilightBand) *profile {
	return &profile{
		dawn:    metric{name: band.String() + " dawn"},
		dusk:    metric{name: band.String() + " dusk"},
		noon:    metric{name: "solar noon"},
		sunrise: metric{name: "go-sunrise rise"},
		sunset:  metric{name: "go-sunrise set"},
	}
}

func (p *profile) metrics() []*metric {
	return []*metric{&p.dawn, &p.dusk, &p.noon, &p.sunrise, &p.sunset}
}

var outHeader = []string{"date", "dawn_err", "dusk_err", "noon_err", "sunrise_err", "sunset_err"}

func run(ctx context.Context, cfg profileConfig, rows []refRow, log zerolog.Logger) (*profile, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no usable reference rows")
	}
	thresholds := duskgrid.DefaultThresholds()
	thresholds.Horizon = cfg.horizon
	opts := []duskgrid.Option{
		duskgrid.WithProvider(cfg.provider),
		duskgrid.WithSampleCount(cfg.samples),
		duskgrid.WithThresholds(thresholds),
		duskgrid.WithLogger(log),
		duskgrid.WithTransitions(),
	}
	if cfg.refine > 0 {
		opts = append(opts, duskgrid.WithRefinedTransitions(cfg.refine))
	}
	computer, err := duskgrid.NewComputer(opts...)
	if err != nil {
		return nil, err
	}

	first := rows[0].date
	offsets := make([]int, len(rows))
	for i, r := range rows {
		offsets[i] = r.date.DaysSince(first)
	}
	res, err := computer.Compute(ctx, duskgrid.Request{
		Location:   cfg.coords,
		Offsets:    duskgrid.CachedOffsets(duskgrid.LocationOffsets(cfg.loc), 0),
		Start:      &first,
		DayOffsets: offsets,
	})
	if err != nil {
		return nil, err
	}
	summary := report.Summarize(res)

	p := newProfile(cfg.band)
	if cfg.out != nil {
		if err := cfg.out.Write(outHeader); err != nil {
			return nil, err
		}
	}
	for i, r := range rows {
		day := res.Days[i]
		refRise, err1 := parseLocalTime(r.date, r.rise, cfg.loc)
		refSet, err2 := parseLocalTime(r.date, r.set, cfg.loc)
		refNoon, err3 := parseLocalTime(r.date, r.noon, cfg.loc)
		if err := firstErr(err1, err2, err3); err != nil {
			log.Warn().Int("line", r.line).Err(err).Msg("invalid reference time, skipping")
			p.skipped++
			continue
		}

		dawnH, duskH := crossings(day, cfg.band)
		dawnErr := p.dawn.add(atHour(day, dawnH), refRise)
		duskErr := p.dusk.add(atHour(day, duskH), refSet)
		noonErr := p.noon.add(atHour(day, day.Noon), refNoon)
		riseErr, setErr := math.NaN(), math.NaN()
		if cfg.band == duskgrid.BandDay {
			if s := summary[i].Sunrise; s != nil {
				riseErr = p.sunrise.add(*s, refRise)
			}
			if s := summary[i].Sunset; s != nil {
				setErr = p.sunset.add(*s, refSet)
			}
		}

		if cfg.verbose != nil {
			fmt.Fprintf(cfg.verbose, "%s: dawn %s (ref %s, %+.2f min), dusk %s (ref %s, %+.2f min), noon %s (%+.2f min)\n",
				r.date,
				report.FormatHour(dawnH), orDash(r.rise), dawnErr,
				report.FormatHour(duskH), orDash(r.set), duskErr,
				report.FormatHour(day.Noon), noonErr)
		}
		if cfg.out != nil {
			rec := []string{r.date.String()}
			for _, v := range []float64{dawnErr, duskErr, noonErr, riseErr, setErr} {
				rec = append(rec, formatErr(v))
			}
			if err := cfg.out.Write(rec); err != nil {
				return nil, fmt.Errorf("write outcsv: %w", err)
			}
		}
	}
	if cfg.out != nil {
		cfg.out.Flush()
		if err := cfg.out.Error(); err != nil {
			return nil, fmt.Errorf("write outcsv: %w", err)
		}
	}
	return p, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "--:--"
	}
	return s
}

func formatErr(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.6f", v)
}

func writeSummary(w io.Writer, cfg profileConfig, p *profile, provider string, rows int) {
	fmt.Fprintln(w, "=== duskgrid profiler summary ===")
	fmt.Fprintf(w, "Band:     %s (horizon %g°)\n", cfg.band, cfg.horizon)
	fmt.Fprintf(w, "Provider: %s, %d samples/day, refine %v\n", provider, cfg.samples, cfg.refine)
	fmt.Fprintf(w, "Lat/Lon:  %.4f / %.4f\n", cfg.coords.Lat, cfg.coords.Lon)
	fmt.Fprintf(w, "TZ:       %s\n", cfg.loc)
	fmt.Fprintf(w, "Rows:     %d (processed), %d skipped\n", rows-p.skipped, p.skipped)

	for _, m := range p.metrics() {
		if m.abs.count == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s error (minutes):\n", m.name)
		fmt.Fprintf(w, "  count: %d\n", m.abs.count)
		fmt.Fprintf(w, "  |err| min/max/avg: %.3f / %.3f / %.3f\n", m.abs.min, m.abs.max, m.abs.mean())
		fmt.Fprintf(w, "  ours - ref min/max/mean: %.3f / %.3f / %.3f\n", m.signed.min, m.signed.max, m.signed.mean())
	}
}

func main() {
	var (
		lat        = flag.Float64("lat", 0, "latitude in degrees (north positive)")
		lon        = flag.Float64("lon", 0, "longitude in degrees (east positive, west negative)")
		tzName     = flag.String("tz", "UTC", "IANA time zone name (e.g. America/Phoenix)")
		refCSV     = flag.String("refcsv", "", "path to reference CSV file (date,rise,set[,noon])")
		bandName   = flag.String("band", "day", "band whose lower bound the rise/set columns refer to: day, civil, nautical, astronomical")
		provider   = flag.String("provider", "meeus", "altitude provider: "+strings.Join(ephem.Providers(), ", "))
		refraction = flag.Bool("refraction", true, "apply atmospheric refraction")
		horizon    = flag.Float64("horizon", -0.2667, "altitude of the day band's lower bound in degrees (-0.2667 puts the Sun's upper limb on the horizon)")
		samples    = flag.Int("samples", 1440, "samples per day")
		refine     = flag.Duration("refine", time.Second, "refine crossings to this tolerance (0 keeps sample resolution)")
		verbose    = flag.Bool("verbose", false, "print per-day errors instead of only the summary")
		outCSV     = flag.String("outcsv", "", "optional path to write per-row error CSV")
		env        = flag.String("env", "production", "logging environment (development, production, quiet)")
	)
	flag.Parse()

	log := logging.Setup(*env)
	if *refCSV == "" {
		log.Fatal().Msg("missing -refcsv (path to reference CSV)")
	}
	loc, err := time.LoadLocation(*tzName)
	if err != nil {
		log.Fatal().Err(err).Str("tz", *tzName).Msg("failed to load timezone")
	}
	band, err := duskgrid.ParseBand(*bandName)
	if err != nil || band == duskgrid.BandNight {
		log.Fatal().Str("band", *bandName).Msg("band must be day, civil, nautical or astronomical")
	}
	p, err := ephem.ByName(*provider, *refraction)
	if err != nil {
		log.Fatal().Err(err).Msg("unknown provider")
	}
	if *lat == 0 && *lon == 0 {
		log.Warn().Msg("lat=0 lon=0 (Gulf of Guinea). Did you mean to set -lat/-lon?")
	}

	f, err := os.Open(*refCSV)
	if err != nil {
		log.Fatal().Err(err).Str("path", *refCSV).Msg("failed to open refcsv")
	}
	defer f.Close()
	skipped := 0
	rows, err := readReference(f, func(line int, reason string) {
		log.Warn().Int("line", line).Msg(reason + ", skipping")
		skipped++
	})
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	cfg := profileConfig{
		coords:   duskgrid.Coordinates{Lat: *lat, Lon: *lon},
		loc:      loc,
		band:     band,
		provider: p,
		horizon:  *horizon,
		samples:  *samples,
		refine:   *refine,
	}
	if *verbose {
		cfg.verbose = os.Stdout
	}
	if *outCSV != "" {
		out, err := os.Create(*outCSV)
		if err != nil {
			log.Fatal().Err(err).Str("path", *outCSV).Msg("failed to create outcsv")
		}
		defer out.Close()
		cfg.out = csv.NewWriter(out)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	prof, err := run(ctx, cfg, rows, log)
	if err != nil {
		log.Fatal().Err(err).Msg("profiling failed")
	}
	prof.skipped += skipped
	writeSummary(os.Stdout, cfg, prof, *provider, len(rows)+skipped)
}
