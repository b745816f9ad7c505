// Package config loads duskgrid settings from an optional YAML file and
// DUSKGRID_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	cerrors "cloudeng.io/errors"
	"gopkg.in/yaml.v3"

	"github.com/thurmanmarka/duskgrid"
	"github.com/thurmanmarka/duskgrid/ephem"
)

// Location is the observer's position.
type Location struct {
	Lat       float64 `yaml:"lat"`
	Lon       float64 `yaml:"lon"`
	Elevation float64 `yaml:"elevation"`
}

// Retry controls retries of the altitude provider. Attempts of 0 or 1
// disables retrying.
type Retry struct {
	Attempts uint          `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
	MaxDelay time.Duration `yaml:"max_delay"`
}

// Tracing configures OpenTelemetry export.
type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"` // stdout | otlp
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// HTTP configures the schedule server.
type HTTP struct {
	CacheEntries int           `yaml:"cache_entries"` // cached responses; 0 disables
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	MaxDays      int           `yaml:"max_days"`
	MaxSamples   int           `yaml:"max_samples"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Config covers everything needed to build a computer and run the binaries.
type Config struct {
	Environment string   `yaml:"environment"`
	Location    Location `yaml:"location"`
	TimeZone    string   `yaml:"timezone"` // IANA name, e.g. America/Phoenix
	Start       string   `yaml:"start"`    // YYYY-MM-DD; empty means Jan 1 of the current year
	Days        int      `yaml:"days"`     // 0 means the default 367-day span

	Samples         int                 `yaml:"samples"`
	DayEndEpsilon   float64             `yaml:"day_end_epsilon"`
	WrapThreshold   float64             `yaml:"wrap_threshold"`
	Thresholds      duskgrid.Thresholds `yaml:"thresholds"`
	Provider        string              `yaml:"provider"`
	Refraction      bool                `yaml:"refraction"`
	Strict          bool                `yaml:"strict"`
	Concurrency     int                 `yaml:"concurrency"` // 0 means GOMAXPROCS
	Transitions     bool                `yaml:"transitions"`
	RefineTolerance time.Duration       `yaml:"refine_tolerance"`
	Retry           Retry               `yaml:"retry"`
	CacheSize       int                 `yaml:"cache_size"` // memoized altitudes; 0 disables

	HTTPBind    string  `yaml:"http_bind"`
	MetricsPath string  `yaml:"metrics_path"`
	HTTP        HTTP    `yaml:"http"`
	Tracing     Tracing `yaml:"tracing"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Environment:   "production",
		TimeZone:      "UTC",
		Samples:       duskgrid.DefaultSampleCount,
		DayEndEpsilon: duskgrid.DefaultDayEndEpsilon,
		WrapThreshold: duskgrid.DefaultWrapThreshold,
		Thresholds:    duskgrid.DefaultThresholds(),
		Provider:      "model",
		HTTPBind:      "127.0.0.1:8080",
		MetricsPath:   "/metrics",
		HTTP: HTTP{
			CacheEntries: 1024,
			CacheTTL:     10 * time.Minute,
			MaxDays:      3660,
			MaxSamples:   2880,
			Timeout:      30 * time.Second,
		},
		Retry: Retry{
			Delay:    100 * time.Millisecond,
			MaxDelay: 5 * time.Second,
		},
		Tracing: Tracing{
			Exporter:    "stdout",
			Endpoint:    "localhost:4317",
			SampleRatio: 1.0,
		},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads YAML configuration from data over the defaults, without
// environment overrides or validation.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("DUSKGRID_ENV", c.Environment)
	c.Location.Lat = getEnvFloat("DUSKGRID_LAT", c.Location.Lat)
	c.Location.Lon = getEnvFloat("DUSKGRID_LON", c.Location.Lon)
	c.Location.Elevation = getEnvFloat("DUSKGRID_ELEVATION", c.Location.Elevation)
	c.TimeZone = getEnv("DUSKGRID_TZ", c.TimeZone)
	c.Start = getEnv("DUSKGRID_START", c.Start)
	c.Days = getEnvInt("DUSKGRID_DAYS", c.Days)
	c.Samples = getEnvInt("DUSKGRID_SAMPLES", c.Samples)
	c.WrapThreshold = getEnvFloat("DUSKGRID_WRAP_THRESHOLD", c.WrapThreshold)
	c.Provider = getEnv("DUSKGRID_PROVIDER", c.Provider)
	c.Refraction = getEnvBool("DUSKGRID_REFRACTION", c.Refraction)
	c.Strict = getEnvBool("DUSKGRID_STRICT", c.Strict)
	c.Concurrency = getEnvInt("DUSKGRID_CONCURRENCY", c.Concurrency)
	c.CacheSize = getEnvInt("DUSKGRID_CACHE_SIZE", c.CacheSize)
	c.Retry.Attempts = uint(getEnvInt("DUSKGRID_RETRY_ATTEMPTS", int(c.Retry.Attempts)))
	c.HTTPBind = getEnv("DUSKGRID_HTTP_BIND", c.HTTPBind)
	c.HTTP.CacheEntries = getEnvInt("DUSKGRID_HTTP_CACHE_ENTRIES", c.HTTP.CacheEntries)
	c.HTTP.CacheTTL = getEnvDuration("DUSKGRID_HTTP_CACHE_TTL", c.HTTP.CacheTTL)
	c.HTTP.Timeout = getEnvDuration("DUSKGRID_HTTP_TIMEOUT", c.HTTP.Timeout)
	c.Tracing.Enabled = getEnvBool("DUSKGRID_TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.Exporter = getEnv("DUSKGRID_TRACING_EXPORTER", c.Tracing.Exporter)
	c.Tracing.Endpoint = getEnv("DUSKGRID_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.SampleRatio = getEnvFloat("DUSKGRID_TRACING_SAMPLE_RATE", c.Tracing.SampleRatio)
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	errs := &cerrors.M{}
	errs.Append(c.Coordinates().Validate())
	if _, err := c.TimeLocation(); err != nil {
		errs.Append(err)
	}
	if _, err := c.StartDate(); err != nil {
		errs.Append(err)
	}
	if c.Days < 0 {
		errs.Append(fmt.Errorf("days %d must not be negative", c.Days))
	}
	if c.Samples < 1 {
		errs.Append(fmt.Errorf("samples %d must be at least 1", c.Samples))
	}
	if c.DayEndEpsilon < 0 || c.DayEndEpsilon >= 24 {
		errs.Append(fmt.Errorf("day_end_epsilon %v outside [0, 24)", c.DayEndEpsilon))
	}
	if c.WrapThreshold <= 0 {
		errs.Append(fmt.Errorf("wrap_threshold %v must be positive", c.WrapThreshold))
	}
	errs.Append(c.Thresholds.Validate())
	if _, err := ephem.ByName(c.Provider, c.Refraction); err != nil {
		errs.Append(err)
	}
	if c.Concurrency < 0 {
		errs.Append(fmt.Errorf("concurrency %d must not be negative", c.Concurrency))
	}
	if c.RefineTolerance < 0 {
		errs.Append(fmt.Errorf("refine_tolerance %v must not be negative", c.RefineTolerance))
	}
	if c.CacheSize < 0 {
		errs.Append(fmt.Errorf("cache_size %d must not be negative", c.CacheSize))
	}
	if c.HTTP.CacheEntries < 0 || c.HTTP.CacheTTL < 0 {
		errs.Append(fmt.Errorf("http cache %d entries / %v must not be negative", c.HTTP.CacheEntries, c.HTTP.CacheTTL))
	}
	if c.HTTP.MaxDays < 1 || c.HTTP.MaxSamples < 1 {
		errs.Append(fmt.Errorf("http limits max_days %d and max_samples %d must be positive", c.HTTP.MaxDays, c.HTTP.MaxSamples))
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case "stdout", "otlp", "otlpgrpc", "":
	default:
		errs.Append(fmt.Errorf("unsupported tracing exporter %q", c.Tracing.Exporter))
	}
	return errs.Err()
}

// Coordinates returns the configured location.
func (c *Config) Coordinates() duskgrid.Coordinates {
	return duskgrid.Coordinates{Lat: c.Location.Lat, Lon: c.Location.Lon, Elevation: c.Location.Elevation}
}

// TimeLocation loads the configured time zone.
func (c *Config) TimeLocation() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// StartDate returns the configured start date, or nil if none is set.
func (c *Config) StartDate() (*civil.Date, error) {
	if c.Start == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(c.Start)
	if err != nil {
		return nil, fmt.Errorf("start date %q: %w", c.Start, err)
	}
	return &d, nil
}

// DayOffsets returns 0..Days-1, or nil for the default span.
func (c *Config) DayOffsets() []int {
	if c.Days <= 0 {
		return nil
	}
	offsets := make([]int, c.Days)
	for i := range offsets {
		offsets[i] = i
	}
	return offsets
}

// Request builds the computation request described by the configuration.
func (c *Config) Request() (duskgrid.Request, error) {
	loc, err := c.TimeLocation()
	if err != nil {
		return duskgrid.Request{}, err
	}
	start, err := c.StartDate()
	if err != nil {
		return duskgrid.Request{}, err
	}
	return duskgrid.Request{
		Location:   c.Coordinates(),
		Offsets:    duskgrid.CachedOffsets(duskgrid.LocationOffsets(loc), 0),
		Start:      start,
		DayOffsets: c.DayOffsets(),
	}, nil
}

// AltitudeProvider builds the configured altitude provider, wrapped for retries and
// memoization when enabled.
func (c *Config) AltitudeProvider() (duskgrid.AltitudeProvider, error) {
	p, err := ephem.ByName(c.Provider, c.Refraction)
	if err != nil {
		return nil, err
	}
	if c.Retry.Attempts > 1 {
		p = ephem.Retrying{
			Provider: p,
			Attempts: c.Retry.Attempts,
			Delay:    c.Retry.Delay,
			MaxDelay: c.Retry.MaxDelay,
		}
	}
	if c.CacheSize > 0 {
		p = ephem.NewMemo(p, c.CacheSize)
	}
	return p, nil
}

// Options returns the computer options described by the configuration.
func (c *Config) Options() ([]duskgrid.Option, error) {
	p, err := c.AltitudeProvider()
	if err != nil {
		return nil, err
	}
	opts := []duskgrid.Option{
		duskgrid.WithProvider(p),
		duskgrid.WithSampleCount(c.Samples),
		duskgrid.WithDayEndEpsilon(c.DayEndEpsilon),
		duskgrid.WithWrapThreshold(c.WrapThreshold),
		duskgrid.WithThresholds(c.Thresholds),
	}
	if c.Concurrency > 0 {
		opts = append(opts, duskgrid.WithConcurrency(c.Concurrency))
	}
	if c.Strict {
		opts = append(opts, duskgrid.WithStrictAltitudes())
	}
	switch {
	case c.RefineTolerance > 0:
		opts = append(opts, duskgrid.WithRefinedTransitions(c.RefineTolerance))
	case c.Transitions:
		opts = append(opts, duskgrid.WithTransitions())
	}
	return opts, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "true" || v == "1" || v == "yes" {
			return true
		}
		if v == "false" || v == "0" || v == "no" {
			return false
		}
	}
	return def
}
