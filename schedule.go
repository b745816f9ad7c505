package duskgrid

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/thurmanmarka/duskgrid/internal/telemetry"
)

const tracerName = "github.com/thurmanmarka/duskgrid"

// DaySample is the computed schedule of one local date.
type DaySample struct {
	Date          civil.Date     `json:"date"`
	OffsetSeconds int            `json:"offset_seconds"`
	Hours         []float64      `json:"hours"`    // local hour-of-day of each sample
	Instants      []time.Time    `json:"instants"` // UTC instant of each sample
	Altitudes     []float64      `json:"altitudes"`
	Bands         []TwilightBand `json:"bands"`
	Noon          float64        `json:"noon"`     // local hour
	Midnight      float64        `json:"midnight"` // local hour
	NoonIndex     int            `json:"noon_index"`
	MidnightIndex int            `json:"midnight_index"`
	Transitions   []Transition   `json:"transitions,omitempty"`
}

// BandHours returns the number of hours of the day spent in each band, with
// every sample standing for an equal 24/N share of the day.
func (d DaySample) BandHours() [NumBands]float64 {
	var out [NumBands]float64
	if len(d.Bands) == 0 {
		return out
	}
	share := 24 / float64(len(d.Bands))
	for _, b := range d.Bands {
		if b >= 0 && int(b) < NumBands {
			out[b] += share
		}
	}
	return out
}

// ScheduleResult is the complete output of a computation. Days, Noon,
// Midnight and MidnightWraps are parallel to Dates.
type ScheduleResult struct {
	Location    Coordinates  `json:"location"`
	SampleCount int          `json:"sample_count"`
	Dates       []civil.Date `json:"dates"`
	Days        []DaySample  `json:"days"`
	Noon        []float64    `json:"noon"`
	Midnight    []float64    `json:"midnight"`
	// MidnightWraps[i] is set when Midnight[i] wrapped across the day
	// boundary relative to Midnight[i-1]; plots must break the curve there.
	MidnightWraps []bool `json:"midnight_wraps"`
}

// MidnightSegments splits the midnight series into runs that can be drawn as
// continuous curves.
func (r *ScheduleResult) MidnightSegments() []Segment {
	return Segments(r.MidnightWraps)
}

// DayLengths returns the hours of daylight (BandDay) of each date.
func (r *ScheduleResult) DayLengths() []float64 {
	out := make([]float64, len(r.Days))
	for i, d := range r.Days {
		out[i] = d.BandHours()[BandDay]
	}
	return out
}

// Request describes one computation.
type Request struct {
	Location Coordinates
	// Offsets supplies the UTC offset of each date. Required.
	Offsets OffsetSource
	// Start and DayOffsets select the dates, see DateRange.
	Start      *civil.Date
	DayOffsets []int
	// Reference is the date whose year is used when Start is nil. If zero,
	// the computer's clock is used.
	Reference civil.Date
}

// Computer computes solar schedules. It is safe for concurrent use.
type Computer struct {
	opts       options
	classifier Classifier
	metrics    *telemetry.Collector
	tracer     trace.Tracer
}

// NewComputer returns a Computer configured by opts.
func NewComputer(opts ...Option) (*Computer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.provider == nil {
		return nil, errors.New("duskgrid: nil altitude provider")
	}
	if o.concurrency < 1 {
		return nil, fmt.Errorf("duskgrid: concurrency %d must be at least 1", o.concurrency)
	}
	if math.IsNaN(o.wrapThreshold) || o.wrapThreshold <= 0 {
		return nil, fmt.Errorf("duskgrid: wrap threshold %v must be positive", o.wrapThreshold)
	}
	if o.refineTolerance < 0 {
		return nil, fmt.Errorf("duskgrid: negative refinement tolerance %v", o.refineTolerance)
	}
	if o.now == nil {
		o.now = time.Now
	}
	classifier, err := NewClassifier(o.thresholds)
	if err != nil {
		return nil, fmt.Errorf("duskgrid: %w", err)
	}
	c := &Computer{
		opts:       o,
		classifier: classifier,
		tracer:     otel.Tracer(tracerName),
	}
	if o.registerer != nil {
		if c.metrics, err = telemetry.NewCollector(o.registerer); err != nil {
			return nil, fmt.Errorf("duskgrid: metrics: %w", err)
		}
	}
	return c, nil
}

// Classifier returns the classifier used by c.
func (c *Computer) Classifier() Classifier {
	return c.classifier
}

// Compute resolves the requested dates, computes every date (in parallel,
// bounded by the configured concurrency), and assembles the results in date
// order. Any failure aborts the whole computation.
func (c *Computer) Compute(ctx context.Context, req Request) (*ScheduleResult, error) {
	ctx, span := c.tracer.Start(ctx, "duskgrid.Compute", trace.WithAttributes(
		attribute.Float64("duskgrid.lat", req.Location.Lat),
		attribute.Float64("duskgrid.lon", req.Location.Lon),
		attribute.Int("duskgrid.samples", c.opts.sampleCount),
	))
	defer span.End()

	start := time.Now()
	res, err := c.compute(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.IncFailure(failureKind(err))
		c.opts.logger.Warn().Err(err).
			Float64("lat", req.Location.Lat).
			Float64("lon", req.Location.Lon).
			Msg("schedule computation failed")
		return nil, err
	}
	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("duskgrid.dates", len(res.Dates)))
	c.metrics.ObserveCompute(elapsed, len(res.Dates))
	c.opts.logger.Info().
		Float64("lat", req.Location.Lat).
		Float64("lon", req.Location.Lon).
		Int("dates", len(res.Dates)).
		Int("samples", res.SampleCount).
		Dur("elapsed", elapsed).
		Msg("computed solar schedule")
	return res, nil
}

func (c *Computer) compute(ctx context.Context, req Request) (*ScheduleResult, error) {
	if err := req.Location.Validate(); err != nil {
		return nil, err
	}
	if req.Offsets == nil {
		return nil, fmt.Errorf("%w: no utc offset source", ErrInvalidRange)
	}
	hours, err := SampleHours(SamplerConfig{Count: c.opts.sampleCount, DayEndEpsilon: c.opts.dayEndEpsilon})
	if err != nil {
		return nil, err
	}
	ref := req.Reference
	if req.Start == nil && ref == (civil.Date{}) {
		ref = civil.DateOf(c.opts.now().UTC())
	}
	dates, err := ResolveDates(DateRange{Start: req.Start, Offsets: req.DayOffsets, Reference: ref})
	if err != nil {
		return nil, err
	}

	days := make([]DaySample, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.concurrency)
	for i, date := range dates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			day, err := c.computeDay(gctx, req.Location, req.Offsets, date, hours)
			if err != nil {
				return err
			}
			days[i] = day
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &ScheduleResult{
		Location:    req.Location,
		SampleCount: len(hours),
		Dates:       dates,
		Days:        days,
		Noon:        make([]float64, len(days)),
		Midnight:    make([]float64, len(days)),
	}
	for i, d := range days {
		res.Noon[i] = d.Noon
		res.Midnight[i] = d.Midnight
	}
	res.MidnightWraps = DetectWraps(res.Midnight, c.opts.wrapThreshold)
	return res, nil
}

func (c *Computer) computeDay(ctx context.Context, loc Coordinates, offsets OffsetSource, date civil.Date, hours []float64) (DaySample, error) {
	grid, err := sampleWithHours(date, offsets, hours)
	if err != nil {
		return DaySample{}, err
	}
	alts, err := c.opts.provider.Altitudes(ctx, loc, grid.Instants)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return DaySample{}, ctxErr
		}
		return DaySample{}, &ProviderError{Date: date, Err: err}
	}
	if len(alts) != len(grid.Instants) {
		return DaySample{}, &ProviderError{Date: date, Err: errWrongLength(len(alts), len(grid.Instants))}
	}
	if c.opts.strict {
		for i, a := range alts {
			if math.IsNaN(a) || math.IsInf(a, 0) {
				return DaySample{}, &ProviderError{
					Date: date,
					Err:  fmt.Errorf("altitude %v at %s is not finite", a, grid.Instants[i].Format(time.RFC3339)),
				}
			}
		}
	}
	ext, err := FindExtrema(grid.Hours, alts)
	if err != nil {
		return DaySample{}, err
	}
	day := DaySample{
		Date:          date,
		OffsetSeconds: grid.OffsetSeconds,
		Hours:         grid.Hours,
		Instants:      grid.Instants,
		Altitudes:     alts,
		Bands:         c.classifier.ClassifyAll(alts),
		Noon:          ext.Noon,
		Midnight:      ext.Midnight,
		NoonIndex:     ext.NoonIndex,
		MidnightIndex: ext.MidnightIndex,
	}
	if c.opts.transitions {
		day.Transitions = FindTransitions(day)
		if c.opts.refineTolerance > 0 && len(day.Transitions) > 0 {
			if err := c.refineTransitions(ctx, loc, day, day.Transitions); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return DaySample{}, ctxErr
				}
				return DaySample{}, &ProviderError{Date: date, Err: err}
			}
		}
	}
	c.opts.logger.Debug().
		Stringer("date", date).
		Int("offset_s", day.OffsetSeconds).
		Float64("noon", day.Noon).
		Float64("midnight", day.Midnight).
		Int("transitions", len(day.Transitions)).
		Msg("computed day")
	return day, nil
}

func errWrongLength(got, want int) error {
	return fmt.Errorf("provider returned %d altitudes for %d instants", got, want)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidLocation):
		return telemetry.FailureInvalidLocation
	case errors.Is(err, ErrInvalidRange):
		return telemetry.FailureInvalidRange
	case errors.Is(err, ErrEmptySample):
		return telemetry.FailureEmptySample
	case errors.Is(err, ErrProviderFailure):
		return telemetry.FailureProvider
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return telemetry.FailureCanceled
	default:
		return telemetry.FailureOther
	}
}
