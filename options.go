package duskgrid

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Option configures a Computer.
type Option func(*options)

type options struct {
	provider        AltitudeProvider
	sampleCount     int
	dayEndEpsilon   float64
	wrapThreshold   float64
	thresholds      Thresholds
	concurrency     int
	now             func() time.Time
	logger          zerolog.Logger
	registerer      prometheus.Registerer
	strict          bool
	transitions     bool
	refineTolerance time.Duration
}

func defaultOptions() options {
	return options{
		provider:      Model{},
		sampleCount:   DefaultSampleCount,
		dayEndEpsilon: DefaultDayEndEpsilon,
		wrapThreshold: DefaultWrapThreshold,
		thresholds:    DefaultThresholds(),
		concurrency:   runtime.GOMAXPROCS(0),
		now:           time.Now,
		logger:        zerolog.Nop(),
	}
}

// WithProvider sets the altitude provider. The default is Model{}.
func WithProvider(p AltitudeProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithSampleCount sets the number of samples per day (default 512).
func WithSampleCount(n int) Option {
	return func(o *options) {
		o.sampleCount = n
	}
}

// WithDayEndEpsilon sets how far short of 24:00, in hours, the last sample
// of each day is placed.
func WithDayEndEpsilon(hours float64) Option {
	return func(o *options) {
		o.dayEndEpsilon = hours
	}
}

// WithWrapThreshold sets the solar midnight jump, in hours, above which
// consecutive days are flagged as a wrap. Coarse sample grids may need a
// larger value.
func WithWrapThreshold(hours float64) Option {
	return func(o *options) {
		o.wrapThreshold = hours
	}
}

// WithThresholds replaces the twilight band thresholds.
func WithThresholds(t Thresholds) Option {
	return func(o *options) {
		o.thresholds = t
	}
}

// WithConcurrency bounds the number of dates computed in parallel. The
// default is GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithClock sets the clock used to pick the current year when a request has
// neither a start nor a reference date.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger. Nothing is logged by default.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics registers computation metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithStrictAltitudes makes NaN or infinite altitudes a provider failure
// instead of letting them through (NaN classifies as night).
func WithStrictAltitudes() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithTransitions records the band transitions of every day at sample
// resolution.
func WithTransitions() Option {
	return func(o *options) {
		o.transitions = true
	}
}

// WithRefinedTransitions records band transitions and refines each one by
// bisection against the provider until it is known to within tol.
func WithRefinedTransitions(tol time.Duration) Option {
	return func(o *options) {
		o.transitions = true
		o.refineTolerance = tol
	}
}
