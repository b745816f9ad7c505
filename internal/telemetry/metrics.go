// Package telemetry wires Prometheus metrics and OpenTelemetry tracing for
// schedule computations.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Failure kinds used as the "kind" label of the failures counter.
const (
	FailureInvalidLocation = "invalid_location"
	FailureInvalidRange    = "invalid_range"
	FailureEmptySample     = "empty_sample"
	FailureProvider        = "provider"
	FailureCanceled        = "canceled"
	FailureOther           = "other"
)

// Collector exposes schedule computation metrics. A nil *Collector is valid
// and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	ComputeDuration prometheus.Histogram
	DaysComputed    prometheus.Counter
	Failures        *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, or the default registerer
// if reg is nil. Registering twice against the same registerer returns the
// already registered collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "duskgrid_compute_duration_seconds",
		Help:    "Duration of complete schedule computations.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})
	duration, err := registerHistogram(reg, duration, "duskgrid_compute_duration_seconds")
	if err != nil {
		return nil, err
	}

	days := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duskgrid_days_computed_total",
		Help: "Number of per-day samples produced by successful computations.",
	})
	days, err = registerCounter(reg, days, "duskgrid_days_computed_total")
	if err != nil {
		return nil, err
	}

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duskgrid_compute_failures_total",
		Help: "Number of failed schedule computations by failure kind.",
	}, []string{"kind"})
	failures, err = registerCounterVec(reg, failures, "duskgrid_compute_failures_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		ComputeDuration: duration,
		DaysComputed:    days,
		Failures:        failures,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveCompute records a successful computation of days dates.
func (c *Collector) ObserveCompute(d time.Duration, days int) {
	if c == nil {
		return
	}
	c.ComputeDuration.Observe(d.Seconds())
	c.DaysComputed.Add(float64(days))
}

// IncFailure increments the failure counter for kind.
func (c *Collector) IncFailure(kind string) {
	if c == nil {
		return
	}
	c.Failures.WithLabelValues(kind).Inc()
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
