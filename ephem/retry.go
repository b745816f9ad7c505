package ephem

import (
	"context"
	"errors"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog"

	"github.com/thurmanmarka/duskgrid"
)

// Retrying retries a failing provider with exponential backoff and jitter.
// The computer itself never retries; wrap providers backed by remote
// services in Retrying instead.
type Retrying struct {
	Provider duskgrid.AltitudeProvider
	Attempts uint          // default 3
	Delay    time.Duration // initial backoff, default 100ms
	MaxDelay time.Duration // default 5s
	Logger   zerolog.Logger
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return retry.Unrecoverable(err)
}

// Altitudes implements duskgrid.AltitudeProvider.
func (r Retrying) Altitudes(ctx context.Context, c duskgrid.Coordinates, instants []time.Time) ([]float64, error) {
	attempts, delay, maxDelay := r.Attempts, r.Delay, r.MaxDelay
	if attempts == 0 {
		attempts = 3
	}
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}

	var out []float64
	err := retry.Do(
		func() error {
			alts, err := r.Provider.Altitudes(ctx, c, instants)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			out = alts
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			r.Logger.Debug().
				Uint("attempt", n+1).
				Int("instants", len(instants)).
				Err(err).
				Msg("retrying altitude provider")
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
