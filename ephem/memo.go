package ephem

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/thurmanmarka/duskgrid"
)

type memoKey struct {
	lat, lon float64
	unixNano int64
}

// Memo caches the altitudes returned by a provider, keyed by location and
// instant, and only forwards the instants it has not seen.
type Memo struct {
	provider duskgrid.AltitudeProvider
	cache    *otter.Cache[memoKey, float64]
}

// NewMemo wraps p in a cache holding up to size altitudes.
func NewMemo(p duskgrid.AltitudeProvider, size int) *Memo {
	if size <= 0 {
		size = 1 << 20
	}
	return &Memo{
		provider: p,
		cache: otter.Must(&otter.Options[memoKey, float64]{
			MaximumSize: size,
		}),
	}
}

// Altitudes implements duskgrid.AltitudeProvider.
func (m *Memo) Altitudes(ctx context.Context, c duskgrid.Coordinates, instants []time.Time) ([]float64, error) {
	out := make([]float64, len(instants))
	var (
		missing    []time.Time
		missingIdx []int
	)
	for i, t := range instants {
		k := memoKey{lat: c.Lat, lon: c.Lon, unixNano: t.UnixNano()}
		if alt, ok := m.cache.GetIfPresent(k); ok {
			out[i] = alt
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	alts, err := m.provider.Altitudes(ctx, c, missing)
	if err != nil {
		return nil, err
	}
	if len(alts) != len(missing) {
		return nil, fmt.Errorf("provider returned %d altitudes for %d instants", len(alts), len(missing))
	}
	for j, alt := range alts {
		out[missingIdx[j]] = alt
		m.cache.Set(memoKey{lat: c.Lat, lon: c.Lon, unixNano: missing[j].UnixNano()}, alt)
	}
	return out, nil
}
