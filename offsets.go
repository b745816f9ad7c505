package duskgrid

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/maypok86/otter/v2"
)

// maxOffsetSeconds bounds the UTC offsets accepted from an OffsetSource.
const maxOffsetSeconds = 24 * 60 * 60

// OffsetSource returns the UTC offset, in seconds east of UTC, that applies
// on a given calendar date. Offsets may change from date to date, for example
// across daylight saving transitions.
type OffsetSource interface {
	OffsetSeconds(date civil.Date) (int, error)
}

// OffsetFunc adapts a function to an OffsetSource.
type OffsetFunc func(date civil.Date) (int, error)

// OffsetSeconds implements OffsetSource.
func (f OffsetFunc) OffsetSeconds(date civil.Date) (int, error) {
	return f(date)
}

// LocationOffsets returns an OffsetSource backed by a time zone database
// location. The offset for a date is the one in force at local midnight
// starting that date. A nil location is treated as UTC.
func LocationOffsets(loc *time.Location) OffsetSource {
	if loc == nil {
		loc = time.UTC
	}
	return OffsetFunc(func(date civil.Date) (int, error) {
		_, off := date.In(loc).Zone()
		return off, nil
	})
}

// FixedOffset returns an OffsetSource that always reports seconds.
func FixedOffset(seconds int) OffsetSource {
	return OffsetFunc(func(civil.Date) (int, error) {
		return seconds, nil
	})
}

type cachedOffsets struct {
	src   OffsetSource
	cache *otter.Cache[civil.Date, int]
}

// CachedOffsets memoizes the offsets returned by src in a bounded cache of
// up to size dates. Errors are not cached.
func CachedOffsets(src OffsetSource, size int) OffsetSource {
	if size <= 0 {
		size = DefaultSpanDays
	}
	return &cachedOffsets{
		src: src,
		cache: otter.Must(&otter.Options[civil.Date, int]{
			MaximumSize: size,
		}),
	}
}

func (c *cachedOffsets) OffsetSeconds(date civil.Date) (int, error) {
	if off, ok := c.cache.GetIfPresent(date); ok {
		return off, nil
	}
	off, err := c.src.OffsetSeconds(date)
	if err != nil {
		return 0, err
	}
	c.cache.Set(date, off)
	return off, nil
}

func offsetFor(src OffsetSource, date civil.Date) (time.Duration, error) {
	off, err := src.OffsetSeconds(date)
	if err != nil {
		return 0, fmt.Errorf("utc offset for %s: %w", date, err)
	}
	if off < -maxOffsetSeconds || off > maxOffsetSeconds {
		return 0, fmt.Errorf("%w: utc offset %ds for %s out of range", ErrInvalidRange, off, date)
	}
	return time.Duration(off) * time.Second, nil
}
