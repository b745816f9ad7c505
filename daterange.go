package duskgrid

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DefaultSpanDays is the number of dates produced when no day offsets are
// given: 0..366 inclusive, so that a leap year is always fully covered.
const DefaultSpanDays = 367

// DateRange describes the dates to compute.
type DateRange struct {
	// Start anchors the range. If nil, January 1 of Reference's year is used.
	Start *civil.Date
	// Offsets are day counts added to the anchor, in non-decreasing order.
	// A nil slice means absent (0..DefaultSpanDays-1); a non-nil empty slice
	// is rejected.
	Offsets []int
	// Reference supplies the "current year" when Start is nil.
	Reference civil.Date
}

// ResolveDates returns the ordered date grid described by dr.
func ResolveDates(dr DateRange) ([]civil.Date, error) {
	if dr.Offsets != nil && len(dr.Offsets) == 0 {
		return nil, fmt.Errorf("%w: day offsets given but empty", ErrInvalidRange)
	}

	var (
		anchor  civil.Date
		offsets = dr.Offsets
		err     error
	)
	switch {
	case dr.Start == nil && dr.Offsets == nil:
		anchor, err = yearStart(dr.Reference)
		offsets = defaultOffsets()
	case dr.Start != nil && dr.Offsets != nil:
		anchor = *dr.Start
	case dr.Start != nil:
		anchor = *dr.Start
		offsets = defaultOffsets()
	default:
		anchor, err = yearStart(dr.Reference)
	}
	if err != nil {
		return nil, err
	}
	if !anchor.IsValid() {
		return nil, fmt.Errorf("%w: invalid start date %v", ErrInvalidRange, anchor)
	}

	dates := make([]civil.Date, len(offsets))
	for i, off := range offsets {
		if i > 0 && off < offsets[i-1] {
			return nil, fmt.Errorf("%w: day offsets decrease at index %d (%d after %d)",
				ErrInvalidRange, i, off, offsets[i-1])
		}
		dates[i] = anchor.AddDays(off)
	}
	return dates, nil
}

func yearStart(ref civil.Date) (civil.Date, error) {
	if ref == (civil.Date{}) {
		return civil.Date{}, fmt.Errorf("%w: no start date and no reference date", ErrInvalidRange)
	}
	return civil.Date{Year: ref.Year, Month: time.January, Day: 1}, nil
}

func defaultOffsets() []int {
	offsets := make([]int, DefaultSpanDays)
	for i := range offsets {
		offsets[i] = i
	}
	return offsets
}
