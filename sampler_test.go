package duskgrid

import (
	"errors"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestSampleHours(t *testing.T) {
	if _, err := SampleHours(SamplerConfig{Count: 0, DayEndEpsilon: DefaultDayEndEpsilon}); !errors.Is(err, ErrEmptySample) {
		t.Errorf("Count 0: got %v, want ErrEmptySample", err)
	}
	if _, err := SampleHours(SamplerConfig{Count: -3}); !errors.Is(err, ErrEmptySample) {
		t.Errorf("Count -3: got %v, want ErrEmptySample", err)
	}
	if _, err := SampleHours(SamplerConfig{Count: 10, DayEndEpsilon: 24}); err == nil {
		t.Error("epsilon 24 should fail")
	}

	one, err := SampleHours(SamplerConfig{Count: 1, DayEndEpsilon: DefaultDayEndEpsilon})
	if err != nil || len(one) != 1 || one[0] != 0 {
		t.Fatalf("Count 1 = %v, %v", one, err)
	}

	hours, err := SampleHours(DefaultSamplerConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(hours) != DefaultSampleCount {
		t.Fatalf("got %d hours", len(hours))
	}
	if hours[0] != 0 {
		t.Errorf("first hour %v", hours[0])
	}
	if last := hours[len(hours)-1]; last >= 24 || last != 24-DefaultDayEndEpsilon {
		t.Errorf("last hour %v", last)
	}
	step := hours[1] - hours[0]
	for i := 1; i < len(hours); i++ {
		if d := hours[i] - hours[i-1]; math.Abs(d-step) > 1e-9 {
			t.Fatalf("uneven spacing at %d: %v vs %v", i, d, step)
		}
	}
}

func TestSampleDayFixedOffset(t *testing.T) {
	d := date(2025, time.March, 20)
	grid, err := SampleDay(d, FixedOffset(-7*3600), SamplerConfig{Count: 5, DayEndEpsilon: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	wantHours := []float64{0, 5.875, 11.75, 17.625, 23.5}
	for i, h := range grid.Hours {
		if math.Abs(h-wantHours[i]) > 1e-9 {
			t.Errorf("hour[%d] = %v, want %v", i, h, wantHours[i])
		}
	}
	// Local midnight at UTC-7 is 07:00 UTC.
	if want := time.Date(2025, time.March, 20, 7, 0, 0, 0, time.UTC); !grid.Instants[0].Equal(want) {
		t.Errorf("first instant %v, want %v", grid.Instants[0], want)
	}
	if want := time.Date(2025, time.March, 21, 6, 30, 0, 0, time.UTC); !grid.Instants[4].Equal(want) {
		t.Errorf("last instant %v, want %v", grid.Instants[4], want)
	}
	if grid.OffsetSeconds != -7*3600 {
		t.Errorf("offset %d", grid.OffsetSeconds)
	}
}

func TestSampleDayFollowsDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	src := LocationOffsets(ny)
	cfg := SamplerConfig{Count: 24, DayEndEpsilon: 1}
	cases := []struct {
		d      civil.Date
		offset int
	}{
		{date(2025, time.January, 15), -5 * 3600},
		{date(2025, time.March, 8), -5 * 3600},
		// Clocks change at 02:00 on March 9; midnight is still standard time.
		{date(2025, time.March, 9), -5 * 3600},
		{date(2025, time.March, 10), -4 * 3600},
		{date(2025, time.July, 4), -4 * 3600},
	}
	for _, tc := range cases {
		grid, err := SampleDay(tc.d, src, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if grid.OffsetSeconds != tc.offset {
			t.Errorf("%v: offset %d, want %d", tc.d, grid.OffsetSeconds, tc.offset)
		}
		// Local noon maps to 12:00 minus the offset in UTC and back again.
		noon := grid.Instants[12]
		if want := 12 - tc.offset/3600; noon.Hour() != want%24 {
			t.Errorf("%v: local noon at %v UTC", tc.d, noon)
		}
		if grid.Hours[12] != 12 {
			t.Errorf("%v: re-derived hour %v, want 12", tc.d, grid.Hours[12])
		}
	}
}

func TestSampleDayHoursMatchRequest(t *testing.T) {
	hours, _ := SampleHours(DefaultSamplerConfig())
	for _, off := range []int{-12 * 3600, -9*3600 - 30*60, 0, 5*3600 + 45*60, 14 * 3600} {
		grid, err := SampleDay(date(2024, time.February, 29), FixedOffset(off), DefaultSamplerConfig())
		if err != nil {
			t.Fatal(err)
		}
		for i, h := range grid.Hours {
			if h < 0 || h >= 24 {
				t.Fatalf("offset %d: hour %v outside [0, 24)", off, h)
			}
			if math.Abs(h-hours[i]) > 1e-6 {
				t.Fatalf("offset %d: hour[%d] = %v, want %v", off, i, h, hours[i])
			}
		}
	}
}

func TestSampleDayBadOffset(t *testing.T) {
	_, err := SampleDay(date(2025, time.May, 1), FixedOffset(90000), DefaultSamplerConfig())
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("got %v, want ErrInvalidRange", err)
	}
	boom := errors.New("no zone data")
	_, err = SampleDay(date(2025, time.May, 1), OffsetFunc(func(d civil.Date) (int, error) { return 0, boom }), DefaultSamplerConfig())
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped source error", err)
	}
}
