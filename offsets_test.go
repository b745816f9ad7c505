package duskgrid

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestLocationOffsets(t *testing.T) {
	if off, err := LocationOffsets(nil).OffsetSeconds(date(2025, time.July, 1)); err != nil || off != 0 {
		t.Errorf("nil location: %d, %v", off, err)
	}

	syd, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	src := LocationOffsets(syd)
	cases := []struct {
		d    civil.Date
		want int
	}{
		{date(2025, time.January, 10), 11 * 3600},
		{date(2025, time.July, 10), 10 * 3600},
	}
	for _, tc := range cases {
		off, err := src.OffsetSeconds(tc.d)
		if err != nil {
			t.Fatal(err)
		}
		if off != tc.want {
			t.Errorf("%v: offset %d, want %d", tc.d, off, tc.want)
		}
	}
}

func TestFixedOffset(t *testing.T) {
	src := FixedOffset(5*3600 + 30*60)
	for _, d := range []civil.Date{date(1900, time.March, 1), date(2100, time.December, 31)} {
		if off, _ := src.OffsetSeconds(d); off != 19800 {
			t.Errorf("%v: %d", d, off)
		}
	}
}

func TestCachedOffsets(t *testing.T) {
	var calls atomic.Int32
	fail := true
	src := OffsetFunc(func(d civil.Date) (int, error) {
		calls.Add(1)
		if fail && d.Day == 13 {
			return 0, errors.New("transient")
		}
		return d.Day * 60, nil
	})
	cached := CachedOffsets(src, 16)

	for i := 0; i < 3; i++ {
		off, err := cached.OffsetSeconds(date(2025, time.April, 2))
		if err != nil || off != 120 {
			t.Fatalf("got %d, %v", off, err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}

	if _, err := cached.OffsetSeconds(date(2025, time.April, 13)); err == nil {
		t.Fatal("expected error")
	}
	fail = false
	off, err := cached.OffsetSeconds(date(2025, time.April, 13))
	if err != nil || off != 13*60 {
		t.Errorf("errors should not be cached: %d, %v", off, err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("source called %d times, want 3", n)
	}
}
