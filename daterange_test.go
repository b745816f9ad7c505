package duskgrid

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestResolveDatesDefault(t *testing.T) {
	for _, year := range []int{2023, 2024} {
		dates, err := ResolveDates(DateRange{Reference: date(year, time.August, 14)})
		if err != nil {
			t.Fatal(err)
		}
		if len(dates) != DefaultSpanDays {
			t.Fatalf("%d: got %d dates, want %d", year, len(dates), DefaultSpanDays)
		}
		if dates[0] != date(year, time.January, 1) {
			t.Errorf("%d: first date %v", year, dates[0])
		}
		// Every day of the year, leap or not, is covered.
		if last := dates[len(dates)-1]; !last.After(date(year, time.December, 31)) {
			t.Errorf("%d: last date %v does not pass the end of the year", year, last)
		}
	}
}

func TestResolveDatesCases(t *testing.T) {
	start := date(2025, time.February, 27)
	ref := date(2030, time.June, 1)
	cases := []struct {
		name    string
		dr      DateRange
		first   civil.Date
		want    int
		checkAt map[int]civil.Date
	}{
		{
			name:    "start and offsets",
			dr:      DateRange{Start: &start, Offsets: []int{0, 1, 2}, Reference: ref},
			first:   start,
			want:    3,
			checkAt: map[int]civil.Date{1: date(2025, time.February, 28), 2: date(2025, time.March, 1)},
		},
		{
			name:    "start only",
			dr:      DateRange{Start: &start, Reference: ref},
			first:   start,
			want:    DefaultSpanDays,
			checkAt: map[int]civil.Date{366: start.AddDays(366)},
		},
		{
			name:    "offsets only",
			dr:      DateRange{Offsets: []int{10, 20}, Reference: ref},
			first:   date(2030, time.January, 11),
			want:    2,
			checkAt: map[int]civil.Date{1: date(2030, time.January, 21)},
		},
		{
			name:  "repeated offsets",
			dr:    DateRange{Start: &start, Offsets: []int{0, 0, 5}},
			first: start,
			want:  3,
		},
		{
			name:  "negative offsets",
			dr:    DateRange{Start: &start, Offsets: []int{-2, -1}},
			first: date(2025, time.February, 25),
			want:  2,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dates, err := ResolveDates(tc.dr)
			if err != nil {
				t.Fatal(err)
			}
			if len(dates) != tc.want {
				t.Fatalf("got %d dates, want %d", len(dates), tc.want)
			}
			if dates[0] != tc.first {
				t.Errorf("first = %v, want %v", dates[0], tc.first)
			}
			for i, d := range tc.checkAt {
				if dates[i] != d {
					t.Errorf("dates[%d] = %v, want %v", i, dates[i], d)
				}
			}
		})
	}
}

func TestResolveDatesRoundTrip(t *testing.T) {
	d := date(1999, time.December, 31)
	for i := 0; i < 800; i += 37 {
		start := d.AddDays(i)
		dates, err := ResolveDates(DateRange{Start: &start, Offsets: []int{0, 1, 2}})
		if err != nil {
			t.Fatal(err)
		}
		want := []civil.Date{start, start.AddDays(1), start.AddDays(2)}
		for j := range want {
			if dates[j] != want[j] {
				t.Fatalf("start %v: dates[%d] = %v, want %v", start, j, dates[j], want[j])
			}
		}
	}
}

func TestResolveDatesErrors(t *testing.T) {
	start := date(2025, time.May, 1)
	bad := civil.Date{Year: 2025, Month: time.February, Day: 30}
	cases := []struct {
		name string
		dr   DateRange
	}{
		{"empty offsets", DateRange{Start: &start, Offsets: []int{}}},
		{"empty offsets without start", DateRange{Offsets: []int{}, Reference: start}},
		{"decreasing offsets", DateRange{Start: &start, Offsets: []int{0, 2, 1}}},
		{"invalid start", DateRange{Start: &bad, Offsets: []int{0}}},
		{"no reference", DateRange{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveDates(tc.dr)
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("got %v, want ErrInvalidRange", err)
			}
		})
	}
}
