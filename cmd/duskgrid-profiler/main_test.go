package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/thurmanmarka/duskgrid"
	"github.com/thurmanmarka/duskgrid/ephem"
)

func TestStats(t *testing.T) {
	var s stats
	if !math.IsNaN(s.mean()) {
		t.Error("empty mean should be NaN")
	}
	for _, v := range []float64{3, -1, math.NaN(), 4} {
		s.add(v)
	}
	if s.count != 3 || s.min != -1 || s.max != 4 || s.mean() != 2 {
		t.Errorf("stats = %+v mean %v", s, s.mean())
	}
}

func TestReadReference(t *testing.T) {
	in := `date,rise,set,noon
2025-06-22,05:20,19:43,12:32
bogus,05:20,19:43
2025-06-21,05:19,19:42
2025-06-23
`
	var skipped []int
	rows, err := readReference(strings.NewReader(in), func(line int, _ string) {
		skipped = append(skipped, line)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || len(skipped) != 2 {
		t.Fatalf("rows %v skipped %v", rows, skipped)
	}
	if rows[0].date.Day != 21 || rows[1].noon != "12:32" || rows[0].noon != "" {
		t.Errorf("rows not sorted or parsed: %+v", rows)
	}
}

func TestParseLocalTime(t *testing.T) {
	loc := time.FixedZone("MST", -7*3600)
	d := civil.Date{Year: 2025, Month: time.June, Day: 21}
	got, err := parseLocalTime(d, "05:19:30", loc)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 6, 21, 5, 19, 30, 0, loc); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if z, err := parseLocalTime(d, "", loc); err != nil || !z.IsZero() {
		t.Errorf("empty clock = %v, %v", z, err)
	}
	if _, err := parseLocalTime(d, "25:99", loc); err == nil {
		t.Error("expected error for invalid clock")
	}
}

func TestCrossings(t *testing.T) {
	day := duskgrid.DaySample{Transitions: []duskgrid.Transition{
		{From: duskgrid.BandNight, To: duskgrid.BandAstronomical, Hour: 3.5},
		{From: duskgrid.BandNautical, To: duskgrid.BandCivil, Hour: 4.5},
		{From: duskgrid.BandCivil, To: duskgrid.BandDay, Hour: 5},
		{From: duskgrid.BandDay, To: duskgrid.BandCivil, Hour: 19.5},
		{From: duskgrid.BandCivil, To: duskgrid.BandNautical, Hour: 20},
	}}
	dawn, dusk := crossings(day, duskgrid.BandDay)
	if dawn != 5 || dusk != 19.5 {
		t.Errorf("day crossings %v %v", dawn, dusk)
	}
	dawn, dusk = crossings(day, duskgrid.BandCivil)
	if dawn != 4.5 || dusk != 20 {
		t.Errorf("civil crossings %v %v", dawn, dusk)
	}
	dawn, dusk = crossings(day, duskgrid.BandAstronomical)
	if dawn != 3.5 || !math.IsNaN(dusk) {
		t.Errorf("astronomical crossings %v %v", dawn, dusk)
	}
}

// Phoenix around the June solstice, MST, from the NOAA solar calculator
// equations.
func TestRunPhoenix(t *testing.T) {
	ref := `date,rise,set,noon
2025-06-20,05:18:55,19:41:15,12:30:00
2025-06-21,05:19:05,19:41:25,12:30:15
2025-06-22,05:19:20,19:41:40,12:30:25
`
	rows, err := readReference(strings.NewReader(ref), func(int, string) {})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	cfg := profileConfig{
		coords:   duskgrid.Coordinates{Lat: 33.4484, Lon: -112.074},
		loc:      time.FixedZone("MST", -7*3600),
		band:     duskgrid.BandDay,
		provider: ephem.Meeus{Refraction: true},
		horizon:  -0.2667,
		samples:  288,
		refine:   time.Second,
		out:      csv.NewWriter(&out),
	}
	p, err := run(context.Background(), cfg, rows, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range p.metrics() {
		if m.abs.count != 3 {
			t.Errorf("%s: %d samples", m.name, m.abs.count)
			continue
		}
		limit := 1.5
		switch m.name {
		case "solar noon":
			// Known only to sample resolution (5 minutes).
			limit = 4
		case "go-sunrise rise", "go-sunrise set":
			limit = 3
		}
		if m.abs.max > limit {
			t.Errorf("%s: max error %.2f min", m.name, m.abs.max)
		}
	}
	recs, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 || recs[0][0] != "date" || recs[1][0] != "2025-06-20" {
		t.Errorf("outcsv = %v", recs)
	}

	var summary bytes.Buffer
	writeSummary(&summary, cfg, p, "meeus", len(rows))
	if !strings.Contains(summary.String(), "day dawn error") {
		t.Errorf("summary:\n%s", summary.String())
	}
}
