package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fatih/color"

	"github.com/thurmanmarka/duskgrid"
)

func phoenixSolstice(t *testing.T, days int) *duskgrid.ScheduleResult {
	t.Helper()
	c, err := duskgrid.NewComputer(duskgrid.WithSampleCount(288))
	if err != nil {
		t.Fatal(err)
	}
	offs := make([]int, days)
	for i := range offs {
		offs[i] = i
	}
	start := civil.Date{Year: 2025, Month: time.June, Day: 21}
	res, err := c.Compute(context.Background(), duskgrid.Request{
		Location:   duskgrid.Coordinates{Lat: 33.4484, Lon: -112.074},
		Offsets:    duskgrid.FixedOffset(-7 * 3600),
		Start:      &start,
		DayOffsets: offs,
	})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestFormatHour(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00"},
		{12.5, "12:30"},
		{23.999, "00:00"},
		{6.0 + 59.6/60, "07:00"},
		{-0.25, "23:45"},
	}
	for _, tc := range cases {
		if got := FormatHour(tc.in); got != tc.want {
			t.Errorf("FormatHour(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatOffset(t *testing.T) {
	cases := map[int]string{
		0:              "+00:00",
		-7 * 3600:      "-07:00",
		19800:          "+05:30",
		-9*3600 - 1800: "-09:30",
	}
	for in, want := range cases {
		if got := FormatOffset(in); got != want {
			t.Errorf("FormatOffset(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestStrip(t *testing.T) {
	bands := []duskgrid.TwilightBand{
		duskgrid.BandNight, duskgrid.BandAstronomical, duskgrid.BandNautical, duskgrid.BandCivil,
		duskgrid.BandDay, duskgrid.BandDay, duskgrid.BandCivil, duskgrid.BandNight,
	}
	if got := Strip(bands, 8); got != " .-=##= " {
		t.Errorf("Strip width 8 = %q", got)
	}
	if got := Strip(bands, 4); got != " -#=" {
		t.Errorf("Strip width 4 = %q", got)
	}
	if got := Strip(nil, 4); got != "" {
		t.Errorf("Strip(nil) = %q", got)
	}
}

func TestSummarizePhoenix(t *testing.T) {
	res := phoenixSolstice(t, 2)
	rows := Summarize(res)
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	r := rows[0]
	if r.Sunrise == nil || r.Sunset == nil {
		t.Fatal("expected sunrise and sunset")
	}
	if _, off := r.Sunrise.Zone(); off != -7*3600 {
		t.Errorf("sunrise offset = %d", off)
	}
	if h := r.Sunrise.Hour(); h != 5 {
		t.Errorf("sunrise %v, want around 05:20", r.Sunrise)
	}
	if h := r.Sunset.Hour(); h != 19 {
		t.Errorf("sunset %v, want around 19:40", r.Sunset)
	}
	conv := r.Sunset.Sub(*r.Sunrise).Hours()
	if math.Abs(conv-r.DayLength) > 0.5 {
		t.Errorf("day length %.3f h, sunrise to sunset %.3f h", r.DayLength, conv)
	}
	var total float64
	for _, h := range r.BandHours {
		total += h
	}
	if total < 23.99 || total > 24.01 {
		t.Errorf("band hours sum to %v", total)
	}
}

func TestWriteText(t *testing.T) {
	color.NoColor = true
	res := phoenixSolstice(t, 3)
	var buf bytes.Buffer
	if err := WriteText(&buf, Summarize(res), TextOptions{StripWidth: 48, Title: "Phoenix"}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Phoenix" || !strings.HasPrefix(lines[1], "DATE") {
		t.Errorf("unexpected header:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[2], "2025-06-21") || !strings.Contains(lines[2], "-07:00") {
		t.Errorf("unexpected first row %q", lines[2])
	}
	if !strings.Contains(lines[2], "|") {
		t.Errorf("band strip missing from %q", lines[2])
	}
}

func TestWriteCSV(t *testing.T) {
	res := phoenixSolstice(t, 3)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Summarize(res)); err != nil {
		t.Fatal(err)
	}
	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 {
		t.Fatalf("got %d records", len(recs))
	}
	if len(recs[0]) != len(csvHeader) || len(recs[1]) != len(csvHeader) {
		t.Errorf("field counts %d, %d", len(recs[0]), len(recs[1]))
	}
	if recs[3][0] != "2025-06-23" || recs[1][1] != "-25200" {
		t.Errorf("unexpected row %v", recs[1])
	}
}

func TestWriteJSON(t *testing.T) {
	res := phoenixSolstice(t, 1)
	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewSummary(res, "America/Phoenix")); err != nil {
		t.Fatal(err)
	}
	var got struct {
		TimeZone string `json:"timezone"`
		Days     []struct {
			Date      string             `json:"date"`
			BandHours map[string]float64 `json:"band_hours"`
			Sunrise   time.Time          `json:"sunrise"`
		} `json:"days"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if got.TimeZone != "America/Phoenix" || len(got.Days) != 1 || got.Days[0].Date != "2025-06-21" {
		t.Errorf("unexpected document %+v", got)
	}
	if _, ok := got.Days[0].BandHours["nautical"]; !ok {
		t.Errorf("band hours %v", got.Days[0].BandHours)
	}
	if got.Days[0].Sunrise.IsZero() {
		t.Error("sunrise missing")
	}
}

func TestWriteTransitions(t *testing.T) {
	rows := []Row{{
		Date: civil.Date{Year: 2025, Month: time.June, Day: 21},
		Transitions: []duskgrid.Transition{
			{From: duskgrid.BandCivil, To: duskgrid.BandDay, Hour: 5.25},
			{From: duskgrid.BandDay, To: duskgrid.BandCivil, Hour: 19.7, Refined: true},
		},
	}}
	var buf bytes.Buffer
	if err := WriteTransitions(&buf, rows); err != nil {
		t.Fatal(err)
	}
	want := "2025-06-21 05:15 civil -> day\n2025-06-21 19:42* day -> civil\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
