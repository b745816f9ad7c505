// Package report renders schedule results as text tables, CSV and JSON.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/nathan-osman/go-sunrise"

	"github.com/thurmanmarka/duskgrid"
)

// Row summarizes one date of a schedule.
type Row struct {
	Date          civil.Date         `json:"date"`
	OffsetSeconds int                `json:"offset_seconds"`
	Noon          float64            `json:"noon"`
	Midnight      float64            `json:"midnight"`
	MidnightWrap  bool               `json:"midnight_wrap"`
	DayLength     float64            `json:"day_length"`
	BandHours     map[string]float64 `json:"band_hours"`
	// Sunrise and Sunset are the conventional (upper limb, refracted) times
	// in the date's local offset. They are nil during polar day or night.
	Sunrise     *time.Time            `json:"sunrise,omitempty"`
	Sunset      *time.Time            `json:"sunset,omitempty"`
	Transitions []duskgrid.Transition `json:"transitions,omitempty"`

	strip []duskgrid.TwilightBand
}

// Summarize builds one row per date of res.
func Summarize(res *duskgrid.ScheduleResult) []Row {
	rows := make([]Row, len(res.Days))
	for i, d := range res.Days {
		hours := d.BandHours()
		bh := make(map[string]float64, duskgrid.NumBands)
		for _, b := range duskgrid.Bands() {
			bh[b.String()] = hours[b]
		}
		row := Row{
			Date:          d.Date,
			OffsetSeconds: d.OffsetSeconds,
			Noon:          d.Noon,
			Midnight:      d.Midnight,
			MidnightWrap:  i < len(res.MidnightWraps) && res.MidnightWraps[i],
			DayLength:     hours[duskgrid.BandDay],
			BandHours:     bh,
			Transitions:   d.Transitions,
			strip:         d.Bands,
		}
		row.Sunrise, row.Sunset = riseSet(res.Location, d.Date, d.OffsetSeconds)
		rows[i] = row
	}
	return rows
}

func riseSet(c duskgrid.Coordinates, d civil.Date, offsetSeconds int) (rise, set *time.Time) {
	r, s := sunrise.SunriseSunset(c.Lat, c.Lon, d.Year, d.Month, d.Day)
	zone := time.FixedZone(FormatOffset(offsetSeconds), offsetSeconds)
	if !r.IsZero() {
		t := r.In(zone)
		rise = &t
	}
	if !s.IsZero() {
		t := s.In(zone)
		set = &t
	}
	return rise, set
}

// FormatHour renders a fractional local hour as HH:MM, rounded to the
// nearest minute.
func FormatHour(h float64) string {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return "--:--"
	}
	m := int(math.Round(h*60)) % (24 * 60)
	if m < 0 {
		m += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// FormatOffset renders a UTC offset as ±HH:MM.
func FormatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}

// FormatDuration renders fractional hours as e.g. 14h07m.
func FormatDuration(hours float64) string {
	m := int(math.Round(hours * 60))
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}

var bandRunes = [duskgrid.NumBands]rune{'#', '=', '-', '.', ' '}

// BandRune returns the character used for b in band strips.
func BandRune(b duskgrid.TwilightBand) rune {
	if b < 0 || int(b) >= duskgrid.NumBands {
		return '?'
	}
	return bandRunes[b]
}

// Strip renders bands as width characters, one per equal slice of the day.
func Strip(bands []duskgrid.TwilightBand, width int) string {
	if width <= 0 || len(bands) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(width)
	for i := 0; i < width; i++ {
		sb.WriteRune(BandRune(bands[i*len(bands)/width]))
	}
	return sb.String()
}
