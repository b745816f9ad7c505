package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/thurmanmarka/duskgrid"
)

// TextOptions controls WriteText.
type TextOptions struct {
	// StripWidth is the width of the per-day band strip; 0 omits it.
	StripWidth int
	// Title is printed above the table when non-empty.
	Title string
}

// WriteText writes a human-readable table of rows.
func WriteText(w io.Writer, rows []Row, opts TextOptions) error {
	title := color.New(color.Bold)
	wrap := color.New(color.FgMagenta)

	if opts.Title != "" {
		if _, err := title.Fprintln(w, opts.Title); err != nil {
			return err
		}
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "DATE\tUTC\tNOON\tMIDNIGHT\tDAYLIGHT\tSUNRISE\tSUNSET\t"
	if opts.StripWidth > 0 {
		header += "BANDS\t"
	}
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s\t",
			r.Date,
			FormatOffset(r.OffsetSeconds),
			FormatHour(r.Noon),
			FormatHour(r.Midnight),
			FormatDuration(r.DayLength),
			clock(r.Sunrise),
			clock(r.Sunset),
		)
		if opts.StripWidth > 0 {
			line += "|" + Strip(r.strip, opts.StripWidth) + "|\t"
		}
		if r.MidnightWrap {
			line += wrap.Sprint("midnight wrapped")
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

func clock(t *time.Time) string {
	if t == nil {
		return "--:--"
	}
	return t.Format("15:04")
}

// Legend writes the band strip legend.
func Legend(w io.Writer) error {
	for _, b := range duskgrid.Bands() {
		if _, err := fmt.Fprintf(w, "  %q  %d %s\n", BandRune(b), int(b), b); err != nil {
			return err
		}
	}
	return nil
}

// WriteTransitions lists the band transitions of each row, one per line.
// Refined transitions are marked with '*'.
func WriteTransitions(w io.Writer, rows []Row) error {
	for _, r := range rows {
		for _, tr := range r.Transitions {
			mark := ""
			if tr.Refined {
				mark = "*"
			}
			if _, err := fmt.Fprintf(w, "%s %s%s %s -> %s\n",
				r.Date, FormatHour(tr.Hour), mark, tr.From, tr.To); err != nil {
				return err
			}
		}
	}
	return nil
}

var csvHeader = []string{
	"date",
	"offset_seconds",
	"noon",
	"midnight",
	"midnight_wrap",
	"day_hours",
	"civil_hours",
	"nautical_hours",
	"astronomical_hours",
	"night_hours",
	"sunrise",
	"sunset",
}

// WriteCSV writes rows as CSV with a header line. Hours are fractional.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Date.String(),
			strconv.Itoa(r.OffsetSeconds),
			fmt.Sprintf("%.6f", r.Noon),
			fmt.Sprintf("%.6f", r.Midnight),
			strconv.FormatBool(r.MidnightWrap),
		}
		for _, b := range duskgrid.Bands() {
			rec = append(rec, fmt.Sprintf("%.6f", r.BandHours[b.String()]))
		}
		rec = append(rec, rfc3339(r.Sunrise), rfc3339(r.Sunset))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func rfc3339(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// Summary is the JSON document written by WriteJSON.
type Summary struct {
	Location    duskgrid.Coordinates `json:"location"`
	TimeZone    string               `json:"timezone,omitempty"`
	SampleCount int                  `json:"sample_count"`
	Rows        []Row                `json:"days"`
}

// NewSummary summarizes res for JSON output.
func NewSummary(res *duskgrid.ScheduleResult, tz string) Summary {
	return Summary{
		Location:    res.Location,
		TimeZone:    tz,
		SampleCount: res.SampleCount,
		Rows:        Summarize(res),
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
