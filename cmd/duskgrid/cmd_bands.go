package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thurmanmarka/duskgrid"
	"github.com/thurmanmarka/duskgrid/internal/report"
)

var bandsCmd = &cobra.Command{
	Use:   "bands",
	Short: "Show the twilight bands and their altitude thresholds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(nil); err != nil {
			return err
		}
		classifier, err := duskgrid.NewClassifier(cfg.Thresholds)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tBAND\tSTRIP\tSUN ALTITUDE")
		upper := math.Inf(1)
		for _, b := range duskgrid.Bands() {
			low := classifier.LowerBound(b)
			fmt.Fprintf(tw, "%d\t%s\t%q\t%s\n", int(b), b, report.BandRune(b), altitudeRange(low, upper))
			upper = low
		}
		return tw.Flush()
	},
}

func altitudeRange(low, high float64) string {
	switch {
	case math.IsInf(high, 1):
		return fmt.Sprintf("≥ %g°", low)
	case math.IsInf(low, -1):
		return fmt.Sprintf("< %g°", high)
	default:
		return fmt.Sprintf("[%g°, %g°)", low, high)
	}
}
