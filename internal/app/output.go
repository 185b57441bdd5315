package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"ostk/internal/trajectory"
)

// pointColumns is the column set of the state-vector export format.
var pointColumns = []string{
	"time", "icao24", "lat", "lon", "baroaltitude", "velocity", "heading", "vertrate",
}

// WriteCSV writes points in the state-vector CSV format. Missing telemetry
// fields are left empty.
func WriteCSV(w io.Writer, points []trajectory.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(pointColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range points {
		record := []string{
			formatUnix(p.Time),
			p.ICAO24,
			strconv.FormatFloat(p.Lat, 'f', 6, 64),
			strconv.FormatFloat(p.Lon, 'f', 6, 64),
			formatOpt(p.BaroAltitude),
			formatOpt(p.Velocity),
			formatOpt(p.Heading),
			formatOpt(p.VertRate),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes points as an aligned human-readable table.
func WriteTable(w io.Writer, points []trajectory.Point) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tICAO24\tLAT\tLON\tALT_M\tSPEED_MS\tHEADING\tVRATE_MS")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\t%.5f\t%.5f\t%s\t%s\t%s\t%s\n",
			p.Time.UTC().Format("2006-01-02 15:04:05"),
			p.ICAO24,
			p.Lat, p.Lon,
			formatOpt(p.BaroAltitude),
			formatOpt(p.Velocity),
			formatOpt(p.Heading),
			formatOpt(p.VertRate))
	}
	return tw.Flush()
}

// WritePoints writes points to path as CSV, or to stdout as a table when
// path is empty.
func WritePoints(path string, points []trajectory.Point) error {
	if path == "" {
		return WriteTable(os.Stdout, points)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	if err := WriteCSV(f, points); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatOpt(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// formatUnix renders a timestamp as fractional Unix seconds, dropping the
// fraction when it is whole.
func formatUnix(t time.Time) string {
	ts := float64(t.UnixNano()) / float64(time.Second)
	return strconv.FormatFloat(ts, 'f', -1, 64)
}
