package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ostk/internal/app"
	"ostk/internal/store"
	"ostk/internal/trajectory"
)

// noDataMessage is printed when a query matches nothing; an empty window is
// a normal outcome, not a failure.
const noDataMessage = "No data found for the given parameters."

func main() {
	var (
		cfgPath string
		dbPath  string
		verbose bool
	)

	rootCmd := &cobra.Command{
		Use:   "ostk",
		Short: "Historical ADS-B trajectory toolkit",
		Long: `ostk reconstructs aircraft trajectories from archived raw ADS-B messages.

It pairs even/odd CPR position frames, decodes them globally (or locally
against the last known position), rejects physically implausible fixes,
merges velocity reports onto position fixes and emits clean, time-ordered
state vectors.

Example usage:
  ostk trajectory rebuild --icao24 40621d --start "2019-07-01 12:00:00" --stop "2019-07-01 13:00:00" -o out.csv`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite message archive (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	trajectoryCmd := &cobra.Command{
		Use:   "trajectory",
		Short: "Trajectory reconstruction and retrieval",
	}
	trajectoryCmd.AddCommand(
		newRebuildCmd(&cfgPath, &dbPath, &verbose),
		newHistoryCmd(&cfgPath, &dbPath, &verbose),
	)

	rootCmd.AddCommand(
		trajectoryCmd,
		newCompareCmd(&cfgPath, &dbPath, &verbose),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, so a long
// rebuild can be interrupted and still return the points accepted so far.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newRebuildCmd(cfgPath, dbPath *string, verbose *bool) *cobra.Command {
	var (
		icao24     string
		startStr   string
		stopStr    string
		output     string
		maxSpeedKt float64
		windowSec  float64
	)

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild a trajectory from archived raw messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, stop, err := parseWindow(startStr, stopStr)
			if err != nil {
				return err
			}

			a, err := app.New(*cfgPath, *dbPath, *verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := a.Options()
			if maxSpeedKt > 0 {
				opts.MaxSpeedKt = maxSpeedKt
			}
			if windowSec > 0 {
				opts.PairingWindow = time.Duration(windowSec * float64(time.Second))
			}

			ctx, cancel := signalContext()
			defer cancel()

			rb := trajectory.NewRebuilder(a.Store, a.Log, opts)
			points, err := rb.Rebuild(ctx, icao24, start, stop)
			if errors.Is(err, trajectory.ErrNoData) {
				fmt.Println(noDataMessage)
				return nil
			}
			if err != nil {
				return err
			}
			return app.WritePoints(output, points)
		},
	}

	cmd.Flags().StringVarP(&icao24, "icao24", "i", "", "Aircraft ICAO 24-bit address (hex)")
	cmd.Flags().StringVarP(&startStr, "start", "s", "", "Window start (\"YYYY-MM-DD HH:MM:SS\", RFC 3339 or Unix seconds)")
	cmd.Flags().StringVarP(&stopStr, "stop", "e", "", "Window stop (inclusive)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write CSV to this file instead of a table on stdout")
	cmd.Flags().Float64Var(&maxSpeedKt, "max-speed-kt", 0, "Implied-speed rejection ceiling in knots (overrides config)")
	cmd.Flags().Float64Var(&windowSec, "pairing-window", 0, "CPR pairing window in seconds (overrides config)")
	cmd.MarkFlagRequired("icao24")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("stop")

	return cmd
}

func newHistoryCmd(cfgPath, dbPath *string, verbose *bool) *cobra.Command {
	var (
		icao24    string
		callsign  string
		startStr  string
		stopStr   string
		boundsStr string
		limit     int
		output    string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Retrieve precomputed state vectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.StateVectorFilter{
				ICAO24:   icao24,
				Callsign: callsign,
				Limit:    limit,
			}
			var err error
			if startStr != "" {
				if filter.Start, err = app.ParseTime(startStr); err != nil {
					return err
				}
			}
			if stopStr != "" {
				if filter.Stop, err = app.ParseTime(stopStr); err != nil {
					return err
				}
			}
			if boundsStr != "" {
				if filter.Bounds, err = app.ParseBounds(boundsStr); err != nil {
					return err
				}
			}

			a, err := app.New(*cfgPath, *dbPath, *verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			points, err := a.Rebuilder().History(ctx, filter)
			if errors.Is(err, trajectory.ErrNoData) {
				fmt.Println(noDataMessage)
				return nil
			}
			if err != nil {
				return err
			}
			return app.WritePoints(output, points)
		},
	}

	cmd.Flags().StringVarP(&icao24, "icao24", "i", "", "Aircraft ICAO 24-bit address (hex)")
	cmd.Flags().StringVar(&callsign, "callsign", "", "Filter by callsign")
	cmd.Flags().StringVarP(&startStr, "start", "s", "", "Window start")
	cmd.Flags().StringVarP(&stopStr, "stop", "e", "", "Window stop (inclusive)")
	cmd.Flags().StringVarP(&boundsStr, "bounds", "b", "", "Bounding box west,south,east,north (decimal degrees)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of vectors (0 for no limit)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write CSV to this file instead of a table on stdout")

	return cmd
}

func newCompareCmd(cfgPath, dbPath *string, verbose *bool) *cobra.Command {
	var (
		icao24       string
		startStr     string
		stopStr      string
		toleranceSec float64
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a rebuilt trajectory against archived state vectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, stop, err := parseWindow(startStr, stopStr)
			if err != nil {
				return err
			}

			a, err := app.New(*cfgPath, *dbPath, *verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			rb := a.Rebuilder()
			rebuilt, err := rb.Rebuild(ctx, icao24, start, stop)
			if err != nil && !errors.Is(err, trajectory.ErrNoData) {
				return err
			}
			reference, err := rb.History(ctx, store.StateVectorFilter{
				ICAO24: icao24,
				Start:  start,
				Stop:   stop,
			})
			if err != nil && !errors.Is(err, trajectory.ErrNoData) {
				return err
			}

			dev, err := trajectory.Compare(rebuilt, reference, trajectory.CompareOptions{
				MatchTolerance: time.Duration(toleranceSec * float64(time.Second)),
			})
			if errors.Is(err, trajectory.ErrNoData) {
				fmt.Println(noDataMessage)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Println(dev.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&icao24, "icao24", "i", "", "Aircraft ICAO 24-bit address (hex)")
	cmd.Flags().StringVarP(&startStr, "start", "s", "", "Window start")
	cmd.Flags().StringVarP(&stopStr, "stop", "e", "", "Window stop (inclusive)")
	cmd.Flags().Float64VarP(&toleranceSec, "tolerance", "t", 5, "Timestamp alignment tolerance in seconds")
	cmd.MarkFlagRequired("icao24")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("stop")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowVersion()
		},
	}
}

func parseWindow(startStr, stopStr string) (time.Time, time.Time, error) {
	start, err := app.ParseTime(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
	}
	stop, err := app.ParseTime(stopStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --stop: %w", err)
	}
	if !stop.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--stop must be after --start")
	}
	return start, stop, nil
}
