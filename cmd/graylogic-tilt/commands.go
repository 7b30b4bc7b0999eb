package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-tilt/internal/calibration"
	"github.com/nerrad567/gray-logic-tilt/internal/devices"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-tilt/migrations"
)

// Command flags
var (
	fitDigits  int
	fitSamples []float64
)

func init() {
	fitCmd.Flags().IntVar(&fitDigits, "digits", calibration.SGDigitsStandard, "Decimal places for evaluated values")
	fitCmd.Flags().Float64SliceVar(&fitSamples, "sample", nil, "Raw values to evaluate against each curve")

	namesCmd.AddCommand(namesSetCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateDownCmd)

	rootCmd.AddCommand(fitCmd)
	rootCmd.AddCommand(namesCmd)
	rootCmd.AddCommand(migrateCmd)
}

// fitCmd shows the curves fitted from a calibration file
var fitCmd = &cobra.Command{
	Use:   "fit <file>",
	Short: "Show the calibration curves fitted from a file",
	Long: `Reads a calibration file of "key, raw, calibrated" lines and prints
the polynomial degree fitted for every key.

The file is not created or modified.`,
	Example: `  # Inspect the SG calibration
  graylogic-tilt fit /share/SGCal.csv

  # Evaluate two raw readings with each curve
  graylogic-tilt fit /share/SGCal.csv --sample 1.050 --sample 1.010`,
	Args: cobra.ExactArgs(1),
	RunE: runFit,
}

func runFit(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening calibration file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only handle

	cal := calibration.New(logging.Discard())
	if err := cal.Read(f); err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	return printCurves(cmd.OutOrStdout(), cal, fitSamples, fitDigits)
}

// printCurves writes one row per fitted key.
func printCurves(out io.Writer, cal *calibration.Calibrator, samples []float64, digits int) error {
	keys := cal.Keys()
	if len(keys) == 0 {
		_, err := fmt.Fprintln(out, "No calibration curves.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "KEY\tDEGREE")
	for _, s := range samples {
		fmt.Fprintf(w, "\t%g", s)
	}
	fmt.Fprintln(w)

	for _, key := range keys {
		curve, ok := cal.Curve(key)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%d", key, curve.Degree())
		for _, s := range samples {
			fmt.Fprintf(w, "\t%g", calibration.Round(curve.Eval(s), digits))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// namesCmd lists the device name table
var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "List known Tilt devices and their names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry, err := openRegistry()
		if err != nil {
			return err
		}
		return printNames(cmd.OutOrStdout(), registry.Entries())
	},
}

// namesSetCmd renames one device
var namesSetCmd = &cobra.Command{
	Use:   "set <mac> <name>",
	Short: "Set the display name of a Tilt device",
	Long: `Assigns a display name to a device MAC and saves the devices file.

The MAC is normalised before use. The name must be 1 to 100 letters, digits,
spaces, underscores or hyphens, and must not belong to another device.
A running bridge picks up renames published to its names topic, not
changes made here.`,
	Example: `  graylogic-tilt names set AA:7F:97:FC:14:1E Fermenter`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := openRegistry()
		if err != nil {
			return err
		}
		override := devices.NameOverride{MAC: devices.NormalizeMAC(args[0]), Name: args[1]}
		if registry.ApplyCustomNames([]devices.NameOverride{override}) == 0 {
			return fmt.Errorf("name %q was not applied to %s", override.Name, override.MAC)
		}
		if err := registry.Commit(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %q\n", override.MAC, override.Name)
		return nil
	},
}

// openRegistry opens the devices file named by the configuration.
func openRegistry() (*devices.Registry, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log := logging.New(config.LoggingConfig{Level: "warn", Format: "text", Output: "stderr"}, version)
	registry, err := devices.OpenFile(cfg.Tilt.DevicesFile, log)
	if err != nil {
		return nil, fmt.Errorf("opening device names: %w", err)
	}
	return registry, nil
}

func printNames(out io.Writer, entries []devices.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No devices.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MAC\tNAME")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.MAC, e.Name)
	}
	return w.Flush()
}

// migrateCmd applies pending schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Applies every pending migration to the configured SQLite database.

The bridge also migrates on startup; use this to prepare a database ahead
of time or together with "migrate down" when rolling back a release.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrations(cmd.Context(), func(ctx context.Context, db *database.DB, schema []database.Migration) error {
			if err := db.Migrate(ctx, schema); err != nil {
				return err
			}
			return printMigrations(ctx, cmd.OutOrStdout(), db, schema)
		})
	},
}

// migrateStatusCmd lists applied and pending migrations
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrations(cmd.Context(), func(ctx context.Context, db *database.DB, schema []database.Migration) error {
			return printMigrations(ctx, cmd.OutOrStdout(), db, schema)
		})
	},
}

// migrateDownCmd rolls back the latest migration
var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recently applied migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrations(cmd.Context(), func(ctx context.Context, db *database.DB, schema []database.Migration) error {
			if err := db.MigrateDown(ctx, schema); err != nil {
				return err
			}
			return printMigrations(ctx, cmd.OutOrStdout(), db, schema)
		})
	},
}

// withMigrations opens the configured database and runs fn with the embedded schema.
func withMigrations(ctx context.Context, fn func(context.Context, *database.DB, []database.Migration) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := database.Open(database.FromConfig(cfg.Database))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Closed on exit

	schema, err := migrations.Load()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	return fn(ctx, db, schema)
}

func printMigrations(ctx context.Context, out io.Writer, db *database.DB, schema []database.Migration) error {
	records, err := db.AppliedMigrations(ctx)
	if err != nil {
		return err
	}
	applied := make(map[string]string, len(records))
	for _, r := range records {
		applied[r.Version] = r.AppliedAt.Format("2006-01-02 15:04:05")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
	for _, m := range schema {
		at, ok := applied[m.Version]
		if !ok {
			at = "pending"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Version, m.Name, at)
	}
	return w.Flush()
}
