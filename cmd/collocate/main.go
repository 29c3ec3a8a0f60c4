// EnMAP / TROPOMI collocation entry point
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rkm/collocate/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return newRootCommand().ExecuteContext(ctx)
}

// options carries the command-line overrides. Only flags the user actually
// set replace values loaded from the environment.
type options struct {
	envFile    string
	year       int
	month      int
	day        int
	enmapKML   string
	tropomiDir string
	outputDir  string
	report     string
	export     string
	format     string
	workers    int
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "collocate",
		Short:         "Match EnMAP acquisitions with the closest TROPOMI overpass",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	pf.IntVar(&opts.year, "year", 0, "target year")
	pf.IntVar(&opts.month, "month", 0, "target month (0 for the whole year)")
	pf.IntVar(&opts.day, "day", 0, "target day (0 for the whole month)")
	pf.StringVar(&opts.enmapKML, "enmap-kml", "", "EnMAP metadata KML file")
	pf.StringVar(&opts.outputDir, "output-dir", "", "directory for the report")
	pf.StringVar(&opts.report, "report", "", "report path (default derived from the target date)")

	root.AddCommand(newMatchCommand(opts), newExportCommand(opts))
	return root
}

// loadConfig reads the environment and applies flags set on cmd.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("year") {
		cfg.Run.Year = opts.year
	}
	if flags.Changed("month") {
		cfg.Run.Month = opts.month
	}
	if flags.Changed("day") {
		cfg.Run.Day = opts.day
	}
	if flags.Changed("workers") {
		cfg.Run.Workers = opts.workers
	}
	if flags.Changed("enmap-kml") {
		cfg.Input.EnMAPKML = opts.enmapKML
	}
	if flags.Changed("tropomi-dir") {
		cfg.Input.TROPOMIDir = opts.tropomiDir
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = opts.outputDir
	}
	if flags.Changed("report") {
		cfg.Output.Report = opts.report
	}
	if flags.Changed("export") {
		cfg.Output.Export = opts.export
	}
	if flags.Changed("format") {
		cfg.Output.Format = opts.format
	}
	return cfg, nil
}

// newLogger builds the run logger tagged with a fresh run id.
func newLogger(cfg *config.Config, command string) *slog.Logger {
	return setupLogger(cfg.Logging.Level, cfg.Logging.Format).With(
		slog.String("run_id", uuid.NewString()),
		slog.String("command", command),
	)
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
