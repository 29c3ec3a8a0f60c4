package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkm/collocate/internal/config"
	"github.com/rkm/collocate/internal/enmap"
	"github.com/rkm/collocate/internal/match"
	"github.com/rkm/collocate/internal/report"
	"github.com/rkm/collocate/internal/spatial"
	"github.com/rkm/collocate/internal/tropomi"
)

func newMatchCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Find the closest TROPOMI acquisition for every EnMAP tile and write the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := cfg.ValidateMatch(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runMatch(cmd.Context(), cfg, newLogger(cfg, "match"))
		},
	}

	cmd.Flags().StringVar(&opts.tropomiDir, "tropomi-dir", "", "directory of TROPOMI NetCDF products")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "parallel matching tasks (0 for one per CPU)")
	return cmd
}

func runMatch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	start := time.Now()

	region, err := cfg.Run.RegionRing()
	if err != nil {
		return err
	}
	regionFilter := spatial.NewRegionFilter(region).WithLogger(logger)

	logger.Info("starting collocation",
		slog.Int("year", cfg.Run.Year),
		slog.Int("month", cfg.Run.Month),
		slog.Int("day", cfg.Run.Day),
		slog.String("region", cfg.Run.Region),
		slog.Int("workers", cfg.Run.WorkerCount()),
	)

	filter := enmap.DateFilter{Year: cfg.Run.Year, Month: cfg.Run.Month, Day: cfg.Run.Day}
	tiles, err := enmap.ParseFile(cfg.Input.EnMAPKML, filter)
	if err != nil {
		return fmt.Errorf("failed to read EnMAP metadata: %w", err)
	}
	enmapCandidates := regionFilter.Filter(tiles)
	logger.Info("EnMAP candidates",
		slog.Int("parsed", len(tiles)),
		slog.Int("in_region", len(enmapCandidates)),
	)

	files, err := tropomi.ListFiles(cfg.Input.TROPOMIDir)
	if err != nil {
		return fmt.Errorf("failed to list TROPOMI products: %w", err)
	}
	scanner := tropomi.NewScanner(tropomi.OpenNetCDF, regionFilter).WithLogger(logger)
	tropomiCandidates := scanner.Candidates(ctx, files)
	logger.Info("TROPOMI candidates",
		slog.Int("files", len(files)),
		slog.Int("in_region", len(tropomiCandidates)),
	)

	matcher := match.NewMatcher(tropomi.NewResolver(tropomi.OpenNetCDF)).WithLogger(logger)
	reducer := match.NewReducer(matcher, cfg.Run.WorkerCount()).WithLogger(logger)

	pairs, err := reducer.MatchAll(ctx, enmapCandidates, tropomiCandidates)
	if err != nil {
		return fmt.Errorf("matching interrupted: %w", err)
	}

	for _, p := range pairs {
		logger.Info("closest pair",
			slog.String("enmap", p.A.ID),
			slog.Time("enmap_time", p.A.Time),
			slog.String("tropomi", p.B.ID),
			slog.Time("tropomi_time", p.B.Time),
			slog.String("time_difference", report.FormatDuration(p.TimeDifference)),
		)
	}

	path := cfg.ReportPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := report.WriteFile(path, pairs); err != nil {
		return err
	}

	logger.Info("collocation complete",
		slog.Int("pairs", len(pairs)),
		slog.String("report", path),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}
