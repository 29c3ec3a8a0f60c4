package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rkm/collocate/internal/config"
	"github.com/rkm/collocate/internal/enmap"
	"github.com/rkm/collocate/internal/report"
	"github.com/rkm/collocate/internal/sink"
)

func newExportCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Join a collocation report with the EnMAP outlines and write an attribute table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := cfg.ValidateExport(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runExport(cfg, newLogger(cfg, "export"))
		},
	}

	cmd.Flags().StringVar(&opts.export, "export", "", "output path (default next to the report)")
	cmd.Flags().StringVar(&opts.format, "format", "", "output format: geojson, shp or stac")
	return cmd
}

func runExport(cfg *config.Config, logger *slog.Logger) error {
	writer, err := sink.New(cfg.Output.Format)
	if err != nil {
		return err
	}

	reportPath := cfg.ReportPath()
	entries, err := report.ParseFile(reportPath)
	if err != nil {
		return err
	}

	outlines, err := enmap.OutlinesFile(cfg.Input.EnMAPKML)
	if err != nil {
		return fmt.Errorf("failed to read EnMAP outlines: %w", err)
	}

	features := sink.Join(entries, outlines)
	if len(features) < len(entries) {
		logger.Warn("report entries without an EnMAP outline",
			slog.Int("entries", len(entries)),
			slog.Int("joined", len(features)),
		)
	}

	out := exportPath(cfg, reportPath, writer)
	if err := writer.Write(out, features); err != nil {
		return err
	}

	logger.Info("export complete",
		slog.String("report", reportPath),
		slog.String("output", out),
		slog.String("format", cfg.Output.Format),
		slog.Int("features", len(features)),
	)
	return nil
}

// exportPath is the configured export path, or the report path with the
// writer's extension.
func exportPath(cfg *config.Config, reportPath string, w sink.Writer) string {
	if cfg.Output.Export != "" {
		return cfg.Output.Export
	}
	return strings.TrimSuffix(reportPath, filepath.Ext(reportPath)) + w.Extension()
}
