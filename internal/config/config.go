// Package config provides configuration management for the collocation tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/rkm/collocate/internal/report"
	"github.com/rkm/collocate/pkg/footprint"
)

// DefaultRegion covers Europe.
const DefaultRegion = "POLYGON((-27 72,-27 34,43 34,43 72,-27 72))"

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Run     RunConfig     `envPrefix:"RUN_"`
	Input   InputConfig   `envPrefix:"INPUT_"`
	Output  OutputConfig  `envPrefix:"OUTPUT_"`
	Logging LoggingConfig `envPrefix:"LOG_"`
}

// RunConfig selects the target date and region of a matching run.
type RunConfig struct {
	// Year is required; zero Month or Day widens the filter.
	Year   int    `env:"YEAR" envDefault:"0"`
	Month  int    `env:"MONTH" envDefault:"0"`
	Day    int    `env:"DAY" envDefault:"0"`
	Region string `env:"REGION" envDefault:"POLYGON((-27 72,-27 34,43 34,43 72,-27 72))"`

	// Workers bounds the matching pool; zero means one per CPU.
	Workers int `env:"WORKERS" envDefault:"0"`
}

// InputConfig locates the two sources.
type InputConfig struct {
	EnMAPKML   string `env:"ENMAP_KML" envDefault:""`
	TROPOMIDir string `env:"TROPOMI_DIR" envDefault:""`
}

// OutputConfig locates the report and the exported attribute table.
type OutputConfig struct {
	Dir    string `env:"DIR" envDefault:"."`
	Report string `env:"REPORT" envDefault:""`
	Export string `env:"EXPORT" envDefault:""`
	Format string `env:"FORMAT" envDefault:"geojson"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// Load reads an optional dotenv file, then parses configuration from
// environment variables. Variables already set take precedence over the file.
// Validation is left to the caller so command-line flags can be applied first.
func Load(dotenv string) (*Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}

	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	if c.Run.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Run.Workers)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// ValidateMatch checks the settings the matching run needs.
func (c *Config) ValidateMatch() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Run.Year < 1 {
		return fmt.Errorf("target year is required")
	}

	if c.Run.Month < 0 || c.Run.Month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", c.Run.Month)
	}

	if c.Run.Day < 0 || c.Run.Day > 31 {
		return fmt.Errorf("day must be between 1 and 31, got %d", c.Run.Day)
	}

	if _, err := c.Run.RegionRing(); err != nil {
		return err
	}

	if c.Input.EnMAPKML == "" {
		return fmt.Errorf("EnMAP KML path is required")
	}

	if c.Input.TROPOMIDir == "" {
		return fmt.Errorf("TROPOMI directory is required")
	}

	return nil
}

// ValidateExport checks the settings the export run needs.
func (c *Config) ValidateExport() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Input.EnMAPKML == "" {
		return fmt.Errorf("EnMAP KML path is required")
	}

	if c.ReportPath() == "" {
		return fmt.Errorf("report path or target year is required")
	}

	validFormats := map[string]bool{
		"geojson": true,
		"shp":     true,
		"stac":    true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format %q, must be one of: geojson, shp, stac", c.Output.Format)
	}

	return nil
}

// RegionRing parses the configured region.
func (r *RunConfig) RegionRing() (orb.Ring, error) {
	poly, err := wkt.UnmarshalPolygon(r.Region)
	if err != nil {
		return nil, fmt.Errorf("invalid region: %w", err)
	}
	if len(poly) == 0 {
		return nil, fmt.Errorf("invalid region: polygon has no rings")
	}
	// Holes are ignored; only the outer ring bounds the search.
	ring := poly[0]
	if err := footprint.Validate(ring); err != nil {
		return nil, fmt.Errorf("invalid region: %w", err)
	}
	return ring, nil
}

// WorkerCount resolves the pool size.
func (r *RunConfig) WorkerCount() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.NumCPU()
}

// ReportPath returns the explicit report path, or the conventional name for
// the target date inside the output directory. It is empty when neither is
// known.
func (c *Config) ReportPath() string {
	if c.Output.Report != "" {
		return c.Output.Report
	}
	if c.Run.Year < 1 {
		return ""
	}
	return filepath.Join(c.Output.Dir, report.Filename(c.Run.Year, c.Run.Month, c.Run.Day))
}
