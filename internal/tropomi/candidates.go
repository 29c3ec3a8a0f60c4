package tropomi

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rkm/collocate/internal/spatial"
	"github.com/rkm/collocate/pkg/footprint"
)

// Scanner builds the TROPOMI candidate set from a list of files.
type Scanner struct {
	open   Opener
	region *spatial.RegionFilter
	logger *slog.Logger
}

// NewScanner creates a scanner that opens files with open and keeps those
// intersecting region.
func NewScanner(open Opener, region *spatial.RegionFilter) *Scanner {
	return &Scanner{
		open:   open,
		region: region,
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the scanner
func (s *Scanner) WithLogger(logger *slog.Logger) *Scanner {
	s.logger = logger
	return s
}

// ListFiles returns the regular files in dir in lexical order.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// Extract reads the footprint of one file. The returned footprint carries the
// coarse filename date as its time.
func (s *Scanner) Extract(path string) (footprint.Footprint, error) {
	ds, err := s.open(path)
	if err != nil {
		return footprint.Footprint{}, err
	}
	defer ds.Close()

	ring, err := ds.Footprint()
	if err != nil {
		return footprint.Footprint{}, err
	}
	if err := footprint.Validate(ring); err != nil {
		return footprint.Footprint{}, fmt.Errorf("%s: %w", path, err)
	}

	date, err := FilenameDate(path)
	if err != nil {
		return footprint.Footprint{}, err
	}

	return footprint.Footprint{
		ID:      ProductID(path),
		Path:    path,
		Polygon: ring,
		Time:    date,
	}, nil
}

// Candidates extracts every file and keeps those whose footprint intersects
// the region, in input order. Files that cannot be read are logged and
// skipped.
func (s *Scanner) Candidates(ctx context.Context, paths []string) []footprint.Footprint {
	candidates := make([]footprint.Footprint, 0, len(paths))
	for _, path := range paths {
		fp, err := s.Extract(path)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping TROPOMI file",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}

		ok, err := s.region.Contains(fp.Polygon)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping TROPOMI file",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !ok {
			s.logger.DebugContext(ctx, "TROPOMI file outside region", slog.String("path", path))
			continue
		}
		candidates = append(candidates, fp)
	}
	return candidates
}
