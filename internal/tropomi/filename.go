package tropomi

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Sentinel-5P product names carry the sensing start date at a fixed offset,
// e.g. S5P_OFFL_L2__NO2____20240201T103412_20240201T121542_32751_03_020600_20240203T030228.nc
const (
	dateStart = 20
	dateEnd   = 28
)

// FilenameDate extracts the yyyymmdd date embedded at bytes 20-28 of the
// file's basename.
func FilenameDate(path string) (time.Time, error) {
	name := filepath.Base(path)
	if len(name) < dateEnd {
		return time.Time{}, fmt.Errorf("filename %q too short to hold a date", name)
	}

	s := name[dateStart:dateEnd]
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("filename %q: date field %q is not numeric", name, s)
		}
	}

	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("filename %q: %w", name, err)
	}
	return t, nil
}

// ProductID returns the basename of path up to its first dot.
func ProductID(path string) string {
	name := filepath.Base(path)
	if i := strings.Index(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}
