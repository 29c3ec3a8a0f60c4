// Package report writes matched pairs to the flat text report and re-parses
// such reports.
//
// The report is a line-oriented hand-off between the matching run and the
// export run. Field order and labels are fixed; any change breaks Parse and
// existing downstream consumers:
//
//	Overlap: [(lon, lat), (lon, lat), ...]
//	EnMAP File: Filename <id>, Datetime: 2024-02-01 10:34:12.123000
//	TROPOMI File: Filename <id>, Datetime: 2024-02-01 10:35:02.500000
//	Cloud Fraction (EnMAP): 12.5
//	Time Difference: 0:00:50.377000
//	--------------------
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rkm/collocate/pkg/footprint"
)

// Delimiter terminates every block.
const Delimiter = "--------------------"

const (
	labelOverlap  = "Overlap: "
	labelEnMAP    = "EnMAP File: Filename "
	labelTROPOMI  = "TROPOMI File: Filename "
	labelDatetime = ", Datetime: "
	labelClouds   = "Cloud Fraction (EnMAP): "
	labelTimeDiff = "Time Difference: "
)

// Filename returns the report name for a target date; zero month or day is
// omitted.
func Filename(year, month, day int) string {
	name := fmt.Sprintf("closest_pairs_output_%d", year)
	if month != 0 {
		name += fmt.Sprintf("_%d", month)
	}
	if day != 0 {
		name += fmt.Sprintf("_%d", day)
	}
	return name + ".txt"
}

// FormatDatetime renders t as "YYYY-MM-DD HH:MM:SS" with a six-digit
// microsecond suffix when the sub-second part is non-zero.
func FormatDatetime(t time.Time) string {
	s := t.Format("2006-01-02 15:04:05")
	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s
}

// ParseDatetime parses the output of FormatDatetime as UTC.
func ParseDatetime(s string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05.999999", strings.TrimSpace(s))
}

// FormatDuration renders d as "H:MM:SS" with a six-digit microsecond suffix
// when non-zero, prefixed by "N day(s), " for durations of a day or more.
// Negative durations are rendered by magnitude.
func FormatDuration(d time.Duration) string {
	d = d.Abs()
	us := int64(d / time.Microsecond)

	days := us / (24 * 3600 * 1e6)
	us -= days * 24 * 3600 * 1e6
	hours := us / (3600 * 1e6)
	us -= hours * 3600 * 1e6
	minutes := us / (60 * 1e6)
	us -= minutes * 60 * 1e6
	seconds := us / 1e6
	us -= seconds * 1e6

	s := fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	if us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	switch {
	case days == 1:
		s = "1 day, " + s
	case days > 1:
		s = fmt.Sprintf("%d days, %s", days, s)
	}
	return s
}

// ParseDuration parses the output of FormatDuration.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var days int64
	if i := strings.Index(s, ", "); i >= 0 {
		fields := strings.Fields(s[:i])
		if len(fields) != 2 || (fields[1] != "day" && fields[1] != "days") {
			return 0, fmt.Errorf("invalid day prefix in duration %q", s)
		}
		n, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid day count in duration %q: %w", s, err)
		}
		days = n
		s = s[i+2:]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q: expected H:MM:SS", s)
	}
	var hms [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		hms[i] = v
	}

	// The report carries microseconds at most.
	total := float64(days)*86400 + hms[0]*3600 + hms[1]*60 + hms[2]
	return time.Duration(math.Round(total*1e6)) * time.Microsecond, nil
}

// formatCoord renders a coordinate the way the report always has: shortest
// round-trip digits, integral values with a trailing ".0", and exponent form
// when the decimal exponent is below -4 or at least 16.
func formatCoord(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	if f != 0 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		exp, err := strconv.Atoi(s[strings.IndexByte(s, 'e')+1:])
		if err == nil && (exp < -4 || exp >= 16) {
			return s
		}
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// formatQuality prefers the quality text as it appeared in the source
// metadata.
func formatQuality(fp footprint.Footprint) string {
	if fp.QualityText != "" {
		return fp.QualityText
	}
	if fp.Quality == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*fp.Quality, 'f', -1, 64)
}
