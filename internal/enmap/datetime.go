package enmap

import (
	"fmt"
	"strings"
	"time"
)

// acquisitionLayout accepts any (or no) fractional second digits.
const acquisitionLayout = "2006-01-02 15:04:05.999999999"

// ParseAcquisitionTime fuses the separate KML date ("2024-02-01") and time
// ("10:34:12.123456789") values into a UTC timestamp. Fractional seconds are
// truncated to milliseconds.
func ParseAcquisitionTime(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("empty date or time (date=%q, time=%q)", date, clock)
	}

	if i := strings.Index(clock, "."); i >= 0 && len(clock) > i+4 {
		clock = clock[:i+4]
	}

	t, err := time.Parse(acquisitionLayout, date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse acquisition time %q %q: %w", date, clock, err)
	}
	return t.UTC(), nil
}

// DateFilter restricts acquisitions to a year and optionally a month and day.
// Zero Month or Day matches any.
type DateFilter struct {
	Year  int
	Month int
	Day   int
}

// Validate checks that the filter names a year and plausible month/day.
func (f DateFilter) Validate() error {
	if f.Year <= 0 {
		return fmt.Errorf("target year is required")
	}
	if f.Month < 0 || f.Month > 12 {
		return fmt.Errorf("target month must be between 1 and 12, got %d", f.Month)
	}
	if f.Day < 0 || f.Day > 31 {
		return fmt.Errorf("target day must be between 1 and 31, got %d", f.Day)
	}
	return nil
}

// Match reports whether t falls within the filter.
func (f DateFilter) Match(t time.Time) bool {
	return t.Year() == f.Year &&
		(f.Month == 0 || int(t.Month()) == f.Month) &&
		(f.Day == 0 || t.Day() == f.Day)
}
