package report

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

var (
	filenamePattern = regexp.MustCompile(`EnMAP File: Filename (.+?), Datetime:`)
	datetimePattern = regexp.MustCompile(`EnMAP File: Filename .+?, Datetime: (.+)`)
	timeDiffPattern = regexp.MustCompile(`Time Difference: (.+)`)
)

// Entry is the part of a report block the export stage needs.
type Entry struct {
	// ID is the EnMAP datatake+tile name.
	ID string

	// TimeDiff is the absolute offset to the matched TROPOMI acquisition.
	TimeDiff time.Duration

	// Acquired is the EnMAP acquisition time, zero if the block's datetime
	// could not be read.
	Acquired time.Time
}

// Minutes returns the time difference in fractional minutes.
func (e Entry) Minutes() float64 {
	return e.TimeDiff.Minutes()
}

// Parse extracts one Entry per block. Blocks without both labels are
// ignored.
func Parse(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var entries []Entry
	for _, block := range strings.Split(string(data), Delimiter) {
		name := filenamePattern.FindStringSubmatch(block)
		diff := timeDiffPattern.FindStringSubmatch(block)
		if name == nil || diff == nil {
			continue
		}

		d, err := ParseDuration(strings.TrimRight(diff[1], "\r"))
		if err != nil {
			return nil, fmt.Errorf("block for %s: %w", name[1], err)
		}
		e := Entry{ID: name[1], TimeDiff: d}
		// An unreadable datetime leaves Acquired zero.
		if m := datetimePattern.FindStringSubmatch(block); m != nil {
			if t, err := ParseDatetime(strings.TrimRight(m[1], "\r")); err == nil {
				e.Acquired = t
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ParseFile parses the report at path.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
