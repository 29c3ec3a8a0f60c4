package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rkm/collocate/internal/match"
)

// Write renders pairs as report blocks.
func Write(w io.Writer, pairs []match.Pair) error {
	bw := bufio.NewWriter(w)
	for _, p := range pairs {
		writeBlock(bw, p)
	}
	return bw.Flush()
}

// WriteFile writes pairs to path, creating or truncating it. An empty pair
// list produces an empty file.
func WriteFile(path string, pairs []match.Pair) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := Write(f, pairs); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}

func writeBlock(w *bufio.Writer, p match.Pair) {
	coords := make([]string, len(p.Overlap))
	for i, pt := range p.Overlap {
		coords[i] = "(" + formatCoord(pt.Lon()) + ", " + formatCoord(pt.Lat()) + ")"
	}

	fmt.Fprintf(w, "%s[%s]\n", labelOverlap, strings.Join(coords, ", "))
	fmt.Fprintf(w, "%s%s%s%s\n", labelEnMAP, p.A.ID, labelDatetime, FormatDatetime(p.A.Time))
	fmt.Fprintf(w, "%s%s%s%s\n", labelTROPOMI, p.B.ID, labelDatetime, FormatDatetime(p.B.Time))
	fmt.Fprintf(w, "%s%s\n", labelClouds, formatQuality(p.A))
	fmt.Fprintf(w, "%s%s\n", labelTimeDiff, FormatDuration(p.TimeDifference))
	fmt.Fprintln(w, Delimiter)
}
