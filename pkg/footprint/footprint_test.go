package footprint

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
)

func TestParseKMLCoordinates(t *testing.T) {
	ring, err := ParseKMLCoordinates("  10.5,45.25,0 11,45.25,0\n11,46,0 10.5,46,0 10.5,45.25,0 ")
	if err != nil {
		t.Fatalf("ParseKMLCoordinates() error: %v", err)
	}

	if len(ring) != 5 {
		t.Fatalf("ParseKMLCoordinates() length = %d, want 5", len(ring))
	}

	if ring[0] != (orb.Point{10.5, 45.25}) {
		t.Errorf("first vertex = %v, want [10.5 45.25]", ring[0])
	}
	if ring[2] != (orb.Point{11, 46}) {
		t.Errorf("third vertex = %v, want [11 46]", ring[2])
	}
}

func TestParseKMLCoordinates_Invalid(t *testing.T) {
	tests := []string{
		"",
		"10.5",
		"10.5,abc,0",
		"x,45,0",
		"1,2,3,4",
	}

	for _, input := range tests {
		if _, err := ParseKMLCoordinates(input); err == nil {
			t.Errorf("ParseKMLCoordinates(%q) should return error", input)
		}
	}
}

func TestParsePosList_SwapsToLonLat(t *testing.T) {
	ring, err := ParsePosList("72.5 -27.25 34.0 -27.25 34.0 43.0")
	if err != nil {
		t.Fatalf("ParsePosList() error: %v", err)
	}

	want := orb.Ring{{-27.25, 72.5}, {-27.25, 34}, {43, 34}}
	if len(ring) != len(want) {
		t.Fatalf("ParsePosList() length = %d, want %d", len(ring), len(want))
	}
	for i := range want {
		if ring[i] != want[i] {
			t.Errorf("vertex %d = %v, want %v", i, ring[i], want[i])
		}
	}
}

func TestParsePosList_OddCount(t *testing.T) {
	if _, err := ParsePosList("1.0 2.0 3.0"); err == nil {
		t.Error("ParsePosList() should reject odd number of values")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		ring    orb.Ring
		wantErr bool
	}{
		{"triangle", orb.Ring{{0, 0}, {1, 0}, {0, 1}}, false},
		{"closed square", orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}, false},
		{"two points", orb.Ring{{0, 0}, {1, 0}}, true},
		{"repeated points", orb.Ring{{0, 0}, {1, 0}, {0, 0}, {1, 0}}, true},
		{"nan", orb.Ring{{0, 0}, {1, 0}, {math.NaN(), 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.ring)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRing) {
					t.Errorf("Validate() error = %v, want ErrInvalidRing", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestClosed(t *testing.T) {
	open := orb.Ring{{0, 0}, {1, 0}, {1, 1}}
	closed := Closed(open)

	if len(closed) != 4 || closed[3] != open[0] {
		t.Errorf("Closed() = %v, want ring ending in %v", closed, open[0])
	}
	if len(open) != 3 {
		t.Error("Closed() modified its input")
	}

	again := Closed(closed)
	if len(again) != 4 {
		t.Errorf("Closed() on a closed ring length = %d, want 4", len(again))
	}
}

func TestComputeBBox(t *testing.T) {
	ring := orb.Ring{{-27, 72}, {-27, 34}, {43, 34}, {43, 72}}
	bbox, err := ComputeBBox(ring)
	if err != nil {
		t.Fatalf("ComputeBBox() error: %v", err)
	}

	want := []float64{-27, 34, 43, 72}
	for i := range want {
		if bbox[i] != want[i] {
			t.Errorf("bbox[%d] = %f, want %f", i, bbox[i], want[i])
		}
	}

	if _, err := ComputeBBox(nil); err == nil {
		t.Error("ComputeBBox(nil) should return error")
	}
}

func TestSameDate(t *testing.T) {
	a := time.Date(2024, 2, 1, 23, 59, 59, 0, time.UTC)
	b := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	c := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)

	if !SameDate(a, b) {
		t.Error("SameDate() = false for same day")
	}
	if SameDate(a, c) {
		t.Error("SameDate() = true for different days")
	}
}

func TestWithTimeDoesNotMutate(t *testing.T) {
	orig := Footprint{ID: "x", Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	refined := orig.WithTime(orig.Time.Add(time.Hour))

	if !orig.Time.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("WithTime() mutated the receiver")
	}
	if refined.Time.Sub(orig.Time) != time.Hour {
		t.Errorf("WithTime() time = %v", refined.Time)
	}
}
