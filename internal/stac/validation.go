package stac

import (
	"errors"
	"fmt"
	"math"
	"time"

	gostac "github.com/planetlabs/go-stac"
)

// ErrInvalidItem is returned for items that would not validate against the
// STAC item schema.
var ErrInvalidItem = errors.New("invalid STAC item")

// ValidateItem checks the fields every collocation item must carry.
func ValidateItem(item *gostac.Item) error {
	if item.Id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidItem)
	}
	if item.Geometry == nil {
		return fmt.Errorf("%w: %s has no geometry", ErrInvalidItem, item.Id)
	}
	if err := ValidateBBox(item.Bbox); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidItem, item.Id, err)
	}

	dt, ok := item.Properties[PropDatetime]
	if !ok {
		return fmt.Errorf("%w: %s has no datetime property", ErrInvalidItem, item.Id)
	}
	if s, isString := dt.(string); isString {
		if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
			return fmt.Errorf("%w: %s: invalid datetime: %w", ErrInvalidItem, item.Id, err)
		}
	}

	diff, ok := item.Properties[PropTimeDiffMinutes].(float64)
	if !ok || diff < 0 || math.IsNaN(diff) || math.IsInf(diff, 0) {
		return fmt.Errorf("%w: %s: time difference must be a non-negative number", ErrInvalidItem, item.Id)
	}
	return nil
}

// ValidateBBox validates a 2D bounding box [west, south, east, north].
func ValidateBBox(bbox []float64) error {
	if len(bbox) != 4 {
		return fmt.Errorf("bbox must have 4 coordinates, got %d", len(bbox))
	}

	west, south, east, north := bbox[0], bbox[1], bbox[2], bbox[3]

	// Validate longitude bounds
	if west < -180 || west > 180 {
		return fmt.Errorf("west longitude must be between -180 and 180, got %f", west)
	}
	if east < -180 || east > 180 {
		return fmt.Errorf("east longitude must be between -180 and 180, got %f", east)
	}

	// Validate latitude bounds
	if south < -90 || south > 90 {
		return fmt.Errorf("south latitude must be between -90 and 90, got %f", south)
	}
	if north < -90 || north > 90 {
		return fmt.Errorf("north latitude must be between -90 and 90, got %f", north)
	}

	// Tiles never cross the antimeridian.
	if west > east {
		return fmt.Errorf("west longitude (%f) must be less than or equal to east longitude (%f)", west, east)
	}
	if south > north {
		return fmt.Errorf("south latitude (%f) must be less than or equal to north latitude (%f)", south, north)
	}

	return nil
}
