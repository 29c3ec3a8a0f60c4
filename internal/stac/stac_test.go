package stac

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	gostac "github.com/planetlabs/go-stac"
)

func TestNewItem(t *testing.T) {
	acquired := time.Date(2024, 2, 1, 10, 34, 12, 123000000, time.UTC)
	item := NewItem("DT0000061234_001", map[string]any{"type": "Point"}, []float64{10, 45, 10.5, 45.5}, acquired, 1.5)

	if item.Collection != CollectionID {
		t.Errorf("expected collection %s, got %s", CollectionID, item.Collection)
	}
	if item.Properties[PropDatetime] != "2024-02-01T10:34:12.123Z" {
		t.Errorf("unexpected datetime %v", item.Properties[PropDatetime])
	}
	if err := ValidateItem(item); err != nil {
		t.Errorf("ValidateItem() failed: %v", err)
	}

	if _, err := json.Marshal(item); err != nil {
		t.Errorf("item should marshal: %v", err)
	}
}

func TestNewItem_ZeroTime(t *testing.T) {
	item := NewItem("x", map[string]any{"type": "Point"}, []float64{0, 0, 1, 1}, time.Time{}, 0)
	if v, ok := item.Properties[PropDatetime]; !ok || v != nil {
		t.Errorf("expected null datetime, got %v", v)
	}
	if err := ValidateItem(item); err != nil {
		t.Errorf("ValidateItem() failed: %v", err)
	}
}

func TestValidateItem(t *testing.T) {
	valid := func() *gostac.Item {
		return NewItem("a", map[string]any{"type": "Point"}, []float64{0, 0, 1, 1}, time.Unix(0, 0), 3)
	}

	tests := []struct {
		name   string
		modify func(*gostac.Item)
	}{
		{"missing id", func(i *gostac.Item) { i.Id = "" }},
		{"missing geometry", func(i *gostac.Item) { i.Geometry = nil }},
		{"short bbox", func(i *gostac.Item) { i.Bbox = []float64{0, 0, 1} }},
		{"bad datetime", func(i *gostac.Item) { i.Properties[PropDatetime] = "yesterday" }},
		{"missing datetime", func(i *gostac.Item) { delete(i.Properties, PropDatetime) }},
		{"negative diff", func(i *gostac.Item) { i.Properties[PropTimeDiffMinutes] = -1.0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid()
			tt.modify(item)
			if err := ValidateItem(item); !errors.Is(err, ErrInvalidItem) {
				t.Errorf("ValidateItem() error = %v, want ErrInvalidItem", err)
			}
		})
	}
}

func TestValidateBBox(t *testing.T) {
	tests := []struct {
		name    string
		bbox    []float64
		wantErr bool
	}{
		{"valid", []float64{-10, -10, 10, 10}, false},
		{"point", []float64{1, 1, 1, 1}, false},
		{"wrong length", []float64{-10, -10, 0, 10, 10, 100}, true},
		{"west out of range", []float64{-181, 0, 10, 10}, true},
		{"north out of range", []float64{0, 0, 10, 91}, true},
		{"west greater than east", []float64{10, 0, -10, 10}, true},
		{"south greater than north", []float64{0, 10, 10, -10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBBox(tt.bbox)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBBox() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestItemCollection(t *testing.T) {
	ic := NewItemCollection(nil)
	if ic.Type != "FeatureCollection" || ic.NumberReturned != 0 || ic.Features == nil {
		t.Errorf("unexpected empty collection %+v", ic)
	}

	ic.AddLink("derived_from", "closest_pairs_output_2024.txt", "text/plain")
	if len(ic.Links) != 1 || ic.Links[0].Rel != "derived_from" {
		t.Errorf("unexpected links %+v", ic.Links)
	}
}
