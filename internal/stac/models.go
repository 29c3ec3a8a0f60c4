// Package stac provides STAC types for collocation results, wrapping
// planetlabs/go-stac for core types.
package stac

import (
	"time"

	gostac "github.com/planetlabs/go-stac"
)

// Version is the STAC version written into every item.
const Version = "1.0.0"

// CollectionID is the collection every collocation item belongs to.
const CollectionID = "enmap-tropomi-collocation"

// Re-export core types from planetlabs/go-stac for convenience
type (
	Item = gostac.Item
	Link = gostac.Link
)

// Collocation property names.
const (
	PropDatetime        = "datetime"
	PropTimeDiffMinutes = "collocation:time_diff_minutes"
	PropInstruments     = "instruments"
)

// ItemCollection represents a STAC ItemCollection (GeoJSON FeatureCollection)
type ItemCollection struct {
	Type           string         `json:"type"` // "FeatureCollection"
	Features       []*gostac.Item `json:"features"`
	Links          []*gostac.Link `json:"links"`
	NumberReturned int            `json:"numberReturned"`
}

// NewItemCollection creates a new ItemCollection with the given items.
func NewItemCollection(items []*gostac.Item) *ItemCollection {
	if items == nil {
		items = make([]*gostac.Item, 0)
	}
	return &ItemCollection{
		Type:           "FeatureCollection",
		Features:       items,
		Links:          make([]*gostac.Link, 0),
		NumberReturned: len(items),
	}
}

// AddLink adds a link to the ItemCollection.
func (ic *ItemCollection) AddLink(rel, href, mediaType string) {
	ic.Links = append(ic.Links, &gostac.Link{
		Rel:  rel,
		Href: href,
		Type: mediaType,
	})
}

// NewItem creates a collocation item for one EnMAP tile. A zero acquired time
// is written as a null datetime.
func NewItem(id string, geometry any, bbox []float64, acquired time.Time, timeDiffMinutes float64) *gostac.Item {
	item := &gostac.Item{
		Version:    Version,
		Id:         id,
		Collection: CollectionID,
		Geometry:   geometry,
		Bbox:       bbox,
		Properties: make(map[string]any),
		Assets:     make(map[string]*gostac.Asset),
		Links:      make([]*gostac.Link, 0),
	}

	if acquired.IsZero() {
		item.Properties[PropDatetime] = nil
	} else {
		item.Properties[PropDatetime] = acquired.UTC().Format(time.RFC3339Nano)
	}
	item.Properties[PropTimeDiffMinutes] = timeDiffMinutes
	item.Properties[PropInstruments] = []string{"hsi", "tropomi"}
	return item
}
