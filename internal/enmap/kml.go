// Package enmap extracts EnMAP tile footprints from the KML acquisition
// metadata container.
package enmap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/rkm/collocate/pkg/footprint"
)

// ErrParse is returned for malformed KML or a placemark missing an expected
// field. It is fatal for a run.
var ErrParse = errors.New("enmap metadata parse error")

const kmlNamespace = "http://www.opengis.net/kml/2.2"

type placemark struct {
	Name        string        `xml:"name"`
	Data        []extendedVal `xml:"ExtendedData>Data"`
	Coordinates string        `xml:"Polygon>outerBoundaryIs>LinearRing>coordinates"`
}

type extendedVal struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

func (p *placemark) data(name string) (string, bool) {
	for _, d := range p.Data {
		if d.Name == name {
			return d.Value, true
		}
	}
	return "", false
}

// Outline is a placemark name and its footprint ring.
type Outline struct {
	Name    string
	Polygon orb.Ring
}

// ParseFile parses the KML file at path. See Parse.
func ParseFile(path string, filter DateFilter) ([]footprint.Footprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	fps, err := Parse(f, filter)
	if err != nil {
		return nil, err
	}
	for i := range fps {
		fps[i].Path = path
	}
	return fps, nil
}

// Parse returns the footprints of every placemark acquired within filter, in
// document order.
func Parse(r io.Reader, filter DateFilter) ([]footprint.Footprint, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var fps []footprint.Footprint
	err := decodePlacemarks(r, func(pm *placemark) error {
		name := strings.TrimSpace(pm.Name)
		if name == "" {
			return fmt.Errorf("placemark without name")
		}

		clouds, ok := pm.data("clouds")
		if !ok {
			return fmt.Errorf("placemark %s: missing clouds", name)
		}
		date, ok := pm.data("date")
		if !ok {
			return fmt.Errorf("placemark %s: missing date", name)
		}
		clock, ok := pm.data("time")
		if !ok {
			return fmt.Errorf("placemark %s: missing time", name)
		}

		acquired, err := ParseAcquisitionTime(date, clock)
		if err != nil {
			return fmt.Errorf("placemark %s: %v", name, err)
		}
		if !filter.Match(acquired) {
			return nil
		}

		quality, err := strconv.ParseFloat(strings.TrimSpace(clouds), 64)
		if err != nil {
			return fmt.Errorf("placemark %s: invalid clouds %q", name, clouds)
		}

		ring, err := outline(pm)
		if err != nil {
			return fmt.Errorf("placemark %s: %v", name, err)
		}

		fps = append(fps, footprint.Footprint{
			ID:          name,
			Polygon:     ring,
			Time:        acquired,
			Quality:     &quality,
			QualityText: clouds,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fps, nil
}

// OutlinesFile parses the KML file at path. See Outlines.
func OutlinesFile(path string) ([]Outline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()
	return Outlines(f)
}

// Outlines returns the name and ring of every named placemark regardless of
// acquisition date, in document order.
func Outlines(r io.Reader) ([]Outline, error) {
	var out []Outline
	err := decodePlacemarks(r, func(pm *placemark) error {
		name := strings.TrimSpace(pm.Name)
		if name == "" {
			return nil
		}
		ring, err := outline(pm)
		if err != nil {
			return fmt.Errorf("placemark %s: %v", name, err)
		}
		out = append(out, Outline{Name: name, Polygon: ring})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func outline(pm *placemark) (orb.Ring, error) {
	if strings.TrimSpace(pm.Coordinates) == "" {
		return nil, fmt.Errorf("missing polygon coordinates")
	}
	ring, err := footprint.ParseKMLCoordinates(pm.Coordinates)
	if err != nil {
		return nil, err
	}
	if err := footprint.Validate(ring); err != nil {
		return nil, err
	}
	return ring, nil
}

// decodePlacemarks streams the document and calls fn for every Placemark
// element at any depth.
func decodePlacemarks(r io.Reader, fn func(*placemark) error) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Placemark" {
			continue
		}
		if start.Name.Space != "" && start.Name.Space != kmlNamespace {
			continue
		}

		var pm placemark
		if err := dec.DecodeElement(&pm, &start); err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
		if err := fn(&pm); err != nil {
			return fmt.Errorf("%w: %v", ErrParse, err)
		}
	}
}
