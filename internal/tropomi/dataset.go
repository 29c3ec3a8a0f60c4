// Package tropomi extracts Sentinel-5P TROPOMI swath footprints and refines
// their acquisition time to scanline precision.
package tropomi

import (
	"errors"
	"fmt"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/paulmach/orb"

	"github.com/rkm/collocate/pkg/footprint"
)

// ErrDataset is returned when a TROPOMI file cannot be opened or an expected
// variable or attribute is missing or has an unexpected type.
var ErrDataset = errors.New("tropomi dataset error")

// Epoch is the reference time of the /PRODUCT/time variable.
var Epoch = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)

// footprintGroups is the group path holding the gml:posList footprint.
var footprintGroups = []string{
	"METADATA",
	"EOP_METADATA",
	"om:featureOfInterest",
	"eop:multiExtentOf",
	"gml:surfaceMembers",
	"gml:exterior",
}

const posListAttr = "gml:posList"

// Dataset is a read-only handle on one TROPOMI L2 file. Handles are opened,
// queried and closed by a single caller and never shared.
type Dataset interface {
	// Footprint returns the swath outline in (lon, lat) order.
	Footprint() (orb.Ring, error)

	// Latitude returns the [scanline][ground_pixel] latitude grid.
	Latitude() ([][]float64, error)

	// Longitude returns the [scanline][ground_pixel] longitude grid.
	Longitude() ([][]float64, error)

	// DeltaTime returns the per-scanline offset in milliseconds from the
	// file's time reference.
	DeltaTime() ([]float64, error)

	// TimeOffset returns the file's time reference relative to Epoch,
	// truncated to whole seconds.
	TimeOffset() (time.Duration, error)

	Close() error
}

// Opener opens a Dataset by path.
type Opener func(path string) (Dataset, error)

type netcdfDataset struct {
	path    string
	root    api.Group
	product api.Group
}

// OpenNetCDF opens a TROPOMI NetCDF4 file.
func OpenNetCDF(path string) (Dataset, error) {
	root, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDataset, path, err)
	}

	product, err := root.GetGroup("PRODUCT")
	if err != nil {
		root.Close()
		return nil, fmt.Errorf("%w: %s has no PRODUCT group: %v", ErrDataset, path, err)
	}

	return &netcdfDataset{path: path, root: root, product: product}, nil
}

func (d *netcdfDataset) Close() error {
	d.root.Close()
	return nil
}

func (d *netcdfDataset) Footprint() (orb.Ring, error) {
	g := d.root
	for _, name := range footprintGroups {
		sub, err := g.GetGroup(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: group %s: %v", ErrDataset, d.path, name, err)
		}
		g = sub
	}

	v, ok := g.Attributes().Get(posListAttr)
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing %s attribute", ErrDataset, d.path, posListAttr)
	}
	ring, err := posListRing(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataset, d.path, err)
	}
	return ring, nil
}

func (d *netcdfDataset) Latitude() ([][]float64, error)  { return d.grid("latitude") }
func (d *netcdfDataset) Longitude() ([][]float64, error) { return d.grid("longitude") }

func (d *netcdfDataset) DeltaTime() ([]float64, error) {
	v, err := d.values("delta_time")
	if err != nil {
		return nil, err
	}
	row, err := firstRow(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: delta_time: %v", ErrDataset, d.path, err)
	}
	return row, nil
}

func (d *netcdfDataset) TimeOffset() (time.Duration, error) {
	v, err := d.values("time")
	if err != nil {
		return 0, err
	}
	offset, err := wholeSeconds(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: time: %v", ErrDataset, d.path, err)
	}
	return offset, nil
}

func (d *netcdfDataset) values(name string) (any, error) {
	vg, err := d.product.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: variable %s: %v", ErrDataset, d.path, name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading %s: %v", ErrDataset, d.path, name, err)
	}
	return v, nil
}

func (d *netcdfDataset) grid(name string) ([][]float64, error) {
	v, err := d.values(name)
	if err != nil {
		return nil, err
	}
	g, err := firstSlice(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s: %v", ErrDataset, d.path, name, err)
	}
	return g, nil
}

// posListRing converts the footprint attribute value to a (lon, lat) ring.
func posListRing(v any) (orb.Ring, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%s is %T, not a string", posListAttr, v)
	}
	return footprint.ParsePosList(s)
}

// firstSlice returns the first time slice of a [time, scanline, ground_pixel]
// variable. A variable already read as 2-D is returned as is.
func firstSlice(v any) ([][]float64, error) {
	switch g := v.(type) {
	case [][][]float32:
		if len(g) == 0 {
			return nil, fmt.Errorf("empty time dimension")
		}
		return toFloat64Rows(g[0])
	case [][][]float64:
		if len(g) == 0 {
			return nil, fmt.Errorf("empty time dimension")
		}
		return g[0], nil
	default:
		return toFloat64Rows(v)
	}
}

// firstRow returns row 0 of a [time, scanline] variable.
func firstRow(v any) ([]float64, error) {
	rows, err := toFloat64Rows(v)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty time dimension")
	}
	return rows[0], nil
}

// wholeSeconds reads element 0 of a [time] variable in seconds, dropping any
// fractional part.
func wholeSeconds(v any) (time.Duration, error) {
	var secs int64
	switch t := v.(type) {
	case []int32:
		if len(t) == 0 {
			return 0, fmt.Errorf("empty time variable")
		}
		secs = int64(t[0])
	case []int64:
		if len(t) == 0 {
			return 0, fmt.Errorf("empty time variable")
		}
		secs = t[0]
	case []float64:
		if len(t) == 0 {
			return 0, fmt.Errorf("empty time variable")
		}
		secs = int64(t[0])
	case []float32:
		if len(t) == 0 {
			return 0, fmt.Errorf("empty time variable")
		}
		secs = int64(t[0])
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	return time.Duration(secs) * time.Second, nil
}

func toFloat64Rows(v any) ([][]float64, error) {
	switch rows := v.(type) {
	case [][]float64:
		return rows, nil
	case [][]float32:
		return convertRows(rows), nil
	case [][]int32:
		return convertRows(rows), nil
	case [][]int64:
		return convertRows(rows), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func convertRows[T float32 | int32 | int64](rows [][]T) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, x := range row {
			out[i][j] = float64(x)
		}
	}
	return out
}
