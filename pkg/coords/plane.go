package coords

import (
	"errors"
	"fmt"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoImagePlane is returned when an image has no usable plane geometry
var ErrNoImagePlane = errors.New("no image plane")

// PlaneConverter converts with the image plane of the metadata provider:
//
//	world = position + rowCosines*x*columnSpacing + columnCosines*y*rowSpacing
//
// where (x, y) is (column, row).
type PlaneConverter struct {
	Metadata annotation.MetadataProvider
}

// NewPlaneConverter creates a converter over a metadata provider
func NewPlaneConverter(md annotation.MetadataProvider) *PlaneConverter {
	return &PlaneConverter{Metadata: md}
}

func (c *PlaneConverter) plane(imageID string) (*annotation.ImagePlane, error) {
	if c == nil || c.Metadata == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoImagePlane, imageID)
	}
	p, ok := c.Metadata.ImagePlane(imageID)
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoImagePlane, imageID)
	}
	if p.RowPixelSpacing == 0 || p.ColumnPixelSpacing == 0 {
		return nil, fmt.Errorf("%w: %s has zero pixel spacing", ErrNoImagePlane, imageID)
	}
	return p, nil
}

// ImageToWorld implements annotation.CoordinateConverter
func (c *PlaneConverter) ImageToWorld(imageID string, xy [2]float64) (r3.Vec, error) {
	p, err := c.plane(imageID)
	if err != nil {
		return r3.Vec{}, err
	}
	w := r3.Add(p.ImagePositionPatient, r3.Scale(xy[0]*p.ColumnPixelSpacing, p.RowCosines))
	return r3.Add(w, r3.Scale(xy[1]*p.RowPixelSpacing, p.ColumnCosines)), nil
}

// WorldToImage implements annotation.CoordinateConverter. Points off the
// plane are projected onto it.
func (c *PlaneConverter) WorldToImage(imageID string, w r3.Vec) ([2]float64, error) {
	p, err := c.plane(imageID)
	if err != nil {
		return [2]float64{}, err
	}
	d := r3.Sub(w, p.ImagePositionPatient)
	return [2]float64{
		r3.Dot(d, p.RowCosines) / p.ColumnPixelSpacing,
		r3.Dot(d, p.ColumnCosines) / p.RowPixelSpacing,
	}, nil
}
