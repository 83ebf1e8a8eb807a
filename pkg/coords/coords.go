// Package coords converts measurement points between the viewer's world
// space and the image plane, and between flat SR graphic data and vectors.
package coords

import (
	"errors"
	"fmt"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNoConverter is returned when image space is needed without a converter
	ErrNoConverter = errors.New("no coordinate converter")
	// ErrBadGraphicData marks graphic data that is not a whole number of points
	ErrBadGraphicData = errors.New("graphic data is not a whole number of points")
)

// FlatToPoints splits flat graphic data into vectors of dims (2 or 3) values.
// 2D points get Z = 0.
func FlatToPoints(data []float64, dims int) ([]r3.Vec, error) {
	if dims != 2 && dims != 3 {
		return nil, fmt.Errorf("unsupported dimensions %d", dims)
	}
	if len(data)%dims != 0 {
		return nil, fmt.Errorf("%w: %d values in %dD", ErrBadGraphicData, len(data), dims)
	}
	pts := make([]r3.Vec, 0, len(data)/dims)
	for i := 0; i < len(data); i += dims {
		p := r3.Vec{X: data[i], Y: data[i+1]}
		if dims == 3 {
			p.Z = data[i+2]
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// PointsToFlat writes vectors as flat graphic data
func PointsToFlat(pts []r3.Vec, dims int) []float64 {
	data := make([]float64, 0, len(pts)*dims)
	for _, p := range pts {
		data = append(data, p.X, p.Y)
		if dims == 3 {
			data = append(data, p.Z)
		}
	}
	return data
}

// Use3D reports whether a measurement on an image is written as SCOORD3D:
// only when asked for and the image has a frame of reference to anchor it.
func Use3D(requested bool, plane *annotation.ImagePlane) bool {
	return requested && plane != nil && plane.FrameOfReferenceUID != ""
}

// ImageToWorld converts flat image graphic data to world points
func ImageToWorld(conv annotation.CoordinateConverter, imageID string, data []float64) ([]r3.Vec, error) {
	if conv == nil {
		return nil, ErrNoConverter
	}
	pts, err := FlatToPoints(data, 2)
	if err != nil {
		return nil, err
	}
	for i, p := range pts {
		w, err := conv.ImageToWorld(imageID, [2]float64{p.X, p.Y})
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		pts[i] = w
	}
	return pts, nil
}

// PointsFromCoordinate returns the world points of a SCOORD or SCOORD3D
func PointsFromCoordinate(conv annotation.CoordinateConverter, imageID string, c *sr.SpatialCoordinate) ([]r3.Vec, error) {
	if c.Is3D {
		return FlatToPoints(c.GraphicData, 3)
	}
	return ImageToWorld(conv, imageID, c.GraphicData)
}

// ToCoordinates converts world points to the coordinates a measurement is
// written with: unchanged in 3D, projected onto the image plane in 2D.
func ToCoordinates(conv annotation.CoordinateConverter, imageID string, pts []r3.Vec, is3D bool) ([]sr.Coordinate, error) {
	out := make([]sr.Coordinate, 0, len(pts))
	if is3D {
		for _, p := range pts {
			out = append(out, sr.Point3(p.X, p.Y, p.Z))
		}
		return out, nil
	}
	if conv == nil {
		return nil, ErrNoConverter
	}
	for i, p := range pts {
		xy, err := conv.WorldToImage(imageID, p)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out = append(out, sr.Point2(xy[0], xy[1]))
	}
	return out, nil
}

// Distance is the euclidean distance between two world points
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}
