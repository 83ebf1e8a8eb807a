package adapter

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/coords"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// circleCodec is a center and a point on the circle
type circleCodec struct{}

func (circleCodec) Decode(s *Setup) (*annotation.Annotation, error) {
	pts, err := s.Points()
	if err != nil {
		return nil, err
	}
	if len(pts) < 2 {
		return nil, fmt.Errorf("%w: circle has %d points", ErrMalformedGroup, len(pts))
	}
	a := s.Annotation
	a.Data.Handles.Points = pts[:2]
	s.RestoreStats()
	return a, nil
}

func (circleCodec) Encode(e *Encoding) error {
	pts, err := e.Handles(2)
	if err != nil {
		return err
	}
	if e.Args.Points, err = e.Coordinates(pts[:2]); err != nil {
		return err
	}
	metricArgs(e.Args, e.Stats())
	return nil
}

// rectangleCodec writes the four corner handles (top left, top right,
// bottom left, bottom right) as a closed polyline around the rectangle.
type rectangleCodec struct{}

func (rectangleCodec) Decode(s *Setup) (*annotation.Annotation, error) {
	var pts []r3.Vec
	var err error
	if s.Coordinate.Is3D {
		pts, err = coords.FlatToPoints(s.Coordinate.GraphicData, 3)
	} else {
		pts, err = coords.ImageToWorld(s.Env.converter(), s.ImageID, s.Coordinate.GraphicData)
	}
	if err != nil {
		return nil, fmt.Errorf("%s points: %w", s.Annotation.ToolName, err)
	}
	if len(pts) < 4 {
		return nil, fmt.Errorf("%w: rectangle has %d points", ErrMalformedGroup, len(pts))
	}
	a := s.Annotation
	a.Data.Handles.Points = []r3.Vec{pts[0], pts[1], pts[3], pts[2]}
	s.RestoreStats()
	return a, nil
}

func (rectangleCodec) Encode(e *Encoding) error {
	h, err := e.Handles(4)
	if err != nil {
		return err
	}
	if e.Args.Points, err = e.Coordinates([]r3.Vec{h[0], h[1], h[3], h[2], h[0]}); err != nil {
		return err
	}
	metricArgs(e.Args, e.Stats())
	return nil
}

// EllipseAxisTolerance is how far from 1 the cosine between an ellipse axis
// and the image column direction may be for the axis to count as vertical
const EllipseAxisTolerance = 1e-4

// ellipseCodec writes the handles (bottom, top, left, right) as major axis
// start and end then minor axis start and end. Reading classifies the axes
// against the image plane; oblique ellipses have no representation.
type ellipseCodec struct{}

func (ellipseCodec) Decode(s *Setup) (*annotation.Annotation, error) {
	pts, err := s.Points()
	if err != nil {
		return nil, err
	}
	if len(pts) < 4 {
		return nil, fmt.Errorf("%w: ellipse has %d points", ErrMalformedGroup, len(pts))
	}
	var handles []r3.Vec
	if s.Plane == nil {
		// no image to orient against: the major axis becomes bottom and top
		slog.Debug("ellipse kept in written axis order", "trackingIdentifier", s.Group.TrackingIdentifier)
		handles = slices.Clone(pts[:4])
	} else {
		var ok bool
		if handles, ok = orientEllipse(pts[:4], s.Plane.RowCosines, s.Plane.ColumnCosines); !ok {
			slog.Warn("oblique ellipse is not supported", "trackingIdentifier", s.Group.TrackingIdentifier, "image", s.ImageID)
			return nil, nil
		}
	}
	a := s.Annotation
	a.Data.Handles.Points = handles
	s.RestoreStats()
	return a, nil
}

// orientEllipse reorders major start, major end, minor start, minor end into
// bottom, top, left, right
func orientEllipse(pts []r3.Vec, rowCos, colCos r3.Vec) ([]r3.Vec, bool) {
	major := [2]r3.Vec{pts[0], pts[1]}
	minor := [2]r3.Vec{pts[2], pts[3]}

	var vertical, horizontal [2]r3.Vec
	switch {
	case isAligned(major, colCos):
		vertical, horizontal = major, minor
	case isAligned(minor, colCos):
		vertical, horizontal = minor, major
	default:
		return nil, false
	}
	// rows grow downwards along the column direction
	bottom, top := vertical[0], vertical[1]
	if r3.Dot(top, colCos) > r3.Dot(bottom, colCos) {
		bottom, top = top, bottom
	}
	left, right := horizontal[0], horizontal[1]
	if r3.Dot(left, rowCos) > r3.Dot(right, rowCos) {
		left, right = right, left
	}
	return []r3.Vec{bottom, top, left, right}, true
}

func isAligned(axis [2]r3.Vec, dir r3.Vec) bool {
	v := r3.Sub(axis[1], axis[0])
	n := r3.Norm(v)
	if n == 0 {
		return false
	}
	cos := math.Abs(r3.Dot(r3.Scale(1/n, v), r3.Unit(dir)))
	return scalar.EqualWithinAbs(cos, 1, EllipseAxisTolerance)
}

func (ellipseCodec) Encode(e *Encoding) error {
	h, err := e.Handles(4)
	if err != nil {
		return err
	}
	bottom, top, left, right := h[0], h[1], h[2], h[3]
	pts := []r3.Vec{bottom, top, left, right}
	if coords.Distance(left, right) > coords.Distance(bottom, top) {
		pts = []r3.Vec{left, right, bottom, top}
	}
	if e.Args.Points, err = e.Coordinates(pts); err != nil {
		return err
	}
	metricArgs(e.Args, e.Stats())
	return nil
}
