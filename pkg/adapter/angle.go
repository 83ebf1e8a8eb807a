package adapter

import (
	"fmt"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"gonum.org/v1/gonum/spatial/r3"
)

// angleCodec is three handles with the vertex in the middle, written as two
// segments sharing the vertex
type angleCodec struct{}

func (angleCodec) Decode(s *Setup) (*annotation.Annotation, error) {
	pts, err := s.Points()
	if err != nil {
		return nil, err
	}
	if len(pts) < 4 {
		return nil, fmt.Errorf("%w: angle has %d points", ErrMalformedGroup, len(pts))
	}
	a := s.Annotation
	a.Data.Handles.Points = []r3.Vec{pts[0], pts[1], pts[3]}
	restoreAngle(s)
	return a, nil
}

func (angleCodec) Encode(e *Encoding) error {
	h, err := e.Handles(3)
	if err != nil {
		return err
	}
	if e.Args.Points, err = e.Coordinates([]r3.Vec{h[0], h[1], h[1], h[2]}); err != nil {
		return err
	}
	stats := e.Stats()
	e.Args.Angle = measured(stats.Angle, stats.AngleUnit)
	return nil
}

// cobbAngleCodec is the angle between two independent segments
type cobbAngleCodec struct{}

func (cobbAngleCodec) Decode(s *Setup) (*annotation.Annotation, error) {
	pts, err := s.Points()
	if err != nil {
		return nil, err
	}
	if len(pts) < 4 {
		return nil, fmt.Errorf("%w: cobb angle has %d points", ErrMalformedGroup, len(pts))
	}
	a := s.Annotation
	a.Data.Handles.Points = pts[:4]
	restoreAngle(s)
	return a, nil
}

func (cobbAngleCodec) Encode(e *Encoding) error {
	h, err := e.Handles(4)
	if err != nil {
		return err
	}
	if e.Args.Points, err = e.Coordinates(h[:4]); err != nil {
		return err
	}
	stats := e.Stats()
	e.Args.Angle = measured(stats.Angle, stats.AngleUnit)
	return nil
}

func restoreAngle(s *Setup) {
	stats := &annotation.Stats{}
	if s.Num.Value != nil {
		stats.Angle = annotation.Float(*s.Num.Value)
		stats.AngleUnit = unitLabel(s.Num.Unit)
	}
	s.Annotation.SetStats(s.ImageID, stats)
}
