package adapter

import (
	"fmt"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/coords"
	"gonum.org/v1/gonum/spatial/r3"
)

// ContourClosureTolerance is the largest first to last point distance of a
// closed contour
const ContourClosureTolerance = 1e-5

// freehandCodec is a drawn contour. Closed contours are written with the
// first point repeated at the end; open ones keep their endpoints as handles.
type freehandCodec struct{}

func (freehandCodec) Decode(s *Setup) (*annotation.Annotation, error) {
	pts, err := s.Points()
	if err != nil {
		return nil, err
	}
	if len(pts) < 2 {
		return nil, fmt.Errorf("%w: contour has %d points", ErrMalformedGroup, len(pts))
	}
	a := s.Annotation
	closed := coords.Distance(pts[0], pts[len(pts)-1]) < ContourClosureTolerance
	if closed {
		pts = pts[:len(pts)-1]
	} else {
		a.Data.Handles.Points = []r3.Vec{pts[0], pts[len(pts)-1]}
	}
	a.Data.Contour = &annotation.Contour{Polyline: pts, Closed: closed}
	s.RestoreStats()
	return a, nil
}

func (freehandCodec) Encode(e *Encoding) error {
	c := e.Annotation.Data.Contour
	if c == nil || len(c.Polyline) < 2 {
		return fmt.Errorf("%w: %s %s has no contour", ErrInvalidAnnotation, e.Annotation.ToolName, e.Annotation.ID)
	}
	pts := c.Polyline
	if c.Closed {
		pts = append(append([]r3.Vec(nil), pts...), pts[0])
	}
	var err error
	if e.Args.Points, err = e.Coordinates(pts); err != nil {
		return err
	}
	stats := e.Stats()
	metricArgs(e.Args, stats)
	if !c.Closed {
		e.Args.Distance = measured(stats.Length, stats.LengthUnit)
	}
	return nil
}
