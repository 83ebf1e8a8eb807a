package adapter

import (
	"fmt"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/coords"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"gonum.org/v1/gonum/spatial/r3"
)

// bidirectionalCodec is a long axis and a perpendicular short axis, each its
// own NUM. Handles are long axis start, long axis end, short axis start,
// short axis end.
type bidirectionalCodec struct{}

func (bidirectionalCodec) Decode(s *Setup) (*annotation.Annotation, error) {
	long := s.Group.NumByConcept(sr.LongAxis)
	if long == nil {
		long = s.Num
	}
	short := s.Group.NumByConcept(sr.ShortAxis)
	if short == nil {
		return nil, fmt.Errorf("%w: %s has no short axis", ErrMalformedGroup, s.Group.TrackingIdentifier)
	}
	longPts, err := s.PointsOf(long.Coordinate)
	if err != nil {
		return nil, err
	}
	shortPts, err := s.PointsOf(short.Coordinate)
	if err != nil {
		return nil, err
	}
	if len(longPts) < 2 || len(shortPts) < 2 {
		return nil, fmt.Errorf("%w: bidirectional axes have %d and %d points", ErrMalformedGroup, len(longPts), len(shortPts))
	}

	a := s.Annotation
	a.Data.Handles.Points = []r3.Vec{longPts[0], longPts[1], shortPts[0], shortPts[1]}
	stats := &annotation.Stats{}
	if long.Value != nil {
		stats.Length = annotation.Float(*long.Value)
		stats.LengthUnit = unitLabel(long.Unit)
	}
	if short.Value != nil {
		stats.Width = annotation.Float(*short.Value)
		stats.WidthUnit = unitLabel(short.Unit)
	}
	a.SetStats(s.ImageID, stats)
	return a, nil
}

// Encode picks the long axis by distance; handle order is not trusted
// after editing in the viewer.
func (bidirectionalCodec) Encode(e *Encoding) error {
	h, err := e.Handles(4)
	if err != nil {
		return err
	}
	long, short := []r3.Vec{h[0], h[1]}, []r3.Vec{h[2], h[3]}
	if coords.Distance(h[2], h[3]) > coords.Distance(h[0], h[1]) {
		long, short = short, long
	}
	if e.Args.LongAxis, err = e.Coordinates(long); err != nil {
		return err
	}
	if e.Args.ShortAxis, err = e.Coordinates(short); err != nil {
		return err
	}

	stats := e.Stats()
	longValue, shortValue := stats.Length, stats.Width
	longUnit, shortUnit := stats.LengthUnit, stats.WidthUnit
	if longValue != nil && shortValue != nil && *shortValue > *longValue {
		longValue, shortValue = shortValue, longValue
		longUnit, shortUnit = shortUnit, longUnit
	}
	e.Args.LongAxisLength = measured(longValue, longUnit)
	e.Args.ShortAxisLength = measured(shortValue, shortUnit)
	return nil
}

func unitLabel(c *sr.CodedConcept) string {
	if c == nil {
		return ""
	}
	return sr.UnitLabel(*c)
}
