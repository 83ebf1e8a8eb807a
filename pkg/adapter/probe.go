package adapter

import (
	"fmt"
	"strings"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/coords"
	"gonum.org/v1/gonum/spatial/r3"
)

// probeCodec is a single point with the statistics under it
type probeCodec struct{}

func (probeCodec) Decode(s *Setup) (*annotation.Annotation, error) {
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
	a := s.Annotation
	a.Data.Handles.Points = pts
	s.RestoreStats()
	return a, nil
}

func (probeCodec) Encode(e *Encoding) error {
	pts, err := e.Handles(1)
	if err != nil {
		return err
	}
	if e.Args.Points, err = e.Coordinates(pts[:1]); err != nil {
		return err
	}
	metricArgs(e.Args, e.Stats())
	return nil
}

// Key image identifier suffixes
const (
	keyImagePoint       = "Point"
	keyImageSeries      = "Series"
	keyImageSeriesPoint = "SeriesPoint"
)

// keyImageCodec flags an image, or a point on it, as key. It reuses the
// probe geometry and carries its flags in the tracking identifier.
type keyImageCodec struct {
	base Codec
}

func (c keyImageCodec) Decode(s *Setup) (*annotation.Annotation, error) {
	a, err := c.base.Decode(s)
	if err != nil || a == nil {
		return a, err
	}
	a.Data.IsPoint = strings.Contains(s.TrackingIdentifier, keyImagePoint)
	a.Data.SeriesLevel = strings.Contains(s.TrackingIdentifier, keyImageSeries)
	return a, nil
}

func (c keyImageCodec) Encode(e *Encoding) error {
	a := e.Annotation
	if len(a.Data.Handles.Points) == 0 {
		p, err := placeholderPoint(e)
		if err != nil {
			return err
		}
		placed := *a
		placed.Data.Handles.Points = []r3.Vec{p}
		e.Annotation = &placed
	}
	if err := c.base.Encode(e); err != nil {
		return err
	}
	switch {
	case a.Data.SeriesLevel && a.Data.IsPoint:
		e.Args.TrackingIdentifierTextValue += ":" + keyImageSeriesPoint
	case a.Data.SeriesLevel:
		e.Args.TrackingIdentifierTextValue += ":" + keyImageSeries
	case a.Data.IsPoint:
		e.Args.TrackingIdentifierTextValue += ":" + keyImagePoint
	}
	return nil
}

// placeholderPoint is the image center, or the origin without image metadata
func placeholderPoint(e *Encoding) (r3.Vec, error) {
	xy := [2]float64{}
	if px := e.Env.pixel(e.ImageID); px != nil {
		xy = [2]float64{float64(px.Columns) / 2, float64(px.Rows) / 2}
	}
	conv := e.Env.converter()
	if conv == nil {
		return r3.Vec{X: xy[0], Y: xy[1]}, nil
	}
	p, err := conv.ImageToWorld(e.ImageID, xy)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("%w: key image %s: %w", ErrMissingReference, e.Annotation.ID, err)
	}
	return p, nil
}
