package adapter

import (
	"fmt"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"gonum.org/v1/gonum/spatial/r3"
)

// defaultArrowOffset is the arrow length in pixels without image size metadata
const defaultArrowOffset = 10

// arrowCodec writes the arrow tip as a point and its text as the finding.
// The tail is not stored and is placed a tenth of the image away on read.
type arrowCodec struct{}

func (arrowCodec) Decode(s *Setup) (*annotation.Annotation, error) {
	pts, err := s.Points()
	if err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: arrow has no points", ErrMalformedGroup)
	}
	tip := pts[0]
	tail := tip
	if len(pts) > 1 {
		tail = pts[1]
	} else if tail, err = arrowTail(s, tip); err != nil {
		return nil, err
	}
	a := s.Annotation
	a.Data.Handles.Points = []r3.Vec{tip, tail}
	a.Data.Handles.ArrowFirst = true
	a.Data.Text = a.Label
	return a, nil
}

// arrowTail offsets the tip by a tenth of the image rows and columns
func arrowTail(s *Setup, tip r3.Vec) (r3.Vec, error) {
	dx, dy := float64(defaultArrowOffset), float64(defaultArrowOffset)
	if px := s.Env.pixel(s.ImageID); px != nil && px.Rows > 0 && px.Columns > 0 {
		dx, dy = float64(px.Columns)/10, float64(px.Rows)/10
	}
	if s.Coordinate.Is3D || s.ImageID == "" {
		if s.Plane != nil {
			tail := r3.Add(tip, r3.Scale(dx*s.Plane.ColumnPixelSpacing, s.Plane.RowCosines))
			return r3.Add(tail, r3.Scale(dy*s.Plane.RowPixelSpacing, s.Plane.ColumnCosines)), nil
		}
		return r3.Add(tip, r3.Vec{X: dx, Y: dy}), nil
	}
	xy := s.Coordinate.GraphicData
	tail, err := s.Env.converter().ImageToWorld(s.ImageID, [2]float64{xy[0] + dx, xy[1] + dy})
	if err != nil {
		return r3.Vec{}, fmt.Errorf("arrow tail: %w", err)
	}
	return tail, nil
}

func (arrowCodec) Encode(e *Encoding) error {
	h, err := e.Handles(1)
	if err != nil {
		return err
	}
	if e.Args.Points, err = e.Coordinates(h[:1]); err != nil {
		return err
	}
	if text := e.Annotation.Data.Text; text != "" && e.Annotation.Finding == nil {
		f := sr.FreeText(text)
		e.Args.Finding = &f
	}
	return nil
}
