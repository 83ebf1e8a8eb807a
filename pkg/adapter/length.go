package adapter

import (
	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
)

// lengthCodec is a two point distance
type lengthCodec struct{}

func (lengthCodec) Decode(s *Setup) (*annotation.Annotation, error) {
	pts, err := s.Points()
	if err != nil {
		return nil, err
	}
	a := s.Annotation
	a.Data.Handles.Points = pts
	stats := s.RestoreStats()
	if s.Num.Value != nil {
		stats.Length = annotation.Float(*s.Num.Value)
		if s.Num.Unit != nil {
			stats.LengthUnit = sr.UnitLabel(*s.Num.Unit)
		}
	}
	return a, nil
}

func (lengthCodec) Encode(e *Encoding) error {
	pts, err := e.Handles(2)
	if err != nil {
		return err
	}
	if e.Args.Points, err = e.Coordinates(pts[:2]); err != nil {
		return err
	}
	stats := e.Stats()
	e.Args.Distance = measured(stats.Length, stats.LengthUnit)
	return nil
}

// ultrasoundDirectionalCodec is a two point direction without values
type ultrasoundDirectionalCodec struct{}

func (ultrasoundDirectionalCodec) Decode(s *Setup) (*annotation.Annotation, error) {
	pts, err := s.Points()
	if err != nil {
		return nil, err
	}
	a := s.Annotation
	a.Data.Handles.Points = pts
	a.SetStats(s.ImageID, &annotation.Stats{})
	return a, nil
}

func (ultrasoundDirectionalCodec) Encode(e *Encoding) error {
	pts, err := e.Handles(2)
	if err != nil {
		return err
	}
	e.Args.Points, err = e.Coordinates(pts[:2])
	return err
}
