package sr

import (
	"errors"
	"fmt"

	"github.com/jpfielding/dicomsr.go/pkg/dicom"
)

// RepresentationKind is the TID 300 geometry a measurement is written with
type RepresentationKind int

const (
	KindPoint RepresentationKind = iota + 1
	KindPolyline
	KindLength
	KindCircle
	KindEllipse
	KindCobbAngle
	KindBidirectional
)

var kindNames = map[RepresentationKind]string{
	KindPoint:         "Point",
	KindPolyline:      "Polyline",
	KindLength:        "Length",
	KindCircle:        "Circle",
	KindEllipse:       "Ellipse",
	KindCobbAngle:     "CobbAngle",
	KindBidirectional: "Bidirectional",
}

func (k RepresentationKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RepresentationKind(%d)", int(k))
}

// MarshalText writes the kind name
func (k RepresentationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var (
	// ErrInvalidArgs marks measurement arguments that cannot be written
	ErrInvalidArgs = errors.New("invalid measurement arguments")
)

// Coordinate is a point in image space (column, row) or, when Is3D, in patient space
type Coordinate struct {
	X, Y, Z float64
	Is3D    bool
}

// Point2 creates an image-space coordinate
func Point2(x, y float64) Coordinate {
	return Coordinate{X: x, Y: y}
}

// Point3 creates a patient-space coordinate
func Point3(x, y, z float64) Coordinate {
	return Coordinate{X: x, Y: y, Z: z, Is3D: true}
}

// Measured is a numeric value with its unit
type Measured struct {
	Value float64
	Unit  CodedConcept
}

// Measure creates a measured value
func Measure(v float64, unit CodedConcept) *Measured {
	return &Measured{Value: v, Unit: unit}
}

// Args are the fields a TID 300 measurement is written from
type Args struct {
	TrackingIdentifierTextValue   string
	TrackingUniqueIdentifier      string
	Finding                       *CodedConcept
	FindingSites                  []CodedConcept
	ReferencedSOPSequence         *SOPReference
	ReferencedFrameOfReferenceUID string
	Use3DSpatialCoordinates       bool

	// Points for every kind but Bidirectional
	Points []Coordinate
	// Bidirectional axes, two points each
	LongAxis  []Coordinate
	ShortAxis []Coordinate

	Distance        *Measured
	Perimeter       *Measured
	Area            *Measured
	Radius          *Measured
	Width           *Measured
	Angle           *Measured
	LongAxisLength  *Measured
	ShortAxisLength *Measured

	Mean   *Measured
	StdDev *Measured
	Max    *Measured
	Min    *Measured
}

// Measurement is one TID 300 measurement of a given kind
type Measurement struct {
	Kind RepresentationKind
	Args Args
}

// NewMeasurement validates the point counts and references for the kind
func NewMeasurement(kind RepresentationKind, args Args) (*Measurement, error) {
	if _, ok := kindNames[kind]; !ok {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidArgs, kind)
	}
	if args.TrackingIdentifierTextValue == "" {
		return nil, fmt.Errorf("%w: %s has no tracking identifier", ErrInvalidArgs, kind)
	}
	if args.Use3DSpatialCoordinates {
		if args.ReferencedFrameOfReferenceUID == "" {
			return nil, fmt.Errorf("%w: %s in 3D needs a frame of reference", ErrInvalidArgs, kind)
		}
	} else if args.ReferencedSOPSequence == nil || args.ReferencedSOPSequence.ReferencedSOPInstanceUID == "" {
		return nil, fmt.Errorf("%w: %s in 2D needs a referenced SOP instance", ErrInvalidArgs, kind)
	}

	count := func(name string, pts []Coordinate, min, max int) error {
		if len(pts) < min || (max > 0 && len(pts) > max) {
			return fmt.Errorf("%w: %s %s has %d points", ErrInvalidArgs, kind, name, len(pts))
		}
		return nil
	}
	var err error
	switch kind {
	case KindPoint:
		err = count("points", args.Points, 1, 0)
	case KindPolyline:
		err = count("points", args.Points, 2, 0)
	case KindLength, KindCircle:
		err = count("points", args.Points, 2, 2)
	case KindEllipse, KindCobbAngle:
		err = count("points", args.Points, 4, 4)
	case KindBidirectional:
		err = errors.Join(
			count("long axis", args.LongAxis, 2, 2),
			count("short axis", args.ShortAxis, 2, 2),
		)
	}
	if err != nil {
		return nil, err
	}
	return &Measurement{Kind: kind, Args: args}, nil
}

// primaryConcept is the concept of the NUM that carries the measurement geometry
func (m *Measurement) primaryConcept() (CodedConcept, *Measured) {
	a := &m.Args
	switch m.Kind {
	case KindPoint:
		return Center, nil
	case KindLength:
		return Length, a.Distance
	case KindPolyline:
		if a.Perimeter == nil && a.Distance != nil {
			return Length, a.Distance
		}
		return Perimeter, a.Perimeter
	case KindCircle, KindEllipse:
		return Area, a.Area
	case KindCobbAngle:
		return CobbAngle, a.Angle
	}
	return CodedConcept{}, nil
}

func (m *Measurement) graphicType() string {
	switch m.Kind {
	case KindPoint:
		return GraphicPoint
	case KindCircle:
		if m.Args.Use3DSpatialCoordinates {
			// SCOORD3D has no CIRCLE; center and edge point are written as is
			return GraphicMultiPoint
		}
		return GraphicCircle
	case KindEllipse:
		return GraphicEllipse
	}
	return GraphicPolyline
}

func (m *Measurement) coordinate(graphicType string, pts []Coordinate) *ContentItem {
	a := &m.Args
	if a.Use3DSpatialCoordinates {
		data := make([]float64, 0, len(pts)*3)
		for _, p := range pts {
			data = append(data, p.X, p.Y, p.Z)
		}
		item := SCoord3D(InferredFrom, graphicType, data, a.ReferencedFrameOfReferenceUID)
		if ref := a.ReferencedSOPSequence; ref != nil && ref.ReferencedSOPInstanceUID != "" {
			// the source image keeps the plane the points were drawn on
			src := *ref
			item.Add(Image(SelectedFrom, &src))
		}
		return item
	}
	data := make([]float64, 0, len(pts)*2)
	for _, p := range pts {
		data = append(data, p.X, p.Y)
	}
	ref := *a.ReferencedSOPSequence
	return SCoord(InferredFrom, graphicType, data, &ref)
}

func (m *Measurement) num(concept CodedConcept, v *Measured, defaultUnit CodedConcept, pts []Coordinate) *ContentItem {
	var value *float64
	unit := defaultUnit
	if v != nil {
		val := v.Value
		value = &val
		if !v.Unit.IsZero() {
			unit = v.Unit
		}
	}
	return NumItem(Contains, concept, value, unit).Add(m.coordinate(m.graphicType(), pts))
}

// ContentItems returns the NUM items of the measurement, each with its spatial coordinate
func (m *Measurement) ContentItems() []*ContentItem {
	a := &m.Args
	if m.Kind == KindBidirectional {
		return []*ContentItem{
			m.num(LongAxis, a.LongAxisLength, Millimeter, a.LongAxis),
			m.num(ShortAxis, a.ShortAxisLength, Millimeter, a.ShortAxis),
		}
	}

	primary, value := m.primaryConcept()
	items := []*ContentItem{m.num(primary, value, defaultUnit(primary), a.Points)}

	aux := []struct {
		concept CodedConcept
		value   *Measured
	}{
		{Length, a.Distance},
		{Perimeter, a.Perimeter},
		{Area, a.Area},
		{Radius, a.Radius},
		{Width, a.Width},
		{Mean, a.Mean},
		{StandardDeviation, a.StdDev},
		{Maximum, a.Max},
		{Minimum, a.Min},
	}
	for _, x := range aux {
		if x.value == nil || x.concept.Equal(primary) {
			continue
		}
		items = append(items, m.num(x.concept, x.value, defaultUnit(x.concept), a.Points))
	}
	return items
}

// Group returns the TID 1501 Measurement Group container for the measurement
func (m *Measurement) Group() *ContentItem {
	a := &m.Args
	uid := a.TrackingUniqueIdentifier
	if uid == "" {
		uid = dicom.GenerateUID("")
	}
	group := Container(Contains, MeasurementGroupConcept,
		Text(HasObsContext, TrackingIdentifier, a.TrackingIdentifierTextValue),
		UIDRef(HasObsContext, TrackingUniqueIdentifier, uid),
	)
	if a.Finding != nil && !a.Finding.IsZero() {
		group.Add(Code(Contains, Finding, *a.Finding))
	}
	for _, site := range a.FindingSites {
		group.Add(Code(HasConceptMod, FindingSite, site))
	}
	return group.Add(m.ContentItems()...)
}

// Reference returns the SOP reference of the source image, if any
func (m *Measurement) Reference() *SOPReference {
	return m.Args.ReferencedSOPSequence
}

func defaultUnit(concept CodedConcept) CodedConcept {
	switch {
	case concept.Equal(Area):
		return SquareMillimeter
	case concept.Equal(CobbAngle):
		return Degree
	case concept.Equal(Mean), concept.Equal(StandardDeviation), concept.Equal(Maximum),
		concept.Equal(Minimum), concept.Equal(Center):
		return NoUnits
	}
	return Millimeter
}
