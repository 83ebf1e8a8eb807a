package sr

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testStudy  = "1.2.826.0.1.3680043.8.498.10"
	testSeries = "1.2.826.0.1.3680043.8.498.11"
	testSOP    = "1.2.826.0.1.3680043.8.498.12"
	testFoR    = "1.2.826.0.1.3680043.8.498.13"
)

func ref(frame int) *SOPReference {
	return &SOPReference{
		ReferencedSOPClassUID:    dicom.CTImageStorage,
		ReferencedSOPInstanceUID: testSOP,
		ReferencedFrameNumber:    frame,
	}
}

func source() *Source {
	patient := module.PatientModule{PatientID: "PAT-1"}
	patient.SetPatientName("Jane", "Doe", "", "", "")
	return &Source{
		SOPClassUID:       dicom.CTImageStorage,
		SOPInstanceUID:    testSOP,
		SeriesInstanceUID: testSeries,
		StudyInstanceUID:  testStudy,
		Patient:           patient,
		Study:             module.GeneralStudyModule{StudyInstanceUID: testStudy, StudyID: "S1"},
	}
}

func TestNewMeasurement_Validation(t *testing.T) {
	base := func() Args {
		return Args{TrackingIdentifierTextValue: "Cornerstone3DTools:Length", ReferencedSOPSequence: ref(0)}
	}
	tests := []struct {
		name string
		kind RepresentationKind
		args func() Args
		ok   bool
	}{
		{"length two points", KindLength, func() Args {
			a := base()
			a.Points = []Coordinate{Point2(0, 0), Point2(1, 1)}
			return a
		}, true},
		{"length three points", KindLength, func() Args {
			a := base()
			a.Points = []Coordinate{Point2(0, 0), Point2(1, 1), Point2(2, 2)}
			return a
		}, false},
		{"point needs one", KindPoint, func() Args { return base() }, false},
		{"ellipse four", KindEllipse, func() Args {
			a := base()
			a.Points = make([]Coordinate, 4)
			return a
		}, true},
		{"bidirectional axes", KindBidirectional, func() Args {
			a := base()
			a.LongAxis = make([]Coordinate, 2)
			a.ShortAxis = make([]Coordinate, 1)
			return a
		}, false},
		{"2D without reference", KindPoint, func() Args {
			a := base()
			a.ReferencedSOPSequence = nil
			a.Points = []Coordinate{Point2(1, 1)}
			return a
		}, false},
		{"3D without frame of reference", KindPoint, func() Args {
			a := base()
			a.Use3DSpatialCoordinates = true
			a.Points = []Coordinate{Point3(1, 1, 1)}
			return a
		}, false},
		{"missing tracking identifier", KindPoint, func() Args {
			a := base()
			a.TrackingIdentifierTextValue = ""
			a.Points = []Coordinate{Point2(1, 1)}
			return a
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMeasurement(tt.kind, tt.args())
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.kind, m.Kind)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidArgs), "%v", err)
		})
	}
}

func TestMeasurement_ContentItems(t *testing.T) {
	args := Args{
		TrackingIdentifierTextValue: "Cornerstone3DTools:CircleROI",
		ReferencedSOPSequence:       ref(0),
		Points:                      []Coordinate{Point2(10, 10), Point2(15, 10)},
		Area:                        Measure(78.5, SquareMillimeter),
		Radius:                      Measure(5, Millimeter),
		Mean:                        Measure(40, HounsfieldUnit),
	}
	m, err := NewMeasurement(KindCircle, args)
	require.NoError(t, err)

	items := m.ContentItems()
	require.Len(t, items, 3)

	var names []string
	for _, item := range items {
		names = append(names, item.ConceptName.Meaning)
		coord := item.FirstOfType(ValueTypeSCoord)
		require.NotNil(t, coord)
		assert.Equal(t, GraphicCircle, coord.GraphicType)
		assert.Equal(t, []float64{10, 10, 15, 10}, coord.GraphicData)
		img := coord.FirstOfType(ValueTypeImage)
		require.NotNil(t, img)
		assert.Equal(t, testSOP, img.Reference.ReferencedSOPInstanceUID)
	}
	assert.Equal(t, []string{"Area", "Radius", "Mean"}, names)
	assert.Equal(t, 78.5, *items[0].NumericValue)
	assert.True(t, items[2].Unit.Equal(HounsfieldUnit))
}

func TestMeasurement_PrimaryWithoutValue(t *testing.T) {
	m, err := NewMeasurement(KindPoint, Args{
		TrackingIdentifierTextValue:   "Cornerstone3DTools:Probe",
		Use3DSpatialCoordinates:       true,
		ReferencedFrameOfReferenceUID: testFoR,
		Points:                        []Coordinate{Point3(1, 2, 3)},
	})
	require.NoError(t, err)

	items := m.ContentItems()
	require.Len(t, items, 1)
	assert.True(t, items[0].ConceptName.Equal(Center))
	assert.Nil(t, items[0].NumericValue)

	coord := items[0].FirstOfType(ValueTypeSCoord3D)
	require.NotNil(t, coord)
	assert.Equal(t, testFoR, coord.FrameOfReferenceUID)
	assert.Equal(t, []float64{1, 2, 3}, coord.GraphicData)
}

func TestMeasurement_SourceImage3D(t *testing.T) {
	tests := []struct {
		name    string
		ref     *SOPReference
		wantSOP string
	}{
		{name: "source image", ref: ref(2), wantSOP: testSOP},
		{name: "frame of reference only"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMeasurement(KindEllipse, Args{
				TrackingIdentifierTextValue:   "Cornerstone3DTools:EllipticalROI",
				Use3DSpatialCoordinates:       true,
				ReferencedFrameOfReferenceUID: testFoR,
				ReferencedSOPSequence:         tt.ref,
				Points:                        []Coordinate{Point3(0, 10, 5), Point3(0, -10, 5), Point3(-5, 0, 5), Point3(5, 0, 5)},
				Area:                          Measure(157, SquareMillimeter),
			})
			require.NoError(t, err)

			g, err := ParseMeasurementGroup(m.Group())
			require.NoError(t, err)
			coord := g.PrimaryNum().Coordinate
			require.NotNil(t, coord)
			assert.True(t, coord.Is3D)
			assert.Equal(t, testFoR, coord.FrameOfReferenceUID)
			if tt.wantSOP == "" {
				assert.Nil(t, coord.ReferencedSOP)
				return
			}
			require.NotNil(t, coord.ReferencedSOP)
			assert.Equal(t, tt.wantSOP, coord.ReferencedSOP.ReferencedSOPInstanceUID)
			assert.Equal(t, 2, coord.ReferencedSOP.ReferencedFrameNumber)
		})
	}
}

func buildReport(t *testing.T) *Document {
	t.Helper()
	finding := NewCode("52988006", SchemeSCT, "Lesion")
	length, err := NewMeasurement(KindLength, Args{
		TrackingIdentifierTextValue: "Cornerstone3DTools:Length",
		TrackingUniqueIdentifier:    "2.25.1234",
		Finding:                     &finding,
		FindingSites:                []CodedConcept{NewCode("39607008", SchemeSCT, "Lung")},
		ReferencedSOPSequence:       ref(3),
		Points:                      []Coordinate{Point2(10.5, 20.25), Point2(30.75, 40.125)},
		Distance:                    Measure(28.4, Millimeter),
	})
	require.NoError(t, err)
	label := FreeText("my label")
	bidir, err := NewMeasurement(KindBidirectional, Args{
		TrackingIdentifierTextValue: "Cornerstone3DTools:Bidirectional",
		Finding:                     &label,
		ReferencedSOPSequence:       ref(3),
		LongAxis:                    []Coordinate{Point2(0, 0), Point2(10, 0)},
		ShortAxis:                   []Coordinate{Point2(5, -2), Point2(5, 2)},
		LongAxisLength:              Measure(10, Millimeter),
		ShortAxisLength:             Measure(4, Millimeter),
	})
	require.NoError(t, err)

	report := NewReport(ReportOptions{
		PersonObserverName: "Reader^One",
		ContentTime:        time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}, []*Source{source()}, []*MeasurementGroups{NewMeasurementGroups(length, bidir)}, map[string]string{testSOP: testSeries})

	doc, err := report.Document()
	require.NoError(t, err)
	return doc
}

func TestReport_WriteParse(t *testing.T) {
	doc := buildReport(t)
	assert.Equal(t, MeasurementReportTemplate, doc.TemplateIdentifier())

	var buf bytes.Buffer
	_, err := doc.WriteTo(&buf)
	require.NoError(t, err)

	parsed, err := ParseDocument(&buf)
	require.NoError(t, err)
	assert.Equal(t, MeasurementReportTemplate, parsed.TemplateIdentifier())
	assert.True(t, parsed.Title().Equal(ImagingMeasurementReport))
	assert.Equal(t, testStudy, parsed.StudyInstanceUID())
	assert.Equal(t, doc.SOPInstanceUID(), parsed.SOPInstanceUID())
	assert.Equal(t, map[string]string{testSOP: testSeries}, parsed.Evidence())

	result := dicom.ValidateSR(parsed.Dataset)
	assert.True(t, result.IsValid(), "%v", result.Errors)

	groups, err := parsed.MeasurementGroups()
	require.NoError(t, err)
	require.Len(t, groups, 2)

	g, err := ParseMeasurementGroup(groups[0])
	require.NoError(t, err)
	assert.Equal(t, "Cornerstone3DTools:Length", g.TrackingIdentifier)
	assert.Equal(t, "2.25.1234", g.TrackingUniqueIdentifier)
	finding, ok := g.Finding()
	require.True(t, ok)
	assert.Equal(t, "52988006", finding.Value)
	require.Len(t, g.FindingSites(), 1)
	assert.Equal(t, "Lung", g.FindingSites()[0].Meaning)

	primary := g.PrimaryNum()
	require.NotNil(t, primary)
	assert.True(t, primary.ConceptName.Equal(Length))
	require.NotNil(t, primary.Value)
	assert.Equal(t, 28.4, *primary.Value)
	assert.True(t, primary.Unit.Equal(Millimeter))

	want := &SpatialCoordinate{
		GraphicType:   GraphicPolyline,
		GraphicData:   []float64{10.5, 20.25, 30.75, 40.125},
		ReferencedSOP: ref(3),
	}
	if diff := cmp.Diff(want, primary.Coordinate, cmpopts.EquateApprox(0, 1e-4)); diff != "" {
		t.Errorf("coordinate mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, primary.Coordinate.NumPoints())

	b, err := ParseMeasurementGroup(groups[1])
	require.NoError(t, err)
	label, ok := b.Finding()
	require.True(t, ok)
	assert.True(t, label.IsFreeText())
	assert.Equal(t, "my label", label.Meaning)
	require.NotNil(t, b.NumByConcept(LongAxis))
	require.NotNil(t, b.NumByConcept(ShortAxis))
	assert.Equal(t, 4.0, *b.NumByConcept(ShortAxis).Value)
}

func TestReport_ImageLibraryAndObserver(t *testing.T) {
	doc := buildReport(t)
	root, err := doc.Root()
	require.NoError(t, err)

	library := root.Find(ImageLibrary)
	require.NotNil(t, library)
	require.Len(t, library.Children, 1)
	images := library.Children[0].FindByType(ValueTypeImage)
	require.Len(t, images, 1)
	assert.Equal(t, testSOP, images[0].Reference.ReferencedSOPInstanceUID)
	assert.Zero(t, images[0].Reference.ReferencedFrameNumber)

	observer := root.Find(PersonObserverName)
	require.NotNil(t, observer)
	assert.Equal(t, "Reader^One", observer.TextValue)
}

func TestReport_MissingSeries(t *testing.T) {
	m, err := NewMeasurement(KindPoint, Args{
		TrackingIdentifierTextValue: "Cornerstone3DTools:Probe",
		ReferencedSOPSequence:       &SOPReference{ReferencedSOPInstanceUID: "9.9.9"},
		Points:                      []Coordinate{Point2(1, 1)},
	})
	require.NoError(t, err)
	_, err = NewReport(ReportOptions{}, nil, []*MeasurementGroups{NewMeasurementGroups(m)}, nil).Document()
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestParseContentItem_Errors(t *testing.T) {
	item := Code(Contains, Finding, CodedConcept{})
	ds, err := item.Dataset()
	require.NoError(t, err)
	_, err = ParseContentItem(ds)
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = (&ContentItem{ValueType: "BOGUS"}).Dataset()
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestCodedConcept(t *testing.T) {
	a := NewCode("G-C0E3", SchemeSRT, "Finding Site")
	assert.False(t, a.Equal(FindingSite))
	assert.True(t, a.Equal(FindingSiteSRT))
	assert.True(t, NewCode("121071", SchemeDCM, "other text").Equal(Finding))
	assert.True(t, FreeText("x").IsFreeText())
	assert.True(t, CodedConcept{}.IsZero())
}

func TestUnits(t *testing.T) {
	for _, label := range []string{"", "mm", "mm²", "deg", "HU", "px", "px²", "kg"} {
		assert.Equal(t, label, UnitLabel(UnitCode(label)), label)
	}
	assert.True(t, UnitCode("mm2").Equal(SquareMillimeter))
}
