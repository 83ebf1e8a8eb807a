package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jpfielding/dicomsr.go/pkg/adapter"
	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/module"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ctImage  = "dicomfile:ct/1.dcm"
	ctSOP    = "1.2.826.0.1.3680043.8.498.11"
	ctSeries = "1.2.826.0.1.3680043.8.498.12"
	ctStudy  = "1.2.826.0.1.3680043.8.498.13"
	ctFoR    = "1.2.826.0.1.3680043.8.498.14"

	usImage  = "dicomfile:us/cine.dcm?frame=3"
	usSOP    = "1.2.826.0.1.3680043.8.498.21"
	usSeries = "1.2.826.0.1.3680043.8.498.22"
)

type image struct {
	plane    *annotation.ImagePlane
	instance annotation.Instance
}

type provider map[string]image

func (p provider) ImagePlane(id string) (*annotation.ImagePlane, bool) {
	img, ok := p[id]
	if !ok || img.plane == nil {
		return nil, false
	}
	return img.plane, true
}

func (p provider) ImagePixel(id string) (*annotation.ImagePixel, bool) {
	img, ok := p[id]
	if !ok || img.plane == nil {
		return nil, false
	}
	return &annotation.ImagePixel{Rows: img.plane.Rows, Columns: img.plane.Columns}, true
}

func (p provider) Instance(id string) (*annotation.Instance, bool) {
	img, ok := p[id]
	if !ok {
		return nil, false
	}
	inst := img.instance
	return &inst, true
}

func testProvider() provider {
	return provider{
		ctImage: {
			plane: &annotation.ImagePlane{
				FrameOfReferenceUID:  ctFoR,
				ImagePositionPatient: r3.Vec{X: -100, Y: -100, Z: 25},
				RowCosines:           r3.Vec{X: 1},
				ColumnCosines:        r3.Vec{Y: 1},
				RowPixelSpacing:      0.25,
				ColumnPixelSpacing:   0.25,
				Rows:                 800,
				Columns:              800,
			},
			instance: annotation.Instance{
				SOPClassUID:       dicom.CTImageStorage,
				SOPInstanceUID:    ctSOP,
				SeriesInstanceUID: ctSeries,
				StudyInstanceUID:  ctStudy,
				NumberOfFrames:    1,
				Patient:           module.PatientModule{PatientID: "P-1"},
				Study:             module.GeneralStudyModule{StudyInstanceUID: ctStudy},
			},
		},
		usImage: {
			plane: &annotation.ImagePlane{
				RowCosines:         r3.Vec{X: 1},
				ColumnCosines:      r3.Vec{Y: 1},
				RowPixelSpacing:    1,
				ColumnPixelSpacing: 1,
				Rows:               480,
				Columns:            640,
			},
			instance: annotation.Instance{
				SOPClassUID:       dicom.UltrasoundMultiFrameImageStorage,
				SOPInstanceUID:    usSOP,
				SeriesInstanceUID: usSeries,
				StudyInstanceUID:  ctStudy,
				NumberOfFrames:    5,
				FrameNumber:       3,
			},
		},
	}
}

func testSOPMap() *annotation.SOPMap {
	return annotation.NewSOPMap().
		Add(ctSOP, 0, ctImage).
		Add(usSOP, 3, usImage)
}

func ctPoint(x, y float64) r3.Vec {
	return r3.Vec{X: x, Y: y, Z: 25}
}

func testToolState() annotation.ToolState {
	lesion := sr.NewCode("52988006", sr.SchemeSCT, "Lesion")
	ts := annotation.ToolState{}
	ts.Add(adapter.ToolLength, &annotation.Annotation{
		ID:                uuid.NewString(),
		ToolName:          adapter.ToolLength,
		ReferencedImageID: ctImage,
		Finding:           &lesion,
		Label:             "Lesion",
		Data: annotation.Data{
			Handles: annotation.Handles{Points: []r3.Vec{ctPoint(-10, -10), ctPoint(20, 30)}},
			CachedStats: map[string]*annotation.Stats{
				annotation.StatsKey(ctImage): {Length: annotation.Float(50), LengthUnit: "mm"},
			},
		},
	})
	ts.Add(adapter.ToolCircleROI, &annotation.Annotation{
		ID:                uuid.NewString(),
		ToolName:          adapter.ToolCircleROI,
		ReferencedImageID: ctImage,
		Label:             "cyst",
		Data: annotation.Data{
			Handles: annotation.Handles{Points: []r3.Vec{ctPoint(0, 0), ctPoint(3, 4)}},
			CachedStats: map[string]*annotation.Stats{
				annotation.StatsKey(ctImage): {
					Area: annotation.Float(78.5), AreaUnit: "mm²",
					Radius: annotation.Float(5), RadiusUnit: "mm",
					Mean: annotation.Float(12), StdDev: annotation.Float(3),
					Max: annotation.Float(40), Min: annotation.Float(-2),
					ModalityUnit: "HU",
				},
			},
		},
	})
	return ts
}

func points(a *annotation.Annotation) []r3.Vec {
	return a.Data.Handles.Points
}

func decode(t *testing.T, doc *sr.Document, hooks *Hooks) annotation.ToolState {
	t.Helper()
	ts, err := GenerateToolState(doc, testSOPMap(), testProvider(), hooks)
	require.NoError(t, err)
	return ts
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name      string
		use3D     bool
		viaFile   bool
		tolerance float64
	}{
		{name: "2D in memory", tolerance: 1e-9},
		{name: "3D in memory", use3D: true, tolerance: 1e-9},
		{name: "2D through a file", viaFile: true, tolerance: 1e-3},
		{name: "3D through a file", use3D: true, viaFile: true, tolerance: 1e-3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testToolState()
			doc, err := EncodeReport(in, testProvider(), nil, Options{
				Use3D:  tt.use3D,
				Report: sr.ReportOptions{ContentTime: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
			})
			require.NoError(t, err)
			if tt.use3D {
				assert.Equal(t, dicom.Comprehensive3DSRStorage, dicom.GetSOPClassUID(doc.Dataset))
			} else {
				assert.Equal(t, dicom.ComprehensiveSRStorage, dicom.GetSOPClassUID(doc.Dataset))
			}
			assert.Equal(t, ctStudy, doc.StudyInstanceUID())
			assert.Equal(t, map[string]string{ctSOP: ctSeries}, doc.Evidence())

			if tt.viaFile {
				var buf bytes.Buffer
				_, err := doc.WriteTo(&buf)
				require.NoError(t, err)
				doc, err = sr.ParseDocument(&buf)
				require.NoError(t, err)
			}

			out, err := DecodeReport(doc.Dataset, testSOPMap(), testProvider(), nil)
			require.NoError(t, err)
			assert.Equal(t, []string{adapter.ToolCircleROI, adapter.ToolLength}, out.ToolTypes())
			assert.Equal(t, 2, out.Count())

			approx := cmpopts.EquateApprox(0, tt.tolerance)
			for _, toolType := range in.ToolTypes() {
				want := in[toolType][0]
				require.Len(t, out[toolType], 1, toolType)
				got := out[toolType][0]

				assert.Equal(t, want.ID, got.ID)
				assert.Equal(t, want.Label, got.Label)
				assert.Empty(t, cmp.Diff(points(want), points(got), approx), toolType)
				assert.Equal(t, ctImage, got.ReferencedImageID)
				assert.Equal(t, ctSOP, got.SOPInstanceUID)
				assert.Equal(t, ctFoR, got.FrameOfReferenceUID)
			}

			circle := out[adapter.ToolCircleROI][0].Stats(ctImage)
			assert.InDelta(t, 78.5, *circle.Area, tt.tolerance)
			assert.InDelta(t, 12, *circle.Mean, tt.tolerance)
			assert.Equal(t, "HU", circle.MeanUnit)
			length := out[adapter.ToolLength][0]
			assert.InDelta(t, 50, *length.Stats(ctImage).Length, tt.tolerance)
			require.NotNil(t, length.Finding)
			assert.True(t, length.Finding.Equal(sr.NewCode("52988006", sr.SchemeSCT, "Lesion")))
		})
	}
}

// everyTool has one annotation per measurement tool on the CT image
func everyTool() annotation.ToolState {
	stats := func(s annotation.Stats) map[string]*annotation.Stats {
		return map[string]*annotation.Stats{annotation.StatsKey(ctImage): &s}
	}
	tip := ctPoint(-40, 30)
	ts := annotation.ToolState{}
	for _, a := range []*annotation.Annotation{
		{ToolName: adapter.ToolLength, Data: annotation.Data{
			Handles:     annotation.Handles{Points: []r3.Vec{ctPoint(0, 0), ctPoint(30, 40)}},
			CachedStats: stats(annotation.Stats{Length: annotation.Float(50), LengthUnit: "mm"}),
		}},
		{ToolName: adapter.ToolCalibration, Data: annotation.Data{
			Handles: annotation.Handles{Points: []r3.Vec{ctPoint(-5, 0), ctPoint(-5, 12)}},
		}},
		{ToolName: adapter.ToolUltrasoundDirectional, Data: annotation.Data{
			Handles: annotation.Handles{Points: []r3.Vec{ctPoint(-30, -30), ctPoint(-30, -10)}},
		}},
		{ToolName: adapter.ToolProbe, Data: annotation.Data{
			Handles:     annotation.Handles{Points: []r3.Vec{ctPoint(7, -3)}},
			CachedStats: stats(annotation.Stats{Mean: annotation.Float(40), MeanUnit: "HU", ModalityUnit: "HU"}),
		}},
		{ToolName: adapter.ToolCircleROI, Data: annotation.Data{
			Handles: annotation.Handles{Points: []r3.Vec{ctPoint(10, 10), ctPoint(15, 10)}},
		}},
		{ToolName: adapter.ToolRectangleROI, Data: annotation.Data{
			Handles: annotation.Handles{Points: []r3.Vec{ctPoint(-10, -5), ctPoint(10, -5), ctPoint(-10, 5), ctPoint(10, 5)}},
		}},
		{ToolName: adapter.ToolEllipticalROI, Data: annotation.Data{
			Handles:     annotation.Handles{Points: []r3.Vec{ctPoint(0, 10), ctPoint(0, -10), ctPoint(-5, 0), ctPoint(5, 0)}},
			CachedStats: stats(annotation.Stats{Area: annotation.Float(157.08), AreaUnit: "mm²"}),
		}},
		{ToolName: adapter.ToolBidirectional, Data: annotation.Data{
			Handles:     annotation.Handles{Points: []r3.Vec{ctPoint(20, -10), ctPoint(20, 10), ctPoint(17, 0), ctPoint(23, 0)}},
			CachedStats: stats(annotation.Stats{Length: annotation.Float(20), LengthUnit: "mm", Width: annotation.Float(6), WidthUnit: "mm"}),
		}},
		{ToolName: adapter.ToolAngle, Data: annotation.Data{
			Handles:     annotation.Handles{Points: []r3.Vec{ctPoint(10, 0), ctPoint(0, 0), ctPoint(0, 10)}},
			CachedStats: stats(annotation.Stats{Angle: annotation.Float(90), AngleUnit: "deg"}),
		}},
		{ToolName: adapter.ToolCobbAngle, Data: annotation.Data{
			Handles: annotation.Handles{Points: []r3.Vec{ctPoint(0, 0), ctPoint(10, 2), ctPoint(0, 20), ctPoint(10, 15)}},
		}},
		{ToolName: adapter.ToolArrowAnnotate, Data: annotation.Data{
			// the tail sits a tenth of the 800 pixel image away, 20mm at 0.25mm spacing
			Handles: annotation.Handles{Points: []r3.Vec{tip, r3.Add(tip, r3.Vec{X: 20, Y: 20})}, ArrowFirst: true},
			Text:    "look here",
		}, Label: "look here"},
		{ToolName: adapter.ToolPlanarFreehandROI, Data: annotation.Data{
			Contour: &annotation.Contour{Polyline: []r3.Vec{ctPoint(0, 0), ctPoint(10, 0), ctPoint(10, 10), ctPoint(0, 10)}, Closed: true},
		}},
	} {
		a.ID = uuid.NewString()
		a.ReferencedImageID = ctImage
		ts.Add(a.ToolName, a)
	}
	return ts
}

func TestEncodeDecode_EveryTool(t *testing.T) {
	tests := []struct {
		name      string
		use3D     bool
		viaFile   bool
		tolerance float64
	}{
		{name: "2D", tolerance: 1e-9},
		{name: "3D", use3D: true, tolerance: 1e-9},
		{name: "3D through a file", use3D: true, viaFile: true, tolerance: 1e-3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := everyTool()
			opts := Options{Use3D: tt.use3D}
			doc, err := EncodeReport(in, testProvider(), nil, opts)
			require.NoError(t, err)
			if tt.viaFile {
				var buf bytes.Buffer
				_, err := doc.WriteTo(&buf)
				require.NoError(t, err)
				doc, err = sr.ParseDocument(&buf)
				require.NoError(t, err)
			}

			out, err := DecodeReport(doc.Dataset, testSOPMap(), testProvider(), nil)
			require.NoError(t, err)
			assert.Equal(t, in.ToolTypes(), out.ToolTypes())

			approx := cmpopts.EquateApprox(0, tt.tolerance)
			for _, toolType := range in.ToolTypes() {
				require.Len(t, out[toolType], 1, toolType)
				want, got := in[toolType][0], out[toolType][0]
				assert.Equal(t, want.ID, got.ID, toolType)
				assert.Equal(t, ctImage, got.ReferencedImageID, toolType)
				assert.Equal(t, ctSOP, got.SOPInstanceUID, toolType)
				assert.Equal(t, ctFoR, got.FrameOfReferenceUID, toolType)
				if want.Data.Contour != nil {
					require.NotNil(t, got.Data.Contour, toolType)
					assert.Empty(t, cmp.Diff(want.Data.Contour, got.Data.Contour, approx), toolType)
					continue
				}
				assert.Empty(t, cmp.Diff(points(want), points(got), approx), toolType)
			}

			again, err := EncodeReport(out, testProvider(), nil, opts)
			require.NoError(t, err, "decoded state encodes again")
			groups, err := again.MeasurementGroups()
			require.NoError(t, err)
			assert.Len(t, groups, in.Count())
		})
	}
}

func TestGenerateReport_FrameReferences(t *testing.T) {
	ts := annotation.ToolState{}
	ts.Add(adapter.ToolProbe, &annotation.Annotation{
		ID:                uuid.NewString(),
		ReferencedImageID: ctImage,
		Data:              annotation.Data{Handles: annotation.Handles{Points: []r3.Vec{ctPoint(1, 2)}}},
	})
	ts.Add(adapter.ToolProbe, &annotation.Annotation{
		ID:                uuid.NewString(),
		ReferencedImageID: usImage,
		Data:              annotation.Data{Handles: annotation.Handles{Points: []r3.Vec{{X: 4, Y: 5}}}},
	})

	report, err := GenerateReport(ts.ByImage(), testProvider(), nil, Options{})
	require.NoError(t, err)
	require.Len(t, report.Groups, 2)
	assert.Len(t, report.Sources, 2)
	assert.False(t, report.Options.Use3D)

	frames := map[string]int{}
	for _, g := range report.Groups {
		for _, m := range g.Measurements {
			ref := m.Reference()
			require.NotNil(t, ref)
			frames[ref.ReferencedSOPInstanceUID] = ref.ReferencedFrameNumber
		}
	}
	assert.Equal(t, map[string]int{ctSOP: 0, usSOP: 3}, frames)
}

func TestGenerateReport_MixedDimensions(t *testing.T) {
	ts := annotation.ToolState{}
	ts.Add(adapter.ToolProbe, &annotation.Annotation{
		ID:                uuid.NewString(),
		ReferencedImageID: ctImage,
		Data:              annotation.Data{Handles: annotation.Handles{Points: []r3.Vec{ctPoint(1, 2)}}},
	})
	ts.Add(adapter.ToolProbe, &annotation.Annotation{
		ID:                uuid.NewString(),
		ReferencedImageID: usImage,
		Data:              annotation.Data{Handles: annotation.Handles{Points: []r3.Vec{{X: 4, Y: 5}}}},
	})

	report, err := GenerateReport(ts.ByImage(), testProvider(), nil, Options{Use3D: true})
	require.NoError(t, err)
	assert.True(t, report.Options.Use3D)

	dims := map[bool]int{}
	for _, g := range report.Groups {
		for _, m := range g.Measurements {
			dims[m.Args.Use3DSpatialCoordinates]++
		}
	}
	assert.Equal(t, map[bool]int{true: 1, false: 1}, dims, "images without a frame of reference stay 2D")
}

func TestGenerateReport_Errors(t *testing.T) {
	tests := []struct {
		name    string
		imageID string
	}{
		{name: "no image", imageID: ""},
		{name: "no instance metadata", imageID: "dicomfile:missing.dcm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := annotation.ImageToolState{tt.imageID: annotation.ToolState{
				adapter.ToolProbe: {{ID: uuid.NewString(), Data: annotation.Data{Handles: annotation.Handles{Points: []r3.Vec{{}}}}}},
			}}
			_, err := GenerateReport(ts, testProvider(), nil, Options{})
			assert.ErrorIs(t, err, adapter.ErrMissingReference)
		})
	}
}

func TestGenerateReport_SkipsUnknownTools(t *testing.T) {
	ts := testToolState()
	ts.Add("Magnify", &annotation.Annotation{ID: uuid.NewString(), ReferencedImageID: ctImage})

	doc, err := EncodeReport(ts, testProvider(), nil, Options{})
	require.NoError(t, err)
	out := decode(t, doc, nil)
	assert.Equal(t, 2, out.Count())
	assert.NotContains(t, out, "Magnify")
}

func TestGenerateReport_ImageKeyWins(t *testing.T) {
	a := &annotation.Annotation{
		ID:                uuid.NewString(),
		ReferencedImageID: "dicomfile:elsewhere.dcm",
		Data:              annotation.Data{Handles: annotation.Handles{Points: []r3.Vec{ctPoint(1, 2)}}},
	}
	ts := annotation.ImageToolState{ctImage: annotation.ToolState{adapter.ToolProbe: {a}}}

	report, err := GenerateReport(ts, testProvider(), nil, Options{})
	require.NoError(t, err)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, ctSOP, report.Groups[0].Measurements[0].Reference().ReferencedSOPInstanceUID)
	assert.Equal(t, "dicomfile:elsewhere.dcm", a.ReferencedImageID, "caller's annotation untouched")
}

func TestGenerateToolState_Hooks(t *testing.T) {
	doc, err := EncodeReport(testToolState(), testProvider(), nil, Options{})
	require.NoError(t, err)

	registry, err := adapter.Default()
	require.NoError(t, err)
	probe, ok := registry.Get(adapter.ToolProbe)
	require.True(t, ok)

	var seen []string
	out := decode(t, doc, &Hooks{
		ResolveAdapter: func(group *sr.MeasurementGroup, _ *sr.Document, _ *adapter.Registry) *adapter.Registration {
			seen = append(seen, group.TrackingIdentifier)
			if group.TrackingIdentifier == adapter.TrackingTag+":"+adapter.ToolCircleROI {
				return probe
			}
			return nil
		},
	})
	assert.Len(t, seen, 2)
	assert.Equal(t, []string{adapter.ToolLength, adapter.ToolProbe}, out.ToolTypes(), "hook result wins, nil falls through")
}

func TestGenerateToolState_SkipsUnknownGroups(t *testing.T) {
	doc, err := EncodeReport(testToolState(), testProvider(), nil, Options{})
	require.NoError(t, err)

	registry, err := adapter.NewRegistryBuilder().
		Register(adapter.ToolLength, sr.KindLength, onlyLength{}).
		Build()
	require.NoError(t, err)

	out := decode(t, doc, &Hooks{Registry: registry})
	assert.Equal(t, []string{adapter.ToolLength}, out.ToolTypes())
}

type onlyLength struct{}

func (onlyLength) Decode(s *adapter.Setup) (*annotation.Annotation, error) { return s.Annotation, nil }
func (onlyLength) Encode(*adapter.Encoding) error                          { return nil }

func TestGenerateToolState_Unsupported(t *testing.T) {
	other := sr.Container("", sr.ImagingMeasurementReport)
	other.TemplateIdentifier = "1600"
	ds, err := other.Dataset()
	require.NoError(t, err)
	_, err = GenerateToolState(sr.NewDocument(ds), testSOPMap(), testProvider(), nil)
	assert.ErrorIs(t, err, ErrUnsupportedDocument)

	empty := sr.Container("", sr.ImagingMeasurementReport)
	empty.TemplateIdentifier = sr.MeasurementReportTemplate
	ds, err = empty.Dataset()
	require.NoError(t, err)
	_, err = GenerateToolState(sr.NewDocument(ds), testSOPMap(), testProvider(), nil)
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
	assert.ErrorIs(t, err, sr.ErrNoMeasurements)

	image, err := dicom.NewDataset(dicom.WithFileMeta(dicom.CTImageStorage, ctSOP, string(dicom.ExplicitVRLittleEndian)))
	require.NoError(t, err)
	_, err = DecodeReport(image, testSOPMap(), testProvider(), nil)
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
}

func TestGenerateToolState_MalformedGroup(t *testing.T) {
	broken := sr.Container(sr.Contains, sr.MeasurementGroupConcept,
		sr.Text(sr.HasObsContext, sr.TrackingIdentifier, adapter.TrackingTag+":"+adapter.ToolLength),
	)
	root := sr.Container("", sr.ImagingMeasurementReport,
		sr.Container(sr.Contains, sr.ImagingMeasurements, broken),
	)
	root.TemplateIdentifier = sr.MeasurementReportTemplate
	ds, err := root.Dataset()
	require.NoError(t, err)

	_, err = GenerateToolState(sr.NewDocument(ds), testSOPMap(), testProvider(), nil)
	assert.ErrorIs(t, err, adapter.ErrMalformedGroup)
}

func TestGenerateToolState_UnresolvedReference(t *testing.T) {
	doc, err := EncodeReport(testToolState(), testProvider(), nil, Options{})
	require.NoError(t, err)
	_, err = GenerateToolState(doc, annotation.NewSOPMap(), testProvider(), nil)
	assert.ErrorIs(t, err, adapter.ErrUnresolvedReference)
}
