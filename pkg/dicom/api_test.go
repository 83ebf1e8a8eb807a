package dicom

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/module"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codeItem(value, scheme, meaning string) *Dataset {
	ds, _ := NewDataset(
		WithElement(tag.CodeValue, value),
		WithElement(tag.CodingSchemeDesignator, scheme),
		WithElement(tag.CodeMeaning, meaning),
	)
	return ds
}

// buildTree makes a small SR-shaped dataset: a container with a NUM holding a SCOORD and an IMAGE
func buildTree(t *testing.T) *Dataset {
	t.Helper()

	image, err := NewDataset(
		WithElement(tag.RelationshipType, "SELECTED FROM"),
		WithElement(tag.ValueType, "IMAGE"),
		WithSequence(tag.ReferencedSOPSequence, mustDataset(t,
			WithElement(tag.ReferencedSOPClassUID, CTImageStorage),
			WithElement(tag.ReferencedSOPInstanceUID, "1.2.3.4"),
			WithElement(tag.ReferencedFrameNumber, 3),
		)),
	)
	require.NoError(t, err)

	scoord, err := NewDataset(
		WithElement(tag.RelationshipType, "INFERRED FROM"),
		WithElement(tag.ValueType, "SCOORD"),
		WithElement(tag.GraphicType, "POLYLINE"),
		WithElement(tag.GraphicData, []float64{1.5, 2.5, 10.25, 20.75}),
		WithSequence(tag.ContentSequence, image),
	)
	require.NoError(t, err)

	num, err := NewDataset(
		WithElement(tag.RelationshipType, "CONTAINS"),
		WithElement(tag.ValueType, "NUM"),
		WithSequence(tag.ConceptNameCodeSequence, codeItem("410668003", "SCT", "Length")),
		WithSequence(tag.MeasuredValueSequence, mustDataset(t,
			WithElement(tag.NumericValue, 12.345678901234567),
			WithSequence(tag.MeasurementUnitsCodeSeq, codeItem("mm", "UCUM", "millimeter")),
		)),
		WithSequence(tag.ContentSequence, scoord),
	)
	require.NoError(t, err)

	sopUID := GenerateUID("")
	root, err := NewDataset(
		WithFileMeta(Comprehensive3DSRStorage, sopUID, string(ExplicitVRLittleEndian)),
		WithModule((&module.SOPCommonModule{SOPClassUID: Comprehensive3DSRStorage, SOPInstanceUID: sopUID}).ToTags()),
		WithElement(tag.ValueType, "CONTAINER"),
		WithElement(tag.ContinuityOfContent, "SEPARATE"),
		WithSequence(tag.ConceptNameCodeSequence, codeItem("126000", "DCM", "Imaging Measurement Report")),
		WithSequence(tag.ContentSequence, num),
	)
	require.NoError(t, err)
	return root
}

func mustDataset(t *testing.T, opts ...Option) *Dataset {
	t.Helper()
	ds, err := NewDataset(opts...)
	require.NoError(t, err)
	return ds
}

func TestWriteRead_NestedSequences(t *testing.T) {
	root := buildTree(t)

	var buf bytes.Buffer
	n, err := Write(&buf, root)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	parsed, err := Parse(&buf)
	require.NoError(t, err)

	assert.True(t, IsStructuredReport(parsed))
	assert.Empty(t, QuickValidate(parsed))
	assert.Equal(t, string(ExplicitVRLittleEndian), GetText(parsed, tag.TransferSyntaxUID))

	nums := GetSequenceItems(parsed, tag.ContentSequence)
	require.Len(t, nums, 1)
	assert.Equal(t, "NUM", GetText(nums[0], tag.ValueType))

	name := GetFirstSequenceItem(nums[0], tag.ConceptNameCodeSequence)
	require.NotNil(t, name)
	assert.Equal(t, "410668003", GetText(name, tag.CodeValue))
	assert.Equal(t, "Length", GetText(name, tag.CodeMeaning))

	mv := GetFirstSequenceItem(nums[0], tag.MeasuredValueSequence)
	require.NotNil(t, mv)
	elem, ok := mv.Find(tag.NumericValue)
	require.True(t, ok)
	v, ok := elem.GetFloat()
	require.True(t, ok)
	assert.InDelta(t, 12.345678901234567, v, 1e-12)
	assert.LessOrEqual(t, len(GetText(mv, tag.NumericValue)), 16)

	scoord := GetFirstSequenceItem(nums[0], tag.ContentSequence)
	require.NotNil(t, scoord)
	gd, ok := scoord.Find(tag.GraphicData)
	require.True(t, ok)
	points, ok := gd.GetFloats()
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{1.5, 2.5, 10.25, 20.75}, points, 1e-6)

	image := GetFirstSequenceItem(scoord, tag.ContentSequence)
	require.NotNil(t, image)
	ref := GetFirstSequenceItem(image, tag.ReferencedSOPSequence)
	require.NotNil(t, ref)
	assert.Equal(t, "1.2.3.4", GetText(ref, tag.ReferencedSOPInstanceUID))
	frame, ok := ref.Elements[tag.ReferencedFrameNumber].GetInt()
	require.True(t, ok)
	assert.Equal(t, 3, frame)
}

func TestWriteFile_ReadFile(t *testing.T) {
	root := buildTree(t)
	path := filepath.Join(t.TempDir(), "report"+GetExtension())

	_, err := WriteFile(path, root)
	require.NoError(t, err)

	parsed, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, GetSOPInstanceUID(root), GetSOPInstanceUID(parsed))
	assert.Contains(t, parsed.String(), "ContentSequence")
}

func TestParse_RejectsMissingMagic(t *testing.T) {
	_, err := ReadBuffer(make([]byte, 200))
	assert.Error(t, err)
}

func TestImagePlaneAccessors(t *testing.T) {
	plane := module.NewImagePlaneModule()
	plane.ImagePositionPatient = [3]float64{-100, -120.5, 33}
	plane.PixelSpacing = [2]float64{0.7, 0.8}
	pixels := &module.ImagePixelModule{Rows: 256, Columns: 512, NumberOfFrames: 5}

	ds, err := NewDataset(
		WithModule(plane.ToTags()),
		WithModule(pixels.ToTags()),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = Write(&buf, ds)
	require.NoError(t, err)
	parsed, err := Parse(&buf)
	require.NoError(t, err)

	ipp, ok := GetImagePositionPatient(parsed)
	require.True(t, ok)
	assert.Equal(t, []float64{-100, -120.5, 33}, ipp)
	row, col, ok := GetPixelSpacing(parsed)
	require.True(t, ok)
	assert.Equal(t, 0.7, row)
	assert.Equal(t, 0.8, col)
	iop, ok := GetImageOrientationPatient(parsed)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 0, 0, 0, 1, 0}, iop)
	assert.Equal(t, 256, GetRows(parsed))
	assert.Equal(t, 512, GetColumns(parsed))
	assert.Equal(t, 5, GetNumberOfFrames(parsed))
}

func TestUIDFromUUID(t *testing.T) {
	id := uuid.MustParse("0b3b7c8e-7d1f-4c5e-9a2b-1f2e3d4c5b6a")
	uid := UIDFromUUID("", id)
	assert.True(t, len(uid) <= 64)
	assert.Regexp(t, `^2\.25\.[0-9]+$`, uid)

	back, ok := UUIDFromUID(uid)
	require.True(t, ok)
	assert.Equal(t, id, back)

	_, ok = UUIDFromUID("1.2.840.1234")
	assert.False(t, ok)

	assert.NotEqual(t, GenerateUID(""), GenerateUID(""))
}

func TestFormatDS(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{0.5, "0.5"},
		{-120.25, "-120.25"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, module.FormatDS(tt.in))
	}
	assert.LessOrEqual(t, len(module.FormatDS(-1234.56789012345678)), 16)
}

func TestCloneDataset_DeepCopiesSequences(t *testing.T) {
	root := buildTree(t)
	clone := CloneDataset(root)

	DeleteElement(GetSequenceItems(clone, tag.ContentSequence)[0], tag.ValueType)
	assert.True(t, HasElement(GetSequenceItems(root, tag.ContentSequence)[0], tag.ValueType))
}
