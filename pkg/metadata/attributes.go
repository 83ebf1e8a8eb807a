package metadata

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	gdicom "github.com/gradienthealth/dicom"
	"github.com/gradienthealth/dicom/dicomtag"
	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/module"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
)

// attributes are the parts of an image instance annotations depend on
type attributes struct {
	sopClass         string
	sop              string
	series           string
	study            string
	frameOfReference string
	rows, columns    int
	frames           int
	spacing          []float64
	position         []float64
	orientation      []float64
	patient          module.PatientModule
	studyModule      module.GeneralStudyModule
}

// wanted is every tag read from an image; the rest of the file is skipped
var wanted = []tag.Tag{
	tag.SOPClassUID,
	tag.SOPInstanceUID,
	tag.StudyInstanceUID,
	tag.SeriesInstanceUID,
	tag.FrameOfReferenceUID,
	tag.Rows,
	tag.Columns,
	tag.NumberOfFrames,
	tag.PixelSpacing,
	tag.ImagePositionPatient,
	tag.ImageOrientationPatient,
	tag.PatientName,
	tag.PatientID,
	tag.PatientBirthDate,
	tag.PatientSex,
	tag.StudyDate,
	tag.StudyTime,
	tag.StudyID,
	tag.AccessionNumber,
	tag.ReferringPhysicianName,
	tag.StudyDescription,
}

// values returns the string form of every value of a tag
type values func(t tag.Tag) []string

// clean drops the space and NUL padding of a value
func clean(s string) string {
	return strings.Trim(s, " \x00")
}

func (v values) text(t tag.Tag) string {
	vs := v(t)
	if len(vs) == 0 {
		return ""
	}
	return clean(strings.Join(vs, `\`))
}

func (v values) integer(t tag.Tag) int {
	vs := v(t)
	if len(vs) == 0 {
		return 0
	}
	n, err := strconv.Atoi(clean(vs[0]))
	if err != nil {
		return 0
	}
	return n
}

// floats is nil unless every value parses
func (v values) floats(t tag.Tag) []float64 {
	var out []float64
	for _, s := range v(t) {
		for _, part := range strings.Split(s, `\`) {
			f, err := strconv.ParseFloat(clean(part), 64)
			if err != nil {
				return nil
			}
			out = append(out, f)
		}
	}
	return out
}

func (v values) attributes() *attributes {
	return &attributes{
		sopClass:         v.text(tag.SOPClassUID),
		sop:              v.text(tag.SOPInstanceUID),
		series:           v.text(tag.SeriesInstanceUID),
		study:            v.text(tag.StudyInstanceUID),
		frameOfReference: v.text(tag.FrameOfReferenceUID),
		rows:             v.integer(tag.Rows),
		columns:          v.integer(tag.Columns),
		frames:           v.integer(tag.NumberOfFrames),
		spacing:          v.floats(tag.PixelSpacing),
		position:         v.floats(tag.ImagePositionPatient),
		orientation:      v.floats(tag.ImageOrientationPatient),
		patient: module.PatientModule{
			PatientName:      module.ParsePersonName(v.text(tag.PatientName)),
			PatientID:        v.text(tag.PatientID),
			PatientBirthDate: module.ParseDate(v.text(tag.PatientBirthDate)),
			PatientSex:       v.text(tag.PatientSex),
		},
		studyModule: module.GeneralStudyModule{
			StudyInstanceUID:       v.text(tag.StudyInstanceUID),
			StudyDate:              module.ParseDate(v.text(tag.StudyDate)),
			StudyTime:              module.ParseTime(v.text(tag.StudyTime)),
			StudyID:                v.text(tag.StudyID),
			AccessionNumber:        v.text(tag.AccessionNumber),
			ReferringPhysicianName: module.ParsePersonName(v.text(tag.ReferringPhysicianName)),
			StudyDescription:       v.text(tag.StudyDescription),
		},
	}
}

// parseAttributes reads the header of a DICOM stream, dropping pixel data
func parseAttributes(in io.Reader, size int64) (*attributes, error) {
	p, err := gdicom.NewParser(in, size, nil)
	if err != nil {
		return nil, err
	}
	returnTags := make([]dicomtag.Tag, len(wanted))
	for i, t := range wanted {
		returnTags[i] = dicomtag.Tag{Group: t.Group, Element: t.Element}
	}
	ds, err := p.Parse(gdicom.ParseOptions{DropPixelData: true, ReturnTags: returnTags})
	if ds == nil || err != nil {
		return nil, fmt.Errorf("reading dicom: %w", err)
	}
	elements := map[tag.Tag]*gdicom.Element{}
	for _, elem := range ds.Elements {
		elements[tag.New(elem.Tag.Group, elem.Tag.Element)] = elem
	}
	return values(func(t tag.Tag) []string {
		elem, ok := elements[t]
		if !ok {
			return nil
		}
		out := make([]string, 0, len(elem.Value))
		for _, v := range elem.Value {
			out = append(out, fmt.Sprint(v))
		}
		return out
	}).attributes(), nil
}

// datasetAttributes reads a dataset built or parsed by the dicom package
func datasetAttributes(ds *dicom.Dataset) *attributes {
	return values(func(t tag.Tag) []string {
		elem, ok := ds.Find(t)
		if !ok {
			return nil
		}
		if vs, ok := elem.GetStrings(); ok {
			return vs
		}
		if n, ok := elem.GetInt(); ok {
			return []string{strconv.Itoa(n)}
		}
		return nil
	}).attributes()
}
