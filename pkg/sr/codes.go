// Package sr models the DICOM Structured Report content tree used by measurement
// reports: coded concepts, content items, the TID 300 measurement representations,
// the TID 1501 measurement group and the TID 1500 report document.
package sr

import (
	"fmt"

	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
)

// Coding scheme designators
const (
	SchemeDCM  = "DCM"
	SchemeSCT  = "SCT"
	SchemeSRT  = "SRT" // retired alias of SCT, still found in older reports
	SchemeUCUM = "UCUM"
	SchemeRFC  = "RFC5646"

	// private scheme carrying viewer free text as a coded value
	SchemeFreeText = "CORNERSTONEJS"
	FreeTextValue  = "CORNERSTONEFREETEXT"
)

// CodedConcept is a Code Sequence Macro item. Identity is (Designator, Value);
// Meaning is display text only.
type CodedConcept struct {
	Value      string `json:"value"`
	Designator string `json:"designator"`
	Meaning    string `json:"meaning,omitempty"`
	Version    string `json:"version,omitempty"`
}

// NewCode creates a coded concept
func NewCode(value, designator, meaning string) CodedConcept {
	return CodedConcept{Value: value, Designator: designator, Meaning: meaning}
}

// FreeText wraps a label in the private free-text code
func FreeText(label string) CodedConcept {
	return NewCode(FreeTextValue, SchemeFreeText, label)
}

// Equal compares designator and value
func (c CodedConcept) Equal(o CodedConcept) bool {
	return c.Designator == o.Designator && c.Value == o.Value
}

// IsZero reports an unset code
func (c CodedConcept) IsZero() bool {
	return c.Value == "" && c.Designator == ""
}

// IsFreeText reports the private free-text code
func (c CodedConcept) IsFreeText() bool {
	return c.Designator == SchemeFreeText && c.Value == FreeTextValue
}

func (c CodedConcept) String() string {
	return fmt.Sprintf("(%s, %s, %q)", c.Value, c.Designator, c.Meaning)
}

// Dataset builds a Code Sequence item
func (c CodedConcept) Dataset() *dicom.Dataset {
	ds, _ := dicom.NewDataset(
		dicom.WithElement(tag.CodeValue, c.Value),
		dicom.WithElement(tag.CodingSchemeDesignator, c.Designator),
		dicom.WithOptionalElement(tag.CodingSchemeVersion, c.Version),
		dicom.WithElement(tag.CodeMeaning, c.Meaning),
	)
	return ds
}

// ParseCodedConcept reads a Code Sequence item. Long and URN code values are
// accepted in place of Code Value.
func ParseCodedConcept(ds *dicom.Dataset) (CodedConcept, bool) {
	if ds == nil {
		return CodedConcept{}, false
	}
	c := CodedConcept{
		Value:      dicom.GetText(ds, tag.CodeValue),
		Designator: dicom.GetText(ds, tag.CodingSchemeDesignator),
		Meaning:    dicom.GetText(ds, tag.CodeMeaning),
		Version:    dicom.GetText(ds, tag.CodingSchemeVersion),
	}
	if c.Value == "" {
		c.Value = dicom.GetText(ds, tag.LongCodeValue)
	}
	if c.Value == "" {
		c.Value = dicom.GetText(ds, tag.URNCodeValue)
	}
	return c, !c.IsZero()
}

// parseCodeSequence reads the first item of a code sequence attribute
func parseCodeSequence(ds *dicom.Dataset, t tag.Tag) (CodedConcept, bool) {
	return ParseCodedConcept(dicom.GetFirstSequenceItem(ds, t))
}

// Document titles and section headings
var (
	ImagingMeasurementReport = NewCode("126000", SchemeDCM, "Imaging Measurement Report")
	ImagingMeasurements      = NewCode("126010", SchemeDCM, "Imaging Measurements")
	MeasurementGroupConcept  = NewCode("125007", SchemeDCM, "Measurement Group")
	ImageLibrary             = NewCode("111028", SchemeDCM, "Image Library")
	ImageLibraryGroup        = NewCode("126200", SchemeDCM, "Image Library Group")
	LanguageOfContent        = NewCode("121049", SchemeDCM, "Language of Content Item and Descendants")
	English                  = NewCode("en-US", SchemeRFC, "English (United States)")
	ObserverType             = NewCode("121005", SchemeDCM, "Observer Type")
	Person                   = NewCode("121006", SchemeDCM, "Person")
	Device                   = NewCode("121007", SchemeDCM, "Device")
	PersonObserverName       = NewCode("121008", SchemeDCM, "Person Observer Name")
	DeviceObserverUID        = NewCode("121012", SchemeDCM, "Device Observer UID")
	ProcedureReported        = NewCode("121058", SchemeDCM, "Procedure reported")
	ImagingProcedure         = NewCode("363679005", SchemeSCT, "Imaging procedure")
)

// Measurement group context
var (
	TrackingIdentifier       = NewCode("112039", SchemeDCM, "Tracking Identifier")
	TrackingUniqueIdentifier = NewCode("112040", SchemeDCM, "Tracking Unique Identifier")
	Finding                  = NewCode("121071", SchemeDCM, "Finding")
	FindingSite              = NewCode("363698007", SchemeSCT, "Finding Site")
	FindingSiteSRT           = NewCode("G-C0E3", SchemeSRT, "Finding Site")
)

// Measurement concept names
var (
	Length            = NewCode("410668003", SchemeSCT, "Length")
	Area              = NewCode("42798000", SchemeSCT, "Area")
	Perimeter         = NewCode("131191004", SchemeSCT, "Perimeter")
	Radius            = NewCode("131190003", SchemeSCT, "Radius")
	Width             = NewCode("103355008", SchemeSCT, "Width")
	LongAxis          = NewCode("103339001", SchemeSCT, "Long Axis")
	ShortAxis         = NewCode("103340004", SchemeSCT, "Short Axis")
	CobbAngle         = NewCode("285285000", SchemeSCT, "Cobb angle")
	Center            = NewCode("111010", SchemeDCM, "Center")
	Mean              = NewCode("373098007", SchemeSCT, "Mean")
	StandardDeviation = NewCode("386136009", SchemeSCT, "Standard Deviation")
	Maximum           = NewCode("56851009", SchemeSCT, "Maximum")
	Minimum           = NewCode("255605001", SchemeSCT, "Minimum")
)
