package sr

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
)

// ErrNoMeasurements marks a document without an Imaging Measurements container
var ErrNoMeasurements = errors.New("no imaging measurements container")

// Document is an SR document dataset
type Document struct {
	Dataset *dicom.Dataset
}

// NewDocument wraps a parsed dataset
func NewDocument(ds *dicom.Dataset) *Document {
	return &Document{Dataset: ds}
}

// ReadDocument reads an SR document from disk
func ReadDocument(path string) (*Document, error) {
	ds, err := dicom.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return checkDocument(ds)
}

// ParseDocument reads an SR document from a stream
func ParseDocument(r io.Reader) (*Document, error) {
	ds, err := dicom.Parse(r)
	if err != nil {
		return nil, err
	}
	return checkDocument(ds)
}

func checkDocument(ds *dicom.Dataset) (*Document, error) {
	if !dicom.IsStructuredReport(ds) && dicom.GetText(ds, tag.ValueType) != string(ValueTypeContainer) {
		return nil, fmt.Errorf("%w: SOP class %q is not a structured report", ErrInvalidContent, dicom.GetSOPClassUID(ds))
	}
	return &Document{Dataset: ds}, nil
}

// TemplateIdentifier is the template of the root container, empty when not declared
func (d *Document) TemplateIdentifier() string {
	if d == nil {
		return ""
	}
	tmpl := dicom.GetFirstSequenceItem(d.Dataset, tag.ContentTemplateSequence)
	return dicom.GetText(tmpl, tag.TemplateIdentifier)
}

// Title is the concept name of the root container
func (d *Document) Title() CodedConcept {
	c, _ := parseCodeSequence(d.Dataset, tag.ConceptNameCodeSequence)
	return c
}

// SOPInstanceUID identifies the document
func (d *Document) SOPInstanceUID() string {
	return dicom.GetSOPInstanceUID(d.Dataset)
}

// StudyInstanceUID identifies the study the document is filed under
func (d *Document) StudyInstanceUID() string {
	return dicom.GetStudyInstanceUID(d.Dataset)
}

// SeriesInstanceUID identifies the SR series
func (d *Document) SeriesInstanceUID() string {
	return dicom.GetSeriesInstanceUID(d.Dataset)
}

// Root parses the content tree
func (d *Document) Root() (*ContentItem, error) {
	return ParseContentItem(d.Dataset)
}

// MeasurementGroups returns the Measurement Group containers under Imaging Measurements.
// Concepts are matched by code, falling back to the code meaning.
func (d *Document) MeasurementGroups() ([]*ContentItem, error) {
	root, err := d.Root()
	if err != nil {
		return nil, err
	}
	measurements := findConcept(root, ImagingMeasurements)
	if measurements == nil {
		return nil, ErrNoMeasurements
	}
	var groups []*ContentItem
	for _, child := range measurements.Children {
		if child.ValueType == ValueTypeContainer && matchesConcept(child.ConceptName, MeasurementGroupConcept) {
			groups = append(groups, child)
		}
	}
	return groups, nil
}

// Evidence returns the SOP instance to series mapping of the evidence sequence
func (d *Document) Evidence() map[string]string {
	m := map[string]string{}
	for _, tagSeq := range []tag.Tag{tag.CurrentRequestedProcedureEvidenceSequence, tag.PertinentOtherEvidenceSequence} {
		for _, study := range dicom.GetSequenceItems(d.Dataset, tagSeq) {
			for _, series := range dicom.GetSequenceItems(study, tag.ReferencedSeriesSequence) {
				seriesUID := dicom.GetText(series, tag.SeriesInstanceUID)
				for _, sop := range dicom.GetSequenceItems(series, tag.ReferencedSOPSequence) {
					m[dicom.GetText(sop, tag.ReferencedSOPInstanceUID)] = seriesUID
				}
			}
		}
	}
	return m
}

// WriteTo writes the document to any io.Writer
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return dicom.Write(w, d.Dataset)
}

// Write saves the document to a file
func (d *Document) Write(path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return d.WriteTo(f)
}

func matchesConcept(c, want CodedConcept) bool {
	return c.Equal(want) || (c.Meaning != "" && strings.EqualFold(c.Meaning, want.Meaning))
}

func findConcept(item *ContentItem, want CodedConcept) *ContentItem {
	for _, child := range item.Children {
		if child.ValueType == ValueTypeContainer && matchesConcept(child.ConceptName, want) {
			return child
		}
	}
	return nil
}
