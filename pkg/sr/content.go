package sr

import (
	"errors"
	"fmt"
	"math"

	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/vr"
)

// ValueType is the SR content item value type (0040,A040)
type ValueType string

const (
	ValueTypeContainer ValueType = "CONTAINER"
	ValueTypeText      ValueType = "TEXT"
	ValueTypeCode      ValueType = "CODE"
	ValueTypeNum       ValueType = "NUM"
	ValueTypeUIDRef    ValueType = "UIDREF"
	ValueTypePName     ValueType = "PNAME"
	ValueTypeDateTime  ValueType = "DATETIME"
	ValueTypeImage     ValueType = "IMAGE"
	ValueTypeSCoord    ValueType = "SCOORD"
	ValueTypeSCoord3D  ValueType = "SCOORD3D"
)

// RelationshipType is the relationship of a content item to its parent (0040,A010)
type RelationshipType string

const (
	Contains      RelationshipType = "CONTAINS"
	HasObsContext RelationshipType = "HAS OBS CONTEXT"
	HasConceptMod RelationshipType = "HAS CONCEPT MOD"
	HasProperties RelationshipType = "HAS PROPERTIES"
	HasAcqContext RelationshipType = "HAS ACQ CONTEXT"
	InferredFrom  RelationshipType = "INFERRED FROM"
	SelectedFrom  RelationshipType = "SELECTED FROM"
)

// Graphic types shared by SCOORD and SCOORD3D
const (
	GraphicPoint      = "POINT"
	GraphicMultiPoint = "MULTIPOINT"
	GraphicPolyline   = "POLYLINE"
	GraphicPolygon    = "POLYGON"
	GraphicCircle     = "CIRCLE"
	GraphicEllipse    = "ELLIPSE"
)

var (
	// ErrInvalidContent marks a content item that cannot be read as its value type
	ErrInvalidContent = errors.New("invalid content item")
)

// SOPReference is a Referenced SOP Sequence item.
// ReferencedFrameNumber is zero when no frame is referenced.
type SOPReference struct {
	ReferencedSOPClassUID    string `json:"referencedSOPClassUID"`
	ReferencedSOPInstanceUID string `json:"referencedSOPInstanceUID"`
	ReferencedFrameNumber    int    `json:"referencedFrameNumber,omitempty"`
}

// Dataset builds a Referenced SOP Sequence item
func (r *SOPReference) Dataset() *dicom.Dataset {
	opts := []dicom.Option{
		dicom.WithElement(tag.ReferencedSOPClassUID, r.ReferencedSOPClassUID),
		dicom.WithElement(tag.ReferencedSOPInstanceUID, r.ReferencedSOPInstanceUID),
	}
	if r.ReferencedFrameNumber > 0 {
		opts = append(opts, dicom.WithElement(tag.ReferencedFrameNumber, r.ReferencedFrameNumber))
	}
	ds, _ := dicom.NewDataset(opts...)
	return ds
}

func parseSOPReference(ds *dicom.Dataset) *SOPReference {
	if ds == nil {
		return nil
	}
	ref := &SOPReference{
		ReferencedSOPClassUID:    dicom.GetText(ds, tag.ReferencedSOPClassUID),
		ReferencedSOPInstanceUID: dicom.GetText(ds, tag.ReferencedSOPInstanceUID),
	}
	if elem, ok := ds.Find(tag.ReferencedFrameNumber); ok {
		if frames, ok := elem.GetInts(); ok && len(frames) > 0 {
			ref.ReferencedFrameNumber = frames[0]
		}
	}
	if ref.ReferencedSOPInstanceUID == "" {
		return nil
	}
	return ref
}

// ContentItem is one node of an SR content tree. ValueType selects which of
// the value fields are meaningful.
type ContentItem struct {
	ValueType        ValueType
	RelationshipType RelationshipType
	ConceptName      CodedConcept

	// CONTAINER
	ContinuityOfContent string
	TemplateIdentifier  string

	// TEXT, UIDREF, PNAME, DATETIME
	TextValue string

	// CODE
	ConceptCode CodedConcept

	// NUM; a nil NumericValue is an empty Measured Value Sequence
	NumericValue *float64
	Unit         *CodedConcept

	// SCOORD, SCOORD3D
	GraphicType         string
	GraphicData         []float64
	FrameOfReferenceUID string

	// IMAGE
	Reference *SOPReference

	Children []*ContentItem
}

// Add appends children and returns the item
func (ci *ContentItem) Add(children ...*ContentItem) *ContentItem {
	for _, c := range children {
		if c != nil {
			ci.Children = append(ci.Children, c)
		}
	}
	return ci
}

// Find returns the first child whose concept name matches
func (ci *ContentItem) Find(concept CodedConcept) *ContentItem {
	for _, c := range ci.Children {
		if c.ConceptName.Equal(concept) {
			return c
		}
	}
	return nil
}

// FindAll returns every child whose concept name matches any of the concepts
func (ci *ContentItem) FindAll(concepts ...CodedConcept) []*ContentItem {
	var found []*ContentItem
	for _, c := range ci.Children {
		for _, concept := range concepts {
			if c.ConceptName.Equal(concept) {
				found = append(found, c)
				break
			}
		}
	}
	return found
}

// FindByType returns every child of the given value type
func (ci *ContentItem) FindByType(t ValueType) []*ContentItem {
	var found []*ContentItem
	for _, c := range ci.Children {
		if c.ValueType == t {
			found = append(found, c)
		}
	}
	return found
}

// FirstOfType returns the first child of any of the given value types
func (ci *ContentItem) FirstOfType(types ...ValueType) *ContentItem {
	for _, c := range ci.Children {
		for _, t := range types {
			if c.ValueType == t {
				return c
			}
		}
	}
	return nil
}

// Container creates a CONTAINER item
func Container(rel RelationshipType, concept CodedConcept, children ...*ContentItem) *ContentItem {
	ci := &ContentItem{
		ValueType:           ValueTypeContainer,
		RelationshipType:    rel,
		ConceptName:         concept,
		ContinuityOfContent: "SEPARATE",
	}
	return ci.Add(children...)
}

// Text creates a TEXT item
func Text(rel RelationshipType, concept CodedConcept, value string) *ContentItem {
	return &ContentItem{ValueType: ValueTypeText, RelationshipType: rel, ConceptName: concept, TextValue: value}
}

// UIDRef creates a UIDREF item
func UIDRef(rel RelationshipType, concept CodedConcept, uid string) *ContentItem {
	return &ContentItem{ValueType: ValueTypeUIDRef, RelationshipType: rel, ConceptName: concept, TextValue: uid}
}

// PName creates a PNAME item
func PName(rel RelationshipType, concept CodedConcept, name string) *ContentItem {
	return &ContentItem{ValueType: ValueTypePName, RelationshipType: rel, ConceptName: concept, TextValue: name}
}

// Code creates a CODE item
func Code(rel RelationshipType, concept, value CodedConcept) *ContentItem {
	return &ContentItem{ValueType: ValueTypeCode, RelationshipType: rel, ConceptName: concept, ConceptCode: value}
}

// NumItem creates a NUM item. A nil value writes an empty Measured Value Sequence.
func NumItem(rel RelationshipType, concept CodedConcept, value *float64, unit CodedConcept) *ContentItem {
	u := unit
	return &ContentItem{ValueType: ValueTypeNum, RelationshipType: rel, ConceptName: concept, NumericValue: value, Unit: &u}
}

// Image creates an IMAGE item
func Image(rel RelationshipType, ref *SOPReference) *ContentItem {
	return &ContentItem{ValueType: ValueTypeImage, RelationshipType: rel, Reference: ref}
}

// SCoord creates an image-space SCOORD item selected from the referenced image
func SCoord(rel RelationshipType, graphicType string, data []float64, ref *SOPReference) *ContentItem {
	ci := &ContentItem{ValueType: ValueTypeSCoord, RelationshipType: rel, GraphicType: graphicType, GraphicData: data}
	if ref != nil {
		ci.Add(Image(SelectedFrom, ref))
	}
	return ci
}

// SCoord3D creates a patient-space SCOORD3D item
func SCoord3D(rel RelationshipType, graphicType string, data []float64, frameOfReferenceUID string) *ContentItem {
	return &ContentItem{
		ValueType:           ValueTypeSCoord3D,
		RelationshipType:    rel,
		GraphicType:         graphicType,
		GraphicData:         data,
		FrameOfReferenceUID: frameOfReferenceUID,
	}
}

// Options returns the dataset options for the item and its subtree
func (ci *ContentItem) Options() ([]dicom.Option, error) {
	opts := []dicom.Option{dicom.WithElement(tag.ValueType, string(ci.ValueType))}
	if ci.RelationshipType != "" {
		opts = append(opts, dicom.WithElement(tag.RelationshipType, string(ci.RelationshipType)))
	}
	if !ci.ConceptName.IsZero() {
		opts = append(opts, dicom.WithSequence(tag.ConceptNameCodeSequence, ci.ConceptName.Dataset()))
	}

	switch ci.ValueType {
	case ValueTypeContainer:
		opts = append(opts, dicom.WithElement(tag.ContinuityOfContent, ci.ContinuityOfContent))
		if ci.TemplateIdentifier != "" {
			tmpl, _ := dicom.NewDataset(
				dicom.WithElement(tag.MappingResource, SchemeDCM),
				dicom.WithElement(tag.TemplateIdentifier, ci.TemplateIdentifier),
			)
			opts = append(opts, dicom.WithSequence(tag.ContentTemplateSequence, tmpl))
		}
	case ValueTypeText:
		opts = append(opts, dicom.WithElement(tag.TextValue, ci.TextValue))
	case ValueTypeUIDRef:
		opts = append(opts, dicom.WithElement(tag.UID, ci.TextValue))
	case ValueTypePName:
		opts = append(opts, dicom.WithElement(tag.PersonNameValue, ci.TextValue))
	case ValueTypeDateTime:
		opts = append(opts, dicom.WithElement(tag.DateTimeValue, ci.TextValue))
	case ValueTypeCode:
		opts = append(opts, dicom.WithSequence(tag.ConceptCodeSequence, ci.ConceptCode.Dataset()))
	case ValueTypeNum:
		var measured []*dicom.Dataset
		if ci.NumericValue != nil {
			v := *ci.NumericValue
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: NUM %s value %v", ErrInvalidContent, ci.ConceptName.Meaning, v)
			}
			unit := NoUnits
			if ci.Unit != nil {
				unit = *ci.Unit
			}
			mv, err := dicom.NewDataset(
				dicom.WithElement(tag.NumericValue, v),
				dicom.WithElement(tag.FloatingPointValue, v),
				dicom.WithSequence(tag.MeasurementUnitsCodeSeq, unit.Dataset()),
			)
			if err != nil {
				return nil, err
			}
			measured = append(measured, mv)
		}
		opts = append(opts, dicom.WithSequence(tag.MeasuredValueSequence, measured...))
	case ValueTypeSCoord, ValueTypeSCoord3D:
		opts = append(opts,
			dicom.WithElement(tag.GraphicType, ci.GraphicType),
			dicom.WithElementVR(tag.GraphicData, string(vr.FL), ci.GraphicData),
		)
		if ci.ValueType == ValueTypeSCoord3D {
			opts = append(opts, dicom.WithElement(tag.ReferencedFrameOfReferenceUID, ci.FrameOfReferenceUID))
		}
	case ValueTypeImage:
		if ci.Reference == nil {
			return nil, fmt.Errorf("%w: IMAGE without a SOP reference", ErrInvalidContent)
		}
		opts = append(opts, dicom.WithSequence(tag.ReferencedSOPSequence, ci.Reference.Dataset()))
	default:
		return nil, fmt.Errorf("%w: unknown value type %q", ErrInvalidContent, ci.ValueType)
	}

	if len(ci.Children) > 0 {
		sb := dicom.NewSequenceBuilder(tag.ContentSequence)
		for _, child := range ci.Children {
			childOpts, err := child.Options()
			if err != nil {
				sb.AddError(err)
				continue
			}
			sb.AddItem(childOpts...)
		}
		seq, err := sb.Build()
		if err != nil {
			return nil, err
		}
		opts = append(opts, seq)
	}
	return opts, nil
}

// Dataset builds the item and its subtree as a sequence item dataset
func (ci *ContentItem) Dataset() (*dicom.Dataset, error) {
	opts, err := ci.Options()
	if err != nil {
		return nil, err
	}
	return dicom.NewDataset(opts...)
}

// ParseContentItem reads a content item and its subtree
func ParseContentItem(ds *dicom.Dataset) (*ContentItem, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrInvalidContent)
	}
	ci := &ContentItem{
		ValueType:        ValueType(dicom.GetText(ds, tag.ValueType)),
		RelationshipType: RelationshipType(dicom.GetText(ds, tag.RelationshipType)),
	}
	ci.ConceptName, _ = parseCodeSequence(ds, tag.ConceptNameCodeSequence)

	switch ci.ValueType {
	case ValueTypeContainer:
		ci.ContinuityOfContent = dicom.GetText(ds, tag.ContinuityOfContent)
		if tmpl := dicom.GetFirstSequenceItem(ds, tag.ContentTemplateSequence); tmpl != nil {
			ci.TemplateIdentifier = dicom.GetText(tmpl, tag.TemplateIdentifier)
		}
	case ValueTypeText:
		ci.TextValue = dicom.GetText(ds, tag.TextValue)
	case ValueTypeUIDRef:
		ci.TextValue = dicom.GetText(ds, tag.UID)
	case ValueTypePName:
		ci.TextValue = dicom.GetText(ds, tag.PersonNameValue)
	case ValueTypeDateTime:
		ci.TextValue = dicom.GetText(ds, tag.DateTimeValue)
	case ValueTypeCode:
		code, ok := parseCodeSequence(ds, tag.ConceptCodeSequence)
		if !ok {
			return nil, fmt.Errorf("%w: CODE %s has no concept code", ErrInvalidContent, ci.ConceptName.Meaning)
		}
		ci.ConceptCode = code
	case ValueTypeNum:
		if mv := dicom.GetFirstSequenceItem(ds, tag.MeasuredValueSequence); mv != nil {
			v, ok := numericValue(mv)
			if !ok {
				return nil, fmt.Errorf("%w: NUM %s has an unreadable value", ErrInvalidContent, ci.ConceptName.Meaning)
			}
			ci.NumericValue = &v
			if unit, ok := parseCodeSequence(mv, tag.MeasurementUnitsCodeSeq); ok {
				ci.Unit = &unit
			}
		}
	case ValueTypeSCoord, ValueTypeSCoord3D:
		ci.GraphicType = dicom.GetText(ds, tag.GraphicType)
		if elem, ok := ds.Find(tag.GraphicData); ok {
			data, ok := elem.GetFloats()
			if !ok {
				return nil, fmt.Errorf("%w: unreadable graphic data", ErrInvalidContent)
			}
			ci.GraphicData = data
		}
		ci.FrameOfReferenceUID = dicom.GetText(ds, tag.ReferencedFrameOfReferenceUID)
	case ValueTypeImage:
		ci.Reference = parseSOPReference(dicom.GetFirstSequenceItem(ds, tag.ReferencedSOPSequence))
	}

	for i, item := range dicom.GetSequenceItems(ds, tag.ContentSequence) {
		child, err := ParseContentItem(item)
		if err != nil {
			return nil, fmt.Errorf("content item %d: %w", i+1, err)
		}
		ci.Children = append(ci.Children, child)
	}
	return ci, nil
}

// numericValue prefers the full precision Floating Point Value over the DS text
func numericValue(mv *dicom.Dataset) (float64, bool) {
	for _, t := range []tag.Tag{tag.FloatingPointValue, tag.NumericValue} {
		if elem, ok := mv.Find(t); ok {
			if v, ok := elem.GetFloat(); ok {
				return v, true
			}
		}
	}
	return 0, false
}
