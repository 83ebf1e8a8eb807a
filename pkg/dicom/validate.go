package dicom

import (
	"fmt"

	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
)

// AttributeType represents DICOM attribute type requirements
type AttributeType int

const (
	// Type1 - Required, must have value
	Type1 AttributeType = 1
	// Type1C - Conditionally required, must have value if present
	Type1C AttributeType = 2
	// Type2 - Required, may be empty
	Type2 AttributeType = 3
	// Type2C - Conditionally required, may be empty if present
	Type2C AttributeType = 4
	// Type3 - Optional
	Type3 AttributeType = 5
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Tag        tag.Tag
	Type       AttributeType
	Message    string
	IsCritical bool // Type 1 and 1C violations are critical
}

var typeNames = map[AttributeType]string{
	Type1:  "Type 1",
	Type1C: "Type 1C",
	Type2:  "Type 2",
	Type2C: "Type 2C",
	Type3:  "Type 3",
}

func (e ValidationError) Error() string {
	name, ok := typeNames[e.Type]
	if !ok {
		name = "content"
	}
	return fmt.Sprintf("(%04X,%04X) %s: %s", e.Tag.Group, e.Tag.Element, name, e.Message)
}

// ValidationResult contains all validation errors for a dataset
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no critical errors
func (r ValidationResult) IsValid() bool {
	for _, err := range r.Errors {
		if err.IsCritical {
			return false
		}
	}
	return true
}

func (r ValidationResult) HasErrors() bool   { return len(r.Errors) > 0 }
func (r ValidationResult) HasWarnings() bool { return len(r.Warnings) > 0 }

func (r *ValidationResult) fail(t tag.Tag, typ AttributeType, msg string) {
	r.Errors = append(r.Errors, ValidationError{Tag: t, Type: typ, Message: msg, IsCritical: true})
}

func (r *ValidationResult) warn(t tag.Tag, typ AttributeType, msg string) {
	r.Warnings = append(r.Warnings, ValidationError{Tag: t, Type: typ, Message: msg})
}

// IODRequirement defines a required attribute for an IOD
type IODRequirement struct {
	Tag       tag.Tag
	Type      AttributeType
	Condition func(*Dataset) bool // For Type 1C/2C, returns true if attribute is required
}

func (req IODRequirement) applies(ds *Dataset) bool {
	switch req.Type {
	case Type1C, Type2C:
		return req.Condition != nil && req.Condition(ds)
	case Type3:
		return false
	}
	return true
}

// ValidateDataset checks a dataset against a set of attribute requirements.
// Type 1 violations are errors, Type 2 violations warnings.
func ValidateDataset(ds *Dataset, requirements []IODRequirement) ValidationResult {
	var result ValidationResult
	for _, req := range requirements {
		if !req.applies(ds) {
			continue
		}
		elem, exists := ds.FindElement(req.Tag.Group, req.Tag.Element)
		qualifier := ""
		if req.Type == Type1C || req.Type == Type2C {
			qualifier = "conditionally "
		}
		switch {
		case req.Type == Type2 || req.Type == Type2C:
			if !exists {
				result.warn(req.Tag, req.Type, qualifier+"required attribute missing (may be empty)")
			}
		case !exists:
			result.fail(req.Tag, req.Type, qualifier+"required attribute missing")
		case isEmpty(elem):
			result.fail(req.Tag, req.Type, qualifier+"required attribute is empty")
		}
	}
	return result
}

// isEmpty checks if an element has no value
func isEmpty(elem *Element) bool {
	if elem == nil || elem.Value == nil {
		return true
	}
	switch v := elem.Value.(type) {
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []byte:
		return len(v) == 0
	case []uint16:
		return len(v) == 0
	case []float32:
		return len(v) == 0
	case []float64:
		return len(v) == 0
	case []*Dataset:
		return len(v) == 0
	}
	return false
}

// Common IOD Requirements

// PatientModuleRequirements defines required attributes for Patient Module
var PatientModuleRequirements = []IODRequirement{
	{Tag: tag.PatientName, Type: Type2},
	{Tag: tag.PatientID, Type: Type2},
}

// GeneralStudyModuleRequirements defines required attributes for General Study Module
var GeneralStudyModuleRequirements = []IODRequirement{
	{Tag: tag.StudyInstanceUID, Type: Type1},
	{Tag: tag.StudyDate, Type: Type2},
	{Tag: tag.StudyTime, Type: Type2},
}

// GeneralSeriesModuleRequirements defines required attributes for General Series Module
var GeneralSeriesModuleRequirements = []IODRequirement{
	{Tag: tag.Modality, Type: Type1},
	{Tag: tag.SeriesInstanceUID, Type: Type1},
}

// SOPCommonModuleRequirements defines required attributes for SOP Common Module
var SOPCommonModuleRequirements = []IODRequirement{
	{Tag: tag.SOPClassUID, Type: Type1},
	{Tag: tag.SOPInstanceUID, Type: Type1},
}

// SRDocumentGeneralRequirements defines required attributes for SR Document General Module
var SRDocumentGeneralRequirements = []IODRequirement{
	{Tag: tag.InstanceNumber, Type: Type1},
	{Tag: tag.CompletionFlag, Type: Type1},
	{Tag: tag.VerificationFlag, Type: Type1},
	{Tag: tag.ContentDate, Type: Type1},
	{Tag: tag.ContentTime, Type: Type1},
	{Tag: tag.PerformedProcedureCodeSeq, Type: Type2},
	{Tag: tag.CurrentRequestedProcedureEvidenceSequence, Type: Type1C, Condition: hasImageReferences},
}

// SRDocumentContentRequirements defines required attributes of the root content item
var SRDocumentContentRequirements = []IODRequirement{
	{Tag: tag.ValueType, Type: Type1},
	{Tag: tag.ConceptNameCodeSequence, Type: Type1},
	{Tag: tag.ContinuityOfContent, Type: Type1},
	{Tag: tag.ContentTemplateSequence, Type: Type3},
}

// SRRequirements combines all requirements for an SR document IOD
var SRRequirements = append(append(append(append(append(
	PatientModuleRequirements,
	GeneralStudyModuleRequirements...),
	GeneralSeriesModuleRequirements...),
	SRDocumentGeneralRequirements...),
	SRDocumentContentRequirements...),
	SOPCommonModuleRequirements...)

// hasImageReferences reports a content tree that points at evidence images
func hasImageReferences(ds *Dataset) bool {
	var walk func(items []*Dataset) bool
	walk = func(items []*Dataset) bool {
		for _, item := range items {
			if HasElement(item, tag.ReferencedSOPSequence) {
				return true
			}
			if walk(GetSequenceItems(item, tag.ContentSequence)) {
				return true
			}
		}
		return false
	}
	return walk(GetSequenceItems(ds, tag.ContentSequence))
}

// srContentTypes are the value types a content item may carry
var srContentTypes = map[string]bool{
	"CONTAINER": true, "CODE": true, "NUM": true, "TEXT": true, "UIDREF": true,
	"IMAGE": true, "COMPOSITE": true, "SCOORD": true, "SCOORD3D": true,
	"DATE": true, "TIME": true, "DATETIME": true, "PNAME": true,
}

// ValidateSR validates a structured report dataset: the IOD attributes, a
// CONTAINER root, and the value type of every item in the content tree.
func ValidateSR(ds *Dataset) ValidationResult {
	result := ValidateDataset(ds, SRRequirements)
	if vt := GetText(ds, tag.ValueType); vt != "" && vt != "CONTAINER" {
		result.fail(tag.ValueType, 0, "root content item must be a CONTAINER, got "+vt)
	}
	var walk func(items []*Dataset, depth int)
	walk = func(items []*Dataset, depth int) {
		for i, item := range items {
			vt := GetText(item, tag.ValueType)
			if !srContentTypes[vt] {
				result.fail(tag.ValueType, 0, fmt.Sprintf("content item %d at depth %d has value type %q", i+1, depth, vt))
			}
			if GetText(item, tag.RelationshipType) == "" {
				result.warn(tag.RelationshipType, 0, fmt.Sprintf("content item %d at depth %d has no relationship type", i+1, depth))
			}
			walk(GetSequenceItems(item, tag.ContentSequence), depth+1)
		}
	}
	walk(GetSequenceItems(ds, tag.ContentSequence), 1)
	return result
}
