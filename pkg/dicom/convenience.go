package dicom

import (
	"fmt"

	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
)

// QuickValidate performs basic structural validation of a DICOM dataset.
//
// This is a lightweight check for common issues, not a full DICOM compliance check.
//
// Checks:
//   - SOP Class UID and SOP Instance UID present
//   - SR documents carry a Value Type and a Concept Name on the root content item
//   - Images carry Rows and Columns
//
// Returns an empty slice if valid, or a slice of errors describing issues.
func QuickValidate(ds *Dataset) []error {
	var errs []error

	if !HasElement(ds, tag.SOPClassUID) {
		errs = append(errs, fmt.Errorf("missing required element: SOP Class UID (0008,0016)"))
	}
	if !HasElement(ds, tag.SOPInstanceUID) {
		errs = append(errs, fmt.Errorf("missing required element: SOP Instance UID (0008,0018)"))
	}

	if IsStructuredReport(ds) {
		if GetText(ds, tag.ValueType) != "CONTAINER" {
			errs = append(errs, fmt.Errorf("SR root content item must be a CONTAINER (0040,A040)"))
		}
		if len(GetSequenceItems(ds, tag.ConceptNameCodeSequence)) != 1 {
			errs = append(errs, fmt.Errorf("SR root content item requires one Concept Name Code Sequence item (0040,A043)"))
		}
		return errs
	}

	if HasElement(ds, tag.PixelData) {
		if GetRows(ds) == 0 {
			errs = append(errs, fmt.Errorf("pixel data present but Rows (0028,0010) is missing or zero"))
		}
		if GetColumns(ds) == 0 {
			errs = append(errs, fmt.Errorf("pixel data present but Columns (0028,0011) is missing or zero"))
		}
	}

	return errs
}

// AddSequenceItem appends a dataset item to an existing sequence element.
//
// If the sequence doesn't exist, it creates a new one.
//
// Example:
//
//	container, _ := dicom.NewDataset(...)
//	num, _ := dicom.NewDataset(...)
//	dicom.AddSequenceItem(container, tag.ContentSequence, num)
func AddSequenceItem(ds *Dataset, t Tag, item *Dataset) error {
	if item == nil {
		return fmt.Errorf("cannot add nil dataset to sequence")
	}

	elem, exists := ds.Find(t)
	if !exists {
		ds.Elements[t] = &Element{
			Tag:   t,
			VR:    "SQ",
			Value: []*Dataset{item},
		}
		return nil
	}

	seq, ok := elem.Value.([]*Dataset)
	if !ok {
		return fmt.Errorf("element %v exists but is not a sequence (VR=%s)", t, elem.VR)
	}

	elem.Value = append(seq, item)
	return nil
}

// GetSequenceItems returns all items from a sequence element.
//
// Returns nil if the element doesn't exist or isn't a sequence.
//
// Example:
//
//	for _, child := range dicom.GetSequenceItems(ds, tag.ContentSequence) {
//		fmt.Println(dicom.GetText(child, tag.ValueType))
//	}
func GetSequenceItems(ds *Dataset, t Tag) []*Dataset {
	elem, ok := ds.Find(t)
	if !ok {
		return nil
	}
	seq, _ := elem.GetSequence()
	return seq
}

// GetFirstSequenceItem returns the first item of a sequence, nil when empty or absent
func GetFirstSequenceItem(ds *Dataset, t Tag) *Dataset {
	if items := GetSequenceItems(ds, t); len(items) > 0 {
		return items[0]
	}
	return nil
}

// HasElement returns true if the dataset contains the specified element.
func HasElement(ds *Dataset, t Tag) bool {
	_, ok := ds.Find(t)
	return ok
}

// DeleteElement removes an element from the dataset.
func DeleteElement(ds *Dataset, t Tag) {
	delete(ds.Elements, t)
}

// CloneDataset creates a deep copy of a dataset, including nested sequences.
func CloneDataset(ds *Dataset) *Dataset {
	clone := &Dataset{
		Elements: make(map[Tag]*Element, len(ds.Elements)),
	}

	for t, elem := range ds.Elements {
		clonedElem := &Element{
			Tag: elem.Tag,
			VR:  elem.VR,
		}

		switch v := elem.Value.(type) {
		case []byte:
			clonedElem.Value = append([]byte(nil), v...)
		case []string:
			clonedElem.Value = append([]string(nil), v...)
		case []float64:
			clonedElem.Value = append([]float64(nil), v...)
		case []float32:
			clonedElem.Value = append([]float32(nil), v...)
		case []*Dataset:
			clonedSeq := make([]*Dataset, len(v))
			for i, item := range v {
				clonedSeq[i] = CloneDataset(item)
			}
			clonedElem.Value = clonedSeq
		default:
			clonedElem.Value = v
		}

		clone.Elements[t] = clonedElem
	}

	return clone
}
