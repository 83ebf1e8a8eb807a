// Package dicom provides a native Go implementation for reading and writing the DICOM
// datasets involved in structured reporting: SR documents and the images they measure.
//
// It provides:
//   - Low-level DICOM parsing (explicit and implicit VR, nested sequences) and writing
//   - Functional-option dataset builders and a fluent sequence builder
//   - Typed accessors for image plane and image pixel attributes
//
// Basic usage:
//
//	// Read a DICOM file
//	ds, err := dicom.ReadFile("/path/to/sr.dcm")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if dicom.IsStructuredReport(ds) {
//		items := dicom.GetSequenceItems(ds, tag.ContentSequence)
//		...
//	}
package dicom

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/transfer"
)

// Re-export commonly used types from subpackages
type (
	// TransferSyntax represents a DICOM transfer syntax
	TransferSyntax = transfer.Syntax
)

// Transfer syntax constants
const (
	ExplicitVRLittleEndian = transfer.ExplicitVRLittleEndian
	ImplicitVRLittleEndian = transfer.ImplicitVRLittleEndian
)

// ReadFile reads a DICOM file from disk
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	return Parse(bytes.NewReader(data))
}

// ReadBuffer reads a DICOM file from a byte slice
func ReadBuffer(data []byte) (*Dataset, error) {
	return Parse(bytes.NewReader(data))
}

// GetExtension returns the standard DICOM file extension
func GetExtension() string {
	return ".dcm"
}

// IsStructuredReport returns true if the dataset is any SR storage instance
func IsStructuredReport(ds *Dataset) bool {
	return checkSOPClass(ds, StructuredReportClasses...)
}

// GetText returns the trimmed string value of a tag, "" when absent
func GetText(ds *Dataset, t Tag) string {
	if elem, ok := ds.Find(t); ok {
		if s, ok := elem.GetString(); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// GetModality returns the modality string from the dataset
func GetModality(ds *Dataset) string {
	return GetText(ds, tag.Modality)
}

// GetSOPClassUID returns the SOP Class UID (0008,0016)
func GetSOPClassUID(ds *Dataset) string {
	return GetText(ds, tag.SOPClassUID)
}

// GetSOPInstanceUID returns the SOP Instance UID (0008,0018)
func GetSOPInstanceUID(ds *Dataset) string {
	return GetText(ds, tag.SOPInstanceUID)
}

// GetStudyInstanceUID returns the Study Instance UID (0020,000D)
func GetStudyInstanceUID(ds *Dataset) string {
	return GetText(ds, tag.StudyInstanceUID)
}

// GetSeriesInstanceUID returns the Series Instance UID (0020,000E)
func GetSeriesInstanceUID(ds *Dataset) string {
	return GetText(ds, tag.SeriesInstanceUID)
}

// GetFrameOfReferenceUID returns the Frame of Reference UID (0020,0052)
func GetFrameOfReferenceUID(ds *Dataset) string {
	return GetText(ds, tag.FrameOfReferenceUID)
}

// GetTransferSyntax returns the transfer syntax from the dataset
func GetTransferSyntax(ds *Dataset) TransferSyntax {
	if s := GetText(ds, tag.TransferSyntaxUID); s != "" {
		return transfer.FromUID(s)
	}
	return ExplicitVRLittleEndian // Default
}

// GetRows returns the number of rows in the image
func GetRows(ds *Dataset) int {
	if elem, ok := ds.Find(tag.Rows); ok {
		if v, ok := elem.GetInt(); ok {
			return v
		}
	}
	return 0
}

// GetColumns returns the number of columns in the image
func GetColumns(ds *Dataset) int {
	if elem, ok := ds.Find(tag.Columns); ok {
		if v, ok := elem.GetInt(); ok {
			return v
		}
	}
	return 0
}

// GetNumberOfFrames returns the number of frames in the image
func GetNumberOfFrames(ds *Dataset) int {
	if elem, ok := ds.Find(tag.NumberOfFrames); ok {
		if v, ok := elem.GetInt(); ok && v > 0 {
			return v
		}
	}
	return 1 // Default to 1 if not specified
}

// GetInstanceNumber returns the instance number (0020,0013)
func GetInstanceNumber(ds *Dataset) int {
	if elem, ok := ds.Find(tag.InstanceNumber); ok {
		if v, ok := elem.GetInt(); ok {
			return v
		}
	}
	return 0
}

// GetSeriesDescription returns the series description (0008,103E)
func GetSeriesDescription(ds *Dataset) string {
	return GetText(ds, tag.SeriesDescription)
}

// GetPixelSpacing returns the row and column spacing in mm
func GetPixelSpacing(ds *Dataset) (row, col float64, ok bool) {
	if elem, found := ds.Find(tag.PixelSpacing); found {
		if fs, parsed := elem.GetFloats(); parsed && len(fs) == 2 {
			return fs[0], fs[1], true
		}
	}
	return 1.0, 1.0, false
}

// GetImagePositionPatient returns the position of the image origin
func GetImagePositionPatient(ds *Dataset) ([]float64, bool) {
	if elem, ok := ds.Find(tag.ImagePositionPatient); ok {
		if fs, ok := elem.GetFloats(); ok && len(fs) == 3 {
			return fs, true
		}
	}
	return []float64{0.0, 0.0, 0.0}, false
}

// GetImageOrientationPatient returns the row and column direction cosines
func GetImageOrientationPatient(ds *Dataset) ([]float64, bool) {
	if elem, ok := ds.Find(tag.ImageOrientationPatient); ok {
		if fs, ok := elem.GetFloats(); ok && len(fs) == 6 {
			return fs, true
		}
	}
	return []float64{1.0, 0.0, 0.0, 0.0, 1.0, 0.0}, false
}

// Helper function to check SOP Class UID
func checkSOPClass(ds *Dataset, uids ...string) bool {
	s := GetSOPClassUID(ds)
	for _, uid := range uids {
		if s == uid {
			return true
		}
	}
	return false
}
