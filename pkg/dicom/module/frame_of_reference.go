package module

import (
	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
)

// FrameOfReferenceModule represents the Frame of Reference Module
// Per DICOM Part 3 Section C.7.4.1
type FrameOfReferenceModule struct {
	// Required (Type 1)
	FrameOfReferenceUID string // Unique identifier for spatial frame

	// Optional (Type 2)
	PositionReferenceIndicator string // Anatomical reference point (e.g., "VERTEX", "NA")
}

// NewFrameOfReferenceModule creates a FrameOfReferenceModule for a known UID
func NewFrameOfReferenceModule(uid string) *FrameOfReferenceModule {
	return &FrameOfReferenceModule{FrameOfReferenceUID: uid}
}

// ToTags converts the module to DICOM tag elements
func (m *FrameOfReferenceModule) ToTags() []IODElement {
	return []IODElement{
		{Tag: tag.FrameOfReferenceUID, Value: m.FrameOfReferenceUID},
		{Tag: tag.PositionReferenceIndicator, Value: m.PositionReferenceIndicator},
	}
}

// ImagePlaneModule represents the Image Plane Module
// Per DICOM Part 3 Section C.7.6.2
type ImagePlaneModule struct {
	// Required (Type 1)
	PixelSpacing            [2]float64 // Row\Column spacing (mm)
	ImageOrientationPatient [6]float64 // Direction cosines (row_x, row_y, row_z, col_x, col_y, col_z)
	ImagePositionPatient    [3]float64 // Position of upper-left corner (x, y, z)

	// Conditionally Required (Type 1C)
	SliceThickness       float64 // Slice thickness (mm)
	SpacingBetweenSlices float64 // Spacing between slices (mm)

	// Optional (Type 3)
	SliceLocation float64 // Relative position of slice (mm)
}

// NewImagePlaneModule creates an ImagePlaneModule with default identity orientation
func NewImagePlaneModule() *ImagePlaneModule {
	return &ImagePlaneModule{
		PixelSpacing:            [2]float64{1.0, 1.0},
		ImageOrientationPatient: [6]float64{1, 0, 0, 0, 1, 0}, // Identity: rows along X, cols along Y
		ImagePositionPatient:    [3]float64{0, 0, 0},
		SliceThickness:          1.0,
	}
}

// ToTags converts the module to DICOM tag elements
func (m *ImagePlaneModule) ToTags() []IODElement {
	elements := []IODElement{
		{Tag: tag.PixelSpacing, Value: FormatDSList(m.PixelSpacing[:]...)},
		{Tag: tag.ImageOrientationPatient, Value: FormatDSList(m.ImageOrientationPatient[:]...)},
		{Tag: tag.ImagePositionPatient, Value: FormatDSList(m.ImagePositionPatient[:]...)},
	}

	if m.SliceThickness != 0 {
		elements = append(elements, IODElement{Tag: tag.SliceThickness, Value: FormatDS(m.SliceThickness)})
	}
	if m.SpacingBetweenSlices != 0 {
		elements = append(elements, IODElement{Tag: tag.SpacingBetweenSlices, Value: FormatDS(m.SpacingBetweenSlices)})
	}
	if m.SliceLocation != 0 {
		elements = append(elements, IODElement{Tag: tag.SliceLocation, Value: FormatDS(m.SliceLocation)})
	}

	return elements
}

// RowCosines returns the direction of increasing column index
func (m *ImagePlaneModule) RowCosines() [3]float64 {
	return [3]float64{m.ImageOrientationPatient[0], m.ImageOrientationPatient[1], m.ImageOrientationPatient[2]}
}

// ColumnCosines returns the direction of increasing row index
func (m *ImagePlaneModule) ColumnCosines() [3]float64 {
	return [3]float64{m.ImageOrientationPatient[3], m.ImageOrientationPatient[4], m.ImageOrientationPatient[5]}
}

// ImagePixelModule carries the image size subset of the Image Pixel Module (C.7.6.3)
type ImagePixelModule struct {
	Rows                      int
	Columns                   int
	NumberOfFrames            int
	SamplesPerPixel           int
	PhotometricInterpretation string
}

// ToTags converts the module to DICOM tag elements
func (m *ImagePixelModule) ToTags() []IODElement {
	elements := []IODElement{
		{Tag: tag.Rows, Value: uint16(m.Rows)},
		{Tag: tag.Columns, Value: uint16(m.Columns)},
	}
	if m.NumberOfFrames > 1 {
		elements = append(elements, IODElement{Tag: tag.NumberOfFrames, Value: FormatIS(m.NumberOfFrames)})
	}
	if m.SamplesPerPixel > 0 {
		elements = append(elements, IODElement{Tag: tag.SamplesPerPixel, Value: uint16(m.SamplesPerPixel)})
	}
	if m.PhotometricInterpretation != "" {
		elements = append(elements, IODElement{Tag: tag.PhotometricInterpretation, Value: m.PhotometricInterpretation})
	}
	return elements
}
