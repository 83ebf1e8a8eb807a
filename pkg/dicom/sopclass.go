package dicom

// Structured Report Storage SOP Classes
const (
	BasicTextSRStorage         = "1.2.840.10008.5.1.4.1.1.88.11"
	EnhancedSRStorage          = "1.2.840.10008.5.1.4.1.1.88.22"
	ComprehensiveSRStorage     = "1.2.840.10008.5.1.4.1.1.88.33"
	Comprehensive3DSRStorage   = "1.2.840.10008.5.1.4.1.1.88.34"
	ExtensibleSRStorage        = "1.2.840.10008.5.1.4.1.1.88.35"
	KeyObjectSelectionDocument = "1.2.840.10008.5.1.4.1.1.88.59"
)

// Image Storage SOP Classes referenced by measurement reports
const (
	CTImageStorage                         = "1.2.840.10008.5.1.4.1.1.2"
	EnhancedCTImageStorage                 = "1.2.840.10008.5.1.4.1.1.2.1"
	MRImageStorage                         = "1.2.840.10008.5.1.4.1.1.4"
	EnhancedMRImageStorage                 = "1.2.840.10008.5.1.4.1.1.4.1"
	UltrasoundImageStorage                 = "1.2.840.10008.5.1.4.1.1.6.1"
	PETImageStorage                        = "1.2.840.10008.5.1.4.1.1.128"
	SecondaryCaptureImage                  = "1.2.840.10008.5.1.4.1.1.7"
	DigitalXRayImageStorageForPresentation = "1.2.840.10008.5.1.4.1.1.1.1"
)

// Multi-frame image storage classes. A frame within one of these is addressed by
// ReferencedFrameNumber even when the instance happens to carry a single frame.
const (
	EnhancedMRColorImageStorage                         = "1.2.840.10008.5.1.4.1.1.4.3"
	LegacyConvertedEnhancedCTImageStorage               = "1.2.840.10008.5.1.4.1.1.2.2"
	LegacyConvertedEnhancedMRImageStorage               = "1.2.840.10008.5.1.4.1.1.4.4"
	UltrasoundMultiFrameImageStorage                    = "1.2.840.10008.5.1.4.1.1.3.1"
	EnhancedUSVolumeStorage                             = "1.2.840.10008.5.1.4.1.1.6.2"
	MultiFrameGrayscaleByteSecondaryCaptureImageStorage = "1.2.840.10008.5.1.4.1.1.7.1"
	MultiFrameGrayscaleWordSecondaryCaptureImageStorage = "1.2.840.10008.5.1.4.1.1.7.2"
	MultiFrameTrueColorSecondaryCaptureImageStorage     = "1.2.840.10008.5.1.4.1.1.7.3"
	MultiFrameSingleBitSecondaryCaptureImageStorage     = "1.2.840.10008.5.1.4.1.1.7.4"
	XRayAngiographicImageStorage                        = "1.2.840.10008.5.1.4.1.1.12.1"
	EnhancedXAImageStorage                              = "1.2.840.10008.5.1.4.1.1.12.1.1"
	XRayRadiofluoroscopicImageStorage                   = "1.2.840.10008.5.1.4.1.1.12.2"
	EnhancedXRFImageStorage                             = "1.2.840.10008.5.1.4.1.1.12.2.1"
	BreastTomosynthesisImageStorage                     = "1.2.840.10008.5.1.4.1.1.13.1.3"
	EnhancedPETImageStorage                             = "1.2.840.10008.5.1.4.1.1.130"
	LegacyConvertedEnhancedPETImageStorage              = "1.2.840.10008.5.1.4.1.1.128.1"
	NuclearMedicineImageStorage                         = "1.2.840.10008.5.1.4.1.1.20"
	VLWholeSlideMicroscopyImageStorage                  = "1.2.840.10008.5.1.4.1.1.77.1.6"
	OphthalmicTomographyImageStorage                    = "1.2.840.10008.5.1.4.1.1.77.1.5.4"
)

// StructuredReportClasses lists every SR storage class this package recognizes
var StructuredReportClasses = []string{
	BasicTextSRStorage,
	EnhancedSRStorage,
	ComprehensiveSRStorage,
	Comprehensive3DSRStorage,
	ExtensibleSRStorage,
}

var multiframeClasses = map[string]bool{
	EnhancedCTImageStorage:                              true,
	EnhancedMRImageStorage:                              true,
	EnhancedMRColorImageStorage:                         true,
	LegacyConvertedEnhancedCTImageStorage:               true,
	LegacyConvertedEnhancedMRImageStorage:               true,
	UltrasoundMultiFrameImageStorage:                    true,
	EnhancedUSVolumeStorage:                             true,
	MultiFrameGrayscaleByteSecondaryCaptureImageStorage: true,
	MultiFrameGrayscaleWordSecondaryCaptureImageStorage: true,
	MultiFrameTrueColorSecondaryCaptureImageStorage:     true,
	MultiFrameSingleBitSecondaryCaptureImageStorage:     true,
	XRayAngiographicImageStorage:                        true,
	EnhancedXAImageStorage:                              true,
	XRayRadiofluoroscopicImageStorage:                   true,
	EnhancedXRFImageStorage:                             true,
	BreastTomosynthesisImageStorage:                     true,
	EnhancedPETImageStorage:                             true,
	LegacyConvertedEnhancedPETImageStorage:              true,
	NuclearMedicineImageStorage:                         true,
	VLWholeSlideMicroscopyImageStorage:                  true,
	OphthalmicTomographyImageStorage:                    true,
}

// IsMultiframeSOPClass reports whether instances of the class address frames individually
func IsMultiframeSOPClass(uid string) bool {
	return multiframeClasses[uid]
}
