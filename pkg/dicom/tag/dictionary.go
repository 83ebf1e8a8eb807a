package tag

import "github.com/jpfielding/dicomsr.go/pkg/dicom/vr"

// Entry is the dictionary record for a tag
type Entry struct {
	Name string
	VR   vr.VR
}

var dictionary = map[Tag]Entry{
	FileMetaInformationGroupLength: {"FileMetaInformationGroupLength", vr.UL},
	FileMetaInformationVersion:     {"FileMetaInformationVersion", vr.OB},
	MediaStorageSOPClassUID:        {"MediaStorageSOPClassUID", vr.UI},
	MediaStorageSOPInstanceUID:     {"MediaStorageSOPInstanceUID", vr.UI},
	TransferSyntaxUID:              {"TransferSyntaxUID", vr.UI},
	ImplementationClassUID:         {"ImplementationClassUID", vr.UI},
	ImplementationVersionName:      {"ImplementationVersionName", vr.SH},
	SpecificCharacterSet:           {"SpecificCharacterSet", vr.CS},

	PatientName:      {"PatientName", vr.PN},
	PatientID:        {"PatientID", vr.LO},
	PatientBirthDate: {"PatientBirthDate", vr.DA},
	PatientSex:       {"PatientSex", vr.CS},
	PatientAge:       {"PatientAge", vr.AS},
	PatientComments:  {"PatientComments", vr.LT},

	StudyDate:              {"StudyDate", vr.DA},
	StudyTime:              {"StudyTime", vr.TM},
	AccessionNumber:        {"AccessionNumber", vr.SH},
	ReferringPhysicianName: {"ReferringPhysicianName", vr.PN},
	StudyDescription:       {"StudyDescription", vr.LO},
	StudyInstanceUID:       {"StudyInstanceUID", vr.UI},
	StudyID:                {"StudyID", vr.SH},

	Modality:          {"Modality", vr.CS},
	SeriesInstanceUID: {"SeriesInstanceUID", vr.UI},
	SeriesNumber:      {"SeriesNumber", vr.IS},
	InstanceNumber:    {"InstanceNumber", vr.IS},
	SeriesDescription: {"SeriesDescription", vr.LO},
	SeriesDate:        {"SeriesDate", vr.DA},
	SeriesTime:        {"SeriesTime", vr.TM},

	Manufacturer:          {"Manufacturer", vr.LO},
	InstitutionName:       {"InstitutionName", vr.LO},
	StationName:           {"StationName", vr.SH},
	ManufacturerModelName: {"ManufacturerModelName", vr.LO},
	DeviceSerialNumber:    {"DeviceSerialNumber", vr.LO},
	SoftwareVersions:      {"SoftwareVersions", vr.LO},

	SOPClassUID:          {"SOPClassUID", vr.UI},
	SOPInstanceUID:       {"SOPInstanceUID", vr.UI},
	InstanceCreationDate: {"InstanceCreationDate", vr.DA},
	InstanceCreationTime: {"InstanceCreationTime", vr.TM},

	FrameOfReferenceUID:        {"FrameOfReferenceUID", vr.UI},
	PositionReferenceIndicator: {"PositionReferenceIndicator", vr.LO},

	SamplesPerPixel:           {"SamplesPerPixel", vr.US},
	PhotometricInterpretation: {"PhotometricInterpretation", vr.CS},
	NumberOfFrames:            {"NumberOfFrames", vr.IS},
	Rows:                      {"Rows", vr.US},
	Columns:                   {"Columns", vr.US},
	BitsAllocated:             {"BitsAllocated", vr.US},
	BitsStored:                {"BitsStored", vr.US},
	HighBit:                   {"HighBit", vr.US},
	PixelRepresentation:       {"PixelRepresentation", vr.US},
	PixelData:                 {"PixelData", vr.OW},

	ImagePositionPatient:    {"ImagePositionPatient", vr.DS},
	ImageOrientationPatient: {"ImageOrientationPatient", vr.DS},
	SliceThickness:          {"SliceThickness", vr.DS},
	SpacingBetweenSlices:    {"SpacingBetweenSlices", vr.DS},
	PixelSpacing:            {"PixelSpacing", vr.DS},
	SliceLocation:           {"SliceLocation", vr.DS},

	ContentDate: {"ContentDate", vr.DA},
	ContentTime: {"ContentTime", vr.TM},

	CodeValue:              {"CodeValue", vr.SH},
	CodingSchemeDesignator: {"CodingSchemeDesignator", vr.SH},
	CodingSchemeVersion:    {"CodingSchemeVersion", vr.SH},
	CodeMeaning:            {"CodeMeaning", vr.LO},
	MappingResource:        {"MappingResource", vr.CS},
	LongCodeValue:          {"LongCodeValue", vr.UC},
	URNCodeValue:           {"URNCodeValue", vr.UR},

	ReferencedSOPClassUID:                     {"ReferencedSOPClassUID", vr.UI},
	ReferencedSOPInstanceUID:                  {"ReferencedSOPInstanceUID", vr.UI},
	ReferencedFrameNumber:                     {"ReferencedFrameNumber", vr.IS},
	ReferencedSeriesSequence:                  {"ReferencedSeriesSequence", vr.SQ},
	ReferencedImageSequence:                   {"ReferencedImageSequence", vr.SQ},
	ReferencedSOPSequence:                     {"ReferencedSOPSequence", vr.SQ},
	CurrentRequestedProcedureEvidenceSequence: {"CurrentRequestedProcedureEvidenceSequence", vr.SQ},
	PertinentOtherEvidenceSequence:            {"PertinentOtherEvidenceSequence", vr.SQ},
	ReferencedFrameOfReferenceUID:             {"ReferencedFrameOfReferenceUID", vr.UI},

	ValueType:                 {"ValueType", vr.CS},
	ConceptNameCodeSequence:   {"ConceptNameCodeSequence", vr.SQ},
	ConceptCodeSequence:       {"ConceptCodeSequence", vr.SQ},
	ContentSequence:           {"ContentSequence", vr.SQ},
	RelationshipType:          {"RelationshipType", vr.CS},
	ContinuityOfContent:       {"ContinuityOfContent", vr.CS},
	ContentTemplateSequence:   {"ContentTemplateSequence", vr.SQ},
	TemplateIdentifier:        {"TemplateIdentifier", vr.CS},
	TextValue:                 {"TextValue", vr.UT},
	UID:                       {"UID", vr.UI},
	PersonNameValue:           {"PersonName", vr.PN},
	DateTimeValue:             {"DateTime", vr.DT},
	MeasuredValueSequence:     {"MeasuredValueSequence", vr.SQ},
	NumericValue:              {"NumericValue", vr.DS},
	FloatingPointValue:        {"FloatingPointValue", vr.FD},
	MeasurementUnitsCodeSeq:   {"MeasurementUnitsCodeSequence", vr.SQ},
	NumericValueQualifierSeq:  {"NumericValueQualifierCodeSequence", vr.SQ},
	GraphicData:               {"GraphicData", vr.FL},
	GraphicType:               {"GraphicType", vr.CS},
	CompletionFlag:            {"CompletionFlag", vr.CS},
	VerificationFlag:          {"VerificationFlag", vr.CS},
	PreliminaryFlag:           {"PreliminaryFlag", vr.CS},
	ObservationDateTime:       {"ObservationDateTime", vr.DT},
	ObservationUID:            {"ObservationUID", vr.UI},
	PerformedProcedureCodeSeq: {"PerformedProcedureCodeSequence", vr.SQ},
}

// Lookup returns the dictionary entry for a tag
func Lookup(t Tag) (Entry, bool) {
	e, ok := dictionary[t]
	return e, ok
}

// LookupName returns a human-readable name for known tags
func (t Tag) LookupName() string {
	if e, ok := dictionary[t]; ok {
		return e.Name
	}
	return ""
}

// LookupVR returns the dictionary VR for a tag, UN when unknown.
// Group length elements (gggg,0000) are always UL.
func (t Tag) LookupVR() vr.VR {
	if t.Element == 0x0000 {
		return vr.UL
	}
	if e, ok := dictionary[t]; ok {
		return e.VR
	}
	return vr.UN
}
