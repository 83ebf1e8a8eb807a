package module

import "github.com/jpfielding/dicomsr.go/pkg/dicom/tag"

// PatientModule represents the Patient Module (C.7.1.1).
// An SR copies these from the evidence so the report files under the same patient.
type PatientModule struct {
	PatientName      PersonName
	PatientID        string
	PatientBirthDate Date
	PatientSex       string // M, F, O
	PatientAge       string
	PatientComments  string
}

func (m *PatientModule) ToTags() []IODElement {
	elements := []IODElement{
		{Tag: tag.PatientName, Value: m.PatientName.String()},
		{Tag: tag.PatientID, Value: m.PatientID},
		{Tag: tag.PatientBirthDate, Value: m.PatientBirthDate.String()},
		{Tag: tag.PatientSex, Value: m.PatientSex},
	}
	if m.PatientAge != "" {
		elements = append(elements, IODElement{Tag: tag.PatientAge, Value: m.PatientAge})
	}
	if m.PatientComments != "" {
		elements = append(elements, IODElement{Tag: tag.PatientComments, Value: m.PatientComments})
	}
	return elements
}

// SetPatientName sets the patient's name
func (m *PatientModule) SetPatientName(first, last, middle, prefix, suffix string) {
	m.PatientName = PersonName{
		GivenName:  first,
		FamilyName: last,
		MiddleName: middle,
		Prefix:     prefix,
		Suffix:     suffix,
	}
}
