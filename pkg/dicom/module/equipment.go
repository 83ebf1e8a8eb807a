package module

import "github.com/jpfielding/dicomsr.go/pkg/dicom/tag"

// GeneralEquipmentModule represents the General Equipment Module (C.7.5.1).
// Manufacturer is Type 2 and always written; the rest only when set.
type GeneralEquipmentModule struct {
	Manufacturer      string
	InstitutionName   string
	StationName       string
	ManufacturerModel string
	DeviceSerial      string
	SoftwareVersions  string
}

func (m *GeneralEquipmentModule) ToTags() []IODElement {
	elements := []IODElement{{Tag: tag.Manufacturer, Value: m.Manufacturer}}
	optional := []IODElement{
		{Tag: tag.InstitutionName, Value: m.InstitutionName},
		{Tag: tag.StationName, Value: m.StationName},
		{Tag: tag.ManufacturerModelName, Value: m.ManufacturerModel},
		{Tag: tag.DeviceSerialNumber, Value: m.DeviceSerial},
		{Tag: tag.SoftwareVersions, Value: m.SoftwareVersions},
	}
	for _, el := range optional {
		if el.Value != "" {
			elements = append(elements, el)
		}
	}
	return elements
}
