// Package vr defines DICOM Value Representations
package vr

// VR represents a DICOM Value Representation
type VR string

const (
	AE VR = "AE"
	AS VR = "AS"
	AT VR = "AT"
	CS VR = "CS" // coded value types, graphic types, relationship types
	DA VR = "DA"
	DS VR = "DS" // numeric values of NUM items
	DT VR = "DT"
	FL VR = "FL" // SCOORD / SCOORD3D graphic data
	FD VR = "FD"
	IS VR = "IS"
	LO VR = "LO"
	LT VR = "LT"
	OB VR = "OB"
	OD VR = "OD"
	OF VR = "OF"
	OL VR = "OL"
	OW VR = "OW"
	PN VR = "PN"
	SH VR = "SH"
	SL VR = "SL"
	SQ VR = "SQ" // content sequences nest the SR tree
	SS VR = "SS"
	ST VR = "ST"
	TM VR = "TM"
	UC VR = "UC"
	UI VR = "UI"
	UL VR = "UL" // referenced frame numbers, referenced content item ids
	UN VR = "UN"
	UR VR = "UR"
	US VR = "US"
	UT VR = "UT" // TEXT items
)

// IsLongLength is true when explicit VR encodes 2 reserved bytes and a 4 byte length
func (v VR) IsLongLength() bool {
	switch v {
	case OB, OD, OF, OL, OW, SQ, UC, UN, UR, UT:
		return true
	}
	return false
}

// Padding is the byte appended to odd length values
func (v VR) Padding() byte {
	switch v {
	case UI, OB, UN:
		return 0x00
	}
	return ' '
}
