// Package transfer names the DICOM Transfer Syntaxes an SR file may be stored with
package transfer

// Syntax represents a DICOM Transfer Syntax UID
type Syntax string

const (
	ImplicitVRLittleEndian Syntax = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian Syntax = "1.2.840.10008.1.2.1"
	ExplicitVRBigEndian    Syntax = "1.2.840.10008.1.2.2" // retired
	DeflatedExplicitVR     Syntax = "1.2.840.10008.1.2.1.99"
)

var names = map[Syntax]string{
	ImplicitVRLittleEndian: "Implicit VR Little Endian",
	ExplicitVRLittleEndian: "Explicit VR Little Endian",
	ExplicitVRBigEndian:    "Explicit VR Big Endian",
	DeflatedExplicitVR:     "Deflated Explicit VR Little Endian",
}

// IsExplicitVR reports whether elements carry their VR
func (s Syntax) IsExplicitVR() bool {
	return s != ImplicitVRLittleEndian
}

// IsSupported reports whether the element stream can be read without
// inflating or byte swapping. Reports carry no pixel data, so only the
// little endian syntaxes are accepted.
func (s Syntax) IsSupported() bool {
	return s == ImplicitVRLittleEndian || s == ExplicitVRLittleEndian
}

// Name is the human readable name, or the UID when unknown
func (s Syntax) Name() string {
	if n, ok := names[s]; ok {
		return n
	}
	return string(s)
}

// FromUID converts a UID string to a Syntax
func FromUID(uid string) Syntax {
	return Syntax(uid)
}
