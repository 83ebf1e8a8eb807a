package sr

import "strings"

// UCUM measurement units
var (
	Millimeter       = NewCode("mm", SchemeUCUM, "millimeter")
	SquareMillimeter = NewCode("mm2", SchemeUCUM, "SquareMilliMeter")
	Degree           = NewCode("deg", SchemeUCUM, "degree")
	HounsfieldUnit   = NewCode("[hnsf'U]", SchemeUCUM, "Hounsfield unit")
	NoUnits          = NewCode("1", SchemeUCUM, "no units")
	Pixel            = NewCode("{px}", SchemeUCUM, "pixel")
)

// UnitCode maps a viewer unit label to its UCUM code. Unknown labels are
// written as UCUM codes verbatim.
func UnitCode(label string) CodedConcept {
	switch strings.TrimSpace(label) {
	case "":
		return NoUnits
	case "mm":
		return Millimeter
	case "mm²", "mm2", "mm^2":
		return SquareMillimeter
	case "deg", "°":
		return Degree
	case "HU":
		return HounsfieldUnit
	case "px":
		return Pixel
	case "px²":
		return NewCode("{px}2", SchemeUCUM, "square pixel")
	}
	return NewCode(label, SchemeUCUM, label)
}

// UnitLabel is the inverse of UnitCode
func UnitLabel(c CodedConcept) string {
	switch {
	case c.Equal(NoUnits):
		return ""
	case c.Equal(Millimeter):
		return "mm"
	case c.Equal(SquareMillimeter):
		return "mm²"
	case c.Equal(Degree):
		return "deg"
	case c.Equal(HounsfieldUnit):
		return "HU"
	case c.Equal(Pixel):
		return "px"
	case c.Value == "{px}2":
		return "px²"
	}
	return c.Value
}
