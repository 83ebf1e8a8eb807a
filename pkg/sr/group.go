package sr

import (
	"fmt"
)

// CodeItem is a CODE content item of a measurement group
type CodeItem struct {
	ConceptName CodedConcept `json:"conceptName"`
	Value       CodedConcept `json:"value"`
}

// SpatialCoordinate is a SCOORD or SCOORD3D item flattened with its reference.
// SCOORD carries the SOP reference of its IMAGE child; SCOORD3D carries a
// frame of reference.
type SpatialCoordinate struct {
	Is3D                bool          `json:"is3D"`
	GraphicType         string        `json:"graphicType"`
	GraphicData         []float64     `json:"graphicData"`
	ReferencedSOP       *SOPReference `json:"referencedSOP,omitempty"`
	FrameOfReferenceUID string        `json:"frameOfReferenceUID,omitempty"`
}

// Dimensions is the number of values per point in GraphicData
func (c *SpatialCoordinate) Dimensions() int {
	if c.Is3D {
		return 3
	}
	return 2
}

// NumPoints is the number of points in GraphicData
func (c *SpatialCoordinate) NumPoints() int {
	return len(c.GraphicData) / c.Dimensions()
}

// Num is a NUM item with its first spatial coordinate
type Num struct {
	ConceptName CodedConcept       `json:"conceptName"`
	Value       *float64           `json:"value,omitempty"`
	Unit        *CodedConcept      `json:"unit,omitempty"`
	Coordinate  *SpatialCoordinate `json:"coordinate,omitempty"`
}

// MeasurementGroup is a TID 1501 Measurement Group container parsed into typed fields
type MeasurementGroup struct {
	TrackingIdentifier       string       `json:"trackingIdentifier"`
	TrackingUniqueIdentifier string       `json:"trackingUniqueIdentifier,omitempty"`
	Codes                    []CodeItem   `json:"codes,omitempty"`
	Nums                     []*Num       `json:"nums"`
	Item                     *ContentItem `json:"-"`
}

// ParseMeasurementGroup reads the typed view of a measurement group container
func ParseMeasurementGroup(item *ContentItem) (*MeasurementGroup, error) {
	if item == nil || item.ValueType != ValueTypeContainer {
		return nil, fmt.Errorf("%w: measurement group must be a CONTAINER", ErrInvalidContent)
	}
	g := &MeasurementGroup{Item: item}
	for _, child := range item.Children {
		switch child.ValueType {
		case ValueTypeText:
			if child.ConceptName.Equal(TrackingIdentifier) {
				g.TrackingIdentifier = child.TextValue
			}
		case ValueTypeUIDRef:
			if child.ConceptName.Equal(TrackingUniqueIdentifier) {
				g.TrackingUniqueIdentifier = child.TextValue
			}
		case ValueTypeCode:
			g.Codes = append(g.Codes, CodeItem{ConceptName: child.ConceptName, Value: child.ConceptCode})
		case ValueTypeNum:
			g.Nums = append(g.Nums, parseNum(child))
		}
	}
	return g, nil
}

func parseNum(item *ContentItem) *Num {
	n := &Num{
		ConceptName: item.ConceptName,
		Value:       item.NumericValue,
		Unit:        item.Unit,
	}
	if c := item.FirstOfType(ValueTypeSCoord, ValueTypeSCoord3D); c != nil {
		n.Coordinate = parseCoordinate(c)
	}
	return n
}

func parseCoordinate(item *ContentItem) *SpatialCoordinate {
	c := &SpatialCoordinate{
		Is3D:                item.ValueType == ValueTypeSCoord3D,
		GraphicType:         item.GraphicType,
		GraphicData:         item.GraphicData,
		FrameOfReferenceUID: item.FrameOfReferenceUID,
	}
	if img := item.FirstOfType(ValueTypeImage); img != nil {
		c.ReferencedSOP = img.Reference
	}
	return c
}

// Finding returns the first Finding code
func (g *MeasurementGroup) Finding() (CodedConcept, bool) {
	for _, c := range g.Codes {
		if c.ConceptName.Equal(Finding) {
			return c.Value, true
		}
	}
	return CodedConcept{}, false
}

// FindingSites returns every Finding Site code, current or retired scheme
func (g *MeasurementGroup) FindingSites() []CodedConcept {
	var sites []CodedConcept
	for _, c := range g.Codes {
		if c.ConceptName.Equal(FindingSite) || c.ConceptName.Equal(FindingSiteSRT) {
			sites = append(sites, c.Value)
		}
	}
	return sites
}

// PrimaryNum is the first NUM of the group
func (g *MeasurementGroup) PrimaryNum() *Num {
	if len(g.Nums) == 0 {
		return nil
	}
	return g.Nums[0]
}

// NumByConcept returns the first NUM with the given concept name
func (g *MeasurementGroup) NumByConcept(concept CodedConcept) *Num {
	for _, n := range g.Nums {
		if n.ConceptName.Equal(concept) {
			return n
		}
	}
	return nil
}
