// Package annotation is the viewer side of the measurement codec: annotations
// as a viewer keeps them, grouped by tool type, plus the metadata and
// coordinate contracts the codec consumes from the viewer.
//
// Handle points are always world (patient) coordinates in millimeters.
// Image-plane coordinates only exist while writing SR content.
package annotation

import (
	"sort"

	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"gonum.org/v1/gonum/spatial/r3"
)

// StatsKey is the cached stats key of an image
func StatsKey(imageID string) string {
	return "imageId:" + imageID
}

// TextBox is the label box of a tool
type TextBox struct {
	HasMoved      bool   `json:"hasMoved"`
	WorldPosition r3.Vec `json:"worldPosition"`
}

// Handles are the editable points of an annotation
type Handles struct {
	Points            []r3.Vec `json:"points"`
	ActiveHandleIndex int      `json:"activeHandleIndex"`
	TextBox           *TextBox `json:"textBox,omitempty"`
	// ArrowFirst draws the arrow head at the first point
	ArrowFirst bool `json:"arrowFirst,omitempty"`
}

// Contour is the polyline of a freehand tool
type Contour struct {
	Polyline []r3.Vec `json:"polyline"`
	Closed   bool     `json:"closed"`
}

// Stats are the measured values cached per image. Absent values are nil.
type Stats struct {
	Mean      *float64 `json:"mean,omitempty"`
	StdDev    *float64 `json:"stdDev,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Area      *float64 `json:"area,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
	Perimeter *float64 `json:"perimeter,omitempty"`
	Length    *float64 `json:"length,omitempty"`
	Width     *float64 `json:"width,omitempty"`
	Angle     *float64 `json:"angle,omitempty"`

	ModalityUnit  string `json:"modalityUnit,omitempty"`
	AreaUnit      string `json:"areaUnit,omitempty"`
	RadiusUnit    string `json:"radiusUnit,omitempty"`
	WidthUnit     string `json:"widthUnit,omitempty"`
	MeanUnit      string `json:"meanUnit,omitempty"`
	StdDevUnit    string `json:"stdDevUnit,omitempty"`
	MaxUnit       string `json:"maxUnit,omitempty"`
	MinUnit       string `json:"minUnit,omitempty"`
	PerimeterUnit string `json:"perimeterUnit,omitempty"`
	LengthUnit    string `json:"lengthUnit,omitempty"`
	AngleUnit     string `json:"angleUnit,omitempty"`
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// Data is the tool specific part of an annotation
type Data struct {
	Handles     Handles           `json:"handles"`
	CachedStats map[string]*Stats `json:"cachedStats,omitempty"`
	FrameNumber int               `json:"frameNumber,omitempty"`
	Contour     *Contour          `json:"contour,omitempty"`
	// Text is the arrow annotation text
	Text string `json:"text,omitempty"`
	// key image flags
	IsPoint     bool `json:"isPoint,omitempty"`
	SeriesLevel bool `json:"seriesLevel,omitempty"`
}

// Annotation is one measurement as the viewer holds it
type Annotation struct {
	ID                  string            `json:"annotationUID"`
	ToolName            string            `json:"toolName"`
	ReferencedImageID   string            `json:"referencedImageId,omitempty"`
	FrameOfReferenceUID string            `json:"frameOfReferenceUID,omitempty"`
	SOPInstanceUID      string            `json:"sopInstanceUID,omitempty"`
	Label               string            `json:"label,omitempty"`
	Finding             *sr.CodedConcept  `json:"finding,omitempty"`
	FindingSites        []sr.CodedConcept `json:"findingSites,omitempty"`
	Data                Data              `json:"data"`
}

// Stats returns the cached stats for an image, falling back to the first
// entry in key order. Never nil.
func (a *Annotation) Stats(imageID string) *Stats {
	if s, ok := a.Data.CachedStats[StatsKey(imageID)]; ok && s != nil {
		return s
	}
	keys := make([]string, 0, len(a.Data.CachedStats))
	for k := range a.Data.CachedStats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s := a.Data.CachedStats[k]; s != nil {
			return s
		}
	}
	return &Stats{}
}

// SetStats caches stats for an image
func (a *Annotation) SetStats(imageID string, s *Stats) {
	if a.Data.CachedStats == nil {
		a.Data.CachedStats = map[string]*Stats{}
	}
	a.Data.CachedStats[StatsKey(imageID)] = s
}

// ToolState is annotations by tool type
type ToolState map[string][]*Annotation

// Add appends annotations under a tool type
func (ts ToolState) Add(toolType string, as ...*Annotation) {
	ts[toolType] = append(ts[toolType], as...)
}

// ToolTypes returns the tool types in sorted order
func (ts ToolState) ToolTypes() []string {
	types := make([]string, 0, len(ts))
	for t := range ts {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count is the number of annotations over all tool types
func (ts ToolState) Count() int {
	n := 0
	for _, as := range ts {
		n += len(as)
	}
	return n
}

// ByImage groups annotations by their referenced image
func (ts ToolState) ByImage() ImageToolState {
	out := ImageToolState{}
	for toolType, as := range ts {
		for _, a := range as {
			if out[a.ReferencedImageID] == nil {
				out[a.ReferencedImageID] = ToolState{}
			}
			out[a.ReferencedImageID].Add(toolType, a)
		}
	}
	return out
}

// ImageToolState is tool state by image id
type ImageToolState map[string]ToolState

// ImageIDs returns the image ids in sorted order
func (its ImageToolState) ImageIDs() []string {
	ids := make([]string, 0, len(its))
	for id := range its {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
