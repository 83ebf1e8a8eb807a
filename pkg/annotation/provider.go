package annotation

import (
	"fmt"
	"sort"

	"github.com/jpfielding/dicomsr.go/pkg/dicom/module"
	"gonum.org/v1/gonum/spatial/r3"
)

// ImagePlane is the plane geometry of an image (imagePlaneModule)
type ImagePlane struct {
	FrameOfReferenceUID  string
	ImagePositionPatient r3.Vec
	// RowCosines is the direction of increasing column index
	RowCosines r3.Vec
	// ColumnCosines is the direction of increasing row index
	ColumnCosines r3.Vec
	// RowPixelSpacing is the distance between rows, ColumnPixelSpacing between columns
	RowPixelSpacing    float64
	ColumnPixelSpacing float64
	Rows               int
	Columns            int
}

// ImagePixel is the size of an image (imagePixelModule)
type ImagePixel struct {
	Rows    int
	Columns int
}

// Instance is the identity of an image instance
type Instance struct {
	SOPClassUID       string
	SOPInstanceUID    string
	SeriesInstanceUID string
	StudyInstanceUID  string
	NumberOfFrames    int
	// FrameNumber is the frame an image id points at, 0 when not a frame
	FrameNumber int
	Patient     module.PatientModule
	Study       module.GeneralStudyModule
}

// MetadataProvider serves per image metadata. Lookups may miss.
type MetadataProvider interface {
	ImagePlane(imageID string) (*ImagePlane, bool)
	ImagePixel(imageID string) (*ImagePixel, bool)
	Instance(imageID string) (*Instance, bool)
}

// CoordinateConverter maps between image (column, row) and world coordinates
type CoordinateConverter interface {
	ImageToWorld(imageID string, p [2]float64) (r3.Vec, error)
	WorldToImage(imageID string, p r3.Vec) ([2]float64, error)
}

// SOPFrame is a SOP instance and frame, 0 meaning the whole instance
type SOPFrame struct {
	SOPInstanceUID string
	FrameNumber    int
}

func (s SOPFrame) key() string {
	if s.FrameNumber > 0 {
		return fmt.Sprintf("%s:%d", s.SOPInstanceUID, s.FrameNumber)
	}
	return s.SOPInstanceUID
}

// SOPMap associates SOP instances (and frames) with viewer image ids both ways
type SOPMap struct {
	images map[string]string
	sops   map[string]SOPFrame
}

// NewSOPMap creates an empty map
func NewSOPMap() *SOPMap {
	return &SOPMap{images: map[string]string{}, sops: map[string]SOPFrame{}}
}

// Add associates a SOP instance frame with an image id
func (m *SOPMap) Add(sopInstanceUID string, frame int, imageID string) *SOPMap {
	sf := SOPFrame{SOPInstanceUID: sopInstanceUID, FrameNumber: frame}
	m.images[sf.key()] = imageID
	m.sops[imageID] = sf
	return m
}

// ImageID resolves a SOP instance frame, falling back to the whole instance
// when the frame is unknown and to frame 1 when no frame was asked for.
func (m *SOPMap) ImageID(sopInstanceUID string, frame int) (string, bool) {
	if m == nil {
		return "", false
	}
	if id, ok := m.images[SOPFrame{sopInstanceUID, frame}.key()]; ok {
		return id, true
	}
	if frame > 0 {
		id, ok := m.images[sopInstanceUID]
		return id, ok
	}
	id, ok := m.images[SOPFrame{sopInstanceUID, 1}.key()]
	return id, ok
}

// SOP resolves an image id
func (m *SOPMap) SOP(imageID string) (SOPFrame, bool) {
	if m == nil {
		return SOPFrame{}, false
	}
	sf, ok := m.sops[imageID]
	return sf, ok
}

// ImageIDs returns the mapped image ids in sorted order
func (m *SOPMap) ImageIDs() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, 0, len(m.sops))
	for id := range m.sops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len is the number of mapped images
func (m *SOPMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.sops)
}
