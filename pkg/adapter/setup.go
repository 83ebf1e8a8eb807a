package adapter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/coords"
	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"github.com/jpfielding/dicomsr.go/pkg/util"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrMalformedGroup marks a measurement group without a positioned NUM
	ErrMalformedGroup = errors.New("malformed measurement group")
	// ErrUnresolvedReference marks a referenced SOP instance the viewer has no image for
	ErrUnresolvedReference = errors.New("unresolved SOP instance reference")
	// ErrMissingReference marks an annotation that cannot be tied to an image or frame of reference
	ErrMissingReference = errors.New("missing reference")
	// ErrInvalidAnnotation marks an annotation without the handles its tool needs
	ErrInvalidAnnotation = errors.New("invalid annotation")
)

// Env is what the viewer supplies to a decode or encode
type Env struct {
	SOPMap   *annotation.SOPMap
	Metadata annotation.MetadataProvider
	// Converter defaults to a plane converter over Metadata
	Converter annotation.CoordinateConverter
}

func (e *Env) converter() annotation.CoordinateConverter {
	if e.Converter != nil {
		return e.Converter
	}
	if e.Metadata != nil {
		return coords.NewPlaneConverter(e.Metadata)
	}
	return nil
}

func (e *Env) plane(imageID string) *annotation.ImagePlane {
	if e.Metadata == nil || imageID == "" {
		return nil
	}
	if p, ok := e.Metadata.ImagePlane(imageID); ok {
		return p
	}
	return nil
}

func (e *Env) pixel(imageID string) *annotation.ImagePixel {
	if e.Metadata == nil || imageID == "" {
		return nil
	}
	if p, ok := e.Metadata.ImagePixel(imageID); ok {
		return p
	}
	return nil
}

// Setup is the part of a measurement group every tool decodes the same way
type Setup struct {
	Group              *sr.MeasurementGroup
	Registration       *Registration
	TrackingIdentifier string
	Env                *Env

	// Annotation is the shell the codec completes
	Annotation *annotation.Annotation
	// Num is the first NUM of the group and Coordinate its spatial coordinate
	Num        *sr.Num
	Coordinate *sr.SpatialCoordinate

	ReferencedSOPInstanceUID string
	ReferencedFrameNumber    int
	ImageID                  string
	// Plane is nil when the image has no plane metadata
	Plane *annotation.ImagePlane
}

// SetupMeasurementData extracts the common fields of a measurement group:
// finding, finding sites, the primary NUM and coordinate, and the image the
// coordinate references.
func SetupMeasurementData(group *sr.MeasurementGroup, env *Env, toolType string) (*Setup, error) {
	if env == nil {
		env = &Env{}
	}
	num := group.PrimaryNum()
	if num == nil {
		return nil, fmt.Errorf("%w: %s has no NUM", ErrMalformedGroup, group.TrackingIdentifier)
	}
	coord := num.Coordinate
	if coord == nil {
		return nil, fmt.Errorf("%w: %s NUM %s has no spatial coordinate", ErrMalformedGroup, group.TrackingIdentifier, num.ConceptName.Meaning)
	}

	s := &Setup{Group: group, Env: env, Num: num, Coordinate: coord}
	patientSpace := coord.Is3D && coord.FrameOfReferenceUID != ""
	switch ref := coord.ReferencedSOP; {
	case ref != nil && ref.ReferencedSOPInstanceUID != "":
		imageID, ok := env.SOPMap.ImageID(ref.ReferencedSOPInstanceUID, ref.ReferencedFrameNumber)
		switch {
		case ok:
			s.ImageID = imageID
		case !patientSpace:
			return nil, fmt.Errorf("%w: %s frame %d", ErrUnresolvedReference, ref.ReferencedSOPInstanceUID, ref.ReferencedFrameNumber)
		}
		// a SCOORD3D stays in its frame of reference when its source image is not loaded
		s.ReferencedSOPInstanceUID = ref.ReferencedSOPInstanceUID
		s.ReferencedFrameNumber = ref.ReferencedFrameNumber
	case patientSpace:
	default:
		return nil, fmt.Errorf("%w: %s coordinate has no image or frame of reference", ErrMalformedGroup, group.TrackingIdentifier)
	}
	s.Plane = env.plane(s.ImageID)

	frameOfReference := coord.FrameOfReferenceUID
	if s.Plane != nil && s.Plane.FrameOfReferenceUID != "" {
		frameOfReference = s.Plane.FrameOfReferenceUID
	}
	a := &annotation.Annotation{
		ID:                  annotationID(group),
		ToolName:            toolType,
		ReferencedImageID:   s.ImageID,
		FrameOfReferenceUID: frameOfReference,
		SOPInstanceUID:      s.ReferencedSOPInstanceUID,
		FindingSites:        group.FindingSites(),
		Data: annotation.Data{
			FrameNumber: s.ReferencedFrameNumber,
		},
	}
	if f, ok := group.Finding(); ok {
		a.Label = f.Meaning
		if !f.IsFreeText() {
			a.Finding = &f
		}
	}
	s.Annotation = a
	return s, nil
}

// Points returns the world points of the primary coordinate
func (s *Setup) Points() ([]r3.Vec, error) {
	return s.PointsOf(s.Coordinate)
}

// PointsOf returns the world points of any coordinate of the group
func (s *Setup) PointsOf(c *sr.SpatialCoordinate) ([]r3.Vec, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: %s has no spatial coordinate", ErrMalformedGroup, s.Group.TrackingIdentifier)
	}
	pts, err := coords.PointsFromCoordinate(s.Env.converter(), s.ImageID, c)
	if err != nil {
		return nil, fmt.Errorf("%s points: %w", s.Annotation.ToolName, err)
	}
	return pts, nil
}

// Metrics returns the NUM values of the group for the referenced instance
func (s *Setup) Metrics() map[string]Metric {
	return ExtractAllNUMGroups(s.Group, s.ReferencedSOPInstanceUID)[s.ReferencedSOPInstanceUID]
}

// RestoreStats caches the NUM values of the group as the annotation's stats
func (s *Setup) RestoreStats() *annotation.Stats {
	stats := RestoreAdditionalMetrics(s.Metrics())
	s.Annotation.SetStats(s.ImageID, stats)
	return stats
}

// annotationID maps a 2.25 tracking UID back to its UUID; other UIDs are
// kept and a group without one gets a UUID hashed from its content.
func annotationID(group *sr.MeasurementGroup) string {
	uid := group.TrackingUniqueIdentifier
	if id, ok := dicom.UUIDFromUID(uid); ok {
		return id.String()
	}
	if uid != "" {
		return uid
	}
	return util.HashUUID(group)
}

// trackingUID is the inverse of annotationID
func trackingUID(id string) string {
	if id == "" {
		return ""
	}
	if u, err := uuid.Parse(id); err == nil {
		return dicom.UIDFromUUID("", u)
	}
	if isUID(id) {
		return id
	}
	u, err := uuid.Parse(util.HashUUID(id))
	if err != nil {
		return ""
	}
	return dicom.UIDFromUUID("", u)
}

func isUID(s string) bool {
	if len(s) > 64 || s == "" || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && c != '.' {
			return false
		}
	}
	return true
}

// Encoding is the state of one annotation being written
type Encoding struct {
	Annotation *annotation.Annotation
	ImageID    string
	Is3D       bool
	Env        *Env
	// Args is prefilled with the identifiers, finding and references
	Args *sr.Args
}

// Stats returns the cached stats of the encoded image
func (e *Encoding) Stats() *annotation.Stats {
	return e.Annotation.Stats(e.ImageID)
}

// Coordinates converts world points into the written coordinate space
func (e *Encoding) Coordinates(pts []r3.Vec) ([]sr.Coordinate, error) {
	c, err := coords.ToCoordinates(e.Env.converter(), e.ImageID, pts, e.Is3D)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", e.Annotation.ToolName, e.Annotation.ID, err)
	}
	return c, nil
}

// Handles returns the handle points, failing when fewer than n are set
func (e *Encoding) Handles(n int) ([]r3.Vec, error) {
	pts := e.Annotation.Data.Handles.Points
	if len(pts) < n {
		return nil, fmt.Errorf("%w: %s %s has %d handles, needs %d", ErrInvalidAnnotation, e.Annotation.ToolName, e.Annotation.ID, len(pts), n)
	}
	return pts, nil
}

// Decode reads a measurement group as this tool
func (r *Registration) Decode(group *sr.MeasurementGroup, env *Env, trackingIdentifier string) (*annotation.Annotation, error) {
	s, err := SetupMeasurementData(group, env, r.ToolType)
	if err != nil {
		return nil, err
	}
	s.Registration = r
	s.TrackingIdentifier = trackingIdentifier
	return r.codec.Decode(s)
}

// Encode returns the TID 300 arguments of an annotation. The SOP reference
// of 2D measurements is left to the caller.
func (r *Registration) Encode(a *annotation.Annotation, env *Env, is3D bool) (*sr.Args, error) {
	if env == nil {
		env = &Env{}
	}
	args := &sr.Args{
		TrackingIdentifierTextValue: r.TrackingIdentifier,
		TrackingUniqueIdentifier:    trackingUID(a.ID),
		FindingSites:                a.FindingSites,
		Use3DSpatialCoordinates:     is3D,
	}
	switch {
	case a.Finding != nil && !a.Finding.IsZero():
		f := *a.Finding
		args.Finding = &f
	case a.Label != "":
		f := sr.FreeText(a.Label)
		args.Finding = &f
	}
	if is3D {
		args.ReferencedFrameOfReferenceUID = a.FrameOfReferenceUID
		if p := env.plane(a.ReferencedImageID); args.ReferencedFrameOfReferenceUID == "" && p != nil {
			args.ReferencedFrameOfReferenceUID = p.FrameOfReferenceUID
		}
		if args.ReferencedFrameOfReferenceUID == "" {
			return nil, fmt.Errorf("%w: %s %s has no frame of reference", ErrMissingReference, r.ToolType, a.ID)
		}
	}
	e := &Encoding{Annotation: a, ImageID: a.ReferencedImageID, Is3D: is3D, Env: env, Args: args}
	if err := r.codec.Encode(e); err != nil {
		return nil, err
	}
	return args, nil
}
