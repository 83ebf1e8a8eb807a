package report

import (
	"cmp"
	"fmt"
	"log/slog"

	"github.com/jpfielding/dicomsr.go/pkg/adapter"
	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/coords"
	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
)

// Options configure encoding
type Options struct {
	// Use3D writes SCOORD3D for images with a frame of reference
	Use3D bool
	// Registry defaults to adapter.Default
	Registry *adapter.Registry
	Report   sr.ReportOptions
}

// GenerateReport builds a TID 1500 report from tool state by image. Images
// and tool types are visited in sorted order, each image becoming one set of
// measurement groups. Tool types without an adapter are skipped.
func GenerateReport(toolState annotation.ImageToolState, md annotation.MetadataProvider, conv annotation.CoordinateConverter, opts Options) (*sr.Report, error) {
	registry, err := registryOrDefault(opts.Registry)
	if err != nil {
		return nil, err
	}
	env := &adapter.Env{Metadata: md, Converter: conv}

	sopSeries := map[string]string{}
	seenSeries := map[string]bool{}
	var sources []*sr.Source
	var groups []*sr.MeasurementGroups
	use3D := false
	for _, imageID := range toolState.ImageIDs() {
		inst, err := instance(md, imageID)
		if err != nil {
			return nil, err
		}
		sopSeries[inst.SOPInstanceUID] = inst.SeriesInstanceUID
		if !seenSeries[inst.SeriesInstanceUID] {
			seenSeries[inst.SeriesInstanceUID] = true
			sources = append(sources, &sr.Source{
				SOPClassUID:       inst.SOPClassUID,
				SOPInstanceUID:    inst.SOPInstanceUID,
				SeriesInstanceUID: inst.SeriesInstanceUID,
				StudyInstanceUID:  inst.StudyInstanceUID,
				Patient:           inst.Patient,
				Study:             inst.Study,
			})
		}
		var plane *annotation.ImagePlane
		if p, ok := md.ImagePlane(imageID); ok {
			plane = p
		}
		is3D := coords.Use3D(opts.Use3D, plane)
		use3D = use3D || is3D

		var measurements []*sr.Measurement
		tools := toolState[imageID]
		for _, toolType := range tools.ToolTypes() {
			r, ok := registry.Get(toolType)
			if !ok {
				slog.Warn("no adapter for tool type, skipping", "toolType", toolType, "image", imageID, "count", len(tools[toolType]))
				continue
			}
			for _, a := range tools[toolType] {
				if a.ReferencedImageID != imageID {
					placed := *a
					placed.ReferencedImageID = imageID
					a = &placed
				}
				args, err := r.Encode(a, env, is3D)
				if err != nil {
					return nil, err
				}
				args.ReferencedSOPSequence = reference(inst, a)
				m, err := sr.NewMeasurement(r.Kind, *args)
				if err != nil {
					return nil, fmt.Errorf("%s %s: %w", toolType, a.ID, err)
				}
				measurements = append(measurements, m)
			}
		}
		if len(measurements) > 0 {
			groups = append(groups, sr.NewMeasurementGroups(measurements...))
		}
	}

	reportOpts := opts.Report
	reportOpts.Use3D = reportOpts.Use3D || use3D
	return sr.NewReport(reportOpts, sources, groups, sopSeries), nil
}

func instance(md annotation.MetadataProvider, imageID string) (*annotation.Instance, error) {
	if imageID == "" {
		return nil, fmt.Errorf("%w: annotation has no image", adapter.ErrMissingReference)
	}
	if md == nil {
		return nil, fmt.Errorf("%w: no metadata for image %s", adapter.ErrMissingReference, imageID)
	}
	inst, ok := md.Instance(imageID)
	if !ok || inst == nil || inst.SOPInstanceUID == "" {
		return nil, fmt.Errorf("%w: no instance metadata for image %s", adapter.ErrMissingReference, imageID)
	}
	return inst, nil
}

// reference tags the frame only for instances that address frames
func reference(inst *annotation.Instance, a *annotation.Annotation) *sr.SOPReference {
	ref := &sr.SOPReference{
		ReferencedSOPClassUID:    inst.SOPClassUID,
		ReferencedSOPInstanceUID: inst.SOPInstanceUID,
	}
	if inst.NumberOfFrames > 1 || dicom.IsMultiframeSOPClass(inst.SOPClassUID) {
		ref.ReferencedFrameNumber = cmp.Or(inst.FrameNumber, a.Data.FrameNumber, 1)
	}
	return ref
}

// EncodeReport writes tool state as a TID 1500 SR document
func EncodeReport(toolState annotation.ToolState, md annotation.MetadataProvider, conv annotation.CoordinateConverter, opts Options) (*sr.Document, error) {
	r, err := GenerateReport(toolState.ByImage(), md, conv, opts)
	if err != nil {
		return nil, err
	}
	return r.Document()
}
