// Package report reads TID 1500 measurement reports into viewer tool state
// and writes tool state back as a report.
package report

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jpfielding/dicomsr.go/pkg/adapter"
	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
)

// ErrUnsupportedDocument marks a document that is not a TID 1500 measurement report
var ErrUnsupportedDocument = errors.New("unsupported document")

// Hooks customize decoding
type Hooks struct {
	// ResolveAdapter is asked before the registry; nil falls through to it
	ResolveAdapter func(group *sr.MeasurementGroup, doc *sr.Document, registry *adapter.Registry) *adapter.Registration
	// Converter maps image to world coordinates, by default from the image plane metadata
	Converter annotation.CoordinateConverter
	// Registry defaults to adapter.Default
	Registry *adapter.Registry
}

func registryOrDefault(r *adapter.Registry) (*adapter.Registry, error) {
	if r != nil {
		return r, nil
	}
	return adapter.Default()
}

// resolve applies the dispatch order: hook, exact identifier, longest prefix
func resolve(group *sr.MeasurementGroup, doc *sr.Document, registry *adapter.Registry, hooks *Hooks) *adapter.Registration {
	if hooks.ResolveAdapter != nil {
		if r := hooks.ResolveAdapter(group, doc, registry); r != nil {
			return r
		}
	}
	if r, ok := registry.Resolve(group.TrackingIdentifier); ok {
		return r
	}
	return nil
}

// GenerateToolState decodes every measurement group of a TID 1500 report
// into annotations grouped by tool type. Groups of unknown tools are skipped;
// a malformed group fails the whole decode.
func GenerateToolState(doc *sr.Document, sopMap *annotation.SOPMap, md annotation.MetadataProvider, hooks *Hooks) (annotation.ToolState, error) {
	if hooks == nil {
		hooks = &Hooks{}
	}
	if tid := doc.TemplateIdentifier(); tid != sr.MeasurementReportTemplate {
		return nil, fmt.Errorf("%w: template %q", ErrUnsupportedDocument, tid)
	}
	registry, err := registryOrDefault(hooks.Registry)
	if err != nil {
		return nil, err
	}
	items, err := doc.MeasurementGroups()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedDocument, err)
	}

	env := &adapter.Env{SOPMap: sopMap, Metadata: md, Converter: hooks.Converter}
	state := annotation.ToolState{}
	for i, item := range items {
		group, err := sr.ParseMeasurementGroup(item)
		if err != nil {
			return nil, fmt.Errorf("measurement group %d: %w", i, err)
		}
		r := resolve(group, doc, registry, hooks)
		if r == nil {
			slog.Debug("skipping measurement group of unknown tool", "index", i, "trackingIdentifier", group.TrackingIdentifier)
			continue
		}
		a, err := r.Decode(group, env, group.TrackingIdentifier)
		if err != nil {
			return nil, fmt.Errorf("measurement group %d (%s): %w", i, r.ToolType, err)
		}
		if a == nil {
			continue
		}
		state.Add(r.UtilityType, a)
	}
	return state, nil
}

// DecodeReport decodes a parsed SR dataset into tool state
func DecodeReport(ds *dicom.Dataset, sopMap *annotation.SOPMap, md annotation.MetadataProvider, hooks *Hooks) (annotation.ToolState, error) {
	if !dicom.IsStructuredReport(ds) {
		return nil, fmt.Errorf("%w: SOP class %q is not a structured report", ErrUnsupportedDocument, dicom.GetSOPClassUID(ds))
	}
	return GenerateToolState(sr.NewDocument(ds), sopMap, md, hooks)
}
