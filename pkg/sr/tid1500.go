package sr

import (
	"fmt"
	"sort"
	"time"

	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/module"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
)

// MeasurementReportTemplate is the template identifier of a TID 1500 root container
const MeasurementReportTemplate = "1500"

// Defaults for the SR series written by a report
const (
	DefaultSeriesDescription = "Research Derived series"
	DefaultSeriesNumber      = 99
	DefaultManufacturer      = "dicomsr.go"
)

// ReportOptions configure the document level attributes of a measurement report
type ReportOptions struct {
	SOPInstanceUID     string
	SeriesInstanceUID  string
	SeriesNumber       int
	SeriesDescription  string
	InstanceNumber     int
	Manufacturer       string
	UIDPrefix          string
	PersonObserverName string
	DeviceObserverUID  string
	CompletionFlag     string
	VerificationFlag   string
	ContentTime        time.Time
	// Use3D writes a Comprehensive 3D SR, needed for SCOORD3D content
	Use3D bool
}

// Source is an image instance the report derives from. The first source
// supplies the patient and study of the report.
type Source struct {
	SOPClassUID       string
	SOPInstanceUID    string
	SeriesInstanceUID string
	StudyInstanceUID  string
	Patient           module.PatientModule
	Study             module.GeneralStudyModule
}

// MeasurementGroups is TID 1501 applied to the measurements of one image:
// every measurement becomes its own Measurement Group container.
type MeasurementGroups struct {
	Measurements []*Measurement
}

// NewMeasurementGroups groups measurements of one image
func NewMeasurementGroups(ms ...*Measurement) *MeasurementGroups {
	return &MeasurementGroups{Measurements: ms}
}

// ContentItems returns one container per measurement
func (g *MeasurementGroups) ContentItems() []*ContentItem {
	items := make([]*ContentItem, 0, len(g.Measurements))
	for _, m := range g.Measurements {
		items = append(items, m.Group())
	}
	return items
}

// Report is a TID 1500 Measurement Report under construction
type Report struct {
	Options ReportOptions
	Sources []*Source
	Groups  []*MeasurementGroups
	// SOPSeries maps referenced SOP instance UIDs to their series for the evidence sequence
	SOPSeries map[string]string
}

// NewReport creates a report over the given sources and measurement groups
func NewReport(opts ReportOptions, sources []*Source, groups []*MeasurementGroups, sopSeries map[string]string) *Report {
	return &Report{Options: opts, Sources: sources, Groups: groups, SOPSeries: sopSeries}
}

// references returns the distinct SOP references of the report in first use order
func (r *Report) references() []*SOPReference {
	seen := map[string]bool{}
	var refs []*SOPReference
	add := func(classUID, instanceUID string) {
		if instanceUID == "" || seen[instanceUID] {
			return
		}
		seen[instanceUID] = true
		refs = append(refs, &SOPReference{ReferencedSOPClassUID: classUID, ReferencedSOPInstanceUID: instanceUID})
	}
	for _, g := range r.Groups {
		for _, m := range g.Measurements {
			if ref := m.Reference(); ref != nil {
				add(ref.ReferencedSOPClassUID, ref.ReferencedSOPInstanceUID)
			}
		}
	}
	for _, s := range r.Sources {
		add(s.SOPClassUID, s.SOPInstanceUID)
	}
	return refs
}

// Root builds the TID 1500 content tree
func (r *Report) Root() *ContentItem {
	root := Container("", ImagingMeasurementReport)
	root.TemplateIdentifier = MeasurementReportTemplate

	root.Add(Code(HasConceptMod, LanguageOfContent, English))
	switch {
	case r.Options.PersonObserverName != "":
		root.Add(
			Code(HasObsContext, ObserverType, Person),
			PName(HasObsContext, PersonObserverName, r.Options.PersonObserverName),
		)
	case r.Options.DeviceObserverUID != "":
		root.Add(
			Code(HasObsContext, ObserverType, Device),
			UIDRef(HasObsContext, DeviceObserverUID, r.Options.DeviceObserverUID),
		)
	}
	root.Add(Code(HasConceptMod, ProcedureReported, ImagingProcedure))

	library := Container(Contains, ImageLibraryGroup)
	for _, ref := range r.references() {
		library.Add(Image(Contains, &SOPReference{
			ReferencedSOPClassUID:    ref.ReferencedSOPClassUID,
			ReferencedSOPInstanceUID: ref.ReferencedSOPInstanceUID,
		}))
	}
	root.Add(Container(Contains, ImageLibrary, library))

	measurements := Container(Contains, ImagingMeasurements)
	for _, g := range r.Groups {
		measurements.Add(g.ContentItems()...)
	}
	return root.Add(measurements)
}

// evidence builds the Current Requested Procedure Evidence Sequence, one item per study
func (r *Report) evidence() ([]*dicom.Dataset, error) {
	seriesStudy := map[string]string{}
	for _, s := range r.Sources {
		seriesStudy[s.SeriesInstanceUID] = s.StudyInstanceUID
	}
	defaultStudy := ""
	if len(r.Sources) > 0 {
		defaultStudy = r.Sources[0].StudyInstanceUID
	}

	// study -> series -> refs
	studies := map[string]map[string][]*SOPReference{}
	for _, ref := range r.references() {
		series := r.SOPSeries[ref.ReferencedSOPInstanceUID]
		if series == "" {
			for _, s := range r.Sources {
				if s.SOPInstanceUID == ref.ReferencedSOPInstanceUID {
					series = s.SeriesInstanceUID
				}
			}
		}
		if series == "" {
			return nil, fmt.Errorf("%w: no series for SOP instance %s", ErrInvalidArgs, ref.ReferencedSOPInstanceUID)
		}
		study := seriesStudy[series]
		if study == "" {
			study = defaultStudy
		}
		if studies[study] == nil {
			studies[study] = map[string][]*SOPReference{}
		}
		studies[study][series] = append(studies[study][series], ref)
	}

	var items []*dicom.Dataset
	for _, study := range sortedKeys(studies) {
		seriesBuilder := dicom.NewSequenceBuilder(tag.ReferencedSeriesSequence)
		for _, series := range sortedKeys(studies[study]) {
			sopBuilder := dicom.NewSequenceBuilder(tag.ReferencedSOPSequence)
			for _, ref := range studies[study][series] {
				sopBuilder.AddDataset(ref.Dataset())
			}
			sops, err := sopBuilder.Build()
			if err != nil {
				return nil, err
			}
			seriesBuilder.AddItem(dicom.WithElement(tag.SeriesInstanceUID, series), sops)
		}
		seriesSeq, err := seriesBuilder.Build()
		if err != nil {
			return nil, err
		}
		item, err := dicom.NewDataset(dicom.WithElement(tag.StudyInstanceUID, study), seriesSeq)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Document assembles the SR dataset: file meta, patient/study of the first
// source, a new SR series and instance, evidence, and the content tree.
func (r *Report) Document() (*Document, error) {
	opts := r.Options
	now := opts.ContentTime
	if now.IsZero() {
		now = time.Now()
	}
	sopClass := dicom.ComprehensiveSRStorage
	if opts.Use3D {
		sopClass = dicom.Comprehensive3DSRStorage
	}
	if opts.SOPInstanceUID == "" {
		opts.SOPInstanceUID = dicom.GenerateUID(opts.UIDPrefix)
	}
	if opts.SeriesInstanceUID == "" {
		opts.SeriesInstanceUID = dicom.GenerateUID(opts.UIDPrefix)
	}
	if opts.SeriesNumber == 0 {
		opts.SeriesNumber = DefaultSeriesNumber
	}
	if opts.SeriesDescription == "" {
		opts.SeriesDescription = DefaultSeriesDescription
	}
	if opts.Manufacturer == "" {
		opts.Manufacturer = DefaultManufacturer
	}

	var patient module.PatientModule
	study := module.NewGeneralStudyModule()
	if len(r.Sources) > 0 {
		patient = r.Sources[0].Patient
		study = r.Sources[0].Study
		if study.StudyInstanceUID == "" {
			study.StudyInstanceUID = r.Sources[0].StudyInstanceUID
		}
	}
	if study.StudyInstanceUID == "" {
		study.StudyInstanceUID = dicom.GenerateUID(opts.UIDPrefix)
	}
	series := module.GeneralSeriesModule{
		Modality:          "SR",
		SeriesInstanceUID: opts.SeriesInstanceUID,
		SeriesNumber:      opts.SeriesNumber,
		SeriesDescription: opts.SeriesDescription,
		SeriesDate:        module.NewDate(now),
		SeriesTime:        module.NewTime(now),
	}
	equipment := module.GeneralEquipmentModule{Manufacturer: opts.Manufacturer}
	general := module.NewSRDocumentGeneralModule(now)
	if opts.InstanceNumber > 0 {
		general.InstanceNumber = opts.InstanceNumber
	}
	if opts.CompletionFlag != "" {
		general.CompletionFlag = opts.CompletionFlag
	}
	if opts.VerificationFlag != "" {
		general.VerificationFlag = opts.VerificationFlag
	}
	sop := module.NewSOPCommonModule(now)
	sop.SOPClassUID = sopClass
	sop.SOPInstanceUID = opts.SOPInstanceUID

	evidence, err := r.evidence()
	if err != nil {
		return nil, err
	}
	content, err := r.Root().Options()
	if err != nil {
		return nil, fmt.Errorf("building content tree: %w", err)
	}

	dsOpts := []dicom.Option{
		dicom.WithFileMeta(sopClass, opts.SOPInstanceUID, string(dicom.ExplicitVRLittleEndian)),
		dicom.WithModule(patient.ToTags()),
		dicom.WithModule(study.ToTags()),
		dicom.WithModule(series.ToTags()),
		dicom.WithModule(equipment.ToTags()),
		dicom.WithModule(general.ToTags()),
		dicom.WithModule(sop.ToTags()),
		dicom.WithSequence(tag.PerformedProcedureCodeSeq),
		dicom.WithSequence(tag.CurrentRequestedProcedureEvidenceSequence, evidence...),
	}
	ds, err := dicom.NewDataset(append(dsOpts, content...)...)
	if err != nil {
		return nil, err
	}
	return &Document{Dataset: ds}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
