package adapter

import (
	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
)

// Metric is a NUM value with its unit label
type Metric struct {
	Value float64
	Unit  string
}

// ExtractAllNUMGroups collects every valued NUM of a group by concept meaning,
// keyed by the SOP instance its coordinate references. NUMs without their own
// image reference are filed under referencedSOPInstanceUID.
func ExtractAllNUMGroups(group *sr.MeasurementGroup, referencedSOPInstanceUID string) map[string]map[string]Metric {
	out := map[string]map[string]Metric{}
	for _, n := range group.Nums {
		if n.Value == nil {
			continue
		}
		sop := referencedSOPInstanceUID
		if n.Coordinate != nil && n.Coordinate.ReferencedSOP != nil && n.Coordinate.ReferencedSOP.ReferencedSOPInstanceUID != "" {
			sop = n.Coordinate.ReferencedSOP.ReferencedSOPInstanceUID
		}
		unit := ""
		if n.Unit != nil {
			unit = sr.UnitLabel(*n.Unit)
		}
		if out[sop] == nil {
			out[sop] = map[string]Metric{}
		}
		if _, seen := out[sop][n.ConceptName.Meaning]; !seen {
			out[sop][n.ConceptName.Meaning] = Metric{Value: *n.Value, Unit: unit}
		}
	}
	return out
}

type metricField struct {
	meaning string
	value   func(*annotation.Stats) **float64
	unit    func(*annotation.Stats) *string
}

// metricFields is the restore order; the first present metric sets the modality unit
var metricFields = []metricField{
	{sr.Mean.Meaning, func(s *annotation.Stats) **float64 { return &s.Mean }, func(s *annotation.Stats) *string { return &s.MeanUnit }},
	{sr.StandardDeviation.Meaning, func(s *annotation.Stats) **float64 { return &s.StdDev }, func(s *annotation.Stats) *string { return &s.StdDevUnit }},
	{sr.Maximum.Meaning, func(s *annotation.Stats) **float64 { return &s.Max }, func(s *annotation.Stats) *string { return &s.MaxUnit }},
	{sr.Minimum.Meaning, func(s *annotation.Stats) **float64 { return &s.Min }, func(s *annotation.Stats) *string { return &s.MinUnit }},
	{sr.Area.Meaning, func(s *annotation.Stats) **float64 { return &s.Area }, func(s *annotation.Stats) *string { return &s.AreaUnit }},
	{sr.Radius.Meaning, func(s *annotation.Stats) **float64 { return &s.Radius }, func(s *annotation.Stats) *string { return &s.RadiusUnit }},
	{sr.Perimeter.Meaning, func(s *annotation.Stats) **float64 { return &s.Perimeter }, func(s *annotation.Stats) *string { return &s.PerimeterUnit }},
	{sr.Length.Meaning, func(s *annotation.Stats) **float64 { return &s.Length }, func(s *annotation.Stats) *string { return &s.LengthUnit }},
	{sr.Width.Meaning, func(s *annotation.Stats) **float64 { return &s.Width }, func(s *annotation.Stats) *string { return &s.WidthUnit }},
}

// RestoreAdditionalMetrics turns extracted metrics into stats. Metrics that
// are absent stay nil.
func RestoreAdditionalMetrics(metrics map[string]Metric) *annotation.Stats {
	stats := &annotation.Stats{}
	modalityUnit := false
	for _, f := range metricFields {
		m, ok := metrics[f.meaning]
		if !ok {
			continue
		}
		*f.value(stats) = annotation.Float(m.Value)
		*f.unit(stats) = m.Unit
		if !modalityUnit {
			stats.ModalityUnit = m.Unit
			modalityUnit = true
		}
	}
	return stats
}

// metricArgs writes the stats shared by the ROI tools
func metricArgs(args *sr.Args, s *annotation.Stats) {
	args.Mean = measured(s.Mean, s.MeanUnit, s.ModalityUnit)
	args.StdDev = measured(s.StdDev, s.StdDevUnit, s.ModalityUnit)
	args.Max = measured(s.Max, s.MaxUnit, s.ModalityUnit)
	args.Min = measured(s.Min, s.MinUnit, s.ModalityUnit)
	args.Area = measured(s.Area, s.AreaUnit)
	args.Radius = measured(s.Radius, s.RadiusUnit)
	args.Perimeter = measured(s.Perimeter, s.PerimeterUnit)
}

// measured writes a stat with the first non empty unit label; without one
// the concept's default unit is used
func measured(v *float64, units ...string) *sr.Measured {
	if v == nil {
		return nil
	}
	for _, u := range units {
		if u != "" {
			return sr.Measure(*v, sr.UnitCode(u))
		}
	}
	return &sr.Measured{Value: *v}
}
