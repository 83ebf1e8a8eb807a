package module

import (
	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
)

// GeneralSeriesModule represents the General Series Module, or the SR Document
// Series Module (C.17.1) when Modality is "SR"
type GeneralSeriesModule struct {
	Modality          string
	SeriesInstanceUID string
	SeriesNumber      int
	SeriesDate        Date
	SeriesTime        Time
	SeriesDescription string
}

func (m *GeneralSeriesModule) ToTags() []IODElement {
	elements := []IODElement{
		{Tag: tag.Modality, Value: m.Modality},
		{Tag: tag.SeriesInstanceUID, Value: m.SeriesInstanceUID},
		{Tag: tag.SeriesNumber, Value: FormatIS(m.SeriesNumber)},
	}
	if !m.SeriesDate.IsZero() {
		elements = append(elements,
			IODElement{Tag: tag.SeriesDate, Value: m.SeriesDate.String()},
			IODElement{Tag: tag.SeriesTime, Value: m.SeriesTime.String()},
		)
	}
	if m.SeriesDescription != "" {
		elements = append(elements, IODElement{Tag: tag.SeriesDescription, Value: m.SeriesDescription})
	}
	return elements
}

func (m *GeneralSeriesModule) SetSeriesInstanceUID(uid string) {
	m.SeriesInstanceUID = uid
}
