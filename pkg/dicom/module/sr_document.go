package module

import (
	"time"

	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
)

// Completion and verification flag values
const (
	CompletionPartial      = "PARTIAL"
	CompletionComplete     = "COMPLETE"
	VerificationUnverified = "UNVERIFIED"
	VerificationVerified   = "VERIFIED"
)

// SRDocumentGeneralModule represents the SR Document General Module (C.17.2).
// The evidence sequences are sequences of datasets and are added by the caller.
type SRDocumentGeneralModule struct {
	InstanceNumber   int
	CompletionFlag   string
	VerificationFlag string
	ContentDate      Date
	ContentTime      Time
}

func NewSRDocumentGeneralModule(t time.Time) SRDocumentGeneralModule {
	return SRDocumentGeneralModule{
		InstanceNumber:   1,
		CompletionFlag:   CompletionPartial,
		VerificationFlag: VerificationUnverified,
		ContentDate:      NewDate(t),
		ContentTime:      NewTime(t),
	}
}

func (m *SRDocumentGeneralModule) ToTags() []IODElement {
	return []IODElement{
		{Tag: tag.InstanceNumber, Value: FormatIS(m.InstanceNumber)},
		{Tag: tag.CompletionFlag, Value: m.CompletionFlag},
		{Tag: tag.VerificationFlag, Value: m.VerificationFlag},
		{Tag: tag.ContentDate, Value: m.ContentDate.String()},
		{Tag: tag.ContentTime, Value: m.ContentTime.String()},
	}
}
