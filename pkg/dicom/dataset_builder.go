package dicom

import (
	"github.com/jpfielding/dicomsr.go/pkg/dicom/module"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/vr"
)

// ImplementationClassUID identifies files written by this package
const ImplementationClassUID = "1.2.826.0.1.3680043.8.498.1"

// Option configures a Dataset during construction
type Option func(*Dataset) error

// NewDataset creates a Dataset with the given options
func NewDataset(opts ...Option) (*Dataset, error) {
	ds := &Dataset{Elements: make(map[Tag]*Element)}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(ds); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// WithElement adds a single element to the dataset, taking the VR from the dictionary
func WithElement(t tag.Tag, value interface{}) Option {
	return WithElementVR(t, GetVR(t), value)
}

// WithElementVR adds a single element with an explicit VR
func WithElementVR(t tag.Tag, v string, value interface{}) Option {
	return func(ds *Dataset) error {
		ds.Elements[t] = &Element{
			Tag:   t,
			VR:    v,
			Value: value,
		}
		return nil
	}
}

// WithOptionalElement adds a string element only when the value is non-empty
func WithOptionalElement(t tag.Tag, value string) Option {
	if value == "" {
		return nil
	}
	return WithElement(t, value)
}

// WithSequence adds a sequence element to the dataset
func WithSequence(t tag.Tag, items ...*Dataset) Option {
	return func(ds *Dataset) error {
		ds.Elements[t] = &Element{
			Tag:   t,
			VR:    string(vr.SQ),
			Value: items,
		}
		return nil
	}
}

// WithFileMeta adds standard file meta information elements
func WithFileMeta(sopClassUID, sopInstanceUID, transferSyntax string) Option {
	return func(ds *Dataset) error {
		opts := []Option{
			WithElement(tag.FileMetaInformationVersion, []byte{0x00, 0x01}),
			WithElement(tag.MediaStorageSOPClassUID, sopClassUID),
			WithElement(tag.MediaStorageSOPInstanceUID, sopInstanceUID),
			WithElement(tag.TransferSyntaxUID, transferSyntax),
			WithElement(tag.ImplementationClassUID, ImplementationClassUID),
			WithElement(tag.ImplementationVersionName, "GO_DICOMSR"),
		}
		for _, opt := range opts {
			if err := opt(ds); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithModule adds all elements from a module's ToTags() result
func WithModule(tags []module.IODElement) Option {
	return func(ds *Dataset) error {
		for _, el := range tags {
			if err := WithElement(el.Tag, el.Value)(ds); err != nil {
				return err
			}
		}
		return nil
	}
}

// GetVR returns the Value Representation (VR) for a standard tag
func GetVR(t tag.Tag) string {
	return string(t.LookupVR())
}
