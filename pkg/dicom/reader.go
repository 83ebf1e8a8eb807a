package dicom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/transfer"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/vr"
)

const undefinedLength = 0xFFFFFFFF

// maxDepth bounds sequence nesting so a corrupt stream cannot recurse without limit
const maxDepth = 64

// Reader reads DICOM files
type Reader struct {
	r              io.Reader
	pos            int64
	transferSyntax transfer.Syntax
	explicitVR     bool
}

// NewReader creates a new DICOM reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:          r,
		explicitVR: true,
	}
}

// Parse reads a complete DICOM file
func Parse(r io.Reader) (*Dataset, error) {
	reader := NewReader(r)
	return reader.ReadDataset()
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.pos += int64(n)
	return n, err
}

// ReadDataset reads the complete dataset, nested sequences included
func (r *Reader) ReadDataset() (*Dataset, error) {
	ds := &Dataset{
		Elements: make(map[Tag]*Element),
	}

	preamble := make([]byte, 128)
	if _, err := io.ReadFull(r, preamble); err != nil {
		return nil, fmt.Errorf("failed to read preamble: %w", err)
	}
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read DICM magic: %w", err)
	}
	if string(magic) != "DICM" {
		return nil, errors.New("invalid DICOM file: missing DICM magic")
	}

	// Group 0002 (File Meta Information) is ALWAYS Explicit VR Little Endian
	r.explicitVR = true
	inMeta := true

	for {
		t, err := r.readTag()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tag: %w", err)
		}

		if inMeta && t.Group != 0x0002 {
			inMeta = false
			if err := r.useTransferSyntax(GetTransferSyntax(ds), HasElement(ds, tag.TransferSyntaxUID)); err != nil {
				return nil, err
			}
		}

		elem, err := r.readElementWithTag(t, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to read element %v: %w", t, err)
		}
		ds.Elements[elem.Tag] = elem
	}

	return ds, nil
}

// useTransferSyntax switches element decoding once the file meta group ends.
// Files without a meta group default to Implicit VR Little Endian.
func (r *Reader) useTransferSyntax(ts transfer.Syntax, declared bool) error {
	if !declared {
		ts = transfer.ImplicitVRLittleEndian
	}
	if !ts.IsSupported() {
		return fmt.Errorf("unsupported transfer syntax %s", ts.Name())
	}
	r.transferSyntax = ts
	r.explicitVR = ts.IsExplicitVR()
	return nil
}

// readElementWithTag reads a DICOM element after the tag has been read
func (r *Reader) readElementWithTag(t Tag, depth int) (*Element, error) {
	var v string
	var vl uint32

	if r.explicitVR {
		vrBytes := make([]byte, 2)
		if _, err := io.ReadFull(r, vrBytes); err != nil {
			return nil, err
		}
		v = string(vrBytes)

		if vr.VR(v).IsLongLength() {
			reserved := make([]byte, 2)
			if _, err := io.ReadFull(r, reserved); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &vl); err != nil {
				return nil, err
			}
		} else {
			var vl16 uint16
			if err := binary.Read(r, binary.LittleEndian, &vl16); err != nil {
				return nil, err
			}
			vl = uint32(vl16)
		}
	} else {
		// Implicit VR: VL is always 4 bytes, VR is determined by tag
		if err := binary.Read(r, binary.LittleEndian, &vl); err != nil {
			return nil, err
		}
		v = string(t.LookupVR())
	}

	value, err := r.readValue(t, v, vl, depth)
	if err != nil {
		return nil, err
	}
	if v == string(vr.UN) && vl == undefinedLength {
		// UN with undefined length is an implicit VR sequence (PS3.5 6.2.2)
		v = string(vr.SQ)
	}

	return &Element{
		Tag:   t,
		VR:    v,
		Value: value,
	}, nil
}

// readTag reads a DICOM tag
func (r *Reader) readTag() (Tag, error) {
	var group, element uint16
	if err := binary.Read(r, binary.LittleEndian, &group); err != nil {
		return Tag{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &element); err != nil {
		return Tag{}, err
	}
	return Tag{Group: group, Element: element}, nil
}

// readValue reads the value based on VR and VL
func (r *Reader) readValue(t Tag, v string, vl uint32, depth int) (interface{}, error) {
	if v == string(vr.SQ) {
		return r.readSequence(vl, depth+1)
	}
	if vl == undefinedLength {
		if t == tag.PixelData {
			return r.readEncapsulatedPixelData()
		}
		if v == string(vr.UN) {
			saved := r.explicitVR
			r.explicitVR = false
			defer func() { r.explicitVR = saved }()
			return r.readSequence(vl, depth+1)
		}
		return nil, fmt.Errorf("undefined length for VR %s", v)
	}

	data := make([]byte, vl)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return parseValue(v, data)
}

// readSequence reads items until the delimiter (undefined length) or the declared length is consumed
func (r *Reader) readSequence(vl uint32, depth int) ([]*Dataset, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("sequence nesting deeper than %d", maxDepth)
	}
	items := []*Dataset{}
	end := r.pos + int64(vl)

	for vl == undefinedLength || r.pos < end {
		itemTag, err := r.readTag()
		if err != nil {
			return nil, fmt.Errorf("reading sequence item tag: %w", err)
		}
		var itemLen uint32
		if err := binary.Read(r, binary.LittleEndian, &itemLen); err != nil {
			return nil, fmt.Errorf("reading item length: %w", err)
		}

		switch itemTag {
		case tag.SequenceDelimitationItem:
			return items, nil
		case tag.Item:
			item, err := r.readItem(itemLen, depth)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", len(items), err)
			}
			items = append(items, item)
		default:
			return nil, fmt.Errorf("expected item tag, got %v", itemTag)
		}
	}
	return items, nil
}

func (r *Reader) readItem(length uint32, depth int) (*Dataset, error) {
	ds := &Dataset{Elements: make(map[Tag]*Element)}
	end := r.pos + int64(length)

	for length == undefinedLength || r.pos < end {
		t, err := r.readTag()
		if err != nil {
			return nil, err
		}
		if t == tag.ItemDelimitationItem {
			var delimLen uint32
			if err := binary.Read(r, binary.LittleEndian, &delimLen); err != nil {
				return nil, err
			}
			return ds, nil
		}
		elem, err := r.readElementWithTag(t, depth)
		if err != nil {
			return nil, fmt.Errorf("element %v: %w", t, err)
		}
		ds.Elements[t] = elem
	}
	return ds, nil
}

// readEncapsulatedPixelData keeps the fragments of compressed pixel data without decoding them
func (r *Reader) readEncapsulatedPixelData() ([][]byte, error) {
	var fragments [][]byte
	for {
		itemTag, err := r.readTag()
		if err != nil {
			return nil, err
		}
		var itemLength uint32
		if err := binary.Read(r, binary.LittleEndian, &itemLength); err != nil {
			return nil, err
		}
		if itemTag == tag.SequenceDelimitationItem {
			return fragments, nil
		}
		if itemTag != tag.Item {
			return nil, fmt.Errorf("expected item tag, got %v", itemTag)
		}
		data := make([]byte, itemLength)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
		fragments = append(fragments, data)
	}
}

// parseValue converts raw bytes to typed value based on VR
func parseValue(v string, data []byte) (interface{}, error) {
	switch vr.VR(v) {
	case vr.AE, vr.AS, vr.CS, vr.DA, vr.DS, vr.DT, vr.IS, vr.LO, vr.LT, vr.PN,
		vr.SH, vr.ST, vr.TM, vr.UC, vr.UI, vr.UR, vr.UT:
		// trim null and space padding
		return strings.TrimRight(string(data), "\x00 "), nil
	case vr.US:
		if len(data) == 2 {
			return binary.LittleEndian.Uint16(data), nil
		}
		values := make([]uint16, len(data)/2)
		for i := range values {
			values[i] = binary.LittleEndian.Uint16(data[i*2:])
		}
		return values, nil
	case vr.UL:
		if len(data) == 4 {
			return binary.LittleEndian.Uint32(data), nil
		}
		values := make([]uint32, len(data)/4)
		for i := range values {
			values[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
		return values, nil
	case vr.SS:
		if len(data) == 2 {
			return int16(binary.LittleEndian.Uint16(data)), nil
		}
	case vr.SL:
		if len(data) == 4 {
			return int32(binary.LittleEndian.Uint32(data)), nil
		}
	case vr.FL, vr.OF:
		values := make([]float32, len(data)/4)
		for i := range values {
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		if len(values) == 1 {
			return values[0], nil
		}
		return values, nil
	case vr.FD, vr.OD:
		values := make([]float64, len(data)/8)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
		if len(values) == 1 {
			return values[0], nil
		}
		return values, nil
	}
	return data, nil
}
