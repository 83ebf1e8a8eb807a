package dicom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/jpfielding/dicomsr.go/pkg/dicom/module"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/tag"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/transfer"
	"github.com/jpfielding/dicomsr.go/pkg/dicom/vr"
)

// WriteFile writes a dataset to a DICOM file
func WriteFile(path string, ds *Dataset) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return Write(f, ds)
}

// Write writes a dataset to a writer using Explicit VR Little Endian.
// Group 0002 is written first with a computed group length; the transfer syntax
// element is forced to Explicit VR Little Endian since that is what follows.
func Write(w io.Writer, ds *Dataset) (int64, error) {
	cw := &CountingWriter{Writer: w}

	// Preamble (128 bytes 0x00) and DICM magic
	if _, err := cw.Write(make([]byte, 128)); err != nil {
		return cw.Count.Load(), err
	}
	if _, err := cw.Write([]byte("DICM")); err != nil {
		return cw.Count.Load(), err
	}

	meta, body := splitFileMeta(ds)
	meta.Elements[tag.TransferSyntaxUID] = &Element{Tag: tag.TransferSyntaxUID, VR: "UI", Value: string(transfer.ExplicitVRLittleEndian)}

	var metaBuf bytes.Buffer
	if _, err := writeDataSetBody(&metaBuf, meta); err != nil {
		return cw.Count.Load(), fmt.Errorf("failed to write file meta: %w", err)
	}
	groupLength := &Element{Tag: tag.FileMetaInformationGroupLength, VR: "UL", Value: uint32(metaBuf.Len())}
	if _, err := writeElement(cw, groupLength); err != nil {
		return cw.Count.Load(), err
	}
	if _, err := cw.Write(metaBuf.Bytes()); err != nil {
		return cw.Count.Load(), err
	}

	if _, err := writeDataSetBody(cw, body); err != nil {
		return cw.Count.Load(), err
	}
	return cw.Count.Load(), nil
}

// splitFileMeta separates group 0002 from the rest of the dataset without copying values
func splitFileMeta(ds *Dataset) (*Dataset, *Dataset) {
	meta := &Dataset{Elements: map[Tag]*Element{}}
	body := &Dataset{Elements: map[Tag]*Element{}}
	for t, elem := range ds.Elements {
		switch {
		case t == tag.FileMetaInformationGroupLength:
		case t.IsGroup0002():
			meta.Elements[t] = elem
		default:
			body.Elements[t] = elem
		}
	}
	return meta, body
}

func writeDataSetBody(w io.Writer, ds *Dataset) (int64, error) {
	cw := &CountingWriter{Writer: w}
	for _, elem := range ds.SortedElements() {
		if _, err := writeElement(cw, elem); err != nil {
			return cw.Count.Load(), fmt.Errorf("failed to write element %v: %w", elem.Tag, err)
		}
	}
	return cw.Count.Load(), nil
}

func writeElement(w io.Writer, elem *Element) (int, error) {
	cw := &CountingWriter{Writer: w}

	if err := binary.Write(cw, binary.LittleEndian, elem.Tag.Group); err != nil {
		return int(cw.Count.Load()), err
	}
	if err := binary.Write(cw, binary.LittleEndian, elem.Tag.Element); err != nil {
		return int(cw.Count.Load()), err
	}

	v := elem.VR
	if len(v) != 2 {
		slog.Warn("Invalid VR length, defaulting to UN", "vr", v, "tag", elem.Tag)
		v = "UN"
	}
	if _, err := cw.Write([]byte(v)); err != nil {
		return int(cw.Count.Load()), err
	}

	valBytes, isUndefinedLength, err := encodeValue(elem.Value, v)
	if err != nil {
		return int(cw.Count.Load()), err
	}

	if vr.VR(v).IsLongLength() {
		// Reserved 2 bytes (0x00)
		if _, err := cw.Write([]byte{0, 0}); err != nil {
			return int(cw.Count.Load()), err
		}
		length := uint32(len(valBytes))
		if isUndefinedLength {
			length = 0xFFFFFFFF
		}
		if err := binary.Write(cw, binary.LittleEndian, length); err != nil {
			return int(cw.Count.Load()), err
		}
	} else {
		if isUndefinedLength {
			return int(cw.Count.Load()), fmt.Errorf("undefined length not supported for Short VR %s", v)
		}
		if len(valBytes) > math.MaxUint16 {
			return int(cw.Count.Load()), fmt.Errorf("value of %d bytes too long for Short VR %s", len(valBytes), v)
		}
		if err := binary.Write(cw, binary.LittleEndian, uint16(len(valBytes))); err != nil {
			return int(cw.Count.Load()), err
		}
	}

	if _, err := cw.Write(valBytes); err != nil {
		return int(cw.Count.Load()), err
	}
	return int(cw.Count.Load()), nil
}

// encodeValue returns encoded bytes and a bool indicating if undefined length is used (sequences)
func encodeValue(v interface{}, vrs string) ([]byte, bool, error) {
	if v == nil {
		return []byte{}, false, nil
	}
	r := vr.VR(vrs)

	switch val := v.(type) {
	case []*Dataset:
		if r == vr.SQ {
			b, err := encodeSequence(val)
			return b, true, err
		}
		return nil, false, fmt.Errorf("unexpected []*Dataset for VR %s", vrs)
	case string:
		return padded([]byte(val), r), false, nil
	case []string:
		return padded([]byte(strings.Join(val, "\\")), r), false, nil
	case uint16:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, val)
		return b, false, nil
	case []uint16:
		b := make([]byte, len(val)*2)
		for i, u := range val {
			binary.LittleEndian.PutUint16(b[i*2:], u)
		}
		return b, false, nil
	case uint32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, val)
		return b, false, nil
	case int:
		switch r {
		case vr.IS, vr.DS:
			return padded([]byte(strconv.Itoa(val)), r), false, nil
		case vr.UL, vr.SL:
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, uint32(val))
			return b, false, nil
		case vr.US, vr.SS:
			b := make([]byte, 2)
			binary.LittleEndian.PutUint16(b, uint16(val))
			return b, false, nil
		}
		return nil, false, fmt.Errorf("int for VR %s not implemented", vrs)
	case float64:
		return encodeFloats([]float64{val}, r)
	case []float64:
		return encodeFloats(val, r)
	case float32:
		return encodeFloats([]float64{float64(val)}, r)
	case []float32:
		fs := make([]float64, len(val))
		for i, f := range val {
			fs[i] = float64(f)
		}
		return encodeFloats(fs, r)
	case []byte:
		return padded(val, r), false, nil
	}

	return nil, false, fmt.Errorf("unsupported value type %T for VR %s", v, vrs)
}

func encodeFloats(val []float64, r vr.VR) ([]byte, bool, error) {
	switch r {
	case vr.DS:
		parts := make([]string, len(val))
		for i, f := range val {
			parts[i] = module.FormatDS(f)
		}
		return padded([]byte(strings.Join(parts, "\\")), r), false, nil
	case vr.FD, vr.OD:
		b := make([]byte, len(val)*8)
		for i, f := range val {
			binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(f))
		}
		return b, false, nil
	case vr.FL, vr.OF:
		b := make([]byte, len(val)*4)
		for i, f := range val {
			binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(float32(f)))
		}
		return b, false, nil
	}
	return nil, false, fmt.Errorf("float values for VR %s not implemented", r)
}

func padded(b []byte, r vr.VR) []byte {
	if len(b)%2 != 0 {
		return append(b, r.Padding())
	}
	return b
}

func encodeSequence(datasets []*Dataset) ([]byte, error) {
	var buf bytes.Buffer

	for _, ds := range datasets {
		// Item Tag (FFFE, E000)
		buf.Write([]byte{0xFE, 0xFF, 0x00, 0xE0})

		var dsBuf bytes.Buffer
		if _, err := writeDataSetBody(&dsBuf, ds); err != nil {
			return nil, fmt.Errorf("failed to encode sequence item: %w", err)
		}

		// Item Length (Explicit)
		binary.Write(&buf, binary.LittleEndian, uint32(dsBuf.Len()))
		buf.Write(dsBuf.Bytes())
	}

	// Sequence Delimitation Item (FFFE, E0DD) with length 0
	buf.Write([]byte{0xFE, 0xFF, 0xDD, 0xE0})
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00})

	return buf.Bytes(), nil
}

type CountingWriter struct {
	Count  atomic.Int64
	Writer io.Writer
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.Writer.Write(p)
	if err == nil {
		c.Count.Add(int64(n))
	}
	return n, err
}
