package dicom

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// String returns a string representation of the Element
func (e *Element) String() string {
	var b strings.Builder
	e.format(&b, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func (e *Element) format(b *strings.Builder, depth int) {
	// Format: [Tag] [VR] (Name) ... : Value
	tagName := e.Tag.LookupName()
	if tagName != "" {
		tagName = " " + tagName
	}
	indent := strings.Repeat("  ", depth)

	switch v := e.Value.(type) {
	case []*Dataset:
		fmt.Fprintf(b, "%s[%s] %s%s: %d item(s)\n", indent, e.Tag, e.VR, tagName, len(v))
		for i, item := range v {
			fmt.Fprintf(b, "%s  > item %d\n", indent, i+1)
			item.format(b, depth+2)
		}
		return
	case []uint16:
		if len(v) > 10 {
			fmt.Fprintf(b, "%s[%s] %s%s: Array of %d values\n", indent, e.Tag, e.VR, tagName, len(v))
			return
		}
	case []byte:
		if len(v) > 20 {
			fmt.Fprintf(b, "%s[%s] %s%s: Binary Data (%d bytes)\n", indent, e.Tag, e.VR, tagName, len(v))
			return
		}
	}
	fmt.Fprintf(b, "%s[%s] %s%s: %v\n", indent, e.Tag, e.VR, tagName, e.Value)
}

// MarshalJSON returns a JSON representation of the Element
func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Tag   string      `json:"tag"`
		Name  string      `json:"name,omitempty"`
		VR    string      `json:"vr"`
		Value interface{} `json:"value"`
	}{
		Tag:   e.Tag.String(),
		Name:  e.Tag.LookupName(),
		VR:    e.VR,
		Value: e.Value,
	})
}

// SortedElements returns the elements ordered by tag
func (ds *Dataset) SortedElements() []*Element {
	elements := make([]*Element, 0, len(ds.Elements))
	for _, elem := range ds.Elements {
		elements = append(elements, elem)
	}
	sort.Slice(elements, func(i, j int) bool {
		return elements[i].Tag.Less(elements[j].Tag)
	})
	return elements
}

// String returns a string representation of the Dataset, nested sequences indented
func (ds *Dataset) String() string {
	if ds == nil {
		return "<nil>"
	}
	var b strings.Builder
	ds.format(&b, 0)
	return b.String()
}

func (ds *Dataset) format(b *strings.Builder, depth int) {
	for _, elem := range ds.SortedElements() {
		elem.format(b, depth)
	}
}

// MarshalJSON returns a JSON representation of the Dataset
// It returns a sorted array of Elements instead of a Map
func (ds *Dataset) MarshalJSON() ([]byte, error) {
	return json.Marshal(ds.SortedElements())
}
