package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSOPMap(t *testing.T) {
	m := NewSOPMap().
		Add("1.2.3", 0, "ct:1").
		Add("1.2.4", 1, "mf:1").
		Add("1.2.4", 3, "mf:3")

	tests := []struct {
		name  string
		sop   string
		frame int
		want  string
		ok    bool
	}{
		{"single frame", "1.2.3", 0, "ct:1", true},
		{"single frame asked by frame", "1.2.3", 2, "ct:1", true},
		{"exact frame", "1.2.4", 3, "mf:3", true},
		{"no frame falls back to first", "1.2.4", 0, "mf:1", true},
		{"unknown frame of multiframe", "1.2.4", 7, "", false},
		{"unknown sop", "9.9", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := m.ImageID(tt.sop, tt.frame)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, id)
		})
	}

	sf, ok := m.SOP("mf:3")
	require.True(t, ok)
	assert.Equal(t, SOPFrame{SOPInstanceUID: "1.2.4", FrameNumber: 3}, sf)
	assert.Equal(t, []string{"ct:1", "mf:1", "mf:3"}, m.ImageIDs())
	assert.Equal(t, 3, m.Len())

	var nilMap *SOPMap
	_, ok = nilMap.ImageID("1.2.3", 0)
	assert.False(t, ok)
	_, ok = nilMap.SOP("ct:1")
	assert.False(t, ok)
	assert.Empty(t, nilMap.ImageIDs())
	assert.Zero(t, nilMap.Len())
}

func TestAnnotation_Stats(t *testing.T) {
	a := &Annotation{}
	assert.NotNil(t, a.Stats("img"), "missing stats are never nil")

	a.SetStats("b", &Stats{Length: Float(2)})
	a.SetStats("a", &Stats{Length: Float(1)})
	assert.Equal(t, 2.0, *a.Stats("b").Length)
	assert.Equal(t, 1.0, *a.Stats("other").Length, "falls back to the first key")
}

func TestToolState_ByImage(t *testing.T) {
	ts := ToolState{}
	ts.Add("Length", &Annotation{ID: "1", ReferencedImageID: "img1"}, &Annotation{ID: "2", ReferencedImageID: "img2"})
	ts.Add("Probe", &Annotation{ID: "3", ReferencedImageID: "img1"})

	assert.Equal(t, []string{"Length", "Probe"}, ts.ToolTypes())
	assert.Equal(t, 3, ts.Count())

	byImage := ts.ByImage()
	assert.Equal(t, []string{"img1", "img2"}, byImage.ImageIDs())
	assert.Equal(t, 2, byImage["img1"].Count())
	assert.Equal(t, "2", byImage["img2"]["Length"][0].ID)
}
