package coords

import (
	"math"
	"testing"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

type planes map[string]*annotation.ImagePlane

func (p planes) ImagePlane(id string) (*annotation.ImagePlane, bool) {
	pl, ok := p[id]
	return pl, ok
}
func (p planes) ImagePixel(string) (*annotation.ImagePixel, bool) { return nil, false }
func (p planes) Instance(string) (*annotation.Instance, bool)     { return nil, false }

func testPlanes() planes {
	s := math.Sqrt2 / 2
	return planes{
		"axial": {
			FrameOfReferenceUID:  "1.2.3",
			ImagePositionPatient: r3.Vec{X: -100, Y: -120, Z: 40},
			RowCosines:           r3.Vec{X: 1},
			ColumnCosines:        r3.Vec{Y: 1},
			RowPixelSpacing:      0.5,
			ColumnPixelSpacing:   0.75,
		},
		"oblique": {
			FrameOfReferenceUID:  "1.2.3",
			ImagePositionPatient: r3.Vec{X: 10, Y: 20, Z: 30},
			RowCosines:           r3.Vec{X: s, Y: s},
			ColumnCosines:        r3.Vec{Z: -1},
			RowPixelSpacing:      1.25,
			ColumnPixelSpacing:   2,
		},
		"flat": {RowCosines: r3.Vec{X: 1}, ColumnCosines: r3.Vec{Y: 1}},
	}
}

func TestFlatToPoints(t *testing.T) {
	pts, err := FlatToPoints([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	assert.Equal(t, []r3.Vec{{X: 1, Y: 2}, {X: 3, Y: 4}}, pts)

	pts, err = FlatToPoints([]float64{1, 2, 3, 4, 5, 6}, 3)
	require.NoError(t, err)
	assert.Equal(t, []r3.Vec{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}, pts)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, PointsToFlat(pts, 3))
	assert.Equal(t, []float64{1, 2, 4, 5}, PointsToFlat(pts, 2))

	_, err = FlatToPoints([]float64{1, 2, 3}, 2)
	assert.ErrorIs(t, err, ErrBadGraphicData)
	_, err = FlatToPoints([]float64{1, 2, 3, 4}, 4)
	assert.Error(t, err)
}

func TestPlaneConverter(t *testing.T) {
	conv := NewPlaneConverter(testPlanes())

	w, err := conv.ImageToWorld("axial", [2]float64{10, 20})
	require.NoError(t, err)
	assert.InDelta(t, -92.5, w.X, 1e-9)
	assert.InDelta(t, -110, w.Y, 1e-9)
	assert.InDelta(t, 40, w.Z, 1e-9)

	for _, id := range []string{"axial", "oblique"} {
		t.Run(id, func(t *testing.T) {
			for _, xy := range [][2]float64{{0, 0}, {12.5, 3}, {511, 511}, {-4, 7.25}} {
				w, err := conv.ImageToWorld(id, xy)
				require.NoError(t, err)
				back, err := conv.WorldToImage(id, w)
				require.NoError(t, err)
				assert.InDelta(t, xy[0], back[0], 1e-9)
				assert.InDelta(t, xy[1], back[1], 1e-9)
			}
		})
	}

	_, err = conv.ImageToWorld("missing", [2]float64{})
	assert.ErrorIs(t, err, ErrNoImagePlane)
	_, err = conv.WorldToImage("flat", r3.Vec{})
	assert.ErrorIs(t, err, ErrNoImagePlane)
}

func TestToCoordinates(t *testing.T) {
	conv := NewPlaneConverter(testPlanes())
	world := []r3.Vec{{X: -100, Y: -120, Z: 40}, {X: -92.5, Y: -110, Z: 40}}

	c2, err := ToCoordinates(conv, "axial", world, false)
	require.NoError(t, err)
	require.Len(t, c2, 2)
	assert.False(t, c2[1].Is3D)
	assert.InDelta(t, 10, c2[1].X, 1e-9)
	assert.InDelta(t, 20, c2[1].Y, 1e-9)

	c3, err := ToCoordinates(nil, "", world, true)
	require.NoError(t, err)
	assert.Equal(t, sr.Point3(-92.5, -110, 40), c3[1])

	_, err = ToCoordinates(nil, "axial", world, false)
	assert.ErrorIs(t, err, ErrNoConverter)
}

func TestPointsFromCoordinate(t *testing.T) {
	conv := NewPlaneConverter(testPlanes())

	pts, err := PointsFromCoordinate(conv, "axial", &sr.SpatialCoordinate{GraphicData: []float64{0, 0, 10, 20}})
	require.NoError(t, err)
	assert.InDelta(t, 0, Distance(pts[0], r3.Vec{X: -100, Y: -120, Z: 40}), 1e-9)
	assert.InDelta(t, 0, Distance(pts[1], r3.Vec{X: -92.5, Y: -110, Z: 40}), 1e-9)

	pts, err = PointsFromCoordinate(nil, "", &sr.SpatialCoordinate{Is3D: true, GraphicData: []float64{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []r3.Vec{{X: 1, Y: 2, Z: 3}}, pts)
}

func TestUse3D(t *testing.T) {
	pl := testPlanes()
	assert.True(t, Use3D(true, pl["axial"]))
	assert.False(t, Use3D(false, pl["axial"]))
	assert.False(t, Use3D(true, pl["flat"]), "no frame of reference")
	assert.False(t, Use3D(true, nil))
}
