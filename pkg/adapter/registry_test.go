package adapter

import (
	"testing"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCodec struct{}

func (nopCodec) Decode(s *Setup) (*annotation.Annotation, error) { return s.Annotation, nil }
func (nopCodec) Encode(*Encoding) error                          { return nil }

func TestDefaultRegistry(t *testing.T) {
	registry, err := Default()
	require.NoError(t, err)
	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, registry, again, "built once")

	seen := map[string]string{}
	for _, reg := range registry.Registrations() {
		if other, ok := seen[reg.TrackingIdentifier]; ok {
			t.Errorf("%s and %s share %s", reg.ToolType, other, reg.TrackingIdentifier)
		}
		seen[reg.TrackingIdentifier] = reg.ToolType
		assert.Contains(t, reg.Aliases(), reg.TrackingIdentifier, reg.ToolType)
		assert.True(t, reg.IsValidIdentifier(reg.TrackingIdentifier))
	}
	assert.Len(t, seen, 13)

	keyImage, ok := registry.Get(ToolKeyImage)
	require.True(t, ok)
	assert.Equal(t, ToolProbe, keyImage.ParentType)
	assert.Equal(t, "Cornerstone3DTools:Probe:KeyImage", keyImage.TrackingIdentifier)
	assert.Contains(t, keyImage.Aliases(), "Cornerstone3DTools:KeyImage")
	assert.Equal(t, sr.KindPoint, keyImage.Kind)

	calibration, ok := registry.Get(ToolCalibration)
	require.True(t, ok)
	assert.Equal(t, "Cornerstone3DTools:Length:Calibration", calibration.TrackingIdentifier)
	assert.Equal(t, sr.KindLength, calibration.Kind)
}

func TestRegistry_Resolve(t *testing.T) {
	registry, err := Default()
	require.NoError(t, err)

	tests := []struct {
		id   string
		want string
	}{
		{"Cornerstone3DTools:Length", ToolLength},
		{"cornerstoneTools@^4.0.0:Length", ToolLength},
		{"cornerstoneTools@^4.0.0:Bidirectional", ToolBidirectional},
		{"Cornerstone3DTools:Length:Extra", ToolLength},
		{"Cornerstone3DTools:Length:Calibration", ToolCalibration},
		{"Cornerstone3DTools:Calibration", ToolCalibration},
		{"Cornerstone3DTools:Length:Calibration:Extra", ToolCalibration},
		{"Cornerstone3DTools:Probe:KeyImage:Point", ToolKeyImage},
		{"Cornerstone3DTools:Probe:Other", ToolProbe},
		{"Cornerstone3DTools:KeyImage", ToolKeyImage},
		{"Cornerstone3DTools:PlanarFreehandROI", ToolPlanarFreehandROI},
		{"Cornerstone3DTools:Unknown", ""},
		{"Cornerstone3DTools:LengthExtra", ""},
		{"Length", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			reg, ok := registry.Resolve(tt.id)
			if tt.want == "" {
				assert.False(t, ok)
				assert.Nil(t, reg)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, reg.ToolType)
		})
	}
}

func TestRegistration_IsValidIdentifier(t *testing.T) {
	reg := newRegistration("Length", sr.KindLength, nopCodec{})
	assert.True(t, reg.IsValidIdentifier("Cornerstone3DTools:Length"))
	assert.True(t, reg.IsValidIdentifier("Cornerstone3DTools:Length:anything"))
	assert.False(t, reg.IsValidIdentifier("Cornerstone3DTools:Lengthy"))
	assert.False(t, reg.IsValidIdentifier("Cornerstone3DTools"))
}

func TestRegistryBuilder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *RegistryBuilder)
		dup   bool
	}{
		{
			name: "tool type twice",
			build: func(b *RegistryBuilder) {
				b.Register("A", sr.KindPoint, nopCodec{}).Register("A", sr.KindLength, nopCodec{})
			},
			dup: true,
		},
		{
			name: "identifier claimed twice",
			build: func(b *RegistryBuilder) {
				b.Register("A", sr.KindPoint, nopCodec{}, WithAliases("Cornerstone3DTools:B")).
					Register("B", sr.KindPoint, nopCodec{})
			},
			dup: true,
		},
		{
			name: "sub-type reusing a tool type",
			build: func(b *RegistryBuilder) {
				b.Register("A", sr.KindPoint, nopCodec{}).
					Register("B", sr.KindPoint, nopCodec{}).
					RegisterSubType("A", "B")
			},
			dup: true,
		},
		{
			name: "legacy alias of unknown tool",
			build: func(b *RegistryBuilder) {
				b.RegisterLegacy("A")
			},
		},
		{
			name: "sub-type of unknown tool",
			build: func(b *RegistryBuilder) {
				b.RegisterSubType("A", "B")
			},
		},
		{
			name: "nil codec",
			build: func(b *RegistryBuilder) {
				b.Register("A", sr.KindPoint, nil)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewRegistryBuilder()
			tt.build(b)
			reg, err := b.Build()
			require.Error(t, err)
			assert.Nil(t, reg)
			if tt.dup {
				assert.ErrorIs(t, err, ErrDuplicateRegistration)
			}
		})
	}
}

func TestRegistryBuilder_SubTypeOfSubType(t *testing.T) {
	reg, err := NewRegistryBuilder().
		Register("Base", sr.KindPoint, nopCodec{}).
		RegisterSubType("Base", "Mid").
		RegisterSubType("Mid", "Leaf", WithUtilityType("Base")).
		Build()
	require.NoError(t, err)

	leaf, ok := reg.Get("Leaf")
	require.True(t, ok)
	assert.Equal(t, "Base", leaf.ParentType, "nested under the root tool")
	assert.Equal(t, "Cornerstone3DTools:Base:Leaf", leaf.TrackingIdentifier)
	assert.Equal(t, "Base", leaf.UtilityType)
	assert.Equal(t, []string{"Base", "Leaf", "Mid"}, toolTypes(reg))
}

func toolTypes(r *Registry) []string {
	var out []string
	for _, reg := range r.Registrations() {
		out = append(out, reg.ToolType)
	}
	return out
}
