// Package adapter maps viewer annotation tools to TID 300 measurements.
//
// Every tool has a Registration: its tool type, the TID 300 representation it
// is written with, the tracking identifier written into the Measurement Group
// and the aliases it is recognized by when reading. The tool specific work is
// done by a Codec held by the registration.
package adapter

import (
	"cmp"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
)

const (
	// TrackingTag prefixes every tracking identifier written
	TrackingTag = "Cornerstone3DTools"
	// LegacyTrackingTag prefixes identifiers of reports from the prior major version
	LegacyTrackingTag = "cornerstoneTools@^4.0.0"
)

// ErrDuplicateRegistration marks a tool type or identifier registered twice
var ErrDuplicateRegistration = errors.New("duplicate registration")

// Codec is the tool specific half of a registration
type Codec interface {
	// Decode builds an annotation from the common setup. A nil annotation
	// with a nil error means the group has no representation for the tool.
	Decode(s *Setup) (*annotation.Annotation, error)
	// Encode fills the geometry and metrics of e.Args
	Encode(e *Encoding) error
}

// Registration binds a tool type to its codec and identifiers
type Registration struct {
	ToolType string
	// UtilityType is the tool state key decoded annotations are grouped under
	UtilityType        string
	Kind               sr.RepresentationKind
	ParentType         string
	TrackingIdentifier string

	aliases map[string]struct{}
	codec   Codec
}

// Option configures a registration
type Option func(*Registration)

// WithParentType nests the tool under a parent in its tracking identifier
func WithParentType(parent string) Option {
	return func(r *Registration) {
		r.ParentType = parent
	}
}

// WithUtilityType groups decoded annotations under another tool state key
func WithUtilityType(utilityType string) Option {
	return func(r *Registration) {
		r.UtilityType = utilityType
	}
}

// WithAliases adds exact identifiers the tool is recognized by
func WithAliases(ids ...string) Option {
	return func(r *Registration) {
		for _, id := range ids {
			r.aliases[id] = struct{}{}
		}
	}
}

// WithOverride decorates the codec, used by sub-types to change part of the
// behavior of their base
func WithOverride(wrap func(base Codec) Codec) Option {
	return func(r *Registration) {
		r.codec = wrap(r.codec)
	}
}

func newRegistration(toolType string, kind sr.RepresentationKind, codec Codec, opts ...Option) *Registration {
	r := &Registration{
		ToolType:    toolType,
		UtilityType: toolType,
		Kind:        kind,
		aliases:     map[string]struct{}{},
		codec:       codec,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ParentType != "" {
		r.TrackingIdentifier = fmt.Sprintf("%s:%s:%s", TrackingTag, r.ParentType, r.ToolType)
		r.aliases[fmt.Sprintf("%s:%s", TrackingTag, r.ToolType)] = struct{}{}
	} else {
		r.TrackingIdentifier = fmt.Sprintf("%s:%s", TrackingTag, r.ToolType)
	}
	r.aliases[r.TrackingIdentifier] = struct{}{}
	return r
}

// Aliases returns every exact identifier of the registration, sorted
func (r *Registration) Aliases() []string {
	ids := make([]string, 0, len(r.aliases))
	for id := range r.aliases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsValidIdentifier reports whether a tracking identifier belongs to the
// registration: an exact alias, or the registration's identifier followed by
// a ":" delimited suffix.
func (r *Registration) IsValidIdentifier(id string) bool {
	if _, ok := r.aliases[id]; ok {
		return true
	}
	return r.isPrefixOf(id)
}

func (r *Registration) isPrefixOf(id string) bool {
	return strings.Contains(id, ":") && strings.HasPrefix(id, r.TrackingIdentifier+":")
}

func (r *Registration) String() string {
	return fmt.Sprintf("%s(%s)", r.ToolType, r.Kind)
}

// RegistryBuilder collects registrations; errors are reported by Build
type RegistryBuilder struct {
	regs   []*Registration
	byTool map[string]*Registration
	errs   []error
}

// NewRegistryBuilder creates an empty builder
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{byTool: map[string]*Registration{}}
}

func (b *RegistryBuilder) add(r *Registration) *RegistryBuilder {
	if _, ok := b.byTool[r.ToolType]; ok {
		b.errs = append(b.errs, fmt.Errorf("%w: tool type %s", ErrDuplicateRegistration, r.ToolType))
		return b
	}
	b.byTool[r.ToolType] = r
	b.regs = append(b.regs, r)
	return b
}

// Register adds a tool
func (b *RegistryBuilder) Register(toolType string, kind sr.RepresentationKind, codec Codec, opts ...Option) *RegistryBuilder {
	if codec == nil {
		b.errs = append(b.errs, fmt.Errorf("tool type %s has no codec", toolType))
		return b
	}
	return b.add(newRegistration(toolType, kind, codec, opts...))
}

// RegisterLegacy makes a registered tool resolve from its prior major version identifier
func (b *RegistryBuilder) RegisterLegacy(toolType string) *RegistryBuilder {
	r, ok := b.byTool[toolType]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("legacy alias for unregistered tool type %s", toolType))
		return b
	}
	r.aliases[fmt.Sprintf("%s:%s", LegacyTrackingTag, toolType)] = struct{}{}
	return b
}

// RegisterSubType adds a tool that shares the codec of a registered base
// tool under its own tool type and identifiers, nested under the base.
func (b *RegistryBuilder) RegisterSubType(baseToolType, toolType string, opts ...Option) *RegistryBuilder {
	base, ok := b.byTool[baseToolType]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("sub-type %s of unregistered tool type %s", toolType, baseToolType))
		return b
	}
	opts = append([]Option{WithParentType(cmp.Or(base.ParentType, base.ToolType))}, opts...)
	return b.add(newRegistration(toolType, base.Kind, base.codec, opts...))
}

// Build checks that no identifier is claimed twice and returns the registry
func (b *RegistryBuilder) Build() (*Registry, error) {
	errs := append([]error(nil), b.errs...)
	reg := &Registry{
		byTool:       make(map[string]*Registration, len(b.regs)),
		byIdentifier: map[string]*Registration{},
	}
	for _, r := range b.regs {
		reg.byTool[r.ToolType] = r
		reg.registrations = append(reg.registrations, r)
		for id := range r.aliases {
			if other, ok := reg.byIdentifier[id]; ok {
				errs = append(errs, fmt.Errorf("%w: identifier %s claimed by %s and %s", ErrDuplicateRegistration, id, other.ToolType, r.ToolType))
				continue
			}
			reg.byIdentifier[id] = r
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	sort.Slice(reg.registrations, func(i, j int) bool {
		return reg.registrations[i].ToolType < reg.registrations[j].ToolType
	})
	return reg, nil
}

// Registry is the immutable set of registrations
type Registry struct {
	registrations []*Registration
	byTool        map[string]*Registration
	byIdentifier  map[string]*Registration
}

// Get returns the registration of a tool type
func (r *Registry) Get(toolType string) (*Registration, bool) {
	reg, ok := r.byTool[toolType]
	return reg, ok
}

// Registrations returns every registration sorted by tool type
func (r *Registry) Registrations() []*Registration {
	return append([]*Registration(nil), r.registrations...)
}

// Resolve finds the registration of a tracking identifier: an exact
// identifier first, then the longest registered identifier it extends.
func (r *Registry) Resolve(id string) (*Registration, bool) {
	if reg, ok := r.byIdentifier[id]; ok {
		return reg, true
	}
	var best *Registration
	for _, reg := range r.registrations {
		if reg.isPrefixOf(id) && (best == nil || len(reg.TrackingIdentifier) > len(best.TrackingIdentifier)) {
			best = reg
		}
	}
	return best, best != nil
}
