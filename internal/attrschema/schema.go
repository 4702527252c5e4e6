// Package attrschema describes the attributes the compiler recognizes: where
// each may be placed and which arguments it takes.
package attrschema

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/agnivade/levenshtein"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/flat"
)

// ArgType is the expected type of an attribute argument.
type ArgType uint8

const (
	ArgString ArgType = iota + 1
	ArgBool
	ArgNumeric
	// ArgVersion accepts a numeric version or one of the named versions.
	ArgVersion
)

var argTypeNames = map[ArgType]string{
	ArgString:  "string",
	ArgBool:    "bool",
	ArgNumeric: "numeric",
	ArgVersion: "version",
}

func (t ArgType) String() string { return argTypeNames[t] }

// ParseArgType maps a configuration spelling.
func ParseArgType(s string) (ArgType, bool) {
	for t, name := range argTypeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// Placement is a set of element kinds an attribute may annotate.
type Placement uint32

const (
	PlaceLibrary Placement = 1 << iota
	PlaceAlias
	PlaceBits
	PlaceBitsMember
	PlaceConst
	PlaceEnum
	PlaceEnumMember
	PlaceNewType
	PlaceOverlay
	PlaceOverlayMember
	PlaceProtocol
	PlaceMethod
	PlaceCompose
	PlaceResource
	PlaceResourceProperty
	PlaceService
	PlaceServiceMember
	PlaceStruct
	PlaceStructMember
	PlaceTable
	PlaceTableMember
	PlaceUnion
	PlaceUnionMember

	placeEnd
	PlaceAnywhere = placeEnd - 1
	PlaceLayouts  = PlaceStruct | PlaceTable | PlaceUnion | PlaceOverlay | PlaceBits | PlaceEnum
)

var placementNames = []struct {
	name  string
	place Placement
}{
	{"library", PlaceLibrary},
	{"alias", PlaceAlias},
	{"bits", PlaceBits},
	{"bits_member", PlaceBitsMember},
	{"const", PlaceConst},
	{"enum", PlaceEnum},
	{"enum_member", PlaceEnumMember},
	{"new_type", PlaceNewType},
	{"overlay", PlaceOverlay},
	{"overlay_member", PlaceOverlayMember},
	{"protocol", PlaceProtocol},
	{"method", PlaceMethod},
	{"compose", PlaceCompose},
	{"resource", PlaceResource},
	{"resource_property", PlaceResourceProperty},
	{"service", PlaceService},
	{"service_member", PlaceServiceMember},
	{"struct", PlaceStruct},
	{"struct_member", PlaceStructMember},
	{"table", PlaceTable},
	{"table_member", PlaceTableMember},
	{"union", PlaceUnion},
	{"union_member", PlaceUnionMember},
}

// String names a single placement.
func (p Placement) String() string {
	for _, n := range placementNames {
		if n.place == p {
			return n.name
		}
	}
	return fmt.Sprintf("placement(%#x)", uint32(p))
}

// ParsePlacement maps a configuration spelling. "anywhere" selects all.
func ParsePlacement(s string) (Placement, bool) {
	if s == "anywhere" {
		return PlaceAnywhere, true
	}
	for _, n := range placementNames {
		if n.name == s {
			return n.place, true
		}
	}
	return 0, false
}

// DeclPlacement returns the placement of a declaration of kind k.
func DeclPlacement(k flat.Kind) Placement {
	switch k {
	case flat.KindAlias:
		return PlaceAlias
	case flat.KindBits:
		return PlaceBits
	case flat.KindConst:
		return PlaceConst
	case flat.KindEnum:
		return PlaceEnum
	case flat.KindNewType:
		return PlaceNewType
	case flat.KindOverlay:
		return PlaceOverlay
	case flat.KindProtocol:
		return PlaceProtocol
	case flat.KindResource:
		return PlaceResource
	case flat.KindService:
		return PlaceService
	case flat.KindStruct:
		return PlaceStruct
	case flat.KindTable:
		return PlaceTable
	case flat.KindUnion:
		return PlaceUnion
	default:
		return 0
	}
}

// MemberPlacement returns the placement of a member of a kind k declaration.
func MemberPlacement(k flat.Kind) Placement {
	switch k {
	case flat.KindBits:
		return PlaceBitsMember
	case flat.KindEnum:
		return PlaceEnumMember
	case flat.KindOverlay:
		return PlaceOverlayMember
	case flat.KindResource:
		return PlaceResourceProperty
	case flat.KindService:
		return PlaceServiceMember
	case flat.KindStruct:
		return PlaceStructMember
	case flat.KindTable:
		return PlaceTableMember
	case flat.KindUnion:
		return PlaceUnionMember
	default:
		return 0
	}
}

// Arg describes one argument.
type Arg struct {
	Name     string
	Type     ArgType
	Optional bool
}

// Schema describes one attribute.
type Schema struct {
	Name      string
	Placement Placement
	Args      []Arg
	// UserDefined schemas accept any arguments anywhere.
	UserDefined bool
}

// Arg returns the argument named name.
func (s *Schema) Arg(name string) (Arg, bool) {
	for _, a := range s.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

// Violation is one problem found by Validate.
type Violation struct {
	Def  idlerrors.Def
	Span ast.Span
	Args []any
}

// Validate checks attr placed on an element with placement place. Argument
// constants must already be compiled when their types are checked; an
// uncompiled argument is checked by its literal kind.
func (s *Schema) Validate(attr *flat.Attribute, place Placement) []Violation {
	if s.UserDefined {
		return nil
	}
	var out []Violation
	if s.Placement&place == 0 {
		out = append(out, Violation{Def: idlerrors.ErrInvalidAttributePlacement, Span: attr.Span, Args: []any{attr.Name, place}})
	}
	for _, arg := range attr.Args {
		name := arg.Name
		if name == "" {
			name = flat.DefaultArgName
		}
		want, ok := s.Arg(name)
		if !ok {
			out = append(out, Violation{Def: idlerrors.ErrUnknownAttributeArg, Span: arg.Span, Args: []any{attr.Name, name}})
			continue
		}
		if !matchesType(arg.Value, want.Type) {
			out = append(out, Violation{Def: idlerrors.ErrInvalidAttributeArgType, Span: arg.Span, Args: []any{name, attr.Name, want.Type}})
		}
	}
	for _, want := range s.Args {
		if want.Optional {
			continue
		}
		if attr.Arg(want.Name) == nil && (want.Name != flat.DefaultArgName || attr.Arg("") == nil) {
			out = append(out, Violation{Def: idlerrors.ErrMissingRequiredAttributeArg, Span: attr.Span, Args: []any{attr.Name, want.Name}})
		}
	}
	return out
}

func matchesType(c *flat.Constant, t ArgType) bool {
	if c.IsCompiled() {
		switch t {
		case ArgString:
			return c.Value.Kind == flat.ValueString
		case ArgBool:
			return c.Value.Kind == flat.ValueBool
		case ArgNumeric, ArgVersion:
			return c.Value.Kind == flat.ValueNumeric
		}
		return false
	}
	switch c.Kind {
	case flat.ConstantIdentifier:
		// Named versions and const references; bools are always literals.
		return t != ArgBool
	case flat.ConstantLiteral:
		switch t {
		case ArgString:
			return c.Literal == ast.LiteralString
		case ArgBool:
			return c.Literal == ast.LiteralBool
		default:
			return c.Literal == ast.LiteralNumeric
		}
	}
	return false
}

// Registry maps attribute names to schemas. It is built once and injected.
type Registry struct {
	schemas     map[string]*Schema
	userDefined *Schema
}

// ErrDuplicateSchema is returned when adding a schema whose name is taken.
var ErrDuplicateSchema = errors.New("attribute schema already registered")

// NewRegistry returns a registry holding the official schemas.
func NewRegistry() *Registry {
	r := &Registry{
		schemas:     make(map[string]*Schema),
		userDefined: &Schema{UserDefined: true, Placement: PlaceAnywhere},
	}
	for _, s := range officialSchemas() {
		if err := r.Add(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Add registers s.
func (r *Registry) Add(s Schema) error {
	if _, ok := r.schemas[s.Name]; ok {
		return fmt.Errorf("%w: @%s", ErrDuplicateSchema, s.Name)
	}
	r.schemas[s.Name] = &s
	return nil
}

// Lookup returns the schema for name, falling back to the user-defined schema.
func (r *Registry) Lookup(name string) *Schema {
	if s, ok := r.schemas[name]; ok {
		return s
	}
	return r.userDefined
}

// Contains reports whether name has a registered schema.
func (r *Registry) Contains(name string) bool {
	_, ok := r.schemas[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Suggestions returns the registered names exactly one edit away from an
// unregistered name. Registered names and names two or more edits away
// yield nothing.
func (r *Registry) Suggestions(name string) []string {
	if r.Contains(name) {
		return nil
	}
	var out []string
	for _, candidate := range r.Names() {
		if levenshtein.ComputeDistance(name, candidate) == 1 {
			out = append(out, candidate)
		}
	}
	return slices.Clip(out)
}
