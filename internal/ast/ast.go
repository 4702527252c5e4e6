// Package ast defines the raw, unresolved declarations produced by the
// parser. Names, types, constants and availability arguments are kept as
// written; the compiler resolves and validates them.
package ast

import (
	"fmt"
	"strings"
)

// Span locates a node in source.
type Span struct {
	File   string `yaml:"file,omitempty"`
	Line   int    `yaml:"line,omitempty"`
	Column int    `yaml:"column,omitempty"`
}

func (s Span) String() string {
	switch {
	case s.File == "":
		return "<unknown>"
	case s.Line == 0:
		return s.File
	default:
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	}
}

// GeneratedFile hands out spans for synthesized declarations.
type GeneratedFile struct {
	name  string
	lines []string
}

// NewGeneratedFile returns an empty generated file.
func NewGeneratedFile(name string) *GeneratedFile {
	return &GeneratedFile{name: name}
}

// Add appends a line of synthesized source and returns its span.
func (g *GeneratedFile) Add(text string) Span {
	g.lines = append(g.lines, text)
	return Span{File: g.name, Line: len(g.lines), Column: 1}
}

// Name returns the generated file name.
func (g *GeneratedFile) Name() string { return g.name }

// Lines returns the synthesized source lines.
func (g *GeneratedFile) Lines() []string { return g.lines }

// File is one parsed source file.
type File struct {
	Path        string      `yaml:"path,omitempty"`
	Library     string      `yaml:"library"`
	LibrarySpan Span        `yaml:"library_span,omitempty"`
	Attributes  []Attribute `yaml:"attributes,omitempty"`
	Using       []Using     `yaml:"using,omitempty"`
	Decls       []Decl      `yaml:"decls,omitempty"`
}

// Using imports another library, optionally under an alias.
type Using struct {
	Library string `yaml:"library"`
	Alias   string `yaml:"alias,omitempty"`
	Span    Span   `yaml:"span,omitempty"`
}

// Attribute is an @name(args...) annotation.
type Attribute struct {
	Name string         `yaml:"name"`
	Args []AttributeArg `yaml:"args,omitempty"`
	Span Span           `yaml:"span,omitempty"`
}

// AttributeArg is one argument. Name is empty for a lone positional argument.
type AttributeArg struct {
	Name  string   `yaml:"name,omitempty"`
	Value Constant `yaml:"value"`
	Span  Span     `yaml:"span,omitempty"`
}

// ConstantKind distinguishes raw constants.
type ConstantKind string

const (
	ConstantLiteral    ConstantKind = "literal"
	ConstantIdentifier ConstantKind = "identifier"
	ConstantBinary     ConstantKind = "binary"
)

// LiteralKind distinguishes literal constants.
type LiteralKind string

const (
	LiteralString  LiteralKind = "string"
	LiteralNumeric LiteralKind = "numeric"
	LiteralBool    LiteralKind = "bool"
)

// Constant is a raw constant expression.
type Constant struct {
	Kind        ConstantKind `yaml:"kind"`
	LiteralKind LiteralKind  `yaml:"literal_kind,omitempty"`
	Value       string       `yaml:"value,omitempty"`
	Identifier  string       `yaml:"identifier,omitempty"`
	Op          string       `yaml:"op,omitempty"`
	Left        *Constant    `yaml:"left,omitempty"`
	Right       *Constant    `yaml:"right,omitempty"`
	Span        Span         `yaml:"span,omitempty"`
}

// Numeric returns a numeric literal constant.
func Numeric(value string) Constant {
	return Constant{Kind: ConstantLiteral, LiteralKind: LiteralNumeric, Value: value}
}

// String returns a string literal constant. The value is stored unquoted.
func String(value string) Constant {
	return Constant{Kind: ConstantLiteral, LiteralKind: LiteralString, Value: value}
}

// Bool returns a bool literal constant.
func Bool(value bool) Constant {
	if value {
		return Constant{Kind: ConstantLiteral, LiteralKind: LiteralBool, Value: "true"}
	}
	return Constant{Kind: ConstantLiteral, LiteralKind: LiteralBool, Value: "false"}
}

// Ident returns an identifier constant.
func Ident(name string) Constant {
	return Constant{Kind: ConstantIdentifier, Identifier: name}
}

// Or returns left | right.
func Or(left, right Constant) Constant {
	return Constant{Kind: ConstantBinary, Op: "|", Left: &left, Right: &right}
}

// TypeCtor is a raw type constructor such as vector<Foo>:optional.
type TypeCtor struct {
	// Layout names a builtin (uint32, string, vector, ...) or a declaration,
	// possibly qualified by library ("fuchsia.io/Node") or import alias.
	Layout   string    `yaml:"layout,omitempty"`
	Element  *TypeCtor `yaml:"element,omitempty"`
	Size     *Constant `yaml:"size,omitempty"`
	Protocol string    `yaml:"protocol,omitempty"`
	Subtype  *Constant `yaml:"subtype,omitempty"`
	Optional bool      `yaml:"optional,omitempty"`
	// Inline is an anonymous layout declared in place.
	Inline *Decl `yaml:"inline,omitempty"`
	Span   Span  `yaml:"span,omitempty"`
}

// DeclKind is the raw declaration kind.
type DeclKind string

const (
	KindAlias    DeclKind = "alias"
	KindBits     DeclKind = "bits"
	KindConst    DeclKind = "const"
	KindEnum     DeclKind = "enum"
	KindNewType  DeclKind = "new_type"
	KindOverlay  DeclKind = "overlay"
	KindProtocol DeclKind = "protocol"
	KindResource DeclKind = "resource"
	KindService  DeclKind = "service"
	KindStruct   DeclKind = "struct"
	KindTable    DeclKind = "table"
	KindUnion    DeclKind = "union"
)

// Decl is one top-level (or inline) declaration.
type Decl struct {
	Kind       DeclKind    `yaml:"kind"`
	Name       string      `yaml:"name,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
	Span       Span        `yaml:"span,omitempty"`

	// Strict is set for strict bits, enums and unions; Flexible is the default.
	Strict   bool `yaml:"strict,omitempty"`
	Resource bool `yaml:"resource,omitempty"`
	// Openness applies to protocols: open, ajar or closed.
	Openness string `yaml:"openness,omitempty"`

	// Type is the subtype of bits, enums and resources, the type of consts,
	// and the aliased type of aliases and new types.
	Type  *TypeCtor `yaml:"type,omitempty"`
	Value *Constant `yaml:"value,omitempty"`

	Members    []Member  `yaml:"members,omitempty"`
	Methods    []Method  `yaml:"methods,omitempty"`
	Compose    []Compose `yaml:"compose,omitempty"`
	Properties []Member  `yaml:"properties,omitempty"`
}

// Member is a field, variant, bits/enum member, service member or resource
// property.
type Member struct {
	Name       string      `yaml:"name,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
	Ordinal    uint64      `yaml:"ordinal,omitempty"`
	Type       *TypeCtor   `yaml:"type,omitempty"`
	Value      *Constant   `yaml:"value,omitempty"`
	Default    *Constant   `yaml:"default,omitempty"`
	Span       Span        `yaml:"span,omitempty"`
}

// Method is a protocol method or event.
type Method struct {
	Name       string      `yaml:"name"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
	Strict     bool        `yaml:"strict,omitempty"`
	// HasRequest is false for events.
	HasRequest  bool      `yaml:"has_request"`
	Request     *TypeCtor `yaml:"request,omitempty"`
	HasResponse bool      `yaml:"has_response"`
	Response    *TypeCtor `yaml:"response,omitempty"`
	Error       *TypeCtor `yaml:"error,omitempty"`
	Span        Span      `yaml:"span,omitempty"`
}

// Compose is a composed protocol.
type Compose struct {
	Protocol   string      `yaml:"protocol"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
	Span       Span        `yaml:"span,omitempty"`
}

// SplitLibraryName splits "fuchsia.io" into components.
func SplitLibraryName(name string) []string {
	return strings.Split(name, ".")
}
