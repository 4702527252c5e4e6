package flat

import (
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/availability"
	"github.com/jacoelho/idlc/internal/version"
)

// Strictness of bits, enums, unions and methods.
type Strictness uint8

const (
	Flexible Strictness = iota
	Strict
)

func (s Strictness) String() string {
	if s == Strict {
		return "strict"
	}
	return "flexible"
}

// Openness of a protocol.
type Openness uint8

const (
	Open Openness = iota
	Ajar
	Closed
)

func (o Openness) String() string {
	switch o {
	case Ajar:
		return "ajar"
	case Closed:
		return "closed"
	default:
		return "open"
	}
}

// ParseOpenness maps the raw modifier. Empty means open.
func ParseOpenness(s string) (Openness, bool) {
	switch s {
	case "", "open":
		return Open, true
	case "ajar":
		return Ajar, true
	case "closed":
		return Closed, true
	default:
		return Open, false
	}
}

type compileState uint8

const (
	stateNotCompiled compileState = iota
	stateCompiling
	stateCompiled
)

// Decl is one declaration. Kind selects which of the optional fields apply.
type Decl struct {
	Kind         Kind
	Name         string
	Library      *Library
	Attributes   Attributes
	Availability availability.Availability
	Span         ast.Span

	Strictness Strictness
	Resource   bool
	Openness   Openness

	// TypeCtor is the subtype of bits, enums and resources, the type of a
	// const, and the target of an alias or new type.
	TypeCtor *TypeCtor
	Value    *Constant

	Members  []*Member
	Methods  []*Method
	Composes []*Compose

	Builtin Builtin
	// Generated marks declarations synthesized from anonymous layouts and
	// method results. Their availability is inherited from Owner.
	Generated bool
	Owner     *availability.Availability

	Shape TypeShape
	state compileState
}

// FullName returns "library/Name".
func (d *Decl) FullName() string {
	if d.Library == nil {
		return d.Name
	}
	return d.Library.Name + "/" + d.Name
}

// StartCompiling moves the declaration into the compiling state. It returns
// false if the declaration is already compiling or compiled.
func (d *Decl) StartCompiling() bool {
	if d.state != stateNotCompiled {
		return false
	}
	d.state = stateCompiling
	return true
}

// FinishCompiling marks the declaration compiled.
func (d *Decl) FinishCompiling() { d.state = stateCompiled }

// IsCompiling reports whether the declaration is mid-compilation.
func (d *Decl) IsCompiling() bool { return d.state == stateCompiling }

// IsCompiled reports whether compilation finished.
func (d *Decl) IsCompiled() bool { return d.state == stateCompiled }

// Member returns the first member named name present at v, or the first
// member named name when v is zero.
func (d *Decl) Member(name string, v version.Version) *Member {
	for _, m := range d.Members {
		if m.Name != name {
			continue
		}
		if v == version.NegInf || m.Availability.Set().Contains(v) {
			return m
		}
	}
	return nil
}

// Member is a struct/table/union/overlay field, a bits or enum member, a
// service member or a resource property.
type Member struct {
	Name         string
	Attributes   Attributes
	Availability availability.Availability
	Span         ast.Span

	Ordinal  uint64
	TypeCtor *TypeCtor
	Value    *Constant
	Default  *Constant
}

// Method is a protocol method or event.
type Method struct {
	Name         string
	Attributes   Attributes
	Availability availability.Availability
	Span         ast.Span

	Strictness  Strictness
	HasRequest  bool
	HasResponse bool
	Request     *TypeCtor
	Response    *TypeCtor
	Error       *TypeCtor
	// Result references the synthesized result union when the method declares
	// an error or is a flexible two-way method.
	Result *TypeCtor

	Selector string
	Ordinal  uint64
}

// IsEvent reports whether the method is server-initiated.
func (m *Method) IsEvent() bool { return !m.HasRequest && m.HasResponse }

// HasResultUnion reports whether the response is wrapped in a result union.
func (m *Method) HasResultUnion() bool { return m.Result != nil }

// Payloads returns the request, response and result type constructors that
// are set.
func (m *Method) Payloads() []*TypeCtor {
	var out []*TypeCtor
	for _, tc := range []*TypeCtor{m.Request, m.Response, m.Result} {
		if tc != nil {
			out = append(out, tc)
		}
	}
	return out
}

// Compose is a composed protocol.
type Compose struct {
	Reference    Reference
	Attributes   Attributes
	Availability availability.Availability
	Span         ast.Span
}

// TypeCtor is a type constructor awaiting compilation into a Type.
type TypeCtor struct {
	Layout   Reference
	Element  *TypeCtor
	Size     *Constant
	Protocol *Reference
	Subtype  *Constant
	Optional bool
	Span     ast.Span

	Type *Type
}
