package flat

import (
	"fmt"
	"math"
	"strings"
)

// Builtin identifies declarations of the root library.
type Builtin uint8

const (
	BuiltinNone Builtin = iota
	BuiltinBool
	BuiltinInt8
	BuiltinInt16
	BuiltinInt32
	BuiltinInt64
	BuiltinUint8
	BuiltinUint16
	BuiltinUint32
	BuiltinUint64
	BuiltinFloat32
	BuiltinFloat64
	BuiltinByte
	BuiltinString
	BuiltinVector
	BuiltinArray
	BuiltinBox
	BuiltinClientEnd
	BuiltinServerEnd
	BuiltinFrameworkErr
)

// BuiltinNames maps root library names to builtins, in declaration order.
var BuiltinNames = []struct {
	Name    string
	Builtin Builtin
}{
	{"bool", BuiltinBool},
	{"int8", BuiltinInt8},
	{"int16", BuiltinInt16},
	{"int32", BuiltinInt32},
	{"int64", BuiltinInt64},
	{"uint8", BuiltinUint8},
	{"uint16", BuiltinUint16},
	{"uint32", BuiltinUint32},
	{"uint64", BuiltinUint64},
	{"float32", BuiltinFloat32},
	{"float64", BuiltinFloat64},
	{"byte", BuiltinByte},
	{"string", BuiltinString},
	{"vector", BuiltinVector},
	{"array", BuiltinArray},
	{"box", BuiltinBox},
	{"client_end", BuiltinClientEnd},
	{"server_end", BuiltinServerEnd},
	{"framework_err", BuiltinFrameworkErr},
}

// Primitive is a primitive subtype.
type Primitive uint8

const (
	PrimitiveBool Primitive = iota + 1
	PrimitiveInt8
	PrimitiveInt16
	PrimitiveInt32
	PrimitiveInt64
	PrimitiveUint8
	PrimitiveUint16
	PrimitiveUint32
	PrimitiveUint64
	PrimitiveFloat32
	PrimitiveFloat64
)

var primitiveNames = [...]string{
	PrimitiveBool:    "bool",
	PrimitiveInt8:    "int8",
	PrimitiveInt16:   "int16",
	PrimitiveInt32:   "int32",
	PrimitiveInt64:   "int64",
	PrimitiveUint8:   "uint8",
	PrimitiveUint16:  "uint16",
	PrimitiveUint32:  "uint32",
	PrimitiveUint64:  "uint64",
	PrimitiveFloat32: "float32",
	PrimitiveFloat64: "float64",
}

func (p Primitive) String() string {
	if p > 0 && int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "unknown"
}

// PrimitiveOf returns the primitive subtype of a builtin.
func PrimitiveOf(b Builtin) (Primitive, bool) {
	switch b {
	case BuiltinBool:
		return PrimitiveBool, true
	case BuiltinInt8:
		return PrimitiveInt8, true
	case BuiltinInt16:
		return PrimitiveInt16, true
	case BuiltinInt32:
		return PrimitiveInt32, true
	case BuiltinInt64:
		return PrimitiveInt64, true
	case BuiltinUint8, BuiltinByte:
		return PrimitiveUint8, true
	case BuiltinUint16:
		return PrimitiveUint16, true
	case BuiltinUint32:
		return PrimitiveUint32, true
	case BuiltinUint64:
		return PrimitiveUint64, true
	case BuiltinFloat32:
		return PrimitiveFloat32, true
	case BuiltinFloat64:
		return PrimitiveFloat64, true
	default:
		return 0, false
	}
}

// IsInteger reports whether p is a signed or unsigned integer.
func (p Primitive) IsInteger() bool { return p >= PrimitiveInt8 && p <= PrimitiveUint64 }

// IsUnsigned reports whether p is an unsigned integer.
func (p Primitive) IsUnsigned() bool { return p >= PrimitiveUint8 && p <= PrimitiveUint64 }

// IsFloat reports whether p is a float.
func (p Primitive) IsFloat() bool { return p == PrimitiveFloat32 || p == PrimitiveFloat64 }

// Size returns the primitive size in bytes.
func (p Primitive) Size() uint32 {
	switch p {
	case PrimitiveBool, PrimitiveInt8, PrimitiveUint8:
		return 1
	case PrimitiveInt16, PrimitiveUint16:
		return 2
	case PrimitiveInt32, PrimitiveUint32, PrimitiveFloat32:
		return 4
	default:
		return 8
	}
}

// Bounds returns the inclusive integer range of p.
func (p Primitive) Bounds() (lo int64, hi uint64) {
	switch p {
	case PrimitiveInt8:
		return math.MinInt8, math.MaxInt8
	case PrimitiveInt16:
		return math.MinInt16, math.MaxInt16
	case PrimitiveInt32:
		return math.MinInt32, math.MaxInt32
	case PrimitiveInt64:
		return math.MinInt64, math.MaxInt64
	case PrimitiveUint8:
		return 0, math.MaxUint8
	case PrimitiveUint16:
		return 0, math.MaxUint16
	case PrimitiveUint32:
		return 0, math.MaxUint32
	case PrimitiveUint64:
		return 0, math.MaxUint64
	default:
		return 0, 0
	}
}

// TypeKind distinguishes compiled types.
type TypeKind uint8

const (
	TypePrimitive TypeKind = iota + 1
	TypeString
	TypeVector
	TypeArray
	TypeBox
	TypeHandle
	TypeTransportSide
	TypeIdentifier
	TypeInternal
)

// TransportRole is the end of a protocol channel.
type TransportRole uint8

const (
	RoleClient TransportRole = iota + 1
	RoleServer
)

// Unbounded is the size of a string or vector without a bound.
const Unbounded = math.MaxUint32

// Type is a compiled, interned type.
type Type struct {
	Kind      TypeKind
	Primitive Primitive
	// Decl is the declaration of identifier types, the resource of handle
	// types and the protocol of transport sides.
	Decl     *Decl
	Element  *Type
	Size     uint32
	Optional bool
	Subtype  string
	Role     TransportRole
	name     string
}

// Name returns the canonical spelling of the type.
func (t *Type) Name() string { return t.name }

func (t *Type) String() string { return t.name }

func (t *Type) canonicalName() string {
	var b strings.Builder
	switch t.Kind {
	case TypePrimitive:
		b.WriteString(t.Primitive.String())
	case TypeString:
		b.WriteString("string")
		if t.Size != Unbounded {
			fmt.Fprintf(&b, ":%d", t.Size)
		}
	case TypeVector:
		fmt.Fprintf(&b, "vector<%s>", t.Element.name)
		if t.Size != Unbounded {
			fmt.Fprintf(&b, ":%d", t.Size)
		}
	case TypeArray:
		fmt.Fprintf(&b, "array<%s,%d>", t.Element.name, t.Size)
	case TypeBox:
		fmt.Fprintf(&b, "box<%s>", t.Element.name)
	case TypeHandle:
		b.WriteString(t.Decl.FullName())
		if t.Subtype != "" {
			b.WriteString(":" + t.Subtype)
		}
	case TypeTransportSide:
		if t.Role == RoleClient {
			b.WriteString("client_end")
		} else {
			b.WriteString("server_end")
		}
		fmt.Fprintf(&b, ":%s", t.Decl.FullName())
	case TypeIdentifier:
		b.WriteString(t.Decl.FullName())
	case TypeInternal:
		b.WriteString("framework_err")
	}
	if t.Optional {
		b.WriteString(":optional")
	}
	return b.String()
}

// Typespace interns types shared by every library of a build.
type Typespace struct {
	byName map[string]*Type
	order  []*Type
}

// NewTypespace returns an empty typespace.
func NewTypespace() *Typespace {
	return &Typespace{byName: make(map[string]*Type)}
}

// Intern returns the canonical instance of t.
func (ts *Typespace) Intern(t Type) *Type {
	t.name = t.canonicalName()
	if existing, ok := ts.byName[t.name]; ok {
		return existing
	}
	interned := &t
	ts.byName[t.name] = interned
	ts.order = append(ts.order, interned)
	return interned
}

// Primitive returns the interned primitive type.
func (ts *Typespace) Primitive(p Primitive) *Type {
	return ts.Intern(Type{Kind: TypePrimitive, Primitive: p})
}

// Types returns every interned type in creation order.
func (ts *Typespace) Types() []*Type { return ts.order }

// TypeShape is the wire shape of a type or layout.
type TypeShape struct {
	InlineSize          uint32
	Alignment           uint32
	Depth               uint32
	MaxHandles          uint32
	MaxOutOfLine        uint32
	HasPadding          bool
	HasFlexibleEnvelope bool
}
