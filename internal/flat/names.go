// Package flat holds the compiled declaration graph: libraries, their
// declarations and members, references between them, and interned types.
package flat

import (
	"strings"

	"github.com/jacoelho/idlc/internal/ast"
)

// Kind identifies the variant of a Decl.
type Kind uint8

const (
	KindBuiltin Kind = iota
	KindAlias
	KindBits
	KindConst
	KindEnum
	KindNewType
	KindOverlay
	KindProtocol
	KindResource
	KindService
	KindStruct
	KindTable
	KindUnion
)

var kindNames = [...]string{
	KindBuiltin:  "builtin",
	KindAlias:    "alias",
	KindBits:     "bits",
	KindConst:    "const",
	KindEnum:     "enum",
	KindNewType:  "new_type",
	KindOverlay:  "overlay",
	KindProtocol: "protocol",
	KindResource: "resource",
	KindService:  "service",
	KindStruct:   "struct",
	KindTable:    "table",
	KindUnion:    "union",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Kinds lists every kind in declaration-output order.
var Kinds = []Kind{
	KindBuiltin, KindAlias, KindBits, KindConst, KindEnum, KindNewType, KindOverlay,
	KindProtocol, KindResource, KindService, KindStruct, KindTable, KindUnion,
}

var astKinds = map[ast.DeclKind]Kind{
	ast.KindAlias:    KindAlias,
	ast.KindBits:     KindBits,
	ast.KindConst:    KindConst,
	ast.KindEnum:     KindEnum,
	ast.KindNewType:  KindNewType,
	ast.KindOverlay:  KindOverlay,
	ast.KindProtocol: KindProtocol,
	ast.KindResource: KindResource,
	ast.KindService:  KindService,
	ast.KindStruct:   KindStruct,
	ast.KindTable:    KindTable,
	ast.KindUnion:    KindUnion,
}

// KindOf maps a raw declaration kind.
func KindOf(k ast.DeclKind) (Kind, bool) {
	kind, ok := astKinds[k]
	return kind, ok
}

// IsLayout reports whether the kind declares a value layout with members.
func (k Kind) IsLayout() bool {
	switch k {
	case KindStruct, KindTable, KindUnion, KindOverlay:
		return true
	default:
		return false
	}
}

// RefName is a reference as written: an optional library (or import alias)
// before '/', a declaration name, and an optional member after '.'.
type RefName struct {
	Library string
	Decl    string
	Member  string
}

// ParseRefName splits "fuchsia.io/Node.MEMBER" into its parts.
func ParseRefName(text string) RefName {
	var lib string
	if i := strings.LastIndexByte(text, '/'); i >= 0 {
		lib, text = text[:i], text[i+1:]
	}
	decl, member, _ := strings.Cut(text, ".")
	return RefName{Library: lib, Decl: decl, Member: member}
}

func (n RefName) String() string {
	var b strings.Builder
	if n.Library != "" {
		b.WriteString(n.Library)
		b.WriteByte('/')
	}
	b.WriteString(n.Decl)
	if n.Member != "" {
		b.WriteByte('.')
		b.WriteString(n.Member)
	}
	return b.String()
}
