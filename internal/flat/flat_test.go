package flat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/availability"
	"github.com/jacoelho/idlc/internal/version"
)

func inherited(t *testing.T, added, removed uint32) availability.Availability {
	t.Helper()
	var a availability.Availability
	args := availability.InitArgs{Added: version.MustFrom(added)}
	if removed != 0 {
		args.Removed = version.MustFrom(removed)
	}
	require.NoError(t, a.Init(args))
	parent := availability.Unbounded()
	require.True(t, a.Inherit(&parent).OK())
	return a
}

func TestParseRefName(t *testing.T) {
	tests := []struct {
		text string
		want RefName
	}{
		{"Foo", RefName{Decl: "Foo"}},
		{"Foo.BAR", RefName{Decl: "Foo", Member: "BAR"}},
		{"fuchsia.io/Node", RefName{Library: "fuchsia.io", Decl: "Node"}},
		{"zx/ObjType.CHANNEL", RefName{Library: "zx", Decl: "ObjType", Member: "CHANNEL"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ParseRefName(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, got.String())
		})
	}
}

func TestReferenceUnresolvedPanics(t *testing.T) {
	ref := NewReference("Foo", ast.Span{})
	assert.False(t, ref.IsResolved())
	assert.PanicsWithValue(t, "flat: dereferencing unresolved reference Foo", func() { ref.Target() })
	assert.Panics(t, func() { ref.Resolve(Target{}) })
}

func TestTargetCandidates(t *testing.T) {
	lib := NewLibrary("example")
	old := &Decl{Kind: KindStruct, Name: "Foo", Library: lib, Availability: inherited(t, 1, 5)}
	cur := &Decl{Kind: KindTable, Name: "Foo", Library: lib, Availability: inherited(t, 5, 0)}
	lib.Declarations.Insert(old)
	lib.Declarations.Insert(cur)

	ref := NewReference("Foo", ast.Span{})
	ref.Resolve(Target{Library: lib, Candidates: lib.Declarations.Lookup("Foo")})

	got, ok := ref.Target().At(version.MustFrom(3))
	require.True(t, ok)
	assert.Same(t, old, got)
	got, ok = ref.Target().At(version.MustFrom(7))
	require.True(t, ok)
	assert.Same(t, cur, got)
	assert.Same(t, cur, ref.Target().Decl())
	_, ok = ref.Target().At(version.NegInf)
	assert.False(t, ok)
}

func TestResolvedReference(t *testing.T) {
	lib := NewLibrary("example")
	decl := &Decl{Kind: KindUnion, Name: "P_M_Result", Library: lib}
	ref := ResolvedReference(decl, ast.Span{})
	require.True(t, ref.IsResolved())
	assert.Same(t, decl, ref.Target().Decl())
	assert.Equal(t, "example/P_M_Result", ref.Name.String())
}

func TestDeclarations(t *testing.T) {
	var decls Declarations
	a := &Decl{Kind: KindStruct, Name: "A"}
	b := &Decl{Kind: KindEnum, Name: "B"}
	c := &Decl{Kind: KindStruct, Name: "C"}
	decls.Insert(a)
	decls.Insert(b)
	decls.Insert(c)

	assert.Equal(t, []*Decl{a, b, c}, decls.All())
	assert.Equal(t, []*Decl{a, c}, decls.OfKind(KindStruct))
	assert.Equal(t, []*Decl{b}, decls.Lookup("B"))
	assert.Nil(t, decls.Lookup("missing"))
	assert.Equal(t, 3, decls.Len())
}

func TestDependencies(t *testing.T) {
	var deps Dependencies
	io := NewLibrary("fuchsia.io")
	mem := NewLibrary("fuchsia.mem")

	assert.Equal(t, RegisterOK, deps.Register("a.fidl", io, "", ast.Span{}))
	assert.Equal(t, RegisterDuplicate, deps.Register("a.fidl", io, "", ast.Span{}))
	assert.Equal(t, RegisterOK, deps.Register("b.fidl", io, "", ast.Span{}))
	assert.Equal(t, RegisterOK, deps.Register("b.fidl", mem, "m", ast.Span{}))
	assert.Equal(t, RegisterCollision, deps.Register("c.fidl", io, "m", ast.Span{}))

	require.Len(t, deps.All(), 2)
	assert.Equal(t, []*Library{io, mem}, deps.Libraries())
	assert.Len(t, deps.Unused(), 2)

	got, ok := deps.Lookup("m")
	require.True(t, ok)
	assert.Same(t, mem, got)
	_, ok = deps.Lookup("fuchsia.mem")
	assert.False(t, ok)

	unused := deps.Unused()
	require.Len(t, unused, 1)
	assert.Same(t, io, unused[0].Library)
	assert.True(t, deps.Contains(io))
}

func TestRootLibrary(t *testing.T) {
	root := NewRootLibrary()
	assert.True(t, root.Root)
	assert.False(t, root.IsVersioned())
	decls := root.Declarations.Lookup("uint32")
	require.Len(t, decls, 1)
	assert.Equal(t, BuiltinUint32, decls[0].Builtin)
	assert.True(t, decls[0].IsCompiled())
	assert.True(t, decls[0].Availability.Set().Contains(version.Head))
}

func TestTypespaceInterns(t *testing.T) {
	ts := NewTypespace()
	u8 := ts.Primitive(PrimitiveUint8)
	assert.Same(t, u8, ts.Primitive(PrimitiveUint8))

	vec := ts.Intern(Type{Kind: TypeVector, Element: u8, Size: 16})
	assert.Equal(t, "vector<uint8>:16", vec.Name())
	assert.Same(t, vec, ts.Intern(Type{Kind: TypeVector, Element: u8, Size: 16}))

	str := ts.Intern(Type{Kind: TypeString, Size: Unbounded, Optional: true})
	assert.Equal(t, "string:optional", str.Name())
	assert.Len(t, ts.Types(), 3)
}

func TestPrimitiveBounds(t *testing.T) {
	lo, hi := PrimitiveInt8.Bounds()
	assert.Equal(t, int64(-128), lo)
	assert.Equal(t, uint64(127), hi)
	assert.True(t, PrimitiveUint16.IsUnsigned())
	assert.False(t, PrimitiveInt16.IsUnsigned())
	assert.Equal(t, uint32(8), PrimitiveFloat64.Size())
	p, ok := PrimitiveOf(BuiltinByte)
	require.True(t, ok)
	assert.Equal(t, PrimitiveUint8, p)
}

func TestDeclCompileState(t *testing.T) {
	d := &Decl{Kind: KindStruct, Name: "S"}
	require.True(t, d.StartCompiling())
	assert.True(t, d.IsCompiling())
	assert.False(t, d.StartCompiling())
	d.FinishCompiling()
	assert.True(t, d.IsCompiled())
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf(ast.KindTable)
	require.True(t, ok)
	assert.Equal(t, KindTable, k)
	assert.Equal(t, "table", k.String())
	_, ok = KindOf("module")
	assert.False(t, ok)
}
