package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/attrschema"
	"github.com/jacoelho/idlc/internal/flat"
	"github.com/jacoelho/idlc/internal/reporter"
)

func TestInsertDuplicateLibrary(t *testing.T) {
	f := newFixture(t)
	first := New(f.libs, f.r, WithLogger(discard))
	require.NoError(t, first.ConsumeFile(versioned("fuchsia.test")))
	require.NoError(t, first.Compile())

	err := f.compile(t, versioned("fuchsia.test", structDecl("S", nil)))
	require.Error(t, err)
	assert.True(t, idlerrors.HasCode(err, idlerrors.ErrMultipleLibrariesWithSameName))
	assert.Same(t, first.Library(), f.libs.Lookup("fuchsia.test"))
	assert.Len(t, f.libs.All(), 1)
}

func TestInsertRootName(t *testing.T) {
	libs := NewLibraries(WithRegistryLogger(discard))
	assert.ErrorIs(t, libs.Insert(flat.NewLibrary(flat.RootLibraryName)), ErrDuplicateLibrary)
}

func TestRemove(t *testing.T) {
	libs := NewLibraries(WithRegistryLogger(discard))
	a := flat.NewLibrary("fuchsia.a")
	b := flat.NewLibrary("fuchsia.b")
	require.NoError(t, libs.Insert(a))
	require.NoError(t, libs.Insert(b))
	assert.Same(t, b, libs.Target())

	libs.Remove(b)
	assert.Nil(t, libs.Lookup("fuchsia.b"))
	assert.Same(t, a, libs.Target())

	assert.Panics(t, func() { libs.Remove(b) })
	assert.Panics(t, func() { libs.Remove(flat.NewLibrary("fuchsia.a")) })
}

func TestWarnOnAttributeTypo(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: "availble", want: true},
		{name: "availablee", want: true},
		{name: "transprt", want: true},
		{name: "available", want: false},
		{name: "totallydifferent", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			libs := NewLibraries(WithRegistryLogger(discard))
			r := reporter.New(reporter.WithLogger(discard))
			got := libs.WarnOnAttributeTypo(&flat.Attribute{Name: tt.name}, r)
			assert.Equal(t, tt.want, got)
			if tt.want {
				require.Len(t, r.Warnings(), 1)
				assert.Equal(t, string(idlerrors.WarnAttributeTypo.Code), r.Warnings()[0].Code)
			} else {
				assert.Empty(t, r.Diagnostics())
			}
		})
	}
}

func TestAttributeTypoFailsWithWarningsAsErrors(t *testing.T) {
	f := newFixture(t)
	f.r = reporter.New(reporter.WithLogger(discard), reporter.WithWarningsAsErrors(true))
	err := f.compile(t, versioned("fuchsia.test", structDecl("S", []ast.Attribute{attr("doc_", "text")})))
	require.Error(t, err)
	assert.True(t, idlerrors.HasCode(err, idlerrors.WarnAttributeTypo))
}

func TestAttributeSchemas(t *testing.T) {
	libs := NewLibraries(WithRegistryLogger(discard))
	assert.True(t, libs.RetrieveAttributeSchema("unknown").UserDefined)
	assert.False(t, libs.RetrieveAttributeSchema(attrschema.Doc).UserDefined)

	custom := attrschema.Schema{
		Name:      "bindings_denylist",
		Placement: attrschema.PlaceAnywhere,
		Args:      []attrschema.Arg{{Name: "value", Type: attrschema.ArgString}},
	}
	require.NoError(t, libs.AddAttributeSchema(custom))
	assert.False(t, libs.RetrieveAttributeSchema("bindings_denylist").UserDefined)
	assert.ErrorIs(t, libs.AddAttributeSchema(custom), attrschema.ErrDuplicateSchema)
}

func TestCustomSchemaValidatesArguments(t *testing.T) {
	schemas := attrschema.NewRegistry()
	require.NoError(t, schemas.Add(attrschema.Schema{
		Name:      "bindings_denylist",
		Placement: attrschema.PlaceStruct,
		Args:      []attrschema.Arg{{Name: "value", Type: attrschema.ArgString}},
	}))
	f := newFixture(t, WithSchemas(schemas))
	err := f.compile(t, versioned("fuchsia.test", protocolDecl("P", oneWay("Do", nil, attr("bindings_denylist", "go")))))
	require.Error(t, err)
	assert.True(t, idlerrors.HasCode(err, idlerrors.ErrInvalidAttributePlacement))
}

func TestUnusedLibraries(t *testing.T) {
	f := newFixture(t)
	f.mustCompile(t, versioned("fuchsia.c"))
	f.mustCompile(t, versioned("fuchsia.b"))
	f.mustCompile(t, versioned("fuchsia.d"))
	require.NoError(t, f.compileWith(t, []Option{WithAllowUnusedImports(true)},
		using(versioned("fuchsia.a"), "fuchsia.b")))

	var unused []string
	for _, lib := range f.libs.Unused() {
		unused = append(unused, lib.Name)
	}
	assert.Equal(t, []string{"fuchsia.c", "fuchsia.d"}, unused)
}
