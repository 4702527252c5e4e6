package compiler

import (
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/reporter"
	"github.com/jacoelho/idlc/internal/version"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	libs *Libraries
	r    *reporter.Reporter
}

func newFixture(t *testing.T, opts ...LibrariesOption) *fixture {
	t.Helper()
	opts = append([]LibrariesOption{WithRegistryLogger(discard)}, opts...)
	return &fixture{
		libs: NewLibraries(opts...),
		r:    reporter.New(reporter.WithLogger(discard)),
	}
}

// compile consumes files into one library and compiles it.
func (f *fixture) compile(t *testing.T, files ...*ast.File) error {
	t.Helper()
	return f.compileWith(t, nil, files...)
}

func (f *fixture) compileWith(t *testing.T, opts []Option, files ...*ast.File) error {
	t.Helper()
	opts = append([]Option{WithLogger(discard)}, opts...)
	c := New(f.libs, f.r, opts...)
	for _, file := range files {
		if err := c.ConsumeFile(file); err != nil {
			return err
		}
	}
	return c.Compile()
}

func (f *fixture) mustCompile(t *testing.T, files ...*ast.File) {
	t.Helper()
	require.NoError(t, f.compile(t, files...))
}

func selection(t *testing.T, text string) *version.Selection {
	t.Helper()
	sel := version.NewSelection()
	require.NoError(t, sel.ParseSelection(text))
	return sel
}

// versioned returns a file of library name added at 1 on the platform named
// after its first component.
func versioned(name string, decls ...ast.Decl) *ast.File {
	return &ast.File{
		Path:       name + ".fidl",
		Library:    name,
		Attributes: []ast.Attribute{available(added("1"))},
		Decls:      decls,
	}
}

func unversioned(name string, decls ...ast.Decl) *ast.File {
	return &ast.File{Path: name + ".fidl", Library: name, Decls: decls}
}

func using(f *ast.File, libs ...string) *ast.File {
	for _, lib := range libs {
		f.Using = append(f.Using, ast.Using{Library: lib})
	}
	return f
}

func available(args ...ast.AttributeArg) ast.Attribute {
	return ast.Attribute{Name: "available", Args: args}
}

func versionConstant(text string) ast.Constant {
	if _, err := strconv.ParseUint(text, 10, 32); err == nil {
		return ast.Numeric(text)
	}
	return ast.Ident(text)
}

func added(v string) ast.AttributeArg {
	return ast.AttributeArg{Name: "added", Value: versionConstant(v)}
}

func deprecated(v string) ast.AttributeArg {
	return ast.AttributeArg{Name: "deprecated", Value: versionConstant(v)}
}

func removed(v string) ast.AttributeArg {
	return ast.AttributeArg{Name: "removed", Value: versionConstant(v)}
}

func replaced(v string) ast.AttributeArg {
	return ast.AttributeArg{Name: "replaced", Value: versionConstant(v)}
}

func legacy(b bool) ast.AttributeArg {
	return ast.AttributeArg{Name: "legacy", Value: ast.Bool(b)}
}

func attr(name string, value ...string) ast.Attribute {
	a := ast.Attribute{Name: name}
	for _, v := range value {
		a.Args = append(a.Args, ast.AttributeArg{Value: ast.String(v)})
	}
	return a
}

func typ(layout string) *ast.TypeCtor {
	return &ast.TypeCtor{Layout: layout}
}

func field(name, layout string, attrs ...ast.Attribute) ast.Member {
	return ast.Member{Name: name, Type: typ(layout), Attributes: attrs}
}

func valued(name, value string) ast.Member {
	v := ast.Numeric(value)
	return ast.Member{Name: name, Value: &v}
}

func structDecl(name string, attrs []ast.Attribute, members ...ast.Member) ast.Decl {
	return ast.Decl{Kind: ast.KindStruct, Name: name, Attributes: attrs, Members: members}
}

func protocolDecl(name string, methods ...ast.Method) ast.Decl {
	return ast.Decl{Kind: ast.KindProtocol, Name: name, Methods: methods}
}

func oneWay(name string, request *ast.TypeCtor, attrs ...ast.Attribute) ast.Method {
	return ast.Method{Name: name, HasRequest: true, Request: request, Attributes: attrs}
}

func constant(c ast.Constant) *ast.Constant { return &c }
