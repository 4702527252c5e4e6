package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/attrschema"
	"github.com/jacoelho/idlc/internal/flat"
	"github.com/jacoelho/idlc/internal/metrics"
	"github.com/jacoelho/idlc/internal/reporter"
)

var (
	// ErrDuplicateLibrary is returned by Insert when the name is taken.
	ErrDuplicateLibrary = errors.New("library already inserted")
	// ErrNoLibraries is returned by Filter when nothing was inserted.
	ErrNoLibraries = errors.New("no libraries inserted")
)

// LibrariesOption configures a Libraries registry.
type LibrariesOption func(*Libraries)

// WithSchemas injects the attribute schema registry.
func WithSchemas(schemas *attrschema.Registry) LibrariesOption {
	return func(l *Libraries) {
		if schemas != nil {
			l.schemas = schemas
		}
	}
}

// WithMetrics records compilation metrics. A nil Metrics records nothing.
func WithMetrics(m *metrics.Metrics) LibrariesOption {
	return func(l *Libraries) { l.metrics = m }
}

// WithRegistryLogger sets the logger used by the registry.
func WithRegistryLogger(logger *slog.Logger) LibrariesOption {
	return func(l *Libraries) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Libraries owns every compiled library of a build, in insertion order. The
// last inserted library is the target. It is not safe for concurrent use.
type Libraries struct {
	root      *flat.Library
	libraries []*flat.Library
	byName    map[string]*flat.Library
	schemas   *attrschema.Registry
	typespace *flat.Typespace
	generated *ast.GeneratedFile
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewLibraries returns a registry holding only the root library.
func NewLibraries(opts ...LibrariesOption) *Libraries {
	l := &Libraries{
		root:      flat.NewRootLibrary(),
		byName:    make(map[string]*flat.Library),
		schemas:   attrschema.NewRegistry(),
		typespace: flat.NewTypespace(),
		generated: ast.NewGeneratedFile("generated"),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Insert takes ownership of lib. It fails if a library with the same name
// was already inserted.
func (l *Libraries) Insert(lib *flat.Library) error {
	if lib.Name == flat.RootLibraryName {
		return fmt.Errorf("%w: %s", ErrDuplicateLibrary, lib.Name)
	}
	if _, ok := l.byName[lib.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateLibrary, lib.Name)
	}
	l.byName[lib.Name] = lib
	l.libraries = append(l.libraries, lib)
	l.metrics.SetLibraries(len(l.libraries))
	l.logger.Debug("library inserted", "library", lib.Name)
	return nil
}

// Lookup returns the inserted library named name, or nil.
func (l *Libraries) Lookup(name string) *flat.Library {
	return l.byName[name]
}

// Remove drops lib. Removing a library that was never inserted is a bug.
func (l *Libraries) Remove(lib *flat.Library) {
	if l.byName[lib.Name] != lib {
		panic(fmt.Sprintf("compiler: removing library %s that is not in the registry", lib.Name))
	}
	delete(l.byName, lib.Name)
	l.libraries = slices.DeleteFunc(l.libraries, func(other *flat.Library) bool { return other == lib })
	l.metrics.SetLibraries(len(l.libraries))
}

// All returns the inserted libraries in insertion order.
func (l *Libraries) All() []*flat.Library { return l.libraries }

// Target returns the most recently inserted library, or nil.
func (l *Libraries) Target() *flat.Library {
	if len(l.libraries) == 0 {
		return nil
	}
	return l.libraries[len(l.libraries)-1]
}

// Root returns the library of builtin declarations.
func (l *Libraries) Root() *flat.Library { return l.root }

// Typespace returns the types shared by every library.
func (l *Libraries) Typespace() *flat.Typespace { return l.typespace }

// Generated returns the source file that spans of synthesized declarations
// point into.
func (l *Libraries) Generated() *ast.GeneratedFile { return l.generated }

// AddAttributeSchema registers a schema for an attribute name.
func (l *Libraries) AddAttributeSchema(s attrschema.Schema) error {
	return l.schemas.Add(s)
}

// RetrieveAttributeSchema returns the schema for name. Unknown names get the
// permissive user-defined schema.
func (l *Libraries) RetrieveAttributeSchema(name string) *attrschema.Schema {
	return l.schemas.Lookup(name)
}

// WarnOnAttributeTypo warns when an unregistered attribute is one edit away
// from a registered one. It reports whether a warning was emitted.
func (l *Libraries) WarnOnAttributeTypo(attr *flat.Attribute, r *reporter.Reporter) bool {
	suggestions := l.schemas.Suggestions(attr.Name)
	for _, s := range suggestions {
		r.Warn(idlerrors.WarnAttributeTypo, attr.Span, attr.Name, s)
	}
	return len(suggestions) > 0
}

// Unused returns the inserted libraries that the target does not reach
// through its imports, sorted by name.
func (l *Libraries) Unused() []*flat.Library {
	target := l.Target()
	if target == nil {
		return nil
	}
	reached := map[*flat.Library]bool{target: true}
	stack := []*flat.Library{target}
	for len(stack) > 0 {
		lib := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range lib.Dependencies.Libraries() {
			if !reached[dep] {
				reached[dep] = true
				stack = append(stack, dep)
			}
		}
	}
	var out []*flat.Library
	for _, lib := range l.libraries {
		if !reached[lib] {
			out = append(out, lib)
		}
	}
	slices.SortFunc(out, func(a, b *flat.Library) int { return strings.Compare(a.Name, b.Name) })
	return out
}
