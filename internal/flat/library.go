package flat

import (
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/availability"
	"github.com/jacoelho/idlc/internal/version"
)

// RootLibraryName names the library of builtin declarations.
const RootLibraryName = "fidl"

// Library is one compiled or in-progress library. It owns its declarations.
type Library struct {
	Name         string
	NameSpan     ast.Span
	Platform     version.Platform
	Availability availability.Availability
	Attributes   Attributes
	Declarations Declarations
	// DeclarationOrder lists declarations so that each follows the ones it
	// depends on by value.
	DeclarationOrder []*Decl
	Dependencies     Dependencies
	Root             bool
	Files            []string
}

// NewLibrary returns an empty library.
func NewLibrary(name string) *Library {
	return &Library{Name: name}
}

// NewRootLibrary returns the library holding builtin declarations.
func NewRootLibrary() *Library {
	lib := &Library{Name: RootLibraryName, Root: true, Platform: version.Unversioned()}
	lib.Availability = availability.Unbounded()
	for _, b := range BuiltinNames {
		decl := &Decl{Kind: KindBuiltin, Name: b.Name, Library: lib, Builtin: b.Builtin}
		decl.Availability = availability.Unbounded()
		decl.FinishCompiling()
		lib.Declarations.Insert(decl)
	}
	return lib
}

// IsVersioned reports whether the library declares a platform of its own.
func (l *Library) IsVersioned() bool {
	return !l.Platform.IsZero() && !l.Platform.IsUnversioned()
}

// Declarations indexes a library's declarations by kind and name.
type Declarations struct {
	all    []*Decl
	byKind map[Kind][]*Decl
	byName map[string][]*Decl
}

// Insert appends decl. Same-named declarations are kept side by side.
func (d *Declarations) Insert(decl *Decl) {
	if d.byKind == nil {
		d.byKind = make(map[Kind][]*Decl)
		d.byName = make(map[string][]*Decl)
	}
	d.all = append(d.all, decl)
	d.byKind[decl.Kind] = append(d.byKind[decl.Kind], decl)
	d.byName[decl.Name] = append(d.byName[decl.Name], decl)
}

// Lookup returns every declaration named name, in insertion order.
func (d *Declarations) Lookup(name string) []*Decl { return d.byName[name] }

// All returns every declaration in insertion order.
func (d *Declarations) All() []*Decl { return d.all }

// OfKind returns the declarations of kind k in insertion order.
func (d *Declarations) OfKind(k Kind) []*Decl { return d.byKind[k] }

// Len returns the number of declarations.
func (d *Declarations) Len() int { return len(d.all) }

// RegisterResult is the outcome of registering an import.
type RegisterResult uint8

const (
	RegisterOK RegisterResult = iota
	RegisterDuplicate
	RegisterCollision
)

// Dependency is one imported library.
type Dependency struct {
	Library *Library
	Alias   string
	Span    ast.Span
	used    bool
}

// Used reports whether any reference went through this import.
func (d *Dependency) Used() bool { return d.used }

// Dependencies records a library's imports and whether they are used.
type Dependencies struct {
	all    []*Dependency
	byKey  map[string]*Dependency
	byFile map[string]map[string]bool
}

// Register records that file imports lib, optionally under alias.
func (d *Dependencies) Register(file string, lib *Library, alias string, span ast.Span) RegisterResult {
	if d.byKey == nil {
		d.byKey = make(map[string]*Dependency)
		d.byFile = make(map[string]map[string]bool)
	}
	if d.byFile[file][lib.Name] {
		return RegisterDuplicate
	}
	key := lib.Name
	if alias != "" {
		key = alias
	}
	if existing, ok := d.byKey[key]; ok && existing.Library != lib {
		return RegisterCollision
	}
	if d.byFile[file] == nil {
		d.byFile[file] = make(map[string]bool)
	}
	d.byFile[file][lib.Name] = true
	if _, ok := d.byKey[key]; !ok {
		dep := &Dependency{Library: lib, Alias: alias, Span: span}
		d.byKey[key] = dep
		d.all = append(d.all, dep)
	}
	return RegisterOK
}

// Lookup finds an import by library name or alias and marks it used.
func (d *Dependencies) Lookup(name string) (*Library, bool) {
	dep, ok := d.byKey[name]
	if !ok {
		return nil, false
	}
	dep.used = true
	return dep.Library, true
}

// Contains reports whether lib is imported, without marking it used.
func (d *Dependencies) Contains(lib *Library) bool {
	for _, dep := range d.all {
		if dep.Library == lib {
			return true
		}
	}
	return false
}

// All returns every import in registration order.
func (d *Dependencies) All() []*Dependency { return d.all }

// Libraries returns the distinct imported libraries in registration order.
func (d *Dependencies) Libraries() []*Library {
	var out []*Library
	seen := make(map[*Library]bool, len(d.all))
	for _, dep := range d.all {
		if !seen[dep.Library] {
			seen[dep.Library] = true
			out = append(out, dep.Library)
		}
	}
	return out
}

// Unused returns imports no reference went through.
func (d *Dependencies) Unused() []*Dependency {
	var out []*Dependency
	for _, dep := range d.all {
		if !dep.used {
			out = append(out, dep)
		}
	}
	return out
}
