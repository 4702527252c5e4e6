package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jacoelho/idlc/internal/availability"
	"github.com/jacoelho/idlc/internal/flat"
	"github.com/jacoelho/idlc/internal/version"
)

// FilteredDecl is a declaration as seen at one version: its availability is
// narrowed to the range containing that version and only the members,
// methods and composes present there are kept.
type FilteredDecl struct {
	Decl         *flat.Decl
	Availability availability.Availability
	Members      []*flat.Member
	Methods      []*flat.Method
	Composes     []*flat.Compose
}

// Name returns the declaration name.
func (f *FilteredDecl) Name() string { return f.Decl.Name }

// Kind returns the declaration kind.
func (f *FilteredDecl) Kind() flat.Kind { return f.Decl.Kind }

// Declarations groups filtered declarations by kind, each in declaration
// order.
type Declarations map[flat.Kind][]*FilteredDecl

// Len returns the number of declarations of every kind.
func (d Declarations) Len() int {
	n := 0
	for _, decls := range d {
		n += len(decls)
	}
	return n
}

// Dependency is a library the filtered target needs, filtered at its own
// platform's version.
type Dependency struct {
	Name         string
	Version      version.Version
	Declarations Declarations
}

// Compilation is the version-filtered view of the target library.
type Compilation struct {
	LibraryName      string
	Platform         version.Platform
	Version          version.Version
	Declarations     Declarations
	DeclarationOrder []*FilteredDecl
	// ExternalStructs are structs of other libraries used in method payloads
	// of the target.
	ExternalStructs []*flat.Decl
	Dependencies    []Dependency
}

// Filter produces the view of the most recently inserted library at the
// version the selection picks for its platform. Every platform reached by
// the target and its dependencies must have been selected.
func (l *Libraries) Filter(sel *version.Selection) (*Compilation, error) {
	target := l.Target()
	if target == nil {
		return nil, ErrNoLibraries
	}
	v := sel.Lookup(target.Platform)
	order := filterDecls(target.DeclarationOrder, v)
	decls := make(Declarations)
	for _, f := range filterDecls(target.Declarations.All(), v) {
		decls[f.Decl.Kind] = append(decls[f.Decl.Kind], f)
	}
	out := &Compilation{
		LibraryName:      target.Name,
		Platform:         target.Platform,
		Version:          v,
		Declarations:     decls,
		DeclarationOrder: order,
		ExternalStructs:  externalStructs(target, order, sel),
	}

	for _, dep := range CalcDependencies(order, sel) {
		if dep == target || dep.Root {
			continue
		}
		depVersion := sel.Lookup(dep.Platform)
		depDecls := make(Declarations)
		for _, f := range filterDecls(dep.Declarations.All(), depVersion) {
			depDecls[f.Decl.Kind] = append(depDecls[f.Decl.Kind], f)
		}
		out.Dependencies = append(out.Dependencies, Dependency{Name: dep.Name, Version: depVersion, Declarations: depDecls})
		l.metrics.SetFiltered(dep.Name, depDecls.Len())
	}
	slices.SortFunc(out.Dependencies, func(a, b Dependency) int { return strings.Compare(a.Name, b.Name) })
	l.metrics.SetFiltered(target.Name, decls.Len())
	l.logger.Debug("library filtered", "library", target.Name, "version", v, "declarations", decls.Len(), "dependencies", len(out.Dependencies))
	return out, nil
}

func filterDecls(decls []*flat.Decl, v version.Version) []*FilteredDecl {
	var out []*FilteredDecl
	for _, d := range decls {
		if d.Kind == flat.KindBuiltin {
			continue
		}
		narrowed, ok := d.Availability.NarrowedAt(v)
		if !ok {
			continue
		}
		f := &FilteredDecl{Decl: d, Availability: narrowed}
		for _, m := range d.Members {
			if m.Availability.Set().Contains(v) {
				f.Members = append(f.Members, m)
			}
		}
		for _, m := range d.Methods {
			if m.Availability.Set().Contains(v) {
				f.Methods = append(f.Methods, m)
			}
		}
		for _, comp := range d.Composes {
			if comp.Availability.Set().Contains(v) {
				f.Composes = append(f.Composes, comp)
			}
		}
		out = append(out, f)
	}
	return out
}

// ownedMethod is a method together with the protocol declaring it.
type ownedMethod struct {
	Protocol *flat.Decl
	Method   *flat.Method
}

// allMethods returns the methods of a filtered protocol followed by those
// it composes transitively, each taken at the selected version of the
// composed protocol's platform.
func allMethods(f *FilteredDecl, sel *version.Selection) []ownedMethod {
	var out []ownedMethod
	for _, m := range f.Methods {
		out = append(out, ownedMethod{Protocol: f.Decl, Method: m})
	}
	visited := map[*flat.Decl]bool{f.Decl: true}
	var compose func(comps []*flat.Compose)
	compose = func(comps []*flat.Compose) {
		for _, comp := range comps {
			if !comp.Reference.IsResolved() {
				continue
			}
			target := comp.Reference.Target()
			v := sel.Lookup(target.Library.Platform)
			d, ok := target.At(v)
			if !ok || visited[d] {
				continue
			}
			visited[d] = true
			for _, m := range d.Methods {
				if m.Availability.Set().Contains(v) {
					out = append(out, ownedMethod{Protocol: d, Method: m})
				}
			}
			var present []*flat.Compose
			for _, c := range d.Composes {
				if c.Availability.Set().Contains(v) {
					present = append(present, c)
				}
			}
			compose(present)
		}
	}
	compose(f.Composes)
	return out
}

// CalcDependencies returns the libraries owning every declaration referenced
// from decls, in the order first reached. Protocol methods include those
// composed transitively, looked up with sel. The libraries of decls
// themselves and the root library are included when reached; callers drop
// them.
func CalcDependencies(decls []*FilteredDecl, sel *version.Selection) []*flat.Library {
	c := dependencyCalculator{
		sel:      sel,
		seen:     make(map[*flat.Library]bool),
		payloads: make(map[*flat.Decl]bool),
	}
	for _, f := range decls {
		c.filtered(f)
	}
	return c.order
}

type dependencyCalculator struct {
	sel      *version.Selection
	seen     map[*flat.Library]bool
	order    []*flat.Library
	payloads map[*flat.Decl]bool
}

func (c *dependencyCalculator) library(lib *flat.Library) {
	if lib == nil || c.seen[lib] {
		return
	}
	c.seen[lib] = true
	c.order = append(c.order, lib)
}

func (c *dependencyCalculator) reference(ref *flat.Reference) {
	if !ref.IsResolved() {
		return
	}
	c.library(ref.Target().Library)
}

func (c *dependencyCalculator) filtered(f *FilteredDecl) {
	d := f.Decl
	switch d.Kind {
	case flat.KindBits, flat.KindEnum:
		c.typeCtor(d.TypeCtor)
		for _, m := range f.Members {
			c.constant(m.Value)
		}
	case flat.KindConst:
		c.typeCtor(d.TypeCtor)
		c.constant(d.Value)
	case flat.KindAlias, flat.KindNewType:
		c.typeCtor(d.TypeCtor)
	case flat.KindResource:
		c.typeCtor(d.TypeCtor)
		for _, m := range f.Members {
			c.typeCtor(m.TypeCtor)
		}
	case flat.KindStruct, flat.KindTable, flat.KindUnion, flat.KindOverlay, flat.KindService:
		for _, m := range f.Members {
			c.typeCtor(m.TypeCtor)
			c.constant(m.Default)
		}
	case flat.KindProtocol:
		// A composed protocol's library is needed even when none of its
		// methods survive filtering.
		for _, comp := range f.Composes {
			c.reference(&comp.Reference)
		}
		for _, om := range allMethods(f, c.sel) {
			c.library(om.Protocol.Library)
			for _, tc := range om.Method.Payloads() {
				c.payload(tc)
			}
			c.typeCtor(om.Method.Error)
		}
	}
}

// payload records a method payload and, for struct payloads, the types of
// their fields, which some bindings flatten into parameter lists.
func (c *dependencyCalculator) payload(tc *flat.TypeCtor) {
	c.typeCtor(tc)
	if tc.Type == nil || tc.Type.Kind != flat.TypeIdentifier {
		return
	}
	d := tc.Type.Decl
	if d.Kind != flat.KindStruct || c.payloads[d] {
		return
	}
	c.payloads[d] = true
	for _, m := range d.Members {
		c.typeCtor(m.TypeCtor)
	}
}

func (c *dependencyCalculator) typeCtor(tc *flat.TypeCtor) {
	if tc == nil {
		return
	}
	c.reference(&tc.Layout)
	if tc.Protocol != nil {
		c.reference(tc.Protocol)
	}
	c.typeCtor(tc.Element)
	c.constant(tc.Size)
}

func (c *dependencyCalculator) constant(k *flat.Constant) {
	if k == nil {
		return
	}
	switch k.Kind {
	case flat.ConstantIdentifier:
		c.reference(&k.Reference)
	case flat.ConstantBinaryOr:
		c.constant(k.Left)
		c.constant(k.Right)
	}
}

// externalStructs returns the structs of other libraries used directly as a
// method request, response or result union variant by a protocol of decls,
// sorted by full name.
func externalStructs(target *flat.Library, decls []*FilteredDecl, sel *version.Selection) []*flat.Decl {
	var out []*flat.Decl
	seen := make(map[*flat.Decl]bool)
	add := func(tc *flat.TypeCtor) {
		if tc == nil || tc.Type == nil || tc.Type.Kind != flat.TypeIdentifier {
			return
		}
		d := tc.Type.Decl
		if d.Kind != flat.KindStruct || d.Library == target || seen[d] {
			return
		}
		seen[d] = true
		out = append(out, d)
	}
	for _, f := range decls {
		if f.Decl.Kind != flat.KindProtocol {
			continue
		}
		for _, om := range allMethods(f, sel) {
			m := om.Method
			add(m.Request)
			add(m.Response)
			if m.Result != nil && m.Result.Type != nil && m.Result.Type.Decl != nil {
				for _, variant := range m.Result.Type.Decl.Members {
					add(variant.TypeCtor)
				}
			}
		}
	}
	slices.SortFunc(out, func(a, b *flat.Decl) int { return strings.Compare(a.FullName(), b.FullName()) })
	return out
}

// String summarizes the compilation for logs.
func (c *Compilation) String() string {
	return fmt.Sprintf("%s@%s (%d declarations, %d dependencies)", c.LibraryName, c.Version, c.Declarations.Len(), len(c.Dependencies))
}
