package compiler

import (
	"errors"
	"slices"
	"strings"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/attrschema"
	"github.com/jacoelho/idlc/internal/availability"
	"github.com/jacoelho/idlc/internal/flat"
	"github.com/jacoelho/idlc/internal/graphcycle"
	"github.com/jacoelho/idlc/internal/version"
)

// resolveStep binds every reference of the library to its target, checks
// that targets exist wherever the referencing element does, and orders the
// declarations so that each follows what it contains by value.
type resolveStep struct{}

func (resolveStep) Name() string { return "resolve" }

func (resolveStep) Run(ctx *Context) {
	r := resolver{ctx: ctx, ok: true}
	lib := ctx.Library
	for _, attr := range lib.Attributes {
		r.attribute(attr, &lib.Availability, lib.Name)
	}
	for _, d := range lib.Declarations.All() {
		r.decl(d)
	}
	if !r.ok {
		return
	}
	order, err := graphcycle.TopoSort(graphcycle.Config[*flat.Decl]{
		Starts: lib.Declarations.All(),
		Next:   func(d *flat.Decl) []*flat.Decl { return includes(lib, d) },
	})
	if err != nil {
		var cycle graphcycle.CycleError[*flat.Decl]
		if !errors.As(err, &cycle) {
			panic(err)
		}
		names := make([]string, len(cycle.Path))
		for i, d := range cycle.Path {
			names[i] = d.Name
		}
		ctx.Reporter.Fail(idlerrors.ErrIncludeCycle, cycle.Path[0].Span, strings.Join(names, " -> "))
		return
	}
	lib.DeclarationOrder = order
}

type resolver struct {
	ctx *Context
	ok  bool
}

// referrer is the element a reference appears in.
type referrer struct {
	name  string
	avail *availability.Availability
}

func (r *resolver) fail(def idlerrors.Def, ref *flat.Reference, args ...any) {
	r.ctx.Reporter.Fail(def, ref.Span, args...)
	r.ok = false
}

func (r *resolver) decl(d *flat.Decl) {
	from := referrer{name: d.Name, avail: &d.Availability}
	for _, attr := range d.Attributes {
		r.attribute(attr, &d.Availability, d.Name)
	}
	r.typeCtor(d.TypeCtor, from)
	r.constant(d.Value, from)
	for _, m := range d.Members {
		mf := referrer{name: d.Name + "." + m.Name, avail: &m.Availability}
		for _, attr := range m.Attributes {
			r.attribute(attr, &m.Availability, mf.name)
		}
		r.typeCtor(m.TypeCtor, mf)
		r.constant(m.Value, mf)
		r.constant(m.Default, mf)
	}
	for _, comp := range d.Composes {
		r.reference(&comp.Reference, referrer{name: d.Name, avail: &comp.Availability})
	}
	for _, m := range d.Methods {
		mf := referrer{name: d.Name + "." + m.Name, avail: &m.Availability}
		for _, attr := range m.Attributes {
			r.attribute(attr, &m.Availability, mf.name)
		}
		r.typeCtor(m.Request, mf)
		r.typeCtor(m.Response, mf)
		r.typeCtor(m.Error, mf)
	}
}

func (r *resolver) attribute(attr *flat.Attribute, avail *availability.Availability, name string) {
	if attr.Name == attrschema.Available {
		return
	}
	for _, arg := range attr.Args {
		r.constant(arg.Value, referrer{name: name, avail: avail})
	}
}

// typeCtor resolves the layout, element and protocol of tc. Handle subtypes
// name a member of the resource's subtype enum and are bound when the type
// is compiled.
func (r *resolver) typeCtor(tc *flat.TypeCtor, from referrer) {
	if tc == nil {
		return
	}
	r.reference(&tc.Layout, from)
	r.typeCtor(tc.Element, from)
	if tc.Protocol != nil {
		r.reference(tc.Protocol, from)
	}
	r.constant(tc.Size, from)
}

func (r *resolver) constant(c *flat.Constant, from referrer) {
	if c == nil {
		return
	}
	switch c.Kind {
	case flat.ConstantIdentifier:
		r.reference(&c.Reference, from)
	case flat.ConstantBinaryOr:
		r.constant(c.Left, from)
		r.constant(c.Right, from)
	}
}

func (r *resolver) reference(ref *flat.Reference, from referrer) {
	if ref.IsResolved() {
		return
	}
	lib := r.ctx.Library
	name := ref.Name
	var target *flat.Library
	switch name.Library {
	case "", lib.Name:
		target = lib
	case flat.RootLibraryName:
		target = r.ctx.Libraries.Root()
	default:
		dep, ok := lib.Dependencies.Lookup(name.Library)
		if !ok {
			r.fail(idlerrors.ErrNameNotFound, ref, name)
			return
		}
		target = dep
	}
	candidates := target.Declarations.Lookup(name.Decl)
	if len(candidates) == 0 && name.Library == "" {
		target = r.ctx.Libraries.Root()
		candidates = target.Declarations.Lookup(name.Decl)
	}
	if len(candidates) == 0 {
		r.fail(idlerrors.ErrNameNotFound, ref, name)
		return
	}
	if name.Member != "" && !hasMember(candidates, name.Member) {
		r.fail(idlerrors.ErrUnknownMember, ref, name.Decl, name.Member)
		return
	}
	ref.Resolve(flat.Target{Library: target, Candidates: candidates, Member: name.Member})
	r.checkVersions(ref, from)
}

func hasMember(candidates []*flat.Decl, member string) bool {
	for _, d := range candidates {
		if d.Kind != flat.KindBits && d.Kind != flat.KindEnum {
			continue
		}
		if d.Member(member, version.NegInf) != nil {
			return true
		}
	}
	return false
}

// checkVersions requires the target to exist at every version where the
// referrer does, and warns about references into deprecation. Targets on
// another platform have an unrelated timeline and are not checked.
func (r *resolver) checkVersions(ref *flat.Reference, from referrer) {
	target := ref.Target()
	lib := r.ctx.Library
	if target.Library.Root || target.Library.Platform != lib.Platform || !lib.IsVersioned() {
		return
	}
	if from.avail.State() != availability.StateInherited {
		return
	}
	points := slices.Clone(from.avail.Points())
	for _, d := range target.Candidates {
		if d.Availability.State() == availability.StateInherited {
			points = append(points, d.Availability.Points()...)
		}
	}
	slices.SortFunc(points, version.Version.Compare)
	points = slices.Compact(points)
	set := from.avail.Set()
	warned := false
	for _, v := range points {
		if !set.Contains(v) {
			continue
		}
		d, ok := target.At(v)
		if !ok {
			r.fail(idlerrors.ErrNameNotFoundInVersionRange, ref, ref.Name, v, lib.Platform)
			return
		}
		if !warned && deprecatedAt(&d.Availability, v) && !deprecatedAt(from.avail, v) {
			warned = true
			r.ctx.Reporter.Warn(idlerrors.WarnDeprecatedReference, ref.Span, from.name, ref.Name)
		}
	}
}

func deprecatedAt(a *availability.Availability, v version.Version) bool {
	deprecated, ok := a.Deprecated()
	return ok && !v.Less(deprecated)
}

// includes returns the local declarations d contains by value. Optional
// types, boxes, vectors, strings, handles and transport ends break the
// edge; they are stored out of line or are not layouts.
func includes(lib *flat.Library, d *flat.Decl) []*flat.Decl {
	var out []*flat.Decl
	add := func(ref *flat.Reference) {
		if !ref.IsResolved() {
			return
		}
		t := ref.Target()
		if t.Library != lib {
			return
		}
		for _, c := range t.Candidates {
			if t.IsMember() && c == d {
				continue
			}
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	var typeCtor func(tc *flat.TypeCtor)
	typeCtor = func(tc *flat.TypeCtor) {
		if tc == nil || tc.Optional || !tc.Layout.IsResolved() {
			return
		}
		layout := tc.Layout.Target().Decl()
		if layout.Kind == flat.KindBuiltin {
			if layout.Builtin == flat.BuiltinArray {
				typeCtor(tc.Element)
			}
			return
		}
		if layout.Kind == flat.KindResource || layout.Kind == flat.KindProtocol {
			return
		}
		add(&tc.Layout)
	}
	var constant func(c *flat.Constant)
	constant = func(c *flat.Constant) {
		if c == nil {
			return
		}
		switch c.Kind {
		case flat.ConstantIdentifier:
			add(&c.Reference)
		case flat.ConstantBinaryOr:
			constant(c.Left)
			constant(c.Right)
		}
	}
	typeCtor(d.TypeCtor)
	constant(d.Value)
	for _, m := range d.Members {
		typeCtor(m.TypeCtor)
		constant(m.Value)
		constant(m.Default)
	}
	for _, comp := range d.Composes {
		add(&comp.Reference)
	}
	for _, m := range d.Methods {
		for _, tc := range m.Payloads() {
			typeCtor(tc)
		}
		typeCtor(m.Error)
	}
	return out
}
