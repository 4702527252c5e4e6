package compiler

import (
	"slices"
	"strings"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/attrschema"
	"github.com/jacoelho/idlc/internal/availability"
	"github.com/jacoelho/idlc/internal/flat"
	"github.com/jacoelho/idlc/internal/version"
)

// replacementStep checks that replaced=N is matched by a same-named element
// added at N, and that removed=N is not.
type replacementStep struct{}

func (replacementStep) Name() string { return "replacement" }

func (replacementStep) Run(ctx *Context) {
	lib := ctx.Library
	if !lib.IsVersioned() {
		return
	}
	for _, d := range lib.Declarations.All() {
		if d.Generated {
			continue
		}
		var siblings []*availability.Availability
		for _, other := range lib.Declarations.Lookup(d.Name) {
			if other != d {
				siblings = append(siblings, &other.Availability)
			}
		}
		checkReplacement(ctx, d.Name, &d.Availability, availableSpan(d.Attributes, d.Span), siblings)

		for _, m := range d.Members {
			siblings = siblings[:0]
			for _, other := range d.Members {
				if other != m && other.Name == m.Name {
					siblings = append(siblings, &other.Availability)
				}
			}
			checkReplacement(ctx, d.Name+"."+m.Name, &m.Availability, availableSpan(m.Attributes, m.Span), siblings)
		}
		for _, m := range d.Methods {
			siblings = siblings[:0]
			for _, other := range d.Methods {
				if other != m && other.Name == m.Name {
					siblings = append(siblings, &other.Availability)
				}
			}
			checkReplacement(ctx, d.Name+"."+m.Name, &m.Availability, availableSpan(m.Attributes, m.Span), siblings)
		}
	}
}

func availableSpan(attrs flat.Attributes, fallback ast.Span) ast.Span {
	if attr := attrs.Get(attrschema.Available); attr != nil {
		return attr.Span
	}
	return fallback
}

func checkReplacement(ctx *Context, name string, a *availability.Availability, span ast.Span, siblings []*availability.Availability) {
	removed, ok := a.Removed()
	if !ok || removed == version.PosInf {
		return
	}
	replaced := slices.ContainsFunc(siblings, func(s *availability.Availability) bool {
		added, _ := s.Added()
		return added == removed
	})
	switch a.Ending() {
	case availability.EndingReplaced:
		if !replaced {
			ctx.Reporter.Fail(idlerrors.ErrReplacedWithoutReplacement, span, name, removed, removed)
		}
	case availability.EndingRemoved:
		if replaced {
			ctx.Reporter.Fail(idlerrors.ErrRemovedWithReplacement, span, name, removed, removed)
		}
	}
}

// resourcenessStep requires layouts that may carry handles to be declared
// resource. Synthesized result unions take the resourceness of their
// variants instead.
type resourcenessStep struct{}

func (resourcenessStep) Name() string { return "resourceness" }

func (resourcenessStep) Run(ctx *Context) {
	for _, d := range ctx.Library.Declarations.All() {
		if !d.Kind.IsLayout() || d.Resource {
			continue
		}
		for _, m := range d.Members {
			if m.TypeCtor == nil || m.TypeCtor.Type == nil {
				continue
			}
			via := resourceVia(m.TypeCtor.Type)
			if via == "" {
				continue
			}
			if d.Generated {
				d.Resource = true
				break
			}
			ctx.Reporter.Fail(idlerrors.ErrTypeMustBeResource, m.Span, d.Name, via)
		}
	}
}

// resourceVia names the part of t that makes it a resource type, or returns
// the empty string.
func resourceVia(t *flat.Type) string {
	switch t.Kind {
	case flat.TypeHandle, flat.TypeTransportSide:
		return t.Name()
	case flat.TypeVector, flat.TypeArray, flat.TypeBox:
		return resourceVia(t.Element)
	case flat.TypeIdentifier:
		d := t.Decl
		switch {
		case d.Kind.IsLayout() && d.Resource:
			return d.Name
		case d.Kind == flat.KindNewType && d.TypeCtor != nil && d.TypeCtor.Type != nil:
			if resourceVia(d.TypeCtor.Type) != "" {
				return d.Name
			}
		}
	}
	return ""
}

const (
	transportChannel = "Channel"
	transportDriver  = "Driver"
	transportBanjo   = "Banjo"
	transportSyscall = "Syscall"

	driverLibrary = "fdf"
)

// allowedHandles lists the handle transports each protocol transport may
// carry.
var allowedHandles = map[string][]string{
	transportChannel: {transportChannel},
	transportDriver:  {transportDriver, transportChannel},
	transportBanjo:   {transportBanjo, transportChannel},
	transportSyscall: {transportChannel},
}

// handleTransportStep checks that method payloads of a protocol only carry
// handles and protocol ends its transport supports.
type handleTransportStep struct{}

func (handleTransportStep) Name() string { return "handle-transport" }

func (handleTransportStep) Run(ctx *Context) {
	for _, p := range ctx.Library.Declarations.OfKind(flat.KindProtocol) {
		transport, span := protocolTransport(p)
		allowed, ok := allowedHandles[transport]
		if !ok {
			ctx.Reporter.Fail(idlerrors.ErrInvalidTransportType, span, transport, strings.Join(attrschema.Transports, ", "))
			continue
		}
		for _, m := range p.Methods {
			w := transportWalker{visited: make(map[*flat.Decl]bool)}
			payloads := m.Payloads()
			if m.Error != nil {
				payloads = append(payloads, m.Error)
			}
			for _, tc := range payloads {
				if tc.Type != nil {
					w.walk(tc.Type)
				}
			}
			for _, h := range w.found {
				if !slices.Contains(allowed, h.transport) {
					ctx.Reporter.Fail(idlerrors.ErrHandleUsedInIncompatibleTransport, m.Span, h.name, p.Name, transport)
				}
			}
		}
	}
}

func protocolTransport(p *flat.Decl) (string, ast.Span) {
	attr := p.Attributes.Get(attrschema.Transport)
	if attr == nil {
		return transportChannel, p.Span
	}
	if arg := attr.Arg(flat.DefaultArgName); arg != nil {
		return arg.Value.Text, arg.Span
	}
	return transportChannel, attr.Span
}

type foundHandle struct {
	name      string
	transport string
}

type transportWalker struct {
	visited map[*flat.Decl]bool
	found   []foundHandle
}

func (w *transportWalker) walk(t *flat.Type) {
	switch t.Kind {
	case flat.TypeHandle:
		transport := transportChannel
		if t.Decl.Library.Name == driverLibrary {
			transport = transportDriver
		}
		w.found = append(w.found, foundHandle{name: t.Name(), transport: transport})
	case flat.TypeTransportSide:
		transport, _ := protocolTransport(t.Decl)
		w.found = append(w.found, foundHandle{name: t.Name(), transport: transport})
	case flat.TypeVector, flat.TypeArray, flat.TypeBox:
		w.walk(t.Element)
	case flat.TypeIdentifier:
		d := t.Decl
		if w.visited[d] {
			return
		}
		w.visited[d] = true
		if d.Kind == flat.KindNewType && d.TypeCtor != nil && d.TypeCtor.Type != nil {
			w.walk(d.TypeCtor.Type)
			return
		}
		for _, m := range d.Members {
			if d.Kind.IsLayout() && m.TypeCtor != nil && m.TypeCtor.Type != nil {
				w.walk(m.TypeCtor.Type)
			}
		}
	}
}

// attributesStep validates every attribute against its schema and warns
// about likely misspellings of official attributes.
type attributesStep struct{}

func (attributesStep) Name() string { return "attributes" }

func (attributesStep) Run(ctx *Context) {
	lib := ctx.Library
	check := func(attrs flat.Attributes, place attrschema.Placement) {
		for _, attr := range attrs {
			schema := ctx.Libraries.RetrieveAttributeSchema(attr.Name)
			if schema.UserDefined {
				ctx.Libraries.WarnOnAttributeTypo(attr, ctx.Reporter)
				continue
			}
			for _, v := range schema.Validate(attr, place) {
				ctx.Reporter.Fail(v.Def, v.Span, v.Args...)
			}
		}
	}
	check(lib.Attributes, attrschema.PlaceLibrary)
	for _, d := range lib.Declarations.All() {
		check(d.Attributes, attrschema.DeclPlacement(d.Kind))
		for _, m := range d.Members {
			check(m.Attributes, attrschema.MemberPlacement(d.Kind))
		}
		for _, m := range d.Methods {
			check(m.Attributes, attrschema.PlaceMethod)
		}
		for _, comp := range d.Composes {
			check(comp.Attributes, attrschema.PlaceCompose)
		}
	}
}

// dependenciesStep reports imports no reference went through.
type dependenciesStep struct{}

func (dependenciesStep) Name() string { return "dependencies" }

func (dependenciesStep) Run(ctx *Context) {
	if ctx.AllowUnusedImports {
		return
	}
	for _, dep := range ctx.Library.Dependencies.Unused() {
		ctx.Reporter.Fail(idlerrors.ErrUnusedImport, dep.Span, ctx.Library.Name, dep.Library.Name)
	}
}
