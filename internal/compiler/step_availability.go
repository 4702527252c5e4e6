package compiler

import (
	"fmt"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/attrschema"
	"github.com/jacoelho/idlc/internal/availability"
	"github.com/jacoelho/idlc/internal/flat"
	"github.com/jacoelho/idlc/internal/version"
)

type parsedAvailable struct {
	init         availability.InitArgs
	platform     string
	platformSpan ast.Span
	hasAdded     bool
	hasLegacy    bool
	legacy       bool
	legacySpan   ast.Span
}

// parseAvailable reads the arguments of an @available attribute.
func parseAvailable(ctx *Context, attr *flat.Attribute, onLibrary bool) (parsedAvailable, bool) {
	r := ctx.Reporter
	var p parsedAvailable
	if len(attr.Args) == 0 {
		return p, r.Fail(idlerrors.ErrAvailableMissingArguments, attr.Span)
	}
	ok := true
	var removed, replaced bool
	for _, arg := range attr.Args {
		switch arg.Name {
		case "platform":
			if !onLibrary {
				ok = r.Fail(idlerrors.ErrPlatformNotOnLibrary, arg.Span)
				continue
			}
			if !isLiteral(arg.Value, ast.LiteralString) {
				ok = r.Fail(idlerrors.ErrInvalidAvailableArgumentType, arg.Span, arg.Name, "string")
				continue
			}
			p.platform = arg.Value.Text
			p.platformSpan = arg.Span
		case "added", "deprecated", "removed", "replaced":
			v, good := versionArg(ctx, arg)
			if !good {
				ok = false
				continue
			}
			switch arg.Name {
			case "added":
				p.init.Added = v
				p.hasAdded = true
			case "deprecated":
				p.init.Deprecated = v
			case "removed":
				p.init.Removed = v
				removed = true
			case "replaced":
				p.init.Removed = v
				p.init.Replaced = true
				replaced = true
			}
		case "legacy":
			if !isLiteral(arg.Value, ast.LiteralBool) {
				ok = r.Fail(idlerrors.ErrInvalidAvailableArgumentType, arg.Span, arg.Name, "bool")
				continue
			}
			p.hasLegacy = true
			p.legacy = arg.Value.Text == "true"
			p.legacySpan = arg.Span
		case "note":
			if !isLiteral(arg.Value, ast.LiteralString) {
				ok = r.Fail(idlerrors.ErrInvalidAvailableArgumentType, arg.Span, arg.Name, "string")
			}
		default:
			ok = r.Fail(idlerrors.ErrUnknownAvailableArgument, arg.Span, arg.Name)
		}
	}
	if removed && replaced {
		ok = r.Fail(idlerrors.ErrRemovedAndReplaced, attr.Span)
	}
	if p.hasLegacy && !removed && !replaced {
		ok = r.Fail(idlerrors.ErrLegacyWithoutRemoval, attr.Span)
	}
	return p, ok
}

func isLiteral(c *flat.Constant, kind ast.LiteralKind) bool {
	return c.Kind == flat.ConstantLiteral && c.Literal == kind
}

// versionArg accepts a numeric literal or a bare NEXT/HEAD identifier.
func versionArg(ctx *Context, arg *flat.AttributeArg) (version.Version, bool) {
	var text string
	switch {
	case isLiteral(arg.Value, ast.LiteralNumeric):
		text = arg.Value.Text
	case arg.Value.Kind == flat.ConstantIdentifier && arg.Value.Reference.Name.Library == "" && arg.Value.Reference.Name.Member == "":
		text = arg.Value.Reference.Name.Decl
	default:
		return version.Version{}, ctx.Reporter.Fail(idlerrors.ErrInvalidAvailableArgumentType, arg.Span, arg.Name, "version")
	}
	v, ok := version.Parse(text)
	if !ok || v == version.Legacy {
		return version.Version{}, ctx.Reporter.Fail(idlerrors.ErrInvalidAvailabilityVersion, arg.Span, arg.Name, text)
	}
	return v, true
}

// availabilityStep initializes the library availability, then makes every
// element inherit from its parent and checks that same-named elements never
// coexist.
type availabilityStep struct{}

func (availabilityStep) Name() string { return "availability" }

func (availabilityStep) Run(ctx *Context) {
	lib := ctx.Library
	if !compileLibraryAvailability(ctx) {
		return
	}
	a := availabilityInheritance{ctx: ctx}
	for _, d := range lib.Declarations.All() {
		parent := &lib.Availability
		if d.Owner != nil {
			if d.Owner.State() != availability.StateInherited {
				a.failed = true
				continue
			}
			parent = d.Owner
		}
		if !a.inherit(&d.Availability, parent, d.Attributes, d.Span, d.Name) {
			continue
		}
		for _, m := range d.Members {
			a.inherit(&m.Availability, &d.Availability, m.Attributes, m.Span, m.Name)
		}
		for _, m := range d.Methods {
			a.inherit(&m.Availability, &d.Availability, m.Attributes, m.Span, m.Name)
		}
		for _, comp := range d.Composes {
			a.inherit(&comp.Availability, &d.Availability, comp.Attributes, comp.Span, comp.Reference.Name.String())
		}
	}
	if a.failed {
		return
	}
	checkNameOverlaps(ctx)
}

func compileLibraryAvailability(ctx *Context) bool {
	lib := ctx.Library
	r := ctx.Reporter
	parent := availability.Unbounded()
	attr := lib.Attributes.Get(attrschema.Available)
	if attr == nil {
		lib.Platform = version.Unversioned()
		if err := lib.Availability.Init(availability.InitArgs{Added: version.Head}); err != nil {
			panic(err)
		}
		lib.Availability.Inherit(&parent)
		ok := true
		for _, d := range lib.Declarations.All() {
			if available := d.Attributes.Get(attrschema.Available); available != nil {
				ok = r.Fail(idlerrors.ErrMissingLibraryAvailability, available.Span, d.Name, lib.Name)
			}
		}
		return ok
	}
	p, ok := parseAvailable(ctx, attr, true)
	if !ok {
		lib.Availability.Fail()
		return false
	}
	if !p.hasAdded {
		lib.Availability.Fail()
		return r.Fail(idlerrors.ErrLibraryAvailabilityMissingAdded, attr.Span)
	}
	platformName := p.platform
	span := p.platformSpan
	if platformName == "" {
		platformName = ast.SplitLibraryName(lib.Name)[0]
		span = attr.Span
	}
	platform, valid := version.ParsePlatform(platformName)
	if !valid || platform.IsUnversioned() {
		lib.Availability.Fail()
		return r.Fail(idlerrors.ErrInvalidPlatform, span, platformName)
	}
	lib.Platform = platform
	if err := lib.Availability.Init(p.init); err != nil {
		return r.Fail(idlerrors.ErrInvalidAvailabilityOrder, attr.Span, err.Error())
	}
	if result := lib.Availability.Inherit(&parent); !result.OK() {
		panic(fmt.Sprintf("compiler: library availability cannot conflict with unbounded parent: %+v", result))
	}
	return true
}

type availabilityInheritance struct {
	ctx    *Context
	failed bool
}

var statusText = map[availability.Status]string{
	availability.StatusBeforeParentAdded:     "before the parent was added",
	availability.StatusAfterParentRemoved:    "after the parent was removed",
	availability.StatusAfterParentDeprecated: "after the parent was deprecated",
}

func (a *availabilityInheritance) inherit(child, parent *availability.Availability, attrs flat.Attributes, span ast.Span, name string) bool {
	if child.State() != availability.StateInitialized || parent.State() != availability.StateInherited {
		a.failed = true
		return false
	}
	// Copy the explicit arguments before Inherit fills them in.
	added, _ := child.Added()
	deprecated, _ := child.Deprecated()
	removed, _ := child.Removed()
	result := child.Inherit(parent)
	if attr := attrs.Get(attrschema.Available); attr != nil {
		span = attr.Span
	}
	if !result.OK() {
		a.failed = true
		parentAdded, _ := parent.Added()
		parentDeprecated, _ := parent.Deprecated()
		parentRemoved, _ := parent.Removed()
		report := func(field string, v version.Version, status availability.Status) {
			if status == availability.StatusOK {
				return
			}
			var ref version.Version
			switch status {
			case availability.StatusBeforeParentAdded:
				ref = parentAdded
			case availability.StatusAfterParentRemoved:
				ref = parentRemoved
			case availability.StatusAfterParentDeprecated:
				ref = parentDeprecated
			}
			a.ctx.Reporter.Fail(idlerrors.ErrAvailabilityConflictsWithParent, span, field, v, statusText[status], ref)
		}
		report("added", added, result.Added)
		report("deprecated", deprecated, result.Deprecated)
		report("removed", removed, result.Removed)
		return false
	}
	if arg, ok := a.ctx.legacy[child]; ok && arg.value {
		childRemoved, _ := child.Removed()
		parentRemoved, _ := parent.Removed()
		if childRemoved == parentRemoved && parent.Legacy() == availability.LegacyNo {
			a.failed = true
			return a.ctx.Reporter.Fail(idlerrors.ErrLegacyConflictsWithParent, arg.span, name, parentRemoved)
		}
		child.SetLegacy()
	}
	return true
}

// checkNameOverlaps reports same-named declarations, and same-named members
// of one declaration, whose version sets intersect.
func checkNameOverlaps(ctx *Context) {
	lib := ctx.Library
	seen := make(map[string]bool)
	for _, d := range lib.Declarations.All() {
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		decls := lib.Declarations.Lookup(d.Name)
		for i := 1; i < len(decls); i++ {
			for j := 0; j < i; j++ {
				if at, overlap := overlapAt(&decls[j].Availability, &decls[i].Availability); overlap {
					ctx.Reporter.Fail(idlerrors.ErrNameOverlap, decls[i].Span, decls[i].Kind, decls[i].Name, at)
					break
				}
			}
		}
	}
	for _, d := range lib.Declarations.All() {
		checkMemberOverlaps(ctx, d)
	}
}

func checkMemberOverlaps(ctx *Context, d *flat.Decl) {
	type element struct {
		name  string
		avail *availability.Availability
		span  ast.Span
	}
	var elements []element
	for _, m := range d.Members {
		elements = append(elements, element{m.Name, &m.Availability, m.Span})
	}
	for _, m := range d.Methods {
		elements = append(elements, element{m.Name, &m.Availability, m.Span})
	}
	for i := 1; i < len(elements); i++ {
		for j := 0; j < i; j++ {
			if elements[i].name != elements[j].name {
				continue
			}
			if at, overlap := overlapAt(elements[j].avail, elements[i].avail); overlap {
				ctx.Reporter.Fail(idlerrors.ErrNameOverlap, elements[i].span, "member", d.Name+"."+elements[i].name, at)
				break
			}
		}
	}
}

func overlapAt(a, b *availability.Availability) (version.Version, bool) {
	set, ok := version.IntersectSets(a.Set(), b.Set())
	if !ok {
		return version.Version{}, false
	}
	first, _, _ := set.Ranges()
	return first.Lo(), true
}
