package compiler

import (
	"regexp"
	"strings"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/attrschema"
	"github.com/jacoelho/idlc/internal/availability"
	"github.com/jacoelho/idlc/internal/flat"
	"github.com/jacoelho/idlc/internal/version"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z]([A-Za-z0-9_]*[A-Za-z0-9])?$`)

type consumer struct {
	ctx  *Context
	file *ast.File
}

func consumeFile(ctx *Context, file *ast.File) {
	lib := ctx.Library
	r := ctx.Reporter
	if !validLibraryName(file.Library) {
		r.Fail(idlerrors.ErrInvalidLibraryName, file.LibrarySpan, file.Library)
		return
	}
	switch lib.Name {
	case "":
		lib.Name = file.Library
		lib.NameSpan = file.LibrarySpan
	case file.Library:
	default:
		r.Fail(idlerrors.ErrFilesDisagreeOnLibraryName, file.LibrarySpan, file.Library, lib.Name)
		return
	}
	lib.Files = append(lib.Files, file.Path)

	c := consumer{ctx: ctx, file: file}
	for _, attr := range c.attributes(file.Attributes) {
		if lib.Attributes.Get(attr.Name) != nil {
			r.Fail(idlerrors.ErrDuplicateAttribute, attr.Span, attr.Name)
			continue
		}
		lib.Attributes = append(lib.Attributes, attr)
	}
	for i := range file.Using {
		c.using(&file.Using[i])
	}
	for i := range file.Decls {
		c.decl(&file.Decls[i])
	}
}

func validLibraryName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range ast.SplitLibraryName(name) {
		if !version.IsValidLibraryComponent(part) {
			return false
		}
	}
	return true
}

// upperCamel turns "get_value" into "GetValue".
func upperCamel(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

func (c *consumer) fail(def idlerrors.Def, span ast.Span, args ...any) {
	c.ctx.Reporter.Fail(def, span, args...)
}

func (c *consumer) using(u *ast.Using) {
	dep := c.ctx.Libraries.Lookup(u.Library)
	if dep == nil {
		c.fail(idlerrors.ErrUnknownLibrary, u.Span, u.Library)
		return
	}
	switch c.ctx.Library.Dependencies.Register(c.file.Path, dep, u.Alias, u.Span) {
	case flat.RegisterDuplicate:
		c.fail(idlerrors.ErrDuplicateLibraryImport, u.Span, u.Library)
	case flat.RegisterCollision:
		name := u.Alias
		if name == "" {
			name = u.Library
		}
		c.fail(idlerrors.ErrConflictingLibraryImportAlias, u.Span, name)
	}
}

func (c *consumer) attributes(raw []ast.Attribute) flat.Attributes {
	var out flat.Attributes
	for i := range raw {
		a := &raw[i]
		if out.Get(a.Name) != nil {
			c.fail(idlerrors.ErrDuplicateAttribute, a.Span, a.Name)
			continue
		}
		attr := &flat.Attribute{Name: a.Name, Span: a.Span}
		for j := range a.Args {
			arg := &a.Args[j]
			name := arg.Name
			if name == "" {
				name = flat.DefaultArgName
			}
			if attr.Arg(name) != nil {
				c.fail(idlerrors.ErrDuplicateAttributeArg, arg.Span, a.Name, name)
				continue
			}
			attr.Args = append(attr.Args, &flat.AttributeArg{Name: name, Value: c.constant(&arg.Value), Span: arg.Span})
		}
		out = append(out, attr)
	}
	return out
}

func (c *consumer) constant(raw *ast.Constant) *flat.Constant {
	if raw == nil {
		return nil
	}
	switch raw.Kind {
	case ast.ConstantIdentifier:
		if raw.Identifier == "" {
			c.fail(idlerrors.ErrInvalidName, raw.Span, raw.Identifier)
		}
		return &flat.Constant{Kind: flat.ConstantIdentifier, Reference: flat.NewReference(raw.Identifier, raw.Span), Span: raw.Span}
	case ast.ConstantBinary:
		if raw.Op != "|" {
			c.fail(idlerrors.ErrInvalidBinaryOperator, raw.Span, raw.Op)
		}
		if raw.Left == nil || raw.Right == nil {
			c.fail(idlerrors.ErrMissingPayload, raw.Span, "binary constant", "left and right operand")
			return &flat.Constant{Kind: flat.ConstantLiteral, Literal: ast.LiteralNumeric, Text: "0", Span: raw.Span}
		}
		return &flat.Constant{Kind: flat.ConstantBinaryOr, Left: c.constant(raw.Left), Right: c.constant(raw.Right), Span: raw.Span}
	default:
		switch raw.LiteralKind {
		case ast.LiteralString, ast.LiteralNumeric, ast.LiteralBool:
		default:
			c.fail(idlerrors.ErrExpectedValue, raw.Span, raw.Value)
		}
		return &flat.Constant{Kind: flat.ConstantLiteral, Literal: raw.LiteralKind, Text: raw.Value, Span: raw.Span}
	}
}

// typeCtor converts a raw type constructor. Inline layouts become
// declarations named after naming, owned by owner's availability.
func (c *consumer) typeCtor(raw *ast.TypeCtor, naming string, owner *availability.Availability) *flat.TypeCtor {
	if raw == nil {
		return nil
	}
	tc := &flat.TypeCtor{Optional: raw.Optional, Span: raw.Span}
	switch {
	case raw.Inline != nil:
		decl := c.anonymous(raw.Inline, naming, owner)
		tc.Layout = flat.NewReference(decl.Name, raw.Span)
	case raw.Layout == "":
		c.fail(idlerrors.ErrExpectedType, raw.Span, "<empty>")
	default:
		tc.Layout = flat.NewReference(raw.Layout, raw.Span)
	}
	tc.Element = c.typeCtor(raw.Element, naming, owner)
	tc.Size = c.constant(raw.Size)
	if raw.Protocol != "" {
		ref := flat.NewReference(raw.Protocol, raw.Span)
		tc.Protocol = &ref
	}
	tc.Subtype = c.constant(raw.Subtype)
	return tc
}

func (c *consumer) anonymous(raw *ast.Decl, naming string, owner *availability.Availability) *flat.Decl {
	kind, ok := flat.KindOf(raw.Kind)
	if !ok || !(kind.IsLayout() || kind == flat.KindBits || kind == flat.KindEnum) {
		c.fail(idlerrors.ErrUnexpectedDeclKind, raw.Span, raw.Kind)
		kind = flat.KindStruct
	}
	name := naming
	if raw.Name != "" {
		name = raw.Name
	}
	attrs := c.attributes(raw.Attributes)
	if gen := attrs.Get(attrschema.GeneratedName); gen != nil {
		if arg := gen.Arg(flat.DefaultArgName); arg != nil && arg.Value.Kind == flat.ConstantLiteral {
			name = arg.Value.Text
		}
	}
	d := c.newDecl(raw, kind, name, attrs)
	d.Owner = owner
	return d
}

func (c *consumer) decl(raw *ast.Decl) {
	kind, ok := flat.KindOf(raw.Kind)
	if !ok {
		c.fail(idlerrors.ErrUnexpectedDeclKind, raw.Span, raw.Kind)
		return
	}
	if !identifierPattern.MatchString(raw.Name) {
		c.fail(idlerrors.ErrInvalidName, raw.Span, raw.Name)
		return
	}
	c.newDecl(raw, kind, raw.Name, c.attributes(raw.Attributes))
}

func (c *consumer) newDecl(raw *ast.Decl, kind flat.Kind, name string, attrs flat.Attributes) *flat.Decl {
	lib := c.ctx.Library
	d := &flat.Decl{
		Kind:       kind,
		Name:       name,
		Library:    lib,
		Attributes: attrs,
		Span:       raw.Span,
		Resource:   raw.Resource,
	}
	if raw.Strict {
		d.Strictness = flat.Strict
	}
	openness, ok := flat.ParseOpenness(raw.Openness)
	if !ok || (raw.Openness != "" && kind != flat.KindProtocol) {
		c.fail(idlerrors.ErrInvalidModifier, raw.Span, raw.Openness, name)
	}
	d.Openness = openness
	c.initAvailability(&d.Availability, d.Attributes)
	lib.Declarations.Insert(d)

	switch kind {
	case flat.KindAlias, flat.KindNewType, flat.KindConst:
		d.TypeCtor = c.typeCtor(raw.Type, name, &d.Availability)
		if d.TypeCtor == nil {
			c.fail(idlerrors.ErrMissingPayload, raw.Span, name, "type")
		}
		if kind == flat.KindConst {
			d.Value = c.constant(raw.Value)
			if d.Value == nil {
				c.fail(idlerrors.ErrMissingPayload, raw.Span, name, "value")
			}
		}
	case flat.KindBits, flat.KindEnum:
		d.TypeCtor = c.typeCtor(raw.Type, name, &d.Availability)
		for i := range raw.Members {
			c.member(d, &raw.Members[i], false, true)
		}
	case flat.KindResource:
		d.TypeCtor = c.typeCtor(raw.Type, name, &d.Availability)
		for i := range raw.Properties {
			c.member(d, &raw.Properties[i], true, false)
		}
	case flat.KindStruct, flat.KindTable, flat.KindUnion, flat.KindOverlay, flat.KindService:
		for i := range raw.Members {
			c.member(d, &raw.Members[i], true, false)
		}
	case flat.KindProtocol:
		for i := range raw.Compose {
			c.compose(d, &raw.Compose[i])
		}
		for i := range raw.Methods {
			c.method(d, &raw.Methods[i])
		}
	}
	return d
}

func (c *consumer) member(d *flat.Decl, raw *ast.Member, needsType, needsValue bool) {
	if !identifierPattern.MatchString(raw.Name) {
		c.fail(idlerrors.ErrInvalidName, raw.Span, raw.Name)
		return
	}
	m := &flat.Member{
		Name:       raw.Name,
		Span:       raw.Span,
		Ordinal:    raw.Ordinal,
		Attributes: c.attributes(raw.Attributes),
	}
	c.initAvailability(&m.Availability, m.Attributes)
	m.TypeCtor = c.typeCtor(raw.Type, upperCamel(raw.Name), &m.Availability)
	m.Value = c.constant(raw.Value)
	m.Default = c.constant(raw.Default)
	if needsType && m.TypeCtor == nil {
		c.fail(idlerrors.ErrMissingPayload, raw.Span, d.Name+"."+raw.Name, "type")
	}
	if needsValue && m.Value == nil {
		c.fail(idlerrors.ErrMissingPayload, raw.Span, d.Name+"."+raw.Name, "value")
	}
	d.Members = append(d.Members, m)
}

func (c *consumer) compose(d *flat.Decl, raw *ast.Compose) {
	comp := &flat.Compose{
		Reference:  flat.NewReference(raw.Protocol, raw.Span),
		Attributes: c.attributes(raw.Attributes),
		Span:       raw.Span,
	}
	c.initAvailability(&comp.Availability, comp.Attributes)
	d.Composes = append(d.Composes, comp)
}

func (c *consumer) method(d *flat.Decl, raw *ast.Method) {
	if !identifierPattern.MatchString(raw.Name) {
		c.fail(idlerrors.ErrInvalidName, raw.Span, raw.Name)
		return
	}
	m := &flat.Method{
		Name:        raw.Name,
		Span:        raw.Span,
		Attributes:  c.attributes(raw.Attributes),
		HasRequest:  raw.HasRequest,
		HasResponse: raw.HasResponse,
	}
	if raw.Strict {
		m.Strictness = flat.Strict
	}
	c.initAvailability(&m.Availability, m.Attributes)
	base := d.Name + upperCamel(raw.Name)
	if raw.HasRequest {
		m.Request = c.typeCtor(raw.Request, base+"Request", &m.Availability)
	}
	if raw.HasResponse {
		suffix := "Response"
		if !raw.HasRequest {
			suffix = "Request"
		}
		m.Response = c.typeCtor(raw.Response, base+suffix, &m.Availability)
	}
	if raw.Error != nil {
		if !raw.HasRequest || !raw.HasResponse {
			c.fail(idlerrors.ErrInvalidErrorType, raw.Span, d.Name+"."+raw.Name)
		}
		m.Error = c.typeCtor(raw.Error, base+"Error", &m.Availability)
	}
	if m.HasRequest && m.HasResponse && (m.Error != nil || m.Strictness == flat.Flexible) {
		c.resultUnion(d, m)
	}
	d.Methods = append(d.Methods, m)
}

// resultUnion synthesizes Protocol_Method_Result with a success variant, an
// optional application error and, for flexible methods, a framework error.
func (c *consumer) resultUnion(d *flat.Decl, m *flat.Method) {
	lib := c.ctx.Library
	prefix := d.Name + "_" + upperCamel(m.Name)
	generated := func(kind flat.Kind, name string) *flat.Decl {
		decl := &flat.Decl{
			Kind:       kind,
			Name:       name,
			Library:    lib,
			Span:       c.ctx.Generated.Add(lib.Name + "/" + name),
			Strictness: flat.Strict,
			Generated:  true,
			Owner:      &m.Availability,
		}
		mustInit(&decl.Availability)
		lib.Declarations.Insert(decl)
		return decl
	}
	union := generated(flat.KindUnion, prefix+"_Result")

	response := m.Response
	if response == nil {
		empty := generated(flat.KindStruct, prefix+"_Response")
		response = &flat.TypeCtor{Layout: flat.ResolvedReference(empty, empty.Span), Span: empty.Span}
	}
	variant := func(name string, ordinal uint64, tc *flat.TypeCtor) {
		member := &flat.Member{Name: name, Ordinal: ordinal, TypeCtor: tc, Span: union.Span}
		mustInit(&member.Availability)
		union.Members = append(union.Members, member)
	}
	variant("response", 1, response)
	if m.Error != nil {
		variant("err", 2, m.Error)
	}
	if m.Strictness == flat.Flexible {
		frameworkErr := c.ctx.Libraries.Root().Declarations.Lookup("framework_err")[0]
		variant("framework_err", 3, &flat.TypeCtor{Layout: flat.ResolvedReference(frameworkErr, union.Span), Span: union.Span})
	}
	m.Result = &flat.TypeCtor{Layout: flat.ResolvedReference(union, union.Span), Span: union.Span}
}

func mustInit(a *availability.Availability) {
	if err := a.Init(availability.InitArgs{}); err != nil {
		panic(err)
	}
}

func (c *consumer) initAvailability(a *availability.Availability, attrs flat.Attributes) {
	attr := attrs.Get(attrschema.Available)
	if attr == nil {
		mustInit(a)
		return
	}
	args, ok := parseAvailable(c.ctx, attr, false)
	if !ok {
		a.Fail()
		return
	}
	if err := a.Init(args.init); err != nil {
		c.fail(idlerrors.ErrInvalidAvailabilityOrder, attr.Span, err.Error())
		return
	}
	if args.hasLegacy {
		c.ctx.legacy[a] = legacyArg{value: args.legacy, span: args.legacySpan}
	}
}
