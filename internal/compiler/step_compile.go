package compiler

import (
	"math/big"
	"strconv"
	"strings"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/attrschema"
	"github.com/jacoelho/idlc/internal/flat"
	"github.com/jacoelho/idlc/internal/version"
)

const maxTableOrdinal = 64

// compileStep typechecks the library: it compiles every type constructor and
// constant and enforces the per-kind rules of declarations.
type compileStep struct{}

func (compileStep) Name() string { return "compile" }

func (compileStep) Run(ctx *Context) {
	c := checker{ctx: ctx}
	c.attributes(ctx.Library.Attributes)
	for _, d := range ctx.Library.DeclarationOrder {
		c.decl(d)
	}
}

type checker struct {
	ctx *Context
}

func (c *checker) fail(def idlerrors.Def, span ast.Span, args ...any) bool {
	return c.ctx.Reporter.Fail(def, span, args...)
}

// ensure compiles a declaration of this library on first use. Declarations
// of other libraries were compiled before this one started.
func (c *checker) ensure(d *flat.Decl) {
	if d.Library == c.ctx.Library && !d.IsCompiled() && !d.IsCompiling() {
		c.decl(d)
	}
}

func (c *checker) decl(d *flat.Decl) {
	if !d.StartCompiling() {
		return
	}
	defer d.FinishCompiling()

	c.attributes(d.Attributes)
	for _, m := range d.Members {
		c.attributes(m.Attributes)
	}
	for _, m := range d.Methods {
		c.attributes(m.Attributes)
	}
	for _, comp := range d.Composes {
		c.attributes(comp.Attributes)
	}

	switch d.Kind {
	case flat.KindAlias, flat.KindNewType:
		c.typeOf(d.TypeCtor)
	case flat.KindConst:
		c.constDecl(d)
	case flat.KindBits, flat.KindEnum:
		c.bitsOrEnum(d)
	case flat.KindResource:
		c.resource(d)
	case flat.KindStruct:
		c.structDecl(d)
	case flat.KindTable, flat.KindUnion, flat.KindOverlay:
		c.envelopes(d)
	case flat.KindService:
		c.service(d)
	case flat.KindProtocol:
		c.protocol(d)
	}
}

// typeOf compiles tc once and caches the result on it.
func (c *checker) typeOf(tc *flat.TypeCtor) (*flat.Type, bool) {
	if tc == nil {
		return nil, false
	}
	if tc.Type != nil {
		return tc.Type, true
	}
	t, ok := c.compileType(tc)
	if ok {
		tc.Type = t
	}
	return t, ok
}

func (c *checker) compileType(tc *flat.TypeCtor) (*flat.Type, bool) {
	target := tc.Layout.Target()
	if target.IsMember() {
		return nil, c.fail(idlerrors.ErrExpectedType, tc.Span, tc.Layout.Name)
	}
	layout := target.Decl()
	if layout.Kind == flat.KindBuiltin {
		return c.builtinType(tc, layout)
	}
	if tc.Element != nil {
		return nil, c.fail(idlerrors.ErrUnexpectedElementType, tc.Span, layout.Name)
	}
	ts := c.ctx.Typespace
	switch layout.Kind {
	case flat.KindConst, flat.KindService, flat.KindProtocol:
		return nil, c.fail(idlerrors.ErrExpectedType, tc.Span, layout.Name)
	case flat.KindResource:
		return c.handleType(tc, layout)
	case flat.KindAlias:
		c.ensure(layout)
		if layout.TypeCtor == nil || layout.TypeCtor.Type == nil {
			return nil, false
		}
		under := layout.TypeCtor.Type
		if !tc.Optional || under.Optional {
			return under, true
		}
		if !canBeOptional(under) {
			return nil, c.fail(idlerrors.ErrCannotBeOptional, tc.Span, layout.Name)
		}
		optional := *under
		optional.Optional = true
		return ts.Intern(optional), true
	case flat.KindStruct, flat.KindTable, flat.KindBits, flat.KindEnum, flat.KindNewType:
		if tc.Optional {
			return nil, c.fail(idlerrors.ErrCannotBeOptional, tc.Span, layout.Name)
		}
	}
	return ts.Intern(flat.Type{Kind: flat.TypeIdentifier, Decl: layout, Optional: tc.Optional}), true
}

func canBeOptional(t *flat.Type) bool {
	switch t.Kind {
	case flat.TypeString, flat.TypeVector, flat.TypeHandle, flat.TypeTransportSide:
		return true
	case flat.TypeIdentifier:
		return t.Decl.Kind == flat.KindUnion || t.Decl.Kind == flat.KindOverlay
	default:
		return false
	}
}

func (c *checker) builtinType(tc *flat.TypeCtor, layout *flat.Decl) (*flat.Type, bool) {
	ts := c.ctx.Typespace
	name := layout.Name
	needsElement := func() (*flat.Type, bool) {
		if tc.Element == nil {
			return nil, c.fail(idlerrors.ErrMissingElementType, tc.Span, name)
		}
		return c.typeOf(tc.Element)
	}
	noElement := func() bool {
		if tc.Element != nil {
			return c.fail(idlerrors.ErrUnexpectedElementType, tc.Span, name)
		}
		return true
	}
	notOptional := func() bool {
		if tc.Optional {
			return c.fail(idlerrors.ErrCannotBeOptional, tc.Span, name)
		}
		return true
	}

	if p, ok := flat.PrimitiveOf(layout.Builtin); ok {
		if !noElement() || !notOptional() {
			return nil, false
		}
		return ts.Primitive(p), true
	}
	switch layout.Builtin {
	case flat.BuiltinString:
		if !noElement() {
			return nil, false
		}
		size, ok := c.size(tc.Size)
		if !ok {
			return nil, false
		}
		return ts.Intern(flat.Type{Kind: flat.TypeString, Size: size, Optional: tc.Optional}), true
	case flat.BuiltinVector:
		elem, ok := needsElement()
		if !ok {
			return nil, false
		}
		size, ok := c.size(tc.Size)
		if !ok {
			return nil, false
		}
		return ts.Intern(flat.Type{Kind: flat.TypeVector, Element: elem, Size: size, Optional: tc.Optional}), true
	case flat.BuiltinArray:
		elem, ok := needsElement()
		if !ok || !notOptional() {
			return nil, false
		}
		if tc.Size == nil {
			return nil, c.fail(idlerrors.ErrArrayMissingSize, tc.Span)
		}
		size, ok := c.size(tc.Size)
		if !ok {
			return nil, false
		}
		return ts.Intern(flat.Type{Kind: flat.TypeArray, Element: elem, Size: size}), true
	case flat.BuiltinBox:
		elem, ok := needsElement()
		if !ok || !notOptional() {
			return nil, false
		}
		if elem.Kind != flat.TypeIdentifier || elem.Decl.Kind != flat.KindStruct {
			return nil, c.fail(idlerrors.ErrBoxedTypeMustBeStruct, tc.Span, elem)
		}
		return ts.Intern(flat.Type{Kind: flat.TypeBox, Element: elem}), true
	case flat.BuiltinClientEnd, flat.BuiltinServerEnd:
		if !noElement() {
			return nil, false
		}
		if tc.Protocol == nil {
			return nil, c.fail(idlerrors.ErrMustBeAProtocol, tc.Span, name)
		}
		protocol := tc.Protocol.Target().Decl()
		if tc.Protocol.Target().IsMember() || protocol.Kind != flat.KindProtocol {
			return nil, c.fail(idlerrors.ErrMustBeAProtocol, tc.Span, tc.Protocol.Name)
		}
		role := flat.RoleClient
		if layout.Builtin == flat.BuiltinServerEnd {
			role = flat.RoleServer
		}
		return ts.Intern(flat.Type{Kind: flat.TypeTransportSide, Decl: protocol, Role: role, Optional: tc.Optional}), true
	case flat.BuiltinFrameworkErr:
		return ts.Intern(flat.Type{Kind: flat.TypeInternal}), true
	default:
		return nil, c.fail(idlerrors.ErrExpectedType, tc.Span, name)
	}
}

// size compiles a string, vector or array bound. A missing bound is
// Unbounded.
func (c *checker) size(k *flat.Constant) (uint32, bool) {
	if k == nil {
		return flat.Unbounded, true
	}
	if !c.constant(k, c.ctx.Typespace.Primitive(flat.PrimitiveUint32)) {
		return 0, false
	}
	n, _ := k.Value.Uint64()
	return uint32(n), true
}

// handleType compiles a resource reference with an optional subtype naming a
// member of the enum held by the resource's "subtype" property.
func (c *checker) handleType(tc *flat.TypeCtor, res *flat.Decl) (*flat.Type, bool) {
	c.ensure(res)
	t := flat.Type{Kind: flat.TypeHandle, Decl: res, Optional: tc.Optional}
	if tc.Subtype != nil {
		if tc.Subtype.Kind != flat.ConstantIdentifier {
			return nil, c.fail(idlerrors.ErrExpectedValue, tc.Span, tc.Subtype.Describe())
		}
		name := tc.Subtype.Reference.Name
		member := name.Member
		if member == "" {
			member = name.Decl
		}
		enum := subtypeEnum(res)
		if enum == nil || enum.Member(member, version.NegInf) == nil {
			return nil, c.fail(idlerrors.ErrUnknownMember, tc.Span, res.Name, member)
		}
		t.Subtype = member
	}
	return c.ctx.Typespace.Intern(t), true
}

func subtypeEnum(res *flat.Decl) *flat.Decl {
	for _, p := range res.Members {
		if p.Name != "subtype" || p.TypeCtor == nil || p.TypeCtor.Type == nil {
			continue
		}
		if t := p.TypeCtor.Type; t.Kind == flat.TypeIdentifier && t.Decl.Kind == flat.KindEnum {
			return t.Decl
		}
	}
	return nil
}

// underlyingPrimitive returns the primitive of a primitive, bits or enum type.
func (c *checker) underlyingPrimitive(t *flat.Type) (flat.Primitive, bool) {
	switch {
	case t.Kind == flat.TypePrimitive:
		return t.Primitive, true
	case t.Kind == flat.TypeIdentifier && (t.Decl.Kind == flat.KindBits || t.Decl.Kind == flat.KindEnum):
		c.ensure(t.Decl)
		if t.Decl.TypeCtor == nil || t.Decl.TypeCtor.Type == nil || t.Decl.TypeCtor.Type.Kind != flat.TypePrimitive {
			return 0, false
		}
		return t.Decl.TypeCtor.Type.Primitive, true
	default:
		return 0, false
	}
}

func isConstType(t *flat.Type) bool {
	switch t.Kind {
	case flat.TypePrimitive:
		return true
	case flat.TypeString:
		return !t.Optional
	case flat.TypeIdentifier:
		return t.Decl.Kind == flat.KindBits || t.Decl.Kind == flat.KindEnum
	default:
		return false
	}
}

// constant compiles k and converts it to want.
func (c *checker) constant(k *flat.Constant, want *flat.Type) bool {
	if k.IsCompiled() {
		return true
	}
	v, ok := c.evaluate(k, want)
	if !ok {
		return false
	}
	v, ok = c.convert(k, v, want)
	if !ok {
		return false
	}
	k.SetValue(want, v)
	return true
}

func (c *checker) evaluate(k *flat.Constant, want *flat.Type) (flat.ConstantValue, bool) {
	switch k.Kind {
	case flat.ConstantLiteral:
		v, ok := literalValue(k)
		if !ok {
			return v, c.fail(idlerrors.ErrTypeCannotBeConverted, k.Span, k.Describe(), want)
		}
		return v, true
	case flat.ConstantIdentifier:
		return c.identifierValue(k, want)
	default:
		if !isBitsLike(want) {
			return flat.ConstantValue{}, c.fail(idlerrors.ErrOrOperatorOnNonBits, k.Span, want)
		}
		left, ok := c.evaluate(k.Left, want)
		if !ok {
			return left, false
		}
		right, ok := c.evaluate(k.Right, want)
		if !ok {
			return right, false
		}
		if left.Kind != flat.ValueNumeric || right.Kind != flat.ValueNumeric {
			return flat.ConstantValue{}, c.fail(idlerrors.ErrTypeCannotBeConverted, k.Span, k.Describe(), want)
		}
		return flat.ConstantValue{Kind: flat.ValueNumeric, Numeric: new(big.Int).Or(left.Numeric, right.Numeric)}, true
	}
}

func isBitsLike(t *flat.Type) bool {
	if t.Kind == flat.TypeIdentifier {
		return t.Decl.Kind == flat.KindBits
	}
	return t.Kind == flat.TypePrimitive && t.Primitive.IsUnsigned()
}

func (c *checker) identifierValue(k *flat.Constant, want *flat.Type) (flat.ConstantValue, bool) {
	target := k.Reference.Target()
	d := target.Decl()
	c.ensure(d)
	var source *flat.Constant
	switch {
	case target.IsMember():
		if m := d.Member(target.Member, version.NegInf); m != nil {
			source = m.Value
		}
		if want.Kind == flat.TypeIdentifier && want.Decl != d {
			return flat.ConstantValue{}, c.fail(idlerrors.ErrTypeCannotBeConverted, k.Span, k.Describe(), want)
		}
	case d.Kind == flat.KindConst:
		source = d.Value
		if src := d.TypeCtor; src != nil && src.Type != nil && src.Type.Kind == flat.TypeIdentifier && src.Type != want {
			return flat.ConstantValue{}, c.fail(idlerrors.ErrTypeCannotBeConverted, k.Span, k.Describe(), want)
		}
	default:
		return flat.ConstantValue{}, c.fail(idlerrors.ErrExpectedValue, k.Span, k.Describe())
	}
	if source == nil || !source.IsCompiled() {
		// The source failed to compile and was reported there.
		return flat.ConstantValue{}, false
	}
	return source.Value, true
}

func literalValue(k *flat.Constant) (flat.ConstantValue, bool) {
	switch k.Literal {
	case ast.LiteralBool:
		return flat.ConstantValue{Kind: flat.ValueBool, Bool: k.Text == "true"}, k.Text == "true" || k.Text == "false"
	case ast.LiteralString:
		return flat.ConstantValue{Kind: flat.ValueString, String: k.Text}, true
	default:
		return parseNumeric(k.Text)
	}
}

func parseNumeric(text string) (flat.ConstantValue, bool) {
	hex := strings.HasPrefix(strings.TrimPrefix(text, "-"), "0x")
	if !hex && strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return flat.ConstantValue{}, false
		}
		return flat.ConstantValue{Kind: flat.ValueFloat, Float: f}, true
	}
	n, ok := new(big.Int).SetString(text, 0)
	if !ok {
		return flat.ConstantValue{}, false
	}
	return flat.ConstantValue{Kind: flat.ValueNumeric, Numeric: n}, true
}

func (c *checker) convert(k *flat.Constant, v flat.ConstantValue, want *flat.Type) (flat.ConstantValue, bool) {
	if want.Kind == flat.TypeString {
		if v.Kind != flat.ValueString {
			return v, c.fail(idlerrors.ErrTypeCannotBeConverted, k.Span, k.Describe(), want)
		}
		if uint64(len(v.String)) > uint64(want.Size) {
			return v, c.fail(idlerrors.ErrConstantOverflowsType, k.Span, k.Describe(), want)
		}
		return v, true
	}
	p, ok := c.underlyingPrimitive(want)
	if !ok {
		return v, c.fail(idlerrors.ErrTypeCannotBeConverted, k.Span, k.Describe(), want)
	}
	switch {
	case p == flat.PrimitiveBool:
		if v.Kind != flat.ValueBool {
			return v, c.fail(idlerrors.ErrTypeCannotBeConverted, k.Span, k.Describe(), want)
		}
	case p.IsFloat():
		switch v.Kind {
		case flat.ValueNumeric:
			f, _ := new(big.Float).SetInt(v.Numeric).Float64()
			v = flat.ConstantValue{Kind: flat.ValueFloat, Float: f}
		case flat.ValueFloat:
		default:
			return v, c.fail(idlerrors.ErrTypeCannotBeConverted, k.Span, k.Describe(), want)
		}
	default:
		if v.Kind != flat.ValueNumeric {
			return v, c.fail(idlerrors.ErrTypeCannotBeConverted, k.Span, k.Describe(), want)
		}
		lo, hi := p.Bounds()
		if v.Numeric.Cmp(big.NewInt(lo)) < 0 || v.Numeric.Cmp(new(big.Int).SetUint64(hi)) > 0 {
			return v, c.fail(idlerrors.ErrConstantOverflowsType, k.Span, k.Describe(), want)
		}
	}
	return v, true
}

// attributes compiles attribute arguments so their schemas can check types.
// @available arguments are versions, not constants.
func (c *checker) attributes(attrs flat.Attributes) {
	for _, attr := range attrs {
		if attr.Name == attrschema.Available {
			continue
		}
		for _, arg := range attr.Args {
			k := arg.Value
			if k.IsCompiled() {
				continue
			}
			switch k.Kind {
			case flat.ConstantLiteral:
				if v, ok := literalValue(k); ok {
					k.SetValue(nil, v)
				}
			case flat.ConstantIdentifier:
				target := k.Reference.Target()
				d := target.Decl()
				c.ensure(d)
				source := d.Value
				if target.IsMember() {
					source = nil
					if m := d.Member(target.Member, version.NegInf); m != nil {
						source = m.Value
					}
				} else if d.Kind != flat.KindConst {
					c.fail(idlerrors.ErrExpectedValue, arg.Span, k.Describe())
					continue
				}
				if source != nil && source.IsCompiled() {
					k.SetValue(source.Type, source.Value)
				}
			}
		}
	}
}

func (c *checker) constDecl(d *flat.Decl) {
	t, ok := c.typeOf(d.TypeCtor)
	if !ok {
		return
	}
	if !isConstType(t) {
		c.fail(idlerrors.ErrInvalidConstantType, d.Span, t)
		return
	}
	c.constant(d.Value, t)
}

func (c *checker) bitsOrEnum(d *flat.Decl) {
	if d.TypeCtor == nil {
		uint32Decl := c.ctx.Libraries.Root().Declarations.Lookup("uint32")[0]
		d.TypeCtor = &flat.TypeCtor{Layout: flat.ResolvedReference(uint32Decl, d.Span), Span: d.Span}
	}
	t, ok := c.typeOf(d.TypeCtor)
	if !ok {
		return
	}
	isBits := d.Kind == flat.KindBits
	switch {
	case isBits && (t.Kind != flat.TypePrimitive || !t.Primitive.IsUnsigned()):
		c.fail(idlerrors.ErrBitsTypeMustBeUnsigned, d.TypeCtor.Span, t)
		return
	case !isBits && (t.Kind != flat.TypePrimitive || !t.Primitive.IsInteger()):
		c.fail(idlerrors.ErrEnumTypeMustBeIntegral, d.TypeCtor.Span, t)
		return
	}
	if len(d.Members) == 0 {
		c.fail(idlerrors.ErrMustHaveOneMember, d.Span, d.Name)
		return
	}
	for i, m := range d.Members {
		if m.Value == nil || !c.constant(m.Value, t) {
			continue
		}
		n := m.Value.Value.Numeric
		if isBits && (n.Sign() <= 0 || new(big.Int).And(n, new(big.Int).Sub(n, big.NewInt(1))).Sign() != 0) {
			c.fail(idlerrors.ErrBitsMemberMustBePowerOfTwo, m.Span, d.Name+"."+m.Name, n)
			continue
		}
		for _, prev := range d.Members[:i] {
			if prev.Value == nil || !prev.Value.IsCompiled() || prev.Value.Value.Numeric.Cmp(n) != 0 {
				continue
			}
			if _, overlap := overlapAt(&prev.Availability, &m.Availability); overlap {
				c.fail(idlerrors.ErrDuplicateMemberValue, m.Span, d.Name+"."+m.Name, d.Name+"."+prev.Name)
				break
			}
		}
	}
}

func (c *checker) resource(d *flat.Decl) {
	t, ok := c.typeOf(d.TypeCtor)
	if d.TypeCtor != nil && !ok {
		return
	}
	if t == nil || t.Kind != flat.TypePrimitive || t.Primitive != flat.PrimitiveUint32 {
		c.fail(idlerrors.ErrResourceMustBeUint32Derived, d.Span, d.Name)
		return
	}
	for _, p := range d.Members {
		c.typeOf(p.TypeCtor)
	}
}

func (c *checker) structDecl(d *flat.Decl) {
	for _, m := range d.Members {
		t, ok := c.typeOf(m.TypeCtor)
		if !ok || m.Default == nil {
			continue
		}
		if !isConstType(t) {
			c.fail(idlerrors.ErrTypeCannotBeConverted, m.Default.Span, m.Default.Describe(), t)
			continue
		}
		c.constant(m.Default, t)
	}
}

// envelopes checks tables, unions and overlays, whose members carry ordinals.
func (c *checker) envelopes(d *flat.Decl) {
	for i, m := range d.Members {
		name := d.Name + "." + m.Name
		if m.Ordinal == 0 || (d.Kind == flat.KindTable && m.Ordinal > maxTableOrdinal) {
			c.fail(idlerrors.ErrInvalidOrdinal, m.Span, m.Ordinal, name)
		}
		for _, prev := range d.Members[:i] {
			if prev.Ordinal != m.Ordinal {
				continue
			}
			if _, overlap := overlapAt(&prev.Availability, &m.Availability); overlap {
				c.fail(idlerrors.ErrDuplicateOrdinal, m.Span, m.Ordinal, name, d.Name+"."+prev.Name)
				break
			}
		}
		t, ok := c.typeOf(m.TypeCtor)
		if ok && t.Optional && d.Kind != flat.KindOverlay {
			c.fail(idlerrors.ErrCannotBeOptional, m.Span, name)
		}
	}
}

func (c *checker) service(d *flat.Decl) {
	for _, m := range d.Members {
		t, ok := c.typeOf(m.TypeCtor)
		if ok && (t.Kind != flat.TypeTransportSide || t.Role != flat.RoleClient) {
			c.fail(idlerrors.ErrOnlyClientEndsInServices, m.Span, d.Name+"."+m.Name)
		}
	}
}

func (c *checker) protocol(d *flat.Decl) {
	for _, comp := range d.Composes {
		for _, cand := range comp.Reference.Target().Candidates {
			if comp.Reference.Target().IsMember() || cand.Kind != flat.KindProtocol {
				c.fail(idlerrors.ErrComposingNonProtocol, comp.Span, comp.Reference.Name)
				break
			}
			c.ensure(cand)
		}
	}
	for _, m := range d.Methods {
		for _, tc := range []*flat.TypeCtor{m.Request, m.Response} {
			if t, ok := c.typeOf(tc); ok && !isPayload(t) {
				c.fail(idlerrors.ErrInvalidMethodPayload, tc.Span, t)
			}
		}
		if m.Error != nil {
			if t, ok := c.typeOf(m.Error); ok && !c.isErrorType(t) {
				c.fail(idlerrors.ErrInvalidErrorType, m.Error.Span, t)
			}
		}
		c.typeOf(m.Result)

		var override string
		if attr := m.Attributes.Get(attrschema.Selector); attr != nil {
			if arg := attr.Arg(flat.DefaultArgName); arg != nil {
				override = arg.Value.Text
			}
		}
		selector, ok := selectorFor(d.Library.Name, d.Name, m.Name, override)
		if !ok {
			c.fail(idlerrors.ErrInvalidSelector, m.Span, override)
			continue
		}
		m.Selector = selector
		m.Ordinal = MethodOrdinal(selector)
	}
	c.methodOrdinals(d)
}

func isPayload(t *flat.Type) bool {
	if t.Kind != flat.TypeIdentifier || t.Optional {
		return false
	}
	switch t.Decl.Kind {
	case flat.KindStruct, flat.KindTable, flat.KindUnion:
		return true
	default:
		return false
	}
}

func (c *checker) isErrorType(t *flat.Type) bool {
	if t.Kind != flat.TypePrimitive && (t.Kind != flat.TypeIdentifier || t.Decl.Kind != flat.KindEnum) {
		return false
	}
	p, ok := c.underlyingPrimitive(t)
	return ok && (p == flat.PrimitiveInt32 || p == flat.PrimitiveUint32)
}

type protocolMethod struct {
	protocol *flat.Decl
	method   *flat.Method
}

// methodOrdinals reports methods of d that share an ordinal with another
// method of d or of a protocol it composes, directly or transitively.
func (c *checker) methodOrdinals(d *flat.Decl) {
	var all []protocolMethod
	seen := make(map[*flat.Decl]bool)
	var collect func(p *flat.Decl)
	collect = func(p *flat.Decl) {
		if seen[p] || p.Kind != flat.KindProtocol {
			return
		}
		seen[p] = true
		for _, m := range p.Methods {
			if m.Selector != "" {
				all = append(all, protocolMethod{p, m})
			}
		}
		for _, comp := range p.Composes {
			if !comp.Reference.IsResolved() {
				continue
			}
			for _, cand := range comp.Reference.Target().Candidates {
				collect(cand)
			}
		}
	}
	collect(d)
	for i, a := range all {
		for _, b := range all[:i] {
			if a.method.Ordinal != b.method.Ordinal || (a.protocol != d && b.protocol != d) {
				continue
			}
			if a.protocol.Library == b.protocol.Library {
				if _, overlap := overlapAt(&a.method.Availability, &b.method.Availability); !overlap {
					continue
				}
			}
			span := d.Span
			if a.protocol == d {
				span = a.method.Span
			}
			c.fail(idlerrors.ErrDuplicateMethodOrdinal, span,
				a.protocol.Name+"."+a.method.Name, b.protocol.Name+"."+b.method.Name, a.method.Ordinal)
			break
		}
	}
}
