package compiler

import (
	"math"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/flat"
)

// typeShapeStep computes the wire shape of every layout and rejects layouts
// whose inline size does not fit in 32 bits.
type typeShapeStep struct{}

func (typeShapeStep) Name() string { return "typeshape" }

func (typeShapeStep) Run(ctx *Context) {
	s := shaper{memo: make(map[*flat.Decl]shape), active: make(map[*flat.Decl]bool)}
	for _, d := range ctx.Library.DeclarationOrder {
		switch d.Kind {
		case flat.KindStruct, flat.KindTable, flat.KindUnion, flat.KindOverlay,
			flat.KindBits, flat.KindEnum, flat.KindNewType:
		default:
			continue
		}
		sh := s.decl(d)
		if sh.inline > math.MaxUint32 {
			ctx.Reporter.Fail(idlerrors.ErrTypeShapeOverflow, d.Span, d.Name)
			continue
		}
		d.Shape = sh.typeShape()
	}
}

// limit saturates every quantity. Anything above MaxUint32 is either an
// overflow (inline size) or reported as unbounded.
const limit = uint64(1) << 40

type shape struct {
	inline    uint64
	align     uint64
	depth     uint64
	handles   uint64
	outOfLine uint64
	padding   bool
	flexible  bool
}

func (s shape) typeShape() flat.TypeShape {
	clamp := func(v uint64) uint32 {
		if v > math.MaxUint32 {
			return math.MaxUint32
		}
		return uint32(v)
	}
	return flat.TypeShape{
		InlineSize:          clamp(s.inline),
		Alignment:           clamp(s.align),
		Depth:               clamp(s.depth),
		MaxHandles:          clamp(s.handles),
		MaxOutOfLine:        clamp(s.outOfLine),
		HasPadding:          s.padding,
		HasFlexibleEnvelope: s.flexible,
	}
}

func satAdd(a, b uint64) uint64 { return min(a+b, limit) }

func satMul(a, b uint64) uint64 {
	if a != 0 && b > limit/a {
		return limit
	}
	return min(a*b, limit)
}

func align8(v uint64) uint64 { return min((v+7)&^7, limit) }

func alignTo(v, a uint64) uint64 {
	if a == 0 {
		return v
	}
	return min((v+a-1)/a*a, limit)
}

// boundOrLimit turns an Unbounded size into the saturation limit.
func boundOrLimit(size uint32) uint64 {
	if size == flat.Unbounded {
		return limit
	}
	return uint64(size)
}

type shaper struct {
	memo   map[*flat.Decl]shape
	active map[*flat.Decl]bool
}

var recursive = shape{inline: 8, align: 8, depth: limit, handles: limit, outOfLine: limit}

func (s *shaper) decl(d *flat.Decl) shape {
	if sh, ok := s.memo[d]; ok {
		return sh
	}
	if s.active[d] {
		return recursive
	}
	s.active[d] = true
	defer delete(s.active, d)

	var sh shape
	switch d.Kind {
	case flat.KindStruct:
		sh = s.structShape(d)
	case flat.KindTable:
		sh = s.tableShape(d)
	case flat.KindUnion:
		sh = s.unionShape(d)
	case flat.KindOverlay:
		sh = s.overlayShape(d)
	case flat.KindBits, flat.KindEnum, flat.KindNewType:
		if d.TypeCtor != nil && d.TypeCtor.Type != nil {
			sh = s.typ(d.TypeCtor.Type)
		}
	}
	s.memo[d] = sh
	return sh
}

func (s *shaper) members(d *flat.Decl) []shape {
	out := make([]shape, 0, len(d.Members))
	for _, m := range d.Members {
		if m.TypeCtor == nil || m.TypeCtor.Type == nil {
			continue
		}
		out = append(out, s.typ(m.TypeCtor.Type))
	}
	return out
}

func (s *shaper) structShape(d *flat.Decl) shape {
	fields := s.members(d)
	if len(fields) == 0 {
		return shape{inline: 1, align: 1}
	}
	sh := shape{align: 1}
	for _, f := range fields {
		offset := alignTo(sh.inline, f.align)
		if offset != sh.inline {
			sh.padding = true
		}
		sh.inline = satAdd(offset, f.inline)
		sh.align = max(sh.align, f.align)
		sh.depth = max(sh.depth, f.depth)
		sh.handles = satAdd(sh.handles, f.handles)
		sh.outOfLine = satAdd(sh.outOfLine, f.outOfLine)
		sh.padding = sh.padding || f.padding
		sh.flexible = sh.flexible || f.flexible
	}
	if end := alignTo(sh.inline, sh.align); end != sh.inline {
		sh.padding = true
		sh.inline = end
	}
	return sh
}

// envelope returns the out-of-line cost of a member stored in an envelope.
// Values of four bytes or less are inlined into the envelope header.
func envelope(m shape) uint64 {
	if m.inline <= 4 {
		return m.outOfLine
	}
	return satAdd(align8(m.inline), m.outOfLine)
}

func (s *shaper) tableShape(d *flat.Decl) shape {
	sh := shape{inline: 16, align: 8, depth: 1, flexible: true}
	var maxOrdinal uint64
	for _, m := range d.Members {
		maxOrdinal = max(maxOrdinal, m.Ordinal)
	}
	for _, m := range s.members(d) {
		sh.outOfLine = satAdd(sh.outOfLine, envelope(m))
		sh.handles = satAdd(sh.handles, m.handles)
		sh.depth = max(sh.depth, satAdd(m.depth, 2))
		sh.padding = sh.padding || m.padding
	}
	sh.outOfLine = satAdd(sh.outOfLine, satMul(maxOrdinal, 8))
	return sh
}

func (s *shaper) unionShape(d *flat.Decl) shape {
	sh := shape{inline: 16, align: 8, depth: 1, flexible: d.Strictness == flat.Flexible}
	for _, m := range s.members(d) {
		sh.outOfLine = max(sh.outOfLine, envelope(m))
		sh.handles = max(sh.handles, m.handles)
		sh.depth = max(sh.depth, satAdd(m.depth, 1))
		sh.padding = sh.padding || m.padding
		sh.flexible = sh.flexible || m.flexible
	}
	return sh
}

func (s *shaper) overlayShape(d *flat.Decl) shape {
	sh := shape{align: 8}
	var widest uint64
	for _, m := range s.members(d) {
		if m.inline != widest {
			sh.padding = true
		}
		widest = max(widest, m.inline)
		sh.outOfLine = max(sh.outOfLine, m.outOfLine)
		sh.handles = max(sh.handles, m.handles)
		sh.depth = max(sh.depth, m.depth)
	}
	sh.inline = satAdd(8, align8(widest))
	return sh
}

func (s *shaper) typ(t *flat.Type) shape {
	switch t.Kind {
	case flat.TypePrimitive:
		size := uint64(t.Primitive.Size())
		return shape{inline: size, align: size}
	case flat.TypeInternal:
		return shape{inline: 4, align: 4}
	case flat.TypeHandle, flat.TypeTransportSide:
		return shape{inline: 4, align: 4, handles: 1}
	case flat.TypeString:
		size := boundOrLimit(t.Size)
		return shape{inline: 16, align: 8, depth: 1, outOfLine: align8(size), padding: true}
	case flat.TypeVector:
		e := s.typ(t.Element)
		count := boundOrLimit(t.Size)
		return shape{
			inline:    16,
			align:     8,
			depth:     satAdd(e.depth, 1),
			handles:   satMul(count, e.handles),
			outOfLine: satAdd(align8(satMul(count, e.inline)), satMul(count, e.outOfLine)),
			padding:   e.padding || e.inline%8 != 0,
			flexible:  e.flexible,
		}
	case flat.TypeArray:
		e := s.typ(t.Element)
		n := uint64(t.Size)
		return shape{
			inline:    satMul(n, e.inline),
			align:     e.align,
			depth:     e.depth,
			handles:   satMul(n, e.handles),
			outOfLine: satMul(n, e.outOfLine),
			padding:   e.padding,
			flexible:  e.flexible,
		}
	case flat.TypeBox:
		e := s.typ(t.Element)
		return shape{
			inline:    8,
			align:     8,
			depth:     satAdd(e.depth, 1),
			handles:   e.handles,
			outOfLine: satAdd(align8(e.inline), e.outOfLine),
			padding:   e.padding || e.inline%8 != 0,
			flexible:  e.flexible,
		}
	case flat.TypeIdentifier:
		return s.decl(t.Decl)
	default:
		return shape{}
	}
}
