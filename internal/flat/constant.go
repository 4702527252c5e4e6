package flat

import (
	"math/big"
	"strconv"

	"github.com/jacoelho/idlc/internal/ast"
)

// ConstantKind distinguishes constant expressions.
type ConstantKind uint8

const (
	ConstantLiteral ConstantKind = iota
	ConstantIdentifier
	ConstantBinaryOr
)

// ValueKind distinguishes compiled constant values.
type ValueKind uint8

const (
	ValueUnset ValueKind = iota
	ValueBool
	ValueNumeric
	ValueFloat
	ValueString
)

// ConstantValue is the result of compiling a constant.
type ConstantValue struct {
	Kind    ValueKind
	Bool    bool
	Numeric *big.Int
	Float   float64
	String  string
}

func (v ConstantValue) Format() string {
	switch v.Kind {
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueNumeric:
		return v.Numeric.String()
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueString:
		return strconv.Quote(v.String)
	default:
		return "<unset>"
	}
}

// Uint64 returns a numeric value as uint64 when it fits.
func (v ConstantValue) Uint64() (uint64, bool) {
	if v.Kind != ValueNumeric || v.Numeric.Sign() < 0 || !v.Numeric.IsUint64() {
		return 0, false
	}
	return v.Numeric.Uint64(), true
}

// Constant is a constant expression. Identifier constants reference a const
// declaration or a bits/enum member.
type Constant struct {
	Kind      ConstantKind
	Literal   ast.LiteralKind
	Text      string
	Reference Reference
	Left      *Constant
	Right     *Constant
	Span      ast.Span

	Type     *Type
	Value    ConstantValue
	compiled bool
}

// IsCompiled reports whether SetValue has been called.
func (c *Constant) IsCompiled() bool { return c.compiled }

// SetValue records the compiled value and the type it was converted to.
func (c *Constant) SetValue(t *Type, v ConstantValue) {
	c.Type = t
	c.Value = v
	c.compiled = true
}

// Describe returns the constant as written.
func (c *Constant) Describe() string {
	switch c.Kind {
	case ConstantIdentifier:
		return c.Reference.Name.String()
	case ConstantBinaryOr:
		return c.Left.Describe() + " | " + c.Right.Describe()
	default:
		if c.Literal == ast.LiteralString {
			return strconv.Quote(c.Text)
		}
		return c.Text
	}
}
