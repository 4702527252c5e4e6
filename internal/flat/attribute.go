package flat

import "github.com/jacoelho/idlc/internal/ast"

// AttributeArg is one compiled attribute argument.
type AttributeArg struct {
	Name  string
	Value *Constant
	Span  ast.Span
}

// Attribute is an annotation on a library, declaration or member.
type Attribute struct {
	Name string
	Args []*AttributeArg
	Span ast.Span
}

// DefaultArgName names a lone positional argument.
const DefaultArgName = "value"

// Arg returns the named argument, or nil.
func (a *Attribute) Arg(name string) *AttributeArg {
	for _, arg := range a.Args {
		if arg.Name == name {
			return arg
		}
	}
	return nil
}

// Attributes is an ordered attribute list.
type Attributes []*Attribute

// Get returns the attribute with name, or nil.
func (as Attributes) Get(name string) *Attribute {
	for _, a := range as {
		if a.Name == name {
			return a
		}
	}
	return nil
}
