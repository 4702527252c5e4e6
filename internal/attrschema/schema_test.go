package attrschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	idlerrors "github.com/jacoelho/idlc/errors"
	"github.com/jacoelho/idlc/internal/ast"
	"github.com/jacoelho/idlc/internal/flat"
)

func TestSuggestions(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name string
		want []string
	}{
		{"availble", []string{"available"}},
		{"availablee", []string{"available"}},
		{"totallydifferent", nil},
		{"available", nil},
		{"selecter", []string{"selector"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Suggestions(tt.name))
		})
	}
}

func TestLookupFallsBackToUserDefined(t *testing.T) {
	r := NewRegistry()
	s := r.Lookup("my_custom")
	assert.True(t, s.UserDefined)
	assert.False(t, r.Contains("my_custom"))
	assert.False(t, r.Lookup(Doc).UserDefined)
}

func TestAddDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(Schema{Name: "custom", Placement: PlaceStruct}))
	err := r.Add(Schema{Name: "custom"})
	require.ErrorIs(t, err, ErrDuplicateSchema)
	require.ErrorIs(t, r.Add(Schema{Name: Doc}), ErrDuplicateSchema)
	assert.Contains(t, r.Names(), "custom")
}

func literal(kind ast.LiteralKind, text string) *flat.Constant {
	return &flat.Constant{Kind: flat.ConstantLiteral, Literal: kind, Text: text}
}

func codes(vs []Violation) []idlerrors.ErrorCode {
	var out []idlerrors.ErrorCode
	for _, v := range vs {
		out = append(out, v.Def.Code)
	}
	return out
}

func TestValidate(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name  string
		attr  flat.Attribute
		place Placement
		want  []idlerrors.ErrorCode
	}{
		{
			name:  "doc anywhere",
			attr:  flat.Attribute{Name: Doc, Args: []*flat.AttributeArg{{Value: literal(ast.LiteralString, "hi")}}},
			place: PlaceTableMember,
		},
		{
			name:  "selector on struct",
			attr:  flat.Attribute{Name: Selector, Args: []*flat.AttributeArg{{Name: "value", Value: literal(ast.LiteralString, "x")}}},
			place: PlaceStruct,
			want:  []idlerrors.ErrorCode{idlerrors.ErrInvalidAttributePlacement.Code},
		},
		{
			name:  "transport missing value",
			attr:  flat.Attribute{Name: Transport},
			place: PlaceProtocol,
			want:  []idlerrors.ErrorCode{idlerrors.ErrMissingRequiredAttributeArg.Code},
		},
		{
			name:  "unknown argument",
			attr:  flat.Attribute{Name: Discoverable, Args: []*flat.AttributeArg{{Name: "bogus", Value: literal(ast.LiteralString, "x")}}},
			place: PlaceProtocol,
			want:  []idlerrors.ErrorCode{idlerrors.ErrUnknownAttributeArg.Code},
		},
		{
			name:  "wrong type",
			attr:  flat.Attribute{Name: Doc, Args: []*flat.AttributeArg{{Value: literal(ast.LiteralNumeric, "1")}}},
			place: PlaceStruct,
			want:  []idlerrors.ErrorCode{idlerrors.ErrInvalidAttributeArgType.Code},
		},
		{
			name:  "user defined accepts anything",
			attr:  flat.Attribute{Name: "custom", Args: []*flat.AttributeArg{{Name: "x", Value: literal(ast.LiteralBool, "true")}}},
			place: PlaceLibrary,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Lookup(tt.attr.Name).Validate(&tt.attr, tt.place)
			assert.Equal(t, tt.want, codes(got))
		})
	}
}

func TestSchemaConfig(t *testing.T) {
	s, err := SchemaConfig{
		Name:      "serialize_as",
		Placement: []string{"struct", "table"},
		Args:      []ArgConfig{{Name: "value", Type: "string"}, {Name: "limit", Type: "numeric", Optional: true}},
	}.Schema()
	require.NoError(t, err)
	assert.Equal(t, PlaceStruct|PlaceTable, s.Placement)
	arg, ok := s.Arg("limit")
	require.True(t, ok)
	assert.Equal(t, ArgNumeric, arg.Type)
	assert.True(t, arg.Optional)

	anywhere, err := SchemaConfig{Name: "x"}.Schema()
	require.NoError(t, err)
	assert.Equal(t, PlaceAnywhere, anywhere.Placement)

	bad := []SchemaConfig{
		{},
		{Name: "x", Placement: []string{"nowhere"}},
		{Name: "x", Args: []ArgConfig{{Name: "a", Type: "blob"}}},
		{Name: "x", Args: []ArgConfig{{Name: "a", Type: "bool"}, {Name: "a", Type: "bool"}}},
		{Name: "x", Args: []ArgConfig{{Type: "bool"}}},
	}
	for _, c := range bad {
		_, err := c.Schema()
		assert.Error(t, err, "%+v", c)
	}
}

func TestPlacementFor(t *testing.T) {
	assert.Equal(t, PlaceTable, DeclPlacement(flat.KindTable))
	assert.Equal(t, PlaceEnumMember, MemberPlacement(flat.KindEnum))
	assert.Equal(t, "resource_property", MemberPlacement(flat.KindResource).String())
	p, ok := ParsePlacement("anywhere")
	require.True(t, ok)
	assert.Equal(t, PlaceAnywhere, p)
}
