package som

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueEquality(t *testing.T) {
	cases := []struct {
		name string
		a, b *Value
		want bool
	}{
		{"null", NullVal(), NullVal(), true},
		{"bool", BoolVal(true), BoolVal(true), true},
		{"bool mismatch", BoolVal(true), BoolVal(false), false},
		{"int", IntVal(42), IntVal(42), true},
		{"kind mismatch", IntVal(42), FloatVal(42), false},
		{"string vs enum", StringVal("RED"), EnumVal("RED"), false},
		{"variable", VariableVal("rep"), VariableVal("rep"), true},
		{"list", ListVal(IntVal(1), IntVal(2)), ListVal(IntVal(1), IntVal(2)), true},
		{"list order", ListVal(IntVal(1), IntVal(2)), ListVal(IntVal(2), IntVal(1)), false},
		{
			"object order independent",
			ObjectVal(&ObjectField{"a", IntVal(1)}, &ObjectField{"b", IntVal(2)}),
			ObjectVal(&ObjectField{"b", IntVal(2)}, &ObjectField{"a", IntVal(1)}),
			true,
		},
		{
			"object value mismatch",
			ObjectVal(&ObjectField{"a", IntVal(1)}),
			ObjectVal(&ObjectField{"a", IntVal(2)}),
			false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.a.Equal(tc.b))
			require.Equal(t, tc.want, tc.b.Equal(tc.a))
		})
	}
}

func TestValueString(t *testing.T) {
	require.Equal(t, `"all"`, StringVal("all").String())
	require.Equal(t, "EXECUTION", EnumVal("EXECUTION").String())
	require.Equal(t, "$rep", VariableVal("rep").String())
	require.Equal(t, "[1, 2]", ListVal(IntVal(1), IntVal(2)).String())
	// Object fields render sorted by name.
	v := ObjectVal(&ObjectField{"b", IntVal(2)}, &ObjectField{"a", IntVal(1)})
	require.Equal(t, "{a: 1, b: 2}", v.String())
}

func TestDirectiveEquality(t *testing.T) {
	s := NewSchema()
	q, err := s.AddObjectType("Query")
	require.NoError(t, err)

	a, err := q.ApplyDirective("f", Arg("a", IntVal(1)), Arg("b", IntVal(2)))
	require.NoError(t, err)
	b, err := q.ApplyDirective("f", Arg("b", IntVal(2)), Arg("a", IntVal(1)))
	require.NoError(t, err)
	c, err := q.ApplyDirective("f", Arg("a", IntVal(1)))
	require.NoError(t, err)

	require.True(t, a.Equal(b), "argument order must not matter")
	require.Equal(t, a.String(), b.String())
	require.False(t, a.Equal(c))
	require.Equal(t, "@f(a: 1, b: 2)", a.String())
}
