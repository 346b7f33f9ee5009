package som

import (
	"sort"
	"strconv"
	"strings"

	language "github.com/hanpama/supergraph/internal/language"
)

// ValueKind discriminates the variants of Value.
type ValueKind int

const (
	NullValue ValueKind = iota
	BooleanValue
	IntValue
	FloatValue
	StringValue
	EnumValue
	ListValue
	ObjectValue
	VariableValue
)

// Value is a structured GraphQL value as it appears in directive arguments
// and default values.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	// Str holds the payload for StringValue, EnumValue and VariableValue.
	Str    string
	List   []*Value
	Fields []*ObjectField
}

// ObjectField is a single name/value entry of an ObjectValue.
type ObjectField struct {
	Name  string
	Value *Value
}

func NullVal() *Value           { return &Value{Kind: NullValue} }
func BoolVal(v bool) *Value     { return &Value{Kind: BooleanValue, Bool: v} }
func IntVal(v int64) *Value     { return &Value{Kind: IntValue, Int: v} }
func FloatVal(v float64) *Value { return &Value{Kind: FloatValue, Float: v} }
func StringVal(v string) *Value { return &Value{Kind: StringValue, Str: v} }
func EnumVal(v string) *Value   { return &Value{Kind: EnumValue, Str: v} }
func VariableVal(name string) *Value {
	return &Value{Kind: VariableValue, Str: name}
}
func ListVal(items ...*Value) *Value { return &Value{Kind: ListValue, List: items} }
func ObjectVal(fields ...*ObjectField) *Value {
	return &Value{Kind: ObjectValue, Fields: fields}
}

// Equal reports deep structural equality. Object fields are compared by
// name, independent of their written order.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case NullValue:
		return true
	case BooleanValue:
		return v.Bool == other.Bool
	case IntValue:
		return v.Int == other.Int
	case FloatValue:
		return v.Float == other.Float
	case StringValue, EnumValue, VariableValue:
		return v.Str == other.Str
	case ListValue:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	case ObjectValue:
		if len(v.Fields) != len(other.Fields) {
			return false
		}
		byName := make(map[string]*Value, len(other.Fields))
		for _, f := range other.Fields {
			byName[f.Name] = f.Value
		}
		for _, f := range v.Fields {
			ov, ok := byName[f.Name]
			if !ok || !f.Value.Equal(ov) {
				return false
			}
		}
		return true
	}
	panic("unreachable")
}

// String renders the value in canonical GraphQL syntax. Object fields are
// emitted sorted by name so that the rendering is order independent.
func (v *Value) String() string {
	if v == nil {
		return "null"
	}
	switch v.Kind {
	case NullValue:
		return "null"
	case BooleanValue:
		return strconv.FormatBool(v.Bool)
	case IntValue:
		return strconv.FormatInt(v.Int, 10)
	case FloatValue:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case StringValue:
		return strconv.Quote(v.Str)
	case EnumValue:
		return v.Str
	case VariableValue:
		return "$" + v.Str
	case ListValue:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ObjectValue:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = f.Name + ": " + f.Value.String()
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	}
	panic("unreachable")
}

// Copy returns an independent deep copy of the value.
func (v *Value) Copy() *Value { return v.copy() }

func (v *Value) copy() *Value {
	if v == nil {
		return nil
	}
	c := &Value{Kind: v.Kind, Bool: v.Bool, Int: v.Int, Float: v.Float, Str: v.Str}
	if v.List != nil {
		c.List = make([]*Value, len(v.List))
		for i, item := range v.List {
			c.List[i] = item.copy()
		}
	}
	if v.Fields != nil {
		c.Fields = make([]*ObjectField, len(v.Fields))
		for i, f := range v.Fields {
			c.Fields[i] = &ObjectField{Name: f.Name, Value: f.Value.copy()}
		}
	}
	return c
}

// ValueFromAST converts a parsed gqlparser value into a structured Value.
func ValueFromAST(v *language.Value) (*Value, error) {
	if v == nil {
		return nil, nil
	}
	switch v.Kind {
	case language.NullValue:
		return NullVal(), nil
	case language.BooleanValue:
		return BoolVal(v.Raw == "true"), nil
	case language.IntValue:
		n, err := strconv.ParseInt(v.Raw, 10, 64)
		if err != nil {
			return nil, errInvalidValueLiteral("Int", v.Raw)
		}
		return IntVal(n), nil
	case language.FloatValue:
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return nil, errInvalidValueLiteral("Float", v.Raw)
		}
		return FloatVal(f), nil
	case language.StringValue, language.BlockValue:
		return StringVal(v.Raw), nil
	case language.EnumValue:
		return EnumVal(v.Raw), nil
	case language.Variable:
		return VariableVal(v.Raw), nil
	case language.ListValue:
		items := make([]*Value, len(v.Children))
		for i, child := range v.Children {
			item, err := ValueFromAST(child.Value)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return ListVal(items...), nil
	case language.ObjectValue:
		fields := make([]*ObjectField, len(v.Children))
		for i, child := range v.Children {
			val, err := ValueFromAST(child.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = &ObjectField{Name: child.Name, Value: val}
		}
		return ObjectVal(fields...), nil
	}
	panic("unreachable")
}
