package planning

import (
	"fmt"

	federation "github.com/hanpama/supergraph/internal/federation"
	language "github.com/hanpama/supergraph/internal/language"
	som "github.com/hanpama/supergraph/internal/som"
)

// CollectedField is one entry of a field set: the scope it was collected
// under, the selection node and the resolved definition.
type CollectedField struct {
	Scope *Scope
	Node  *language.Field
	Def   *som.FieldDefinition
}

// Coordinate returns "Type.field" for the collected field.
func (f CollectedField) Coordinate() string {
	return federation.Coordinate(f.Scope.Parent().Name(), f.Node.Name)
}

// CollectFields flattens a selection set against a scope into an ordered
// field set. Inline fragments and spreads refine the scope; a fragment
// whose refined scope has no possible runtime type contributes nothing.
// Spreads that do not resolve in the fragment map are skipped.
func (c *Context) CollectFields(scope *Scope, sel language.SelectionSet) ([]CollectedField, error) {
	var out []CollectedField
	err := c.collectFields(scope, sel, &out)
	return out, err
}

func (c *Context) collectFields(scope *Scope, sel language.SelectionSet, out *[]CollectedField) error {
	for _, s := range sel {
		switch node := s.(type) {
		case *language.Field:
			def, err := c.FieldDef(scope.Parent(), node)
			if err != nil {
				return err
			}
			*out = append(*out, CollectedField{Scope: scope, Node: node, Def: def})

		case *language.InlineFragment:
			cond := scope.Parent()
			if node.TypeCondition != "" {
				cond = c.Schema.Type(node.TypeCondition)
				if cond == nil {
					return fmt.Errorf("unknown type %q in fragment condition", node.TypeCondition)
				}
			}
			refined := scope.Refine(cond, node.Directives)
			if len(refined.PossibleRuntimeTypes()) == 0 {
				continue
			}
			if err := c.collectFields(refined, node.SelectionSet, out); err != nil {
				return err
			}

		case *language.FragmentSpread:
			frag, ok := c.Fragments[node.Name]
			if !ok {
				continue
			}
			cond := scope.Parent()
			if frag.TypeCondition != "" {
				cond = c.Schema.Type(frag.TypeCondition)
				if cond == nil {
					return fmt.Errorf("unknown type %q in fragment condition", frag.TypeCondition)
				}
			}
			refined := scope.Refine(cond, node.Directives)
			if len(refined.PossibleRuntimeTypes()) == 0 {
				continue
			}
			if err := c.collectFields(refined, frag.SelectionSet, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// KeyFields returns the fields a service needs to identify the entities a
// scope can resolve to: __typename, then for each possible runtime type
// the fields of its keys in that service. With fetchAll every declared
// key contributes; otherwise only the first.
func (c *Context) KeyFields(scope *Scope, service string, fetchAll bool) ([]CollectedField, error) {
	out := []CollectedField{c.typenameField(scope)}
	for _, t := range scope.PossibleRuntimeTypes() {
		keys := keysFor(t, service)
		if len(keys) == 0 {
			continue
		}
		if !fetchAll {
			keys = keys[:1]
		}
		for _, key := range keys {
			sel, err := language.ParseFieldSet(key)
			if err != nil {
				return nil, fmt.Errorf("invalid key %q on type %q: %w", key, t.Name(), err)
			}
			refined := scope.Refine(t, nil)
			fields, err := c.CollectFields(refined, sel)
			if err != nil {
				return nil, err
			}
			out = append(out, fields...)
		}
	}
	return out, nil
}

// RequiredFields returns the fields a service must have fetched before it
// can resolve the given field: the scope's key fields followed by the
// field's @requires selection.
func (c *Context) RequiredFields(scope *Scope, f *som.FieldDefinition, service string) ([]CollectedField, error) {
	out, err := c.KeyFields(scope, service, false)
	if err != nil {
		return nil, err
	}
	join := joinFieldFor(f, service)
	if join == nil {
		return out, nil
	}
	req := join.Argument("requires")
	if req == nil || req.Kind != som.StringValue {
		return out, nil
	}
	sel, err := language.ParseFieldSet(req.Str)
	if err != nil {
		return nil, fmt.Errorf("invalid requires %q on %q: %w", req.Str, f.Coordinate(), err)
	}
	fields, err := c.CollectFields(scope, sel)
	if err != nil {
		return nil, err
	}
	return append(out, fields...), nil
}

// ProvidedFields returns the fields a service can resolve on a field's
// return type without a further fetch: every key of the return type plus
// the field's @provides selection. Fields of non-composite return types
// provide nothing.
func (c *Context) ProvidedFields(f *som.FieldDefinition, service string) ([]CollectedField, error) {
	ret := baseTypeOf(f.Type())
	if ret == nil || (ret.Kind() != som.TypeKindObject && ret.Kind() != som.TypeKindUnion) {
		return nil, nil
	}
	scope := NewScope(c, ret)
	out, err := c.KeyFields(scope, service, true)
	if err != nil {
		return nil, err
	}
	join := joinFieldFor(f, service)
	if join == nil {
		return out, nil
	}
	prov := join.Argument("provides")
	if prov == nil || prov.Kind != som.StringValue {
		return out, nil
	}
	sel, err := language.ParseFieldSet(prov.Str)
	if err != nil {
		return nil, fmt.Errorf("invalid provides %q on %q: %w", prov.Str, f.Coordinate(), err)
	}
	fields, err := c.CollectFields(scope, sel)
	if err != nil {
		return nil, err
	}
	return append(out, fields...), nil
}

func (c *Context) typenameField(scope *Scope) CollectedField {
	node := &language.Field{Name: "__typename", Alias: "__typename"}
	return CollectedField{
		Scope: scope,
		Node:  node,
		Def:   c.metaField("__typename", c.Schema.BuiltIn("String")),
	}
}

func baseTypeOf(expr som.TypeExpr) *som.Type {
	if expr == nil {
		return nil
	}
	return expr.BaseType()
}
