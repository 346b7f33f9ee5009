package federation

import (
	"fmt"

	language "github.com/hanpama/supergraph/internal/language"
	som "github.com/hanpama/supergraph/internal/som"
)

// Metadata holds the precomputed federation predicates of one subgraph
// schema, keyed by field coordinate ("Type.field").
type Metadata struct {
	Schema *som.Schema

	keySets   map[string][]string // type name -> key field sets in application order
	keyFields map[string]bool
	shareable map[string]bool
	externals map[string]bool
	overrides map[string]string // coordinate -> from subgraph
	provides  map[string]string // coordinate -> field set
	requires  map[string]string // coordinate -> field set
}

// Analyze walks the schema once and precomputes the key-field and
// shareable-field predicates together with the per-field override,
// external, provides and requires annotations.
func Analyze(s *som.Schema) (*Metadata, error) {
	m := &Metadata{
		Schema:    s,
		keySets:   make(map[string][]string),
		keyFields: make(map[string]bool),
		shareable: make(map[string]bool),
		externals: make(map[string]bool),
		overrides: make(map[string]string),
		provides:  make(map[string]string),
		requires:  make(map[string]string),
	}

	for _, t := range s.Types() {
		if t.Kind() != som.TypeKindObject {
			continue
		}
		typeShareable := len(t.DirectivesNamed(DirectiveShareable)) > 0

		for _, keyDir := range t.DirectivesNamed(DirectiveKey) {
			fields, err := directiveFieldSet(keyDir, t.Name())
			if err != nil {
				return nil, err
			}
			m.keySets[t.Name()] = append(m.keySets[t.Name()], fields)
			sel, err := language.ParseFieldSet(fields)
			if err != nil {
				return nil, fmt.Errorf("invalid @key field set on type %q: %w", t.Name(), err)
			}
			if err := m.markKeyFields(t, sel); err != nil {
				return nil, err
			}
		}

		for _, f := range t.Fields() {
			coord := Coordinate(t.Name(), f.Name())
			if typeShareable || f.DirectiveNamed(DirectiveShareable) != nil {
				m.shareable[coord] = true
			}
			if f.DirectiveNamed(DirectiveExternal) != nil {
				m.externals[coord] = true
			}
			if d := f.DirectiveNamed(DirectiveOverride); d != nil {
				from := d.Argument("from")
				if from == nil || from.Kind != som.StringValue {
					return nil, fmt.Errorf("@override on %q requires a string 'from' argument", coord)
				}
				m.overrides[coord] = from.Str
			}
			if d := f.DirectiveNamed(DirectiveProvides); d != nil {
				fields, err := directiveFieldSet(d, coord)
				if err != nil {
					return nil, err
				}
				m.provides[coord] = fields
			}
			if d := f.DirectiveNamed(DirectiveRequires); d != nil {
				fields, err := directiveFieldSet(d, coord)
				if err != nil {
					return nil, err
				}
				m.requires[coord] = fields
			}
		}
	}

	// Key fields are implicitly shareable.
	for coord := range m.keyFields {
		m.shareable[coord] = true
	}

	// A field reachable from a @provides selection is shareable when its
	// own declaration is @external in this subgraph.
	for coord, fields := range m.provides {
		typeName, fieldName := splitCoordinate(coord)
		f := s.Type(typeName).Field(fieldName)
		ret := baseTypeOf(f.Type())
		if ret == nil || ret.Kind() != som.TypeKindObject {
			continue
		}
		sel, err := language.ParseFieldSet(fields)
		if err != nil {
			return nil, fmt.Errorf("invalid @provides field set on %q: %w", coord, err)
		}
		m.markProvidedShareable(ret, sel)
	}

	return m, nil
}

// markKeyFields records every field named by the key selection, following
// nested selections into the field's base type.
func (m *Metadata) markKeyFields(t *som.Type, sel language.SelectionSet) error {
	for _, s := range sel {
		field, ok := s.(*language.Field)
		if !ok {
			return fmt.Errorf("@key field set on type %q may contain only fields", t.Name())
		}
		def := t.Field(field.Name)
		if def == nil {
			return fmt.Errorf("@key on type %q names unknown field %q", t.Name(), field.Name)
		}
		m.keyFields[Coordinate(t.Name(), field.Name)] = true
		if len(field.SelectionSet) > 0 {
			inner := baseTypeOf(def.Type())
			if inner == nil || inner.Kind() != som.TypeKindObject {
				return fmt.Errorf("@key on type %q selects into non-object field %q", t.Name(), field.Name)
			}
			if err := m.markKeyFields(inner, field.SelectionSet); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Metadata) markProvidedShareable(t *som.Type, sel language.SelectionSet) {
	for _, s := range sel {
		field, ok := s.(*language.Field)
		if !ok {
			continue
		}
		def := t.Field(field.Name)
		if def == nil {
			continue
		}
		coord := Coordinate(t.Name(), field.Name)
		if m.externals[coord] {
			m.shareable[coord] = true
		}
		if len(field.SelectionSet) > 0 {
			if inner := baseTypeOf(def.Type()); inner != nil && inner.Kind() == som.TypeKindObject {
				m.markProvidedShareable(inner, field.SelectionSet)
			}
		}
	}
}

// Keys returns the key field sets declared on the named type, in
// application order.
func (m *Metadata) Keys(typeName string) []string { return m.keySets[typeName] }

// IsKeyField reports whether the coordinate appears in any @key selection
// of its parent type.
func (m *Metadata) IsKeyField(coord string) bool { return m.keyFields[coord] }

// IsShareable reports whether the field may be resolved by more than one
// subgraph.
func (m *Metadata) IsShareable(coord string) bool { return m.shareable[coord] }

// IsExternal reports whether the field is declared but resolved elsewhere.
func (m *Metadata) IsExternal(coord string) bool { return m.externals[coord] }

// OverrideFrom returns the subgraph named by @override(from:) on the
// field, if any.
func (m *Metadata) OverrideFrom(coord string) (string, bool) {
	from, ok := m.overrides[coord]
	return from, ok
}

// Provides returns the @provides field set of the field, if any.
func (m *Metadata) Provides(coord string) (string, bool) {
	fields, ok := m.provides[coord]
	return fields, ok
}

// Requires returns the @requires field set of the field, if any.
func (m *Metadata) Requires(coord string) (string, bool) {
	fields, ok := m.requires[coord]
	return fields, ok
}

// FieldSetMentions reports whether any @provides or @requires selection in
// the subgraph mentions the coordinate.
func (m *Metadata) FieldSetMentions(coord string) bool {
	typeName, fieldName := splitCoordinate(coord)
	for ownerCoord, fields := range m.provides {
		f := m.fieldFor(ownerCoord)
		if f == nil {
			continue
		}
		if ret := baseTypeOf(f.Type()); ret != nil && mentions(ret, fields, typeName, fieldName) {
			return true
		}
	}
	for ownerCoord, fields := range m.requires {
		owner, _ := splitCoordinate(ownerCoord)
		if mentions(m.Schema.Type(owner), fields, typeName, fieldName) {
			return true
		}
	}
	return false
}

func (m *Metadata) fieldFor(coord string) *som.FieldDefinition {
	typeName, fieldName := splitCoordinate(coord)
	t := m.Schema.Type(typeName)
	if t == nil {
		return nil
	}
	return t.Field(fieldName)
}

func mentions(t *som.Type, fields, typeName, fieldName string) bool {
	if t == nil {
		return false
	}
	sel, err := language.ParseFieldSet(fields)
	if err != nil {
		return false
	}
	return selectionMentions(t, sel, typeName, fieldName)
}

func selectionMentions(t *som.Type, sel language.SelectionSet, typeName, fieldName string) bool {
	for _, s := range sel {
		field, ok := s.(*language.Field)
		if !ok {
			continue
		}
		if t.Name() == typeName && field.Name == fieldName {
			return true
		}
		def := t.Field(field.Name)
		if def == nil || len(field.SelectionSet) == 0 {
			continue
		}
		if inner := baseTypeOf(def.Type()); inner != nil {
			if selectionMentions(inner, field.SelectionSet, typeName, fieldName) {
				return true
			}
		}
	}
	return false
}

func directiveFieldSet(d *som.Directive, where string) (string, error) {
	v := d.Argument("fields")
	if v == nil || v.Kind != som.StringValue {
		return "", fmt.Errorf("@%s on %q requires a string 'fields' argument", d.Name(), where)
	}
	return v.Str, nil
}

func baseTypeOf(expr som.TypeExpr) *som.Type {
	if expr == nil {
		return nil
	}
	return expr.BaseType()
}

func splitCoordinate(coord string) (typeName, fieldName string) {
	for i := 0; i < len(coord); i++ {
		if coord[i] == '.' {
			return coord[:i], coord[i+1:]
		}
	}
	return coord, ""
}
