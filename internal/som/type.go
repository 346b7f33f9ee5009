package som

// TypeKind discriminates the supported named type kinds. Interface and
// enum types are planned but not supported yet; building them raises a
// NotImplementedError.
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeExpr is a reference to a type, possibly wrapped in list types.
// It is implemented by *Type and *ListType.
type TypeExpr interface {
	// BaseType returns the eventual named type under any list wrappers.
	BaseType() *Type
	// String renders the reference in SDL syntax.
	String() string
}

// ListType is a lightweight recursive wrapper over any type expression.
type ListType struct {
	OfType TypeExpr
}

// NewListType wraps expr in a list.
func NewListType(expr TypeExpr) *ListType { return &ListType{OfType: expr} }

func (l *ListType) BaseType() *Type { return l.OfType.BaseType() }
func (l *ListType) String() string  { return "[" + l.OfType.String() + "]" }

// Type is a named type owned by exactly one schema. Fields, input fields
// and applied directives are owned by the type; other elements reference
// the type weakly through its referencer set.
type Type struct {
	owner   *Schema
	name    string
	kind    TypeKind
	builtin bool

	directives []*Directive

	fieldOrder []string
	fields     map[string]*FieldDefinition

	inputOrder  []string
	inputFields map[string]*InputFieldDefinition

	members []*Type

	referencers referencerSet
}

func (t *Type) Name() string     { return t.name }
func (t *Type) Kind() TypeKind   { return t.kind }
func (t *Type) Schema() *Schema  { return t.owner }
func (t *Type) IsBuiltIn() bool  { return t.builtin }
func (t *Type) BaseType() *Type  { return t }
func (t *Type) String() string   { return t.name }

// Directives returns the directives applied to the type, in application
// order.
func (t *Type) Directives() []*Directive { return t.directives }

// DirectivesNamed returns every application of the named directive.
func (t *Type) DirectivesNamed(name string) []*Directive {
	var out []*Directive
	for _, d := range t.directives {
		if d.name == name {
			out = append(out, d)
		}
	}
	return out
}

// ApplyDirective attaches a directive application to the type. Duplicate
// applications are kept.
func (t *Type) ApplyDirective(name string, args ...*DirectiveArgument) (*Directive, error) {
	return applyDirective(t, &t.directives, name, args)
}

// Referencers returns the elements currently referencing this type.
func (t *Type) Referencers() []Referencer { return t.referencers.list() }

// Fields returns the object fields in insertion order.
func (t *Type) Fields() []*FieldDefinition {
	out := make([]*FieldDefinition, 0, len(t.fieldOrder))
	for _, name := range t.fieldOrder {
		out = append(out, t.fields[name])
	}
	return out
}

// Field returns the named field, or nil.
func (t *Type) Field(name string) *FieldDefinition {
	if t.fields == nil {
		return nil
	}
	return t.fields[name]
}

// AddField adds an output field to an object type. The field type must be
// attached to the same schema; detached or cross-schema types are
// rejected so that the referencer edge can be wired.
func (t *Type) AddField(name string, typ TypeExpr) (*FieldDefinition, error) {
	if t.kind != TypeKindObject {
		return nil, errWrongKind("add field "+name, t.name, t.kind)
	}
	if t.owner == nil {
		return nil, errDetachedUse("add field " + name)
	}
	if !t.owner.mutable {
		return nil, errImmutable("add field " + name)
	}
	if _, ok := t.fields[name]; ok {
		return nil, errDuplicateField(t.name, name)
	}
	if err := t.checkReference(typ); err != nil {
		return nil, err
	}
	f := &FieldDefinition{parent: t, name: name, typ: typ, args: make(map[string]*ArgumentDefinition)}
	t.fields[name] = f
	t.fieldOrder = append(t.fieldOrder, name)
	typ.BaseType().referencers.add(f)
	return f, nil
}

// InputFields returns the input object fields in insertion order.
func (t *Type) InputFields() []*InputFieldDefinition {
	out := make([]*InputFieldDefinition, 0, len(t.inputOrder))
	for _, name := range t.inputOrder {
		out = append(out, t.inputFields[name])
	}
	return out
}

// InputField returns the named input field, or nil.
func (t *Type) InputField(name string) *InputFieldDefinition {
	if t.inputFields == nil {
		return nil
	}
	return t.inputFields[name]
}

// AddInputField adds an input field to an input object type.
func (t *Type) AddInputField(name string, typ TypeExpr) (*InputFieldDefinition, error) {
	if t.kind != TypeKindInputObject {
		return nil, errWrongKind("add input field "+name, t.name, t.kind)
	}
	if t.owner == nil {
		return nil, errDetachedUse("add input field " + name)
	}
	if !t.owner.mutable {
		return nil, errImmutable("add input field " + name)
	}
	if _, ok := t.inputFields[name]; ok {
		return nil, errDuplicateField(t.name, name)
	}
	if err := t.checkReference(typ); err != nil {
		return nil, err
	}
	f := &InputFieldDefinition{parent: t, name: name, typ: typ}
	t.inputFields[name] = f
	t.inputOrder = append(t.inputOrder, name)
	typ.BaseType().referencers.add(f)
	return f, nil
}

// Members returns the union member types in insertion order.
func (t *Type) Members() []*Type { return t.members }

// AddMember adds an object type to a union. The union becomes a
// referencer of the member.
func (t *Type) AddMember(member *Type) error {
	if t.kind != TypeKindUnion {
		return errWrongKind("add member "+member.name, t.name, t.kind)
	}
	if t.owner == nil {
		return errDetachedUse("add member " + member.name)
	}
	if !t.owner.mutable {
		return errImmutable("add member " + member.name)
	}
	if member.owner == nil {
		return errDetachedTypeReference(member.name)
	}
	if member.owner != t.owner {
		return errCrossSchemaReference(member.name)
	}
	if member.kind != TypeKindObject {
		return errNotObjectType("add member to union "+t.name, member.name)
	}
	for _, m := range t.members {
		if m == member {
			return errDuplicateField(t.name, member.name)
		}
	}
	t.members = append(t.members, member)
	member.referencers.add(t)
	return nil
}

func (t *Type) checkReference(typ TypeExpr) error {
	base := typ.BaseType()
	if base.owner == nil {
		return errDetachedTypeReference(base.name)
	}
	if base.owner != t.owner {
		return errCrossSchemaReference(base.name)
	}
	return nil
}

// Coordinate implements Referencer.
func (t *Type) Coordinate() string { return t.name }

// removeTypeReference drops the removed type from the member list. Only
// union types hold direct type references; for any other kind being
// called here is a referencer desync.
func (t *Type) removeTypeReference(removed *Type) {
	if t.kind != TypeKindUnion {
		panic("som: removeTypeReference on " + string(t.kind) + " type " + t.name)
	}
	for i, m := range t.members {
		if m == removed {
			t.members = append(t.members[:i], t.members[i+1:]...)
			return
		}
	}
}

// Remove detaches the type from its schema, recursively removes every
// owned child and notifies every referencer. The returned referencers may
// be left with dangling references for the caller to repair or report.
// A removed type is dead; further mutation is undefined.
func (t *Type) Remove() []Referencer {
	if t.owner == nil {
		return nil
	}
	t.owner.detachType(t)

	for len(t.directives) > 0 {
		t.directives[0].Remove()
	}
	for _, name := range append([]string(nil), t.fieldOrder...) {
		t.fields[name].Remove()
	}
	for _, name := range append([]string(nil), t.inputOrder...) {
		t.inputFields[name].Remove()
	}
	for _, m := range t.members {
		m.referencers.remove(t)
	}
	t.members = nil

	refs := t.referencers.list()
	for _, r := range refs {
		r.removeTypeReference(t)
	}
	t.referencers.clear()
	t.owner = nil
	return refs
}

func (t *Type) ownerSchema() *Schema { return t.owner }

func (t *Type) detachDirective(d *Directive) {
	detachFromList(&t.directives, d)
}
