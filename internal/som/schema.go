package som

// element is any schema element that may carry applied directives.
type element interface {
	ownerSchema() *Schema
	detachDirective(d *Directive)
}

// Schema is the root of the object model. It exclusively owns its named
// types, its directive definitions and its schema definition. The five
// built-in scalars live in a map disjoint from the user-type map.
//
// A schema is either mutable or immutable. The immutable view exposes only
// readers; every mutator checks the tag and fails fast. Conversion between
// the views is by total deep copy (ToMutable / ToImmutable).
type Schema struct {
	mutable bool

	typeOrder []string
	types     map[string]*Type
	builtins  map[string]*Type

	directiveOrder []string
	directives     map[string]*DirectiveDefinition

	def *SchemaDefinition
}

// BuiltInScalarNames lists the built-in scalar names every schema carries.
var BuiltInScalarNames = []string{"Int", "Float", "String", "Boolean", "ID"}

// NewSchema creates an empty mutable schema with the built-in scalars and
// an empty schema definition.
func NewSchema() *Schema {
	s := &Schema{
		mutable:    true,
		types:      make(map[string]*Type),
		builtins:   make(map[string]*Type),
		directives: make(map[string]*DirectiveDefinition),
	}
	s.def = &SchemaDefinition{owner: s}
	for _, name := range BuiltInScalarNames {
		s.builtins[name] = &Type{owner: s, name: name, kind: TypeKindScalar, builtin: true}
	}
	return s
}

// Mutable reports which view this schema is.
func (s *Schema) Mutable() bool { return s.mutable }

// Definition returns the schema definition carrying the root operation
// assignments.
func (s *Schema) Definition() *SchemaDefinition { return s.def }

// Types returns the user-defined named types in insertion order.
func (s *Schema) Types() []*Type {
	out := make([]*Type, 0, len(s.typeOrder))
	for _, name := range s.typeOrder {
		out = append(out, s.types[name])
	}
	return out
}

// Type resolves a name against the user-type map, then the built-ins.
// Returns nil if the name is unknown.
func (s *Schema) Type(name string) *Type {
	if t, ok := s.types[name]; ok {
		return t
	}
	return s.builtins[name]
}

// BuiltIn returns the built-in scalar with the given name, or nil.
func (s *Schema) BuiltIn(name string) *Type { return s.builtins[name] }

// Directives returns the directive definitions in insertion order.
func (s *Schema) Directives() []*DirectiveDefinition {
	out := make([]*DirectiveDefinition, 0, len(s.directiveOrder))
	for _, name := range s.directiveOrder {
		out = append(out, s.directives[name])
	}
	return out
}

// Directive returns the directive definition with the given name, or nil.
func (s *Schema) Directive(name string) *DirectiveDefinition {
	return s.directives[name]
}

// AddObjectType returns the existing type if name is already defined as an
// object, or creates a new one. A name defined with a different kind is a
// conflict.
func (s *Schema) AddObjectType(name string) (*Type, error) {
	return s.addType(name, TypeKindObject)
}

// AddScalarType adds a user scalar. Built-in scalar names are reserved.
func (s *Schema) AddScalarType(name string) (*Type, error) {
	return s.addType(name, TypeKindScalar)
}

// AddUnionType adds a union type with no members.
func (s *Schema) AddUnionType(name string) (*Type, error) {
	return s.addType(name, TypeKindUnion)
}

// AddInputObjectType adds an input object type with no input fields.
func (s *Schema) AddInputObjectType(name string) (*Type, error) {
	return s.addType(name, TypeKindInputObject)
}

func (s *Schema) addType(name string, kind TypeKind) (*Type, error) {
	if !s.mutable {
		return nil, errImmutable("add type " + name)
	}
	if _, ok := s.builtins[name]; ok {
		return nil, errBuiltInCollision(name)
	}
	if existing, ok := s.types[name]; ok {
		if existing.kind != kind {
			return nil, errTypeKindConflict(name, existing.kind, kind)
		}
		return existing, nil
	}
	t := &Type{owner: s, name: name, kind: kind}
	if kind == TypeKindObject {
		t.fields = make(map[string]*FieldDefinition)
	}
	if kind == TypeKindInputObject {
		t.inputFields = make(map[string]*InputFieldDefinition)
	}
	s.types[name] = t
	s.typeOrder = append(s.typeOrder, name)
	return t, nil
}

func (s *Schema) detachType(t *Type) {
	if t.builtin {
		// Built-ins are owned by the schema for its whole lifetime.
		panic("som: remove of built-in scalar " + t.name)
	}
	delete(s.types, t.name)
	for i, name := range s.typeOrder {
		if name == t.name {
			s.typeOrder = append(s.typeOrder[:i], s.typeOrder[i+1:]...)
			break
		}
	}
}

// AddDirectiveDefinition adds an empty directive definition.
func (s *Schema) AddDirectiveDefinition(name string) (*DirectiveDefinition, error) {
	if !s.mutable {
		return nil, errImmutable("add directive @" + name)
	}
	if _, ok := s.directives[name]; ok {
		return nil, errDuplicateDirective(name)
	}
	d := &DirectiveDefinition{owner: s, name: name, args: make(map[string]*ArgumentDefinition)}
	s.directives[name] = d
	s.directiveOrder = append(s.directiveOrder, name)
	return d, nil
}

func (s *Schema) detachDirectiveDefinition(d *DirectiveDefinition) {
	delete(s.directives, d.name)
	for i, name := range s.directiveOrder {
		if name == d.name {
			s.directiveOrder = append(s.directiveOrder[:i], s.directiveOrder[i+1:]...)
			break
		}
	}
}

// SchemaDefinition carries the root operation assignments and the
// directives applied to the schema itself.
type SchemaDefinition struct {
	owner        *Schema
	query        *Type
	mutation     *Type
	subscription *Type
	directives   []*Directive
}

func (d *SchemaDefinition) QueryType() *Type        { return d.query }
func (d *SchemaDefinition) MutationType() *Type     { return d.mutation }
func (d *SchemaDefinition) SubscriptionType() *Type { return d.subscription }

// Directives returns the directives applied to the schema definition.
func (d *SchemaDefinition) Directives() []*Directive { return d.directives }

// ApplyDirective attaches a directive application to the schema definition.
// Duplicate applications are kept.
func (d *SchemaDefinition) ApplyDirective(name string, args ...*DirectiveArgument) (*Directive, error) {
	return applyDirective(d, &d.directives, name, args)
}

// SetQueryType assigns the query root. Pass nil to clear.
func (d *SchemaDefinition) SetQueryType(t *Type) error {
	return d.setRoot(&d.query, t, "query")
}

// SetMutationType assigns the mutation root. Pass nil to clear.
func (d *SchemaDefinition) SetMutationType(t *Type) error {
	return d.setRoot(&d.mutation, t, "mutation")
}

// SetSubscriptionType assigns the subscription root. Pass nil to clear.
func (d *SchemaDefinition) SetSubscriptionType(t *Type) error {
	return d.setRoot(&d.subscription, t, "subscription")
}

func (d *SchemaDefinition) setRoot(slot **Type, t *Type, op string) error {
	if !d.owner.mutable {
		return errImmutable("set " + op + " root")
	}
	if t != nil {
		if t.owner == nil {
			return errDetachedTypeReference(t.name)
		}
		if t.owner != d.owner {
			return errCrossSchemaReference(t.name)
		}
		if t.kind != TypeKindObject {
			return errNotObjectType("set "+op+" root", t.name)
		}
	}
	old := *slot
	*slot = t
	if old != nil && !d.references(old) {
		old.referencers.remove(d)
	}
	if t != nil {
		t.referencers.add(d)
	}
	return nil
}

func (d *SchemaDefinition) references(t *Type) bool {
	return d.query == t || d.mutation == t || d.subscription == t
}

// Coordinate implements Referencer.
func (d *SchemaDefinition) Coordinate() string { return "schema" }

// removeTypeReference drops any root binding pointing at t.
func (d *SchemaDefinition) removeTypeReference(t *Type) {
	if d.query == t {
		d.query = nil
	}
	if d.mutation == t {
		d.mutation = nil
	}
	if d.subscription == t {
		d.subscription = nil
	}
}

func (d *SchemaDefinition) ownerSchema() *Schema { return d.owner }

func (d *SchemaDefinition) detachDirective(dir *Directive) {
	detachFromList(&d.directives, dir)
}

// applyDirective is the shared attach path for every element kind.
func applyDirective(e element, list *[]*Directive, name string, args []*DirectiveArgument) (*Directive, error) {
	s := e.ownerSchema()
	if s == nil {
		return nil, errDetachedUse("apply directive @" + name)
	}
	if !s.mutable {
		return nil, errImmutable("apply directive @" + name)
	}
	d := &Directive{parent: e, name: name, args: args}
	*list = append(*list, d)
	return d, nil
}

func detachFromList(list *[]*Directive, d *Directive) {
	for i, item := range *list {
		if item == d {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}
