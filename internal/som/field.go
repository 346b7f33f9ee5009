package som

// NewFieldDefinition creates a detached field definition. The planner uses
// this for the synthetic meta fields (__typename, __schema, __type) that
// belong to no object type; attached fields are always created through
// Type.AddField.
func NewFieldDefinition(name string, typ TypeExpr) *FieldDefinition {
	return &FieldDefinition{name: name, typ: typ, args: make(map[string]*ArgumentDefinition)}
}

// FieldDefinition is an output field owned by exactly one object type.
type FieldDefinition struct {
	parent *Type
	name   string
	typ    TypeExpr

	directives []*Directive

	argOrder []string
	args     map[string]*ArgumentDefinition
}

func (f *FieldDefinition) Name() string  { return f.name }
func (f *FieldDefinition) Parent() *Type { return f.parent }
func (f *FieldDefinition) Type() TypeExpr { return f.typ }

// Coordinate implements Referencer, e.g. "Product.price".
func (f *FieldDefinition) Coordinate() string {
	if f.parent == nil {
		return f.name
	}
	return f.parent.name + "." + f.name
}

// Directives returns the applied directives in application order.
func (f *FieldDefinition) Directives() []*Directive { return f.directives }

// DirectiveNamed returns the first application of the named directive, or
// nil.
func (f *FieldDefinition) DirectiveNamed(name string) *Directive {
	for _, d := range f.directives {
		if d.name == name {
			return d
		}
	}
	return nil
}

// ApplyDirective attaches a directive application. Duplicates are kept.
func (f *FieldDefinition) ApplyDirective(name string, args ...*DirectiveArgument) (*Directive, error) {
	return applyDirective(f, &f.directives, name, args)
}

// SetType replaces the field's output type, keeping the referencer sets of
// the old and new base types in sync.
func (f *FieldDefinition) SetType(typ TypeExpr) error {
	if f.parent == nil {
		return errDetachedUse("set type of field " + f.name)
	}
	if !f.parent.owner.mutable {
		return errImmutable("set type of field " + f.name)
	}
	if err := f.parent.checkReference(typ); err != nil {
		return err
	}
	if f.typ != nil {
		f.typ.BaseType().referencers.remove(f)
	}
	f.typ = typ
	typ.BaseType().referencers.add(f)
	return nil
}

// Arguments returns the argument definitions in insertion order.
func (f *FieldDefinition) Arguments() []*ArgumentDefinition {
	out := make([]*ArgumentDefinition, 0, len(f.argOrder))
	for _, name := range f.argOrder {
		out = append(out, f.args[name])
	}
	return out
}

// Argument returns the named argument definition, or nil.
func (f *FieldDefinition) Argument(name string) *ArgumentDefinition {
	if f.args == nil {
		return nil
	}
	return f.args[name]
}

// AddArgument adds an argument definition with an optional default value.
func (f *FieldDefinition) AddArgument(name string, typ TypeExpr, defaultValue *Value) (*ArgumentDefinition, error) {
	if f.parent == nil {
		return nil, errDetachedUse("add argument " + name)
	}
	if !f.parent.owner.mutable {
		return nil, errImmutable("add argument " + name)
	}
	if _, ok := f.args[name]; ok {
		return nil, errDuplicateArgument(f.Coordinate(), name)
	}
	if err := f.parent.checkReference(typ); err != nil {
		return nil, err
	}
	a := &ArgumentDefinition{host: f, name: name, typ: typ, defaultValue: defaultValue}
	f.args[name] = a
	f.argOrder = append(f.argOrder, name)
	typ.BaseType().referencers.add(a)
	return a, nil
}

// Remove detaches the field from its parent type, removes its arguments
// and applied directives, and deregisters it from its type's referencer
// set. Fields have no referencers, so the returned list is always empty.
func (f *FieldDefinition) Remove() []Referencer {
	if f.parent == nil {
		return nil
	}
	delete(f.parent.fields, f.name)
	removeName(&f.parent.fieldOrder, f.name)

	for len(f.directives) > 0 {
		f.directives[0].Remove()
	}
	for _, name := range append([]string(nil), f.argOrder...) {
		f.args[name].Remove()
	}
	if f.typ != nil {
		if base := f.typ.BaseType(); base != nil {
			base.referencers.remove(f)
		}
	}
	f.typ = nil
	f.parent = nil
	return nil
}

// removeTypeReference clears the field's type if it points at the removed
// type, leaving the field with a detached reference.
func (f *FieldDefinition) removeTypeReference(t *Type) {
	if f.typ != nil && f.typ.BaseType() == t {
		f.typ = nil
	}
}

func (f *FieldDefinition) ownerSchema() *Schema {
	if f.parent == nil {
		return nil
	}
	return f.parent.owner
}

func (f *FieldDefinition) detachDirective(d *Directive) {
	detachFromList(&f.directives, d)
}

func (f *FieldDefinition) detachArgument(name string) {
	delete(f.args, name)
	removeName(&f.argOrder, name)
}

// InputFieldDefinition is a field owned by exactly one input object type.
type InputFieldDefinition struct {
	parent *Type
	name   string
	typ    TypeExpr

	defaultValue *Value
	directives   []*Directive
}

func (f *InputFieldDefinition) Name() string         { return f.name }
func (f *InputFieldDefinition) Parent() *Type        { return f.parent }
func (f *InputFieldDefinition) Type() TypeExpr       { return f.typ }
func (f *InputFieldDefinition) DefaultValue() *Value { return f.defaultValue }

// Coordinate implements Referencer.
func (f *InputFieldDefinition) Coordinate() string {
	if f.parent == nil {
		return f.name
	}
	return f.parent.name + "." + f.name
}

// Directives returns the applied directives in application order.
func (f *InputFieldDefinition) Directives() []*Directive { return f.directives }

// ApplyDirective attaches a directive application. Duplicates are kept.
func (f *InputFieldDefinition) ApplyDirective(name string, args ...*DirectiveArgument) (*Directive, error) {
	return applyDirective(f, &f.directives, name, args)
}

// SetDefaultValue sets the input field's default.
func (f *InputFieldDefinition) SetDefaultValue(v *Value) error {
	if f.parent == nil {
		return errDetachedUse("set default of input field " + f.name)
	}
	if !f.parent.owner.mutable {
		return errImmutable("set default of input field " + f.name)
	}
	f.defaultValue = v
	return nil
}

// SetType replaces the input field's type.
func (f *InputFieldDefinition) SetType(typ TypeExpr) error {
	if f.parent == nil {
		return errDetachedUse("set type of input field " + f.name)
	}
	if !f.parent.owner.mutable {
		return errImmutable("set type of input field " + f.name)
	}
	if err := f.parent.checkReference(typ); err != nil {
		return err
	}
	if f.typ != nil {
		f.typ.BaseType().referencers.remove(f)
	}
	f.typ = typ
	typ.BaseType().referencers.add(f)
	return nil
}

// Remove detaches the input field from its parent.
func (f *InputFieldDefinition) Remove() []Referencer {
	if f.parent == nil {
		return nil
	}
	delete(f.parent.inputFields, f.name)
	removeName(&f.parent.inputOrder, f.name)

	for len(f.directives) > 0 {
		f.directives[0].Remove()
	}
	if f.typ != nil {
		if base := f.typ.BaseType(); base != nil {
			base.referencers.remove(f)
		}
	}
	f.typ = nil
	f.defaultValue = nil
	f.parent = nil
	return nil
}

func (f *InputFieldDefinition) removeTypeReference(t *Type) {
	if f.typ != nil && f.typ.BaseType() == t {
		f.typ = nil
	}
}

func (f *InputFieldDefinition) ownerSchema() *Schema {
	if f.parent == nil {
		return nil
	}
	return f.parent.owner
}

func (f *InputFieldDefinition) detachDirective(d *Directive) {
	detachFromList(&f.directives, d)
}

// argumentHost is the owner of an argument definition: a field definition
// or a directive definition.
type argumentHost interface {
	ownerSchema() *Schema
	detachArgument(name string)
	Coordinate() string
}

// ArgumentDefinition is an argument owned by a field definition or a
// directive definition.
type ArgumentDefinition struct {
	host         argumentHost
	name         string
	typ          TypeExpr
	defaultValue *Value
	directives   []*Directive
}

func (a *ArgumentDefinition) Name() string         { return a.name }
func (a *ArgumentDefinition) Type() TypeExpr       { return a.typ }
func (a *ArgumentDefinition) DefaultValue() *Value { return a.defaultValue }

// Coordinate implements Referencer, e.g. "Query.product(id:)".
func (a *ArgumentDefinition) Coordinate() string {
	if a.host == nil {
		return a.name
	}
	return a.host.Coordinate() + "(" + a.name + ":)"
}

// Directives returns the applied directives in application order.
func (a *ArgumentDefinition) Directives() []*Directive { return a.directives }

// ApplyDirective attaches a directive application. Duplicates are kept.
func (a *ArgumentDefinition) ApplyDirective(name string, args ...*DirectiveArgument) (*Directive, error) {
	return applyDirective(a, &a.directives, name, args)
}

// Remove detaches the argument from its host.
func (a *ArgumentDefinition) Remove() []Referencer {
	if a.host == nil {
		return nil
	}
	a.host.detachArgument(a.name)
	for len(a.directives) > 0 {
		a.directives[0].Remove()
	}
	if a.typ != nil {
		if base := a.typ.BaseType(); base != nil {
			base.referencers.remove(a)
		}
	}
	a.typ = nil
	a.defaultValue = nil
	a.host = nil
	return nil
}

func (a *ArgumentDefinition) removeTypeReference(t *Type) {
	if a.typ != nil && a.typ.BaseType() == t {
		a.typ = nil
	}
}

func (a *ArgumentDefinition) ownerSchema() *Schema {
	if a.host == nil {
		return nil
	}
	return a.host.ownerSchema()
}

func (a *ArgumentDefinition) detachDirective(d *Directive) {
	detachFromList(&a.directives, d)
}

// DirectiveDefinition declares a directive owned by the schema.
type DirectiveDefinition struct {
	owner *Schema
	name  string

	argOrder []string
	args     map[string]*ArgumentDefinition

	locations  []string
	repeatable bool
}

func (d *DirectiveDefinition) Name() string         { return d.name }
func (d *DirectiveDefinition) Locations() []string  { return d.locations }
func (d *DirectiveDefinition) IsRepeatable() bool   { return d.repeatable }
func (d *DirectiveDefinition) Coordinate() string   { return "@" + d.name }
func (d *DirectiveDefinition) ownerSchema() *Schema { return d.owner }

// SetLocations replaces the declared locations.
func (d *DirectiveDefinition) SetLocations(locations ...string) *DirectiveDefinition {
	d.locations = locations
	return d
}

// SetRepeatable marks the directive repeatable.
func (d *DirectiveDefinition) SetRepeatable(v bool) *DirectiveDefinition {
	d.repeatable = v
	return d
}

// Arguments returns the argument definitions in insertion order.
func (d *DirectiveDefinition) Arguments() []*ArgumentDefinition {
	out := make([]*ArgumentDefinition, 0, len(d.argOrder))
	for _, name := range d.argOrder {
		out = append(out, d.args[name])
	}
	return out
}

// AddArgument adds an argument definition with an optional default value.
func (d *DirectiveDefinition) AddArgument(name string, typ TypeExpr, defaultValue *Value) (*ArgumentDefinition, error) {
	if d.owner == nil {
		return nil, errDetachedUse("add argument " + name)
	}
	if !d.owner.mutable {
		return nil, errImmutable("add argument " + name)
	}
	if _, ok := d.args[name]; ok {
		return nil, errDuplicateArgument(d.Coordinate(), name)
	}
	base := typ.BaseType()
	if base.owner == nil {
		return nil, errDetachedTypeReference(base.name)
	}
	if base.owner != d.owner {
		return nil, errCrossSchemaReference(base.name)
	}
	a := &ArgumentDefinition{host: d, name: name, typ: typ, defaultValue: defaultValue}
	d.args[name] = a
	d.argOrder = append(d.argOrder, name)
	base.referencers.add(a)
	return a, nil
}

func (d *DirectiveDefinition) detachArgument(name string) {
	delete(d.args, name)
	removeName(&d.argOrder, name)
}

func (d *DirectiveDefinition) detachDirective(*Directive) {
	panic("som: directive definitions carry no applied directives")
}

// Remove detaches the definition from the schema and removes its
// arguments.
func (d *DirectiveDefinition) Remove() []Referencer {
	if d.owner == nil {
		return nil
	}
	d.owner.detachDirectiveDefinition(d)
	for _, name := range append([]string(nil), d.argOrder...) {
		d.args[name].Remove()
	}
	d.owner = nil
	return nil
}

func removeName(list *[]string, name string) {
	for i, n := range *list {
		if n == name {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}
