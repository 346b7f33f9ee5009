package som

import (
	"sort"
	"strings"
)

// Directive is a single application of a directive to a schema element.
// The name should resolve to a DirectiveDefinition in the same schema; this
// is not enforced at application time.
type Directive struct {
	parent element
	name   string
	args   []*DirectiveArgument
}

// DirectiveArgument is one named argument of a directive application,
// preserved in written order.
type DirectiveArgument struct {
	Name  string
	Value *Value
}

// Arg is a convenience constructor for a directive argument.
func Arg(name string, value *Value) *DirectiveArgument {
	return &DirectiveArgument{Name: name, Value: value}
}

func (d *Directive) Name() string { return d.name }

// Arguments returns the applied arguments in written order.
func (d *Directive) Arguments() []*DirectiveArgument { return d.args }

// Argument returns the value of the named argument, or nil.
func (d *Directive) Argument(name string) *Value {
	for _, a := range d.args {
		if a.Name == name {
			return a.Value
		}
	}
	return nil
}

// Equal reports whether two applications have the same name and deeply
// equal argument maps. Argument order is irrelevant.
func (d *Directive) Equal(other *Directive) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.name != other.name || len(d.args) != len(other.args) {
		return false
	}
	byName := make(map[string]*Value, len(other.args))
	for _, a := range other.args {
		byName[a.Name] = a.Value
	}
	for _, a := range d.args {
		ov, ok := byName[a.Name]
		if !ok || !a.Value.Equal(ov) {
			return false
		}
	}
	return true
}

// String renders the application in canonical form with arguments sorted
// by name, e.g. `@key(fields: "id")`.
func (d *Directive) String() string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(d.name)
	if len(d.args) > 0 {
		parts := make([]string, len(d.args))
		for i, a := range d.args {
			parts[i] = a.Name + ": " + a.Value.String()
		}
		sort.Strings(parts)
		b.WriteString("(")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// sourceString renders the application preserving written argument order,
// used by the SDL renderer.
func (d *Directive) sourceString() string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(d.name)
	if len(d.args) > 0 {
		parts := make([]string, len(d.args))
		for i, a := range d.args {
			parts[i] = a.Name + ": " + a.Value.String()
		}
		b.WriteString("(")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Remove detaches the application from the element it annotates. It never
// has referencers, so the returned list is always empty.
func (d *Directive) Remove() []Referencer {
	if d.parent == nil {
		return nil
	}
	d.parent.detachDirective(d)
	d.parent = nil
	d.args = nil
	return nil
}

func (d *Directive) copy() *Directive {
	c := &Directive{name: d.name}
	c.args = make([]*DirectiveArgument, len(d.args))
	for i, a := range d.args {
		c.args[i] = &DirectiveArgument{Name: a.Name, Value: a.Value.copy()}
	}
	return c
}

// DirectiveListEqual reports element-wise equality of two application
// lists.
func DirectiveListEqual(a, b []*Directive) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
