// Package planning holds the query-planning context, the scope algebra
// and the field collector that translate an operation against a composed
// supergraph into per-service field sets.
package planning

import (
	"fmt"

	federation "github.com/hanpama/supergraph/internal/federation"
	language "github.com/hanpama/supergraph/internal/language"
	som "github.com/hanpama/supergraph/internal/som"
)

// Context carries everything one planning run needs: the composed
// schema, the operation, its fragments and the variable-definition index.
// The operation is assumed to have passed GraphQL validation upstream.
type Context struct {
	Schema    *som.Schema
	Operation *language.OperationDefinition
	Fragments map[string]*language.FragmentDefinition

	variables map[string]*language.VariableDefinition
	metaCache map[string]*som.FieldDefinition
}

// NewContext indexes the operation's variable definitions and returns a
// ready context.
func NewContext(schema *som.Schema, op *language.OperationDefinition, fragments map[string]*language.FragmentDefinition) *Context {
	c := &Context{
		Schema:    schema,
		Operation: op,
		Fragments: fragments,
		variables: make(map[string]*language.VariableDefinition),
		metaCache: make(map[string]*som.FieldDefinition),
	}
	for _, vd := range op.VariableDefinitions {
		c.variables[vd.Variable] = vd
	}
	return c
}

// NewContextFromDocument selects the named operation (or the only one)
// from a parsed query document and builds a context for it.
func NewContextFromDocument(schema *som.Schema, doc *language.QueryDocument, operationName string) (*Context, error) {
	op := doc.Operations.ForName(operationName)
	if op == nil && operationName == "" && len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	if op == nil {
		return nil, fmt.Errorf("operation %q not found", operationName)
	}
	fragments := make(map[string]*language.FragmentDefinition, len(doc.Fragments))
	for _, f := range doc.Fragments {
		fragments[f.Name] = f
	}
	return NewContext(schema, op, fragments), nil
}

// RootType returns the schema root for the operation's kind.
func (c *Context) RootType() (*som.Type, error) {
	def := c.Schema.Definition()
	var t *som.Type
	switch c.Operation.Operation {
	case language.Query:
		t = def.QueryType()
	case language.Mutation:
		t = def.MutationType()
	case language.Subscription:
		t = def.SubscriptionType()
	}
	if t == nil {
		return nil, fmt.Errorf("schema has no %s root type", c.Operation.Operation)
	}
	return t, nil
}

// Variable resolves a variable reference against the operation.
func (c *Context) Variable(name string) (*language.VariableDefinition, error) {
	vd, ok := c.variables[name]
	if !ok {
		return nil, fmt.Errorf("unknown variable $%s", name)
	}
	return vd, nil
}

// FieldDef looks up the definition a field node selects on the parent
// type, folding in the meta fields.
func (c *Context) FieldDef(parent *som.Type, node *language.Field) (*som.FieldDefinition, error) {
	switch node.Name {
	case "__typename":
		return c.metaField("__typename", c.Schema.BuiltIn("String")), nil
	case "__schema", "__type":
		if parent != c.Schema.Definition().QueryType() {
			return nil, fmt.Errorf("Cannot query field %q on type %q", node.Name, parent.Name())
		}
		return c.metaField(node.Name, nil), nil
	}
	f := parent.Field(node.Name)
	if f == nil {
		return nil, fmt.Errorf("Cannot query field %q on type %q", node.Name, parent.Name())
	}
	return f, nil
}

func (c *Context) metaField(name string, typ som.TypeExpr) *som.FieldDefinition {
	if f, ok := c.metaCache[name]; ok {
		return f
	}
	f := som.NewFieldDefinition(name, typ)
	c.metaCache[name] = f
	return f
}

// PossibleTypes returns the concrete runtime types a composite type can
// resolve to: the type itself for an object, the member set for a union.
func (c *Context) PossibleTypes(t *som.Type) []*som.Type {
	switch t.Kind() {
	case som.TypeKindObject:
		return []*som.Type{t}
	case som.TypeKindUnion:
		return t.Members()
	}
	return nil
}

// VariableUsages collects the names of every variable used in the
// selection, in first-use order, following fragment spreads.
func (c *Context) VariableUsages(sel language.SelectionSet) []string {
	var out []string
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	c.collectVariableUsages(sel, &out, seen, visited)
	return out
}

func (c *Context) collectVariableUsages(sel language.SelectionSet, out *[]string, seen, visited map[string]bool) {
	for _, s := range sel {
		switch node := s.(type) {
		case *language.Field:
			for _, a := range node.Arguments {
				collectValueVariables(a.Value, out, seen)
			}
			collectDirectiveVariables(node.Directives, out, seen)
			c.collectVariableUsages(node.SelectionSet, out, seen, visited)
		case *language.InlineFragment:
			collectDirectiveVariables(node.Directives, out, seen)
			c.collectVariableUsages(node.SelectionSet, out, seen, visited)
		case *language.FragmentSpread:
			collectDirectiveVariables(node.Directives, out, seen)
			if visited[node.Name] {
				continue
			}
			visited[node.Name] = true
			if frag, ok := c.Fragments[node.Name]; ok {
				c.collectVariableUsages(frag.SelectionSet, out, seen, visited)
			}
		}
	}
}

func collectDirectiveVariables(list language.DirectiveList, out *[]string, seen map[string]bool) {
	for _, d := range list {
		for _, a := range d.Arguments {
			collectValueVariables(a.Value, out, seen)
		}
	}
}

func collectValueVariables(v *language.Value, out *[]string, seen map[string]bool) {
	if v == nil {
		return
	}
	if v.Kind == language.Variable && !seen[v.Raw] {
		seen[v.Raw] = true
		*out = append(*out, v.Raw)
	}
	for _, child := range v.Children {
		collectValueVariables(child.Value, out, seen)
	}
}

// BaseService returns the graph that owns the type: the first
// @join__type application's graph.
func (c *Context) BaseService(t *som.Type) string {
	for _, d := range t.DirectivesNamed(federation.DirectiveJoinType) {
		if g := d.Argument("graph"); g != nil && g.Kind == som.EnumValue {
			return g.Str
		}
	}
	return ""
}

// OwningService returns the graph that resolves the field: its declared
// @join__field graph, falling back to the type's base graph.
func (c *Context) OwningService(t *som.Type, f *som.FieldDefinition) string {
	for _, d := range f.Directives() {
		if d.Name() != federation.DirectiveJoinField {
			continue
		}
		if ext := d.Argument("external"); ext != nil && ext.Kind == som.BooleanValue && ext.Bool {
			continue
		}
		if g := d.Argument("graph"); g != nil && g.Kind == som.EnumValue {
			return g.Str
		}
	}
	return c.BaseService(t)
}

// joinFieldFor returns the field's @join__field application for the given
// graph, or nil.
func joinFieldFor(f *som.FieldDefinition, service string) *som.Directive {
	for _, d := range f.Directives() {
		if d.Name() != federation.DirectiveJoinField {
			continue
		}
		if g := d.Argument("graph"); g != nil && g.Kind == som.EnumValue && g.Str == service {
			return d
		}
	}
	return nil
}

// keysFor returns the key field sets the type advertises for the given
// graph, in application order.
func keysFor(t *som.Type, service string) []string {
	var out []string
	for _, d := range t.DirectivesNamed(federation.DirectiveJoinType) {
		g := d.Argument("graph")
		if g == nil || g.Kind != som.EnumValue || g.Str != service {
			continue
		}
		if key := d.Argument("key"); key != nil && key.Kind == som.StringValue {
			out = append(out, key.Str)
		}
	}
	return out
}
