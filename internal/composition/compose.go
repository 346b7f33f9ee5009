// Package composition merges subgraph schemas into a supergraph annotated
// with per-subgraph provenance, rewriting @override into join metadata.
package composition

import (
	"fmt"

	federation "github.com/hanpama/supergraph/internal/federation"
	language "github.com/hanpama/supergraph/internal/language"
	som "github.com/hanpama/supergraph/internal/som"
)

// Subgraph is one input schema owned by a single service.
type Subgraph struct {
	Name     string
	URL      string
	TypeDefs *language.SchemaDocument
}

// NewSubgraph parses SDL into a subgraph record.
func NewSubgraph(name, url, sdl string) (*Subgraph, error) {
	doc, err := language.ParseSchema(name, sdl)
	if err != nil {
		return nil, err
	}
	return &Subgraph{Name: name, URL: url, TypeDefs: doc}, nil
}

// Result is a successful composition.
type Result struct {
	SupergraphSDL string
	Schema        *som.Schema // immutable
	Hints         []*Hint
}

// Compose merges the subgraphs in order. Composition errors are returned
// as a non-empty Errors value; malformed subgraph documents fail fast
// with a plain error.
func Compose(subgraphs []*Subgraph) (*Result, error) {
	c := &composer{
		subgraphs:           subgraphs,
		byName:              make(map[string]int, len(subgraphs)),
		overrideWinner:      make(map[string]int),
		overriddenSources:   make(map[string]map[int]bool),
		externalAnnotations: make(map[string][]int),
	}
	if err := c.buildSubgraphs(); err != nil {
		return nil, err
	}
	c.validateOverrides()
	c.checkFieldSharing()
	if len(c.errors) > 0 {
		return nil, c.errors
	}
	super, err := c.merge()
	if err != nil {
		return nil, err
	}
	sdl := joinDeclarations(c.subgraphs, c.graphNames) + som.Render(super)
	return &Result{
		SupergraphSDL: sdl,
		Schema:        super.ToImmutable(),
		Hints:         c.hints,
	}, nil
}

type composer struct {
	subgraphs  []*Subgraph
	schemas    []*som.Schema
	metas      []*federation.Metadata
	graphNames []string
	byName     map[string]int

	errors Errors
	hints  []*Hint

	// Override rewriting state, keyed by field coordinate.
	overrideWinner      map[string]int
	overriddenSources   map[string]map[int]bool
	externalAnnotations map[string][]int
}

func (c *composer) buildSubgraphs() error {
	c.schemas = make([]*som.Schema, len(c.subgraphs))
	c.metas = make([]*federation.Metadata, len(c.subgraphs))
	c.graphNames = make([]string, len(c.subgraphs))
	for i, sg := range c.subgraphs {
		if _, dup := c.byName[sg.Name]; dup {
			return fmt.Errorf("duplicate subgraph name %q", sg.Name)
		}
		c.byName[sg.Name] = i
		c.graphNames[i] = GraphEnumName(sg.Name)

		schema, err := som.BuildFromDocument(sg.TypeDefs)
		if err != nil {
			return fmt.Errorf("subgraph %q: %w", sg.Name, err)
		}
		meta, err := federation.Analyze(schema)
		if err != nil {
			return fmt.Errorf("subgraph %q: %w", sg.Name, err)
		}
		c.schemas[i] = schema
		c.metas[i] = meta
	}
	return nil
}

// rootRole reports whether t is a root operation type of subgraph si.
func (c *composer) rootRole(si int, t *som.Type) string {
	def := c.schemas[si].Definition()
	switch t {
	case def.QueryType():
		return "query"
	case def.MutationType():
		return "mutation"
	case def.SubscriptionType():
		return "subscription"
	}
	return ""
}

type mergedType struct {
	name     string
	kind     som.TypeKind
	definers []int
}

// merge builds the supergraph schema: one type per name, fields unioned,
// join directives recording provenance. Type order reflects merge order:
// subgraph order is stable, types within a subgraph keep insertion order.
func (c *composer) merge() (*som.Schema, error) {
	super := som.NewSchema()

	var order []*mergedType
	index := make(map[string]*mergedType)
	for si, schema := range c.schemas {
		for _, t := range schema.Types() {
			if c.rootRole(si, t) != "" {
				continue
			}
			entry, ok := index[t.Name()]
			if !ok {
				entry = &mergedType{name: t.Name(), kind: t.Kind()}
				index[t.Name()] = entry
				order = append(order, entry)
			} else if entry.kind != t.Kind() {
				return nil, fmt.Errorf(
					"type %q is %s in subgraph %q but %s elsewhere",
					t.Name(), t.Kind(), c.subgraphs[si].Name, entry.kind,
				)
			}
			entry.definers = append(entry.definers, si)
		}
	}

	for _, entry := range order {
		var err error
		switch entry.kind {
		case som.TypeKindScalar:
			_, err = super.AddScalarType(entry.name)
		case som.TypeKindObject:
			_, err = super.AddObjectType(entry.name)
		case som.TypeKindUnion:
			_, err = super.AddUnionType(entry.name)
		case som.TypeKindInputObject:
			_, err = super.AddInputObjectType(entry.name)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, entry := range order {
		if err := c.mergeType(super, entry); err != nil {
			return nil, err
		}
	}

	if err := c.mergeRoots(super); err != nil {
		return nil, err
	}

	def := super.Definition()
	if _, err := def.ApplyDirective(federation.DirectiveCore,
		som.Arg("feature", som.StringVal(coreFeatureURL))); err != nil {
		return nil, err
	}
	if _, err := def.ApplyDirective(federation.DirectiveCore,
		som.Arg("feature", som.StringVal(joinFeatureURL)),
		som.Arg("for", som.EnumVal("EXECUTION"))); err != nil {
		return nil, err
	}
	return super, nil
}

func (c *composer) mergeType(super *som.Schema, entry *mergedType) error {
	t := super.Type(entry.name)

	for _, si := range entry.definers {
		if err := c.applyJoinType(t, si, entry.name); err != nil {
			return err
		}
	}
	if err := c.copyTypeDirectives(t, entry); err != nil {
		return err
	}

	switch entry.kind {
	case som.TypeKindUnion:
		seen := make(map[string]bool)
		for _, si := range entry.definers {
			for _, m := range c.schemas[si].Type(entry.name).Members() {
				if seen[m.Name()] {
					continue
				}
				seen[m.Name()] = true
				member := super.Type(m.Name())
				if member == nil {
					return fmt.Errorf("union %q references unmerged type %q", entry.name, m.Name())
				}
				if err := t.AddMember(member); err != nil {
					return err
				}
			}
		}
	case som.TypeKindInputObject:
		for _, si := range entry.definers {
			for _, f := range c.schemas[si].Type(entry.name).InputFields() {
				if t.InputField(f.Name()) != nil {
					continue
				}
				typ, err := translateExpr(f.Type(), super)
				if err != nil {
					return err
				}
				merged, err := t.AddInputField(f.Name(), typ)
				if err != nil {
					return err
				}
				if dv := f.DefaultValue(); dv != nil {
					if err := merged.SetDefaultValue(dv.Copy()); err != nil {
						return err
					}
				}
			}
		}
	case som.TypeKindObject:
		sources := make([]fieldSource, 0, len(entry.definers))
		for _, si := range entry.definers {
			sources = append(sources, fieldSource{si: si, typ: c.schemas[si].Type(entry.name)})
		}
		if err := c.mergeObjectFields(super, t, sources); err != nil {
			return err
		}
	}
	return nil
}

type fieldSource struct {
	si  int
	typ *som.Type
}

// mergeObjectFields unions the fields of the per-subgraph declarations of
// one object type into the supergraph type, annotating provenance. The
// declaration that shapes the merged field is the overriding subgraph's
// when a valid override exists, otherwise the first declaring subgraph's;
// type mismatches silently favor that declaration.
func (c *composer) mergeObjectFields(super *som.Schema, t *som.Type, sources []fieldSource) error {
	var fieldOrder []string
	seen := make(map[string]bool)
	for _, src := range sources {
		for _, f := range src.typ.Fields() {
			if !seen[f.Name()] {
				seen[f.Name()] = true
				fieldOrder = append(fieldOrder, f.Name())
			}
		}
	}

	for _, name := range fieldOrder {
		coord := federation.Coordinate(t.Name(), name)

		declIdx := -1
		if winner, ok := c.overrideWinner[coord]; ok {
			declIdx = winner
		}
		var decl *som.FieldDefinition
		for _, src := range sources {
			if f := src.typ.Field(name); f != nil {
				if declIdx == -1 || src.si == declIdx {
					decl = f
					if declIdx == -1 {
						declIdx = src.si
					}
					break
				}
			}
		}
		if decl == nil {
			continue
		}

		typ, err := translateExpr(decl.Type(), super)
		if err != nil {
			return err
		}
		merged, err := t.AddField(name, typ)
		if err != nil {
			return err
		}
		for _, a := range decl.Arguments() {
			argType, err := translateExpr(a.Type(), super)
			if err != nil {
				return err
			}
			var dv *som.Value
			if a.DefaultValue() != nil {
				dv = a.DefaultValue().Copy()
			}
			if _, err := merged.AddArgument(a.Name(), argType, dv); err != nil {
				return err
			}
		}
		if err := copyRetainedDirectives(merged, decl.Directives()); err != nil {
			return err
		}

		srcTypeName := decl.Parent().Name()
		for _, r := range c.resolvers(srcTypeName, name) {
			args := []*som.DirectiveArgument{
				som.Arg("graph", som.EnumVal(c.graphNames[r])),
			}
			srcCoord := federation.Coordinate(srcTypeName, name)
			if req, ok := c.metas[r].Requires(srcCoord); ok {
				args = append(args, som.Arg("requires", som.StringVal(req)))
			}
			if prov, ok := c.metas[r].Provides(srcCoord); ok {
				args = append(args, som.Arg("provides", som.StringVal(prov)))
			}
			if _, err := merged.ApplyDirective(federation.DirectiveJoinField, args...); err != nil {
				return err
			}
		}
		for _, e := range c.externalAnnotations[coord] {
			if _, err := merged.ApplyDirective(federation.DirectiveJoinField,
				som.Arg("graph", som.EnumVal(c.graphNames[e])),
				som.Arg("external", som.BoolVal(true)),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeRoots unions the per-subgraph root operation types into canonical
// Query / Mutation / Subscription types. Every root field carries a
// @join__field naming its source subgraph.
func (c *composer) mergeRoots(super *som.Schema) error {
	roots := []struct {
		role string
		name string
		get  func(*som.SchemaDefinition) *som.Type
		set  func(*som.SchemaDefinition, *som.Type) error
	}{
		{"query", "Query",
			(*som.SchemaDefinition).QueryType,
			(*som.SchemaDefinition).SetQueryType},
		{"mutation", "Mutation",
			(*som.SchemaDefinition).MutationType,
			(*som.SchemaDefinition).SetMutationType},
		{"subscription", "Subscription",
			(*som.SchemaDefinition).SubscriptionType,
			(*som.SchemaDefinition).SetSubscriptionType},
	}

	for _, root := range roots {
		var sources []fieldSource
		for si := range c.subgraphs {
			if rt := root.get(c.schemas[si].Definition()); rt != nil {
				sources = append(sources, fieldSource{si: si, typ: rt})
			}
		}
		if len(sources) == 0 {
			continue
		}
		t, err := super.AddObjectType(root.name)
		if err != nil {
			return err
		}
		for _, src := range sources {
			if err := c.applyJoinType(t, src.si, src.typ.Name()); err != nil {
				return err
			}
		}
		if err := c.mergeObjectFields(super, t, sources); err != nil {
			return err
		}
		if err := root.set(super.Definition(), t); err != nil {
			return err
		}
	}
	return nil
}

// applyJoinType records that subgraph si defines the type, once per key
// field set, or once without a key when the type has none.
func (c *composer) applyJoinType(t *som.Type, si int, srcTypeName string) error {
	keys := c.metas[si].Keys(srcTypeName)
	if len(keys) == 0 {
		_, err := t.ApplyDirective(federation.DirectiveJoinType,
			som.Arg("graph", som.EnumVal(c.graphNames[si])))
		return err
	}
	for _, key := range keys {
		if _, err := t.ApplyDirective(federation.DirectiveJoinType,
			som.Arg("graph", som.EnumVal(c.graphNames[si])),
			som.Arg("key", som.StringVal(key)),
		); err != nil {
			return err
		}
	}
	return nil
}

// copyTypeDirectives carries over the non-federation directives of the
// first declaring subgraph.
func (c *composer) copyTypeDirectives(t *som.Type, entry *mergedType) error {
	src := c.schemas[entry.definers[0]].Type(entry.name)
	return copyRetainedDirectives(t, src.Directives())
}

type directiveTarget interface {
	ApplyDirective(name string, args ...*som.DirectiveArgument) (*som.Directive, error)
}

func copyRetainedDirectives(dst directiveTarget, directives []*som.Directive) error {
	for _, d := range directives {
		if isFederationDirective(d.Name()) {
			continue
		}
		args := make([]*som.DirectiveArgument, 0, len(d.Arguments()))
		for _, a := range d.Arguments() {
			args = append(args, som.Arg(a.Name, a.Value.Copy()))
		}
		if _, err := dst.ApplyDirective(d.Name(), args...); err != nil {
			return err
		}
	}
	return nil
}

func isFederationDirective(name string) bool {
	switch name {
	case federation.DirectiveKey, federation.DirectiveShareable,
		federation.DirectiveOverride, federation.DirectiveExternal,
		federation.DirectiveProvides, federation.DirectiveRequires:
		return true
	}
	return false
}

// translateExpr rebuilds a subgraph type expression against the
// supergraph's type map.
func translateExpr(expr som.TypeExpr, super *som.Schema) (som.TypeExpr, error) {
	switch e := expr.(type) {
	case *som.Type:
		t := super.Type(e.Name())
		if t == nil {
			return nil, fmt.Errorf("unknown type %q in supergraph", e.Name())
		}
		return t, nil
	case *som.ListType:
		inner, err := translateExpr(e.OfType, super)
		if err != nil {
			return nil, err
		}
		return som.NewListType(inner), nil
	}
	return nil, fmt.Errorf("unsupported type expression")
}
