package composition

import (
	federation "github.com/hanpama/supergraph/internal/federation"
	som "github.com/hanpama/supergraph/internal/som"
)

// validateOverrides walks every @override application in subgraph order
// and classifies it. Valid overrides exclude the source subgraph from the
// field's resolver set; invalid ones surface an error and leave the
// resolver set untouched so that follow-on conflicts (field sharing) are
// still reported.
func (c *composer) validateOverrides() {
	for si, meta := range c.metas {
		sg := c.subgraphs[si].Name
		for _, t := range c.schemas[si].Types() {
			if t.Kind() != som.TypeKindObject {
				continue
			}
			for _, f := range t.Fields() {
				coord := federation.Coordinate(t.Name(), f.Name())
				from, ok := meta.OverrideFrom(coord)
				if !ok {
					continue
				}

				if from == sg {
					c.errors = append(c.errors, errorOverrideFromSelf(coord, sg))
					continue
				}

				fi, known := c.byName[from]
				var counterpart *som.FieldDefinition
				if known {
					if ft := c.schemas[fi].Type(t.Name()); ft != nil && ft.Kind() == som.TypeKindObject {
						counterpart = ft.Field(f.Name())
					}
				}
				if counterpart == nil {
					// Nothing to take over; the directive is inert.
					c.hints = append(c.hints, hintOverrideDirectiveCanBeRemoved(coord, sg, from))
					continue
				}

				if _, twoWay := c.metas[fi].OverrideFrom(coord); twoWay {
					// The opposite side reports its own error when its turn
					// comes, so each side is emitted exactly once.
					c.errors = append(c.errors, errorOverrideSourceHasOverride(coord, sg, from))
					continue
				}
				if c.metas[fi].IsExternal(coord) {
					c.errors = append(c.errors, errorOverrideCollidesWithExternal(coord, sg, from))
					continue
				}
				if meta.IsExternal(coord) {
					c.errors = append(c.errors, errorOverrideOnExternalField(coord, sg))
					continue
				}

				c.overrideWinner[coord] = si
				if c.overriddenSources[coord] == nil {
					c.overriddenSources[coord] = make(map[int]bool)
				}
				c.overriddenSources[coord][fi] = true
				if c.metas[fi].IsKeyField(coord) {
					// The overridden subgraph still advertises the key but no
					// longer resolves it.
					c.externalAnnotations[coord] = append(c.externalAnnotations[coord], fi)
				} else if !c.metas[fi].FieldSetMentions(coord) {
					c.hints = append(c.hints, hintOverriddenFieldCanBeRemoved(coord, from))
				}
			}
		}
	}
}

// checkFieldSharing reports INVALID_FIELD_SHARING for every field that,
// after override rewriting, is resolved by more than one subgraph without
// being shareable in all of them.
func (c *composer) checkFieldSharing() {
	seen := make(map[string]bool)
	for si := range c.subgraphs {
		for _, t := range c.schemas[si].Types() {
			if t.Kind() != som.TypeKindObject {
				continue
			}
			if c.rootRole(si, t) != "" {
				// Root operation fields are merged per subgraph and never
				// share resolution.
				continue
			}
			for _, f := range t.Fields() {
				coord := federation.Coordinate(t.Name(), f.Name())
				if seen[coord] {
					continue
				}
				seen[coord] = true

				resolvers := c.resolvers(t.Name(), f.Name())
				if len(resolvers) < 2 {
					continue
				}
				shared := true
				for _, r := range resolvers {
					if !c.metas[r].IsShareable(coord) {
						shared = false
						break
					}
				}
				if !shared {
					names := make([]string, len(resolvers))
					for i, r := range resolvers {
						names[i] = c.subgraphs[r].Name
					}
					c.errors = append(c.errors, errorInvalidFieldSharing(coord, names))
				}
			}
		}
	}
}

// definers returns the subgraph indexes declaring the field, in subgraph
// order.
func (c *composer) definers(typeName, fieldName string) []int {
	var out []int
	for si := range c.subgraphs {
		t := c.schemas[si].Type(typeName)
		if t == nil || t.Kind() != som.TypeKindObject {
			continue
		}
		if t.Field(fieldName) != nil {
			out = append(out, si)
		}
	}
	return out
}

// resolvers returns the subgraphs that actually resolve the field: its
// definers minus @external declarations and overridden sources.
func (c *composer) resolvers(typeName, fieldName string) []int {
	coord := federation.Coordinate(typeName, fieldName)
	var out []int
	for _, si := range c.definers(typeName, fieldName) {
		if c.metas[si].IsExternal(coord) {
			continue
		}
		if c.overriddenSources[coord][si] {
			continue
		}
		out = append(out, si)
	}
	return out
}
