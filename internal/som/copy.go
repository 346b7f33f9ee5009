package som

// ToImmutable produces an independent immutable snapshot of the schema.
// The copy is total: no mutable state is shared with the source.
func (s *Schema) ToImmutable() *Schema { return s.deepCopy(false) }

// ToMutable produces an independent mutable schema from this one.
func (s *Schema) ToMutable() *Schema { return s.deepCopy(true) }

// deepCopy rebuilds the whole schema graph. Referencer edges are rebuilt
// from the copied structure rather than copied, so the symmetry invariant
// holds by construction.
func (s *Schema) deepCopy(mutable bool) *Schema {
	out := NewSchema()
	mapping := make(map[*Type]*Type, len(s.types)+len(s.builtins))
	for name, b := range s.builtins {
		mapping[b] = out.builtins[name]
	}

	// Type shells first so that forward references resolve.
	for _, name := range s.typeOrder {
		src := s.types[name]
		t := &Type{owner: out, name: name, kind: src.kind}
		if src.kind == TypeKindObject {
			t.fields = make(map[string]*FieldDefinition)
		}
		if src.kind == TypeKindInputObject {
			t.inputFields = make(map[string]*InputFieldDefinition)
		}
		out.types[name] = t
		out.typeOrder = append(out.typeOrder, name)
		mapping[src] = t
	}

	for _, name := range s.directiveOrder {
		src := s.directives[name]
		d := &DirectiveDefinition{
			owner:      out,
			name:       name,
			args:       make(map[string]*ArgumentDefinition),
			locations:  append([]string(nil), src.locations...),
			repeatable: src.repeatable,
		}
		for _, argName := range src.argOrder {
			copyArgument(d, src.args[argName], mapping)
		}
		out.directives[name] = d
		out.directiveOrder = append(out.directiveOrder, name)
	}

	for _, name := range s.typeOrder {
		src := s.types[name]
		dst := out.types[name]
		copyDirectives(dst, &dst.directives, src.directives)

		for _, fieldName := range src.fieldOrder {
			sf := src.fields[fieldName]
			df := &FieldDefinition{
				parent: dst,
				name:   fieldName,
				typ:    copyTypeExpr(sf.typ, mapping),
				args:   make(map[string]*ArgumentDefinition),
			}
			copyDirectives(df, &df.directives, sf.directives)
			for _, argName := range sf.argOrder {
				copyArgument(df, sf.args[argName], mapping)
			}
			dst.fields[fieldName] = df
			dst.fieldOrder = append(dst.fieldOrder, fieldName)
			registerTypeRef(df.typ, df)
		}

		for _, fieldName := range src.inputOrder {
			sf := src.inputFields[fieldName]
			df := &InputFieldDefinition{
				parent:       dst,
				name:         fieldName,
				typ:          copyTypeExpr(sf.typ, mapping),
				defaultValue: sf.defaultValue.copy(),
			}
			copyDirectives(df, &df.directives, sf.directives)
			dst.inputFields[fieldName] = df
			dst.inputOrder = append(dst.inputOrder, fieldName)
			registerTypeRef(df.typ, df)
		}

		for _, m := range src.members {
			member := mapping[m]
			dst.members = append(dst.members, member)
			member.referencers.add(dst)
		}
	}

	copyDirectives(out.def, &out.def.directives, s.def.directives)
	if s.def.query != nil {
		out.def.query = mapping[s.def.query]
		out.def.query.referencers.add(out.def)
	}
	if s.def.mutation != nil {
		out.def.mutation = mapping[s.def.mutation]
		out.def.mutation.referencers.add(out.def)
	}
	if s.def.subscription != nil {
		out.def.subscription = mapping[s.def.subscription]
		out.def.subscription.referencers.add(out.def)
	}

	out.mutable = mutable
	return out
}

func copyTypeExpr(expr TypeExpr, mapping map[*Type]*Type) TypeExpr {
	switch e := expr.(type) {
	case nil:
		return nil
	case *Type:
		return mapping[e]
	case *ListType:
		return &ListType{OfType: copyTypeExpr(e.OfType, mapping)}
	}
	panic("unreachable")
}

func copyDirectives(parent element, dst *[]*Directive, src []*Directive) {
	for _, d := range src {
		c := d.copy()
		c.parent = parent
		*dst = append(*dst, c)
	}
}

func copyArgument(host argumentHost, src *ArgumentDefinition, mapping map[*Type]*Type) {
	a := &ArgumentDefinition{
		host:         host,
		name:         src.name,
		typ:          copyTypeExpr(src.typ, mapping),
		defaultValue: src.defaultValue.copy(),
	}
	copyDirectives(a, &a.directives, src.directives)
	switch h := host.(type) {
	case *FieldDefinition:
		h.args[src.name] = a
		h.argOrder = append(h.argOrder, src.name)
	case *DirectiveDefinition:
		h.args[src.name] = a
		h.argOrder = append(h.argOrder, src.name)
	}
	registerTypeRef(a.typ, a)
}

func registerTypeRef(expr TypeExpr, r Referencer) {
	if expr == nil {
		return
	}
	expr.BaseType().referencers.add(r)
}
