package som

import "strings"

// Render produces SDL for the schema. Types and directive definitions are
// emitted in insertion order so that composed supergraphs print in merge
// order; round-tripping a rendered schema through ParseSDL yields an
// equal schema.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder

	renderSchemaDefinition(&b, s.def)

	for _, d := range s.Directives() {
		renderDirectiveDefinition(&b, d)
	}
	for _, t := range s.Types() {
		switch t.kind {
		case TypeKindScalar:
			renderScalar(&b, t)
		case TypeKindObject:
			renderObject(&b, t)
		case TypeKindUnion:
			renderUnion(&b, t)
		case TypeKindInputObject:
			renderInputObject(&b, t)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderSchemaDefinition(b *strings.Builder, def *SchemaDefinition) {
	if def.query == nil && def.mutation == nil && def.subscription == nil && len(def.directives) == 0 {
		return
	}
	b.WriteString("schema")
	renderAppliedDirectives(b, def.directives, "\n  ")
	b.WriteString(" {\n")
	if def.query != nil {
		b.WriteString("  query: " + def.query.name + "\n")
	}
	if def.mutation != nil {
		b.WriteString("  mutation: " + def.mutation.name + "\n")
	}
	if def.subscription != nil {
		b.WriteString("  subscription: " + def.subscription.name + "\n")
	}
	b.WriteString("}\n\n")
}

func renderScalar(b *strings.Builder, t *Type) {
	b.WriteString("scalar ")
	b.WriteString(t.name)
	renderAppliedDirectives(b, t.directives, " ")
	b.WriteString("\n\n")
}

func renderObject(b *strings.Builder, t *Type) {
	b.WriteString("type ")
	b.WriteString(t.name)
	renderAppliedDirectives(b, t.directives, " ")
	b.WriteString(" {\n")
	for _, f := range t.Fields() {
		renderField(b, f)
	}
	b.WriteString("}\n\n")
}

func renderUnion(b *strings.Builder, t *Type) {
	b.WriteString("union ")
	b.WriteString(t.name)
	renderAppliedDirectives(b, t.directives, " ")
	b.WriteString(" = ")
	for i, m := range t.members {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(m.name)
	}
	b.WriteString("\n\n")
}

func renderInputObject(b *strings.Builder, t *Type) {
	b.WriteString("input ")
	b.WriteString(t.name)
	renderAppliedDirectives(b, t.directives, " ")
	b.WriteString(" {\n")
	for _, f := range t.InputFields() {
		b.WriteString("  ")
		b.WriteString(f.name)
		b.WriteString(": ")
		b.WriteString(renderTypeExpr(f.typ))
		if f.defaultValue != nil {
			b.WriteString(" = ")
			b.WriteString(f.defaultValue.String())
		}
		renderAppliedDirectives(b, f.directives, " ")
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func renderField(b *strings.Builder, f *FieldDefinition) {
	b.WriteString("  ")
	b.WriteString(f.name)
	if len(f.argOrder) > 0 {
		b.WriteString("(")
		for i, a := range f.Arguments() {
			if i > 0 {
				b.WriteString(", ")
			}
			renderArgumentDefinition(b, a)
		}
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(renderTypeExpr(f.typ))
	renderAppliedDirectives(b, f.directives, " ")
	b.WriteString("\n")
}

func renderArgumentDefinition(b *strings.Builder, a *ArgumentDefinition) {
	b.WriteString(a.name)
	b.WriteString(": ")
	b.WriteString(renderTypeExpr(a.typ))
	if a.defaultValue != nil {
		b.WriteString(" = ")
		b.WriteString(a.defaultValue.String())
	}
	renderAppliedDirectives(b, a.directives, " ")
}

func renderDirectiveDefinition(b *strings.Builder, d *DirectiveDefinition) {
	b.WriteString("directive @")
	b.WriteString(d.name)
	if len(d.argOrder) > 0 {
		b.WriteString("(")
		for i, a := range d.Arguments() {
			if i > 0 {
				b.WriteString(", ")
			}
			renderArgumentDefinition(b, a)
		}
		b.WriteString(")")
	}
	if d.repeatable {
		b.WriteString(" repeatable")
	}
	b.WriteString(" on ")
	b.WriteString(strings.Join(d.locations, " | "))
	b.WriteString("\n\n")
}

func renderAppliedDirectives(b *strings.Builder, directives []*Directive, sep string) {
	for _, d := range directives {
		b.WriteString(sep)
		b.WriteString(d.sourceString())
	}
}

// renderTypeExpr renders a type reference; a dangling reference (cleared
// by a removal) renders as an empty string.
func renderTypeExpr(expr TypeExpr) string {
	if expr == nil {
		return ""
	}
	return expr.String()
}
