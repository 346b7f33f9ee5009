package composition

import (
	"strings"

	federation "github.com/hanpama/supergraph/internal/federation"
)

// Core feature URLs advertised on every emitted supergraph.
const (
	coreFeatureURL = "https://specs.apollo.dev/core/v0.2"
	joinFeatureURL = "https://specs.apollo.dev/join/v0.1"
)

// GraphEnumName derives the join__Graph enum value for a subgraph name:
// uppercased, with every character outside A-Z and 0-9 replaced by its
// own underscore.
func GraphEnumName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// joinDeclarations renders the join spec surface the schema object model
// cannot represent: the core directive declarations (non-null arguments)
// and the core__Purpose / join__Graph enums. The declarations precede the
// model-rendered schema in the supergraph SDL.
func joinDeclarations(subgraphs []*Subgraph, graphNames []string) string {
	var b strings.Builder

	b.WriteString("directive @" + federation.DirectiveCore +
		"(feature: String!, as: String, for: core__Purpose) repeatable on SCHEMA\n\n")
	b.WriteString("directive @" + federation.DirectiveJoinField +
		"(graph: join__Graph!, requires: join__FieldSet, provides: join__FieldSet, type: String, external: Boolean) repeatable on FIELD_DEFINITION | INPUT_FIELD_DEFINITION\n\n")
	b.WriteString("directive @" + federation.DirectiveJoinGraph +
		"(name: String!, url: String!) on ENUM_VALUE\n\n")
	b.WriteString("directive @" + federation.DirectiveJoinImplements +
		"(graph: join__Graph!, interface: String!) repeatable on OBJECT | INTERFACE\n\n")
	b.WriteString("directive @" + federation.DirectiveJoinType +
		"(graph: join__Graph!, key: join__FieldSet, extension: Boolean! = false) repeatable on OBJECT | INTERFACE | UNION | ENUM | INPUT_OBJECT | SCALAR\n\n")

	b.WriteString("enum " + federation.TypeCorePurpose + " {\n  SECURITY\n  EXECUTION\n}\n\n")
	b.WriteString("scalar " + federation.TypeJoinFieldSet + "\n\n")

	b.WriteString("enum " + federation.TypeJoinGraph + " {\n")
	for i, sg := range subgraphs {
		b.WriteString("  " + graphNames[i] +
			" @" + federation.DirectiveJoinGraph +
			"(name: " + quote(sg.Name) + ", url: " + quote(sg.URL) + ")\n")
	}
	b.WriteString("}\n\n")

	return b.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
