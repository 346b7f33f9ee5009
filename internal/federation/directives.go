// Package federation recognizes the federation directives on a schema
// object model and precomputes the field predicates composition and
// planning are driven by.
package federation

// Federation spec URL the subgraph directives belong to.
const SpecURL = "https://specs.apollo.dev/federation/v2.0"

// Subgraph-side directive names.
const (
	DirectiveKey       = "key"
	DirectiveShareable = "shareable"
	DirectiveOverride  = "override"
	DirectiveExternal  = "external"
	DirectiveProvides  = "provides"
	DirectiveRequires  = "requires"
)

// Supergraph-side (join spec) directive and type names.
const (
	DirectiveJoinType       = "join__type"
	DirectiveJoinField      = "join__field"
	DirectiveJoinGraph      = "join__graph"
	DirectiveJoinImplements = "join__implements"
	DirectiveCore           = "core"

	TypeJoinGraph    = "join__Graph"
	TypeJoinFieldSet = "join__FieldSet"
	TypeCorePurpose  = "core__Purpose"
)

// Coordinate formats a field coordinate, e.g. "Product.price".
func Coordinate(typeName, fieldName string) string {
	return typeName + "." + fieldName
}
