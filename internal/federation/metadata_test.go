package federation

import (
	"testing"

	"github.com/stretchr/testify/require"

	som "github.com/hanpama/supergraph/internal/som"
)

func analyzeSDL(t *testing.T, sdl string) *Metadata {
	t.Helper()
	s, err := som.ParseSDL("subgraph.graphql", sdl)
	require.NoError(t, err)
	m, err := Analyze(s)
	require.NoError(t, err)
	return m
}

func TestKeyPredicate(t *testing.T) {
	m := analyzeSDL(t, `
type Product @key(fields: "id sku { upc }") {
  id: ID
  sku: Sku
  name: String
}
type Sku {
  upc: ID
}
`)
	require.True(t, m.IsKeyField("Product.id"))
	require.True(t, m.IsKeyField("Product.sku"))
	require.True(t, m.IsKeyField("Sku.upc"), "nested key selections propagate")
	require.False(t, m.IsKeyField("Product.name"))
	require.Equal(t, []string{"id sku { upc }"}, m.Keys("Product"))
}

func TestShareablePredicate(t *testing.T) {
	m := analyzeSDL(t, `
type Product @key(fields: "id") {
  id: ID
  name: String @shareable
  price: Int
  weight: Int @external
}
type Dimensions @shareable {
  width: Int
  height: Int
}
type Review {
  product: Product @provides(fields: "weight")
}
`)
	require.True(t, m.IsShareable("Product.id"), "key fields are implicitly shareable")
	require.True(t, m.IsShareable("Product.name"))
	require.False(t, m.IsShareable("Product.price"))
	require.True(t, m.IsShareable("Dimensions.width"), "type-level @shareable covers every field")
	require.True(t, m.IsShareable("Dimensions.height"))
	require.True(t, m.IsShareable("Product.weight"), "provides over an external field makes it shareable")
}

func TestOverrideExternalAndFieldSets(t *testing.T) {
	m := analyzeSDL(t, `
type Product @key(fields: "id") {
  id: ID
  price: Int @override(from: "Legacy")
  weight: Int @external
  shipping: Int @requires(fields: "weight")
}
`)
	from, ok := m.OverrideFrom("Product.price")
	require.True(t, ok)
	require.Equal(t, "Legacy", from)
	_, ok = m.OverrideFrom("Product.id")
	require.False(t, ok)

	require.True(t, m.IsExternal("Product.weight"))
	require.False(t, m.IsExternal("Product.price"))

	req, ok := m.Requires("Product.shipping")
	require.True(t, ok)
	require.Equal(t, "weight", req)

	require.True(t, m.FieldSetMentions("Product.weight"))
	require.False(t, m.FieldSetMentions("Product.price"))
}

func TestAnalyzeRejectsBadKey(t *testing.T) {
	s, err := som.ParseSDL("bad.graphql", `
type Product @key(fields: "missing") {
  id: ID
}
`)
	require.NoError(t, err)
	_, err = Analyze(s)
	require.Error(t, err)
}
