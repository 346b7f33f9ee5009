package som

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const storefrontSDL = `
schema {
  query: Query
}

type Query {
  product(id: ID): Product
  search(filter: ProductFilter): [SearchResult]
}

type Product @key(fields: "id") {
  id: ID
  name: String
  related: [Product]
}

type Review {
  body: String
  product: Product @provides(fields: "name")
}

union SearchResult = Product | Review

input ProductFilter {
  tag: String = "all"
}

scalar DateTime

directive @internal(note: String) on FIELD_DEFINITION
`

func TestParseRenderRoundTrip(t *testing.T) {
	s, err := ParseSDL("storefront.graphql", storefrontSDL)
	require.NoError(t, err)

	rendered := Render(s)
	reparsed, err := ParseSDL("roundtrip.graphql", rendered)
	require.NoError(t, err)

	if diff := cmp.Diff(rendered, Render(reparsed)); diff != "" {
		t.Errorf("render is not stable under reparse (-want +got):\n%s", diff)
	}
}

func TestParseBuildsModel(t *testing.T) {
	s, err := ParseSDL("storefront.graphql", storefrontSDL)
	require.NoError(t, err)

	require.Equal(t, "Query", s.Definition().QueryType().Name())

	product := s.Type("Product")
	require.Equal(t, TypeKindObject, product.Kind())
	require.Equal(t, []string{"id", "name", "related"}, fieldNames(product))

	key := product.DirectivesNamed("key")
	require.Len(t, key, 1)
	require.True(t, key[0].Argument("fields").Equal(StringVal("id")))

	related := product.Field("related")
	list, ok := related.Type().(*ListType)
	require.True(t, ok)
	require.Same(t, product, list.BaseType())

	search := s.Type("SearchResult")
	require.Len(t, search.Members(), 2)

	tag := s.Type("ProductFilter").InputField("tag")
	require.True(t, tag.DefaultValue().Equal(StringVal("all")))

	internal := s.Directive("internal")
	require.NotNil(t, internal)
	require.Equal(t, []string{"FIELD_DEFINITION"}, internal.Locations())

	requireReferencerSymmetry(t, s)
}

func TestParseDefaultRoots(t *testing.T) {
	s, err := ParseSDL("noroots.graphql", `
type Query { ping: String }
type Mutation { noop: String }
`)
	require.NoError(t, err)
	require.Equal(t, "Query", s.Definition().QueryType().Name())
	require.Equal(t, "Mutation", s.Definition().MutationType().Name())
	require.Nil(t, s.Definition().SubscriptionType())
}

func TestParseNotImplemented(t *testing.T) {
	cases := []struct {
		name string
		sdl  string
	}{
		{"interface", `interface Node { id: ID }`},
		{"enum", `enum Color { RED }`},
		{"non-null field", `type Query { id: ID! }`},
		{"non-null argument", `type Query { product(id: ID!): String }`},
		{"implements", `type Query implements Node { id: ID }`},
		{"type extension", "type Query { a: String }\nextend type Query { b: String }"},
		{"schema extension", "type Query { a: String }\nextend schema { mutation: Query }"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSDL(tc.name, tc.sdl)
			require.Error(t, err)
			var nie *NotImplementedError
			require.True(t, errors.As(err, &nie), "want NotImplementedError, got %v", err)
		})
	}
}

func TestParseAppliedDirectivesRoundTrip(t *testing.T) {
	sdl := `type Product @join__type(graph: STORE, key: "id") {
  id: ID
  name: String @join__field(graph: STORE)
}
`
	s, err := ParseSDL("join.graphql", sdl)
	require.NoError(t, err)

	rendered := Render(s)
	require.Contains(t, rendered, `@join__type(graph: STORE, key: "id")`)
	require.Contains(t, rendered, `@join__field(graph: STORE)`)

	reparsed, err := ParseSDL("join2.graphql", rendered)
	require.NoError(t, err)
	require.Equal(t, rendered, Render(reparsed))
}
