package planning

import (
	"testing"

	"github.com/stretchr/testify/require"

	composition "github.com/hanpama/supergraph/internal/composition"
	language "github.com/hanpama/supergraph/internal/language"
	som "github.com/hanpama/supergraph/internal/som"
)

// testSupergraph composes a two-service supergraph used across the
// planning tests:
//
//	Accounts: Query.me, Query.search, User (keys "id" and "name"),
//	          union SearchResult = User | Product
//	Products: Query.topProducts, Product (key "upc"), price requiring upc
func testSupergraph(t *testing.T) *som.Schema {
	t.Helper()
	accounts, err := composition.NewSubgraph("Accounts", "https://accounts.example.com", `
type Query {
  me: User
  search: [SearchResult]
}

type User @key(fields: "id") @key(fields: "name") {
  id: ID
  name: String
}

type Product @key(fields: "upc") {
  upc: ID
}

union SearchResult = User | Product
`)
	require.NoError(t, err)
	products, err := composition.NewSubgraph("Products", "https://products.example.com", `
type Query {
  topProducts: [Product]
}

type Product @key(fields: "upc") {
  upc: ID
  title: String
  price: Int @requires(fields: "upc")
}
`)
	require.NoError(t, err)

	res, err := composition.Compose([]*composition.Subgraph{accounts, products})
	require.NoError(t, err)
	return res.Schema
}

func testContext(t *testing.T, schema *som.Schema, query string) *Context {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	ctx, err := NewContextFromDocument(schema, doc, "")
	require.NoError(t, err)
	return ctx
}

// selection parses a braced selection set for use against an arbitrary
// scope.
func selection(t *testing.T, src string) language.SelectionSet {
	t.Helper()
	doc, err := language.ParseQuery(src)
	require.NoError(t, err)
	return doc.Operations[0].SelectionSet
}

func coordinates(fields []CollectedField) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Coordinate()
	}
	return out
}

// fragmentDirectives extracts the directives of the first inline fragment
// in a parsed selection.
func fragmentDirectives(t *testing.T, src string) language.DirectiveList {
	t.Helper()
	sel := selection(t, src)
	frag, ok := sel[0].(*language.InlineFragment)
	require.True(t, ok)
	return frag.Directives
}

func TestContextIndexesVariables(t *testing.T) {
	schema := testSupergraph(t)
	ctx := testContext(t, schema, `query Q($flag: Boolean) { me { id @skip(if: $flag) } }`)

	vd, err := ctx.Variable("flag")
	require.NoError(t, err)
	require.Equal(t, "flag", vd.Variable)

	_, err = ctx.Variable("missing")
	require.Error(t, err)

	require.Equal(t, []string{"flag"}, ctx.VariableUsages(ctx.Operation.SelectionSet))
}

func TestFieldDefLookup(t *testing.T) {
	schema := testSupergraph(t)
	ctx := testContext(t, schema, `{ me { id } }`)
	query := schema.Definition().QueryType()

	sel := selection(t, `{ me }`)
	me, err := ctx.FieldDef(query, sel[0].(*language.Field))
	require.NoError(t, err)
	require.Equal(t, "Query.me", me.Coordinate())

	sel = selection(t, `{ __typename }`)
	meta, err := ctx.FieldDef(query, sel[0].(*language.Field))
	require.NoError(t, err)
	require.Equal(t, "__typename", meta.Name())

	sel = selection(t, `{ nope }`)
	_, err = ctx.FieldDef(query, sel[0].(*language.Field))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Cannot query field")
}

func TestOwningService(t *testing.T) {
	schema := testSupergraph(t)
	ctx := testContext(t, schema, `{ me { id } }`)

	user := schema.Type("User")
	product := schema.Type("Product")

	require.Equal(t, "ACCOUNTS", ctx.BaseService(user))
	require.Equal(t, "ACCOUNTS", ctx.OwningService(user, user.Field("name")))
	require.Equal(t, "PRODUCTS", ctx.OwningService(product, product.Field("title")))
	require.Equal(t, "ACCOUNTS", ctx.OwningService(product, product.Field("upc")),
		"a field resolved by several graphs reports its first")
}

func TestScopeRefinement(t *testing.T) {
	schema := testSupergraph(t)
	ctx := testContext(t, schema, `{ me { id } }`)

	search := schema.Type("SearchResult")
	user := schema.Type("User")
	product := schema.Type("Product")

	root := NewScope(ctx, search)
	require.Equal(t, []*som.Type{user, product}, root.PossibleRuntimeTypes())

	refined := root.Refine(user, nil)
	require.Equal(t, []*som.Type{user}, refined.PossibleRuntimeTypes())

	// Refining by a super-type without directives is a no-op.
	require.Same(t, refined, refined.Refine(search, nil))
	require.Same(t, refined, refined.Refine(user, nil))

	// The pruned chain is indistinguishable from a fresh scope.
	require.True(t, refined.Equals(NewScope(ctx, user)))

	// Every refinement narrows the possible set.
	for _, pt := range refined.PossibleRuntimeTypes() {
		require.Contains(t, root.PossibleRuntimeTypes(), pt)
	}
}

func TestScopeIdentity(t *testing.T) {
	schema := testSupergraph(t)
	ctx := testContext(t, schema, `{ me { id } }`)
	search := schema.Type("SearchResult")
	user := schema.Type("User")

	dirsA := fragmentDirectives(t, `{ ... on User @lens(a: 1, b: 2) { id } }`)
	dirsB := fragmentDirectives(t, `{ ... on User @lens(b: 2, a: 1) { id } }`)
	dirsC := fragmentDirectives(t, `{ ... on User @lens(a: 1) { id } }`)

	a := NewScope(ctx, search).Refine(user, dirsA)
	b := NewScope(ctx, search).Refine(user, dirsB)
	c := NewScope(ctx, search).Refine(user, dirsC)

	require.True(t, a.Equals(b), "directive argument order must not matter")
	require.Equal(t, a.IdentityKey(), b.IdentityKey())
	require.Equal(t, a.Hash(), b.Hash())

	require.False(t, a.Equals(c))
	require.NotEqual(t, a.IdentityKey(), c.IdentityKey())

	plain := NewScope(ctx, search).Refine(user, nil)
	require.False(t, a.Equals(plain))
}

func TestCollectFields(t *testing.T) {
	schema := testSupergraph(t)
	ctx := testContext(t, schema, `{ me { id } }`)
	query := schema.Definition().QueryType()
	scope := NewScope(ctx, query)

	fields, err := ctx.CollectFields(scope, nil)
	require.NoError(t, err)
	require.Empty(t, fields)

	fields, err = ctx.CollectFields(scope, selection(t, `{ me { id } topProducts { title } __typename }`))
	require.NoError(t, err)
	require.Equal(t, []string{"Query.me", "Query.topProducts", "Query.__typename"}, coordinates(fields))
}

func TestCollectFieldsFragments(t *testing.T) {
	schema := testSupergraph(t)
	ctx := testContext(t, schema, `{ me { id } }`)
	user := schema.Type("User")
	search := schema.Type("SearchResult")

	// A fragment disjoint from the scope contributes nothing.
	fields, err := ctx.CollectFields(NewScope(ctx, user), selection(t, `{ ... on Product { upc } }`))
	require.NoError(t, err)
	require.Empty(t, fields)

	// A matching fragment narrows the scope of its fields.
	fields, err = ctx.CollectFields(NewScope(ctx, search), selection(t, `{ ... on User { name } }`))
	require.NoError(t, err)
	require.Equal(t, []string{"User.name"}, coordinates(fields))
	require.Same(t, user, fields[0].Scope.Parent())

	// An unresolvable spread is skipped.
	fields, err = ctx.CollectFields(NewScope(ctx, search), selection(t, `{ ...Missing }`))
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestCollectFieldsThroughSpread(t *testing.T) {
	schema := testSupergraph(t)
	ctx := testContext(t, schema, `
{ search { ...UserBits } }
fragment UserBits on User { name }
`)
	search := schema.Type("SearchResult")

	fields, err := ctx.CollectFields(NewScope(ctx, search), selection(t, `{ ...UserBits }
fragment UserBits on User { name }`))
	require.NoError(t, err)
	require.Equal(t, []string{"User.name"}, coordinates(fields))
}

func TestKeyFields(t *testing.T) {
	schema := testSupergraph(t)
	ctx := testContext(t, schema, `{ me { id } }`)
	scope := NewScope(ctx, schema.Type("User"))

	first, err := ctx.KeyFields(scope, "ACCOUNTS", false)
	require.NoError(t, err)
	require.Equal(t, []string{"User.__typename", "User.id"}, coordinates(first))

	all, err := ctx.KeyFields(scope, "ACCOUNTS", true)
	require.NoError(t, err)
	require.Equal(t, []string{"User.__typename", "User.id", "User.name"}, coordinates(all))

	for _, coord := range coordinates(first) {
		require.Contains(t, coordinates(all), coord, "fetch-all keys must be a superset")
	}
}

func TestRequiredFields(t *testing.T) {
	schema := testSupergraph(t)
	ctx := testContext(t, schema, `{ me { id } }`)
	product := schema.Type("Product")
	scope := NewScope(ctx, product)

	fields, err := ctx.RequiredFields(scope, product.Field("price"), "PRODUCTS")
	require.NoError(t, err)
	require.Equal(t, []string{"Product.__typename", "Product.upc", "Product.upc"}, coordinates(fields))
}

func TestProvidedFields(t *testing.T) {
	schema := testSupergraph(t)
	ctx := testContext(t, schema, `{ me { id } }`)
	query := schema.Definition().QueryType()

	fields, err := ctx.ProvidedFields(query.Field("topProducts"), "PRODUCTS")
	require.NoError(t, err)
	require.Equal(t, []string{"Product.__typename", "Product.upc"}, coordinates(fields))

	// Scalar-returning fields provide nothing.
	user := schema.Type("User")
	fields, err = ctx.ProvidedFields(user.Field("name"), "ACCOUNTS")
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestRootFieldSet(t *testing.T) {
	schema := testSupergraph(t)
	ctx := testContext(t, schema, `{ me { id } topProducts { title } }`)

	fields, err := ctx.RootFieldSet()
	require.NoError(t, err)
	require.Equal(t, []PlannedField{
		{Scope: fields[0].Scope, Coordinate: "Query.me", Service: "ACCOUNTS"},
		{Scope: fields[1].Scope, Coordinate: "Query.topProducts", Service: "PRODUCTS"},
	}, fields)
	require.NotEmpty(t, fields[0].Scope)
}
