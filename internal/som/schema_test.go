package som

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildStoreSchema assembles a small schema by hand:
//
//	type Query { product(id: ID): Product }
//	type Product { id: ID name: String related: [Product] }
//	type Review { body: String }
//	union SearchResult = Product | Review
//	input ProductFilter { tag: String = "all" }
func buildStoreSchema(t *testing.T) *Schema {
	t.Helper()
	s := NewSchema()

	query, err := s.AddObjectType("Query")
	require.NoError(t, err)
	product, err := s.AddObjectType("Product")
	require.NoError(t, err)
	review, err := s.AddObjectType("Review")
	require.NoError(t, err)

	productField, err := query.AddField("product", product)
	require.NoError(t, err)
	_, err = productField.AddArgument("id", s.BuiltIn("ID"), nil)
	require.NoError(t, err)

	_, err = product.AddField("id", s.BuiltIn("ID"))
	require.NoError(t, err)
	_, err = product.AddField("name", s.BuiltIn("String"))
	require.NoError(t, err)
	_, err = product.AddField("related", NewListType(product))
	require.NoError(t, err)

	_, err = review.AddField("body", s.BuiltIn("String"))
	require.NoError(t, err)

	search, err := s.AddUnionType("SearchResult")
	require.NoError(t, err)
	require.NoError(t, search.AddMember(product))
	require.NoError(t, search.AddMember(review))

	filter, err := s.AddInputObjectType("ProductFilter")
	require.NoError(t, err)
	tag, err := filter.AddInputField("tag", s.BuiltIn("String"))
	require.NoError(t, err)
	require.NoError(t, tag.SetDefaultValue(StringVal("all")))

	require.NoError(t, s.Definition().SetQueryType(query))
	return s
}

func requireReferences(t *testing.T, typ *Type, r Referencer) {
	t.Helper()
	for _, got := range typ.Referencers() {
		if got == r {
			return
		}
	}
	t.Fatalf("type %q referencers do not contain %s", typ.Name(), r.Coordinate())
}

func requireNotReferences(t *testing.T, typ *Type, r Referencer) {
	t.Helper()
	for _, got := range typ.Referencers() {
		if got == r {
			t.Fatalf("type %q referencers still contain %s", typ.Name(), r.Coordinate())
		}
	}
}

// requireReferencerSymmetry checks the invariant: every element that
// references a type is registered in that type's referencer set.
func requireReferencerSymmetry(t *testing.T, s *Schema) {
	t.Helper()
	for _, typ := range s.Types() {
		for _, f := range typ.Fields() {
			if f.Type() != nil {
				requireReferences(t, f.Type().BaseType(), f)
			}
			for _, a := range f.Arguments() {
				if a.Type() != nil {
					requireReferences(t, a.Type().BaseType(), a)
				}
			}
		}
		for _, f := range typ.InputFields() {
			if f.Type() != nil {
				requireReferences(t, f.Type().BaseType(), f)
			}
		}
		for _, m := range typ.Members() {
			requireReferences(t, m, typ)
		}
	}
	for _, d := range s.Directives() {
		for _, a := range d.Arguments() {
			if a.Type() != nil {
				requireReferences(t, a.Type().BaseType(), a)
			}
		}
	}
	def := s.Definition()
	for _, root := range []*Type{def.QueryType(), def.MutationType(), def.SubscriptionType()} {
		if root != nil {
			requireReferences(t, root, def)
		}
	}
}

func TestAddTypeContracts(t *testing.T) {
	s := NewSchema()

	query, err := s.AddObjectType("Query")
	require.NoError(t, err)

	again, err := s.AddObjectType("Query")
	require.NoError(t, err)
	require.Same(t, query, again)

	_, err = s.AddScalarType("Query")
	require.Error(t, err)

	_, err = s.AddScalarType("String")
	require.Error(t, err)

	_, err = s.AddObjectType("Int")
	require.Error(t, err)

	custom, err := s.AddScalarType("DateTime")
	require.NoError(t, err)
	require.Equal(t, TypeKindScalar, custom.Kind())
}

func TestAddFieldContracts(t *testing.T) {
	s := buildStoreSchema(t)
	product := s.Type("Product")

	_, err := product.AddField("name", s.BuiltIn("String"))
	require.Error(t, err, "duplicate field must be rejected")

	other := NewSchema()
	foreign, err := other.AddObjectType("Foreign")
	require.NoError(t, err)
	_, err = product.AddField("foreign", foreign)
	require.Error(t, err, "cross-schema type must be rejected")

	removed, err := s.AddObjectType("Doomed")
	require.NoError(t, err)
	removed.Remove()
	_, err = product.AddField("doomed", removed)
	require.Error(t, err, "detached type must be rejected")
}

func TestSetTypeUpdatesReferencers(t *testing.T) {
	s := buildStoreSchema(t)
	name := s.Type("Product").Field("name")

	require.NoError(t, name.SetType(s.BuiltIn("Int")))
	requireReferences(t, s.BuiltIn("Int"), name)
	requireNotReferences(t, s.BuiltIn("String"), name)
	requireReferencerSymmetry(t, s)
}

func TestApplyDirectiveKeepsDuplicates(t *testing.T) {
	s := buildStoreSchema(t)
	product := s.Type("Product")

	_, err := product.ApplyDirective("key", Arg("fields", StringVal("id")))
	require.NoError(t, err)
	_, err = product.ApplyDirective("key", Arg("fields", StringVal("id")))
	require.NoError(t, err)
	require.Len(t, product.DirectivesNamed("key"), 2)
}

func TestReferencerSymmetry(t *testing.T) {
	requireReferencerSymmetry(t, buildStoreSchema(t))
}

func TestRemoveType(t *testing.T) {
	s := buildStoreSchema(t)
	product := s.Type("Product")
	queryField := s.Type("Query").Field("product")
	search := s.Type("SearchResult")
	related := product.Field("related")

	refs := product.Remove()

	require.Nil(t, s.Type("Product"))
	require.Nil(t, queryField.Type(), "referencing field keeps a dangling (cleared) reference")
	require.Equal(t, []*Type{s.Type("Review")}, search.Members())
	require.Empty(t, product.Fields(), "children are detached")
	require.Nil(t, related.Parent())

	require.Contains(t, refs, Referencer(queryField))
	require.Contains(t, refs, Referencer(search))
	require.NotContains(t, refs, Referencer(related), "own children are not reported as referencers")

	require.Empty(t, product.Remove(), "second removal is a no-op")
	requireReferencerSymmetry(t, s)
}

func TestRemoveField(t *testing.T) {
	s := buildStoreSchema(t)
	product := s.Type("Product")
	name := product.Field("name")

	refs := name.Remove()
	require.Empty(t, refs)
	require.Nil(t, product.Field("name"))
	require.Equal(t, []string{"id", "related"}, fieldNames(product))
	requireNotReferences(t, s.BuiltIn("String"), name)
	requireReferencerSymmetry(t, s)
}

func TestRemoveRootClearsSchemaDefinition(t *testing.T) {
	s := buildStoreSchema(t)
	s.Type("Query").Remove()
	require.Nil(t, s.Definition().QueryType())
}

func TestRemoveDirectiveApplication(t *testing.T) {
	s := buildStoreSchema(t)
	product := s.Type("Product")
	d, err := product.ApplyDirective("shareable")
	require.NoError(t, err)
	require.Len(t, product.Directives(), 1)
	d.Remove()
	require.Empty(t, product.Directives())
}

func TestImmutableRejectsMutation(t *testing.T) {
	s := buildStoreSchema(t)
	im := s.ToImmutable()
	require.False(t, im.Mutable())
	require.True(t, s.Mutable())

	_, err := im.AddObjectType("New")
	require.Error(t, err)
	_, err = im.Type("Product").AddField("extra", im.BuiltIn("String"))
	require.Error(t, err)
	_, err = im.Type("Product").ApplyDirective("shareable")
	require.Error(t, err)
	require.Error(t, im.Type("Product").Field("name").SetType(im.BuiltIn("Int")))
	require.Error(t, im.Definition().SetQueryType(nil))
}

func fieldNames(t *Type) []string {
	out := make([]string, 0, len(t.Fields()))
	for _, f := range t.Fields() {
		out = append(out, f.Name())
	}
	return out
}
