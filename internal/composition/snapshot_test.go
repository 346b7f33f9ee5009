package composition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	som "github.com/hanpama/supergraph/internal/som"
)

func composeFixture(t *testing.T) *Result {
	t.Helper()
	res, err := Compose([]*Subgraph{
		mustSubgraph(t, "Accounts", `
type Query {
  me: User
}

type User @key(fields: "id") {
  id: ID
  name: String
}
`),
		mustSubgraph(t, "Reviews", `
type Query {
  latestReviews: [Review]
}

type User @key(fields: "id") {
  id: ID
  reviews: [Review]
}

type Review @key(fields: "id") {
  id: ID
  body: String
  author: User
}
`),
	})
	require.NoError(t, err)
	return res
}

func TestSupergraphSDLSnapshot(t *testing.T) {
	res := composeFixture(t)
	actual := res.SupergraphSDL

	snapshotPath := filepath.Join("testdata", "supergraph.graphql")

	// If snapshot doesn't exist, create it
	if _, err := os.Stat(snapshotPath); os.IsNotExist(err) {
		require.NoError(t, os.MkdirAll("testdata", 0755))
		require.NoError(t, os.WriteFile(snapshotPath, []byte(actual), 0644))
		t.Logf("Created snapshot file: %s", snapshotPath)
		return
	}

	expected, err := os.ReadFile(snapshotPath)
	require.NoError(t, err, "failed to read snapshot file")

	if diff := cmp.Diff(string(expected), actual); diff != "" {
		t.Errorf("Supergraph SDL snapshot mismatch (-want +got):\n%s", diff)
	}
}

// The model-rendered part of the supergraph must survive a parse/render
// round trip with its join directive applications byte-identical.
func TestSupergraphSchemaRoundTrip(t *testing.T) {
	res := composeFixture(t)

	rendered := som.Render(res.Schema)
	reparsed, err := som.ParseSDL("supergraph.graphql", rendered)
	require.NoError(t, err)

	if diff := cmp.Diff(rendered, som.Render(reparsed)); diff != "" {
		t.Errorf("supergraph schema round trip differs (-want +got):\n%s", diff)
	}
}

func TestSupergraphDeclarationsAndRoots(t *testing.T) {
	res := composeFixture(t)

	require.Contains(t, res.SupergraphSDL, "enum join__Graph {")
	require.Contains(t, res.SupergraphSDL,
		`ACCOUNTS @join__graph(name: "Accounts", url: "https://Accounts.example.com")`)
	require.Contains(t, res.SupergraphSDL,
		`REVIEWS @join__graph(name: "Reviews", url: "https://Reviews.example.com")`)
	require.Contains(t, res.SupergraphSDL, "scalar join__FieldSet")
	require.Contains(t, res.SupergraphSDL, "enum core__Purpose {")

	require.False(t, res.Schema.Mutable(), "result schema is the immutable view")
	require.Equal(t, "Query", res.Schema.Definition().QueryType().Name())

	user := res.Schema.Type("User")
	require.Len(t, user.DirectivesNamed("join__type"), 2)
}
