package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	composition "github.com/hanpama/supergraph/internal/composition"
)

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	accounts, err := composition.NewSubgraph("Accounts", "https://accounts.example.com", `
type Query {
  me: User
}

type User @key(fields: "id") {
  id: ID
  name: String
}
`)
	require.NoError(t, err)
	res, err := composition.Compose([]*composition.Subgraph{accounts})
	require.NoError(t, err)

	h, err := New(res.Schema, res.SupergraphSDL, opts...)
	require.NoError(t, err)
	return h
}

func TestPlanEndpoint(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/graphql",
		strings.NewReader(`{"query":"{ me { id name } }"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Operation string `json:"operation"`
		Fields    []struct {
			Coordinate string `json:"coordinate"`
			Service    string `json:"service"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "query", body.Operation)
	require.Len(t, body.Fields, 1)
	require.Equal(t, "Query.me", body.Fields[0].Coordinate)
	require.Equal(t, "ACCOUNTS", body.Fields[0].Service)
}

func TestPlanEndpointGet(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/graphql?query="+
		"%7B%20me%20%7B%20id%20%7D%20%7D", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Query.me")
}

func TestPlanEndpointErrors(t *testing.T) {
	h := newTestHandler(t)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"missing query", `{}`, http.StatusBadRequest},
		{"invalid JSON", `{`, http.StatusBadRequest},
		{"syntax error", `{"query":"{ me {"}`, http.StatusBadRequest},
		{"unknown field", `{"query":"{ nope }"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
			require.Contains(t, rec.Body.String(), "errors")
		})
	}
}

func TestSupergraphEndpoint(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/supergraph", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "enum join__Graph")
	require.Contains(t, rec.Body.String(), "type User")

	post := httptest.NewRequest(http.MethodPost, "/supergraph", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, post)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	h := newTestHandler(t, WithMaxBodyBytes(8))

	req := httptest.NewRequest(http.MethodPost, "/graphql",
		strings.NewReader(`{"query":"{ me { id } }"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCORS(t *testing.T) {
	h := newTestHandler(t, WithCORS("https://studio.example.com"))

	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "https://studio.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://studio.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
