package course

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourse_HasCapacity(t *testing.T) {
	assert.True(t, (&Course{Capacity: 0, EnrolledCount: 10000}).HasCapacity(), "zero capacity means unlimited")
	assert.True(t, (&Course{Capacity: 30, EnrolledCount: 29}).HasCapacity())
	assert.False(t, (&Course{Capacity: 30, EnrolledCount: 30}).HasCapacity())
	assert.False(t, (&Course{Capacity: 30, EnrolledCount: 31}).HasCapacity())
}

func newDirectoryServer(t *testing.T, courses map[string]*Course) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tenants/{tenantID}/courses/{courseID}", func(w http.ResponseWriter, r *http.Request) {
		c, ok := courses[r.PathValue("courseID")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDirectoryClient(t *testing.T) {
	srv := newDirectoryServer(t, map[string]*Course{
		"crs-open":  {ID: "crs-open", Published: true, Capacity: 2, EnrolledCount: 1},
		"crs-gated": {ID: "crs-gated", Published: true, RequiresApproval: true},
		"crs-draft": {ID: "crs-draft", Published: false},
		"crs-full":  {ID: "crs-full", Published: true, Capacity: 1, EnrolledCount: 1},
	})

	dir := NewDirectory(NewClient(ClientConfig{BaseURL: srv.URL}))
	ctx := context.Background()

	exists, err := dir.Exists(ctx, "ten-1", "crs-open")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = dir.Exists(ctx, "ten-1", "crs-missing")
	require.NoError(t, err)
	assert.False(t, exists)

	published, err := dir.IsPublished(ctx, "ten-1", "crs-draft")
	require.NoError(t, err)
	assert.False(t, published)

	gated, err := dir.RequiresApproval(ctx, "ten-1", "crs-gated")
	require.NoError(t, err)
	assert.True(t, gated)

	gated, err = dir.RequiresApproval(ctx, "ten-1", "crs-open")
	require.NoError(t, err)
	assert.False(t, gated)

	hasCapacity, err := dir.HasCapacity(ctx, "ten-1", "crs-open")
	require.NoError(t, err)
	assert.True(t, hasCapacity)

	hasCapacity, err = dir.HasCapacity(ctx, "ten-1", "crs-full")
	require.NoError(t, err)
	assert.False(t, hasCapacity)
}

func TestClient_DirectoryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{BaseURL: srv.URL})

	_, err := client.Describe(context.Background(), "ten-1", "crs-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestClient_SendsAPIKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(&Course{ID: "crs-1", Published: true})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "catalog-key"})

	_, err := client.Describe(context.Background(), "ten-1", "crs-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer catalog-key", gotAuth)
}
