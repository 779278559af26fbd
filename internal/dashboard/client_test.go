package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	mux := http.NewServeMux()
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path+" "+r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"projects": []string{"api", "web"}})
	})
	mux.HandleFunc("/agents", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["project"] == "missing" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "project not found"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"agent_id": "ab12cd34", "project": body["project"], "mode": body["mode"]})
	})
	mux.HandleFunc("/agents/ab12cd34", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	mux.HandleFunc("/agents/ab12cd34/diff", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Diff{Stat: " x.txt | 1 +", Diff: "diff --git a/x.txt b/x.txt\n", Status: " M x.txt"})
	})
	mux.HandleFunc("/agents/ab12cd34/execute", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("/agents/gone/execute", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"no session to resume"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClientOperations(t *testing.T) {
	srv, calls := newRuntime(t)
	c := NewClient(srv.URL+"/", "tok", time.Second)
	ctx := context.Background()

	projects, err := c.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "web"}, projects)

	created, err := c.CreateSession(ctx, "api", "plan")
	require.NoError(t, err)
	assert.Equal(t, "ab12cd34", created.ID)
	assert.Equal(t, "plan", created.Mode)

	d, err := c.FetchDiff(ctx, "ab12cd34")
	require.NoError(t, err)
	assert.Equal(t, " M x.txt", d.Status)

	require.NoError(t, c.ExecutePlan(ctx, "ab12cd34"))
	require.NoError(t, c.DeleteSession(ctx, "ab12cd34"))

	assert.Equal(t, []string{
		"GET /projects Bearer tok",
		"POST /agents",
		"POST /agents/ab12cd34/execute",
		"DELETE /agents/ab12cd34",
	}, *calls)
}

func TestClientStatusErrors(t *testing.T) {
	srv, _ := newRuntime(t)
	c := NewClient(srv.URL, "", time.Second)

	_, err := c.CreateSession(context.Background(), "missing", "normal")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, "project not found", se.Detail)

	err = c.ExecutePlan(context.Background(), "gone")
	require.True(t, errors.As(err, &se))
	assert.Contains(t, err.Error(), "no session to resume")

	_, err = c.FetchDiff(context.Background(), "unknown")
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Status)
}

func TestClientTransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", 200*time.Millisecond)
	_, err := c.ListProjects(context.Background())
	assert.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}
