package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accviz/accviz/pkg/archive"
	"github.com/accviz/accviz/pkg/cache"
	"github.com/accviz/accviz/pkg/pipeline"
	"github.com/accviz/accviz/pkg/simmat"
)

func newTestServer(t *testing.T) (*Server, *archive.MemoryStore) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	store := archive.NewMemoryStore()
	return New(runner, store, logger), store
}

func diagramBody(t *testing.T) []byte {
	t.Helper()
	local, err := simmat.New([]string{"A", "B", "C"})
	require.NoError(t, err)
	local.Set("A", "B", 0.9)
	local.Set("A", "C", 0.2)
	local.Set("B", "C", 0.4)

	global, err := simmat.New([]string{"A", "B", "C"})
	require.NoError(t, err)
	global.Set("A", "B", 0.8)
	global.Set("A", "C", 0.3)
	global.Set("B", "C", 0.5)

	body, err := json.Marshal(pipeline.Options{
		LocalMatrix:  local,
		GlobalMatrix: global,
		Formats:      []string{"svg", "json"},
	})
	require.NoError(t, err)
	return body
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateDiagram(t *testing.T) {
	srv, store := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/diagrams", "application/json",
		bytes.NewReader(diagramBody(t)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created diagramResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 3, created.Stats.Entities)
	assert.Equal(t, 2, created.Stats.Steps)
	assert.Contains(t, string(created.Artifacts["svg"]), "<svg")
	assert.Contains(t, string(created.Artifacts["json"]), `"points"`)

	run, err := store.Get(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, run.EntityCount)
}

func TestCreateDiagram_BadBody(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/diagrams", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_INPUT", body.Error.Code)
}

func TestCreateDiagram_MissingMatrices(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/diagrams", "application/json",
		bytes.NewReader([]byte(`{"formats":["svg"]}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRun(t *testing.T) {
	srv, store := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	require.NoError(t, store.Put(t.Context(), &archive.Run{
		ID:          "run-1",
		EntityCount: 6,
		Artifacts:   map[string][]byte{"svg": []byte("<svg/>")},
	}))

	resp, err := http.Get(ts.URL + "/api/v1/runs/run-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run archive.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, 6, run.EntityCount)
}

func TestGetRun_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/runs/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "RUN_NOT_FOUND", body.Error.Code)
}

func TestListRuns(t *testing.T) {
	srv, store := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	require.NoError(t, store.Put(t.Context(), &archive.Run{ID: "run-1"}))
	require.NoError(t, store.Put(t.Context(), &archive.Run{ID: "run-2"}))

	resp, err := http.Get(ts.URL + "/api/v1/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Runs []archive.Summary `json:"runs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Runs, 2)
}
