package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/pipeforge"
	"github.com/aretw0/pipeforge/internal/dto"
	api "github.com/aretw0/pipeforge/pkg/adapters/http"
	"github.com/aretw0/pipeforge/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const config = `version: 2.1
executors:
  base:
    docker:
      - image: cimg/base:stable
jobs:
  build:
    docker:
      - image: cimg/go:1.25
    steps:
      - checkout
workflows:
  main:
    jobs:
      - build:
          name: build-linux
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	open := func(ctx context.Context) (*pipeforge.Workspace, error) {
		return pipeforge.Load(ctx, []byte(config), pipeforge.WithLifecycleHooks(metrics.Hooks()))
	}
	srv := api.NewServer(open, api.WithMetrics(reg))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close(context.Background())
	})
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func openSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	var created dto.Session
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/sessions", nil, &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Depth)
	return created.ID
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServer_PromoteFlow(t *testing.T) {
	ts := newTestServer(t)
	id := openSession(t, ts)
	base := "/sessions/" + id

	var v dto.Session
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/edit", map[string]any{"kind": "jobs", "name": "build"}, &v))
	assert.Equal(t, 2, v.Depth)
	require.NotNil(t, v.Entity)
	assert.Equal(t, "embedded", v.Entity.Executor.State)
	assert.Equal(t, "docker", v.Entity.Executor.Type)

	var promoted map[string]string
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/promote", nil, &promoted))
	assert.Equal(t, "build-exec-export", promoted["name"])
	assert.Equal(t, "awaiting_confirmation", promoted["state"])

	// Everything else waits for the answer.
	assert.Equal(t, http.StatusConflict, call(t, ts, http.MethodPost, base+"/submit", nil, nil))

	var confirmation dto.Confirmation
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, base+"/confirmation", nil, &confirmation))
	assert.Equal(t, "Confirm Executor Export", confirmation.Header)
	assert.Contains(t, confirmation.Message, "build-exec-export")

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/confirmation", map[string]bool{"confirm": true}, &v))
	assert.Equal(t, "referenced", v.Entity.Executor.State)
	assert.Equal(t, "build-exec-export", v.Entity.Executor.Reference)
	assert.Equal(t, http.StatusConflict, call(t, ts, http.MethodPost, base+"/confirmation", map[string]bool{"confirm": true}, nil))

	var notes []dto.Notification
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, base+"/notifications", nil, &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "has been exported.", notes[0].Body)

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/submit", nil, &v))
	assert.Equal(t, 1, v.Depth)

	resp, err := ts.Client().Get(ts.URL + base + "/document")
	require.NoError(t, err)
	defer resp.Body.Close()
	doc, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(doc), "build-exec-export:")
	assert.Contains(t, string(doc), "executor: build-exec-export")
}

func TestServer_ValidationErrors(t *testing.T) {
	ts := newTestServer(t)
	id := openSession(t, ts)
	base := "/sessions/" + id

	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodPost, base+"/submit", nil, nil), "root frame edits nothing")

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/edit", map[string]any{"kind": "jobs", "name": "build"}, nil))
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/executor", map[string]any{"reference": "missing"}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, ts, http.MethodPost, base+"/submit", nil, nil))

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/executor", map[string]any{"reference": "base"}, nil))
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/update", map[string]any{"unset": []string{"name"}}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, ts, http.MethodPost, base+"/submit", nil, nil))

	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodPost, base+"/back", map[string]int{"distance": 5}, nil))
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/back", nil, nil))
}

func TestServer_NewDefinitionAndSteps(t *testing.T) {
	ts := newTestServer(t)
	id := openSession(t, ts)
	base := "/sessions/" + id

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/edit", map[string]any{"kind": "commands"}, nil))
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/update", map[string]any{"values": map[string]any{"name": "greet"}}, nil))
	var v dto.Session
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/steps", map[string]any{
		"key":   "steps",
		"steps": []map[string]any{{"command": "run", "parameters": map[string]any{"command": "echo hi"}}},
	}, &v))
	require.Len(t, v.Entity.Lists["steps"], 1)

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/submit", nil, nil))

	var opts []dto.Option
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, base+"/options/commands", nil, &opts))
	require.Len(t, opts, 1)
	assert.Equal(t, "greet", opts[0].Value)
}

func TestServer_StagedJob(t *testing.T) {
	ts := newTestServer(t)
	id := openSession(t, ts)
	base := "/sessions/" + id

	var v dto.Session
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, base+"/edit", map[string]any{"workflow": "main", "index": 0}, &v))
	assert.Equal(t, "build-linux", v.Breadcrumbs[1].Label)
	assert.Equal(t, "build-linux", v.Entity.Parameters["name"])

	assert.Equal(t, http.StatusUnprocessableEntity, call(t, ts, http.MethodPost, base+"/edit", map[string]any{"workflow": "main", "index": 3}, nil))
}

func TestServer_SessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := openSession(t, ts)

	var list map[string][]string
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/sessions", nil, &list))
	assert.Equal(t, []string{id}, list["sessions"])

	assert.Equal(t, http.StatusNoContent, call(t, ts, http.MethodDelete, "/sessions/"+id, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, "/sessions/"+id, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, "/sessions/"+id+"/confirmation", nil, nil))
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t)
	id := openSession(t, ts)
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/sessions/"+id+"/edit", map[string]any{"kind": "jobs", "name": "build"}, nil))

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), `pipeforge_frame_visits_total{component="job-inspector"} 1`))
}
