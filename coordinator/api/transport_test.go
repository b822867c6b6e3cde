package api_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodneyosodo/parfold"
	"github.com/rodneyosodo/parfold/coordinator"
	"github.com/rodneyosodo/parfold/coordinator/api"
	"github.com/rodneyosodo/parfold/pkg/storage"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := coordinator.NewService(storage.NewInMemoryStorage(), logger)

	srv := httptest.NewServer(api.MakeHandler(svc, logger, "test-instance"))
	t.Cleanup(srv.Close)

	return srv
}

func runBody(t *testing.T, mode coordinator.Mode) *strings.Reader {
	t.Helper()
	cfg := parfold.DefaultConfig()
	cfg.Dataset = parfold.DatasetSynth
	cfg.Synth = parfold.SynthConfig{Examples: 60, Classes: 3, Features: 8}
	cfg.Folds = 3
	cfg.Processors = 2
	cfg.Epochs = 1
	cfg.BatchSize = 8

	body, err := json.Marshal(map[string]any{"mode": mode, "config": cfg})
	require.NoError(t, err)

	return strings.NewReader(string(body))
}

func TestHealth(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "pass", health["status"])
	assert.Equal(t, "test-instance", health["instance_id"])
}

func TestStartRun(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/runs", "application/json", runBody(t, coordinator.ModeCrossValidation))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var summary coordinator.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Len(t, summary.Folds, 3)
	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, "/runs/"+summary.ID, resp.Header.Get("Location"))
}

func TestStartRunBadMode(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/runs", "application/json", runBody(t, coordinator.Mode("bogus")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetAndListRuns(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/runs", "application/json", runBody(t, coordinator.ModeSingle))
	require.NoError(t, err)
	var created coordinator.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/runs/" + created.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched coordinator.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	assert.Equal(t, created.ID, fetched.ID)

	resp, err = http.Get(srv.URL + "/runs?offset=0&limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page coordinator.SummaryPage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, uint64(1), page.Total)
	require.Len(t, page.Runs, 1)
	assert.Equal(t, created.ID, page.Runs[0].ID)
}

func TestGetRunNotFound(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/runs/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListRunsBadLimit(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/runs?limit=1000")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
