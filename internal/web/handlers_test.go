package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhanes-ci/internal/dataset"
	"nhanes-ci/internal/db"
)

func setupServer(t *testing.T) (*Server, int64) {
	t.Helper()

	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	path := filepath.Join("..", "dataset", "testdata", "nhanes_mini.csv")
	persons, err := dataset.LoadFile(path)
	require.NoError(t, err)

	id, err := database.InsertDataset(&db.Dataset{
		Tag:        "2018",
		Source:     path,
		Label:      "fixture",
		ImportedAt: "2026-01-01T00:00:00Z",
		RowCount:   int64(len(persons)),
	})
	require.NoError(t, err)
	require.NoError(t, database.InsertPersons(id, persons))

	t.Setenv("NHANES_SVG_CACHE_DIR", t.TempDir())
	srv := NewServer(database, ":0", nil)
	return srv, id
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHandleDatasets(t *testing.T) {
	srv, id := setupServer(t)

	rec := get(t, srv, "/api/datasets")
	require.Equal(t, http.StatusOK, rec.Code)

	var datasets []map[string]any
	decode(t, rec, &datasets)
	require.Len(t, datasets, 1)
	assert.Equal(t, float64(id), datasets[0]["id"])
	assert.Equal(t, "2018", datasets[0]["tag"])
	assert.Equal(t, float64(20), datasets[0]["row_count"])
}

func TestHandleDatasetsEmptyStore(t *testing.T) {
	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	srv := NewServer(database, ":0", nil)

	rec := get(t, srv, "/api/datasets")
	require.Equal(t, http.StatusOK, rec.Code)
	// An empty store is an empty array, not null.
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandleDataset(t *testing.T) {
	srv, id := setupServer(t)

	rec := get(t, srv, "/api/datasets/"+itoa(id))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, srv, "/api/datasets/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, srv, "/api/datasets/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDatasetSummary(t *testing.T) {
	srv, id := setupServer(t)

	rec := get(t, srv, "/api/datasets/"+itoa(id)+"/summary?variable=BMXBMI")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary map[string]any
	decode(t, rec, &summary)
	assert.Equal(t, "BMXBMI", summary["variable"])
	assert.Greater(t, summary["mean"].(float64), 0.0)
	assert.Greater(t, summary["missing"].(float64), 0.0)

	rec = get(t, srv, "/api/datasets/"+itoa(id)+"/summary")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, srv, "/api/datasets/"+itoa(id)+"/summary?variable=NOPE")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEstimateAndAnalysisRoundTrip(t *testing.T) {
	srv, id := setupServer(t)

	rec := get(t, srv, "/api/estimate?dataset="+itoa(id)+"&kind=proportion&variable=SMQ020&group_by=RIAGENDR")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created struct {
		ID        int64 `json:"id"`
		Estimates []struct {
			Group    string  `json:"group"`
			Estimate float64 `json:"estimate"`
			Lower    float64 `json:"lower"`
			Upper    float64 `json:"upper"`
		} `json:"estimates"`
	}
	decode(t, rec, &created)
	require.Len(t, created.Estimates, 2)
	assert.Equal(t, "Female", created.Estimates[0].Group)

	// The created analysis is now listed and retrievable.
	rec = get(t, srv, "/api/analyses?dataset="+itoa(id))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []map[string]any
	decode(t, rec, &listed)
	require.Len(t, listed, 1)

	rec = get(t, srv, "/api/analyses/"+itoa(created.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, srv, "/api/analyses/"+itoa(created.ID)+"/plot.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))
}

func TestHandleEstimateErrors(t *testing.T) {
	srv, id := setupServer(t)

	rec := get(t, srv, "/api/estimate")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, srv, "/api/estimate?dataset=999&kind=mean&variable=BMXBMI")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, srv, "/api/estimate?dataset="+itoa(id)+"&kind=bogus&variable=BMXBMI")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalysisNotFound(t *testing.T) {
	srv, _ := setupServer(t)

	rec := get(t, srv, "/api/analyses/42")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDatabaseDownloadMemory(t *testing.T) {
	srv, _ := setupServer(t)

	rec := get(t, srv, "/api/database/download")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSPAServesIndex(t *testing.T) {
	srv, _ := setupServer(t)

	rec := get(t, srv, "/some/client/route")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nhanes-ci")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
