package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"nhanes-ci/internal/analysis"
	"nhanes-ci/internal/dataset"
	"nhanes-ci/internal/db"
	"nhanes-ci/internal/render"
	"nhanes-ci/internal/stats"
)

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}

	datasets, err := s.db.ListDatasets(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type datasetResponse struct {
		ID            int64  `json:"id"`
		Tag           string `json:"tag"`
		Source        string `json:"source"`
		Label         string `json:"label"`
		ImportedAt    string `json:"imported_at"`
		RowCount      int64  `json:"row_count"`
		AnalysisCount int    `json:"analysis_count"`
	}

	response := make([]datasetResponse, 0, len(datasets))
	for _, ds := range datasets {
		count, err := s.db.CountAnalysesForDataset(ds.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		response = append(response, datasetResponse{
			ID:            ds.ID,
			Tag:           ds.Tag,
			Source:        ds.Source,
			Label:         ds.Label,
			ImportedAt:    ds.ImportedAt,
			RowCount:      ds.RowCount,
			AnalysisCount: count,
		})
	}

	writeJSON(w, response)
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/datasets/")
	if !ok {
		return
	}

	ds, err := s.db.GetDataset(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "dataset not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"id":          ds.ID,
		"tag":         ds.Tag,
		"source":      ds.Source,
		"label":       ds.Label,
		"imported_at": ds.ImportedAt,
		"row_count":   ds.RowCount,
	})
}

func (s *Server) handleDatasetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/datasets/")
	if !ok {
		return
	}
	variable := r.URL.Query().Get("variable")
	if variable == "" {
		http.Error(w, "missing variable parameter", http.StatusBadRequest)
		return
	}

	persons, err := s.db.LoadPersons(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "dataset not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	values, err := dataset.Values(persons, variable)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	summary, err := stats.Describe(values)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, map[string]any{
		"variable": variable,
		"n":        summary.N,
		"missing":  summary.Missing,
		"mean":     summary.Mean,
		"std_dev":  summary.StdDev,
		"se":       summary.SE,
		"min":      summary.Min,
		"q1":       summary.Q1,
		"median":   summary.Median,
		"q3":       summary.Q3,
		"max":      summary.Max,
	})
}

func (s *Server) handleDatasetAnalyses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/datasets/")
	if !ok {
		return
	}
	analyses, err := s.db.ListAnalyses(id, 100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, analysisList(analyses))
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}
	var datasetID int64
	if d := r.URL.Query().Get("dataset"); d != "" {
		n, err := strconv.ParseInt(d, 10, 64)
		if err != nil {
			http.Error(w, "invalid dataset id", http.StatusBadRequest)
			return
		}
		datasetID = n
	}

	analyses, err := s.db.ListAnalyses(datasetID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, analysisList(analyses))
}

type analysisResponse struct {
	ID        int64   `json:"id"`
	DatasetID int64   `json:"dataset_id"`
	Kind      string  `json:"kind"`
	Variable  string  `json:"variable"`
	GroupBy   string  `json:"group_by,omitempty"`
	Level     float64 `json:"level"`
	CreatedAt string  `json:"created_at"`
	Notes     string  `json:"notes,omitempty"`
}

type estimateResponse struct {
	GroupLabel string  `json:"group"`
	N          int64   `json:"n"`
	Estimate   float64 `json:"estimate"`
	SE         float64 `json:"se"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Method     string  `json:"method"`
}

func analysisList(analyses []db.Analysis) []analysisResponse {
	out := make([]analysisResponse, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, toAnalysisResponse(a))
	}
	return out
}

func toAnalysisResponse(a db.Analysis) analysisResponse {
	return analysisResponse{
		ID:        a.ID,
		DatasetID: a.DatasetID,
		Kind:      a.Kind,
		Variable:  a.Variable,
		GroupBy:   a.GroupBy,
		Level:     a.Level,
		CreatedAt: a.CreatedAt,
		Notes:     a.Notes,
	}
}

func toEstimateResponses(estimates []db.Estimate) []estimateResponse {
	out := make([]estimateResponse, 0, len(estimates))
	for _, e := range estimates {
		out = append(out, estimateResponse{
			GroupLabel: e.GroupLabel,
			N:          e.N,
			Estimate:   e.Estimate,
			SE:         e.SE,
			Lower:      e.Lower,
			Upper:      e.Upper,
			Method:     e.Method,
		})
	}
	return out
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/analyses/")
	if !ok {
		return
	}

	a, err := s.db.GetAnalysis(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "analysis not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	estimates, err := s.db.GetEstimatesForAnalysis(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, struct {
		analysisResponse
		Estimates []estimateResponse `json:"estimates"`
	}{toAnalysisResponse(*a), toEstimateResponses(estimates)})
}

func (s *Server) handleAnalysisPlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/analyses/")
	if !ok {
		return
	}

	a, err := s.db.GetAnalysis(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "analysis not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	generate := func() ([]byte, error) {
		estimates, err := s.db.GetEstimatesForAnalysis(id)
		if err != nil {
			return nil, err
		}
		points := make([]render.Point, 0, len(estimates))
		for _, e := range estimates {
			points = append(points, render.Point{
				Label:    e.GroupLabel,
				Estimate: e.Estimate,
				Lower:    e.Lower,
				Upper:    e.Upper,
			})
		}
		title := fmt.Sprintf("%s of %s (%.0f%% CI)", a.Kind, a.Variable, a.Level*100)
		return render.ForestPlot(title, points), nil
	}

	var svg []byte
	if s.svgCache != nil {
		svg, err = s.svgCache.GetOrGenerate(id, "forest", generate)
	} else {
		svg, err = generate()
	}
	if err != nil {
		s.logger.Error("plot render failed", zap.Int64("analysis", id), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// handleEstimate runs an analysis on demand and returns the stored result.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	datasetRef := q.Get("dataset")
	if datasetRef == "" {
		http.Error(w, "missing dataset parameter", http.StatusBadRequest)
		return
	}
	ds, err := s.db.GetDatasetByRef(datasetRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "dataset not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	level := 0.95
	if l := q.Get("level"); l != "" {
		level, err = strconv.ParseFloat(l, 64)
		if err != nil {
			http.Error(w, "invalid level", http.StatusBadRequest)
			return
		}
	}

	req := analysis.Request{
		DatasetID: ds.ID,
		Kind:      analysis.Kind(q.Get("kind")),
		Variable:  q.Get("variable"),
		GroupBy:   q.Get("group_by"),
		Level:     level,
		Method:    q.Get("method"),
	}
	if groups := q.Get("groups"); groups != "" {
		req.Groups = strings.Split(groups, ",")
	}

	res, err := analysis.Run(s.db, req)
	if err != nil {
		if errors.Is(err, stats.ErrNoData) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Info("analysis run",
		zap.Int64("dataset", ds.ID),
		zap.String("kind", string(req.Kind)),
		zap.String("variable", req.Variable))

	writeJSON(w, struct {
		analysisResponse
		Estimates []estimateResponse `json:"estimates"`
	}{toAnalysisResponse(res.Analysis), toEstimateResponses(res.Estimates)})
}

func (s *Server) handleDatabaseDownload(w http.ResponseWriter, r *http.Request) {
	path := s.db.Path()
	if path == "" || path == ":memory:" {
		http.Error(w, "database is not file backed", http.StatusNotFound)
		return
	}
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "database file missing", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="nhanes.db"`)
	http.ServeFile(w, r, path)
}

// pathID parses the numeric id segment directly after prefix.
func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	idStr := rest
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		idStr = rest[:i]
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
