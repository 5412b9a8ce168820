package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darahcli/internal/config"
	"darahcli/internal/services"
	"darahcli/internal/shared/testutil"
	api "darahcli/pkg/contracts/api/v1"
)

// newTestRouter wires a real analysis service over fixture CSVs behind
// the handler routes.
func newTestRouter(t *testing.T) (*chi.Mux, *services.AnalysisService) {
	t.Helper()

	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	datasetsDir := filepath.Join(dataDir, "datasets")
	reportsDir := filepath.Join(dataDir, "reports")
	require.NoError(t, os.MkdirAll(datasetsDir, 0755))

	require.NoError(t, os.WriteFile(
		filepath.Join(datasetsDir, config.FacilityDatasetFileName),
		[]byte(testutil.FacilityCSV), 0644))
	require.NoError(t, os.WriteFile(
		filepath.Join(datasetsDir, config.RegionDatasetFileName),
		[]byte(testutil.RegionCSV), 0644))

	cfg := config.Default()
	cfg.Paths.DataDir = dataDir
	cfg.Server.AnalysisTimeout = 30 * time.Second

	paths := &config.Paths{
		ExecutableDir:     base,
		DataDir:           dataDir,
		DatasetsDir:       datasetsDir,
		ReportsDir:        reportsDir,
		FacilityCSV:       filepath.Join(datasetsDir, config.FacilityDatasetFileName),
		RegionCSV:         filepath.Join(datasetsDir, config.RegionDatasetFileName),
		ReconciliationCSV: filepath.Join(reportsDir, "reconciliation.csv"),
		SummaryJSON:       filepath.Join(reportsDir, "summary.json"),
		InsightsWorkbook:  filepath.Join(reportsDir, "darah_insights.xlsx"),
	}

	logger, _ := testutil.NewTestLogger(t)
	service := services.NewAnalysisService(cfg, paths, nil, nil, logger)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		NewAnalysisHandler(service, logger).RegisterRoutes(r)
	})
	return router, service
}

// runAnalysis starts a run through the API and waits for it to finish.
func runAnalysis(t *testing.T, router *chi.Mux, service *services.AnalysisService) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	deadline := time.Now().Add(20 * time.Second)
	for service.Running() {
		if time.Now().After(deadline) {
			t.Fatal("analysis run did not finish in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAnalysisHandler_StartRun(t *testing.T) {
	router, _ := newTestRouter(t)

	body, err := json.Marshal(api.AnalysisRunRequest{TopHospitals: 5})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["run_id"])
	assert.Equal(t, "started", resp["status"])
}

func TestAnalysisHandler_StartRun_Conflict(t *testing.T) {
	router, service := newTestRouter(t)

	// Occupy the single run slot, then try to start another.
	_, err := service.StartRun(context.Background(), api.AnalysisRunRequest{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// The first run may already have finished on a fast machine.
	if rec.Code != http.StatusAccepted {
		assert.Equal(t, http.StatusConflict, rec.Code)
	}
}

func TestAnalysisHandler_NoResultYet(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{
		"/api/analysis/status",
		"/api/reconciliation",
		"/api/aggregates/hospitals",
		"/api/profile/facility",
		"/api/correlation/region",
		"/api/entities",
		"/api/summary",
	} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestAnalysisHandler_ResultEndpoints(t *testing.T) {
	router, service := newTestRouter(t)
	runAnalysis(t, router, service)

	t.Run("status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/analysis/status", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var snapshot map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
		assert.NotEmpty(t, snapshot["run_id"])
	})

	t.Run("reconciliation mismatches only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/reconciliation?mismatches=true", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var report struct {
			Rows []struct {
				Date    string `json:"date"`
				Matched bool   `json:"matched"`
			} `json:"rows"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		require.Len(t, report.Rows, 1)
		assert.Equal(t, "2024-01-02", report.Rows[0].Date)
	})

	t.Run("aggregates with limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/aggregates/hospitals?dataset=facility&limit=1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Grouping string `json:"grouping"`
			Facility []struct {
				Key   string `json:"key"`
				Total int64  `json:"total"`
			} `json:"facility"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "hospitals", resp.Grouping)
		require.Len(t, resp.Facility, 1)
		assert.Equal(t, "Hospital Kuala Lumpur", resp.Facility[0].Key)
	})

	t.Run("aggregates entity yearly trend", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/aggregates/entity-yearly?dataset=facility", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Grouping      string `json:"grouping"`
			FacilityTrend []struct {
				Entity string `json:"entity"`
				Period string `json:"period"`
				Total  int64  `json:"total"`
			} `json:"facility_trend"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "entity-yearly", resp.Grouping)
		require.Len(t, resp.FacilityTrend, 2)
		assert.Equal(t, "Hospital Kuala Lumpur", resp.FacilityTrend[0].Entity)
		assert.Equal(t, "2024", resp.FacilityTrend[0].Period)
	})

	t.Run("aggregates unknown grouping", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/aggregates/planets", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("aggregates invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/aggregates/hospitals?limit=abc", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("profile unknown dataset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile/galaxy", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("summary", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var summary struct {
			TotalDates      int `json:"total_dates"`
			MismatchedDates int `json:"mismatched_dates"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.Equal(t, 2, summary.TotalDates)
		assert.Equal(t, 1, summary.MismatchedDates)
	})

	t.Run("entities", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/entities?limit=1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var summaries []map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
		assert.Len(t, summaries, 1)
	})
}
