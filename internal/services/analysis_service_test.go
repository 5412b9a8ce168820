package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darahcli/internal/config"
	"darahcli/internal/shared/testutil"
	api "darahcli/pkg/contracts/api/v1"
	"darahcli/pkg/contracts/domain"
)

// newTestAnalysisService builds a service over fixture CSVs in a temp dir.
func newTestAnalysisService(t *testing.T) *AnalysisService {
	t.Helper()

	base := t.TempDir()
	datasetsDir := filepath.Join(base, "data", "datasets")
	reportsDir := filepath.Join(base, "data", "reports")
	require.NoError(t, os.MkdirAll(datasetsDir, 0755))

	require.NoError(t, os.WriteFile(
		filepath.Join(datasetsDir, config.FacilityDatasetFileName),
		[]byte(testutil.FacilityCSV), 0644))
	require.NoError(t, os.WriteFile(
		filepath.Join(datasetsDir, config.RegionDatasetFileName),
		[]byte(testutil.RegionCSV), 0644))

	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Server.AnalysisTimeout = 30 * time.Second

	paths := &config.Paths{
		ExecutableDir:     base,
		DataDir:           filepath.Join(base, "data"),
		DatasetsDir:       datasetsDir,
		ReportsDir:        reportsDir,
		FacilityCSV:       filepath.Join(datasetsDir, config.FacilityDatasetFileName),
		RegionCSV:         filepath.Join(datasetsDir, config.RegionDatasetFileName),
		ReconciliationCSV: filepath.Join(reportsDir, "reconciliation.csv"),
		SummaryJSON:       filepath.Join(reportsDir, "summary.json"),
		InsightsWorkbook:  filepath.Join(reportsDir, "darah_insights.xlsx"),
	}

	logger, _ := testutil.NewTestLogger(t)
	return NewAnalysisService(cfg, paths, nil, nil, logger)
}

// waitForRun polls until the background run finishes.
func waitForRun(t *testing.T, s *AnalysisService) {
	t.Helper()

	deadline := time.Now().Add(20 * time.Second)
	for s.Running() {
		if time.Now().After(deadline) {
			t.Fatal("analysis run did not finish in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAnalysisService_StartRun(t *testing.T) {
	s := newTestAnalysisService(t)
	ctx := context.Background()

	runID, err := s.StartRun(ctx, api.AnalysisRunRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	waitForRun(t, s)

	s.mu.RLock()
	runErr := s.lastErr
	s.mu.RUnlock()
	require.NoError(t, runErr)

	snapshot, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, runID, snapshot.RunID)

	result, err := s.Result(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Facility.Profile.Rows)
}

func TestAnalysisService_StartRun_Conflict(t *testing.T) {
	s := newTestAnalysisService(t)

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	_, err := s.StartRun(context.Background(), api.AnalysisRunRequest{})
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestAnalysisService_NoRunYet(t *testing.T) {
	s := newTestAnalysisService(t)
	ctx := context.Background()

	_, err := s.Status(ctx)
	assert.ErrorIs(t, err, ErrNoRun)

	_, err = s.Result(ctx)
	assert.ErrorIs(t, err, ErrNoAnalysisResult)

	_, err = s.Summary(ctx)
	assert.ErrorIs(t, err, ErrNoAnalysisResult)

	_, err = s.Reconciliation(ctx, false)
	assert.ErrorIs(t, err, ErrNoAnalysisResult)

	_, err = s.Entities(ctx, 0)
	assert.ErrorIs(t, err, ErrNoAnalysisResult)
}

func TestAnalysisService_ResultViews(t *testing.T) {
	s := newTestAnalysisService(t)
	ctx := context.Background()

	_, err := s.StartRun(ctx, api.AnalysisRunRequest{})
	require.NoError(t, err)
	waitForRun(t, s)

	t.Run("summary", func(t *testing.T) {
		summary, err := s.Summary(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, summary.TotalDates)
		assert.Equal(t, 1, summary.MatchedDates)
		assert.Equal(t, 1, summary.MismatchedDates)
		require.NotNil(t, summary.TopHospital)
		assert.Equal(t, "Hospital Kuala Lumpur", summary.TopHospital.Key)
	})

	t.Run("reconciliation mismatches only", func(t *testing.T) {
		report, err := s.Reconciliation(ctx, true)
		require.NoError(t, err)

		require.Len(t, report.Rows, 1)
		assert.Equal(t, "2024-01-02", report.Rows[0].Date)
		assert.False(t, report.Rows[0].Matched)
	})

	t.Run("hospital aggregates", func(t *testing.T) {
		resp, err := s.Aggregates(ctx, GroupingHospitals, "facility", 1)
		require.NoError(t, err)

		assert.Equal(t, GroupingHospitals, resp.Grouping)
		require.Len(t, resp.Facility, 1)
		assert.Equal(t, "Hospital Kuala Lumpur", resp.Facility[0].Key)
		assert.Equal(t, int64(38), resp.Facility[0].Total)
		assert.Empty(t, resp.Region)
	})

	t.Run("yearly aggregates both sides", func(t *testing.T) {
		resp, err := s.Aggregates(ctx, GroupingYearly, "both", 0)
		require.NoError(t, err)

		require.Len(t, resp.Facility, 1)
		assert.Equal(t, "2024", resp.Facility[0].Key)
		assert.Equal(t, int64(63), resp.Facility[0].Total)
		require.Len(t, resp.Region, 1)
		assert.Equal(t, int64(62), resp.Region[0].Total)
	})

	t.Run("entity yearly trend", func(t *testing.T) {
		resp, err := s.Aggregates(ctx, GroupingEntityYearly, "both", 0)
		require.NoError(t, err)

		assert.Empty(t, resp.Facility)
		require.Len(t, resp.FacilityTrend, 2)
		assert.Equal(t, domain.EntityPeriodTotal{Entity: "Hospital Kuala Lumpur", Period: "2024", Total: 38},
			resp.FacilityTrend[0])
		require.Len(t, resp.RegionTrend, 2)
		assert.Equal(t, "Pulau Pinang", resp.RegionTrend[0].Entity)
	})

	t.Run("entity yearly trend caps whole entities", func(t *testing.T) {
		resp, err := s.Aggregates(ctx, GroupingEntityYearly, "facility", 1)
		require.NoError(t, err)

		require.Len(t, resp.FacilityTrend, 1)
		assert.Equal(t, "Hospital Kuala Lumpur", resp.FacilityTrend[0].Entity)
	})

	t.Run("blood type aggregates", func(t *testing.T) {
		resp, err := s.Aggregates(ctx, GroupingBloodTypes, "facility", 0)
		require.NoError(t, err)
		assert.Len(t, resp.Facility, 4)
	})

	t.Run("unknown grouping", func(t *testing.T) {
		_, err := s.Aggregates(ctx, "planets", "facility", 0)
		assert.ErrorIs(t, err, ErrUnknownGrouping)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		_, err := s.Aggregates(ctx, GroupingHospitals, "galaxy", 0)
		assert.ErrorIs(t, err, ErrUnknownDataset)
	})

	t.Run("profile", func(t *testing.T) {
		profile, err := s.Profile(ctx, domain.DatasetRegion)
		require.NoError(t, err)
		assert.Equal(t, domain.DatasetRegion, profile.Dataset)
		assert.Equal(t, 6, profile.Rows)
		assert.Equal(t, 2, profile.DroppedAggregateRows)

		_, err = s.Profile(ctx, domain.Dataset("nebula"))
		assert.ErrorIs(t, err, ErrUnknownDataset)
	})

	t.Run("correlation", func(t *testing.T) {
		matrix, err := s.Correlation(ctx, domain.DatasetFacility)
		require.NoError(t, err)
		assert.NotEmpty(t, matrix.Columns)
	})

	t.Run("entities", func(t *testing.T) {
		summaries, err := s.Entities(ctx, 1)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
	})
}

func TestAnalysisService_RunWithOverrides(t *testing.T) {
	s := newTestAnalysisService(t)
	ctx := context.Background()

	// Point the run at alternate dataset files under the datasets dir.
	require.NoError(t, os.WriteFile(
		s.paths.GetDatasetPath("facility_alt.csv"),
		[]byte(testutil.FacilityCSV), 0644))
	require.NoError(t, os.WriteFile(
		s.paths.GetDatasetPath("region_alt.csv"),
		[]byte(testutil.RegionCSV), 0644))

	_, err := s.StartRun(ctx, api.AnalysisRunRequest{
		FacilityFile: "facility_alt.csv",
		RegionFile:   "region_alt.csv",
		TopHospitals: 1,
	})
	require.NoError(t, err)
	waitForRun(t, s)

	result, err := s.Result(ctx)
	require.NoError(t, err)
	assert.Len(t, result.Facility.TopEntities, 1)
}

func TestAnalysisService_RunFailure(t *testing.T) {
	s := newTestAnalysisService(t)
	ctx := context.Background()

	_, err := s.StartRun(ctx, api.AnalysisRunRequest{
		FacilityFile: "does_not_exist.csv",
	})
	require.NoError(t, err)
	waitForRun(t, s)

	s.mu.RLock()
	runErr := s.lastErr
	s.mu.RUnlock()
	assert.Error(t, runErr)

	_, err = s.Result(ctx)
	assert.ErrorIs(t, err, ErrNoAnalysisResult)
}
