package exporter

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darahcli/internal/config"
	"darahcli/pkg/contracts/domain"
)

// testAnalysisResult builds a small but fully populated run result
// shared by the aggregate and workbook exporter tests.
func testAnalysisResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Facility: domain.DatasetAnalysis{
			Dataset: domain.DatasetFacility,
			Profile: domain.DatasetProfile{Dataset: domain.DatasetFacility, Rows: 4},
			Daily: []domain.PeriodTotal{
				{Period: "2024-01-01", Total: 35},
				{Period: "2024-01-02", Total: 28},
			},
			Monthly: []domain.PeriodTotal{{Period: "2024-01", Total: 63}},
			Yearly:  []domain.PeriodTotal{{Period: "2024", Total: 63}},
			TopEntities: []domain.GroupTotal{
				{Key: "Hospital Kuala Lumpur", Total: 38},
				{Key: "Hospital Pulau Pinang", Total: 25},
			},
			EntityYearly: []domain.EntityPeriodTotal{
				{Entity: "Hospital Kuala Lumpur", Period: "2024", Total: 38},
				{Entity: "Hospital Pulau Pinang", Period: "2024", Total: 25},
			},
			Categories: map[string][]domain.GroupTotal{
				"blood_types": {
					{Key: "blood_o", Total: 24},
					{Key: "blood_a", Total: 18},
				},
			},
			Correlation: domain.CorrelationMatrix{
				Columns: []string{"daily_total", "blood_a"},
				Values:  [][]float64{{1, 0.5}, {0.5, 1}},
			},
		},
		Region: domain.DatasetAnalysis{
			Dataset: domain.DatasetRegion,
			Profile: domain.DatasetProfile{Dataset: domain.DatasetRegion, Rows: 6},
			Daily: []domain.PeriodTotal{
				{Period: "2024-01-01", Total: 35},
				{Period: "2024-01-02", Total: 27},
			},
			Monthly: []domain.PeriodTotal{{Period: "2024-01", Total: 62}},
			Yearly:  []domain.PeriodTotal{{Period: "2024", Total: 62}},
			TopEntities: []domain.GroupTotal{
				{Key: "W.P. Kuala Lumpur", Total: 37},
				{Key: "Pulau Pinang", Total: 25},
			},
			EntityYearly: []domain.EntityPeriodTotal{
				{Entity: "Pulau Pinang", Period: "2024", Total: 25},
				{Entity: "W.P. Kuala Lumpur", Period: "2024", Total: 37},
			},
			Categories: map[string][]domain.GroupTotal{
				"blood_types": {
					{Key: "blood_o", Total: 23},
					{Key: "blood_a", Total: 17},
				},
			},
			Correlation: domain.CorrelationMatrix{
				Columns: []string{"daily_total", "blood_a"},
				Values:  [][]float64{{1, math.NaN()}, {math.NaN(), math.NaN()}},
			},
		},
		Reconciliation: domain.ReconciliationReport{
			Rows: []domain.ReconciliationRow{
				{Date: "2024-01-01", FacilityTotal: 35, RegionTotal: 35, Difference: 0, Matched: true},
				{Date: "2024-01-02", FacilityTotal: 28, RegionTotal: 27, Difference: 1, Matched: false},
			},
			TotalDates:      2,
			MatchedDates:    1,
			MismatchedDates: 1,
			DifferenceStats: domain.DescriptiveStats{
				Count: 2, Mean: 0.5, StdDev: 0.71, Min: 0, Q25: 0.25, Median: 0.5, Q75: 0.75, Max: 1,
			},
			MismatchPreview: []domain.ReconciliationRow{
				{Date: "2024-01-02", FacilityTotal: 28, RegionTotal: 27, Difference: 1, Matched: false},
			},
		},
	}
}

func TestAggregatesExporter_ExportAll(t *testing.T) {
	tempDir := t.TempDir()
	paths := &config.Paths{ReportsDir: filepath.Join(tempDir, "reports")}
	aggregates := NewAggregatesExporter(paths)

	require.NoError(t, aggregates.ExportAll(testAnalysisResult()))

	t.Run("ranked entities", func(t *testing.T) {
		lines := readCSVFile(t, paths.GetAggregateCSVPath("hospitals"))
		require.Len(t, lines, 3)
		assert.Equal(t, []string{"hospital", "total"}, lines[0])
		assert.Equal(t, []string{"Hospital Kuala Lumpur", "38"}, lines[1])

		lines = readCSVFile(t, paths.GetAggregateCSVPath("states"))
		assert.Equal(t, []string{"W.P. Kuala Lumpur", "37"}, lines[1])
	})

	t.Run("category totals per dataset", func(t *testing.T) {
		lines := readCSVFile(t, paths.GetAggregateCSVPath("blood_types_facility"))
		require.Len(t, lines, 3)
		assert.Equal(t, []string{"category", "total"}, lines[0])
		assert.Equal(t, []string{"blood_o", "24"}, lines[1])

		lines = readCSVFile(t, paths.GetAggregateCSVPath("blood_types_region"))
		assert.Equal(t, []string{"blood_o", "23"}, lines[1])
	})

	t.Run("time series", func(t *testing.T) {
		lines := readCSVFile(t, paths.GetAggregateCSVPath("daily_facility"))
		require.Len(t, lines, 3)
		assert.Equal(t, []string{"2024-01-02", "28"}, lines[2])

		lines = readCSVFile(t, paths.GetAggregateCSVPath("monthly_region"))
		assert.Equal(t, []string{"2024-01", "62"}, lines[1])

		lines = readCSVFile(t, paths.GetAggregateCSVPath("yearly_facility"))
		assert.Equal(t, []string{"2024", "63"}, lines[1])
	})

	t.Run("mismatches keep only disagreeing dates", func(t *testing.T) {
		lines := readCSVFile(t, paths.GetReportPath("mismatches.csv"))
		require.Len(t, lines, 2)
		assert.Equal(t, []string{"date", "facility_total", "region_total", "difference"}, lines[0])
		assert.Equal(t, []string{"2024-01-02", "28", "27", "1"}, lines[1])
	})

	t.Run("difference stats", func(t *testing.T) {
		lines := readCSVFile(t, paths.GetReportPath("difference_stats.csv"))
		require.Len(t, lines, 9)
		assert.Equal(t, []string{"count", "2"}, lines[1])
		assert.Equal(t, []string{"mean", "0.50"}, lines[2])
		assert.Equal(t, []string{"max", "1.00"}, lines[8])
	})
}

func TestAggregatesExporter_ExportAllNilResult(t *testing.T) {
	aggregates := NewAggregatesExporter(&config.Paths{ReportsDir: t.TempDir()})

	err := aggregates.ExportAll(nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no analysis result")
}
