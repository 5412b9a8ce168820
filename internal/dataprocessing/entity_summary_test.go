package dataprocessing

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darahcli/internal/donation"
	"darahcli/internal/shared/testutil"
	"darahcli/pkg/contracts/domain"
)

func TestNewEntitySummarizer(t *testing.T) {
	tests := []struct {
		name      string
		logger    *slog.Logger
		config    EntitySummarizerConfig
		wantFmt   string
		wantLimit int
	}{
		{
			name:      "default config",
			logger:    slog.Default(),
			config:    DefaultEntitySummarizerConfig(),
			wantFmt:   donation.DateLayout,
			wantLimit: 0,
		},
		{
			name:      "custom config",
			logger:    slog.Default(),
			config:    EntitySummarizerConfig{DateFormat: "02/01/2006", Limit: 5},
			wantFmt:   "02/01/2006",
			wantLimit: 5,
		},
		{
			name:      "nil logger uses default",
			logger:    nil,
			config:    EntitySummarizerConfig{},
			wantFmt:   donation.DateLayout,
			wantLimit: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summarizer := NewEntitySummarizer(tt.logger, tt.config)

			assert.NotNil(t, summarizer)
			assert.Equal(t, tt.wantFmt, summarizer.dateFormat)
			assert.Equal(t, tt.wantLimit, summarizer.limit)
			assert.NotNil(t, summarizer.logger)
		})
	}
}

func TestEntitySummarizer_GenerateFromRecords(t *testing.T) {
	ctx := context.Background()
	summarizer := NewEntitySummarizer(slog.Default(), DefaultEntitySummarizerConfig())

	t.Run("orders by total descending with alphabetical ties", func(t *testing.T) {
		records := []domain.DonationRecord{
			{EntityID: "Hospital Beta", Date: testutil.Date(2024, 1, 1), DateValid: true, DailyTotal: 30},
			{EntityID: "Hospital Gamma", Date: testutil.Date(2024, 1, 1), DateValid: true, DailyTotal: 5},
			{EntityID: "Hospital Alpha", Date: testutil.Date(2024, 1, 1), DateValid: true, DailyTotal: 30},
		}

		summaries := summarizer.GenerateFromRecords(ctx, records)

		require.Len(t, summaries, 3)
		assert.Equal(t, "Hospital Alpha", summaries[0].Entity)
		assert.Equal(t, "Hospital Beta", summaries[1].Entity)
		assert.Equal(t, "Hospital Gamma", summaries[2].Entity)
	})

	t.Run("summarizes date range and per-day mean", func(t *testing.T) {
		records := []domain.DonationRecord{
			testutil.Record("Hospital A", testutil.Date(2024, 1, 1), 10),
			testutil.Record("Hospital A", testutil.Date(2024, 1, 2), 14),
			testutil.Record("Hospital A", testutil.Date(2024, 1, 5), 6),
		}

		summaries := summarizer.GenerateFromRecords(ctx, records)

		require.Len(t, summaries, 1)
		s := summaries[0]
		assert.Equal(t, 3, s.Records)
		assert.Equal(t, "2024-01-01", s.FirstDate)
		assert.Equal(t, "2024-01-05", s.LastDate)
		assert.Equal(t, 3, s.ActiveDays)
		assert.Equal(t, int64(30), s.TotalDonations)
		assert.InDelta(t, 10.0, s.MeanPerDay, 1e-9)
		assert.Equal(t, "2024-01-02", s.PeakDate)
		assert.Equal(t, int64(14), s.PeakTotal)
	})

	t.Run("sums same-day records before picking the peak", func(t *testing.T) {
		records := []domain.DonationRecord{
			testutil.Record("Hospital A", testutil.Date(2024, 1, 1), 8),
			testutil.Record("Hospital A", testutil.Date(2024, 1, 1), 9),
			testutil.Record("Hospital A", testutil.Date(2024, 1, 2), 12),
		}

		summaries := summarizer.GenerateFromRecords(ctx, records)

		require.Len(t, summaries, 1)
		assert.Equal(t, 2, summaries[0].ActiveDays)
		assert.Equal(t, "2024-01-01", summaries[0].PeakDate)
		assert.Equal(t, int64(17), summaries[0].PeakTotal)
	})

	t.Run("undated records count toward totals only", func(t *testing.T) {
		records := []domain.DonationRecord{
			testutil.Record("Hospital A", testutil.Date(2024, 1, 1), 10),
			testutil.InvalidDateRecord("Hospital A", 90),
		}

		summaries := summarizer.GenerateFromRecords(ctx, records)

		require.Len(t, summaries, 1)
		s := summaries[0]
		assert.Equal(t, int64(100), s.TotalDonations)
		assert.Equal(t, 1, s.ActiveDays)
		assert.InDelta(t, 10.0, s.MeanPerDay, 1e-9)
		assert.Equal(t, "2024-01-01", s.FirstDate)
		assert.Equal(t, "2024-01-01", s.LastDate)
	})

	t.Run("entity with no valid dates has an empty range", func(t *testing.T) {
		records := []domain.DonationRecord{testutil.InvalidDateRecord("Hospital A", 25)}

		summaries := summarizer.GenerateFromRecords(ctx, records)

		require.Len(t, summaries, 1)
		s := summaries[0]
		assert.Equal(t, int64(25), s.TotalDonations)
		assert.Zero(t, s.ActiveDays)
		assert.Zero(t, s.MeanPerDay)
		assert.Empty(t, s.FirstDate)
		assert.Empty(t, s.PeakDate)
	})

	t.Run("limit truncates after ranking", func(t *testing.T) {
		limited := NewEntitySummarizer(slog.Default(), EntitySummarizerConfig{Limit: 2})
		records := []domain.DonationRecord{
			testutil.Record("Hospital A", testutil.Date(2024, 1, 1), 10),
			testutil.Record("Hospital B", testutil.Date(2024, 1, 1), 30),
			testutil.Record("Hospital C", testutil.Date(2024, 1, 1), 20),
		}

		summaries := limited.GenerateFromRecords(ctx, records)

		require.Len(t, summaries, 2)
		assert.Equal(t, "Hospital B", summaries[0].Entity)
		assert.Equal(t, "Hospital C", summaries[1].Entity)
	})

	t.Run("empty records yield empty summaries", func(t *testing.T) {
		summaries := summarizer.GenerateFromRecords(ctx, nil)

		assert.NotNil(t, summaries)
		assert.Empty(t, summaries)
	})
}

func TestEntitySummarizer_WriteCSV(t *testing.T) {
	ctx := context.Background()
	summarizer := NewEntitySummarizer(slog.Default(), DefaultEntitySummarizerConfig())
	records := []domain.DonationRecord{
		testutil.Record("Hospital A", testutil.Date(2024, 1, 1), 10),
		testutil.Record("Hospital A", testutil.Date(2024, 1, 2), 14),
	}
	summaries := summarizer.GenerateFromRecords(ctx, records)

	path := filepath.Join(t.TempDir(), "out", "entities.csv")
	require.NoError(t, summarizer.WriteCSV(ctx, path, summaries))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	lines, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"entity", "records", "first_date", "last_date", "active_days", "total_donations", "mean_per_day", "peak_date", "peak_total"}, lines[0])
	assert.Equal(t, []string{"Hospital A", "2", "2024-01-01", "2024-01-02", "2", "24", "12.00", "2024-01-02", "14"}, lines[1])
}

func TestEntitySummarizer_WriteJSON(t *testing.T) {
	ctx := context.Background()
	summarizer := NewEntitySummarizer(slog.Default(), DefaultEntitySummarizerConfig())
	summaries := summarizer.GenerateFromRecords(ctx, []domain.DonationRecord{
		testutil.Record("Hospital A", testutil.Date(2024, 1, 1), 10),
	})

	path := filepath.Join(t.TempDir(), "entities.json")
	require.NoError(t, summarizer.WriteJSON(ctx, path, summaries))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		Entities    []EntitySummary `json:"entities"`
		Count       int             `json:"count"`
		GeneratedAt string          `json:"generated_at"`
		Format      string          `json:"format"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 1, decoded.Count)
	assert.Equal(t, "entity_summary_v1", decoded.Format)
	require.Len(t, decoded.Entities, 1)
	assert.Equal(t, "Hospital A", decoded.Entities[0].Entity)
	assert.NotEmpty(t, decoded.GeneratedAt)
}
