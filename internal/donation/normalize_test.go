package donation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darahcli/pkg/contracts/domain"
)

func facilityRow(hospital, date, daily string) domain.RawRow {
	return domain.RawRow{
		"hospital": hospital,
		"date":     date,
		"daily":    daily,
	}
}

func regionRow(state, date, daily string) domain.RawRow {
	return domain.RawRow{
		"state": state,
		"date":  date,
		"daily": daily,
	}
}

// TestNormalize tests raw row cleaning for both datasets
func TestNormalize(t *testing.T) {
	facilitySchema := domain.Schema{EntityColumn: "hospital", DateColumn: "date", TotalColumn: "daily"}
	regionSchema := domain.Schema{
		EntityColumn:    "state",
		DateColumn:      "date",
		TotalColumn:     "daily",
		AggregateEntity: domain.NationwideEntity,
	}

	t.Run("parses valid rows", func(t *testing.T) {
		rows := []domain.RawRow{
			facilityRow("Hospital Kuala Lumpur", "2024-01-01", "20"),
			facilityRow("Hospital Pulau Pinang", "2024-01-02", "15"),
		}

		records, err := Normalize(rows, facilitySchema, false)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, "Hospital Kuala Lumpur", records[0].EntityID)
		assert.True(t, records[0].DateValid)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), records[0].Date)
		assert.Equal(t, int64(20), records[0].DailyTotal)
	})

	t.Run("blank entity becomes Unknown", func(t *testing.T) {
		rows := []domain.RawRow{
			facilityRow("", "2024-01-01", "10"),
			facilityRow("   ", "2024-01-01", "5"),
		}

		records, err := Normalize(rows, facilitySchema, false)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, domain.UnknownEntity, records[0].EntityID)
		assert.Equal(t, domain.UnknownEntity, records[1].EntityID)
	})

	t.Run("unparsable date is retained as invalid", func(t *testing.T) {
		rows := []domain.RawRow{
			facilityRow("Hospital Melaka", "not-a-date", "12"),
			facilityRow("Hospital Melaka", "2024-13-45", "8"),
		}

		records, err := Normalize(rows, facilitySchema, false)
		require.NoError(t, err)
		require.Len(t, records, 2, "bad dates must not drop rows")

		for _, rec := range records {
			assert.False(t, rec.DateValid)
			assert.True(t, rec.Date.IsZero())
		}
		assert.Equal(t, int64(12), records[0].DailyTotal)
	})

	t.Run("nationwide row dropped from region dataset", func(t *testing.T) {
		rows := []domain.RawRow{
			regionRow("Selangor", "2024-01-01", "100"),
			regionRow("Malaysia", "2024-01-01", "250"),
			regionRow("MALAYSIA", "2024-01-02", "240"),
			regionRow("  malaysia ", "2024-01-03", "230"),
			regionRow("Johor", "2024-01-01", "150"),
		}

		records, err := Normalize(rows, regionSchema, true)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Selangor", records[0].EntityID)
		assert.Equal(t, "Johor", records[1].EntityID)
	})

	t.Run("nationwide name kept when not a region dataset", func(t *testing.T) {
		rows := []domain.RawRow{
			facilityRow("Malaysia", "2024-01-01", "10"),
		}

		records, err := Normalize(rows, facilitySchema, false)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Malaysia", records[0].EntityID)
	})

	t.Run("non-numeric total becomes zero", func(t *testing.T) {
		rows := []domain.RawRow{
			facilityRow("Hospital Ipoh", "2024-01-01", "n/a"),
		}

		records, err := Normalize(rows, facilitySchema, false)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(0), records[0].DailyTotal)
	})

	t.Run("zero and negative totals pass through", func(t *testing.T) {
		rows := []domain.RawRow{
			facilityRow("Hospital Ipoh", "2024-01-01", "0"),
			facilityRow("Hospital Ipoh", "2024-01-02", "-7"),
		}

		records, err := Normalize(rows, facilitySchema, false)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, int64(0), records[0].DailyTotal)
		assert.Equal(t, int64(-7), records[1].DailyTotal)
	})

	t.Run("breakdown columns are parsed when present", func(t *testing.T) {
		schema := domain.Schema{
			EntityColumn: "hospital",
			DateColumn:   "date",
			TotalColumn:  "daily",
			CategoryGroups: []domain.CategoryGroup{
				{Name: domain.GroupBloodTypes, Columns: []string{"blood_a", "blood_b"}},
			},
		}
		row := facilityRow("Hospital Kuala Lumpur", "2024-01-01", "9")
		row["blood_a"] = "6"
		row["blood_b"] = "3"

		records, err := Normalize([]domain.RawRow{row}, schema, false)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(6), records[0].Breakdown["blood_a"])
		assert.Equal(t, int64(3), records[0].Breakdown["blood_b"])
	})

	t.Run("absent breakdown columns leave no map", func(t *testing.T) {
		records, err := Normalize([]domain.RawRow{facilityRow("H", "2024-01-01", "1")}, domain.FacilitySchema(), false)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Nil(t, records[0].Breakdown)
	})

	t.Run("missing required column fails the call", func(t *testing.T) {
		rows := []domain.RawRow{
			{"hospital": "Hospital Kuala Lumpur", "date": "2024-01-01"},
		}

		_, err := Normalize(rows, facilitySchema, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "daily")
	})

	t.Run("empty input yields no records and no error", func(t *testing.T) {
		records, err := Normalize(nil, facilitySchema, false)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

// TestParseCount tests numeric cell parsing tolerance
func TestParseCount(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int64
	}{
		{"plain integer", "42", 42},
		{"whitespace padded", "  17 ", 17},
		{"negative", "-3", -3},
		{"decimal notation", "12.0", 12},
		{"empty", "", 0},
		{"garbage", "abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseCount(tt.raw))
		})
	}
}
