package donation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "darahcli/internal/errors"
	"darahcli/pkg/contracts/domain"
)

// DateLayout is the calendar date format used by both source datasets.
const DateLayout = "2006-01-02"

// Normalize converts raw header-keyed rows into donation records.
//
// Dates that fail to parse are kept with DateValid=false so the row
// still counts toward totals and quality statistics; only date-keyed
// grouping skips them. A blank entity becomes domain.UnknownEntity.
// When isRegion is set, rows whose entity case-insensitively equals the
// schema's aggregate entity are dropped entirely; that row restates the
// sum of all the others and would double every comparison.
//
// No other filtering occurs. Zero and negative totals pass through
// unchanged, and unreadable numeric cells become zero rather than
// failing the run.
func Normalize(rows []domain.RawRow, schema domain.Schema, isRegion bool) ([]domain.DonationRecord, error) {
	if err := validateSchema(rows, schema); err != nil {
		return nil, err
	}

	sentinel := schema.AggregateEntity
	if sentinel == "" {
		sentinel = domain.NationwideEntity
	}

	records := make([]domain.DonationRecord, 0, len(rows))
	breakdownCols := schema.BreakdownColumns()

	for _, row := range rows {
		entity := strings.TrimSpace(row[schema.EntityColumn])
		if entity == "" {
			entity = domain.UnknownEntity
		}
		if isRegion && strings.EqualFold(entity, sentinel) {
			continue
		}

		rec := domain.DonationRecord{
			EntityID:   entity,
			DailyTotal: parseCount(row[schema.TotalColumn]),
		}

		if date, err := time.Parse(DateLayout, strings.TrimSpace(row[schema.DateColumn])); err == nil {
			rec.Date = date
			rec.DateValid = true
		}

		for _, col := range breakdownCols {
			raw, present := row[col]
			if !present {
				continue
			}
			if rec.Breakdown == nil {
				rec.Breakdown = make(map[string]int64, len(breakdownCols))
			}
			rec.Breakdown[col] = parseCount(raw)
		}

		records = append(records, rec)
	}

	return records, nil
}

// validateSchema checks that every required column is present in the
// input. Missing columns fail the call; guessing a schema silently
// would make every downstream number wrong.
func validateSchema(rows []domain.RawRow, schema domain.Schema) error {
	var missing []string
	for _, col := range schema.RequiredColumns() {
		if col == "" {
			return apperrors.NewAppValidationError("schema has an empty required column name")
		}
		if len(rows) > 0 {
			if _, ok := rows[0][col]; !ok {
				missing = append(missing, col)
			}
		}
	}
	if len(missing) > 0 {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("input is missing required columns: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// parseCount reads an integer cell, tolerating surrounding whitespace
// and decimal notation. Unreadable cells become zero; the profile
// reports them separately so they are not mistaken for real zeros.
func parseCount(raw string) int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
