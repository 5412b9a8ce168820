package donation

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"darahcli/pkg/contracts/domain"
)

// BuildProfile derives the data-quality profile of one dataset from its
// raw rows and the records normalization produced from them. Missing
// cells, duplicate rows and unreadable numeric cells come from the raw
// side; invalid dates and unknown entities from the normalized side, so
// region counts describe the data actually analyzed (after the
// nationwide row is dropped).
func BuildProfile(dataset domain.Dataset, rows []domain.RawRow, records []domain.DonationRecord, schema domain.Schema) domain.DatasetProfile {
	profile := domain.DatasetProfile{
		Dataset: dataset,
		Rows:    len(rows),
	}

	columns := columnNames(rows)
	profile.Columns = len(columns)

	numeric := make(map[string]bool, 1+len(schema.BreakdownColumns()))
	numeric[schema.TotalColumn] = true
	for _, col := range schema.BreakdownColumns() {
		numeric[col] = true
	}

	missing := make(map[string]int)
	rowKeys := make(map[string]int, len(rows))
	for _, row := range rows {
		for _, col := range columns {
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				missing[col]++
				continue
			}
			if numeric[col] && !isNumericCell(cell) {
				profile.BadNumericCells++
			}
		}

		key := rowKey(row, columns)
		if rowKeys[key] > 0 {
			profile.DuplicateRows++
		}
		rowKeys[key]++
	}
	if len(missing) > 0 {
		profile.MissingByColumn = missing
	}

	if schema.AggregateEntity != "" {
		for _, row := range rows {
			if strings.EqualFold(strings.TrimSpace(row[schema.EntityColumn]), schema.AggregateEntity) {
				profile.DroppedAggregateRows++
			}
		}
	}

	for _, rec := range records {
		if !rec.DateValid {
			profile.InvalidDates++
		}
		if rec.EntityID == domain.UnknownEntity {
			profile.UnknownEntities++
		}
	}

	profile.Coverage = scanCoverage(records)
	profile.NumericStats = numericStats(records, schema)
	return profile
}

// coverageMissingLimit caps how many absent dates the coverage scan
// lists; the count still reflects every gap.
const coverageMissingLimit = 10

// scanCoverage walks the calendar from the earliest to the latest valid
// date and reports days with no record at all. Gaps found here explain
// reconciliation rows where one side contributes zero. Returns nil when
// no record has a valid date.
func scanCoverage(records []domain.DonationRecord) *domain.DateCoverage {
	observed := make(map[string]bool)
	var first, last time.Time
	for _, rec := range records {
		if !rec.DateValid {
			continue
		}
		day := rec.Date.Format(DateLayout)
		if !observed[day] {
			observed[day] = true
			if first.IsZero() || rec.Date.Before(first) {
				first = rec.Date
			}
			if rec.Date.After(last) {
				last = rec.Date
			}
		}
	}
	if len(observed) == 0 {
		return nil
	}

	cov := &domain.DateCoverage{
		FirstDate:    first.Format(DateLayout),
		LastDate:     last.Format(DateLayout),
		ObservedDays: len(observed),
	}
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		cov.ExpectedDays++
		key := day.Format(DateLayout)
		if observed[key] {
			continue
		}
		cov.MissingDays++
		if len(cov.MissingPreview) < coverageMissingLimit {
			cov.MissingPreview = append(cov.MissingPreview, key)
		}
	}
	return cov
}

// columnNames returns the dataset's header columns in sorted order so
// profile output is deterministic.
func columnNames(rows []domain.RawRow) []string {
	if len(rows) == 0 {
		return nil
	}
	cols := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// rowKey builds a canonical representation of one raw row for duplicate
// detection. Column order is fixed by the caller.
func rowKey(row domain.RawRow, columns []string) string {
	var b strings.Builder
	for _, col := range columns {
		b.WriteString(row[col])
		b.WriteByte('\x1f')
	}
	return b.String()
}

func isNumericCell(cell string) bool {
	if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return true
	}
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return true
	}
	return false
}

// numericStats describes every numeric attribute of the normalized
// records, keyed the same way the correlation matrix names them.
func numericStats(records []domain.DonationRecord, schema domain.Schema) map[string]domain.DescriptiveStats {
	if len(records) == 0 {
		return nil
	}

	stats := make(map[string]domain.DescriptiveStats)
	for _, attr := range NumericAttributes(schema) {
		values := make([]float64, len(records))
		for i, rec := range records {
			values[i] = attributeValue(rec, attr)
		}
		stats[attr] = Describe(values)
	}
	return stats
}
