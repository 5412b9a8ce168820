package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"darahcli/pkg/contracts/domain"
)

// FacilityCSV is a small but realistic slice of the per-hospital dataset.
// Totals per date: 2024-01-01 = 35, 2024-01-02 = 28.
const FacilityCSV = `date,hospital,daily,blood_a,blood_b,blood_o,blood_ab,type_wholeblood,type_apheresis_platelet,type_apheresis_plasma,type_other,social_civilian,social_student,social_policearmy,donations_new,donations_regular,donations_irregular
2024-01-01,Hospital Kuala Lumpur,20,6,5,7,2,18,1,1,0,15,4,1,5,12,3
2024-01-01,Hospital Pulau Pinang,15,4,4,6,1,14,1,0,0,10,4,1,3,10,2
2024-01-02,Hospital Kuala Lumpur,18,5,4,7,2,16,1,1,0,13,4,1,4,11,3
2024-01-02,Hospital Pulau Pinang,10,3,2,4,1,9,1,0,0,7,2,1,2,7,1
`

// RegionCSV is the matching per-state dataset. The nationwide "Malaysia"
// rows aggregate the states and are dropped during normalization. State
// totals per date: 2024-01-01 = 35, 2024-01-02 = 27 (one unit short of
// the facility sum, a deliberate mismatch).
const RegionCSV = `date,state,daily,blood_a,blood_b,blood_o,blood_ab,type_wholeblood,type_apheresis_platelet,type_apheresis_plasma,type_other,social_civilian,social_student,social_policearmy,donations_new,donations_regular,donations_irregular
2024-01-01,W.P. Kuala Lumpur,20,6,5,7,2,18,1,1,0,15,4,1,5,12,3
2024-01-01,Pulau Pinang,15,4,4,6,1,14,1,0,0,10,4,1,3,10,2
2024-01-01,Malaysia,35,10,9,13,3,32,2,1,0,25,8,2,8,22,5
2024-01-02,W.P. Kuala Lumpur,17,5,4,6,2,15,1,1,0,12,4,1,4,10,3
2024-01-02,Pulau Pinang,10,3,2,4,1,9,1,0,0,7,2,1,2,7,1
2024-01-02,Malaysia,27,8,6,10,3,24,2,1,0,19,6,2,6,17,4
`

// WriteTempCSV writes content to a file in a test temp dir and returns its path
func WriteTempCSV(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

// RawRowsFromCSV parses inline CSV content into header-keyed rows, the
// shape the loader hands to normalization.
func RawRowsFromCSV(t *testing.T, content string) []domain.RawRow {
	t.Helper()

	lines, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse fixture CSV: %v", err)
	}
	if len(lines) == 0 {
		return nil
	}

	header := lines[0]
	rows := make([]domain.RawRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		row := make(domain.RawRow, len(header))
		for i, col := range header {
			if i < len(line) {
				row[col] = line[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Date builds a UTC calendar date for fixtures
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Record builds a valid-date DonationRecord
func Record(entity string, date time.Time, total int64) domain.DonationRecord {
	return domain.DonationRecord{
		EntityID:   entity,
		Date:       date,
		DateValid:  true,
		DailyTotal: total,
	}
}

// RecordWithBreakdown builds a valid-date DonationRecord with breakdown counts
func RecordWithBreakdown(entity string, date time.Time, total int64, breakdown map[string]int64) domain.DonationRecord {
	r := Record(entity, date, total)
	r.Breakdown = breakdown
	return r
}

// InvalidDateRecord builds a record whose source date failed to parse
func InvalidDateRecord(entity string, total int64) domain.DonationRecord {
	return domain.DonationRecord{
		EntityID:   entity,
		DateValid:  false,
		DailyTotal: total,
	}
}
