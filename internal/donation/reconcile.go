package donation

import (
	"sort"

	"darahcli/pkg/contracts/domain"
)

// MismatchPreviewLimit caps how many mismatched dates the report quotes
// verbatim; the full set is always available through the rows.
const MismatchPreviewLimit = 10

// Reconcile aligns the facility-derived and region-derived daily series
// on calendar date and classifies every date in their union.
//
// A date missing from one side compares against zero: the absence is a
// reportable discrepancy, not an error. Matching is exact signed
// equality, so a one-unit difference is a mismatch; the two series
// describe the same ground truth and any gap is a data-quality finding.
// Rows come back in ascending date order together with descriptive
// statistics of the difference series and a preview of the first
// mismatched dates.
func Reconcile(facilityDaily, regionDaily []domain.PeriodTotal) domain.ReconciliationReport {
	facility := make(map[string]int64, len(facilityDaily))
	for _, pt := range facilityDaily {
		facility[pt.Period] = pt.Total
	}
	region := make(map[string]int64, len(regionDaily))
	for _, pt := range regionDaily {
		region[pt.Period] = pt.Total
	}

	dates := make([]string, 0, len(facility)+len(region))
	for d := range facility {
		dates = append(dates, d)
	}
	for d := range region {
		if _, seen := facility[d]; !seen {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)

	report := domain.ReconciliationReport{
		Rows:       make([]domain.ReconciliationRow, 0, len(dates)),
		TotalDates: len(dates),
	}
	differences := make([]float64, 0, len(dates))

	for _, date := range dates {
		row := domain.ReconciliationRow{
			Date:          date,
			FacilityTotal: facility[date],
			RegionTotal:   region[date],
		}
		row.Difference = row.FacilityTotal - row.RegionTotal
		row.Matched = row.Difference == 0

		if row.Matched {
			report.MatchedDates++
		} else {
			report.MismatchedDates++
			if len(report.MismatchPreview) < MismatchPreviewLimit {
				report.MismatchPreview = append(report.MismatchPreview, row)
			}
		}

		report.Rows = append(report.Rows, row)
		differences = append(differences, float64(row.Difference))
	}

	report.DifferenceStats = Describe(differences)
	return report
}
