package donation

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"darahcli/pkg/contracts/domain"
)

// SaveReconciliationCSV writes the per-date comparison to a CSV file.
// Rows keep the report's ascending date order so the file diffs cleanly
// between runs.
func SaveReconciliationCSV(report domain.ReconciliationReport, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"date", "facility_total", "region_total", "difference", "matched"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, row := range report.Rows {
		record := []string{
			row.Date,
			strconv.FormatInt(row.FacilityTotal, 10),
			strconv.FormatInt(row.RegionTotal, 10),
			strconv.FormatInt(row.Difference, 10),
			strconv.FormatBool(row.Matched),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write CSV record for %s: %w", row.Date, err)
		}
	}

	return writer.Error()
}

// SaveGroupTotalsCSV writes one grouped-total series to a CSV file,
// preserving the ordering the aggregator chose (ranking or time axis).
func SaveGroupTotalsCSV(totals []domain.GroupTotal, keyHeader, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{keyHeader, "total"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, gt := range totals {
		record := []string{gt.Key, strconv.FormatInt(gt.Total, 10)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write CSV record for %s: %w", gt.Key, err)
		}
	}

	return writer.Error()
}

// SaveCorrelationCSV writes a correlation matrix to CSV with attribute
// names on both axes. Undefined coefficients become empty cells.
func SaveCorrelationCSV(matrix domain.CorrelationMatrix, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := append([]string{"attribute"}, matrix.Columns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for i, attr := range matrix.Columns {
		record := make([]string, 0, len(matrix.Columns)+1)
		record = append(record, attr)
		for _, v := range matrix.Values[i] {
			if math.IsNaN(v) {
				record = append(record, "")
				continue
			}
			record = append(record, formatFloat(v, 6))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write CSV record for %s: %w", attr, err)
		}
	}

	return writer.Error()
}

// formatFloat formats a float64 value for CSV output with the given precision
func formatFloat(value float64, precision int) string {
	return strconv.FormatFloat(value, 'f', precision, 64)
}

// SaveResultJSON saves a complete analysis result to a JSON file with
// run metadata and pretty printing.
func SaveResultJSON(result *domain.AnalysisResult, outputPath string) error {
	if result == nil {
		return fmt.Errorf("no analysis result to save")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	output := map[string]interface{}{
		"metadata": map[string]interface{}{
			"generated_at":     result.GeneratedAt.Format(time.RFC3339),
			"facility_records": result.Facility.Profile.Rows,
			"region_records":   result.Region.Profile.Rows,
			"dates_compared":   result.Reconciliation.TotalDates,
			"mismatched_dates": result.Reconciliation.MismatchedDates,
		},
		"result": result,
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	return nil
}

// SaveSummaryReport writes a human-readable summary of the analysis:
// dataset overviews, the reconciliation verdict, top hospitals, yearly
// totals and category totals.
func SaveSummaryReport(result *domain.AnalysisResult, outputPath string) error {
	if result == nil {
		return fmt.Errorf("no analysis result to save")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "Darah Donation Insights - Reconciliation Report\n")
	fmt.Fprintf(file, "===============================================\n\n")
	fmt.Fprintf(file, "Generated: %s\n\n", result.GeneratedAt.Format("2006-01-02 15:04:05"))

	writeDatasetOverview(file, result.Facility)
	writeDatasetOverview(file, result.Region)

	rec := result.Reconciliation
	fmt.Fprintf(file, "RECONCILIATION\n")
	fmt.Fprintf(file, "--------------\n")
	fmt.Fprintf(file, "Dates Compared: %d\n", rec.TotalDates)
	fmt.Fprintf(file, "Matched: %d\n", rec.MatchedDates)
	fmt.Fprintf(file, "Mismatched: %d\n", rec.MismatchedDates)
	if rec.TotalDates > 0 {
		rate := float64(rec.MatchedDates) / float64(rec.TotalDates) * 100
		fmt.Fprintf(file, "Match Rate: %.1f%%\n", rate)
	}
	fmt.Fprintf(file, "Difference Mean: %.4f\n", rec.DifferenceStats.Mean)
	fmt.Fprintf(file, "Difference Std Dev: %.4f\n", rec.DifferenceStats.StdDev)
	fmt.Fprintf(file, "Difference Range: %.0f to %.0f\n\n", rec.DifferenceStats.Min, rec.DifferenceStats.Max)

	if rec.MismatchedDates == 0 {
		fmt.Fprintf(file, "VERDICT: facility sums equal regional totals on every compared date\n\n")
	} else {
		fmt.Fprintf(file, "VERDICT: %d date(s) differ between the two datasets\n\n", rec.MismatchedDates)

		fmt.Fprintf(file, "MISMATCHED DATES (first %d)\n", len(rec.MismatchPreview))
		fmt.Fprintf(file, "---------------------------\n")
		for _, row := range rec.MismatchPreview {
			fmt.Fprintf(file, "%s: facility=%d region=%d difference=%+d\n",
				row.Date, row.FacilityTotal, row.RegionTotal, row.Difference)
		}
		fmt.Fprintf(file, "\n")
	}

	fmt.Fprintf(file, "TOP HOSPITALS BY TOTAL DONATIONS\n")
	fmt.Fprintf(file, "--------------------------------\n")
	for i, gt := range result.Facility.TopEntities {
		fmt.Fprintf(file, "%2d. %s: %d\n", i+1, gt.Key, gt.Total)
	}
	fmt.Fprintf(file, "\n")

	fmt.Fprintf(file, "YEARLY TOTALS\n")
	fmt.Fprintf(file, "-------------\n")
	fmt.Fprintf(file, "%-8s %14s %14s\n", "Year", "Facility", "Region")
	writeYearlyTotals(file, result.Facility.Yearly, result.Region.Yearly)
	fmt.Fprintf(file, "\n")

	writeCategoryTotals(file, result.Facility)

	return nil
}

func writeDatasetOverview(file *os.File, analysis domain.DatasetAnalysis) {
	p := analysis.Profile
	fmt.Fprintf(file, "DATASET OVERVIEW: %s\n", analysis.Dataset)
	fmt.Fprintf(file, "--------------------------\n")
	fmt.Fprintf(file, "Rows: %d\n", p.Rows)
	fmt.Fprintf(file, "Columns: %d\n", p.Columns)
	fmt.Fprintf(file, "Duplicate Rows: %d\n", p.DuplicateRows)
	fmt.Fprintf(file, "Invalid Dates: %d\n", p.InvalidDates)
	fmt.Fprintf(file, "Unknown Entities: %d\n", p.UnknownEntities)
	if p.DroppedAggregateRows > 0 {
		fmt.Fprintf(file, "Dropped Aggregate Rows: %d\n", p.DroppedAggregateRows)
	}
	fmt.Fprintf(file, "\n")
}

func writeYearlyTotals(file *os.File, facility, region []domain.PeriodTotal) {
	regionByYear := make(map[string]int64, len(region))
	for _, pt := range region {
		regionByYear[pt.Period] = pt.Total
	}
	for _, pt := range facility {
		fmt.Fprintf(file, "%-8s %14d %14d\n", pt.Period, pt.Total, regionByYear[pt.Period])
	}
}

func writeCategoryTotals(file *os.File, analysis domain.DatasetAnalysis) {
	order := []string{
		domain.GroupBloodTypes,
		domain.GroupDonationTypes,
		domain.GroupSocialGroups,
		domain.GroupDonorTypes,
	}
	for _, name := range order {
		totals, ok := analysis.Categories[name]
		if !ok || len(totals) == 0 {
			continue
		}
		fmt.Fprintf(file, "CATEGORY: %s (%s)\n", name, analysis.Dataset)
		fmt.Fprintf(file, "--------------------------\n")
		for _, gt := range totals {
			fmt.Fprintf(file, "%-26s %d\n", gt.Key, gt.Total)
		}
		fmt.Fprintf(file, "\n")
	}
}
