// Package donation implements the reconciliation and aggregation engine
// for Malaysian blood donation data.
//
// Two public datasets describe the same activity from different angles:
// a per-facility dataset (one row per hospital per day) and a per-state
// dataset (one row per state per day, plus one synthetic nationwide row).
// This package cleans both, aligns them by calendar date, quantifies the
// per-date discrepancy between the independently reported totals, and
// derives grouped summaries along every reporting dimension.
//
// # Core Components
//
// The engine is a set of pure functions over normalized records:
//
//  1. Normalize: raw rows plus a schema become DonationRecord values
//  2. AggregateByPeriod: records collapse to daily, monthly or yearly totals
//  3. Reconcile: two daily series join on date into a discrepancy report
//  4. GroupSum: one parameterized grouped sum serving every dimension
//  5. CorrelationMatrix: pairwise Pearson coefficients over numeric attributes
//
// # Architecture
//
// The package follows a leaf-first layout with clear separation of concerns:
//
//   - types.go: granularity, ordering and selector types
//   - normalize.go: raw row cleaning and sentinel handling
//   - aggregate.go: period bucketing of valid-dated records
//   - reconcile.go: date alignment, differences and match classification
//   - dimensional.go: parameterized grouped sums and their seven consumers
//   - correlation.go: Pearson correlation matrix construction
//   - stats.go: descriptive statistics (count, mean, std, quartiles)
//   - profile.go: data-quality profiling of a loaded dataset
//   - analyzer.go: orchestrator running both datasets end to end
//   - persist.go: CSV, JSON and text report output
//
// # Usage Example
//
//	analyzer := NewAnalyzer(slog.Default(), DefaultAnalyzerConfig())
//	result, err := analyzer.Run(ctx, facilityInput, regionInput)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("dates compared: %d, mismatched: %d\n",
//	    result.Reconciliation.TotalDates,
//	    result.Reconciliation.MismatchedDates)
//
//	if err := SaveReconciliationCSV(result.Reconciliation, "reconciliation.csv"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Key Behaviors
//
//   - Unparsable dates are retained (marked invalid) so row counts stay
//     honest, but never contribute to date-keyed grouping
//   - A missing reporting entity becomes the literal "Unknown" and groups
//     like any other value
//   - The nationwide aggregate row is dropped from the region dataset
//     before comparison; keeping it would double every regional total
//   - A date present on one side only reconciles against zero; absence
//     is reportable data, not an error
//   - Matching is exact: any nonzero difference is a mismatch, because the
//     two datasets are two views of the same ground truth
//   - Zero-variance attributes correlate as NaN, never as an error
//   - Inputs are never mutated; every function returns fresh output
//
// # Data Requirements
//
// Input rows are header-keyed string maps produced by the dataprocessing
// loader. The Schema names the entity, date and total columns plus the
// breakdown category groups; the engine never hardcodes column names.
// Dates use the YYYY-MM-DD source format.
//
// # Output
//
// The analyzer produces a domain.AnalysisResult holding, per dataset, the
// quality profile, daily/monthly/yearly series, hospital ranking, category
// totals and correlation matrix, plus the cross-dataset reconciliation
// report with descriptive statistics over the difference series.
package donation
