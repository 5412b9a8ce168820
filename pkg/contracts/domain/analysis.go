package domain

import (
	"encoding/json"
	"math"
	"time"
)

// PeriodTotal represents summed donations for one calendar period.
// Period keys are ISO formatted (2006-01-02, 2006-01 or 2006) so that
// ascending lexicographic order equals chronological order.
type PeriodTotal struct {
	Period string `json:"period"`
	Total  int64  `json:"total"`
}

// GroupTotal represents summed donations for one group value
// (a hospital, a state, a blood type, and so on).
type GroupTotal struct {
	Key   string `json:"key"`
	Total int64  `json:"total"`
}

// EntityPeriodTotal represents one entity's summed donations within one
// calendar period. Rows with the same entity share its per-period
// series, so a slice of these is the long form of an entity-by-period
// pivot.
type EntityPeriodTotal struct {
	Entity string `json:"entity"`
	Period string `json:"period"`
	Total  int64  `json:"total"`
}

// ReconciliationRow represents one date in the facility-versus-region
// comparison. A dataset missing the date contributes a zero total; the
// row still appears so the gap is visible.
type ReconciliationRow struct {
	Date          string `json:"date"`
	FacilityTotal int64  `json:"facility_total"`
	RegionTotal   int64  `json:"region_total"`
	Difference    int64  `json:"difference"`
	Matched       bool   `json:"matched"`
}

// DescriptiveStats represents the standard summary statistics of a
// numeric series: count, mean, standard deviation, extremes and
// quartiles.
type DescriptiveStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// ReconciliationReport represents the full outcome of aligning the two
// daily series. Rows cover the union of dates in ascending order.
type ReconciliationReport struct {
	Rows            []ReconciliationRow `json:"rows"`
	TotalDates      int                 `json:"total_dates"`
	MatchedDates    int                 `json:"matched_dates"`
	MismatchedDates int                 `json:"mismatched_dates"`
	DifferenceStats DescriptiveStats    `json:"difference_stats"`
	MismatchPreview []ReconciliationRow `json:"mismatch_preview,omitempty"`
}

// CorrelationMatrix represents pairwise Pearson coefficients over the
// numeric attributes of one dataset. Values is square with the same
// ordering as Columns; undefined coefficients (zero variance) are NaN.
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// At returns the coefficient for the named column pair; ok is false
// when either column is unknown. The value itself may be NaN for a
// zero-variance attribute.
func (m CorrelationMatrix) At(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if c == a {
			ia = i
		}
		if c == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return m.Values[ia][ib], true
}

// MarshalJSON encodes undefined coefficients as null, since JSON has no
// NaN literal. Consumers reading the matrix back see null cells as the
// zero value and should rely on Columns for shape.
func (m CorrelationMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			cell := v
			values[i][j] = &cell
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}{Columns: m.Columns, Values: values})
}

// DateCoverage represents how completely a dataset covers its own date
// range. ExpectedDays counts calendar days from FirstDate through
// LastDate inclusive; MissingDays is the number of those days with no
// record on either entity.
type DateCoverage struct {
	FirstDate      string   `json:"first_date"`
	LastDate       string   `json:"last_date"`
	ExpectedDays   int      `json:"expected_days"`
	ObservedDays   int      `json:"observed_days"`
	MissingDays    int      `json:"missing_days"`
	MissingPreview []string `json:"missing_preview,omitempty"`
}

// DatasetProfile represents data-quality counts observed while loading
// and normalizing one dataset.
type DatasetProfile struct {
	Dataset              Dataset                     `json:"dataset"`
	Rows                 int                         `json:"rows"`
	Columns              int                         `json:"columns"`
	MissingByColumn      map[string]int              `json:"missing_by_column,omitempty"`
	DuplicateRows        int                         `json:"duplicate_rows"`
	InvalidDates         int                         `json:"invalid_dates"`
	UnknownEntities      int                         `json:"unknown_entities"`
	BadNumericCells      int                         `json:"bad_numeric_cells"`
	DroppedAggregateRows int                         `json:"dropped_aggregate_rows"`
	Coverage             *DateCoverage               `json:"coverage,omitempty"`
	NumericStats         map[string]DescriptiveStats `json:"numeric_stats,omitempty"`
}

// DatasetAnalysis represents everything derived from a single dataset:
// its quality profile, time-bucketed totals, entity ranking, per-entity
// yearly series, category totals and the correlation matrix of its
// numeric attributes.
type DatasetAnalysis struct {
	Dataset      Dataset                 `json:"dataset"`
	Profile      DatasetProfile          `json:"profile"`
	Daily        []PeriodTotal           `json:"daily"`
	Monthly      []PeriodTotal           `json:"monthly"`
	Yearly       []PeriodTotal           `json:"yearly"`
	TopEntities  []GroupTotal            `json:"top_entities"`
	EntityYearly []EntityPeriodTotal     `json:"entity_yearly,omitempty"`
	Categories   map[string][]GroupTotal `json:"categories"`
	Correlation  CorrelationMatrix       `json:"correlation"`
}

// AnalysisResult represents the complete output of one analysis run
// over the facility and region datasets.
type AnalysisResult struct {
	GeneratedAt    time.Time            `json:"generated_at"`
	Facility       DatasetAnalysis      `json:"facility"`
	Region         DatasetAnalysis      `json:"region"`
	Reconciliation ReconciliationReport `json:"reconciliation"`
}
