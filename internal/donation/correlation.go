package donation

import (
	"math"

	"darahcli/pkg/contracts/domain"
)

// TotalAttribute is the attribute name that resolves to a record's
// daily total when correlating; every other attribute name indexes the
// breakdown mapping.
const TotalAttribute = "daily_total"

// NumericAttributes returns the correlation attribute list for a
// schema: the daily total followed by every breakdown column.
func NumericAttributes(schema domain.Schema) []string {
	return append([]string{TotalAttribute}, schema.BreakdownColumns()...)
}

// CorrelationMatrix computes pairwise Pearson coefficients over the
// named numeric attributes. The matrix is symmetric with a diagonal of
// exactly 1.0 for attributes with nonzero variance. A zero-variance
// attribute is undefined against everything, itself included; those
// cells are NaN and are surfaced as-is rather than dropped or turned
// into an error.
func CorrelationMatrix(records []domain.DonationRecord, attrs []string) domain.CorrelationMatrix {
	cols := len(attrs)
	matrix := domain.CorrelationMatrix{
		Columns: append([]string(nil), attrs...),
		Values:  make([][]float64, cols),
	}
	for i := range matrix.Values {
		matrix.Values[i] = make([]float64, cols)
	}

	n := len(records)
	series := make([][]float64, cols)
	for i, attr := range attrs {
		series[i] = make([]float64, n)
		for k, rec := range records {
			series[i][k] = attributeValue(rec, attr)
		}
	}

	deviations := make([][]float64, cols)
	sumSquares := make([]float64, cols)
	for i := range series {
		var sum float64
		for _, v := range series[i] {
			sum += v
		}
		mean := 0.0
		if n > 0 {
			mean = sum / float64(n)
		}
		deviations[i] = make([]float64, n)
		for k, v := range series[i] {
			d := v - mean
			deviations[i][k] = d
			sumSquares[i] += d * d
		}
	}

	for i := 0; i < cols; i++ {
		for j := i; j < cols; j++ {
			var r float64
			switch {
			case sumSquares[i] == 0 || sumSquares[j] == 0:
				r = math.NaN()
			case i == j:
				r = 1.0
			default:
				var cov float64
				for k := 0; k < n; k++ {
					cov += deviations[i][k] * deviations[j][k]
				}
				r = cov / math.Sqrt(sumSquares[i]*sumSquares[j])
			}
			matrix.Values[i][j] = r
			matrix.Values[j][i] = r
		}
	}

	return matrix
}

func attributeValue(rec domain.DonationRecord, attr string) float64 {
	if attr == TotalAttribute {
		return float64(rec.DailyTotal)
	}
	return float64(rec.Breakdown[attr])
}
