package donation

import (
	"math"
	"sort"

	"darahcli/pkg/contracts/domain"
)

// Describe computes the standard summary statistics of a numeric
// series: count, mean, sample standard deviation, min, quartiles and
// max. Quartiles use linear interpolation between the two nearest
// order statistics. Empty input yields zero-valued stats with Count 0;
// a single value has zero deviation.
func Describe(values []float64) domain.DescriptiveStats {
	n := len(values)
	if n == 0 {
		return domain.DescriptiveStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var stddev float64
	if n > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - mean
			sq += d * d
		}
		stddev = math.Sqrt(sq / float64(n-1))
	}

	return domain.DescriptiveStats{
		Count:  n,
		Mean:   mean,
		StdDev: stddev,
		Min:    sorted[0],
		Q25:    percentile(sorted, 0.25),
		Median: percentile(sorted, 0.50),
		Q75:    percentile(sorted, 0.75),
		Max:    sorted[n-1],
	}
}

// percentile interpolates the q-th quantile of an ascending series.
func percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
