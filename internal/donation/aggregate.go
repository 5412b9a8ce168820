package donation

import (
	"sort"

	"darahcli/pkg/contracts/domain"
)

// AggregateByPeriod collapses records into one summed total per calendar
// period at the requested granularity. Only records with a valid date
// participate; invalid dates stay out of every time axis. Output is
// ordered ascending by period and empty input yields an empty slice.
func AggregateByPeriod(records []domain.DonationRecord, g Granularity) []domain.PeriodTotal {
	layout := g.Layout()

	totals := make(map[string]int64)
	for _, rec := range records {
		if !rec.DateValid {
			continue
		}
		totals[rec.Date.Format(layout)] += rec.DailyTotal
	}

	out := make([]domain.PeriodTotal, 0, len(totals))
	for period, total := range totals {
		out = append(out, domain.PeriodTotal{Period: period, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })

	return out
}
