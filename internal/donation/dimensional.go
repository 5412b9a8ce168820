package donation

import (
	"sort"

	"darahcli/pkg/contracts/domain"
)

// GroupSum computes one summed total per grouping key. It is the single
// grouped-sum implementation behind every reporting dimension: hospital
// ranking, yearly and monthly series, and each breakdown category. The
// key selector may exclude a record (ok=false); the value selector
// picks the summed quantity. Groups keep first-seen key order under the
// stable sort, so equal totals rank in input order. Empty input yields
// an empty slice, never an error.
func GroupSum(records []domain.DonationRecord, key KeyFunc, value ValueFunc, order SortOrder) []domain.GroupTotal {
	totals := make(map[string]int64)
	seen := make([]string, 0)

	for _, rec := range records {
		k, ok := key(rec)
		if !ok {
			continue
		}
		if _, exists := totals[k]; !exists {
			seen = append(seen, k)
		}
		totals[k] += value(rec)
	}

	out := make([]domain.GroupTotal, 0, len(seen))
	for _, k := range seen {
		out = append(out, domain.GroupTotal{Key: k, Total: totals[k]})
	}

	switch order {
	case ByValueDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	case ByKeyAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	}

	return out
}

// GroupByEntity ranks reporting entities by summed daily total, largest
// first. With the facility dataset this is the hospital ranking; with
// the region dataset, the per-state ranking.
func GroupByEntity(records []domain.DonationRecord) []domain.GroupTotal {
	return GroupSum(records,
		func(r domain.DonationRecord) (string, bool) { return r.EntityID, true },
		DailyTotalValue,
		ByValueDesc)
}

// GroupByYear sums daily totals per calendar year in ascending year
// order. Records without a valid date are excluded.
func GroupByYear(records []domain.DonationRecord) []domain.GroupTotal {
	return groupByPeriod(records, GranularityYear)
}

// GroupByMonth sums daily totals per calendar month in ascending month
// order. Records without a valid date are excluded.
func GroupByMonth(records []domain.DonationRecord) []domain.GroupTotal {
	return groupByPeriod(records, GranularityMonth)
}

// GroupByEntityYear sums daily totals per entity per calendar year, the
// long form of the year-by-entity pivot behind the facility yearly
// trend. Rows come back sorted by entity name then year, so one
// entity's series is contiguous and chronological. Records without a
// valid date are excluded. Empty input yields an empty slice.
func GroupByEntityYear(records []domain.DonationRecord) []domain.EntityPeriodTotal {
	layout := GranularityYear.Layout()

	type cell struct {
		entity string
		year   string
	}
	totals := make(map[cell]int64)
	for _, rec := range records {
		if !rec.DateValid {
			continue
		}
		totals[cell{entity: rec.EntityID, year: rec.Date.Format(layout)}] += DailyTotalValue(rec)
	}

	out := make([]domain.EntityPeriodTotal, 0, len(totals))
	for c, total := range totals {
		out = append(out, domain.EntityPeriodTotal{Entity: c.entity, Period: c.year, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entity != out[j].Entity {
			return out[i].Entity < out[j].Entity
		}
		return out[i].Period < out[j].Period
	})
	return out
}

func groupByPeriod(records []domain.DonationRecord, g Granularity) []domain.GroupTotal {
	layout := g.Layout()
	return GroupSum(records,
		func(r domain.DonationRecord) (string, bool) {
			if !r.DateValid {
				return "", false
			}
			return r.Date.Format(layout), true
		},
		DailyTotalValue,
		ByKeyAsc)
}

// GroupByBreakdown sums each named breakdown column across all records,
// one total per column in the group's declared order. It serves the
// blood-type, donation-type, social-group and donor-type dimensions
// with no per-category code.
func GroupByBreakdown(records []domain.DonationRecord, group domain.CategoryGroup) []domain.GroupTotal {
	out := make([]domain.GroupTotal, 0, len(group.Columns))
	if len(records) == 0 {
		return out
	}
	for _, col := range group.Columns {
		totals := GroupSum(records,
			func(domain.DonationRecord) (string, bool) { return col, true },
			BreakdownValue(col),
			ByKeyAsc)
		out = append(out, totals...)
	}
	return out
}
