package donation

import (
	"darahcli/pkg/contracts/domain"
)

// Granularity represents the time bucket used when aggregating records
type Granularity int

const (
	// GranularityDay buckets by calendar date
	GranularityDay Granularity = iota
	// GranularityMonth buckets by calendar month
	GranularityMonth
	// GranularityYear buckets by calendar year
	GranularityYear
)

// String returns the string representation of the granularity
func (g Granularity) String() string {
	switch g {
	case GranularityDay:
		return "daily"
	case GranularityMonth:
		return "monthly"
	case GranularityYear:
		return "yearly"
	default:
		return "unknown"
	}
}

// Layout returns the time format that produces the period key for this
// granularity. The layouts sort lexicographically in chronological order.
func (g Granularity) Layout() string {
	switch g {
	case GranularityMonth:
		return "2006-01"
	case GranularityYear:
		return "2006"
	default:
		return "2006-01-02"
	}
}

// IsValid checks whether the granularity is one of the known buckets
func (g Granularity) IsValid() bool {
	return g == GranularityDay || g == GranularityMonth || g == GranularityYear
}

// SortOrder represents how grouped totals are ordered in the output
type SortOrder int

const (
	// ByValueDesc orders largest total first, for rankings
	ByValueDesc SortOrder = iota
	// ByKeyAsc orders by natural key, for time axes
	ByKeyAsc
)

// String returns the string representation of the sort order
func (o SortOrder) String() string {
	switch o {
	case ByValueDesc:
		return "by_value_desc"
	case ByKeyAsc:
		return "by_key_asc"
	default:
		return "unknown"
	}
}

// KeyFunc derives the grouping key for one record. Returning ok=false
// excludes the record from the grouping (an invalid date, for example)
// without affecting any other record.
type KeyFunc func(r domain.DonationRecord) (key string, ok bool)

// ValueFunc selects the quantity summed per group for one record.
type ValueFunc func(r domain.DonationRecord) int64

// DailyTotalValue selects the record's daily total, the default quantity
// for entity and time groupings.
func DailyTotalValue(r domain.DonationRecord) int64 {
	return r.DailyTotal
}

// BreakdownValue returns a selector for one breakdown column. Records
// without the column contribute zero.
func BreakdownValue(column string) ValueFunc {
	return func(r domain.DonationRecord) int64 {
		return r.Breakdown[column]
	}
}
