package domain

import (
	"time"
)

// UnknownEntity is the sentinel used when a row has no reporting entity.
// It participates in grouping like any real entity name.
const UnknownEntity = "Unknown"

// NationwideEntity is the synthetic row embedded in the region dataset
// that aggregates the whole country. It must be excluded before any
// cross-dataset comparison, otherwise every total is double counted.
const NationwideEntity = "Malaysia"

// Dataset identifies which of the two source datasets a value belongs to.
type Dataset string

const (
	DatasetFacility Dataset = "facility"
	DatasetRegion   Dataset = "region"
)

// IsValid checks whether the dataset identifier is one of the known values
func (d Dataset) IsValid() bool {
	return d == DatasetFacility || d == DatasetRegion
}

// RawRow is a single source row keyed by column header, prior to
// normalization. Values are kept verbatim as read from the file.
type RawRow map[string]string

// DonationRecord represents one normalized row of a donation dataset
type DonationRecord struct {
	EntityID   string           `json:"entity_id" validate:"required"`
	Date       time.Time        `json:"date"`
	DateValid  bool             `json:"date_valid"`
	DailyTotal int64            `json:"daily_total"`
	Breakdown  map[string]int64 `json:"breakdown,omitempty"`
}

// CategoryGroup names an ordered set of breakdown columns that together
// sub-classify the daily total (blood types, donation types, and so on).
type CategoryGroup struct {
	Name    string   `json:"name" validate:"required"`
	Columns []string `json:"columns" validate:"required,min=1"`
}

// Schema describes the column layout of a source dataset. The engine
// never hardcodes column names; it only consumes them through a Schema.
type Schema struct {
	EntityColumn    string          `json:"entity_column" validate:"required"`
	DateColumn      string          `json:"date_column" validate:"required"`
	TotalColumn     string          `json:"total_column" validate:"required"`
	CategoryGroups  []CategoryGroup `json:"category_groups"`
	AggregateEntity string          `json:"aggregate_entity,omitempty"`
}

// BreakdownColumns returns every breakdown column across all category
// groups, in declaration order.
func (s Schema) BreakdownColumns() []string {
	var cols []string
	for _, g := range s.CategoryGroups {
		cols = append(cols, g.Columns...)
	}
	return cols
}

// RequiredColumns returns the columns that must be present in the source
// for normalization to proceed. Breakdown columns are optional; a dataset
// without them still reconciles on daily totals.
func (s Schema) RequiredColumns() []string {
	return []string{s.EntityColumn, s.DateColumn, s.TotalColumn}
}

// CategoryGroup returns the named group and whether it exists.
func (s Schema) CategoryGroup(name string) (CategoryGroup, bool) {
	for _, g := range s.CategoryGroups {
		if g.Name == name {
			return g, true
		}
	}
	return CategoryGroup{}, false
}

// Category group names shared by both Malaysian datasets.
const (
	GroupBloodTypes    = "blood_types"
	GroupDonationTypes = "donation_types"
	GroupSocialGroups  = "social_groups"
	GroupDonorTypes    = "donor_types"
)

func standardCategoryGroups() []CategoryGroup {
	return []CategoryGroup{
		{Name: GroupBloodTypes, Columns: []string{"blood_a", "blood_b", "blood_o", "blood_ab"}},
		{Name: GroupDonationTypes, Columns: []string{"type_wholeblood", "type_apheresis_platelet", "type_apheresis_plasma", "type_other"}},
		{Name: GroupSocialGroups, Columns: []string{"social_civilian", "social_student", "social_policearmy"}},
		{Name: GroupDonorTypes, Columns: []string{"donations_new", "donations_regular", "donations_irregular"}},
	}
}

// FacilitySchema returns the column layout of the per-hospital dataset
func FacilitySchema() Schema {
	return Schema{
		EntityColumn:   "hospital",
		DateColumn:     "date",
		TotalColumn:    "daily",
		CategoryGroups: standardCategoryGroups(),
	}
}

// RegionSchema returns the column layout of the per-state dataset,
// including the nationwide aggregate row that normalization drops.
func RegionSchema() Schema {
	return Schema{
		EntityColumn:    "state",
		DateColumn:      "date",
		TotalColumn:     "daily",
		CategoryGroups:  standardCategoryGroups(),
		AggregateEntity: NationwideEntity,
	}
}
