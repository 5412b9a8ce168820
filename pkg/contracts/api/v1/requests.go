// Package api contains API contract definitions for the donation
// insights service. Version v1 is the current stable API version.
package api

// AnalysisRunRequest represents a request to start an analysis run
type AnalysisRunRequest struct {
	FacilityFile string `json:"facility_file,omitempty" validate:"omitempty,min=1"`
	RegionFile   string `json:"region_file,omitempty" validate:"omitempty,min=1"`
	TopHospitals int    `json:"top_hospitals,omitempty" validate:"omitempty,min=1,max=100"`
}

// AggregateRequest represents the query parameters of an aggregate lookup
type AggregateRequest struct {
	Grouping string `json:"grouping" validate:"required,oneof=hospitals yearly monthly blood-types donation-types social-groups donor-types"`
	Dataset  string `json:"dataset" validate:"omitempty,oneof=facility region both"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=1000"`
}

// ReconciliationRequest represents the query parameters of a
// reconciliation report lookup
type ReconciliationRequest struct {
	MismatchesOnly bool `json:"mismatches_only"`
}
