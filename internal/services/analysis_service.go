package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"darahcli/internal/config"
	"darahcli/internal/dataprocessing"
	"darahcli/internal/donation"
	"darahcli/internal/infrastructure"
	"darahcli/internal/pipeline"
	api "darahcli/pkg/contracts/api/v1"
	"darahcli/pkg/contracts/domain"
	"darahcli/pkg/contracts/events"
)

// Aggregate groupings the service can answer for.
const (
	GroupingHospitals     = "hospitals"
	GroupingYearly        = "yearly"
	GroupingMonthly       = "monthly"
	GroupingBloodTypes    = "blood-types"
	GroupingDonationTypes = "donation-types"
	GroupingSocialGroups  = "social-groups"
	GroupingDonorTypes    = "donor-types"
	GroupingEntityYearly  = "entity-yearly"
)

// AggregateResponse carries one grouping's totals for the requested
// dataset sides. Period series are keyed the same way as rankings so a
// single shape serves every grouping; the entity-yearly grouping uses
// the trend fields instead since its rows carry two keys.
type AggregateResponse struct {
	Grouping      string                     `json:"grouping"`
	Facility      []domain.GroupTotal        `json:"facility,omitempty"`
	Region        []domain.GroupTotal        `json:"region,omitempty"`
	FacilityTrend []domain.EntityPeriodTotal `json:"facility_trend,omitempty"`
	RegionTrend   []domain.EntityPeriodTotal `json:"region_trend,omitempty"`
}

// RunSummary is the compact view of a completed analysis run.
type RunSummary struct {
	RunID           string                  `json:"run_id"`
	GeneratedAt     time.Time               `json:"generated_at"`
	FacilityRecords int                     `json:"facility_records"`
	RegionRecords   int                     `json:"region_records"`
	TotalDates      int                     `json:"total_dates"`
	MatchedDates    int                     `json:"matched_dates"`
	MismatchedDates int                     `json:"mismatched_dates"`
	DifferenceStats domain.DescriptiveStats `json:"difference_stats"`
	TopHospital     *domain.GroupTotal      `json:"top_hospital,omitempty"`
}

// AnalysisService owns the analysis run lifecycle: it starts pipeline
// runs (one at a time), tracks the current run state, and serves the
// results of the most recent completed run.
type AnalysisService struct {
	cfg     *config.Config
	paths   *config.Paths
	hub     pipeline.Broadcaster
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger

	mu        sync.RWMutex
	running   bool
	current   *pipeline.State
	result    *domain.AnalysisResult
	summaries []dataprocessing.EntitySummary
	lastRunID string
	lastErr   error
}

// NewAnalysisService creates the analysis service. Hub and metrics may
// be nil; runs then execute without progress broadcasting or metrics.
func NewAnalysisService(cfg *config.Config, paths *config.Paths, hub pipeline.Broadcaster, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &AnalysisService{
		cfg:     cfg,
		paths:   paths,
		hub:     hub,
		metrics: metrics,
		logger:  logger.With(slog.String("service", "analysis")),
	}
}

// StartRun launches an analysis run in the background and returns its
// run ID. Only one run may be active; a second request gets
// ErrRunInProgress so the caller can answer 409.
func (s *AnalysisService) StartRun(ctx context.Context, req api.AnalysisRunRequest) (string, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return "", ErrRunInProgress
	}

	runner := pipeline.NewRunner(s.buildStages(req), s.hub, s.metrics, s.logger)
	state := runner.Prepare()

	s.running = true
	s.current = state
	s.lastRunID = state.RunID()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "analysis run accepted",
		slog.String("run_id", state.RunID()))

	go s.execute(runner, state)

	return state.RunID(), nil
}

// execute drives the run to completion and records the outcome. It runs
// on its own goroutine with the configured analysis timeout; the
// originating HTTP request's context would cancel the run as soon as
// the 202 response was written.
func (s *AnalysisService) execute(runner *pipeline.Runner, state *pipeline.State) {
	timeout := s.cfg.Server.AnalysisTimeout
	if timeout <= 0 {
		timeout = config.DefaultAnalysisTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := runner.Execute(ctx, state)

	s.mu.Lock()
	s.running = false
	s.lastErr = err
	if err == nil {
		s.result = state.Result
		s.summaries = state.Summaries
	}
	s.mu.Unlock()

	if hub, ok := s.hub.(eventBroadcaster); ok && hub != nil {
		if err != nil {
			hub.BroadcastEvent(events.MessageTypeRunError, map[string]string{
				"run_id": state.RunID(),
				"error":  err.Error(),
			})
		} else {
			hub.BroadcastEvent(events.MessageTypeRunComplete, state.Snapshot())
		}
	}
}

// eventBroadcaster is the optional lifecycle-event surface of the hub.
type eventBroadcaster interface {
	BroadcastEvent(msgType events.MessageType, data interface{})
}

// buildStages assembles the pipeline for one run, applying the request
// overrides on top of the configured defaults.
func (s *AnalysisService) buildStages(req api.AnalysisRunRequest) []pipeline.Stage {
	facilityPath := s.cfg.GetFacilityDatasetPath()
	if req.FacilityFile != "" {
		facilityPath = s.paths.GetDatasetPath(req.FacilityFile)
	}
	regionPath := s.cfg.GetRegionDatasetPath()
	if req.RegionFile != "" {
		regionPath = s.paths.GetDatasetPath(req.RegionFile)
	}

	topHospitals := s.cfg.Data.TopHospitals
	if req.TopHospitals > 0 {
		topHospitals = req.TopHospitals
	}

	reader := dataprocessing.NewReader(s.logger)
	analyzer := donation.NewAnalyzer(s.logger, donation.AnalyzerConfig{
		TopHospitals:         topHospitals,
		MismatchPreviewLimit: s.cfg.Data.MismatchPreview,
	})
	summarizer := dataprocessing.NewEntitySummarizer(s.logger, dataprocessing.DefaultEntitySummarizerConfig())

	return []pipeline.Stage{
		pipeline.NewLoadStage(reader, facilityPath, regionPath),
		pipeline.NewAnalyzeStage(analyzer, summarizer),
		pipeline.NewExportStage(s.paths, summarizer, pipeline.DefaultExportOptions()),
	}
}

// Status returns the snapshot of the current (or most recent) run.
func (s *AnalysisService) Status(ctx context.Context) (*events.RunSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoRun
	}
	return s.current.Snapshot(), nil
}

// Running reports whether a run is currently executing.
func (s *AnalysisService) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Result returns the most recent completed analysis result.
func (s *AnalysisService) Result(ctx context.Context) (*domain.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil, ErrNoAnalysisResult
	}
	return s.result, nil
}

// Reconciliation returns the reconciliation report, optionally filtered
// to mismatched dates only.
func (s *AnalysisService) Reconciliation(ctx context.Context, mismatchesOnly bool) (domain.ReconciliationReport, error) {
	result, err := s.Result(ctx)
	if err != nil {
		return domain.ReconciliationReport{}, err
	}

	report := result.Reconciliation
	if mismatchesOnly {
		rows := make([]domain.ReconciliationRow, 0, report.MismatchedDates)
		for _, row := range report.Rows {
			if !row.Matched {
				rows = append(rows, row)
			}
		}
		report.Rows = rows
	}
	return report, nil
}

// Aggregates returns one grouping's totals. Dataset selects which sides
// appear in the response ("facility", "region" or "both"); limit > 0
// caps each side.
func (s *AnalysisService) Aggregates(ctx context.Context, grouping, dataset string, limit int) (AggregateResponse, error) {
	result, err := s.Result(ctx)
	if err != nil {
		return AggregateResponse{}, err
	}

	resp := AggregateResponse{Grouping: grouping}

	if dataset == "" {
		dataset = "both"
	}
	if dataset != "facility" && dataset != "region" && dataset != "both" {
		return AggregateResponse{}, ErrUnknownDataset
	}

	if grouping == GroupingEntityYearly {
		if dataset == "facility" || dataset == "both" {
			resp.FacilityTrend = capTrend(result.Facility.EntityYearly, limit)
		}
		if dataset == "region" || dataset == "both" {
			resp.RegionTrend = capTrend(result.Region.EntityYearly, limit)
		}
		return resp, nil
	}

	if dataset == "facility" || dataset == "both" {
		totals, err := datasetGrouping(result.Facility, grouping)
		if err != nil {
			return AggregateResponse{}, err
		}
		resp.Facility = capTotals(totals, limit)
	}
	if dataset == "region" || dataset == "both" {
		totals, err := datasetGrouping(result.Region, grouping)
		if err != nil {
			return AggregateResponse{}, err
		}
		resp.Region = capTotals(totals, limit)
	}

	return resp, nil
}

// datasetGrouping maps a grouping name onto the analysis fields.
func datasetGrouping(analysis domain.DatasetAnalysis, grouping string) ([]domain.GroupTotal, error) {
	switch grouping {
	case GroupingHospitals:
		return analysis.TopEntities, nil
	case GroupingYearly:
		return periodsToTotals(analysis.Yearly), nil
	case GroupingMonthly:
		return periodsToTotals(analysis.Monthly), nil
	case GroupingBloodTypes:
		return analysis.Categories[domain.GroupBloodTypes], nil
	case GroupingDonationTypes:
		return analysis.Categories[domain.GroupDonationTypes], nil
	case GroupingSocialGroups:
		return analysis.Categories[domain.GroupSocialGroups], nil
	case GroupingDonorTypes:
		return analysis.Categories[domain.GroupDonorTypes], nil
	default:
		return nil, ErrUnknownGrouping
	}
}

func periodsToTotals(periods []domain.PeriodTotal) []domain.GroupTotal {
	totals := make([]domain.GroupTotal, len(periods))
	for i, p := range periods {
		totals[i] = domain.GroupTotal{Key: p.Period, Total: p.Total}
	}
	return totals
}

func capTotals(totals []domain.GroupTotal, limit int) []domain.GroupTotal {
	if limit > 0 && len(totals) > limit {
		return totals[:limit]
	}
	return totals
}

// capTrend caps an entity-yearly series to the first limit entities.
// Rows arrive sorted by entity then year, so each entity's series stays
// whole.
func capTrend(rows []domain.EntityPeriodTotal, limit int) []domain.EntityPeriodTotal {
	if limit <= 0 {
		return rows
	}
	entities := 0
	last := ""
	for i, row := range rows {
		if row.Entity != last {
			entities++
			last = row.Entity
			if entities > limit {
				return rows[:i]
			}
		}
	}
	return rows
}

// Profile returns one dataset's quality profile.
func (s *AnalysisService) Profile(ctx context.Context, dataset domain.Dataset) (domain.DatasetProfile, error) {
	result, err := s.Result(ctx)
	if err != nil {
		return domain.DatasetProfile{}, err
	}
	switch dataset {
	case domain.DatasetFacility:
		return result.Facility.Profile, nil
	case domain.DatasetRegion:
		return result.Region.Profile, nil
	default:
		return domain.DatasetProfile{}, ErrUnknownDataset
	}
}

// Correlation returns one dataset's correlation matrix.
func (s *AnalysisService) Correlation(ctx context.Context, dataset domain.Dataset) (domain.CorrelationMatrix, error) {
	result, err := s.Result(ctx)
	if err != nil {
		return domain.CorrelationMatrix{}, err
	}
	switch dataset {
	case domain.DatasetFacility:
		return result.Facility.Correlation, nil
	case domain.DatasetRegion:
		return result.Region.Correlation, nil
	default:
		return domain.CorrelationMatrix{}, ErrUnknownDataset
	}
}

// Entities returns the per-hospital summary rows from the latest run.
func (s *AnalysisService) Entities(ctx context.Context, limit int) ([]dataprocessing.EntitySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil, ErrNoAnalysisResult
	}
	summaries := s.summaries
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Summary returns the compact overview of the latest run.
func (s *AnalysisService) Summary(ctx context.Context) (RunSummary, error) {
	s.mu.RLock()
	result := s.result
	runID := s.lastRunID
	s.mu.RUnlock()

	if result == nil {
		return RunSummary{}, ErrNoAnalysisResult
	}

	summary := RunSummary{
		RunID:           runID,
		GeneratedAt:     result.GeneratedAt,
		FacilityRecords: result.Facility.Profile.Rows,
		RegionRecords:   result.Region.Profile.Rows,
		TotalDates:      result.Reconciliation.TotalDates,
		MatchedDates:    result.Reconciliation.MatchedDates,
		MismatchedDates: result.Reconciliation.MismatchedDates,
		DifferenceStats: result.Reconciliation.DifferenceStats,
	}
	if len(result.Facility.TopEntities) > 0 {
		top := result.Facility.TopEntities[0]
		summary.TopHospital = &top
	}
	return summary, nil
}
