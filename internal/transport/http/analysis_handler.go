package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "darahcli/internal/errors"
	custommw "darahcli/internal/middleware"
	"darahcli/internal/services"
	api "darahcli/pkg/contracts/api/v1"
	"darahcli/pkg/contracts/domain"
)

// AnalysisHandler handles analysis run and result HTTP requests
type AnalysisHandler struct {
	service      *services.AnalysisService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validation   *custommw.ValidationMiddleware
	queryParams  *custommw.QueryParamValidator
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *services.AnalysisService, logger *slog.Logger) *AnalysisHandler {
	errorHandler := apierrors.NewErrorHandler(logger, false)
	return &AnalysisHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "analysis")),
		errorHandler: errorHandler,
		validation:   custommw.NewValidationMiddleware(logger, errorHandler),
		queryParams:  custommw.NewQueryParamValidator(logger, errorHandler),
	}
}

// RegisterRoutes registers the analysis routes
func (h *AnalysisHandler) RegisterRoutes(r chi.Router) {
	r.Route("/analysis", func(r chi.Router) {
		r.With(h.validation.ValidateRequest).Post("/run", custommw.RunTraceHandler(h.StartRun))
		r.Get("/status", h.Status)
	})
	r.Get("/reconciliation", h.Reconciliation)
	r.Get("/aggregates/{grouping}", h.Aggregates)
	r.Get("/profile/{dataset}", h.Profile)
	r.Get("/correlation/{dataset}", h.Correlation)
	r.Get("/entities", h.Entities)
	r.Get("/summary", h.Summary)
}

// StartRun handles POST /api/analysis/run
func (h *AnalysisHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.AnalysisRunRequest
	if r.ContentLength > 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
		if err := h.validation.ValidateStruct(&req); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
	}

	runID, err := h.service.StartRun(ctx, req)
	if err != nil {
		if errors.Is(err, services.ErrRunInProgress) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusConflict,
				"RUN_IN_PROGRESS",
				"An analysis run is already in progress",
			))
			return
		}
		h.logger.ErrorContext(ctx, "failed to start analysis run",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.AnalysisFailedError(err))
		return
	}

	h.logger.InfoContext(ctx, "analysis run started", slog.String("run_id", runID))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{
		"run_id": runID,
		"status": "started",
	})
}

// Status handles GET /api/analysis/status
func (h *AnalysisHandler) Status(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Status(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, snapshot)
}

// Reconciliation handles GET /api/reconciliation
func (h *AnalysisHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	mismatchesOnly := r.URL.Query().Get("mismatches") == "true"

	report, err := h.service.Reconciliation(r.Context(), mismatchesOnly)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// Aggregates handles GET /api/aggregates/{grouping}
func (h *AnalysisHandler) Aggregates(w http.ResponseWriter, r *http.Request) {
	grouping := chi.URLParam(r, "grouping")

	dataset, ok := h.queryParams.ValidateEnum(w, r, "dataset", []string{"facility", "region", "both"}, "both")
	if !ok {
		return
	}
	limit, ok := h.queryParams.ValidateInt(w, r, "limit", 1, 100000, 0)
	if !ok {
		return
	}

	resp, err := h.service.Aggregates(r.Context(), grouping, dataset, limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// Profile handles GET /api/profile/{dataset}
func (h *AnalysisHandler) Profile(w http.ResponseWriter, r *http.Request) {
	dataset := domain.Dataset(chi.URLParam(r, "dataset"))

	profile, err := h.service.Profile(r.Context(), dataset)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, profile)
}

// Correlation handles GET /api/correlation/{dataset}
func (h *AnalysisHandler) Correlation(w http.ResponseWriter, r *http.Request) {
	dataset := domain.Dataset(chi.URLParam(r, "dataset"))

	matrix, err := h.service.Correlation(r.Context(), dataset)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, matrix)
}

// Entities handles GET /api/entities
func (h *AnalysisHandler) Entities(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryParams.ValidateInt(w, r, "limit", 1, 100000, 0)
	if !ok {
		return
	}

	summaries, err := h.service.Entities(r.Context(), limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, summaries)
}

// Summary handles GET /api/summary
func (h *AnalysisHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// handleServiceError maps service sentinel errors to API errors.
func (h *AnalysisHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoRun), errors.Is(err, services.ErrNoAnalysisResult):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotFound,
			"NO_ANALYSIS_RESULT",
			"No analysis result available. Start a run with POST /api/analysis/run",
		))
	case errors.Is(err, services.ErrUnknownGrouping):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotFound,
			"UNKNOWN_GROUPING",
			"Unknown aggregate grouping",
		))
	case errors.Is(err, services.ErrUnknownDataset):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest,
			"UNKNOWN_DATASET",
			"Dataset must be facility or region",
		))
	default:
		h.logger.ErrorContext(r.Context(), "analysis request failed",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.AnalysisFailedError(err))
	}
}
