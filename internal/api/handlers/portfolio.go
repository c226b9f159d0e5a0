package handlers

import (
	"net/http"

	"github.com/ndewijer/pnl-tracker/internal/api/request"
	"github.com/ndewijer/pnl-tracker/internal/api/response"
	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/service"
)

// PortfolioHandler handles HTTP requests for portfolio valuation endpoints.
type PortfolioHandler struct {
	pipelineService *service.PipelineService
	historyDays     int
}

// NewPortfolioHandler creates a new PortfolioHandler. historyDays is the
// default number of snapshots returned by History.
func NewPortfolioHandler(pipelineService *service.PipelineService, historyDays int) *PortfolioHandler {
	return &PortfolioHandler{
		pipelineService: pipelineService,
		historyDays:     historyDays,
	}
}

// Positions handles GET requests for the average-cost positions of the
// ledger, valued at the last known prices.
//
// Endpoint: GET /api/portfolio/positions
// Response: 200 OK with array of Position
func (h *PortfolioHandler) Positions(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, h.pipelineService.Positions())
}

// Summary handles GET requests for the headline numbers of the last run.
//
// Endpoint: GET /api/portfolio/summary
// Response: 200 OK with PortfolioSummary
// Error: 503 Service Unavailable before the first pipeline run completes
func (h *PortfolioHandler) Summary(w http.ResponseWriter, _ *http.Request) {
	summary, err := h.pipelineService.Summary()
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRunPipeline)
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}

// Refresh handles POST requests that run the pipeline immediately.
//
// Endpoint: POST /api/portfolio/refresh
// Response: 200 OK with PortfolioSummary
// Error: 409 Conflict if a run is already in progress
// Error: 500 Internal Server Error if the run fails
func (h *PortfolioHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if _, err := h.pipelineService.Run(r.Context()); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRunPipeline)
		return
	}

	h.Summary(w, r)
}

// History handles GET requests for the daily snapshot history.
//
// Endpoint: GET /api/portfolio/history?limit=30
// Response: 200 OK with array of DailySnapshot, oldest first
// Error: 400 Bad Request if limit is not a positive integer
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := request.ParseLimit(r.URL.Query().Get("limit"), h.historyDays, request.MaxHistoryLimit)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid limit", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, h.pipelineService.History(limit))
}
