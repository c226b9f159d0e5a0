package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ndewijer/pnl-tracker/internal/api/request"
	"github.com/ndewijer/pnl-tracker/internal/api/response"
	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/model"
	"github.com/ndewijer/pnl-tracker/internal/service"
	"github.com/ndewijer/pnl-tracker/internal/validation"
)

// SourceHandler handles HTTP requests for connected exchanges and wallets.
type SourceHandler struct {
	sourceService   *service.SourceService
	pipelineService *service.PipelineService
}

// NewSourceHandler creates a new SourceHandler. A finished sync is handed to
// pipelineService so the next run can announce it.
func NewSourceHandler(sourceService *service.SourceService, pipelineService *service.PipelineService) *SourceHandler {
	return &SourceHandler{
		sourceService:   sourceService,
		pipelineService: pipelineService,
	}
}

// ListSources handles GET requests for every connected source with its last
// sync time and error.
//
// Endpoint: GET /api/source
// Response: 200 OK with array of ConnectedSource
func (h *SourceHandler) ListSources(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, h.sourceService.ListSources())
}

// ConnectSource handles POST requests that connect an exchange account.
// Credentials are checked against the exchange before they are stored.
//
// Endpoint: POST /api/source
// Request Body: ConnectSourceRequest (name, kind, apiKey, apiSecret, address)
// Response: 201 Created with ConnectedSource
// Error: 400 Bad Request if the request or the source configuration is invalid
// Error: 409 Conflict if a source with the same name exists
// Error: 422 Unprocessable Entity if the exchange rejects the credentials
func (h *SourceHandler) ConnectSource(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ConnectSourceRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateConnectSource(req); err != nil {
		respondServiceError(w, err, err)
		return
	}

	source, err := h.sourceService.Connect(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToConnectSource)
		return
	}

	response.RespondJSON(w, http.StatusCreated, source)
}

// DisconnectSource handles DELETE requests that remove a source. Trades
// already imported from it stay in the ledger.
//
// Endpoint: DELETE /api/source/{name}
// Response: 204 No Content
// Error: 404 Not Found if the source is not connected
func (h *SourceHandler) DisconnectSource(w http.ResponseWriter, r *http.Request) {
	if err := h.sourceService.Disconnect(r.Context(), chi.URLParam(r, "name")); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToDisconnectSource)
		return
	}

	response.RespondNoContent(w)
}

// SyncAll handles POST requests that import trades from every source.
//
// Endpoint: POST /api/source/sync
// Response: 200 OK with SyncReport
func (h *SourceHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	h.sync(w, r)
}

// SyncSource handles POST requests that import trades from one source.
//
// Endpoint: POST /api/source/{name}/sync
// Response: 200 OK with SyncReport
// Error: 404 Not Found if the source is not connected
func (h *SourceHandler) SyncSource(w http.ResponseWriter, r *http.Request) {
	h.sync(w, r, chi.URLParam(r, "name"))
}

func (h *SourceHandler) sync(w http.ResponseWriter, r *http.Request, names ...string) {
	report, err := h.sourceService.Sync(r.Context(), names...)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSync)
		return
	}

	h.announce(r, report)
	response.RespondJSON(w, http.StatusOK, report)
}

// announce queues the sync for the change notifier and starts a run. A
// busy pipeline picks the report up on its next run.
func (h *SourceHandler) announce(r *http.Request, report model.SyncReport) {
	if h.pipelineService == nil || len(report.Synced) == 0 {
		return
	}
	h.pipelineService.NotifySynced(report)
	if _, err := h.pipelineService.Run(r.Context()); err != nil {
		log.Debug().Err(err).Str("sync_id", report.SyncID).Msg("post-sync run not applied")
	}
}
