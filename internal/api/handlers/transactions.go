package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/pnl-tracker/internal/api/request"
	"github.com/ndewijer/pnl-tracker/internal/api/response"
	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/service"
	"github.com/ndewijer/pnl-tracker/internal/validation"
)

// TransactionHandler handles HTTP requests for transaction endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the transactionService.
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependency.
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// AllTransactions handles GET requests to list the ledger in insertion order.
// An optional symbol query parameter filters by asset.
//
// Endpoint: GET /api/transaction?symbol=BTC
// Response: 200 OK with array of Transaction
func (h *TransactionHandler) AllTransactions(w http.ResponseWriter, r *http.Request) {
	transactions := h.transactionService.GetTransactions(r.URL.Query().Get("symbol"))
	response.RespondJSON(w, http.StatusOK, transactions)
}

// GetTransaction handles GET requests to retrieve a single transaction by ID.
//
// Endpoint: GET /api/transaction/{id}
// Response: 200 OK with Transaction
// Error: 404 Not Found if transaction not found
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.transactionService.GetTransaction(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveTransactions)
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// CreateTransaction handles POST requests to append a transaction to the ledger.
//
// Endpoint: POST /api/transaction
// Request Body: CreateTransactionRequest (symbol, side, amount, unitPrice, fee, occurredAt)
// Response: 201 Created with Transaction
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if the ledger cannot be saved
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateTransaction(req, h.transactionService.Location()); err != nil {
		respondServiceError(w, err, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToCreateTransaction)
		return
	}

	response.RespondJSON(w, http.StatusCreated, transaction)
}

// DeleteTransaction handles DELETE requests to remove a transaction.
//
// Endpoint: DELETE /api/transaction/{id}
// Response: 204 No Content
// Error: 404 Not Found if transaction not found
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.transactionService.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToDeleteTransaction)
		return
	}

	response.RespondNoContent(w)
}
