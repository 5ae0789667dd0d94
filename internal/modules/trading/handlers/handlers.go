// Package handlers exposes transaction submission and history over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/domain"
	"github.com/stavrod/papertrade/internal/modules/trading"
)

// Handler contains HTTP handlers for the trading API
type Handler struct {
	service *trading.Service
	log     zerolog.Logger
}

// NewHandler creates a new trading handler instance
func NewHandler(service *trading.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "trading").Logger(),
	}
}

// RegisterRoutes registers trading routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/holders/{holderID}/transactions", func(r chi.Router) {
		r.Post("/", h.HandleSubmitTransaction)
		r.Get("/", h.HandleGetTransactions)
	})
}

// HandleSubmitTransaction validates and settles a transaction
// POST /api/holders/{holderID}/transactions
func (h *Handler) HandleSubmitTransaction(w http.ResponseWriter, r *http.Request) {
	holderID := chi.URLParam(r, "holderID")

	var input domain.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, &domain.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	tx, err := h.service.SubmitTransaction(holderID, input)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(tx)
}

// TransactionsResponse is a holder's full ordered ledger
type TransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
}

// HandleGetTransactions returns the holder's transaction history
// GET /api/holders/{holderID}/transactions
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	holderID := chi.URLParam(r, "holderID")

	transactions, err := h.service.GetTransactions(holderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}

	h.writeJSON(w, TransactionsResponse{Transactions: transactions, Count: len(transactions)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case domain.IsSymbolNotFound(err):
		status = http.StatusNotFound
	case domain.IsInsufficientFunds(err), domain.IsInsufficientPosition(err):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Trading request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
