// Package handlers exposes derived portfolio state over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/domain"
	"github.com/stavrod/papertrade/internal/modules/portfolio"
)

// Handler contains HTTP handlers for the portfolio API
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler instance
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes registers portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/holders/{holderID}/portfolio", h.HandleGetPortfolio)
}

// HandleGetPortfolio returns the holder's current derived portfolio
// GET /api/holders/{holderID}/portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	holderID := chi.URLParam(r, "holderID")

	pf, err := h.service.GetPortfolio(holderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, pf)
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
	case domain.IsInsufficientPosition(err):
		// A ledger that replays to an over-sell is corrupt input, not a
		// server fault.
		status = http.StatusConflict
	case domain.IsPersistence(err):
		status = http.StatusServiceUnavailable
	}

	h.log.Error().Err(err).Msg("Portfolio request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
