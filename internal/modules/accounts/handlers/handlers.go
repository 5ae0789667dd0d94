// Package handlers exposes holder account management over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/domain"
	"github.com/stavrod/papertrade/internal/modules/accounts"
)

// Handler contains HTTP handlers for the accounts API
type Handler struct {
	service *accounts.Service
	log     zerolog.Logger
}

// NewHandler creates a new accounts handler instance
func NewHandler(service *accounts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "accounts").Logger(),
	}
}

// RegisterRoutes registers account routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/holders", func(r chi.Router) {
		r.Post("/", h.HandleCreateHolder)
		r.Get("/", h.HandleListHolders)
		r.Get("/{holderID}", h.HandleGetHolder)
	})
}

// CreateHolderRequest is the holder creation payload
type CreateHolderRequest struct {
	Name string `json:"name"`
}

// HandleCreateHolder registers a new holder
// POST /api/holders
func (h *Handler) HandleCreateHolder(w http.ResponseWriter, r *http.Request) {
	var req CreateHolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, &domain.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	holder, err := h.service.CreateHolder(req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(holder)
}

// HandleListHolders returns all holders
// GET /api/holders
func (h *Handler) HandleListHolders(w http.ResponseWriter, r *http.Request) {
	holders, err := h.service.ListHolders()
	if err != nil {
		h.writeError(w, err)
		return
	}
	if holders == nil {
		holders = []domain.Holder{}
	}
	h.writeJSON(w, holders)
}

// HandleGetHolder returns one holder by id
// GET /api/holders/{holderID}
func (h *Handler) HandleGetHolder(w http.ResponseWriter, r *http.Request) {
	holder, err := h.service.GetHolder(chi.URLParam(r, "holderID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if holder == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "holder not found"})
		return
	}
	h.writeJSON(w, holder)
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if domain.IsValidation(err) {
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Accounts request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
