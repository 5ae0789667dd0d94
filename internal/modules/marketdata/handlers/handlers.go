// Package handlers exposes the market data feed over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/domain"
	"github.com/stavrod/papertrade/internal/modules/marketdata"
)

// Handler contains HTTP handlers for the market data API
type Handler struct {
	feed *marketdata.Feed
	log  zerolog.Logger
}

// NewHandler creates a new market data handler instance
func NewHandler(feed *marketdata.Feed, log zerolog.Logger) *Handler {
	return &Handler{
		feed: feed,
		log:  log.With().Str("handler", "marketdata").Logger(),
	}
}

// RegisterRoutes registers market data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market", func(r chi.Router) {
		r.Get("/prices", h.HandleGetPrices)
		r.Get("/prices/{symbol}", h.HandleGetPrice)
		r.Get("/orderbook/{symbol}", h.HandleGetOrderBook)
		r.Get("/history/{symbol}", h.HandleGetHistory)
		r.Get("/history/{symbol}/indicators", h.HandleGetIndicators)
		r.Get("/stats/{symbol}", h.HandleGetStats)
	})
}

// PricesResponse is the full price table at one instant
type PricesResponse struct {
	Prices []domain.PriceTick `json:"prices"`
	AsOf   time.Time          `json:"as_of"`
}

// HandleGetPrices returns the current price table
// GET /api/market/prices
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	snap := h.feed.Snapshot()

	prices := make([]domain.PriceTick, 0, len(snap.Prices))
	for _, tick := range snap.Prices {
		prices = append(prices, tick)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].Symbol < prices[j].Symbol })

	h.writeJSON(w, PricesResponse{Prices: prices, AsOf: snap.AsOf})
}

// HandleGetPrice returns the current tick for one symbol
// GET /api/market/prices/{symbol}
func (h *Handler) HandleGetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	tick := h.feed.GetPriceSnapshot(symbol)
	if tick == nil {
		h.writeError(w, &domain.SymbolNotFoundError{Symbol: symbol})
		return
	}
	h.writeJSON(w, tick)
}

// HandleGetOrderBook returns the current order book for one symbol
// GET /api/market/orderbook/{symbol}
func (h *Handler) HandleGetOrderBook(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	book, err := h.feed.GetOrderBook(symbol)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, book)
}

// HistoryResponse is a candle series sliced to a timeframe
type HistoryResponse struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Candles   []domain.Candle `json:"candles"`
}

// HandleGetHistory returns the candle history for one symbol
// GET /api/market/history/{symbol}?timeframe=1D
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "1M"
	}

	candles, err := h.feed.GetHistory(symbol, timeframe)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, HistoryResponse{Symbol: symbol, Timeframe: timeframe, Candles: candles})
}

// HandleGetIndicators returns SMA/EMA/RSI overlays for one symbol
// GET /api/market/history/{symbol}/indicators?period=14
func (h *Handler) HandleGetIndicators(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)

	period := marketdata.DefaultIndicatorPeriod
	if p := r.URL.Query().Get("period"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed <= 0 {
			h.writeError(w, &domain.ValidationError{Field: "period", Reason: "must be a positive integer"})
			return
		}
		period = parsed
	}

	candles, err := h.feed.GetHistory(symbol, "1M")
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, marketdata.ComputeIndicators(symbol, candles, period))
}

// HandleGetStats returns summary statistics for one symbol
// GET /api/market/stats/{symbol}
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	candles, err := h.feed.GetHistory(symbol, "1M")
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, marketdata.ComputeStats(symbol, candles))
}

// pathSymbol reads the symbol path parameter. Pair symbols contain a
// slash, which does not survive a URL path segment, so clients send
// BTC-USDT and the dash is mapped back here.
func pathSymbol(r *http.Request) string {
	symbol := chi.URLParam(r, "symbol")
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	return strings.ReplaceAll(symbol, "-", "/")
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
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Market data request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
