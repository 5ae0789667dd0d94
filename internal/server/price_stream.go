package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/stavrod/papertrade/internal/domain"
	"github.com/stavrod/papertrade/internal/modules/marketdata"
)

// PriceStreamHandler pushes market snapshots to WebSocket clients. Each
// connection gets its own feed subscription; the feed drops ticks for
// clients that cannot keep up.
type PriceStreamHandler struct {
	feed *marketdata.Feed
	log  zerolog.Logger
}

// NewPriceStreamHandler creates a new WebSocket price stream handler
func NewPriceStreamHandler(feed *marketdata.Feed, log zerolog.Logger) *PriceStreamHandler {
	return &PriceStreamHandler{
		feed: feed,
		log:  log.With().Str("handler", "price_stream").Logger(),
	}
}

// PriceFrame is one WebSocket message: the full price table at one tick
type PriceFrame struct {
	Prices []domain.PriceTick `json:"prices"`
	AsOf   time.Time          `json:"as_of"`
}

// ServeHTTP handles a WebSocket connection
// GET /api/stream/ws
func (h *PriceStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Same-origin policy is the CORS middleware's job; the demo
		// frontend connects from a different dev port.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	snapshots, cancel := h.feed.Subscribe()
	defer cancel()

	h.log.Debug().Str("remote", r.RemoteAddr).Msg("WebSocket client connected")

	// Send the current snapshot immediately so clients render without
	// waiting for the next tick.
	if err := h.writeFrame(ctx, conn, h.feed.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				// Feed closed: session teardown
				conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			if err := h.writeFrame(ctx, conn, snap); err != nil {
				h.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket client disconnected")
				return
			}
		}
	}
}

func (h *PriceStreamHandler) writeFrame(ctx context.Context, conn *websocket.Conn, snap *marketdata.Snapshot) error {
	prices := make([]domain.PriceTick, 0, len(snap.Prices))
	for _, tick := range snap.Prices {
		prices = append(prices, tick)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].Symbol < prices[j].Symbol })

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(writeCtx, conn, PriceFrame{Prices: prices, AsOf: snap.AsOf})
}
