package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"scanner-backend/internal/domain"
	"scanner-backend/internal/usecase"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// update is the payload streamed to each client.
type update struct {
	ScanResults []domain.ScanResult `json:"scanResults"`
	Positions   []*domain.Position  `json:"positions"`
	Timestamp   time.Time           `json:"timestamp"`
}

// Handler streams the latest scan snapshot and open positions to connected
// clients.
type Handler struct {
	scanRepo domain.ScanRepository
	ledger   *usecase.PositionLedger
	log      zerolog.Logger
}

func NewHandler(scanRepo domain.ScanRepository, ledger *usecase.PositionLedger, log zerolog.Logger) *Handler {
	return &Handler{
		scanRepo: scanRepo,
		ledger:   ledger,
		log:      log.With().Str("component", "websocket").Logger(),
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Info().Str("remote", r.RemoteAddr).Msg("client connected")

	// Send initial data immediately
	if err := conn.WriteJSON(h.snapshot(r)); err != nil {
		h.log.Debug().Err(err).Msg("write failed")
		return
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := conn.WriteJSON(h.snapshot(r)); err != nil {
				h.log.Debug().Err(err).Msg("write failed")
				return
			}
		}
	}
}

func (h *Handler) snapshot(r *http.Request) update {
	positions, err := h.ledger.ListOpen(r.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("listing positions failed")
	}
	return update{
		ScanResults: h.scanRepo.GetResults(),
		Positions:   positions,
		Timestamp:   time.Now(),
	}
}
