package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"scanner-backend/internal/domain"
	"scanner-backend/internal/repository"
	"scanner-backend/internal/usecase"
)

// Handler serves the read-only REST surface: open positions, trade history,
// performance stats and the latest scan snapshot.
type Handler struct {
	ledger    *usecase.PositionLedger
	scanRepo  domain.ScanRepository
	tokenRepo *repository.TokenRepository
	log       zerolog.Logger
}

func NewHandler(ledger *usecase.PositionLedger, scanRepo domain.ScanRepository, tokenRepo *repository.TokenRepository, log zerolog.Logger) *Handler {
	return &Handler{
		ledger:    ledger,
		scanRepo:  scanRepo,
		tokenRepo: tokenRepo,
		log:       log.With().Str("component", "http").Logger(),
	}
}

// Register wires all routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/positions", h.HandleOpenPositions)
	mux.HandleFunc("/api/positions/history", h.HandleHistory)
	mux.HandleFunc("/api/stats", h.HandleStats)
	mux.HandleFunc("/api/scan", h.HandleScanResults)
	mux.HandleFunc("/api/tokens/register", h.HandleRegisterToken)
	mux.HandleFunc("/api/tokens/unregister", h.HandleUnregisterToken)
	mux.HandleFunc("/api/health", h.HandleHealth)
}

func (h *Handler) HandleOpenPositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	positions, err := h.ledger.ListOpen(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, positions)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from := time.Now().AddDate(0, 0, -historyDays(r))
	history, err := h.ledger.History(r.Context(), from)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, history)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from := time.Now().AddDate(0, 0, -historyDays(r))
	stats, err := h.ledger.Stats(r.Context(), from)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, stats)
}

func (h *Handler) HandleScanResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.scanRepo.GetResults())
}

type tokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type tokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func (h *Handler) HandleRegisterToken(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTokenRequest(w, r)
	if !ok {
		return
	}

	platform := req.Platform
	if platform == "" {
		platform = "android"
	}
	h.tokenRepo.Register(req.Token, platform)

	h.writeJSON(w, tokenResponse{
		Success: true,
		Message: "Token registered successfully",
		Count:   h.tokenRepo.Count(),
	})
}

func (h *Handler) HandleUnregisterToken(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTokenRequest(w, r)
	if !ok {
		return
	}

	h.tokenRepo.Unregister(req.Token)

	h.writeJSON(w, tokenResponse{
		Success: true,
		Message: "Token removed",
		Count:   h.tokenRepo.Count(),
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) decodeTokenRequest(w http.ResponseWriter, r *http.Request) (*tokenRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if req.Token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn().Err(err).Msg("response encoding failed")
	}
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.log.Error().Err(err).Msg("request failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// historyDays reads the optional ?days= window, defaulting to 30.
func historyDays(r *http.Request) int {
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 30
}
