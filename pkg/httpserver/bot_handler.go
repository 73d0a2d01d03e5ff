package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/polytrade/polybot/internal/bot"
	"github.com/polytrade/polybot/internal/ledger"
	"github.com/polytrade/polybot/pkg/types"
	"go.uber.org/zap"
)

// BotHandler handles HTTP requests for bot state and control.
type BotHandler struct {
	bot    *bot.Bot
	ledger *ledger.Ledger
	logger *zap.Logger
}

// NewBotHandler creates a new bot handler.
func NewBotHandler(b *bot.Bot, l *ledger.Ledger, logger *zap.Logger) *BotHandler {
	return &BotHandler{
		bot:    b,
		ledger: l,
		logger: logger,
	}
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandlePortfolio handles GET /api/portfolio requests.
func (h *BotHandler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.bot.Portfolio())
}

// HandleMarkets handles GET /api/markets requests.
func (h *BotHandler) HandleMarkets(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.bot.ScannedMarkets())
}

// HandleGetSettings handles GET /api/settings requests.
func (h *BotHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.bot.Settings())
}

// HandleUpdateSettings handles PATCH /api/settings requests.
func (h *BotHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch types.SettingsPatch
	err := json.NewDecoder(r.Body).Decode(&patch)
	if err != nil {
		h.writeError(w, "invalid settings patch: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.bot.UpdateSettings(patch)
	if err != nil {
		h.logger.Error("settings-update-failed", zap.Error(err))
		h.writeError(w, "failed to persist settings", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, updated)
}

// HandleClosePosition handles POST /api/positions/{marketID}/{outcome}/close.
func (h *BotHandler) HandleClosePosition(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")
	outcome, ok := parseOutcome(chi.URLParam(r, "outcome"))
	if !ok {
		h.writeError(w, "outcome must be YES or NO", http.StatusBadRequest)
		return
	}

	closed := h.ledger.ClosePosition(marketID, outcome)
	if !closed {
		h.writeError(w, "no open position for market and outcome", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, h.bot.Portfolio())
}

// HandleRedeemMarket handles POST /api/positions/{marketID}/{outcome}/redeem.
// The outcome in the path is the winning side; every open leg of the market
// settles at its binary payoff.
func (h *BotHandler) HandleRedeemMarket(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")
	winner, ok := parseOutcome(chi.URLParam(r, "outcome"))
	if !ok {
		h.writeError(w, "outcome must be YES or NO", http.StatusBadRequest)
		return
	}

	redeemed := h.ledger.Redeem(marketID, winner)
	if !redeemed {
		h.writeError(w, "no open positions for market", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, h.bot.Portfolio())
}

// HandleResetPositions handles POST /api/reset/positions.
func (h *BotHandler) HandleResetPositions(w http.ResponseWriter, r *http.Request) {
	h.ledger.ClearAll()
	h.writeJSON(w, http.StatusOK, h.bot.Portfolio())
}

// HandleResetDailyPnL handles POST /api/reset/daily-pnl.
func (h *BotHandler) HandleResetDailyPnL(w http.ResponseWriter, r *http.Request) {
	h.ledger.ResetDailyPnL()
	h.writeJSON(w, http.StatusOK, h.bot.Portfolio())
}

func parseOutcome(raw string) (types.Outcome, bool) {
	switch raw {
	case "YES":
		return types.OutcomeYes, true
	case "NO":
		return types.OutcomeNo, true
	default:
		return "", false
	}
}

// writeJSON writes a JSON response.
func (h *BotHandler) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *BotHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message}
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
