package api

import (
	"log/slog"
	"net/http"

	"github.com/promoraffle/promoraffle/internal/raffle"
)

// ConfigHandler exposes campaign settings.
type ConfigHandler struct {
	Service *raffle.Service
}

type campaignConfig struct {
	RaffleDate string `json:"raffle_date"`
}

// Get handles GET /api/config.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	date, err := h.Service.RaffleDate(r.Context())
	if err != nil {
		domainError(w, "get config", err)
		return
	}
	jsonResponse(w, http.StatusOK, campaignConfig{RaffleDate: date})
}

// Put handles PUT /api/config.
func (h *ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req campaignConfig
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	if err := h.Service.SetRaffleDate(r.Context(), req.RaffleDate); err != nil {
		domainError(w, "update config", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("raffle date updated", "user", claims.Username, "raffle_date", req.RaffleDate)
	jsonResponse(w, http.StatusOK, req)
}
