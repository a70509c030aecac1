package rates

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes the cached USD rate to the POS UI.
type Handler struct {
	Rates Provider
	Log   zerolog.Logger
}

// Get returns the current exchange rate.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Rates == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "rate provider not configured", nil)
		return
	}
	rate, err := h.Rates.USDRate(r.Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("usd rate fetch failed")
		common.JSONError(w, http.StatusBadGateway, common.CodeUpstreamError, "exchange rate unavailable", nil)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"rate": rate})
}
