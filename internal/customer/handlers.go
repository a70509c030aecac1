package customer

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler proxies customer lookups for the POS UI.
type Handler struct {
	Customers Client
	Log       zerolog.Logger
}

// List returns customers matching the query string filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Customers == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "customer client not configured", nil)
		return
	}
	q := r.URL.Query()
	filter := Filter{Query: q.Get("query")}
	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	customers, err := h.Customers.List(r.Context(), filter)
	if err != nil {
		h.Log.Error().Err(err).Msg("customer list failed")
		common.JSONError(w, http.StatusBadGateway, common.CodeUpstreamError, "unable to load customers", nil)
		return
	}
	common.Data(w, http.StatusOK, customers)
}
