package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

// Handler proxies catalog lookups for the POS UI.
type Handler struct {
	Products Client
	Log      zerolog.Logger
}

// List returns products matching the query string filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Products == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog client not configured", nil)
		return
	}
	q := r.URL.Query()
	filter := Filter{
		Query:         q.Get("query"),
		CategoryID:    q.Get("categoryId"),
		FavoritesOnly: q.Get("favorite") == "true",
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	products, err := h.Products.List(r.Context(), filter)
	if err != nil {
		h.Log.Error().Err(err).Msg("catalog list failed")
		common.JSONError(w, http.StatusBadGateway, common.CodeUpstreamError, "unable to load products", nil)
		return
	}
	common.Data(w, http.StatusOK, products)
}

// Barcode resolves one product by barcode, reporting misses distinctly so the
// cashier sees "barcode not found" rather than a generic error.
func (h *Handler) Barcode(w http.ResponseWriter, r *http.Request) {
	if h.Products == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog client not configured", nil)
		return
	}
	code := chi.URLParam(r, "code")
	product, err := h.Products.GetByBarcode(r.Context(), code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if obs.BarcodeLookupTotal != nil {
				obs.BarcodeLookupTotal.WithLabelValues("miss").Inc()
			}
			common.JSONError(w, http.StatusNotFound, common.CodeBarcodeNotFound, "barcode not found", nil)
			return
		}
		if obs.BarcodeLookupTotal != nil {
			obs.BarcodeLookupTotal.WithLabelValues("error").Inc()
		}
		h.Log.Error().Err(err).Str("barcode", code).Msg("barcode lookup failed")
		common.JSONError(w, http.StatusBadGateway, common.CodeUpstreamError, "unable to look up barcode", nil)
		return
	}
	if obs.BarcodeLookupTotal != nil {
		obs.BarcodeLookupTotal.WithLabelValues("hit").Inc()
	}
	common.Data(w, http.StatusOK, product)
}
