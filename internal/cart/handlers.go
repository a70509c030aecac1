package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/customer"
	"github.com/noah-isme/backend-kasir/internal/rates"
	"github.com/noah-isme/backend-kasir/internal/uom"
)

// Handler exposes the cart operations for one register session.
type Handler struct {
	Sessions  *Store
	Saved     SavedStore
	Products  catalog.Client
	Customers customer.Client
	Rates     rates.Provider
	Log       zerolog.Logger
}

// CreateSession opens a new register session with an empty cart.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	_ = r
	s := h.Sessions.Create()
	c, unlock := s.Lock()
	snap := c.Snapshot()
	unlock()
	common.Data(w, http.StatusCreated, map[string]any{"sessionId": s.ID, "cart": snap})
}

// CloseSession drops a session entirely.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Remove(chi.URLParam(r, "sessionID"))
	common.Data(w, http.StatusOK, map[string]any{"closed": true})
}

// GetCart returns the session's cart with derived totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	c, unlock := s.Lock()
	snap := c.Snapshot()
	unlock()
	common.Data(w, http.StatusOK, snap)
}

// ClearCart empties the cart and detaches the customer.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	c, unlock := s.Lock()
	c.Clear()
	snap := c.Snapshot()
	unlock()
	common.Data(w, http.StatusOK, snap)
}

type addItemRequest struct {
	Barcode   string   `json:"barcode"`
	ProductID string   `json:"productId"`
	UnitID    string   `json:"unitId"`
	Quantity  float64  `json:"quantity" validate:"gte=0"`
	Pieces    *float64 `json:"pieces" validate:"omitempty,gt=0"`
	PieceSize *float64 `json:"pieceSize" validate:"omitempty,gt=0"`
}

// AddItem adds a product to the cart by barcode or product id. The quantity
// defaults to one; a pieces/pieceSize pair records a bulk-entry breakdown.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.lookupProduct(r, req.Barcode, req.ProductID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	sel, err := uom.Resolve(product, req.UnitID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "unit is not sold for this product", nil)
		return
	}

	var breakdown *Breakdown
	if req.Pieces != nil && req.PieceSize != nil && *req.Pieces > 0 && *req.PieceSize > 0 {
		breakdown = &Breakdown{Pieces: *req.Pieces, PieceSize: *req.PieceSize}
	}

	rate := h.rate(r)
	c, unlock := s.Lock()
	defer unlock()
	line, err := c.AddItem(product, sel, req.Quantity, rate, breakdown)
	if err != nil {
		common.WriteError(w, mapCartErr(err))
		return
	}
	if line.UnitPrice <= 0 {
		// USD-only product with no rate available resolves to zero; refuse
		// rather than sell for free.
		_ = c.RemoveItem(line.ID)
		common.JSONError(w, http.StatusConflict, common.CodeUpstreamError, "no price available for this product", nil)
		return
	}
	common.Data(w, http.StatusOK, c.Snapshot())
}

type updateItemRequest struct {
	Quantity  *float64 `json:"quantity"`
	UnitPrice *int64   `json:"unitPrice"`
	UnitID    *string  `json:"unitId"`
}

// UpdateItem changes a line's quantity, unit price, or selling unit. A unit
// change re-resolves the price and discards any manual edit.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	lineID := chi.URLParam(r, "lineID")
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}

	rate := float64(0)
	if req.UnitID != nil {
		rate = h.rate(r)
	}

	c, unlock := s.Lock()
	defer unlock()
	if req.UnitID != nil {
		l := c.line(lineID)
		if l == nil {
			common.WriteError(w, mapCartErr(ErrLineNotFound))
			return
		}
		sel, err := uom.Resolve(l.Product, *req.UnitID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "unit is not sold for this product", nil)
			return
		}
		moved, err := c.ChangeUnit(lineID, sel, rate)
		if err != nil {
			common.WriteError(w, mapCartErr(err))
			return
		}
		lineID = moved.ID
	}
	if req.Quantity != nil {
		if err := c.SetQuantity(lineID, *req.Quantity); err != nil {
			common.WriteError(w, mapCartErr(err))
			return
		}
	}
	if req.UnitPrice != nil {
		if err := c.SetUnitPrice(lineID, *req.UnitPrice); err != nil {
			common.WriteError(w, mapCartErr(err))
			return
		}
	}
	common.Data(w, http.StatusOK, c.Snapshot())
}

// RemoveItem deletes a line from the cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	c, unlock := s.Lock()
	defer unlock()
	if err := c.RemoveItem(chi.URLParam(r, "lineID")); err != nil {
		common.WriteError(w, mapCartErr(err))
		return
	}
	common.Data(w, http.StatusOK, c.Snapshot())
}

type discountRequest struct {
	Amount     *int64 `json:"amount"`
	FinalTotal *int64 `json:"finalTotal"`
}

// SetDiscount applies a cart-level discount, entered either as an amount off
// or as the final total the customer should pay.
func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req discountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if (req.Amount == nil) == (req.FinalTotal == nil) {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "provide exactly one of amount or finalTotal", nil)
		return
	}
	c, unlock := s.Lock()
	defer unlock()
	var err error
	if req.Amount != nil {
		err = c.ApplyDiscountAmount(*req.Amount)
	} else {
		err = c.ApplyFinalTotal(*req.FinalTotal)
	}
	if err != nil {
		common.WriteError(w, mapCartErr(err))
		return
	}
	common.Data(w, http.StatusOK, c.Snapshot())
}

type setCustomerRequest struct {
	CustomerID string `json:"customerId"`
}

// SetCustomer attaches a customer to the cart. Existing lines keep their
// prices; only items added afterwards see VIP pricing.
func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req setCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.CustomerID) == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "customerId is required", nil)
		return
	}
	found, err := h.Customers.List(r.Context(), customer.Filter{ID: req.CustomerID, Limit: 1})
	if err != nil {
		h.Log.Error().Err(err).Str("customer_id", req.CustomerID).Msg("customer lookup failed")
		common.JSONError(w, http.StatusBadGateway, common.CodeUpstreamError, "unable to load customer", nil)
		return
	}
	if len(found) == 0 {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "customer not found", nil)
		return
	}
	cust := found[0]
	c, unlock := s.Lock()
	c.SetCustomer(&cust)
	snap := c.Snapshot()
	unlock()
	common.Data(w, http.StatusOK, snap)
}

// DetachCustomer removes the customer from the cart.
func (h *Handler) DetachCustomer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	c, unlock := s.Lock()
	c.SetCustomer(nil)
	snap := c.Snapshot()
	unlock()
	common.Data(w, http.StatusOK, snap)
}

type parkRequest struct {
	Label string `json:"label"`
}

// Park saves the cart for later and clears the register.
func (h *Handler) Park(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req parkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Label = ""
	}
	c, unlock := s.Lock()
	defer unlock()
	if c.IsEmpty() {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "cannot park an empty cart", nil)
		return
	}
	saved := NewSavedCart(strings.TrimSpace(req.Label), c.Snapshot())
	if err := h.Saved.Park(r.Context(), common.TerminalID(r), saved); err != nil {
		h.Log.Error().Err(err).Msg("park cart failed")
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to park cart", nil)
		return
	}
	c.Clear()
	common.Data(w, http.StatusOK, map[string]any{"savedId": saved.ID, "cart": c.Snapshot()})
}

// ListSaved returns the terminal's parked carts.
func (h *Handler) ListSaved(w http.ResponseWriter, r *http.Request) {
	saved, err := h.Saved.List(r.Context(), common.TerminalID(r))
	if err != nil {
		h.Log.Error().Err(err).Msg("list saved carts failed")
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to list saved carts", nil)
		return
	}
	common.Data(w, http.StatusOK, saved)
}

// Resume loads a parked cart into the session. The current cart must be
// empty; parking or clearing it first is the cashier's call, not ours.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	c, unlock := s.Lock()
	empty := c.IsEmpty()
	unlock()
	if !empty {
		common.JSONError(w, http.StatusConflict, common.CodeValidation, "current cart is not empty", nil)
		return
	}
	saved, err := h.Saved.Take(r.Context(), common.TerminalID(r), chi.URLParam(r, "savedID"))
	if err != nil {
		if errors.Is(err, ErrSavedNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "saved cart not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("resume cart failed")
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to resume cart", nil)
		return
	}
	restored := FromSnapshot(saved.Cart)
	s.ReplaceCart(restored)
	common.Data(w, http.StatusOK, restored.Snapshot())
}

// DeleteSaved drops a parked cart without resuming it.
func (h *Handler) DeleteSaved(w http.ResponseWriter, r *http.Request) {
	err := h.Saved.Delete(r.Context(), common.TerminalID(r), chi.URLParam(r, "savedID"))
	if err != nil {
		if errors.Is(err, ErrSavedNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "saved cart not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("delete saved cart failed")
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to delete saved cart", nil)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"deleted": true})
}

type enterEditRequest struct {
	SaleID string   `json:"saleId"`
	Cart   Snapshot `json:"cart"`
}

// EnterEdit loads a committed sale back into the register for correction.
// The UI supplies the sale's lines in cart form; settling the session then
// updates the sale instead of creating a new one.
func (h *Handler) EnterEdit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req enterEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.SaleID) == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "saleId is required", nil)
		return
	}
	if len(req.Cart.Lines) == 0 {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "cart lines are required", nil)
		return
	}
	c, unlock := s.Lock()
	empty := c.IsEmpty()
	unlock()
	if !empty {
		common.JSONError(w, http.StatusConflict, common.CodeValidation, "current cart is not empty", nil)
		return
	}
	restored := FromSnapshot(req.Cart)
	restored.EditingSaleID = strings.TrimSpace(req.SaleID)
	s.ReplaceCart(restored)
	common.Data(w, http.StatusOK, restored.Snapshot())
}

// CancelEdit leaves edit mode and empties the cart.
func (h *Handler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	c, unlock := s.Lock()
	c.Clear()
	snap := c.Snapshot()
	unlock()
	common.Data(w, http.StatusOK, snap)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "sessionID")
	s, ok := h.Sessions.Get(id)
	if !ok {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "session not found", nil)
		return nil, false
	}
	return s, true
}

// lookupProduct resolves the add-item target by barcode first, product id
// second.
func (h *Handler) lookupProduct(r *http.Request, barcode, productID string) (catalog.Product, error) {
	ctx := r.Context()
	if strings.TrimSpace(barcode) != "" {
		p, err := h.Products.GetByBarcode(ctx, barcode)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return catalog.Product{}, common.NewAppError(common.CodeBarcodeNotFound, "barcode not found", http.StatusNotFound, err)
			}
			h.Log.Error().Err(err).Str("barcode", barcode).Msg("barcode lookup failed")
			return catalog.Product{}, common.NewAppError(common.CodeUpstreamError, "unable to look up barcode", http.StatusBadGateway, err)
		}
		return p, nil
	}
	if strings.TrimSpace(productID) == "" {
		return catalog.Product{}, common.ValidationError("barcode or productId is required", nil)
	}
	found, err := h.Products.List(ctx, catalog.Filter{ID: productID, Limit: 1})
	if err != nil {
		h.Log.Error().Err(err).Str("product_id", productID).Msg("product lookup failed")
		return catalog.Product{}, common.NewAppError(common.CodeUpstreamError, "unable to load product", http.StatusBadGateway, err)
	}
	if len(found) == 0 {
		return catalog.Product{}, common.NewAppError(common.CodeNotFound, "product not found", http.StatusNotFound, nil)
	}
	return found[0], nil
}

// rate fetches the current USD rate, falling back to zero so local prices
// still work when the settings service and cache are both cold.
func (h *Handler) rate(r *http.Request) float64 {
	if h.Rates == nil {
		return 0
	}
	rate, err := h.Rates.USDRate(r.Context())
	if err != nil {
		h.Log.Warn().Err(err).Msg("usd rate unavailable, pricing with local prices only")
		return 0
	}
	return rate
}

func mapCartErr(err error) error {
	switch {
	case errors.Is(err, ErrLineNotFound):
		return common.NewAppError(common.CodeNotFound, "cart line not found", http.StatusNotFound, err)
	case errors.Is(err, ErrInvalidQuantity):
		return common.ValidationError("quantity must be positive", err)
	case errors.Is(err, ErrInvalidPrice):
		return common.ValidationError("unit price must not be negative", err)
	case errors.Is(err, ErrInvalidDiscount):
		return common.ValidationError("discount must be between zero and the subtotal", err)
	default:
		return err
	}
}
