package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/sales"
)

// Handler exposes settlement over HTTP.
type Handler struct {
	Sessions *cart.Store
	Service  *Service
	Log      zerolog.Logger
}

type settleRequest struct {
	PaymentType string  `json:"paymentType" validate:"required,oneof=CASH CARD TRANSFER DEBT"`
	Currency    string  `json:"currency" validate:"omitempty,oneof=LOCAL USD"`
	Tendered    float64 `json:"tendered" validate:"gte=0"`
	EditReason  string  `json:"editReason"`
}

// Settle submits the session's cart as a sale.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "session not found", nil)
		return
	}
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, err)
		return
	}

	result, err := h.Service.Settle(r.Context(), s, Input{
		PaymentType: sales.PaymentType(req.PaymentType),
		Currency:    Currency(req.Currency),
		Tendered:    req.Tendered,
		EditReason:  req.EditReason,
	})
	if err != nil {
		common.WriteError(w, mapSettleErr(err))
		return
	}
	common.Data(w, http.StatusOK, result)
}

func mapSettleErr(err error) error {
	var remote *sales.RemoteError
	switch {
	case errors.Is(err, cart.ErrSubmitInFlight):
		return common.NewAppError(common.CodeSubmitInFlight, "a submission is already in progress", http.StatusConflict, err)
	case errors.Is(err, cart.ErrEmptyCart):
		return common.ValidationError("cart is empty", err)
	case errors.Is(err, ErrInvalidPayment):
		return common.ValidationError("unknown payment type", err)
	case errors.Is(err, ErrInvalidCurrency):
		return common.ValidationError("unknown tender currency", err)
	case errors.Is(err, ErrCustomerRequired):
		return common.ValidationError("debt sales require a customer", err)
	case errors.Is(err, ErrEditReasonTooShort):
		return common.ValidationError("edit reason must be at least 3 characters", err)
	case errors.Is(err, ErrInsufficientTender):
		return common.ValidationError("tendered amount does not cover the total", err)
	case errors.As(err, &remote):
		msg := remote.Message
		if msg == "" {
			msg = "sale was rejected by the sales service"
		}
		return common.NewAppError(common.CodeUpstreamError, msg, http.StatusBadGateway, err)
	default:
		return common.NewAppError(common.CodeUpstreamError, "unable to submit sale", http.StatusBadGateway, err)
	}
}
