package checkout

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/rates"
	"github.com/noah-isme/backend-kasir/internal/sales"
)

// Input is the cashier's settlement choice. Tendered is in the tender
// currency: ledger minor units for LOCAL, dollars for USD.
type Input struct {
	PaymentType sales.PaymentType
	Currency    Currency
	Tendered    float64
	EditReason  string
}

// Result reports a committed settlement.
type Result struct {
	SaleID         string `json:"saleId"`
	Mode           string `json:"mode"`
	Total          int64  `json:"total"`
	TenderedAmount int64  `json:"tenderedAmount"`
	ChangeAmount   int64  `json:"changeAmount"`
	State          State  `json:"state"`
}

// Service settles carts against the sales service.
type Service struct {
	Sales       sales.Client
	Rates       rates.Provider
	WarehouseID string
	Log         zerolog.Logger
}

// Settle validates the cart and the tender, submits the sale, and clears the
// cart on commit. A failed submission leaves the cart untouched for retry.
// Only one settlement may run per session at a time.
func (s *Service) Settle(ctx context.Context, session *cart.Session, in Input) (Result, error) {
	if err := session.TryBeginSubmit(); err != nil {
		return Result{}, err
	}
	defer session.EndSubmit()

	st := NewSettlement()
	if err := st.To(StatePaymentSelected); err != nil {
		return Result{}, err
	}
	if err := st.To(StateValidating); err != nil {
		return Result{}, err
	}

	c, unlock := session.Lock()
	payload, mode, saleID, err := s.buildPayload(ctx, c, in)
	unlock()
	if err != nil {
		_ = st.To(StateFailed)
		s.count(mode, in.PaymentType, "rejected")
		return Result{}, err
	}

	if err := st.To(StateSubmitting); err != nil {
		return Result{}, err
	}

	result := Result{
		Mode:           mode,
		Total:          payload.Total,
		TenderedAmount: payload.TenderedAmount,
	}
	if mode == "edit" {
		edit := sales.EditSaleRequest{
			Reason:         strings.TrimSpace(in.EditReason),
			WarehouseID:    payload.WarehouseID,
			CustomerID:     payload.CustomerID,
			PaymentType:    payload.PaymentType,
			Subtotal:       payload.Subtotal,
			Discount:       payload.Discount,
			Total:          payload.Total,
			TenderedAmount: payload.TenderedAmount,
			Items:          payload.Items,
		}
		if err := s.Sales.UpdateSale(ctx, saleID, edit); err != nil {
			_ = st.To(StateFailed)
			s.count(mode, in.PaymentType, "failed")
			s.Log.Error().Err(err).Str("sale_id", saleID).Msg("sale update failed")
			return Result{}, err
		}
		result.SaleID = saleID
		result.ChangeAmount = changeFor(in.PaymentType, payload.TenderedAmount, payload.Total)
	} else {
		created, err := s.Sales.CreateSale(ctx, payload)
		if err != nil {
			_ = st.To(StateFailed)
			s.count(mode, in.PaymentType, "failed")
			s.Log.Error().Err(err).Msg("sale create failed")
			return Result{}, err
		}
		result.SaleID = created.SaleID
		result.ChangeAmount = created.ChangeAmount
		if result.ChangeAmount == 0 {
			result.ChangeAmount = changeFor(in.PaymentType, payload.TenderedAmount, payload.Total)
		}
	}

	if err := st.To(StateCommitted); err != nil {
		return Result{}, err
	}
	result.State = StateCommitted
	s.count(mode, in.PaymentType, "committed")

	c, unlock = session.Lock()
	c.Clear()
	unlock()

	s.Log.Info().
		Str("sale_id", result.SaleID).
		Str("mode", mode).
		Str("payment_type", string(in.PaymentType)).
		Int64("total", result.Total).
		Int64("change", result.ChangeAmount).
		Msg("sale committed")
	return result, nil
}

// buildPayload validates the cart and tender and assembles the sale request.
// It never mutates the cart.
func (s *Service) buildPayload(ctx context.Context, c *cart.Cart, in Input) (sales.NewSaleRequest, string, string, error) {
	mode := "create"
	saleID := c.EditingSaleID
	if saleID != "" {
		mode = "edit"
	}

	if c.IsEmpty() {
		return sales.NewSaleRequest{}, mode, saleID, cart.ErrEmptyCart
	}
	if !ValidPaymentType(in.PaymentType) {
		return sales.NewSaleRequest{}, mode, saleID, fmt.Errorf("%w: %q", ErrInvalidPayment, in.PaymentType)
	}
	if in.Currency == "" {
		in.Currency = CurrencyLocal
	}
	if !ValidCurrency(in.Currency) {
		return sales.NewSaleRequest{}, mode, saleID, fmt.Errorf("%w: %q", ErrInvalidCurrency, in.Currency)
	}
	if in.PaymentType == sales.PaymentDebt && c.Customer == nil {
		return sales.NewSaleRequest{}, mode, saleID, ErrCustomerRequired
	}
	if mode == "edit" && utf8.RuneCountInString(strings.TrimSpace(in.EditReason)) < 3 {
		return sales.NewSaleRequest{}, mode, saleID, ErrEditReasonTooShort
	}

	total := c.FinalTotal()
	tendered, err := s.resolveTender(ctx, in, total)
	if err != nil {
		return sales.NewSaleRequest{}, mode, saleID, err
	}

	shares := cart.ProrateDiscount(c.Lines, c.DiscountAmount)
	items := make([]sales.LineItem, len(c.Lines))
	for i, l := range c.Lines {
		item := sales.LineItem{
			ProductID:     l.Product.ID,
			ProductName:   l.Product.Name,
			UnitID:        l.Unit.ID,
			UnitSymbol:    l.Unit.Symbol,
			Factor:        l.Factor,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			OriginalPrice: l.OriginalPrice,
			CostPrice:     l.CostPerBase,
			Discount:      l.EditDiscount() + shares[i],
			Subtotal:      l.Subtotal(),
		}
		if l.Breakdown != nil {
			pieces, size := l.Breakdown.Pieces, l.Breakdown.PieceSize
			item.Pieces, item.PieceSize = &pieces, &size
		}
		items[i] = item
	}

	payload := sales.NewSaleRequest{
		WarehouseID:    s.WarehouseID,
		PaymentType:    in.PaymentType,
		Subtotal:       c.Subtotal(),
		Discount:       c.DiscountAmount,
		Total:          total,
		TenderedAmount: tendered,
		Items:          items,
	}
	if c.Customer != nil {
		id := c.Customer.ID
		payload.CustomerID = &id
	}
	return payload, mode, saleID, nil
}

// resolveTender converts the tendered amount to ledger minor units and checks
// it against the total. Debt sales always record zero tendered; the whole
// total goes on the customer's balance.
func (s *Service) resolveTender(ctx context.Context, in Input, total int64) (int64, error) {
	if in.PaymentType == sales.PaymentDebt {
		return 0, nil
	}

	var tendered int64
	switch in.Currency {
	case CurrencyUSD:
		rate, err := s.Rates.USDRate(ctx)
		if err != nil {
			return 0, fmt.Errorf("checkout: usd tender needs an exchange rate: %w", err)
		}
		tendered = pricing.FromUSD(in.Tendered, rate)
	default:
		tendered = pricing.RoundMul(1, in.Tendered)
	}

	switch in.PaymentType {
	case sales.PaymentCash:
		if tendered < total {
			return 0, fmt.Errorf("%w: tendered %d, total %d", ErrInsufficientTender, tendered, total)
		}
	case sales.PaymentCard, sales.PaymentTransfer:
		// Card and transfer settle exactly; the terminal charges the total.
		tendered = total
	}
	return tendered, nil
}

func changeFor(t sales.PaymentType, tendered, total int64) int64 {
	if t != sales.PaymentCash {
		return 0
	}
	if change := tendered - total; change > 0 {
		return change
	}
	return 0
}

func (s *Service) count(mode string, t sales.PaymentType, result string) {
	if obs.SaleSubmitTotal != nil {
		obs.SaleSubmitTotal.WithLabelValues(mode, string(t), result).Inc()
	}
}
