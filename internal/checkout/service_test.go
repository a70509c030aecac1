package checkout_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/checkout"
	"github.com/noah-isme/backend-kasir/internal/customer"
	"github.com/noah-isme/backend-kasir/internal/rates"
	"github.com/noah-isme/backend-kasir/internal/sales"
	"github.com/noah-isme/backend-kasir/internal/uom"
)

func newService(mock *sales.MockClient) *checkout.Service {
	return &checkout.Service{
		Sales:       mock,
		Rates:       &rates.StaticClient{Rate: 12800},
		WarehouseID: "wh-1",
		Log:         zerolog.Nop(),
	}
}

// sessionWith builds a session holding a cart with the given cola quantity at
// 10,000 per piece.
func sessionWith(t *testing.T, quantity float64) (*cart.Store, *cart.Session) {
	t.Helper()
	st := cart.NewStore()
	s := st.Create()
	if quantity > 0 {
		p := catalog.Product{
			ID:        "prod-cola",
			Name:      "Cola 0.5L",
			BaseUnit:  catalog.Unit{ID: "unit-pcs", Symbol: "pcs"},
			SalePrice: 10000,
			CostPrice: 7000,
		}
		sel, err := uom.Resolve(p, "")
		require.NoError(t, err)
		c, unlock := s.Lock()
		_, err = c.AddItem(p, sel, quantity, 0, nil)
		unlock()
		require.NoError(t, err)
	}
	return st, s
}

func TestSettleCashCommitsAndClearsCart(t *testing.T) {
	t.Parallel()

	mock := &sales.MockClient{NextSaleID: "sale-77"}
	svc := newService(mock)
	_, s := sessionWith(t, 3)

	result, err := svc.Settle(context.Background(), s, checkout.Input{
		PaymentType: sales.PaymentCash,
		Currency:    checkout.CurrencyLocal,
		Tendered:    50000,
	})
	require.NoError(t, err)
	require.Equal(t, "sale-77", result.SaleID)
	require.Equal(t, checkout.StateCommitted, result.State)
	require.Equal(t, int64(30000), result.Total)
	require.Equal(t, int64(20000), result.ChangeAmount)

	require.Len(t, mock.Created, 1)
	req := mock.Created[0]
	require.Equal(t, "wh-1", req.WarehouseID)
	require.Equal(t, int64(50000), req.TenderedAmount)
	require.Len(t, req.Items, 1)
	require.Equal(t, 3.0, req.Items[0].Quantity)

	c, unlock := s.Lock()
	defer unlock()
	require.True(t, c.IsEmpty())
}

func TestSettleEmptyCart(t *testing.T) {
	t.Parallel()

	svc := newService(&sales.MockClient{})
	_, s := sessionWith(t, 0)

	_, err := svc.Settle(context.Background(), s, checkout.Input{
		PaymentType: sales.PaymentCash,
		Tendered:    1000,
	})
	require.ErrorIs(t, err, cart.ErrEmptyCart)
}

func TestSettleDebtRequiresCustomer(t *testing.T) {
	t.Parallel()

	svc := newService(&sales.MockClient{})
	_, s := sessionWith(t, 1)

	_, err := svc.Settle(context.Background(), s, checkout.Input{PaymentType: sales.PaymentDebt})
	require.ErrorIs(t, err, checkout.ErrCustomerRequired)
}

func TestSettleDebtRecordsZeroTendered(t *testing.T) {
	t.Parallel()

	mock := &sales.MockClient{}
	svc := newService(mock)
	_, s := sessionWith(t, 2)

	c, unlock := s.Lock()
	c.SetCustomer(&customer.Customer{ID: "cust-9", Name: "Karimov"})
	unlock()

	result, err := svc.Settle(context.Background(), s, checkout.Input{
		PaymentType: sales.PaymentDebt,
		Tendered:    999999,
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), result.TenderedAmount)
	require.Equal(t, int64(0), result.ChangeAmount)

	require.Len(t, mock.Created, 1)
	require.Equal(t, int64(0), mock.Created[0].TenderedAmount)
	require.NotNil(t, mock.Created[0].CustomerID)
	require.Equal(t, "cust-9", *mock.Created[0].CustomerID)
}

func TestSettleUSDTenderConvertsAtRate(t *testing.T) {
	t.Parallel()

	mock := &sales.MockClient{}
	svc := newService(mock)
	_, s := sessionWith(t, 10)

	result, err := svc.Settle(context.Background(), s, checkout.Input{
		PaymentType: sales.PaymentCash,
		Currency:    checkout.CurrencyUSD,
		Tendered:    10,
	})
	require.NoError(t, err)
	require.Equal(t, int64(128000), result.TenderedAmount)
	require.Equal(t, int64(28000), result.ChangeAmount)
}

func TestSettleInsufficientCash(t *testing.T) {
	t.Parallel()

	svc := newService(&sales.MockClient{})
	_, s := sessionWith(t, 3)

	_, err := svc.Settle(context.Background(), s, checkout.Input{
		PaymentType: sales.PaymentCash,
		Tendered:    29999,
	})
	require.ErrorIs(t, err, checkout.ErrInsufficientTender)
}

func TestSettleCardChargesExactTotal(t *testing.T) {
	t.Parallel()

	mock := &sales.MockClient{}
	svc := newService(mock)
	_, s := sessionWith(t, 3)

	result, err := svc.Settle(context.Background(), s, checkout.Input{
		PaymentType: sales.PaymentCard,
	})
	require.NoError(t, err)
	require.Equal(t, int64(30000), result.TenderedAmount)
	require.Equal(t, int64(0), result.ChangeAmount)
}

func TestSettleEditModeUpdatesSale(t *testing.T) {
	t.Parallel()

	mock := &sales.MockClient{}
	svc := newService(mock)
	_, s := sessionWith(t, 2)

	c, unlock := s.Lock()
	c.EditingSaleID = "sale-42"
	unlock()

	result, err := svc.Settle(context.Background(), s, checkout.Input{
		PaymentType: sales.PaymentCash,
		Tendered:    20000,
		EditReason:  "wrong quantity rung up",
	})
	require.NoError(t, err)
	require.Equal(t, "edit", result.Mode)
	require.Equal(t, "sale-42", result.SaleID)
	require.Contains(t, mock.Updated, "sale-42")
	require.Equal(t, "wrong quantity rung up", mock.Updated["sale-42"].Reason)
	require.Empty(t, mock.Created)
}

func TestSettleEditModeRejectsShortReason(t *testing.T) {
	t.Parallel()

	svc := newService(&sales.MockClient{})
	_, s := sessionWith(t, 2)

	c, unlock := s.Lock()
	c.EditingSaleID = "sale-42"
	unlock()

	_, err := svc.Settle(context.Background(), s, checkout.Input{
		PaymentType: sales.PaymentCash,
		Tendered:    20000,
		EditReason:  "  ok ",
	})
	require.ErrorIs(t, err, checkout.ErrEditReasonTooShort)
}

func TestSettleFailureKeepsCart(t *testing.T) {
	t.Parallel()

	mock := &sales.MockClient{CreateErr: &sales.RemoteError{StatusCode: 422, Message: "insufficient stock"}}
	svc := newService(mock)
	_, s := sessionWith(t, 3)

	_, err := svc.Settle(context.Background(), s, checkout.Input{
		PaymentType: sales.PaymentCash,
		Tendered:    30000,
	})
	require.Error(t, err)
	var remote *sales.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "insufficient stock", remote.Message)

	c, unlock := s.Lock()
	defer unlock()
	require.False(t, c.IsEmpty())
	require.Equal(t, int64(30000), c.FinalTotal())
}

func TestSettleRejectsConcurrentSubmission(t *testing.T) {
	t.Parallel()

	svc := newService(&sales.MockClient{})
	_, s := sessionWith(t, 1)

	require.NoError(t, s.TryBeginSubmit())
	_, err := svc.Settle(context.Background(), s, checkout.Input{
		PaymentType: sales.PaymentCash,
		Tendered:    10000,
	})
	require.ErrorIs(t, err, cart.ErrSubmitInFlight)
	s.EndSubmit()
}

func TestSettleDiscountProratedAcrossItems(t *testing.T) {
	t.Parallel()

	mock := &sales.MockClient{}
	svc := newService(mock)
	st := cart.NewStore()
	s := st.Create()

	p1 := catalog.Product{ID: "p1", Name: "A", BaseUnit: catalog.Unit{ID: "u1", Symbol: "pcs"}, SalePrice: 10000}
	p2 := catalog.Product{ID: "p2", Name: "B", BaseUnit: catalog.Unit{ID: "u1", Symbol: "pcs"}, SalePrice: 30000}
	c, unlock := s.Lock()
	sel1, err := uom.Resolve(p1, "")
	require.NoError(t, err)
	_, err = c.AddItem(p1, sel1, 1, 0, nil)
	require.NoError(t, err)
	sel2, err := uom.Resolve(p2, "")
	require.NoError(t, err)
	_, err = c.AddItem(p2, sel2, 1, 0, nil)
	require.NoError(t, err)
	require.NoError(t, c.ApplyDiscountAmount(5000))
	unlock()

	_, err = svc.Settle(context.Background(), s, checkout.Input{
		PaymentType: sales.PaymentCash,
		Tendered:    35000,
	})
	require.NoError(t, err)

	req := mock.Created[0]
	require.Equal(t, int64(5000), req.Discount)
	require.Equal(t, int64(35000), req.Total)
	var lineDiscounts int64
	for _, item := range req.Items {
		lineDiscounts += item.Discount
	}
	require.Equal(t, int64(5000), lineDiscounts)
	require.Equal(t, int64(1250), req.Items[0].Discount)
	require.Equal(t, int64(3750), req.Items[1].Discount)
}
