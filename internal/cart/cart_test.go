package cart_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/customer"
	"github.com/noah-isme/backend-kasir/internal/uom"
)

func cola() catalog.Product {
	return catalog.Product{
		ID:       "prod-cola",
		Name:     "Cola 0.5L",
		Barcode:  "4780000000011",
		BaseUnit: catalog.Unit{ID: "unit-pcs", Symbol: "pcs", Name: "Piece"},
		Conversions: []catalog.Conversion{
			{Unit: catalog.Unit{ID: "unit-box", Symbol: "box", Name: "Box"}, Factor: 12},
		},
		SalePrice: 10000,
		CostPrice: 7000,
	}
}

func importedOil() catalog.Product {
	usd := 10.0
	return catalog.Product{
		ID:        "prod-oil",
		Name:      "Sunflower Oil 5L",
		BaseUnit:  catalog.Unit{ID: "unit-btl", Symbol: "btl", Name: "Bottle"},
		SalePrice: 0,
		SalePriceUSD: func() *float64 {
			return &usd
		}(),
		CostPrice: 90000,
	}
}

func mustResolve(t *testing.T, p catalog.Product, unitID string) uom.Selection {
	t.Helper()
	sel, err := uom.Resolve(p, unitID)
	require.NoError(t, err)
	return sel
}

func TestAddItemMergesSameProductAndUnit(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := cola()
	sel := mustResolve(t, p, "")

	_, err := c.AddItem(p, sel, 1, 0, nil)
	require.NoError(t, err)
	_, err = c.AddItem(p, sel, 2, 0, nil)
	require.NoError(t, err)

	require.Len(t, c.Lines, 1)
	require.Equal(t, 3.0, c.Lines[0].Quantity)
	require.Equal(t, int64(30000), c.Subtotal())
}

func TestAddItemKeepsSeparateLinesPerUnit(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := cola()

	_, err := c.AddItem(p, mustResolve(t, p, "unit-pcs"), 1, 0, nil)
	require.NoError(t, err)
	box, err := c.AddItem(p, mustResolve(t, p, "unit-box"), 1, 0, nil)
	require.NoError(t, err)

	require.Len(t, c.Lines, 2)
	require.Equal(t, int64(120000), box.UnitPrice)
	require.Equal(t, int64(130000), c.Subtotal())
}

func TestAddItemUSDPriceConvertsAtRate(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := importedOil()

	line, err := c.AddItem(p, mustResolve(t, p, ""), 1, 12800, nil)
	require.NoError(t, err)
	require.Equal(t, int64(128000), line.UnitPrice)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := cola()
	_, err := c.AddItem(p, mustResolve(t, p, ""), 0, 0, nil)
	require.ErrorIs(t, err, cart.ErrInvalidQuantity)
	require.True(t, c.IsEmpty())
}

func TestSetQuantityRejectsZero(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := cola()
	line, err := c.AddItem(p, mustResolve(t, p, ""), 2, 0, nil)
	require.NoError(t, err)

	require.ErrorIs(t, c.SetQuantity(line.ID, 0), cart.ErrInvalidQuantity)
	require.Equal(t, 2.0, line.Quantity)
	require.NoError(t, c.SetQuantity(line.ID, 1.5))
	require.Equal(t, int64(15000), c.Subtotal())
}

func TestSetUnitPriceKeepsOriginalPrice(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := cola()
	line, err := c.AddItem(p, mustResolve(t, p, ""), 2, 0, nil)
	require.NoError(t, err)

	require.NoError(t, c.SetUnitPrice(line.ID, 9000))
	require.Equal(t, int64(9000), line.UnitPrice)
	require.Equal(t, int64(10000), line.OriginalPrice)
	require.Equal(t, int64(2000), line.EditDiscount())
	require.ErrorIs(t, c.SetUnitPrice(line.ID, -1), cart.ErrInvalidPrice)
}

func TestChangeUnitResetsBothPrices(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := cola()
	line, err := c.AddItem(p, mustResolve(t, p, ""), 2, 0, nil)
	require.NoError(t, err)
	require.NoError(t, c.SetUnitPrice(line.ID, 9000))

	moved, err := c.ChangeUnit(line.ID, mustResolve(t, p, "unit-box"), 0)
	require.NoError(t, err)
	require.Equal(t, "unit-box", moved.Unit.ID)
	require.Equal(t, int64(120000), moved.UnitPrice)
	require.Equal(t, int64(120000), moved.OriginalPrice)
}

func TestChangeUnitMergesIntoExistingLine(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := cola()
	pcs, err := c.AddItem(p, mustResolve(t, p, "unit-pcs"), 2, 0, nil)
	require.NoError(t, err)
	box, err := c.AddItem(p, mustResolve(t, p, "unit-box"), 1, 0, nil)
	require.NoError(t, err)

	moved, err := c.ChangeUnit(pcs.ID, mustResolve(t, p, "unit-box"), 0)
	require.NoError(t, err)
	require.Equal(t, box.ID, moved.ID)
	require.Equal(t, 3.0, moved.Quantity)
	require.Len(t, c.Lines, 1)
}

func TestVIPPriceAppliesOnlyToItemsAddedAfterAttach(t *testing.T) {
	t.Parallel()

	vipPrice := int64(9000)
	p := cola()
	p.VIPPrice = &vipPrice

	c := cart.New()
	before, err := c.AddItem(p, mustResolve(t, p, ""), 1, 0, nil)
	require.NoError(t, err)

	c.SetCustomer(&customer.Customer{ID: "cust-1", Type: customer.TypeVIP})
	require.Equal(t, int64(10000), before.UnitPrice)

	other := cola()
	other.ID = "prod-cola-zero"
	other.VIPPrice = &vipPrice
	after, err := c.AddItem(other, mustResolve(t, other, ""), 1, 0, nil)
	require.NoError(t, err)
	require.Equal(t, int64(9000), after.UnitPrice)
}

func TestDerivedTotals(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := cola()
	_, err := c.AddItem(p, mustResolve(t, p, ""), 3, 0, nil)
	require.NoError(t, err)
	require.NoError(t, c.ApplyDiscountAmount(5000))

	require.Equal(t, int64(30000), c.Subtotal())
	require.Equal(t, int64(21000), c.TotalCost())
	require.Equal(t, int64(25000), c.FinalTotal())
	require.Equal(t, int64(4000), c.Profit())
}

func TestApplyFinalTotalIsDiscountInverse(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := cola()
	_, err := c.AddItem(p, mustResolve(t, p, ""), 3, 0, nil)
	require.NoError(t, err)

	require.NoError(t, c.ApplyFinalTotal(28000))
	require.Equal(t, int64(2000), c.DiscountAmount)
	require.Equal(t, int64(28000), c.FinalTotal())

	require.ErrorIs(t, c.ApplyFinalTotal(30001), cart.ErrInvalidDiscount)
	require.ErrorIs(t, c.ApplyFinalTotal(0), cart.ErrInvalidDiscount)
	require.ErrorIs(t, c.ApplyFinalTotal(-1), cart.ErrInvalidDiscount)
}

func TestDiscountClampsWhenLinesShrink(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := cola()
	line, err := c.AddItem(p, mustResolve(t, p, ""), 3, 0, nil)
	require.NoError(t, err)
	require.NoError(t, c.ApplyDiscountAmount(25000))

	require.NoError(t, c.SetQuantity(line.ID, 1))
	require.Equal(t, int64(10000), c.DiscountAmount)
	require.Equal(t, int64(0), c.FinalTotal())
}

func TestClearResetsEverything(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := cola()
	_, err := c.AddItem(p, mustResolve(t, p, ""), 1, 0, nil)
	require.NoError(t, err)
	c.SetCustomer(&customer.Customer{ID: "cust-1"})
	require.NoError(t, c.ApplyDiscountAmount(1000))
	c.EditingSaleID = "sale-1"

	c.Clear()
	require.True(t, c.IsEmpty())
	require.Nil(t, c.Customer)
	require.Zero(t, c.DiscountAmount)
	require.Empty(t, c.EditingSaleID)
}

func TestSnapshotRoundTripRecomputesTotals(t *testing.T) {
	t.Parallel()

	c := cart.New()
	p := cola()
	_, err := c.AddItem(p, mustResolve(t, p, ""), 2, 0, nil)
	require.NoError(t, err)
	require.NoError(t, c.ApplyDiscountAmount(3000))

	snap := c.Snapshot()
	require.Equal(t, int64(20000), snap.Subtotal)
	require.Equal(t, int64(17000), snap.FinalTotal)

	restored := cart.FromSnapshot(snap)
	require.Equal(t, c.ID, restored.ID)
	require.Equal(t, int64(17000), restored.FinalTotal())
}

func TestSessionSubmitFlag(t *testing.T) {
	t.Parallel()

	st := cart.NewStore()
	s := st.Create()

	require.NoError(t, s.TryBeginSubmit())
	require.ErrorIs(t, s.TryBeginSubmit(), cart.ErrSubmitInFlight)
	s.EndSubmit()
	require.NoError(t, s.TryBeginSubmit())
}
