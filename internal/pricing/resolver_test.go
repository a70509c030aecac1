package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/customer"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/uom"
)

func baseSelection() uom.Selection {
	return uom.Selection{Unit: catalog.Unit{ID: "unit-pcs", Symbol: "pcs"}, Factor: 1}
}

func vip() *customer.Customer {
	return &customer.Customer{ID: "cust-1", Name: "Aziza", Type: customer.TypeVIP}
}

func TestRoundMulRoundsHalfAwayFromZero(t *testing.T) {
	t.Parallel()

	require.Equal(t, int64(13), pricing.RoundMul(25, 0.5))
	require.Equal(t, int64(-13), pricing.RoundMul(-25, 0.5))
	require.Equal(t, int64(120000), pricing.RoundMul(10000, 12))
}

func TestResolveUnitPriceLocalBase(t *testing.T) {
	t.Parallel()

	p := catalog.Product{SalePrice: 10000}
	require.Equal(t, int64(10000), pricing.ResolveUnitPrice(p, baseSelection(), nil, 12800))
}

func TestResolveUnitPriceUSDBaseConvertsAtRate(t *testing.T) {
	t.Parallel()

	usd := 10.0
	p := catalog.Product{SalePrice: 99, SalePriceUSD: &usd}
	require.Equal(t, int64(128000), pricing.ResolveUnitPrice(p, baseSelection(), nil, 12800))
}

func TestResolveUnitPriceScalesByFactor(t *testing.T) {
	t.Parallel()

	p := catalog.Product{SalePrice: 10000}
	sel := uom.Selection{Unit: catalog.Unit{ID: "unit-box", Symbol: "box"}, Factor: 12}
	require.Equal(t, int64(120000), pricing.ResolveUnitPrice(p, sel, nil, 0))
}

func TestResolveUnitPriceOverrideWinsVerbatim(t *testing.T) {
	t.Parallel()

	override := int64(115000)
	p := catalog.Product{SalePrice: 10000}
	sel := uom.Selection{Unit: catalog.Unit{ID: "unit-box"}, Factor: 12, OverridePrice: &override}
	// Override is already per selling unit; factor must not apply twice.
	require.Equal(t, int64(115000), pricing.ResolveUnitPrice(p, sel, nil, 0))
}

func TestResolveUnitPriceVIPLocalBeatsOverride(t *testing.T) {
	t.Parallel()

	vipLocal := int64(9000)
	override := int64(115000)
	p := catalog.Product{SalePrice: 10000, VIPPrice: &vipLocal}
	sel := uom.Selection{Unit: catalog.Unit{ID: "unit-box"}, Factor: 12, OverridePrice: &override}
	require.Equal(t, int64(108000), pricing.ResolveUnitPrice(p, sel, vip(), 0))
}

func TestResolveUnitPriceVIPUSDBeatsVIPLocal(t *testing.T) {
	t.Parallel()

	vipLocal := int64(9000)
	vipUSD := 0.65
	p := catalog.Product{SalePrice: 10000, VIPPrice: &vipLocal, VIPPriceUSD: &vipUSD}
	require.Equal(t, int64(8320), pricing.ResolveUnitPrice(p, baseSelection(), vip(), 12800))
}

func TestResolveUnitPriceVIPIgnoredForRegularCustomer(t *testing.T) {
	t.Parallel()

	vipLocal := int64(9000)
	p := catalog.Product{SalePrice: 10000, VIPPrice: &vipLocal}
	regular := &customer.Customer{ID: "cust-2", Type: customer.TypeRegular}
	require.Equal(t, int64(10000), pricing.ResolveUnitPrice(p, baseSelection(), regular, 0))
}

func TestResolveUnitPriceVIPUSDWithoutRateFallsBackToLocal(t *testing.T) {
	t.Parallel()

	vipLocal := int64(9000)
	vipUSD := 0.65
	p := catalog.Product{SalePrice: 10000, VIPPrice: &vipLocal, VIPPriceUSD: &vipUSD}
	require.Equal(t, int64(9000), pricing.ResolveUnitPrice(p, baseSelection(), vip(), 0))
}

func TestResolveCostPrice(t *testing.T) {
	t.Parallel()

	usd := 0.5
	require.Equal(t, int64(7000), pricing.ResolveCostPrice(catalog.Product{CostPrice: 7000}, 12800))
	require.Equal(t, int64(6400), pricing.ResolveCostPrice(catalog.Product{CostPrice: 7000, CostPriceUSD: &usd}, 12800))
	require.Equal(t, int64(7000), pricing.ResolveCostPrice(catalog.Product{CostPrice: 7000, CostPriceUSD: &usd}, 0))
}
