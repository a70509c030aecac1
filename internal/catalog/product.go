package catalog

// Unit identifies a unit of measure as the catalog service exposes it.
type Unit struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Conversion defines an alternate unit for a product. One alternate unit
// equals Factor base units. SalePrice, when set, overrides the computed
// base-price-times-factor price for that unit (minor currency units).
type Conversion struct {
	Unit      Unit    `json:"unit"`
	Factor    float64 `json:"factor"`
	SalePrice *int64  `json:"salePrice,omitempty"`
}

// Product is a catalog entry. Monetary fields are minor units of the ledger
// currency; the *USD variants are decimal dollar amounts converted at the
// current exchange rate. Stock is always expressed in the base unit.
type Product struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Barcode      string       `json:"barcode,omitempty"`
	BaseUnit     Unit         `json:"baseUnit"`
	Conversions  []Conversion `json:"conversions,omitempty"`
	SalePrice    int64        `json:"salePrice"`
	SalePriceUSD *float64     `json:"salePriceUsd,omitempty"`
	VIPPrice     *int64       `json:"vipPrice,omitempty"`
	VIPPriceUSD  *float64     `json:"vipPriceUsd,omitempty"`
	CostPrice    int64        `json:"costPrice"`
	CostPriceUSD *float64     `json:"costPriceUsd,omitempty"`
	Stock        float64      `json:"stock"`
	Favorite     bool         `json:"favorite"`
	SortOrder    int          `json:"sortOrder"`
	Color        string       `json:"color,omitempty"`
	CategoryID   string       `json:"categoryId,omitempty"`
}

// Conversion returns the alternate-unit conversion with the given unit id.
func (p Product) Conversion(unitID string) (Conversion, bool) {
	for _, c := range p.Conversions {
		if c.Unit.ID == unitID {
			return c, true
		}
	}
	return Conversion{}, false
}
