package sales

// PaymentType enumerates how a sale is settled. DEBT records the full total
// against the customer's balance with zero tendered.
type PaymentType string

const (
	PaymentCash     PaymentType = "CASH"
	PaymentCard     PaymentType = "CARD"
	PaymentTransfer PaymentType = "TRANSFER"
	PaymentDebt     PaymentType = "DEBT"
)

// LineItem is one settled cart line as reported to the sales service.
// Discount already includes both the manual price-edit delta and the prorated
// share of the cart-level discount.
type LineItem struct {
	ProductID     string   `json:"productId"`
	ProductName   string   `json:"productName"`
	UnitID        string   `json:"unitId"`
	UnitSymbol    string   `json:"unitSymbol"`
	Factor        float64  `json:"factor"`
	Quantity      float64  `json:"quantity"`
	UnitPrice     int64    `json:"unitPrice"`
	OriginalPrice int64    `json:"originalPrice"`
	CostPrice     int64    `json:"costPrice"`
	Discount      int64    `json:"discount"`
	Subtotal      int64    `json:"subtotal"`
	Pieces        *float64 `json:"pieces,omitempty"`
	PieceSize     *float64 `json:"pieceSize,omitempty"`
}

// NewSaleRequest creates a sale. The sales service owns stock decrement, debt
// posting, and change computation.
type NewSaleRequest struct {
	WarehouseID    string      `json:"warehouseId"`
	CustomerID     *string     `json:"customerId,omitempty"`
	PaymentType    PaymentType `json:"paymentType"`
	Subtotal       int64       `json:"subtotal"`
	Discount       int64       `json:"discount"`
	Total          int64       `json:"total"`
	TenderedAmount int64       `json:"tenderedAmount"`
	Items          []LineItem  `json:"items"`
}

// EditSaleRequest replaces a previously committed sale. Reason is mandatory
// and is recorded in the sale's audit trail.
type EditSaleRequest struct {
	Reason         string      `json:"reason"`
	WarehouseID    string      `json:"warehouseId"`
	CustomerID     *string     `json:"customerId,omitempty"`
	PaymentType    PaymentType `json:"paymentType"`
	Subtotal       int64       `json:"subtotal"`
	Discount       int64       `json:"discount"`
	Total          int64       `json:"total"`
	TenderedAmount int64       `json:"tenderedAmount"`
	Items          []LineItem  `json:"items"`
}

// CreateSaleResult is the sales service's answer to a committed sale.
type CreateSaleResult struct {
	SaleID       string `json:"saleId"`
	ChangeAmount int64  `json:"changeAmount"`
}
