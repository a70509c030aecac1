package cart

import (
	"time"

	"github.com/noah-isme/backend-kasir/internal/customer"
)

// Snapshot is the wire shape of a cart: the stored state plus the derived
// totals the UI renders. It doubles as the park/resume serialization format.
type Snapshot struct {
	ID             string             `json:"id"`
	Customer       *customer.Customer `json:"customer,omitempty"`
	Lines          []*Line            `json:"lines"`
	DiscountAmount int64              `json:"discountAmount"`
	EditingSaleID  string             `json:"editingSaleId,omitempty"`
	Subtotal       int64              `json:"subtotal"`
	FinalTotal     int64              `json:"finalTotal"`
	TotalCost      int64              `json:"totalCost"`
	Profit         int64              `json:"profit"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// Snapshot captures the cart's current state and derived totals.
func (c *Cart) Snapshot() Snapshot {
	lines := make([]*Line, len(c.Lines))
	for i, l := range c.Lines {
		cp := *l
		lines[i] = &cp
	}
	return Snapshot{
		ID:             c.ID,
		Customer:       c.Customer,
		Lines:          lines,
		DiscountAmount: c.DiscountAmount,
		EditingSaleID:  c.EditingSaleID,
		Subtotal:       c.Subtotal(),
		FinalTotal:     c.FinalTotal(),
		TotalCost:      c.TotalCost(),
		Profit:         c.Profit(),
		CreatedAt:      c.CreatedAt,
	}
}

// FromSnapshot rebuilds a cart from its serialized form. Derived fields in
// the snapshot are ignored; totals are always recomputed from the lines.
func FromSnapshot(s Snapshot) *Cart {
	c := &Cart{
		ID:             s.ID,
		Customer:       s.Customer,
		Lines:          s.Lines,
		DiscountAmount: s.DiscountAmount,
		EditingSaleID:  s.EditingSaleID,
		CreatedAt:      s.CreatedAt,
	}
	if c.ID == "" {
		c.ID = New().ID
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.clampDiscount()
	return c
}
