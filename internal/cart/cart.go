// Package cart holds the in-progress sale for one register session: its
// lines, the attached customer, and the cart-level discount. All monetary
// amounts are minor units of the ledger currency; totals are derived on read
// and never stored.
package cart

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/customer"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/uom"
)

var (
	ErrLineNotFound    = errors.New("cart: line not found")
	ErrInvalidQuantity = errors.New("cart: quantity must be positive")
	ErrInvalidPrice    = errors.New("cart: unit price must not be negative")
	ErrInvalidDiscount = errors.New("cart: discount must be between zero and the subtotal")
	ErrEmptyCart       = errors.New("cart: cart is empty")
)

// Breakdown records a bulk entry split into pieces of a given size, e.g.
// 3 sacks of 25 kg entered as quantity 75. The register keeps it for the
// receipt; it never affects pricing.
type Breakdown struct {
	Pieces    float64 `json:"pieces"`
	PieceSize float64 `json:"pieceSize"`
}

// Line is one cart position. Product is the catalog snapshot taken at add
// time so unit changes re-resolve against the prices the cashier saw, not
// whatever the catalog says later.
type Line struct {
	ID            string          `json:"id"`
	Product       catalog.Product `json:"product"`
	Unit          catalog.Unit    `json:"unit"`
	Factor        float64         `json:"factor"`
	Quantity      float64         `json:"quantity"`
	UnitPrice     int64           `json:"unitPrice"`
	OriginalPrice int64           `json:"originalPrice"`
	CostPerBase   int64           `json:"costPerBase"`
	Breakdown     *Breakdown      `json:"breakdown,omitempty"`
}

// Subtotal is the line amount after any manual price edit.
func (l *Line) Subtotal() int64 {
	return pricing.RoundMul(l.UnitPrice, l.Quantity)
}

// Cost is what the sold quantity cost, in base units.
func (l *Line) Cost() int64 {
	return pricing.RoundMul(l.CostPerBase, l.Factor*l.Quantity)
}

// EditDiscount is the amount given away (or recovered, when negative) by a
// manual price edit on this line.
func (l *Line) EditDiscount() int64 {
	return pricing.RoundMul(l.OriginalPrice-l.UnitPrice, l.Quantity)
}

// Cart is the aggregate for one in-progress sale. It is not safe for
// concurrent use; the owning session serializes access.
type Cart struct {
	ID             string             `json:"id"`
	Customer       *customer.Customer `json:"customer,omitempty"`
	Lines          []*Line            `json:"lines"`
	DiscountAmount int64              `json:"discountAmount"`
	// EditingSaleID is set when the cart re-opens a committed sale.
	EditingSaleID string    `json:"editingSaleId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{ID: uuid.NewString(), CreatedAt: time.Now()}
}

// AddItem adds quantity of the product in the resolved unit. A line for the
// same product and unit already in the cart absorbs the quantity and keeps
// its price, including any manual edit. The effective price is resolved once,
// at add time; attaching a customer later does not reprice existing lines.
func (c *Cart) AddItem(p catalog.Product, sel uom.Selection, quantity float64, rate float64, breakdown *Breakdown) (*Line, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	for _, l := range c.Lines {
		if l.Product.ID == p.ID && l.Unit.ID == sel.Unit.ID {
			l.Quantity += quantity
			if breakdown != nil {
				l.Breakdown = breakdown
			}
			c.clampDiscount()
			return l, nil
		}
	}
	price := pricing.ResolveUnitPrice(p, sel, c.Customer, rate)
	line := &Line{
		ID:            uuid.NewString(),
		Product:       p,
		Unit:          sel.Unit,
		Factor:        sel.Factor,
		Quantity:      quantity,
		UnitPrice:     price,
		OriginalPrice: price,
		CostPerBase:   pricing.ResolveCostPrice(p, rate),
		Breakdown:     breakdown,
	}
	c.Lines = append(c.Lines, line)
	return line, nil
}

// RemoveItem deletes a line.
func (c *Cart) RemoveItem(lineID string) error {
	for i, l := range c.Lines {
		if l.ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.clampDiscount()
			return nil
		}
	}
	return ErrLineNotFound
}

// SetQuantity replaces a line's quantity. Zero is not a valid stored
// quantity; the register removes the line instead.
func (c *Cart) SetQuantity(lineID string, quantity float64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	l := c.line(lineID)
	if l == nil {
		return ErrLineNotFound
	}
	l.Quantity = quantity
	c.clampDiscount()
	return nil
}

// SetUnitPrice applies a manual price edit. The original resolved price is
// kept so the edit shows up as a per-line discount at settlement.
func (c *Cart) SetUnitPrice(lineID string, price int64) error {
	if price < 0 {
		return ErrInvalidPrice
	}
	l := c.line(lineID)
	if l == nil {
		return ErrLineNotFound
	}
	l.UnitPrice = price
	c.clampDiscount()
	return nil
}

// ChangeUnit moves a line to another selling unit. Both the unit price and
// the original price reset to the newly resolved price; a manual edit made
// for the old unit means nothing for the new one. When another line already
// holds the product in the target unit the quantities merge into it.
func (c *Cart) ChangeUnit(lineID string, sel uom.Selection, rate float64) (*Line, error) {
	l := c.line(lineID)
	if l == nil {
		return nil, ErrLineNotFound
	}
	for _, other := range c.Lines {
		if other.ID != lineID && other.Product.ID == l.Product.ID && other.Unit.ID == sel.Unit.ID {
			other.Quantity += l.Quantity
			_ = c.RemoveItem(lineID)
			c.clampDiscount()
			return other, nil
		}
	}
	price := pricing.ResolveUnitPrice(l.Product, sel, c.Customer, rate)
	l.Unit = sel.Unit
	l.Factor = sel.Factor
	l.UnitPrice = price
	l.OriginalPrice = price
	c.clampDiscount()
	return l, nil
}

// SetCustomer attaches or, with nil, detaches the customer. Prices already in
// the cart stay as resolved at add time.
func (c *Cart) SetCustomer(cust *customer.Customer) {
	c.Customer = cust
}

// ApplyDiscountAmount sets the cart-level discount directly.
func (c *Cart) ApplyDiscountAmount(amount int64) error {
	if amount < 0 || amount > c.Subtotal() {
		return ErrInvalidDiscount
	}
	c.DiscountAmount = amount
	return nil
}

// ApplyFinalTotal sets the discount by entering the total the customer should
// pay; the discount becomes the difference to the subtotal. A free sale must
// be entered as a discount amount, not a zero total.
func (c *Cart) ApplyFinalTotal(total int64) error {
	subtotal := c.Subtotal()
	if total <= 0 || total > subtotal {
		return ErrInvalidDiscount
	}
	c.DiscountAmount = subtotal - total
	return nil
}

// Clear empties the cart and detaches the customer.
func (c *Cart) Clear() {
	c.Lines = nil
	c.Customer = nil
	c.DiscountAmount = 0
	c.EditingSaleID = ""
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Subtotal is the sum of line subtotals, before the cart discount.
func (c *Cart) Subtotal() int64 {
	var sum int64
	for _, l := range c.Lines {
		sum += l.Subtotal()
	}
	return sum
}

// TotalCost is the cost of everything in the cart.
func (c *Cart) TotalCost() int64 {
	var sum int64
	for _, l := range c.Lines {
		sum += l.Cost()
	}
	return sum
}

// FinalTotal is what the customer pays.
func (c *Cart) FinalTotal() int64 {
	return c.Subtotal() - c.DiscountAmount
}

// Profit is the margin on the sale after the cart discount.
func (c *Cart) Profit() int64 {
	return c.FinalTotal() - c.TotalCost()
}

func (c *Cart) line(lineID string) *Line {
	for _, l := range c.Lines {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}

// clampDiscount keeps the stored discount valid after line mutations shrink
// the subtotal underneath it.
func (c *Cart) clampDiscount() {
	if subtotal := c.Subtotal(); c.DiscountAmount > subtotal {
		c.DiscountAmount = subtotal
	}
}
