// Package checkout drives a cart through payment selection, validation, and
// submission to the sales service.
package checkout

import (
	"errors"
	"fmt"

	"github.com/noah-isme/backend-kasir/internal/sales"
)

// State is a step in the settlement lifecycle. A settlement only ever moves
// forward; a failed submission returns the session to Idle with the cart
// intact so the cashier can retry.
type State string

const (
	StateIdle            State = "IDLE"
	StatePaymentSelected State = "PAYMENT_SELECTED"
	StateValidating      State = "VALIDATING"
	StateSubmitting      State = "SUBMITTING"
	StateCommitted       State = "COMMITTED"
	StateFailed          State = "FAILED"
)

// Currency is the tender currency. Sales are always recorded in the ledger
// currency; USD tender converts at the current exchange rate.
type Currency string

const (
	CurrencyLocal Currency = "LOCAL"
	CurrencyUSD   Currency = "USD"
)

var (
	ErrInvalidTransition  = errors.New("checkout: invalid settlement transition")
	ErrInvalidPayment     = errors.New("checkout: unknown payment type")
	ErrInvalidCurrency    = errors.New("checkout: unknown tender currency")
	ErrCustomerRequired   = errors.New("checkout: debt sales require a customer")
	ErrEditReasonTooShort = errors.New("checkout: edit reason must be at least 3 characters")
	ErrInsufficientTender = errors.New("checkout: tendered amount does not cover the total")
)

var transitions = map[State][]State{
	StateIdle:            {StatePaymentSelected},
	StatePaymentSelected: {StateValidating, StateIdle},
	StateValidating:      {StateSubmitting, StateFailed},
	StateSubmitting:      {StateCommitted, StateFailed},
}

// Settlement tracks one settlement attempt's progress.
type Settlement struct {
	state State
}

// NewSettlement starts in Idle.
func NewSettlement() *Settlement {
	return &Settlement{state: StateIdle}
}

// State returns the current state.
func (s *Settlement) State() State {
	return s.state
}

// To advances the settlement, rejecting transitions the lifecycle does not
// allow.
func (s *Settlement) To(next State) error {
	for _, allowed := range transitions[s.state] {
		if allowed == next {
			s.state = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
}

// ValidPaymentType reports whether t is a payment type the register accepts.
func ValidPaymentType(t sales.PaymentType) bool {
	switch t {
	case sales.PaymentCash, sales.PaymentCard, sales.PaymentTransfer, sales.PaymentDebt:
		return true
	}
	return false
}

// ValidCurrency reports whether c is a tender currency the register accepts.
func ValidCurrency(c Currency) bool {
	return c == CurrencyLocal || c == CurrencyUSD
}
