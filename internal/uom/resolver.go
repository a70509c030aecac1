// Package uom resolves a product's selling unit to its identity, its factor
// relative to the base unit, and an optional per-unit price override.
package uom

import (
	"errors"
	"fmt"

	"github.com/noah-isme/backend-kasir/internal/catalog"
)

// ErrUnknownUnit is returned when the requested unit is neither the product's
// base unit nor one of its conversions.
var ErrUnknownUnit = errors.New("uom: unit not sold for product")

// ErrInvalidFactor is returned when a conversion carries a non-positive
// factor. Catalog data like that would corrupt every derived amount, so the
// line is rejected instead of priced.
var ErrInvalidFactor = errors.New("uom: conversion factor must be positive")

// Selection is the resolved unit for one cart line.
type Selection struct {
	Unit   catalog.Unit
	Factor float64
	// OverridePrice is the conversion's own sale price in ledger currency,
	// already per selling unit. When set it wins over factor-derived pricing.
	OverridePrice *int64
}

// IsBase reports whether the selection is the product's base unit.
func (s Selection) IsBase() bool {
	return s.Factor == 1 && s.OverridePrice == nil
}

// Resolve maps unitID onto the product's base unit or one of its conversions.
// An empty unitID selects the base unit.
func Resolve(p catalog.Product, unitID string) (Selection, error) {
	if unitID == "" || unitID == p.BaseUnit.ID {
		return Selection{Unit: p.BaseUnit, Factor: 1}, nil
	}
	conv, ok := p.Conversion(unitID)
	if !ok {
		return Selection{}, fmt.Errorf("%w: product %s unit %s", ErrUnknownUnit, p.ID, unitID)
	}
	if conv.Factor <= 0 {
		return Selection{}, fmt.Errorf("%w: product %s unit %s factor %v", ErrInvalidFactor, p.ID, unitID, conv.Factor)
	}
	return Selection{Unit: conv.Unit, Factor: conv.Factor, OverridePrice: conv.SalePrice}, nil
}
