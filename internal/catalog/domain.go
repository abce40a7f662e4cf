// Package catalog models storefront products and reads them from the backend.
package catalog

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/binaragam/storefront/internal/shared"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Discount is an optional percentage reduction.
type Discount struct {
	Active     bool    `json:"active"`
	Percentage float64 `json:"percentage"`
}

// Product is a catalog entry owned by the backend.
type Product struct {
	ID              shared.ID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Price           float64   `json:"price"`
	ImageURL        string    `json:"image_url"`
	MarketplaceLink string    `json:"marketplace_link"`
	Discount        *Discount `json:"discount,omitempty"`
}

// HasDiscount reports whether an active discount applies.
func (p Product) HasDiscount() bool {
	return p.Discount != nil && p.Discount.Active
}

// EffectivePrice is the price after an active discount, never below zero.
// Rounding is left to FormatRupiah.
func (p Product) EffectivePrice() float64 {
	if !p.HasDiscount() {
		return math.Max(p.Price, 0)
	}
	factor := one.Sub(decimal.NewFromFloat(p.Discount.Percentage).Div(hundred))
	price := decimal.NewFromFloat(p.Price).Mul(factor)
	if price.IsNegative() {
		return 0
	}
	return price.InexactFloat64()
}

// MarketplaceURL returns the purchase redirect, or "#" when unset.
func (p Product) MarketplaceURL() string {
	if p.MarketplaceLink == "" {
		return "#"
	}
	return p.MarketplaceLink
}
