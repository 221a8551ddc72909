package utils

import (
    "github.com/shopspring/decimal"
)

// Round normaliza importes a dos decimales.
func Round(value decimal.Decimal) decimal.Decimal {
    return value.Round(2)
}

// LineTotal computes quantity × unit price at two decimals.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
    return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// OrderTotal applies subtotal + tax + shipping - discount.
func OrderTotal(subtotal, tax, shipping, discount decimal.Decimal) decimal.Decimal {
    return Round(subtotal.Add(tax).Add(shipping).Sub(discount))
}

// DiscountPercent returns how far offer undercuts price, as a percentage with
// two decimals. Zero when there is no real discount.
func DiscountPercent(price, offer decimal.Decimal) decimal.Decimal {
    if price.IsZero() || !offer.LessThan(price) {
        return decimal.Zero
    }
    hundred := decimal.NewFromInt(100)
    return price.Sub(offer).Div(price).Mul(hundred).Round(2)
}
