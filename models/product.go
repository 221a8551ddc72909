package models

import (
    "github.com/shopspring/decimal"
)

// Gender values accepted by the catalog filter.
const (
    GenderDog   = "perro"
    GenderCat   = "gato"
    GenderBoth  = "ambos"
    GenderOther = "otro"
)

type Product struct {
    ID          int64           `json:"id" db:"id"`
    Name        string          `json:"nombre" db:"name"`
    Description string          `json:"descripcion" db:"description"`
    BrandID     int64           `json:"marca_id" db:"brand_id"`
    BrandName   string          `json:"marca" db:"brand_name"`
    CategoryID  int64           `json:"categoria_id" db:"category_id"`
    Category    string          `json:"categoria" db:"category_name"`
    Price       decimal.Decimal `json:"precio" db:"price"`
    OfferPrice  *decimal.Decimal `json:"precio_oferta" db:"offer_price"`
    Gender      string          `json:"genero" db:"gender"`
    Color       string          `json:"color" db:"color"`
    Material    string          `json:"material" db:"material"`
    Stock       int             `json:"stock" db:"stock"`
    IsAvailable bool            `json:"esta_disponible" db:"is_available"`
    IsFeatured  bool            `json:"es_destacado" db:"is_featured"`
    Image       *string         `json:"imagen" db:"image"`
}

// CurrentPrice returns the offer price when it undercuts the regular price.
func (p *Product) CurrentPrice() decimal.Decimal {
    if p.HasOffer() {
        return *p.OfferPrice
    }
    return p.Price
}

func (p *Product) HasOffer() bool {
    return p.OfferPrice != nil && p.OfferPrice.LessThan(p.Price)
}

// DiscountPercent returns the offer discount rounded to two decimals, 0 without an offer.
func (p *Product) DiscountPercent() decimal.Decimal {
    if !p.HasOffer() {
        return decimal.Zero
    }
    hundred := decimal.NewFromInt(100)
    return p.Price.Sub(*p.OfferPrice).Div(p.Price).Mul(hundred).Round(2)
}

// IsSoldOut reports whether the product cannot be added to a cart.
func (p *Product) IsSoldOut() bool {
    return p.Stock == 0 || !p.IsAvailable
}

type Brand struct {
    ID    int64   `json:"id" db:"id"`
    Name  string  `json:"nombre" db:"name"`
    Image *string `json:"imagen" db:"image"`
}

type Category struct {
    ID          int64   `json:"id" db:"id"`
    Name        string  `json:"nombre" db:"name"`
    Description string  `json:"descripcion" db:"description"`
    Image       *string `json:"imagen" db:"image"`
}

// ProductFilter carries the /api/productos/ query parameters.
type ProductFilter struct {
    Query      string
    BrandID    int64
    CategoryID int64
    Gender     string
}
