package models

import (
    "github.com/shopspring/decimal"
)

// Cart representa un carrito persistido. Los carritos anónimos no tienen cliente.
type Cart struct {
    ID         int64  `json:"id" db:"id"`
    CustomerID *int64 `json:"cliente_id" db:"customer_id"`
}

type CartItem struct {
    ID        int64 `json:"item_id" db:"id"`
    CartID    int64 `json:"-" db:"cart_id"`
    ProductID int64 `json:"producto_id" db:"product_id"`
    Quantity  int   `json:"cantidad" db:"quantity"`
}

// ProductSnapshot is the slice of product state the cart API embeds in each item.
type ProductSnapshot struct {
    ID        int64           `json:"id"`
    Name      string          `json:"nombre"`
    Brand     string          `json:"marca,omitempty"`
    UnitPrice decimal.Decimal `json:"precio_unitario"`
    HasOffer  bool            `json:"tiene_oferta"`
    Image     *string         `json:"imagen"`
}

type CartItemDetail struct {
    ItemID   int64           `json:"item_id"`
    Product  ProductSnapshot `json:"producto"`
    Quantity int             `json:"cantidad"`
    Subtotal decimal.Decimal `json:"subtotal"`
}

// CartDetail is the full cart state every cart endpoint returns after mutating.
type CartDetail struct {
    CartID     int64            `json:"carrito_id"`
    Items      []CartItemDetail `json:"items"`
    TotalItems int              `json:"total_items"`
    Subtotal   decimal.Decimal  `json:"subtotal"`
    IsEmpty    bool             `json:"esta_vacio"`
}

// CartMergeResult resume la migración de un carrito anónimo al iniciar sesión.
type CartMergeResult struct {
    CartID        int64 `json:"carrito_id"`
    ItemsMigrated int   `json:"items_migrados"`
    ItemsCombined int   `json:"items_combinados"`
}

type AddToCartRequest struct {
    ProductID int64 `json:"producto_id"`
    Quantity  *int  `json:"cantidad"`
}

type UpdateQuantityRequest struct {
    ProductID int64 `json:"producto_id"`
    Quantity  *int  `json:"cantidad"`
}
