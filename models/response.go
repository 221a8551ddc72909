package models

// APIResponse is the generic envelope for auth/admin endpoints.
type APIResponse struct {
    Status  string      `json:"status"`
    Message string      `json:"message"`
    Data    interface{} `json:"data,omitempty"`
}

// CartAPIResponse is the fixed envelope of the /api/carrito/ endpoints. The
// front-end script renders Mensaje verbatim, so it stays user-facing Spanish.
type CartAPIResponse struct {
    Success bool            `json:"success"`
    Message string          `json:"mensaje,omitempty"`
    Item    *CartItemDetail `json:"item,omitempty"`
    Cart    *CartDetail     `json:"carrito,omitempty"`
    Removed int             `json:"items_eliminados,omitempty"`
}

// CartAPIError mirrors the original error body: {"error":true,"mensaje":...}.
type CartAPIError struct {
    Error   bool   `json:"error"`
    Message string `json:"mensaje"`
}

// ProductListResponse is the /api/productos/ payload.
type ProductListResponse struct {
    Count   int       `json:"count"`
    Results []Product `json:"results"`
}
