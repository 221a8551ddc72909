package models

import "time"

// AuthRequest representa una petición de login (email en lugar de username).
type AuthRequest struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type RefreshTokenRequest struct {
    RefreshToken string `json:"refresh_token"`
}

// AuthUser representa un cliente autenticado dentro del contexto de la petición.
type AuthUser struct {
    CustomerID int64  `json:"cliente_id"`
    Email      string `json:"email"`
    FirstName  string `json:"nombre"`
    IsAdmin    bool   `json:"es_admin"`
}

// AuthResponse es la respuesta de autenticación con los tokens emitidos.
type AuthResponse struct {
    Token        string           `json:"token"`
    RefreshToken string           `json:"refresh_token"`
    ExpiresAt    time.Time        `json:"expires_at"`
    User         AuthUser         `json:"user"`
    CartMerge    *CartMergeResult `json:"carrito,omitempty"`
}
