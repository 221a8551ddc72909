// handlers/auth.go
package handlers

import (
    "encoding/json"
    "errors"
    "log"
    "net/http"
    "strings"

    "pem-store-api/models"
    "pem-store-api/services/auth"
    "pem-store-api/services/cart"
    "pem-store-api/utils"
)

type AuthHandler struct {
    jwtService  *auth.JWTService
    cartService *cart.Service
    cartHandler *CartHandler
}

func NewAuthHandler(jwtService *auth.JWTService, cartService *cart.Service, cartHandler *CartHandler) *AuthHandler {
    return &AuthHandler{
        jwtService:  jwtService,
        cartService: cartService,
        cartHandler: cartHandler,
    }
}

// Register maneja POST /api/auth/registro/.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
    var req models.RegisterRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.SendErrorResponse(w, http.StatusBadRequest, "JSON inválido")
        return
    }

    req.Email = strings.TrimSpace(strings.ToLower(req.Email))
    if req.Email == "" || req.Password == "" {
        utils.SendErrorResponse(w, http.StatusBadRequest, "email y password son requeridos")
        return
    }
    if len(req.Password) < 8 {
        utils.SendErrorResponse(w, http.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres")
        return
    }

    customer, err := h.jwtService.Register(r.Context(), req)
    if err != nil {
        if errors.Is(err, auth.ErrEmailTaken) {
            utils.SendErrorResponse(w, http.StatusConflict, "El email ya está registrado")
            return
        }
        log.Printf("Error registering customer: %v", err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    log.Printf("Customer registered: %s", customer.Email)
    utils.SendSuccessResponse(w, models.APIResponse{
        Status:  "success",
        Message: "Cuenta creada exitosamente",
        Data:    customer,
    })
}

// Login maneja POST /api/auth/login/. Si la sesión trae un carrito anónimo,
// se migra al carrito del cliente autenticado.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
    var req models.AuthRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.SendErrorResponse(w, http.StatusBadRequest, "JSON inválido")
        return
    }

    req.Email = strings.TrimSpace(strings.ToLower(req.Email))
    if req.Email == "" || req.Password == "" {
        utils.SendErrorResponse(w, http.StatusBadRequest, "email y password son requeridos")
        return
    }

    resp, err := h.jwtService.Authenticate(r.Context(), req.Email, req.Password)
    if err != nil {
        if errors.Is(err, auth.ErrInvalidCredentials) {
            utils.SendErrorResponse(w, http.StatusUnauthorized, "Credenciales inválidas")
            return
        }
        log.Printf("Error authenticating %s: %v", req.Email, err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    if anonCartID, ok := h.cartHandler.SessionCartID(r); ok {
        merge, _, err := h.cartService.Merge(r.Context(), anonCartID, resp.User.CustomerID)
        if err != nil {
            // La migración no bloquea el login: el carrito anónimo queda como está.
            log.Printf("Error merging cart %d for customer %d: %v",
                anonCartID, resp.User.CustomerID, err)
        } else {
            resp.CartMerge = &merge
            h.cartHandler.ClearSessionCart(w, r)
        }
    }

    utils.SendSuccessResponse(w, models.APIResponse{
        Status: "success",
        Data:   resp,
    })
}

// RefreshToken maneja POST /api/auth/refresh/.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
    var req models.RefreshTokenRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.SendErrorResponse(w, http.StatusBadRequest, "JSON inválido")
        return
    }
    if req.RefreshToken == "" {
        utils.SendErrorResponse(w, http.StatusBadRequest, "refresh_token es requerido")
        return
    }

    resp, err := h.jwtService.RefreshTokens(req.RefreshToken)
    if err != nil {
        if errors.Is(err, auth.ErrTokenExpired) {
            utils.SendErrorResponse(w, http.StatusUnauthorized, "El token ha expirado")
            return
        }
        utils.SendErrorResponse(w, http.StatusUnauthorized, "Token inválido")
        return
    }

    utils.SendSuccessResponse(w, models.APIResponse{
        Status: "success",
        Data:   resp,
    })
}
