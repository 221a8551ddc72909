// handlers/cart.go
package handlers

import (
    "encoding/json"
    "errors"
    "log"
    "net/http"
    "strconv"

    "github.com/gorilla/mux"
    "github.com/gorilla/sessions"

    "pem-store-api/config"
    "pem-store-api/middleware"
    "pem-store-api/models"
    "pem-store-api/services/cart"
    "pem-store-api/utils"
)

const cartSessionName = "carrito-session"
const cartSessionKey = "carrito_id"

type CartHandler struct {
    service *cart.Service
    store   *sessions.CookieStore
}

func NewCartHandler(service *cart.Service, cfg *config.Config) *CartHandler {
    store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
    store.Options = &sessions.Options{
        Path:     "/",
        Domain:   cfg.Session.Domain,
        MaxAge:   cfg.Session.MaxAge,
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
    }
    return &CartHandler{service: service, store: store}
}

// currentCart resolves the cart for the request: the authenticated customer's
// cart when a token is present, otherwise the anonymous cart referenced by the
// session cookie. A cart is created on first use and its id written back to
// the session.
func (h *CartHandler) currentCart(w http.ResponseWriter, r *http.Request) (int64, error) {
    if user := middleware.GetUserFromContext(r.Context()); user != nil {
        c, err := h.service.GetOrCreateCart(r.Context(), &user.CustomerID)
        if err != nil {
            return 0, err
        }
        return c.ID, nil
    }

    session, err := h.store.Get(r, cartSessionName)
    if err != nil {
        // Cookie firmado con otra clave: se descarta y se crea sesión nueva.
        log.Printf("Error decoding cart session, starting fresh: %v", err)
        session, _ = h.store.New(r, cartSessionName)
    }

    if raw, ok := session.Values[cartSessionKey]; ok {
        if cartID, ok := raw.(int64); ok {
            if _, err := h.service.Detail(r.Context(), cartID); err == nil {
                return cartID, nil
            }
            // El carrito fue borrado (p.ej. migrado al iniciar sesión).
        }
    }

    c, err := h.service.GetOrCreateCart(r.Context(), nil)
    if err != nil {
        return 0, err
    }

    session.Values[cartSessionKey] = c.ID
    if err := session.Save(r, w); err != nil {
        log.Printf("Error saving cart session: %v", err)
    }
    return c.ID, nil
}

// SessionCartID exposes the anonymous cart id stored in the session, if any.
// The auth handler uses it to merge the anonymous cart at login.
func (h *CartHandler) SessionCartID(r *http.Request) (int64, bool) {
    session, err := h.store.Get(r, cartSessionName)
    if err != nil {
        return 0, false
    }
    raw, ok := session.Values[cartSessionKey]
    if !ok {
        return 0, false
    }
    cartID, ok := raw.(int64)
    return cartID, ok
}

// ClearSessionCart removes the cart reference from the session cookie after a
// successful merge so the next anonymous request starts a fresh cart.
func (h *CartHandler) ClearSessionCart(w http.ResponseWriter, r *http.Request) {
    session, err := h.store.Get(r, cartSessionName)
    if err != nil {
        return
    }
    delete(session.Values, cartSessionKey)
    if err := session.Save(r, w); err != nil {
        log.Printf("Error clearing cart session: %v", err)
    }
}

// GetCart responde GET /api/carrito/ con el detalle completo del carrito.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
    cartID, err := h.currentCart(w, r)
    if err != nil {
        log.Printf("Error resolving cart: %v", err)
        utils.SendCartError(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    detail, err := h.service.Detail(r.Context(), cartID)
    if err != nil {
        h.sendCartServiceError(w, err)
        return
    }

    utils.SendCartResponse(w, models.CartAPIResponse{
        Success: true,
        Cart:    &detail,
    })
}

// AddToCart maneja POST /api/carrito/agregar/.
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
    var req models.AddToCartRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.SendCartError(w, http.StatusBadRequest, "JSON inválido")
        return
    }

    if req.ProductID == 0 {
        utils.SendCartError(w, http.StatusBadRequest, "producto_id es requerido")
        return
    }

    quantity := 1
    if req.Quantity != nil {
        quantity = *req.Quantity
    }

    cartID, err := h.currentCart(w, r)
    if err != nil {
        log.Printf("Error resolving cart: %v", err)
        utils.SendCartError(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    item, message, err := h.service.AddProduct(r.Context(), cartID, req.ProductID, quantity)
    if err != nil {
        h.sendCartServiceError(w, err)
        return
    }

    detail, err := h.service.Detail(r.Context(), cartID)
    if err != nil {
        h.sendCartServiceError(w, err)
        return
    }

    utils.SendCartResponse(w, models.CartAPIResponse{
        Success: true,
        Message: message,
        Item:    &item,
        Cart:    &detail,
    })
}

// UpdateQuantity maneja PUT /api/carrito/modificar/.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
    var req models.UpdateQuantityRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.SendCartError(w, http.StatusBadRequest, "JSON inválido")
        return
    }

    if req.ProductID == 0 {
        utils.SendCartError(w, http.StatusBadRequest, "producto_id es requerido")
        return
    }
    if req.Quantity == nil {
        utils.SendCartError(w, http.StatusBadRequest, "cantidad es requerida")
        return
    }

    cartID, err := h.currentCart(w, r)
    if err != nil {
        log.Printf("Error resolving cart: %v", err)
        utils.SendCartError(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    item, message, err := h.service.UpdateQuantity(r.Context(), cartID, req.ProductID, *req.Quantity)
    if err != nil {
        h.sendCartServiceError(w, err)
        return
    }

    detail, err := h.service.Detail(r.Context(), cartID)
    if err != nil {
        h.sendCartServiceError(w, err)
        return
    }

    utils.SendCartResponse(w, models.CartAPIResponse{
        Success: true,
        Message: message,
        Item:    &item,
        Cart:    &detail,
    })
}

// RemoveFromCart maneja DELETE /api/carrito/eliminar/{id}/.
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
    vars := mux.Vars(r)
    productID, err := strconv.ParseInt(vars["id"], 10, 64)
    if err != nil || productID <= 0 {
        utils.SendCartError(w, http.StatusBadRequest, "producto_id es requerido")
        return
    }

    cartID, err := h.currentCart(w, r)
    if err != nil {
        log.Printf("Error resolving cart: %v", err)
        utils.SendCartError(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    message, err := h.service.RemoveProduct(r.Context(), cartID, productID)
    if err != nil {
        h.sendCartServiceError(w, err)
        return
    }

    detail, err := h.service.Detail(r.Context(), cartID)
    if err != nil {
        h.sendCartServiceError(w, err)
        return
    }

    utils.SendCartResponse(w, models.CartAPIResponse{
        Success: true,
        Message: message,
        Cart:    &detail,
    })
}

// ClearCart maneja DELETE /api/carrito/vaciar/.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
    cartID, err := h.currentCart(w, r)
    if err != nil {
        log.Printf("Error resolving cart: %v", err)
        utils.SendCartError(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    removed, message, err := h.service.Clear(r.Context(), cartID)
    if err != nil {
        h.sendCartServiceError(w, err)
        return
    }

    detail, err := h.service.Detail(r.Context(), cartID)
    if err != nil {
        h.sendCartServiceError(w, err)
        return
    }

    utils.SendCartResponse(w, models.CartAPIResponse{
        Success: true,
        Message: message,
        Removed: removed,
        Cart:    &detail,
    })
}

// sendCartServiceError maps a service error to the cart error envelope.
func (h *CartHandler) sendCartServiceError(w http.ResponseWriter, err error) {
    var notFound *cart.NotFoundError
    var notAvailable *cart.NotAvailableError
    var noStock *cart.InsufficientStockError

    switch {
    case errors.Is(err, cart.ErrInvalidQuantity):
        utils.SendCartError(w, http.StatusBadRequest, err.Error())
    case errors.Is(err, cart.ErrItemNotInCart):
        utils.SendCartError(w, http.StatusNotFound, err.Error())
    case errors.As(err, &notFound):
        utils.SendCartError(w, http.StatusNotFound, err.Error())
    case errors.As(err, &notAvailable), errors.As(err, &noStock):
        utils.SendCartError(w, http.StatusBadRequest, err.Error())
    default:
        log.Printf("Cart service error: %v", err)
        utils.SendCartError(w, http.StatusInternalServerError, "Error interno del servidor")
    }
}
