// handlers/checkout.go
package handlers

import (
    "context"
    "encoding/json"
    "errors"
    "log"
    "net/http"
    "strings"

    "github.com/shopspring/decimal"

    "pem-store-api/database"
    "pem-store-api/middleware"
    "pem-store-api/models"
    "pem-store-api/queue"
    "pem-store-api/services/cart"
    "pem-store-api/utils"
)

// checkoutTx es la superficie transaccional del checkout; *database.Transaction
// la satisface tal cual.
type checkoutTx interface {
    InsertOrder(order *models.Order) error
    InsertOrderItem(item *models.OrderItem) error
    DecrementStock(productID int64, quantity int) error
    ClearCart(cartID int64) error
    Commit() error
    Rollback() error
}

type checkoutStore interface {
    GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
    GetProductByID(ctx context.Context, id int64) (models.Product, error)
    BeginCheckout() (checkoutTx, error)
}

type jobEnqueuer interface {
    Enqueue(ctx context.Context, jobType queue.JobType, data map[string]interface{}) error
}

// dbCheckoutStore adapta *database.Connection a checkoutStore.
type dbCheckoutStore struct {
    db *database.Connection
}

func (s dbCheckoutStore) GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
    return s.db.GetCartItems(ctx, cartID)
}

func (s dbCheckoutStore) GetProductByID(ctx context.Context, id int64) (models.Product, error) {
    return s.db.GetProductByID(ctx, id)
}

func (s dbCheckoutStore) BeginCheckout() (checkoutTx, error) {
    return s.db.BeginTransaction()
}

type CheckoutHandler struct {
    store       checkoutStore
    cartService *cart.Service
    jobQueue    jobEnqueuer
}

func NewCheckoutHandler(db *database.Connection, cartService *cart.Service, jobQueue *queue.Queue) *CheckoutHandler {
    return &CheckoutHandler{
        store:       dbCheckoutStore{db: db},
        cartService: cartService,
        jobQueue:    jobQueue,
    }
}

// ProcessCheckout maneja POST /api/carrito/procesar-pago/. Convierte el
// carrito del cliente autenticado en un pedido dentro de una transacción:
// revalida stock, congela precios, descuenta inventario y vacía el carrito.
func (h *CheckoutHandler) ProcessCheckout(w http.ResponseWriter, r *http.Request) {
    user := middleware.GetUserFromContext(r.Context())
    if user == nil {
        utils.SendErrorResponse(w, http.StatusUnauthorized, "Autenticación requerida")
        return
    }

    var req models.CheckoutRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.SendErrorResponse(w, http.StatusBadRequest, "JSON inválido")
        return
    }
    req.ShippingAddress = strings.TrimSpace(req.ShippingAddress)
    req.Phone = strings.TrimSpace(req.Phone)
    if req.ShippingAddress == "" {
        utils.SendErrorResponse(w, http.StatusBadRequest, "direccion_envio es requerida")
        return
    }
    if req.Phone == "" {
        utils.SendErrorResponse(w, http.StatusBadRequest, "telefono es requerido")
        return
    }

    customerCart, err := h.cartService.GetOrCreateCart(r.Context(), &user.CustomerID)
    if err != nil {
        log.Printf("Error resolving cart for customer %d: %v", user.CustomerID, err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    items, err := h.store.GetCartItems(r.Context(), customerCart.ID)
    if err != nil {
        log.Printf("Error loading cart items: %v", err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }
    if len(items) == 0 {
        utils.SendErrorResponse(w, http.StatusBadRequest, "El carrito está vacío")
        return
    }

    order, err := h.createOrder(r.Context(), user, customerCart.ID, items, req)
    if err != nil {
        var noStock *cart.InsufficientStockError
        var notAvailable *cart.NotAvailableError
        switch {
        case errors.As(err, &noStock), errors.As(err, &notAvailable):
            utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
        default:
            log.Printf("Error creating order for customer %d: %v", user.CustomerID, err)
            utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        }
        return
    }

    h.enqueueConfirmationEmail(r.Context(), user, order)

    log.Printf("Order %s created for customer %d, total %s",
        order.OrderNumber, user.CustomerID, order.Total.StringFixed(2))

    utils.SendJSON(w, http.StatusCreated, models.APIResponse{
        Status:  "success",
        Message: "Pedido creado exitosamente",
        Data:    order,
    })
}

func (h *CheckoutHandler) createOrder(ctx context.Context, user *models.AuthUser, cartID int64, items []models.CartItem, req models.CheckoutRequest) (*models.Order, error) {
    // Los precios se leen antes de abrir la transacción; el stock se
    // revalida dentro con el UPDATE condicional de DecrementStock.
    type line struct {
        product  models.Product
        quantity int
    }
    lines := make([]line, 0, len(items))
    subtotal := decimal.Zero

    for _, it := range items {
        product, err := h.store.GetProductByID(ctx, it.ProductID)
        if err != nil {
            return nil, err
        }
        if product.IsSoldOut() {
            return nil, &cart.NotAvailableError{Name: product.Name}
        }
        if it.Quantity > product.Stock {
            return nil, &cart.InsufficientStockError{
                Name:      product.Name,
                Available: product.Stock,
                Requested: it.Quantity,
            }
        }
        lines = append(lines, line{product: product, quantity: it.Quantity})
        subtotal = subtotal.Add(utils.LineTotal(product.CurrentPrice(), it.Quantity))
    }

    order := &models.Order{
        CustomerID:      user.CustomerID,
        OrderNumber:     utils.GenerateOrderNumber(),
        Status:          models.OrderStatusPending,
        Subtotal:        subtotal,
        Tax:             decimal.Zero,
        ShippingCost:    decimal.Zero,
        Discount:        decimal.Zero,
        ShippingAddress: req.ShippingAddress,
        Phone:           req.Phone,
    }
    order.Total = utils.OrderTotal(order.Subtotal, order.Tax, order.ShippingCost, order.Discount)

    tx, err := h.store.BeginCheckout()
    if err != nil {
        return nil, err
    }
    defer tx.Rollback()

    if err := tx.InsertOrder(order); err != nil {
        return nil, err
    }

    for _, l := range lines {
        if err := tx.DecrementStock(l.product.ID, l.quantity); err != nil {
            if errors.Is(err, database.ErrInsufficientStock) {
                return nil, &cart.InsufficientStockError{
                    Name:      l.product.Name,
                    Available: l.product.Stock,
                    Requested: l.quantity,
                }
            }
            return nil, err
        }

        item := &models.OrderItem{
            OrderID:     order.ID,
            ProductID:   l.product.ID,
            ProductName: l.product.Name,
            Quantity:    l.quantity,
            UnitPrice:   l.product.CurrentPrice(),
            Total:       utils.LineTotal(l.product.CurrentPrice(), l.quantity),
        }
        if err := tx.InsertOrderItem(item); err != nil {
            return nil, err
        }
        order.Items = append(order.Items, *item)
    }

    if err := tx.ClearCart(cartID); err != nil {
        return nil, err
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    return order, nil
}

func (h *CheckoutHandler) enqueueConfirmationEmail(ctx context.Context, user *models.AuthUser, order *models.Order) {
    err := h.jobQueue.Enqueue(ctx, queue.JobTypeOrderConfirmation, map[string]interface{}{
        "email":         user.Email,
        "nombre":        user.FirstName,
        "numero_pedido": order.OrderNumber,
        "total":         order.Total.StringFixed(2),
    })
    if err != nil {
        // El pedido ya está confirmado: el email se pierde pero queda registro.
        log.Printf("Error enqueueing confirmation email for order %s: %v", order.OrderNumber, err)
    }
}
