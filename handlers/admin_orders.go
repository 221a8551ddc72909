// handlers/admin_orders.go
package handlers

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "net/http"
    "strconv"

    "github.com/gorilla/mux"

    "pem-store-api/database"
    "pem-store-api/models"
    "pem-store-api/queue"
    "pem-store-api/utils"
)

const defaultPageSize = 20
const maxPageSize = 100

// AdminOrderHandler serves the admin-only order management endpoints. Every
// route is wrapped by RequireAdmin in main.
type AdminOrderHandler struct {
    db       *database.Connection
    jobQueue *queue.Queue
}

func NewAdminOrderHandler(db *database.Connection, jobQueue *queue.Queue) *AdminOrderHandler {
    return &AdminOrderHandler{db: db, jobQueue: jobQueue}
}

func validOrderStatus(status string) bool {
    switch status {
    case models.OrderStatusPending, models.OrderStatusConfirmed,
        models.OrderStatusShipped, models.OrderStatusDelivered,
        models.OrderStatusCancelled:
        return true
    }
    return false
}

// ListOrders maneja GET /api/admin/pedidos/ con filtro por estado y paginación.
func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()

    status := q.Get("estado")
    if status != "" && !validOrderStatus(status) {
        utils.SendErrorResponse(w, http.StatusBadRequest,
            fmt.Sprintf("Estado '%s' no válido", status))
        return
    }

    page := 1
    if v := q.Get("pagina"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            page = n
        }
    }
    pageSize := defaultPageSize
    if v := q.Get("por_pagina"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxPageSize {
            pageSize = n
        }
    }

    orders, total, err := h.db.GetOrders(r.Context(), status, page, pageSize)
    if err != nil {
        log.Printf("Error listing orders: %v", err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    utils.SendJSON(w, http.StatusOK, map[string]interface{}{
        "count":      total,
        "pagina":     page,
        "por_pagina": pageSize,
        "results":    orders,
    })
}

// GetOrder maneja GET /api/admin/pedidos/{id}/.
func (h *AdminOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
    order, ok := h.orderFromPath(w, r)
    if !ok {
        return
    }
    utils.SendJSON(w, http.StatusOK, order)
}

// ChangeStatus maneja POST /api/admin/pedidos/{id}/cambiar-estado/. Valida la
// transición contra el ciclo de vida del pedido y notifica al cliente.
func (h *AdminOrderHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
    order, ok := h.orderFromPath(w, r)
    if !ok {
        return
    }

    var req models.ChangeOrderStatusRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.SendErrorResponse(w, http.StatusBadRequest, "JSON inválido")
        return
    }
    if !validOrderStatus(req.Status) {
        utils.SendErrorResponse(w, http.StatusBadRequest,
            fmt.Sprintf("Estado '%s' no válido", req.Status))
        return
    }
    if !order.NextStatusValid(req.Status) {
        utils.SendErrorResponse(w, http.StatusBadRequest,
            fmt.Sprintf("No se puede cambiar de '%s' a '%s'", order.Status, req.Status))
        return
    }

    if err := h.db.UpdateOrderStatus(r.Context(), order.ID, req.Status); err != nil {
        log.Printf("Error updating order %d status: %v", order.ID, err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }
    order.Status = req.Status

    h.enqueueStatusEmail(r.Context(), order)

    utils.SendSuccessResponse(w, models.APIResponse{
        Status:  "success",
        Message: fmt.Sprintf("Pedido %s actualizado a '%s'", order.OrderNumber, req.Status),
        Data:    order,
    })
}

// CancelOrder maneja POST /api/admin/pedidos/{id}/cancelar/. Solo pedidos
// pendientes o confirmados.
func (h *AdminOrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
    order, ok := h.orderFromPath(w, r)
    if !ok {
        return
    }

    if !order.CanCancel() {
        utils.SendErrorResponse(w, http.StatusBadRequest,
            fmt.Sprintf("No se puede cancelar un pedido en estado '%s'", order.Status))
        return
    }

    if err := h.db.UpdateOrderStatus(r.Context(), order.ID, models.OrderStatusCancelled); err != nil {
        log.Printf("Error cancelling order %d: %v", order.ID, err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }
    order.Status = models.OrderStatusCancelled

    h.enqueueStatusEmail(r.Context(), order)

    utils.SendSuccessResponse(w, models.APIResponse{
        Status:  "success",
        Message: fmt.Sprintf("Pedido %s cancelado", order.OrderNumber),
        Data:    order,
    })
}

// GetStats maneja GET /api/admin/pedidos/estadisticas/.
func (h *AdminOrderHandler) GetStats(w http.ResponseWriter, r *http.Request) {
    stats, err := h.db.GetOrderStats(r.Context())
    if err != nil {
        log.Printf("Error computing order stats: %v", err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }
    utils.SendJSON(w, http.StatusOK, stats)
}

func (h *AdminOrderHandler) orderFromPath(w http.ResponseWriter, r *http.Request) (models.Order, bool) {
    vars := mux.Vars(r)
    id, err := strconv.ParseInt(vars["id"], 10, 64)
    if err != nil || id <= 0 {
        utils.SendErrorResponse(w, http.StatusBadRequest, "ID de pedido inválido")
        return models.Order{}, false
    }

    order, err := h.db.GetOrderByID(r.Context(), id)
    if err != nil {
        if errors.Is(err, database.ErrNotFound) {
            utils.SendErrorResponse(w, http.StatusNotFound,
                fmt.Sprintf("Pedido con ID %d no encontrado", id))
            return models.Order{}, false
        }
        log.Printf("Error fetching order %d: %v", id, err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return models.Order{}, false
    }
    return order, true
}

func (h *AdminOrderHandler) enqueueStatusEmail(ctx context.Context, order models.Order) {
    if order.CustomerEmail == "" {
        return
    }
    err := h.jobQueue.Enqueue(ctx, queue.JobTypeOrderStatusEmail, map[string]interface{}{
        "email":         order.CustomerEmail,
        "nombre":        order.CustomerName,
        "numero_pedido": order.OrderNumber,
        "estado":        order.Status,
    })
    if err != nil {
        log.Printf("Error enqueueing status email for order %s: %v", order.OrderNumber, err)
    }
}
