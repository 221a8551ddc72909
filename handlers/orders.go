// handlers/orders.go
package handlers

import (
    "errors"
    "log"
    "net/http"
    "strings"

    "pem-store-api/database"
    "pem-store-api/utils"
)

// OrderLookupHandler serves the public order lookup: a customer can check an
// order's state with the email it was placed under plus the order number.
type OrderLookupHandler struct {
    db *database.Connection
}

func NewOrderLookupHandler(db *database.Connection) *OrderLookupHandler {
    return &OrderLookupHandler{db: db}
}

// LookupOrder maneja GET /api/pedidos/consulta/?email=...&numero=....
func (h *OrderLookupHandler) LookupOrder(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()

    email := strings.TrimSpace(strings.ToLower(q.Get("email")))
    number := strings.TrimSpace(q.Get("numero"))
    if number == "" {
        // La versión anterior del front-end enviaba "codigo".
        number = strings.TrimSpace(q.Get("codigo"))
    }

    if email == "" || number == "" {
        utils.SendErrorResponse(w, http.StatusBadRequest, "email y numero son requeridos")
        return
    }

    order, err := h.db.GetOrderByNumberAndEmail(r.Context(), number, email)
    if err != nil {
        if errors.Is(err, database.ErrNotFound) {
            utils.SendErrorResponse(w, http.StatusNotFound,
                "No se encontró ningún pedido con esos datos")
            return
        }
        log.Printf("Error looking up order %s: %v", number, err)
        utils.SendErrorResponse(w, http.StatusInternalServerError, "Error interno del servidor")
        return
    }

    utils.SendJSON(w, http.StatusOK, order)
}
