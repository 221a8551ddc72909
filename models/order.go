package models

import (
    "time"

    "github.com/shopspring/decimal"
)

// Estados posibles de un pedido.
const (
    OrderStatusPending   = "pendiente"
    OrderStatusConfirmed = "confirmado"
    OrderStatusShipped   = "enviado"
    OrderStatusDelivered = "entregado"
    OrderStatusCancelled = "cancelado"
)

type Order struct {
    ID              int64           `json:"id" db:"id"`
    CustomerID      int64           `json:"cliente_id" db:"customer_id"`
    OrderNumber     string          `json:"numero_pedido" db:"order_number"`
    Status          string          `json:"estado" db:"status"`
    Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
    Tax             decimal.Decimal `json:"impuestos" db:"tax"`
    ShippingCost    decimal.Decimal `json:"coste_entrega" db:"shipping_cost"`
    Discount        decimal.Decimal `json:"descuento" db:"discount"`
    Total           decimal.Decimal `json:"total" db:"total"`
    ShippingAddress string          `json:"direccion_envio" db:"shipping_address"`
    Phone           string          `json:"telefono" db:"phone"`
    CreatedAt       time.Time       `json:"fecha_creacion" db:"created_at"`
    UpdatedAt       time.Time       `json:"fecha_actualizacion" db:"updated_at"`
    Items           []OrderItem     `json:"items,omitempty"`
    CustomerEmail   string          `json:"cliente_email,omitempty" db:"customer_email"`
    CustomerName    string          `json:"cliente_nombre,omitempty" db:"customer_name"`
}

// OrderItem snapshots the product price at purchase time.
type OrderItem struct {
    ID          int64           `json:"id" db:"id"`
    OrderID     int64           `json:"-" db:"order_id"`
    ProductID   int64           `json:"producto_id" db:"product_id"`
    ProductName string          `json:"producto" db:"product_name"`
    Quantity    int             `json:"cantidad" db:"quantity"`
    UnitPrice   decimal.Decimal `json:"precio_unitario" db:"unit_price"`
    Total       decimal.Decimal `json:"total" db:"total"`
}

// ComputeTotal aplica la fórmula subtotal + impuestos + envío - descuento.
func (o *Order) ComputeTotal() decimal.Decimal {
    return o.Subtotal.Add(o.Tax).Add(o.ShippingCost).Sub(o.Discount)
}

func (o *Order) TotalItems() int {
    total := 0
    for _, item := range o.Items {
        total += item.Quantity
    }
    return total
}

// CanCancel: only pending or confirmed orders may be cancelled.
func (o *Order) CanCancel() bool {
    return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// CanModify: only pending orders may be edited by an administrator.
func (o *Order) CanModify() bool {
    return o.Status == OrderStatusPending
}

// NextStatusValid reports whether the transition follows the pedido lifecycle:
// pendiente -> confirmado -> enviado -> entregado, with cancelado reachable
// from pendiente and confirmado only.
func (o *Order) NextStatusValid(next string) bool {
    switch next {
    case OrderStatusConfirmed:
        return o.Status == OrderStatusPending
    case OrderStatusShipped:
        return o.Status == OrderStatusConfirmed
    case OrderStatusDelivered:
        return o.Status == OrderStatusShipped
    case OrderStatusCancelled:
        return o.CanCancel()
    default:
        return false
    }
}

// OrderStats is the payload behind /api/admin/pedidos/estadisticas/.
type OrderStats struct {
    TotalOrders  int             `json:"total_pedidos"`
    ByStatus     map[string]int  `json:"por_estado"`
    TotalRevenue decimal.Decimal `json:"ingresos_totales"`
    AverageOrder decimal.Decimal `json:"ticket_promedio"`
}

type ChangeOrderStatusRequest struct {
    Status string `json:"estado"`
}

type CheckoutRequest struct {
    ShippingAddress string `json:"direccion_envio"`
    Phone           string `json:"telefono"`
}
