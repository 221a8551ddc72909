package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/shopspring/decimal"

    "pem-store-api/models"
)

const orderColumns = `
    o.id, o.customer_id, o.order_number, o.status,
    o.subtotal, o.tax, o.shipping_cost, o.discount, o.total,
    o.shipping_address, o.phone, o.created_at, o.updated_at, cu.email, cu.first_name
`

func scanOrder(scanner interface{ Scan(...interface{}) error }) (models.Order, error) {
    var o models.Order
    err := scanner.Scan(
        &o.ID,
        &o.CustomerID,
        &o.OrderNumber,
        &o.Status,
        &o.Subtotal,
        &o.Tax,
        &o.ShippingCost,
        &o.Discount,
        &o.Total,
        &o.ShippingAddress,
        &o.Phone,
        &o.CreatedAt,
        &o.UpdatedAt,
        &o.CustomerEmail,
        &o.CustomerName,
    )
    return o, err
}

// GetOrders lists orders for the admin panel, newest first, optionally
// filtered by status, with page/pageSize pagination.
func (c *Connection) GetOrders(ctx context.Context, status string, page, pageSize int) ([]models.Order, int, error) {
    ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()

    if page < 1 {
        page = 1
    }
    if pageSize < 1 || pageSize > 100 {
        pageSize = 20
    }

    where := ""
    var args []interface{}
    if status != "" {
        where = "WHERE o.status = ?"
        args = append(args, status)
    }

    var total int
    countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM orders o %s`, where)
    if err := c.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
        return nil, 0, fmt.Errorf("error counting orders: %v", err)
    }

    query := fmt.Sprintf(`
        SELECT %s
        FROM orders o
        JOIN customers cu ON cu.id = o.customer_id
        %s
        ORDER BY o.created_at DESC
        LIMIT ? OFFSET ?
    `, orderColumns, where)
    args = append(args, pageSize, (page-1)*pageSize)

    rows, err := c.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, 0, fmt.Errorf("error listing orders: %v", err)
    }
    defer rows.Close()

    var orders []models.Order
    for rows.Next() {
        o, err := scanOrder(rows)
        if err != nil {
            return nil, 0, err
        }
        orders = append(orders, o)
    }

    return orders, total, rows.Err()
}

func (c *Connection) GetOrderByID(ctx context.Context, orderID int64) (models.Order, error) {
    ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()

    query := fmt.Sprintf(`
        SELECT %s
        FROM orders o
        JOIN customers cu ON cu.id = o.customer_id
        WHERE o.id = ?
    `, orderColumns)

    order, err := scanOrder(c.db.QueryRowContext(ctx, query, orderID))
    if err == sql.ErrNoRows {
        return models.Order{}, ErrNotFound
    }
    if err != nil {
        return models.Order{}, fmt.Errorf("error getting order %d: %v", orderID, err)
    }

    items, err := c.getOrderItems(ctx, order.ID)
    if err != nil {
        return models.Order{}, err
    }
    order.Items = items

    return order, nil
}

// GetOrderByNumberAndEmail backs the public order lookup: both values must
// match the same order.
func (c *Connection) GetOrderByNumberAndEmail(ctx context.Context, orderNumber, email string) (models.Order, error) {
    ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()

    query := fmt.Sprintf(`
        SELECT %s
        FROM orders o
        JOIN customers cu ON cu.id = o.customer_id
        WHERE o.order_number = ? AND cu.email = ?
    `, orderColumns)

    order, err := scanOrder(c.db.QueryRowContext(ctx, query, orderNumber, email))
    if err == sql.ErrNoRows {
        return models.Order{}, ErrNotFound
    }
    if err != nil {
        return models.Order{}, fmt.Errorf("error looking up order %s: %v", orderNumber, err)
    }

    items, err := c.getOrderItems(ctx, order.ID)
    if err != nil {
        return models.Order{}, err
    }
    order.Items = items

    return order, nil
}

func (c *Connection) getOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
    rows, err := c.db.QueryContext(ctx, `
        SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.unit_price, oi.total
        FROM order_items oi
        JOIN products p ON p.id = oi.product_id
        WHERE oi.order_id = ?
        ORDER BY oi.id ASC
    `, orderID)
    if err != nil {
        return nil, fmt.Errorf("error listing order items: %v", err)
    }
    defer rows.Close()

    var items []models.OrderItem
    for rows.Next() {
        var item models.OrderItem
        err := rows.Scan(
            &item.ID,
            &item.OrderID,
            &item.ProductID,
            &item.ProductName,
            &item.Quantity,
            &item.UnitPrice,
            &item.Total,
        )
        if err != nil {
            return nil, err
        }
        items = append(items, item)
    }

    return items, rows.Err()
}

func (c *Connection) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    result, err := c.db.ExecContext(ctx,
        `UPDATE orders SET status = ? WHERE id = ?`, status, orderID)
    if err != nil {
        return fmt.Errorf("error updating order status: %v", err)
    }

    rows, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if rows == 0 {
        return ErrNotFound
    }
    return nil
}

// GetOrderStats aggregates counts and revenue for the admin dashboard.
// Cancelled orders are excluded from revenue.
func (c *Connection) GetOrderStats(ctx context.Context) (models.OrderStats, error) {
    ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()

    stats := models.OrderStats{
        ByStatus:     map[string]int{},
        TotalRevenue: decimal.Zero,
        AverageOrder: decimal.Zero,
    }

    rows, err := c.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
    if err != nil {
        return stats, fmt.Errorf("error aggregating order statuses: %v", err)
    }
    defer rows.Close()

    for rows.Next() {
        var status string
        var count int
        if err := rows.Scan(&status, &count); err != nil {
            return stats, err
        }
        stats.ByStatus[status] = count
        stats.TotalOrders += count
    }
    if err := rows.Err(); err != nil {
        return stats, err
    }

    var revenue decimal.NullDecimal
    var paying int
    err = c.db.QueryRowContext(ctx, `
        SELECT COALESCE(SUM(total), 0), COUNT(*)
        FROM orders
        WHERE status <> 'cancelado'
    `).Scan(&revenue, &paying)
    if err != nil {
        return stats, fmt.Errorf("error aggregating revenue: %v", err)
    }

    if revenue.Valid {
        stats.TotalRevenue = revenue.Decimal
    }
    if paying > 0 {
        stats.AverageOrder = stats.TotalRevenue.Div(decimal.NewFromInt(int64(paying))).Round(2)
    }

    return stats, nil
}
