package database

import (
    "context"
    "database/sql"
    "fmt"
    "log"
    "time"

    "pem-store-api/models"
)

type Transaction struct {
    tx *sql.Tx
}

func (t *Transaction) Commit() error {
    return t.tx.Commit()
}

func (t *Transaction) Rollback() error {
    return t.tx.Rollback()
}

// InsertOrder persists the order header and fills in its generated id.
func (t *Transaction) InsertOrder(order *models.Order) error {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    log.Printf("Inserting order %s for customer %d", order.OrderNumber, order.CustomerID)

    query := `
        INSERT INTO orders (
            customer_id, order_number, status,
            subtotal, tax, shipping_cost, discount, total,
            shipping_address, phone
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

    result, err := t.tx.ExecContext(ctx, query,
        order.CustomerID,
        order.OrderNumber,
        order.Status,
        order.Subtotal,
        order.Tax,
        order.ShippingCost,
        order.Discount,
        order.Total,
        order.ShippingAddress,
        order.Phone,
    )
    if err != nil {
        return fmt.Errorf("failed to insert order: %v", err)
    }

    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    order.ID = id

    return nil
}

func (t *Transaction) InsertOrderItem(item *models.OrderItem) error {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    query := `
        INSERT INTO order_items (order_id, product_id, quantity, unit_price, total)
        VALUES (?, ?, ?, ?, ?)
    `

    result, err := t.tx.ExecContext(ctx, query,
        item.OrderID,
        item.ProductID,
        item.Quantity,
        item.UnitPrice,
        item.Total,
    )
    if err != nil {
        return fmt.Errorf("failed to insert order item: %v", err)
    }

    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    item.ID = id

    return nil
}

// DecrementStock takes quantity units off a product guarded by the remaining
// stock; zero affected rows means another checkout got there first.
func (t *Transaction) DecrementStock(productID int64, quantity int) error {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    result, err := t.tx.ExecContext(ctx, `
        UPDATE products
        SET stock = stock - ?
        WHERE id = ? AND stock >= ?
    `, quantity, productID, quantity)
    if err != nil {
        return fmt.Errorf("failed to decrement stock for product %d: %v", productID, err)
    }

    rows, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if rows == 0 {
        return ErrInsufficientStock
    }
    return nil
}

func (t *Transaction) ClearCart(cartID int64) error {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    if _, err := t.tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
        return fmt.Errorf("failed to clear cart %d: %v", cartID, err)
    }
    return nil
}
