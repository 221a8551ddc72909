package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/shopspring/decimal"

    "pem-store-api/models"
)

// CreateCart inserts a new cart, anonymous unless a customer id is given.
func (c *Connection) CreateCart(ctx context.Context, customerID *int64) (models.Cart, error) {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    result, err := c.db.ExecContext(ctx, `INSERT INTO carts (customer_id) VALUES (?)`, customerID)
    if err != nil {
        return models.Cart{}, fmt.Errorf("error creating cart: %v", err)
    }

    id, err := result.LastInsertId()
    if err != nil {
        return models.Cart{}, err
    }

    return models.Cart{ID: id, CustomerID: customerID}, nil
}

func (c *Connection) GetCart(ctx context.Context, cartID int64) (models.Cart, error) {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    var cart models.Cart
    err := c.db.QueryRowContext(ctx,
        `SELECT id, customer_id FROM carts WHERE id = ?`, cartID).
        Scan(&cart.ID, &cart.CustomerID)
    if err == sql.ErrNoRows {
        return models.Cart{}, ErrNotFound
    }
    if err != nil {
        return models.Cart{}, fmt.Errorf("error getting cart %d: %v", cartID, err)
    }
    return cart, nil
}

// GetCartByCustomer returns the customer's most recently touched cart.
func (c *Connection) GetCartByCustomer(ctx context.Context, customerID int64) (models.Cart, error) {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    var cart models.Cart
    err := c.db.QueryRowContext(ctx, `
        SELECT id, customer_id FROM carts
        WHERE customer_id = ?
        ORDER BY updated_at DESC
        LIMIT 1
    `, customerID).Scan(&cart.ID, &cart.CustomerID)
    if err == sql.ErrNoRows {
        return models.Cart{}, ErrNotFound
    }
    if err != nil {
        return models.Cart{}, fmt.Errorf("error getting cart for customer %d: %v", customerID, err)
    }
    return cart, nil
}

func (c *Connection) GetCartItem(ctx context.Context, cartID, productID int64) (models.CartItem, error) {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    var item models.CartItem
    err := c.db.QueryRowContext(ctx, `
        SELECT id, cart_id, product_id, quantity
        FROM cart_items
        WHERE cart_id = ? AND product_id = ?
    `, cartID, productID).Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity)
    if err == sql.ErrNoRows {
        return models.CartItem{}, ErrNotFound
    }
    if err != nil {
        return models.CartItem{}, fmt.Errorf("error getting cart item: %v", err)
    }
    return item, nil
}

func (c *Connection) GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    rows, err := c.db.QueryContext(ctx, `
        SELECT id, cart_id, product_id, quantity
        FROM cart_items
        WHERE cart_id = ?
        ORDER BY id ASC
    `, cartID)
    if err != nil {
        return nil, fmt.Errorf("error listing cart items: %v", err)
    }
    defer rows.Close()

    var items []models.CartItem
    for rows.Next() {
        var item models.CartItem
        if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity); err != nil {
            return nil, err
        }
        items = append(items, item)
    }

    return items, rows.Err()
}

// SaveCartItem upserts la cantidad de un producto en el carrito. One row per
// (cart, product); the unique key absorbs the race between concurrent adds.
func (c *Connection) SaveCartItem(ctx context.Context, cartID, productID int64, quantity int) (models.CartItem, error) {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    _, err := c.db.ExecContext(ctx, `
        INSERT INTO cart_items (cart_id, product_id, quantity)
        VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE quantity = VALUES(quantity)
    `, cartID, productID, quantity)
    if err != nil {
        return models.CartItem{}, fmt.Errorf("error saving cart item: %v", err)
    }

    // Touch the cart so GetCartByCustomer ordering stays meaningful.
    if _, err := c.db.ExecContext(ctx,
        `UPDATE carts SET updated_at = NOW() WHERE id = ?`, cartID); err != nil {
        return models.CartItem{}, fmt.Errorf("error touching cart: %v", err)
    }

    return c.GetCartItem(ctx, cartID, productID)
}

func (c *Connection) DeleteCartItem(ctx context.Context, cartID, productID int64) error {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    result, err := c.db.ExecContext(ctx,
        `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
    if err != nil {
        return fmt.Errorf("error removing cart item: %v", err)
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

// ClearCart removes every item and reports how many rows went away.
func (c *Connection) ClearCart(ctx context.Context, cartID int64) (int, error) {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    result, err := c.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
    if err != nil {
        return 0, fmt.Errorf("error clearing cart: %v", err)
    }

    rows, err := result.RowsAffected()
    if err != nil {
        return 0, err
    }
    return int(rows), nil
}

func (c *Connection) DeleteCart(ctx context.Context, cartID int64) error {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    // cart_items cascade on delete
    _, err := c.db.ExecContext(ctx, `DELETE FROM carts WHERE id = ?`, cartID)
    if err != nil {
        return fmt.Errorf("error deleting cart: %v", err)
    }
    return nil
}

// CartDetail builds the rendered cart: every row joined with its product
// snapshot, plus the aggregates the front-end shows in the offcanvas.
func (c *Connection) CartDetail(ctx context.Context, cartID int64) (models.CartDetail, error) {
    ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()

    if _, err := c.GetCart(ctx, cartID); err != nil {
        return models.CartDetail{}, err
    }

    rows, err := c.db.QueryContext(ctx, `
        SELECT ci.id, ci.quantity,
               p.id, p.name, b.name, p.price, p.offer_price, p.image
        FROM cart_items ci
        JOIN products p ON p.id = ci.product_id
        JOIN brands b ON b.id = p.brand_id
        WHERE ci.cart_id = ?
        ORDER BY ci.id ASC
    `, cartID)
    if err != nil {
        return models.CartDetail{}, fmt.Errorf("error loading cart detail: %v", err)
    }
    defer rows.Close()

    detail := models.CartDetail{CartID: cartID, Items: []models.CartItemDetail{}, Subtotal: decimal.Zero}
    for rows.Next() {
        var item models.CartItemDetail
        var price decimal.Decimal
        var offerPrice *decimal.Decimal

        err := rows.Scan(
            &item.ItemID,
            &item.Quantity,
            &item.Product.ID,
            &item.Product.Name,
            &item.Product.Brand,
            &price,
            &offerPrice,
            &item.Product.Image,
        )
        if err != nil {
            return models.CartDetail{}, err
        }

        unit := price
        hasOffer := offerPrice != nil && offerPrice.LessThan(price)
        if hasOffer {
            unit = *offerPrice
        }
        item.Product.UnitPrice = unit
        item.Product.HasOffer = hasOffer
        item.Subtotal = unit.Mul(decimal.NewFromInt(int64(item.Quantity)))

        detail.Items = append(detail.Items, item)
        detail.TotalItems += item.Quantity
        detail.Subtotal = detail.Subtotal.Add(item.Subtotal)
    }
    if err := rows.Err(); err != nil {
        return models.CartDetail{}, err
    }

    detail.IsEmpty = len(detail.Items) == 0
    return detail, nil
}
