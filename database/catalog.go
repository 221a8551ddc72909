package database

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

    "pem-store-api/models"
)

const productColumns = `
    p.id, p.name, p.description, p.brand_id, b.name, p.category_id, c.name,
    p.price, p.offer_price, p.gender, p.color, p.material, p.stock,
    p.is_available, p.is_featured, p.image
`

func scanProduct(scanner interface{ Scan(...interface{}) error }) (models.Product, error) {
    var p models.Product
    err := scanner.Scan(
        &p.ID,
        &p.Name,
        &p.Description,
        &p.BrandID,
        &p.BrandName,
        &p.CategoryID,
        &p.Category,
        &p.Price,
        &p.OfferPrice,
        &p.Gender,
        &p.Color,
        &p.Material,
        &p.Stock,
        &p.IsAvailable,
        &p.IsFeatured,
        &p.Image,
    )
    return p, err
}

// GetProducts lists available products matching the catalog filters.
func (c *Connection) GetProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
    ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()

    var conditions []string
    var args []interface{}

    conditions = append(conditions, "p.is_available = 1")

    if filter.Query != "" {
        conditions = append(conditions, "(p.name LIKE ? OR p.description LIKE ? OR b.name LIKE ?)")
        like := "%" + filter.Query + "%"
        args = append(args, like, like, like)
    }
    if filter.BrandID > 0 {
        conditions = append(conditions, "p.brand_id = ?")
        args = append(args, filter.BrandID)
    }
    if filter.CategoryID > 0 {
        conditions = append(conditions, "p.category_id = ?")
        args = append(args, filter.CategoryID)
    }
    if filter.Gender != "" {
        conditions = append(conditions, "p.gender = ?")
        args = append(args, filter.Gender)
    }

    query := fmt.Sprintf(`
        SELECT %s
        FROM products p
        JOIN brands b ON b.id = p.brand_id
        JOIN categories c ON c.id = p.category_id
        WHERE %s
        ORDER BY p.name ASC
    `, productColumns, strings.Join(conditions, " AND "))

    rows, err := c.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, fmt.Errorf("error listing products: %v", err)
    }
    defer rows.Close()

    var products []models.Product
    for rows.Next() {
        p, err := scanProduct(rows)
        if err != nil {
            return nil, err
        }
        products = append(products, p)
    }

    return products, rows.Err()
}

func (c *Connection) GetProductByID(ctx context.Context, id int64) (models.Product, error) {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    query := fmt.Sprintf(`
        SELECT %s
        FROM products p
        JOIN brands b ON b.id = p.brand_id
        JOIN categories c ON c.id = p.category_id
        WHERE p.id = ?
    `, productColumns)

    p, err := scanProduct(c.db.QueryRowContext(ctx, query, id))
    if err == sql.ErrNoRows {
        return models.Product{}, ErrNotFound
    }
    if err != nil {
        return models.Product{}, fmt.Errorf("error getting product %d: %v", id, err)
    }
    return p, nil
}

// GetFeaturedProducts implements los destacados automáticos: products on offer
// or with recorded sales, offers first, then best sellers.
func (c *Connection) GetFeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
    ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()

    if limit <= 0 {
        limit = 4
    }

    query := fmt.Sprintf(`
        SELECT %s
        FROM products p
        JOIN brands b ON b.id = p.brand_id
        JOIN categories c ON c.id = p.category_id
        LEFT JOIN (
            SELECT product_id, COALESCE(SUM(quantity), 0) AS total_sold
            FROM order_items
            GROUP BY product_id
        ) s ON s.product_id = p.id
        WHERE p.is_available = 1 AND p.stock > 0
          AND (
            (p.offer_price IS NOT NULL AND p.offer_price < p.price)
            OR COALESCE(s.total_sold, 0) > 0
          )
        ORDER BY (p.offer_price IS NOT NULL AND p.offer_price < p.price) DESC,
                 COALESCE(s.total_sold, 0) DESC,
                 p.updated_at DESC, p.created_at DESC
        LIMIT ?
    `, productColumns)

    rows, err := c.db.QueryContext(ctx, query, limit)
    if err != nil {
        return nil, fmt.Errorf("error listing featured products: %v", err)
    }
    defer rows.Close()

    var products []models.Product
    for rows.Next() {
        p, err := scanProduct(rows)
        if err != nil {
            return nil, err
        }
        products = append(products, p)
    }

    return products, rows.Err()
}

func (c *Connection) GetBrands(ctx context.Context) ([]models.Brand, error) {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    rows, err := c.db.QueryContext(ctx, `SELECT id, name, image FROM brands ORDER BY name ASC`)
    if err != nil {
        return nil, fmt.Errorf("error listing brands: %v", err)
    }
    defer rows.Close()

    var brands []models.Brand
    for rows.Next() {
        var b models.Brand
        if err := rows.Scan(&b.ID, &b.Name, &b.Image); err != nil {
            return nil, err
        }
        brands = append(brands, b)
    }

    return brands, rows.Err()
}

func (c *Connection) GetCategories(ctx context.Context) ([]models.Category, error) {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    rows, err := c.db.QueryContext(ctx, `SELECT id, name, description, image FROM categories ORDER BY name ASC`)
    if err != nil {
        return nil, fmt.Errorf("error listing categories: %v", err)
    }
    defer rows.Close()

    var categories []models.Category
    for rows.Next() {
        var cat models.Category
        if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description, &cat.Image); err != nil {
            return nil, err
        }
        categories = append(categories, cat)
    }

    return categories, rows.Err()
}
