package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "pem-store-api/models"
)

func (c *Connection) CreateCustomer(ctx context.Context, req models.RegisterRequest, passwordHash string) (models.Customer, error) {
    ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()

    query := `
        INSERT INTO customers (
            email, passphrase, first_name, last_name,
            phone, address, city, postal_code
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `

    result, err := c.db.ExecContext(ctx, query,
        req.Email,
        passwordHash,
        req.FirstName,
        req.LastName,
        req.Phone,
        req.Address,
        req.City,
        req.PostalCode,
    )
    if err != nil {
        return models.Customer{}, fmt.Errorf("error creating customer: %v", err)
    }

    id, err := result.LastInsertId()
    if err != nil {
        return models.Customer{}, err
    }

    return models.Customer{
        ID:         id,
        Email:      req.Email,
        FirstName:  req.FirstName,
        LastName:   req.LastName,
        Phone:      req.Phone,
        Address:    req.Address,
        City:       req.City,
        PostalCode: req.PostalCode,
    }, nil
}

func (c *Connection) GetCustomerByEmail(ctx context.Context, email string) (models.Customer, string, error) {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    var customer models.Customer
    var passwordHash string

    err := c.db.QueryRowContext(ctx, `
        SELECT id, email, passphrase, first_name, last_name,
               phone, address, city, postal_code, is_admin, created_at
        FROM customers
        WHERE email = ?
    `, email).Scan(
        &customer.ID,
        &customer.Email,
        &passwordHash,
        &customer.FirstName,
        &customer.LastName,
        &customer.Phone,
        &customer.Address,
        &customer.City,
        &customer.PostalCode,
        &customer.IsAdmin,
        &customer.CreatedAt,
    )
    if err == sql.ErrNoRows {
        return models.Customer{}, "", ErrNotFound
    }
    if err != nil {
        return models.Customer{}, "", fmt.Errorf("error getting customer by email: %v", err)
    }

    return customer, passwordHash, nil
}

func (c *Connection) CustomerEmailExists(ctx context.Context, email string) (bool, error) {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    var exists bool
    err := c.db.QueryRowContext(ctx,
        `SELECT EXISTS(SELECT 1 FROM customers WHERE email = ?)`, email).Scan(&exists)
    if err != nil {
        return false, fmt.Errorf("error checking customer email: %v", err)
    }
    return exists, nil
}
