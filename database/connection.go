package database

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "log"
    "time"
)

type DatabaseConfig struct {
    Host     string
    User     string
    Password string
    DBName   string
}

// Sentinel errors surfaced by store methods so handlers can map them to HTTP
// status codes without matching on strings.
var (
    ErrNotFound          = errors.New("record not found")
    ErrInsufficientStock = errors.New("insufficient stock")
)

type Connection struct {
    db *sql.DB
}

func NewConnection(config DatabaseConfig) (*Connection, error) {
    dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
        config.User, config.Password, config.Host, config.DBName)

    db, err := sql.Open("mysql", dsn)
    if err != nil {
        return nil, fmt.Errorf("failed to connect to database: %v", err)
    }

    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(25)
    db.SetConnMaxLifetime(5 * time.Minute)
    db.SetConnMaxIdleTime(5 * time.Minute)

    conn := &Connection{db: db}

    if err := conn.ensureConnection(); err != nil {
        db.Close()
        return nil, err
    }

    return conn, nil
}

func (c *Connection) ensureConnection() error {
    for retries := 0; retries < 3; retries++ {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        err := c.db.PingContext(ctx)
        cancel()

        if err == nil {
            return nil
        }

        log.Printf("Database ping failed (attempt %d/3): %v", retries+1, err)
        time.Sleep(time.Second * time.Duration(retries+1))
    }
    return fmt.Errorf("failed to establish database connection after 3 attempts")
}

func (c *Connection) Close() error {
    return c.db.Close()
}

func (c *Connection) Ping() error {
    return c.ensureConnection()
}

func (c *Connection) GetDB() *sql.DB {
    return c.db
}

func (c *Connection) BeginTransaction() (*Transaction, error) {
    if err := c.ensureConnection(); err != nil {
        return nil, fmt.Errorf("database connection check failed: %v", err)
    }

    tx, err := c.db.Begin()
    if err != nil {
        return nil, fmt.Errorf("failed to begin transaction: %v", err)
    }
    return &Transaction{tx: tx}, nil
}
