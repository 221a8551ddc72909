package config

import (
    "log"
    "os"
    "strconv"

    "github.com/joho/godotenv"

    "pem-store-api/database"
    "pem-store-api/services/email"
)

type Config struct {
    Database database.DatabaseConfig
    SMTP     email.SMTPConfig
    Server   ServerConfig
    Redis    RedisConfig
    Session  SessionConfig
    JWT      JWTConfig
}

type ServerConfig struct {
    Port      string
    StaticDir string
}

type RedisConfig struct {
    URL               string
    WorkerConcurrency int
}

type SessionConfig struct {
    Secret string
    Domain string
    MaxAge int
}

type JWTConfig struct {
    Secret string
    Issuer string
}

func Load() *Config {
    if err := godotenv.Load(); err != nil {
        log.Printf("Warning: Error loading .env file: %v", err)
    }

    workerConcurrency := 2
    if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            workerConcurrency = n
        }
    }

    sessionMaxAge := 86400 * 14 // dos semanas, igual que la sesión original
    if v := os.Getenv("SESSION_MAX_AGE"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            sessionMaxAge = n
        }
    }

    cfg := &Config{
        Database: database.DatabaseConfig{
            Host:     os.Getenv("DB_HOST"),
            User:     os.Getenv("DB_USER"),
            Password: os.Getenv("DB_PASSWORD"),
            DBName:   os.Getenv("DB_NAME"),
        },
        SMTP: email.SMTPConfig{
            Host:     os.Getenv("SMTP_HOST"),
            Port:     os.Getenv("SMTP_PORT"),
            Username: os.Getenv("SMTP_USER"),
            Password: os.Getenv("SMTP_PASSWORD"),
        },
        Server: ServerConfig{
            Port:      os.Getenv("SERVER_PORT"),
            StaticDir: os.Getenv("STATIC_DIR"),
        },
        Redis: RedisConfig{
            URL:               os.Getenv("REDIS_URL"),
            WorkerConcurrency: workerConcurrency,
        },
        Session: SessionConfig{
            Secret: os.Getenv("SESSION_SECRET"),
            Domain: os.Getenv("SESSION_DOMAIN"),
            MaxAge: sessionMaxAge,
        },
        JWT: JWTConfig{
            Secret: os.Getenv("JWT_SECRET"),
            Issuer: os.Getenv("JWT_ISSUER"),
        },
    }

    if cfg.Server.Port == "" {
        cfg.Server.Port = "8080"
    }
    if cfg.Server.StaticDir == "" {
        cfg.Server.StaticDir = "static"
    }
    if cfg.JWT.Issuer == "" {
        cfg.JWT.Issuer = "pem-store-api"
    }

    if cfg.Redis.URL == "" {
        cfg.Redis.URL = "redis://localhost:6379/0"
        log.Printf("Warning: REDIS_URL not set, using default: %s", cfg.Redis.URL)
    }
    if cfg.Session.Secret == "" {
        log.Printf("Warning: SESSION_SECRET not set, sessions will not survive restarts")
        cfg.Session.Secret = "dev-session-secret"
    }
    if cfg.JWT.Secret == "" {
        log.Printf("Warning: JWT_SECRET not set, using insecure development key")
        cfg.JWT.Secret = "dev-jwt-secret"
    }

    return cfg
}
