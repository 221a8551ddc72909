package auth

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5"

    "pem-store-api/database"
    "pem-store-api/models"
)

const (
    AccessTokenDuration  = 15 * time.Minute
    RefreshTokenDuration = 7 * 24 * time.Hour
)

var (
    ErrInvalidCredentials = errors.New("invalid email or password")
    ErrEmailTaken         = errors.New("email already registered")
    ErrTokenExpired       = errors.New("token expired")
    ErrInvalidToken       = errors.New("invalid token")
)

type JWTService struct {
    secretKey []byte
    issuer    string
    db        *database.Connection
}

type Claims struct {
    CustomerID int64  `json:"cliente_id"`
    Email      string `json:"email"`
    FirstName  string `json:"nombre"`
    IsAdmin    bool   `json:"es_admin"`
    TokenType  string `json:"token_type"` // "access" or "refresh"
    jwt.RegisteredClaims
}

func NewJWTService(secretKey, issuer string, db *database.Connection) *JWTService {
    return &JWTService{
        secretKey: []byte(secretKey),
        issuer:    issuer,
        db:        db,
    }
}

// HashPassword devuelve el hash sha256 en hexadecimal usado en la columna
// passphrase.
func HashPassword(password string) string {
    hasher := sha256.New()
    hasher.Write([]byte(password))
    return hex.EncodeToString(hasher.Sum(nil))
}

// Register creates a customer account and returns it.
func (j *JWTService) Register(ctx context.Context, req models.RegisterRequest) (models.Customer, error) {
    if req.Email == "" || req.Password == "" {
        return models.Customer{}, ErrInvalidCredentials
    }

    exists, err := j.db.CustomerEmailExists(ctx, req.Email)
    if err != nil {
        return models.Customer{}, fmt.Errorf("error checking email: %v", err)
    }
    if exists {
        return models.Customer{}, ErrEmailTaken
    }

    return j.db.CreateCustomer(ctx, req, HashPassword(req.Password))
}

// Authenticate verifies email+password and issues access/refresh tokens.
func (j *JWTService) Authenticate(ctx context.Context, email, password string) (*models.AuthResponse, error) {
    if email == "" || password == "" {
        return nil, ErrInvalidCredentials
    }

    customer, passwordHash, err := j.db.GetCustomerByEmail(ctx, email)
    if err != nil {
        if errors.Is(err, database.ErrNotFound) {
            return nil, ErrInvalidCredentials
        }
        return nil, fmt.Errorf("database error: %v", err)
    }

    if HashPassword(password) != passwordHash {
        return nil, ErrInvalidCredentials
    }

    authUser := models.AuthUser{
        CustomerID: customer.ID,
        Email:      customer.Email,
        FirstName:  customer.FirstName,
        IsAdmin:    customer.IsAdmin,
    }

    accessToken, err := j.GenerateToken(authUser, "access", AccessTokenDuration)
    if err != nil {
        return nil, fmt.Errorf("error generating access token: %v", err)
    }

    refreshToken, err := j.GenerateToken(authUser, "refresh", RefreshTokenDuration)
    if err != nil {
        return nil, fmt.Errorf("error generating refresh token: %v", err)
    }

    return &models.AuthResponse{
        Token:        accessToken,
        RefreshToken: refreshToken,
        ExpiresAt:    time.Now().Add(AccessTokenDuration),
        User:         authUser,
    }, nil
}

// GenerateToken genera un token JWT firmado con HS256.
func (j *JWTService) GenerateToken(user models.AuthUser, tokenType string, duration time.Duration) (string, error) {
    now := time.Now()
    claims := Claims{
        CustomerID: user.CustomerID,
        Email:      user.Email,
        FirstName:  user.FirstName,
        IsAdmin:    user.IsAdmin,
        TokenType:  tokenType,
        RegisteredClaims: jwt.RegisteredClaims{
            Issuer:    j.issuer,
            Subject:   user.Email,
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
        },
    }

    token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return token.SignedString(j.secretKey)
}

// ValidateToken checks signature and expiry of an access token and returns
// the embedded user.
func (j *JWTService) ValidateToken(tokenString string) (*models.AuthUser, error) {
    claims, err := j.parseClaims(tokenString)
    if err != nil {
        return nil, err
    }

    if claims.TokenType != "access" {
        return nil, ErrInvalidToken
    }

    return &models.AuthUser{
        CustomerID: claims.CustomerID,
        Email:      claims.Email,
        FirstName:  claims.FirstName,
        IsAdmin:    claims.IsAdmin,
    }, nil
}

// RefreshTokens exchanges a valid refresh token for a new token pair.
func (j *JWTService) RefreshTokens(tokenString string) (*models.AuthResponse, error) {
    claims, err := j.parseClaims(tokenString)
    if err != nil {
        return nil, err
    }

    if claims.TokenType != "refresh" {
        return nil, ErrInvalidToken
    }

    user := models.AuthUser{
        CustomerID: claims.CustomerID,
        Email:      claims.Email,
        FirstName:  claims.FirstName,
        IsAdmin:    claims.IsAdmin,
    }

    accessToken, err := j.GenerateToken(user, "access", AccessTokenDuration)
    if err != nil {
        return nil, fmt.Errorf("error generating access token: %v", err)
    }

    refreshToken, err := j.GenerateToken(user, "refresh", RefreshTokenDuration)
    if err != nil {
        return nil, fmt.Errorf("error generating refresh token: %v", err)
    }

    return &models.AuthResponse{
        Token:        accessToken,
        RefreshToken: refreshToken,
        ExpiresAt:    time.Now().Add(AccessTokenDuration),
        User:         user,
    }, nil
}

func (j *JWTService) parseClaims(tokenString string) (*Claims, error) {
    token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
        if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
        }
        return j.secretKey, nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return nil, ErrTokenExpired
        }
        return nil, ErrInvalidToken
    }

    claims, ok := token.Claims.(*Claims)
    if !ok || !token.Valid {
        return nil, ErrInvalidToken
    }
    return claims, nil
}
