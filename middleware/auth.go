package middleware

import (
    "context"
    "log"
    "net/http"
    "strings"
    "time"

    "pem-store-api/models"
    "pem-store-api/services/auth"
    "pem-store-api/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

// AuthMiddleware exige un Bearer token válido y coloca el cliente en el
// contexto de la petición.
func AuthMiddleware(jwtService *auth.JWTService) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            authHeader := r.Header.Get("Authorization")
            if authHeader == "" {
                log.Printf("Missing Authorization header from %s", r.RemoteAddr)
                utils.SendErrorResponse(w, http.StatusUnauthorized, "Missing authorization header")
                return
            }

            parts := strings.Split(authHeader, " ")
            if len(parts) != 2 || parts[0] != "Bearer" {
                log.Printf("Invalid Authorization header format from %s", r.RemoteAddr)
                utils.SendErrorResponse(w, http.StatusUnauthorized, "Invalid authorization header format")
                return
            }

            token := parts[1]

            user, err := jwtService.ValidateToken(token)
            if err != nil {
                log.Printf("Token validation failed from %s: %v", r.RemoteAddr, err)

                var message string
                switch err {
                case auth.ErrTokenExpired:
                    message = "Token expired"
                case auth.ErrInvalidToken:
                    message = "Invalid token"
                default:
                    message = "Authentication failed"
                }

                utils.SendErrorResponse(w, http.StatusUnauthorized, message)
                return
            }

            ctx := context.WithValue(r.Context(), UserContextKey, user)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// RequireAdmin guards the admin order endpoints.
func RequireAdmin() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            user := GetUserFromContext(r.Context())
            if user == nil {
                utils.SendErrorResponse(w, http.StatusInternalServerError, "User not found in context")
                return
            }

            if !user.IsAdmin {
                log.Printf("Non-admin user attempted to access admin endpoint: %s", user.Email)
                utils.SendErrorResponse(w, http.StatusForbidden, "This endpoint requires an administrator account")
                return
            }

            next.ServeHTTP(w, r)
        })
    }
}

// OptionalAuth adds the customer to the context when a valid token is sent,
// and lets anonymous requests pass through untouched.
func OptionalAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            authHeader := r.Header.Get("Authorization")
            if authHeader == "" {
                next.ServeHTTP(w, r)
                return
            }

            parts := strings.Split(authHeader, " ")
            if len(parts) != 2 || parts[0] != "Bearer" {
                next.ServeHTTP(w, r)
                return
            }

            user, err := jwtService.ValidateToken(parts[1])
            if err != nil {
                next.ServeHTTP(w, r)
                return
            }

            ctx := context.WithValue(r.Context(), UserContextKey, user)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

func GetUserFromContext(ctx context.Context) *models.AuthUser {
    user, ok := ctx.Value(UserContextKey).(*models.AuthUser)
    if !ok {
        return nil
    }
    return user
}

func IsAuthenticated(ctx context.Context) bool {
    return GetUserFromContext(ctx) != nil
}

// AuthLoggingMiddleware logs authenticated traffic with the acting customer.
func AuthLoggingMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()

        wrapper := &responseWriter{ResponseWriter: w, status: http.StatusOK}

        next.ServeHTTP(wrapper, r)

        duration := time.Since(start)
        user := GetUserFromContext(r.Context())

        var who string
        if user != nil {
            who = user.Email
        } else {
            who = "anonymous"
        }

        log.Printf("AUTH %s %s %s %d %v %s",
            r.Method, r.RequestURI, who, wrapper.status, duration, r.UserAgent())
    })
}

type responseWriter struct {
    http.ResponseWriter
    status int
}

func (rw *responseWriter) WriteHeader(code int) {
    rw.status = code
    rw.ResponseWriter.WriteHeader(code)
}
