package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/repaircoin/repaircoin-api/internal/pkg/jwt"
	"github.com/repaircoin/repaircoin-api/internal/pkg/response"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "role"
	ShopIDKey contextKey = "shop_id"
)

// Auth returns middleware that validates JWT
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateAccessToken(parts[1])
			if err != nil {
				if err == jwt.ErrExpiredToken {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			if claims.ShopID != nil {
				ctx = context.WithValue(ctx, ShopIDKey, *claims.ShopID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// GetRole extracts role from context
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(RoleKey).(string); ok {
		return role
	}
	return ""
}

// GetShopID extracts the acting shop ID from context
func GetShopID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ShopIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// RequireRole returns middleware that checks user role
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetRole(r.Context())

			for _, role := range roles {
				if userRole == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, "Insufficient permissions")
		})
	}
}

// RequireCustomer returns middleware that requires customer role
func RequireCustomer() func(http.Handler) http.Handler {
	return RequireRole(jwt.RoleCustomer)
}

// RequireShop returns middleware that requires shop role
func RequireShop() func(http.Handler) http.Handler {
	return RequireRole(jwt.RoleShop)
}

// RequireShopOrAdmin returns middleware that requires shop or admin role
func RequireShopOrAdmin() func(http.Handler) http.Handler {
	return RequireRole(jwt.RoleShop, jwt.RoleAdmin)
}

// RequireAdmin returns middleware that requires admin role
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(jwt.RoleAdmin)
}
