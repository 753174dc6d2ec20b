package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Tonisark/ActressManager/logging"
	"github.com/Tonisark/ActressManager/models"
	"github.com/Tonisark/ActressManager/repository"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// AdminContextKey is the key used to store the admin in the request context.
	AdminContextKey ContextKey = "admin"
)

// AdminFromContext returns the authenticated admin, if any.
func AdminFromContext(ctx context.Context) (*models.Admin, bool) {
	admin, ok := ctx.Value(AdminContextKey).(*models.Admin)
	return admin, ok && admin != nil
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket upgrades, so a token query parameter is accepted as well.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, nil
		}
		return "", fmt.Errorf("authorization header required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("authorization header format must be Bearer {token}")
	}
	return parts[1], nil
}

// AuthMiddleware verifies the JWT and puts the admin it names into the
// request context.
func AuthMiddleware(admins repository.AdminRepository, secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			adminID, err := strconv.ParseUint(claims.Subject, 10, 64)
			if err != nil {
				logging.FromContext(r.Context()).Warn("malformed token subject", "subject", claims.Subject, "error", err)
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "invalid admin ID in token")
				return
			}

			admin, err := admins.GetByID(uint(adminID))
			if err != nil {
				// deleted after the token was issued
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "admin not found")
				return
			}

			ctx := context.WithValue(r.Context(), AdminContextKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
