package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Tonisark/ActressManager/models"
	"github.com/Tonisark/ActressManager/repository"
)

const tokenIssuer = "actressmanager"

type AuthHandler struct {
	Admins     repository.AdminRepository
	Secret     []byte
	Expiration time.Duration
}

func NewAuthHandler(admins repository.AdminRepository, secret string, expirationHours int) *AuthHandler {
	if expirationHours <= 0 {
		expirationHours = 24
	}
	return &AuthHandler{
		Admins:     admins,
		Secret:     []byte(secret),
		Expiration: time.Duration(expirationHours) * time.Hour,
	}
}

type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	Admin     models.Admin `json:"admin"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// IssueToken signs a token for admin that expires after h.Expiration.
func (h *AuthHandler) IssueToken(admin *models.Admin, now time.Time) (string, time.Time, error) {
	expirationTime := now.Add(h.Expiration)
	claims := &jwt.RegisteredClaims{
		Subject:   fmt.Sprint(admin.ID),
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.Secret)
	return signed, expirationTime, err
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "invalid request payload")
		return
	}

	admin, err := h.Admins.GetByUsername(payload.Username)
	if err != nil || !admin.CheckPassword(payload.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "invalid username or password")
		return
	}

	tokenString, expiresAt, err := h.IssueToken(admin, time.Now())
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: tokenString, Admin: *admin, ExpiresAt: expiresAt})
}

// CurrentAdmin returns the admin behind the request token.
func (h *AuthHandler) CurrentAdmin(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "not logged in")
		return
	}
	writeJSON(w, http.StatusOK, admin)
}
