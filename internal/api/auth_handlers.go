package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/levijcl/Wei-sub002/internal/auth"
)

// AuthHandlers issues operator sessions against the seeded account store.
type AuthHandlers struct {
	operators  *auth.OperatorStore
	jwtService *auth.JWTService
}

func NewAuthHandlers(operators *auth.OperatorStore, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{operators: operators, jwtService: jwtService}
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

// Login handles POST /auth/login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Password == "" {
		respondError(w, "name and password required", http.StatusBadRequest)
		return
	}

	op, err := h.operators.Authenticate(req.Name, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		respondError(w, "login failed", http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken(op.ID, op.Name, op.Role)
	if err != nil {
		respondError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Name:      op.Name,
		Role:      op.Role,
	})
}
