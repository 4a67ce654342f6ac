package handler

import (
	"net/http"

	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for signup, login and caretaker linkage
type AuthHandler struct {
	authService ports.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{authService: authService, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LinkCaretakerRequest struct {
	CaretakerEmail string `json:"caretaker_email"`
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req ports.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":      "User registered successfully",
		"access_token": result.AccessToken,
		"user": map[string]any{
			"id":        result.User.ID,
			"email":     result.User.Email,
			"full_name": result.User.FullName,
			"user_type": result.User.UserType,
		},
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	profile := result.Profile
	if profile == nil {
		profile = map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"user": map[string]any{
			"id":        result.User.ID,
			"email":     result.User.Email,
			"full_name": result.User.FullName,
			"phone":     result.User.Phone,
			"user_type": result.User.UserType,
			"profile":   profile,
		},
	})
}

// LinkCaretaker handles POST /auth/link-caretaker
func (h *AuthHandler) LinkCaretaker(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req LinkCaretakerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	caretaker, err := h.authService.LinkCaretaker(r.Context(), caller, req.CaretakerEmail)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Caretaker linked successfully",
		"caretaker": map[string]any{
			"id":    caretaker.ID,
			"name":  caretaker.FullName,
			"email": caretaker.Email,
		},
	})
}
