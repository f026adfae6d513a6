package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/pose-coach/internal/config"
	"github.com/jonathan/pose-coach/internal/types"
)

// maxLoginBody bounds the login request body.
const maxLoginBody = 4 << 10

// AuthHandler handles author login.
type AuthHandler struct {
	credentials *config.AuthorCredentials
	passwords   *config.PasswordConfig
	jwtService  *JWTService
	validator   *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(credentials *config.AuthorCredentials, passwords *config.PasswordConfig, jwtService *JWTService) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		passwords:   passwords,
		jwtService:  jwtService,
		validator:   validator.New(),
	}
}

// Login verifies the author's password and returns a signed token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.credentials.Enabled() || h.jwtService == nil {
		writeError(w, &ErrLoginDisabled{})
		return
	}

	var req types.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		writeError(w, &ErrValidation{Field: "body", Message: "invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeError(w, extractValidationErrors(err))
		return
	}

	if !h.credentials.Check(h.passwords, req.Username, req.Password) {
		slog.WarnContext(r.Context(), "author login failed", "username", req.Username)
		writeError(w, &ErrInvalidCredentials{})
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken(req.Username)
	if err != nil {
		writeError(w, fmt.Errorf("failed to generate token: %w", err))
		return
	}

	slog.InfoContext(r.Context(), "author logged in", "username", req.Username)
	writeJSON(w, http.StatusOK, types.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	})
}

// extractValidationErrors converts the first validator error into an ErrValidation.
func extractValidationErrors(err error) *ErrValidation {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "request", Message: "invalid request"}
}
