package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/authsvc/internal/services"
	"github.com/jjudge-oj/authsvc/types"
	"github.com/rs/zerolog/log"
)

// TokenVerifier decodes a bearer token into the identity it asserts.
type TokenVerifier interface {
	Verify(token string) (types.Identity, error)
}

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	authService *services.AuthService
	verifier    TokenVerifier
	now         func() time.Time
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, verifier TokenVerifier) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		verifier:    verifier,
		now:         time.Now,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService, verifier TokenVerifier) {
	handler := NewAuthHandler(authService, verifier)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/password-reset", handler.RequestPasswordReset)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(verifier))
		r.Get("/profile", handler.Profile)
		r.Get("/protected", handler.Protected)
	})
}

// RequireAuth verifies the bearer token and injects the identity into the
// request context. It never consults the user directory.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeServiceError(w, r, services.ErrMissingCredential)
				return
			}

			identity, err := verifier.Verify(tokenString)
			if err != nil {
				writeServiceError(w, r, services.FromTokenError(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateIdentity) {
			log.Info().Str("email", services.NormalizeEmail(req.Email)).Msg("Registration rejected: email taken")
		}
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: "user registered successfully",
		User:    user,
	})
}

// Login verifies credentials and returns a JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredential) {
			log.Warn().Str("email", services.NormalizeEmail(req.Email)).Msg("Failed authentication attempt")
		}
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message:     "login successful",
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt.UTC(),
		User: LoginUser{
			ID:    result.User.ID,
			Name:  result.User.Name,
			Email: result.User.Email,
		},
	})
}

// Profile returns the live record of the authenticated user.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, services.ErrMissingCredential)
		return
	}

	user, err := h.authService.Profile(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{
		Message: "profile retrieved successfully",
		User:    user,
	})
}

// Protected is a sample guarded route answered from token claims alone.
func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, services.ErrMissingCredential)
		return
	}

	writeJSON(w, http.StatusOK, ProtectedResponse{
		Message:   fmt.Sprintf("Hello %s! This is a protected route.", identity.Name),
		Timestamp: h.now().UTC(),
		UserID:    identity.Subject,
	})
}

// RequestPasswordReset accepts a reset request. The response is identical
// whether or not the email is registered.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, MessageResponse{
		Message: "if the address is registered, reset instructions will follow",
	})
}

type RegisterResponse struct {
	Message string           `json:"message"`
	User    types.PublicUser `json:"user"`
}

type LoginUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Message     string    `json:"message"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        LoginUser `json:"user"`
}

type ProfileResponse struct {
	Message string           `json:"message"`
	User    types.PublicUser `json:"user"`
}

type ProtectedResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
