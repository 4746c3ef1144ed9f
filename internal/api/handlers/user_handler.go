package handlers

import (
	"net/http"

	"github.com/isdelr/eventhub-be/internal/auth"
	"github.com/isdelr/eventhub-be/internal/services"
)

// UserHandler handles HTTP requests for authentication.
type UserHandler struct {
	service       services.UserServiceProvider
	secureCookies bool
}

// NewUserHandler creates a new UserHandler. secureCookies marks the session
// cookie Secure and should be set in production.
func NewUserHandler(service services.UserServiceProvider, secureCookies bool) *UserHandler {
	return &UserHandler{service: service, secureCookies: secureCookies}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload services.RegisterInput
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, r, err, "Invalid registration request")
		return
	}

	result, err := h.service.Register(r.Context(), payload)
	if err != nil {
		respondError(w, r, err, "Failed to register user")
		return
	}
	h.setSession(w, result)
	respondJSON(w, http.StatusCreated, result)
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, r, err, "Invalid login request")
		return
	}

	result, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		respondError(w, r, err, "Failed authentication attempt")
		return
	}
	h.setSession(w, result)
	respondJSON(w, http.StatusOK, result)
}

// GuestLogin creates a temporary guest account.
func (h *UserHandler) GuestLogin(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GuestLogin(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to create guest account")
		return
	}
	h.setSession(w, result)
	respondJSON(w, http.StatusOK, result)
}

// Check returns the user behind the current token.
func (h *UserHandler) Check(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondMsg(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *UserHandler) setSession(w http.ResponseWriter, result services.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    result.Token,
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}
