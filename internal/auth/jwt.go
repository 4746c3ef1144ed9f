package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/rs/zerolog/log"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims defines the JWT claims structure.
type Claims struct {
	UserID  string `json:"userId"`
	IsGuest bool   `json:"isGuest,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates session tokens.
type TokenIssuer struct {
	key      []byte
	userTTL  time.Duration
	guestTTL time.Duration
	now      func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. Registered users and guests get
// different token lifetimes.
func NewTokenIssuer(secret string, userTTL, guestTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		key:      []byte(secret),
		userTTL:  userTTL,
		guestTTL: guestTTL,
		now:      time.Now,
	}
}

// TTL returns the token lifetime for the given user.
func (ti *TokenIssuer) TTL(user models.User) time.Duration {
	if user.IsGuest {
		return ti.guestTTL
	}
	return ti.userTTL
}

// GenerateJWT creates a new JWT for a given user.
func (ti *TokenIssuer) GenerateJWT(user models.User) (string, time.Time, error) {
	now := ti.now()
	expirationTime := now.Add(ti.TTL(user))
	claims := &Claims{
		UserID:  user.ID,
		IsGuest: user.IsGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expirationTime, nil
}

// ValidateJWT parses and validates a JWT string.
func (ti *TokenIssuer) ValidateJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return ti.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verifier resolves a bearer token into the user it was issued for.
type Verifier interface {
	Verify(ctx context.Context, token string) (models.User, error)
}

type contextKey string

const userContextKey = contextKey("user")

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user stored by the middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// TokenFromRequest extracts the bearer token from the Authorization header,
// falling back to the "token" cookie.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, "Bearer ")
		if len(parts) == 2 {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// Middleware creates a middleware for protecting routes.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				writeUnauthorized(w, "No token, authorization denied")
				return
			}

			user, err := verifier.Verify(r.Context(), tokenStr)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected auth token")
				writeUnauthorized(w, "Token is not valid")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, "{\"msg\":%q}\n", msg)
}
