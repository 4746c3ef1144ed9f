package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJWT_TTLDependsOnGuestFlag(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	ti := NewTokenIssuer("secret", 72*time.Hour, 6*time.Hour)
	ti.now = func() time.Time { return now }

	_, userExp, err := ti.GenerateJWT(models.User{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, now.Add(72*time.Hour), userExp)

	token, guestExp, err := ti.GenerateJWT(models.User{ID: "g1", IsGuest: true})
	require.NoError(t, err)
	assert.Equal(t, now.Add(6*time.Hour), guestExp)

	claims, err := ti.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "g1", claims.UserID)
	assert.True(t, claims.IsGuest)
}

func TestValidateJWT_Rejects(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	ti := NewTokenIssuer("secret", time.Hour, time.Hour)
	ti.now = func() time.Time { return now }
	token, _, err := ti.GenerateJWT(models.User{ID: "u1"})
	require.NoError(t, err)

	other := NewTokenIssuer("another-secret", time.Hour, time.Hour)
	other.now = ti.now

	expired := NewTokenIssuer("secret", time.Hour, time.Hour)
	expired.now = func() time.Time { return now.Add(2 * time.Hour) }

	tests := []struct {
		name   string
		issuer *TokenIssuer
		token  string
	}{
		{"wrong secret", other, token},
		{"expired", expired, token},
		{"garbage", ti, "not-a-token"},
		{"empty", ti, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.issuer.ValidateJWT(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

type fakeVerifier map[string]models.User

func (f fakeVerifier) Verify(_ context.Context, token string) (models.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return models.User{}, errors.New("bad token")
}

func TestMiddleware(t *testing.T) {
	alice := models.User{ID: "u1", Name: "alice"}
	h := Middleware(fakeVerifier{"good": alice})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(user.Name))
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized, `{"msg":"No token, authorization denied"}` + "\n"},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, `{"msg":"Token is not valid"}` + "\n"},
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK, "alice"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: "good"}) }, http.StatusOK, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}
