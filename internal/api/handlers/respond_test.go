package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isdelr/eventhub-be/internal/services"
	"github.com/isdelr/eventhub-be/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: title is required", services.ErrInvalidInput), http.StatusBadRequest, "invalid input: title is required"},
		{services.ErrUnauthorized, http.StatusUnauthorized, "Not authorized"},
		{fmt.Errorf("%w: guests cannot create events", services.ErrForbidden), http.StatusForbidden, "Guests cannot perform this action"},
		{services.ErrNotFound, http.StatusNotFound, "Not found"},
		{services.ErrEventClosed, http.StatusConflict, "Event has already taken place"},
		{services.ErrConflict, http.StatusConflict, "Already exists"},
		{upload.ErrUnsupported, http.StatusBadRequest, "unsupported image type"},
		{fmt.Errorf("%w: quota exceeded", upload.ErrUpload), http.StatusBadGateway, "Image upload failed"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "Server error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)

			respondError(w, r, tt.err, "test")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			var body msgResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body.Msg)
		})
	}
}

func TestOriginChecker(t *testing.T) {
	request := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	anyOrigin := originChecker(nil)
	assert.True(t, anyOrigin(request("https://evil.example")))

	wildcard := originChecker([]string{"*"})
	assert.True(t, wildcard(request("https://evil.example")))

	strict := originChecker([]string{"https://app.example"})
	assert.True(t, strict(request("https://app.example")))
	assert.True(t, strict(request("")))
	assert.False(t, strict(request("https://evil.example")))
}
