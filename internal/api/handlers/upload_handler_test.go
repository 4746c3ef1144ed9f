package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeUploader struct {
	filename string
	data     []byte
	err      error
}

func (f *fakeUploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	f.filename, f.data = filename, data
	if f.err != nil {
		return "", f.err
	}
	return "https://img.example/" + filename, nil
}

func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestUploadHandler(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		data   []byte
		status int
		body   string
	}{
		{"png", "image", pngHeader, http.StatusOK, `{"url":"https://img.example/cover.png"}`},
		{"missing file", "other", pngHeader, http.StatusBadRequest, `{"msg":"No file uploaded"}`},
		{"not an image", "image", []byte("plain text"), http.StatusBadRequest, `{"msg":"unsupported image type"}`},
		{"too large", "image", bytes.Repeat([]byte{0x89}, 64), http.StatusRequestEntityTooLarge, `{"msg":"File too large"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := &fakeUploader{}
			h := NewUploadHandler(uploader, 32)
			w := httptest.NewRecorder()

			h.Upload(w, multipartRequest(t, tt.field, "cover.png", tt.data))

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.data, uploader.data)
			} else {
				assert.Nil(t, uploader.data)
			}
		})
	}
}

func TestUploadHandler_Disabled(t *testing.T) {
	w := httptest.NewRecorder()

	NewUploadHandler(nil, 32).Upload(w, multipartRequest(t, "image", "cover.png", pngHeader))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUploadHandler_BodyOverLimit(t *testing.T) {
	uploader := &fakeUploader{}
	h := NewUploadHandler(uploader, 32)
	w := httptest.NewRecorder()

	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 2<<20)...)
	h.Upload(w, multipartRequest(t, "image", "cover.png", data))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"msg":"File too large"}`, w.Body.String())
	assert.Nil(t, uploader.data)
}
