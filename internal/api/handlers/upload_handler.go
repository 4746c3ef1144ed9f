package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/eventhub-be/internal/upload"
)

// UploadHandler proxies event images to the configured image host.
type UploadHandler struct {
	uploader upload.Uploader
	maxBytes int64
}

// NewUploadHandler creates a new UploadHandler. A nil uploader disables uploads.
func NewUploadHandler(uploader upload.Uploader, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploader: uploader, maxBytes: maxBytes}
}

// Upload accepts a multipart "image" file and returns its public URL.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		respondMsg(w, http.StatusServiceUnavailable, "Uploads are disabled")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondMsg(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		respondMsg(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := upload.ReadLimited(file, h.maxBytes)
	if err != nil {
		respondMsg(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	if _, _, err := upload.DetectImage(data); err != nil {
		respondError(w, r, err, "Rejected upload")
		return
	}

	url, err := h.uploader.Upload(r.Context(), header.Filename, data)
	if err != nil {
		respondError(w, r, err, "Failed to upload image")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}
