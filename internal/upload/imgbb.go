package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultImgBBEndpoint = "https://api.imgbb.com/1/upload"

// imgbbResponse is the subset of the imgbb API reply we use.
type imgbbResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ImgBB uploads images to imgbb.com.
type ImgBB struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewImgBB creates an ImgBB uploader. An empty endpoint selects the public API.
func NewImgBB(apiKey, endpoint string) *ImgBB {
	if endpoint == "" {
		endpoint = defaultImgBBEndpoint
	}
	return &ImgBB{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload sends data base64-encoded in the "image" form field.
func (c *ImgBB) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("image", base64.StdEncoding.EncodeToString(data)); err != nil {
		return "", fmt.Errorf("failed to build form: %w", err)
	}
	if name := baseName(filename); name != "" && name != "." {
		if err := writer.WriteField("name", name); err != nil {
			return "", fmt.Errorf("failed to build form: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build form: %w", err)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid imgbb endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	var parsed imgbbResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Error().Int("status", resp.StatusCode).Bytes("body", raw).Msg("Unreadable imgbb response")
		return "", fmt.Errorf("%w: unreadable response (status %d)", ErrUpload, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !parsed.Success || parsed.Data.URL == "" {
		return "", fmt.Errorf("%w: status %d: %s", ErrUpload, resp.StatusCode, parsed.Error.Message)
	}
	return parsed.Data.URL, nil
}
