// Package upload stores event cover images with an external image host and
// returns their public URL.
package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
)

// ErrUpload wraps every failure reported by a remote image host.
var ErrUpload = errors.New("image upload failed")

// ErrUnsupported is returned for files that are not images.
var ErrUnsupported = errors.New("unsupported image type")

// Uploader stores an image and returns the URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DetectImage sniffs data and returns its content type and file extension.
func DetectImage(data []byte) (string, string, error) {
	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", "", ErrUnsupported
	}
	return contentType, ext, nil
}

// ReadLimited reads at most limit bytes from r. Larger inputs fail.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errors.New("file too large")
	}
	return data, nil
}

func baseName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	return strings.TrimSuffix(name, path.Ext(name))
}
