package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidImage = errors.New("invalid image data")

// Allowed image content types and their stored extensions.
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

const urlExpiry = 7 * 24 * time.Hour

// UploadDataURL decodes a base64 data URL (data:image/png;base64,...),
// stores the bytes under a fresh key below prefix, and returns a durable URL.
func UploadDataURL(ctx context.Context, store Storage, prefix, dataURL string) (string, error) {
	contentType, data, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, contentType)
	}

	key := fmt.Sprintf("%s/%s.%s", prefix, uuid.New().String(), ext)
	if err := store.Write(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	return store.GetURL(ctx, key, urlExpiry)
}

func decodeDataURL(dataURL string) (contentType string, data []byte, err error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, fmt.Errorf("%w: not a data URL", ErrInvalidImage)
	}

	rest := strings.TrimPrefix(dataURL, "data:")
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, fmt.Errorf("%w: missing payload", ErrInvalidImage)
	}

	contentType, encoding, found := strings.Cut(meta, ";")
	if !found || encoding != "base64" {
		return "", nil, fmt.Errorf("%w: expected base64 encoding", ErrInvalidImage)
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	return contentType, data, nil
}
