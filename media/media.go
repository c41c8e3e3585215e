// Package media keeps generated images on local disk and hands out the URLs
// the router serves them under.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// URLPrefix is the route generated images are served from.
const URLPrefix = "/media/"

// MaxImageBytes caps a decoded image.
const MaxImageBytes = 20 * 1024 * 1024

var (
	// ErrNotDataURL is returned for values that are not base64 data URLs.
	ErrNotDataURL = errors.New("not a base64 data url")
	// ErrUnsupportedType is returned for data URLs that are not png, jpeg or webp.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned when the decoded image exceeds MaxImageBytes.
	ErrTooLarge = errors.New("image exceeds size limit")
)

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// DiskStore writes images below dir, one folder per day.
type DiskStore struct {
	dir     string
	baseURL string
	now     func() time.Time
}

// NewDiskStore creates a store rooted at dir. baseURL, when set, turns the
// returned paths into absolute URLs (e.g. https://nails.example.com).
func NewDiskStore(dir, baseURL string, now func() time.Time) *DiskStore {
	if now == nil {
		now = time.Now
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"), now: now}
}

// Dir is the directory files are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// IsDataURL reports whether raw is an inline data: URL.
func IsDataURL(raw string) bool {
	return strings.HasPrefix(raw, "data:")
}

// SaveDataURL decodes an inline image and returns the URL it is served under.
func (s *DiskStore) SaveDataURL(ctx context.Context, raw string) (string, error) {
	data, ext, err := decodeDataURL(raw)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	day := s.now().UTC().Format("2006/01/02")
	dir := filepath.Join(s.dir, filepath.FromSlash(day))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return s.baseURL + URLPrefix + day + "/" + name, nil
}

func decodeDataURL(raw string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !IsDataURL(raw) || !ok {
		return nil, "", ErrNotDataURL
	}
	mimeType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return nil, "", ErrNotDataURL
	}
	ext, ok := extensions[strings.ToLower(mimeType)]
	if !ok {
		return nil, "", ErrUnsupportedType
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+2 {
		return nil, "", ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, "", ErrTooLarge
	}
	return data, ext, nil
}
