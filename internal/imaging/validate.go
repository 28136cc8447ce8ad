// Package imaging provides upload validation for raster images.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// Registered raster decoders for image.DecodeConfig sniffing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/gridsnap/gridsnap/internal/domain"
)

// Validator checks uploads against the configured allow-list and size bound
// before any network call is made.
type Validator struct {
	maxBytes     int64
	allowedTypes map[string]bool
}

// NewValidator creates a validator for the given size bound and content types.
func NewValidator(maxBytes int64, allowedTypes []string) *Validator {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}

	return &Validator{
		maxBytes:     maxBytes,
		allowedTypes: allowed,
	}
}

// ValidateUpload verifies that the payload is a well-formed raster image of
// an allowed type within the size bound. All failures are ErrInvalidImage.
func (v *Validator) ValidateUpload(data []byte, contentType string) error {
	if len(data) == 0 {
		return domain.InvalidImageError("empty upload", nil)
	}

	if int64(len(data)) > v.maxBytes {
		return domain.InvalidImageError(
			fmt.Sprintf("upload of %d bytes exceeds limit of %d bytes", len(data), v.maxBytes), nil)
	}

	// The declared type is checked before the bytes: a text/plain upload
	// must be rejected without decoding anything.
	mediaType := normalizeMediaType(contentType)
	if !v.allowedTypes[mediaType] {
		return domain.InvalidImageError(
			fmt.Sprintf("unsupported content type %q", contentType), nil)
	}

	format, err := sniffFormat(data)
	if err != nil {
		return domain.InvalidImageError("payload does not decode as a raster image", err)
	}

	if !v.allowedTypes["image/"+format] {
		return domain.InvalidImageError(
			fmt.Sprintf("decoded format %q is not allowed", format), nil)
	}

	return nil
}

// MaxBytes returns the configured upload size bound.
func (v *Validator) MaxBytes() int64 {
	return v.maxBytes
}

// sniffFormat decodes only the image header and returns the detected format
// name (png, jpeg, gif, webp).
func sniffFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return format, nil
}

// normalizeMediaType lowercases the content type and strips any parameters
// (e.g. "image/png; charset=binary" -> "image/png").
func normalizeMediaType(contentType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	return mediaType
}
