package ai

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"finstress/internal/core"
)

// AllowedExtensions lists the upload extensions accepted for receipts.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "webp"}

var supportedMIME = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// Image is an in-memory upload whose content type was sniffed from its bytes.
type Image struct {
	Data     []byte
	MIMEType string
}

// NewImage sniffs data and rejects anything that is not png, jpeg or webp.
func NewImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("empty upload: %w", core.ErrUnreadableImage)
	}
	mime := http.DetectContentType(data)
	if !supportedMIME[mime] {
		return Image{}, fmt.Errorf("unsupported content type %q: %w", mime, core.ErrUnreadableImage)
	}
	return Image{Data: data, MIMEType: mime}, nil
}

// AllowedFile reports whether filename carries an accepted extension.
func AllowedFile(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}
