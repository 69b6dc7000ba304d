// Package qrcode renders short URLs as PNG data URLs.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"

	goqr "github.com/skip2/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

// Renderer encodes content into a QR code image.
type Renderer struct {
	size  int
	level goqr.RecoveryLevel
}

// New returns a Renderer producing size×size images with medium error correction.
func New(size int) *Renderer {
	return &Renderer{size: size, level: goqr.Medium}
}

// DataURL returns content as a base64 PNG data URL.
func (r *Renderer) DataURL(content string) (string, error) {
	if content == "" {
		return "", errors.New("qrcode: empty content")
	}
	png, err := goqr.Encode(content, r.level, r.size)
	if err != nil {
		return "", fmt.Errorf("qrcode: encode: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
