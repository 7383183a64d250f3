// Package imaging converts images to grayscale PNG.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// MaxInputBytes caps decoded input size.
	MaxInputBytes = 20 << 20

	// MaxPixels caps width*height, checked from the header before decoding.
	MaxPixels = 50_000_000
)

var (
	// ErrEmptyImage is returned for missing image data.
	ErrEmptyImage = errors.New("image data is required")

	// ErrImageTooLarge is returned when the image dimensions exceed MaxPixels.
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// GrayscaleBase64 decodes base64 image data (PNG, JPEG or GIF), converts it to
// 8-bit grayscale and returns it as base64 PNG.
func GrayscaleBase64(data string) (string, error) {
	data = strings.TrimSpace(data)
	// tolerate data URLs
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}
	if data == "" {
		return "", ErrEmptyImage
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("invalid base64 image data: %w", err)
	}
	if len(raw) > MaxInputBytes {
		return "", fmt.Errorf("image exceeds %d bytes", MaxInputBytes)
	}

	out, err := Grayscale(raw)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// Grayscale converts encoded image bytes (PNG, JPEG, GIF, BMP or TIFF) to a
// grayscale PNG. JPEG EXIF orientation is applied.
func Grayscale(raw []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("cannot identify image file: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("cannot identify image file: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Grayscale(src), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
