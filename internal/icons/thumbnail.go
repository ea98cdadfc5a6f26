package icons

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// IconSize is the largest width or height of a stored icon.
const IconSize uint = 128

// Decode decodes any registered image format and shrinks it to fit IconSize.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return Normalize(img), nil
}

// Normalize scales img down, keeping its aspect ratio, so neither side
// exceeds IconSize. Smaller images are returned unchanged.
func Normalize(img image.Image) image.Image {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if uint(width) <= IconSize && uint(height) <= IconSize {
		return img
	}
	if height > width {
		return resize.Resize(0, IconSize, img, resize.Lanczos3)
	}
	return resize.Resize(IconSize, 0, img, resize.Lanczos3)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
