package icons

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"
)

var placeholderGray = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// loadPlaceholder tries each path in order and falls back to a uniform gray
// square.
func loadPlaceholder(paths ...string) image.Image {
	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		img, err := Decode(data)
		if err != nil {
			log.Printf("Warning: placeholder icon %s is not a valid image: %v", p, err)
			continue
		}
		return img
	}
	return grayPlaceholder()
}

func grayPlaceholder() image.Image {
	size := int(IconSize)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: placeholderGray}, image.Point{}, draw.Src)
	return img
}
