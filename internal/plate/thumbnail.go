package plate

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Thumbnail rescales img to the given height, preserving aspect ratio.
// Display front-ends use this for the plate strip above the profile view.
// A non-positive height or an image already at the requested height is
// returned unchanged.
func Thumbnail(img image.Image, height int) image.Image {
	b := img.Bounds()
	if height <= 0 || b.Dy() == 0 || b.Dy() == height {
		return img
	}

	w := int(math.Round(float64(b.Dx()) * float64(height) / float64(b.Dy())))
	if w < 1 {
		w = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
