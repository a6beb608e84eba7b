// Package plate extracts a continuous intensity profile from a scanned
// photoplate image.
//
// The profile is built once per image: every pixel column is averaged into
// a single inverted-brightness sample (a proxy for optical density), and a
// cubic spline over the column indices makes the profile queryable at
// sub-pixel positions.
package plate

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var (
	// ErrImageLoad indicates the plate image could not be opened or decoded.
	ErrImageLoad = errors.New("cannot load plate image")

	// ErrEmptyImage indicates the decoded image has no pixels.
	ErrEmptyImage = errors.New("plate image is empty")
)

// Signal is the intensity profile of one plate image. It is immutable
// after construction and discarded when a new plate is selected.
type Signal struct {
	width   int
	samples []float64
	cubic   *interp.NaturalCubic // nil for single-column plates
}

// Load opens and decodes the image at path and builds its Signal.
func Load(path string) (*Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageLoad, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrImageLoad, path, err)
	}

	return Build(img)
}

// Build computes the intensity profile of img. Each sample is
// 256 − mean(column brightness), with multi-channel pixels averaged
// across R, G and B first. Build is deterministic and has no side
// effects.
func Build(img image.Image) (*Signal, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrImageLoad)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, ErrEmptyImage
	}

	samples := make([]float64, w)
	column := make([]float64, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			column[y] = float64((r>>8)+(g>>8)+(b>>8)) / 3
		}
		samples[x] = 256 - stat.Mean(column, nil)
	}

	s := &Signal{width: w, samples: samples}
	if w >= 2 {
		xs := make([]float64, w)
		for i := range xs {
			xs[i] = float64(i)
		}
		var nc interp.NaturalCubic
		if err := nc.Fit(xs, samples); err != nil {
			return nil, fmt.Errorf("fit intensity spline: %w", err)
		}
		s.cubic = &nc
	}
	return s, nil
}

// Width returns the number of pixel columns in the source image.
func (s *Signal) Width() int {
	return s.width
}

// Samples returns a copy of the per-column intensity samples.
func (s *Signal) Samples() []float64 {
	out := make([]float64, len(s.samples))
	copy(out, s.samples)
	return out
}

// Intensity evaluates the profile at pixel position x. Between columns the
// value follows a natural cubic spline through the samples; outside
// [0, Width−1] the spline extrapolates linearly from the boundary
// derivative, and the result carries no physical meaning there.
func (s *Signal) Intensity(x float64) float64 {
	if s.cubic == nil {
		return s.samples[0]
	}
	return s.cubic.Predict(x)
}

// SampleRange evaluates the profile on a regular grid over [lo, hi] with
// the given step and returns the grid positions and values. step must be
// positive; otherwise SampleRange returns nil slices.
func (s *Signal) SampleRange(lo, hi, step float64) (xs, ys []float64) {
	if step <= 0 || hi < lo {
		return nil, nil
	}
	n := int((hi-lo)/step) + 1
	xs = make([]float64, 0, n)
	ys = make([]float64, 0, n)
	for x := lo; x <= hi; x += step {
		xs = append(xs, x)
		ys = append(ys, s.Intensity(x))
	}
	return xs, ys
}

// MirrorRange samples the profile on [center−halfWidth, center+halfWidth]
// and additionally returns the profile reflected about center. Overlaying
// direct and mirrored traces makes asymmetry around a candidate line
// position visible to the operator.
func (s *Signal) MirrorRange(center, halfWidth, step float64) (xs, direct, mirrored []float64) {
	xs, direct = s.SampleRange(center-halfWidth, center+halfWidth, step)
	mirrored = make([]float64, len(xs))
	for i, x := range xs {
		mirrored[i] = s.Intensity(2*center - x)
	}
	return xs, direct, mirrored
}
