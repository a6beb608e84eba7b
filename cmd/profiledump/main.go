// Command profiledump prints the intensity profile extracted from a plate
// image, one "position intensity" pair per row, for external plotting.
package main

import (
	"flag"
	"fmt"
	"os"

	"photoplate/internal/plate"
)

func main() {
	imagePath := flag.String("image", "", "Path to the plate image")
	step := flag.Float64("step", 1.0, "Sampling step in pixels")
	from := flag.Float64("from", 0, "First position to sample")
	to := flag.Float64("to", -1, "Last position to sample (default: plate width - 1)")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: profiledump -image <plate> [-step N] [-from N] [-to N]")
		os.Exit(1)
	}

	sig, err := plate.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load plate: %v\n", err)
		os.Exit(1)
	}

	hi := *to
	if hi < 0 {
		hi = float64(sig.Width() - 1)
	}

	xs, ys := sig.SampleRange(*from, hi, *step)
	if xs == nil {
		fmt.Fprintf(os.Stderr, "Invalid sampling range %g..%g step %g\n", *from, hi, *step)
		os.Exit(1)
	}
	for i := range xs {
		fmt.Printf("%.4f %.3f\n", xs[i], ys[i])
	}
}
