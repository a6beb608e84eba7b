// Package lines stores measured spectral line positions and persists them
// to the flat-text line file format.
package lines

import (
	"errors"
	"math"
)

// DefaultResolution is the assumed scan resolution in px/mm (2400 DPI).
const DefaultResolution = 2400.0 / 25.4

// MatchTolerance is the pixel window within which two positions are
// considered the same spectral line. Interactive picks are sub-pixel
// imprecise, so exact float equality is the wrong comparison.
const MatchTolerance = 0.1

// ErrNoSuchLine indicates a comment was requested for a position that is
// not an exact stored key.
var ErrNoSuchLine = errors.New("no line at position")

// Line is a single measured spectral line.
type Line struct {
	Position  float64 // pixel offset along the plate
	Intensity float64 // profile value at time of insertion
	Comment   string
}

// Store holds measured lines keyed by pixel position, plus the two
// calibration scalars applied when converting to physical units at the
// serialization boundary. Entries keep insertion order, which FindNear
// uses as its deterministic scan order.
type Store struct {
	entries    []Line
	resolution float64 // px per mm
	offset     float64 // mm
}

// NewStore returns an empty store with default calibration.
func NewStore() *Store {
	return &Store{resolution: DefaultResolution}
}

// Add inserts a line at pos, or overwrites the intensity of an existing
// line at exactly pos. Any comment on an overwritten line is kept. Nearby
// positions are not merged; callers wanting duplicate prevention resolve
// them through FindNear first.
func (s *Store) Add(pos, intensity float64) {
	for i := range s.entries {
		if s.entries[i].Position == pos {
			s.entries[i].Intensity = intensity
			return
		}
	}
	s.entries = append(s.entries, Line{Position: pos, Intensity: intensity})
}

// FindNear returns the first stored position, in insertion order, whose
// absolute difference from pos is strictly less than tol.
func (s *Store) FindNear(pos, tol float64) (float64, bool) {
	for _, e := range s.entries {
		if math.Abs(e.Position-pos) < tol {
			return e.Position, true
		}
	}
	return 0, false
}

// RemoveNear removes every line within tol of pos, comments included, and
// returns the number of lines removed. Zero means nothing matched.
func (s *Store) RemoveNear(pos, tol float64) int {
	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if math.Abs(e.Position-pos) < tol {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed
}

// SetComment overwrites the comment of the line stored at exactly pos.
// Near-matches must be resolved to exact keys via FindNear first.
func (s *Store) SetComment(pos float64, text string) error {
	for i := range s.entries {
		if s.entries[i].Position == pos {
			s.entries[i].Comment = text
			return nil
		}
	}
	return ErrNoSuchLine
}

// Comment returns the comment of the line stored at exactly pos, or the
// empty string when no such line exists.
func (s *Store) Comment(pos float64) string {
	for _, e := range s.entries {
		if e.Position == pos {
			return e.Comment
		}
	}
	return ""
}

// Positions returns all stored pixel positions in insertion order. Callers
// needing sorted output sort the result themselves.
func (s *Store) Positions() []float64 {
	out := make([]float64, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Position
	}
	return out
}

// Intensity returns the stored intensity of the line at exactly pos and
// whether such a line exists.
func (s *Store) Intensity(pos float64) (float64, bool) {
	for _, e := range s.entries {
		if e.Position == pos {
			return e.Intensity, true
		}
	}
	return 0, false
}

// Len returns the number of stored lines.
func (s *Store) Len() int {
	return len(s.entries)
}

// Resolution returns the calibration resolution in px/mm.
func (s *Store) Resolution() float64 {
	return s.resolution
}

// SetResolution updates the calibration resolution. Stored positions stay
// in pixel units; the new value applies to subsequent Save calls only.
func (s *Store) SetResolution(v float64) {
	s.resolution = v
}

// Offset returns the calibration offset in mm.
func (s *Store) Offset() float64 {
	return s.offset
}

// SetOffset updates the calibration offset for subsequent Save calls.
func (s *Store) SetOffset(v float64) {
	s.offset = v
}

// Physical converts a pixel position to a physical position using the
// current calibration.
func (s *Store) Physical(px float64) float64 {
	return px/s.resolution + s.offset
}
