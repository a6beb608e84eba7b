// Package session coordinates the intensity extractor and the line store
// on behalf of a display front-end.
//
// The session owns the current plate signal and line store and exposes the
// operations a front-end relays from operator actions: selecting a plate,
// probing the profile, ruling and deleting lines, commenting, calibration,
// and save/load. The front-end owns all interaction state (probe position,
// zoom, scroll); the session holds none of it. Everything here is
// single-threaded by design: operations run synchronously in response to
// one operator action at a time.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"photoplate/internal/lines"
	"photoplate/internal/plate"
)

var (
	// ErrNoPlate indicates an operation that needs a plate image before
	// one has been selected.
	ErrNoPlate = errors.New("no plate image loaded")

	// ErrDuplicateLine indicates an add within the match tolerance of an
	// existing line.
	ErrDuplicateLine = errors.New("line already recorded")

	// ErrOutOfBounds indicates an add outside the plate width.
	ErrOutOfBounds = errors.New("position outside plate")
)

// EventType identifies session events a front-end can subscribe to.
type EventType int

const (
	EventPlateLoaded EventType = iota
	EventLinesChanged
	EventLinesSaved
	EventLinesLoaded
	EventCalibrationChanged
)

// EventListener is called synchronously when an event occurs.
type EventListener func(data interface{})

// Session holds the working state for one plate analysis.
type Session struct {
	signal    *plate.Signal
	store     *lines.Store
	imagePath string
	listeners map[EventType][]EventListener
}

// New creates an empty session with default calibration.
func New() *Session {
	return &Session{
		store:     lines.NewStore(),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.listeners[event] = append(s.listeners[event], listener)
}

func (s *Session) emit(event EventType, data interface{}) {
	for _, listener := range s.listeners[event] {
		listener(data)
	}
}

// SelectImage builds a fresh signal from the image at path, replacing any
// previously loaded plate. Recorded lines are kept; they belong to the
// store, not the image.
func (s *Session) SelectImage(path string) error {
	sig, err := plate.Load(path)
	if err != nil {
		return err
	}
	s.signal = sig
	s.imagePath = path
	s.emit(EventPlateLoaded, path)
	return nil
}

// Signal returns the current plate signal, or nil before SelectImage.
func (s *Session) Signal() *plate.Signal {
	return s.signal
}

// Store returns the session's line store.
func (s *Session) Store() *lines.Store {
	return s.store
}

// Probe evaluates the intensity profile at the given pixel position.
// Out-of-bounds positions are allowed and extrapolate.
func (s *Session) Probe(pos float64) (float64, error) {
	if s.signal == nil {
		return 0, ErrNoPlate
	}
	return s.signal.Intensity(pos), nil
}

// AddLine records a line at pos with the profile value sampled there.
// Positions within the match tolerance of an existing line are rejected
// with ErrDuplicateLine; positions outside (0, width) are rejected with
// ErrOutOfBounds.
func (s *Session) AddLine(pos float64) error {
	if s.signal == nil {
		return ErrNoPlate
	}
	if pos <= 0 || pos >= float64(s.signal.Width()) {
		return fmt.Errorf("%w: %.4f", ErrOutOfBounds, pos)
	}
	if near, ok := s.store.FindNear(pos, lines.MatchTolerance); ok {
		return fmt.Errorf("%w: %.4f", ErrDuplicateLine, near)
	}
	s.store.Add(pos, s.signal.Intensity(pos))
	s.emit(EventLinesChanged, pos)
	return nil
}

// DeleteLine removes every line within the match tolerance of pos and
// returns how many were removed. Zero is a silent no-op.
func (s *Session) DeleteLine(pos float64) int {
	removed := s.store.RemoveNear(pos, lines.MatchTolerance)
	if removed > 0 {
		s.emit(EventLinesChanged, pos)
	}
	return removed
}

// CommentLine attaches text to the line nearest pos, resolving the near
// match to its exact key first. Returns lines.ErrNoSuchLine when no line
// is within the match tolerance.
func (s *Session) CommentLine(pos float64, text string) error {
	key, ok := s.store.FindNear(pos, lines.MatchTolerance)
	if !ok {
		return lines.ErrNoSuchLine
	}
	if err := s.store.SetComment(key, text); err != nil {
		return err
	}
	s.emit(EventLinesChanged, key)
	return nil
}

// SaveLines writes the store to path.
func (s *Session) SaveLines(path string) error {
	if err := s.store.Save(path); err != nil {
		return err
	}
	s.emit(EventLinesSaved, path)
	return nil
}

// LoadLines replaces the store, calibration included, with the contents of
// the file at path. On failure the store is left unchanged.
func (s *Session) LoadLines(path string) error {
	if err := s.store.Load(path); err != nil {
		return err
	}
	s.emit(EventLinesLoaded, path)
	return nil
}

// DefaultLinesPath derives the conventional line file path for the current
// plate image: the image path with its extension replaced by "_lines.dat".
// Empty before SelectImage.
func (s *Session) DefaultLinesPath() string {
	if s.imagePath == "" {
		return ""
	}
	base := strings.TrimSuffix(s.imagePath, filepath.Ext(s.imagePath))
	return base + "_lines.dat"
}

// SetDPI records the scan resolution from a DPI value, converting to
// px/mm. Takes effect for subsequent saves only.
func (s *Session) SetDPI(dpi float64) {
	s.store.SetResolution(dpi / 25.4)
	s.emit(EventCalibrationChanged, dpi)
}

// SetOffset records the physical offset in mm for subsequent saves.
func (s *Session) SetOffset(v float64) {
	s.store.SetOffset(v)
	s.emit(EventCalibrationChanged, v)
}

// PhysicalPosition converts a pixel position to physical units with the
// current calibration, for position readouts in the front-end.
func (s *Session) PhysicalPosition(px float64) float64 {
	return s.store.Physical(px)
}
