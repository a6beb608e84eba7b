package lines

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedFile indicates a line file whose header or data rows fail to
// parse.
var ErrMalformedFile = errors.New("malformed line file")

const (
	resolutionLabel = "Plate Resolution:"
	offsetLabel     = "Plate Offset:"
	columnHeader    = "Position | Intensity | Comments"
)

// Save writes the store to path in the flat-text line file format. Rows
// are written in ascending position order; positions are converted to
// physical units with the current calibration. The fixed-width row layout
// is an interchange format, not a display format: Load and foreign tools
// both depend on it.
//
// Comments are written verbatim, but only the first whitespace-delimited
// token survives a reload; comments with embedded whitespace do not
// round-trip.
func (s *Store) Save(path string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %.3f px/mm\n", resolutionLabel, s.resolution)
	fmt.Fprintf(&buf, "%s %g mm\n", offsetLabel, s.offset)
	fmt.Fprintf(&buf, " %s\n", columnHeader)

	sorted := append([]Line(nil), s.entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	for _, ln := range sorted {
		fmt.Fprintf(&buf, " %8.4f  %10.3f   %s\n", s.Physical(ln.Position), ln.Intensity, ln.Comment)
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Load replaces the entire store, calibration included, with the parsed
// contents of the file at path. Physical positions are converted back to
// pixels using the resolution and offset read from the file's own header,
// not the store's current calibration. On any parse failure the store is
// left untouched.
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	loaded, err := parse(f)
	if err != nil {
		return err
	}

	*s = *loaded
	return nil
}

func parse(r io.Reader) (*Store, error) {
	sc := bufio.NewScanner(r)

	res, err := headerScalar(sc, resolutionLabel)
	if err != nil {
		return nil, err
	}
	off, err := headerScalar(sc, offsetLabel)
	if err != nil {
		return nil, err
	}
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != columnHeader {
		return nil, fmt.Errorf("%w: missing column header line", ErrMalformedFile)
	}

	loaded := NewStore()
	loaded.resolution = res
	loaded.offset = off

	row := 3
	for sc.Scan() {
		row++
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: row %d: need position and intensity fields", ErrMalformedFile, row)
		}
		phys, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: position %q: %v", ErrMalformedFile, row, fields[0], err)
		}
		intensity, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: intensity %q: %v", ErrMalformedFile, row, fields[1], err)
		}
		var comment string
		if len(fields) > 2 {
			// Only the first token: the format has no quoting.
			comment = fields[2]
		}
		loaded.entries = append(loaded.entries, Line{
			Position:  (phys - off) * res,
			Intensity: intensity,
			Comment:   comment,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return loaded, nil
}

// headerScalar reads one labeled header line ("<label> <value> <unit>")
// and returns its numeric value. The trailing unit token is not validated.
func headerScalar(sc *bufio.Scanner, label string) (float64, error) {
	if !sc.Scan() {
		return 0, fmt.Errorf("%w: missing %q header line", ErrMalformedFile, label)
	}
	line := strings.TrimSpace(sc.Text())
	if !strings.HasPrefix(line, label) {
		return 0, fmt.Errorf("%w: expected %q header, got %q", ErrMalformedFile, label, line)
	}
	fields := strings.Fields(strings.TrimPrefix(line, label))
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: %q header has no value", ErrMalformedFile, label)
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q value %q: %v", ErrMalformedFile, label, fields[0], err)
	}
	return v, nil
}
