package lines

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

func tempFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "plate_lines.dat")
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := tempFile(t)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSave_Format(t *testing.T) {
	s := NewStore()
	s.SetResolution(100)
	s.SetOffset(0)
	s.Add(50.5, 128.0)

	path := tempFile(t)
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	rows := strings.Split(string(data), "\n")
	if rows[0] != "Plate Resolution: 100.000 px/mm" {
		t.Errorf("header 1: got %q", rows[0])
	}
	if rows[1] != "Plate Offset: 0 mm" {
		t.Errorf("header 2: got %q", rows[1])
	}
	if rows[2] != " Position | Intensity | Comments" {
		t.Errorf("header 3: got %q", rows[2])
	}
	if rows[3] != "   0.5050     128.000   " {
		t.Errorf("data row: got %q", rows[3])
	}
}

func TestSave_AscendingOrder(t *testing.T) {
	s := NewStore()
	s.SetResolution(1)
	s.Add(30.0, 3)
	s.Add(10.0, 1)
	s.Add(20.0, 2)

	path := tempFile(t)
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	rows := strings.Split(strings.TrimRight(string(data), "\n"), "\n")[3:]
	var last float64 = -1
	for _, row := range rows {
		fields := strings.Fields(row)
		pos, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			t.Fatalf("row %q: %v", row, err)
		}
		if pos < last {
			t.Fatalf("rows not ascending: %g after %g", pos, last)
		}
		last = pos
	}
}

func TestRoundTrip(t *testing.T) {
	s := NewStore()
	s.SetResolution(100)
	s.SetOffset(2)
	s.Add(50.5, 128.0)
	s.Add(12.25, 301.5)
	if err := s.SetComment(12.25, "Hg"); err != nil {
		t.Fatal(err)
	}

	path := tempFile(t)
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := NewStore()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !almostEqual(loaded.Resolution(), 100, 1e-9) {
		t.Errorf("Resolution: got %g, want 100", loaded.Resolution())
	}
	if !almostEqual(loaded.Offset(), 2, 1e-9) {
		t.Errorf("Offset: got %g, want 2", loaded.Offset())
	}
	if loaded.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", loaded.Len())
	}

	positions := loaded.Positions()
	sort.Float64s(positions)
	if !almostEqual(positions[0], 12.25, 1e-6) || !almostEqual(positions[1], 50.5, 1e-6) {
		t.Errorf("positions: got %v, want [12.25 50.5]", positions)
	}
	if v, ok := loaded.Intensity(positions[1]); !ok || !almostEqual(v, 128.0, 1e-9) {
		t.Errorf("intensity at 50.5: got %g/%v, want 128/true", v, ok)
	}
	if c := loaded.Comment(positions[0]); c != "Hg" {
		t.Errorf("comment at 12.25: got %q, want \"Hg\"", c)
	}
}

func TestLoad_UsesFileHeaderCalibration(t *testing.T) {
	// A store saved with one calibration must reload correctly into a
	// store carrying a different one: conversion uses the file's header.
	src := NewStore()
	src.SetResolution(100)
	src.SetOffset(0)
	src.Add(50.5, 128.0)

	path := tempFile(t)
	if err := src.Save(path); err != nil {
		t.Fatal(err)
	}

	dst := NewStore()
	dst.SetResolution(200)
	dst.SetOffset(-5)
	if err := dst.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	pos := dst.Positions()
	if len(pos) != 1 || !almostEqual(pos[0], 50.5, 1e-6) {
		t.Errorf("positions: got %v, want [50.5]", pos)
	}
}

func TestLoad_MissingCommentIsEmpty(t *testing.T) {
	path := writeFile(t, "Plate Resolution: 100.000 px/mm\n"+
		"Plate Offset: 0 mm\n"+
		" Position | Intensity | Comments\n"+
		"   0.5050     128.000   \n")

	s := NewStore()
	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", s.Len())
	}
	if c := s.Comment(s.Positions()[0]); c != "" {
		t.Errorf("comment: got %q, want empty", c)
	}
}

func TestLoad_CommentFirstTokenOnly(t *testing.T) {
	path := writeFile(t, "Plate Resolution: 100.000 px/mm\n"+
		"Plate Offset: 0 mm\n"+
		" Position | Intensity | Comments\n"+
		"   0.5050     128.000   strong doublet\n")

	s := NewStore()
	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c := s.Comment(s.Positions()[0]); c != "strong" {
		t.Errorf("comment: got %q, want \"strong\" (first token only)", c)
	}
}

func TestLoad_Malformed(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"wrong first header", "Resolution: 100 px/mm\nPlate Offset: 0 mm\n Position | Intensity | Comments\n"},
		{"non-numeric resolution", "Plate Resolution: fast px/mm\nPlate Offset: 0 mm\n Position | Intensity | Comments\n"},
		{"missing offset header", "Plate Resolution: 100.000 px/mm\n"},
		{"missing column header", "Plate Resolution: 100.000 px/mm\nPlate Offset: 0 mm\n"},
		{"row missing intensity", "Plate Resolution: 100.000 px/mm\nPlate Offset: 0 mm\n Position | Intensity | Comments\n   0.5050\n"},
		{"row non-numeric position", "Plate Resolution: 100.000 px/mm\nPlate Offset: 0 mm\n Position | Intensity | Comments\n   x.xxxx     128.000\n"},
		{"row non-numeric intensity", "Plate Resolution: 100.000 px/mm\nPlate Offset: 0 mm\n Position | Intensity | Comments\n   0.5050     bright\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore()
			err := s.Load(writeFile(t, tc.content))
			if !errors.Is(err, ErrMalformedFile) {
				t.Errorf("got %v, want ErrMalformedFile", err)
			}
		})
	}
}

func TestLoad_FailureLeavesStoreUntouched(t *testing.T) {
	s := NewStore()
	s.SetResolution(100)
	s.Add(50.5, 128.0)

	err := s.Load(writeFile(t, "garbage\n"))
	if !errors.Is(err, ErrMalformedFile) {
		t.Fatalf("got %v, want ErrMalformedFile", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len after failed load: got %d, want 1", s.Len())
	}
	if !almostEqual(s.Resolution(), 100, 1e-12) {
		t.Errorf("Resolution after failed load: got %g, want 100", s.Resolution())
	}
}

func TestLoad_MissingFileIsNotMalformed(t *testing.T) {
	s := NewStore()
	err := s.Load(filepath.Join(t.TempDir(), "nope.dat"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrMalformedFile) {
		t.Error("missing file should surface the I/O error, not ErrMalformedFile")
	}
}
