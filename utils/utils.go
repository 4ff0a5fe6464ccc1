package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Point is a single observed locus: a 1-based genomic position and the
// value recorded there (a read count or a score).
type Point struct {
	Pos   int
	Value float64
}

// Series is an ordered run of points, strictly increasing by position.
// Positions may be non-contiguous. Pipeline stages treat a Series as a
// value: each stage returns a new Series and never edits its input.
type Series []Point

// Positions returns the positions of the series as a slice.
func (s Series) Positions() []int {
	pos := make([]int, len(s))
	for i, p := range s {
		pos[i] = p.Pos
	}
	return pos
}

// Values returns the values of the series as a slice.
func (s Series) Values() []float64 {
	vals := make([]float64, len(s))
	for i, p := range s {
		vals[i] = p.Value
	}
	return vals
}

// SeriesFromCounts flattens a position -> count map into an ordered Series.
func SeriesFromCounts(counts map[int]float64) Series {
	positions := make([]int, 0, len(counts))
	for pos := range counts {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	series := make(Series, len(positions))
	for i, pos := range positions {
		series[i] = Point{Pos: pos, Value: counts[pos]}
	}
	return series
}

// MakeOutputDir creates (if needed) a subdirectory next to the given input
// file and returns the path of an output file inside it, named after the
// input with the supplied suffix replacing its extension.
func MakeOutputDir(infile string, subdir string, suffix string) (string, error) {
	dir := filepath.Join(filepath.Dir(infile), subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create output directory %s: %w", dir, err)
	}
	base := filepath.Base(infile)
	base = base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(dir, base+suffix), nil
}
