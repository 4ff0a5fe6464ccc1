package utils

import (
	"fmt"
	"strings"

	"github.com/sbinet/npyio/npz"
)

// Sparse tracks are stored in npz archives as two parallel float64 arrays
// per track, "<name>.positions" and "<name>.values", so numpy-based
// tooling can load them directly.

// WriteNpzTracks writes the named tracks into a single npz archive.
func WriteNpzTracks(filename string, tracks map[string]Series) error {
	out, err := npz.Create(filename)
	if err != nil {
		return fmt.Errorf("unable to create npz file %s: %w", filename, err)
	}
	defer out.Close()

	for name, series := range tracks {
		positions := make([]float64, len(series))
		for i, p := range series {
			positions[i] = float64(p.Pos)
		}
		if err := out.Write(name+".positions", positions); err != nil {
			return fmt.Errorf("unable to write track %s to %s: %w", name, filename, err)
		}
		if err := out.Write(name+".values", series.Values()); err != nil {
			return fmt.Errorf("unable to write track %s to %s: %w", name, filename, err)
		}
	}
	return out.Close()
}

// LoadNpzTracks reads every track stored in an npz archive.
func LoadNpzTracks(filename string) (map[string]Series, error) {
	in, err := npz.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to open npz file %s: %w", filename, err)
	}
	defer in.Close()

	tracks := make(map[string]Series)
	for _, key := range in.Keys() {
		name, found := strings.CutSuffix(key, ".positions")
		if !found {
			continue
		}
		var positions, values []float64
		if err := in.Read(key, &positions); err != nil {
			return nil, fmt.Errorf("unable to read track %s from %s: %w", name, filename, err)
		}
		if err := in.Read(name+".values", &values); err != nil {
			return nil, fmt.Errorf("unable to read track %s from %s: %w", name, filename, err)
		}
		if len(positions) != len(values) {
			return nil, fmt.Errorf("track %s in %s has %d positions but %d values", name, filename, len(positions), len(values))
		}
		series := make(Series, len(positions))
		for i := range positions {
			series[i] = Point{Pos: int(positions[i]), Value: values[i]}
		}
		tracks[name] = series
	}
	return tracks, nil
}
