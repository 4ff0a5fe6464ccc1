package utils

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadWig reads a variableStep wiggle track: an optional "track" declaration
// line, a "variableStep chrom=..." line carrying the chromosome label, and
// one "position value" row per observed locus. The chromosome label is
// treated as opaque metadata and handed back to the caller unchanged.
func LoadWig(filename string) (Series, string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, "", fmt.Errorf("unable to open wig file %s: %w", filename, err)
	}
	defer f.Close()

	var series Series
	chrom := ""
	lastPos := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "track":
			continue
		case "variableStep", "fixedStep":
			if fields[0] == "fixedStep" {
				return nil, "", fmt.Errorf("fixedStep tracks are not supported in %s", filename)
			}
			for _, field := range fields[1:] {
				if value, found := strings.CutPrefix(field, "chrom="); found {
					chrom = strings.Trim(value, `"`)
				}
			}
			continue
		}
		if len(fields) < 2 {
			return nil, "", fmt.Errorf("malformed wig row %q in %s", line, filename)
		}
		pos, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, "", fmt.Errorf("invalid position %q in %s: %w", fields[0], filename, err)
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, "", fmt.Errorf("invalid value %q in %s: %w", fields[1], filename, err)
		}
		if len(series) > 0 && int(pos) <= lastPos {
			return nil, "", fmt.Errorf("positions in %s are not strictly increasing at %d", filename, int(pos))
		}
		lastPos = int(pos)
		series = append(series, Point{Pos: int(pos), Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, "", fmt.Errorf("unable to read wig file %s: %w", filename, err)
	}
	return series, chrom, nil
}

// WriteWig writes the series as a variableStep wiggle track.
func WriteWig(series Series, filename string, chrom string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("unable to create wig file %s: %w", filename, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	if _, err := fmt.Fprintf(w, "track type=wiggle_0 name=%s\n", chrom); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "variableStep chrom=%s\n", chrom); err != nil {
		return err
	}
	for _, p := range series {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", p.Pos, strconv.FormatFloat(p.Value, 'f', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}
