package scores

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Read loads a score listing written by Write. Ids must be dense and
// ascending from 0.
func Read(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() { _ = file.Close() }()

	return Decode(file)
}

// Decode parses a score listing from r.
func Decode(r io.Reader) ([]float64, error) {
	var scores []float64

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w %d: expected 2 fields, got %d", ErrMalformedLine, lineNo, len(fields))
		}

		id, err := strconv.Atoi(fields[0])
		if err != nil || id != len(scores) {
			return nil, fmt.Errorf("%w %d: expected id %d, got %q", ErrMalformedLine, lineNo, len(scores), fields[0])
		}
		score, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w %d: %v", ErrMalformedLine, lineNo, err)
		}
		scores = append(scores, score)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return scores, nil
}
