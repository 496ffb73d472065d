package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ritzau/sybil-ranker/pkg/graph"
)

// ParseNetwork reads a graph file: one directed edge "u v" per line,
// whitespace separated, no header. Blank lines are skipped and the last
// line may omit its newline.
func ParseNetwork(path string) ([]graph.Edge, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer func() { _ = file.Close() }()

	edges, err := ReadNetwork(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return edges, nil
}

// ReadNetwork parses edges from r in the graph file format.
func ReadNetwork(r io.Reader) ([]graph.Edge, error) {
	var edges []graph.Edge

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

		from, err := parseNodeID(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w %d: %v", ErrMalformedLine, lineNo, err)
		}
		to, err := parseNodeID(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w %d: %v", ErrMalformedLine, lineNo, err)
		}

		edges = append(edges, graph.Edge{From: from, To: to})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return edges, nil
}

func parseNodeID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("node id %q is not an integer", s)
	}
	if id < 0 {
		return 0, fmt.Errorf("node id %d is negative", id)
	}
	return id, nil
}

//--------------------------ERROR-CODES--------------------------

var ErrIO = errors.New("i/o error")
var ErrMalformedLine = errors.New("malformed line")
var ErrUnknownNode = errors.New("labeled node is not in the graph")
