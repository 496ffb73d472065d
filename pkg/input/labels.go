package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Labels holds the seed nodes read from a label file.
type Labels struct {
	Positive mapset.Set[int] // trusted seeds, first line
	Negative mapset.Set[int] // known Sybils, second line (may be empty)
}

// NewLabels returns Labels with the given seeds.
func NewLabels(positive, negative []int) *Labels {
	return &Labels{
		Positive: mapset.NewThreadUnsafeSet(positive...),
		Negative: mapset.NewThreadUnsafeSet(negative...),
	}
}

// ParseLabels reads a label file. Line 1 holds whitespace separated
// positive seed ids, line 2 (optional) the negative seed ids. Line 2 is
// only read when withNegative is set; anything after it is ignored.
func ParseLabels(path string, withNegative bool) (*Labels, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer func() { _ = file.Close() }()

	labels, err := ReadLabels(file, withNegative)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return labels, nil
}

// ReadLabels parses seeds from r in the label file format. Without
// withNegative the second line is left unread and Negative stays empty.
func ReadLabels(r io.Reader, withNegative bool) (*Labels, error) {
	labels := NewLabels(nil, nil)

	lines := 1
	if withNegative {
		lines = 2
	}

	scanner := bufio.NewScanner(r)
	// Seed lines can be long, one line holds the whole seed set.
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	for lineNo := 1; lineNo <= lines && scanner.Scan(); lineNo++ {
		target := labels.Positive
		if lineNo == 2 {
			target = labels.Negative
		}

		for _, field := range strings.Fields(scanner.Text()) {
			id, err := parseNodeID(field)
			if err != nil {
				return nil, fmt.Errorf("%w %d: %v", ErrMalformedLine, lineNo, err)
			}
			target.Add(id)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return labels, nil
}

// Validate returns ErrUnknownNode if a seed id is outside [0, nodeCount).
func (l *Labels) Validate(nodeCount int) error {
	if err := l.ValidatePositive(nodeCount); err != nil {
		return err
	}
	return validateSet(l.Negative, nodeCount)
}

// ValidatePositive checks only the positive seeds.
func (l *Labels) ValidatePositive(nodeCount int) error {
	return validateSet(l.Positive, nodeCount)
}

func validateSet(set mapset.Set[int], nodeCount int) error {
	for _, id := range Sorted(set) {
		if id >= nodeCount {
			return fmt.Errorf("%w: %d (graph has %d nodes)", ErrUnknownNode, id, nodeCount)
		}
	}
	return nil
}

// Overlap returns the ids labeled both positive and negative, ascending.
func (l *Labels) Overlap() []int {
	return Sorted(l.Positive.Intersect(l.Negative))
}

// Sorted returns the members of a set in ascending order.
func Sorted(set mapset.Set[int]) []int {
	ids := set.ToSlice()
	slices.Sort(ids)
	return ids
}
