// Package scores persists and reads per-node score listings:
// one "{id} {score}" line per node, ids ascending, ten decimals.
package scores

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Decimals is the fixed precision of a written score.
const Decimals = 10

// Encode writes one line per node to w.
func Encode(w io.Writer, scores []float64) error {
	bw := bufio.NewWriter(w)
	line := make([]byte, 0, 64)
	for id, score := range scores {
		line = strconv.AppendInt(line[:0], int64(id), 10)
		line = append(line, ' ')
		line = strconv.AppendFloat(line, score, 'f', Decimals, 64)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Write stores scores at path. The listing is written to a temporary file
// in the same directory and renamed into place, so a failed write never
// leaves a truncated file behind.
func Write(path string, scores []float64) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = Encode(tmp, scores); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrIO, tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: syncing %s: %v", ErrIO, tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrIO, tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

//--------------------------ERROR-CODES--------------------------

var ErrIO = errors.New("i/o error")
var ErrMalformedLine = errors.New("malformed score line")
