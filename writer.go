package zipper

import (
	"errors"
	"fmt"
	"io"
)

// ErrInvalidMatch is returned when a match stream fails validation before
// encoding: a length outside [3, 258], a distance outside [1, 32768], a
// reference to bytes that haven't been emitted yet, or coverage running past
// the end of the input. It indicates a bug in a MatchFinder, not bad input.
var ErrInvalidMatch = errors.New("zipper: invalid match stream")

// A Writer compresses everything written to it into a single DEFLATE block.
//
// Unlike a streaming compressor, it buffers the whole input and does not
// produce any output until Close is called; the match finder then sees the
// complete input and the encoder emits one final block. On error, nothing is
// written to Dest.
type Writer struct {
	Dest        io.Writer
	MatchFinder MatchFinder
	Encoder     Encoder

	buf     []byte
	matches []Match
	out     []byte
}

func (w *Writer) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// Close compresses the buffered data and writes it to Dest.
func (w *Writer) Close() error {
	w.matches = w.MatchFinder.FindMatches(w.matches[:0], w.buf)
	if err := checkMatches(w.buf, w.matches); err != nil {
		return err
	}
	w.out = w.Encoder.Header(w.out[:0])
	w.out = w.Encoder.Encode(w.out, w.buf, w.matches, true)
	_, err := w.Dest.Write(w.out)
	return err
}

// Reset discards any buffered data and prepares the Writer to compress a new
// stream to newDest.
func (w *Writer) Reset(newDest io.Writer) {
	w.Dest = newDest
	w.MatchFinder.Reset()
	w.Encoder.Reset()
	w.buf = w.buf[:0]
}

// checkMatches verifies that a match stream obeys the encoding invariants
// before any of it reaches the bitstream, where a bad token would corrupt
// the output silently. Bytes past the last match are implicit literals, so
// the stream may cover less than all of src, never more.
func checkMatches(src []byte, matches []Match) error {
	pos := 0
	for i, m := range matches {
		if m.Unmatched < 0 {
			return fmt.Errorf("%w: match %d: negative unmatched count %d", ErrInvalidMatch, i, m.Unmatched)
		}
		pos += m.Unmatched
		if m.Length != 0 {
			if m.Length < minMatchLength || m.Length > maxMatchLength {
				return fmt.Errorf("%w: match %d: length %d outside [%d, %d]", ErrInvalidMatch, i, m.Length, minMatchLength, maxMatchLength)
			}
			if m.Distance < 1 || m.Distance > maxDistance {
				return fmt.Errorf("%w: match %d: distance %d outside [1, %d]", ErrInvalidMatch, i, m.Distance, maxDistance)
			}
			if m.Distance > pos {
				return fmt.Errorf("%w: match %d: distance %d reaches back past the start (offset %d)", ErrInvalidMatch, i, m.Distance, pos)
			}
			pos += m.Length
		}
		if pos > len(src) {
			return fmt.Errorf("%w: match %d: coverage %d overruns input length %d", ErrInvalidMatch, i, pos, len(src))
		}
	}
	return nil
}
