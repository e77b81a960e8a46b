package flate

import (
	"io"

	"github.com/kino00/zipper"
)

// NewWriter returns a new zipper.Writer that compresses everything written
// to it into a single fixed-huffman DEFLATE block when it is closed.
func NewWriter(w io.Writer) *zipper.Writer {
	return &zipper.Writer{
		Dest:        w,
		MatchFinder: &zipper.ChainFinder{},
		Encoder:     NewEncoder(),
	}
}
