// Package flate implements the fixed-Huffman subset of DEFLATE (RFC 1951):
// every block uses the format's predefined code tables, and there is no
// fallback to stored or dynamic-Huffman blocks, so incompressible input is
// allowed to expand. Decoding is left to conformant DEFLATE readers.
package flate

import (
	"github.com/kino00/zipper"
)

// NewEncoder returns an Encoder that encodes data in DEFLATE blocks with
// fixed huffman codes.
func NewEncoder() zipper.Encoder {
	return &encoder{}
}

type encoder struct {
	w bitWriter
}

func (e *encoder) Reset() {
	e.w.reset()
}

// Header appends nothing; a raw DEFLATE stream has no header before the
// first block.
func (e *encoder) Header(dst []byte) []byte {
	return dst
}

func (e *encoder) Encode(dst []byte, src []byte, matches []zipper.Match, lastBlock bool) []byte {
	// Block header: the final-block flag, then block type 01 (fixed
	// huffman), low bit first.
	if lastBlock {
		dst = e.w.writeBits(dst, 3, 3)
	} else {
		dst = e.w.writeBits(dst, 2, 3)
	}

	pos := 0
	for _, m := range matches {
		for _, b := range src[pos : pos+m.Unmatched] {
			dst = e.w.writeCode(dst, fixedLiteralEncoding[b])
		}
		pos += m.Unmatched
		if m.Length > 0 {
			dst = e.writeMatch(dst, m.Length, m.Distance)
			pos += m.Length
		}
	}
	for _, b := range src[pos:] {
		dst = e.w.writeCode(dst, fixedLiteralEncoding[b])
	}

	dst = e.w.writeCode(dst, fixedLiteralEncoding[endBlockMarker])
	if lastBlock {
		dst = e.w.flush(dst)
	}
	return dst
}

// writeMatch emits a length symbol and its extra bits, then a distance
// symbol and its extra bits.
func (e *encoder) writeMatch(dst []byte, length, distance int) []byte {
	lc := lengthCode(length)
	dst = e.w.writeCode(dst, fixedLiteralEncoding[257+int(lc)])
	if eb := lengthExtraBits[lc]; eb > 0 {
		dst = e.w.writeBits(dst, uint32(length-baseMatchLength-int(lengthBase[lc])), uint(eb))
	}

	oc := offsetCode(distance)
	dst = e.w.writeCode(dst, fixedOffsetEncoding[oc])
	if eb := offsetExtraBits[oc]; eb > 0 {
		dst = e.w.writeBits(dst, uint32(distance-1-int(offsetBase[oc])), uint(eb))
	}
	return dst
}
