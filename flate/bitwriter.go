// Copyright 2009 The Go Authors. All rights reserved.
// Copyright (c) 2015 Klaus Post
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flate

// A bitWriter packs bits into a byte stream least-significant bit first, per
// the DEFLATE convention. Bits accumulate in a 64-bit register and spill into
// the destination six bytes at a time, so a single write may add at most 16
// bits (the register never holds more than 48 before a write).
type bitWriter struct {
	bits  uint64
	nbits uint
}

func (w *bitWriter) writeBits(dst []byte, b uint32, nb uint) []byte {
	w.bits |= uint64(b) << (w.nbits & 63)
	w.nbits += nb
	if w.nbits >= 48 {
		bits := w.bits
		w.bits >>= 48
		w.nbits -= 48
		dst = append(dst,
			byte(bits),
			byte(bits>>8),
			byte(bits>>16),
			byte(bits>>24),
			byte(bits>>32),
			byte(bits>>40),
		)
	}
	return dst
}

func (w *bitWriter) writeCode(dst []byte, c hcode) []byte {
	return w.writeBits(dst, uint32(c.code), uint(c.len))
}

// flush writes any remaining bits, padding the final byte with zero bits,
// and leaves the register empty.
func (w *bitWriter) flush(dst []byte) []byte {
	for w.nbits != 0 {
		dst = append(dst, byte(w.bits))
		w.bits >>= 8
		if w.nbits > 8 {
			w.nbits -= 8
		} else {
			w.nbits = 0
		}
	}
	return dst
}

func (w *bitWriter) reset() {
	w.bits = 0
	w.nbits = 0
}
