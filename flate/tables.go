// Copyright 2009 The Go Authors. All rights reserved.
// Copyright (c) 2015 Klaus Post
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flate

import "math/bits"

const (
	// The smallest and largest match lengths the format can encode.
	baseMatchLength = 3
	maxMatchLength  = 258

	// The largest match distance the format can encode.
	maxMatchDistance = 32768

	// The end-of-block symbol in the literal/length alphabet.
	endBlockMarker = 256
)

// An hcode is a huffman code with a bit code and bit length. The code is
// stored bit-reversed, ready to be written least-significant bit first.
type hcode struct {
	code, len uint16
}

// The number of extra bits for each length symbol 257-285.
var lengthExtraBits = [29]uint8{
	/* 257 */ 0, 0, 0,
	/* 260 */ 0, 0, 0, 0, 0, 1, 1, 1, 1, 2,
	/* 270 */ 2, 2, 2, 3, 3, 3, 3, 4, 4, 4,
	/* 280 */ 4, 5, 5, 5, 5, 0,
}

// The base length for each length symbol 257-285, offset by baseMatchLength.
var lengthBase = [29]uint8{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 10,
	12, 14, 16, 20, 24, 28, 32, 40, 48, 56,
	64, 80, 96, 112, 128, 160, 192, 224, 255,
}

// The number of extra bits for each distance symbol 0-29.
var offsetExtraBits = [30]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// The base distance for each distance symbol 0-29, offset by 1.
var offsetBase = [30]uint16{
	0x0000, 0x0001, 0x0002, 0x0003, 0x0004, 0x0006, 0x0008, 0x000c, 0x0010, 0x0018,
	0x0020, 0x0030, 0x0040, 0x0060, 0x0080, 0x00c0, 0x0100, 0x0180, 0x0200, 0x0300,
	0x0400, 0x0600, 0x0800, 0x0c00, 0x1000, 0x1800, 0x2000, 0x3000, 0x4000, 0x6000,
}

// lengthCodes maps length-baseMatchLength to a length symbol minus 257.
var lengthCodes [256]uint8

// offsetCodes maps distance-1 to a distance symbol, for distances up to 256.
var offsetCodes [256]uint8

// fixedLiteralEncoding is the fixed huffman code for the literal/length
// alphabet, defined by the format: symbols 0-143 get 8-bit codes starting at
// 0b00110000, 144-255 get 9-bit codes starting at 0b110010000, 256-279 get
// 7-bit codes starting at 0, and 280-287 get 8-bit codes starting at
// 0b11000000.
var fixedLiteralEncoding [288]hcode

// fixedOffsetEncoding is the fixed huffman code for the distance alphabet:
// plain 5-bit codes.
var fixedOffsetEncoding [30]hcode

func init() {
	// Each adjusted length or distance belongs to the last symbol whose
	// base value it reaches. Length 258 lands on symbol 28 (285), which has
	// its own base and no extra bits.
	for i := range lengthCodes {
		for j := len(lengthBase) - 1; j >= 0; j-- {
			if i >= int(lengthBase[j]) {
				lengthCodes[i] = uint8(j)
				break
			}
		}
	}
	for i := range offsetCodes {
		for j := len(offsetBase) - 1; j >= 0; j-- {
			if i >= int(offsetBase[j]) {
				offsetCodes[i] = uint8(j)
				break
			}
		}
	}

	for ch := 0; ch < 288; ch++ {
		var code uint16
		var size uint16
		switch {
		case ch < 144:
			code = uint16(ch) + 48
			size = 8
		case ch < 256:
			code = uint16(ch) + 400 - 144
			size = 9
		case ch < 280:
			code = uint16(ch) - 256
			size = 7
		default:
			code = uint16(ch) + 192 - 280
			size = 8
		}
		fixedLiteralEncoding[ch] = hcode{code: reverseBits(code, size), len: size}
	}

	for ch := 0; ch < 30; ch++ {
		fixedOffsetEncoding[ch] = hcode{code: reverseBits(uint16(ch), 5), len: 5}
	}
}

// lengthCode returns the length symbol (minus 257) for a match length.
func lengthCode(length int) uint8 {
	return lengthCodes[length-baseMatchLength]
}

// offsetCode returns the distance symbol for a match distance.
func offsetCode(distance int) uint8 {
	off := distance - 1
	if off < 256 {
		return offsetCodes[off]
	}
	return offsetCodes[off>>7] + 14
}

func reverseBits(number, bitLength uint16) uint16 {
	return bits.Reverse16(number << (16 - bitLength))
}
