package zipper

import (
	"encoding/binary"
	"math/bits"
	"runtime"
)

// A ChainFinder is an implementation of the MatchFinder interface that uses
// hash chaining over 3-byte sequences. It walks each chain nearest-first and
// keeps a candidate only when it is strictly longer than the best so far, so
// the longest match wins and ties go to the smallest distance.
type ChainFinder struct {
	parser GreedyParser

	table [maxTableSize]uint32

	history []byte
	chain   []uint16
}

const (
	minHistory = 1 << 16
	maxHistory = 1 << 18

	maxTableSize = 1 << 14
	shift        = 32 - 14
	// tableMask is redundant, but helps the compiler eliminate bounds
	// checks.
	tableMask = maxTableSize - 1

	minMatchLength = 3
	maxMatchLength = 258
	maxDistance    = 32768
)

func (q *ChainFinder) Reset() {
	q.table = [maxTableSize]uint32{}
	q.history = q.history[:0]
	q.chain = q.chain[:0]
}

// FindMatches looks for matches in src, appends them to dst, and returns dst.
func (q *ChainFinder) FindMatches(dst []Match, src []byte) []Match {
	var nextEmit int

	if len(q.history) > maxHistory {
		// Trim down the history buffer.
		delta := len(q.history) - minHistory
		copy(q.history, q.history[delta:])
		q.history = q.history[:minHistory]
		copy(q.chain, q.chain[delta:])
		q.chain = q.chain[:len(q.chain)-delta]

		for i, v := range q.table {
			newV := int(v) - delta
			if newV <= 0 {
				newV = 0
			}
			q.table[i] = uint32(newV)
		}
	}

	// Append src to the history buffer.
	nextEmit = len(q.history)
	q.history = append(q.history, src...)
	src = q.history

	chain := q.chain
	// Pre-calculate hashes and chains. Table entries are stored as
	// position+1 so that 0 can mean an empty slot; a chain entry of 0
	// marks the end of the chain.
	for i := len(chain); i+2 < len(src); i++ {
		h := hash3(load3(src, i))
		candidate := int(q.table[h&tableMask]) - 1
		q.table[h&tableMask] = uint32(i + 1)
		if candidate < 0 || i-candidate > 65535 {
			chain = append(chain, 0)
		} else {
			chain = append(chain, uint16(i-candidate))
		}
	}
	q.chain = chain

	return q.parser.Parse(dst, q, nextEmit, len(src))
}

const hashMul32 = 506832829

func load3(b []byte, i int) uint32 {
	return uint32(b[i]) | uint32(b[i+1])<<8 | uint32(b[i+2])<<16
}

func hash3(u uint32) uint32 {
	return ((u << 8) * hashMul32) >> shift
}

// extendMatch returns the largest k such that k <= len(src) and that
// src[i:i+k-j] and src[j:k] have the same contents.
//
// It assumes that:
//
//	0 <= i && i < j && j <= len(src)
func extendMatch(src []byte, i, j int) int {
	switch runtime.GOARCH {
	case "amd64":
		// As long as we are 8 or more bytes before the end of src, we can load and
		// compare 8 bytes at a time. If those 8 bytes are equal, repeat.
		for j+8 < len(src) {
			iBytes := binary.LittleEndian.Uint64(src[i:])
			jBytes := binary.LittleEndian.Uint64(src[j:])
			if iBytes != jBytes {
				// If those 8 bytes were not equal, XOR the two 8 byte values, and return
				// the index of the first byte that differs. The BSF instruction finds the
				// least significant 1 bit, the amd64 architecture is little-endian, and
				// the shift by 3 converts a bit index to a byte index.
				return j + bits.TrailingZeros64(iBytes^jBytes)>>3
			}
			i, j = i+8, j+8
		}
	case "386":
		// On a 32-bit CPU, we do it 4 bytes at a time.
		for j+4 < len(src) {
			iBytes := binary.LittleEndian.Uint32(src[i:])
			jBytes := binary.LittleEndian.Uint32(src[j:])
			if iBytes != jBytes {
				return j + bits.TrailingZeros32(iBytes^jBytes)>>3
			}
			i, j = i+4, j+4
		}
	}
	for ; j < len(src) && src[i] == src[j]; i, j = i+1, j+1 {
	}
	return j
}

func (q *ChainFinder) Search(dst []AbsoluteMatch, pos, min, max int) []AbsoluteMatch {
	if pos >= len(q.chain) || pos+minMatchLength > len(q.history) {
		return dst
	}
	src := q.history
	searchSeq := load3(src, pos)

	// Matches are capped at maxMatchLength, and can't run past max.
	limit := pos + maxMatchLength
	if limit > max {
		limit = max
	}

	var length int

	candidate := pos
	for {
		d := q.chain[candidate]
		if d == 0 {
			break
		}
		candidate -= int(d)
		if candidate < 0 || pos-candidate > maxDistance {
			break
		}
		if load3(src, candidate) != searchSeq {
			continue
		}

		newEnd := extendMatch(src[:limit], candidate+minMatchLength, pos+minMatchLength)

		if newEnd-pos > length {
			dst = append(dst, AbsoluteMatch{
				Start: pos,
				End:   newEnd,
				Match: candidate,
			})
			length = newEnd - pos
			if newEnd == limit {
				// No later candidate can beat this one.
				break
			}
		}
	}

	return dst
}
