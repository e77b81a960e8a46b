// The zipper package compresses data with LZ77 matching and fixed-Huffman
// DEFLATE encoding, for packing single files into ZIP archives.
//
// Compression is split into two stages with an intermediate representation
// between them:
//   - Something that looks for repeated sequences of bytes
//   - An encoder for the compressed bitstream
//
// The MatchFinder and Encoder interfaces keep the two stages independent, so
// match finders can be swapped and tested against each other without touching
// the bitstream, and the encoder can be fed handcrafted matches in tests.
// The flate subpackage provides the fixed-Huffman encoder, and the zip
// subpackage wraps the compressed stream in a ZIP container.
package zipper

// A Match is the basic unit of LZ77 compression.
type Match struct {
	Unmatched int // the number of unmatched bytes since the previous match
	Length    int // the number of bytes in the matched string; it may be 0 at the end of the input, and is otherwise in [3, 258]
	Distance  int // how far back in the stream to copy from, in [1, 32768]
}

// A MatchFinder performs the LZ77 stage of compression, looking for matches.
//
// At each position it chooses the longest match within the previous 32768
// bytes, breaking ties in favor of the nearest (smallest) distance; if no
// match of at least 3 bytes exists, the byte is left unmatched. Input is
// treated as opaque bytes throughout; no byte value is special. A stream may
// be delivered over several FindMatches calls, and matches can reach back
// into bytes from the earlier calls.
type MatchFinder interface {
	// FindMatches looks for matches in src, appends them to dst, and returns dst.
	FindMatches(dst []Match, src []byte) []Match

	// Reset clears any internal state, preparing the MatchFinder to be used with
	// a new stream.
	Reset()
}

// An Encoder encodes the data in its final format.
type Encoder interface {
	// Header appends the appropriate stream header to dst.
	Header(dst []byte) []byte

	// Encode appends the encoded format of src to dst, using the match
	// information from matches. Blocks are not byte-aligned, so bits may be
	// carried over between calls; the encoder pads to a byte boundary only
	// after the block with lastBlock set.
	Encode(dst []byte, src []byte, matches []Match, lastBlock bool) []byte

	// Reset clears any internal state, preparing the Encoder to be used with
	// a new stream.
	Reset()
}
