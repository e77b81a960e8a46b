// Package crc32 implements the 32-bit cyclic redundancy check stored in ZIP
// archive headers: the reflected form of the IEEE polynomial, computed over
// the uncompressed data. It is the checksum every standard unzip tool
// recomputes on extraction, which makes it the externally checkable
// correctness oracle for the whole compressor.
package crc32

// The reflected IEEE polynomial. It processes input bits least-significant
// first, matching the bit order the ZIP and gzip formats use.
const poly = 0xedb88320

// table[b] is the CRC of the single byte b, used to process input a byte at
// a time instead of a bit at a time.
var table = makeTable()

func makeTable() *[256]uint32 {
	var t [256]uint32
	for i := range t {
		crc := uint32(i)
		for j := 0; j < 8; j++ {
			if crc&1 == 1 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return &t
}

// Update returns the result of adding the bytes in p to the crc.
func Update(crc uint32, p []byte) uint32 {
	crc = ^crc
	for _, b := range p {
		crc = table[byte(crc)^b] ^ (crc >> 8)
	}
	return ^crc
}

// Checksum returns the CRC-32 checksum of data. The checksum of no data is 0.
func Checksum(data []byte) uint32 {
	return Update(0, data)
}
