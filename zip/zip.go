// Package zip writes single-entry ZIP archives. The payload is compressed
// with fixed-Huffman DEFLATE (method 8) in one block, and the container is
// the standard three-part layout: local file header, central directory, and
// end-of-central-directory record, all little-endian, readable by any
// conformant unzip tool.
package zip

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kino00/zipper/crc32"
	"github.com/kino00/zipper/flate"
)

const (
	sigLocalFile   = 0x04034b50
	sigCentralDir  = 0x02014b50
	sigEndCentralD = 0x06054b50

	zipVersion     = 20     // 2.0 - minimum for DEFLATE
	zipVersionUnix = 0x0314 // Unix, version 2.0

	methodDeflate = 8
)

var (
	// ErrTooLarge means a size would overflow the archive's 32-bit fields.
	ErrTooLarge = errors.New("zip: file exceeds 4GB limit (ZIP64 not supported)")

	// ErrNameTooLong means the entry name would overflow its 16-bit length field.
	ErrNameTooLong = errors.New("zip: entry name exceeds 65535 bytes")
)

// An Entry is the metadata recorded for the archive's single file. It is
// fully populated before serialization and copied verbatim into both the
// local header and the central directory.
type Entry struct {
	Name             string
	Modified         time.Time
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
}

// Compress packs data into a one-entry ZIP archive stored under name,
// stamped with the current time, and returns the complete archive bytes.
func Compress(name string, data []byte) ([]byte, error) {
	return compress(name, time.Now(), data)
}

// CompressFile compresses the file at src into a new archive at dst. The
// entry is stored under the base name of src with its modification time.
// Nothing is written to dst unless the whole archive was assembled.
func CompressFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("zip: read input: %w", err)
	}
	var modified time.Time
	if fi, err := os.Stat(src); err == nil {
		modified = fi.ModTime()
	}

	archive, err := compress(filepath.Base(src), modified, data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(dst, archive, 0666); err != nil {
		return fmt.Errorf("zip: write archive: %w", err)
	}
	return nil
}

// compress runs the whole pipeline: tokenize and encode the data, checksum
// the original bytes, then serialize the container.
func compress(name string, modified time.Time, data []byte) ([]byte, error) {
	if uint64(len(data)) > 0xffffffff {
		return nil, ErrTooLarge
	}

	var buf bytes.Buffer
	w := flate.NewWriter(&buf)
	w.Write(data)
	if err := w.Close(); err != nil {
		return nil, err
	}
	compressed := buf.Bytes()

	e := Entry{
		Name:             name,
		Modified:         modified,
		CRC32:            crc32.Checksum(data),
		CompressedSize:   uint32(len(compressed)),
		UncompressedSize: uint32(len(data)),
	}
	return Archive(nil, e, compressed)
}

// Archive appends a complete one-entry archive to dst: local file header,
// the compressed bytes verbatim, one central directory entry, and the
// end-of-central-directory record. The entry's local header is at offset 0.
func Archive(dst []byte, e Entry, compressed []byte) ([]byte, error) {
	if len(e.Name) > 0xffff {
		return dst, ErrNameTooLong
	}
	// Checking the central directory offset covers the compressed size too:
	// the offset is the local header plus the name plus the payload.
	offset := uint64(30) + uint64(len(e.Name)) + uint64(len(compressed))
	if offset > 0xffffffff {
		return dst, ErrTooLarge
	}

	centralDirOffset := uint32(offset)
	centralDirSize := uint32(46 + len(e.Name))

	dst = appendLocalHeader(dst, &e)
	dst = append(dst, compressed...)
	dst = appendCentralDir(dst, &e, 0)
	dst = appendEndCentralDir(dst, 1, centralDirSize, centralDirOffset)
	return dst, nil
}

func appendLocalHeader(dst []byte, e *Entry) []byte {
	dosTime, dosDate := timeToDOS(e.Modified)

	var hdr [30]byte
	binary.LittleEndian.PutUint32(hdr[0:4], sigLocalFile)
	binary.LittleEndian.PutUint16(hdr[4:6], zipVersion)
	binary.LittleEndian.PutUint16(hdr[6:8], 0) // flags
	binary.LittleEndian.PutUint16(hdr[8:10], methodDeflate)
	binary.LittleEndian.PutUint16(hdr[10:12], dosTime)
	binary.LittleEndian.PutUint16(hdr[12:14], dosDate)
	binary.LittleEndian.PutUint32(hdr[14:18], e.CRC32)
	binary.LittleEndian.PutUint32(hdr[18:22], e.CompressedSize)
	binary.LittleEndian.PutUint32(hdr[22:26], e.UncompressedSize)
	binary.LittleEndian.PutUint16(hdr[26:28], uint16(len(e.Name)))
	binary.LittleEndian.PutUint16(hdr[28:30], 0) // extra field length

	dst = append(dst, hdr[:]...)
	dst = append(dst, e.Name...)
	return dst
}

func appendCentralDir(dst []byte, e *Entry, localOffset uint32) []byte {
	dosTime, dosDate := timeToDOS(e.Modified)

	var hdr [46]byte
	binary.LittleEndian.PutUint32(hdr[0:4], sigCentralDir)
	binary.LittleEndian.PutUint16(hdr[4:6], zipVersionUnix) // version made by (Unix)
	binary.LittleEndian.PutUint16(hdr[6:8], zipVersion)     // version needed
	binary.LittleEndian.PutUint16(hdr[8:10], 0)             // flags
	binary.LittleEndian.PutUint16(hdr[10:12], methodDeflate)
	binary.LittleEndian.PutUint16(hdr[12:14], dosTime)
	binary.LittleEndian.PutUint16(hdr[14:16], dosDate)
	binary.LittleEndian.PutUint32(hdr[16:20], e.CRC32)
	binary.LittleEndian.PutUint32(hdr[20:24], e.CompressedSize)
	binary.LittleEndian.PutUint32(hdr[24:28], e.UncompressedSize)
	binary.LittleEndian.PutUint16(hdr[28:30], uint16(len(e.Name)))
	binary.LittleEndian.PutUint16(hdr[30:32], 0) // extra field length
	binary.LittleEndian.PutUint16(hdr[32:34], 0) // comment length
	binary.LittleEndian.PutUint16(hdr[34:36], 0) // disk number
	binary.LittleEndian.PutUint16(hdr[36:38], 0) // internal attrs
	binary.LittleEndian.PutUint32(hdr[38:42], 0) // external attrs
	binary.LittleEndian.PutUint32(hdr[42:46], localOffset)

	dst = append(dst, hdr[:]...)
	dst = append(dst, e.Name...)
	return dst
}

func appendEndCentralDir(dst []byte, numEntries int, centralDirSize, centralDirOffset uint32) []byte {
	var hdr [22]byte
	binary.LittleEndian.PutUint32(hdr[0:4], sigEndCentralD)
	binary.LittleEndian.PutUint16(hdr[4:6], 0)                    // disk number
	binary.LittleEndian.PutUint16(hdr[6:8], 0)                    // disk with central dir
	binary.LittleEndian.PutUint16(hdr[8:10], uint16(numEntries))  // entries on disk
	binary.LittleEndian.PutUint16(hdr[10:12], uint16(numEntries)) // total entries
	binary.LittleEndian.PutUint32(hdr[12:16], centralDirSize)
	binary.LittleEndian.PutUint32(hdr[16:20], centralDirOffset)
	binary.LittleEndian.PutUint16(hdr[20:22], 0) // comment length

	return append(dst, hdr[:]...)
}

// timeToDOS converts a time to MS-DOS date/time format. The zero time
// serializes as the 0/0 sentinel; otherwise years clamp to the DOS range.
func timeToDOS(t time.Time) (dosTime, dosDate uint16) {
	if t.IsZero() {
		return 0, 0
	}
	// Clamp to DOS valid range (1980-2107)
	year := t.Year()
	if year < 1980 {
		year = 1980
	} else if year > 2107 {
		year = 2107
	}
	dosTime = uint16(t.Second()/2) | uint16(t.Minute())<<5 | uint16(t.Hour())<<11
	dosDate = uint16(t.Day()) | uint16(t.Month())<<5 | uint16(year-1980)<<9
	return
}
