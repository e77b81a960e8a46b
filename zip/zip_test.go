package zip

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math/bits"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kino00/zipper/crc32"
	"github.com/kino00/zipper/flate"
)

// readArchive opens a one-entry archive with the standard library's reader
// and returns the entry's metadata and extracted contents. Extraction also
// verifies the recorded CRC-32.
func readArchive(t *testing.T, archive []byte) (*zip.File, []byte) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	if len(zr.File) != 1 {
		t.Fatalf("archive holds %d entries, want 1", len(zr.File))
	}
	f := zr.File[0]
	r, err := f.Open()
	if err != nil {
		t.Fatalf("opening entry: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("extracting entry: %v", err)
	}
	return f, data
}

func TestCompress(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	random := make([]byte, 4096)
	rng.Read(random)

	corpora := []struct {
		name string
		data []byte
	}{
		{"hello.txt", []byte("HelloHelloHelloHelloHelloHelloHelloHelloHelloHello, world")},
		{"text.txt", []byte(strings.Repeat("a sentence that keeps coming back around. ", 5000))},
		{"random.bin", random},
	}

	for _, c := range corpora {
		archive, err := Compress(c.name, c.data)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		f, extracted := readArchive(t, archive)
		if f.Name != c.name {
			t.Errorf("%s: entry name %q", c.name, f.Name)
		}
		if f.Method != zip.Deflate {
			t.Errorf("%s: method %d, want %d", c.name, f.Method, zip.Deflate)
		}
		if f.UncompressedSize64 != uint64(len(c.data)) {
			t.Errorf("%s: uncompressed size %d, want %d", c.name, f.UncompressedSize64, len(c.data))
		}
		if want := crc32.Checksum(c.data); f.CRC32 != want {
			t.Errorf("%s: recorded CRC %#08x, want %#08x", c.name, f.CRC32, want)
		}
		if !bytes.Equal(extracted, c.data) {
			t.Errorf("%s: extracted contents don't match", c.name)
		}
	}
}

// TestCompressEmpty checks that an empty file still produces a complete,
// readable archive: the DEFLATE stream is the two-byte end-of-block-only
// block, and the CRC is zero.
func TestCompressEmpty(t *testing.T) {
	archive, err := Compress("empty.txt", nil)
	if err != nil {
		t.Fatal(err)
	}
	f, extracted := readArchive(t, archive)
	if len(extracted) != 0 {
		t.Errorf("extracted %d bytes from an empty entry", len(extracted))
	}
	if f.CRC32 != 0 {
		t.Errorf("recorded CRC %#08x, want 0", f.CRC32)
	}
	if f.CompressedSize64 != 2 {
		t.Errorf("compressed size %d, want 2", f.CompressedSize64)
	}
	nameEnd := 30 + len("empty.txt")
	if got := archive[nameEnd : nameEnd+2]; !bytes.Equal(got, []byte{0x03, 0x00}) {
		t.Errorf("compressed stream is %x, want 0300", got)
	}
}

// TestCompressKnownAnswer pins the full pipeline on a 12-byte input with a
// known DEFLATE encoding and CRC: the literal 'A' followed by a match with
// length 11 and distance 1, and checksum 0x63d14366.
func TestCompressKnownAnswer(t *testing.T) {
	archive, err := Compress("a.txt", bytes.Repeat([]byte{'A'}, 12))
	if err != nil {
		t.Fatal(err)
	}

	payload := archive[30+len("a.txt"):]
	if want := []byte{0x73, 0x44, 0x02, 0x00}; !bytes.Equal(payload[:4], want) {
		t.Errorf("compressed payload %x, want %x", payload[:4], want)
	}
	if got := binary.LittleEndian.Uint32(archive[14:18]); got != 0x63d14366 {
		t.Errorf("local header CRC %#08x, want 0x63d14366", got)
	}
	cd := 30 + len("a.txt") + 4
	if got := binary.LittleEndian.Uint32(archive[cd+16 : cd+20]); got != 0x63d14366 {
		t.Errorf("central directory CRC %#08x, want 0x63d14366", got)
	}
}

// TestLayout checks the serialized container field by field, independent of
// any reader's tolerance for nonstandard archives.
func TestLayout(t *testing.T) {
	name := "a.txt"
	data := []byte("hello, hello, hello")
	archive, err := Compress(name, data)
	if err != nil {
		t.Fatal(err)
	}

	u16 := func(off int) uint16 { return binary.LittleEndian.Uint16(archive[off : off+2]) }
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(archive[off : off+4]) }

	compressedSize := len(archive) - 30 - len(name) - 46 - len(name) - 22
	if compressedSize <= 0 {
		t.Fatalf("archive is %d bytes, too short for its fixed-size records", len(archive))
	}
	crc := crc32.Checksum(data)

	// Local file header.
	if got := u32(0); got != 0x04034b50 {
		t.Errorf("local header signature %#08x", got)
	}
	if got := u16(4); got != 20 {
		t.Errorf("version needed %d, want 20", got)
	}
	if got := u16(6); got != 0 {
		t.Errorf("flags %#04x, want 0", got)
	}
	if got := u16(8); got != 8 {
		t.Errorf("method %d, want 8", got)
	}
	if got := u32(14); got != crc {
		t.Errorf("local header CRC %#08x, want %#08x", got, crc)
	}
	if got := u32(18); got != uint32(compressedSize) {
		t.Errorf("local header compressed size %d, want %d", got, compressedSize)
	}
	if got := u32(22); got != uint32(len(data)) {
		t.Errorf("local header uncompressed size %d, want %d", got, len(data))
	}
	if got := u16(26); got != uint16(len(name)) {
		t.Errorf("name length %d, want %d", got, len(name))
	}
	if got := u16(28); got != 0 {
		t.Errorf("extra field length %d, want 0", got)
	}
	if got := string(archive[30 : 30+len(name)]); got != name {
		t.Errorf("local header name %q, want %q", got, name)
	}

	// Central directory, after the header and the compressed data.
	cd := 30 + len(name) + compressedSize
	if got := u32(cd); got != 0x02014b50 {
		t.Errorf("central directory signature %#08x", got)
	}
	if got := u16(cd + 4); got != 0x0314 {
		t.Errorf("version made by %#04x, want 0x0314", got)
	}
	if got := u16(cd + 6); got != 20 {
		t.Errorf("central directory version needed %d, want 20", got)
	}
	if got := u32(cd + 16); got != crc {
		t.Errorf("central directory CRC %#08x, want %#08x", got, crc)
	}
	if got := u32(cd + 42); got != 0 {
		t.Errorf("local header offset %d, want 0", got)
	}
	if got := string(archive[cd+46 : cd+46+len(name)]); got != name {
		t.Errorf("central directory name %q, want %q", got, name)
	}

	// End of central directory record.
	eocd := len(archive) - 22
	if got := u32(eocd); got != 0x06054b50 {
		t.Errorf("end record signature %#08x", got)
	}
	if got := u16(eocd + 8); got != 1 {
		t.Errorf("entries on disk %d, want 1", got)
	}
	if got := u16(eocd + 10); got != 1 {
		t.Errorf("total entries %d, want 1", got)
	}
	if got := u32(eocd + 12); got != uint32(46+len(name)) {
		t.Errorf("central directory size %d, want %d", got, 46+len(name))
	}
	if got := u32(eocd + 16); got != uint32(cd) {
		t.Errorf("central directory offset %d, want %d", got, cd)
	}
	if got := u16(eocd + 20); got != 0 {
		t.Errorf("comment length %d, want 0", got)
	}
}

// TestArchiveModified stamps an entry with a fixed UTC time; the standard
// library decodes MS-DOS timestamps as UTC, so the round trip is exact as
// long as the seconds are even.
func TestArchiveModified(t *testing.T) {
	data := []byte("timestamped data, timestamped data")
	var buf bytes.Buffer
	w := flate.NewWriter(&buf)
	w.Write(data)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	modified := time.Date(2024, 3, 15, 10, 30, 44, 0, time.UTC)
	e := Entry{
		Name:             "stamped.txt",
		Modified:         modified,
		CRC32:            crc32.Checksum(data),
		CompressedSize:   uint32(buf.Len()),
		UncompressedSize: uint32(len(data)),
	}
	archive, err := Archive(nil, e, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	f, extracted := readArchive(t, archive)
	if !bytes.Equal(extracted, data) {
		t.Error("extracted contents don't match")
	}
	if !f.Modified.Equal(modified) {
		t.Errorf("modified time %v, want %v", f.Modified, modified)
	}
}

func TestTimeToDOS(t *testing.T) {
	tests := []struct {
		t       time.Time
		dosTime uint16
		dosDate uint16
	}{
		{time.Time{}, 0, 0},
		{time.Date(2024, 3, 15, 10, 30, 44, 0, time.UTC), 21462, 22639},
		// Odd seconds round down to the format's 2-second resolution.
		{time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC), 21462, 22639},
		// Years outside 1980-2107 clamp to the representable range.
		{time.Date(1979, 12, 31, 23, 59, 59, 0, time.UTC), 49021, 415},
		{time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC), 0, 65057},
	}

	for _, test := range tests {
		dosTime, dosDate := timeToDOS(test.t)
		if dosTime != test.dosTime || dosDate != test.dosDate {
			t.Errorf("timeToDOS(%v) = %d, %d, want %d, %d",
				test.t, dosTime, dosDate, test.dosTime, test.dosDate)
		}
	}
}

func TestNameTooLong(t *testing.T) {
	name := strings.Repeat("n", 65536)
	if _, err := Compress(name, []byte("x")); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("Compress with a %d-byte name returned %v, want ErrNameTooLong", len(name), err)
	}
	if _, err := Archive(nil, Entry{Name: name}, nil); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("Archive with a %d-byte name returned %v, want ErrNameTooLong", len(name), err)
	}
	// 65535 bytes still fits the 16-bit length field.
	if _, err := Compress(strings.Repeat("n", 65535), []byte("x")); err != nil {
		t.Errorf("Compress with a 65535-byte name returned %v", err)
	}
}

func TestArchiveTooLarge(t *testing.T) {
	if bits.UintSize < 64 {
		t.Skip("needs 64-bit slice lengths")
	}
	if testing.Short() {
		t.Skip("allocates a 4GB payload")
	}
	// Sized so that the payload alone fits a u32 but the central directory
	// offset (30-byte local header, name, payload) does not. Archive must
	// reject it rather than let the offset field wrap.
	n := uint64(0xffffffff) - 20
	payload := make([]byte, int(n))
	if _, err := Archive(nil, Entry{Name: "huge.bin"}, payload); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Archive with a %d-byte payload returned %v, want ErrTooLarge", n, err)
	}
}

func TestCompressFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	dst := filepath.Join(dir, "notes.zip")
	data := []byte(strings.Repeat("some file contents worth keeping. ", 300))
	if err := os.WriteFile(src, data, 0666); err != nil {
		t.Fatal(err)
	}

	if err := CompressFile(src, dst); err != nil {
		t.Fatal(err)
	}

	archive, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	f, extracted := readArchive(t, archive)
	if f.Name != "notes.txt" {
		t.Errorf("entry name %q, want %q", f.Name, "notes.txt")
	}
	if !bytes.Equal(extracted, data) {
		t.Error("extracted contents don't match")
	}
	if f.Modified.IsZero() {
		t.Error("entry has no modification time")
	}
}

// TestCompressFileMissing checks that a failed run leaves nothing behind:
// the archive is written only after it has been fully assembled.
func TestCompressFileMissing(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.zip")

	err := CompressFile(filepath.Join(dir, "does-not-exist"), dst)
	if err == nil {
		t.Fatal("CompressFile succeeded on a missing input")
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Errorf("archive %s exists after a failed run", dst)
	}
}
