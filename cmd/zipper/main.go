// The zipper command compresses a single file into a ZIP archive.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kino00/zipper/zip"
)

var quiet = flag.Bool("q", false, "quiet operation")

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		os.Exit(2)
	}
	input := flag.Arg(0)
	output := flag.Arg(1)

	if err := zip.CompressFile(input, output); err != nil {
		fatal("%v", err)
	}

	if !*quiet {
		in := fileSize(input)
		out := fileSize(output)
		pct := 0.0
		if in > 0 {
			pct = float64(out) / float64(in) * 100
		}
		fmt.Printf("%s (%d bytes) -> %s (%d bytes, %.1f%%)\n", input, in, output, out, pct)
	}
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		fatal("%v", err)
	}
	return fi.Size()
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: zipper [-q] input output[.zip]

Compress a single file into a ZIP archive using fixed-huffman DEFLATE.
Output is standard PKZIP format compatible with unzip, WinZip, etc.

Options:
  -q        quiet operation (no summary line)
  -h        display this help

Examples:
  zipper notes.txt notes.zip        Compress notes.txt into notes.zip
  zipper -q data.bin data.zip       Compress without printing a summary
`)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "zipper: "+format+"\n", args...)
	os.Exit(1)
}
