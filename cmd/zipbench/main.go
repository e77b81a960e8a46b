// Command zipbench compares this repository's fixed-huffman DEFLATE
// compressor against other codecs on generated corpora, reporting compressed
// sizes, ratios, and throughput. With -svg it also renders a bar chart of
// the ratios for the largest text corpus.
//
// The random corpus is deliberately incompressible: fixed-huffman DEFLATE
// has no stored-block escape, so it shows the expansion that design accepts.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	kflate "github.com/klauspost/compress/flate"
	"github.com/pierrec/lz4/v4"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/kino00/zipper"
	"github.com/kino00/zipper/flate"
)

var (
	sizesFlag = flag.String("sizes", "4,64,512", "comma-separated corpus sizes in KB")
	reps      = flag.Int("reps", 3, "compression runs per measurement")
	svgPath   = flag.String("svg", "", "write a ratio bar chart to this file")
)

type codec struct {
	name     string
	compress func(dst *bytes.Buffer, src []byte) error
}

var codecs = []codec{
	{"zipper", compressZipper},
	{"flate-5", compressKlauspost},
	{"snappy", compressSnappy},
	{"brotli-6", compressBrotli},
	{"lz4", compressLZ4},
}

type corpus struct {
	name string
	data []byte
}

func main() {
	flag.Parse()

	sizes := parseSizes(*sizesFlag)

	fmt.Printf("%-8s %-8s %-10s %10s %10s %8s %10s\n",
		"size", "corpus", "codec", "in", "out", "ratio", "speed")

	var chartBars []chart.Value
	for _, kb := range sizes {
		for _, c := range makeCorpora(kb * 1024) {
			for _, cd := range codecs {
				out, elapsed, err := measure(cd, c.data)
				if err != nil {
					fatal("%s on %s: %v", cd.name, c.name, err)
				}
				ratio := float64(out) / float64(len(c.data)) * 100
				mbps := float64(len(c.data)*(*reps)) / elapsed.Seconds() / (1 << 20)
				fmt.Printf("%-8s %-8s %-10s %10d %10d %7.1f%% %7.1f MB/s\n",
					fmt.Sprintf("%dKB", kb), c.name, cd.name,
					len(c.data), out, ratio, mbps)

				if kb == sizes[len(sizes)-1] && c.name == "text" {
					chartBars = append(chartBars, chart.Value{
						Label: cd.name,
						Value: ratio,
					})
				}
			}
		}
	}

	if *svgPath != "" {
		if err := writeChart(*svgPath, chartBars); err != nil {
			fatal("write chart: %v", err)
		}
		fmt.Printf("wrote %s\n", *svgPath)
	}
}

// measure compresses data reps times and returns the compressed size and
// the total elapsed time.
func measure(cd codec, data []byte) (int, time.Duration, error) {
	var buf bytes.Buffer
	start := time.Now()
	for i := 0; i < *reps; i++ {
		buf.Reset()
		if err := cd.compress(&buf, data); err != nil {
			return 0, 0, err
		}
	}
	return buf.Len(), time.Since(start), nil
}

func compressZipper(dst *bytes.Buffer, src []byte) error {
	w := &zipper.Writer{
		Dest:        dst,
		MatchFinder: &zipper.ChainFinder{},
		Encoder:     flate.NewEncoder(),
	}
	w.Write(src)
	return w.Close()
}

func compressKlauspost(dst *bytes.Buffer, src []byte) error {
	w, err := kflate.NewWriter(dst, 5)
	if err != nil {
		return err
	}
	if _, err := w.Write(src); err != nil {
		return err
	}
	return w.Close()
}

func compressSnappy(dst *bytes.Buffer, src []byte) error {
	w := snappy.NewBufferedWriter(dst)
	if _, err := w.Write(src); err != nil {
		return err
	}
	return w.Close()
}

func compressBrotli(dst *bytes.Buffer, src []byte) error {
	w := brotli.NewWriterLevel(dst, 6)
	if _, err := w.Write(src); err != nil {
		return err
	}
	return w.Close()
}

func compressLZ4(dst *bytes.Buffer, src []byte) error {
	w := lz4.NewWriter(dst)
	if _, err := w.Write(src); err != nil {
		return err
	}
	return w.Close()
}

func makeCorpora(size int) []corpus {
	return []corpus{
		{"text", genText(size)},
		{"repeats", genRepeats(size)},
		{"binary", genBinary(size)},
		{"random", genRandom(size)},
	}
}

func genText(size int) []byte {
	sentences := []string{
		"The quick brown fox jumps over the lazy dog.",
		"In a world where technology advances rapidly, we must adapt.",
		"The economy continues to show signs of recovery.",
		"Scientists have discovered a new species in the deep ocean.",
		"Compression trades processor time for transmission size.",
		"Community engagement is essential for local development.",
	}
	var sb strings.Builder
	rng := rand.New(rand.NewSource(42))
	for sb.Len() < size {
		sb.WriteString(sentences[rng.Intn(len(sentences))])
		sb.WriteString(" ")
	}
	return []byte(sb.String()[:size])
}

func genRepeats(size int) []byte {
	phrase := []byte("abcabcabc the same phrase over and over again; ")
	data := bytes.Repeat(phrase, size/len(phrase)+1)
	return data[:size]
}

func genBinary(size int) []byte {
	data := make([]byte, size)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < size; {
		// Runs of a random byte interleaved with counters, so the data
		// is binary but still has structure to find.
		runLen := 4 + rng.Intn(64)
		b := byte(rng.Intn(256))
		for j := 0; j < runLen && i < size; j++ {
			if j%3 == 0 {
				data[i] = byte(i)
			} else {
				data[i] = b
			}
			i++
		}
	}
	return data
}

func genRandom(size int) []byte {
	data := make([]byte, size)
	rng := rand.New(rand.NewSource(42))
	rng.Read(data)
	return data
}

func writeChart(path string, bars []chart.Value) error {
	graph := chart.BarChart{
		Title:    "Compressed size as % of original (text corpus)",
		Height:   400,
		BarWidth: 60,
		Bars:     bars,
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return graph.Render(chart.SVG, f)
}

func parseSizes(s string) []int {
	var sizes []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			fatal("bad size %q", part)
		}
		sizes = append(sizes, n)
	}
	return sizes
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "zipbench: "+format+"\n", args...)
	os.Exit(1)
}
