// Package msformat reads and writes the text output of Hudson's ms coalescent
// simulator and the many tools that mimic it. Each replicate starts with a
// "//" line, followed by "segsites: n", a "positions:" line when n > 0, and
// then one line of n allele characters per haplotype.
package msformat

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/varmatrix/variantmatrix"
)

// MissingChar is written for, and read as, missing data.
const MissingChar = 'N'

var ErrFormat = errors.New("msformat: malformed input")

type Reader struct {
	scanner *bufio.Scanner
	line    int

	// pending holds a line that was read but belongs to the next replicate.
	pending    string
	hasPending bool

	// nsam is the sample count from the command line, or from the latest
	// replicate with segregating sites. Invariant replicates list no
	// haplotypes, so they take this count.
	nsam int
}

func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 64*1024*1024)
	return &Reader{scanner: s}
}

func (r *Reader) next() (string, bool) {
	if r.hasPending {
		r.hasPending = false
		return r.pending, true
	}
	if !r.scanner.Scan() {
		return "", false
	}
	r.line++
	return strings.TrimRight(r.scanner.Text(), " \t\r"), true
}

func (r *Reader) unread(line string) {
	r.pending, r.hasPending = line, true
}

func (r *Reader) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d: %s", ErrFormat, r.line, fmt.Sprintf(format, args...))
}

// Read returns the next replicate, or io.EOF when there are no more.
func (r *Reader) Read() (*variantmatrix.VariantMatrix, error) {
	// Skip the command line, seeds and anything else before the next "//".
	for {
		line, ok := r.next()
		if !ok {
			if err := r.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		if strings.HasPrefix(line, "//") {
			break
		}
		if r.line == 1 {
			r.nsam = commandSampleCount(line)
		}
	}

	line, ok := r.next()
	if !ok || !strings.HasPrefix(line, "segsites:") {
		return nil, r.errorf("expected segsites, found %q", line)
	}
	nsites, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "segsites:")))
	if err != nil || nsites < 0 {
		return nil, r.errorf("bad segsites line %q", line)
	}

	if nsites == 0 {
		// ms prints nothing more for an invariant replicate.
		r.skipHaplotypes()
		return variantmatrix.NewEmpty(r.nsam)
	}

	line, ok = r.next()
	if !ok || !strings.HasPrefix(line, "positions:") {
		return nil, r.errorf("expected positions, found %q", line)
	}
	fields := strings.Fields(strings.TrimPrefix(line, "positions:"))
	if len(fields) != nsites {
		return nil, r.errorf("segsites is %d but %d positions are listed", nsites, len(fields))
	}
	positions := make([]float64, nsites)
	for i, f := range fields {
		if positions[i], err = strconv.ParseFloat(f, 64); err != nil {
			return nil, r.errorf("position %d: %v", i, err)
		}
	}

	var haplotypes []string
	for {
		line, ok := r.next()
		if !ok {
			break
		}
		if strings.HasPrefix(line, "//") {
			r.unread(line)
			break
		}
		if line == "" {
			if len(haplotypes) > 0 {
				break
			}
			continue
		}
		if len(line) != nsites {
			return nil, r.errorf("haplotype %d has %d sites, expected %d", len(haplotypes), len(line), nsites)
		}
		haplotypes = append(haplotypes, line)
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Haplotypes are stored one per line; the matrix wants one row per site.
	nsam := len(haplotypes)
	r.nsam = nsam
	genotypes := make([]int8, nsites*nsam)
	for j, h := range haplotypes {
		for i := 0; i < nsites; i++ {
			code, err := decode(h[i])
			if err != nil {
				return nil, fmt.Errorf("%w: haplotype %d, site %d: %v", ErrFormat, j, i, err)
			}
			genotypes[i*nsam+j] = code
		}
	}

	return variantmatrix.New(genotypes, positions)
}

// commandSampleCount reads the sample count from an ms style command line,
// "ms nsam nreps ...". Anything else yields 0.
func commandSampleCount(line string) int {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (r *Reader) skipHaplotypes() {
	for {
		line, ok := r.next()
		if !ok {
			return
		}
		if strings.HasPrefix(line, "//") {
			r.unread(line)
			return
		}
	}
}

func decode(c byte) (int8, error) {
	switch {
	case c >= '0' && c <= '9':
		return int8(c - '0'), nil
	case c == MissingChar || c == '?':
		return variantmatrix.Mask, nil
	}
	return 0, fmt.Errorf("unexpected allele character %q", c)
}

// ReadAll reads every remaining replicate.
func (r *Reader) ReadAll() ([]*variantmatrix.VariantMatrix, error) {
	var out []*variantmatrix.VariantMatrix
	for {
		m, err := r.Read()
		if err == io.EOF {
			return out, nil
		} else if err != nil {
			return out, err
		}
		out = append(out, m)
	}
}

// Writer emits replicates in ms format.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the command line and seed lines that precede the first
// replicate in real ms output.
func (w *Writer) WriteHeader(command string, seeds ...int64) error {
	fmt.Fprintln(w.w, command)
	s := make([]string, len(seeds))
	for i, seed := range seeds {
		s[i] = strconv.FormatInt(seed, 10)
	}
	fmt.Fprintln(w.w, strings.Join(s, " "))
	return nil
}

// Write writes one replicate. Codes above 9 cannot be represented.
func (w *Writer) Write(m *variantmatrix.VariantMatrix) error {
	nsites, nsam := m.NSites(), m.NSam()

	fmt.Fprintf(w.w, "\n//\nsegsites: %d\n", nsites)
	if nsites == 0 {
		return nil
	}

	w.w.WriteString("positions:")
	for _, p := range m.PositionBuffer() {
		w.w.WriteByte(' ')
		w.w.WriteString(strconv.FormatFloat(p, 'g', -1, 64))
	}
	w.w.WriteByte('\n')

	g := m.GenotypeBuffer()
	line := make([]byte, nsites)
	for j := 0; j < nsam; j++ {
		for i := 0; i < nsites; i++ {
			code := g[i*nsam+j]
			switch {
			case code == variantmatrix.Mask:
				line[i] = MissingChar
			case code >= 0 && code <= 9:
				line[i] = '0' + byte(code)
			default:
				return fmt.Errorf("msformat: code %d at site %d, sample %d has no single character form", code, i, j)
			}
		}
		w.w.Write(line)
		w.w.WriteByte('\n')
	}

	return nil
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Format renders a single replicate, mainly for tests and debugging.
func Format(m *variantmatrix.VariantMatrix) (string, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Write(m); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
