package varmatrix

import (
	"bufio"
	"bytes"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file. It looks only at buffered
// data, so nothing is consumed from br. Whitespace-separated input without a
// clear winner is treated as tab delimited.
func DetermineDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(br.Size())
	if i := bytes.LastIndexByte(head, '\n'); i > 0 {
		// Don't let a truncated last line skew the guess.
		head = head[:i+1]
	}

	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(head), '"')
	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	if bytes.ContainsRune(head, '\t') {
		return '\t'
	}

	return ','
}
