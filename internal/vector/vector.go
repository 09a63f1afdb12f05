// Package vector loads test vector files: a header line of signal names
// followed by whitespace-separated value rows, one value per signal.
//
// Comment lines (leading '#') and blank lines are dropped before rows are
// numbered, so row references used elsewhere index the filtered file with
// 0 being the header and 1..N the data rows.
package vector

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/vectorcheck/internal/model"
)

// suffixPattern matches a bit-width or array annotation such as "[4]" or "(8)".
var suffixPattern = regexp.MustCompile(`[\(\[].*?[\)\]]`)

// TestVector is a parsed vector file. It is read-only after construction.
type TestVector struct {
	// Path is the file the vector was loaded from, empty for parsed text.
	Path string

	// Labels are the header tokens as written, annotations included.
	Labels []string

	// Header holds the bare signal names used for matching.
	Header []string

	// Rows are the data rows. Rows[i] has line reference i+1.
	Rows [][]string

	// lines maps each filtered line (header included) to its 1-based line
	// number in the original text.
	lines []int
}

// ParseOptions controls how text is split into rows.
type ParseOptions struct {
	// StripComments drops lines whose first non-blank character is '#'.
	// Vector files use it; simulator tables do not.
	StripComments bool
}

// Load reads and parses a vector file.
// Every failure is reported as a VECTOR_FORMAT error.
func Load(path string) (*TestVector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewVectorFormatError(path, "cannot read vector file", err)
	}

	tv, err := Parse(string(data), ParseOptions{StripComments: true})
	if err != nil {
		return nil, model.NewVectorFormatError(path, "malformed vector file", err)
	}
	tv.Path = path
	return tv, nil
}

// ErrEmpty is returned by Parse when no header line remains after filtering.
var ErrEmpty = errors.New("no header line")

// RowWidthError reports a data row whose token count differs from the header.
type RowWidthError struct {
	Row      int // line reference (1-based data row)
	FileLine int // line number in the original text
	Got      int
	Want     int
}

func (e *RowWidthError) Error() string {
	return fmt.Sprintf("row %d (line %d) has %d values, header has %d", e.Row, e.FileLine, e.Got, e.Want)
}

// Parse splits text into a header and data rows.
// Text is NFC-normalized first so that visually identical tokens compare equal.
func Parse(text string, opts ParseOptions) (*TestVector, error) {
	lines, numbers := filterLines(norm.NFC.String(text), opts.StripComments)
	if len(lines) == 0 {
		return nil, ErrEmpty
	}

	labels := strings.Fields(lines[0])
	tv := &TestVector{
		Labels: labels,
		Header: make([]string, len(labels)),
		Rows:   make([][]string, 0, len(lines)-1),
		lines:  numbers,
	}
	for i, label := range labels {
		tv.Header[i] = StripSuffix(label)
	}

	for i, line := range lines[1:] {
		row := strings.Fields(line)
		if len(row) != len(tv.Header) {
			return nil, &RowWidthError{Row: i + 1, FileLine: numbers[i+1], Got: len(row), Want: len(tv.Header)}
		}
		tv.Rows = append(tv.Rows, row)
	}

	return tv, nil
}

// StripSuffix removes bracketed or parenthesized annotations from a signal name.
func StripSuffix(label string) string {
	return suffixPattern.ReplaceAllString(label, "")
}

func filterLines(text string, stripComments bool) ([]string, []int) {
	var (
		lines   []string
		numbers []int
	)
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if stripComments && strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, line)
		numbers = append(numbers, i+1)
	}
	return lines, numbers
}

// Width returns the number of signals.
func (v *TestVector) Width() int {
	return len(v.Header)
}

// Len returns the number of data rows.
func (v *TestVector) Len() int {
	return len(v.Rows)
}

// Row returns the data row with the given line reference (1..Len).
func (v *TestVector) Row(ref int) ([]string, bool) {
	if ref < 1 || ref > len(v.Rows) {
		return nil, false
	}
	return v.Rows[ref-1], true
}

// Index returns the column of a bare signal name, or -1.
func (v *TestVector) Index(signal string) int {
	for i, name := range v.Header {
		if name == signal {
			return i
		}
	}
	return -1
}

// FileLine returns the original line number of a line reference, or 0 if
// the reference is out of range.
func (v *TestVector) FileLine(ref int) int {
	if ref < 0 || ref >= len(v.lines) {
		return 0
	}
	return v.lines[ref]
}
