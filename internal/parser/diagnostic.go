package parser

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// DiagnosticLexer tokenizes one simulator failure line.
// Words match the \w+ class the simulator uses for names and values.
var DiagnosticLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Word", Pattern: `[A-Za-z0-9_]+`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Punct", Pattern: `[^\sA-Za-z0-9_]`},
})

// Diagnostic is a parsed failure line: "<signal> = <actual> (expected <expected>)".
// Anything after the closing parenthesis is kept in Trailer and ignored.
type Diagnostic struct {
	Signal   string   `parser:"@Word '='"`
	Actual   string   `parser:"@Word"`
	Expected string   `parser:"'(' 'expected' @Word ')'"`
	Trailer  []string `parser:"( @Word | @Punct )*"`
}

// DiagnosticParser parses failure lines.
type DiagnosticParser struct {
	parser *participle.Parser[Diagnostic]
}

// NewDiagnosticParser builds the diagnostic grammar.
func NewDiagnosticParser() (*DiagnosticParser, error) {
	p, err := participle.Build[Diagnostic](
		participle.Lexer(DiagnosticLexer),
		participle.Elide("Whitespace"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build diagnostic parser: %w", err)
	}
	return &DiagnosticParser{parser: p}, nil
}

// Parse finds the diagnostic inside line. Text before the signal name
// (indentation, a "vector 3:" prefix and the like) is skipped: every '='
// is tried as the assignment, starting from the word just before it.
func (p *DiagnosticParser) Parse(line string) (*Diagnostic, error) {
	var lastErr error
	for offset := 0; offset < len(line); {
		eq := strings.IndexByte(line[offset:], '=')
		if eq < 0 {
			break
		}
		eq += offset
		offset = eq + 1

		start, ok := wordBefore(line, eq)
		if !ok {
			continue
		}
		d, err := p.parser.ParseString("", line[start:])
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no \"<signal> = <value>\" assignment")
	}
	return nil, fmt.Errorf("unrecognized diagnostic %q: %w", strings.TrimSpace(line), lastErr)
}

// wordBefore returns the start of the word that precedes position eq,
// skipping blanks in between.
func wordBefore(line string, eq int) (int, bool) {
	i := eq
	for i > 0 && (line[i-1] == ' ' || line[i-1] == '\t') {
		i--
	}
	end := i
	for i > 0 && isWordByte(line[i-1]) {
		i--
	}
	return i, i < end
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
