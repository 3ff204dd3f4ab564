package probe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"csv2fts/internal/datasource"
)

// Candidates are the delimiters DetectDelimiter considers, in tie-break order.
var Candidates = []rune{',', ';', '\t', '|'}

// DetectDelimiter returns the candidate with the strictly highest count in
// line. Comma is the starting best with a count of zero, so it wins ties and
// is returned when no candidate occurs.
func DetectDelimiter(line string) rune {
	best, bestN := ',', 0
	for _, d := range Candidates {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

// FirstLine reads r up to and excluding the first '\n' (or EOF). The whole
// line is read however long it is.
func FirstLine(r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	line, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// SniffDelimiter opens src and applies DetectDelimiter to its first line.
// Failing to open src is an error; an empty source yields comma.
func SniffDelimiter(ctx context.Context, src datasource.Source) (rune, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("sniff delimiter: %w", err)
	}
	defer rc.Close()

	line, err := FirstLine(rc)
	if err != nil {
		return 0, fmt.Errorf("sniff delimiter: read first line: %w", err)
	}
	return DetectDelimiter(line), nil
}

// DecodeDelimiter converts a user-supplied delimiter into a rune. ok is false
// for "auto" and the empty string, meaning the caller should sniff.
//
// Accepted forms: "auto", "comma", "semicolon", "tab", "pipe", `\t`, or any
// single character.
func DecodeDelimiter(s string) (r rune, ok bool) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, false
	case "comma":
		return ',', true
	case "semicolon":
		return ';', true
	case "tab", `\t`:
		return '\t', true
	case "pipe":
		return '|', true
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, false
	}
	return r, true
}

// DelimiterName renders d for log lines.
func DelimiterName(d rune) string {
	switch d {
	case '\t':
		return "tab"
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '|':
		return "pipe"
	default:
		return string(d)
	}
}
