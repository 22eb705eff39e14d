package server

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// token is a piece of a source line with its byte column.
type token struct {
	Text string
	Col  int
}

// sourceLine is one assembly line with comments removed. Lines holding only
// a label have an empty Mnemonic.
type sourceLine struct {
	Line     int
	Label    token
	Mnemonic token
	Args     []token
}

// scanSource splits assembly text into lines of
//
//	[label:] mnemonic [operand {, operand}] [; comment]
//
// It does not interpret operands beyond splitting on commas outside quotes.
func scanSource(text string) []sourceLine {
	var out []sourceLine
	for n, raw := range strings.Split(text, "\n") {
		line := stripComment(strings.TrimRight(raw, "\r"))
		sl := sourceLine{Line: n}
		pos := skipSpace(line, 0)
		if pos == len(line) {
			continue
		}

		end := wordEnd(line, pos)
		if end < len(line) && line[end] == ':' && end > pos {
			sl.Label = token{Text: line[pos:end], Col: pos}
			pos = skipSpace(line, end+1)
			end = wordEnd(line, pos)
		}
		if end > pos {
			sl.Mnemonic = token{Text: line[pos:end], Col: pos}
			sl.Args = splitOperands(line, skipSpace(line, end))
		}
		if sl.Label.Text == "" && sl.Mnemonic.Text == "" {
			continue
		}
		out = append(out, sl)
	}
	return out
}

// stripComment cuts line at the first ';' outside a quoted literal.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case quote != 0 && ch == '\\':
			i++
		case quote != 0 && ch == quote:
			quote = 0
		case quote != 0:
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == ';':
			return line[:i]
		}
	}
	return line
}

func splitOperands(line string, pos int) []token {
	if pos >= len(line) {
		return nil
	}
	var (
		args  []token
		quote byte
		start = pos
	)
	flush := func(end int) {
		s := line[start:end]
		lead := len(s) - len(strings.TrimLeftFunc(s, unicode.IsSpace))
		args = append(args, token{Text: strings.TrimSpace(s), Col: start + lead})
	}
	for i := pos; i < len(line); i++ {
		ch := line[i]
		switch {
		case quote != 0 && ch == '\\':
			i++
		case quote != 0 && ch == quote:
			quote = 0
		case quote != 0:
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == ',':
			flush(i)
			start = i + 1
		}
	}
	flush(len(line))
	return args
}

func skipSpace(line string, pos int) int {
	for pos < len(line) && (line[pos] == ' ' || line[pos] == '\t') {
		pos++
	}
	return pos
}

func wordEnd(line string, pos int) int {
	for pos < len(line) {
		r, size := utf8.DecodeRuneInString(line[pos:])
		if !isWordRune(r) {
			break
		}
		pos += size
	}
	return pos
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

// isIdent reports whether s can name a label.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !unicode.IsLetter(r) && r != '_' {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
