package stdio

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Directive characters shared by the print and scan translators.
const (
	printFlags      = "+-# 0123456789.*[]"
	lengthModifiers = "hlLjz"
)

// printfFormat rewrites the C directives fmt does not know into their fmt
// equivalents: length modifiers are dropped and %i and %u become %d.
// Everything else, including fmt-only verbs, passes through.
func printfFormat(format string) string {
	if !strings.ContainsRune(format, '%') {
		return format
	}

	var b strings.Builder

	b.Grow(len(format))

	for i := 0; i < len(format); {
		c := format[i]
		i++

		b.WriteByte(c)

		if c != '%' {
			continue
		}

		if i < len(format) && format[i] == '%' {
			b.WriteByte('%')
			i++

			continue
		}

		for i < len(format) && strings.IndexByte(printFlags, format[i]) >= 0 {
			b.WriteByte(format[i])
			i++
		}

		for i < len(format) && strings.IndexByte(lengthModifiers, format[i]) >= 0 {
			i++
		}

		if i < len(format) {
			b.WriteByte(integerVerb(format[i], 'd'))
			i++
		}
	}

	return b.String()
}

func integerVerb(verb, signed byte) byte {
	switch verb {
	case 'i':
		return signed
	case 'u':
		return 'd'
	default:
		return verb
	}
}

// scanf runs format against the stream one directive at a time. Whitespace
// in the format, and the implicit skip before every conversion except %c,
// consumes any run of whitespace including newlines.
//
// It returns the number of values stored and whether scanning stopped on an
// input failure (end-of-stream or a read error) rather than a mismatch.
func (src *scanSource) scanf(format string, args []any) (int, bool) {
	stored := 0
	next := 0

	for i := 0; i < len(format); {
		c, w := utf8.DecodeRuneInString(format[i:])

		switch {
		case unicode.IsSpace(c):
			i += w
			for i < len(format) {
				c, w = utf8.DecodeRuneInString(format[i:])
				if !unicode.IsSpace(c) {
					break
				}

				i += w
			}

			if err := src.skipSpace(); err != nil && src.failed {
				return stored, true
			}

			continue

		case c != '%':
			i += w

			if ok, input := src.match(c); !ok {
				return stored, input
			}

			continue
		}

		i++

		if i < len(format) && format[i] == '%' {
			i++

			if err := src.skipSpace(); err != nil {
				return stored, true
			}

			if ok, input := src.match('%'); !ok {
				return stored, input
			}

			continue
		}

		d, n, ok := parseScanDirective(format[i:])
		if !ok {
			return stored, false
		}

		i += n

		if d.verb != 'c' {
			if err := src.skipSpace(); err != nil {
				return stored, true
			}
		}

		var target any

		switch {
		case d.suppress:
			target = discardTarget(d.verb)
		case next < len(args):
			target = args[next]
			next++
		default:
			return stored, false
		}

		if _, err := fmt.Fscanf(src, d.String(), target); err != nil {
			return stored, src.failed || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
		}

		if !d.suppress {
			stored++
		}
	}

	return stored, false
}

// skipSpace consumes whitespace up to the next non-space rune. It returns
// the read error that ended the run, if any.
func (src *scanSource) skipSpace() error {
	for {
		r, _, err := src.ReadRune()
		if err != nil {
			return err
		}

		if !unicode.IsSpace(r) {
			return src.UnreadRune()
		}
	}
}

// match consumes want from the input. On a different rune the rune is left
// unread; the second result reports an input failure.
func (src *scanSource) match(want rune) (bool, bool) {
	r, _, err := src.ReadRune()
	if err != nil {
		return false, true
	}

	if r != want {
		_ = src.UnreadRune()

		return false, false
	}

	return true, false
}

type scanDirective struct {
	suppress bool
	width    string
	verb     rune
}

// String renders the directive as a single fmt scan verb.
func (d scanDirective) String() string {
	return "%" + d.width + string(d.verb)
}

// parseScanDirective parses what follows a '%': an optional '*', a width,
// length modifiers and the conversion. %i scans with fmt's %v, which honors
// base prefixes.
func parseScanDirective(s string) (scanDirective, int, bool) {
	var d scanDirective

	i := 0
	if i < len(s) && s[i] == '*' {
		d.suppress = true
		i++
	}

	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}

	d.width = s[start:i]

	for i < len(s) && strings.IndexByte(lengthModifiers, s[i]) >= 0 {
		i++
	}

	if i >= len(s) {
		return d, i, false
	}

	verb, w := utf8.DecodeRuneInString(s[i:])
	if verb < utf8.RuneSelf {
		verb = rune(integerVerb(byte(verb), 'v'))
	}

	d.verb = verb

	return d, i + w, true
}

// discardTarget returns somewhere to scan a suppressed conversion into.
func discardTarget(verb rune) any {
	switch verb {
	case 'c':
		return new(rune)
	case 'd', 'v', 'x', 'X', 'o', 'O', 'b':
		return new(int64)
	case 'e', 'E', 'f', 'F', 'g', 'G':
		return new(float64)
	case 't':
		return new(bool)
	default:
		return new(string)
	}
}
