// Package codec renders arbitrary text as YAML scalars that Espanso reads
// back verbatim, and writes generated files atomically.
package codec

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// EmptyScalar is the token emitted for the empty string.
const EmptyScalar = "''"

// BlockIndent is the margin applied to every line of a block scalar.
const BlockIndent = "  "

// quoteTriggers are characters that force single quoting of a one-line value.
const quoteTriggers = ":|>-*&!%@`#'\"\t{}[],?"

// reservedWords resolve to non-string values when left plain.
var reservedWords = map[string]bool{
	"true":  true,
	"false": true,
	"null":  true,
	"~":     true,
}

// EscapeScalar returns a token that, placed in a YAML value position,
// decodes back to exactly s.
//
// Empty input becomes EmptyScalar. Multi-line input becomes a literal block
// ("|-" followed by each line indented by BlockIndent). One-line input with
// YAML punctuation, quotes, surrounding spaces, reserved words or numeric
// text is single quoted. Text that neither form can carry (control
// characters, carriage returns, blocks with leading indentation or a
// trailing newline) falls back to a double-quoted scalar.
func EscapeScalar(s string) string {
	if s == "" {
		return EmptyScalar
	}
	if needsDoubleQuotes(s) {
		return QuoteDouble(s)
	}
	if strings.Contains(s, "\n") {
		if !blockSafe(s) {
			return QuoteDouble(s)
		}
		lines := strings.Split(s, "\n")
		var b strings.Builder
		b.WriteString("|-")
		for _, line := range lines {
			b.WriteString("\n")
			b.WriteString(BlockIndent)
			b.WriteString(line)
		}
		return b.String()
	}
	if needsSingleQuotes(s) {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return s
}

// IsBlock reports whether token is a block scalar produced by EscapeScalar.
func IsBlock(token string) bool {
	return strings.HasPrefix(token, "|")
}

func needsSingleQuotes(s string) bool {
	if strings.ContainsAny(s, quoteTriggers) {
		return true
	}
	if strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		return true
	}
	if reservedWords[s] {
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return !plainRoundTrips(s)
}

// plainRoundTrips asks the YAML decoder whether s, left unquoted, still
// reads back as the same string. It catches resolver forms the trigger list
// does not name (True, NULL, 0o17, .inf, ...).
func plainRoundTrips(s string) bool {
	var out map[string]any
	if err := yaml.Unmarshal([]byte("v: "+s+"\n"), &out); err != nil {
		return false
	}
	got, ok := out["v"].(string)
	return ok && got == s
}

// blockSafe reports whether a multi-line s survives a "|-" block unchanged.
// The first line sets the block's indentation and the strip indicator
// drops trailing newlines, so both ends must be plain text.
func blockSafe(s string) bool {
	first := s
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first = s[:i]
	}
	if first == "" || first[0] == ' ' || first[0] == '\t' {
		return false
	}
	return !strings.HasSuffix(s, "\n")
}

// needsDoubleQuotes reports whether s holds characters that only a
// double-quoted scalar can carry: non-printable runes, carriage returns and
// the Unicode line breaks YAML folds in other styles.
func needsDoubleQuotes(s string) bool {
	if !utf8.ValidString(s) {
		return true
	}
	for _, r := range s {
		if r == '\n' || r == '\t' {
			continue
		}
		if r == '\r' || r == 0x85 || r == 0x2028 || r == 0x2029 || !printable(r) {
			return true
		}
	}
	return false
}

// printable follows the YAML 1.2 c-printable production.
func printable(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0x7E:
		return true
	case r == 0x85:
		return true
	case r >= 0xA0 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return r != 0xFEFF
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// QuoteDouble renders s as a one-line YAML double-quoted scalar.
func QuoteDouble(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0x85:
			b.WriteString(`\N`)
		case 0x2028:
			b.WriteString(`\L`)
		case 0x2029:
			b.WriteString(`\P`)
		default:
			switch {
			case !printable(r) && r <= 0xFF:
				fmt.Fprintf(&b, `\x%02X`, r)
			case !printable(r) && r <= 0xFFFF:
				fmt.Fprintf(&b, `\u%04X`, r)
			case !printable(r):
				fmt.Fprintf(&b, `\U%08X`, r)
			default:
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// CommentSafe flattens s onto a single line for use inside a YAML comment.
func CommentSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', 0x85, 0x2028, 0x2029:
			return ' '
		}
		if !printable(r) {
			return -1
		}
		return r
	}, s)
}
