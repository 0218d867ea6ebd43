package normalize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Mode selects how paths are lowercased.
type Mode string

const (
	// ModeASCII folds A-Z only. Percent-escapes and non-ASCII bytes are copied
	// verbatim, so the hex digits of %C3 stay upper case.
	ModeASCII Mode = "ascii"
	// ModeUnicode applies the Unicode lower case mapping to each decoded segment.
	ModeUnicode Mode = "unicode"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeASCII:
		return ModeASCII, nil
	case ModeUnicode:
		return ModeUnicode, nil
	default:
		return "", fmt.Errorf("unknown lowercase mode %q", raw)
	}
}

// Lower lowercases an escaped path according to mode.
func Lower(escapedPath string, mode Mode) string {
	if mode == ModeUnicode {
		return LowerUnicode(escapedPath)
	}
	return LowerASCII(escapedPath)
}

// LowerASCII lowercases the ASCII letters of an escaped path.
func LowerASCII(escapedPath string) string {
	var b []byte
	for i := 0; i < len(escapedPath); i++ {
		c := escapedPath[i]
		if c == '%' && i+2 < len(escapedPath) && isHex(escapedPath[i+1]) && isHex(escapedPath[i+2]) {
			if b != nil {
				b = append(b, escapedPath[i:i+3]...)
			}
			i += 2
			continue
		}
		if 'A' <= c && c <= 'Z' {
			if b == nil {
				b = make([]byte, i, len(escapedPath))
				copy(b, escapedPath[:i])
			}
			b = append(b, c+('a'-'A'))
			continue
		}
		if b != nil {
			b = append(b, c)
		}
	}
	if b == nil {
		return escapedPath
	}
	return string(b)
}

// LowerUnicode applies the Unicode lower case mapping to the runes of an
// escaped path. Runes may be written raw or as %XX escapes. Only runes whose
// case changes are rewritten, and their non-ASCII bytes are re-escaped with
// upper case hex. Every other byte, including existing escapes, reserved
// characters and invalid UTF-8, is copied verbatim.
func LowerUnicode(escapedPath string) string {
	decoded := make([]byte, 0, len(escapedPath))
	raw := make([]string, 0, len(escapedPath))
	for i := 0; i < len(escapedPath); i++ {
		if escapedPath[i] == '%' && i+2 < len(escapedPath) && isHex(escapedPath[i+1]) && isHex(escapedPath[i+2]) {
			decoded = append(decoded, unhex(escapedPath[i+1])<<4|unhex(escapedPath[i+2]))
			raw = append(raw, escapedPath[i:i+3])
			i += 2
			continue
		}
		decoded = append(decoded, escapedPath[i])
		raw = append(raw, escapedPath[i:i+1])
	}

	caser := cases.Lower(language.Und)
	var b strings.Builder
	changed := false
	for j := 0; j < len(decoded); {
		r, size := utf8.DecodeRune(decoded[j:])
		if r != utf8.RuneError || size > 1 {
			if lowered := caser.String(string(r)); lowered != string(r) {
				writeEscaped(&b, lowered)
				changed = true
				j += size
				continue
			}
		}
		for _, unit := range raw[j : j+size] {
			b.WriteString(unit)
		}
		j += size
	}
	if !changed {
		return escapedPath
	}
	return b.String()
}

func writeEscaped(b *strings.Builder, s string) {
	const upperHex = "0123456789ABCDEF"
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < utf8.RuneSelf && isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '-' || c == '.' || c == '_' || c == '~'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}
