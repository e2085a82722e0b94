package crypto

import (
	"html"
	"net/mail"
	"strings"
)

// SanitizeKind defines a public type used by shield APIs.
//
// SanitizeKind selects the sanitization rules applied by [Sanitize]. It is a
// closed enum so new kinds are handled exhaustively at compile time rather
// than through string-keyed branching.
type SanitizeKind uint8

const (
	// KindGeneric strips control characters and trims whitespace.
	KindGeneric SanitizeKind = iota
	// KindHTML escapes markup-significant characters.
	KindHTML
	// KindSQL neutralizes quote, comment, and statement-separator sequences.
	KindSQL
	// KindEmail lowercases, trims, and validates address syntax.
	KindEmail
)

var sqlReplacer = strings.NewReplacer(
	"'", "''",
	`\`, `\\`,
	"\x00", "",
	"--", "",
	"/*", "",
	"*/", "",
	";", "",
)

// Sanitize normalizes untrusted input according to kind. For KindEmail an
// address that fails to parse sanitizes to the empty string.
func Sanitize(input string, kind SanitizeKind) string {
	switch kind {
	case KindHTML:
		return html.EscapeString(stripControl(input))
	case KindSQL:
		return sqlReplacer.Replace(stripControl(input))
	case KindEmail:
		addr := strings.ToLower(strings.TrimSpace(input))
		if _, err := mail.ParseAddress(addr); err != nil {
			return ""
		}
		return addr
	default:
		return strings.TrimSpace(stripControl(input))
	}
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
