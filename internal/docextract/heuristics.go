package docextract

import "strings"

const (
	tripleSingle = "'''"
	tripleDouble = `"""`
	blockOpen    = "/**"
	blockClose   = "*/"

	leadingSpace = " \t\r\n\f\v"
)

// ExtractDocstring returns the trimmed body of the triple-quoted string that opens text.
// Only whitespace may precede the opener; only a closer of the same style ends it.
// A missing or unterminated docstring yields "".
func ExtractDocstring(text string) string {
	body := strings.TrimLeft(text, leadingSpace)
	for _, delim := range []string{tripleSingle, tripleDouble} {
		if strings.HasPrefix(body, delim) {
			return between(body, 0, delim, delim)
		}
	}
	return ""
}

// ExtractBlockComment returns the trimmed body of the first /** ... */ comment in text.
func ExtractBlockComment(text string) string {
	start := strings.Index(text, blockOpen)
	if start < 0 {
		return ""
	}
	return between(text, start, blockOpen, blockClose)
}

func between(text string, start int, opener, closer string) string {
	body := text[start+len(opener):]
	end := strings.Index(body, closer)
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(body[:end])
}
