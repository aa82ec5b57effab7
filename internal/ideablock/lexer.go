package ideablock

import "strings"

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenOpen
	tokenClose
)

// token is a span of the source. Tag names are lowercased.
type token struct {
	kind  tokenKind
	name  string
	start int
	end   int
}

// lex splits src into bare tags (<name> and </name>) and the text between
// them. Anything else that starts with '<' is text.
func lex(src string) []token {
	var toks []token
	textStart := 0

	flush := func(end int) {
		if end > textStart {
			toks = append(toks, token{kind: tokenText, start: textStart, end: end})
		}
	}

	for i := 0; i < len(src); {
		if src[i] != '<' {
			i++
			continue
		}
		kind, name, n := scanTag(src[i:])
		if n == 0 {
			i++
			continue
		}
		flush(i)
		toks = append(toks, token{kind: kind, name: name, start: i, end: i + n})
		i += n
		textStart = i
	}
	flush(len(src))

	return toks
}

// scanTag reports the tag at the start of s and its byte length, or a zero
// length when s does not start with a bare tag.
func scanTag(s string) (tokenKind, string, int) {
	i := 1
	kind := tokenOpen
	if i < len(s) && s[i] == '/' {
		kind = tokenClose
		i++
	}

	nameStart := i
	for i < len(s) && isNameByte(s[i], i == nameStart) {
		i++
	}
	if i == nameStart || i >= len(s) || s[i] != '>' {
		return tokenText, "", 0
	}

	return kind, strings.ToLower(s[nameStart:i]), i + 1
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		return true
	case c >= '0' && c <= '9', c == '-':
		return !first
	}
	return false
}
