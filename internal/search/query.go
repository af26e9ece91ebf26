// Package search parses free-text queries into structured modifiers and
// applies them to in-memory user and book collections.
//
// The query language understands two modifiers, borrowed from the school
// front desk: "klasse?3a" narrows to a class (prefix match on the school
// grade) and "fällig?" narrows to users with an overdue loan. Whatever
// remains is a substring term matched against names and IDs.
package search

import (
	"regexp"
	"strings"
)

// TokenKind tags one parsed token of a query.
type TokenKind int

const (
	TokenText    TokenKind = iota // plain search word
	TokenClass                    // klasse?<label>
	TokenOverdue                  // fällig?
)

// Token is one tagged variant produced by Tokenize.
type Token struct {
	Kind  TokenKind
	Value string // class label or text word; empty for TokenOverdue
}

const (
	classKeyword   = "klasse?"
	overdueKeyword = "fällig?"
)

// classLabelPattern accepts digits, ASCII letters and the Latin-1/Latin
// Extended-A range, so German class names like "3a" or "5ü" parse.
var classLabelPattern = regexp.MustCompile(`^[0-9a-z\x{00C0}-\x{017F}]+$`)

// Tokenize splits a lower-cased query into tagged tokens. Modifiers may
// appear anywhere and in any combination. The class label may be glued to
// the keyword ("klasse?3a") or follow as the next word ("klasse? 3a");
// a bare "klasse?" with no valid label yields no class token.
func Tokenize(raw string) []Token {
	words := strings.Fields(strings.ToLower(raw))
	tokens := make([]Token, 0, len(words))

	for i := 0; i < len(words); i++ {
		word := words[i]

		if word == overdueKeyword {
			tokens = append(tokens, Token{Kind: TokenOverdue})
			continue
		}

		if strings.HasPrefix(word, classKeyword) {
			label := strings.TrimPrefix(word, classKeyword)
			if label == "" && i+1 < len(words) && classLabelPattern.MatchString(words[i+1]) {
				label = words[i+1]
				i++
			}
			if classLabelPattern.MatchString(label) {
				tokens = append(tokens, Token{Kind: TokenClass, Value: label})
			}
			// Bare "klasse?" without a capturable label is dropped:
			// it filters nothing rather than everything.
			continue
		}

		tokens = append(tokens, Token{Kind: TokenText, Value: word})
	}

	return tokens
}

// Query is the structured form of a search string.
type Query struct {
	ClassFilter    string // lower-cased class label
	HasClassFilter bool
	Overdue        bool
	Text           string // residual free-text term, lower-cased
}

// ParseQuery tokenizes a raw search string and folds the tokens into a
// Query. Repeated modifiers keep the last occurrence.
func ParseQuery(raw string) Query {
	var q Query
	var textWords []string

	for _, tok := range Tokenize(raw) {
		switch tok.Kind {
		case TokenClass:
			q.ClassFilter = tok.Value
			q.HasClassFilter = true
		case TokenOverdue:
			q.Overdue = true
		case TokenText:
			textWords = append(textWords, tok.Value)
		}
	}

	q.Text = strings.Join(textWords, " ")
	return q
}

// isAllDigits reports whether s is non-empty and consists only of ASCII
// digits, the shape of a barcode scan.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// stripLeadingZeros normalizes zero-padded barcode input so "007" resolves
// the same way "7" does. A string of only zeros collapses to "0".
func stripLeadingZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
