// Package textnorm folds place names so that spelling variants compare equal.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'", "´", "'", "ʼ", "'")

// StripAccents removes combining marks: "Écully" becomes "Ecully".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	return out
}

// NormalizeApostrophes maps typographic apostrophes to ASCII.
func NormalizeApostrophes(s string) string {
	return apostrophes.Replace(s)
}

// Lower lower-cases, trims and collapses inner whitespace.
func Lower(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Fold is Lower without accents and with ASCII apostrophes.
func Fold(s string) string {
	return Lower(StripAccents(NormalizeApostrophes(s)))
}

// RemoveSpaces drops every whitespace rune.
func RemoveSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

// Tokens splits s on anything that is not a letter or a digit and keeps the
// tokens of at least minLen runes.
func Tokens(s string, minLen int, dropNumeric bool) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < minLen {
			continue
		}
		if dropNumeric && IsNumeric(f) {
			continue
		}
		tokens = append(tokens, f)
	}

	return tokens
}

// SplitTrailingNumber splits "chapelle 7" into ("chapelle", "7"). The number
// must be separated from the base by a space, dash or underscore.
func SplitTrailingNumber(s string) (string, string) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) || i == 0 {
		return s, ""
	}

	base := strings.TrimRight(s[:i], " -_")
	if base == "" || len(base) == i {
		return s, ""
	}

	return base, s[i:]
}

// SameNumber compares two numeric strings ignoring leading zeros.
func SameNumber(a, b string) bool {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	return a == b
}
