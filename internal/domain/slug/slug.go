// Package slug canonicalises free-form species and bonus identifiers into
// lookup keys. Catalog files, claim rows and bonus definitions spell the same
// thing in different ways ("Blue Cod", "blue_cod", "bluecod"); every lookup in
// the engine goes through this package so they all meet on the same key.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// BonusPrefix marks identifiers that name a bonus rather than a species.
const BonusPrefix = "bonus-"

// Normalize returns the canonical form of raw: trimmed, lowercased, with
// diacritics folded, runs of whitespace or underscores collapsed into a single
// hyphen and anything outside [a-z0-9-] removed. It is total; an empty or
// all-punctuation input yields "".
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = fold(s)

	var b strings.Builder
	b.Grow(len(s))
	inSep := false
	for _, r := range s {
		if r == '_' || unicode.IsSpace(r) {
			if !inSep {
				b.WriteByte('-')
			}
			inSep = true
			continue
		}
		inSep = false
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Aliases returns the lookup keys for raw: the canonical form followed by the
// canonical form with every hyphen removed. Duplicates are collapsed, so an
// unhyphenated identifier yields a single key. Empty input yields nil.
func Aliases(raw string) []string {
	n := Normalize(raw)
	if n == "" {
		return nil
	}
	bare := strings.ReplaceAll(n, "-", "")
	if bare == n || bare == "" {
		return []string{n}
	}
	return []string{n, bare}
}

// Tokens splits raw into lowercase, diacritic-folded whitespace tokens.
func Tokens(raw string) []string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return nil
	}
	return strings.Fields(fold(s))
}

// HasBonusPrefix reports whether raw names a bonus by convention.
func HasBonusPrefix(raw string) bool {
	return strings.HasPrefix(Normalize(raw), BonusPrefix)
}

// fold strips combining marks after canonical decomposition ("pāua" -> "paua").
// Transformers carry state, so a fresh chain is built per call.
func fold(s string) string {
	if isASCII(s) {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}
