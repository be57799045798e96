package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold upper-cases s and strips combining marks so "Relé" and "RELE" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(out)
}

func containsFold(s, substr string) bool {
	return strings.Contains(fold(s), fold(substr))
}

var reSpaces = regexp.MustCompile(`\s+`)

func collapseSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// firstRunes returns at most n runes of s.
func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// rule is one attempt of a first-match-wins chain. value builds the result
// from the submatches; nil means "group 1, trimmed".
type rule struct {
	re    *regexp.Regexp
	value func(m []string) string
}

// chain evaluates its rules in order and stops at the first non-empty result.
type chain []rule

func (c chain) first(text string) (string, bool) {
	for _, r := range c {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var v string
		if r.value != nil {
			v = r.value(m)
		} else if len(m) > 1 {
			v = strings.TrimSpace(m[1])
		}
		if v != "" {
			return v, true
		}
	}
	return "", false
}
