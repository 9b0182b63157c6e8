package grading

import "strings"

// NormalizeText lowercases, strips everything outside [a-z0-9 ], collapses
// whitespace, and trims. Matching and evidence checks both run over this
// canonical form.
func NormalizeText(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, r)
		default:
			space = true
		}
	}
	return string(out)
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		if n := NormalizeText(k); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func normalizeKeywordGroups(in [][]string) [][]string {
	out := make([][]string, 0, len(in))
	for _, g := range in {
		if n := normalizeKeywords(g); len(n) > 0 {
			out = append(out, n)
		}
	}
	return out
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if n := NormalizeText(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// keywordsFromPhrase derives fallback keywords from a checklist phrase:
// the normalized words of at least four characters.
func keywordsFromPhrase(phrase string) []string {
	var out []string
	for _, w := range strings.Fields(NormalizeText(phrase)) {
		if len(w) >= 4 {
			out = append(out, w)
		}
	}
	return out
}

func includesAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
