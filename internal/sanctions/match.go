package sanctions

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var honorifics = []string{"mr", "mrs", "ms", "dr", "prof", "sir", "madam"}

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// normalizeName lowercases a name, strips diacritics and honorific
// prefixes, drops punctuation, and collapses whitespace. Two names that
// normalize to the same string are treated as identical.
func normalizeName(name string) string {
	name = strings.ToLower(name)

	if stripped, _, err := transform.String(diacriticStripper, name); err == nil {
		name = stripped
	}

	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == ' ' {
			b.WriteRune(r)
		}
	}

	tokens := strings.Fields(b.String())
	if len(tokens) > 1 {
		for _, h := range honorifics {
			if tokens[0] == h {
				tokens = tokens[1:]
				break
			}
		}
	}
	return strings.Join(tokens, " ")
}

// tokenSetSimilarity computes Jaccard similarity over the word sets of
// two normalized names. Name-order differences score 1.0 here, which
// the character-level metric misses.
func tokenSetSimilarity(s1, s2 string) float64 {
	t1 := strings.Fields(s1)
	t2 := strings.Fields(s2)
	if len(t1) == 0 || len(t2) == 0 {
		return 0.0
	}

	set1 := make(map[string]struct{}, len(t1))
	for _, t := range t1 {
		set1[t] = struct{}{}
	}
	set2 := make(map[string]struct{}, len(t2))
	for _, t := range t2 {
		set2[t] = struct{}{}
	}

	intersection := 0
	for t := range set1 {
		if _, ok := set2[t]; ok {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// nameSimilarity combines the token-set and Jaro-Winkler metrics,
// taking whichever scores higher.
func nameSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	ts := tokenSetSimilarity(s1, s2)
	jw := jaroWinkler(s1, s2)
	if ts > jw {
		return ts
	}
	return jw
}

// jaroWinkler calculates Jaro-Winkler similarity between two strings
// Returns value between 0 (no match) and 1 (exact match)
func jaroWinkler(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	matchDistance := maxInt(len(s1), len(s2))/2 - 1
	if matchDistance < 0 {
		matchDistance = 0
	}

	s1Matches := make([]bool, len(s1))
	s2Matches := make([]bool, len(s2))

	matches := 0
	transpositions := 0

	for i := 0; i < len(s1); i++ {
		start := maxInt(0, i-matchDistance)
		end := minInt(i+matchDistance+1, len(s2))

		for j := start; j < end; j++ {
			if s2Matches[j] || s1[i] != s2[j] {
				continue
			}
			s1Matches[i] = true
			s2Matches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	k := 0
	for i := 0; i < len(s1); i++ {
		if !s1Matches[i] {
			continue
		}
		for !s2Matches[k] {
			k++
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	jaro := (float64(matches)/float64(len(s1)) +
		float64(matches)/float64(len(s2)) +
		float64(matches-transpositions/2)/float64(matches)) / 3.0

	// Winkler adjustment (prefix bonus)
	prefix := 0
	for i := 0; i < minInt(4, minInt(len(s1), len(s2))); i++ {
		if s1[i] == s2[i] {
			prefix++
		} else {
			break
		}
	}

	return jaro + float64(prefix)*0.1*(1.0-jaro)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
