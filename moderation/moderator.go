// Package moderation masks censored words in outbound user text before it
// reaches the store or the wire. Matching is diacritic- and leet-tolerant;
// the original spacing and length of the input are preserved.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher  *goahocorasick.Machine
	maskChar rune
}

// textMapping links a normalized rune stream back to positions in the
// original input so masking can target the original characters.
type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the Aho-Corasick automaton over the normalized word list.
func NewModerator(words []string, maskChar rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		normalized := normalize([]rune(word))
		// Pure-noise entries normalize to nothing and cannot match
		if len(normalized) == 0 {
			continue
		}
		patterns = append(patterns, normalized)
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, maskChar: maskChar}, nil
}

// Censor replaces every match with the mask character and reports the
// normalized forms that matched. Clean input is returned untouched.
func (m *Moderator) Censor(original string) (string, []string) {
	mapping := mapRunes(original)
	if len(mapping.normalized) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	var found []string
	for _, span := range spans {
		found = append(found, string(span.Word))

		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}
		for i := mapping.origIdx[start]; i <= mapping.origIdx[end-1]; i++ {
			origRunes[i] = m.maskChar
		}
	}
	return string(origRunes), found
}

// mapRunes normalizes the input and records where each kept rune came from.
func mapRunes(input string) textMapping {
	origRunes := []rune(input)
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))

	for i, r := range origRunes {
		clean := unleet(r)
		if skippable(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	return textMapping{normalized: norm, origIdx: origIdx}
}

func normalize(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := unleet(r)
		if skippable(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// unleet maps common leet-speak substitutions back to letters.
func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// skippable marks characters ignored during matching (separators, symbols).
func skippable(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
