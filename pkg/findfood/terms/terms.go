// Package terms turns raw user text into a set of normalized search terms.
//
// Expansion is intentionally dumb: the phrase itself, its words, a few
// suffix-stripped variants and the alternates of any synonym-table entry
// that overlaps the phrase. Synonym expansion is an input to retrieval and
// classification, never a classification rule on its own.
package terms

import (
	"sort"
	"strings"
)

// inflection endings stripped from the tail of a phrase, mirroring the
// catalog's predominantly Russian vocabulary.
var suffixCutsets = []string{"ы", "а", "у", "ой"}

// Normalize collapses whitespace and lowercases the input.
func Normalize(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// Synonyms maps a key phrase to alternate search terms. Matching is by
// substring in either direction, so "пицца маргарита" still picks up the
// "пицца" entry.
type Synonyms struct {
	entries map[string][]string
}

// NewSynonyms creates an empty synonym table.
func NewSynonyms() *Synonyms {
	return &Synonyms{entries: make(map[string][]string)}
}

// Default returns the built-in synonym table used when no YAML table is
// configured.
func Default() *Synonyms {
	s := NewSynonyms()
	s.Add("рамен", "лапша", "суп", "азиатское")
	s.Add("рамэн", "лапша", "суп")
	s.Add("пицца", "сыр", "маргарита", "итальянская", "пиццерия")
	s.Add("бургер", "бургеры", "сэндвич", "мясо", "фастфуд")
	s.Add("чизкейк", "десерт", "сладкое", "торт")
	s.Add("десерт", "сладкое", "выпечка", "кофейня")
	s.Add("сладкое", "десерт", "выпечка", "кофе")
	s.Add("солёное", "основное", "ужин", "мясо", "бургер", "пицца")
	s.Add("острое", "чили", "тайская", "корейская", "мексиканская", "том ям", "рамен")
	s.Add("салат", "цезарь", "овощи", "зелень")
	s.Add("суп", "борщ", "том ям", "куриный", "лапша")
	s.Add("pizza", "пицца", "итальянская")
	s.Add("burger", "бургер", "фастфуд")
	s.Add("dessert", "десерт", "сладкое")
	s.Add("salad", "салат", "овощи")
	return s
}

// Add registers a key with its alternate terms. Key and alternates are
// normalized; re-adding a key merges the alternates.
func (s *Synonyms) Add(key string, alternates ...string) {
	key = Normalize(key)
	if key == "" {
		return
	}
	existing := s.entries[key]
	for _, alt := range alternates {
		alt = Normalize(alt)
		if alt == "" {
			continue
		}
		dup := false
		for _, have := range existing {
			if have == alt {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, alt)
		}
	}
	s.entries[key] = existing
}

// Len reports the number of keys in the table.
func (s *Synonyms) Len() int {
	return len(s.entries)
}

// Alternates returns the alternates of every key that appears inside the
// normalized phrase, or that the phrase appears inside of. Result is
// deduplicated and sorted.
func (s *Synonyms) Alternates(phrase string) []string {
	phrase = Normalize(phrase)
	if phrase == "" {
		return nil
	}
	set := make(map[string]struct{})
	for key, alts := range s.entries {
		if !strings.Contains(phrase, key) && !strings.Contains(key, phrase) {
			continue
		}
		for _, alt := range alts {
			set[alt] = struct{}{}
		}
	}
	return sortedSet(set)
}

// Expand produces the search-term set for a raw phrase: the normalized
// phrase, its words, suffix-stripped variants and synonym alternates.
// Empty input yields an empty set, which callers treat as "no textual
// filter". For any non-empty input the result contains the normalized
// phrase itself.
func Expand(raw string, syn *Synonyms) []string {
	base := Normalize(raw)
	if base == "" {
		return nil
	}

	set := map[string]struct{}{base: {}}
	for _, word := range strings.Fields(base) {
		set[word] = struct{}{}
	}
	for _, cutset := range suffixCutsets {
		if v := strings.TrimRight(base, cutset); v != "" {
			set[v] = struct{}{}
		}
	}
	if syn != nil {
		for _, alt := range syn.Alternates(base) {
			set[alt] = struct{}{}
		}
	}

	return sortedSet(set)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
