// Package taste maps free text, item tags or button choices onto the fixed
// taste categories.
package taste

import (
	"strings"

	"github.com/findfood/engine/pkg/findfood/terms"
)

// Category is one of the four taste categories. The zero value means
// "undetermined" and is never an error.
type Category string

const (
	Sweet   Category = "sweet"
	Salty   Category = "salty"
	Spicy   Category = "spicy"
	Healthy Category = "healthy"

	// Unknown is the undetermined fallback.
	Unknown Category = ""

	// Random is the "surprise me" sentinel resolved by the preference
	// tracker, never stored on items.
	Random Category = "random"
)

// All lists the four concrete categories in a fixed order.
func All() []Category {
	return []Category{Sweet, Salty, Spicy, Healthy}
}

// Valid reports whether c is one of the four concrete categories.
func Valid(c Category) bool {
	switch c {
	case Sweet, Salty, Spicy, Healthy:
		return true
	}
	return false
}

// buttons decode explicit taste-keyboard choices. Checked before the hint
// table so a button press is never overridden by a stray food word in the
// same message.
var buttons = []struct {
	word string
	cat  Category
}{
	{"удиви", Random},
	{"surprise", Random},
	{"🎲", Random},
	{"сладкое", Sweet},
	{"солёное", Salty},
	{"соленое", Salty},
	{"острое", Spicy},
	{"полезное", Healthy},
}

// hints is the ordered substring rule table. Earlier entries win, which
// keeps classification deterministic for any input.
var hints = []struct {
	frag string
	cat  Category
}{
	{"слад", Sweet},
	{"десерт", Sweet},
	{"торт", Sweet},
	{"чизкейк", Sweet},
	{"выпечк", Sweet},
	{"sweet", Sweet},
	{"dessert", Sweet},
	{"cake", Sweet},
	{"остр", Spicy},
	{"чили", Spicy},
	{"том ям", Spicy},
	{"spicy", Spicy},
	{"chili", Spicy},
	{"сол", Salty},
	{"бургер", Salty},
	{"пицц", Salty},
	{"мясо", Salty},
	{"фастфуд", Salty},
	{"salty", Salty},
	{"burger", Salty},
	{"pizza", Salty},
	{"полезн", Healthy},
	{"салат", Healthy},
	{"овощ", Healthy},
	{"зелен", Healthy},
	{"healthy", Healthy},
	{"salad", Healthy},
}

// Classify resolves text to a category.
//
// Resolution order: explicit button keywords (including the surprise
// sentinel), the hint table against the whole phrase, the hint table per
// word and per synonym alternate of each word, then Unknown. Identical
// input always yields the same category.
func Classify(text string, syn *terms.Synonyms) Category {
	t := terms.Normalize(text)
	if t == "" {
		return Unknown
	}

	for _, b := range buttons {
		if strings.Contains(t, b.word) {
			return b.cat
		}
	}

	if c := hintFor(t); c != Unknown {
		return c
	}

	for _, word := range strings.Fields(t) {
		if c := hintFor(word); c != Unknown {
			return c
		}
		if syn == nil {
			continue
		}
		for _, alt := range syn.Alternates(word) {
			if c := hintFor(alt); c != Unknown {
				return c
			}
		}
	}

	return Unknown
}

// ForItem resolves an item's category: the explicit field when valid,
// otherwise inferred from its tags and keywords.
func ForItem(category, tags, keywords string, syn *terms.Synonyms) Category {
	if c := Category(terms.Normalize(category)); Valid(c) {
		return c
	}
	return Classify(tags+" "+keywords, syn)
}

func hintFor(fragment string) Category {
	for _, h := range hints {
		if strings.Contains(fragment, h.frag) {
			return h.cat
		}
	}
	return Unknown
}
