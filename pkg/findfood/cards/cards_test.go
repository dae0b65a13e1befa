package cards

import (
	"strings"
	"testing"

	"github.com/findfood/engine/pkg/findfood/catalog"
)

func TestBuildRecipe(t *testing.T) {
	b := New()
	card := b.Build(catalog.Item{
		ID:          7,
		Kind:        catalog.KindRecipe,
		Title:       "Чизкейк",
		Description: "Классический нью-йоркский.",
		Ingredients: "сыр, сливки, печенье",
		Steps:       "Смешать. Запечь.",
	})

	if card.ItemID != 7 || card.Kind != catalog.KindRecipe {
		t.Fatalf("card identity wrong: %+v", card)
	}
	if card.Title != "Чизкейк" {
		t.Fatalf("Title = %q", card.Title)
	}
	joined := strings.Join(card.Lines, "\n")
	for _, want := range []string{"сыр, сливки, печенье", "Смешать. Запечь.", "Классический"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Lines missing %q: %v", want, card.Lines)
		}
	}
}

func TestBuildVenue(t *testing.T) {
	b := New()
	card := b.Build(catalog.Item{
		ID:         3,
		Kind:       catalog.KindVenue,
		Title:      "Пиццерия Луна",
		Cuisine:    "итальянская",
		Address:    "ул. Ленина, 1",
		City:       "Москва",
		Popularity: 12,
	})

	joined := strings.Join(card.Lines, "\n")
	for _, want := range []string{"итальянская (12)", "ул. Ленина, 1", "Москва"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Lines missing %q: %v", want, card.Lines)
		}
	}
}

func TestBuildActions(t *testing.T) {
	b := New()
	card := b.Build(catalog.Item{ID: 5, Kind: catalog.KindRecipe, Title: "Суп"})

	want := []Action{ActionLike, ActionDislike, ActionNext}
	if len(card.Actions) != len(want) {
		t.Fatalf("got %d actions, want %d", len(card.Actions), len(want))
	}
	for i, a := range want {
		if card.Actions[i].Action != a || card.Actions[i].ItemID != 5 {
			t.Errorf("action %d = %+v, want %q bound to item 5", i, card.Actions[i], a)
		}
	}
}

func TestBuildIDsUnique(t *testing.T) {
	b := New()
	it := catalog.Item{ID: 1, Kind: catalog.KindRecipe, Title: "Суп"}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		card := b.Build(it)
		if card.ID == "" {
			t.Fatal("empty card ID")
		}
		if seen[card.ID] {
			t.Fatalf("duplicate card ID %q", card.ID)
		}
		seen[card.ID] = true
	}
}
