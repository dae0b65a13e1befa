package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/findfood/engine/pkg/findfood/catalog"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSynonyms(t *testing.T) {
	path := writeTemp(t, "synonyms.yaml", `
synonyms:
  - key: чизкейк
    alternates: [десерт, сладкое, торт]
  - key: рамен
    alternates: [лапша, суп]
`)
	syn, err := LoadSynonyms(path)
	if err != nil {
		t.Fatal(err)
	}
	if syn.Len() != 2 {
		t.Fatalf("Len = %d, want 2", syn.Len())
	}
	got := syn.Alternates("чизкейк")
	for _, want := range []string{"десерт", "сладкое", "торт"} {
		if !slices.Contains(got, want) {
			t.Errorf("Alternates = %v, missing %q", got, want)
		}
	}
}

func TestLoadSynonymsMissingFile(t *testing.T) {
	if _, err := LoadSynonyms(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadSynonymsBadYAML(t *testing.T) {
	path := writeTemp(t, "bad.yaml", "synonyms: [:::")
	if _, err := LoadSynonyms(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadSeed(t *testing.T) {
	path := writeTemp(t, "seed.yaml", `
items:
  - kind: recipe
    title: Чизкейк
    category: Sweet
    ingredients: сыр, сливки
    tags: [десерт, торт]
    keywords: [выпечка]
    popularity: 3
  - kind: venue
    title: Пиццерия Луна
    city: Москва
    cuisine: итальянская
`)
	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(seed.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(seed.Items))
	}

	recipe := seed.Items[0].Item()
	if recipe.Kind != catalog.KindRecipe {
		t.Fatalf("Kind = %q", recipe.Kind)
	}
	if recipe.Category != "sweet" {
		t.Fatalf("Category = %q, want lowercased", recipe.Category)
	}
	if recipe.Tags != "десерт, торт" {
		t.Fatalf("Tags = %q", recipe.Tags)
	}
	if recipe.Keywords != "выпечка" {
		t.Fatalf("Keywords = %q", recipe.Keywords)
	}
	if recipe.Popularity != 3 {
		t.Fatalf("Popularity = %d", recipe.Popularity)
	}

	venue := seed.Items[1].Item()
	if venue.Kind != catalog.KindVenue {
		t.Fatalf("Kind = %q", venue.Kind)
	}
	if venue.City != "Москва" {
		t.Fatalf("City = %q", venue.City)
	}
}

func TestSeedItemUnknownKindDefaultsToRecipe(t *testing.T) {
	it := SeedItem{Kind: "dish", Title: "Плов"}.Item()
	if it.Kind != catalog.KindRecipe {
		t.Fatalf("Kind = %q, want recipe default", it.Kind)
	}
}
