package rank

import (
	"context"
	"math/rand"
	"testing"

	"github.com/findfood/engine/pkg/findfood/catalog"
	"github.com/findfood/engine/pkg/findfood/catalog/memstore"
	"github.com/findfood/engine/pkg/findfood/taste"
)

func seedStore(t *testing.T, items ...catalog.Item) *memstore.Store {
	t.Helper()
	store := memstore.New(rand.New(rand.NewSource(1)))
	for _, it := range items {
		if _, err := store.UpsertItem(context.Background(), it); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return store
}

func TestMatchScore(t *testing.T) {
	it := catalog.Item{
		Title:    "Пицца Маргарита",
		Tags:     "итальянская, сыр",
		Keywords: "тесто, томаты",
	}
	cases := []struct {
		primary string
		want    int
	}{
		{"пицца", 3},
		{"сыр", 2},
		{"томаты", 1},
		{"суши", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := MatchScore(tc.primary, it); got != tc.want {
			t.Errorf("MatchScore(%q) = %d, want %d", tc.primary, got, tc.want)
		}
	}
}

func TestRetrieveOrdering(t *testing.T) {
	store := seedStore(t,
		catalog.Item{Kind: catalog.KindRecipe, Title: "Борщ", Keywords: "пицца", Popularity: 10},
		catalog.Item{Kind: catalog.KindRecipe, Title: "Пицца Маргарита", Popularity: 1},
		catalog.Item{Kind: catalog.KindRecipe, Title: "Пицца Пепперони", Popularity: 5},
	)
	r := NewRetriever(store, rand.New(rand.NewSource(1)))

	got, err := r.Retrieve(context.Background(), Request{
		Kind:    catalog.KindRecipe,
		Terms:   []string{"пицца"},
		Primary: "пицца",
		Limit:   3,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Пицца Пепперони", "Пицца Маргарита", "Борщ"}
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d", len(got), len(want))
	}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("position %d: got %q, want %q", i, got[i].Title, title)
		}
	}
}

func TestRetrieveLimit(t *testing.T) {
	var items []catalog.Item
	for i := 0; i < 10; i++ {
		items = append(items, catalog.Item{Kind: catalog.KindRecipe, Title: "Суп", Keywords: "суп"})
	}
	store := seedStore(t, items...)
	r := NewRetriever(store, rand.New(rand.NewSource(1)))

	got, err := r.Retrieve(context.Background(), Request{
		Kind:  catalog.KindRecipe,
		Terms: []string{"суп"},
		Limit: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d items, want 3", len(got))
	}
}

func TestRetrieveNoMatchIsEmptyNotError(t *testing.T) {
	store := seedStore(t,
		catalog.Item{Kind: catalog.KindRecipe, Title: "Борщ"},
	)
	r := NewRetriever(store, rand.New(rand.NewSource(1)))

	got, err := r.Retrieve(context.Background(), Request{
		Kind:  catalog.KindRecipe,
		Terms: []string{"суши"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestRetrieveInferredCategoryWidens(t *testing.T) {
	// No item carries the exact category, but one mentions it in tags.
	store := seedStore(t,
		catalog.Item{Kind: catalog.KindRecipe, Title: "Чизкейк", Tags: "sweet, десерт"},
		catalog.Item{Kind: catalog.KindRecipe, Title: "Борщ", Tags: "суп"},
	)
	r := NewRetriever(store, rand.New(rand.NewSource(1)))

	got, err := r.Retrieve(context.Background(), Request{
		Kind:     catalog.KindRecipe,
		Category: taste.Sweet,
		Explicit: false,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "Чизкейк" {
		t.Fatalf("widened retrieval = %v, want the tagged item", got)
	}
}

func TestRetrieveInferredCategoryDroppedWhenNothingMatches(t *testing.T) {
	// A misinferred category must not blank a result the terms still match.
	store := seedStore(t,
		catalog.Item{Kind: catalog.KindRecipe, Title: "Куриный суп", Keywords: "суп"},
	)
	r := NewRetriever(store, rand.New(rand.NewSource(1)))

	got, err := r.Retrieve(context.Background(), Request{
		Kind:     catalog.KindRecipe,
		Terms:    []string{"суп"},
		Category: taste.Spicy,
		Explicit: false,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "Куриный суп" {
		t.Fatalf("relaxed retrieval = %v, want the term match", got)
	}
}

func TestRetrieveExplicitCategoryNeverWidens(t *testing.T) {
	store := seedStore(t,
		catalog.Item{Kind: catalog.KindRecipe, Title: "Чизкейк", Tags: "sweet, десерт"},
	)
	r := NewRetriever(store, rand.New(rand.NewSource(1)))

	got, err := r.Retrieve(context.Background(), Request{
		Kind:     catalog.KindRecipe,
		Category: taste.Sweet,
		Explicit: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("explicit category widened: %v", got)
	}
}

func TestRetrieveExactCategoryPreferredOverWidening(t *testing.T) {
	store := seedStore(t,
		catalog.Item{Kind: catalog.KindRecipe, Title: "Тирамису", Category: "sweet"},
		catalog.Item{Kind: catalog.KindRecipe, Title: "Чизкейк", Tags: "sweet"},
	)
	r := NewRetriever(store, rand.New(rand.NewSource(1)))

	got, err := r.Retrieve(context.Background(), Request{
		Kind:     catalog.KindRecipe,
		Category: taste.Sweet,
		Explicit: false,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "Тирамису" {
		t.Fatalf("got %v, want only the exact-category item", got)
	}
}

func TestRetrieveCityFilterVenuesOnly(t *testing.T) {
	store := seedStore(t,
		catalog.Item{Kind: catalog.KindVenue, Title: "Пиццерия Луна", City: "Москва", Keywords: "пицца"},
		catalog.Item{Kind: catalog.KindVenue, Title: "Пиццерия Марио", City: "Казань", Keywords: "пицца"},
	)
	r := NewRetriever(store, rand.New(rand.NewSource(1)))

	got, err := r.Retrieve(context.Background(), Request{
		Kind:  catalog.KindVenue,
		Terms: []string{"пицца"},
		City:  "москва",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "Пиццерия Луна" {
		t.Fatalf("city filter = %v, want the Moscow venue", got)
	}
}

func TestRetrieveMatchesCuisine(t *testing.T) {
	store := seedStore(t,
		catalog.Item{Kind: catalog.KindVenue, Title: "Луна", Cuisine: "итальянская"},
	)
	r := NewRetriever(store, rand.New(rand.NewSource(1)))

	got, err := r.Retrieve(context.Background(), Request{
		Kind:  catalog.KindVenue,
		Terms: []string{"итальянская"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("cuisine match = %v, want one item", got)
	}
}

func TestRetrieveDeterministicWithSeededRand(t *testing.T) {
	var items []catalog.Item
	for i := 0; i < 6; i++ {
		items = append(items, catalog.Item{Kind: catalog.KindRecipe, Title: "Суп", Keywords: "суп"})
	}
	store := seedStore(t, items...)

	run := func() []int64 {
		r := NewRetriever(store, rand.New(rand.NewSource(7)))
		got, err := r.Retrieve(context.Background(), Request{
			Kind:  catalog.KindRecipe,
			Terms: []string{"суп"},
			Limit: 3,
		})
		if err != nil {
			t.Fatal(err)
		}
		ids := make([]int64, len(got))
		for i, it := range got {
			ids[i] = it.ID
		}
		return ids
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("runs differ in length: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("seeded runs diverged: %v vs %v", first, second)
		}
	}
}
