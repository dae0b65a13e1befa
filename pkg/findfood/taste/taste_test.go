package taste

import (
	"testing"

	"github.com/findfood/engine/pkg/findfood/terms"
)

func TestClassify(t *testing.T) {
	syn := terms.Default()
	cases := []struct {
		in   string
		want Category
	}{
		{"хочу сладкое", Sweet},
		{"чизкейк", Sweet},
		{"что-нибудь острое", Spicy},
		{"том ям", Spicy},
		{"солёное", Salty},
		{"соленое", Salty},
		{"бургер с беконом", Salty},
		{"полезное", Healthy},
		{"салат цезарь", Healthy},
		{"удиви меня", Random},
		{"surprise me", Random},
		{"🎲", Random},
		{"pizza", Salty},
		{"dessert", Sweet},
		{"просто еда", Unknown},
		{"", Unknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.in, syn); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	syn := terms.Default()
	in := "острое сладкое"
	first := Classify(in, syn)
	for i := 0; i < 50; i++ {
		if got := Classify(in, syn); got != first {
			t.Fatalf("Classify(%q) flapped: %q then %q", in, first, got)
		}
	}
}

func TestClassifyButtonBeatsHint(t *testing.T) {
	// The surprise button wins even when the message also names a dish.
	if got := Classify("удиви меня пиццей", terms.Default()); got != Random {
		t.Fatalf("Classify = %q, want %q", got, Random)
	}
}

func TestClassifyViaSynonyms(t *testing.T) {
	syn := terms.NewSynonyms()
	syn.Add("паннакотта", "десерт")
	if got := Classify("паннакотта", syn); got != Sweet {
		t.Fatalf("Classify via synonym = %q, want %q", got, Sweet)
	}
}

func TestValid(t *testing.T) {
	for _, c := range All() {
		if !Valid(c) {
			t.Errorf("Valid(%q) = false", c)
		}
	}
	for _, c := range []Category{Unknown, Random, "savory"} {
		if Valid(c) {
			t.Errorf("Valid(%q) = true", c)
		}
	}
}

func TestForItem(t *testing.T) {
	syn := terms.Default()
	cases := []struct {
		category, tags, keywords string
		want                     Category
	}{
		{"sweet", "", "", Sweet},
		{" SPICY ", "", "", Spicy},
		{"", "десерт, торт", "", Sweet},
		{"", "", "чили", Spicy},
		{"nonsense", "салат", "", Healthy},
		{"", "", "", Unknown},
	}
	for _, tc := range cases {
		got := ForItem(tc.category, tc.tags, tc.keywords, syn)
		if got != tc.want {
			t.Errorf("ForItem(%q, %q, %q) = %q, want %q",
				tc.category, tc.tags, tc.keywords, got, tc.want)
		}
	}
}
