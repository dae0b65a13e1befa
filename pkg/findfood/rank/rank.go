// Package rank turns the catalog into a relevance-ordered candidate list.
//
// The ordering is a deterministic, explainable heuristic: primary-phrase
// match score first, popularity second, an unbiased random tiebreak last.
// No statistical relevance model is involved.
package rank

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/findfood/engine/pkg/findfood/catalog"
	"github.com/findfood/engine/pkg/findfood/taste"
	"github.com/findfood/engine/pkg/findfood/terms"
)

// DefaultLimit is used when a request does not specify a result count.
const DefaultLimit = 3

// Request describes one retrieval.
type Request struct {
	Kind  catalog.Kind
	Terms []string // expanded search terms; empty means no textual filter
	City  string   // locality filter, venues only

	// Category filters candidates to an exact category match. Explicit
	// records whether the user chose it; inferred categories may widen on
	// an empty result, explicit ones never do.
	Category taste.Category
	Explicit bool

	Limit   int
	Primary string // raw phrase used purely for tie-break scoring
}

// Retriever fetches and orders candidates from the catalog store.
type Retriever struct {
	store catalog.Store

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRetriever creates a retriever. A nil rnd gets a time-seeded source;
// tests inject a fixed seed.
func NewRetriever(store catalog.Store, rnd *rand.Rand) *Retriever {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Retriever{store: store, rnd: rnd}
}

// MatchScore scores how directly an item answers the primary phrase:
// 3 for a title match, 2 for tags, 1 for keywords, 0 otherwise.
func MatchScore(primary string, it catalog.Item) int {
	p := terms.Normalize(primary)
	if p == "" {
		return 0
	}
	switch {
	case strings.Contains(strings.ToLower(it.Title), p):
		return 3
	case strings.Contains(strings.ToLower(it.Tags), p):
		return 2
	case strings.Contains(strings.ToLower(it.Keywords), p):
		return 1
	}
	return 0
}

// Retrieve returns up to req.Limit candidates ordered by (match score desc,
// popularity desc, random tiebreak). An empty result is not an error: the
// caller interprets it as "no match" and diverts to the AI fallback.
//
// When an exact inferred-category filter eliminates everything, the filter
// is widened to a substring match across tags, keywords and cuisine, and
// dropped entirely if that still matches nothing: an inferred category is a
// preference, not a hard constraint. An explicitly chosen category is never
// widened; explicit intent must not be silently overridden.
func (r *Retriever) Retrieve(ctx context.Context, req Request) ([]catalog.Item, error) {
	items, err := r.store.ItemsByKind(ctx, req.Kind)
	if err != nil {
		return nil, err
	}

	cand := filter(items, req, false)
	if len(cand) == 0 && taste.Valid(req.Category) && !req.Explicit {
		cand = filter(items, req, true)
		if len(cand) == 0 {
			relaxed := req
			relaxed.Category = taste.Unknown
			cand = filter(items, relaxed, false)
		}
	}
	if len(cand) == 0 {
		return nil, nil
	}

	type scored struct {
		it    catalog.Item
		score int
		tie   int64
	}
	ranked := make([]scored, len(cand))
	r.mu.Lock()
	for i, it := range cand {
		ranked[i] = scored{it: it, score: MatchScore(req.Primary, it), tie: r.rnd.Int63()}
	}
	r.mu.Unlock()

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].it.Popularity != ranked[j].it.Popularity {
			return ranked[i].it.Popularity > ranked[j].it.Popularity
		}
		return ranked[i].tie < ranked[j].tie
	})

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]catalog.Item, len(ranked))
	for i, s := range ranked {
		out[i] = s.it
	}
	return out, nil
}

func filter(items []catalog.Item, req Request, widened bool) []catalog.Item {
	var out []catalog.Item
	for _, it := range items {
		if req.City != "" && it.Kind == catalog.KindVenue &&
			!strings.Contains(strings.ToLower(it.City), terms.Normalize(req.City)) {
			continue
		}
		if len(req.Terms) > 0 && !matchesAnyTerm(it, req.Terms) {
			continue
		}
		if taste.Valid(req.Category) && !matchesCategory(it, req.Category, widened) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// matchesAnyTerm checks the searchable fields: title, tags, keywords and
// cuisine, same set the original catalog queries cover.
func matchesAnyTerm(it catalog.Item, searchTerms []string) bool {
	fields := []string{
		strings.ToLower(it.Title),
		strings.ToLower(it.Tags),
		strings.ToLower(it.Keywords),
		strings.ToLower(it.Cuisine),
	}
	for _, t := range searchTerms {
		if t == "" {
			continue
		}
		for _, f := range fields {
			if strings.Contains(f, t) {
				return true
			}
		}
	}
	return false
}

func matchesCategory(it catalog.Item, cat taste.Category, widened bool) bool {
	want := string(cat)
	if !widened {
		return terms.Normalize(it.Category) == want
	}
	blob := strings.ToLower(it.Tags + " " + it.Keywords + " " + it.Cuisine)
	return strings.Contains(blob, want) || terms.Normalize(it.Category) == want
}
