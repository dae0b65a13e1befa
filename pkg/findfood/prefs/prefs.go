// Package prefs tracks per-user taste preference counters and resolves the
// category to use for "surprise me" requests.
package prefs

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/findfood/engine/pkg/findfood/catalog"
	"github.com/findfood/engine/pkg/findfood/internalerr"
	"github.com/findfood/engine/pkg/findfood/taste"
)

// DominantThreshold is the minimum like count before a category is treated
// as dominant for proactive hints.
const DominantThreshold = 5

// Tracker maintains like/dislike counters per (user, category). Counter
// rows live in the catalog store; the tracker only adds session-local
// state (which hints already fired).
type Tracker struct {
	store catalog.Store

	mu     sync.Mutex
	rnd    *rand.Rand
	hinted map[int64]map[taste.Category]bool
}

// NewTracker creates a tracker. A nil rnd gets a time-seeded source.
func NewTracker(store catalog.Store, rnd *rand.Rand) *Tracker {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Tracker{
		store:  store,
		rnd:    rnd,
		hinted: make(map[int64]map[taste.Category]bool),
	}
}

// Record adds one like or dislike to the (user, category) counters,
// creating the row on first feedback.
func (t *Tracker) Record(ctx context.Context, user int64, cat taste.Category, liked bool) error {
	if !taste.Valid(cat) {
		return internalerr.ErrInvalidInput
	}
	return t.store.RecordTaste(ctx, user, string(cat), liked)
}

// ResolveForSurprise picks the category for a surprise request.
//
// An explicit category is returned unchanged. Otherwise the category with
// the highest net score (likes - dislikes) wins, provided it has at least
// one like and a non-negative net; failing that, a uniformly random pick
// among the four categories keeps variety for new users.
func (t *Tracker) ResolveForSurprise(ctx context.Context, user int64, explicit taste.Category) (taste.Category, error) {
	if taste.Valid(explicit) {
		return explicit, nil
	}

	rows, err := t.store.TastesFor(ctx, user)
	if err != nil {
		return taste.Unknown, err
	}

	var (
		best    catalog.TasteCount
		bestNet int64
		found   bool
	)
	for _, row := range rows {
		if !taste.Valid(taste.Category(row.Category)) {
			continue
		}
		net := row.Likes - row.Dislikes
		if !found || net > bestNet || (net == bestNet && row.Likes > best.Likes) {
			best, bestNet, found = row, net, true
		}
	}
	if found && best.Likes >= 1 && bestNet >= 0 {
		return taste.Category(best.Category), nil
	}

	all := taste.All()
	t.mu.Lock()
	pick := all[t.rnd.Intn(len(all))]
	t.mu.Unlock()
	return pick, nil
}

// Dominant returns a category once its likes reach DominantThreshold and
// strictly exceed its dislikes. Each category fires at most once per
// tracker session for a given user.
func (t *Tracker) Dominant(ctx context.Context, user int64) (taste.Category, bool, error) {
	rows, err := t.store.TastesFor(ctx, user)
	if err != nil {
		return taste.Unknown, false, err
	}

	var (
		best  taste.Category
		likes int64
		found bool
	)
	for _, row := range rows {
		cat := taste.Category(row.Category)
		if !taste.Valid(cat) {
			continue
		}
		if row.Likes < DominantThreshold || row.Likes <= row.Dislikes {
			continue
		}
		if t.alreadyHinted(user, cat) {
			continue
		}
		if !found || row.Likes > likes {
			best, likes, found = cat, row.Likes, true
		}
	}
	if !found {
		return taste.Unknown, false, nil
	}

	t.mu.Lock()
	if t.hinted[user] == nil {
		t.hinted[user] = make(map[taste.Category]bool)
	}
	t.hinted[user][best] = true
	t.mu.Unlock()
	return best, true, nil
}

// ForgetHints clears the hinted set for a user, e.g. when a new session
// starts.
func (t *Tracker) ForgetHints(user int64) {
	t.mu.Lock()
	delete(t.hinted, user)
	t.mu.Unlock()
}

func (t *Tracker) alreadyHinted(user int64, cat taste.Category) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hinted[user][cat]
}
