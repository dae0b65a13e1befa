// Package memstore is an in-memory catalog.Store used by tests and demos.
package memstore

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/findfood/engine/pkg/findfood/catalog"
)

type historyRecord struct {
	user   int64
	itemID int64
	kind   catalog.Kind
	action string
	at     time.Time
}

type favoriteRecord struct {
	user   int64
	itemID int64
	at     time.Time
}

// Store is a mutex-guarded in-memory implementation of catalog.Store.
type Store struct {
	mu        sync.RWMutex
	nextID    int64
	items     map[int64]catalog.Item
	tastes    map[int64]map[string]catalog.TasteCount
	history   []historyRecord
	favorites []favoriteRecord
	rnd       *rand.Rand
}

// New creates an empty in-memory store. A nil rnd gets a time-seeded
// source; tests inject a fixed seed for reproducible FetchRandom.
func New(rnd *rand.Rand) *Store {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Store{
		nextID: 1,
		items:  make(map[int64]catalog.Item),
		tastes: make(map[int64]map[string]catalog.TasteCount),
		rnd:    rnd,
	}
}

// Close implements catalog.Store.
func (s *Store) Close() error { return nil }

// UpsertItem inserts or replaces an item, assigning an ID when absent.
func (s *Store) UpsertItem(ctx context.Context, it catalog.Item) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.ID == 0 {
		it.ID = s.nextID
		s.nextID++
	} else if it.ID >= s.nextID {
		s.nextID = it.ID + 1
	}
	s.items[it.ID] = it
	return it.ID, nil
}

// ItemsByKind returns all items of a kind in ascending ID order.
func (s *Store) ItemsByKind(ctx context.Context, kind catalog.Kind) ([]catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []catalog.Item
	for _, it := range s.items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FetchItem returns an item by kind and ID.
func (s *Store) FetchItem(ctx context.Context, kind catalog.Kind, id int64) (catalog.Item, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok || it.Kind != kind {
		return catalog.Item{}, false, nil
	}
	return it, true, nil
}

// FetchRandom picks one matching item uniformly at random.
func (s *Store) FetchRandom(ctx context.Context, kind catalog.Kind, category, city string) (catalog.Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []catalog.Item
	for _, it := range s.items {
		if it.Kind != kind {
			continue
		}
		if category != "" && !strings.EqualFold(it.Category, category) {
			continue
		}
		if city != "" && !strings.Contains(strings.ToLower(it.City), strings.ToLower(city)) {
			continue
		}
		matches = append(matches, it)
	}
	if len(matches) == 0 {
		return catalog.Item{}, false, nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches[s.rnd.Intn(len(matches))], true, nil
}

// RecordFeedback applies one like/dislike: history row, taste counters
// and, for liked recipes, a favorite plus popularity bump. The store lock
// makes the update atomic.
func (s *Store) RecordFeedback(ctx context.Context, fb catalog.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := "dislike"
	if fb.Liked {
		action = "like"
	}
	now := time.Now()
	s.history = append(s.history, historyRecord{
		user: fb.User, itemID: fb.Item.ID, kind: fb.Kind, action: action, at: now,
	})
	if fb.Category != "" {
		s.bumpTaste(fb.User, fb.Category, fb.Liked)
	}
	if fb.Liked && fb.Kind == catalog.KindRecipe {
		s.favorites = append(s.favorites, favoriteRecord{user: fb.User, itemID: fb.Item.ID, at: now})
		if it, ok := s.items[fb.Item.ID]; ok {
			it.Popularity++
			s.items[fb.Item.ID] = it
		}
	}
	return nil
}

// RecordSkip logs a skipped item without touching preference counters.
func (s *Store) RecordSkip(ctx context.Context, user int64, kind catalog.Kind, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, historyRecord{
		user: user, itemID: itemID, kind: kind, action: "skip", at: time.Now(),
	})
	return nil
}

// RecordTaste adds one like or dislike to the (user, category) counters.
func (s *Store) RecordTaste(ctx context.Context, user int64, category string, liked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bumpTaste(user, category, liked)
	return nil
}

// TastesFor returns the user's counter rows sorted by category.
func (s *Store) TastesFor(ctx context.Context, user int64) ([]catalog.TasteCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []catalog.TasteCount
	for _, row := range s.tastes[user] {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// FavoritesFor returns the user's most recent favorites, newest first.
func (s *Store) FavoritesFor(ctx context.Context, user int64, limit int) ([]catalog.FavoriteItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 15
	}
	var out []catalog.FavoriteItem
	for i := len(s.favorites) - 1; i >= 0 && len(out) < limit; i-- {
		fav := s.favorites[i]
		if fav.user != user {
			continue
		}
		if it, ok := s.items[fav.itemID]; ok {
			out = append(out, catalog.FavoriteItem{Item: it, SavedAt: fav.at})
		}
	}
	return out, nil
}

// HistoryLen reports how many history rows a user has, for tests.
func (s *Store) HistoryLen(user int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, h := range s.history {
		if h.user == user {
			n++
		}
	}
	return n
}

func (s *Store) bumpTaste(user int64, category string, liked bool) {
	if s.tastes[user] == nil {
		s.tastes[user] = make(map[string]catalog.TasteCount)
	}
	row := s.tastes[user][category]
	row.Category = category
	if liked {
		row.Likes++
	} else {
		row.Dislikes++
	}
	s.tastes[user][category] = row
}
