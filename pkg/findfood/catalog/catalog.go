package catalog

import (
	"context"
	"time"
)

// Kind distinguishes the two suggestible item families.
type Kind string

const (
	KindRecipe Kind = "recipe"
	KindVenue  Kind = "venue"
)

// Item is one catalog entry: a dish to cook or a place to eat.
// The engine reads items and increments Popularity on liked recipes;
// everything else is owned by whoever maintains the catalog.
type Item struct {
	ID          int64
	Kind        Kind
	Title       string
	Description string
	Ingredients string
	Steps       string
	City        string
	Address     string
	Cuisine     string
	Category    string // one of the taste categories, or empty
	Tags        string // free text, comma separated
	Keywords    string // free text, comma separated
	Popularity  int64  // like counter for recipes, rating proxy for venues
}

// Feedback is one like/dislike event to be applied atomically:
// history insert, taste counter upsert and (for liked recipes) a favorite
// plus popularity bump succeed or fail together.
type Feedback struct {
	User     int64
	Item     Item
	Kind     Kind
	Category string
	Liked    bool
}

// TasteCount is the per-(user, category) preference counter pair.
type TasteCount struct {
	Category string
	Likes    int64
	Dislikes int64
}

// FavoriteItem pairs a favorite with the moment it was saved.
type FavoriteItem struct {
	Item    Item
	SavedAt time.Time
}

// Store is the persistence boundary for the catalog, feedback history and
// preference counters.
type Store interface {
	Close() error

	// Items
	UpsertItem(ctx context.Context, it Item) (int64, error)
	ItemsByKind(ctx context.Context, kind Kind) ([]Item, error)
	FetchItem(ctx context.Context, kind Kind, id int64) (Item, bool, error)
	FetchRandom(ctx context.Context, kind Kind, category, city string) (Item, bool, error)

	// Feedback
	RecordFeedback(ctx context.Context, fb Feedback) error
	RecordSkip(ctx context.Context, user int64, kind Kind, itemID int64) error
	RecordTaste(ctx context.Context, user int64, category string, liked bool) error

	// Preferences & favorites
	TastesFor(ctx context.Context, user int64) ([]TasteCount, error)
	FavoritesFor(ctx context.Context, user int64, limit int) ([]FavoriteItem, error)
}
