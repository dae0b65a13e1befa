// Package sqlite implements catalog.Store on a single shared SQLite file.
//
// Concurrent sessions write to the same database, so every write goes
// through a bounded busy/locked retry with incremental backoff before the
// failure is surfaced as a hard error.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "modernc.org/sqlite"

	"github.com/findfood/engine/pkg/findfood/catalog"
	"github.com/findfood/engine/pkg/findfood/internalerr"
)

const (
	busyAttempts = 3
	busyBackoff  = 50 * time.Millisecond

	// SQLite primary result codes surfaced on write-lock contention.
	codeBusy   = 5
	codeLocked = 6
)

type sqliteStore struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the catalog database with WAL
// mode enabled.
func Open(ctx context.Context, path string) (catalog.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT DEFAULT '',
	ingredients TEXT DEFAULT '',
	steps TEXT DEFAULT '',
	city TEXT DEFAULT '',
	address TEXT DEFAULT '',
	cuisine TEXT DEFAULT '',
	category TEXT DEFAULT '',
	tags TEXT DEFAULT '',
	keywords TEXT DEFAULT '',
	popularity INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_items_kind ON items(kind);
CREATE INDEX IF NOT EXISTS idx_items_kind_category ON items(kind, category);

CREATE TABLE IF NOT EXISTS user_history (
	user_id INTEGER NOT NULL,
	item_id INTEGER NOT NULL,
	kind TEXT NOT NULL,
	category TEXT DEFAULT '',
	action TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_user ON user_history(user_id);

CREATE TABLE IF NOT EXISTS user_tastes (
	user_id INTEGER NOT NULL,
	category TEXT NOT NULL,
	likes INTEGER NOT NULL DEFAULT 0,
	dislikes INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL,
	PRIMARY KEY(user_id, category)
);

CREATE TABLE IF NOT EXISTS favorites (
	user_id INTEGER NOT NULL,
	item_id INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE(user_id, item_id)
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertItem inserts or updates an item and returns its ID.
func (s *sqliteStore) UpsertItem(ctx context.Context, it catalog.Item) (int64, error) {
	var id int64
	err := s.withRetry(ctx, func() error {
		if it.ID == 0 {
			return s.db.QueryRowContext(ctx, `
INSERT INTO items (kind, title, description, ingredients, steps, city, address, cuisine, category, tags, keywords, popularity)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id;
`, it.Kind, it.Title, it.Description, it.Ingredients, it.Steps, it.City, it.Address,
				it.Cuisine, it.Category, it.Tags, it.Keywords, it.Popularity).Scan(&id)
		}
		id = it.ID
		_, err := s.db.ExecContext(ctx, `
INSERT INTO items (id, kind, title, description, ingredients, steps, city, address, cuisine, category, tags, keywords, popularity)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	kind=excluded.kind,
	title=excluded.title,
	description=excluded.description,
	ingredients=excluded.ingredients,
	steps=excluded.steps,
	city=excluded.city,
	address=excluded.address,
	cuisine=excluded.cuisine,
	category=excluded.category,
	tags=excluded.tags,
	keywords=excluded.keywords,
	popularity=excluded.popularity;
`, it.ID, it.Kind, it.Title, it.Description, it.Ingredients, it.Steps, it.City, it.Address,
			it.Cuisine, it.Category, it.Tags, it.Keywords, it.Popularity)
		return err
	})
	return id, err
}

const itemColumns = `id, kind, title, description, ingredients, steps, city, address, cuisine, category, tags, keywords, popularity`

// ItemsByKind returns every item of a kind in ascending ID order. Term
// and category matching over Cyrillic text happens in the ranker, where
// case folding is reliable; SQLite's LIKE only folds ASCII.
func (s *sqliteStore) ItemsByKind(ctx context.Context, kind catalog.Kind) ([]catalog.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE kind = ? ORDER BY id;`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// FetchItem returns one item by kind and ID.
func (s *sqliteStore) FetchItem(ctx context.Context, kind catalog.Kind, id int64) (catalog.Item, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE kind = ? AND id = ?;`, kind, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Item{}, false, nil
	}
	if err != nil {
		return catalog.Item{}, false, err
	}
	return it, true, nil
}

// FetchRandom picks one matching item uniformly at random.
func (s *sqliteStore) FetchRandom(ctx context.Context, kind catalog.Kind, category, city string) (catalog.Item, bool, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE kind = ?`
	args := []interface{}{kind}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if city != "" {
		query += ` AND city LIKE ?`
		args = append(args, "%"+city+"%")
	}
	query += ` ORDER BY RANDOM() LIMIT 1;`

	it, err := scanItem(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Item{}, false, nil
	}
	if err != nil {
		return catalog.Item{}, false, err
	}
	return it, true, nil
}

// RecordFeedback applies one like/dislike in a single transaction: the
// history row, the taste counter upsert and, for liked recipes, the
// favorite plus popularity bump all land together or not at all.
func (s *sqliteStore) RecordFeedback(ctx context.Context, fb catalog.Feedback) error {
	action := "dislike"
	if fb.Liked {
		action = "like"
	}
	now := time.Now().UTC().Format(time.RFC3339)

	return s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `
INSERT INTO user_history (user_id, item_id, kind, category, action, created_at)
VALUES (?, ?, ?, ?, ?, ?);
`, fb.User, fb.Item.ID, fb.Kind, fb.Category, action, now); err != nil {
			return err
		}

		if fb.Category != "" {
			if err := upsertTaste(ctx, tx, fb.User, fb.Category, fb.Liked, now); err != nil {
				return err
			}
		}

		if fb.Liked && fb.Kind == catalog.KindRecipe {
			if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO favorites (user_id, item_id, created_at) VALUES (?, ?, ?);
`, fb.User, fb.Item.ID, now); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE items SET popularity = popularity + 1 WHERE id = ?;`, fb.Item.ID); err != nil {
				return err
			}
		}

		return tx.Commit()
	})
}

// RecordSkip logs a skipped item; preference counters stay untouched.
func (s *sqliteStore) RecordSkip(ctx context.Context, user int64, kind catalog.Kind, itemID int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO user_history (user_id, item_id, kind, category, action, created_at)
VALUES (?, ?, ?, '', 'skip', ?);
`, user, itemID, kind, now)
		return err
	})
}

// RecordTaste adds one like or dislike to the (user, category) counters.
func (s *sqliteStore) RecordTaste(ctx context.Context, user int64, category string, liked bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	return s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()
		if err := upsertTaste(ctx, tx, user, category, liked, now); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func upsertTaste(ctx context.Context, tx *sql.Tx, user int64, category string, liked bool, now string) error {
	likeInc, dislikeInc := 0, 1
	if liked {
		likeInc, dislikeInc = 1, 0
	}
	_, err := tx.ExecContext(ctx, `
INSERT INTO user_tastes (user_id, category, likes, dislikes, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id, category) DO UPDATE SET
	likes = likes + excluded.likes,
	dislikes = dislikes + excluded.dislikes,
	updated_at = excluded.updated_at;
`, user, category, likeInc, dislikeInc, now)
	return err
}

// TastesFor returns the user's counter rows ordered by category.
func (s *sqliteStore) TastesFor(ctx context.Context, user int64) ([]catalog.TasteCount, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT category, likes, dislikes FROM user_tastes WHERE user_id = ? ORDER BY category;
`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.TasteCount
	for rows.Next() {
		var tc catalog.TasteCount
		if err := rows.Scan(&tc.Category, &tc.Likes, &tc.Dislikes); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// FavoritesFor returns the user's most recent favorites, newest first.
func (s *sqliteStore) FavoritesFor(ctx context.Context, user int64, limit int) ([]catalog.FavoriteItem, error) {
	if limit <= 0 {
		limit = 15
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+prefixedItemColumns("i")+`, f.created_at
FROM favorites f
JOIN items i ON i.id = f.item_id
WHERE f.user_id = ?
ORDER BY f.created_at DESC, f.item_id DESC
LIMIT ?;
`, user, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.FavoriteItem
	for rows.Next() {
		var (
			it      catalog.Item
			savedAt string
		)
		if err := rows.Scan(&it.ID, &it.Kind, &it.Title, &it.Description, &it.Ingredients,
			&it.Steps, &it.City, &it.Address, &it.Cuisine, &it.Category, &it.Tags,
			&it.Keywords, &it.Popularity, &savedAt); err != nil {
			return nil, err
		}
		fav := catalog.FavoriteItem{Item: it}
		if parsed, perr := time.Parse(time.RFC3339, savedAt); perr == nil {
			fav.SavedAt = parsed
		}
		out = append(out, fav)
	}
	return out, rows.Err()
}

// withRetry runs fn up to busyAttempts times, backing off incrementally on
// SQLITE_BUSY/SQLITE_LOCKED. Exhausted retries surface as a hard
// ErrStoreUnavailable rather than being silently swallowed.
func (s *sqliteStore) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < busyAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * busyBackoff):
			}
		}
		err = fn()
		if err == nil || !isContention(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
}

func isContention(err error) bool {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == codeBusy || code == codeLocked
	}
	return false
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (catalog.Item, error) {
	var it catalog.Item
	err := row.Scan(&it.ID, &it.Kind, &it.Title, &it.Description, &it.Ingredients,
		&it.Steps, &it.City, &it.Address, &it.Cuisine, &it.Category, &it.Tags,
		&it.Keywords, &it.Popularity)
	return it, err
}

func prefixedItemColumns(alias string) string {
	return alias + ".id, " + alias + ".kind, " + alias + ".title, " + alias + ".description, " +
		alias + ".ingredients, " + alias + ".steps, " + alias + ".city, " + alias + ".address, " +
		alias + ".cuisine, " + alias + ".category, " + alias + ".tags, " + alias + ".keywords, " +
		alias + ".popularity"
}
