// Package findfood is the recommendation and preference engine facade.
//
// It wires term expansion, taste classification, ranked retrieval, the
// per-user suggestion queues and the feedback loop into the three
// operations the transport layer consumes: StartSearch, StartRandom and
// OnFeedback.
package findfood

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/findfood/engine/pkg/findfood/cards"
	"github.com/findfood/engine/pkg/findfood/catalog"
	"github.com/findfood/engine/pkg/findfood/internalerr"
	"github.com/findfood/engine/pkg/findfood/prefs"
	"github.com/findfood/engine/pkg/findfood/rank"
	"github.com/findfood/engine/pkg/findfood/session"
	"github.com/findfood/engine/pkg/findfood/taste"
	"github.com/findfood/engine/pkg/findfood/terms"
)

// repeatRetries bounds how often a fresh single-item retrieval is retried
// to avoid repeating the last shown item. After that, whatever came back
// is accepted; a catalog with one matching item must not starve.
const repeatRetries = 3

// Options configures an Engine.
type Options struct {
	Store    catalog.Store
	Synonyms *terms.Synonyms // nil uses the built-in table
	Rand     *rand.Rand      // nil uses a time-seeded source

	// QueueLimit is how many candidates a search queues up.
	QueueLimit int

	// ThinkDelay is an optional pause before retrieval, giving the
	// transport time to show a "thinking" indicator. No lock is held
	// while waiting.
	ThinkDelay time.Duration
}

// Engine is the recommendation engine.
type Engine struct {
	store      catalog.Store
	syn        *terms.Synonyms
	retriever  *rank.Retriever
	prefs      *prefs.Tracker
	sessions   *session.Manager
	builder    *cards.Builder
	limit      int
	thinkDelay time.Duration
}

// New creates an Engine with the given dependencies.
func New(opts Options) *Engine {
	syn := opts.Synonyms
	if syn == nil {
		syn = terms.Default()
	}
	limit := opts.QueueLimit
	if limit <= 0 {
		limit = rank.DefaultLimit
	}
	return &Engine{
		store:      opts.Store,
		syn:        syn,
		retriever:  rank.NewRetriever(opts.Store, opts.Rand),
		prefs:      prefs.NewTracker(opts.Store, opts.Rand),
		sessions:   session.NewManager(),
		builder:    cards.New(),
		limit:      limit,
		thinkDelay: opts.ThinkDelay,
	}
}

// Close shuts down the engine and its store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Preferences exposes the preference tracker for direct counter updates.
func (e *Engine) Preferences() *prefs.Tracker {
	return e.prefs
}

// SearchRequest starts a search conversation turn.
type SearchRequest struct {
	User     int64
	Kind     catalog.Kind
	Text     string
	Category taste.Category // explicit taste-button choice, if any
	City     string         // locality filter for venues
}

// RandomRequest starts a "surprise me" turn.
type RandomRequest struct {
	User     int64
	Kind     catalog.Kind
	Category taste.Category // explicit category, if any
	City     string
}

// FeedbackRequest is one button press on a card.
type FeedbackRequest struct {
	User   int64
	Kind   catalog.Kind
	ItemID int64
	Action cards.Action
}

// StartSearch expands the text, infers a category when none was chosen
// explicitly, retrieves a ranked candidate list and returns the first
// card. A surprise phrase in the text diverts to the random flow.
//
// Returns internalerr.ErrBusy when the user already has a search in
// flight and internalerr.ErrNoMatch when retrieval found nothing.
func (e *Engine) StartSearch(ctx context.Context, req SearchRequest) (cards.Card, error) {
	sess := e.sessions.Get(req.User)
	if !sess.TryAcquire(session.OpSearch) {
		return cards.Card{}, internalerr.ErrBusy
	}
	defer sess.Release(session.OpSearch)

	if err := e.think(ctx); err != nil {
		return cards.Card{}, err
	}

	explicit := taste.Valid(req.Category)
	category := req.Category
	if !explicit {
		switch c := taste.Classify(req.Text, e.syn); c {
		case taste.Random:
			return e.surprise(ctx, sess, req.User, req.Kind, taste.Unknown, req.City)
		default:
			category = c
		}
	}

	primary := terms.Normalize(req.Text)
	searchTerms := terms.Expand(req.Text, e.syn)

	items, err := e.retriever.Retrieve(ctx, rank.Request{
		Kind:     req.Kind,
		Terms:    searchTerms,
		City:     req.City,
		Category: category,
		Explicit: explicit,
		Limit:    e.limit,
		Primary:  primary,
	})
	if err != nil {
		return cards.Card{}, fmt.Errorf("retrieve: %w", err)
	}
	if len(items) == 0 {
		return cards.Card{}, internalerr.ErrNoMatch
	}

	sess.StoreQueue(req.Kind, items, session.Meta{
		Source:   session.SourceSearch,
		Terms:    searchTerms,
		Category: category,
		Explicit: explicit,
		City:     req.City,
		Primary:  primary,
	})

	it, _ := sess.Current(req.Kind)
	sess.SetLast(req.Kind, it.ID)
	return e.builder.Build(it), nil
}

// StartRandom resolves a category via the preference tracker and returns
// one fresh random card.
func (e *Engine) StartRandom(ctx context.Context, req RandomRequest) (cards.Card, error) {
	sess := e.sessions.Get(req.User)
	if !sess.TryAcquire(session.OpRandom) {
		return cards.Card{}, internalerr.ErrBusy
	}
	defer sess.Release(session.OpRandom)

	if err := e.think(ctx); err != nil {
		return cards.Card{}, err
	}
	return e.surprise(ctx, sess, req.User, req.Kind, req.Category, req.City)
}

// OnFeedback applies one action to the targeted item and advances the
// queue to the next card, refilling when exhausted. It returns
// internalerr.ErrNoMatch when nothing is left to suggest.
func (e *Engine) OnFeedback(ctx context.Context, req FeedbackRequest) (cards.Card, error) {
	sess := e.sessions.Get(req.User)

	switch req.Action {
	case cards.ActionLike, cards.ActionDislike:
		it, found, err := e.store.FetchItem(ctx, req.Kind, req.ItemID)
		if err != nil {
			return cards.Card{}, fmt.Errorf("fetch item: %w", err)
		}
		// An item deleted between display and action is a miss: no
		// preference update, straight to the next card.
		if found {
			category := taste.ForItem(it.Category, it.Tags, it.Keywords, e.syn)
			fb := catalog.Feedback{
				User:  req.User,
				Item:  it,
				Kind:  req.Kind,
				Liked: req.Action == cards.ActionLike,
			}
			if taste.Valid(category) {
				fb.Category = string(category)
			}
			if err := e.store.RecordFeedback(ctx, fb); err != nil {
				return cards.Card{}, fmt.Errorf("record feedback: %w", err)
			}
		}
	case cards.ActionNext:
		if err := e.store.RecordSkip(ctx, req.User, req.Kind, req.ItemID); err != nil {
			return cards.Card{}, fmt.Errorf("record skip: %w", err)
		}
	default:
		return cards.Card{}, internalerr.ErrInvalidInput
	}

	sess.Advance(req.Kind)
	return e.nextCard(ctx, sess, req.User, req.Kind)
}

// ProactiveHint reports a dominant taste category worth suggesting to the
// user, at most once per category per session.
func (e *Engine) ProactiveHint(ctx context.Context, user int64) (taste.Category, bool, error) {
	return e.prefs.Dominant(ctx, user)
}

// Favorites lists the user's most recently saved favorites.
func (e *Engine) Favorites(ctx context.Context, user int64, limit int) ([]catalog.FavoriteItem, error) {
	return e.store.FavoritesFor(ctx, user, limit)
}

// EndSession discards a user's queues, last-suggestion markers and hint
// state.
func (e *Engine) EndSession(user int64) {
	e.sessions.Drop(user)
	e.prefs.ForgetHints(user)
}

func (e *Engine) surprise(ctx context.Context, sess *session.Session, user int64, kind catalog.Kind, explicit taste.Category, city string) (cards.Card, error) {
	category, err := e.prefs.ResolveForSurprise(ctx, user, explicit)
	if err != nil {
		return cards.Card{}, fmt.Errorf("resolve surprise category: %w", err)
	}

	it, ok, err := e.pickFresh(ctx, sess, kind, category, city)
	if err != nil {
		return cards.Card{}, err
	}
	if !ok {
		return cards.Card{}, internalerr.ErrNoMatch
	}

	sess.StoreQueue(kind, []catalog.Item{it}, session.Meta{
		Source:   session.SourceRandom,
		Category: category,
		Explicit: taste.Valid(explicit),
		City:     city,
	})
	sess.SetLast(kind, it.ID)
	return e.builder.Build(it), nil
}

// pickFresh fetches one random item, retrying a bounded number of times
// when the pick equals the last shown item. The final pick is accepted
// either way.
func (e *Engine) pickFresh(ctx context.Context, sess *session.Session, kind catalog.Kind, category taste.Category, city string) (catalog.Item, bool, error) {
	catFilter := ""
	if taste.Valid(category) {
		catFilter = string(category)
	}
	last, hasLast := sess.Last(kind)

	var (
		it catalog.Item
		ok bool
	)
	for attempt := 0; attempt <= repeatRetries; attempt++ {
		var err error
		it, ok, err = e.store.FetchRandom(ctx, kind, catFilter, city)
		if err != nil {
			return catalog.Item{}, false, fmt.Errorf("fetch random: %w", err)
		}
		if !ok || !hasLast || it.ID != last {
			break
		}
	}
	return it, ok, nil
}

func (e *Engine) nextCard(ctx context.Context, sess *session.Session, user int64, kind catalog.Kind) (cards.Card, error) {
	if it, ok := sess.Current(kind); ok {
		sess.SetLast(kind, it.ID)
		return e.builder.Build(it), nil
	}

	meta, ok := sess.Meta(kind)
	if !ok {
		return cards.Card{}, internalerr.ErrNoMatch
	}

	switch meta.Source {
	case session.SourceSearch:
		it, found, err := e.refillFromSearch(ctx, sess, kind, meta)
		if err != nil {
			return cards.Card{}, err
		}
		if !found {
			return cards.Card{}, internalerr.ErrNoMatch
		}
		sess.StoreQueue(kind, []catalog.Item{it}, meta)
	default:
		// Random queues refill with a fresh pick that still honors the
		// preference tracker unless the category was explicit.
		explicit := taste.Unknown
		if meta.Explicit {
			explicit = meta.Category
		}
		category, err := e.prefs.ResolveForSurprise(ctx, user, explicit)
		if err != nil {
			return cards.Card{}, fmt.Errorf("resolve surprise category: %w", err)
		}
		it, found, err := e.pickFresh(ctx, sess, kind, category, meta.City)
		if err != nil {
			return cards.Card{}, err
		}
		if !found {
			return cards.Card{}, internalerr.ErrNoMatch
		}
		sess.StoreQueue(kind, []catalog.Item{it}, meta)
	}

	it, _ := sess.Current(kind)
	sess.SetLast(kind, it.ID)
	return e.builder.Build(it), nil
}

// refillFromSearch re-runs the ranker with the queue's original filters
// for a single fresh item, biased against repeating the last one.
func (e *Engine) refillFromSearch(ctx context.Context, sess *session.Session, kind catalog.Kind, meta session.Meta) (catalog.Item, bool, error) {
	req := rank.Request{
		Kind:     kind,
		Terms:    meta.Terms,
		City:     meta.City,
		Category: meta.Category,
		Explicit: meta.Explicit,
		Limit:    1,
		Primary:  meta.Primary,
	}
	last, hasLast := sess.Last(kind)

	var pick catalog.Item
	found := false
	for attempt := 0; attempt <= repeatRetries; attempt++ {
		items, err := e.retriever.Retrieve(ctx, req)
		if err != nil {
			return catalog.Item{}, false, fmt.Errorf("refill: %w", err)
		}
		if len(items) == 0 {
			return catalog.Item{}, false, nil
		}
		pick, found = items[0], true
		if !hasLast || pick.ID != last {
			break
		}
	}
	return pick, found, nil
}

// think is the cooperative suspension before retrieval. No lock is held
// while waiting, and cancellation is honored.
func (e *Engine) think(ctx context.Context) error {
	if e.thinkDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.thinkDelay):
		return nil
	}
}
