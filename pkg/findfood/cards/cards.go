// Package cards builds the presentable unit handed to the transport layer:
// display fields plus the three feedback actions bound to the item.
package cards

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/findfood/engine/pkg/findfood/catalog"
)

// Action is one of the feedback buttons on a card.
type Action string

const (
	ActionLike    Action = "like"
	ActionDislike Action = "dislike"
	ActionNext    Action = "next"
)

// Binding ties an action to the item it targets.
type Binding struct {
	Action Action
	ItemID int64
}

// Card is a single suggestion ready for display.
type Card struct {
	ID      string
	Kind    catalog.Kind
	ItemID  int64
	Title   string
	Lines   []string
	Actions []Binding
}

// Builder constructs cards with monotonic ULID identifiers.
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates a card builder.
func New() *Builder {
	return &Builder{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Build renders an item into a card. Recipes show ingredients and steps,
// venues show cuisine, rating and address.
func (b *Builder) Build(it catalog.Item) Card {
	b.mu.Lock()
	id := ulid.MustNew(ulid.Now(), b.entropy).String()
	b.mu.Unlock()

	card := Card{
		ID:     id,
		Kind:   it.Kind,
		ItemID: it.ID,
		Title:  it.Title,
		Actions: []Binding{
			{Action: ActionLike, ItemID: it.ID},
			{Action: ActionDislike, ItemID: it.ID},
			{Action: ActionNext, ItemID: it.ID},
		},
	}

	switch it.Kind {
	case catalog.KindVenue:
		if it.Cuisine != "" {
			card.Lines = append(card.Lines, fmt.Sprintf("%s (%d)", it.Cuisine, it.Popularity))
		}
		if it.Address != "" {
			card.Lines = append(card.Lines, it.Address)
		}
		if it.City != "" {
			card.Lines = append(card.Lines, it.City)
		}
	default:
		if it.Ingredients != "" {
			card.Lines = append(card.Lines, it.Ingredients)
		}
		if it.Steps != "" {
			card.Lines = append(card.Lines, it.Steps)
		}
	}
	if it.Description != "" {
		card.Lines = append(card.Lines, it.Description)
	}

	return card
}
