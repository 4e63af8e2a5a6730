package domain

import (
	"errors"
	"fmt"
	"sort"
)

var ErrDuplicateCard = errors.New("card id already registered")

// Library resolves card ids to their attributes. Entries are added once when
// piles are built and never replaced or removed.
type Library struct {
	cards map[CardID]*Card
	next  CardID
}

// NewLibrary returns an empty library whose first allocated id is 1.
func NewLibrary() *Library {
	return &Library{cards: make(map[CardID]*Card), next: 1}
}

// Add registers a card under its id.
func (l *Library) Add(card *Card) error {
	if _, exists := l.cards[card.ID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateCard, card.ID)
	}
	l.cards[card.ID] = card
	if card.ID >= l.next {
		l.next = card.ID + 1
	}
	return nil
}

// Create allocates a fresh id for the card and registers it.
func (l *Library) Create(card Card) *Card {
	card.ID = l.next
	c := &card
	l.cards[c.ID] = c
	l.next++
	return c
}

// Get returns the card for an id.
func (l *Library) Get(id CardID) (*Card, bool) {
	c, ok := l.cards[id]
	return c, ok
}

// Len returns the number of registered cards.
func (l *Library) Len() int {
	return len(l.cards)
}

// IDs returns every registered id in ascending order.
func (l *Library) IDs() []CardID {
	ids := make([]CardID, 0, len(l.cards))
	for id := range l.cards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
