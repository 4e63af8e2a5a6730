package domain

import "slices"

// CardID identifies one physical card instance for the lifetime of a match.
type CardID int

// CardType is a printed type line entry.
type CardType string

const (
	TypeAction   CardType = "ACTION"
	TypeTreasure CardType = "TREASURE"
	TypeVictory  CardType = "VICTORY"
	TypeAttack   CardType = "ATTACK"
	TypeReaction CardType = "REACTION"
	TypeCurse    CardType = "CURSE"
)

// Card is a catalog identity (Key) bound to per-instance attributes.
type Card struct {
	ID    CardID     `json:"id"`
	Key   string     `json:"key"`
	Name  string     `json:"name"`
	Owner string     `json:"owner,omitempty"`
	Cost  int        `json:"cost"`
	Types []CardType `json:"types"`
	VP    int        `json:"vp,omitempty"`
	Coins int        `json:"coins,omitempty"`
}

// HasType reports whether the card carries the given type.
func (c *Card) HasType(t CardType) bool {
	return slices.Contains(c.Types, t)
}

// CardFilter selects cards by key or type. The zero value matches nothing
// unless All is set.
type CardFilter struct {
	All   bool       `json:"all,omitempty"`
	Keys  []string   `json:"keys,omitempty"`
	Types []CardType `json:"types,omitempty"`
}

// Matches reports whether the card satisfies the filter.
func (f CardFilter) Matches(c *Card) bool {
	if c == nil {
		return false
	}
	if f.All {
		return true
	}
	if slices.Contains(f.Keys, c.Key) {
		return true
	}
	for _, t := range f.Types {
		if c.HasType(t) {
			return true
		}
	}
	return false
}

// AnyCard matches every card.
var AnyCard = CardFilter{All: true}

// OfType is shorthand for a filter over card types.
func OfType(types ...CardType) CardFilter {
	return CardFilter{Types: types}
}

// WithKey is shorthand for a filter over catalog keys.
func WithKey(keys ...string) CardFilter {
	return CardFilter{Keys: keys}
}
