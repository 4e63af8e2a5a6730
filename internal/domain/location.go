package domain

import "strings"

// LocationKind names a class of card location.
type LocationKind string

const (
	Supply  LocationKind = "supply"
	Kingdom LocationKind = "kingdom"
	Trash   LocationKind = "trash"
	Play    LocationKind = "play"
	Hand    LocationKind = "hand"
	Deck    LocationKind = "deck"
	Discard LocationKind = "discard"
)

// LocationKey addresses one concrete location, e.g. "supply" or "hand:<player>".
type LocationKey string

// SharedLocations are the locations not owned by any player.
var SharedLocations = []LocationKind{Supply, Kingdom, Trash, Play}

// PlayerLocations are created once per player.
var PlayerLocations = []LocationKind{Hand, Deck, Discard}

// KeyOf builds a location key. The player is ignored for shared kinds.
func KeyOf(kind LocationKind, player string) LocationKey {
	if kind.Shared() {
		return LocationKey(kind)
	}
	return LocationKey(string(kind) + ":" + player)
}

func HandOf(player string) LocationKey    { return KeyOf(Hand, player) }
func DeckOf(player string) LocationKey    { return KeyOf(Deck, player) }
func DiscardOf(player string) LocationKey { return KeyOf(Discard, player) }

// Shared reports whether the kind has a single match-wide instance.
func (k LocationKind) Shared() bool {
	switch k {
	case Supply, Kingdom, Trash, Play:
		return true
	}
	return false
}

// Kind returns the location kind encoded in the key.
func (k LocationKey) Kind() LocationKind {
	kind, _, _ := strings.Cut(string(k), ":")
	return LocationKind(kind)
}

// Player returns the owning player, or "" for shared locations.
func (k LocationKey) Player() string {
	_, player, _ := strings.Cut(string(k), ":")
	return player
}
