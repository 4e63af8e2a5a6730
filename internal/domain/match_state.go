package domain

import (
	"slices"
	"sort"
)

// Phase is a step of a player's turn.
type Phase string

const (
	PhaseAction  Phase = "action"
	PhaseBuy     Phase = "buy"
	PhaseCleanup Phase = "cleanup"
)

// Match is the authoritative record of a running game. Only effect handlers
// mutate it.
type Match struct {
	ID        string
	Players   []string
	Library   *Library
	Locations map[LocationKey][]CardID

	CurrentPlayerTurnIndex int
	TurnPhaseIndex         int
	TurnNumber             int

	PlayerActions  int
	PlayerBuys     int
	PlayerTreasure int

	Overrides []CostOverride

	// Piles lists the catalog keys laid out in supply and kingdom at setup.
	Piles []string
}

// NewMatch creates a match at the start of turn 1 with empty locations for
// every player.
func NewMatch(id string, players []string) *Match {
	m := &Match{
		ID:             id,
		Players:        slices.Clone(players),
		Library:        NewLibrary(),
		Locations:      make(map[LocationKey][]CardID),
		TurnNumber:     1,
		PlayerActions:  StartingActions,
		PlayerBuys:     StartingBuys,
		PlayerTreasure: 0,
	}
	for _, kind := range SharedLocations {
		m.Locations[KeyOf(kind, "")] = nil
	}
	for _, p := range players {
		for _, kind := range PlayerLocations {
			m.Locations[KeyOf(kind, p)] = nil
		}
	}
	return m
}

// CurrentPlayer returns the id of the player whose turn it is.
func (m *Match) CurrentPlayer() string {
	if len(m.Players) == 0 {
		return ""
	}
	return m.Players[m.CurrentPlayerTurnIndex%len(m.Players)]
}

// Phase returns the current turn phase.
func (m *Match) Phase() Phase {
	return TurnPhases[m.TurnPhaseIndex%len(TurnPhases)]
}

// HasPlayer reports whether the id is seated in the match.
func (m *Match) HasPlayer(player string) bool {
	return slices.Contains(m.Players, player)
}

// Card resolves an id through the library. Nil when unknown.
func (m *Match) Card(id CardID) *Card {
	c, _ := m.Library.Get(id)
	return c
}

// Cards returns the ids at a location. The slice is owned by the match.
func (m *Match) Cards(key LocationKey) []CardID {
	return m.Locations[key]
}

// LocationKeys returns every location key in a stable order.
func (m *Match) LocationKeys() []LocationKey {
	keys := make([]LocationKey, 0, len(m.Locations))
	for k := range m.Locations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Locate finds the location and index currently holding the card.
func (m *Match) Locate(id CardID) (LocationKey, int, bool) {
	for key, ids := range m.Locations {
		if idx := slices.Index(ids, id); idx >= 0 {
			return key, idx, true
		}
	}
	return "", -1, false
}

// RemoveAt removes and returns the card at index idx of a location.
func (m *Match) RemoveAt(key LocationKey, idx int) CardID {
	ids := m.Locations[key]
	id := ids[idx]
	m.Locations[key] = slices.Delete(slices.Clone(ids), idx, idx+1)
	return id
}

// Insert places a card on top (index 0) or at the bottom of a location.
func (m *Match) Insert(key LocationKey, id CardID, top bool) {
	ids := slices.Clone(m.Locations[key])
	if top {
		ids = slices.Insert(ids, 0, id)
	} else {
		ids = append(ids, id)
	}
	m.Locations[key] = ids
}

// Count returns how many cards at a location match the filter.
func (m *Match) Count(key LocationKey, filter CardFilter) int {
	n := 0
	for _, id := range m.Locations[key] {
		if filter.Matches(m.Card(id)) {
			n++
		}
	}
	return n
}

// PileTop returns the first card with the key in supply, then kingdom.
func (m *Match) PileTop(cardKey string) (CardID, bool) {
	for _, loc := range []LocationKey{KeyOf(Supply, ""), KeyOf(Kingdom, "")} {
		for _, id := range m.Locations[loc] {
			if c := m.Card(id); c != nil && c.Key == cardKey {
				return id, true
			}
		}
	}
	return 0, false
}

// PileSize returns how many cards with the key remain in supply and kingdom.
func (m *Match) PileSize(cardKey string) int {
	filter := WithKey(cardKey)
	return m.Count(KeyOf(Supply, ""), filter) + m.Count(KeyOf(Kingdom, ""), filter)
}

// Owned returns every card id in the player's hand, deck, discard and the
// part of the play area they own.
func (m *Match) Owned(player string) []CardID {
	var out []CardID
	for _, kind := range PlayerLocations {
		out = append(out, m.Locations[KeyOf(kind, player)]...)
	}
	for _, id := range m.Locations[KeyOf(Play, "")] {
		if c := m.Card(id); c != nil && c.Owner == player {
			out = append(out, id)
		}
	}
	return out
}

// GameOver reports whether the Province pile or three piles are exhausted.
func (m *Match) GameOver() bool {
	empty := 0
	for _, key := range m.Piles {
		if m.PileSize(key) > 0 {
			continue
		}
		if key == ProvinceKey {
			return true
		}
		empty++
	}
	return empty >= EmptyPilesToEnd
}
