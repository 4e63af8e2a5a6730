package engine

import "dominion/internal/domain"

// CardOverrides computes, for every player, the cost delta of every card
// affected by an active override. A card's cost never drops below zero.
func CardOverrides(m *domain.Match) map[string]map[domain.CardID]int {
	out := make(map[string]map[domain.CardID]int)
	if len(m.Overrides) == 0 {
		return out
	}
	for _, player := range m.Players {
		for _, id := range m.Library.IDs() {
			if delta := costDelta(m, player, id); delta != 0 {
				if out[player] == nil {
					out[player] = make(map[domain.CardID]int)
				}
				out[player][id] = delta
			}
		}
	}
	return out
}

// EffectiveCost returns the card's cost for a player after overrides.
func EffectiveCost(m *domain.Match, player string, id domain.CardID) int {
	c := m.Card(id)
	if c == nil {
		return 0
	}
	return c.Cost + costDelta(m, player, id)
}

func costDelta(m *domain.Match, player string, id domain.CardID) int {
	c := m.Card(id)
	if c == nil {
		return 0
	}
	delta := 0
	for _, o := range m.Overrides {
		if !targets(o, player) || !o.Filter.Matches(c) {
			continue
		}
		delta -= o.Amount
		if c.Cost+delta < 0 {
			delta = -c.Cost
		}
	}
	return delta
}

func targets(o domain.CostOverride, player string) bool {
	for _, t := range o.Targets {
		if t == player {
			return true
		}
	}
	return false
}
