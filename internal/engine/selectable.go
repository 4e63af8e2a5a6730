package engine

import "dominion/internal/domain"

// Selectable lists the cards a player may act on right now: playable action
// cards in the action phase; affordable piles and treasures in hand in the
// buy phase.
func (e *Engine) Selectable(player string) []domain.CardID {
	m := e.match
	if player != m.CurrentPlayer() {
		return nil
	}
	hand := domain.HandOf(player)
	switch m.Phase() {
	case domain.PhaseAction:
		if m.PlayerActions <= 0 {
			return nil
		}
		return e.legalChoices(player, Restriction{
			Locations: []domain.LocationKey{hand},
			Filter:    domain.OfType(domain.TypeAction),
		})
	case domain.PhaseBuy:
		if m.PlayerBuys <= 0 {
			return nil
		}
		piles := e.legalChoices(player, Restriction{
			Locations: []domain.LocationKey{domain.KeyOf(domain.Supply, ""), domain.KeyOf(domain.Kingdom, "")},
			MaxCost:   CostAtMost(m.PlayerTreasure),
			Distinct:  true,
		})
		treasures := e.legalChoices(player, Restriction{
			Locations: []domain.LocationKey{hand},
			Filter:    domain.OfType(domain.TypeTreasure),
		})
		return append(piles, treasures...)
	}
	return nil
}

func (e *Engine) sendSelectable() {
	for _, p := range e.match.Players {
		e.transport.Selectable(p, e.Selectable(p))
	}
}
