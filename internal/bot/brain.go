package bot

import (
	"slices"
	"sort"

	"dominion/internal/domain"
	"dominion/internal/engine"
)

// answer responds to a choice request with simple card preferences: gain
// the most expensive card offered, get rid of curses and green cards, and
// always reveal a reaction.
func answer(m *domain.Match, req engine.ChoiceRequest) engine.Response {
	resp := engine.Response{RequestID: req.ID, Player: req.Player}
	if req.Kind == engine.ChoicePrompt {
		resp.Choice = req.Options[len(req.Options)-1].ID
		for _, o := range req.Options {
			if o.ID != engine.OptionDecline {
				resp.Choice = o.ID
				break
			}
		}
		return resp
	}

	cards := slices.Clone(req.Cards)
	if fromPiles(m, cards) {
		sort.SliceStable(cards, func(i, j int) bool { return gainValue(m.Card(cards[i])) > gainValue(m.Card(cards[j])) })
		resp.Cards = cards[:min(len(cards), max(req.Min, 1), req.Max)]
		return resp
	}

	sort.SliceStable(cards, func(i, j int) bool { return keepValue(m.Card(cards[i])) < keepValue(m.Card(cards[j])) })
	n := req.Min
	for n < req.Max && n < len(cards) && wantsGone(m.Card(cards[n]), cards, m) {
		n++
	}
	resp.Cards = cards[:n]
	return resp
}

func fromPiles(m *domain.Match, cards []domain.CardID) bool {
	for _, id := range cards {
		loc, _, ok := m.Locate(id)
		if !ok || (loc.Kind() != domain.Supply && loc.Kind() != domain.Kingdom) {
			return false
		}
	}
	return len(cards) > 0
}

func gainValue(c *domain.Card) int {
	v := c.Cost * 2
	if c.HasType(domain.TypeTreasure) {
		v++
	}
	if c.HasType(domain.TypeCurse) {
		v = -1
	}
	return v
}

// keepValue ranks hand cards from most to least disposable.
func keepValue(c *domain.Card) int {
	switch {
	case c.HasType(domain.TypeCurse):
		return 0
	case c.HasType(domain.TypeVictory) && !c.HasType(domain.TypeAction) && !c.HasType(domain.TypeTreasure):
		return 1
	case c.Key == "copper":
		return 2
	}
	return 3 + c.Cost
}

// wantsGone decides optional picks. Offers made up only of coppers or only
// of actions come from cards that filter for them.
func wantsGone(c *domain.Card, offered []domain.CardID, m *domain.Match) bool {
	if keepValue(c) <= 1 {
		return true
	}
	same := func(pred func(*domain.Card) bool) bool {
		for _, id := range offered {
			if !pred(m.Card(id)) {
				return false
			}
		}
		return true
	}
	if same(func(x *domain.Card) bool { return x.Key == "copper" }) {
		return true
	}
	return same(func(x *domain.Card) bool { return x.HasType(domain.TypeAction) })
}
