package cards

import (
	"dominion/internal/domain"
	"dominion/internal/engine"
)

var texts = map[string]engine.Rule{
	"cellar":       cellar,
	"chapel":       chapel,
	"workshop":     workshop,
	"bridge":       bridge,
	"militia":      militia,
	"moneylender":  moneylender,
	"remodel":      remodel,
	"throne_room":  throneRoom,
	"council_room": councilRoom,
	"witch":        witch,
}

var reactions = map[string]map[domain.LocationKind][]engine.ReactionTemplate{
	"moat": {domain.Hand: {moatReaction}},
}

var piles = []domain.LocationKey{domain.KeyOf(domain.Supply, ""), domain.KeyOf(domain.Kingdom, "")}

func inHand(player string) []domain.LocationKey {
	return []domain.LocationKey{domain.HandOf(player)}
}

func cellar(co *engine.Co) engine.Outcome {
	hand := co.Hand(co.Player)
	picked := co.Select(engine.SelectCard{
		Prompt:      "Discard any number of cards, then draw that many",
		Restriction: engine.Restriction{Locations: inHand(co.Player)},
		Count:       len(hand),
	})
	for _, id := range picked {
		co.Discard(id)
	}
	if len(picked) > 0 {
		co.Draw(len(picked))
	}
	return engine.OutcomeNone
}

func chapel(co *engine.Co) engine.Outcome {
	picked := co.Select(engine.SelectCard{
		Prompt:      "Trash up to 4 cards from your hand",
		Restriction: engine.Restriction{Locations: inHand(co.Player)},
		Count:       4,
	})
	for _, id := range picked {
		co.Trash(id)
	}
	return engine.OutcomeNone
}

func workshop(co *engine.Co) engine.Outcome {
	picked := co.Select(engine.SelectCard{
		Prompt:      "Gain a card costing up to $4",
		Restriction: engine.Restriction{Locations: piles, MaxCost: engine.CostAtMost(4), Distinct: true},
		Count:       1,
		Min:         1,
	})
	for _, id := range picked {
		co.GainCard(co.Player, id)
	}
	return engine.OutcomeNone
}

// bridge makes every card cost $1 less this turn.
func bridge(co *engine.Co) engine.Outcome {
	co.Do(engine.ApplyOverride{
		Origin:   engine.Origin{Player: co.Player, Card: co.Card},
		Override: domain.CostOverride{Filter: domain.AnyCard, Amount: 1},
	})
	return engine.OutcomeNone
}

func militia(co *engine.Co) engine.Outcome {
	for _, p := range co.Opponents() {
		if co.Immune(p) {
			continue
		}
		hand := co.Hand(p)
		if len(hand) <= 3 {
			continue
		}
		n := len(hand) - 3
		picked := co.Select(engine.SelectCard{
			Player:      p,
			Prompt:      "Discard down to 3 cards",
			Restriction: engine.Restriction{Locations: inHand(p)},
			Count:       n,
			Min:         n,
		})
		for _, id := range picked {
			co.Discard(id)
		}
	}
	return engine.OutcomeNone
}

func moneylender(co *engine.Co) engine.Outcome {
	picked := co.Select(engine.SelectCard{
		Prompt:      "You may trash a Copper for +$3",
		Restriction: engine.Restriction{Locations: inHand(co.Player), Filter: domain.WithKey("copper")},
		Count:       1,
	})
	if len(picked) == 0 {
		return engine.OutcomeNone
	}
	co.Trash(picked[0])
	co.GainTreasure(3)
	return engine.OutcomeNone
}

func remodel(co *engine.Co) engine.Outcome {
	trashed := co.Select(engine.SelectCard{
		Prompt:      "Trash a card from your hand",
		Restriction: engine.Restriction{Locations: inHand(co.Player)},
		Count:       1,
		Min:         1,
	})
	if len(trashed) == 0 {
		return engine.OutcomeNone
	}
	limit := co.Cost(trashed[0]) + 2
	co.Trash(trashed[0])

	gained := co.Select(engine.SelectCard{
		Prompt:      "Gain a card costing up to $2 more",
		Restriction: engine.Restriction{Locations: piles, MaxCost: engine.CostAtMost(limit), Distinct: true},
		Count:       1,
		Min:         1,
	})
	for _, id := range gained {
		co.GainCard(co.Player, id)
	}
	return engine.OutcomeNone
}

func throneRoom(co *engine.Co) engine.Outcome {
	picked := co.Select(engine.SelectCard{
		Prompt:      "You may play an Action card from your hand twice",
		Restriction: engine.Restriction{Locations: inHand(co.Player), Filter: domain.OfType(domain.TypeAction)},
		Count:       1,
	})
	for _, id := range picked {
		co.PlayFree(id)
		co.PlayFree(id)
	}
	return engine.OutcomeNone
}

func councilRoom(co *engine.Co) engine.Outcome {
	for _, p := range co.Opponents() {
		co.DrawFor(p, 1)
	}
	return engine.OutcomeNone
}

func witch(co *engine.Co) engine.Outcome {
	for _, p := range co.Opponents() {
		if co.Immune(p) {
			continue
		}
		co.Gain(p, "curse")
	}
	return engine.OutcomeNone
}

// moatReaction reveals Moat from hand to become immune to an opponent's attack.
var moatReaction = engine.ReactionTemplate{
	Event: engine.EventCardPlayed,
	Label: "Reveal Moat",
	When: func(m *domain.Match, r *engine.Reaction, t engine.Trigger) bool {
		c := m.Card(t.Card)
		return c != nil && c.HasType(domain.TypeAttack) && t.Player != r.Owner
	},
	Rule: func(co *engine.Co) engine.Outcome {
		return engine.OutcomeImmunity
	},
}
