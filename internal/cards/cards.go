// Package cards holds the behaviors of the base set.
package cards

import (
	"dominion/internal/catalog"
	"dominion/internal/domain"
	"dominion/internal/engine"
)

// card applies the printed bonuses, then the card's own text.
type card struct {
	def       catalog.Definition
	text      engine.Rule
	reactions map[domain.LocationKind][]engine.ReactionTemplate
}

func (c card) Play(co *engine.Co) engine.Outcome {
	bonuses(co, c.def)
	if c.text == nil {
		return engine.OutcomeNone
	}
	return c.text(co)
}

func (c card) Reactions(zone domain.LocationKind) []engine.ReactionTemplate {
	return c.reactions[zone]
}

// bonuses yields one effect per printed bonus line, in printed order.
func bonuses(co *engine.Co, def catalog.Definition) {
	if def.Cards > 0 {
		co.Draw(def.Cards)
	}
	if def.Actions > 0 {
		co.GainActions(def.Actions)
	}
	if def.Buys > 0 {
		co.GainBuys(def.Buys)
	}
	if def.Coins > 0 {
		co.GainTreasure(def.Coins)
	}
}

// Rules returns a behavior for every playable card in the catalog. Cards
// without text beyond their bonuses get the vanilla behavior.
func Rules(cat *catalog.Catalog) engine.Rules {
	rules := engine.Rules{}
	for _, def := range cat.Definitions() {
		if !def.HasType(domain.TypeAction) && !def.HasType(domain.TypeTreasure) {
			continue
		}
		c := card{def: def, text: texts[def.Key]}
		if r, ok := reactions[def.Key]; ok {
			c.reactions = r
		}
		rules[def.Key] = c
	}
	return rules
}
