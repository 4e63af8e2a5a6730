package bot

import (
	"dominion/internal/domain"
	"dominion/internal/engine"
)

// MoneyBot plays Big Money: treasures, the occasional terminal draw and
// green cards once the Provinces run low.
type MoneyBot struct {
	Rules []BuyRule
}

// NewBigMoney buys only treasure and victory cards.
func NewBigMoney(t Tuning) *MoneyBot {
	return &MoneyBot{Rules: []BuyRule{
		&BuyProvinceRule{GoldFirst: t.GoldBeforeProvince},
		&BuyVictoryRule{Key: "duchy", ProvincesLeft: t.DuchyAt},
		&BuyVictoryRule{Key: "estate", ProvincesLeft: t.EstateAt},
		&BuyTreasureRule{Key: "gold"},
		&BuyTreasureRule{Key: "silver"},
	}}
}

// NewSmithyBigMoney adds Smithies on $4 and $5 hands.
func NewSmithyBigMoney(t Tuning) *MoneyBot {
	return &MoneyBot{Rules: []BuyRule{
		&BuyProvinceRule{GoldFirst: t.GoldBeforeProvince},
		&BuyVictoryRule{Key: "duchy", ProvincesLeft: t.DuchyAt},
		&BuyVictoryRule{Key: "estate", ProvincesLeft: t.EstateAt},
		&BuyTreasureRule{Key: "gold"},
		&BuySmithyRule{Per: t.SmithyPer, Max: t.MaxSmithies},
		&BuyTreasureRule{Key: "silver"},
	}}
}

func (b *MoneyBot) NextMove(m *domain.Match, player string) Move {
	if m.CurrentPlayer() != player {
		return Move{Kind: MoveWait}
	}
	hand := m.Cards(domain.HandOf(player))

	switch m.Phase() {
	case domain.PhaseAction:
		if m.PlayerActions > 0 {
			if id, ok := bestAction(m, hand); ok {
				return Move{Kind: MovePlay, Card: id}
			}
		}
	case domain.PhaseBuy:
		for _, id := range hand {
			if m.Card(id).HasType(domain.TypeTreasure) {
				return Move{Kind: MovePlay, Card: id}
			}
		}
		if m.PlayerBuys > 0 {
			ctx := &BuyContext{Match: m, Player: player, Treasure: m.PlayerTreasure}
			if key := runPipeline(b.Rules, ctx); key != "" {
				top, _ := m.PileTop(key)
				return Move{Kind: MoveBuy, Card: top}
			}
		}
	}
	return Move{Kind: MoveAdvance}
}

func (b *MoneyBot) Choose(m *domain.Match, req engine.ChoiceRequest) engine.Response {
	return answer(m, req)
}

// bestAction prefers the most expensive action in hand.
func bestAction(m *domain.Match, hand []domain.CardID) (domain.CardID, bool) {
	var best *domain.Card
	for _, id := range hand {
		c := m.Card(id)
		if !c.HasType(domain.TypeAction) {
			continue
		}
		if best == nil || c.Cost > best.Cost {
			best = c
		}
	}
	if best == nil {
		return 0, false
	}
	return best.ID, true
}
