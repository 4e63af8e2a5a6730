// Package scoring counts victory points.
package scoring

import (
	"sort"

	"dominion/internal/domain"
)

// Rule scores one owned card.
type Rule func(m *domain.Match, owner string, card *domain.Card) int

// Table scores cards by their printed VP unless a key has its own rule.
type Table struct {
	rules map[string]Rule
}

// NewTable returns the base set scoring.
func NewTable() *Table {
	return &Table{rules: map[string]Rule{
		"gardens": gardens,
	}}
}

// With adds or replaces the rule for a card key.
func (t *Table) With(key string, r Rule) *Table {
	t.rules[key] = r
	return t
}

// Score sums every card the player owns.
func (t *Table) Score(m *domain.Match, player string) int {
	total := 0
	for _, id := range m.Owned(player) {
		c := m.Card(id)
		if c == nil {
			continue
		}
		if r, ok := t.rules[c.Key]; ok {
			total += r(m, player, c)
			continue
		}
		total += c.VP
	}
	return total
}

// gardens is worth 1 VP per 10 cards owned, rounded down.
func gardens(m *domain.Match, owner string, _ *domain.Card) int {
	return len(m.Owned(owner)) / 10
}

// Standing is one player's final result.
type Standing struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

// Rank orders players by score. Ties go to the player who had fewer turns,
// then share the rank. The match is ranked once the turn has passed, so the
// current player has not taken turn TurnNumber yet.
func (t *Table) Rank(m *domain.Match) []Standing {
	turns := func(i int) int {
		if i < m.CurrentPlayerTurnIndex {
			return m.TurnNumber
		}
		return m.TurnNumber - 1
	}

	type row struct {
		Standing
		turns int
	}
	rows := make([]row, len(m.Players))
	for i, p := range m.Players {
		rows[i] = row{Standing: Standing{Player: p, Score: t.Score(m, p)}, turns: turns(i)}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].turns < rows[j].turns
	})

	out := make([]Standing, len(rows))
	for i, r := range rows {
		r.Rank = i + 1
		if i > 0 && r.Score == rows[i-1].Score && r.turns == rows[i-1].turns {
			r.Rank = out[i-1].Rank
		}
		out[i] = r.Standing
	}
	return out
}
