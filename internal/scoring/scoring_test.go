package scoring

import (
	"testing"

	"dominion/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func give(m *domain.Match, player string, loc domain.LocationKind, key string, vp, n int) {
	for i := 0; i < n; i++ {
		c := m.Library.Create(domain.Card{Key: key, Owner: player, VP: vp})
		m.Insert(domain.KeyOf(loc, player), c.ID, false)
	}
}

func TestScoreCountsEveryOwnedZone(t *testing.T) {
	m := domain.NewMatch("m", []string{"a", "b"})
	give(m, "a", domain.Hand, "estate", 1, 1)
	give(m, "a", domain.Deck, "province", 6, 1)
	give(m, "a", domain.Discard, "curse", -1, 2)
	give(m, "b", domain.Deck, "duchy", 3, 1)

	played := m.Library.Create(domain.Card{Key: "estate", Owner: "a", VP: 1})
	m.Insert(domain.KeyOf(domain.Play, ""), played.ID, false)

	table := NewTable()
	assert.Equal(t, 1+6-2+1, table.Score(m, "a"))
	assert.Equal(t, 3, table.Score(m, "b"))
}

func TestGardens(t *testing.T) {
	tests := []struct {
		name   string
		copper int
		want   int
	}{
		{"nine cards", 8, 0},
		{"ten cards", 9, 1},
		{"twenty nine cards", 28, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := domain.NewMatch("m", []string{"a", "b"})
			give(m, "a", domain.Deck, "gardens", 0, 1)
			give(m, "a", domain.Deck, "copper", 0, tt.copper)
			assert.Equal(t, tt.want, NewTable().Score(m, "a"))
		})
	}
}

func TestWithOverridesRule(t *testing.T) {
	m := domain.NewMatch("m", []string{"a", "b"})
	give(m, "a", domain.Deck, "estate", 1, 2)

	table := NewTable().With("estate", func(*domain.Match, string, *domain.Card) int { return 5 })
	assert.Equal(t, 10, table.Score(m, "a"))
}

func TestRankBreaksTiesOnTurns(t *testing.T) {
	m := domain.NewMatch("m", []string{"a", "b", "c"})
	give(m, "a", domain.Deck, "province", 6, 1)
	give(m, "b", domain.Deck, "province", 6, 1)
	give(m, "c", domain.Deck, "estate", 1, 1)
	m.TurnNumber = 4
	m.CurrentPlayerTurnIndex = 0

	// Turn 4 has just come round: everyone played three turns.
	got := NewTable().Rank(m)
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Rank, "equal turns share the rank")
	assert.Equal(t, 1, got[1].Rank, "equal turns share the rank")
	assert.Equal(t, Standing{Player: "c", Score: 1, Rank: 3}, got[2])

	// a has played turn 4, b has not.
	m.CurrentPlayerTurnIndex = 1
	got = NewTable().Rank(m)
	require.Len(t, got, 3)
	assert.Equal(t, Standing{Player: "b", Score: 6, Rank: 1}, got[0])
	assert.Equal(t, Standing{Player: "a", Score: 6, Rank: 2}, got[1])
}
