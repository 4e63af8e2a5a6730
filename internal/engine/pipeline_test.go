package engine

import (
	"math/rand"
	"testing"

	"dominion/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bogusEffect struct{ Origin }

func (bogusEffect) Kind() Kind { return kindEnd + 5 }

func TestHandlerTableCoversEveryKind(t *testing.T) {
	handlers := defaultHandlers()
	for k := KindMove; k < kindEnd; k++ {
		assert.NotNilf(t, handlers[k], "no handler for %s", k)
	}
}

func TestUnknownEffectIsSkipped(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.noAutoAdvance()

	err := f.e.runRule(Origin{Player: "a"}, func(co *Co) Outcome {
		co.Do(bogusEffect{})
		co.GainBuys(1)
		return OutcomeNone
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.m.PlayerBuys)
}

func TestMoveKeepsCardsInExactlyOneLocation(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.noAutoAdvance()
	ids := f.addN(copper, domain.KeyOf(domain.Supply, ""), 12)
	f.addN(estate, domain.DeckOf("a"), 3)

	rng := rand.New(rand.NewSource(7))
	keys := f.m.LocationKeys()
	for i := 0; i < 200; i++ {
		id := ids[rng.Intn(len(ids))]
		to := keys[rng.Intn(len(keys))]
		top := rng.Intn(2) == 0
		err := f.e.runEffect(Move{Origin: Origin{Player: "a"}, Card: id, To: to, Top: top})
		require.NoError(t, err)
		requireExclusive(t, f.m)
	}
}

func TestMoveOfMissingCardIsNoop(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.noAutoAdvance()
	f.add(copper, domain.HandOf("a"))

	err := f.e.runEffect(Move{Origin: Origin{Player: "a"}, Card: 999, To: domain.HandOf("b")})
	require.NoError(t, err)
	assert.Empty(t, f.m.Cards(domain.HandOf("b")))
	assert.Empty(t, f.rec.deltas, "a no-op move must not broadcast")
}

func TestNestedRunsFlushOnce(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.noAutoAdvance()
	v := f.add(village, domain.HandOf("a"))
	f.addN(copper, domain.DeckOf("a"), 3)

	require.NoError(t, f.e.PlayCard("a", v))
	assert.Len(t, f.rec.deltas, 1)
}

func TestDeltaMatchesFinalState(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.noAutoAdvance()
	v := f.add(village, domain.HandOf("a"))
	f.addN(copper, domain.DeckOf("a"), 3)

	require.NoError(t, f.e.PlayCard("a", v))
	require.Len(t, f.rec.deltas, 1)
	delta := f.rec.deltas[0]

	for _, key := range f.m.LocationKeys() {
		got, ok := delta[string(key)]
		if !ok {
			continue
		}
		assert.Equalf(t, []domain.CardID(f.m.Cards(key)), got, "location %s", key)
	}
	assert.Contains(t, delta, string(domain.KeyOf(domain.Play, "")))
	assert.Contains(t, delta, string(domain.HandOf("a")))
	assert.Contains(t, delta, string(domain.DeckOf("a")))
	assert.Equal(t, f.m.PlayerActions, delta[KeyPlayerActions])
}

func TestPlusCardPlusActionsYieldsOneEffectEach(t *testing.T) {
	f := newFixture(t, "a", "b")
	v := f.add(village, domain.HandOf("a"))
	f.addN(copper, domain.DeckOf("a"), 3)

	require.NoError(t, f.e.PlayCard("a", v))

	assert.Equal(t, 1, f.count(KindDraw))
	assert.Equal(t, 1, f.count(KindGainAction))
	for _, eff := range f.effects {
		if g, ok := eff.(GainAction); ok {
			assert.Equal(t, 2, g.N)
		}
	}
	assert.Equal(t, 2, f.m.PlayerActions)
	assert.Len(t, f.m.Cards(domain.HandOf("a")), 1)
}

func TestRulePanicBecomesError(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.noAutoAdvance()
	b := f.add(bomb, domain.HandOf("a"))

	err := f.e.PlayCard("a", b)
	require.ErrorIs(t, err, ErrRulePanic)
	assert.False(t, f.e.Busy())
}

func TestHandlerErrorPropagates(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.noAutoAdvance()
	f.m.TurnPhaseIndex = 1
	f.m.PlayerBuys = 0
	s := f.add(silver, domain.KeyOf(domain.Supply, ""))

	err := f.e.runEffect(Buy{Origin: Origin{Player: "a"}, Card: s})
	require.ErrorIs(t, err, ErrNoBuys)
	assert.Equal(t, []domain.CardID{s}, f.m.Cards(domain.KeyOf(domain.Supply, "")))
}

func TestSuspendCallbackDefersRecheck(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.add(copper, domain.HandOf("a"))

	err := f.e.SuspendCallback(func() error {
		for i := 0; i < 2; i++ {
			require.NoError(t, f.e.runRule(Origin{Player: "a"}, func(co *Co) Outcome {
				co.GainBuys(1)
				return OutcomeNone
			}))
			assert.Equal(t, domain.PhaseAction, f.m.Phase(), "re-check must wait for the scope to exit")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, f.rec.deltas, 3, "two runs plus the phase change")
	assert.Equal(t, domain.PhaseBuy, f.m.Phase())
}

func TestPanicInsideSuspendedScopeReleasesIt(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.add(copper, domain.HandOf("a"))
	f.e.handlers[KindGainBuy] = func(*Engine, Effect, Delta) (Result, error) {
		panic("boom")
	}

	err := f.e.submit(func() error {
		return f.e.SuspendCallback(func() error {
			return f.e.runRule(Origin{Player: "a"}, func(co *Co) Outcome {
				co.GainBuys(1)
				return OutcomeNone
			})
		})
	})
	require.ErrorIs(t, err, ErrRulePanic)
	assert.Zero(t, f.e.suspended)
	assert.Equal(t, domain.PhaseAction, f.m.Phase())

	f.e.handlers = defaultHandlers()
	require.NoError(t, f.e.runRule(Origin{Player: "a"}, func(co *Co) Outcome {
		co.GainBuys(1)
		return OutcomeNone
	}))
	assert.Equal(t, domain.PhaseBuy, f.m.Phase(), "auto-advance must still work after the panic")
}

func TestBuyGainsTopOfPile(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.m.TurnPhaseIndex = 1
	f.m.PlayerTreasure = 4
	f.m.PlayerBuys = 2
	silvers := f.addN(silver, domain.KeyOf(domain.Supply, ""), 3)
	f.add(copper, domain.HandOf("a"))

	require.NoError(t, f.e.BuyCard("a", silvers[2]))

	assert.Equal(t, []domain.CardID{silvers[0]}, f.m.Cards(domain.DiscardOf("a")))
	assert.Equal(t, 1, f.m.PlayerTreasure)
	assert.Equal(t, 1, f.m.PlayerBuys)
	assert.Equal(t, "a", f.m.Card(silvers[0]).Owner)
	assert.ErrorIs(t, f.e.BuyCard("a", silvers[1]), ErrCannotAfford)
}

func TestInboundValidation(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.noAutoAdvance()
	c := f.add(copper, domain.HandOf("a"))
	v := f.add(village, domain.HandOf("b"))
	s := f.add(silver, domain.KeyOf(domain.Supply, ""))

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{name: "not your turn", call: func() error { return f.e.PlayCard("b", v) }, want: ErrNotYourTurn},
		{name: "unknown player", call: func() error { return f.e.PlayCard("z", c) }, want: ErrUnknownPlayer},
		{name: "not in hand", call: func() error { return f.e.PlayCard("a", v) }, want: ErrCardNotInHand},
		{name: "treasure in action phase", call: func() error { return f.e.PlayCard("a", c) }, want: ErrWrongPhase},
		{name: "buy in action phase", call: func() error { return f.e.BuyCard("a", s) }, want: ErrWrongPhase},
		{name: "advance out of turn", call: func() error { return f.e.AdvancePhase("b") }, want: ErrNotYourTurn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), tt.want)
		})
	}
}
