package engine

import (
	"testing"

	"dominion/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverridesNeverGoBelowZero(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.noAutoAdvance()
	c := f.add(cheap, domain.KeyOf(domain.Kingdom, ""))
	e := f.add(estate, domain.KeyOf(domain.Supply, ""))

	require.NoError(t, f.e.runRule(Origin{Player: "a"}, func(co *Co) Outcome {
		for i := 0; i < 2; i++ {
			co.Do(ApplyOverride{Origin: co.origin(), Override: domain.CostOverride{Filter: domain.AnyCard}})
		}
		return OutcomeNone
	}))

	overrides := CardOverrides(f.m)
	assert.Equal(t, -1, overrides["a"][c])
	assert.Equal(t, -2, overrides["a"][e])
	assert.Equal(t, 0, EffectiveCost(f.m, "a", c))
	assert.Equal(t, 0, EffectiveCost(f.m, "b", e))
	for _, deltas := range overrides {
		for id, delta := range deltas {
			assert.GreaterOrEqual(t, f.m.Card(id).Cost+delta, 0)
		}
	}
}

func TestOverrideTargetsAndFilter(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.noAutoAdvance()
	v := f.add(village, domain.KeyOf(domain.Kingdom, ""))
	s := f.add(silver, domain.KeyOf(domain.Supply, ""))

	require.NoError(t, f.e.runEffect(ApplyOverride{
		Origin:   Origin{Player: "a"},
		Override: domain.CostOverride{Targets: []string{"a"}, Filter: domain.OfType(domain.TypeAction)},
	}))

	assert.Equal(t, 2, EffectiveCost(f.m, "a", v))
	assert.Equal(t, 3, EffectiveCost(f.m, "b", v))
	assert.Equal(t, 3, EffectiveCost(f.m, "a", s))
}

func TestOverridesExpireAtTurnEnd(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.noAutoAdvance()
	v := f.add(village, domain.KeyOf(domain.Kingdom, ""))

	require.NoError(t, f.e.runRule(Origin{Player: "a"}, func(co *Co) Outcome {
		co.Do(ApplyOverride{Origin: co.origin(), Override: domain.CostOverride{Filter: domain.AnyCard}})
		co.Do(ApplyOverride{Origin: co.origin(), Override: domain.CostOverride{Filter: domain.AnyCard}})
		return OutcomeNone
	}))
	require.Len(t, f.m.Overrides, 2)
	require.Equal(t, 1, EffectiveCost(f.m, "a", v))
	assert.Equal(t, 2, f.e.Reactions().Len(), "each override gets its own expiry")

	require.NoError(t, f.e.runEffect(Trigger{Origin: Origin{Player: "a"}, Event: EventTurnEnd, Player: "a"}))

	assert.Empty(t, f.m.Overrides)
	assert.Equal(t, 3, EffectiveCost(f.m, "a", v))
	assert.Equal(t, 0, f.e.Reactions().Len())
	assert.Empty(t, f.rec.requests)
}
