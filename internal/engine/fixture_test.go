package engine

import (
	"math/rand"
	"testing"

	"dominion/internal/domain"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	logs       []LogEntry
	deltas     []Delta
	selectable map[string][]domain.CardID
	requests   []ChoiceRequest
}

func newRecorder() *recorder {
	return &recorder{selectable: make(map[string][]domain.CardID)}
}

func (r *recorder) Log(e LogEntry)                             { r.logs = append(r.logs, e) }
func (r *recorder) BroadcastDelta(d Delta)                     { r.deltas = append(r.deltas, d) }
func (r *recorder) Selectable(p string, cards []domain.CardID) { r.selectable[p] = cards }
func (r *recorder) RequestChoice(req ChoiceRequest)            { r.requests = append(r.requests, req) }

func (r *recorder) lastRequest(t *testing.T) ChoiceRequest {
	t.Helper()
	require.NotEmpty(t, r.requests, "no choice request was sent")
	return r.requests[len(r.requests)-1]
}

type testCard struct {
	key   string
	cost  int
	types []domain.CardType
}

var (
	copper  = testCard{"copper", 0, []domain.CardType{domain.TypeTreasure}}
	silver  = testCard{"silver", 3, []domain.CardType{domain.TypeTreasure}}
	gold    = testCard{"gold", 6, []domain.CardType{domain.TypeTreasure}}
	estate  = testCard{"estate", 2, []domain.CardType{domain.TypeVictory}}
	cheap   = testCard{"cheap", 1, []domain.CardType{domain.TypeAction}}
	village = testCard{"village", 3, []domain.CardType{domain.TypeAction}}
	militia = testCard{"militia", 4, []domain.CardType{domain.TypeAction, domain.TypeAttack}}
	moat    = testCard{"moat", 2, []domain.CardType{domain.TypeAction, domain.TypeReaction}}
	chapel  = testCard{"chapel", 2, []domain.CardType{domain.TypeAction}}
	bomb    = testCard{"bomb", 0, []domain.CardType{domain.TypeAction}}
)

type moatBehavior struct{}

func (moatBehavior) Play(co *Co) Outcome {
	co.Draw(2)
	return OutcomeNone
}

func (moatBehavior) Reactions(zone domain.LocationKind) []ReactionTemplate {
	if zone != domain.Hand {
		return nil
	}
	return []ReactionTemplate{{
		Event: EventCardPlayed,
		Label: "Reveal Moat",
		When: func(m *domain.Match, r *Reaction, t Trigger) bool {
			c := m.Card(t.Card)
			return c != nil && c.HasType(domain.TypeAttack) && t.Player != r.Owner
		},
		Rule: func(co *Co) Outcome { return OutcomeImmunity },
	}}
}

func militiaRule(co *Co) Outcome {
	co.GainTreasure(2)
	for _, p := range co.Opponents() {
		if co.Immune(p) {
			continue
		}
		hand := co.Hand(p)
		if len(hand) <= 3 {
			continue
		}
		n := len(hand) - 3
		picked := co.Select(SelectCard{
			Player:      p,
			Prompt:      "Discard down to 3",
			Restriction: Restriction{Locations: []domain.LocationKey{domain.HandOf(p)}},
			Count:       n,
			Min:         n,
		})
		for _, id := range picked {
			co.Discard(id)
		}
	}
	return OutcomeNone
}

func testRules() Rules {
	return Rules{
		"copper": BehaviorFunc(func(co *Co) Outcome { co.GainTreasure(1); return OutcomeNone }),
		"silver": BehaviorFunc(func(co *Co) Outcome { co.GainTreasure(2); return OutcomeNone }),
		"village": BehaviorFunc(func(co *Co) Outcome {
			co.Draw(1)
			co.GainActions(2)
			return OutcomeNone
		}),
		"militia": BehaviorFunc(militiaRule),
		"moat":    moatBehavior{},
		"chapel": BehaviorFunc(func(co *Co) Outcome {
			picked := co.Select(SelectCard{
				Prompt:      "Trash up to 4 cards",
				Restriction: Restriction{Locations: []domain.LocationKey{domain.HandOf(co.Player)}},
				Count:       4,
			})
			for _, id := range picked {
				co.Trash(id)
			}
			return OutcomeNone
		}),
		"bomb": BehaviorFunc(func(co *Co) Outcome { panic("boom") }),
	}
}

type fixture struct {
	t       *testing.T
	m       *domain.Match
	e       *Engine
	rec     *recorder
	effects []Effect
}

func newFixture(t *testing.T, players ...string) *fixture {
	t.Helper()
	f := &fixture{t: t, m: domain.NewMatch("test", players), rec: newRecorder()}
	f.e = New(Config{
		Match:     f.m,
		Rules:     testRules(),
		Transport: f.rec,
		Rand:      rand.New(rand.NewSource(1)),
		Observer:  func(eff Effect) { f.effects = append(f.effects, eff) },
	})
	t.Cleanup(f.e.Close)
	return f
}

// noAutoAdvance keeps the phase controller from moving on by itself.
func (f *fixture) noAutoAdvance() {
	f.e.maxAutoAdvances = 0
}

// add creates a card at loc, registering zone reactions the way a move would.
func (f *fixture) add(tc testCard, loc domain.LocationKey) domain.CardID {
	c := f.m.Library.Create(domain.Card{Key: tc.key, Name: tc.key, Cost: tc.cost, Types: tc.types, Owner: loc.Player()})
	f.m.Insert(loc, c.ID, false)
	f.e.registerZoneReactions(c, loc)
	return c.ID
}

func (f *fixture) addN(tc testCard, loc domain.LocationKey, n int) []domain.CardID {
	ids := make([]domain.CardID, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, f.add(tc, loc))
	}
	return ids
}

func (f *fixture) count(k Kind) int {
	n := 0
	for _, eff := range f.effects {
		if eff.Kind() == k {
			n++
		}
	}
	return n
}

// requireExclusive asserts every library card sits in exactly one location.
func requireExclusive(t *testing.T, m *domain.Match) {
	t.Helper()
	seen := make(map[domain.CardID]domain.LocationKey)
	for key, ids := range m.Locations {
		for _, id := range ids {
			prev, dup := seen[id]
			require.Falsef(t, dup, "card %d in both %s and %s", id, prev, key)
			seen[id] = key
		}
	}
	require.Len(t, seen, m.Library.Len())
}
