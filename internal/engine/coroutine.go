package engine

import (
	"fmt"
	"iter"
	"slices"

	"dominion/internal/domain"
)

// Outcome is the value a rule returns when it finishes. Reactions use it to
// tell the triggering card how the owner responded.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeImmunity Outcome = "immunity"
)

// ReactionContext maps a player to the outcome of the reaction they used.
type ReactionContext map[string]Outcome

// Has reports whether the player's reaction produced the outcome.
func (rc ReactionContext) Has(player string, outcome Outcome) bool {
	return rc != nil && rc[player] == outcome
}

// Rule is the body of a card or reaction. It yields effects through co and
// may only touch the match through them.
type Rule func(co *Co) Outcome

// Co is the handle a rule uses to yield effects and read the match.
type Co struct {
	Match     *domain.Match
	Player    string
	Card      domain.CardID
	Reactions ReactionContext
	// Trigger is set for reaction bodies.
	Trigger  *Trigger
	Reaction *Reaction

	yield  func(Effect) bool
	resume Result
}

// stopped unwinds a rule whose coroutine was abandoned.
type stopped struct{}

// Do yields the effect and returns what its handler produced.
func (co *Co) Do(e Effect) Result {
	if !co.yield(e) {
		panic(stopped{})
	}
	return co.resume
}

func (co *Co) origin() Origin {
	return Origin{Player: co.Player, Card: co.Card}
}

func (co *Co) Draw(n int) []domain.CardID {
	return co.Do(Draw{Origin: co.origin(), Player: co.Player, Count: n}).Cards
}

// DrawFor draws for a player other than the rule's owner.
func (co *Co) DrawFor(player string, n int) []domain.CardID {
	return co.Do(Draw{Origin: co.origin(), Player: player, Count: n}).Cards
}

func (co *Co) GainActions(n int)  { co.Do(GainAction{Origin: co.origin(), N: n}) }
func (co *Co) GainBuys(n int)     { co.Do(GainBuy{Origin: co.origin(), N: n}) }
func (co *Co) GainTreasure(n int) { co.Do(GainTreasure{Origin: co.origin(), N: n}) }

func (co *Co) Discard(id domain.CardID) { co.Do(Discard{Origin: co.origin(), Card: id}) }
func (co *Co) Trash(id domain.CardID)   { co.Do(Trash{Origin: co.origin(), Card: id}) }

// Gain gains the top card of a pile for a player. It returns 0 when the pile
// is empty.
func (co *Co) Gain(player, key string) domain.CardID {
	res := co.Do(Gain{Origin: co.origin(), Player: player, Key: key})
	if len(res.Cards) == 0 {
		return 0
	}
	return res.Cards[0]
}

// GainCard gains a specific card instance.
func (co *Co) GainCard(player string, id domain.CardID) {
	co.Do(Gain{Origin: co.origin(), Player: player, Card: id})
}

// PlayFree plays a card without spending an action.
func (co *Co) PlayFree(id domain.CardID) {
	co.Do(Play{Origin: co.origin(), Card: id, Free: true})
}

// Select yields a SelectCard, defaulting the chooser to the rule's owner.
func (co *Co) Select(sel SelectCard) []domain.CardID {
	sel.Origin = co.origin()
	if sel.Player == "" {
		sel.Player = co.Player
	}
	return co.Do(sel).Cards
}

// Prompt asks a player to choose among options and returns the option id.
func (co *Co) Prompt(player, prompt string, options ...Option) string {
	return co.Do(UserPrompt{Origin: co.origin(), Player: player, Prompt: prompt, Options: options}).Choice
}

// Hand returns a copy of the player's hand.
func (co *Co) Hand(player string) []domain.CardID {
	return slices.Clone(co.Match.Cards(domain.HandOf(player)))
}

// Opponents lists the other players in turn order.
func (co *Co) Opponents() []string {
	return domain.Opponents(co.Match.Players, co.Player)
}

// Immune reports whether a reaction made the player immune to this card.
func (co *Co) Immune(player string) bool {
	return co.Reactions.Has(player, OutcomeImmunity)
}

// Cost returns the card's cost for the rule's owner after overrides.
func (co *Co) Cost(id domain.CardID) int {
	return EffectiveCost(co.Match, co.Player, id)
}

// coroutine drives one run of a rule. It cannot be restarted.
type coroutine struct {
	co      *Co
	next    func() (Effect, bool)
	stop    func()
	outcome Outcome
	err     error
}

func start(rule Rule, co *Co) *coroutine {
	c := &coroutine{co: co}
	seq := func(yield func(Effect) bool) {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(stopped); ok {
					return
				}
				c.err = fmt.Errorf("%w: %v", ErrRulePanic, r)
			}
		}()
		co.yield = yield
		c.outcome = rule(co)
	}
	c.next, c.stop = iter.Pull(seq)
	return c
}

// resume hands r to the suspended rule and returns its next effect.
func (c *coroutine) resume(r Result) (Effect, bool) {
	c.co.resume = r
	return c.next()
}
