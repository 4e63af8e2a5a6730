package engine

import (
	"slices"

	"dominion/internal/domain"
)

// advance moves the turn to its next phase.
func (e *Engine) advance() error {
	m := e.match
	origin := Origin{Player: m.CurrentPlayer()}
	switch m.Phase() {
	case domain.PhaseAction:
		return e.runEffect(SetPhase{Origin: origin, Phase: domain.PhaseBuy})
	case domain.PhaseBuy:
		return e.SuspendCallback(func() error {
			if err := e.runRule(origin, cleanup); err != nil {
				return err
			}
			return e.advance()
		})
	default:
		return e.runEffect(NextTurn{Origin: origin})
	}
}

// cleanup discards the play area and hand, draws a new hand and ends the
// turn for reactions.
func cleanup(co *Co) Outcome {
	m := co.Match
	co.Do(SetPhase{Origin: co.origin(), Phase: domain.PhaseCleanup})
	for _, id := range slices.Clone(m.Cards(domain.KeyOf(domain.Play, ""))) {
		co.Discard(id)
	}
	for _, id := range co.Hand(co.Player) {
		co.Discard(id)
	}
	co.Draw(domain.HandSize)
	co.Do(Trigger{Origin: co.origin(), Event: EventTurnEnd, Player: co.Player})
	return OutcomeNone
}

// stuck reports whether the current phase has no legal move left.
func (e *Engine) stuck() bool {
	m := e.match
	hand := domain.HandOf(m.CurrentPlayer())
	switch m.Phase() {
	case domain.PhaseAction:
		return m.PlayerActions <= 0 || m.Count(hand, domain.OfType(domain.TypeAction)) == 0
	case domain.PhaseBuy:
		return m.PlayerBuys <= 0 || (m.Count(hand, domain.OfType(domain.TypeTreasure)) == 0 && m.PlayerTreasure == 0)
	}
	return false
}

// recheck advances the phase automatically when the current player has
// nothing left to do in it. Failures are logged and the phase stays put.
func (e *Engine) recheck() {
	if !e.stuck() {
		return
	}
	if e.autoAdvances >= e.maxAutoAdvances {
		e.logger.Warn("PhaseController: stopped after %d automatic advances (turn %d, player %s)", e.autoAdvances, e.match.TurnNumber, e.match.CurrentPlayer())
		return
	}
	e.autoAdvances++
	from := e.match.Phase()
	if err := e.advance(); err != nil {
		e.logger.Error("PhaseController: automatic advance from %s failed: %v", from, err)
	}
}
