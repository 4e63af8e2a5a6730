package engine

import (
	"slices"

	"dominion/internal/domain"
)

// Delta keys besides location keys.
const (
	KeyPlayerActions  = "playerActions"
	KeyPlayerBuys     = "playerBuys"
	KeyPlayerTreasure = "playerTreasure"
	KeyPhaseIndex     = "turnPhaseIndex"
	KeyPlayerIndex    = "currentPlayerTurnIndex"
	KeyTurnNumber     = "turnNumber"
	KeyOverrides      = "overrides"
	KeyScores         = "scores"
)

// Delta accumulates the final value of every match key a run touched.
type Delta map[string]any

func (d Delta) location(m *domain.Match, key domain.LocationKey) {
	d[string(key)] = slices.Clone(m.Cards(key))
}

func (d Delta) counters(m *domain.Match) {
	d[KeyPlayerActions] = m.PlayerActions
	d[KeyPlayerBuys] = m.PlayerBuys
	d[KeyPlayerTreasure] = m.PlayerTreasure
}

func (d Delta) turn(m *domain.Match) {
	d[KeyPhaseIndex] = m.TurnPhaseIndex
	d[KeyPlayerIndex] = m.CurrentPlayerTurnIndex
	d[KeyTurnNumber] = m.TurnNumber
}

func (d Delta) overrides(m *domain.Match) {
	d[KeyOverrides] = slices.Clone(m.Overrides)
}

type handler func(e *Engine, eff Effect, acc Delta) (Result, error)

// runRule runs a rule at top level on behalf of origin.
func (e *Engine) runRule(origin Origin, rule Rule) error {
	co := &Co{Match: e.match, Player: origin.Player, Card: origin.Card}
	_, err := e.run(start(rule, co), nil)
	return err
}

// runEffect runs a single effect at top level.
func (e *Engine) runEffect(eff Effect) error {
	return e.runRule(eff.Source(), func(co *Co) Outcome {
		co.Do(eff)
		return OutcomeNone
	})
}

// run drives a coroutine to completion. With a nil accumulator the run is
// top level and flushes once at the end; nested runs share the caller's
// accumulator and never flush.
func (e *Engine) run(c *coroutine, acc Delta) (Outcome, error) {
	defer c.stop()
	top := acc == nil
	if top {
		acc = Delta{}
	}

	var res Result
	for {
		eff, ok := c.resume(res)
		if !ok {
			break
		}
		var err error
		res, err = e.apply(eff, acc)
		if err != nil {
			return OutcomeNone, err
		}
	}
	if c.err != nil {
		return OutcomeNone, c.err
	}

	if top && len(acc) > 0 {
		e.flush(acc)
	}
	return c.outcome, nil
}

// apply dispatches one effect to its handler. Unknown kinds are skipped.
func (e *Engine) apply(eff Effect, acc Delta) (Result, error) {
	if e.observe != nil {
		e.observe(eff)
	}
	k := eff.Kind()
	if k <= 0 || k >= kindEnd || e.handlers[k] == nil {
		e.logger.Warn("Pipeline: no handler for effect %v, skipping", k)
		return Result{}, nil
	}
	return e.handlers[k](e, eff, acc)
}

// flush publishes a finished top-level run.
func (e *Engine) flush(acc Delta) {
	m := e.match
	if e.scorer != nil {
		scores := make(map[string]int, len(m.Players))
		for _, p := range m.Players {
			scores[p] = e.scorer.Score(m, p)
		}
		acc[KeyScores] = scores
	}
	e.transport.BroadcastDelta(acc)
	if e.persister != nil {
		e.persister.Persist(m)
	}
	e.sendSelectable()
	if e.suspended == 0 {
		e.recheck()
	}
}

// SuspendCallback runs fn with the post-flush phase re-check deferred. The
// re-check fires once when the outermost scope exits. A scope left by a
// panic is still closed but skips the re-check.
func (e *Engine) SuspendCallback(fn func() error) error {
	e.suspended++
	finished := false
	defer func() {
		e.suspended--
		if finished && e.suspended == 0 {
			e.recheck()
		}
	}()
	err := fn()
	finished = true
	return err
}

func (e *Engine) log(entry LogEntry) {
	if entry.Action == "" {
		entry.Action = entry.Kind.String()
	}
	if entry.Card != 0 && entry.CardKey == "" {
		if c := e.match.Card(entry.Card); c != nil {
			entry.CardKey = c.Key
		}
	}
	e.transport.Log(entry)
}
