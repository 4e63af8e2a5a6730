// Package engine resolves card rules against a match: rules yield effects,
// handlers apply them, reactions interrupt them and the phase controller
// moves the turn along.
package engine

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"dominion/internal/domain"
	"dominion/internal/logging"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/oklog/ulid/v2"
)

// DefaultMaxAutoAdvances caps the phases skipped automatically in response
// to one external action.
const DefaultMaxAutoAdvances = 24

// Config wires an Engine to its collaborators. Only Match is required.
type Config struct {
	Match     *domain.Match
	Rules     Rules
	Transport Transport
	Logger    runtime.Logger
	Scorer    Scorer
	Persister Persister
	Rand      *rand.Rand
	// Observer sees every effect before its handler runs.
	Observer        func(Effect)
	MaxAutoAdvances int
}

// Engine owns one match. It is driven from a single goroutine; a rule that
// waits for a player runs on its own goroutine and hands control back to the
// caller until the player responds.
type Engine struct {
	match     *domain.Match
	rules     Rules
	transport Transport
	logger    runtime.Logger
	scorer    Scorer
	persister Persister
	rng       *rand.Rand
	observe   func(Effect)

	handlers  [kindEnd]handler
	reactions *ReactionRegistry

	suspended       int
	autoAdvances    int
	maxAutoAdvances int

	busy    bool
	closed  bool
	pending *ChoiceRequest
	parkCh  chan struct{}
	wakeCh  chan Response
	doneCh  chan error
}

// New builds an engine for a match whose library is already populated.
func New(cfg Config) *Engine {
	e := &Engine{
		match:           cfg.Match,
		rules:           cfg.Rules,
		transport:       cfg.Transport,
		logger:          cfg.Logger,
		scorer:          cfg.Scorer,
		persister:       cfg.Persister,
		rng:             cfg.Rand,
		observe:         cfg.Observer,
		handlers:        defaultHandlers(),
		reactions:       NewReactionRegistry(),
		maxAutoAdvances: cfg.MaxAutoAdvances,
		parkCh:          make(chan struct{}),
		wakeCh:          make(chan Response),
	}
	if e.rules == nil {
		e.rules = Rules{}
	}
	if e.transport == nil {
		e.transport = nopTransport{}
	}
	if e.logger == nil {
		e.logger = logging.Nop()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.maxAutoAdvances <= 0 {
		e.maxAutoAdvances = DefaultMaxAutoAdvances
	}
	return e
}

func (e *Engine) Match() *domain.Match { return e.match }

func (e *Engine) Reactions() *ReactionRegistry { return e.reactions }

// Busy reports whether a run is suspended waiting for a player.
func (e *Engine) Busy() bool { return e.busy }

// Pending returns the outstanding choice request, if any.
func (e *Engine) Pending() (ChoiceRequest, bool) {
	if e.pending == nil {
		return ChoiceRequest{}, false
	}
	return *e.pending, true
}

// Start draws every player's opening hand and lets the phase controller
// settle the first turn.
func (e *Engine) Start() error {
	return e.submit(func() error {
		return e.SuspendCallback(func() error {
			for _, p := range e.match.Players {
				err := e.runRule(Origin{Player: p}, func(co *Co) Outcome {
					co.Draw(domain.HandSize)
					return OutcomeNone
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// PlayCard plays a card from the current player's hand.
func (e *Engine) PlayCard(player string, id domain.CardID) error {
	m := e.match
	if err := e.checkTurn(player); err != nil {
		return err
	}
	loc, _, ok := m.Locate(id)
	if !ok || loc != domain.HandOf(player) {
		return ErrCardNotInHand
	}
	card := m.Card(id)
	switch m.Phase() {
	case domain.PhaseAction:
		if !card.HasType(domain.TypeAction) {
			return fmt.Errorf("%w: %s is not an action", ErrWrongPhase, card.Key)
		}
		if m.PlayerActions <= 0 {
			return ErrNoActions
		}
	case domain.PhaseBuy:
		if !card.HasType(domain.TypeTreasure) {
			return fmt.Errorf("%w: %s is not a treasure", ErrWrongPhase, card.Key)
		}
	default:
		return ErrWrongPhase
	}
	return e.submit(func() error {
		return e.runEffect(Play{Origin: Origin{Player: player, Card: id}, Card: id})
	})
}

// BuyCard buys the top card of the pile that id belongs to.
func (e *Engine) BuyCard(player string, id domain.CardID) error {
	m := e.match
	if err := e.checkTurn(player); err != nil {
		return err
	}
	if m.Phase() != domain.PhaseBuy {
		return ErrWrongPhase
	}
	loc, _, ok := m.Locate(id)
	if !ok || (loc.Kind() != domain.Supply && loc.Kind() != domain.Kingdom) {
		return ErrNotInSupply
	}
	if m.PlayerBuys <= 0 {
		return ErrNoBuys
	}
	if EffectiveCost(m, player, id) > m.PlayerTreasure {
		return ErrCannotAfford
	}
	return e.submit(func() error {
		return e.runEffect(Buy{Origin: Origin{Player: player, Card: id}, Card: id})
	})
}

// AdvancePhase ends the current phase on the player's request.
func (e *Engine) AdvancePhase(player string) error {
	if err := e.checkTurn(player); err != nil {
		return err
	}
	return e.submit(e.advance)
}

// Respond answers the pending choice and returns once the run parks again
// or completes.
func (e *Engine) Respond(resp Response) error {
	if e.closed {
		return ErrClosed
	}
	if e.pending == nil {
		return ErrNoPendingChoice
	}
	if err := validateResponse(*e.pending, resp); err != nil {
		return err
	}
	e.pending = nil
	e.wakeCh <- resp
	return e.wait()
}

// Close abandons any suspended run. The engine rejects further input.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	if e.busy {
		close(e.wakeCh)
		<-e.doneCh
		e.busy = false
		e.pending = nil
	}
}

func (e *Engine) checkTurn(player string) error {
	if e.closed {
		return ErrClosed
	}
	if !e.match.HasPlayer(player) {
		return ErrUnknownPlayer
	}
	if e.busy {
		return ErrBusy
	}
	if e.match.CurrentPlayer() != player {
		return ErrNotYourTurn
	}
	return nil
}

// closedSignal unwinds a run goroutine when the engine is closed while the
// run waits for input.
type closedSignal struct{}

// submit runs fn on a fresh goroutine and blocks until it completes or parks
// waiting for a player.
func (e *Engine) submit(fn func() error) error {
	if e.closed {
		return ErrClosed
	}
	if e.busy {
		return ErrBusy
	}
	e.busy = true
	e.autoAdvances = 0
	e.doneCh = make(chan error, 1)
	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(closedSignal); ok {
					err = ErrClosed
				} else {
					err = fmt.Errorf("%w: %v", ErrRulePanic, r)
				}
			}
			e.doneCh <- err
		}()
		err = fn()
	}()
	return e.wait()
}

func (e *Engine) wait() error {
	select {
	case <-e.parkCh:
		return nil
	case err := <-e.doneCh:
		e.busy = false
		e.pending = nil
		return err
	}
}

// await publishes a choice request and blocks the run goroutine until the
// player answers. Called only from handlers.
func (e *Engine) await(req ChoiceRequest) Response {
	req.ID = ulid.Make().String()
	e.pending = &req
	e.transport.RequestChoice(req)
	e.parkCh <- struct{}{}
	resp, ok := <-e.wakeCh
	if !ok {
		panic(closedSignal{})
	}
	return resp
}

func validateResponse(req ChoiceRequest, resp Response) error {
	if resp.RequestID != req.ID || resp.Player != req.Player {
		return ErrUnexpectedResponse
	}
	switch req.Kind {
	case ChoiceSelectCard:
		if len(resp.Cards) < req.Min || len(resp.Cards) > req.Max {
			return fmt.Errorf("%w: picked %d cards, want %d..%d", ErrIllegalChoice, len(resp.Cards), req.Min, req.Max)
		}
		seen := make(map[domain.CardID]bool, len(resp.Cards))
		for _, id := range resp.Cards {
			if seen[id] || !slices.Contains(req.Cards, id) {
				return fmt.Errorf("%w: card %d", ErrIllegalChoice, id)
			}
			seen[id] = true
		}
	case ChoicePrompt:
		if !slices.ContainsFunc(req.Options, func(o Option) bool { return o.ID == resp.Choice }) {
			return fmt.Errorf("%w: option %q", ErrIllegalChoice, resp.Choice)
		}
	}
	return nil
}
