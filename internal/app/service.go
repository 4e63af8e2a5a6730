package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"dominion/internal/cards"
	"dominion/internal/catalog"
	"dominion/internal/config"
	"dominion/internal/domain"
	"dominion/internal/engine"
	"dominion/internal/logging"
	"dominion/internal/ports"
	"dominion/internal/scoring"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Service contains Dominion use-cases operating on domain state.
type Service struct {
	catalog   *catalog.Catalog
	rules     engine.Rules
	scorer    *scoring.Table
	rng       *rand.Rand
	logger    runtime.Logger
	snapshots ports.SnapshotPort
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(cat *catalog.Catalog, rng *rand.Rand, logger runtime.Logger) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		catalog: cat,
		rules:   cards.Rules(cat),
		scorer:  scoring.NewTable(),
		rng:     rng,
		logger:  logger,
	}
}

// WithSnapshots persists every settled action through the port.
func (s *Service) WithSnapshots(p ports.SnapshotPort) *Service {
	s.snapshots = p
	return s
}

// Catalog returns the card catalog games are built from.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

var (
	ErrTooFewPlayers  = errors.New("not enough players to start")
	ErrTooManyPlayers = errors.New("too many players to start")
	ErrNotPlaying     = errors.New("match not in playing phase")
)

// Game is one running match and the engine that owns it.
type Game struct {
	Match     *domain.Match
	Engine    *engine.Engine
	Kingdom   []string
	Ended     bool
	Standings []scoring.Standing

	out *outbox
}

// Pending returns the choice the game is waiting on, if any.
func (g *Game) Pending() (engine.ChoiceRequest, bool) {
	return g.Engine.Pending()
}

// Close abandons any suspended rule.
func (g *Game) Close() {
	g.Engine.Close()
}

// KingdomFor resolves a preset name, falling back to the configured default.
func (s *Service) KingdomFor(preset string) ([]string, error) {
	if preset == "" {
		preset = config.GetDefaultKingdom()
	}
	return s.catalog.Preset(preset)
}

// StartGame lays out a new match for the occupied seats and deals opening hands.
// Seats are given in seat order; empty strings are skipped. An empty kingdom
// uses the default preset.
func (s *Service) StartGame(ctx context.Context, matchID string, seats []string, kingdom []string) (*Game, []Event, error) {
	game, err := s.newGame(matchID, seats, kingdom)
	if err != nil {
		return nil, nil, err
	}
	events, err := s.begin(ctx, game)
	if err != nil {
		game.Close()
		return nil, nil, err
	}
	return game, events, nil
}

func (s *Service) newGame(matchID string, seats []string, kingdom []string) (*Game, error) {
	var players []string
	for _, userID := range seats {
		if userID != "" {
			players = append(players, userID)
		}
	}
	lo, hi := config.GetPlayerLimits()
	lo = max(lo, MinPlayersToStartGame)
	if len(players) < lo {
		return nil, ErrTooFewPlayers
	}
	if len(players) > hi {
		return nil, ErrTooManyPlayers
	}

	if len(kingdom) == 0 {
		var err error
		if kingdom, err = s.KingdomFor(""); err != nil {
			return nil, err
		}
	}

	m := domain.NewMatch(matchID, players)
	if err := s.catalog.Setup(m, kingdom, s.rng); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	out := &outbox{}
	e := engine.New(engine.Config{
		Match:           m,
		Rules:           s.rules,
		Transport:       out,
		Logger:          s.logger.WithField("match_id", matchID),
		Scorer:          s.scorer,
		Persister:       out,
		Rand:            s.rng,
		MaxAutoAdvances: config.GetMaxAutoAdvances(),
	})
	return &Game{Match: m, Engine: e, Kingdom: slices.Clone(kingdom), out: out}, nil
}

func (s *Service) begin(ctx context.Context, g *Game) ([]Event, error) {
	events := []Event{{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			MatchID:  g.Match.ID,
			Players:  slices.Clone(g.Match.Players),
			Kingdom:  slices.Clone(g.Kingdom),
			Snapshot: domain.TakeSnapshot(g.Match),
		},
	}}
	err := g.Engine.Start()
	events = append(events, g.out.drain()...)
	s.persist(ctx, g)
	return events, err
}

// PlayCard plays a card from the actor's hand.
func (s *Service) PlayCard(ctx context.Context, g *Game, actor string, card domain.CardID) ([]Event, error) {
	return s.act(ctx, g, func() error { return g.Engine.PlayCard(actor, card) })
}

// BuyCard buys from the pile the card belongs to.
func (s *Service) BuyCard(ctx context.Context, g *Game, actor string, card domain.CardID) ([]Event, error) {
	return s.act(ctx, g, func() error { return g.Engine.BuyCard(actor, card) })
}

// AdvancePhase ends the actor's current phase.
func (s *Service) AdvancePhase(ctx context.Context, g *Game, actor string) ([]Event, error) {
	return s.act(ctx, g, func() error { return g.Engine.AdvancePhase(actor) })
}

// RespondSelection answers a pending card selection.
func (s *Service) RespondSelection(ctx context.Context, g *Game, actor, requestID string, picked []domain.CardID) ([]Event, error) {
	return s.act(ctx, g, func() error {
		return g.Engine.Respond(engine.Response{RequestID: requestID, Player: actor, Cards: picked})
	})
}

// RespondPrompt answers a pending option prompt.
func (s *Service) RespondPrompt(ctx context.Context, g *Game, actor, requestID, choice string) ([]Event, error) {
	return s.act(ctx, g, func() error {
		return g.Engine.Respond(engine.Response{RequestID: requestID, Player: actor, Choice: choice})
	})
}

// act runs one player input and returns everything it produced. Events
// emitted before a failing rule are returned along with the error.
func (s *Service) act(ctx context.Context, g *Game, fn func() error) ([]Event, error) {
	if g == nil || g.Ended {
		return nil, ErrNotPlaying
	}
	turn, seat := g.Match.TurnNumber, g.Match.CurrentPlayerTurnIndex

	err := fn()
	events := g.out.drain()
	s.persist(ctx, g)
	if err != nil {
		return events, err
	}

	if ended, ok := s.checkEnd(g, turn, seat); ok {
		events = append(events, ended)
	}
	return events, nil
}

// checkEnd finishes the game once a turn closes with the end condition met.
func (s *Service) checkEnd(g *Game, turn, seat int) (Event, bool) {
	m := g.Match
	if g.Engine.Busy() || !m.GameOver() {
		return Event{}, false
	}
	if m.TurnNumber == turn && m.CurrentPlayerTurnIndex == seat {
		return Event{}, false
	}

	g.Ended = true
	g.Standings = s.scorer.Rank(m)
	g.Engine.Close()
	s.logger.Info("Service: match %s ended on turn %d", m.ID, m.TurnNumber)
	return Event{Kind: EventGameEnded, Payload: GameEndedPayload{Standings: g.Standings}}, true
}

func (s *Service) persist(ctx context.Context, g *Game) {
	if !g.out.dirty || s.snapshots == nil {
		return
	}
	g.out.dirty = false

	snap := domain.TakeSnapshot(g.Match)
	snap.Scores = make(map[string]int, len(g.Match.Players))
	for _, p := range g.Match.Players {
		snap.Scores[p] = s.scorer.Score(g.Match, p)
	}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		s.logger.Error("Service: failed to save snapshot for %s: %v", g.Match.ID, err)
	}
}
