package engine

import (
	"fmt"
	"slices"

	"dominion/internal/domain"

	"github.com/oklog/ulid/v2"
)

func defaultHandlers() [kindEnd]handler {
	return [kindEnd]handler{
		KindMove:               handleMove,
		KindDraw:               handleDraw,
		KindDiscard:            handleDiscard,
		KindGain:               handleGain,
		KindTrash:              handleTrash,
		KindPlay:               handlePlay,
		KindBuy:                handleBuy,
		KindGainAction:         handleGainAction,
		KindGainBuy:            handleGainBuy,
		KindGainTreasure:       handleGainTreasure,
		KindShuffle:            handleShuffle,
		KindSelectCard:         handleSelectCard,
		KindUserPrompt:         handleUserPrompt,
		KindRegisterReaction:   handleRegisterReaction,
		KindUnregisterReaction: handleUnregisterReaction,
		KindApplyOverride:      handleApplyOverride,
		KindRemoveOverride:     handleRemoveOverride,
		KindTrigger:            handleTrigger,
		KindSetPhase:           handleSetPhase,
		KindNextTurn:           handleNextTurn,
	}
}

func handlePlay(e *Engine, eff Effect, acc Delta) (Result, error) {
	p := eff.(Play)
	m := e.match
	card := m.Card(p.Card)
	if card == nil {
		e.logger.Warn("Play: unknown card %d", p.Card)
		return Result{}, nil
	}
	player := p.Origin.Player

	playArea := domain.KeyOf(domain.Play, "")
	if loc, _, ok := m.Locate(p.Card); !ok || loc != playArea {
		if !e.moveCard(p.Card, playArea, false, p.Origin, acc) {
			return Result{}, nil
		}
	}
	if !p.Free && card.HasType(domain.TypeAction) && m.Phase() == domain.PhaseAction {
		m.PlayerActions--
		acc.counters(m)
	}
	e.log(LogEntry{Kind: KindPlay, Player: player, Card: p.Card})

	rctx, err := e.resolve(Trigger{Origin: p.Origin, Event: EventCardPlayed, Player: player, Card: p.Card}, acc)
	if err != nil {
		return Result{}, err
	}

	b, ok := e.rules.Lookup(card.Key)
	if !ok {
		e.logger.Warn("Play: no behavior registered for %s", card.Key)
		return Result{Context: rctx}, nil
	}
	co := &Co{Match: m, Player: player, Card: p.Card, Reactions: rctx}
	if _, err := e.run(start(b.Play, co), acc); err != nil {
		return Result{}, fmt.Errorf("play %s: %w", card.Key, err)
	}
	return Result{Cards: []domain.CardID{p.Card}, Context: rctx}, nil
}

func handleBuy(e *Engine, eff Effect, acc Delta) (Result, error) {
	b := eff.(Buy)
	m := e.match
	player := b.Origin.Player
	card := m.Card(b.Card)
	if card == nil {
		return Result{}, ErrNotInSupply
	}
	if m.PlayerBuys <= 0 {
		return Result{}, ErrNoBuys
	}
	top, ok := m.PileTop(card.Key)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrPileEmpty, card.Key)
	}
	cost := EffectiveCost(m, player, top)
	if cost > m.PlayerTreasure {
		return Result{}, ErrCannotAfford
	}

	m.PlayerBuys--
	m.PlayerTreasure -= cost
	acc.counters(m)
	e.log(LogEntry{Kind: KindBuy, Player: player, Card: top, Amount: cost})

	return e.apply(Gain{Origin: b.Origin, Player: player, Card: top}, acc)
}

func handleGainAction(e *Engine, eff Effect, acc Delta) (Result, error) {
	g := eff.(GainAction)
	e.match.PlayerActions += g.N
	acc.counters(e.match)
	e.log(LogEntry{Kind: KindGainAction, Player: g.Origin.Player, Card: g.Origin.Card, Amount: g.N})
	return Result{}, nil
}

func handleGainBuy(e *Engine, eff Effect, acc Delta) (Result, error) {
	g := eff.(GainBuy)
	e.match.PlayerBuys += g.N
	acc.counters(e.match)
	e.log(LogEntry{Kind: KindGainBuy, Player: g.Origin.Player, Card: g.Origin.Card, Amount: g.N})
	return Result{}, nil
}

func handleGainTreasure(e *Engine, eff Effect, acc Delta) (Result, error) {
	g := eff.(GainTreasure)
	e.match.PlayerTreasure += g.N
	acc.counters(e.match)
	e.log(LogEntry{Kind: KindGainTreasure, Player: g.Origin.Player, Card: g.Origin.Card, Amount: g.N})
	return Result{}, nil
}

// legalChoices lists the cards a player may pick under the restriction.
func (e *Engine) legalChoices(player string, r Restriction) []domain.CardID {
	m := e.match
	filter := r.Filter
	if !filter.All && len(filter.Keys) == 0 && len(filter.Types) == 0 {
		filter = domain.AnyCard
	}
	seen := make(map[string]bool)
	var out []domain.CardID
	for _, loc := range r.Locations {
		for _, id := range m.Cards(loc) {
			c := m.Card(id)
			if !filter.Matches(c) || slices.Contains(r.Exclude, id) {
				continue
			}
			if r.MaxCost != nil && EffectiveCost(m, player, id) > *r.MaxCost {
				continue
			}
			if r.Distinct {
				if seen[c.Key] {
					continue
				}
				seen[c.Key] = true
			}
			out = append(out, id)
		}
	}
	return out
}

func handleSelectCard(e *Engine, eff Effect, acc Delta) (Result, error) {
	s := eff.(SelectCard)
	player := s.Player
	if player == "" {
		player = s.Origin.Player
	}
	count := max(s.Count, s.Min)
	legal := e.legalChoices(player, s.Restriction)

	// A player who must take every legal card has nothing to decide.
	if len(legal) <= s.Min || count == 0 {
		picked := legal[:min(len(legal), count)]
		e.logger.Debug("SelectCard: auto-selected %d card(s) for %s", len(picked), player)
		return Result{Cards: slices.Clone(picked)}, nil
	}

	resp := e.await(ChoiceRequest{
		Kind:   ChoiceSelectCard,
		Player: player,
		Prompt: s.Prompt,
		Cards:  legal,
		Min:    s.Min,
		Max:    count,
		Source: s.Origin,
	})
	return Result{Cards: resp.Cards}, nil
}

func handleUserPrompt(e *Engine, eff Effect, acc Delta) (Result, error) {
	p := eff.(UserPrompt)
	player := p.Player
	if player == "" {
		player = p.Origin.Player
	}
	switch len(p.Options) {
	case 0:
		return Result{}, nil
	case 1:
		return Result{Choice: p.Options[0].ID}, nil
	}

	resp := e.await(ChoiceRequest{
		Kind:    ChoicePrompt,
		Player:  player,
		Prompt:  p.Prompt,
		Options: slices.Clone(p.Options),
		Min:     1,
		Max:     1,
		Source:  p.Origin,
	})
	return Result{Choice: resp.Choice}, nil
}

func handleRegisterReaction(e *Engine, eff Effect, acc Delta) (Result, error) {
	r := eff.(RegisterReaction)
	owner := r.Owner
	if owner == "" {
		owner = r.Origin.Player
	}
	cardKey := ""
	if c := e.match.Card(r.Origin.Card); c != nil {
		cardKey = c.Key
	}
	stored := e.reactions.Register(Reaction{
		ReactionTemplate: r.Template,
		Owner:            owner,
		Card:             r.Origin.Card,
		CardKey:          cardKey,
	})
	return Result{Choice: stored.ID}, nil
}

func handleUnregisterReaction(e *Engine, eff Effect, acc Delta) (Result, error) {
	u := eff.(UnregisterReaction)
	if !e.reactions.Unregister(u.ID) {
		e.logger.Debug("UnregisterReaction: %s already gone", u.ID)
	}
	return Result{}, nil
}

func handleApplyOverride(e *Engine, eff Effect, acc Delta) (Result, error) {
	a := eff.(ApplyOverride)
	m := e.match
	o := a.Override
	if o.ID == "" {
		o.ID = ulid.Make().String()
	}
	if o.Owner == "" {
		o.Owner = a.Origin.Player
	}
	if len(o.Targets) == 0 {
		o.Targets = slices.Clone(m.Players)
	}
	if o.Amount == 0 {
		o.Amount = 1
	}
	o.Expiry = domain.ExpiryTurnEnd

	m.Overrides = append(slices.Clone(m.Overrides), o)
	acc.overrides(m)

	id := o.ID
	e.reactions.Register(Reaction{
		ReactionTemplate: ReactionTemplate{
			Event:     EventTurnEnd,
			Once:      true,
			Mandatory: true,
			Label:     "Cost reduction expires",
			Rule: func(co *Co) Outcome {
				co.Do(RemoveOverride{Origin: Origin{Player: co.Player}, ID: id})
				return OutcomeNone
			},
		},
		Owner:   o.Owner,
		Card:    a.Origin.Card,
		CardKey: "override:" + id,
	})
	e.log(LogEntry{Kind: KindApplyOverride, Player: o.Owner, Card: a.Origin.Card, Amount: o.Amount})
	return Result{Choice: id}, nil
}

func handleRemoveOverride(e *Engine, eff Effect, acc Delta) (Result, error) {
	r := eff.(RemoveOverride)
	m := e.match
	next := slices.DeleteFunc(slices.Clone(m.Overrides), func(o domain.CostOverride) bool { return o.ID == r.ID })
	if len(next) == len(m.Overrides) {
		return Result{}, nil
	}
	m.Overrides = next
	acc.overrides(m)
	e.log(LogEntry{Kind: KindRemoveOverride, Player: r.Origin.Player})
	return Result{}, nil
}

func handleTrigger(e *Engine, eff Effect, acc Delta) (Result, error) {
	t := eff.(Trigger)
	rctx, err := e.resolve(t, acc)
	return Result{Context: rctx}, err
}

func handleSetPhase(e *Engine, eff Effect, acc Delta) (Result, error) {
	s := eff.(SetPhase)
	m := e.match
	idx := slices.Index(domain.TurnPhases, s.Phase)
	if idx < 0 {
		return Result{}, fmt.Errorf("%w: unknown phase %q", ErrWrongPhase, s.Phase)
	}
	m.TurnPhaseIndex = idx
	acc.turn(m)
	e.log(LogEntry{Kind: KindSetPhase, Player: m.CurrentPlayer(), Text: string(s.Phase)})
	return Result{}, nil
}

func handleNextTurn(e *Engine, eff Effect, acc Delta) (Result, error) {
	m := e.match
	m.CurrentPlayerTurnIndex = (m.CurrentPlayerTurnIndex + 1) % len(m.Players)
	if m.CurrentPlayerTurnIndex == 0 {
		m.TurnNumber++
	}
	m.TurnPhaseIndex = 0
	m.PlayerActions = domain.StartingActions
	m.PlayerBuys = domain.StartingBuys
	m.PlayerTreasure = 0
	acc.turn(m)
	acc.counters(m)
	e.log(LogEntry{Kind: KindNextTurn, Player: m.CurrentPlayer(), Amount: m.TurnNumber})
	return Result{}, nil
}
