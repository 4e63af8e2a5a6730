package engine

import (
	"slices"

	"dominion/internal/domain"
)

// moveCard relocates a card, keeping zone-bound reactions in step. A card
// that is not in any location is reported and left alone.
func (e *Engine) moveCard(id domain.CardID, to domain.LocationKey, top bool, origin Origin, acc Delta) bool {
	m := e.match
	from, idx, ok := m.Locate(id)
	if !ok {
		e.logger.Warn("Move: card %d not found in any location", id)
		return false
	}
	if _, exists := m.Locations[to]; !exists {
		e.logger.Warn("Move: unknown destination %s for card %d", to, id)
		return false
	}

	m.RemoveAt(from, idx)
	e.reactions.UnregisterCard(id, from.Kind())
	m.Insert(to, id, top)

	card := m.Card(id)
	if owner := to.Player(); owner != "" && card != nil {
		card.Owner = owner
	}
	e.registerZoneReactions(card, to)

	acc.location(m, from)
	acc.location(m, to)
	e.log(LogEntry{Kind: KindMove, Player: origin.Player, Card: id, From: from, To: to})
	return true
}

func (e *Engine) registerZoneReactions(card *domain.Card, to domain.LocationKey) {
	if card == nil {
		return
	}
	b, ok := e.rules.Lookup(card.Key)
	if !ok {
		return
	}
	reactor, ok := b.(Reactor)
	if !ok {
		return
	}
	owner := to.Player()
	if owner == "" {
		owner = card.Owner
	}
	for _, tmpl := range reactor.Reactions(to.Kind()) {
		e.reactions.Register(Reaction{
			ReactionTemplate: tmpl,
			Owner:            owner,
			Card:             card.ID,
			CardKey:          card.Key,
			Zone:             to.Kind(),
		})
	}
}

func handleMove(e *Engine, eff Effect, acc Delta) (Result, error) {
	mv := eff.(Move)
	if !e.moveCard(mv.Card, mv.To, mv.Top, mv.Origin, acc) {
		return Result{}, nil
	}
	return Result{Cards: []domain.CardID{mv.Card}}, nil
}

func handleDraw(e *Engine, eff Effect, acc Delta) (Result, error) {
	d := eff.(Draw)
	m := e.match
	player := d.Player
	if player == "" {
		player = d.Origin.Player
	}
	deck := domain.DeckOf(player)

	var drawn []domain.CardID
	for i := 0; i < d.Count; i++ {
		if len(m.Cards(deck)) == 0 {
			if len(m.Cards(domain.DiscardOf(player))) == 0 {
				break
			}
			e.shuffle(player, d.Origin, acc)
		}
		id := m.Cards(deck)[0]
		if !e.moveCard(id, domain.HandOf(player), false, d.Origin, acc) {
			break
		}
		drawn = append(drawn, id)
	}
	e.log(LogEntry{Kind: KindDraw, Player: player, Amount: len(drawn)})
	return Result{Cards: drawn}, nil
}

func handleShuffle(e *Engine, eff Effect, acc Delta) (Result, error) {
	s := eff.(Shuffle)
	player := s.Player
	if player == "" {
		player = s.Origin.Player
	}
	e.shuffle(player, s.Origin, acc)
	return Result{}, nil
}

// shuffle puts the discard pile under the deck in random order.
func (e *Engine) shuffle(player string, origin Origin, acc Delta) {
	m := e.match
	discard := domain.DiscardOf(player)
	deck := domain.DeckOf(player)

	cards := slices.Clone(m.Cards(discard))
	e.rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	for _, id := range cards {
		e.moveCard(id, deck, false, origin, acc)
	}
	e.log(LogEntry{Kind: KindShuffle, Player: player, Amount: len(cards)})
}

func handleDiscard(e *Engine, eff Effect, acc Delta) (Result, error) {
	d := eff.(Discard)
	owner := e.ownerOf(d.Card)
	if owner == "" {
		e.logger.Warn("Discard: card %d has no owner", d.Card)
		return Result{}, nil
	}
	if !e.moveCard(d.Card, domain.DiscardOf(owner), false, d.Origin, acc) {
		return Result{}, nil
	}
	return Result{Cards: []domain.CardID{d.Card}}, nil
}

func handleTrash(e *Engine, eff Effect, acc Delta) (Result, error) {
	t := eff.(Trash)
	if !e.moveCard(t.Card, domain.KeyOf(domain.Trash, ""), false, t.Origin, acc) {
		return Result{}, nil
	}
	return Result{Cards: []domain.CardID{t.Card}}, nil
}

func handleGain(e *Engine, eff Effect, acc Delta) (Result, error) {
	g := eff.(Gain)
	m := e.match
	player := g.Player
	if player == "" {
		player = g.Origin.Player
	}
	id := g.Card
	if id == 0 {
		var ok bool
		if id, ok = m.PileTop(g.Key); !ok {
			e.logger.Info("Gain: %s pile is empty", g.Key)
			return Result{}, nil
		}
	}
	to := g.To
	if to == "" {
		to = domain.Discard
	}
	if !e.moveCard(id, domain.KeyOf(to, player), g.Top, g.Origin, acc) {
		return Result{}, nil
	}
	e.log(LogEntry{Kind: KindGain, Player: player, Card: id})

	rctx, err := e.resolve(Trigger{Origin: g.Origin, Event: EventCardGained, Player: player, Card: id}, acc)
	return Result{Cards: []domain.CardID{id}, Context: rctx}, err
}

// ownerOf returns the player owning the card's current location, falling
// back to the card's owner for shared locations.
func (e *Engine) ownerOf(id domain.CardID) string {
	if loc, _, ok := e.match.Locate(id); ok {
		if p := loc.Player(); p != "" {
			return p
		}
	}
	if c := e.match.Card(id); c != nil {
		return c.Owner
	}
	return ""
}
