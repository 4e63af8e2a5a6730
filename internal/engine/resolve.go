package engine

import (
	"fmt"

	"dominion/internal/domain"
)

// OptionDecline is the prompt option for not reacting.
const OptionDecline = "decline"

// resolve offers the trigger to every player's reactions, in turn order from
// the current player. Each player may use any number of distinct reactions;
// a reaction runs at most once per trigger and, unless it allows multiple
// use, blocks its whole source afterwards.
func (e *Engine) resolve(t Trigger, acc Delta) (ReactionContext, error) {
	rctx := ReactionContext{}
	if !e.reactions.Listening(t.Event) {
		return rctx, nil
	}
	m := e.match

	for _, player := range domain.TurnOrder(m.Players, m.CurrentPlayerTurnIndex) {
		used := make(map[string]bool)
		blocked := make(map[string]bool)
		for {
			eligible := e.reactions.Match(m, t, func(r *Reaction) bool {
				return r.Owner != player || used[r.ID] || blocked[r.SourceKey()]
			})
			if len(eligible) == 0 {
				break
			}

			chosen := firstMandatory(eligible)
			if chosen == nil {
				options := make([]Option, 0, len(eligible)+1)
				for _, r := range eligible {
					options = append(options, Option{ID: r.ID, Label: r.Label})
				}
				options = append(options, Option{ID: OptionDecline, Label: "Do nothing"})

				res, err := e.apply(UserPrompt{
					Origin:  t.Origin,
					Player:  player,
					Prompt:  fmt.Sprintf("React to %s?", t.Event),
					Options: options,
				}, acc)
				if err != nil {
					return rctx, err
				}
				if res.Choice == OptionDecline {
					break
				}
				for _, r := range eligible {
					if r.ID == res.Choice {
						chosen = r
						break
					}
				}
				if chosen == nil {
					e.logger.Warn("Resolve: reaction %s vanished before it ran", res.Choice)
					break
				}
			}

			used[chosen.ID] = true
			co := &Co{Match: m, Player: chosen.Owner, Card: chosen.Card, Trigger: &t, Reaction: chosen}
			outcome, err := e.run(start(chosen.Rule, co), acc)
			if err != nil {
				return rctx, fmt.Errorf("reaction %s: %w", chosen.Label, err)
			}
			if outcome != OutcomeNone {
				rctx[player] = outcome
			}
			e.log(LogEntry{Kind: KindTrigger, Player: player, Card: chosen.Card, Text: chosen.Label})

			if chosen.Once {
				e.reactions.Unregister(chosen.ID)
			}
			if !chosen.MultipleUse {
				blocked[chosen.SourceKey()] = true
			}
		}
	}
	return rctx, nil
}

func firstMandatory(rs []*Reaction) *Reaction {
	for _, r := range rs {
		if r.Mandatory {
			return r
		}
	}
	return nil
}
