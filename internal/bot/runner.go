package bot

import (
	"context"
	"errors"
	"fmt"

	"dominion/internal/app"
	"dominion/internal/engine"
)

// DefaultMaxSteps bounds RunGame when the caller gives no limit.
const DefaultMaxSteps = 20000

var ErrGameStalled = errors.New("game did not finish within the step limit")

// RunGame drives a game in which every seat is played by an agent until it
// ends. Each batch of events is handed to observe when it is not nil.
func RunGame(ctx context.Context, svc *app.Service, g *app.Game, agents map[string]*Agent, maxSteps int, observe func([]app.Event)) error {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	for step := 0; !g.Ended; step++ {
		if step >= maxSteps {
			return fmt.Errorf("%w: turn %d", ErrGameStalled, g.Match.TurnNumber)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		events, err := runStep(ctx, svc, g, agents)
		if observe != nil && len(events) > 0 {
			observe(events)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func runStep(ctx context.Context, svc *app.Service, g *app.Game, agents map[string]*Agent) ([]app.Event, error) {
	if req, ok := g.Pending(); ok {
		agent, ok := agents[req.Player]
		if !ok {
			return nil, fmt.Errorf("no agent for %s", req.Player)
		}
		resp, err := agent.Choose(g.Match, req)
		if err != nil {
			return nil, err
		}
		if req.Kind == engine.ChoicePrompt {
			return svc.RespondPrompt(ctx, g, req.Player, req.ID, resp.Choice)
		}
		return svc.RespondSelection(ctx, g, req.Player, req.ID, resp.Cards)
	}

	current := g.Match.CurrentPlayer()
	agent, ok := agents[current]
	if !ok {
		return nil, fmt.Errorf("no agent for %s", current)
	}
	move, err := agent.Play(g.Match)
	if err != nil {
		return nil, err
	}
	switch move.Kind {
	case MovePlay:
		return svc.PlayCard(ctx, g, current, move.Card)
	case MoveBuy:
		return svc.BuyCard(ctx, g, current, move.Card)
	default:
		return svc.AdvancePhase(ctx, g, current)
	}
}
