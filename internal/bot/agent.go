package bot

import (
	"fmt"

	"dominion/internal/domain"
	"dominion/internal/engine"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// Play asks the agent for its next move in the match.
func (a *Agent) Play(m *domain.Match) (Move, error) {
	if !m.HasPlayer(a.ID) {
		return Move{Kind: MoveWait}, fmt.Errorf("bot %s is not seated in match %s", a.ID, m.ID)
	}
	return a.Strategy.NextMove(m, a.ID), nil
}

// Choose answers a choice request addressed to the agent.
func (a *Agent) Choose(m *domain.Match, req engine.ChoiceRequest) (engine.Response, error) {
	if req.Player != a.ID {
		return engine.Response{}, fmt.Errorf("choice %s is for %s, not bot %s", req.ID, req.Player, a.ID)
	}
	return a.Strategy.Choose(m, req), nil
}
