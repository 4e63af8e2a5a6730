package bot

import (
	"dominion/internal/domain"
	"dominion/internal/engine"
)

// MoveKind is the action a bot takes on its turn.
type MoveKind int

const (
	MoveWait MoveKind = iota
	MovePlay
	MoveBuy
	MoveAdvance
)

// Move represents the decision made by the AI.
type Move struct {
	Kind MoveKind
	Card domain.CardID
}

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	NextMove(m *domain.Match, player string) Move
	Choose(m *domain.Match, req engine.ChoiceRequest) engine.Response
}
