package app

import (
	"dominion/internal/domain"
	"dominion/internal/engine"
	"dominion/internal/scoring"
)

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventGameStarted     EventKind = "game_started"
	EventLog             EventKind = "log"
	EventMatchUpdated    EventKind = "match_updated"
	EventSelectable      EventKind = "selectable"
	EventChoiceRequested EventKind = "choice_requested"
	EventGameEnded       EventKind = "game_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type GameStartedPayload struct {
	MatchID  string
	Players  []string
	Kingdom  []string
	Snapshot domain.Snapshot
}

type LogPayload struct {
	Entry engine.LogEntry
}

// MatchUpdatedPayload carries the fields that changed during one settled action.
type MatchUpdatedPayload struct {
	Delta engine.Delta
}

type SelectablePayload struct {
	UserID string
	Cards  []domain.CardID
}

type ChoiceRequestedPayload struct {
	Request engine.ChoiceRequest
}

type GameEndedPayload struct {
	Standings []scoring.Standing
}
