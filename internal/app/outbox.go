package app

import (
	"slices"

	"dominion/internal/domain"
	"dominion/internal/engine"
)

// outbox collects engine output as app events until the service drains it.
type outbox struct {
	events []Event
	dirty  bool
}

func (o *outbox) Log(entry engine.LogEntry) {
	o.events = append(o.events, Event{Kind: EventLog, Payload: LogPayload{Entry: entry}})
}

func (o *outbox) BroadcastDelta(delta engine.Delta) {
	o.events = append(o.events, Event{Kind: EventMatchUpdated, Payload: MatchUpdatedPayload{Delta: delta}})
}

func (o *outbox) Selectable(player string, cards []domain.CardID) {
	o.events = append(o.events, Event{
		Kind:       EventSelectable,
		Payload:    SelectablePayload{UserID: player, Cards: slices.Clone(cards)},
		Recipients: []string{player},
	})
}

func (o *outbox) RequestChoice(req engine.ChoiceRequest) {
	o.events = append(o.events, Event{
		Kind:       EventChoiceRequested,
		Payload:    ChoiceRequestedPayload{Request: req},
		Recipients: []string{req.Player},
	})
}

func (o *outbox) Persist(*domain.Match) {
	o.dirty = true
}

func (o *outbox) drain() []Event {
	out := o.events
	o.events = nil
	return out
}
