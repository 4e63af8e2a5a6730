package engine

import "dominion/internal/domain"

// LogEntry describes one applied effect for the game log.
type LogEntry struct {
	Kind    Kind               `json:"-"`
	Action  string             `json:"action"`
	Player  string             `json:"player,omitempty"`
	Card    domain.CardID      `json:"card,omitempty"`
	CardKey string             `json:"card_key,omitempty"`
	From    domain.LocationKey `json:"from,omitempty"`
	To      domain.LocationKey `json:"to,omitempty"`
	Amount  int                `json:"amount,omitempty"`
	Text    string             `json:"text,omitempty"`
}

// ChoiceKind distinguishes card selections from option prompts.
type ChoiceKind string

const (
	ChoiceSelectCard ChoiceKind = "select_card"
	ChoicePrompt     ChoiceKind = "prompt"
)

// ChoiceRequest is delivered to exactly one player; the run that produced it
// stays suspended until a matching Response arrives.
type ChoiceRequest struct {
	ID      string          `json:"id"`
	Kind    ChoiceKind      `json:"kind"`
	Player  string          `json:"player"`
	Prompt  string          `json:"prompt"`
	Cards   []domain.CardID `json:"cards,omitempty"`
	Min     int             `json:"min"`
	Max     int             `json:"max"`
	Options []Option        `json:"options,omitempty"`
	Source  Origin          `json:"-"`
}

// Response answers a ChoiceRequest.
type Response struct {
	RequestID string
	Player    string
	Cards     []domain.CardID
	Choice    string
}

// Transport carries engine output to the participants.
type Transport interface {
	Log(entry LogEntry)
	BroadcastDelta(delta Delta)
	Selectable(player string, cards []domain.CardID)
	RequestChoice(req ChoiceRequest)
}

// Persister stores the match after every flush.
type Persister interface {
	Persist(m *domain.Match)
}

// Scorer computes a player's victory points.
type Scorer interface {
	Score(m *domain.Match, player string) int
}

type nopTransport struct{}

func (nopTransport) Log(LogEntry)                       {}
func (nopTransport) BroadcastDelta(Delta)               {}
func (nopTransport) Selectable(string, []domain.CardID) {}
func (nopTransport) RequestChoice(ChoiceRequest)        {}
