package engine

import (
	"fmt"

	"dominion/internal/domain"
)

// Kind tags an effect. The set is closed: every kind has exactly one handler.
type Kind int

const (
	KindMove Kind = iota + 1
	KindDraw
	KindDiscard
	KindGain
	KindTrash
	KindPlay
	KindBuy
	KindGainAction
	KindGainBuy
	KindGainTreasure
	KindShuffle
	KindSelectCard
	KindUserPrompt
	KindRegisterReaction
	KindUnregisterReaction
	KindApplyOverride
	KindRemoveOverride
	KindTrigger
	KindSetPhase
	KindNextTurn
	kindEnd
)

var kindNames = [kindEnd]string{
	KindMove:               "move",
	KindDraw:               "draw",
	KindDiscard:            "discard",
	KindGain:               "gain",
	KindTrash:              "trash",
	KindPlay:               "play",
	KindBuy:                "buy",
	KindGainAction:         "gain_action",
	KindGainBuy:            "gain_buy",
	KindGainTreasure:       "gain_treasure",
	KindShuffle:            "shuffle",
	KindSelectCard:         "select_card",
	KindUserPrompt:         "user_prompt",
	KindRegisterReaction:   "register_reaction",
	KindUnregisterReaction: "unregister_reaction",
	KindApplyOverride:      "apply_override",
	KindRemoveOverride:     "remove_override",
	KindTrigger:            "trigger",
	KindSetPhase:           "set_phase",
	KindNextTurn:           "next_turn",
}

func (k Kind) String() string {
	if k > 0 && k < kindEnd {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Origin records which player and card caused an effect.
type Origin struct {
	Player string
	Card   domain.CardID
}

func (o Origin) Source() Origin { return o }

// Effect is one requested mutation of the match.
type Effect interface {
	Kind() Kind
	Source() Origin
}

// Result is handed back to the coroutine that yielded the effect.
type Result struct {
	Cards   []domain.CardID
	Choice  string
	Context ReactionContext
}

// Move relocates one card. Top places it at index 0 of the destination.
type Move struct {
	Origin
	Card domain.CardID
	To   domain.LocationKey
	Top  bool
}

// Draw moves cards from the top of a deck to the hand, reshuffling the
// discard pile once the deck runs out.
type Draw struct {
	Origin
	Player string
	Count  int
}

type Discard struct {
	Origin
	Card domain.CardID
}

// Gain takes Card, or the top card of the Key pile when Card is zero, into
// the player's To location (discard by default).
type Gain struct {
	Origin
	Player string
	Key    string
	Card   domain.CardID
	To     domain.LocationKind
	Top    bool
}

type Trash struct {
	Origin
	Card domain.CardID
}

// Play puts a card into play and runs its behavior. Free plays do not spend
// an action.
type Play struct {
	Origin
	Card domain.CardID
	Free bool
}

// Buy spends a buy and the card's effective cost, then gains from its pile.
type Buy struct {
	Origin
	Card domain.CardID
}

type GainAction struct {
	Origin
	N int
}

type GainBuy struct {
	Origin
	N int
}

type GainTreasure struct {
	Origin
	N int
}

// Shuffle turns the player's discard pile into a fresh deck under the
// remaining deck.
type Shuffle struct {
	Origin
	Player string
}

// Restriction describes which cards a selection may pick.
type Restriction struct {
	Locations []domain.LocationKey
	Filter    domain.CardFilter
	MaxCost   *int
	// Distinct keeps only the first card of each catalog key.
	Distinct bool
	Exclude  []domain.CardID
}

// CostAtMost returns a pointer usable as Restriction.MaxCost.
func CostAtMost(n int) *int { return &n }

// SelectCard asks Player to pick between Min and Count legal cards. When no
// more than Min cards are legal they are taken without asking; an "up to
// Count" choice with more legal cards than Min always asks.
type SelectCard struct {
	Origin
	Player      string
	Prompt      string
	Restriction Restriction
	Count       int
	Min         int
}

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// UserPrompt asks Player to pick one option.
type UserPrompt struct {
	Origin
	Player  string
	Prompt  string
	Options []Option
}

// RegisterReaction installs a reaction owned by Owner.
type RegisterReaction struct {
	Origin
	Owner    string
	Template ReactionTemplate
}

type UnregisterReaction struct {
	Origin
	ID string
}

type ApplyOverride struct {
	Origin
	Override domain.CostOverride
}

type RemoveOverride struct {
	Origin
	ID string
}

// Trigger resolves reactions listening for Event.
type Trigger struct {
	Origin
	Event  Event
	Player string
	Card   domain.CardID
}

type SetPhase struct {
	Origin
	Phase domain.Phase
}

// NextTurn passes the turn to the next player and resets the counters.
type NextTurn struct {
	Origin
}

func (Move) Kind() Kind               { return KindMove }
func (Draw) Kind() Kind               { return KindDraw }
func (Discard) Kind() Kind            { return KindDiscard }
func (Gain) Kind() Kind               { return KindGain }
func (Trash) Kind() Kind              { return KindTrash }
func (Play) Kind() Kind               { return KindPlay }
func (Buy) Kind() Kind                { return KindBuy }
func (GainAction) Kind() Kind         { return KindGainAction }
func (GainBuy) Kind() Kind            { return KindGainBuy }
func (GainTreasure) Kind() Kind       { return KindGainTreasure }
func (Shuffle) Kind() Kind            { return KindShuffle }
func (SelectCard) Kind() Kind         { return KindSelectCard }
func (UserPrompt) Kind() Kind         { return KindUserPrompt }
func (RegisterReaction) Kind() Kind   { return KindRegisterReaction }
func (UnregisterReaction) Kind() Kind { return KindUnregisterReaction }
func (ApplyOverride) Kind() Kind      { return KindApplyOverride }
func (RemoveOverride) Kind() Kind     { return KindRemoveOverride }
func (Trigger) Kind() Kind            { return KindTrigger }
func (SetPhase) Kind() Kind           { return KindSetPhase }
func (NextTurn) Kind() Kind           { return KindNextTurn }
