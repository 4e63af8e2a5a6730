package engine

import (
	"slices"

	"dominion/internal/domain"

	"github.com/oklog/ulid/v2"
)

// Event is something reactions can listen for.
type Event string

const (
	EventCardPlayed Event = "card_played"
	EventCardGained Event = "card_gained"
	EventTurnEnd    Event = "turn_end"
)

// ReactionTemplate is the card-defined part of a reaction.
type ReactionTemplate struct {
	Event Event
	// When narrows the trigger. Nil accepts every trigger of Event.
	When        func(m *domain.Match, r *Reaction, t Trigger) bool
	Once        bool
	MultipleUse bool
	Mandatory   bool
	Label       string
	Rule        Rule
}

// Reaction is a registered conditional interrupt.
type Reaction struct {
	ReactionTemplate
	ID      string
	Owner   string
	Card    domain.CardID
	CardKey string
	// Zone is the location kind the reaction is bound to, empty when the
	// reaction was installed by an effect.
	Zone domain.LocationKind
}

// SourceKey identifies reactions that must be offered as a single option.
func (r *Reaction) SourceKey() string {
	return r.Owner + "|" + r.CardKey + "|" + string(r.Event)
}

// ReactionRegistry holds every live reaction of a match in registration order.
type ReactionRegistry struct {
	byID  map[string]*Reaction
	order []string
}

func NewReactionRegistry() *ReactionRegistry {
	return &ReactionRegistry{byID: make(map[string]*Reaction)}
}

// Register stores a reaction, assigning an id when it has none.
func (rr *ReactionRegistry) Register(r Reaction) *Reaction {
	if r.ID == "" {
		r.ID = ulid.Make().String()
	}
	stored := &r
	if _, exists := rr.byID[r.ID]; !exists {
		rr.order = append(rr.order, r.ID)
	}
	rr.byID[r.ID] = stored
	return stored
}

// Unregister removes a reaction. It reports whether it existed.
func (rr *ReactionRegistry) Unregister(id string) bool {
	if _, ok := rr.byID[id]; !ok {
		return false
	}
	delete(rr.byID, id)
	rr.order = slices.DeleteFunc(rr.order, func(o string) bool { return o == id })
	return true
}

// UnregisterCard removes the reactions a card holds while in zone.
func (rr *ReactionRegistry) UnregisterCard(card domain.CardID, zone domain.LocationKind) int {
	removed := 0
	for _, id := range slices.Clone(rr.order) {
		r := rr.byID[id]
		if r.Card == card && r.Zone != "" && r.Zone == zone {
			rr.Unregister(id)
			removed++
		}
	}
	return removed
}

func (rr *ReactionRegistry) Get(id string) (*Reaction, bool) {
	r, ok := rr.byID[id]
	return r, ok
}

func (rr *ReactionRegistry) Len() int {
	return len(rr.order)
}

// Listening reports whether any reaction waits for the event.
func (rr *ReactionRegistry) Listening(ev Event) bool {
	for _, id := range rr.order {
		if rr.byID[id].Event == ev {
			return true
		}
	}
	return false
}

// Match returns the reactions eligible for the trigger, keeping the first
// registered reaction of each source key. skip excludes reactions before
// deduplication.
func (rr *ReactionRegistry) Match(m *domain.Match, t Trigger, skip func(*Reaction) bool) []*Reaction {
	seen := make(map[string]bool)
	var out []*Reaction
	for _, id := range rr.order {
		r := rr.byID[id]
		if r.Event != t.Event {
			continue
		}
		if skip != nil && skip(r) {
			continue
		}
		if r.When != nil && !r.When(m, r, t) {
			continue
		}
		key := r.SourceKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
