package engine

import "dominion/internal/domain"

// Behavior is what a card does when played.
type Behavior interface {
	Play(co *Co) Outcome
}

// BehaviorFunc adapts a Rule to Behavior.
type BehaviorFunc Rule

func (f BehaviorFunc) Play(co *Co) Outcome { return f(co) }

// Reactor is implemented by behaviors that install reactions while the card
// sits in a given zone. Reactions are removed when the card leaves the zone.
type Reactor interface {
	Reactions(zone domain.LocationKind) []ReactionTemplate
}

// Rules maps catalog keys to behaviors.
type Rules map[string]Behavior

// Lookup returns the behavior for a catalog key.
func (r Rules) Lookup(key string) (Behavior, bool) {
	b, ok := r[key]
	return b, ok && b != nil
}
