package bot

import (
	"fmt"
)

const (
	StrategyBigMoney       = "big_money"
	StrategySmithyBigMoney = "smithy_big_money"
)

// NewBrain creates a new AI brain for the named strategy.
func NewBrain(strategy string) (Brain, error) {
	switch strategy {
	case StrategyBigMoney, "":
		return NewBigMoney(DefaultTuning), nil
	case StrategySmithyBigMoney:
		return NewSmithyBigMoney(DefaultTuning), nil
	default:
		return nil, fmt.Errorf("unknown bot strategy: %q", strategy)
	}
}

// NewAgent builds the agent for a bot user, using the strategy from its
// identity when one is configured.
func NewAgent(userID string) (*Agent, error) {
	identity, _ := GetBotConfig(userID)
	brain, err := NewBrain(identity.Strategy)
	if err != nil {
		return nil, err
	}
	name := GetBotDisplayName(userID)
	if name == "" {
		name = userID
	}
	return &Agent{ID: userID, Name: name, Strategy: brain}, nil
}
