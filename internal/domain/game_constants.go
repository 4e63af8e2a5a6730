package domain

// TurnPhases is the fixed order of phases within a turn.
var TurnPhases = []Phase{PhaseAction, PhaseBuy, PhaseCleanup}

const (
	HandSize        = 5
	StartingActions = 1
	StartingBuys    = 1

	MinPlayers = 2
	MaxPlayers = 4

	// ProvinceKey is the pile whose exhaustion ends the game on its own.
	ProvinceKey     = "province"
	EmptyPilesToEnd = 3
)
