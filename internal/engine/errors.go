package engine

import "errors"

var (
	ErrNotYourTurn        = errors.New("not your turn")
	ErrWrongPhase         = errors.New("action not allowed in this phase")
	ErrCardNotInHand      = errors.New("card not in hand")
	ErrNotInSupply        = errors.New("card not in supply or kingdom")
	ErrNoActions          = errors.New("no actions remaining")
	ErrNoBuys             = errors.New("no buys remaining")
	ErrCannotAfford       = errors.New("not enough treasure")
	ErrPileEmpty          = errors.New("pile is empty")
	ErrUnknownPlayer      = errors.New("player not in match")
	ErrBusy               = errors.New("a choice is still pending")
	ErrNoPendingChoice    = errors.New("no choice is pending")
	ErrUnexpectedResponse = errors.New("response does not match the pending choice")
	ErrIllegalChoice      = errors.New("illegal choice")
	ErrClosed             = errors.New("engine closed")
	ErrRulePanic          = errors.New("rule panicked")
)
