package domain

// TurnOrder returns the players starting at index start and wrapping around.
func TurnOrder(players []string, start int) []string {
	n := len(players)
	if n == 0 {
		return nil
	}
	start = ((start % n) + n) % n
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, players[(start+i)%n])
	}
	return out
}

// Opponents returns every other player in turn order after player.
func Opponents(players []string, player string) []string {
	for i, p := range players {
		if p == player {
			return TurnOrder(players, i)[1:]
		}
	}
	return nil
}

// CostOverride lowers the cost of matching cards for its target players
// until it expires.
type CostOverride struct {
	ID      string     `json:"id"`
	Owner   string     `json:"owner"`
	Targets []string   `json:"targets"`
	Filter  CardFilter `json:"filter"`
	Amount  int        `json:"amount"`
	Expiry  string     `json:"expiry"`
}

// ExpiryTurnEnd is the only expiry currently produced.
const ExpiryTurnEnd = "turn_end"
