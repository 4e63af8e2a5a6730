package domain

// Snapshot is the persisted form of a match.
type Snapshot struct {
	MatchID        string                   `json:"match_id"`
	Players        []string                 `json:"players"`
	CurrentPlayer  string                   `json:"current_player"`
	Phase          Phase                    `json:"phase"`
	TurnNumber     int                      `json:"turn_number"`
	PlayerActions  int                      `json:"player_actions"`
	PlayerBuys     int                      `json:"player_buys"`
	PlayerTreasure int                      `json:"player_treasure"`
	Locations      map[LocationKey][]CardID `json:"locations"`
	Cards          []Card                   `json:"cards"`
	Overrides      []CostOverride           `json:"overrides,omitempty"`
	Scores         map[string]int           `json:"scores,omitempty"`
}

// TakeSnapshot copies the match into a value detached from further mutation.
func TakeSnapshot(m *Match) Snapshot {
	s := Snapshot{
		MatchID:        m.ID,
		Players:        append([]string(nil), m.Players...),
		CurrentPlayer:  m.CurrentPlayer(),
		Phase:          m.Phase(),
		TurnNumber:     m.TurnNumber,
		PlayerActions:  m.PlayerActions,
		PlayerBuys:     m.PlayerBuys,
		PlayerTreasure: m.PlayerTreasure,
		Locations:      make(map[LocationKey][]CardID, len(m.Locations)),
		Overrides:      append([]CostOverride(nil), m.Overrides...),
	}
	for k, ids := range m.Locations {
		s.Locations[k] = append([]CardID{}, ids...)
	}
	for _, id := range m.Library.IDs() {
		c := m.Card(id)
		cp := *c
		cp.Types = append([]CardType(nil), c.Types...)
		s.Cards = append(s.Cards, cp)
	}
	return s
}
