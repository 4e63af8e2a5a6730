package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// RpcGetSnapshot returns the last persisted snapshot of a match.
	RpcGetSnapshot = "get_snapshot"

	// MatchNameDominion is the authoritative match handler name registered with Nakama.
	MatchNameDominion = "dominion_match"

	// MatchLabelGame is the label.game value used by quick match queries.
	MatchLabelGame = "dominion"

	// SnapshotCollection is the storage collection holding match snapshots.
	SnapshotCollection = "dominion_snapshots"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame        int64 = 1
	OpPlayCard         int64 = 2
	OpBuyCard          int64 = 3
	OpAdvancePhase     int64 = 4
	OpRespondSelection int64 = 5
	OpRespondPrompt    int64 = 6

	// Server -> Client events
	OpMatchState      int64 = 101
	OpGameStarted     int64 = 102
	OpLog             int64 = 103
	OpMatchUpdated    int64 = 104
	OpSelectable      int64 = 105 // send privately
	OpChoiceRequested int64 = 106 // send privately
	OpGameEnded       int64 = 107
	OpGameError       int64 = 108
)

// Error codes carried by GameError events.
const (
	ErrCodeBadRequest = 400
	ErrCodeForbidden  = 403
	ErrCodeConflict   = 409
)
