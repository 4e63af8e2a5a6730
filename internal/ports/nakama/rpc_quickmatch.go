package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"dominion/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// gRPC status codes used by runtime errors.
const (
	codeInvalidArgument  = 3
	codeNotFound         = 5
	codePermissionDenied = 7
	codeInternal         = 13
)

var (
	errBadPayload       = runtime.NewError("invalid request payload", codeInvalidArgument)
	errSnapshotNotFound = runtime.NewError("snapshot not found", codeNotFound)
	errNotAPlayer       = runtime.NewError("not a player of this match", codePermissionDenied)
	errInternal         = runtime.NewError("internal server error", codeInternal)
)

// QuickMatchRequest optionally names the kingdom preset for a new match.
type QuickMatchRequest struct {
	Preset string `json:"preset,omitempty"`
}

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

type GetSnapshotRequest struct {
	MatchID string `json:"match_id"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcGetSnapshot, rpcGetSnapshot)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	request := QuickMatchRequest{}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			return "", errBadPayload
		}
	}

	// Find any match that is open and is our game.
	query := fmt.Sprintf("+label.%s:>=1 +label.game:%s +label.phase:lobby", MatchLabelKey_OpenSeats, MatchLabelGame)

	limit := 10
	authoritative := true

	minSize := 1
	maxSize := 3 // ensure < 4 players

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	if len(matches) > 0 {
		resp := QuickMatchResponse{MatchID: matches[0].MatchId, IsNew: false}
		b, _ := json.Marshal(resp)
		return string(b), nil
	}

	// Create new match; seat/owner assignment happens in MatchJoin (server-authoritative).
	params := map[string]interface{}{}
	if request.Preset != "" {
		params["preset"] = request.Preset
	}
	matchID, err := nk.MatchCreate(ctx, MatchNameDominion, params)
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}

	resp := QuickMatchResponse{MatchID: matchID, IsNew: true}
	b, _ := json.Marshal(resp)
	return string(b), nil
}

func rpcGetSnapshot(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	return getSnapshot(ctx, logger, NewNakamaSnapshotAdapter(nk), userID, payload)
}

func getSnapshot(ctx context.Context, logger runtime.Logger, snapshots ports.SnapshotPort, userID, payload string) (string, error) {
	request := GetSnapshotRequest{}
	if err := json.Unmarshal([]byte(payload), &request); err != nil || request.MatchID == "" {
		return "", errBadPayload
	}

	snap, err := snapshots.Load(ctx, request.MatchID)
	if errors.Is(err, ports.ErrSnapshotNotFound) {
		return "", errSnapshotNotFound
	}
	if err != nil {
		logger.Error("GetSnapshot [User:%s]: Failed to load %s: %v", userID, request.MatchID, err)
		return "", errInternal
	}
	if !slices.Contains(snap.Players, userID) {
		return "", errNotAPlayer
	}

	b, err := json.Marshal(snap)
	if err != nil {
		return "", errInternal
	}
	return string(b), nil
}
