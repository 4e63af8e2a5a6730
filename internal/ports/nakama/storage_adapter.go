package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"dominion/internal/domain"
	"dominion/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// storage is the subset of runtime.NakamaModule the snapshot adapter needs.
type storage interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// NakamaSnapshotAdapter persists match snapshots as system-owned storage
// objects keyed by match id. Clients read them through the get_snapshot RPC.
type NakamaSnapshotAdapter struct {
	nk storage
}

func NewNakamaSnapshotAdapter(nk storage) *NakamaSnapshotAdapter {
	return &NakamaSnapshotAdapter{nk: nk}
}

func (a *NakamaSnapshotAdapter) Save(ctx context.Context, snap domain.Snapshot) error {
	value, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = a.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      SnapshotCollection,
		Key:             snap.MatchID,
		Value:           string(value),
		PermissionRead:  0,
		PermissionWrite: 0,
	}})
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.MatchID, err)
	}
	return nil
}

func (a *NakamaSnapshotAdapter) Load(ctx context.Context, matchID string) (domain.Snapshot, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: SnapshotCollection,
		Key:        matchID,
	}})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read snapshot %s: %w", matchID, err)
	}
	if len(objects) == 0 {
		return domain.Snapshot{}, ports.ErrSnapshotNotFound
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal snapshot %s: %w", matchID, err)
	}
	return snap, nil
}

var _ ports.SnapshotPort = (*NakamaSnapshotAdapter)(nil)
