package ports

import (
	"context"
	"errors"

	"dominion/internal/domain"
)

// ErrSnapshotNotFound is returned when no snapshot is stored for a match.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotPort persists match state after each settled action.
type SnapshotPort interface {
	// Save stores the latest snapshot for the match, replacing any previous one.
	Save(ctx context.Context, snap domain.Snapshot) error

	// Load returns the latest snapshot for the match.
	Load(ctx context.Context, matchID string) (domain.Snapshot, error)
}
