package nakama

import (
	"context"

	"dominion/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaAccountAdapter implements ports.AccountPort using Nakama's account API.
type NakamaAccountAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaAccountAdapter creates a new account adapter.
func NewNakamaAccountAdapter(nk runtime.NakamaModule) *NakamaAccountAdapter {
	return &NakamaAccountAdapter{nk: nk}
}

// EnsureDevice authenticates the device, creating the account on first use.
func (a *NakamaAccountAdapter) EnsureDevice(ctx context.Context, deviceID, username string) (string, string, error) {
	userID, actual, _, err := a.nk.AuthenticateDevice(ctx, deviceID, username, true)
	return userID, actual, err
}

// UpdateProfile updates the account username, display name and metadata in Nakama.
func (a *NakamaAccountAdapter) UpdateProfile(ctx context.Context, userID, username, displayName string, metadata map[string]any) error {
	return a.nk.AccountUpdateId(ctx, userID, username, metadata, displayName, "", "", "", "")
}

var _ ports.AccountPort = (*NakamaAccountAdapter)(nil)
