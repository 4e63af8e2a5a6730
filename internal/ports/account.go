package ports

import "context"

// AccountPort defines the interface for provisioning and updating accounts.
type AccountPort interface {
	// EnsureDevice returns the account bound to a device id, creating it with
	// the requested username when it does not exist yet.
	EnsureDevice(ctx context.Context, deviceID, username string) (userID, actualUsername string, err error)

	// UpdateProfile updates account profile fields for the given user.
	// Metadata replaces the stored account metadata when non-nil.
	UpdateProfile(ctx context.Context, userID, username, displayName string, metadata map[string]any) error
}
