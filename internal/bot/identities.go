package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"dominion/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Strategy    string `json:"strategy"` // "big_money", "smithy_big_money"
	AvatarIndex int    `json:"avatar_index"`
}

var (
	mu            sync.RWMutex
	botIdentities []BotIdentity
	botConfigMap  map[string]BotIdentity
	loadOnce      sync.Once
	provisionOnce sync.Once
	loadErr       error
)

// LoadIdentities loads the bot profiles from the given path.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}
		var identities []BotIdentity
		if err := json.Unmarshal(data, &identities); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}
		SetIdentities(identities)
	})
	return loadErr
}

// SetIdentities replaces the bot pool. Identities without a user id are
// kept for provisioning but are not recognized as bots until provisioned.
func SetIdentities(identities []BotIdentity) {
	mu.Lock()
	defer mu.Unlock()
	botIdentities = append([]BotIdentity(nil), identities...)
	botConfigMap = make(map[string]BotIdentity)
	for _, identity := range botIdentities {
		if identity.UserID != "" {
			botConfigMap[identity.UserID] = identity
		}
	}
}

// ProvisionBots ensures that bot accounts exist and carry the is_bot metadata.
func ProvisionBots(ctx context.Context, accounts ports.AccountPort, logger runtime.Logger) {
	provisionOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		for i := range botIdentities {
			identity := &botIdentities[i]
			if identity.DeviceID == "" {
				continue
			}

			userID, username, err := accounts.EnsureDevice(ctx, identity.DeviceID, identity.Username)
			if err != nil {
				logger.Error("ProvisionBots: Failed to authenticate bot %s: %v", identity.Username, err)
				continue
			}
			identity.UserID = userID
			identity.Username = username

			metadata := map[string]any{
				"is_bot":       true,
				"strategy":     identity.Strategy,
				"avatar_index": identity.AvatarIndex,
			}
			if err := accounts.UpdateProfile(ctx, userID, identity.Username, identity.DisplayName, metadata); err != nil {
				logger.Warn("ProvisionBots: Failed to update bot account %s: %v", userID, err)
			}

			botConfigMap[userID] = *identity
			logger.Info("ProvisionBots: Bot %s (%s) is ready. Strategy: %s", identity.DisplayName, userID, identity.Strategy)
		}
	})
}

// GetBotConfig returns the full identity configuration for a given bot ID.
func GetBotConfig(userID string) (BotIdentity, bool) {
	mu.RLock()
	defer mu.RUnlock()
	config, ok := botConfigMap[userID]
	return config, ok
}

// GetBotUsername returns the username for a bot ID, or an empty string if not a bot.
func GetBotUsername(userID string) string {
	identity, _ := GetBotConfig(userID)
	return identity.Username
}

// GetBotDisplayName returns the display name for a bot ID, or an empty string if not a bot.
func GetBotDisplayName(userID string) string {
	identity, ok := GetBotConfig(userID)
	if !ok {
		return ""
	}
	if identity.DisplayName == "" {
		return identity.Username
	}
	return identity.DisplayName
}

// GetBotIdentity returns an identity for a bot by index (mod pool size). With
// no pool configured it makes up a local identity and registers it.
func GetBotIdentity(index int) BotIdentity {
	mu.Lock()
	defer mu.Unlock()
	var provisioned []BotIdentity
	for _, identity := range botIdentities {
		if identity.UserID != "" {
			provisioned = append(provisioned, identity)
		}
	}
	if len(provisioned) > 0 {
		return provisioned[index%len(provisioned)]
	}

	identity := BotIdentity{
		UserID:      fmt.Sprintf("bot-%d", index),
		Username:    fmt.Sprintf("bot_%d", index),
		DisplayName: fmt.Sprintf("AI Player %d", index),
		Strategy:    StrategyBigMoney,
	}
	if botConfigMap == nil {
		botConfigMap = make(map[string]BotIdentity)
	}
	botConfigMap[identity.UserID] = identity
	return identity
}

// IsBot reports whether the given user ID belongs to the bot pool.
func IsBot(userID string) bool {
	_, ok := GetBotConfig(userID)
	return ok
}
