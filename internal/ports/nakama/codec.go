package nakama

import (
	"encoding/json"
	"fmt"

	"dominion/internal/domain"
	"dominion/internal/engine"
	"dominion/internal/scoring"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Match messages travel as binary google.protobuf.Struct values. The Go
// types below define their JSON shape.

type StartGameRequest struct {
	Preset  string   `json:"preset,omitempty"`
	Kingdom []string `json:"kingdom,omitempty"`
}

type CardRequest struct {
	Card domain.CardID `json:"card"`
}

type SelectionResponse struct {
	RequestID string          `json:"request_id"`
	Ticket    string          `json:"ticket,omitempty"`
	Cards     []domain.CardID `json:"cards"`
}

type PromptResponse struct {
	RequestID string `json:"request_id"`
	Ticket    string `json:"ticket,omitempty"`
	Choice    string `json:"choice"`
}

type PlayerState struct {
	UserID      string `json:"user_id"`
	Seat        int    `json:"seat"`
	IsOwner     bool   `json:"is_owner"`
	IsBot       bool   `json:"is_bot"`
	DisplayName string `json:"display_name"`
	AvatarIndex int    `json:"avatar_index"`
}

type MatchStateMessage struct {
	Seats     []string         `json:"seats"`
	OwnerSeat int              `json:"owner_seat"`
	Tick      int64            `json:"tick"`
	Players   []PlayerState    `json:"players"`
	Snapshot  *domain.Snapshot `json:"snapshot,omitempty"`
}

type GameStartedMessage struct {
	MatchID  string          `json:"match_id"`
	Players  []string        `json:"players"`
	Kingdom  []string        `json:"kingdom"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

type LogMessage struct {
	Entry engine.LogEntry `json:"entry"`
}

type MatchUpdatedMessage struct {
	Delta engine.Delta `json:"delta"`
}

type SelectableMessage struct {
	Cards []domain.CardID `json:"cards"`
}

type ChoiceRequestedMessage struct {
	Request engine.ChoiceRequest `json:"request"`
	Ticket  string               `json:"ticket,omitempty"`
}

type GameEndedMessage struct {
	Standings []scoring.Standing `json:"standings"`
}

type GameErrorMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// encodeMessage converts v to a Struct through its JSON form and returns the
// binary encoding. v must marshal to a JSON object.
func encodeMessage(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, msg); err != nil {
		return nil, fmt.Errorf("convert to struct: %w", err)
	}
	return proto.Marshal(msg)
}

// decodeMessage is the inverse of encodeMessage. Empty data leaves v untouched.
func decodeMessage(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal struct: %w", err)
	}
	raw, err := protojson.Marshal(msg)
	if err != nil {
		return fmt.Errorf("convert from struct: %w", err)
	}
	return json.Unmarshal(raw, v)
}

// encodeLabel builds the match label JSON queried by quick match.
func encodeLabel(open int, phase string) (string, error) {
	label, err := structpb.NewStruct(map[string]any{
		"game":  MatchLabelGame,
		"open":  open,
		"phase": phase,
	})
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
