package nakama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"dominion/internal/app"
	"dominion/internal/bot"
	"dominion/internal/catalog"
	"dominion/internal/domain"
	"dominion/internal/engine"
	"dominion/internal/ports"
	"dominion/internal/scoring"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode     int64
	data       []byte
	recipients []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	sent         []sentMessage
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.sent = append(md.sent, sentMessage{opCode: opCode, data: append([]byte(nil), data...), recipients: presences})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) withOp(op int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.sent {
		if m.opCode == op {
			out = append(out, m)
		}
	}
	return out
}

type mockPresence struct {
	userID string
}

func (p mockPresence) GetHidden() bool                   { return false }
func (p mockPresence) GetPersistence() bool              { return false }
func (p mockPresence) GetUsername() string               { return "name-" + p.userID }
func (p mockPresence) GetStatus() string                 { return "" }
func (p mockPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p mockPresence) GetUserId() string                 { return p.userID }
func (p mockPresence) GetSessionId() string              { return "session-" + p.userID }
func (p mockPresence) GetNodeId() string                 { return "node" }

type mockMatchData struct {
	mockPresence
	opCode int64
	data   []byte
}

func (d mockMatchData) GetOpCode() int64      { return d.opCode }
func (d mockMatchData) GetData() []byte       { return d.data }
func (d mockMatchData) GetReliable() bool     { return true }
func (d mockMatchData) GetReceiveTime() int64 { return 0 }

type memoryStorage struct {
	objects map[string]string
}

func (m *memoryStorage) StorageRead(_ context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	var out []*api.StorageObject
	for _, r := range reads {
		if v, ok := m.objects[r.Collection+"/"+r.Key]; ok {
			out = append(out, &api.StorageObject{Collection: r.Collection, Key: r.Key, Value: v})
		}
	}
	return out, nil
}

func (m *memoryStorage) StorageWrite(_ context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	if m.objects == nil {
		m.objects = make(map[string]string)
	}
	var acks []*api.StorageObjectAck
	for _, w := range writes {
		m.objects[w.Collection+"/"+w.Key] = w.Value
		acks = append(acks, &api.StorageObjectAck{Collection: w.Collection, Key: w.Key})
	}
	return acks, nil
}

var testBots = []bot.BotIdentity{
	{UserID: "bot-ada", Username: "ada", DisplayName: "Ada", Strategy: bot.StrategyBigMoney, AvatarIndex: 1},
	{UserID: "bot-bob", Username: "bob", DisplayName: "Bob", Strategy: bot.StrategySmithyBigMoney, AvatarIndex: 2},
	{UserID: "bot-cyd", Username: "cyd", DisplayName: "Cyd", Strategy: bot.StrategyBigMoney, AvatarIndex: 3},
}

func init() {
	bot.SetIdentities(testBots)
}

func newTestState(t *testing.T, seats ...string) *MatchState {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	state := &MatchState{
		MatchID:   "match-1",
		OwnerSeat: 0,
		Presences: make(map[string]runtime.Presence),
		Bots:      make(map[string]*bot.Agent),
		App:       app.NewService(cat, rand.New(rand.NewSource(4)), noopLogger{}).WithSnapshots(NewNakamaSnapshotAdapter(&memoryStorage{})),
	}
	for i, userID := range seats {
		state.Seats[i] = userID
		if userID != "" && !isBotUserId(userID) {
			state.Presences[userID] = mockPresence{userID: userID}
		}
	}
	t.Cleanup(func() {
		if state.Game != nil {
			state.Game.Close()
		}
	})
	return state
}

func send(t *testing.T, state *MatchState, dispatcher *mockDispatcher, userID string, op int64, payload any) {
	t.Helper()
	var data []byte
	if payload != nil {
		var err error
		if data, err = encodeMessage(payload); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	msg := mockMatchData{mockPresence: mockPresence{userID: userID}, opCode: op, data: data}
	handler := &matchHandler{}
	handler.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, state.Tick+1, state, []runtime.MatchData{msg})
}

func TestFindFirstHumanSeat(t *testing.T) {
	tests := []struct {
		name  string
		seats []string
		want  int
	}{
		{
			name:  "FirstHumanAfterBot",
			seats: []string{"bot-ada", "user-1", "", ""},
			want:  1,
		},
		{
			name:  "AllBots",
			seats: []string{"bot-ada", "bot-bob", "", ""},
			want:  -1,
		},
		{
			name:  "AllEmpty",
			seats: []string{"", "", "", ""},
			want:  -1,
		},
		{
			name:  "FirstHumanIsSeatZero",
			seats: []string{"user-1", "bot-ada", "user-2", ""},
			want:  0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := findFirstHumanSeat(test.seats); got != test.want {
				t.Fatalf("findFirstHumanSeat() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestShouldTerminateNoHumans(t *testing.T) {
	tests := []struct {
		name  string
		seats []string
		want  bool
	}{
		{"BotsOnly", []string{"bot-ada", "bot-bob", "bot-cyd", ""}, true},
		{"HumansPresent", []string{"bot-ada", "user-1", "", ""}, false},
		{"AllEmpty", []string{"", "", "", ""}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := shouldTerminateNoHumans(test.seats); got != test.want {
				t.Fatalf("shouldTerminateNoHumans() = %t, want %t", got, test.want)
			}
		})
	}
}

func TestEncodeLabel(t *testing.T) {
	tests := []struct {
		name     string
		open     int
		phase    string
		expected string
	}{
		{"LobbyState", 3, "lobby", `{"game":"dominion","open":3,"phase":"lobby"}`},
		{"PlayingState", 0, "playing", `{"game":"dominion","open":0,"phase":"playing"}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			label, err := encodeLabel(test.open, test.phase)
			if err != nil {
				t.Fatalf("Failed to marshal label: %v", err)
			}
			var compact bytes.Buffer
			if err := json.Compact(&compact, []byte(label)); err != nil {
				t.Fatalf("Failed to compact label JSON: %v", err)
			}
			if compact.String() != test.expected {
				t.Errorf("Got %s, want %s", compact.String(), test.expected)
			}
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	in := SelectionResponse{RequestID: "r-1", Ticket: "t", Cards: []domain.CardID{3, 17, 250}}
	data, err := encodeMessage(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var out SelectionResponse
	if err := decodeMessage(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.RequestID != in.RequestID || len(out.Cards) != 3 || out.Cards[2] != 250 {
		t.Fatalf("round trip = %+v", out)
	}

	if err := decodeMessage([]byte{0xff, 0x01}, &out); err == nil {
		t.Fatalf("expected error for garbage payload")
	}
}

func TestProcessBots_FillsLobbyForSoloHuman(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "user-1")
	state.BotsEnabled = true
	state.BotAutoFillDelay = 2
	state.LastSinglePlayerTick = 8
	state.Tick = 10

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})

	botCount := 0
	for _, seat := range state.Seats {
		if isBotUserId(seat) {
			botCount++
		}
	}
	if botCount != 3 {
		t.Fatalf("Expected 3 bots, got %d", botCount)
	}
	if len(state.Bots) != 3 {
		t.Fatalf("Expected 3 agents, got %d", len(state.Bots))
	}
	if state.LastSinglePlayerTick != 0 {
		t.Fatalf("Expected auto-fill timer reset, got %d", state.LastSinglePlayerTick)
	}
	if len(dispatcher.withOp(OpMatchState)) == 0 || dispatcher.labelUpdates == 0 {
		t.Fatalf("Expected match state broadcast and label update after auto-fill")
	}
}

func TestProcessBots_WaitsForDelay(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "user-1")
	state.BotsEnabled = true
	state.BotAutoFillDelay = 5
	state.Tick = 10

	handler.processBots(context.Background(), state, dispatcher, noopLogger{})
	if state.GetOccupiedSeatCount() != 1 {
		t.Fatalf("bots added before the delay elapsed")
	}
	if state.LastSinglePlayerTick != 10 {
		t.Fatalf("timer = %d, want 10", state.LastSinglePlayerTick)
	}
}

func TestStartGameBroadcastsEvents(t *testing.T) {
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "user-1", "user-2")

	// Only the owner may start.
	send(t, state, dispatcher, "user-2", OpStartGame, StartGameRequest{})
	if state.Game != nil {
		t.Fatalf("non-owner started the game")
	}
	if len(dispatcher.withOp(OpGameError)) != 1 {
		t.Fatalf("expected an error event for the non-owner")
	}

	send(t, state, dispatcher, "user-1", OpStartGame, StartGameRequest{Preset: "big_money"})
	if state.Game == nil {
		t.Fatalf("game not started")
	}
	started := dispatcher.withOp(OpGameStarted)
	if len(started) != 1 || started[0].recipients != nil {
		t.Fatalf("game_started should be broadcast once to everyone")
	}
	var msg GameStartedMessage
	if err := decodeMessage(started[0].data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msg.Kingdom) != 10 || !slices.Contains(msg.Kingdom, "smithy") {
		t.Fatalf("kingdom = %v", msg.Kingdom)
	}
	current := state.Game.Match.CurrentPlayer()
	currentHasCards := false
	for _, m := range dispatcher.withOp(OpSelectable) {
		if len(m.recipients) != 1 {
			t.Fatalf("selectable must be private, got %d recipients", len(m.recipients))
		}
		var sel SelectableMessage
		if err := decodeMessage(m.data, &sel); err != nil {
			t.Fatalf("decode selectable: %v", err)
		}
		if m.recipients[0].GetUserId() != current {
			if len(sel.Cards) != 0 {
				t.Fatalf("%s is not playing but got selectable cards %v", m.recipients[0].GetUserId(), sel.Cards)
			}
			continue
		}
		if len(sel.Cards) > 0 {
			currentHasCards = true
		}
	}
	if !currentHasCards {
		t.Fatalf("current player %s never got a selectable card", current)
	}
	if dispatcher.lastLabel == "" || !bytes.Contains([]byte(dispatcher.lastLabel), []byte("playing")) {
		t.Fatalf("label = %s, want playing", dispatcher.lastLabel)
	}
}

func TestRejectedActionSendsError(t *testing.T) {
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "user-1", "user-2")
	send(t, state, dispatcher, "user-1", OpStartGame, nil)
	if state.Game == nil {
		t.Fatalf("game not started")
	}

	other := "user-2"
	if state.Game.Match.CurrentPlayer() == other {
		other = "user-1"
	}
	dispatcher.sent = nil
	send(t, state, dispatcher, other, OpAdvancePhase, nil)

	errs := dispatcher.withOp(OpGameError)
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %d", len(errs))
	}
	if errs[0].recipients[0].GetUserId() != other {
		t.Fatalf("error sent to %s, want %s", errs[0].recipients[0].GetUserId(), other)
	}
	var payload GameErrorMessage
	if err := decodeMessage(errs[0].data, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != ErrCodeForbidden {
		t.Fatalf("code = %d, want %d", payload.Code, ErrCodeForbidden)
	}
}

func TestCheckTicket(t *testing.T) {
	handler := &matchHandler{}
	state := &MatchState{MatchID: "match-1"}
	if err := handler.checkTicket(state, "user-1", "r1", ""); err != nil {
		t.Fatalf("tickets disabled should pass: %v", err)
	}

	state.Tickets = app.NewTicketService("secret", ticketIssuer)
	ticket, err := state.Tickets.Issue("match-1", "user-1", "r1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := handler.checkTicket(state, "user-1", "r1", ticket); err != nil {
		t.Fatalf("valid ticket rejected: %v", err)
	}
	if err := handler.checkTicket(state, "user-1", "r2", ticket); !errors.Is(err, app.ErrBadTicket) {
		t.Fatalf("err = %v, want bad ticket for another request", err)
	}
	if err := handler.checkTicket(state, "user-2", "r1", ticket); !errors.Is(err, app.ErrBadTicket) {
		t.Fatalf("err = %v, want bad ticket for another user", err)
	}
}

func TestBroadcastEvent_Routing(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "user-1", "bot-ada")
	state.Tickets = app.NewTicketService("secret", ticketIssuer)

	// Private events for players without a presence are dropped.
	handler.broadcastEvent(context.Background(), state, dispatcher, noopLogger{}, app.Event{
		Kind:       app.EventChoiceRequested,
		Payload:    app.ChoiceRequestedPayload{Request: engine.ChoiceRequest{ID: "r0", Player: "bot-ada"}},
		Recipients: []string{"bot-ada"},
	})
	if len(dispatcher.sent) != 0 {
		t.Fatalf("bot choice request must not be broadcast")
	}

	handler.broadcastEvent(context.Background(), state, dispatcher, noopLogger{}, app.Event{
		Kind:       app.EventChoiceRequested,
		Payload:    app.ChoiceRequestedPayload{Request: engine.ChoiceRequest{ID: "r1", Player: "user-1", Kind: engine.ChoicePrompt}},
		Recipients: []string{"user-1"},
	})
	requests := dispatcher.withOp(OpChoiceRequested)
	if len(requests) != 1 {
		t.Fatalf("expected one choice request")
	}
	var msg ChoiceRequestedMessage
	if err := decodeMessage(requests[0].data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rid, err := state.Tickets.Verify(msg.Ticket, "match-1", "user-1"); err != nil || rid != "r1" {
		t.Fatalf("ticket = %q (%v), want one for r1", rid, err)
	}
}

func TestBroadcastEvent_GameEndedReturnsToLobby(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "user-1", "user-2")
	send(t, state, dispatcher, "user-1", OpStartGame, nil)
	game := state.Game
	t.Cleanup(game.Close)

	standings := []scoring.Standing{{Player: "user-1", Score: 12, Rank: 1}, {Player: "user-2", Score: 3, Rank: 2}}
	handler.broadcastEvent(context.Background(), state, dispatcher, noopLogger{}, app.Event{
		Kind:    app.EventGameEnded,
		Payload: app.GameEndedPayload{Standings: standings},
	})

	if state.Game != nil {
		t.Fatalf("game should be cleared")
	}
	if len(state.LastStandings) != 2 {
		t.Fatalf("standings not kept: %+v", state.LastStandings)
	}
	if !bytes.Contains([]byte(dispatcher.lastLabel), []byte("lobby")) {
		t.Fatalf("label = %s, want lobby", dispatcher.lastLabel)
	}
	if len(dispatcher.withOp(OpGameEnded)) != 1 {
		t.Fatalf("expected game ended broadcast")
	}
}

func TestMatchLeave_StandInDuringGame(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "user-1", "user-2")
	send(t, state, dispatcher, "user-1", OpStartGame, nil)

	ctx := context.Background()
	result := handler.MatchLeave(ctx, noopLogger{}, nil, nil, dispatcher, 20, state, []runtime.Presence{mockPresence{userID: "user-2"}})
	if result == nil {
		t.Fatalf("match should keep running")
	}
	if state.Seats[1] != "user-2" {
		t.Fatalf("seat freed mid-game: %v", state.Seats)
	}
	if _, ok := state.Bots["user-2"]; !ok {
		t.Fatalf("expected a stand-in bot for user-2")
	}

	handler.MatchJoin(ctx, noopLogger{}, nil, nil, dispatcher, 21, state, []runtime.Presence{mockPresence{userID: "user-2"}})
	if _, ok := state.Bots["user-2"]; ok {
		t.Fatalf("stand-in should leave when the player returns")
	}
}

func TestMatchLeave_LobbyFreesSeat(t *testing.T) {
	handler := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(t, "user-1", "user-2")

	handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 5, state, []runtime.Presence{mockPresence{userID: "user-1"}})
	if state.Seats[0] != "" {
		t.Fatalf("seat not freed: %v", state.Seats)
	}
	if state.OwnerSeat != 1 {
		t.Fatalf("owner seat = %d, want 1", state.OwnerSeat)
	}

	result := handler.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 6, state, []runtime.Presence{mockPresence{userID: "user-2"}})
	if result != nil {
		t.Fatalf("empty match should terminate")
	}
}

func TestGetSnapshot(t *testing.T) {
	store := NewNakamaSnapshotAdapter(&memoryStorage{})
	ctx := context.Background()
	if err := store.Save(ctx, domain.Snapshot{MatchID: "m1", Players: []string{"user-1", "user-2"}, TurnNumber: 4}); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := getSnapshot(ctx, noopLogger{}, store, "user-1", `{"match_id":"m1"}`)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil || snap.TurnNumber != 4 {
		t.Fatalf("snapshot = %+v (%v)", snap, err)
	}

	tests := []struct {
		name    string
		user    string
		payload string
		want    error
	}{
		{"NotAPlayer", "user-9", `{"match_id":"m1"}`, errNotAPlayer},
		{"Missing", "user-1", `{"match_id":"m2"}`, errSnapshotNotFound},
		{"BadPayload", "user-1", `{`, errBadPayload},
		{"NoMatchID", "user-1", `{}`, errBadPayload},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := getSnapshot(ctx, noopLogger{}, store, test.user, test.payload); err != test.want {
				t.Fatalf("err = %v, want %v", err, test.want)
			}
		})
	}

	if _, err := store.Load(ctx, "m2"); !errors.Is(err, ports.ErrSnapshotNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
