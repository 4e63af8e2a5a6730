package nakama

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"dominion/internal/app"
	"dominion/internal/bot"
	"dominion/internal/catalog"
	"dominion/internal/config"
	"dominion/internal/domain"
	"dominion/internal/engine"
	"dominion/internal/scoring"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	MatchLabelKey_OpenSeats = "open" // Key for the open seats in the match label
	ticketIssuer            = "dominion"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	MatchID              string                      `json:"match_id"`
	Seats                [4]string                   `json:"seats"`                   // Array of user IDs, empty string means seat is empty
	OwnerSeat            int                         `json:"owner_seat"`              // Seat index of the match owner
	Preset               string                      `json:"preset"`                  // Kingdom preset used when the owner names none
	Tick                 int64                       `json:"tick"`                    // Current tick of the match for turn-based logic
	Presences            map[string]runtime.Presence `json:"-"`                       // Map UserId -> Presence for targeted messaging
	App                  *app.Service                `json:"-"`                       // Dominion app service with game logic
	Tickets              *app.TicketService          `json:"-"`                       // Signs choice requests; nil disables tickets
	Game                 *app.Game                   `json:"-"`                       // Current active game (nil if in lobby)
	LastStandings        []scoring.Standing          `json:"last_standings"`          // Result of the last finished game
	BotsEnabled          bool                        `json:"bots_enabled"`            // Whether AI players are allowed
	BotMinDelay          int                         `json:"bot_min_delay"`           // Min seconds a bot waits
	BotMaxDelay          int                         `json:"bot_max_delay"`           // Max seconds a bot waits
	BotAutoFillDelay     int                         `json:"bot_auto_fill_delay"`     // Seconds to wait before auto-filling with bots
	BotWaitUntil         int64                       `json:"bot_wait_until"`          // Tick when the bot should act
	LastSinglePlayerTick int64                       `json:"last_single_player_tick"` // Tick when a single player started waiting
	Bots                 map[string]*bot.Agent       `json:"-"`                       // Active bot agents, including stand-ins for absent players
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat != "" && seat == userID {
			return i
		}
	}
	return -1
}

func (ms *MatchState) playing() bool {
	return ms.Game != nil && !ms.Game.Ended
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	vars, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	env, err := config.ParseRuntimeEnv(vars)
	if err != nil {
		logger.Warn("MatchInit: Falling back to default runtime env: %v", err)
		env, _ = config.ParseRuntimeEnv(map[string]string{})
	}

	cat, err := loadCatalog()
	if err != nil {
		logger.Error("MatchInit: Failed to load card catalog: %v", err)
		return nil, 0, ""
	}

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	state := &MatchState{
		MatchID:          matchID,
		Tick:             time.Now().Unix(),
		Presences:        make(map[string]runtime.Presence),
		App:              app.NewService(cat, nil, logger).WithSnapshots(NewNakamaSnapshotAdapter(nk)),
		OwnerSeat:        -1,
		Bots:             make(map[string]*bot.Agent),
		BotsEnabled:      env.BotsEnabled,
		BotMinDelay:      env.BotMinDelay,
		BotMaxDelay:      env.BotMaxDelay,
		BotAutoFillDelay: env.BotAutoFillDelay,
	}
	if preset, ok := params["preset"].(string); ok {
		state.Preset = preset
	}
	if env.TicketSecret != "" {
		state.Tickets = app.NewTicketService(env.TicketSecret, ticketIssuer)
	} else {
		logger.Warn("MatchInit: No ticket secret configured, choice responses are not signed.")
	}

	label, err := encodeLabel(state.GetOpenSeatsCount(), "lobby")
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, label
}

func loadCatalog() (*catalog.Catalog, error) {
	if path := config.GetCatalogPath(); path != "" {
		return catalog.Load(path)
	}
	return catalog.Default()
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// A seated player may always come back.
	if matchState.seatOf(presence.GetUserId()) >= 0 {
		return state, true, ""
	}
	if matchState.playing() {
		return state, false, "Game in progress"
	}

	// Allow join if there is an empty seat OR a bot to replace
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		for _, seat := range matchState.Seats {
			if isBotUserId(seat) {
				hasBot = true
				break
			}
		}
		if !hasBot {
			return state, false, "Match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if seat := matchState.seatOf(userID); seat >= 0 {
			if _, standIn := matchState.Bots[userID]; standIn {
				logger.Info("MatchJoin: User %s is back in seat %d, stand-in bot removed.", userID, seat)
				delete(matchState.Bots, userID)
			}
			continue
		}

		// Assign seat: Try empty seats first, then bots (if lobby)
		assigned := false
		for i, seatUserId := range matchState.Seats {
			if seatUserId == "" {
				matchState.Seats[i] = userID
				assigned = true
				break
			}
		}

		if !assigned && !matchState.playing() {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, userID, i)
					delete(matchState.Bots, seatUserId)
					matchState.Seats[i] = userID
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
		}
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players leave the match. In the
// lobby the seat is freed; during a game a bot plays the seat until the
// player rejoins.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		seat := matchState.seatOf(userID)
		if seat < 0 {
			continue
		}
		if matchState.playing() {
			agent, err := bot.NewAgent(userID)
			if err != nil {
				logger.Error("MatchLeave: Failed to create stand-in for %s: %v", userID, err)
				continue
			}
			matchState.Bots[userID] = agent
			logger.Info("MatchLeave: User %s left mid-game, a bot plays seat %d.", userID, seat)
			continue
		}
		matchState.Seats[seat] = ""
		logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
	}

	newOwnerSeat := findFirstHumanSeat(matchState.Seats[:])
	if newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
		if newOwnerSeat >= 0 {
			logger.Debug("MatchLeave: Owner set to human seat %d.", newOwnerSeat)
		}
	}

	if shouldTerminateNoHumans(matchState.Seats[:]) || len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating match with no humans.")
		if matchState.Game != nil {
			matchState.Game.Close()
		}
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpPlayCard:
			mh.handleCardAction(ctx, matchState, dispatcher, logger, msg, "PlayCard", matchState.App.PlayCard)
		case OpBuyCard:
			mh.handleCardAction(ctx, matchState, dispatcher, logger, msg, "BuyCard", matchState.App.BuyCard)
		case OpAdvancePhase:
			mh.handleAdvancePhase(ctx, matchState, dispatcher, logger, msg)
		case OpRespondSelection:
			mh.handleRespondSelection(ctx, matchState, dispatcher, logger, msg)
		case OpRespondPrompt:
			mh.handleRespondPrompt(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.processBots(ctx, matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill lobby with bots if there's only one human player after delay
	if state.Game == nil && state.BotsEnabled {
		if state.GetHumanPlayerCount() == 1 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}

			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				mh.fillWithBots(state, dispatcher, logger)
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
	}

	// 2. Handle bot turns and bot choices in-game
	if !state.playing() {
		state.BotWaitUntil = 0
		return
	}
	actor := state.Game.Match.CurrentPlayer()
	req, pending := state.Game.Pending()
	if pending {
		actor = req.Player
	}
	agent, ok := state.Bots[actor]
	if !ok {
		if !isBotUserId(actor) {
			state.BotWaitUntil = 0
			return
		}
		var err error
		if agent, err = bot.NewAgent(actor); err != nil {
			logger.Error("processBots: Failed to create fallback agent: %v", err)
			return
		}
		state.Bots[actor] = agent
	}

	if state.BotWaitUntil == 0 {
		delay := rand.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
		logger.Debug("processBots: Bot %s will act at tick %d (current %d)", actor, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	var (
		events []app.Event
		err    error
	)
	if pending {
		events, err = mh.botChoose(ctx, state, agent, req)
	} else {
		events, err = mh.botMove(ctx, state, agent)
	}
	if err != nil {
		logger.Error("processBots: Bot %s failed to act: %v", actor, err)
	}
	mh.broadcastEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) fillWithBots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	_, hi := config.GetPlayerLimits()
	added := false
	for i, seat := range state.Seats {
		if seat != "" || state.GetOccupiedSeatCount() >= hi {
			continue
		}
		identity := bot.GetBotIdentity(i)
		botID := identity.UserID
		if state.seatOf(botID) >= 0 {
			continue
		}
		state.Seats[i] = botID

		// Create Bot Agent via Factory
		agent, err := bot.NewAgent(botID)
		if err != nil {
			logger.Error("Failed to create bot agent for %s: %v", botID, err)
		} else {
			state.Bots[botID] = agent
		}

		logger.Info("processBots: Added bot %s (%s) to seat %d", identity.Username, botID, i)
		added = true
	}
	if added {
		mh.updateLabel(state, dispatcher, logger)
		mh.broadcastMatchState(state, dispatcher, logger)
	}
}

func (mh *matchHandler) botMove(ctx context.Context, state *MatchState, agent *bot.Agent) ([]app.Event, error) {
	move, err := agent.Play(state.Game.Match)
	if err != nil {
		return nil, err
	}
	switch move.Kind {
	case bot.MoveWait:
		return nil, nil
	case bot.MovePlay:
		return state.App.PlayCard(ctx, state.Game, agent.ID, move.Card)
	case bot.MoveBuy:
		return state.App.BuyCard(ctx, state.Game, agent.ID, move.Card)
	default:
		return state.App.AdvancePhase(ctx, state.Game, agent.ID)
	}
}

func (mh *matchHandler) botChoose(ctx context.Context, state *MatchState, agent *bot.Agent, req engine.ChoiceRequest) ([]app.Event, error) {
	resp, err := agent.Choose(state.Game.Match, req)
	if err != nil {
		return nil, err
	}
	if req.Kind == engine.ChoicePrompt {
		return state.App.RespondPrompt(ctx, state.Game, agent.ID, req.ID, resp.Choice)
	}
	return state.App.RespondSelection(ctx, state.Game, agent.ID, req.ID, resp.Cards)
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	msg := MatchStateMessage{
		Seats:     state.Seats[:],
		OwnerSeat: state.OwnerSeat,
		Tick:      state.Tick,
	}
	for i, userId := range state.Seats {
		if userId == "" {
			continue
		}

		player := PlayerState{
			UserID:      userId,
			Seat:        i,
			IsOwner:     i == state.OwnerSeat,
			IsBot:       isBotUserId(userId),
			DisplayName: userId,
		}
		if p, exists := state.Presences[userId]; exists {
			player.DisplayName = p.GetUsername()
		} else if name := bot.GetBotDisplayName(userId); name != "" {
			player.DisplayName = name
		}
		if identity, ok := bot.GetBotConfig(userId); ok {
			player.AvatarIndex = identity.AvatarIndex
		}
		msg.Players = append(msg.Players, player)
	}
	if state.playing() {
		snap := domain.TakeSnapshot(state.Game.Match)
		msg.Snapshot = &snap
	}

	bytes, err := encodeMessage(msg)
	if err != nil {
		logger.Error("broadcastMatchState: Failed to marshal: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpMatchState, bytes, nil, nil, true)
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	request := StartGameRequest{}
	if err := decodeMessage(msg.GetData(), &request); err != nil {
		logger.Warn("StartGame: Invalid StartGameRequest from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}

	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeForbidden, "only the match owner can start the game")
		return
	}
	if state.playing() {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeConflict, app.ErrNotPlaying.Error())
		return
	}

	kingdom := request.Kingdom
	if len(kingdom) == 0 {
		preset := request.Preset
		if preset == "" {
			preset = state.Preset
		}
		var err error
		if kingdom, err = state.App.KingdomFor(preset); err != nil {
			mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
			return
		}
	}

	game, events, err := state.App.StartGame(ctx, state.MatchID, state.Seats[:], kingdom)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}

	state.Game = game
	state.LastStandings = nil
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastEvents(ctx, state, dispatcher, logger, events)

	logger.Info("StartGame: Game started with %d players.", len(game.Match.Players))
}

type cardAction func(ctx context.Context, g *app.Game, actor string, card domain.CardID) ([]app.Event, error)

func (mh *matchHandler) handleCardAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData, name string, action cardAction) {
	senderID := msg.GetUserId()
	if state.Game == nil {
		logger.Warn("%s: Game not started.", name)
		return
	}

	request := CardRequest{}
	if err := decodeMessage(msg.GetData(), &request); err != nil {
		logger.Error("%s: Failed to unmarshal CardRequest: %v", name, err)
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}

	events, err := action(ctx, state.Game, senderID, request.Card)
	mh.finishAction(ctx, state, dispatcher, logger, senderID, name, events, err)
}

func (mh *matchHandler) handleAdvancePhase(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Game == nil {
		logger.Warn("AdvancePhase: Game not started.")
		return
	}
	events, err := state.App.AdvancePhase(ctx, state.Game, senderID)
	mh.finishAction(ctx, state, dispatcher, logger, senderID, "AdvancePhase", events, err)
}

func (mh *matchHandler) handleRespondSelection(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Game == nil {
		logger.Warn("RespondSelection: Game not started.")
		return
	}

	request := SelectionResponse{}
	if err := decodeMessage(msg.GetData(), &request); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}
	if err := mh.checkTicket(state, senderID, request.RequestID, request.Ticket); err != nil {
		logger.Warn("RespondSelection: Rejected ticket from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeForbidden, err.Error())
		return
	}

	events, err := state.App.RespondSelection(ctx, state.Game, senderID, request.RequestID, request.Cards)
	mh.finishAction(ctx, state, dispatcher, logger, senderID, "RespondSelection", events, err)
}

func (mh *matchHandler) handleRespondPrompt(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Game == nil {
		logger.Warn("RespondPrompt: Game not started.")
		return
	}

	request := PromptResponse{}
	if err := decodeMessage(msg.GetData(), &request); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeBadRequest, err.Error())
		return
	}
	if err := mh.checkTicket(state, senderID, request.RequestID, request.Ticket); err != nil {
		logger.Warn("RespondPrompt: Rejected ticket from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, ErrCodeForbidden, err.Error())
		return
	}

	events, err := state.App.RespondPrompt(ctx, state.Game, senderID, request.RequestID, request.Choice)
	mh.finishAction(ctx, state, dispatcher, logger, senderID, "RespondPrompt", events, err)
}

// checkTicket verifies that the response carries the ticket issued with the
// request it answers. Without a configured secret every response passes.
func (mh *matchHandler) checkTicket(state *MatchState, senderID, requestID, ticket string) error {
	if state.Tickets == nil {
		return nil
	}
	issuedFor, err := state.Tickets.Verify(ticket, state.MatchID, senderID)
	if err != nil {
		return err
	}
	if issuedFor != requestID {
		return app.ErrBadTicket
	}
	return nil
}

// finishAction broadcasts whatever the action produced and reports a
// rejection to the sender.
func (mh *matchHandler) finishAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID, name string, events []app.Event, err error) {
	mh.broadcastEvents(ctx, state, dispatcher, logger, events)
	if err == nil {
		return
	}

	logger.Warn("%s: User %s was rejected: %v", name, senderID, err)
	code := ErrCodeBadRequest
	if errors.Is(err, engine.ErrBusy) || errors.Is(err, app.ErrNotPlaying) {
		code = ErrCodeConflict
	}
	if errors.Is(err, engine.ErrNotYourTurn) {
		code = ErrCodeForbidden
	}
	mh.sendError(state, dispatcher, logger, senderID, code, err.Error())
}

func (mh *matchHandler) broadcastEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	var payload any

	switch ev.Kind {
	case app.EventGameStarted:
		opCode = OpGameStarted
		p := ev.Payload.(app.GameStartedPayload)
		logger.Debug("Event: game_started (players=%d, kingdom=%v)", len(p.Players), p.Kingdom)
		payload = GameStartedMessage{MatchID: p.MatchID, Players: p.Players, Kingdom: p.Kingdom, Snapshot: p.Snapshot}
	case app.EventLog:
		opCode = OpLog
		payload = LogMessage{Entry: ev.Payload.(app.LogPayload).Entry}
	case app.EventMatchUpdated:
		opCode = OpMatchUpdated
		payload = MatchUpdatedMessage{Delta: ev.Payload.(app.MatchUpdatedPayload).Delta}
	case app.EventSelectable:
		opCode = OpSelectable
		payload = SelectableMessage{Cards: ev.Payload.(app.SelectablePayload).Cards}
	case app.EventChoiceRequested:
		opCode = OpChoiceRequested
		req := ev.Payload.(app.ChoiceRequestedPayload).Request
		msg := ChoiceRequestedMessage{Request: req}
		if state.Tickets != nil && !isBotUserId(req.Player) {
			ticket, err := state.Tickets.Issue(state.MatchID, req.Player, req.ID)
			if err != nil {
				logger.Error("Event: Failed to issue ticket for request %s: %v", req.ID, err)
				return
			}
			msg.Ticket = ticket
		}
		payload = msg
	case app.EventGameEnded:
		opCode = OpGameEnded
		p := ev.Payload.(app.GameEndedPayload)
		payload = GameEndedMessage{Standings: p.Standings}

		// Game ended, clear game state and return to lobby
		state.LastStandings = p.Standings
		state.Game = nil
		state.BotWaitUntil = 0
		for userID := range state.Bots {
			if !isBotUserId(userID) {
				delete(state.Bots, userID)
			}
		}
		mh.updateLabel(state, dispatcher, logger)
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := encodeMessage(payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// If we had intended recipients but none are connected (e.g. they are bots),
		// we MUST NOT broadcast to everyone else.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

// sendError sends a GameErrorMessage to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := encodeMessage(GameErrorMessage{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal GameErrorMessage: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	phase := "lobby"
	if state.playing() {
		phase = "playing"
	}

	label, err := encodeLabel(state.GetOpenSeatsCount(), phase)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d seconds grace", graceSeconds)
	if matchState, ok := state.(*MatchState); ok && matchState.Game != nil {
		matchState.Game.Close()
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
