package gateway

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/wordquest/internal/game"
)

// IntentType represents the type of client intent
type IntentType string

const (
	IntentCreateRoom   IntentType = "createRoom"
	IntentJoinRoom     IntentType = "joinRoom"
	IntentStartGame    IntentType = "startGame"
	IntentGetHint      IntentType = "getHint"
	IntentFoundWord    IntentType = "foundWord"
	IntentSubmitAnswer IntentType = "submitAnswer"
)

// IntentMessage is the envelope for every message a client sends
type IntentMessage struct {
	Type IntentType      `json:"type"`
	Data json.RawMessage `json:"data"`
}

type createRoomPayload struct {
	PlayerName string `json:"playerName"`
}

type joinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type roomScopedPayload struct {
	RoomCode string `json:"roomCode"`
}

type submitAnswerPayload struct {
	RoomCode string `json:"roomCode"`
	Answer   string `json:"answer"`
}

// IntentRouter decodes intent envelopes off the wire and dispatches them
// to the room registry. Recoverable failures go back to the originating
// connection as error events; malformed intents are logged and dropped.
type IntentRouter struct {
	registry *game.Registry
}

// NewIntentRouter creates an intent router over a registry.
func NewIntentRouter(registry *game.Registry) *IntentRouter {
	return &IntentRouter{registry: registry}
}

// Verify the router satisfies the connection manager's handler contract
var _ IntentHandler = (*IntentRouter)(nil)

// HandleIntent routes one raw client message.
func (rt *IntentRouter) HandleIntent(conn *Connection, raw []byte) {
	var msg IntentMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", conn.ID).
			Msg("dropping malformed intent")
		return
	}

	switch msg.Type {
	case IntentCreateRoom:
		rt.handleCreateRoom(conn, msg.Data)
	case IntentJoinRoom:
		rt.handleJoinRoom(conn, msg.Data)
	case IntentStartGame:
		rt.handleStartGame(conn, msg.Data)
	case IntentGetHint:
		rt.handleGetHint(conn, msg.Data)
	case IntentFoundWord:
		rt.handleFoundWord(conn, msg.Data)
	case IntentSubmitAnswer:
		rt.handleSubmitAnswer(conn, msg.Data)
	default:
		log.Warn().
			Str("connection_id", conn.ID).
			Str("intent_type", string(msg.Type)).
			Msg("unknown intent type - ignoring")
	}
}

// HandleDisconnect removes the player from any room they were seated in.
func (rt *IntentRouter) HandleDisconnect(conn *Connection) {
	log.Info().Str("connection_id", conn.ID).Msg("client disconnected")
	rt.registry.Disconnect(conn.ID)
}

func (rt *IntentRouter) handleCreateRoom(conn *Connection, data json.RawMessage) {
	var payload createRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.PlayerName == "" {
		log.Warn().Str("connection_id", conn.ID).Msg("dropping invalid createRoom payload")
		return
	}

	room, err := rt.registry.CreateRoom(conn.ID, payload.PlayerName)
	if err != nil {
		rt.sendError(conn, err)
		return
	}

	rt.sendEvent(conn, game.EventTypeRoomCreated, game.RoomCreatedPayload{
		RoomCode:  room.Code(),
		GameState: room.Summary(),
	})
}

func (rt *IntentRouter) handleJoinRoom(conn *Connection, data json.RawMessage) {
	var payload joinRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.PlayerName == "" {
		log.Warn().Str("connection_id", conn.ID).Msg("dropping invalid joinRoom payload")
		return
	}

	room, ok := rt.registry.GetRoom(payload.RoomCode)
	if !ok {
		rt.sendError(conn, game.ErrRoomNotFound)
		return
	}
	if err := room.AddPlayer(conn.ID, payload.PlayerName); err != nil {
		rt.sendError(conn, err)
		return
	}

	rt.sendEvent(conn, game.EventTypeRoomJoined, game.RoomJoinedPayload{
		RoomCode:  room.Code(),
		GameState: room.Summary(),
	})
	room.BroadcastEvent(game.EventTypePlayerJoined, game.PlayerJoinedPayload{
		PlayerID:   conn.ID,
		PlayerName: payload.PlayerName,
		GameState:  room.Summary(),
	})
}

func (rt *IntentRouter) handleStartGame(conn *Connection, data json.RawMessage) {
	room, ok := rt.lookupRoom(conn, data)
	if !ok {
		return
	}
	if err := room.Start(conn.ID); err != nil {
		rt.sendError(conn, err)
	}
}

func (rt *IntentRouter) handleGetHint(conn *Connection, data json.RawMessage) {
	room, ok := rt.lookupRoom(conn, data)
	if !ok {
		return
	}
	hint, err := room.GetHint(conn.ID)
	if err != nil {
		rt.sendError(conn, err)
		return
	}
	rt.sendEvent(conn, game.EventTypeHintReceived, hint)
}

func (rt *IntentRouter) handleFoundWord(conn *Connection, data json.RawMessage) {
	room, ok := rt.lookupRoom(conn, data)
	if !ok {
		return
	}
	// No-op on failure; the room broadcasts on success.
	room.MarkFound(conn.ID)
}

func (rt *IntentRouter) handleSubmitAnswer(conn *Connection, data json.RawMessage) {
	var payload submitAnswerPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Warn().Str("connection_id", conn.ID).Msg("dropping invalid submitAnswer payload")
		return
	}

	room, ok := rt.registry.GetRoom(payload.RoomCode)
	if !ok {
		rt.sendError(conn, game.ErrRoomNotFound)
		return
	}
	result, err := room.SubmitAnswer(conn.ID, payload.Answer)
	if err != nil {
		rt.sendError(conn, err)
		return
	}
	rt.sendEvent(conn, game.EventTypeAnswerResult, result)
}

// lookupRoom decodes a room-scoped payload and resolves its room, sending
// the appropriate error event when either step fails.
func (rt *IntentRouter) lookupRoom(conn *Connection, data json.RawMessage) (*game.Room, bool) {
	var payload roomScopedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Warn().Str("connection_id", conn.ID).Msg("dropping invalid room payload")
		return nil, false
	}
	room, ok := rt.registry.GetRoom(payload.RoomCode)
	if !ok {
		rt.sendError(conn, game.ErrRoomNotFound)
		return nil, false
	}
	return room, true
}

func (rt *IntentRouter) sendEvent(conn *Connection, eventType game.EventType, payload any) {
	event, err := game.NewEvent(eventType, payload)
	if err != nil {
		log.Error().
			Err(err).
			Str("connection_id", conn.ID).
			Str("event_type", string(eventType)).
			Msg("failed to build event")
		return
	}
	conn.SendEvent(event)
}

func (rt *IntentRouter) sendError(conn *Connection, cause error) {
	rt.sendEvent(conn, game.EventTypeError, game.ErrorPayload{Message: cause.Error()})
}
