package game

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of outbound game event
type EventType string

const (
	EventTypeRoomCreated     EventType = "roomCreated"
	EventTypeRoomJoined      EventType = "roomJoined"
	EventTypePlayerJoined    EventType = "playerJoined"
	EventTypeGameStateUpdate EventType = "gameStateUpdate"
	EventTypeHintReceived    EventType = "hintReceived"
	EventTypeAnswerResult    EventType = "answerResult"
	EventTypeError           EventType = "error"
)

// Event is the envelope for every message pushed to a client
type Event struct {
	ID        string          `json:"id"`        // Event UUID
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// NewEvent wraps a payload in an event envelope
func NewEvent(eventType EventType, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// Notifier delivers an event to a single connected player. Implementations
// must not block: the room may call Notify while holding its own lock.
// The game state machine never touches a concrete transport.
type Notifier interface {
	Notify(playerID string, event *Event)
}

// LobbyPlayer is the minimal player view sent with join events
type LobbyPlayer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

// RoomSummary is the lobby-level room view sent with join events
type RoomSummary struct {
	RoomCode  string        `json:"roomCode"`
	GameState State         `json:"gameState"`
	Players   []LobbyPlayer `json:"players"`
}

// RoomCreatedPayload is sent to the creator of a new room
type RoomCreatedPayload struct {
	RoomCode  string      `json:"roomCode"`
	GameState RoomSummary `json:"gameState"`
}

// RoomJoinedPayload is sent to a player who joined an existing room
type RoomJoinedPayload struct {
	RoomCode  string      `json:"roomCode"`
	GameState RoomSummary `json:"gameState"`
}

// PlayerJoinedPayload is broadcast to a room when a player joins
type PlayerJoinedPayload struct {
	PlayerID   string      `json:"playerId"`
	PlayerName string      `json:"playerName"`
	GameState  RoomSummary `json:"gameState"`
}

// HintPayload carries one revealed letter back to the requesting player
type HintPayload struct {
	Position int    `json:"position"`
	Letter   string `json:"letter"`
}

// AnswerResultPayload is the unicast response to a submitted answer.
// Close flags a wrong answer within edit distance 2 of the word.
type AnswerResultPayload struct {
	IsCorrect bool `json:"isCorrect"`
	Score     int  `json:"score"`
	Close     bool `json:"close,omitempty"`
}

// ErrorPayload carries a recoverable error back to the originating caller
type ErrorPayload struct {
	Message string `json:"message"`
}
