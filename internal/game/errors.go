package game

import "errors"

// Recoverable intent errors. These are reported to the originating caller
// only and never crash the room machine.
var (
	// ErrRoomNotFound is returned when no room exists for a code
	ErrRoomNotFound = errors.New("room not found")

	// ErrGameInProgress is returned when a join is attempted outside the lobby
	ErrGameInProgress = errors.New("game already in progress")

	// ErrNotHost is returned when a non-host tries to start the game
	ErrNotHost = errors.New("only host can start game")

	// ErrNoMoreHints is returned once only one unrevealed letter remains
	ErrNoMoreHints = errors.New("no more hints available")

	// ErrAlreadyAnswered is returned on a duplicate submit in the same round
	ErrAlreadyAnswered = errors.New("answer already submitted")

	// ErrInvalidAnswerLength is returned before scoring when a non-empty
	// answer does not match the current word length
	ErrInvalidAnswerLength = errors.New("answer length does not match current word")

	// ErrRoundNotActive is returned for round-scoped intents outside the
	// playing state, including after the game has finished
	ErrRoundNotActive = errors.New("no active round")

	// ErrUnknownPlayer is returned when an intent references a player the
	// room does not contain
	ErrUnknownPlayer = errors.New("player not in room")
)
