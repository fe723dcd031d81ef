package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/wordquest/internal/questions"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
	maxCodeAttempts  = 10
)

// Registry is the process-wide mapping from room code to room. Rooms are
// created on demand and garbage collected when their last player leaves.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	settings Settings
	bank     *questions.Bank
	clock    clockwork.Clock
	notifier Notifier
}

// NewRegistry creates an empty room registry.
func NewRegistry(settings Settings, bank *questions.Bank, clock clockwork.Clock, notifier Notifier) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		settings: settings,
		bank:     bank,
		clock:    clock,
		notifier: notifier,
	}
}

// CreateRoom creates a room with a fresh code and the caller as host.
func (reg *Registry) CreateRoom(hostID, hostName string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for attempt := 0; ; attempt++ {
		if attempt >= maxCodeAttempts {
			return nil, fmt.Errorf("failed to generate unique room code after %d attempts", maxCodeAttempts)
		}
		code = generateRoomCode()
		if _, taken := reg.rooms[code]; !taken {
			break
		}
	}

	room := NewRoom(code, hostID, hostName, reg.settings, reg.bank, reg.clock, reg.notifier)
	reg.rooms[code] = room

	log.Info().
		Str("room_code", code).
		Str("host_id", hostID).
		Int("active_rooms", len(reg.rooms)).
		Msg("room created")
	return room, nil
}

// GetRoom looks up a room by its code.
func (reg *Registry) GetRoom(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[code]
	return room, ok
}

// Disconnect removes the player from every room containing them. A room
// left empty is closed — cancelling any pending timers — and deleted.
func (reg *Registry) Disconnect(playerID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for code, room := range reg.rooms {
		if !room.HasPlayer(playerID) {
			continue
		}
		if empty := room.RemovePlayer(playerID); empty {
			delete(reg.rooms, code)
			log.Info().
				Str("room_code", code).
				Int("active_rooms", len(reg.rooms)).
				Msg("empty room deleted")
		}
	}
}

// Stats returns the number of active rooms and total seated players.
func (reg *Registry) Stats() (rooms, players int) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	for _, room := range reg.rooms {
		players += room.PlayerCount()
	}
	return len(reg.rooms), players
}

// Shutdown closes every room, cancelling all outstanding timers.
func (reg *Registry) Shutdown() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for code, room := range reg.rooms {
		room.Close()
		delete(reg.rooms, code)
	}
	log.Info().Msg("registry shut down")
}

// generateRoomCode returns a short random uppercase alphanumeric code.
func generateRoomCode() string {
	max := big.NewInt(int64(len(roomCodeAlphabet)))
	b := make([]byte, roomCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("room code generation: %v", err))
		}
		b[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(b)
}
