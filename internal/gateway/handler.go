package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/mcdev12/wordquest/internal/game"
)

// WebSocketHandler exposes the game's HTTP surface: the WebSocket upgrade
// endpoint, connection stats, and a join-QR endpoint per room.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	registry          *game.Registry
	publicURL         string
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, registry *game.Registry, publicURL string) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		registry:          registry,
		publicURL:         strings.TrimRight(publicURL, "/"),
	}
}

// HandleGameConnection upgrades the client to WebSocket. The connection
// gets a fresh opaque identity; all room membership flows through intents.
func (h *WebSocketHandler) HandleGameConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.connectionManager.UpgradeConnection(w, r); err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
	}
}

// HandleConnectionStats returns statistics about active connections and rooms
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	rooms, players := h.registry.Stats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"total_connections": h.connectionManager.TotalConnections(),
		"active_rooms":      rooms,
		"seated_players":    players,
	})
}

// HandleRoomQR renders a PNG QR code of the join URL for a room.
func (h *WebSocketHandler) HandleRoomQR(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if _, ok := h.registry.GetRoom(code); !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	joinURL := fmt.Sprintf("%s/?room=%s", h.publicURL, code)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		log.Error().Err(err).Str("room_code", code).Msg("failed to encode QR code")
		http.Error(w, "failed to encode QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// RegisterRoutes registers the gateway routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", h.HandleGameConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
	mux.HandleFunc("GET /rooms/{code}/qr", h.HandleRoomQR)
}
