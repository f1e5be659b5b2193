package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"watchparty/internal/core/domain"
	"watchparty/internal/core/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// client wraps a websocket connection with a write lock: broadcasts and the
// ping ticker write from different goroutines.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v interface{}, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteJSON(v)
}

func (c *client) ping(timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

// Gateway is the realtime transport boundary: it upgrades token-bearing
// requests to websockets, tracks one connection per participant per room,
// relays inbound chat and playback messages into the core, and implements
// the Broadcaster port for outbound fan-out. It holds no room state of its
// own; every access goes back through the services.
type Gateway struct {
	channels ports.ChannelService
	rooms    ports.RoomService

	connections map[domain.RoomID]map[domain.ParticipantID]*client
	mu          sync.RWMutex

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration

	logger *zap.SugaredLogger
}

type GatewayOption func(*Gateway)

// WithKeepalive overrides the ping interval and pong timeout.
func WithKeepalive(pingInterval, pongTimeout time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.pingInterval = pingInterval
		g.pongTimeout = pongTimeout
	}
}

func NewGateway(channels ports.ChannelService, rooms ports.RoomService, logger *zap.SugaredLogger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		channels:     channels,
		rooms:        rooms,
		connections:  make(map[domain.RoomID]map[domain.ParticipantID]*client),
		pingInterval: 30 * time.Second,
		pongTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type chatPayload struct {
	Content string `json:"content"`
}

type videoPayload struct {
	Source       *string  `json:"source,omitempty"`
	Status       *string  `json:"status,omitempty"`
	Progress     *float64 `json:"progress,omitempty"`
	PlaybackRate *float64 `json:"playback_rate,omitempty"`
	SubtitleRef  *string  `json:"subtitle_ref,omitempty"`
}

// HandleWebSocket upgrades the request and pumps messages until the peer
// disconnects. The channel token from JoinChannel is required; the gateway
// never admits a participant the room has not.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing channel token", http.StatusUnauthorized)
		return
	}
	roomID, participantID, err := g.channels.Authorize(token)
	if err != nil {
		http.Error(w, "invalid channel token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	cl := &client{conn: conn}
	g.register(roomID, participantID, cl)
	defer g.detach(roomID, participantID, cl)

	ctx := r.Context()
	if err := g.rooms.SetConnection(ctx, roomID, participantID, conn.RemoteAddr().String()); err != nil {
		g.logger.Warnw("failed to mark participant online", "room_id", roomID, "participant_id", participantID, "error", err)
		return
	}

	g.logger.Infow("participant connected", "room_id", roomID, "participant_id", participantID)

	conn.SetReadDeadline(time.Now().Add(g.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(g.pongTimeout))
		return nil
	})

	done := make(chan struct{})
	go g.keepalive(cl, done)
	defer close(done)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Warnw("websocket read failed", "room_id", roomID, "participant_id", participantID, "error", err)
			}
			return
		}
		g.dispatch(ctx, roomID, participantID, cl, msg)
	}
}

func (g *Gateway) dispatch(ctx context.Context, roomID domain.RoomID, participantID domain.ParticipantID, cl *client, msg inboundMessage) {
	switch msg.Type {
	case "chat":
		var payload chatPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			g.sendError(cl, "MALFORMED_PAYLOAD", "malformed chat payload")
			return
		}
		if _, err := g.channels.PostMessage(ctx, roomID, participantID, payload.Content); err != nil {
			g.sendFailure(cl, err)
		}
	case "video":
		var payload videoPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			g.sendError(cl, "MALFORMED_PAYLOAD", "malformed video payload")
			return
		}
		_, err := g.rooms.UpdateVideo(ctx, roomID, participantID, ports.VideoUpdateParams{
			Source:       payload.Source,
			Status:       payload.Status,
			Progress:     payload.Progress,
			PlaybackRate: payload.PlaybackRate,
			SubtitleRef:  payload.SubtitleRef,
		})
		if err != nil {
			g.sendFailure(cl, err)
		}
	default:
		g.sendError(cl, "UNKNOWN_TYPE", "unknown message type")
	}
}

// wireError is the error envelope sent back over the channel.
type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classifyWireError maps an error onto the tagged vocabulary the same way
// the HTTP error middleware does. Anything outside it is masked.
func classifyWireError(err error) (string, string) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return "VALIDATION_FAILED", vErr.Error()
	}
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "ROOM_NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrParticipantNotFound):
		return "PARTICIPANT_NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrRoomFull):
		return "ROOM_FULL", err.Error()
	case errors.Is(err, domain.ErrRoomClosed):
		return "ROOM_CLOSED", err.Error()
	case errors.Is(err, domain.ErrPermissionDenied):
		return "PERMISSION_DENIED", err.Error()
	default:
		return "INTERNAL_ERROR", "internal error"
	}
}

func (g *Gateway) sendFailure(cl *client, err error) {
	code, message := classifyWireError(err)
	g.sendError(cl, code, message)
}

func (g *Gateway) sendError(cl *client, code, message string) {
	_ = cl.writeJSON(ports.Event{Type: "error", Payload: wireError{Code: code, Message: message}}, g.writeTimeout)
}

func (g *Gateway) keepalive(cl *client, done <-chan struct{}) {
	ticker := time.NewTicker(g.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := cl.ping(g.writeTimeout); err != nil {
				return
			}
		}
	}
}

// register stores the connection, closing any previous one for the same
// participant (reconnect).
func (g *Gateway) register(roomID domain.RoomID, participantID domain.ParticipantID, cl *client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.connections[roomID]
	if !ok {
		room = make(map[domain.ParticipantID]*client)
		g.connections[roomID] = room
	}
	if old, exists := room[participantID]; exists && old != nil {
		old.conn.Close()
		g.logger.Infow("closing old connection for reconnecting participant", "participant_id", participantID)
	}
	room[participantID] = cl
}

// detach drops the connection and marks the participant offline, but only
// when this client is still the registered one. A reconnect replaces the
// entry under the same lock, so a stale handler tearing down after its
// connection was superseded must never flip a live participant offline.
func (g *Gateway) detach(roomID domain.RoomID, participantID domain.ParticipantID, cl *client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.connections[roomID]
	if !ok {
		return
	}
	if current, exists := room[participantID]; !exists || current != cl {
		return
	}
	delete(room, participantID)
	if len(room) == 0 {
		delete(g.connections, roomID)
	}
	// The room may already be dissolved at this point; going offline on a
	// missing room is not an error worth reporting.
	_ = g.rooms.SetConnection(context.Background(), roomID, participantID, "")
}

// Broadcast implements ports.Broadcaster: fan the payload out to every
// listener currently attached to the room.
func (g *Gateway) Broadcast(roomID domain.RoomID, payload interface{}) {
	g.mu.RLock()
	clients := make([]*client, 0, len(g.connections[roomID]))
	for _, cl := range g.connections[roomID] {
		clients = append(clients, cl)
	}
	g.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.writeJSON(payload, g.writeTimeout); err != nil {
			g.logger.Warnw("broadcast write failed", "room_id", roomID, "error", err)
		}
	}
}
