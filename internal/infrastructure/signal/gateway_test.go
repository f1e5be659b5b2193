package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"watchparty/internal/core/domain"
	"watchparty/internal/core/ports"
	"watchparty/internal/core/services"
	"watchparty/internal/infrastructure/repositories/memory"
	"watchparty/pkg/ident"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// relay defers the broadcaster target the same way the server bootstrap does.
type relay struct {
	target ports.Broadcaster
}

func (r *relay) Broadcast(roomID domain.RoomID, payload interface{}) {
	if r.target != nil {
		r.target.Broadcast(roomID, payload)
	}
}

type gatewayFixture struct {
	rooms    ports.RoomService
	channels ports.ChannelService
	server   *httptest.Server
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	allocator := ident.NewAllocator()
	registry := memory.NewRoomRegistry(allocator)
	logger := zaptest.NewLogger(t).Sugar()

	rl := &relay{}
	rooms := services.NewRoomService(registry, allocator, logger, services.WithBroadcaster(rl))
	channels := services.NewChannelService(registry, rl, allocator, "test-secret", time.Hour, logger)
	gw := NewGateway(channels, rooms, logger)
	rl.target = gw

	server := httptest.NewServer(http.HandlerFunc(gw.HandleWebSocket))
	t.Cleanup(server.Close)
	return &gatewayFixture{rooms: rooms, channels: channels, server: server}
}

func (f *gatewayFixture) createRoomWithToken(t *testing.T) (domain.RoomID, domain.ParticipantID, string) {
	t.Helper()
	created, err := f.rooms.CreateRoom(context.Background(), ports.CreateRoomParams{
		Name: "screening", CreatorNickname: "host",
	})
	require.NoError(t, err)
	token, err := f.channels.JoinChannel(context.Background(), created.Room.ID, created.Creator.ID)
	require.NoError(t, err)
	return created.Room.ID, created.Creator.ID, token
}

func (f *gatewayFixture) wsURL(token string) string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "?token=" + token
}

func (f *gatewayFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(f.wsURL(token), nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendChat(t *testing.T, conn *websocket.Conn, content string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    "chat",
		"payload": map[string]string{"content": content},
	}))
}

func readEvent(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&event))
	return event.Type, event.Payload
}

func participantStatus(t *testing.T, rooms ports.RoomService, roomID domain.RoomID, id domain.ParticipantID) domain.PresenceStatus {
	t.Helper()
	view, err := rooms.GetRoom(context.Background(), roomID)
	require.NoError(t, err)
	for _, p := range view.Participants {
		if p.ID == id {
			return p.Status
		}
	}
	t.Fatalf("participant %s not on roster", id)
	return ""
}

func TestGateway_RejectsBadToken(t *testing.T) {
	f := newGatewayFixture(t)

	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL("bogus"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGateway_ChatRoundTrip(t *testing.T) {
	f := newGatewayFixture(t)
	roomID, creatorID, token := f.createRoomWithToken(t)

	conn := f.dial(t, token)
	sendChat(t, conn, "hello room")

	eventType, payload := readEvent(t, conn)
	require.Equal(t, "chat", eventType)

	var message domain.Message
	require.NoError(t, json.Unmarshal(payload, &message))
	assert.Equal(t, "hello room", message.Content)
	assert.Equal(t, roomID, message.RoomID)
	assert.Equal(t, "host", message.Nickname)

	assert.Equal(t, domain.PresenceOnline, participantStatus(t, f.rooms, roomID, creatorID))
}

func TestGateway_ReconnectKeepsParticipantOnline(t *testing.T) {
	f := newGatewayFixture(t)
	roomID, creatorID, token := f.createRoomWithToken(t)

	first := f.dial(t, token)
	sendChat(t, first, "from the first connection")
	eventType, _ := readEvent(t, first)
	require.Equal(t, "chat", eventType)

	// Same participant reconnects; the gateway closes the first connection
	// and its handler tears down while the second stays attached.
	second := f.dial(t, token)
	sendChat(t, second, "from the second connection")
	eventType, _ = readEvent(t, second)
	require.Equal(t, "chat", eventType)

	// The stale teardown must never flip the live participant offline.
	assert.Never(t, func() bool {
		view, err := f.rooms.GetRoom(context.Background(), roomID)
		if err != nil {
			return true
		}
		for _, p := range view.Participants {
			if p.ID == creatorID {
				return p.Status == domain.PresenceOffline
			}
		}
		return true
	}, 500*time.Millisecond, 25*time.Millisecond)
}

func TestGateway_ErrorEventsAreTagged(t *testing.T) {
	f := newGatewayFixture(t)
	_, _, token := f.createRoomWithToken(t)

	conn := f.dial(t, token)

	t.Run("validation failure", func(t *testing.T) {
		sendChat(t, conn, strings.Repeat("x", domain.MaxMessageLength+1))
		eventType, payload := readEvent(t, conn)
		require.Equal(t, "error", eventType)

		var wire wireError
		require.NoError(t, json.Unmarshal(payload, &wire))
		assert.Equal(t, "VALIDATION_FAILED", wire.Code)
	})

	t.Run("unknown message type", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]string{"type": "teleport"}))
		eventType, payload := readEvent(t, conn)
		require.Equal(t, "error", eventType)

		var wire wireError
		require.NoError(t, json.Unmarshal(payload, &wire))
		assert.Equal(t, "UNKNOWN_TYPE", wire.Code)
	})
}

func TestClassifyWireError(t *testing.T) {
	vErr := domain.NewValidationError()
	vErr.Add("content", "message is too long")

	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{"validation", vErr, "VALIDATION_FAILED", vErr.Error()},
		{"room full", &domain.FullError{RoomID: "123456", Capacity: 2}, "ROOM_FULL", ""},
		{"room closed", &domain.ClosedError{RoomID: "123456"}, "ROOM_CLOSED", ""},
		{"participant not found", domain.ErrParticipantNotFound, "PARTICIPANT_NOT_FOUND", ""},
		{"internal details masked", errors.New("dial tcp 10.0.0.5: connection refused"), "INTERNAL_ERROR", "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, message := classifyWireError(tt.err)
			assert.Equal(t, tt.code, code)
			if tt.message != "" {
				assert.Equal(t, tt.message, message)
			}
		})
	}
}
