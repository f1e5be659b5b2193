package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"watchparty/internal/core/domain"
	"watchparty/internal/core/ports"
	"watchparty/internal/infrastructure/repositories/memory"
	"watchparty/pkg/ident"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type channelFixture struct {
	rooms       ports.RoomService
	channels    ports.ChannelService
	broadcaster *recordingBroadcaster
	now         time.Time
}

func newChannelFixture(t *testing.T) *channelFixture {
	t.Helper()
	f := &channelFixture{
		broadcaster: &recordingBroadcaster{},
		now:         time.Date(2025, time.March, 1, 20, 0, 0, 0, time.UTC),
	}
	allocator := ident.NewAllocator()
	registry := memory.NewRoomRegistry(allocator)
	logger := zaptest.NewLogger(t).Sugar()
	f.rooms = NewRoomService(registry, allocator, logger, WithBroadcaster(f.broadcaster))
	f.channels = NewChannelService(registry, f.broadcaster, allocator,
		"test-secret", time.Hour, logger,
		WithChannelClock(func() time.Time { return f.now }))
	return f
}

func (f *channelFixture) createRoom(t *testing.T) *ports.CreateRoomResult {
	t.Helper()
	result, err := f.rooms.CreateRoom(context.Background(), createParams("channel room"))
	require.NoError(t, err)
	return result
}

func TestChannelService_JoinChannelRequiresMembership(t *testing.T) {
	f := newChannelFixture(t)
	created := f.createRoom(t)

	_, err := f.channels.JoinChannel(context.Background(), created.Room.ID, "nobody")
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)

	_, err = f.channels.JoinChannel(context.Background(), "999999", created.Creator.ID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestChannelService_TokenRoundTrip(t *testing.T) {
	f := newChannelFixture(t)
	created := f.createRoom(t)

	token, err := f.channels.JoinChannel(context.Background(), created.Room.ID, created.Creator.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	roomID, participantID, err := f.channels.Authorize(token)
	require.NoError(t, err)
	assert.Equal(t, created.Room.ID, roomID)
	assert.Equal(t, created.Creator.ID, participantID)
}

func TestChannelService_AuthorizeRejectsBadTokens(t *testing.T) {
	f := newChannelFixture(t)
	created := f.createRoom(t)

	token, err := f.channels.JoinChannel(context.Background(), created.Room.ID, created.Creator.ID)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, _, err := f.channels.Authorize("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidChannelToken)
	})

	t.Run("tampered signature", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		tampered := parts[0] + "." + parts[1] + "." + "AAAA" + parts[2][4:]
		_, _, err := f.channels.Authorize(tampered)
		assert.ErrorIs(t, err, ErrInvalidChannelToken)
	})

	t.Run("expired", func(t *testing.T) {
		f.now = f.now.Add(2 * time.Hour)
		_, _, err := f.channels.Authorize(token)
		assert.ErrorIs(t, err, ErrInvalidChannelToken)
	})
}

func TestChannelService_PostMessage(t *testing.T) {
	f := newChannelFixture(t)
	created := f.createRoom(t)

	message, err := f.channels.PostMessage(context.Background(), created.Room.ID, created.Creator.ID, "hello room")
	require.NoError(t, err)

	assert.NotEmpty(t, message.ID, "id is assigned server side")
	assert.Equal(t, f.now, message.SentAt, "timestamp is assigned server side")
	assert.Equal(t, created.Room.ID, message.RoomID)
	assert.Equal(t, "host", message.Nickname)
	assert.Equal(t, "hello room", message.Content)

	events := f.broadcaster.types()
	require.NotEmpty(t, events)
	assert.Equal(t, "chat", events[len(events)-1])
}

func TestChannelService_PostMessageValidation(t *testing.T) {
	f := newChannelFixture(t)
	created := f.createRoom(t)

	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"over limit", strings.Repeat("x", domain.MaxMessageLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.channels.PostMessage(context.Background(), created.Room.ID, created.Creator.ID, tt.content)
			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, "content")
		})
	}
}

func TestChannelService_PostMessageGates(t *testing.T) {
	f := newChannelFixture(t)
	created := f.createRoom(t)

	t.Run("missing room", func(t *testing.T) {
		_, err := f.channels.PostMessage(context.Background(), "999999", created.Creator.ID, "hi")
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})

	t.Run("stranger", func(t *testing.T) {
		_, err := f.channels.PostMessage(context.Background(), created.Room.ID, "nobody", "hi")
		assert.ErrorIs(t, err, domain.ErrParticipantNotFound)
	})
}
