package ports

import (
	"context"
	"time"

	"watchparty/internal/core/domain"
)

// CreateRoomParams is the raw input for room creation. Capacity is optional;
// nil means the configured default.
type CreateRoomParams struct {
	Name            string
	Capacity        *int
	Password        string
	Announcement    string
	CreatorNickname string
}

type ParticipantInfo struct {
	ID       domain.ParticipantID `json:"id"`
	Nickname string               `json:"nickname"`
	Role     domain.Role          `json:"role"`
}

type CreateRoomResult struct {
	Room    domain.RoomView `json:"room"`
	Creator ParticipantInfo `json:"creator"`
}

type JoinRoomResult struct {
	Room        domain.RoomView `json:"room"`
	Participant ParticipantInfo `json:"participant"`
}

// RoomSummary is the list projection: it omits the announcement, video state
// and participant roster.
type RoomSummary struct {
	ID           domain.RoomID     `json:"id"`
	Name         string            `json:"name"`
	Status       domain.RoomStatus `json:"status"`
	Capacity     int               `json:"capacity"`
	CurrentCount int               `json:"current_count"`
	HasPassword  bool              `json:"has_password"`
	CreatedAt    time.Time         `json:"created_at"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type ListRoomsParams struct {
	Keyword  string
	Status   string
	Page     int
	PageSize int
}

type ListRoomsResult struct {
	List       []RoomSummary `json:"list"`
	Pagination Pagination    `json:"pagination"`
}

// UpdateRoomParams is a partial reconfiguration; nil fields stay untouched.
// A non-nil empty password clears the gate.
type UpdateRoomParams struct {
	Name         *string
	Capacity     *int
	Password     *string
	Announcement *string
}

// VideoUpdateParams is a partial playback-state update.
type VideoUpdateParams struct {
	Source       *string
	Status       *string
	Progress     *float64
	PlaybackRate *float64
	SubtitleRef  *string
}

type Stats struct {
	TotalRooms        int `json:"total_rooms"`
	TotalParticipants int `json:"total_participants"`
	WaitingRooms      int `json:"waiting_rooms"`
	PlayingRooms      int `json:"playing_rooms"`
}

// RoomService orchestrates the room lifecycle use cases. Every operation
// validates its raw input fully before mutating anything and translates
// domain outcomes into the tagged error vocabulary.
type RoomService interface {
	CreateRoom(ctx context.Context, params CreateRoomParams) (*CreateRoomResult, error)
	ListRooms(ctx context.Context, params ListRoomsParams) (*ListRoomsResult, error)
	GetRoom(ctx context.Context, roomID domain.RoomID) (*domain.RoomView, error)
	VerifyPassword(ctx context.Context, roomID domain.RoomID, password string) (bool, error)
	JoinRoom(ctx context.Context, roomID domain.RoomID, nickname, password string) (*JoinRoomResult, error)
	LeaveRoom(ctx context.Context, roomID domain.RoomID, participantID domain.ParticipantID) (bool, error)
	DissolveRoom(ctx context.Context, roomID domain.RoomID, operatorID domain.ParticipantID) (bool, error)
	UpdateRoom(ctx context.Context, roomID domain.RoomID, operatorID domain.ParticipantID, params UpdateRoomParams) (*domain.RoomView, error)
	UpdateVideo(ctx context.Context, roomID domain.RoomID, operatorID domain.ParticipantID, params VideoUpdateParams) (*domain.VideoView, error)
	SetConnection(ctx context.Context, roomID domain.RoomID, participantID domain.ParticipantID, ref string) error
	Stats(ctx context.Context) (*Stats, error)
}

// ChannelService is the realtime collaborator surface consumed by the
// websocket gateway.
type ChannelService interface {
	// JoinChannel mints a channel token for a participant already present
	// in the room.
	JoinChannel(ctx context.Context, roomID domain.RoomID, participantID domain.ParticipantID) (string, error)
	// Authorize verifies a channel token and returns the room and
	// participant it was minted for.
	Authorize(token string) (domain.RoomID, domain.ParticipantID, error)
	// PostMessage relays a chat message to the room's listeners. The id
	// and timestamp are assigned here.
	PostMessage(ctx context.Context, roomID domain.RoomID, participantID domain.ParticipantID, content string) (*domain.Message, error)
}

// Event is the envelope broadcast to a room's realtime listeners.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Broadcaster fans a payload out to every listener attached to a room.
type Broadcaster interface {
	Broadcast(roomID domain.RoomID, payload interface{})
}
