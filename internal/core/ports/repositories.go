package ports

import (
	"context"

	"watchparty/internal/core/domain"
)

// IdentifierAllocator mints room and participant identifiers. Room ids are
// not guaranteed unique by the allocator; the registry owns the uniqueness
// loop and may call RoomID repeatedly.
type IdentifierAllocator interface {
	// RoomID returns a numeric string of the given length, first digit
	// non-zero.
	RoomID(length int) string
	// OpaqueID returns a random 128-bit-strength token. Collision
	// probability is negligible; no uniqueness check is performed.
	OpaqueID() string
}

// CreateRoomSpec carries the already-validated inputs for building a room.
type CreateRoomSpec struct {
	Name            string
	Capacity        int
	Password        string
	Announcement    string
	CreatorNickname string
}

// RoomRegistry is the process-wide keyed store of room aggregates. It owns
// identifier allocation and the create-check-then-insert critical section;
// per-room mutation ordering is owned by the rooms themselves.
type RoomRegistry interface {
	// Create allocates a collision-free room id, builds the room with its
	// creator already admitted, and inserts it atomically with the id check.
	// Exhausting the bounded allocation retries returns
	// domain.ErrAllocationExhausted.
	Create(ctx context.Context, spec CreateRoomSpec) (*domain.Room, error)
	// GetByID looks a room up without mutating anything.
	GetByID(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	// Delete removes a room and reports whether it existed.
	Delete(ctx context.Context, id domain.RoomID) bool
	// Search returns rooms matching the keyword and status filter. Closed
	// rooms are excluded unless asked for explicitly; ordering is the
	// caller's responsibility.
	Search(ctx context.Context, keyword string, status domain.RoomStatus) []*domain.Room
	// Count returns the number of stored rooms.
	Count(ctx context.Context, excludeClosed bool) int
	// Reset drops every room. Intended for test isolation.
	Reset(ctx context.Context)
}
