package memory

import (
	"context"
	"sync"
	"time"

	"watchparty/internal/core/domain"
	"watchparty/internal/core/ports"
)

// idWidening is added to the configured id length after the first round of
// allocation attempts is exhausted.
const idWidening = 2

// RoomRegistry is the exclusive in-process owner of all room aggregates.
// The registry mutex serializes the check-id-then-insert sequence of Create
// against every other create, so two concurrent creators can never claim the
// same id; mutations inside a single room are serialized by the room's own
// lock.
type RoomRegistry struct {
	rooms map[domain.RoomID]*domain.Room
	mu    sync.RWMutex

	allocator  ports.IdentifierAllocator
	idLength   int
	maxRetries int
	now        func() time.Time
}

type Option func(*RoomRegistry)

// WithIDLength overrides the initial room id digit count.
func WithIDLength(length int) Option {
	return func(r *RoomRegistry) { r.idLength = length }
}

// WithMaxRetries overrides the allocation attempts per id length.
func WithMaxRetries(n int) Option {
	return func(r *RoomRegistry) { r.maxRetries = n }
}

// WithClock injects a time source, used by tests for deterministic
// timestamps and playback projections.
func WithClock(now func() time.Time) Option {
	return func(r *RoomRegistry) { r.now = now }
}

func NewRoomRegistry(allocator ports.IdentifierAllocator, opts ...Option) *RoomRegistry {
	r := &RoomRegistry{
		rooms:      make(map[domain.RoomID]*domain.Room),
		allocator:  allocator,
		idLength:   6,
		maxRetries: 100,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create mints an unused room id and inserts the new room in one critical
// section. Allocation runs a bounded retry loop; when a full round at the
// configured length is exhausted the length is widened once and the loop
// runs again. Exhausting the widened round too is an operational fault,
// not a business error.
func (r *RoomRegistry) Create(ctx context.Context, spec ports.CreateRoomSpec) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.allocateLocked(r.idLength)
	if !ok {
		id, ok = r.allocateLocked(r.idLength + idWidening)
	}
	if !ok {
		return nil, domain.ErrAllocationExhausted
	}

	creator := &domain.Participant{
		ID:       domain.ParticipantID(r.allocator.OpaqueID()),
		Nickname: spec.CreatorNickname,
		Role:     domain.RoleCreator,
		Status:   domain.PresenceOnline,
	}
	room := domain.NewRoom(id, spec.Name, spec.Capacity, spec.Password, spec.Announcement, creator, r.now)
	r.rooms[id] = room
	return room, nil
}

// allocateLocked must run under the registry write lock: the membership
// check and the caller's insert form one atomic step.
func (r *RoomRegistry) allocateLocked(length int) (domain.RoomID, bool) {
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		id := domain.RoomID(r.allocator.RoomID(length))
		if _, taken := r.rooms[id]; !taken {
			return id, true
		}
	}
	return "", false
}

func (r *RoomRegistry) GetByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[id]
	if !exists {
		return nil, &domain.NotFoundError{RoomID: id}
	}
	return room, nil
}

func (r *RoomRegistry) Delete(ctx context.Context, id domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[id]; !exists {
		return false
	}
	delete(r.rooms, id)
	return true
}

// Search returns rooms matching the keyword against name or id. Closed
// rooms are excluded unless status filters for them explicitly. Ordering is
// the caller's responsibility.
func (r *RoomRegistry) Search(ctx context.Context, keyword string, status domain.RoomStatus) []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Room
	for _, room := range r.rooms {
		roomStatus := room.Status()
		if status != "" {
			if roomStatus != status {
				continue
			}
		} else if roomStatus == domain.RoomClosed {
			continue
		}
		if !room.Matches(keyword) {
			continue
		}
		matched = append(matched, room)
	}
	return matched
}

func (r *RoomRegistry) Count(ctx context.Context, excludeClosed bool) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !excludeClosed {
		return len(r.rooms)
	}
	count := 0
	for _, room := range r.rooms {
		if room.Status() != domain.RoomClosed {
			count++
		}
	}
	return count
}

func (r *RoomRegistry) Reset(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms = make(map[domain.RoomID]*domain.Room)
}
