package domain

import (
	"strings"
	"sync"
	"time"
)

type RoomID string

type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomPlaying RoomStatus = "playing"
	RoomClosed  RoomStatus = "closed"
)

const (
	MinCapacity     = 2
	MaxCapacity     = 100
	DefaultCapacity = 10

	MaxNameLength         = 50
	MaxPasswordLength     = 20
	MaxAnnouncementLength = 500
)

// Room is the consistency boundary of the system: it owns one VideoState and
// one Roster and serializes every mutation behind its own mutex, so the
// capacity-check-then-admit and status-check-then-update sequences are each a
// single critical section. Callers outside this package only ever see deep
// snapshots, never live references into the aggregate.
type Room struct {
	mu sync.Mutex

	id           RoomID
	name         string
	capacity     int
	password     string
	announcement string
	status       RoomStatus
	creatorID    ParticipantID
	createdAt    time.Time
	updatedAt    time.Time

	video  *VideoState
	roster *Roster

	now func() time.Time
}

// NewRoom builds a room with its creator already admitted; there is no
// observable state with zero participants.
func NewRoom(id RoomID, name string, capacity int, password, announcement string, creator *Participant, now func() time.Time) *Room {
	if now == nil {
		now = time.Now
	}
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	ts := now()
	creator.Role = RoleCreator
	creator.JoinedAt = ts
	if creator.Status == "" {
		creator.Status = PresenceOnline
	}
	room := &Room{
		id:           id,
		name:         name,
		capacity:     capacity,
		password:     password,
		announcement: announcement,
		status:       RoomWaiting,
		creatorID:    creator.ID,
		createdAt:    ts,
		updatedAt:    ts,
		video:        NewVideoState(ts),
		roster:       NewRoster(),
		now:          now,
	}
	room.roster.Add(creator)
	return room
}

func (r *Room) ID() RoomID { return r.id }

func (r *Room) CreatorID() ParticipantID { return r.creatorID }

func (r *Room) CreatedAt() time.Time { return r.createdAt }

func (r *Room) Status() RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roster.Size()
}

// Matches reports whether the keyword matches the room name or id,
// case-insensitively. An empty keyword matches everything.
func (r *Room) Matches(keyword string) bool {
	if keyword == "" {
		return true
	}
	keyword = strings.ToLower(keyword)
	r.mu.Lock()
	name := r.name
	r.mu.Unlock()
	return strings.Contains(strings.ToLower(name), keyword) ||
		strings.Contains(strings.ToLower(string(r.id)), keyword)
}

// Admit inserts a participant, enforcing the capacity gate. Re-admitting an
// id already on the roster is an idempotent reconnect and never counts
// against capacity. The returned participant is a snapshot.
func (r *Room) Admit(p *Participant) (*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == RoomClosed {
		return nil, &ClosedError{RoomID: r.id}
	}
	if existing, ok := r.roster.Get(p.ID); ok {
		return existing.Clone(), nil
	}
	if r.roster.Size() >= r.capacity {
		return nil, &FullError{RoomID: r.id, Capacity: r.capacity}
	}
	if p.Role == "" {
		p.Role = RoleViewer
	}
	if p.Status == "" {
		p.Status = PresenceOnline
	}
	p.JoinedAt = r.now()
	r.roster.Add(p)
	r.updatedAt = r.now()
	return p.Clone(), nil
}

// Remove drops a participant from the roster. An absent id is a no-op
// returning false. The room keeps its creatorId even when the creator
// leaves; it simply has no online creator.
func (r *Room) Remove(id ParticipantID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.roster.Remove(id) {
		return false
	}
	r.updatedAt = r.now()
	return true
}

// ValidatePassword never errors: the caller decides what a mismatch means.
// A room without a password admits any candidate, including the empty string.
func (r *Room) ValidatePassword(candidate string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.password == "" {
		return true
	}
	return r.password == candidate
}

// ConfigUpdate carries a partial room reconfiguration. Nil fields are left
// untouched; a non-nil empty password clears the gate.
type ConfigUpdate struct {
	Name         *string
	Capacity     *int
	Password     *string
	Announcement *string
}

// UpdateConfig applies the provided fields. Only the creator may reconfigure
// a room; there is no role inheritance or delegation.
func (r *Room) UpdateConfig(operator ParticipantID, update ConfigUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == RoomClosed {
		return &ClosedError{RoomID: r.id}
	}
	if operator != r.creatorID {
		return &PermissionError{Action: "update room"}
	}
	if update.Name != nil {
		r.name = *update.Name
	}
	if update.Capacity != nil {
		r.capacity = *update.Capacity
	}
	if update.Password != nil {
		r.password = *update.Password
	}
	if update.Announcement != nil {
		r.announcement = *update.Announcement
	}
	r.updatedAt = r.now()
	return nil
}

// Close transitions the room to closed. The transition is irreversible.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == RoomClosed {
		return
	}
	r.status = RoomClosed
	r.updatedAt = r.now()
}

// SetVideo applies a partial playback update. The room status tracks the
// video: playing video puts the room in playing, anything else back to
// waiting.
func (r *Room) SetVideo(update VideoUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == RoomClosed {
		return &ClosedError{RoomID: r.id}
	}
	if !r.video.Apply(update, r.now()) {
		return nil
	}
	if r.video.Status == VideoPlaying {
		r.status = RoomPlaying
	} else {
		r.status = RoomWaiting
	}
	r.updatedAt = r.now()
	return nil
}

// SetConnection updates a participant's transport session ref, flipping the
// presence status accordingly.
func (r *Room) SetConnection(id ParticipantID, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.roster.Get(id)
	if !ok {
		return ErrParticipantNotFound
	}
	p.SetConnection(ref)
	r.updatedAt = r.now()
	return nil
}

// Participant returns a snapshot of one roster entry.
func (r *Room) Participant(id ParticipantID) (*Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.roster.Get(id)
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// VideoView projects the stored video state plus the time-derived position.
type VideoView struct {
	Source          string      `json:"source,omitempty"`
	Status          VideoStatus `json:"status"`
	CurrentProgress float64     `json:"current_progress"`
	PlaybackRate    float64     `json:"playback_rate"`
	SubtitleRef     string      `json:"subtitle_ref,omitempty"`
}

// RoomView is a deep, consistent snapshot of the aggregate taken under the
// room lock. The password itself never leaves the aggregate.
type RoomView struct {
	ID           RoomID        `json:"id"`
	Name         string        `json:"name"`
	Capacity     int           `json:"capacity"`
	HasPassword  bool          `json:"has_password"`
	Announcement string        `json:"announcement,omitempty"`
	Status       RoomStatus    `json:"status"`
	CreatorID    ParticipantID `json:"creator_id"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Video        VideoView     `json:"video"`
	Participants []Participant `json:"participants"`
}

// Snapshot materializes a RoomView at the current instant.
func (r *Room) Snapshot() RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	participants := make([]Participant, 0, r.roster.Size())
	for _, p := range r.roster.List() {
		participants = append(participants, *p)
	}
	return RoomView{
		ID:           r.id,
		Name:         r.name,
		Capacity:     r.capacity,
		HasPassword:  r.password != "",
		Announcement: r.announcement,
		Status:       r.status,
		CreatorID:    r.creatorID,
		CreatedAt:    r.createdAt,
		UpdatedAt:    r.updatedAt,
		Video: VideoView{
			Source:          r.video.Source,
			Status:          r.video.Status,
			CurrentProgress: r.video.CurrentProgress(now),
			PlaybackRate:    r.video.PlaybackRate,
			SubtitleRef:     r.video.SubtitleRef,
		},
		Participants: participants,
	}
}
