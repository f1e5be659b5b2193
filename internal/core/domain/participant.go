package domain

import "time"

type ParticipantID string

type Role string

const (
	RoleCreator Role = "creator"
	RoleViewer  Role = "viewer"
)

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
)

type Participant struct {
	ID            ParticipantID  `json:"id"`
	Nickname      string         `json:"nickname"`
	Role          Role           `json:"role"`
	Status        PresenceStatus `json:"status"`
	JoinedAt      time.Time      `json:"joined_at"`
	ConnectionRef string         `json:"-"`
}

// SetConnection attaches or detaches a realtime transport session. An empty
// ref means the participant went offline, a non-empty ref means online.
func (p *Participant) SetConnection(ref string) {
	p.ConnectionRef = ref
	if ref == "" {
		p.Status = PresenceOffline
	} else {
		p.Status = PresenceOnline
	}
}

func (p *Participant) Clone() *Participant {
	clone := *p
	return &clone
}

// Roster is an insertion-ordered collection of participants owned by exactly
// one room. It is not safe for concurrent use; the owning Room serializes
// access.
type Roster struct {
	order []ParticipantID
	byID  map[ParticipantID]*Participant
}

func NewRoster() *Roster {
	return &Roster{byID: make(map[ParticipantID]*Participant)}
}

// Add inserts a participant, keeping arrival order. Adding an id that is
// already present is a no-op returning the existing entry.
func (r *Roster) Add(p *Participant) *Participant {
	if existing, ok := r.byID[p.ID]; ok {
		return existing
	}
	r.byID[p.ID] = p
	r.order = append(r.order, p.ID)
	return p
}

func (r *Roster) Remove(id ParticipantID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Roster) Get(id ParticipantID) (*Participant, bool) {
	p, ok := r.byID[id]
	return p, ok
}

func (r *Roster) Size() int {
	return len(r.order)
}

// List returns the participants in insertion order.
func (r *Roster) List() []*Participant {
	out := make([]*Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
