package domain

import "time"

const MaxMessageLength = 200

// Message is a chat message relayed through a room's realtime channel. The
// id and timestamp are always assigned server-side; clients never supply
// either.
type Message struct {
	ID            string        `json:"id"`
	RoomID        RoomID        `json:"room_id"`
	ParticipantID ParticipantID `json:"participant_id"`
	Nickname      string        `json:"nickname"`
	Content       string        `json:"content"`
	SentAt        time.Time     `json:"sent_at"`
}
