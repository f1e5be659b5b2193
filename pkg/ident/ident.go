package ident

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// DefaultRoomIDLength is the digit count of freshly minted room ids.
const DefaultRoomIDLength = 6

// Allocator produces short numeric room identifiers and opaque participant
// tokens. Room ids are NOT unique by construction; the registry enforces
// uniqueness and may call RoomID repeatedly until an unused value comes up.
type Allocator struct{}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// RoomID returns a numeric string of the given length. The first digit is
// never zero so the id length is stable through numeric round-trips.
func (a *Allocator) RoomID(length int) string {
	if length < 1 {
		length = DefaultRoomIDLength
	}
	buf := make([]byte, length)
	rand.Read(buf)
	digits := make([]byte, length)
	digits[0] = '1' + buf[0]%9
	for i := 1; i < length; i++ {
		digits[i] = '0' + buf[i]%10
	}
	return string(digits)
}

// OpaqueID returns a random 128-bit token for participants, creators and
// messages. No uniqueness check is needed at this strength.
func (a *Allocator) OpaqueID() string {
	return uuid.NewString()
}
