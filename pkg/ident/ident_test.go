package ident

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_RoomIDShape(t *testing.T) {
	allocator := NewAllocator()

	for _, length := range []int{4, 6, 8, 10} {
		for i := 0; i < 200; i++ {
			id := allocator.RoomID(length)
			require.Len(t, id, length)
			assert.NotEqual(t, byte('0'), id[0], "leading zero would shrink the id through numeric round-trips")
			for _, c := range id {
				assert.True(t, c >= '0' && c <= '9', "id %q holds a non-digit", id)
			}
		}
	}
}

func TestAllocator_RoomIDDefaultsBadLength(t *testing.T) {
	allocator := NewAllocator()
	assert.Len(t, allocator.RoomID(0), DefaultRoomIDLength)
	assert.Len(t, allocator.RoomID(-3), DefaultRoomIDLength)
}

func TestAllocator_OpaqueID(t *testing.T) {
	allocator := NewAllocator()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := allocator.OpaqueID()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "opaque id %q repeated", id)
		seen[id] = struct{}{}
	}
}
