package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomsJoinLeaveOccupancy(t *testing.T) {
	r := NewRooms(0, 4)

	r.Join("s1", "2")
	r.Join("s2", "2")
	r.Join("s3", "0")
	assert.Equal(t, 2, r.Occupancy("2"))
	assert.Equal(t, 1, r.Occupancy("0"))
	assert.Equal(t, 0, r.Occupancy("1"))

	// Joining twice is idempotent
	r.Join("s1", "2")
	assert.Equal(t, 2, r.Occupancy("2"))

	r.Leave("s1", "2")
	assert.Equal(t, 1, r.Occupancy("2"))
	r.Leave("s1", "2")
	assert.Equal(t, 1, r.Occupancy("2"))
}

func TestRoomsUnknownRoomIsNoop(t *testing.T) {
	r := NewRooms(0, 4)

	r.Join("s1", "9")
	r.Join("s1", "")
	assert.Equal(t, 0, r.Occupancy("9"))
	assert.Equal(t, 0, r.Occupancy(""))
	r.Leave("s1", "9")
}

func TestRoomsMembersSnapshot(t *testing.T) {
	r := NewRooms(0, 4)
	r.Join("s1", "1")
	r.Join("s2", "1")

	members := r.Members("1")
	assert.ElementsMatch(t, []SessionID{"s1", "s2"}, members)

	// The snapshot is detached from live membership
	r.Leave("s1", "1")
	assert.Len(t, members, 2)
	assert.Equal(t, 1, r.Occupancy("1"))

	assert.Empty(t, r.Members("3"))
}

func TestRoomsIDsAscending(t *testing.T) {
	r := NewRooms(0, 4)
	assert.Equal(t, []RoomID{"0", "1", "2", "3"}, r.IDs())
}
