package engine

// Rooms tracks per-room membership and occupancy. Rooms are static:
// exactly NumRooms of them exist from startup, addressed on the wire by
// their decimal string form.
//
// Invariant: a session appears in at most one room, and occupancy equals
// the number of registry players whose room field points there. The
// Router maintains both sides under the core goroutine.
type Rooms struct {
	minRoom int
	members map[RoomID]map[SessionID]struct{}
}

// NewRooms creates the static room set for [minRoom, minRoom+numRooms)
func NewRooms(minRoom, numRooms int) *Rooms {
	r := &Rooms{
		minRoom: minRoom,
		members: make(map[RoomID]map[SessionID]struct{}, numRooms),
	}
	for i := minRoom; i < minRoom+numRooms; i++ {
		r.members[RoomIDFor(i)] = make(map[SessionID]struct{})
	}
	return r
}

// Join adds a session to a room
func (r *Rooms) Join(sid SessionID, room RoomID) {
	if set, ok := r.members[room]; ok {
		set[sid] = struct{}{}
	}
}

// Leave removes a session from a room
func (r *Rooms) Leave(sid SessionID, room RoomID) {
	if set, ok := r.members[room]; ok {
		delete(set, sid)
	}
}

// Occupancy returns the number of sessions joined to a room
func (r *Rooms) Occupancy(room RoomID) int {
	return len(r.members[room])
}

// Members returns a snapshot of the sessions in a room
func (r *Rooms) Members(room RoomID) []SessionID {
	set := r.members[room]
	out := make([]SessionID, 0, len(set))
	for sid := range set {
		out = append(out, sid)
	}
	return out
}

// IDs returns every room's wire address in ascending numeric order
func (r *Rooms) IDs() []RoomID {
	out := make([]RoomID, 0, len(r.members))
	for i := r.minRoom; i < r.minRoom+len(r.members); i++ {
		out = append(out, RoomIDFor(i))
	}
	return out
}
