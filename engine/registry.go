package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quizpulse/quizpulse/event"
)

// Player is the single authoritative record for a confirmed session.
// The per-session view held by the transport is a lookup into the
// registry, never a copy.
type Player struct {
	Tag             string
	Room            int
	Points          int
	IncompleteRound bool
	RefCount        int
}

// RoomID returns the player's room wire address
func (p *Player) RoomID() RoomID {
	return RoomIDFor(p.Room)
}

// Leader returns the player's scoreboard row
func (p *Player) Leader() event.LeaderEntry {
	return event.LeaderEntry{Tag: p.Tag, Points: p.Points}
}

// State returns the full record as a wire payload
func (p *Player) State() *event.PlayerState {
	return &event.PlayerState{
		Tag:             p.Tag,
		Points:          p.Points,
		Room:            string(p.RoomID()),
		IncompleteRound: p.IncompleteRound,
		RefCount:        p.RefCount,
	}
}

// RoomErrorKind classifies profile validation failures, in the order the
// checks run
type RoomErrorKind int

const (
	RoomErrMissingRequest RoomErrorKind = iota
	RoomErrMissingProfile
	RoomErrMissingRoom
	RoomErrNotInteger
	RoomErrOutOfRange
)

// RoomError carries the client-facing rejection string for a bad profile
type RoomError struct {
	Kind RoomErrorKind
	Str  string
}

func (e *RoomError) Error() string { return e.Str }

// Registry maps session identity to player records and owns the guest
// name counter. All methods run on the core goroutine.
type Registry struct {
	minRoom  int
	numRooms int

	players   map[SessionID]*Player
	nextGuest int
}

// NewRegistry creates an empty registry for the given room range
func NewRegistry(minRoom, numRooms int) *Registry {
	return &Registry{
		minRoom:  minRoom,
		numRooms: numRooms,
		players:  make(map[SessionID]*Player),
	}
}

// Get returns the player bound to a session, if any
func (r *Registry) Get(sid SessionID) (*Player, bool) {
	p, ok := r.players[sid]
	return p, ok
}

// Len returns the number of registered sessions
func (r *Registry) Len() int { return len(r.players) }

// Attach binds a session to a new player record, or increments the
// refcount when the session is already present (an additional tab).
// Returns the record and whether it already existed.
func (r *Registry) Attach(sid SessionID, tag string, room int, roundInProgress bool) (*Player, bool) {
	if p, ok := r.players[sid]; ok {
		p.RefCount++
		return p, true
	}
	p := &Player{
		Tag:             tag,
		Room:            room,
		Points:          0,
		IncompleteRound: roundInProgress,
		RefCount:        1,
	}
	r.players[sid] = p
	return p, false
}

// Detach decrements a session's refcount, removing the record at zero.
// Returns the record and whether it was removed. Absent sessions are a
// no-op.
func (r *Registry) Detach(sid SessionID) (*Player, bool) {
	p, ok := r.players[sid]
	if !ok {
		return nil, false
	}
	p.RefCount--
	if p.RefCount > 0 {
		return p, false
	}
	delete(r.players, sid)
	return p, true
}

// UpdateScore sets a player's points. The caller gates on round phase;
// the registry only mutates.
func (r *Registry) UpdateScore(sid SessionID, points int) bool {
	p, ok := r.players[sid]
	if !ok {
		return false
	}
	p.Points = points
	return true
}

// SetRoom changes a player's room field
func (r *Registry) SetRoom(sid SessionID, room int) {
	if p, ok := r.players[sid]; ok {
		p.Room = room
	}
}

// ResetForRound zeroes every score and clears incomplete_round at the
// instant Play begins
func (r *Registry) ResetForRound() {
	for _, p := range r.players {
		p.Points = 0
		p.IncompleteRound = false
	}
}

// LeadersIn returns the scoreboard rows for every player in a room,
// unsorted
func (r *Registry) LeadersIn(room int) []event.LeaderEntry {
	var out []event.LeaderEntry
	for _, p := range r.players {
		if p.Room == room {
			out = append(out, p.Leader())
		}
	}
	return out
}

// DetermineRoom validates the profile and returns the requested room
// number. Checks run in a fixed order; the first failure wins.
func (r *Registry) DetermineRoom(data *event.ClientReadyData) (int, *RoomError) {
	if data == nil {
		return 0, &RoomError{RoomErrMissingRequest, "Missing request data"}
	}
	if data.Profile == nil {
		return 0, &RoomError{RoomErrMissingProfile, "Missing profile"}
	}
	if data.Profile.Room == nil || strings.TrimSpace(string(*data.Profile.Room)) == "" {
		return 0, &RoomError{RoomErrMissingRoom, "Missing difficulty level"}
	}
	room, err := strconv.Atoi(strings.TrimSpace(string(*data.Profile.Room)))
	if err != nil {
		return 0, &RoomError{RoomErrNotInteger, "Difficulty level is not an integer"}
	}
	if room < r.minRoom || room >= r.minRoom+r.numRooms {
		return 0, &RoomError{RoomErrOutOfRange, "Difficulty level is out of range"}
	}
	return room, nil
}

// DetermineTag returns the client-supplied display tag, synthesizing a
// guest name when it is missing or whitespace. The guest counter
// increments on every synthesis.
func (r *Registry) DetermineTag(profile *event.Profile) string {
	if profile != nil && profile.Tag != nil {
		if tag := strings.TrimSpace(*profile.Tag); tag != "" {
			return tag
		}
	}
	r.nextGuest++
	return fmt.Sprintf("Guest %d", r.nextGuest)
}
