package engine

import (
	"strconv"

	"github.com/quizpulse/quizpulse/event"
)

// SessionID is the persistent client identity. One session may hold
// several live endpoints (browser tabs); the registry refcounts them.
type SessionID string

// RoomID is a room's wire address. It is a distinct string type so the
// fan-out boundary can never receive a raw integer: the underlying
// transport treats integer zero as "all connections", and a default-value
// RoomID must stay an invalid empty string rather than room 0.
type RoomID string

// RoomIDFor renders a room number as its wire address
func RoomIDFor(room int) RoomID {
	return RoomID(strconv.Itoa(room))
}

// Bus is the targeted message fan-out used by the scheduler and router.
// Implementations snapshot membership synchronously when called (all calls
// happen on the core goroutine) and may parallelize the per-endpoint
// writes. Delivery is best-effort: a failed write means the endpoint is
// gone and its disconnect will clean up.
type Bus interface {
	// EmitTo sends to every endpoint of a single session
	EmitTo(sid SessionID, name event.Name, payload any)

	// BroadcastRoom sends to every session in the room
	BroadcastRoom(room RoomID, name event.Name, payload any)

	// BroadcastRoomExcept sends to every session in the room but the sender
	BroadcastRoomExcept(sender SessionID, room RoomID, name event.Name, payload any)

	// BroadcastAll sends to every connected endpoint
	BroadcastAll(name event.Name, payload any)
}
