package network

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/quizpulse/quizpulse/engine"
	"github.com/quizpulse/quizpulse/event"
	"github.com/quizpulse/quizpulse/status"
)

// MemberLister resolves a room's current sessions. Implemented by the
// engine's room manager; calls are only valid on the core goroutine.
type MemberLister interface {
	Members(room engine.RoomID) []engine.SessionID
}

// Hub is the broadcast bus: it tracks live endpoints per session and
// fans encoded frames out to them. Room-targeted methods snapshot
// membership synchronously (they run on the core goroutine); the actual
// writes happen on each endpoint's write pump.
type Hub struct {
	log zerolog.Logger
	met *status.Metrics

	members MemberLister

	mu        sync.RWMutex
	endpoints map[engine.SessionID]map[*Conn]struct{}
}

// NewHub creates an empty hub; BindMembers must be called before any
// room-targeted broadcast
func NewHub(log zerolog.Logger, met *status.Metrics) *Hub {
	return &Hub{
		log:       log.With().Str("component", "hub").Logger(),
		met:       met,
		endpoints: make(map[engine.SessionID]map[*Conn]struct{}),
	}
}

// BindMembers wires the hub to the authoritative room membership
func (h *Hub) BindMembers(members MemberLister) {
	h.members = members
}

// addEndpoint registers a live connection under its session
func (h *Hub) addEndpoint(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.endpoints[c.sid]
	if !ok {
		set = make(map[*Conn]struct{})
		h.endpoints[c.sid] = set
	}
	set[c] = struct{}{}
	h.met.EndpointsActive.Inc()
}

// removeEndpoint drops a connection, pruning the session entry when the
// last endpoint goes
func (h *Hub) removeEndpoint(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.endpoints[c.sid]
	if !ok {
		return
	}
	if _, present := set[c]; !present {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.endpoints, c.sid)
	}
	h.met.EndpointsActive.Dec()
}

// EmitTo implements engine.Bus
func (h *Hub) EmitTo(sid engine.SessionID, name event.Name, payload any) {
	frame, err := event.EncodeFrame(name, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", string(name)).Msg("frame encode failed")
		return
	}
	h.met.BroadcastsTotal.WithLabelValues(string(name)).Inc()
	h.sendToSessions([]engine.SessionID{sid}, frame)
}

// BroadcastRoom implements engine.Bus. Empty rooms are suppressed; an
// unset RoomID is refused outright so a default-value room can never
// reach every connection.
func (h *Hub) BroadcastRoom(room engine.RoomID, name event.Name, payload any) {
	if room == "" {
		h.log.Error().Str("event", string(name)).Msg("refusing broadcast to unset room id")
		return
	}
	members := h.members.Members(room)
	if len(members) == 0 {
		return
	}
	frame, err := event.EncodeFrame(name, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", string(name)).Msg("frame encode failed")
		return
	}
	h.met.BroadcastsTotal.WithLabelValues(string(name)).Inc()
	h.sendToSessions(members, frame)
}

// BroadcastRoomExcept implements engine.Bus
func (h *Hub) BroadcastRoomExcept(sender engine.SessionID, room engine.RoomID, name event.Name, payload any) {
	if room == "" {
		h.log.Error().Str("event", string(name)).Msg("refusing broadcast to unset room id")
		return
	}
	members := h.members.Members(room)
	targets := members[:0:0]
	for _, sid := range members {
		if sid != sender {
			targets = append(targets, sid)
		}
	}
	if len(targets) == 0 {
		return
	}
	frame, err := event.EncodeFrame(name, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", string(name)).Msg("frame encode failed")
		return
	}
	h.met.BroadcastsTotal.WithLabelValues(string(name)).Inc()
	h.sendToSessions(targets, frame)
}

// BroadcastAll implements engine.Bus
func (h *Hub) BroadcastAll(name event.Name, payload any) {
	frame, err := event.EncodeFrame(name, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", string(name)).Msg("frame encode failed")
		return
	}
	h.met.BroadcastsTotal.WithLabelValues(string(name)).Inc()

	h.mu.RLock()
	var conns []*Conn
	for _, set := range h.endpoints {
		for c := range set {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.enqueue(frame)
	}
}

// CloseAll tears down every endpoint, used at shutdown
func (h *Hub) CloseAll() {
	h.mu.Lock()
	var conns []*Conn
	for _, set := range h.endpoints {
		for c := range set {
			conns = append(conns, c)
		}
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// sendToSessions enqueues a frame on every endpoint of the given sessions
func (h *Hub) sendToSessions(sids []engine.SessionID, frame []byte) {
	h.mu.RLock()
	var conns []*Conn
	for _, sid := range sids {
		for c := range h.endpoints[sid] {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.enqueue(frame)
	}
}
