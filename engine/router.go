package engine

import (
	"github.com/rs/zerolog"

	"github.com/quizpulse/quizpulse/config"
	"github.com/quizpulse/quizpulse/event"
	"github.com/quizpulse/quizpulse/status"
)

// Router validates inbound client messages and applies them to the
// registry, room manager, and broadcast bus. Error events go to the
// originating session only; the server never terminates on client input.
// All methods run on the core goroutine.
type Router struct {
	cfg   *config.Config
	reg   *Registry
	rooms *Rooms
	sched *Scheduler
	bus   Bus
	log   zerolog.Logger
	met   *status.Metrics
}

// NewRouter wires the message router to its collaborators
func NewRouter(cfg *config.Config, reg *Registry, rooms *Rooms, sched *Scheduler, bus Bus, log zerolog.Logger, met *status.Metrics) *Router {
	return &Router{
		cfg:   cfg,
		reg:   reg,
		rooms: rooms,
		sched: sched,
		bus:   bus,
		log:   log.With().Str("component", "router").Logger(),
		met:   met,
	}
}

// Handle dispatches one inbound envelope for a session
func (r *Router) Handle(sid SessionID, env event.Envelope) {
	r.met.InboundTotal.WithLabelValues(string(env.Event)).Inc()

	switch env.Event {
	case event.ClientReady:
		r.handleClientReady(sid, env)
	case event.ChangeRoom:
		r.handleChangeRoom(sid, env)
	case event.PlayerScored:
		r.handlePlayerScored(sid, env)
	case event.RequestFinalScore:
		r.handleRequestFinalScore(sid)
	case event.Disconnect:
		r.handleDisconnect(sid)
	default:
		r.log.Debug().Str("event", string(env.Event)).Str("session", string(sid)).Msg("ignoring unknown event")
	}
}

// handleClientReady attaches a session to a player and joins its room
func (r *Router) handleClientReady(sid SessionID, env event.Envelope) {
	var data *event.ClientReadyData
	if len(env.Data) > 0 {
		var parsed event.ClientReadyData
		if err := event.DecodeData(env, &parsed); err == nil {
			data = &parsed
		}
	}

	roomNum, roomErr := r.reg.DetermineRoom(data)
	if roomErr != nil {
		r.met.InboundRejected.Inc()
		r.log.Debug().Str("session", string(sid)).Str("reason", roomErr.Str).Msg("rejected client_ready")
		r.bus.EmitTo(sid, event.ErrClientReady, &event.ErrorData{
			ErrorStr:  roomErr.Str,
			UserInput: rawInput(env),
		})
		return
	}

	if p, ok := r.reg.Get(sid); ok {
		// Additional tab on a known session: count the endpoint, nothing else
		p.RefCount++
		r.log.Debug().Str("session", string(sid)).Int("ref_count", p.RefCount).Msg("additional endpoint on session")
		return
	}

	tag := r.reg.DetermineTag(data.Profile)
	player, _ := r.reg.Attach(sid, tag, roomNum, r.sched.RoundInProgress())
	r.met.SessionsActive.Set(float64(r.reg.Len()))
	r.log.Info().
		Str("session", string(sid)).
		Str("tag", tag).
		Int("room", roomNum).
		Bool("incomplete_round", player.IncompleteRound).
		Msg("player attached")

	r.bus.EmitTo(sid, event.ClientConfirmed, player.State())

	room := player.RoomID()
	r.rooms.Join(sid, room)
	r.bus.BroadcastRoomExcept(sid, room, event.GamerEnteredRoom, player.Leader())
	r.bus.EmitTo(sid, event.GamersAlreadyInRoom, &event.RoomRosterData{
		Leaders: r.sched.roomLeaders(room),
	})
	r.syncRound(sid, room)
}

// handleChangeRoom moves a player between difficulty levels.
// The round-sync bundle deliberately carries the old room's last results,
// mirroring a disconnect-then-rejoin sequence.
func (r *Router) handleChangeRoom(sid SessionID, env event.Envelope) {
	var data *event.ClientReadyData
	if len(env.Data) > 0 {
		var parsed event.ClientReadyData
		if err := event.DecodeData(env, &parsed); err == nil {
			data = &parsed
		}
	}

	newRoom, roomErr := r.reg.DetermineRoom(data)
	if roomErr != nil {
		r.met.InboundRejected.Inc()
		r.bus.EmitTo(sid, event.ErrClientReady, &event.ErrorData{
			ErrorStr:  roomErr.Str,
			UserInput: rawInput(env),
		})
		return
	}

	player, ok := r.reg.Get(sid)
	if !ok {
		r.bus.EmitTo(sid, event.ErrUnrecognizedPlayer, &event.ErrorData{
			ErrorStr: "No player is attached to this session",
		})
		return
	}
	if newRoom == player.Room {
		return
	}

	oldRoom := player.RoomID()
	r.rooms.Leave(sid, oldRoom)
	if r.rooms.Occupancy(oldRoom) > 0 {
		r.bus.BroadcastRoom(oldRoom, event.GamerExitedRoom, &event.GamerExitedData{Tag: player.Tag})
	}

	r.reg.SetRoom(sid, newRoom)
	room := player.RoomID()
	r.rooms.Join(sid, room)
	r.log.Info().
		Str("session", string(sid)).
		Str("from", string(oldRoom)).
		Str("to", string(room)).
		Msg("player changed room")

	r.bus.BroadcastRoomExcept(sid, room, event.GamerEnteredRoom, player.Leader())
	r.bus.EmitTo(sid, event.GamersAlreadyInRoom, &event.RoomRosterData{
		Leaders: r.sched.roomLeaders(room),
	})
	r.syncRound(sid, oldRoom)
}

// handleDisconnect releases one endpoint of a session
func (r *Router) handleDisconnect(sid SessionID) {
	player, removed := r.reg.Detach(sid)
	if player == nil {
		return
	}
	if !removed {
		r.log.Debug().Str("session", string(sid)).Int("ref_count", player.RefCount).Msg("endpoint released")
		return
	}

	room := player.RoomID()
	r.rooms.Leave(sid, room)
	if r.rooms.Occupancy(room) > 0 {
		r.bus.BroadcastRoom(room, event.GamerExitedRoom, &event.GamerExitedData{Tag: player.Tag})
	}
	r.met.SessionsActive.Set(float64(r.reg.Len()))
	r.log.Info().Str("session", string(sid)).Str("tag", player.Tag).Msg("player detached")
}

// handlePlayerScored records a score report, Play phase only
func (r *Router) handlePlayerScored(sid SessionID, env event.Envelope) {
	player, ok := r.reg.Get(sid)
	if !ok {
		r.met.InboundRejected.Inc()
		r.bus.EmitTo(sid, event.ErrUnrecognizedPlayer, &event.ErrorData{
			ErrorStr: "No player is attached to this session",
		})
		return
	}

	var data event.PlayerScoredData
	if err := event.DecodeData(env, &data); err != nil || data.Points == nil {
		r.met.InboundRejected.Inc()
		r.bus.EmitTo(sid, event.ErrPlayerScored, &event.ErrorData{
			ErrorStr:  "Score report has no points field",
			UserInput: rawInput(env),
		})
		return
	}

	if !r.sched.RoundInProgress() {
		// Scores are frozen between rounds; not a client-visible error
		r.log.Debug().
			Str("session", string(sid)).
			Str("tag", player.Tag).
			Int("points", *data.Points).
			Msg("score ignored during lobby")
		return
	}

	r.reg.UpdateScore(sid, *data.Points)
}

// handleRequestFinalScore reports the player's standing. Asking mid-round
// forfeits round completion: the player cannot have finished a round they
// cut short.
func (r *Router) handleRequestFinalScore(sid SessionID) {
	player, ok := r.reg.Get(sid)
	if !ok {
		r.met.InboundRejected.Inc()
		r.bus.EmitTo(sid, event.ErrUnrecognizedPlayer, &event.ErrorData{
			ErrorStr: "No player is attached to this session",
		})
		return
	}

	if r.sched.RoundInProgress() {
		player.IncompleteRound = true
	}
	r.bus.EmitTo(sid, event.FinalRoundScore, &event.FinalScoreData{
		Points:        player.Points,
		RoundComplete: !player.IncompleteRound,
	})
}

// syncRound brings a freshly joined session up to date on the round
// phase. During Lobby the given room's last results ride along when
// non-empty.
func (r *Router) syncRound(sid SessionID, resultsRoom RoomID) {
	if r.sched.RoundInProgress() {
		r.bus.EmitTo(sid, event.RoundStarted, r.cfg.PlaySecs())
		return
	}
	r.bus.EmitTo(sid, event.RoundEnded, r.cfg.LobbySecs)
	if results := r.sched.LastResults(resultsRoom); len(results) > 0 {
		r.bus.EmitTo(sid, event.RoomRoundResults, results)
	}
}

// rawInput extracts the offending payload for error echoes
func rawInput(env event.Envelope) any {
	if len(env.Data) == 0 {
		return nil
	}
	return string(env.Data)
}
