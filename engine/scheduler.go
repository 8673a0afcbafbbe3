package engine

import (
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"

	"github.com/quizpulse/quizpulse/config"
	"github.com/quizpulse/quizpulse/event"
	"github.com/quizpulse/quizpulse/status"
)

// Scheduler consumes clock ticks and drives the Play/Lobby state machine.
// Phase is derived from secs_remaining: Play while it exceeds the lobby
// length, Lobby otherwise. All methods run on the core goroutine.
type Scheduler struct {
	cfg   *config.Config
	clk   clockz.Clock
	reg   *Registry
	rooms *Rooms
	bus   Bus
	log   zerolog.Logger
	met   *status.Metrics

	secs            int
	roundInProgress bool
	lastResults     map[RoomID][]event.LeaderEntry
}

// NewScheduler wires the round state machine to its collaborators
func NewScheduler(cfg *config.Config, clk clockz.Clock, reg *Registry, rooms *Rooms, bus Bus, log zerolog.Logger, met *status.Metrics) *Scheduler {
	return &Scheduler{
		cfg:         cfg,
		clk:         clk,
		reg:         reg,
		rooms:       rooms,
		bus:         bus,
		log:         log.With().Str("component", "scheduler").Logger(),
		met:         met,
		lastResults: make(map[RoomID][]event.LeaderEntry),
	}
}

// SetSecsRemaining seeds the countdown from the clock's startup alignment
func (s *Scheduler) SetSecsRemaining(secs int) { s.secs = secs }

// SecsRemaining reports the countdown to the next round start
func (s *Scheduler) SecsRemaining() int { return s.secs }

// RoundInProgress reports whether the Play phase is active
func (s *Scheduler) RoundInProgress() bool { return s.roundInProgress }

// LastResults returns the most recent round's standings for a room; may
// be empty at startup
func (s *Scheduler) LastResults(room RoomID) []event.LeaderEntry {
	return s.lastResults[room]
}

// HandleTick dispatches one clock tick through the state machine
func (s *Scheduler) HandleTick(t Tick) {
	if t.First {
		s.firstTick()
		return
	}
	s.tick()
}

// firstTick runs once, off the alignment one-shot
func (s *Scheduler) firstTick() {
	if s.secs == 0 {
		s.secs = s.cfg.CycleSecs
	}
	if s.secs <= s.cfg.LobbySecs {
		s.enterLobby()
	} else {
		s.enterPlay()
	}
	s.secs--
}

// tick runs on every recurring firing
func (s *Scheduler) tick() {
	lobby := s.cfg.LobbySecs
	switch {
	case s.secs > lobby:
		s.playTick()
		s.secs--
		if s.secs == lobby {
			s.enterLobby()
		}
	case s.secs == lobby-1:
		s.coarseAdjust()
		s.lobbyTick()
		s.secs--
	default:
		s.lobbyTick()
		if s.secs == 0 {
			s.secs = s.cfg.CycleSecs
			s.enterPlay()
		}
		s.secs--
	}
}

// enterPlay opens a round: scores reset, every connection is told, and
// the first scoreboard goes out immediately
func (s *Scheduler) enterPlay() {
	s.reg.ResetForRound()
	s.roundInProgress = true
	s.met.RoundsTotal.Inc()
	s.log.Info().Int("play_secs", s.cfg.PlaySecs()).Msg("round started")
	s.bus.BroadcastAll(event.RoundStarted, s.cfg.PlaySecs())
	s.playTick()
}

// enterLobby closes a round: standings are frozen per room, every
// connection is told, and the first countdown goes out immediately
func (s *Scheduler) enterLobby() {
	s.roundInProgress = false
	s.log.Info().Int("lobby_secs", s.cfg.LobbySecs).Msg("round ended")
	s.bus.BroadcastAll(event.RoundEnded, s.cfg.LobbySecs)

	for _, room := range s.rooms.IDs() {
		s.lastResults[room] = s.roomLeaders(room)
	}
	for _, room := range s.rooms.IDs() {
		results := s.lastResults[room]
		if s.rooms.Occupancy(room) > 0 && len(results) > 0 {
			s.bus.BroadcastRoom(room, event.RoomRoundResults, results)
		}
	}
	s.lobbyTick()
}

// playTick fans the per-room scoreboard out to every non-empty room
func (s *Scheduler) playTick() {
	timeRemaining := s.secs - s.cfg.LobbySecs
	for _, room := range s.rooms.IDs() {
		if s.rooms.Occupancy(room) == 0 {
			continue
		}
		s.bus.BroadcastRoom(room, event.PlayTimerUpdate, &event.PlayTimerData{
			TimeRemaining: timeRemaining,
			Leaders:       s.roomLeaders(room),
		})
	}
}

// lobbyTick fans the countdown out to every non-empty room
func (s *Scheduler) lobbyTick() {
	for _, room := range s.rooms.IDs() {
		if s.rooms.Occupancy(room) == 0 {
			continue
		}
		s.bus.BroadcastRoom(room, event.LobbyTimerUpdate, s.secs)
	}
}

// coarseAdjust re-times the Lobby once per cycle, one second in. The
// wall clock decides how many whole seconds should remain to the next
// round start; forward skip is capped per cycle so large drift is
// absorbed over several cycles, backward skip at restarting the Lobby.
func (s *Scheduler) coarseAdjust() {
	actual := s.secsToNextCycle()
	if actual == s.secs {
		return
	}
	target := min(s.cfg.LobbySecs, actual)
	floor := s.secs - s.cfg.MaxSkipFwd
	adjusted := max(floor, target)
	s.met.CoarseAdjusts.Inc()
	s.log.Warn().
		Int("secs_remaining", s.secs).
		Int("actual", actual).
		Int("adjusted", adjusted).
		Msg("coarse cadence correction")
	s.secs = adjusted
}

// secsToNextCycle measures the signed whole seconds until the nearest
// cycle boundary. A boundary that slipped into the past reads negative,
// which lets the cap logic pull secs_remaining forward.
func (s *Scheduler) secsToNextCycle() int {
	nowMs := s.clk.Now().UnixMilli()
	cycleMs := int64(s.cfg.CycleSecs) * 1000
	remMs := ceilDiv(nowMs, cycleMs)*cycleMs - nowMs
	if remMs > cycleMs/2 {
		remMs -= cycleMs
	}
	return int(floorDiv(remMs+500, 1000))
}

// roomLeaders builds a room's scoreboard, descending by points. Ties
// break arbitrarily but hold within a single emission.
func (s *Scheduler) roomLeaders(room RoomID) []event.LeaderEntry {
	roomNum, err := strconv.Atoi(string(room))
	if err != nil {
		return nil
	}
	leaders := s.reg.LeadersIn(roomNum)
	sort.SliceStable(leaders, func(i, j int) bool {
		return leaders[i].Points > leaders[j].Points
	})
	return leaders
}

// floorDiv is floored division for positive divisors
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
