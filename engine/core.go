package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"

	"github.com/quizpulse/quizpulse/config"
	"github.com/quizpulse/quizpulse/event"
	"github.com/quizpulse/quizpulse/status"
)

// Core owns every piece of mutable game state — registry, rooms, round
// state, and the tick consumer — and serializes all mutation through a
// single goroutine. The transport feeds it inbound envelopes; the clock
// feeds it ticks; nothing else touches the state.
type Core struct {
	cfg *config.Config
	log zerolog.Logger

	clock  *Clock
	reg    *Registry
	rooms  *Rooms
	sched  *Scheduler
	router *Router
	bus    Bus

	cmds chan func()

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Snapshot is a point-in-time view of the core state for diagnostics
type Snapshot struct {
	Sessions      int            `json:"sessions"`
	Phase         string         `json:"phase"`
	SecsRemaining int            `json:"secs_remaining"`
	Rooms         map[string]int `json:"rooms"`
}

// NewCore assembles the serial context around a broadcast bus
func NewCore(cfg *config.Config, clk clockz.Clock, bus Bus, log zerolog.Logger, met *status.Metrics) *Core {
	reg := NewRegistry(cfg.MinRoom, cfg.NumRooms)
	rooms := NewRooms(cfg.MinRoom, cfg.NumRooms)
	sched := NewScheduler(cfg, clk, reg, rooms, bus, log, met)
	router := NewRouter(cfg, reg, rooms, sched, bus, log, met)
	return &Core{
		cfg:      cfg,
		log:      log.With().Str("component", "core").Logger(),
		clock:    NewClock(clk, cfg, log, met),
		reg:      reg,
		rooms:    rooms,
		sched:    sched,
		router:   router,
		bus:      bus,
		cmds:     make(chan func(), 256),
		stopChan: make(chan struct{}),
	}
}

// Start aligns the clock and launches the serial loop
func (c *Core) Start() {
	initial := c.clock.Start()
	c.sched.SetSecsRemaining(initial)
	c.wg.Add(1)
	go c.run()
}

// Stop halts the clock and drains the serial loop
func (c *Core) Stop() {
	c.stopOnce.Do(func() {
		c.clock.Stop()
		close(c.stopChan)
		c.wg.Wait()
	})
}

// run is the single thread of control for all state mutation
func (c *Core) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopChan:
			return
		case t := <-c.clock.C():
			c.sched.HandleTick(t)
		case cmd := <-c.cmds:
			cmd()
		}
	}
}

// Rooms exposes the authoritative room membership for the transport's
// fan-out snapshots
func (c *Core) Rooms() *Rooms { return c.rooms }

// Dispatch hands an inbound envelope to the router on the core goroutine.
// Safe to call from any goroutine; drops the message during shutdown.
func (c *Core) Dispatch(sid SessionID, env event.Envelope) {
	select {
	case c.cmds <- func() { c.router.Handle(sid, env) }:
	case <-c.stopChan:
	}
}

// Stats reads a consistent snapshot through the serial loop
func (c *Core) Stats(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	cmd := func() {
		snap := Snapshot{
			Sessions:      c.reg.Len(),
			Phase:         "lobby",
			SecsRemaining: c.sched.SecsRemaining(),
			Rooms:         make(map[string]int, c.cfg.NumRooms),
		}
		if c.sched.RoundInProgress() {
			snap.Phase = "play"
		}
		for _, room := range c.rooms.IDs() {
			snap.Rooms[string(room)] = c.rooms.Occupancy(room)
		}
		reply <- snap
	}
	select {
	case c.cmds <- cmd:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-c.stopChan:
		return Snapshot{}, context.Canceled
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-c.stopChan:
		return Snapshot{}, context.Canceled
	}
}
