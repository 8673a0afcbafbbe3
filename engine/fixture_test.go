package engine

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"
	"pgregory.net/rapid"

	"github.com/quizpulse/quizpulse/config"
	"github.com/quizpulse/quizpulse/event"
	"github.com/quizpulse/quizpulse/status"
)

// busCall records one fan-out made through the recording bus
type busCall struct {
	op      string // emit, room, roomExcept, all
	sid     SessionID
	room    RoomID
	name    event.Name
	payload any
}

// recordBus captures every fan-out for assertion
type recordBus struct {
	calls []busCall
}

func (b *recordBus) EmitTo(sid SessionID, name event.Name, payload any) {
	b.calls = append(b.calls, busCall{op: "emit", sid: sid, name: name, payload: payload})
}

func (b *recordBus) BroadcastRoom(room RoomID, name event.Name, payload any) {
	b.calls = append(b.calls, busCall{op: "room", room: room, name: name, payload: payload})
}

func (b *recordBus) BroadcastRoomExcept(sender SessionID, room RoomID, name event.Name, payload any) {
	b.calls = append(b.calls, busCall{op: "roomExcept", sid: sender, room: room, name: name, payload: payload})
}

func (b *recordBus) BroadcastAll(name event.Name, payload any) {
	b.calls = append(b.calls, busCall{op: "all", name: name, payload: payload})
}

func (b *recordBus) reset() { b.calls = nil }

// named returns the recorded calls carrying a given event name
func (b *recordBus) named(name event.Name) []busCall {
	var out []busCall
	for _, c := range b.calls {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// fixture bundles a fully wired engine around a recording bus and fake
// clock
type fixture struct {
	cfg    *config.Config
	fake   *clockz.FakeClock
	bus    *recordBus
	reg    *Registry
	rooms  *Rooms
	sched  *Scheduler
	router *Router
}

func newFixture(t rapid.TB) *fixture {
	t.Helper()
	cfg := config.Default()
	fake := clockz.NewFakeClock()
	bus := &recordBus{}
	reg := NewRegistry(cfg.MinRoom, cfg.NumRooms)
	rooms := NewRooms(cfg.MinRoom, cfg.NumRooms)
	log := zerolog.Nop()
	met := status.NewNop()
	sched := NewScheduler(cfg, fake, reg, rooms, bus, log, met)
	router := NewRouter(cfg, reg, rooms, sched, bus, log, met)
	return &fixture{cfg: cfg, fake: fake, bus: bus, reg: reg, rooms: rooms, sched: sched, router: router}
}

// join registers a session in a room directly, bypassing the router
func (f *fixture) join(sid SessionID, tag string, room int) *Player {
	p, _ := f.reg.Attach(sid, tag, room, f.sched.RoundInProgress())
	f.rooms.Join(sid, RoomIDFor(room))
	return p
}

// alignToBoundaryMinus parks the fake clock the given duration before the
// next cycle boundary
func (f *fixture) alignToBoundaryMinus(before time.Duration) {
	nowMs := f.fake.Now().UnixMilli()
	cycleMs := int64(f.cfg.CycleSecs) * 1000
	rem := ceilDiv(nowMs, cycleMs)*cycleMs - nowMs
	f.fake.Advance(time.Duration(rem)*time.Millisecond + time.Duration(cycleMs)*time.Millisecond - before)
}
