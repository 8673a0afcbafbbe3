package network

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/quizpulse/quizpulse/constant"
	"github.com/quizpulse/quizpulse/engine"
	"github.com/quizpulse/quizpulse/event"
)

// Dispatcher receives inbound envelopes off the read pumps. Implemented
// by the engine core.
type Dispatcher interface {
	Dispatch(sid engine.SessionID, env event.Envelope)
}

// Conn is one websocket endpoint bound to a session. A session may hold
// several (multiple tabs); each runs its own read and write pump.
type Conn struct {
	sid  engine.SessionID
	ws   *websocket.Conn
	hub  *Hub
	disp Dispatcher
	log  zerolog.Logger

	send chan []byte
	done chan struct{}

	closeOnce sync.Once

	// confirmed flips when the endpoint forwards a client_ready; only
	// confirmed endpoints emit a disconnect, keeping refcounts honest
	confirmed atomic.Bool
}

func newConn(sid engine.SessionID, ws *websocket.Conn, hub *Hub, disp Dispatcher, log zerolog.Logger) *Conn {
	return &Conn{
		sid:  sid,
		ws:   ws,
		hub:  hub,
		disp: disp,
		log:  log.With().Str("session", string(sid)).Str("remote", ws.RemoteAddr().String()).Logger(),
		send: make(chan []byte, constant.SendQueueSize),
		done: make(chan struct{}),
	}
}

// start launches the pumps; returns immediately
func (c *Conn) start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the endpoint down; safe to call multiple times
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// enqueue hands a pre-encoded frame to the write pump. Never blocks: a
// full queue means the endpoint cannot keep up and is considered gone.
func (c *Conn) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	case <-c.done:
	default:
		c.hub.met.FramesDropped.Inc()
		c.log.Warn().Msg("send queue overflow, dropping endpoint")
		c.Close()
	}
}

// readPump decodes inbound frames and forwards them to the core.
// Runs until the endpoint errors or closes, then emits the disconnect.
func (c *Conn) readPump() {
	defer c.cleanup()

	c.ws.SetReadLimit(constant.MaxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(constant.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(constant.PongTimeout))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("read error")
			}
			return
		}

		env, err := event.DecodeEnvelope(data)
		if err != nil {
			c.log.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}
		// The disconnect event belongs to the transport, never the wire
		if env.Event == event.Disconnect {
			continue
		}
		if env.Event == event.ClientReady {
			c.confirmed.Store(true)
		}
		c.disp.Dispatch(c.sid, env)
	}
}

// writePump writes queued frames and keeps the endpoint alive with pings
func (c *Conn) writePump() {
	ticker := time.NewTicker(constant.PingInterval)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case <-c.done:
			return

		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(constant.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				// Endpoint is gone; the read pump's exit cleans up
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(constant.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// cleanup runs once when the read pump exits: deregister, then surface
// the disconnect to the core for registry cleanup
func (c *Conn) cleanup() {
	c.Close()
	c.hub.removeEndpoint(c)
	if c.confirmed.Load() {
		c.disp.Dispatch(c.sid, event.Envelope{Event: event.Disconnect})
	}
	c.log.Debug().Msg("endpoint closed")
}
