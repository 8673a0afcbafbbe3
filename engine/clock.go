package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"

	"github.com/quizpulse/quizpulse/config"
	"github.com/quizpulse/quizpulse/status"
)

// Tick is one firing of the cadence engine
type Tick struct {
	At    time.Time
	First bool
}

// Clock is the self-calibrating once-per-second tick source. It schedules
// a one-shot aligned to the next cycle boundary, chains it into a
// recurring timer, and after every tick re-selects the recurring interval
// from a small discrete set so firings stay near the whole-second mark.
//
// The clock never fails; it self-corrects. Skew too large for fine
// calibration is absorbed by the Scheduler's coarse adjustment, not here.
type Clock struct {
	clk clockz.Clock
	cfg *config.Config
	log zerolog.Logger
	met *status.Metrics

	ticks chan Tick

	// interval holds the active recurring interval in nanoseconds,
	// zero when stopped (not set)
	interval atomic.Int64

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool
}

// NewClock creates a stopped clock
func NewClock(clk clockz.Clock, cfg *config.Config, log zerolog.Logger, met *status.Metrics) *Clock {
	return &Clock{
		clk:      clk,
		cfg:      cfg,
		log:      log.With().Str("component", "clock").Logger(),
		met:      met,
		ticks:    make(chan Tick, 1),
		stopChan: make(chan struct{}),
	}
}

// C delivers ticks to the single consumer
func (c *Clock) C() <-chan Tick { return c.ticks }

// Interval reports the active recurring interval, zero when stopped
func (c *Clock) Interval() time.Duration {
	return time.Duration(c.interval.Load())
}

// Start computes the alignment one-shot and launches the timer chain.
// Returns the initial secs_remaining derived from the wall clock.
func (c *Clock) Start() int {
	if !c.running.CompareAndSwap(false, true) {
		return 0
	}

	nowMs := c.clk.Now().UnixMilli()
	cycleMs := int64(c.cfg.CycleSecs) * 1000
	nextCycle := ceilDiv(nowMs, cycleMs) * cycleMs
	delay := time.Duration(nextCycle-nowMs)*time.Millisecond + c.cfg.InitOffset()
	initialSecs := int((nextCycle - nowMs) / 1000)

	c.log.Info().
		Int("initial_secs", initialSecs).
		Dur("first_tick_in", delay).
		Msg("cadence aligned to next cycle boundary")

	c.wg.Add(1)
	go c.run(delay)

	return initialSecs
}

// Stop cancels the pending one-shot and the recurring timer. This is the
// only sanctioned shutdown path for the cadence engine.
func (c *Clock) Stop() {
	c.stopOnce.Do(func() {
		if c.running.CompareAndSwap(true, false) {
			close(c.stopChan)
			c.wg.Wait()
			c.interval.Store(0)
		}
	})
}

// run executes the one-shot then the self-recalibrating recurring chain
func (c *Clock) run(delay time.Duration) {
	defer c.wg.Done()

	if delay < 0 {
		delay = 0
	}
	oneShot := c.clk.NewTimer(delay)
	select {
	case <-c.stopChan:
		oneShot.Stop()
		return
	case <-oneShot.C():
	}

	if !c.emit(true) {
		return
	}

	c.interval.Store(int64(c.cfg.Normal()))
	ticker := c.clk.NewTicker(c.cfg.Normal())
	defer func() { ticker.Stop() }()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C():
			if !c.emit(false) {
				return
			}
			// Fine calibration: the dispatch above has completed, so the
			// firing offset measured now reflects this tick
			next := c.chooseInterval(calibrationErr(c.clk.Now().UnixMilli()))
			if cur := time.Duration(c.interval.Load()); next != cur {
				ticker.Stop()
				ticker = c.clk.NewTicker(next)
				c.interval.Store(int64(next))
				c.met.IntervalSwitches.Inc()
				c.log.Debug().
					Dur("from", cur).
					Dur("to", next).
					Msg("recalibrated tick interval")
			}
		}
	}
}

// emit delivers one tick, blocking until the consumer takes it so state
// mutation stays serialized behind the core goroutine
func (c *Clock) emit(first bool) bool {
	select {
	case c.ticks <- Tick{At: c.clk.Now(), First: first}:
		c.met.TicksTotal.Inc()
		return true
	case <-c.stopChan:
		return false
	}
}

// chooseInterval selects the recurring interval for a signed millisecond
// offset from the nearest whole second
func (c *Clock) chooseInterval(errMs int64) time.Duration {
	large := int64(c.cfg.ErrLargeMs)
	small := int64(c.cfg.ErrMs)
	switch {
	case c.cfg.LargeSkew && errMs > large:
		return c.cfg.Faster()
	case c.cfg.LargeSkew && errMs < -large:
		return c.cfg.Slower()
	case errMs > small:
		return c.cfg.Fast()
	case errMs < -small:
		return c.cfg.Slow()
	default:
		return c.cfg.Normal()
	}
}

// calibrationErr maps epoch milliseconds to the signed offset from the
// nearest whole second, in [-500, 499]
func calibrationErr(ms int64) int64 {
	m := (ms + 500) % 1000
	if m < 0 {
		m += 1000
	}
	return m - 500
}

// ceilDiv is ceiling division for positive divisors
func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a > 0) == (b > 0) {
		q++
	}
	return q
}
