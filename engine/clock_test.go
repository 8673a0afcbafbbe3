package engine

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"

	"github.com/quizpulse/quizpulse/config"
	"github.com/quizpulse/quizpulse/status"
)

func testClock(t *testing.T, cfg *config.Config) (*Clock, *clockz.FakeClock) {
	t.Helper()
	fake := clockz.NewFakeClock()

	// Park the fake clock 30s past a cycle boundary so the startup
	// alignment is deterministic regardless of the fake's base time
	nowMs := fake.Now().UnixMilli()
	cycleMs := int64(cfg.CycleSecs) * 1000
	rem := ceilDiv(nowMs, cycleMs)*cycleMs - nowMs
	fake.Advance(time.Duration(rem)*time.Millisecond + 30*time.Second)

	c := NewClock(fake, cfg, zerolog.Nop(), status.NewNop())
	t.Cleanup(c.Stop)
	return c, fake
}

// firstTickDelay mirrors the startup alignment math for the fake clock's
// current time
func firstTickDelay(fake *clockz.FakeClock, cfg *config.Config) time.Duration {
	nowMs := fake.Now().UnixMilli()
	cycleMs := int64(cfg.CycleSecs) * 1000
	next := ceilDiv(nowMs, cycleMs) * cycleMs
	return time.Duration(next-nowMs)*time.Millisecond + cfg.InitOffset()
}

func recvTick(t *testing.T, c *Clock) Tick {
	t.Helper()
	select {
	case tick := <-c.C():
		return tick
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
		return Tick{}
	}
}

func TestCalibrationErr(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		want int64
	}{
		{"on the second", 10_000, 0},
		{"slightly late", 10_020, 20},
		{"slightly early", 9_985, -15},
		{"max positive", 10_499, 499},
		{"max negative", 9_500, -500},
		{"wraps at half", 10_500, -500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calibrationErr(tt.ms); got != tt.want {
				t.Errorf("calibrationErr(%d) = %d, want %d", tt.ms, got, tt.want)
			}
		})
	}
}

func TestChooseInterval(t *testing.T) {
	cfg := config.Default()
	c, _ := testClock(t, cfg)

	tests := []struct {
		name  string
		errMs int64
		want  time.Duration
	}{
		{"centered", 0, cfg.Normal()},
		{"within threshold", 10, cfg.Normal()},
		{"late", 11, cfg.Fast()},
		{"early", -11, cfg.Slow()},
		{"very late without large skew", 400, cfg.Fast()},
		{"very early without large skew", -400, cfg.Slow()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.chooseInterval(tt.errMs); got != tt.want {
				t.Errorf("chooseInterval(%d) = %v, want %v", tt.errMs, got, tt.want)
			}
		})
	}
}

func TestChooseIntervalLargeSkew(t *testing.T) {
	cfg := config.Default()
	cfg.LargeSkew = true
	c, _ := testClock(t, cfg)

	tests := []struct {
		name  string
		errMs int64
		want  time.Duration
	}{
		{"very late", 26, cfg.Faster()},
		{"very early", -26, cfg.Slower()},
		{"moderately late", 20, cfg.Fast()},
		{"moderately early", -20, cfg.Slow()},
		{"centered", 0, cfg.Normal()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.chooseInterval(tt.errMs); got != tt.want {
				t.Errorf("chooseInterval(%d) = %v, want %v", tt.errMs, got, tt.want)
			}
		})
	}
}

func TestClockStartReportsInitialSecs(t *testing.T) {
	cfg := config.Default()
	c, fake := testClock(t, cfg)

	nowMs := fake.Now().UnixMilli()
	cycleMs := int64(cfg.CycleSecs) * 1000
	want := int((ceilDiv(nowMs, cycleMs)*cycleMs - nowMs) / 1000)

	if got := c.Start(); got != want {
		t.Errorf("Start() = %d, want %d", got, want)
	}
}

func TestClockFirstTickAlignedToBoundary(t *testing.T) {
	cfg := config.Default()
	c, fake := testClock(t, cfg)
	delay := firstTickDelay(fake, cfg)

	c.Start()
	time.Sleep(20 * time.Millisecond) // let the run goroutine arm the one-shot

	fake.Advance(delay)
	fake.BlockUntilReady()

	tick := recvTick(t, c)
	if !tick.First {
		t.Error("expected first tick to be marked First")
	}
	if got := c.Interval(); got != cfg.Normal() {
		t.Errorf("interval after first tick = %v, want %v", got, cfg.Normal())
	}
}

func TestClockRecurringTicks(t *testing.T) {
	cfg := config.Default()
	c, fake := testClock(t, cfg)
	delay := firstTickDelay(fake, cfg)

	c.Start()
	time.Sleep(20 * time.Millisecond)
	fake.Advance(delay)
	fake.BlockUntilReady()
	recvTick(t, c)

	time.Sleep(20 * time.Millisecond) // let the ticker get installed
	fake.Advance(cfg.Normal())
	fake.BlockUntilReady()

	tick := recvTick(t, c)
	if tick.First {
		t.Error("recurring tick must not be marked First")
	}
}

func TestClockRecalibratesWhenDrifting(t *testing.T) {
	cfg := config.Default()
	c, fake := testClock(t, cfg)
	delay := firstTickDelay(fake, cfg)

	c.Start()
	time.Sleep(20 * time.Millisecond)
	fake.Advance(delay)
	fake.BlockUntilReady()
	recvTick(t, c)

	// The first tick fires 10ms before the boundary; one Normal interval
	// later the firing sits 20ms early, past the threshold, so the clock
	// must move to the Slow interval
	time.Sleep(20 * time.Millisecond)
	fake.Advance(cfg.Normal())
	fake.BlockUntilReady()
	recvTick(t, c)

	deadline := time.Now().Add(2 * time.Second)
	for c.Interval() != cfg.Slow() {
		if time.Now().After(deadline) {
			t.Fatalf("interval = %v, want %v", c.Interval(), cfg.Slow())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClockStopClearsInterval(t *testing.T) {
	cfg := config.Default()
	c, fake := testClock(t, cfg)
	delay := firstTickDelay(fake, cfg)

	c.Start()
	time.Sleep(20 * time.Millisecond)
	fake.Advance(delay)
	fake.BlockUntilReady()
	recvTick(t, c)

	c.Stop()
	if got := c.Interval(); got != 0 {
		t.Errorf("interval after Stop = %v, want 0", got)
	}
}

func TestClockStopBeforeFirstTick(t *testing.T) {
	cfg := config.Default()
	c, _ := testClock(t, cfg)

	c.Start()
	c.Stop()

	select {
	case tick := <-c.C():
		t.Errorf("unexpected tick after Stop: %+v", tick)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCeilFloorDiv(t *testing.T) {
	if got := ceilDiv(0, 1000); got != 0 {
		t.Errorf("ceilDiv(0,1000) = %d", got)
	}
	if got := ceilDiv(1, 1000); got != 1 {
		t.Errorf("ceilDiv(1,1000) = %d", got)
	}
	if got := ceilDiv(1000, 1000); got != 1 {
		t.Errorf("ceilDiv(1000,1000) = %d", got)
	}
	if got := floorDiv(-15500, 1000); got != -16 {
		t.Errorf("floorDiv(-15500,1000) = %d", got)
	}
	if got := floorDiv(29500, 1000); got != 29 {
		t.Errorf("floorDiv(29500,1000) = %d", got)
	}
}
