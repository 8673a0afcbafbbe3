package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/quizpulse/quizpulse/constant"
)

// Config holds every tunable of the coordination server.
// Zero values are never used directly; construct via Default and override
// from a TOML file, environment, or flags.
type Config struct {
	// ListenAddr is the TCP endpoint for the websocket service
	ListenAddr string `toml:"listen_addr"`

	// CycleSecs is the full round length, LobbySecs the inter-round window
	CycleSecs int `toml:"cycle_secs"`
	LobbySecs int `toml:"lobby_secs"`

	// MaxSkipFwd caps forward skip per coarse adjustment, in seconds
	MaxSkipFwd int `toml:"max_skip_fwd"`

	// LargeSkew enables the Faster/Slower calibration intervals
	LargeSkew bool `toml:"large_skew"`

	// MinRoom and NumRooms define the valid difficulty levels
	// [MinRoom, MinRoom+NumRooms)
	MinRoom  int `toml:"min_room"`
	NumRooms int `toml:"num_rooms"`

	// Calibration intervals and thresholds, in milliseconds
	NormalMs   int `toml:"normal_ms"`
	FastMs     int `toml:"fast_ms"`
	SlowMs     int `toml:"slow_ms"`
	FasterMs   int `toml:"faster_ms"`
	SlowerMs   int `toml:"slower_ms"`
	ErrMs      int `toml:"err_threshold_ms"`
	ErrLargeMs int `toml:"err_threshold_large_ms"`
	InitOffMs  int `toml:"init_offset_ms"`

	// LogLevel is a zerolog level string: trace, debug, info, warn, error
	LogLevel string `toml:"log_level"`
}

// Default returns production-safe defaults
func Default() *Config {
	return &Config{
		ListenAddr: constant.DefaultListenAddr,
		CycleSecs:  constant.CycleSecs,
		LobbySecs:  constant.LobbySecs,
		MaxSkipFwd: constant.MaxSkipFwdSecs,
		LargeSkew:  false,
		MinRoom:    constant.MinRoom,
		NumRooms:   constant.NumRooms,
		NormalMs:   int(constant.IntervalNormal / time.Millisecond),
		FastMs:     int(constant.IntervalFast / time.Millisecond),
		SlowMs:     int(constant.IntervalSlow / time.Millisecond),
		FasterMs:   int(constant.IntervalFaster / time.Millisecond),
		SlowerMs:   int(constant.IntervalSlower / time.Millisecond),
		ErrMs:      int(constant.ErrThreshold / time.Millisecond),
		ErrLargeMs: int(constant.ErrThresholdLarge / time.Millisecond),
		InitOffMs:  int(constant.InitOffset / time.Millisecond),
		LogLevel:   "info",
	}
}

// Load reads a TOML file over defaults, then applies environment overrides
// An empty path skips the file step
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from QUIZPULSE_* variables
func (c *Config) applyEnv() {
	if v := os.Getenv("QUIZPULSE_LISTEN"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("QUIZPULSE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("QUIZPULSE_CYCLE_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CycleSecs = n
		}
	}
	if v := os.Getenv("QUIZPULSE_LOBBY_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LobbySecs = n
		}
	}
	if v := os.Getenv("QUIZPULSE_LARGE_SKEW"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LargeSkew = b
		}
	}
}

// Validate rejects configurations the cadence engine cannot run on
func (c *Config) Validate() error {
	if c.CycleSecs <= 0 {
		return fmt.Errorf("cycle_secs must be positive, got %d", c.CycleSecs)
	}
	if c.LobbySecs <= 0 || c.LobbySecs >= c.CycleSecs {
		return fmt.Errorf("lobby_secs must be in (0, cycle_secs), got %d", c.LobbySecs)
	}
	if c.MaxSkipFwd < 0 || c.MaxSkipFwd >= c.LobbySecs {
		return fmt.Errorf("max_skip_fwd must be in [0, lobby_secs), got %d", c.MaxSkipFwd)
	}
	if c.NumRooms <= 0 {
		return fmt.Errorf("num_rooms must be positive, got %d", c.NumRooms)
	}
	if c.NormalMs <= 0 || c.FastMs <= 0 || c.SlowMs <= 0 {
		return fmt.Errorf("calibration intervals must be positive")
	}
	if c.ErrMs <= 0 || c.ErrLargeMs <= c.ErrMs {
		return fmt.Errorf("err_threshold_large_ms must exceed err_threshold_ms")
	}
	return nil
}

// PlaySecs is the active quiz window length
func (c *Config) PlaySecs() int { return c.CycleSecs - c.LobbySecs }

// Interval accessors, converting the stored milliseconds

func (c *Config) Normal() time.Duration { return time.Duration(c.NormalMs) * time.Millisecond }
func (c *Config) Fast() time.Duration   { return time.Duration(c.FastMs) * time.Millisecond }
func (c *Config) Slow() time.Duration   { return time.Duration(c.SlowMs) * time.Millisecond }
func (c *Config) Faster() time.Duration { return time.Duration(c.FasterMs) * time.Millisecond }
func (c *Config) Slower() time.Duration { return time.Duration(c.SlowerMs) * time.Millisecond }

func (c *Config) ErrThreshold() time.Duration {
	return time.Duration(c.ErrMs) * time.Millisecond
}

func (c *Config) ErrThresholdLarge() time.Duration {
	return time.Duration(c.ErrLargeMs) * time.Millisecond
}

func (c *Config) InitOffset() time.Duration {
	return time.Duration(c.InitOffMs) * time.Millisecond
}
