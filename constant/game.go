package constant

import "time"

// Round cadence (seconds)
const (
	// CycleSecs is the length of one full round: Play followed by Lobby
	CycleSecs = 180

	// LobbySecs is the inter-round window during which scores are frozen
	LobbySecs = 30

	// PlaySecs is the active quiz window
	PlaySecs = CycleSecs - LobbySecs

	// MaxSkipFwdSecs caps how many Lobby seconds a single coarse
	// adjustment may drop in one cycle
	MaxSkipFwdSecs = 9
)

// Fine calibration intervals
// The recurring tick timer runs at one of these discrete values so firings
// stay near the whole-second mark despite timer slop
const (
	IntervalNormal = 990 * time.Millisecond
	IntervalFast   = 976 * time.Millisecond
	IntervalSlow   = 1004 * time.Millisecond

	// Large-skew intervals, used only when the large-skew flag is enabled
	IntervalFaster = 960 * time.Millisecond
	IntervalSlower = 1020 * time.Millisecond

	// ErrThreshold is the calibration error beyond which the interval
	// moves off Normal
	ErrThreshold = 10 * time.Millisecond

	// ErrThresholdLarge selects the Faster/Slower intervals in
	// large-skew mode
	ErrThresholdLarge = 25 * time.Millisecond

	// InitOffset shifts the first one-shot slightly ahead of the cycle
	// boundary so the first tick lands on it rather than after it
	InitOffset = -10 * time.Millisecond
)

// Rooms (difficulty levels)
const (
	MinRoom  = 0
	NumRooms = 4
)
