package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexString accepts a JSON string or number and keeps its text form.
// Clients send room ids both ways; the server always re-renders them as
// decimal strings before any fan-out.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = FlexString(v)
		return nil
	}
	// Bare number: keep the literal text
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("value %q is neither string nor number", s)
	}
	*f = FlexString(s)
	return nil
}

// Profile is the client-supplied identity inside client_ready/change_room
type Profile struct {
	Tag  *string     `json:"tag,omitempty"`
	Room *FlexString `json:"room,omitempty"`
}

// ClientReadyData wraps the profile for client_ready and change_room
type ClientReadyData struct {
	Profile *Profile `json:"profile"`
}

// PlayerScoredData carries the score report; Points is a pointer so a
// missing field is distinguishable from zero
type PlayerScoredData struct {
	Points *int `json:"points"`
}

// PlayerState is the full player record echoed in client_confirmed
type PlayerState struct {
	Tag             string `json:"tag"`
	Points          int    `json:"points"`
	Room            string `json:"room"`
	IncompleteRound bool   `json:"incomplete_round"`
	RefCount        int    `json:"ref_count"`
}

// LeaderEntry is one scoreboard row
type LeaderEntry struct {
	Tag    string `json:"tag"`
	Points int    `json:"points"`
}

// GamerExitedData names the player who left a room
type GamerExitedData struct {
	Tag string `json:"tag"`
}

// RoomRosterData lists everyone currently in a room
type RoomRosterData struct {
	Leaders []LeaderEntry `json:"leaders"`
}

// PlayTimerData is the per-second Play phase fan-out payload
type PlayTimerData struct {
	TimeRemaining int           `json:"time_remaining"`
	Leaders       []LeaderEntry `json:"leaders"`
}

// FinalScoreData answers request_final_score
type FinalScoreData struct {
	Points        int  `json:"points"`
	RoundComplete bool `json:"round_complete"`
}

// ErrorData is the shape of every error event
type ErrorData struct {
	ErrorStr  string `json:"error_str"`
	UserInput any    `json:"user_input,omitempty"`
}
