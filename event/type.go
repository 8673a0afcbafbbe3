package event

// Name identifies a wire event. Events travel as named JSON frames; the
// name selects the handler on either end.
type Name string

// === Inbound (client → server) ===

const (
	// ClientReady announces a session and requests room placement
	// Trigger: client connect or refresh
	// Consumer: Router | Payload: *ClientReadyData
	ClientReady Name = "client_ready"

	// ChangeRoom moves the player to another difficulty level
	// Trigger: client UI
	// Consumer: Router | Payload: *ClientReadyData (same profile shape)
	ChangeRoom Name = "change_room"

	// PlayerScored reports the player's current score
	// Trigger: client after each answered question
	// Consumer: Router | Payload: *PlayerScoredData
	PlayerScored Name = "player_scored"

	// RequestFinalScore asks for the player's standing mid-round
	// Trigger: client UI
	// Consumer: Router | Payload: nil
	RequestFinalScore Name = "request_final_score"

	// Disconnect signals an endpoint went away
	// Trigger: transport close detection, never the client itself
	// Consumer: Router | Payload: nil
	Disconnect Name = "disconnect"
)

// === Outbound (server → client) ===

const (
	// ClientConfirmed acknowledges a successful client_ready
	// Payload: *PlayerState
	ClientConfirmed Name = "client_confirmed"

	// GamerEnteredRoom notifies room members of a new arrival
	// Payload: *LeaderEntry
	GamerEnteredRoom Name = "gamer_entered_room"

	// GamerExitedRoom notifies room members of a departure
	// Payload: *GamerExitedData
	GamerExitedRoom Name = "gamer_exited_room"

	// GamersAlreadyInRoom lists current room occupants, joiner included
	// Payload: *RoomRosterData
	GamersAlreadyInRoom Name = "gamers_already_in_room"

	// RoundStarted opens the Play phase
	// Payload: integer seconds of play in the coming round
	RoundStarted Name = "round_started"

	// RoundEnded opens the Lobby phase
	// Payload: integer seconds of lobby
	RoundEnded Name = "round_ended"

	// PlayTimerUpdate is the per-second Play scoreboard fan-out
	// Payload: *PlayTimerData
	PlayTimerUpdate Name = "play_timer_update"

	// LobbyTimerUpdate is the per-second Lobby countdown fan-out
	// Payload: integer seconds remaining in lobby
	LobbyTimerUpdate Name = "lobby_timer_update"

	// RoomRoundResults carries a room's final standings at round end
	// Payload: []LeaderEntry, descending by points
	RoomRoundResults Name = "room_round_results"

	// FinalRoundScore answers request_final_score
	// Payload: *FinalScoreData
	FinalRoundScore Name = "final_round_score"

	// ErrClientReady rejects a malformed client_ready
	// Payload: *ErrorData
	ErrClientReady Name = "error_client_ready"

	// ErrUnrecognizedPlayer rejects a message with no attached player
	// Payload: *ErrorData
	ErrUnrecognizedPlayer Name = "error_unrecognized_player"

	// ErrPlayerScored rejects a player_scored with no points field
	// Payload: *ErrorData
	ErrPlayerScored Name = "error_player_scored"
)
