package model

// Status represents the lifecycle state of a game session.
//
// Transitions are monotonic: a session only ever moves forward through
// WaitingForPlayers → InGame → Finished → Rebooting. Rebooting is driven
// by the surrounding framework, never by the session itself.
type Status int

const (
	StatusWaitingForPlayers Status = iota
	StatusInGame
	StatusFinished
	StatusRebooting
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusWaitingForPlayers:
		return "waiting_for_players"
	case StatusInGame:
		return "in_game"
	case StatusFinished:
		return "finished"
	case StatusRebooting:
		return "rebooting"
	}
	return "unknown"
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	return s >= StatusWaitingForPlayers && s <= StatusRebooting
}
