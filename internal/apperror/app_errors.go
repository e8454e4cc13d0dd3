package apperror

import "errors"

// Error codes carried on the wire in error payloads.
const (
	CodeJoinQueue = "JOIN_QUEUE_ERROR"
	CodeMakeMove  = "MAKE_MOVE_ERROR"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotParticipant   = errors.New("player is not in this match")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrGameFinished     = errors.New("game is already finished")
)
