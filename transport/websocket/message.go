package websocket

import (
	"encoding/json"

	"github.com/gridmatch/gridmatch-backend/internal/game"
)

// Client intents and server events. Names and payload shapes are part of
// the public protocol; renaming them breaks deployed clients.
const (
	ActionJoinQueue = "join_queue"
	ActionMakeMove  = "make_move"
	ActionLeaveGame = "leave_game"

	EventMatchFound = "match_found"
	EventGameStart  = "game_start"
	EventMoveMade   = "move_made"
	EventGameEnd    = "game_end"
	EventError      = "error"
)

// Message is the wire envelope: an action name plus an action-specific
// payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// BoardPayload is the wire form of the grid: "X", "O" or null.
type BoardPayload [game.Size][game.Size]*string

type JoinQueuePayload struct {
	Nickname string `json:"nickname"`
}

type OpponentPayload struct {
	Nickname string `json:"nickname"`
}

type MatchFoundPayload struct {
	Opponent     OpponentPayload `json:"opponent"`
	PlayerNumber int             `json:"playerNumber"`
}

type GameStartPayload struct {
	GameID      string       `json:"gameId"`
	Board       BoardPayload `json:"board"`
	CurrentTurn int          `json:"currentTurn"`
}

type MovePayload struct {
	Row    int `json:"row"`
	Col    int `json:"col"`
	Player int `json:"player,omitempty"`
}

type MakeMovePayload struct {
	GameID string      `json:"gameId"`
	Move   MovePayload `json:"move"`
}

type MoveMadePayload struct {
	GameID      string       `json:"gameId"`
	Move        MovePayload  `json:"move"`
	Board       BoardPayload `json:"board"`
	CurrentTurn *int         `json:"currentTurn"` // null once the game is over
}

type GameEndPayload struct {
	GameID string       `json:"gameId"`
	Result string       `json:"result"`
	Board  BoardPayload `json:"board"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func boardPayload(board game.Board) BoardPayload {
	var wire BoardPayload
	for row := 0; row < game.Size; row++ {
		for col := 0; col < game.Size; col++ {
			if board[row][col] == game.Empty {
				continue
			}
			mark := board[row][col].String()
			wire[row][col] = &mark
		}
	}
	return wire
}

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
