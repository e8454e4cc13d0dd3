package entity

import "time"

// MatchRecord is the durable log entry for a completed match.
type MatchRecord struct {
	ID         string    `json:"id"`
	Player1    string    `json:"player1"`
	Player2    string    `json:"player2"`
	Result     string    `json:"result"`
	FinishedAt time.Time `json:"finished_at"`
}

// TurnRecord is the durable log entry for a single accepted move.
type TurnRecord struct {
	MatchID string `json:"match_id"`
	Number  int    `json:"number"`
	Slot    int    `json:"slot"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
}
