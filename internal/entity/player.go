package entity

// Player is a persistent profile record, keyed by id and by handle. Match
// participation itself is connection-scoped and never stored here.
type Player struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
}
