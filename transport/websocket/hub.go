package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/gridmatch/gridmatch-backend/internal/game"
	"github.com/gridmatch/gridmatch-backend/internal/session"
)

const (
	sendBufferSize = 64
	pingInterval   = 15 * time.Second
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub is the broadcaster: the registry of live connections and the single
// path for outbound events. Each connection gets a buffered send channel
// drained by one writer goroutine, so events reach a client in exactly the
// order they were produced; a full buffer or a dead connection drops the
// event (delivery is best-effort, at most once).
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "hub"),

		clients: make(map[string]*client),
	}
}

// Register - adds the connection under the given id and starts its writer.
func (that *Hub) Register(ctx context.Context, connID string, conn *websocket.Conn) {
	c := &client{
		id:   connID,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	that.mu.Lock()
	that.clients[connID] = c
	that.mu.Unlock()

	go that.writer(ctx, c)
}

// Unregister - drops the connection; pending events for it are discarded.
func (that *Hub) Unregister(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	c, ok := that.clients[connID]
	if !ok {
		return
	}

	delete(that.clients, connID)
	close(c.send)
}

func (that *Hub) IsConnected(connID string) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	_, ok := that.clients[connID]
	return ok
}

func (that *Hub) writer(ctx context.Context, c *client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				that.logger.Debug("write failed, dropping connection", "connID", c.id, "error", err)
				that.Unregister(c.id)
				return
			}
		case <-ping.C:
			if err := c.conn.Ping(ctx); err != nil {
				that.Unregister(c.id)
				return
			}
		}
	}
}

// Send - delivers one event to one connection. Unknown connections and full
// buffers are skipped, never blocked on.
func (that *Hub) Send(connID, action string, payload interface{}) {
	message := Message{
		Action:  action,
		Payload: mustMarshal(payload),
	}

	data := mustMarshal(message)

	// the lock is held across the channel send so Unregister cannot close
	// the channel between the lookup and the send
	that.mu.RLock()
	defer that.mu.RUnlock()

	c, ok := that.clients[connID]
	if !ok {
		return
	}

	select {
	case c.send <- data:
	default:
		that.logger.Warn("send buffer full, dropping event", "connID", connID, "action", action)
	}
}

// SendError - reports a protocol violation to the offending client only.
func (that *Hub) SendError(connID, code, message string) {
	that.Send(connID, EventError, ErrorPayload{
		Message: message,
		Code:    code,
	})
}

// MatchFound - individually parameterized pairing notification.
func (that *Hub) MatchFound(connID, opponentName string, assigned game.Slot) {
	that.Send(connID, EventMatchFound, MatchFoundPayload{
		Opponent:     OpponentPayload{Nickname: opponentName},
		PlayerNumber: int(assigned),
	})
}

// GameStarted - implements session.Notifier.
func (that *Hub) GameStarted(snap session.Snapshot) {
	payload := GameStartPayload{
		GameID:      snap.ID,
		Board:       boardPayload(snap.Board),
		CurrentTurn: int(snap.CurrentTurn),
	}

	that.toParticipants(snap, EventGameStart, payload)
}

// MoveMade - implements session.Notifier.
func (that *Hub) MoveMade(snap session.Snapshot, move game.Move, slot game.Slot) {
	payload := MoveMadePayload{
		GameID: snap.ID,
		Move: MovePayload{
			Row:    move.Row,
			Col:    move.Col,
			Player: int(slot),
		},
		Board: boardPayload(snap.Board),
	}

	if snap.CurrentTurn != game.NoSlot {
		turn := int(snap.CurrentTurn)
		payload.CurrentTurn = &turn
	}

	that.toParticipants(snap, EventMoveMade, payload)
}

// GameEnded - implements session.Notifier.
func (that *Hub) GameEnded(snap session.Snapshot) {
	payload := GameEndPayload{
		GameID: snap.ID,
		Result: snap.Result.String(),
		Board:  boardPayload(snap.Board),
	}

	that.toParticipants(snap, EventGameEnd, payload)
}

func (that *Hub) toParticipants(snap session.Snapshot, action string, payload interface{}) {
	for _, participant := range snap.Participants {
		that.Send(participant.ConnID, action, payload)
	}
}
