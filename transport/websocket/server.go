package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/gridmatch/gridmatch-backend/internal/entity"
	"github.com/gridmatch/gridmatch-backend/internal/game"
	"github.com/gridmatch/gridmatch-backend/internal/queue"
	"github.com/gridmatch/gridmatch-backend/internal/session"
)

type profileService interface {
	GetOrCreateByHandle(ctx context.Context, handle string) (*entity.Player, error)
	RecordResult(ctx context.Context, handle1, handle2 string, result game.Result) error
}

// Server accepts websocket connections and dispatches client actions to the
// queue and to live sessions. One read loop per connection; all outbound
// traffic goes through the hub.
type Server struct {
	logger *slog.Logger

	hub      *Hub
	queue    *queue.Queue
	sessions *session.Manager
	profiles profileService

	handlers map[string]func(ctx context.Context, connID string, message *Message) error
}

func New(logger *slog.Logger, hub *Hub, waiting *queue.Queue, sessions *session.Manager, profiles profileService) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),

		hub:      hub,
		queue:    waiting,
		sessions: sessions,
		profiles: profiles,

		handlers: make(map[string]func(context.Context, string, *Message) error),
	}

	server.handlers[ActionJoinQueue] = server.handleJoinQueue
	server.handlers[ActionMakeMove] = server.handleMakeMove
	server.handlers[ActionLeaveGame] = server.handleLeaveGame

	return server
}

// Start - starts the websocket server and blocks until the context is
// canceled or the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConn(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	}
}

// serveConn - upgrades the request, registers the connection with the hub and
// runs the read loop until the client goes away.
func (that *Server) serveConn(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConn")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error("failed to accept connection", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	connID := uuid.NewString()
	log = log.With("connID", connID)
	log.Info("connection established")

	that.hub.Register(ctx, connID, conn)
	defer that.disconnect(ctx, connID)

	if err = that.readLoop(ctx, connID, conn); err != nil {
		log.Debug("connection closed", "error", err)
	}
}

func (that *Server) readLoop(ctx context.Context, connID string, conn *websocket.Conn) error {
	log := that.logger.With("method", "readLoop", "connID", connID)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, connID, &message); err != nil {
			log.Error("failed to process message", "action", message.Action, "error", err)
		}
	}
}

// disconnect - tears down everything the connection participates in: its
// queue entry, its live session (treated as a leave) and its hub
// registration.
func (that *Server) disconnect(ctx context.Context, connID string) {
	that.queue.Remove(connID)
	that.hub.Unregister(connID)

	sess, ok := that.sessions.ByConn(connID)
	if !ok {
		return
	}

	snap, finished := sess.Leave(connID)
	that.sessions.Remove(snap.ID)

	if finished {
		that.recordResult(ctx, snap)
	}
}

func (that *Server) recordResult(ctx context.Context, snap session.Snapshot) {
	handle1 := snap.Participant(game.Slot1).DisplayName
	handle2 := snap.Participant(game.Slot2).DisplayName

	if err := that.profiles.RecordResult(ctx, handle1, handle2, snap.Result); err != nil {
		that.logger.Error("failed to record match result", "sessionID", snap.ID, "error", err)
	}
}
