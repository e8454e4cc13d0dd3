package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gridmatch/gridmatch-backend/internal/apperror"
	"github.com/gridmatch/gridmatch-backend/internal/game"
	"github.com/gridmatch/gridmatch-backend/internal/queue"
	"github.com/gridmatch/gridmatch-backend/internal/session"
)

// handleJoinQueue - puts the connection into the waiting list. A malformed
// request is reported back to the sender and leaves the queue untouched.
func (that *Server) handleJoinQueue(ctx context.Context, connID string, message *Message) error {
	log := that.logger.With("method", "handleJoinQueue", "connID", connID)

	var payload JoinQueuePayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		that.hub.SendError(connID, apperror.CodeJoinQueue, "invalid join_queue payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	nickname := strings.TrimSpace(payload.Nickname)
	if nickname == "" {
		that.hub.SendError(connID, apperror.CodeJoinQueue, "nickname is required")
		return nil
	}

	if _, err := that.profiles.GetOrCreateByHandle(ctx, nickname); err != nil {
		// the queue does not depend on the profile store; pairing proceeds
		log.Warn("failed to load profile", "nickname", nickname, "error", err)
	}

	that.queue.Enqueue(queue.Entry{
		ConnID:      connID,
		DisplayName: nickname,
	})

	log.Info("joined queue", "nickname", nickname)

	return nil
}

// handleMakeMove - forwards one move to the addressed session. Rejections
// (wrong turn, occupied cell, unknown game) go back to the sender only.
func (that *Server) handleMakeMove(ctx context.Context, connID string, message *Message) error {
	var payload MakeMovePayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		that.hub.SendError(connID, apperror.CodeMakeMove, "invalid make_move payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	sess, ok := that.sessions.ByID(payload.GameID)
	if !ok {
		that.hub.SendError(connID, apperror.CodeMakeMove, apperror.ErrSessionNotFound.Error())
		return nil
	}

	snap, err := sess.SubmitMove(connID, game.Move{Row: payload.Move.Row, Col: payload.Move.Col})
	if err != nil {
		that.hub.SendError(connID, apperror.CodeMakeMove, err.Error())
		return nil
	}

	if snap.Status == session.StatusFinished {
		that.sessions.Remove(snap.ID)
		that.recordResult(ctx, snap)
	}

	return nil
}

// handleLeaveGame - forfeits the sender's live session, if any, and removes
// the sender from the waiting list. The connection itself stays open.
func (that *Server) handleLeaveGame(ctx context.Context, connID string, _ *Message) error {
	that.queue.Remove(connID)

	sess, ok := that.sessions.ByConn(connID)
	if !ok {
		return nil
	}

	snap, finished := sess.Leave(connID)
	that.sessions.Remove(snap.ID)

	if finished {
		that.recordResult(ctx, snap)
	}

	return nil
}
