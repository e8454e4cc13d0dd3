package session

import (
	"sync"
	"time"

	"github.com/gridmatch/gridmatch-backend/internal/apperror"
	"github.com/gridmatch/gridmatch-backend/internal/game"
)

const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)

// Participant binds a connection to a slot for the lifetime of one session.
type Participant struct {
	ConnID      string
	DisplayName string
}

// Snapshot is a consistent copy of a session's state, safe to hand out to
// transports and journals.
type Snapshot struct {
	ID           string
	Participants [2]Participant
	Board        game.Board
	Status       string
	Result       game.Result
	CurrentTurn  game.Slot
	TurnCount    int
	FinishedAt   time.Time
}

// Participant - the participant bound to the given slot.
func (that Snapshot) Participant(slot game.Slot) Participant {
	if slot == game.Slot2 {
		return that.Participants[1]
	}
	return that.Participants[0]
}

// Notifier receives state-change notifications. Calls happen while the
// session lock is held, so per-session notification order matches the order
// the transitions were produced in; implementations must not call back into
// the session.
type Notifier interface {
	GameStarted(snap Snapshot)
	MoveMade(snap Snapshot, move game.Move, slot game.Slot)
	GameEnded(snap Snapshot)
}

// Journal receives durable-log appends. Implementations must not block and
// must swallow their own failures; a lost append never affects the in-memory
// transition.
type Journal interface {
	AppendTurn(sessionID string, number int, slot game.Slot, move game.Move)
	MatchFinished(snap Snapshot)
}

// Session owns one match's mutable state and enforces the turn-taking
// protocol. Every mutation runs under one exclusive lock, so two moves (or a
// move and a leave) for the same session are never processed concurrently.
type Session struct {
	mu sync.Mutex

	id           string
	participants [2]Participant
	board        game.Board
	status       string
	result       game.Result
	currentTurn  game.Slot
	turnCount    int
	finishedAt   time.Time

	notifier Notifier
	journal  Journal
}

func New(id string, slot1, slot2 Participant, notifier Notifier, journal Journal) *Session {
	return &Session{
		id:           id,
		participants: [2]Participant{slot1, slot2},
		status:       StatusWaiting,
		notifier:     notifier,
		journal:      journal,
	}
}

func (that *Session) ID() string {
	return that.id
}

// Begin - transitions the session from waiting to in progress, hands the
// first turn to the given slot and notifies both participants. A no-op if a
// participant already left during the waiting window.
func (that *Session) Begin(firstTurn game.Slot) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.status != StatusWaiting {
		return
	}

	that.status = StatusInProgress
	that.currentTurn = firstTurn

	that.notifier.GameStarted(that.snapshotLocked())
}

// SubmitMove - validates and applies one move for the given connection. On a
// terminal outcome the session finishes and both the move-made and game-ended
// notifications go out, in that order.
func (that *Session) SubmitMove(connID string, move game.Move) (Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	slot := that.slotOf(connID)
	if slot == game.NoSlot {
		return that.snapshotLocked(), apperror.ErrNotParticipant
	}

	switch that.status {
	case StatusWaiting:
		return that.snapshotLocked(), apperror.ErrGameIsNotStarted
	case StatusFinished:
		return that.snapshotLocked(), apperror.ErrGameFinished
	}

	if that.currentTurn != slot {
		return that.snapshotLocked(), apperror.ErrNotYourTurn
	}

	board, err := game.Apply(that.board, move, slot)
	if err != nil {
		return that.snapshotLocked(), err
	}

	that.board = board
	that.turnCount++
	that.journal.AppendTurn(that.id, that.turnCount, slot, move)

	if outcome := game.Outcome(that.board); outcome != game.ResultNone {
		that.finishLocked(outcome)
	} else {
		that.currentTurn = slot.Other()
	}

	snap := that.snapshotLocked()

	that.notifier.MoveMade(snap, move, slot)
	if that.status == StatusFinished {
		that.notifier.GameEnded(snap)
		that.journal.MatchFinished(snap)
	}

	return snap, nil
}

// Leave - forfeits the match on behalf of the given connection: the other
// slot wins immediately. Idempotent; leaving a finished session changes
// nothing. The boolean reports whether this call finished the session.
func (that *Session) Leave(connID string) (Snapshot, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.status == StatusFinished {
		return that.snapshotLocked(), false
	}

	slot := that.slotOf(connID)
	if slot == game.NoSlot {
		return that.snapshotLocked(), false
	}

	that.finishLocked(game.WinFor(slot.Other()))

	snap := that.snapshotLocked()
	that.notifier.GameEnded(snap)
	that.journal.MatchFinished(snap)

	return snap, true
}

func (that *Session) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshotLocked()
}

func (that *Session) finishLocked(result game.Result) {
	that.status = StatusFinished
	that.result = result
	that.currentTurn = game.NoSlot
	that.finishedAt = time.Now()
}

func (that *Session) slotOf(connID string) game.Slot {
	switch connID {
	case that.participants[0].ConnID:
		return game.Slot1
	case that.participants[1].ConnID:
		return game.Slot2
	default:
		return game.NoSlot
	}
}

func (that *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:           that.id,
		Participants: that.participants,
		Board:        that.board,
		Status:       that.status,
		Result:       that.result,
		CurrentTurn:  that.currentTurn,
		TurnCount:    that.turnCount,
		FinishedAt:   that.finishedAt,
	}
}
