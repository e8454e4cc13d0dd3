package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridmatch/gridmatch-backend/internal/apperror"
	"github.com/gridmatch/gridmatch-backend/internal/game"
)

type recordedEvent struct {
	kind string // "started" | "move" | "ended"
	snap Snapshot
	move game.Move
	slot game.Slot
}

// fakeNotifier records notifications in the order they were produced.
type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (that *fakeNotifier) GameStarted(snap Snapshot) {
	that.record(recordedEvent{kind: "started", snap: snap})
}

func (that *fakeNotifier) MoveMade(snap Snapshot, move game.Move, slot game.Slot) {
	that.record(recordedEvent{kind: "move", snap: snap, move: move, slot: slot})
}

func (that *fakeNotifier) GameEnded(snap Snapshot) {
	that.record(recordedEvent{kind: "ended", snap: snap})
}

func (that *fakeNotifier) record(ev recordedEvent) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.events = append(that.events, ev)
}

func (that *fakeNotifier) all() []recordedEvent {
	that.mu.Lock()
	defer that.mu.Unlock()
	return append([]recordedEvent(nil), that.events...)
}

type journaledTurn struct {
	sessionID string
	number    int
	slot      game.Slot
	move      game.Move
}

type fakeJournal struct {
	mu       sync.Mutex
	turns    []journaledTurn
	finished []Snapshot
}

func (that *fakeJournal) AppendTurn(sessionID string, number int, slot game.Slot, move game.Move) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.turns = append(that.turns, journaledTurn{sessionID: sessionID, number: number, slot: slot, move: move})
}

func (that *fakeJournal) MatchFinished(snap Snapshot) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.finished = append(that.finished, snap)
}

func newTestSession(notifier *fakeNotifier, journal *fakeJournal) *Session {
	return New("match-1",
		Participant{ConnID: "conn-1", DisplayName: "alice"},
		Participant{ConnID: "conn-2", DisplayName: "bob"},
		notifier, journal)
}

func TestSession_Begin(t *testing.T) {
	t.Run("StartsGameAndNotifies", func(t *testing.T) {
		// Given: a freshly paired session
		notifier := &fakeNotifier{}
		sess := newTestSession(notifier, &fakeJournal{})

		// When: the game begins with slot 2 to move
		sess.Begin(game.Slot2)

		// Then: the session is in progress and both saw a start notification
		snap := sess.Snapshot()
		require.Equal(t, StatusInProgress, snap.Status)
		assert.Equal(t, game.Slot2, snap.CurrentTurn)

		events := notifier.all()
		require.Len(t, events, 1)
		assert.Equal(t, "started", events[0].kind)
		assert.Equal(t, game.Slot2, events[0].snap.CurrentTurn)
	})

	t.Run("NoOpAfterLeaveDuringWaiting", func(t *testing.T) {
		// Given: a participant who vanished before the start notification
		notifier := &fakeNotifier{}
		sess := newTestSession(notifier, &fakeJournal{})

		snap, finished := sess.Leave("conn-2")
		require.True(t, finished)
		require.Equal(t, game.ResultSlot1Win, snap.Result)

		// When: the delayed begin fires
		sess.Begin(game.Slot1)

		// Then: the session stays finished
		assert.Equal(t, StatusFinished, sess.Snapshot().Status)
	})
}

func TestSession_SubmitMove(t *testing.T) {
	t.Run("RejectsUnknownConnection", func(t *testing.T) {
		sess := newTestSession(&fakeNotifier{}, &fakeJournal{})
		sess.Begin(game.Slot1)

		_, err := sess.SubmitMove("stranger", game.Move{Row: 0, Col: 0})

		require.ErrorIs(t, err, apperror.ErrNotParticipant)
	})

	t.Run("RejectsMoveBeforeStart", func(t *testing.T) {
		sess := newTestSession(&fakeNotifier{}, &fakeJournal{})

		_, err := sess.SubmitMove("conn-1", game.Move{Row: 0, Col: 0})

		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("RejectsOutOfTurnMove", func(t *testing.T) {
		sess := newTestSession(&fakeNotifier{}, &fakeJournal{})
		sess.Begin(game.Slot1)

		// When: slot 2 tries to move first
		snap, err := sess.SubmitMove("conn-2", game.Move{Row: 0, Col: 0})

		// Then: the move is rejected and state is unchanged
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Zero(t, snap.TurnCount)
		assert.Equal(t, game.Slot1, snap.CurrentTurn)
	})

	t.Run("RejectsIllegalMove", func(t *testing.T) {
		sess := newTestSession(&fakeNotifier{}, &fakeJournal{})
		sess.Begin(game.Slot1)

		_, err := sess.SubmitMove("conn-1", game.Move{Row: 5, Col: 0})
		require.ErrorIs(t, err, game.ErrInvalidCell)

		_, err = sess.SubmitMove("conn-1", game.Move{Row: 1, Col: 1})
		require.NoError(t, err)

		// slot 2 targets the occupied cell
		_, err = sess.SubmitMove("conn-2", game.Move{Row: 1, Col: 1})
		require.ErrorIs(t, err, game.ErrCellOccupied)
	})

	t.Run("TurnNeverStaysWithTheMover", func(t *testing.T) {
		// Given: an in-progress session
		sess := newTestSession(&fakeNotifier{}, &fakeJournal{})
		sess.Begin(game.Slot1)

		moves := []struct {
			connID string
			move   game.Move
		}{
			{"conn-1", game.Move{Row: 1, Col: 1}},
			{"conn-2", game.Move{Row: 0, Col: 0}},
			{"conn-1", game.Move{Row: 0, Col: 1}},
			{"conn-2", game.Move{Row: 2, Col: 2}},
		}

		for _, step := range moves {
			before := sess.Snapshot().CurrentTurn

			snap, err := sess.SubmitMove(step.connID, step.move)
			require.NoError(t, err)

			// Then: the turn is either the other slot or nobody, never the mover
			assert.NotEqual(t, before, snap.CurrentTurn)
			assert.Equal(t, snap.TurnCount, countMarks(snap.Board))
		}
	})

	t.Run("WinningMoveFinishesSession", func(t *testing.T) {
		// Given: the scripted game where slot 1 completes the middle column
		notifier := &fakeNotifier{}
		journal := &fakeJournal{}
		sess := newTestSession(notifier, journal)
		sess.Begin(game.Slot1)

		script := []struct {
			connID string
			move   game.Move
		}{
			{"conn-1", game.Move{Row: 1, Col: 1}},
			{"conn-2", game.Move{Row: 0, Col: 0}},
			{"conn-1", game.Move{Row: 0, Col: 1}},
			{"conn-2", game.Move{Row: 2, Col: 2}},
			{"conn-1", game.Move{Row: 2, Col: 1}},
		}

		var last Snapshot
		for _, step := range script {
			var err error
			last, err = sess.SubmitMove(step.connID, step.move)
			require.NoError(t, err)
		}

		// Then: the session finished with a slot 1 win and no turn holder
		require.Equal(t, StatusFinished, last.Status)
		assert.Equal(t, game.ResultSlot1Win, last.Result)
		assert.Equal(t, game.NoSlot, last.CurrentTurn)
		assert.Equal(t, 5, last.TurnCount)
		assert.False(t, last.FinishedAt.IsZero())

		// Then: the final move-made notification precedes exactly one game-ended
		events := notifier.all()
		require.Len(t, events, 7) // started + 5 moves + ended
		assert.Equal(t, "move", events[5].kind)
		assert.Equal(t, "ended", events[6].kind)
		assert.Equal(t, game.ResultSlot1Win, events[6].snap.Result)

		// Then: every turn was journaled in order and the match was recorded
		require.Len(t, journal.turns, 5)
		for i, turn := range journal.turns {
			assert.Equal(t, i+1, turn.number)
			assert.Equal(t, "match-1", turn.sessionID)
		}
		require.Len(t, journal.finished, 1)

		// Then: further moves are rejected
		_, err := sess.SubmitMove("conn-2", game.Move{Row: 1, Col: 0})
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("FullBoardWithoutLineIsDraw", func(t *testing.T) {
		// Given: a move order that fills the board without a line
		sess := newTestSession(&fakeNotifier{}, &fakeJournal{})
		sess.Begin(game.Slot1)

		script := []struct {
			connID string
			move   game.Move
		}{
			{"conn-1", game.Move{Row: 0, Col: 0}},
			{"conn-2", game.Move{Row: 0, Col: 1}},
			{"conn-1", game.Move{Row: 0, Col: 2}},
			{"conn-2", game.Move{Row: 1, Col: 0}},
			{"conn-1", game.Move{Row: 1, Col: 2}},
			{"conn-2", game.Move{Row: 1, Col: 1}},
			{"conn-1", game.Move{Row: 2, Col: 0}},
			{"conn-2", game.Move{Row: 2, Col: 2}},
			{"conn-1", game.Move{Row: 2, Col: 1}},
		}

		var last Snapshot
		for _, step := range script {
			var err error
			last, err = sess.SubmitMove(step.connID, step.move)
			require.NoError(t, err)
		}

		assert.Equal(t, StatusFinished, last.Status)
		assert.Equal(t, game.ResultDraw, last.Result)
		assert.Equal(t, game.NoSlot, last.CurrentTurn)
	})
}

func TestSession_Leave(t *testing.T) {
	t.Run("ForfeitsToRemainingSlot", func(t *testing.T) {
		// Given: an in-progress session
		notifier := &fakeNotifier{}
		sess := newTestSession(notifier, &fakeJournal{})
		sess.Begin(game.Slot1)

		_, err := sess.SubmitMove("conn-1", game.Move{Row: 1, Col: 1})
		require.NoError(t, err)

		// When: slot 2 leaves mid-game
		snap, finished := sess.Leave("conn-2")

		// Then: slot 1 wins and a single game-ended notification goes out
		require.True(t, finished)
		assert.Equal(t, StatusFinished, snap.Status)
		assert.Equal(t, game.ResultSlot1Win, snap.Result)
		assert.Equal(t, game.NoSlot, snap.CurrentTurn)
		assert.False(t, snap.FinishedAt.IsZero())

		var ended int
		for _, ev := range notifier.all() {
			if ev.kind == "ended" {
				ended++
			}
		}
		assert.Equal(t, 1, ended)
	})

	t.Run("SecondLeaveIsNoOp", func(t *testing.T) {
		notifier := &fakeNotifier{}
		sess := newTestSession(notifier, &fakeJournal{})
		sess.Begin(game.Slot1)

		_, finished := sess.Leave("conn-2")
		require.True(t, finished)

		// When: the same connection signals disconnect again
		snap, finished := sess.Leave("conn-2")

		// Then: nothing changes and no extra notification is sent
		assert.False(t, finished)
		assert.Equal(t, game.ResultSlot1Win, snap.Result)

		var ended int
		for _, ev := range notifier.all() {
			if ev.kind == "ended" {
				ended++
			}
		}
		assert.Equal(t, 1, ended)
	})

	t.Run("StrangerCannotForfeit", func(t *testing.T) {
		sess := newTestSession(&fakeNotifier{}, &fakeJournal{})
		sess.Begin(game.Slot1)

		_, finished := sess.Leave("stranger")

		assert.False(t, finished)
		assert.Equal(t, StatusInProgress, sess.Snapshot().Status)
	})
}

func TestManager(t *testing.T) {
	t.Run("RegisterAndLookup", func(t *testing.T) {
		manager := NewManager()
		sess := newTestSession(&fakeNotifier{}, &fakeJournal{})

		manager.Register(sess)

		byID, ok := manager.ByID("match-1")
		require.True(t, ok)
		assert.Same(t, sess, byID)

		byConn, ok := manager.ByConn("conn-2")
		require.True(t, ok)
		assert.Same(t, sess, byConn)

		assert.Equal(t, 1, manager.Len())
	})

	t.Run("RemoveDropsAllIndexes", func(t *testing.T) {
		manager := NewManager()
		sess := newTestSession(&fakeNotifier{}, &fakeJournal{})
		manager.Register(sess)

		manager.Remove("match-1")

		_, ok := manager.ByID("match-1")
		assert.False(t, ok)
		_, ok = manager.ByConn("conn-1")
		assert.False(t, ok)
		_, ok = manager.ByConn("conn-2")
		assert.False(t, ok)
	})

	t.Run("RemoveUnknownIsNoOp", func(t *testing.T) {
		manager := NewManager()

		manager.Remove("missing")

		assert.Zero(t, manager.Len())
	})
}

func countMarks(board game.Board) int {
	var marks int
	for row := 0; row < game.Size; row++ {
		for col := 0; col < game.Size; col++ {
			if board[row][col] != game.Empty {
				marks++
			}
		}
	}
	return marks
}
