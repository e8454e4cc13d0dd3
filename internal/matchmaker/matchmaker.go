package matchmaker

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/gridmatch/gridmatch-backend/internal/game"
	"github.com/gridmatch/gridmatch-backend/internal/queue"
	"github.com/gridmatch/gridmatch-backend/internal/session"
)

// broadcaster is the matchmaking view of the connection hub: it knows which
// connections are still alive and delivers the pairing notifications plus
// everything a session emits afterwards.
type broadcaster interface {
	session.Notifier

	MatchFound(connID, opponentName string, assigned game.Slot)
	IsConnected(connID string) bool
}

// Scheduler is the single matchmaking authority: a periodic task that drains
// the waiting queue two at a time and turns pairs into sessions.
type Scheduler struct {
	logger *slog.Logger

	queue    *queue.Queue
	sessions *session.Manager
	hub      broadcaster
	journal  session.Journal

	interval   time.Duration
	startDelay time.Duration
}

func New(logger *slog.Logger, q *queue.Queue, sessions *session.Manager, hub broadcaster, journal session.Journal, interval, startDelay time.Duration) *Scheduler {
	return &Scheduler{
		logger: logger.With("component", "matchmaker"),

		queue:    q,
		sessions: sessions,
		hub:      hub,
		journal:  journal,

		interval:   interval,
		startDelay: startDelay,
	}
}

// Run - ticks until the context is canceled, pairing as many waiting clients
// as possible on every tick.
func (that *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	that.logger.Info("matchmaking scheduler started", "interval", that.interval)

	for {
		select {
		case <-ctx.Done():
			that.logger.Info("matchmaking scheduler stopped")
			return
		case <-ticker.C:
			that.matchAll()
		}
	}
}

func (that *Scheduler) matchAll() {
	for that.matchOnce() {
	}
}

// matchOnce - dequeues one pair and creates a session for it. Returns true
// while there may be more pairing work in this tick.
func (that *Scheduler) matchOnce() bool {
	log := that.logger.With("method", "matchOnce")

	if that.queue.Len() < 2 {
		return false
	}

	entries := that.queue.DequeueOldest(2)
	if len(entries) < 2 {
		// lost the race with a concurrent Remove; put the leftover back
		if len(entries) == 1 {
			that.queue.Requeue(entries[0])
		}
		return false
	}

	first, second := entries[0], entries[1]

	firstAlive := that.hub.IsConnected(first.ConnID)
	secondAlive := that.hub.IsConnected(second.ConnID)

	switch {
	case !firstAlive && !secondAlive:
		log.Info("dropped two vanished queue entries")
		return true
	case !firstAlive:
		log.Info("pairing failed, requeueing survivor", "survivor", second.ConnID)
		that.queue.Requeue(second)
		return true
	case !secondAlive:
		log.Info("pairing failed, requeueing survivor", "survivor", first.ConnID)
		that.queue.Requeue(first)
		return true
	}

	// slot assignment and first turn are independent coin flips, the only
	// randomness in the system
	if rand.Intn(2) == 1 { //nolint:gosec // matchmaking fairness, not crypto
		first, second = second, first
	}

	firstTurn := game.Slot1
	if rand.Intn(2) == 1 { //nolint:gosec // same as above
		firstTurn = game.Slot2
	}

	sess := session.New(uuid.NewString(),
		session.Participant{ConnID: first.ConnID, DisplayName: first.DisplayName},
		session.Participant{ConnID: second.ConnID, DisplayName: second.DisplayName},
		that.hub, that.journal)

	that.sessions.Register(sess)

	that.hub.MatchFound(first.ConnID, second.DisplayName, game.Slot1)
	that.hub.MatchFound(second.ConnID, first.DisplayName, game.Slot2)

	// the pacing delay between match-found and game-start is client UX only;
	// zero is valid
	if that.startDelay > 0 {
		time.AfterFunc(that.startDelay, func() {
			sess.Begin(firstTurn)
		})
	} else {
		sess.Begin(firstTurn)
	}

	log.Info("players matched",
		"sessionID", sess.ID(),
		"player1", first.DisplayName,
		"player2", second.DisplayName,
		"firstTurn", firstTurn,
	)

	return true
}
