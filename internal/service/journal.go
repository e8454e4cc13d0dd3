package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gridmatch/gridmatch-backend/internal/entity"
	"github.com/gridmatch/gridmatch-backend/internal/game"
	"github.com/gridmatch/gridmatch-backend/internal/session"
)

const journalTimeout = 5 * time.Second

type journalRepo interface {
	SaveMatch(ctx context.Context, record *entity.MatchRecord) error
	AppendTurn(ctx context.Context, record *entity.TurnRecord) error
}

// JournalService adapts the durable log repository to the session's
// fire-and-forget contract: appends run in the background and a failed
// append is logged, never propagated into the in-memory transition.
type JournalService struct {
	logger *slog.Logger

	journalRepo journalRepo
}

func NewJournalService(logger *slog.Logger, journalRepo journalRepo) *JournalService {
	return &JournalService{
		logger: logger.With("component", "journal"),

		journalRepo: journalRepo,
	}
}

func (that *JournalService) AppendTurn(sessionID string, number int, slot game.Slot, move game.Move) {
	record := &entity.TurnRecord{
		MatchID: sessionID,
		Number:  number,
		Slot:    int(slot),
		Row:     move.Row,
		Col:     move.Col,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()

		if err := that.journalRepo.AppendTurn(ctx, record); err != nil {
			that.logger.Error("failed to append turn", "sessionID", sessionID, "number", number, "error", err)
		}
	}()
}

func (that *JournalService) MatchFinished(snap session.Snapshot) {
	record := &entity.MatchRecord{
		ID:         snap.ID,
		Player1:    snap.Participant(game.Slot1).DisplayName,
		Player2:    snap.Participant(game.Slot2).DisplayName,
		Result:     snap.Result.String(),
		FinishedAt: snap.FinishedAt,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()

		if err := that.journalRepo.SaveMatch(ctx, record); err != nil {
			that.logger.Error("failed to save match record", "sessionID", snap.ID, "error", err)
		}
	}()
}
