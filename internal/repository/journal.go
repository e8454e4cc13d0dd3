package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gridmatch/gridmatch-backend/internal/entity"
)

var ErrMatchNotFound = errors.New("match not found")

// JournalRepository is the durable log sink: append-only match and turn
// records over SQLite.
type JournalRepository interface {
	Init(ctx context.Context) error

	SaveMatch(ctx context.Context, record *entity.MatchRecord) error
	AppendTurn(ctx context.Context, record *entity.TurnRecord) error

	GetMatchByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	ListTurns(ctx context.Context, matchID string) ([]entity.TurnRecord, error)
}

type dbJournal struct {
	conn *sql.DB
}

func NewJournalRepository(conn *sql.DB) JournalRepository {
	return &dbJournal{
		conn: conn,
	}
}

func (that *dbJournal) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			player1 TEXT NOT NULL,
			player2 TEXT NOT NULL,
			result TEXT NOT NULL,
			finished_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			match_id TEXT NOT NULL,
			number INTEGER NOT NULL,
			slot INTEGER NOT NULL,
			cell_row INTEGER NOT NULL,
			cell_col INTEGER NOT NULL,
			PRIMARY KEY (match_id, number)
		)`,
	}

	for _, query := range queries {
		if _, err := that.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

func (that *dbJournal) SaveMatch(ctx context.Context, record *entity.MatchRecord) error {
	query := `INSERT OR REPLACE INTO matches (id, player1, player2, result, finished_at) VALUES (?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		record.ID, record.Player1, record.Player2, record.Result, record.FinishedAt)
	if err != nil {
		return fmt.Errorf("can't save match: %w", err)
	}

	return nil
}

func (that *dbJournal) AppendTurn(ctx context.Context, record *entity.TurnRecord) error {
	query := `INSERT INTO turns (match_id, number, slot, cell_row, cell_col) VALUES (?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		record.MatchID, record.Number, record.Slot, record.Row, record.Col)
	if err != nil {
		return fmt.Errorf("can't append turn: %w", err)
	}

	return nil
}

func (that *dbJournal) GetMatchByID(ctx context.Context, id string) (*entity.MatchRecord, error) {
	query := `SELECT id, player1, player2, result, finished_at FROM matches WHERE id = ?`

	var record entity.MatchRecord

	err := that.conn.QueryRowContext(ctx, query, id).
		Scan(&record.ID, &record.Player1, &record.Player2, &record.Result, &record.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find match: %w", err)
	}

	return &record, nil
}

func (that *dbJournal) ListTurns(ctx context.Context, matchID string) ([]entity.TurnRecord, error) {
	query := `SELECT match_id, number, slot, cell_row, cell_col FROM turns WHERE match_id = ? ORDER BY number`

	rows, err := that.conn.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("can't list turns: %w", err)
	}
	defer rows.Close()

	var records []entity.TurnRecord
	for rows.Next() {
		var record entity.TurnRecord
		if err = rows.Scan(&record.MatchID, &record.Number, &record.Slot, &record.Row, &record.Col); err != nil {
			return nil, fmt.Errorf("can't scan turn: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read turns: %w", err)
	}

	return records, nil
}
