package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/partybot/core/logger"
	"github.com/m3rciful/partybot/party/conversation"
)

// Sessions persists conversation states keyed by chat id.
type Sessions struct {
	db *sqlx.DB
}

// NewSessions wraps an open, migrated database.
func NewSessions(db *sqlx.DB) *Sessions {
	return &Sessions{db: db}
}

type sessionRow struct {
	ChatID int64 `db:"chat_id"`
	conversation.Record
}

// LoadSessions returns every stored session. Rows with an unknown state are
// skipped and logged.
func (s *Sessions) LoadSessions(ctx context.Context) (map[int64]conversation.State, error) {
	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT chat_id, state, item, cost FROM sessions"); err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	out := make(map[int64]conversation.State, len(rows))
	for _, r := range rows {
		st, err := conversation.Decode(r.Record)
		if err != nil {
			logger.DB.Warn("session skipped",
				slog.String("event", "session.load"),
				slog.Int64("chat_id", r.ChatID),
				slog.String("err", err.Error()),
			)
			continue
		}
		out[r.ChatID] = st
	}
	return out, nil
}

// SaveSession upserts the state of one chat.
func (s *Sessions) SaveSession(ctx context.Context, chatID int64, st conversation.State) error {
	r := conversation.Encode(st)
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO sessions (chat_id, state, item, cost, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (chat_id) DO UPDATE SET
		     state = excluded.state,
		     item = excluded.item,
		     cost = excluded.cost,
		     updated_at = excluded.updated_at`),
		chatID, string(r.State), r.Item, r.Cost)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// DeleteSession removes the state of one chat.
func (s *Sessions) DeleteSession(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM sessions WHERE chat_id = ?"), chatID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
