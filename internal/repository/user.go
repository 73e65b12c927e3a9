package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"codewars-tracker/internal/domain"
)

type UserRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUserRepository(sqlDB *sql.DB, logger zerolog.Logger) *UserRepository {
	return &UserRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Get loads a user with the full stored history, ordered by date ascending.
// Absent users return (nil, nil).
func (r *UserRepository) Get(ctx context.Context, telegramID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT telegram_id, username, completed_total, created_at, updated_at
		 FROM users WHERE telegram_id = ?`, telegramID)

	var user domain.User
	err := row.Scan(&user.TelegramID, &user.Username, &user.CompletedTotal, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err)
	}

	history, err := r.loadHistory(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	user.History = history

	return &user, nil
}

func (r *UserRepository) loadHistory(ctx context.Context, telegramID int64) ([]domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, completed_katas, honor, rank
		 FROM user_history WHERE telegram_id = ?
		 ORDER BY date ASC, created_at ASC`, telegramID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var history []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.Date, &entry.CompletedKatas, &entry.Honor, &entry.Rank); err != nil {
			return nil, storeErr(err)
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return history, nil
}

// Upsert writes the user row and appends any history entries that have not
// been persisted yet (empty ID). Stored history rows are never rewritten.
// The whole write is one transaction so a failed command leaves the store as
// it was.
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (telegram_id, username, completed_total, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(telegram_id) DO UPDATE SET
			username = excluded.username,
			completed_total = excluded.completed_total,
			updated_at = excluded.updated_at`,
		user.TelegramID, user.Username, user.CompletedTotal, now, now)
	if err != nil {
		return storeErr(err)
	}

	for i := range user.History {
		entry := &user.History[i]
		if entry.ID != "" {
			continue
		}

		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_history (id, telegram_id, date, completed_katas, honor, rank, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, user.TelegramID, entry.Date, entry.CompletedKatas, entry.Honor, entry.Rank, now)
		if err != nil {
			return storeErr(err)
		}
		entry.ID = id
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}

	r.logger.Debug().Int64("telegram_id", user.TelegramID).Str("username", user.Username).Msg("user upserted")
	return nil
}
