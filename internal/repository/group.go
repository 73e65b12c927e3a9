package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"codewars-tracker/internal/domain"
)

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

type GroupRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewGroupRepository(sqlDB *sql.DB, logger zerolog.Logger) *GroupRepository {
	return &GroupRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Get loads a group with its member set. Absent groups return (nil, nil).
// Group names match case-sensitively.
func (r *GroupRepository) Get(ctx context.Context, name string) (*domain.Group, error) {
	return r.getBy(ctx, `SELECT name, creator_id, chat_id, is_forum, created_at, updated_at
		 FROM groups WHERE name = ?`, name)
}

// GetByChatID resolves the group auto-created for a chat, if any.
func (r *GroupRepository) GetByChatID(ctx context.Context, chatID int64) (*domain.Group, error) {
	return r.getBy(ctx, `SELECT name, creator_id, chat_id, is_forum, created_at, updated_at
		 FROM groups WHERE chat_id = ?`, chatID)
}

func (r *GroupRepository) getBy(ctx context.Context, query string, arg any) (*domain.Group, error) {
	row := r.db.QueryRowContext(ctx, query, arg)

	var group domain.Group
	err := row.Scan(&group.Name, &group.CreatorID, &group.ChatID, &group.IsForum, &group.CreatedAt, &group.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err)
	}

	members, err := r.loadMembers(ctx, group.Name)
	if err != nil {
		return nil, err
	}
	group.Members = members

	return &group, nil
}

func (r *GroupRepository) loadMembers(ctx context.Context, name string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT telegram_id FROM group_members WHERE group_name = ? ORDER BY joined_at ASC`, name)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var members []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr(err)
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return members, nil
}

// Create inserts a new group whose member set is exactly the creator. A name
// collision leaves the existing record untouched and reports ErrGroupExists.
func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT name FROM groups WHERE name = ?`, group.Name).Scan(&existing)
	if err == nil {
		return domain.ErrGroupExists
	}
	if err != sql.ErrNoRows {
		return storeErr(err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (name, creator_id, chat_id, is_forum, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		group.Name, group.CreatorID, group.ChatID, group.IsForum, now, now)
	if err != nil {
		return storeErr(err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_name, telegram_id, joined_at) VALUES (?, ?, ?)`,
		group.Name, group.CreatorID, now)
	if err != nil {
		return storeErr(err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}

	r.logger.Info().Str("group", group.Name).Int64("creator_id", group.CreatorID).Msg("group created")
	return nil
}

// AddMember joins a user to a group. The membership check and the write run
// in one transaction against the current record, never against a snapshot
// held across a suspension point, so interleaved joins cannot drop each
// other.
func (r *GroupRepository) AddMember(ctx context.Context, name string, telegramID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT name FROM groups WHERE name = ?`, name).Scan(&existing)
	if err == sql.ErrNoRows {
		return domain.ErrGroupNotFound
	}
	if err != nil {
		return storeErr(err)
	}

	var member int64
	err = tx.QueryRowContext(ctx,
		`SELECT telegram_id FROM group_members WHERE group_name = ? AND telegram_id = ?`,
		name, telegramID).Scan(&member)
	if err == nil {
		return domain.ErrAlreadyMember
	}
	if err != sql.ErrNoRows {
		return storeErr(err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_name, telegram_id, joined_at) VALUES (?, ?, ?)`,
		name, telegramID, time.Now())
	if err != nil {
		return storeErr(err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}

	r.logger.Info().Str("group", name).Int64("telegram_id", telegramID).Msg("member joined")
	return nil
}

// GroupsFor returns every group the user belongs to.
func (r *GroupRepository) GroupsFor(ctx context.Context, telegramID int64) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.name, g.creator_id, g.chat_id, g.is_forum, g.created_at, g.updated_at
		 FROM groups g
		 JOIN group_members m ON m.group_name = g.name
		 WHERE m.telegram_id = ?
		 ORDER BY g.created_at ASC`, telegramID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var group domain.Group
		if err := rows.Scan(&group.Name, &group.CreatorID, &group.ChatID, &group.IsForum, &group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, storeErr(err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}

	for i := range groups {
		members, err := r.loadMembers(ctx, groups[i].Name)
		if err != nil {
			return nil, err
		}
		groups[i].Members = members
	}

	return groups, nil
}

// ListAll returns every group, members included.
func (r *GroupRepository) ListAll(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, creator_id, chat_id, is_forum, created_at, updated_at
		 FROM groups ORDER BY created_at ASC`)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var group domain.Group
		if err := rows.Scan(&group.Name, &group.CreatorID, &group.ChatID, &group.IsForum, &group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, storeErr(err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}

	for i := range groups {
		members, err := r.loadMembers(ctx, groups[i].Name)
		if err != nil {
			return nil, err
		}
		groups[i].Members = members
	}

	return groups, nil
}
