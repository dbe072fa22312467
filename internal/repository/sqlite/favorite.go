package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/adlane/eventhub/internal/apperror"
	"github.com/adlane/eventhub/internal/model"
	"github.com/adlane/eventhub/internal/repository"
)

// FavoriteRepo implements repository.FavoriteRepository on the shared pool.
type FavoriteRepo struct {
	db *DB
}

func NewFavoriteRepo(db *DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

var _ repository.FavoriteRepository = (*FavoriteRepo)(nil)

// Add favorites an event for a user.
//
// The UNIQUE(user_id, event_id) constraint catches the double-favorite
// race instead of a check-then-insert; a constraint hit maps to Conflict.
// A missing event is reported as NotFound before inserting, which also
// covers the foreign key.
func (r *FavoriteRepo) Add(ctx context.Context, userID, eventID int64) error {
	var exists int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE id = ?`, eventID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: checking event %d: %w", eventID, err)
	}
	if exists == 0 {
		return apperror.NotFound("event", strconv.FormatInt(eventID, 10))
	}

	_, err = r.db.conn.ExecContext(ctx,
		`INSERT INTO favorites (user_id, event_id) VALUES (?, ?)`,
		userID, eventID,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return apperror.Conflict("event is already in your favorites")
		}
		return fmt.Errorf("sqlite: adding favorite: %w", err)
	}
	return nil
}

// Remove unfavorites an event. RowsAffected distinguishes "was never
// favorited" from success.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, eventID int64) error {
	res, err := r.db.conn.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND event_id = ?`,
		userID, eventID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing favorite: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: "event is not in your favorites",
		}
	}
	return nil
}

// ListByUser returns the user's favorited events, newest favorite first.
func (r *FavoriteRepo) ListByUser(ctx context.Context, userID int64, opts repository.ListOptions) ([]model.Event, int, error) {
	var total int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = ?`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting favorites: %w", err)
	}

	rows, err := r.db.conn.QueryContext(ctx,
		eventSelect+`
		 JOIN favorites f ON f.event_id = e.id
		 WHERE f.user_id = ?
		 ORDER BY f.created_at DESC
		 LIMIT ? OFFSET ?`,
		userID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing favorites: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0, opts.Limit)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning favorite row: %w", err)
		}
		e.IsFavorite = true
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating favorites: %w", err)
	}

	return events, total, nil
}

// EventIDs returns every event id the user has favorited.
func (r *FavoriteRepo) EventIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT event_id FROM favorites WHERE user_id = ?`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading favorite ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning favorite id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating favorite ids: %w", err)
	}
	return ids, nil
}

// IsFavorite reports whether the user has favorited the event.
func (r *FavoriteRepo) IsFavorite(ctx context.Context, userID, eventID int64) (bool, error) {
	var n int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = ? AND event_id = ?`,
		userID, eventID,
	).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("sqlite: checking favorite: %w", err)
	}
	return n > 0, nil
}
