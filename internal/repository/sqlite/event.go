package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/adlane/eventhub/internal/apperror"
	"github.com/adlane/eventhub/internal/listquery"
	"github.com/adlane/eventhub/internal/model"
	"github.com/adlane/eventhub/internal/repository"
)

// EventRepo implements repository.EventRepository on the shared pool.
type EventRepo struct {
	db *DB
}

func NewEventRepo(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

var _ repository.EventRepository = (*EventRepo)(nil)

// eventSelect joins the creator so list and detail responses can carry the
// creator's username/avatar without a second query. Columns in the WHERE
// and ORDER BY fragments built by listquery are qualified with the `e.`
// alias by the service layer; created_at exists on both tables, so an
// unqualified reference would be ambiguous here.
const eventSelect = `
	SELECT e.id, e.name, e.type, e.description, e.date, e.end_date,
	       e.location, e.capacity, e.price, e.status, e.image,
	       e.creator_id, e.created_at, u.username, u.avatar
	FROM events e
	LEFT JOIN users u ON e.creator_id = u.id`

// List runs the count query and the page query sharing the built WHERE
// clause and bound arguments, and returns the page plus the total count.
func (r *EventRepo) List(ctx context.Context, q listquery.Query) ([]model.Event, int, error) {
	var total int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events e `+q.Where(),
		q.Args()...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting events: %w", err)
	}

	rows, err := r.db.conn.QueryContext(ctx,
		eventSelect+" "+q.Where()+" "+q.OrderBy()+" "+q.LimitOffset(),
		q.PageArgs()...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0, q.Limit())
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating events: %w", err)
	}

	return events, total, nil
}

// GetByID retrieves a single event with creator info.
func (r *EventRepo) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	row := r.db.conn.QueryRowContext(ctx, eventSelect+` WHERE e.id = ?`, id)

	e, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("event", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting event %d: %w", id, err)
	}
	return e, nil
}

// Create inserts an event and fills in ID and CreatedAt.
func (r *EventRepo) Create(ctx context.Context, event *model.Event) error {
	event.CreatedAt = time.Now()

	res, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO events
		 (name, type, description, date, end_date, location, capacity, price, status, image, creator_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Name,
		event.Type,
		event.Description,
		event.Date,
		nullableTime(event.EndDate),
		event.Location,
		event.Capacity,
		event.Price,
		event.Status,
		nullIfEmpty(event.Image.StorageValue()),
		event.CreatorID,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating event: %w", err)
	}

	event.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new event id: %w", err)
	}
	return nil
}

// Update writes the full mutable field set. The service applies partial
// updates onto a freshly fetched copy first, so writing every field here
// is simpler than building a dynamic SET list and equally correct.
func (r *EventRepo) Update(ctx context.Context, event *model.Event) error {
	res, err := r.db.conn.ExecContext(ctx,
		`UPDATE events
		 SET name = ?, type = ?, description = ?, date = ?, end_date = ?,
		     location = ?, capacity = ?, price = ?, status = ?, image = ?
		 WHERE id = ?`,
		event.Name,
		event.Type,
		event.Description,
		event.Date,
		nullableTime(event.EndDate),
		event.Location,
		event.Capacity,
		event.Price,
		event.Status,
		nullIfEmpty(event.Image.StorageValue()),
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating event %d: %w", event.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("event", strconv.FormatInt(event.ID, 10))
	}
	return nil
}

// Delete removes an event. Favorites referencing it go with it (ON DELETE
// CASCADE).
func (r *EventRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting event %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("event", strconv.FormatInt(id, 10))
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanEvent reads one eventSelect row. The image column is resolved into
// its tagged variant here, at the data-access boundary, so no other layer
// ever sees the raw possibly-JSON-array value.
func scanEvent(s scanner) (*model.Event, error) {
	var (
		e               model.Event
		description     sql.NullString
		endDate         sql.NullTime
		image           sql.NullString
		creatorID       sql.NullInt64
		creatorUsername sql.NullString
		creatorAvatar   sql.NullString
	)

	err := s.Scan(
		&e.ID,
		&e.Name,
		&e.Type,
		&description,
		&e.Date,
		&endDate,
		&e.Location,
		&e.Capacity,
		&e.Price,
		&e.Status,
		&image,
		&creatorID,
		&e.CreatedAt,
		&creatorUsername,
		&creatorAvatar,
	)
	if err != nil {
		return nil, err
	}

	e.Description = description.String
	if endDate.Valid {
		t := endDate.Time
		e.EndDate = &t
	}
	e.Image = model.ParseEventImage(image.String)
	e.CreatorID = creatorID.Int64
	e.CreatorUsername = creatorUsername.String
	e.CreatorAvatar = creatorAvatar.String
	return &e, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
