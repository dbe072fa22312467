package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adlane/eventhub/internal/listquery"
	"github.com/adlane/eventhub/internal/model"
	"github.com/adlane/eventhub/internal/repository"
)

// VenueRepo implements repository.VenueRepository on the shared pool.
type VenueRepo struct {
	db *DB
}

func NewVenueRepo(db *DB) *VenueRepo {
	return &VenueRepo{db: db}
}

var _ repository.VenueRepository = (*VenueRepo)(nil)

// List returns a page of scraped venues plus the total count matching the
// built filters. Same count/page parity as the events listing.
func (r *VenueRepo) List(ctx context.Context, q listquery.Query) ([]model.Venue, int, error) {
	var total int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scraped_venues `+q.Where(),
		q.Args()...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting venues: %w", err)
	}

	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, name, address, rating, city, keyword, scraped_at
		 FROM scraped_venues `+q.Where()+" "+q.OrderBy()+" "+q.LimitOffset(),
		q.PageArgs()...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing venues: %w", err)
	}
	defer rows.Close()

	venues := make([]model.Venue, 0, q.Limit())
	for rows.Next() {
		var (
			v       model.Venue
			address sql.NullString
			rating  sql.NullFloat64
		)
		if err := rows.Scan(&v.ID, &v.Name, &address, &rating, &v.City, &v.Keyword, &v.ScrapedAt); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning venue row: %w", err)
		}
		v.Address = address.String
		v.Rating = rating.Float64
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating venues: %w", err)
	}

	return venues, total, nil
}

// RecordTrigger writes the audit row for a scrape request. The workflow
// fills in real venue rows later; this row marks who asked for what.
func (r *VenueRepo) RecordTrigger(ctx context.Context, city, keyword string) error {
	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO scraped_venues (name, city, keyword) VALUES ('Scraping triggered', ?, ?)`,
		city, keyword,
	)
	if err != nil {
		return fmt.Errorf("sqlite: recording scrape trigger: %w", err)
	}
	return nil
}
