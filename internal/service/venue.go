package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adlane/eventhub/internal/apperror"
	"github.com/adlane/eventhub/internal/listquery"
	"github.com/adlane/eventhub/internal/model"
	"github.com/adlane/eventhub/internal/repository"
	"github.com/adlane/eventhub/internal/scrape"
)

// VenueService triggers scrape runs and serves the scraped-venue listing.
type VenueService struct {
	venues  repository.VenueRepository
	scraper *scrape.Client
	logger  *slog.Logger
}

func NewVenueService(venues repository.VenueRepository, scraper *scrape.Client, logger *slog.Logger) *VenueService {
	return &VenueService{venues: venues, scraper: scraper, logger: logger}
}

// TriggerScrape starts a scrape run for a city/keyword pair on behalf of
// user and records the request. Unavailable when the webhook integration
// is not configured.
func (s *VenueService) TriggerScrape(ctx context.Context, user *model.User, city, keyword string) (*scrape.TriggerResult, error) {
	if city == "" || keyword == "" {
		return nil, apperror.ValidationFailed("body", "city and keyword are required")
	}
	if !s.scraper.Configured() {
		return nil, apperror.Unavailable("scraping service is not configured")
	}

	result, err := s.scraper.Trigger(ctx, scrape.TriggerRequest{
		City:        city,
		Keyword:     keyword,
		UserEmail:   user.Email,
		TriggeredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("scrape trigger failed",
			slog.String("city", city),
			slog.String("keyword", keyword),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Unavailable("scraping service is unavailable")
	}

	// Best effort; a failed audit write should not undo a scrape that is
	// already running.
	if err := s.venues.RecordTrigger(ctx, city, keyword); err != nil {
		s.logger.Warn("recording scrape trigger failed",
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("scrape triggered",
		slog.String("city", city),
		slog.String("keyword", keyword),
		slog.Int64("userID", user.ID),
	)

	return result, nil
}

// VenueListInput carries the raw query parameters of the venues listing.
type VenueListInput struct {
	Page    string
	Limit   string
	Search  string
	City    string
	Keyword string
	Sort    string
	Order   string
}

// VenueList is a page of scraped venues plus pagination metadata.
type VenueList struct {
	Venues     []model.Venue
	Pagination model.Pagination
}

var venueSortColumns = map[string]string{
	"name":       "name",
	"rating":     "rating",
	"scraped_at": "scraped_at",
}

// ListVenues returns a filtered page of scraped venues, newest first by
// default.
func (s *VenueService) ListVenues(ctx context.Context, input VenueListInput) (*VenueList, error) {
	order := input.Order
	if order == "" {
		order = "DESC"
	}

	q := listquery.Build(listquery.Params{
		Page:   input.Page,
		Limit:  input.Limit,
		Search: input.Search,
		Filters: []listquery.Filter{
			{Column: "city", Value: input.City},
			{Column: "keyword", Value: input.Keyword},
		},
		Sort:  venueSortColumns[input.Sort],
		Order: order,
	}, listquery.Config{
		AllowedSortColumns: []string{"name", "rating", "scraped_at"},
		DefaultSortColumn:  "scraped_at",
		SearchColumns:      []string{"name", "address"},
		DefaultLimit:       20,
	})
	q.ClampLimit(maxPageLimit)

	venues, total, err := s.venues.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service/venue: listing venues: %w", err)
	}

	return &VenueList{Venues: venues, Pagination: q.Pagination(total)}, nil
}
