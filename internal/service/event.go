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
)

// maxPageLimit caps the page size for every listing endpoint. The query
// builder itself leaves limit unbounded.
const maxPageLimit = 100

// eventSortColumns maps the client-facing sort tokens onto qualified
// column names. The events query joins users, and both tables carry a
// created_at column, so the unqualified token would be ambiguous SQL.
// Keeping the mapping here also means the allow-list the builder sees
// already contains the exact identifiers that render into ORDER BY.
var eventSortColumns = map[string]string{
	"date":       "e.date",
	"name":       "e.name",
	"price":      "e.price",
	"created_at": "e.created_at",
}

const defaultEventSort = "e.date"

// EventService owns event CRUD and the personalized listing logic.
type EventService struct {
	events    repository.EventRepository
	favorites repository.FavoriteRepository
	logger    *slog.Logger
}

func NewEventService(
	events repository.EventRepository,
	favorites repository.FavoriteRepository,
	logger *slog.Logger,
) *EventService {
	return &EventService{
		events:    events,
		favorites: favorites,
		logger:    logger,
	}
}

// EventListInput carries the raw query parameters of GET /api/events.
// Values stay untrusted strings; coercion and allow-listing happen in the
// query builder.
type EventListInput struct {
	Page   string
	Limit  string
	Search string
	Type   string
	Status string
	Sort   string
	Order  string
}

// EventList is a page of events plus its pagination metadata.
type EventList struct {
	Events     []model.Event
	Pagination model.Pagination
}

// List returns a filtered, sorted page of events. When viewer is non-nil
// the IsFavorite flag is set from the viewer's favorites in one extra
// query rather than one per row.
func (s *EventService) List(ctx context.Context, input EventListInput, viewer *model.User) (*EventList, error) {
	q := listquery.Build(listquery.Params{
		Page:   input.Page,
		Limit:  input.Limit,
		Search: input.Search,
		Filters: []listquery.Filter{
			{Column: "e.type", Value: input.Type},
			{Column: "e.status", Value: input.Status},
		},
		Sort:  eventSortColumns[input.Sort],
		Order: input.Order,
	}, listquery.Config{
		AllowedSortColumns: []string{"e.date", "e.name", "e.price", "e.created_at"},
		DefaultSortColumn:  defaultEventSort,
		SearchColumns:      []string{"e.name", "e.location", "e.description"},
		DefaultLimit:       6,
	})
	q.ClampLimit(maxPageLimit)

	events, total, err := s.events.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service/event: listing events: %w", err)
	}

	if viewer != nil && len(events) > 0 {
		favorited, err := s.favorites.EventIDs(ctx, viewer.ID)
		if err != nil {
			return nil, fmt.Errorf("service/event: loading favorite flags: %w", err)
		}
		for i := range events {
			events[i].IsFavorite = favorited[events[i].ID]
		}
	}

	return &EventList{Events: events, Pagination: q.Pagination(total)}, nil
}

// Get returns one event, with IsFavorite personalized when viewer is set.
func (s *EventService) Get(ctx context.Context, id int64, viewer *model.User) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if viewer != nil {
		fav, err := s.favorites.IsFavorite(ctx, viewer.ID, event.ID)
		if err != nil {
			return nil, fmt.Errorf("service/event: checking favorite: %w", err)
		}
		event.IsFavorite = fav
	}

	return event, nil
}

// EventInput is the writable field set for create and update. Pointer
// fields distinguish "absent" from "zero" on partial updates.
type EventInput struct {
	Name        *string
	Type        *string
	Description *string
	Date        *time.Time
	EndDate     *time.Time
	Location    *string
	Capacity    *int
	Price       *float64
	Status      *string
	Image       *model.EventImage
}

// Create inserts a new event owned by creator. Missing capacity and
// status fall back to the documented defaults.
func (s *EventService) Create(ctx context.Context, input EventInput, creator *model.User) (*model.Event, error) {
	if input.Name == nil || input.Type == nil || input.Date == nil || input.Location == nil {
		return nil, apperror.ValidationFailed("body", "name, type, date and location are required")
	}
	if input.EndDate != nil && !input.EndDate.After(*input.Date) {
		return nil, apperror.ValidationFailed("end_date", "end date must be after start date")
	}

	event := &model.Event{
		Name:      *input.Name,
		Type:      *input.Type,
		Date:      *input.Date,
		EndDate:   input.EndDate,
		Location:  *input.Location,
		Capacity:  model.DefaultEventCapacity,
		Status:    model.EventStatusUpcoming,
		CreatorID: creator.ID,
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.Capacity != nil {
		event.Capacity = *input.Capacity
	}
	if input.Price != nil {
		event.Price = *input.Price
	}
	if input.Status != nil {
		event.Status = *input.Status
	}
	if input.Image != nil {
		event.Image = *input.Image
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("service/event: creating event: %w", err)
	}

	s.logger.Info("event created",
		slog.Int64("eventID", event.ID),
		slog.Int64("creatorID", creator.ID),
	)

	// The insert does not return the denormalized creator columns.
	event.CreatorUsername = creator.Username
	event.CreatorAvatar = creator.Avatar

	return event, nil
}

// Update applies the set fields of input to the event. Only the creator
// may update; everyone else gets Forbidden regardless of the field set.
func (s *EventService) Update(ctx context.Context, id int64, input EventInput, actor *model.User) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != actor.ID {
		return nil, apperror.Forbidden("you can only update your own events")
	}

	if input.Name != nil {
		event.Name = *input.Name
	}
	if input.Type != nil {
		event.Type = *input.Type
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.Date != nil {
		event.Date = *input.Date
	}
	if input.EndDate != nil {
		event.EndDate = input.EndDate
	}
	if input.Location != nil {
		event.Location = *input.Location
	}
	if input.Capacity != nil {
		event.Capacity = *input.Capacity
	}
	if input.Price != nil {
		event.Price = *input.Price
	}
	if input.Status != nil {
		event.Status = *input.Status
	}
	if input.Image != nil {
		event.Image = *input.Image
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("service/event: updating event %d: %w", id, err)
	}

	s.logger.Info("event updated", slog.Int64("eventID", id))

	return event, nil
}

// Delete removes an event after the same ownership check as Update.
func (s *EventService) Delete(ctx context.Context, id int64, actor *model.User) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if event.CreatorID != actor.ID {
		return apperror.Forbidden("you can only delete your own events")
	}

	if err := s.events.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/event: deleting event %d: %w", id, err)
	}

	s.logger.Info("event deleted",
		slog.Int64("eventID", id),
		slog.Int64("actorID", actor.ID),
	)

	return nil
}
