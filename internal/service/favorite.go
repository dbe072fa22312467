package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adlane/eventhub/internal/listquery"
	"github.com/adlane/eventhub/internal/model"
	"github.com/adlane/eventhub/internal/repository"
)

// FavoriteService manages per-user event bookmarks.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	logger    *slog.Logger
}

func NewFavoriteService(favorites repository.FavoriteRepository, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{favorites: favorites, logger: logger}
}

// Add bookmarks an event. Conflict (already favorited) and NotFound
// (no such event) come straight from the repository.
func (s *FavoriteService) Add(ctx context.Context, user *model.User, eventID int64) error {
	if err := s.favorites.Add(ctx, user.ID, eventID); err != nil {
		return err
	}
	s.logger.Info("favorite added",
		slog.Int64("userID", user.ID),
		slog.Int64("eventID", eventID),
	)
	return nil
}

// Remove deletes a bookmark; removing an absent one is NotFound.
func (s *FavoriteService) Remove(ctx context.Context, user *model.User, eventID int64) error {
	if err := s.favorites.Remove(ctx, user.ID, eventID); err != nil {
		return err
	}
	s.logger.Info("favorite removed",
		slog.Int64("userID", user.ID),
		slog.Int64("eventID", eventID),
	)
	return nil
}

// ListMine returns the user's favorited events, newest bookmark first.
// The favorites listing supports no search, filter, or sort parameters,
// so it takes plain page/limit strings instead of a full listquery build.
func (s *FavoriteService) ListMine(ctx context.Context, user *model.User, page, limit string) (*EventList, error) {
	// Reuse the builder's coercion and clamping so page/limit behave the
	// same as on every other listing.
	q := listquery.Build(listquery.Params{Page: page, Limit: limit}, listquery.Config{
		DefaultSortColumn: "created_at",
		DefaultLimit:      10,
	})
	q.ClampLimit(maxPageLimit)

	events, total, err := s.favorites.ListByUser(ctx, user.ID, repository.ListOptions{
		Limit:  q.Limit(),
		Offset: q.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("service/favorite: listing favorites for user %d: %w", user.ID, err)
	}

	return &EventList{Events: events, Pagination: q.Pagination(total)}, nil
}
