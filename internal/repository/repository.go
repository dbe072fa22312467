// Package repository declares the storage interfaces consumed by the
// service layer. The sqlite subpackage provides the implementation; tests
// substitute in-memory fakes.
package repository

import (
	"context"
	"errors"

	"github.com/adlane/eventhub/internal/listquery"
	"github.com/adlane/eventhub/internal/model"
)

// Uniqueness violations the service layer needs to tell apart. The OAuth
// provisioning loop retries only on ErrDuplicateUsername; a duplicate email
// at that point is a logic error and must propagate.
var (
	ErrDuplicateUsername = errors.New("repository: duplicate username")
	ErrDuplicateEmail    = errors.New("repository: duplicate email")
)

// ListOptions is plain limit/offset paging for endpoints that don't go
// through the listquery builder (currently only the favorites listing).
type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	// Create inserts the user and fills in ID and CreatedAt. Uniqueness
	// conflicts surface as ErrDuplicateUsername / ErrDuplicateEmail.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	// AttachGoogleID links an OAuth identity to an existing account.
	AttachGoogleID(ctx context.Context, userID int64, googleID string) error
}

type EventRepository interface {
	// List runs the count and page queries built by listquery and returns
	// the page plus the total matching row count.
	List(ctx context.Context, q listquery.Query) ([]model.Event, int, error)
	GetByID(ctx context.Context, id int64) (*model.Event, error)
	Create(ctx context.Context, event *model.Event) error
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id int64) error
}

type FavoriteRepository interface {
	// Add returns apperror.ErrConflict when the pair already exists and
	// apperror.ErrNotFound when the event does not exist.
	Add(ctx context.Context, userID, eventID int64) error
	Remove(ctx context.Context, userID, eventID int64) error
	// ListByUser returns the user's favorited events, newest favorite
	// first, plus the total favorite count.
	ListByUser(ctx context.Context, userID int64, opts ListOptions) ([]model.Event, int, error)
	// EventIDs returns the set of event ids the user has favorited, used
	// to flag list results for an authenticated viewer.
	EventIDs(ctx context.Context, userID int64) (map[int64]bool, error)
	IsFavorite(ctx context.Context, userID, eventID int64) (bool, error)
}

type VenueRepository interface {
	List(ctx context.Context, q listquery.Query) ([]model.Venue, int, error)
	// RecordTrigger writes the audit row noting that a scrape was requested
	// for this city/keyword pair.
	RecordTrigger(ctx context.Context, city, keyword string) error
}
