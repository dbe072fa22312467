package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlane/eventhub/internal/apperror"
	"github.com/adlane/eventhub/internal/listquery"
	"github.com/adlane/eventhub/internal/model"
	"github.com/adlane/eventhub/internal/repository"
)

// fakeEventRepo stores events in insertion order and ignores the built
// query; query translation itself is covered by the sqlite tests.
type fakeEventRepo struct {
	events map[int64]*model.Event
	order  []int64
	nextID int64
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[int64]*model.Event)}
}

func (f *fakeEventRepo) List(_ context.Context, _ listquery.Query) ([]model.Event, int, error) {
	out := make([]model.Event, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, *f.events[id])
	}
	return out, len(out), nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id int64) (*model.Event, error) {
	if e, ok := f.events[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, apperror.NotFound("event", "?")
}

func (f *fakeEventRepo) Create(_ context.Context, event *model.Event) error {
	f.nextID++
	event.ID = f.nextID
	event.CreatedAt = time.Now()
	stored := *event
	f.events[event.ID] = &stored
	f.order = append(f.order, event.ID)
	return nil
}

func (f *fakeEventRepo) Update(_ context.Context, event *model.Event) error {
	if _, ok := f.events[event.ID]; !ok {
		return apperror.NotFound("event", "?")
	}
	stored := *event
	f.events[event.ID] = &stored
	return nil
}

func (f *fakeEventRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.events[id]; !ok {
		return apperror.NotFound("event", "?")
	}
	delete(f.events, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

// fakeFavoriteRepo tracks user->event pairs.
type fakeFavoriteRepo struct {
	pairs map[[2]int64]bool
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{pairs: make(map[[2]int64]bool)}
}

func (f *fakeFavoriteRepo) Add(_ context.Context, userID, eventID int64) error {
	key := [2]int64{userID, eventID}
	if f.pairs[key] {
		return apperror.Conflict("event is already in your favorites")
	}
	f.pairs[key] = true
	return nil
}

func (f *fakeFavoriteRepo) Remove(_ context.Context, userID, eventID int64) error {
	key := [2]int64{userID, eventID}
	if !f.pairs[key] {
		return apperror.NotFound("favorite", "?")
	}
	delete(f.pairs, key)
	return nil
}

func (f *fakeFavoriteRepo) ListByUser(_ context.Context, _ int64, _ repository.ListOptions) ([]model.Event, int, error) {
	return nil, 0, nil
}

func (f *fakeFavoriteRepo) EventIDs(_ context.Context, userID int64) (map[int64]bool, error) {
	ids := make(map[int64]bool)
	for key := range f.pairs {
		if key[0] == userID {
			ids[key[1]] = true
		}
	}
	return ids, nil
}

func (f *fakeFavoriteRepo) IsFavorite(_ context.Context, userID, eventID int64) (bool, error) {
	return f.pairs[[2]int64{userID, eventID}], nil
}

func newTestEventService(events *fakeEventRepo, favorites *fakeFavoriteRepo) *EventService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEventService(events, favorites, logger)
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func minimalEventInput(name string) EventInput {
	return EventInput{
		Name:     strPtr(name),
		Type:     strPtr("concert"),
		Date:     timePtr(time.Date(2026, 10, 1, 20, 0, 0, 0, time.UTC)),
		Location: strPtr("Berlin"),
	}
}

func TestEventCreate_Defaults(t *testing.T) {
	svc := newTestEventService(newFakeEventRepo(), newFakeFavoriteRepo())
	creator := &model.User{ID: 1, Username: "ada", Avatar: "https://example.com/a.png"}

	event, err := svc.Create(context.Background(), minimalEventInput("Jazz Night"), creator)
	require.NoError(t, err)

	assert.Equal(t, model.DefaultEventCapacity, event.Capacity)
	assert.Equal(t, model.EventStatusUpcoming, event.Status)
	assert.Equal(t, creator.ID, event.CreatorID)
	assert.Equal(t, "ada", event.CreatorUsername)
}

func TestEventCreate_MissingRequiredFields(t *testing.T) {
	svc := newTestEventService(newFakeEventRepo(), newFakeFavoriteRepo())
	creator := &model.User{ID: 1}

	input := minimalEventInput("Jazz Night")
	input.Date = nil

	_, err := svc.Create(context.Background(), input, creator)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestEventCreate_EndDateMustFollowStart(t *testing.T) {
	svc := newTestEventService(newFakeEventRepo(), newFakeFavoriteRepo())
	creator := &model.User{ID: 1}

	input := minimalEventInput("Jazz Night")
	input.EndDate = timePtr(input.Date.Add(-time.Hour))

	_, err := svc.Create(context.Background(), input, creator)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	// Equal timestamps are rejected too, the end must be strictly later.
	input.EndDate = timePtr(*input.Date)
	_, err = svc.Create(context.Background(), input, creator)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	input.EndDate = timePtr(input.Date.Add(2 * time.Hour))
	event, err := svc.Create(context.Background(), input, creator)
	require.NoError(t, err)
	require.NotNil(t, event.EndDate)
}

func TestEventList_FavoriteFlagsForViewer(t *testing.T) {
	events := newFakeEventRepo()
	favorites := newFakeFavoriteRepo()
	svc := newTestEventService(events, favorites)
	viewer := &model.User{ID: 7}

	first, err := svc.Create(context.Background(), minimalEventInput("Jazz Night"), viewer)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), minimalEventInput("Tech Meetup"), viewer)
	require.NoError(t, err)
	require.NoError(t, favorites.Add(context.Background(), viewer.ID, first.ID))

	list, err := svc.List(context.Background(), EventListInput{}, viewer)
	require.NoError(t, err)
	require.Len(t, list.Events, 2)

	assert.True(t, list.Events[0].IsFavorite, "favorited event should be flagged")
	assert.False(t, list.Events[1].IsFavorite)
}

func TestEventList_AnonymousViewerGetsNoFlags(t *testing.T) {
	events := newFakeEventRepo()
	favorites := newFakeFavoriteRepo()
	svc := newTestEventService(events, favorites)
	someone := &model.User{ID: 7}

	first, err := svc.Create(context.Background(), minimalEventInput("Jazz Night"), someone)
	require.NoError(t, err)
	require.NoError(t, favorites.Add(context.Background(), someone.ID, first.ID))

	list, err := svc.List(context.Background(), EventListInput{}, nil)
	require.NoError(t, err)
	require.Len(t, list.Events, 1)
	assert.False(t, list.Events[0].IsFavorite, "anonymous listing must not carry favorite flags")
}

func TestEventUpdate_PartialApply(t *testing.T) {
	svc := newTestEventService(newFakeEventRepo(), newFakeFavoriteRepo())
	creator := &model.User{ID: 1}

	input := minimalEventInput("Jazz Night")
	input.Price = floatPtr(25)
	input.Capacity = intPtr(50)
	event, err := svc.Create(context.Background(), input, creator)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), event.ID, EventInput{
		Name: strPtr("Jazz Evening"),
	}, creator)
	require.NoError(t, err)

	assert.Equal(t, "Jazz Evening", updated.Name)
	// Untouched fields keep their values.
	assert.Equal(t, 50, updated.Capacity)
	assert.Equal(t, 25.0, updated.Price)
}

func TestEventUpdate_NotOwner(t *testing.T) {
	svc := newTestEventService(newFakeEventRepo(), newFakeFavoriteRepo())
	creator := &model.User{ID: 1}
	other := &model.User{ID: 2}

	event, err := svc.Create(context.Background(), minimalEventInput("Jazz Night"), creator)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), event.ID, EventInput{Name: strPtr("hijack")}, other)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestEventDelete_NotOwner(t *testing.T) {
	svc := newTestEventService(newFakeEventRepo(), newFakeFavoriteRepo())
	creator := &model.User{ID: 1}
	other := &model.User{ID: 2}

	event, err := svc.Create(context.Background(), minimalEventInput("Jazz Night"), creator)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), event.ID, other)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// Still there.
	_, err = svc.Get(context.Background(), event.ID, nil)
	assert.NoError(t, err)
}

func TestEventGet_ViewerFlag(t *testing.T) {
	events := newFakeEventRepo()
	favorites := newFakeFavoriteRepo()
	svc := newTestEventService(events, favorites)
	viewer := &model.User{ID: 7}

	event, err := svc.Create(context.Background(), minimalEventInput("Jazz Night"), viewer)
	require.NoError(t, err)
	require.NoError(t, favorites.Add(context.Background(), viewer.ID, event.ID))

	got, err := svc.Get(context.Background(), event.ID, viewer)
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)

	anon, err := svc.Get(context.Background(), event.ID, nil)
	require.NoError(t, err)
	assert.False(t, anon.IsFavorite)
}
