package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/adlane/eventhub/internal/model"
)

// newTestDB opens an in-memory database with the full schema applied.
// t.Cleanup closes it, so helpers never leak connections between tests.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, users *UserRepo, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$fakehashfakehashfakehash",
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user %q: %v", username, err)
	}
	return user
}

func createTestEvent(t *testing.T, events *EventRepo, creatorID int64, name string, mutate ...func(*model.Event)) *model.Event {
	t.Helper()
	event := &model.Event{
		Name:      name,
		Type:      "concert",
		Date:      time.Date(2026, 10, 1, 20, 0, 0, 0, time.UTC),
		Location:  "Berlin",
		Capacity:  model.DefaultEventCapacity,
		Price:     25,
		Status:    model.EventStatusUpcoming,
		CreatorID: creatorID,
	}
	for _, fn := range mutate {
		fn(event)
	}
	if err := events.Create(context.Background(), event); err != nil {
		t.Fatalf("creating test event %q: %v", name, err)
	}
	return event
}
