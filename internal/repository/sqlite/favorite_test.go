package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/adlane/eventhub/internal/apperror"
	"github.com/adlane/eventhub/internal/repository"
)

func TestFavoriteAdd(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	events := NewEventRepo(db)
	favorites := NewFavoriteRepo(db)
	user := createTestUser(t, users, "ada")
	event := createTestEvent(t, events, user.ID, "Jazz Night")

	if err := favorites.Add(context.Background(), user.ID, event.ID); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	fav, err := favorites.IsFavorite(context.Background(), user.ID, event.ID)
	if err != nil {
		t.Fatalf("IsFavorite() error = %v", err)
	}
	if !fav {
		t.Error("IsFavorite() = false after Add()")
	}
}

func TestFavoriteAdd_Twice(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	events := NewEventRepo(db)
	favorites := NewFavoriteRepo(db)
	user := createTestUser(t, users, "ada")
	event := createTestEvent(t, events, user.ID, "Jazz Night")

	if err := favorites.Add(context.Background(), user.ID, event.ID); err != nil {
		t.Fatalf("first Add() error = %v", err)
	}
	err := favorites.Add(context.Background(), user.ID, event.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Add() error = %v, want ErrConflict", err)
	}
}

func TestFavoriteAdd_NoSuchEvent(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	favorites := NewFavoriteRepo(db)
	user := createTestUser(t, users, "ada")

	err := favorites.Add(context.Background(), user.ID, 42)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Add() error = %v, want ErrNotFound", err)
	}
}

func TestFavoriteRemove_NotFavorited(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	events := NewEventRepo(db)
	favorites := NewFavoriteRepo(db)
	user := createTestUser(t, users, "ada")
	event := createTestEvent(t, events, user.ID, "Jazz Night")

	err := favorites.Remove(context.Background(), user.ID, event.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Remove() error = %v, want ErrNotFound", err)
	}
}

func TestFavoriteListByUser(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	events := NewEventRepo(db)
	favorites := NewFavoriteRepo(db)
	user := createTestUser(t, users, "ada")
	other := createTestUser(t, users, "grace")

	e1 := createTestEvent(t, events, user.ID, "Jazz Night")
	e2 := createTestEvent(t, events, user.ID, "Tech Meetup")
	e3 := createTestEvent(t, events, user.ID, "Rock Concert")

	for _, id := range []int64{e1.ID, e2.ID} {
		if err := favorites.Add(context.Background(), user.ID, id); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	// Someone else's favorite must not leak into the listing.
	if err := favorites.Add(context.Background(), other.ID, e3.ID); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, total, err := favorites.ListByUser(context.Background(), user.ID, repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("total = %d, len = %d, want 2", total, len(got))
	}
	for _, e := range got {
		if !e.IsFavorite {
			t.Errorf("event %d in the favorites listing has IsFavorite=false", e.ID)
		}
		if e.ID == e3.ID {
			t.Error("another user's favorite leaked into the listing")
		}
	}
}

func TestFavoriteEventIDs(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	events := NewEventRepo(db)
	favorites := NewFavoriteRepo(db)
	user := createTestUser(t, users, "ada")
	e1 := createTestEvent(t, events, user.ID, "Jazz Night")
	createTestEvent(t, events, user.ID, "Tech Meetup")

	if err := favorites.Add(context.Background(), user.ID, e1.ID); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ids, err := favorites.EventIDs(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("EventIDs() error = %v", err)
	}
	if len(ids) != 1 || !ids[e1.ID] {
		t.Errorf("EventIDs() = %v, want {%d: true}", ids, e1.ID)
	}
}
