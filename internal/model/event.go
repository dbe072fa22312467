package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Event is a discoverable event listing.
//
// CreatorUsername and CreatorAvatar are denormalized from the users table
// by the list/detail queries so the frontend can render a byline without a
// second request. IsFavorite is personalized per viewer and defaults to
// false for anonymous requests.
type Event struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Description     string     `json:"description,omitempty"`
	Date            time.Time  `json:"date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	Location        string     `json:"location"`
	Capacity        int        `json:"capacity"`
	Price           float64    `json:"price"`
	Status          string     `json:"status"`
	Image           EventImage `json:"image"`
	CreatorID       int64      `json:"creator_id"`
	CreatorUsername string     `json:"creator_username,omitempty"`
	CreatorAvatar   string     `json:"creator_avatar,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	IsFavorite      bool       `json:"isFavorite"`
	FavoritedAt     *time.Time `json:"favoritedAt,omitempty"`
}

// Event type and status vocabularies. Request validation enforces these;
// they are listed here so services and tests share one source of truth.
const (
	EventStatusUpcoming  = "upcoming"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"

	DefaultEventCapacity = 100
)

// EventImage is the image column resolved into an explicit variant.
//
// Historically the column stored either a bare URL or a JSON array of URLs
// (older rows written by a bulk importer). Instead of re-parsing that
// ambiguity at every read site, ParseEventImage resolves it once at the
// data-access boundary. URL always holds the primary image; Legacy keeps
// the full list when the stored value was an array.
type EventImage struct {
	URL    string
	Legacy []string
}

// ParseEventImage interprets a raw stored image value.
// A value starting with '[' is treated as the legacy JSON-array form; if it
// fails to parse it is kept verbatim as a single URL rather than dropped.
func ParseEventImage(raw string) EventImage {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EventImage{}
	}
	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			img := EventImage{Legacy: list}
			if len(list) > 0 {
				img.URL = list[0]
			}
			return img
		}
	}
	return EventImage{URL: raw}
}

// IsZero reports whether no image is set.
func (i EventImage) IsZero() bool {
	return i.URL == "" && len(i.Legacy) == 0
}

// StorageValue returns the canonical value to persist. New writes always
// store the single-URL form; the array form exists only in old rows.
func (i EventImage) StorageValue() string {
	return i.URL
}

// MarshalJSON emits the primary URL as a plain string (or null when unset),
// which is the shape the frontend has always consumed.
func (i EventImage) MarshalJSON() ([]byte, error) {
	if i.URL == "" {
		return []byte("null"), nil
	}
	return json.Marshal(i.URL)
}

// UnmarshalJSON accepts both the string and the legacy array form so that
// request bodies round-trip the same way stored values do.
func (i *EventImage) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = EventImage{URL: s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*i = EventImage{Legacy: list}
	if len(list) > 0 {
		i.URL = list[0]
	}
	return nil
}
