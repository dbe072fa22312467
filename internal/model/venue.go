package model

import "time"

// Venue is a row in the scraped_venues table, written either by the
// external scraping workflow or by the trigger audit record.
type Venue struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Rating    float64   `json:"rating,omitempty"`
	City      string    `json:"city"`
	Keyword   string    `json:"keyword"`
	ScrapedAt time.Time `json:"scrapedAt"`
}
