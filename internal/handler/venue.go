package handler

import (
	"log/slog"
	"net/http"

	"github.com/adlane/eventhub/internal/auth"
	"github.com/adlane/eventhub/internal/service"
)

// VenueHandler exposes the scraping trigger and the scraped-venues listing.
type VenueHandler struct {
	venues *service.VenueService
	logger *slog.Logger
}

func NewVenueHandler(venues *service.VenueService, logger *slog.Logger) *VenueHandler {
	return &VenueHandler{venues: venues, logger: logger}
}

type triggerScrapeRequest struct {
	City    string `json:"city" validate:"required,min=2,max=100"`
	Keyword string `json:"keyword" validate:"required,min=2,max=100"`
}

// HandleTriggerScrape starts a scrape run for a city/keyword pair. The
// workflow runs asynchronously; the response carries whatever the webhook
// reported, typically a sheet URL.
//
// HTTP: POST /api/scraping/trigger (RequireAuth)
func (h *VenueHandler) HandleTriggerScrape(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req triggerScrapeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.venues.TriggerScrape(r.Context(), user, req.City, req.Keyword)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "scraping started",
		"sheetUrl": result.SheetURL,
		"details":  result.Message,
	})
}

// HandleListVenues returns a filtered page of previously scraped venues.
//
// HTTP: GET /api/scraping/venues?page=&limit=&search=&city=&keyword=&sort=&order= (RequireAuth)
func (h *VenueHandler) HandleListVenues(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	list, err := h.venues.ListVenues(r.Context(), service.VenueListInput{
		Page:    query.Get("page"),
		Limit:   query.Get("limit"),
		Search:  query.Get("search"),
		City:    query.Get("city"),
		Keyword: query.Get("keyword"),
		Sort:    query.Get("sort"),
		Order:   query.Get("order"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Data: list.Venues, Pagination: list.Pagination})
}
