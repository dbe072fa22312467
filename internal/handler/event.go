package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adlane/eventhub/internal/apperror"
	"github.com/adlane/eventhub/internal/auth"
	"github.com/adlane/eventhub/internal/model"
	"github.com/adlane/eventhub/internal/service"
)

// EventHandler exposes event CRUD and the public listing.
type EventHandler struct {
	events *service.EventService
	logger *slog.Logger
}

func NewEventHandler(events *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// eventRequest is the writable field set for create and update. Pointers
// let update distinguish omitted fields from zero values; create checks
// its required subset in the service.
type eventRequest struct {
	Name        *string           `json:"name" validate:"omitempty,min=3,max=200"`
	Type        *string           `json:"type" validate:"omitempty,oneof=conference concert workshop meetup"`
	Description *string           `json:"description" validate:"omitempty,max=2000"`
	Date        *time.Time        `json:"date"`
	EndDate     *time.Time        `json:"end_date"`
	Location    *string           `json:"location" validate:"omitempty,min=3,max=200"`
	Capacity    *int              `json:"capacity" validate:"omitempty,gte=1,lte=100000"`
	Price       *float64          `json:"price" validate:"omitempty,gte=0,lte=99999.99"`
	Status      *string           `json:"status" validate:"omitempty,oneof=upcoming completed cancelled"`
	Image       *model.EventImage `json:"image" validate:"omitempty,url"`
}

func (req eventRequest) toInput() service.EventInput {
	return service.EventInput{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Date:        req.Date,
		EndDate:     req.EndDate,
		Location:    req.Location,
		Capacity:    req.Capacity,
		Price:       req.Price,
		Status:      req.Status,
		Image:       req.Image,
	}
}

// listResponse is the shared envelope of every paginated listing.
type listResponse struct {
	Data       any              `json:"data"`
	Pagination model.Pagination `json:"pagination"`
}

// HandleList returns a filtered, sorted page of events. Anonymous viewers
// get isFavorite=false everywhere; authenticated viewers get real flags
// via OptionalAuth.
//
// HTTP: GET /api/events?page=&limit=&search=&type=&status=&sort=&order=
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserFromContext(r.Context())
	query := r.URL.Query()

	list, err := h.events.List(r.Context(), service.EventListInput{
		Page:   query.Get("page"),
		Limit:  query.Get("limit"),
		Search: query.Get("search"),
		Type:   query.Get("type"),
		Status: query.Get("status"),
		Sort:   query.Get("sort"),
		Order:  query.Get("order"),
	}, viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Data: list.Events, Pagination: list.Pagination})
}

// HandleGet returns one event by id.
//
// HTTP: GET /api/events/{id} (OptionalAuth)
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	viewer, _ := auth.UserFromContext(r.Context())

	event, err := h.events.Get(r.Context(), id, viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// HandleCreate inserts a new event owned by the authenticated user.
//
// HTTP: POST /api/events (RequireAuth)
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	event, err := h.events.Create(r.Context(), req.toInput(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// HandleUpdate applies a partial update; only the creator may update.
//
// HTTP: PUT /api/events/{id} (RequireAuth)
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	id, err := eventID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	event, err := h.events.Update(r.Context(), id, req.toInput(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// HandleDelete removes an event; only the creator may delete.
//
// HTTP: DELETE /api/events/{id} (RequireAuth)
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	id, err := eventID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.events.Delete(r.Context(), id, user); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

// eventID parses the {id} route parameter.
func eventID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "event id must be a positive integer")
	}
	return id, nil
}
