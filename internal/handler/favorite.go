package handler

import (
	"log/slog"
	"net/http"

	"github.com/adlane/eventhub/internal/auth"
	"github.com/adlane/eventhub/internal/service"
)

// FavoriteHandler exposes the per-user bookmark endpoints. Every route
// sits behind RequireAuth.
type FavoriteHandler struct {
	favorites *service.FavoriteService
	logger    *slog.Logger
}

func NewFavoriteHandler(favorites *service.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, logger: logger}
}

// HandleAdd bookmarks an event for the authenticated user.
//
// HTTP: POST /api/favorites/{id}
func (h *FavoriteHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	id, err := eventID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.favorites.Add(r.Context(), user, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "event added to favorites"})
}

// HandleRemove removes a bookmark.
//
// HTTP: DELETE /api/favorites/{id}
func (h *FavoriteHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	id, err := eventID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.favorites.Remove(r.Context(), user, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "event removed from favorites"})
}

// HandleListMine returns the authenticated user's favorited events,
// newest bookmark first.
//
// HTTP: GET /api/favorites/my-favorites?page=&limit=
func (h *FavoriteHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	query := r.URL.Query()

	list, err := h.favorites.ListMine(r.Context(), user, query.Get("page"), query.Get("limit"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Data: list.Events, Pagination: list.Pagination})
}
