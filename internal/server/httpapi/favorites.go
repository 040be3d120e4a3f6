package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/tuneshelf/internal/common"
	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
	"github.com/gorilla/mux"
)

const (
	msgFavoriteAdded    = "Song has been added to the favorite."
	msgFavoriteRemoved  = "Song has been removed from the favorites."
	msgFavoriteNotFound = "Favorite song does not exist."
)

type favoriteRequest struct {
	SongID string `json:"songId"`
}

type favoriteResponse struct {
	Favorite *models.Favorite `json:"favorite"`
	Message  string           `json:"message,omitempty"`
}

type favoriteListResponse struct {
	Favorite []*models.Favorite `json:"favorite"`
}

func (h *Handler) createFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req favoriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := h.favorites.StoreUserFavorite(r.Context(), userID, req.SongID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	ok(w, favoriteResponse{Favorite: f, Message: msgFavoriteAdded})
}

func (h *Handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	list, err := h.favorites.ListUserFavorites(r.Context(), userID, pageFromQuery(r))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	ok(w, favoriteListResponse{Favorite: list})
}

func (h *Handler) getFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	f, err := h.favorites.GetUserFavorite(r.Context(), userID, mux.Vars(r)["songId"])
	if errors.Is(err, common.ErrorNotFound) {
		fail(w, http.StatusNotFound, msgFavoriteNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	ok(w, favoriteResponse{Favorite: f})
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	removed, err := h.favorites.RemoveUserFavorite(r.Context(), userID, mux.Vars(r)["songId"])
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !removed {
		fail(w, http.StatusNotFound, msgFavoriteNotFound)
		return
	}
	ok(w, message{Message: msgFavoriteRemoved})
}
