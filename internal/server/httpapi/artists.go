package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
	"github.com/dmitrijs2005/tuneshelf/internal/server/services"
	"github.com/gorilla/mux"
)

const (
	msgArtistCreated   = "Artist has been created."
	msgArtistUpdated   = "Artist has been updated."
	msgArtistDeleted   = "Artist has been deleted."
	msgStreamIncreased = "Stream count has been increased."
)

type artistResponse struct {
	Artist  *models.Artist `json:"artist"`
	Message string         `json:"message,omitempty"`
}

type artistListResponse struct {
	Artist []*models.Artist `json:"artist"`
}

func (h *Handler) listArtists(w http.ResponseWriter, r *http.Request) {
	list, err := h.artists.List(r.Context(), r.URL.Query().Get("keyword"), pageFromQuery(r))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	ok(w, artistListResponse{Artist: list})
}

func (h *Handler) getArtist(w http.ResponseWriter, r *http.Request) {
	a, err := h.artists.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	ok(w, artistResponse{Artist: a})
}

func (h *Handler) createArtist(w http.ResponseWriter, r *http.Request) {
	var in services.ArtistInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.artists.Create(r.Context(), in)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	ok(w, artistResponse{Artist: a, Message: msgArtistCreated})
}

func (h *Handler) updateArtist(w http.ResponseWriter, r *http.Request) {
	var in services.ArtistInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.artists.Update(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	ok(w, artistResponse{Artist: a, Message: msgArtistUpdated})
}

func (h *Handler) deleteArtist(w http.ResponseWriter, r *http.Request) {
	a, err := h.artists.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	ok(w, artistResponse{Artist: a, Message: msgArtistDeleted})
}

func (h *Handler) streamArtist(w http.ResponseWriter, r *http.Request) {
	if _, err := h.artists.IncreaseStreamCount(r.Context(), r.URL.Query().Get("keyword")); err != nil {
		h.serverError(w, r, err)
		return
	}
	ok(w, message{Message: msgStreamIncreased})
}
