package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/tuneshelf/internal/common"
	"github.com/dmitrijs2005/tuneshelf/internal/cryptox"
	"github.com/dmitrijs2005/tuneshelf/internal/server/services"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login failures are always 401; register and oauth failures are always 400.

// clientAuthErrors are flow outcomes whose text is meant for the caller.
var clientAuthErrors = []error{
	common.ErrorNotFound,
	common.ErrorUnauthorized,
	common.ErrorValidation,
	common.ErrorAlreadyExists,
	cryptox.ErrEmptyPassword,
}

// authFailure writes the flow's message, or a generic one for storage and
// signing failures, which are logged instead.
func (h *Handler) authFailure(w http.ResponseWriter, r *http.Request, status int, err error) {
	for _, target := range clientAuthErrors {
		if errors.Is(err, target) {
			fail(w, status, err.Error())
			return
		}
	}
	h.logger.Error(r.Context(), "auth request failed", "path", r.URL.Path, "error", err)
	fail(w, status, common.ErrorInternal.Error())
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, http.StatusUnauthorized, err.Error())
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.authFailure(w, r, http.StatusUnauthorized, err)
		return
	}
	ok(w, tokenResponse{AccessToken: token})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.auth.Register(r.Context(), in)
	if err != nil {
		h.authFailure(w, r, http.StatusBadRequest, err)
		return
	}
	ok(w, tokenResponse{AccessToken: token})
}

func (h *Handler) oauth(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.auth.OAuth(r.Context(), in)
	if err != nil {
		h.authFailure(w, r, http.StatusBadRequest, err)
		return
	}
	ok(w, tokenResponse{AccessToken: token})
}
