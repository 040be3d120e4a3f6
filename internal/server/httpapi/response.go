package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/tuneshelf/internal/common"
)

const maxBodyBytes = 1 << 20

// envelope is the shape of every JSON response.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type message struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, success bool, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: success, Data: data})
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, true, data)
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, false, message{Message: msg})
}

// statusFor classifies service errors that are not tied to a fixed flow
// status. Unknown errors are internal and their text is not exposed.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, err.Error()
	default:
		return http.StatusInternalServerError, common.ErrorInternal.Error()
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", common.ErrorValidation)
	}
	return nil
}
