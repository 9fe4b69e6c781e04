package errors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps the chat error taxonomy onto REST status codes.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrMissingRoom):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnknownParticipant):
		return http.StatusNotFound
	case errors.Is(err, ErrHistoryFetch), errors.Is(err, ErrPersistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
