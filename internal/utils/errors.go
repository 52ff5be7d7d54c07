package utils

import (
	"errors"
	"net/http"

	"bom-tracker/internal/models"
)

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{models.ErrDuplicateEmail, http.StatusBadRequest, "DuplicateEmail"},
	{models.ErrInvalidCredentials, http.StatusUnauthorized, "InvalidCredentials"},
	{models.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{models.ErrDuplicateOrderNumber, http.StatusBadRequest, "DuplicateOrderNumber"},
	{models.ErrInvalidInput, http.StatusBadRequest, "InvalidInput"},
	{models.ErrNotFound, http.StatusNotFound, "NotFound"},
	{models.ErrEmptyBom, http.StatusBadRequest, "EmptyBom"},
	{models.ErrIndexOutOfRange, http.StatusNotFound, "IndexOutOfRange"},
	{models.ErrOrderArchived, http.StatusConflict, "OrderArchived"},
	{models.ErrConflict, http.StatusConflict, "Conflict"},
}

// StatusFor returns the HTTP status and error code for a service error.
// Anything unrecognised is a storage failure.
func StatusFor(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "Storage"
}
