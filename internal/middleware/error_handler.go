package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"school_ledger_echo/internal/apperrors"
)

// errorBody is the JSON shape for every failed request.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// JSONErrorHandler maps the service error taxonomy onto HTTP statuses.
// Duplicates map to 409 so clients can show "already paid" instead of
// a generic failure; transaction aborts also map to 409 because the
// write rolled back whole and a retry is safe.
func JSONErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"
	message := "Something went wrong. Please try again later."

	var (
		validationErr *apperrors.ValidationError
		notFoundErr   *apperrors.NotFoundError
		duplicateErr  *apperrors.DuplicateError
		txAbortErr    *apperrors.TransactionAbortError
		httpErr       *echo.HTTPError
	)

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		code = "validation_error"
		message = validationErr.Msg
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
		code = "not_found"
		message = notFoundErr.Error()
	case errors.As(err, &duplicateErr):
		status = http.StatusConflict
		code = "duplicate_payment"
		message = duplicateErr.Msg
	case errors.As(err, &txAbortErr):
		status = http.StatusConflict
		code = "transaction_aborted"
		message = "The write could not be committed; please retry."
	case errors.As(err, &httpErr):
		status = httpErr.Code
		code = http.StatusText(status)
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			message = msg
		} else {
			message = http.StatusText(status)
		}
	}

	if status >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	if writeErr := c.JSON(status, errorBody{Error: message, Code: code}); writeErr != nil {
		c.Logger().Error(writeErr)
	}
}
