package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"school_ledger_echo/internal/apperrors"
)

// APIResponse is the envelope for every successful JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

// RequestValidator plugs go-playground/validator into echo so handler
// binds can call c.Validate directly.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates the echo validator.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator; failures surface as the service
// layer's ValidationError so the error handler maps them to 400.
func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return apperrors.NewValidation("invalid request: %s", err.Error())
	}
	return nil
}

// bind decodes and validates a JSON request body.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.NewValidation("malformed request body")
	}
	return c.Validate(req)
}
