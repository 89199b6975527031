package apierror

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zain975/plot-pick-backend/logging"
)

// Error is a status-coded error surfaced to API clients. Services return it for
// expected failures; anything else is treated as an internal error.
type Error struct {
	Status  int    `json:"statusCode"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Path       string `json:"path"`
	Method     string `json:"method"`
	Timestamp  string `json:"timestamp"`
	Message    string `json:"message"`
}

// Respond writes the structured error body for err. Unexpected errors are
// logged with full detail and reported to the client as a generic 500.
func Respond(c *gin.Context, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		logging.Log.Errorf("unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		apiErr = Internal("Internal server error")
	}

	c.JSON(apiErr.Status, &errorBody{
		StatusCode: apiErr.Status,
		Path:       c.Request.URL.Path,
		Method:     c.Request.Method,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Message:    apiErr.Message,
	})
}
