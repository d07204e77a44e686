package apperrors

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the structured error surfaced to clients as
// {"error": {"code": ..., "message": ..., "status": ...}}.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code" example:"NOT_DM"`
	Message string `json:"message" example:"Only the DM can perform this action"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Forbidden(code, message string) *APIError {
	return New(http.StatusForbidden, code, message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func Conflict(code, message string) *APIError {
	return New(http.StatusConflict, code, message)
}

func Unauthorized(code, message string) *APIError {
	return New(http.StatusUnauthorized, code, message)
}

// Respond writes err as a JSON error response. Errors that are not APIError
// values are logged and reported as a generic 500 so internal detail never
// reaches the client.
func Respond(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	log.Printf("unhandled error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": New(http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"),
	})
}
