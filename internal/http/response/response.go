// Package response provides consistent HTTP response envelopes.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"outreach_backend/platform/apperr"
)

// Envelope is the standard success response shape.
type Envelope struct {
	Data any `json:"data"`
}

// ErrorBody is the standard error response shape.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// OK writes a 200 response with the data wrapped in an envelope.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Data: data})
}

// Created writes a 201 response with the data wrapped in an envelope.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Data: data})
}

// NoContent writes a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error maps an application error to its HTTP status and writes the body.
// Unknown errors become 500 with a generic message so internals never leak.
func Error(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), ErrorBody{
			Error:   appErr.Message,
			Details: appErr.Details,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: "internal server error"})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: msg})
}

// NotFound writes a 404 with the given message.
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: msg})
}

// Unauthorized writes a 401 with the given message.
func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, ErrorBody{Error: msg})
}
