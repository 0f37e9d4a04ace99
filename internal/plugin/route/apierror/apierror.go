// Package apierror maps controller errors to HTTP responses.
package apierror

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/controller"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/security"
)

// Handle writes the response for a failed controller operation.
func Handle(c *gin.Context, err error) {
	var notFound *controller.NotFoundError
	var validation *controller.ValidationError
	var conflict *controller.ConflictError
	var forbidden *controller.ForbiddenError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
	case errors.As(err, &conflict):
		code := conflict.Code
		if code == "" {
			code = "conflict"
		}
		c.JSON(http.StatusConflict, gin.H{"code": code, "error": err.Error()})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"code": "forbidden", "error": err.Error()})
	default:
		log.Error("Request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// BadRequest writes a validation failure for a malformed request body.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error()})
}

// ConversationID parses the :conversationId path parameter. An id that is not
// a UUID cannot name a conversation, so it is answered with 404.
func ConversationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("conversationId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": "conversation not found"})
		return uuid.Nil, false
	}
	return id, true
}

// Requester returns the requesting user id set by security.RequireUser.
func Requester(c *gin.Context) uuid.UUID {
	id, _ := security.GetUserID(c)
	return id
}
