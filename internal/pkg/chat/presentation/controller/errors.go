package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	chat "freelancehub/internal/pkg/chat/application/domain"
	"freelancehub/internal/pkg/chat/application/usecase"
)

// respondError maps the chat error taxonomy to HTTP statuses with a stable
// {"error": ...} body. Internal failures never leak details to the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrPersistence):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected persistence error"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
