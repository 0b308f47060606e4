package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freelancehub/internal/middleware"
	"freelancehub/internal/pkg/chat/application/usecase"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"
)

// MarkReadController marks a single message as read. Live peers learn about
// it through the gateway's mark-read relay; this endpoint is the durable half.
type MarkReadController struct {
	UC *usecase.MarkReadUseCase
}

func NewMarkReadController(repo repository.ChatRepository) *MarkReadController {
	return &MarkReadController{UC: usecase.NewMarkReadUseCase(repo)}
}

type markReadRequest struct {
	ChatID string `json:"chatId" binding:"required"`
}

func (h *MarkReadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		messageID := c.Param("messageId")
		if messageID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messageId is required"})
			return
		}

		var req markReadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		err := h.UC.Execute(ctx, usecase.MarkReadInput{
			ConversationID: req.ChatID,
			MessageID:      messageID,
			ReaderID:       middleware.GetUserID(c),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "read"})
	}
}
