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

// DeleteMessageController removes one message; only its sender may do so.
type DeleteMessageController struct {
	UC *usecase.DeleteMessageUseCase
}

func NewDeleteMessageController(repo repository.ChatRepository) *DeleteMessageController {
	return &DeleteMessageController{UC: usecase.NewDeleteMessageUseCase(repo)}
}

type deleteMessageRequest struct {
	ChatID string `json:"chatId" binding:"required"`
}

func (h *DeleteMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		messageID := c.Param("messageId")
		if messageID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messageId is required"})
			return
		}

		var req deleteMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		err := h.UC.Execute(ctx, usecase.DeleteMessageInput{
			ConversationID: req.ChatID,
			MessageID:      messageID,
			RequesterID:    middleware.GetUserID(c),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}
