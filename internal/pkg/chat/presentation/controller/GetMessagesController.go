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

// GetMessagesController serves a conversation's message log. Fetching the log
// marks messages from other senders as read, so a client opening the thread
// needs no follow-up round trips.
type GetMessagesController struct {
	UC *usecase.GetMessagesUseCase
}

func NewGetMessagesController(repo repository.ChatRepository) *GetMessagesController {
	return &GetMessagesController{UC: usecase.NewGetMessagesUseCase(repo)}
}

func (h *GetMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, usecase.GetMessagesInput{
			ConversationID: chatID,
			UserID:         middleware.GetUserID(c),
		})
		if err != nil {
			respondError(c, err)
			return
		}

		out := make([]messagePayload, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, toMessagePayload(chatID, m))
		}
		c.JSON(http.StatusOK, gin.H{"messages": out, "count": len(out)})
	}
}
