package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freelancehub/internal/middleware"
	chat "freelancehub/internal/pkg/chat/application/domain"
	"freelancehub/internal/pkg/chat/application/usecase"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"
	directory "freelancehub/internal/repository/port"
)

// SearchMessagesController answers substring searches over the caller's
// conversations, optionally scoped to a single conversation via ?chatId=.
type SearchMessagesController struct {
	UC *usecase.SearchMessagesUseCase
}

func NewSearchMessagesController(repo repository.ChatRepository, users directory.UserDirectory) *SearchMessagesController {
	return &SearchMessagesController{UC: usecase.NewSearchMessagesUseCase(repo, users)}
}

type searchHitPayload struct {
	Chat       string         `json:"chat"`
	Message    messagePayload `json:"message"`
	SenderName string         `json:"senderName"`
}

func (h *SearchMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var conversationID *string
		if chatID := c.Query("chatId"); chatID != "" {
			conversationID = &chatID
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		hits, err := h.UC.Execute(ctx, usecase.SearchMessagesInput{
			UserID:         middleware.GetUserID(c),
			Query:          c.Query("query"),
			ConversationID: conversationID,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": toSearchHits(hits)})
	}
}

func toSearchHits(hits []chat.MessageHit) []searchHitPayload {
	out := make([]searchHitPayload, 0, len(hits))
	for _, h := range hits {
		out = append(out, searchHitPayload{
			Chat:       h.ConversationID,
			Message:    toMessagePayload(h.ConversationID, h.Message),
			SenderName: h.SenderName,
		})
	}
	return out
}
