package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freelancehub/internal/middleware"
	"freelancehub/internal/pkg/chat/application/usecase"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"
	directory "freelancehub/internal/repository/port"
)

// ListConversationsController serves the caller's conversation list.
type ListConversationsController struct {
	UC *usecase.ListConversationsUseCase
}

func NewListConversationsController(repo repository.ChatRepository, users directory.UserDirectory) *ListConversationsController {
	return &ListConversationsController{UC: usecase.NewListConversationsUseCase(repo, users)}
}

func (h *ListConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		views, err := h.UC.Execute(ctx, usecase.ListConversationsInput{UserID: middleware.GetUserID(c)})
		if err != nil {
			respondError(c, err)
			return
		}

		out := make([]gin.H, 0, len(views))
		for _, v := range views {
			out = append(out, gin.H{
				"id":            v.ID,
				"participants":  v.Participants,
				"project":       v.ProjectID,
				"lastMessageAt": v.LastMessageAt,
				"unreadCount":   v.UnreadCount,
				"preview":       v.Preview,
			})
		}
		c.JSON(http.StatusOK, gin.H{"conversations": out, "count": len(out)})
	}
}
