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

// CreateChatController handles the find-or-create conversation endpoint.
type CreateChatController struct {
	UC *usecase.FindOrCreateConversationUseCase
}

func NewCreateChatController(repo repository.ChatRepository) *CreateChatController {
	return &CreateChatController{UC: usecase.NewFindOrCreateConversationUseCase(repo)}
}

type createChatRequest struct {
	ParticipantID string  `json:"participantId" binding:"required"`
	ProjectID     *string `json:"projectId"`
}

func (h *CreateChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		conv, created, err := h.UC.Execute(ctx, usecase.FindOrCreateConversationInput{
			RequesterID:   middleware.GetUserID(c),
			ParticipantID: req.ParticipantID,
			ProjectID:     req.ProjectID,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{
			"id":            conv.ID,
			"participants":  conv.ParticipantIDs,
			"project":       conv.ProjectID,
			"createdAt":     conv.CreatedAt,
			"lastMessageAt": conv.LastMessageAt,
		})
	}
}
