package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freelancehub/internal/infrastructure/realtime"
	"freelancehub/internal/middleware"
	"freelancehub/internal/pkg/chat/application/task"
	"freelancehub/internal/pkg/chat/application/usecase"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"

	qport "freelancehub/internal/infrastructure/queue/port"
)

// SendMessageController is the durable half of sending: it persists the
// message, then fans out the authoritative copy to live room members and
// queues the offline-notification and delivered-flag follow-ups. The fan-out
// never blocks the response on the realtime layer.
type SendMessageController struct {
	UC       *usecase.SendMessageUseCase
	hub      *realtime.Hub
	presence *realtime.Presence
	queue    qport.Client
}

func NewSendMessageController(repo repository.ChatRepository, hub *realtime.Hub, presence *realtime.Presence, queue qport.Client) *SendMessageController {
	return &SendMessageController{
		UC:       usecase.NewSendMessageUseCase(repo),
		hub:      hub,
		presence: presence,
		queue:    queue,
	}
}

type sendMessageRequest struct {
	Chat        string              `json:"chat" binding:"required"`
	Content     string              `json:"content"`
	Attachments []attachmentPayload `json:"attachments"`
	TempID      string              `json:"tempId"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		senderID := middleware.GetUserID(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		res, err := h.UC.Execute(ctx, usecase.SendMessageInput{
			ConversationID: req.Chat,
			SenderID:       senderID,
			Content:        req.Content,
			Attachments:    toAttachments(req.Attachments),
		})
		if err != nil {
			respondError(c, err)
			return
		}

		delivered := h.fanOut(req.Chat, senderID, res)
		h.enqueueFollowUps(req.Chat, senderID, res, delivered)

		payload := toMessagePayload(req.Chat, res.Message)
		payload.Delivered = delivered > 0
		c.JSON(http.StatusCreated, gin.H{"message": payload, "tempId": req.TempID})
	}
}

// fanOut pushes the authoritative message to live room members. The sender's
// own connections are skipped: they already received the ephemeral relay and
// reconcile against the HTTP response.
func (h *SendMessageController) fanOut(chatID, senderID string, res *usecase.SendMessageResult) int {
	buf, err := json.Marshal(outboundFrame{Event: "receive-message", Data: toMessagePayload(chatID, res.Message)})
	if err != nil {
		return 0
	}
	return h.hub.BroadcastRoom(chatID, buf, "", senderID)
}

func (h *SendMessageController) enqueueFollowUps(chatID, senderID string, res *usecase.SendMessageResult, delivered int) {
	// Queue writes are fire-and-forget; a full queue must not fail the send.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if delivered > 0 {
		buf, _ := json.Marshal(task.MarkDeliveredPayload{ConversationID: chatID, MessageID: res.Message.ID})
		if _, err := h.queue.Enqueue(ctx, qport.Task{Type: task.MarkDeliveredTaskType, Payload: buf}, qport.EnqueueOption{Queue: "chat"}); err != nil {
			slog.Warn("enqueue mark-delivered failed", "chat", chatID, "error", err)
		}
	}

	preview := res.Message.PreviewLabel()
	for _, participantID := range res.ParticipantIDs {
		if participantID == senderID || h.presence.IsOnline(participantID) {
			continue
		}
		buf, _ := json.Marshal(task.NotifyOfflinePayload{
			ConversationID: chatID,
			RecipientID:    participantID,
			SenderID:       senderID,
			Preview:        preview,
		})
		if _, err := h.queue.Enqueue(ctx, qport.Task{Type: task.NotifyOfflineTaskType, Payload: buf}, qport.EnqueueOption{Queue: "chat", MaxRetry: 5}); err != nil {
			slog.Warn("enqueue offline notification failed", "recipient", participantID, "error", err)
		}
	}
}
