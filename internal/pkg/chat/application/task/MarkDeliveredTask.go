package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	qport "freelancehub/internal/infrastructure/queue/port"
	chat "freelancehub/internal/pkg/chat/application/domain"
	repoAdapter "freelancehub/internal/pkg/chat/persistence/repository/adapter"
)

// MarkDeliveredTaskType flips a message's delivered flag after the gateway
// confirmed at least one live fan-out attempt. Write-behind keeps the send
// path from waiting on a second store round trip.
const MarkDeliveredTaskType = "chat:mark_delivered"

// MarkDeliveredPayload is the JSON payload transported via the queue.
type MarkDeliveredPayload struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

// RegisterMarkDeliveredTask binds the handler to the worker server.
func RegisterMarkDeliveredTask(srv qport.Server, pool *pgxpool.Pool) {
	repo := repoAdapter.NewPgChatRepository(pool)
	srv.Register(MarkDeliveredTaskType, func(ctx context.Context, t qport.Task) error {
		var p MarkDeliveredPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		err := repo.MarkMessageDelivered(ctx, p.ConversationID, p.MessageID)
		if errors.Is(err, chat.ErrNotFound) {
			// Message was deleted before the worker ran; nothing to retry.
			return nil
		}
		return err
	})
}
