package repository

import (
	"context"

	chat "freelancehub/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for the chat domain.
// Implementations return the chat package's error taxonomy (ErrNotFound,
// ErrForbidden, ErrInvalidArgument) for business failures so callers can map
// them without knowing the backend.
type ChatRepository interface {
	// FindOrCreateConversation resolves the singular conversation for a
	// normalized participant set and optional project. The boolean reports
	// whether a new conversation was created. Concurrent first-contact calls
	// must converge on one row.
	FindOrCreateConversation(ctx context.Context, participantIDs []string, projectID *string) (*chat.Conversation, bool, error)

	// GetConversation loads the full aggregate including the message log.
	GetConversation(ctx context.Context, conversationID string) (*chat.Conversation, error)

	// ListSummaries returns the user's conversations newest-first with unread
	// counts and last-message previews.
	ListSummaries(ctx context.Context, userID string) ([]chat.ConversationSummary, error)

	// AppendMessage persists an already-validated message. The stored
	// timestamp never moves backwards relative to the conversation's
	// last_message_at; the returned message carries the authoritative value.
	AppendMessage(ctx context.Context, conversationID string, m chat.Message) (chat.Message, error)

	// MarkMessageRead flags one message read on behalf of readerID. Re-marking
	// an already-read message and marking one's own message are no-op
	// successes, not errors.
	MarkMessageRead(ctx context.Context, conversationID, messageID, readerID string) error

	// MarkConversationRead flags every message from other senders as read and
	// returns the post-update log. Used by the history fetch side effect.
	MarkConversationRead(ctx context.Context, conversationID, readerID string) ([]chat.Message, error)

	// MarkMessageDelivered records that at least one live fan-out attempt
	// happened. Best-effort; idempotent.
	MarkMessageDelivered(ctx context.Context, conversationID, messageID string) error

	// DeleteMessage removes a message (sender only) and recomputes
	// last_message_at from the remaining tail, or the conversation's creation
	// time when the log becomes empty.
	DeleteMessage(ctx context.Context, conversationID, messageID, requesterID string) error

	// SearchMessages does a case-insensitive substring scan over conversations
	// the user participates in, optionally scoped to one conversation,
	// newest-first, capped at limit.
	SearchMessages(ctx context.Context, userID, query string, conversationID *string, limit int) ([]chat.MessageHit, error)

	// ListParticipantIDs returns the participant set of a conversation.
	ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error)
}
