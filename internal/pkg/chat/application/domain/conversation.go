package chat

import (
	"sort"
	"strings"
	"time"
)

// Conversation is the aggregate root: a participant set, an optional project
// linkage and the embedded, append-only message log. Message order is
// insertion order; a delete leaves a gap, never a reorder.
type Conversation struct {
	ID             string
	ParticipantIDs []string
	ProjectID      *string
	Messages       []Message
	CreatedAt      time.Time
	LastMessageAt  time.Time
}

// NormalizeParticipants dedupes, drops empties and sorts the participant set
// so that the same pair of users always produces the same key regardless of
// who initiated.
func NormalizeParticipants(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) < 2 {
		return nil, ErrTooFewParticipants
	}
	sort.Strings(out)
	return out, nil
}

// ParticipantKey derives the uniqueness key for find-or-create. Input must
// already be normalized.
func ParticipantKey(ids []string) string {
	return strings.Join(ids, ":")
}

// HasParticipant tells whether userID belongs to this conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	if c == nil {
		return false
	}
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// UnreadCount counts messages the given user has not read yet. A user's own
// messages never count against them.
func (c *Conversation) UnreadCount(userID string) int {
	n := 0
	for _, m := range c.Messages {
		if !m.Read && m.SenderID != userID {
			n++
		}
	}
	return n
}

// LastMessage returns the newest message, or nil when the log is empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// ConversationSummary is the list-view projection: no message bodies beyond
// the preview, plus per-viewer unread accounting.
type ConversationSummary struct {
	ID             string
	ParticipantIDs []string
	ProjectID      *string
	LastMessageAt  time.Time
	UnreadCount    int
	Preview        string
}

// MessageHit is one search result. SenderName is resolved from the user
// directory by the search use case, not stored.
type MessageHit struct {
	ConversationID string
	Message        Message
	SenderName     string
}
