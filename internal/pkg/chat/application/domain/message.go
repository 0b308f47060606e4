package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Bounds enforced at construction time, before anything touches the store.
const (
	MaxContentLength = 5000
	MaxAttachments   = 10
)

// Attachment describes one uploaded file referenced by a message. The upload
// itself happens elsewhere; the chat core only records the pointer.
type Attachment struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	SizeBytes int64  `json:"sizeBytes"`
	URL       string `json:"url"`
}

// Message is one entry in a conversation's embedded log. Only the Read and
// Delivered flags ever change after creation.
type Message struct {
	ID          string       `json:"id"`
	SenderID    string       `json:"sender"`
	Content     string       `json:"content,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Read        bool         `json:"read"`
	Delivered   bool         `json:"delivered"`
	CreatedAt   time.Time    `json:"timestamp"`
}

// NewMessage validates and shapes a message ready to persist. The server
// assigns the id and the timestamp; a zero now falls back to the wall clock.
//
// Rules:
//   - content is trimmed; an empty message with no attachments is rejected
//   - content is capped at MaxContentLength characters (runes, not bytes)
//   - at most MaxAttachments attachments
func NewMessage(senderID string, content string, attachments []Attachment, now time.Time) (Message, error) {
	if senderID == "" {
		return Message{}, ErrInvalidArgument
	}

	content = strings.TrimSpace(content)
	if content == "" && len(attachments) == 0 {
		return Message{}, ErrEmptyMessage
	}
	if len([]rune(content)) > MaxContentLength {
		return Message{}, ErrContentTooLong
	}
	if len(attachments) > MaxAttachments {
		return Message{}, ErrTooManyAttachments
	}

	if now.IsZero() {
		now = time.Now()
	}

	return Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		Content:     content,
		Attachments: attachments,
		CreatedAt:   now.UTC(),
	}, nil
}

// PreviewLabel is the one-line rendering used in conversation lists. Messages
// without text are labeled by the leading attachment's media type.
func (m Message) PreviewLabel() string {
	if m.Content != "" {
		return m.Content
	}
	if len(m.Attachments) == 0 {
		return ""
	}
	switch {
	case strings.HasPrefix(m.Attachments[0].MediaType, "image/"):
		return "Photo"
	case strings.HasPrefix(m.Attachments[0].MediaType, "video/"):
		return "Video"
	default:
		return "File"
	}
}
