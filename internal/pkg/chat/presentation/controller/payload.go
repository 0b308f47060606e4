package controller

import (
	"time"

	chat "freelancehub/internal/pkg/chat/application/domain"
)

// outboundFrame is the envelope for every server-to-client realtime event.
type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// attachmentPayload mirrors chat.Attachment on the wire.
type attachmentPayload struct {
	Name      string `json:"name" binding:"required"`
	MediaType string `json:"mediaType" binding:"required"`
	SizeBytes int64  `json:"sizeBytes"`
	URL       string `json:"url" binding:"required"`
}

// messagePayload is the wire rendering of a persisted message, shared by the
// REST responses and the realtime fan-out so both halves always agree.
type messagePayload struct {
	ID          string              `json:"id"`
	Chat        string              `json:"chat"`
	Sender      string              `json:"sender"`
	Content     string              `json:"content,omitempty"`
	Attachments []attachmentPayload `json:"attachments,omitempty"`
	Read        bool                `json:"read"`
	Delivered   bool                `json:"delivered"`
	Timestamp   time.Time           `json:"timestamp"`
}

func toAttachments(in []attachmentPayload) []chat.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]chat.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, chat.Attachment{Name: a.Name, MediaType: a.MediaType, SizeBytes: a.SizeBytes, URL: a.URL})
	}
	return out
}

func toMessagePayload(conversationID string, m chat.Message) messagePayload {
	p := messagePayload{
		ID:        m.ID,
		Chat:      conversationID,
		Sender:    m.SenderID,
		Content:   m.Content,
		Read:      m.Read,
		Delivered: m.Delivered,
		Timestamp: m.CreatedAt,
	}
	for _, a := range m.Attachments {
		p.Attachments = append(p.Attachments, attachmentPayload{Name: a.Name, MediaType: a.MediaType, SizeBytes: a.SizeBytes, URL: a.URL})
	}
	return p
}
