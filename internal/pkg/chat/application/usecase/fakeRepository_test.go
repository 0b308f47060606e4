package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	chat "freelancehub/internal/pkg/chat/application/domain"
	directory "freelancehub/internal/repository/port"
)

// fakeChatRepository is an in-memory implementation of the repository port
// honoring the same contract as the Postgres adapter: singular conversations
// per identity, monotonic timestamps, taxonomy errors.
type fakeChatRepository struct {
	mu       sync.Mutex
	byID     map[string]*chat.Conversation
	identity map[string]string // participantKey + "|" + project -> conversation id
	failWith error             // when set, every call fails with this error
}

func newFakeChatRepository() *fakeChatRepository {
	return &fakeChatRepository{
		byID:     make(map[string]*chat.Conversation),
		identity: make(map[string]string),
	}
}

func identityKey(participantKey string, projectID *string) string {
	p := ""
	if projectID != nil {
		p = *projectID
	}
	return participantKey + "|" + p
}

func (f *fakeChatRepository) FindOrCreateConversation(_ context.Context, participantIDs []string, projectID *string) (*chat.Conversation, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, false, f.failWith
	}

	key := identityKey(chat.ParticipantKey(participantIDs), projectID)
	if id, ok := f.identity[key]; ok {
		c := *f.byID[id]
		return &c, false, nil
	}

	now := time.Now().UTC()
	conv := &chat.Conversation{
		ID:             uuid.NewString(),
		ParticipantIDs: append([]string(nil), participantIDs...),
		ProjectID:      projectID,
		Messages:       []chat.Message{},
		CreatedAt:      now,
		LastMessageAt:  now,
	}
	f.byID[conv.ID] = conv
	f.identity[key] = conv.ID
	c := *conv
	return &c, true, nil
}

func (f *fakeChatRepository) GetConversation(_ context.Context, conversationID string) (*chat.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	conv, ok := f.byID[conversationID]
	if !ok {
		return nil, chat.ErrNotFound
	}
	c := *conv
	c.Messages = append([]chat.Message(nil), conv.Messages...)
	return &c, nil
}

func (f *fakeChatRepository) ListSummaries(_ context.Context, userID string) ([]chat.ConversationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}

	var out []chat.ConversationSummary
	for _, conv := range f.byID {
		if !conv.HasParticipant(userID) {
			continue
		}
		s := chat.ConversationSummary{
			ID:             conv.ID,
			ParticipantIDs: append([]string(nil), conv.ParticipantIDs...),
			ProjectID:      conv.ProjectID,
			LastMessageAt:  conv.LastMessageAt,
			UnreadCount:    conv.UnreadCount(userID),
		}
		if last := conv.LastMessage(); last != nil {
			s.Preview = last.PreviewLabel()
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (f *fakeChatRepository) AppendMessage(_ context.Context, conversationID string, m chat.Message) (chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return chat.Message{}, f.failWith
	}
	conv, ok := f.byID[conversationID]
	if !ok {
		return chat.Message{}, chat.ErrNotFound
	}
	if !conv.HasParticipant(m.SenderID) {
		return chat.Message{}, chat.ErrNotParticipant
	}
	if m.CreatedAt.Before(conv.LastMessageAt) {
		m.CreatedAt = conv.LastMessageAt
	}
	conv.Messages = append(conv.Messages, m)
	conv.LastMessageAt = m.CreatedAt
	return m, nil
}

func (f *fakeChatRepository) MarkMessageRead(_ context.Context, conversationID, messageID, readerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	conv, ok := f.byID[conversationID]
	if !ok {
		return chat.ErrNotFound
	}
	if !conv.HasParticipant(readerID) {
		return chat.ErrNotParticipant
	}
	for i := range conv.Messages {
		if conv.Messages[i].ID == messageID {
			if conv.Messages[i].SenderID != readerID {
				conv.Messages[i].Read = true
			}
			return nil
		}
	}
	return chat.ErrNotFound
}

func (f *fakeChatRepository) MarkConversationRead(_ context.Context, conversationID, readerID string) ([]chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	conv, ok := f.byID[conversationID]
	if !ok {
		return nil, chat.ErrNotFound
	}
	if !conv.HasParticipant(readerID) {
		return nil, chat.ErrNotParticipant
	}
	for i := range conv.Messages {
		if conv.Messages[i].SenderID != readerID {
			conv.Messages[i].Read = true
		}
	}
	return append([]chat.Message(nil), conv.Messages...), nil
}

func (f *fakeChatRepository) MarkMessageDelivered(_ context.Context, conversationID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	conv, ok := f.byID[conversationID]
	if !ok {
		return chat.ErrNotFound
	}
	for i := range conv.Messages {
		if conv.Messages[i].ID == messageID {
			conv.Messages[i].Delivered = true
			return nil
		}
	}
	return chat.ErrNotFound
}

func (f *fakeChatRepository) DeleteMessage(_ context.Context, conversationID, messageID, requesterID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	conv, ok := f.byID[conversationID]
	if !ok {
		return chat.ErrNotFound
	}
	for i := range conv.Messages {
		if conv.Messages[i].ID != messageID {
			continue
		}
		if conv.Messages[i].SenderID != requesterID {
			return chat.ErrNotSender
		}
		conv.Messages = append(conv.Messages[:i], conv.Messages[i+1:]...)
		if last := conv.LastMessage(); last != nil {
			conv.LastMessageAt = last.CreatedAt
		} else {
			conv.LastMessageAt = conv.CreatedAt
		}
		return nil
	}
	return chat.ErrNotFound
}

func (f *fakeChatRepository) SearchMessages(_ context.Context, userID, query string, conversationID *string, limit int) ([]chat.MessageHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}

	needle := strings.ToLower(query)
	var hits []chat.MessageHit
	for _, conv := range f.byID {
		if !conv.HasParticipant(userID) {
			continue
		}
		if conversationID != nil && conv.ID != *conversationID {
			continue
		}
		for _, m := range conv.Messages {
			if strings.Contains(strings.ToLower(m.Content), needle) {
				hits = append(hits, chat.MessageHit{ConversationID: conv.ID, Message: m})
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Message.CreatedAt.After(hits[j].Message.CreatedAt)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (f *fakeChatRepository) ListParticipantIDs(_ context.Context, conversationID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	conv, ok := f.byID[conversationID]
	if !ok {
		return nil, chat.ErrNotFound
	}
	return append([]string(nil), conv.ParticipantIDs...), nil
}

// fakeDirectory resolves profiles from a static map.
type fakeDirectory struct {
	profiles map[string]directory.Profile
}

func (d *fakeDirectory) GetProfile(_ context.Context, userID string) (directory.Profile, error) {
	p, ok := d.profiles[userID]
	if !ok {
		return directory.Profile{}, directory.ErrUnknownUser
	}
	return p, nil
}

func (d *fakeDirectory) GetProfiles(_ context.Context, userIDs []string) (map[string]directory.Profile, error) {
	out := make(map[string]directory.Profile)
	for _, id := range userIDs {
		if p, ok := d.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}
