package controller

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	qport "freelancehub/internal/infrastructure/queue/port"
	chat "freelancehub/internal/pkg/chat/application/domain"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"
	directory "freelancehub/internal/repository/port"
)

// stubRepository backs controller tests with just enough behavior to exercise
// the HTTP and websocket layers. Business-rule coverage lives with the
// usecases; here the repository only has to resolve membership, store
// appends and flip flags.
type stubRepository struct {
	mu            sync.Mutex
	conversations map[string]*chat.Conversation
}

var _ repository.ChatRepository = (*stubRepository)(nil)

func newStubRepository() *stubRepository {
	return &stubRepository{conversations: make(map[string]*chat.Conversation)}
}

// seed creates a conversation with the given participants and returns its id.
func (r *stubRepository) seed(participants ...string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.NewString()
	now := time.Now().UTC()
	r.conversations[id] = &chat.Conversation{
		ID:             id,
		ParticipantIDs: participants,
		CreatedAt:      now,
		LastMessageAt:  now,
	}
	return id
}

func (r *stubRepository) FindOrCreateConversation(_ context.Context, participantIDs []string, projectID *string) (*chat.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if slices.Equal(c.ParticipantIDs, participantIDs) && equalProject(c.ProjectID, projectID) {
			clone := *c
			return &clone, false, nil
		}
	}
	now := time.Now().UTC()
	c := &chat.Conversation{
		ID:             uuid.NewString(),
		ParticipantIDs: participantIDs,
		ProjectID:      projectID,
		CreatedAt:      now,
		LastMessageAt:  now,
	}
	r.conversations[c.ID] = c
	clone := *c
	return &clone, true, nil
}

func (r *stubRepository) GetConversation(_ context.Context, conversationID string) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil, fmt.Errorf("%w: conversation %s", chat.ErrNotFound, conversationID)
	}
	clone := *c
	return &clone, nil
}

func (r *stubRepository) ListSummaries(_ context.Context, userID string) ([]chat.ConversationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.ConversationSummary
	for _, c := range r.conversations {
		if !c.HasParticipant(userID) {
			continue
		}
		s := chat.ConversationSummary{
			ID:             c.ID,
			ParticipantIDs: slices.Clone(c.ParticipantIDs),
			ProjectID:      c.ProjectID,
			LastMessageAt:  c.LastMessageAt,
			UnreadCount:    c.UnreadCount(userID),
		}
		if last := c.LastMessage(); last != nil {
			s.Preview = last.PreviewLabel()
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *stubRepository) AppendMessage(_ context.Context, conversationID string, m chat.Message) (chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return chat.Message{}, fmt.Errorf("%w: conversation %s", chat.ErrNotFound, conversationID)
	}
	if !c.HasParticipant(m.SenderID) {
		return chat.Message{}, chat.ErrNotParticipant
	}
	if m.CreatedAt.Before(c.LastMessageAt) {
		m.CreatedAt = c.LastMessageAt
	}
	c.Messages = append(c.Messages, m)
	c.LastMessageAt = m.CreatedAt
	return m, nil
}

func (r *stubRepository) MarkMessageRead(_ context.Context, conversationID, messageID, readerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return fmt.Errorf("%w: conversation %s", chat.ErrNotFound, conversationID)
	}
	if !c.HasParticipant(readerID) {
		return chat.ErrNotParticipant
	}
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			if c.Messages[i].SenderID != readerID {
				c.Messages[i].Read = true
			}
			return nil
		}
	}
	return fmt.Errorf("%w: message %s", chat.ErrNotFound, messageID)
}

func (r *stubRepository) MarkConversationRead(_ context.Context, conversationID, readerID string) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil, fmt.Errorf("%w: conversation %s", chat.ErrNotFound, conversationID)
	}
	if !c.HasParticipant(readerID) {
		return nil, chat.ErrNotParticipant
	}
	for i := range c.Messages {
		if c.Messages[i].SenderID != readerID {
			c.Messages[i].Read = true
		}
	}
	return slices.Clone(c.Messages), nil
}

func (r *stubRepository) MarkMessageDelivered(_ context.Context, conversationID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return fmt.Errorf("%w: conversation %s", chat.ErrNotFound, conversationID)
	}
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			c.Messages[i].Delivered = true
			return nil
		}
	}
	return fmt.Errorf("%w: message %s", chat.ErrNotFound, messageID)
}

func (r *stubRepository) DeleteMessage(_ context.Context, conversationID, messageID, requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return fmt.Errorf("%w: conversation %s", chat.ErrNotFound, conversationID)
	}
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			if c.Messages[i].SenderID != requesterID {
				return chat.ErrNotSender
			}
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: message %s", chat.ErrNotFound, messageID)
}

func (r *stubRepository) SearchMessages(_ context.Context, userID, query string, conversationID *string, limit int) ([]chat.MessageHit, error) {
	return nil, nil
}

func (r *stubRepository) ListParticipantIDs(_ context.Context, conversationID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil, fmt.Errorf("%w: conversation %s", chat.ErrNotFound, conversationID)
	}
	return slices.Clone(c.ParticipantIDs), nil
}

func equalProject(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// stubDirectory resolves every user to a fixed display name.
type stubDirectory struct{}

var _ directory.UserDirectory = stubDirectory{}

func (stubDirectory) GetProfile(_ context.Context, userID string) (directory.Profile, error) {
	return directory.Profile{ID: userID, Name: "User " + userID}, nil
}

func (stubDirectory) GetProfiles(_ context.Context, userIDs []string) (map[string]directory.Profile, error) {
	out := make(map[string]directory.Profile, len(userIDs))
	for _, id := range userIDs {
		out[id] = directory.Profile{ID: id, Name: "User " + id}
	}
	return out, nil
}

// stubQueue records enqueued tasks.
type stubQueue struct {
	mu    sync.Mutex
	tasks []qport.Task
}

var _ qport.Client = (*stubQueue)(nil)

func (q *stubQueue) Enqueue(_ context.Context, t qport.Task, _ ...qport.EnqueueOption) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
	return uuid.NewString(), nil
}

func (q *stubQueue) Close() error { return nil }

func (q *stubQueue) byType(taskType string) []qport.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []qport.Task
	for _, t := range q.tasks {
		if t.Type == taskType {
			out = append(out, t)
		}
	}
	return out
}
