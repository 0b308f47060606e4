package usecase

import (
	"context"
	"fmt"
	"time"

	chat "freelancehub/internal/pkg/chat/application/domain"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to append a message durably.
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Content        string
	Attachments    []chat.Attachment
}

// SendMessageResult is the persisted message plus the conversation's
// participant set, which the caller needs for fan-out and offline
// notification without a second round trip.
type SendMessageResult struct {
	Message        chat.Message
	ParticipantIDs []string
}

// SendMessageUseCase validates and persists a new message. Realtime fan-out
// is the caller's concern; this path is the durable half only.
type SendMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewSendMessageUseCase(repo repository.ChatRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*SendMessageResult, error) {
	if in.ConversationID == "" || in.SenderID == "" {
		return nil, fmt.Errorf("%w: conversation id and sender id are required", chat.ErrInvalidArgument)
	}

	msg, err := chat.NewMessage(in.SenderID, in.Content, in.Attachments, time.Now())
	if err != nil {
		return nil, err
	}

	persisted, err := uc.Repo.AppendMessage(ctx, in.ConversationID, msg)
	if err != nil {
		return nil, wrapRepo(err)
	}

	participants, err := uc.Repo.ListParticipantIDs(ctx, in.ConversationID)
	if err != nil {
		return nil, wrapRepo(err)
	}

	return &SendMessageResult{Message: persisted, ParticipantIDs: participants}, nil
}
