package usecase

import (
	"context"
	"fmt"

	chat "freelancehub/internal/pkg/chat/application/domain"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"
)

// GetMessagesInput identifies the conversation and the participant fetching it.
type GetMessagesInput struct {
	ConversationID string
	UserID         string
}

// GetMessagesUseCase returns the full message log for a participant. Opening
// a conversation implies seeing it, so messages from other senders are marked
// read in the same operation.
type GetMessagesUseCase struct {
	Repo repository.ChatRepository
}

func NewGetMessagesUseCase(repo repository.ChatRepository) *GetMessagesUseCase {
	return &GetMessagesUseCase{Repo: repo}
}

func (uc *GetMessagesUseCase) Execute(ctx context.Context, in GetMessagesInput) ([]chat.Message, error) {
	if in.ConversationID == "" || in.UserID == "" {
		return nil, fmt.Errorf("%w: conversation id and user id are required", chat.ErrInvalidArgument)
	}

	msgs, err := uc.Repo.MarkConversationRead(ctx, in.ConversationID, in.UserID)
	if err != nil {
		return nil, wrapRepo(err)
	}
	return msgs, nil
}
