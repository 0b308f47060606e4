package usecase

import (
	"context"
	"fmt"

	chat "freelancehub/internal/pkg/chat/application/domain"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"
)

// DeleteMessageInput removes one message on behalf of its sender.
type DeleteMessageInput struct {
	ConversationID string
	MessageID      string
	RequesterID    string
}

// DeleteMessageUseCase deletes a message. Only the sender may delete; the
// conversation's last-message watermark is recomputed from the remaining
// tail by the repository in the same mutation.
type DeleteMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewDeleteMessageUseCase(repo repository.ChatRepository) *DeleteMessageUseCase {
	return &DeleteMessageUseCase{Repo: repo}
}

func (uc *DeleteMessageUseCase) Execute(ctx context.Context, in DeleteMessageInput) error {
	if in.ConversationID == "" || in.MessageID == "" || in.RequesterID == "" {
		return fmt.Errorf("%w: conversation, message and requester ids are required", chat.ErrInvalidArgument)
	}
	return wrapRepo(uc.Repo.DeleteMessage(ctx, in.ConversationID, in.MessageID, in.RequesterID))
}
