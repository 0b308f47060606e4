package usecase

import (
	"context"
	"fmt"

	chat "freelancehub/internal/pkg/chat/application/domain"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"
)

// MarkReadInput flags one message as read by a participant.
type MarkReadInput struct {
	ConversationID string
	MessageID      string
	ReaderID       string
}

// MarkReadUseCase marks a single message read. Idempotent: re-marking an
// already-read message succeeds without change, and a sender marking their
// own message is a no-op rather than an error.
type MarkReadUseCase struct {
	Repo repository.ChatRepository
}

func NewMarkReadUseCase(repo repository.ChatRepository) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) error {
	if in.ConversationID == "" || in.MessageID == "" || in.ReaderID == "" {
		return fmt.Errorf("%w: conversation, message and reader ids are required", chat.ErrInvalidArgument)
	}
	return wrapRepo(uc.Repo.MarkMessageRead(ctx, in.ConversationID, in.MessageID, in.ReaderID))
}
