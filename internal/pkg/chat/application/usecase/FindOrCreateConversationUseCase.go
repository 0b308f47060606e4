package usecase

import (
	"context"
	"fmt"

	chat "freelancehub/internal/pkg/chat/application/domain"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"
)

// FindOrCreateConversationInput opens (or resolves) the conversation between
// the requester and another party, optionally tied to a project.
type FindOrCreateConversationInput struct {
	RequesterID   string
	ParticipantID string
	ProjectID     *string
}

// FindOrCreateConversationUseCase guarantees the singular-conversation
// invariant: the same participant pair plus project always resolves to one
// conversation, even under concurrent first contact.
type FindOrCreateConversationUseCase struct {
	Repo repository.ChatRepository
}

func NewFindOrCreateConversationUseCase(repo repository.ChatRepository) *FindOrCreateConversationUseCase {
	return &FindOrCreateConversationUseCase{Repo: repo}
}

// Execute returns the conversation and whether this call created it.
func (uc *FindOrCreateConversationUseCase) Execute(ctx context.Context, in FindOrCreateConversationInput) (*chat.Conversation, bool, error) {
	if in.RequesterID == "" || in.ParticipantID == "" {
		return nil, false, fmt.Errorf("%w: requester and participant ids are required", chat.ErrInvalidArgument)
	}
	if in.RequesterID == in.ParticipantID {
		return nil, false, fmt.Errorf("%w: cannot open a conversation with yourself", chat.ErrInvalidArgument)
	}

	participants, err := chat.NormalizeParticipants([]string{in.RequesterID, in.ParticipantID})
	if err != nil {
		return nil, false, err
	}

	projectID := in.ProjectID
	if projectID != nil && *projectID == "" {
		projectID = nil
	}

	conv, created, err := uc.Repo.FindOrCreateConversation(ctx, participants, projectID)
	if err != nil {
		return nil, false, wrapRepo(err)
	}
	return conv, created, nil
}
