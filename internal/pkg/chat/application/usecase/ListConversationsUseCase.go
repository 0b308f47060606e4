package usecase

import (
	"context"
	"fmt"

	chat "freelancehub/internal/pkg/chat/application/domain"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"
	directory "freelancehub/internal/repository/port"
)

// ListConversationsInput wraps the viewer whose conversation list is wanted.
type ListConversationsInput struct {
	UserID string
}

// ConversationView is a summary enriched with participant display profiles
// from the user directory, ready for list rendering.
type ConversationView struct {
	chat.ConversationSummary
	Participants []directory.Profile
}

// ListConversationsUseCase returns the viewer's conversations newest-first
// with unread counts, previews and resolved participant names.
type ListConversationsUseCase struct {
	Repo  repository.ChatRepository
	Users directory.UserDirectory
}

func NewListConversationsUseCase(repo repository.ChatRepository, users directory.UserDirectory) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo, Users: users}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, in ListConversationsInput) ([]ConversationView, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", chat.ErrInvalidArgument)
	}

	summaries, err := uc.Repo.ListSummaries(ctx, in.UserID)
	if err != nil {
		return nil, wrapRepo(err)
	}

	ids := make([]string, 0, len(summaries)*2)
	seen := make(map[string]struct{})
	for _, s := range summaries {
		for _, id := range s.ParticipantIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	profiles, err := uc.Users.GetProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	views := make([]ConversationView, 0, len(summaries))
	for _, s := range summaries {
		v := ConversationView{ConversationSummary: s}
		for _, id := range s.ParticipantIDs {
			if p, ok := profiles[id]; ok {
				v.Participants = append(v.Participants, p)
			} else {
				// Deactivated accounts still need a stable placeholder.
				v.Participants = append(v.Participants, directory.Profile{ID: id, Name: id})
			}
		}
		views = append(views, v)
	}
	return views, nil
}
