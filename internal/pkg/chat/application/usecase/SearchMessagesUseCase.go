package usecase

import (
	"context"
	"fmt"
	"strings"

	chat "freelancehub/internal/pkg/chat/application/domain"
	repository "freelancehub/internal/pkg/chat/persistence/repository/port"
	directory "freelancehub/internal/repository/port"
)

// Search results are capped; clients page by refining the query instead.
const searchResultCap = 50

// SearchMessagesInput is a substring search over the user's conversations,
// optionally scoped to one conversation.
type SearchMessagesInput struct {
	UserID         string
	Query          string
	ConversationID *string
}

// SearchMessagesUseCase runs a case-insensitive substring search and resolves
// sender display names for the hits.
type SearchMessagesUseCase struct {
	Repo  repository.ChatRepository
	Users directory.UserDirectory
}

func NewSearchMessagesUseCase(repo repository.ChatRepository, users directory.UserDirectory) *SearchMessagesUseCase {
	return &SearchMessagesUseCase{Repo: repo, Users: users}
}

func (uc *SearchMessagesUseCase) Execute(ctx context.Context, in SearchMessagesInput) ([]chat.MessageHit, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", chat.ErrInvalidArgument)
	}
	query := strings.TrimSpace(in.Query)
	if len([]rune(query)) < 2 {
		return nil, fmt.Errorf("%w: search query must be at least 2 characters", chat.ErrInvalidArgument)
	}

	hits, err := uc.Repo.SearchMessages(ctx, in.UserID, query, in.ConversationID, searchResultCap)
	if err != nil {
		return nil, wrapRepo(err)
	}

	senderIDs := make([]string, 0, len(hits))
	seen := make(map[string]struct{})
	for _, h := range hits {
		if _, ok := seen[h.Message.SenderID]; !ok {
			seen[h.Message.SenderID] = struct{}{}
			senderIDs = append(senderIDs, h.Message.SenderID)
		}
	}

	profiles, err := uc.Users.GetProfiles(ctx, senderIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	for i := range hits {
		if p, ok := profiles[hits[i].Message.SenderID]; ok {
			hits[i].SenderName = p.Name
		} else {
			hits[i].SenderName = hits[i].Message.SenderID
		}
	}
	return hits, nil
}
