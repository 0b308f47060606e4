package repository

import (
	"context"
	"errors"
)

// Profile carries the display fields the chat core needs about a user. User
// management itself lives outside this service; we only read.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// ErrUnknownUser is returned when an id does not resolve to a profile.
var ErrUnknownUser = errors.New("directory: unknown user")

// UserDirectory resolves participant ids to display profiles.
type UserDirectory interface {
	GetProfile(ctx context.Context, userID string) (Profile, error)

	// GetProfiles resolves a batch; unknown ids are simply absent from the
	// result, not an error.
	GetProfiles(ctx context.Context, userIDs []string) (map[string]Profile, error)
}
