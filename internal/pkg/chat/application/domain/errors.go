package chat

import (
	"errors"
	"fmt"
)

// Error taxonomy for chat behaviors. Controllers map these to HTTP statuses;
// everything else wraps one of the three roots so errors.Is keeps working
// across layers.
var (
	ErrNotFound        = errors.New("chat: not found")
	ErrForbidden       = errors.New("chat: forbidden")
	ErrInvalidArgument = errors.New("chat: invalid argument")
)

var (
	ErrNotParticipant     = fmt.Errorf("%w: user is not a conversation participant", ErrForbidden)
	ErrNotSender          = fmt.Errorf("%w: only the sender may delete a message", ErrForbidden)
	ErrEmptyMessage       = fmt.Errorf("%w: message needs content or at least one attachment", ErrInvalidArgument)
	ErrContentTooLong     = fmt.Errorf("%w: message content exceeds the length cap", ErrInvalidArgument)
	ErrTooManyAttachments = fmt.Errorf("%w: too many attachments", ErrInvalidArgument)
	ErrTooFewParticipants = fmt.Errorf("%w: a conversation needs at least two participants", ErrInvalidArgument)
)
