package usecase

import (
	"errors"
	"fmt"

	chat "freelancehub/internal/pkg/chat/application/domain"
)

// ErrPersistence indicates an infrastructure/repository failure inside a use case.
var ErrPersistence = fmt.Errorf("chat use case persistence error")

// wrapRepo passes the domain taxonomy through untouched and folds everything
// else into ErrPersistence so controllers can map statuses with errors.Is.
func wrapRepo(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, chat.ErrNotFound) || errors.Is(err, chat.ErrForbidden) || errors.Is(err, chat.ErrInvalidArgument) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
