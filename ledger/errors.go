package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyCheckedIn is returned when today's check-in was already recorded.
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	// ErrInsufficientCredits is returned when a spend exceeds the balance.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrInvalidAmount is returned for non-positive credit amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrStorageUnavailable wraps every failure of the underlying store.
	ErrStorageUnavailable = errors.New("ledger storage unavailable")
)

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
