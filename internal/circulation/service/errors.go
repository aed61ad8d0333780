package service

import (
	"errors"
	"fmt"

	"library-circulation/internal/circulation/repository"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrUnavailable    = errors.New("book not available")
	ErrStorage        = errors.New("storage failure")
)

// Outcome labels used in logs and metrics.
const (
	outcomeSuccess     = "success"
	outcomeInvalid     = "invalid_request"
	outcomeNotFound    = "not_found"
	outcomeUnavailable = "unavailable"
	outcomeStorage     = "storage_error"
)

// classify maps a repository error onto the caller-facing error kinds.
// Anything the repositories do not name is a storage failure, including an
// inconsistent ledger.
func classify(err error, subject string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, subject)
	case errors.Is(err, repository.ErrNoCopiesAvailable):
		return fmt.Errorf("%w: %s", ErrUnavailable, subject)
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnavailable), errors.Is(err, ErrStorage):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, ErrInvalidRequest):
		return outcomeInvalid
	case errors.Is(err, ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrUnavailable):
		return outcomeUnavailable
	default:
		return outcomeStorage
	}
}
