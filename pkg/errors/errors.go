// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrCompteNotFound      = errors.New("compte not found")
	ErrCompteInactive      = errors.New("compte is inactive")
	ErrMouvementNotFound   = errors.New("mouvement not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrSettingNotFound     = errors.New("setting not found")
	ErrAPIKeyNotFound      = errors.New("api key not found")
	ErrInvalidAPIKey       = errors.New("invalid api key")
	ErrInvalidDevise       = errors.New("unsupported devise")
	ErrInvalidTypeCompte   = errors.New("unsupported compte type")
	ErrInvalidPagination   = errors.New("invalid pagination parameters")
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// New creates a new error from a message.
func New(message string) error {
	return errors.New(message)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
