package services

import "errors"

var (
	// ErrUserNotFound is returned when an entry is saved for an unknown user name.
	ErrUserNotFound = errors.New("user not found")
	// ErrPersistence wraps every failure of SaveEntry. The cause stays in the chain.
	ErrPersistence = errors.New("an error occurred while saving the entry")
)
