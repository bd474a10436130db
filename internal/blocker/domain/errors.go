package domain

import "errors"

// Failure taxonomy for list operations. The file-absent case self-heals
// (the store recreates an empty document); the corrupt case does not, so
// the presumably hand-recoverable file is never overwritten.
var (
	ErrNotFound    = errors.New("blocklist document not found")
	ErrCorruptData = errors.New("blocklist document is unreadable or corrupt")
	ErrValidation  = errors.New("uploaded blocklist is invalid")
	ErrPersistence = errors.New("could not write the blocklist; check file permissions for the data directory")
)
