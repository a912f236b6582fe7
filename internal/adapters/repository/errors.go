package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("cell not found")
	ErrInvalidLimit = errors.New("invalid limit")
	ErrInvalidScore = errors.New("invalid score")
	ErrClosed       = errors.New("store closed")
)
