package index

import "errors"

var (
	ErrIndexingInProgress = errors.New("indexing already in progress")
	ErrRequestNotFound    = errors.New("index request not found")
	ErrInvalidDocument    = errors.New("invalid project document")
)
