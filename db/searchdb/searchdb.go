package searchdb

import "context"

type DB interface {
	IndexDocuments(documents []Document) error
	DeleteDocuments(projectIDs []int64) error
	Search(ctx context.Context, request Request) (*Response, error)
	GetDocCount() (uint64, error)
	Close() error
}
