package search

import (
	"math"
	"strings"

	"github.com/meghashyamc/facetsearch/db/searchdb"
)

// Query is one owner-scoped faceted search. Page is 1-based.
type Query struct {
	OwnerID      int64
	SearchText   string
	Technologies []string
	Industries   []string
	Page         int
	PageSize     int
	SortField    string
}

func (q Query) validate(maxPageSize int) error {
	if q.OwnerID <= 0 {
		return &InvalidQueryError{Field: "owner_id", Reason: "must be positive"}
	}
	if q.Page <= 0 {
		return &InvalidQueryError{Field: "page", Reason: "must be positive"}
	}
	if q.PageSize <= 0 {
		return &InvalidQueryError{Field: "page_size", Reason: "must be positive"}
	}
	if maxPageSize > 0 && q.PageSize > maxPageSize {
		return &InvalidQueryError{Field: "page_size", Reason: "exceeds the maximum page size"}
	}
	if q.Page-1 > math.MaxInt32/q.PageSize {
		return &InvalidQueryError{Field: "page", Reason: "out of range"}
	}
	if q.SortField != "" && !searchdb.IsSortable(searchdb.SortField(q.SortField)) {
		return &InvalidQueryError{Field: "sort_by", Reason: "unknown sort field " + q.SortField}
	}
	for _, label := range q.Technologies {
		if strings.TrimSpace(label) == "" {
			return &InvalidQueryError{Field: "technology", Reason: "blank label"}
		}
	}
	for _, label := range q.Industries {
		if strings.TrimSpace(label) == "" {
			return &InvalidQueryError{Field: "industry", Reason: "blank label"}
		}
	}
	return nil
}

func (q Query) offset() int {
	return (q.Page - 1) * q.PageSize
}

// uniqueLabels drops labels that normalize to one already seen.
func uniqueLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	unique := make([]string, 0, len(labels))
	for _, label := range labels {
		key := searchdb.NormalizeLabel(label)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	return unique
}
