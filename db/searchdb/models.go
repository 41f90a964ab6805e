package searchdb

import (
	"strconv"
	"strings"
	"time"
)

// Document is the indexed form of a project. It is always written whole.
type Document struct {
	ID           int64     `json:"id" validate:"required,min=1"`
	OwnerID      int64     `json:"owner_id" validate:"required,min=1"`
	Title        string    `json:"title" validate:"required,max=255"`
	Description  string    `json:"description"`
	URL          string    `json:"url,omitempty" validate:"omitempty,url"`
	CreatedAt    time.Time `json:"created_at" validate:"required"`
	UpdatedAt    time.Time `json:"updated_at" validate:"required"`
	Industries   []string  `json:"industries" validate:"dive,valid_label"`
	Technologies []string  `json:"technologies" validate:"dive,valid_label"`
}

// Dimension names a facet dimension.
type Dimension string

const (
	DimensionTechnology Dimension = "technologies"
	DimensionIndustry   Dimension = "industries"
)

// Dimensions lists every facet dimension in a fixed order.
var Dimensions = []Dimension{DimensionTechnology, DimensionIndustry}

// SortField is a user-facing sort key.
type SortField string

const (
	SortNone      SortField = ""
	SortID        SortField = "id"
	SortTitle     SortField = "title"
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
)

type FacetBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Request is a single query against the project index.
type Request struct {
	OwnerID      int64
	Text         string
	Fuzziness    int
	Technologies []string
	Industries   []string
	From         int
	Size         int
	SortBy       SortField
	Facets       []Dimension
	FacetSize    int
}

type Response struct {
	Documents []Document
	Total     uint64
	Facets    map[Dimension][]FacetBucket
}

// NormalizeLabel returns the exact-match form of an industry or technology label.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// DocumentID is the index identifier of a project.
func DocumentID(projectID int64) string {
	return strconv.FormatInt(projectID, 10)
}

// IsSortable reports whether field is a known sort key.
func IsSortable(field SortField) bool {
	_, ok := sortFieldsToIndexFields[field]
	return ok
}
