package searchdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/meghashyamc/facetsearch/config"
	"github.com/meghashyamc/facetsearch/logger"
)

const IndexingBatchSize = 100

const (
	indexFieldProjectID      = "project_id"
	indexFieldOwner          = "owner"
	indexFieldTitle          = "title"
	indexFieldTitleKey       = "title_key"
	indexFieldDescription    = "description"
	indexFieldCreatedAt      = "created_at"
	indexFieldUpdatedAt      = "updated_at"
	indexFieldIndustries     = "industries"
	indexFieldIndustryKeys   = "industry_keys"
	indexFieldTechnologies   = "technologies"
	indexFieldTechnologyKeys = "technology_keys"
	indexFieldSource         = "source"
)

// indexedDocument is what bleve sees. Labels are kept verbatim for facet buckets
// and normalized for filters; source holds the typed document for hit decoding.
type indexedDocument struct {
	ProjectID      int64     `json:"project_id"`
	Owner          string    `json:"owner"`
	Title          string    `json:"title"`
	TitleKey       string    `json:"title_key"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Industries     []string  `json:"industries"`
	IndustryKeys   []string  `json:"industry_keys"`
	Technologies   []string  `json:"technologies"`
	TechnologyKeys []string  `json:"technology_keys"`
	Source         string    `json:"source"`
}

var facetFields = map[Dimension]string{
	DimensionTechnology: indexFieldTechnologies,
	DimensionIndustry:   indexFieldIndustries,
}

type BleveDB struct {
	indexPath string
	logger    logger.Logger
	index     bleve.Index
}

func New(logger logger.Logger, cfg *config.Config) (*BleveDB, error) {
	indexPath := filepath.Join(cfg.GetStoragePath(), cfg.GetIndexPath())
	index, err := bleve.New(indexPath, createIndexMapping())
	if err != nil {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Error("could not open index", "path", indexPath, "err", err.Error())
			return nil, &Error{Op: OpOpen, Err: err}
		}
	}
	return &BleveDB{indexPath: indexPath, logger: logger, index: index}, nil
}

// NewInMemory creates an index that lives only as long as the process.
func NewInMemory(logger logger.Logger) (*BleveDB, error) {
	index, err := bleve.NewMemOnly(createIndexMapping())
	if err != nil {
		logger.Error("could not create in-memory index", "err", err.Error())
		return nil, &Error{Op: OpOpen, Err: err}
	}
	return &BleveDB{logger: logger, index: index}, nil
}

func createIndexMapping() mapping.IndexMapping {

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = false

	docMapping.AddFieldMappingsAt(indexFieldProjectID, bleve.NewNumericFieldMapping())
	docMapping.AddFieldMappingsAt(indexFieldOwner, keywordFieldMapping())

	// Title and description - analyzed for full-text search
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = standard.Name
	titleFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(indexFieldTitle, titleFieldMapping)

	descriptionFieldMapping := bleve.NewTextFieldMapping()
	descriptionFieldMapping.Analyzer = standard.Name
	descriptionFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(indexFieldDescription, descriptionFieldMapping)

	// Lower-cased whole title, used for sorting and prefix boosting
	docMapping.AddFieldMappingsAt(indexFieldTitleKey, keywordFieldMapping())

	docMapping.AddFieldMappingsAt(indexFieldCreatedAt, bleve.NewDateTimeFieldMapping())
	docMapping.AddFieldMappingsAt(indexFieldUpdatedAt, bleve.NewDateTimeFieldMapping())

	docMapping.AddFieldMappingsAt(indexFieldIndustries, keywordFieldMapping())
	docMapping.AddFieldMappingsAt(indexFieldIndustryKeys, keywordFieldMapping())
	docMapping.AddFieldMappingsAt(indexFieldTechnologies, keywordFieldMapping())
	docMapping.AddFieldMappingsAt(indexFieldTechnologyKeys, keywordFieldMapping())

	// Source - stored only, never searched
	sourceFieldMapping := bleve.NewTextFieldMapping()
	sourceFieldMapping.Index = false
	sourceFieldMapping.Store = true
	sourceFieldMapping.IncludeInAll = false
	sourceFieldMapping.IncludeTermVectors = false
	sourceFieldMapping.DocValues = false
	docMapping.AddFieldMappingsAt(indexFieldSource, sourceFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

func keywordFieldMapping() *mapping.FieldMapping {
	fieldMapping := bleve.NewTextFieldMapping()
	fieldMapping.Analyzer = keyword.Name
	fieldMapping.Store = false
	fieldMapping.IncludeInAll = false
	fieldMapping.IncludeTermVectors = false
	return fieldMapping
}

func toIndexedDocument(doc Document) (indexedDocument, error) {
	source, err := json.Marshal(doc)
	if err != nil {
		return indexedDocument{}, fmt.Errorf("could not encode project %d: %w", doc.ID, err)
	}

	return indexedDocument{
		ProjectID:      doc.ID,
		Owner:          strconv.FormatInt(doc.OwnerID, 10),
		Title:          doc.Title,
		TitleKey:       NormalizeLabel(doc.Title),
		Description:    doc.Description,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		Industries:     doc.Industries,
		IndustryKeys:   normalizeLabels(doc.Industries),
		Technologies:   doc.Technologies,
		TechnologyKeys: normalizeLabels(doc.Technologies),
		Source:         string(source),
	}, nil
}

func normalizeLabels(labels []string) []string {
	normalized := make([]string, 0, len(labels))
	for _, label := range labels {
		normalized = append(normalized, NormalizeLabel(label))
	}
	return normalized
}

// IndexDocuments replaces the index entry of every given project.
func (b *BleveDB) IndexDocuments(documents []Document) error {

	batch := b.index.NewBatch()

	for i, doc := range documents {
		indexed, err := toIndexedDocument(doc)
		if err != nil {
			b.logger.Error("could not prepare document", "project_id", doc.ID, "err", err.Error())
			return &Error{Op: OpIndex, Err: err}
		}

		if err := batch.Index(DocumentID(doc.ID), indexed); err != nil {
			b.logger.Error("could not index document", "project_id", doc.ID, "err", err.Error())
			return &Error{Op: OpIndex, Err: err}
		}

		// Execute batch when it reaches the batch size
		if (i+1)%IndexingBatchSize == 0 {
			if err := b.index.Batch(batch); err != nil {
				b.logger.Error("could not index batch", "err", err.Error())
				return &Error{Op: OpIndex, Err: err}
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not index batch", "err", err.Error())
			return &Error{Op: OpIndex, Err: err}
		}
	}

	return nil
}

func (b *BleveDB) DeleteDocuments(projectIDs []int64) error {
	batch := b.index.NewBatch()

	for i, projectID := range projectIDs {
		batch.Delete(DocumentID(projectID))

		if (i+1)%IndexingBatchSize == 0 {
			if err := b.index.Batch(batch); err != nil {
				b.logger.Error("could not delete documents", "err", err.Error())
				return &Error{Op: OpDelete, Err: err}
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not delete documents", "err", err.Error())
			return &Error{Op: OpDelete, Err: err}
		}
	}

	return nil
}

func (b *BleveDB) Search(ctx context.Context, request Request) (*Response, error) {

	searchRequest := bleve.NewSearchRequestOptions(buildQuery(request), request.Size, request.From, false)
	searchRequest.SortBy(sortOrder(request))
	if request.Size > 0 {
		searchRequest.Fields = []string{indexFieldSource}
	}
	for _, dimension := range request.Facets {
		searchRequest.AddFacet(string(dimension), bleve.NewFacetRequest(facetFields[dimension], request.FacetSize))
	}

	searchResult, err := b.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		b.logger.Error("search failed", "owner_id", request.OwnerID, "err", err.Error())
		return nil, &Error{Op: OpSearch, Err: err}
	}

	documents := make([]Document, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		doc, err := decodeHit(hit)
		if err != nil {
			b.logger.Error("could not decode search hit", "id", hit.ID, "err", err.Error())
			return nil, &Error{Op: OpDecode, Err: err}
		}
		documents = append(documents, doc)
	}

	response := &Response{
		Documents: documents,
		Total:     searchResult.Total,
		Facets:    make(map[Dimension][]FacetBucket, len(request.Facets)),
	}
	for _, dimension := range request.Facets {
		response.Facets[dimension] = b.facetBuckets(searchResult.Facets[string(dimension)], dimension)
	}

	return response, nil
}

func decodeHit(hit *search.DocumentMatch) (Document, error) {
	source, ok := hit.Fields[indexFieldSource].(string)
	if !ok {
		return Document{}, errors.New("stored source is missing")
	}

	var doc Document
	if err := json.Unmarshal([]byte(source), &doc); err != nil {
		return Document{}, fmt.Errorf("stored source is not a project: %w", err)
	}
	return doc, nil
}

func (b *BleveDB) facetBuckets(facetResult *search.FacetResult, dimension Dimension) []FacetBucket {
	buckets := []FacetBucket{}
	if facetResult == nil || facetResult.Terms == nil {
		return buckets
	}

	if facetResult.Other > 0 {
		b.logger.Warn("facet buckets truncated, raise the facet size", "dimension", dimension, "other", facetResult.Other)
	}

	for _, term := range facetResult.Terms.Terms() {
		buckets = append(buckets, FacetBucket{Label: term.Term, Count: term.Count})
	}
	return buckets
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	count, err := b.index.DocCount()
	if err != nil {
		return 0, &Error{Op: OpCount, Err: err}
	}
	return count, nil
}

func (b *BleveDB) Close() error {

	if b.index != nil {
		if err := b.index.Close(); err != nil {
			b.logger.Error("could not close search index", "err", err.Error())
			return err
		}
	}
	return nil
}
