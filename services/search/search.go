package search

import (
	"context"
	"fmt"
	"time"

	"github.com/meghashyamc/facetsearch/config"
	"github.com/meghashyamc/facetsearch/db/searchdb"
	"github.com/meghashyamc/facetsearch/logger"
)

type Options struct {
	FacetSize   int
	MaxPageSize int
	Fuzziness   int
	Timeout     time.Duration
}

func NewOptions(cfg *config.Config) Options {
	return Options{
		FacetSize:   cfg.GetFacetSize(),
		MaxPageSize: cfg.GetMaxPageSize(),
		Fuzziness:   cfg.GetFuzziness(),
		Timeout:     cfg.GetSearchTimeout(),
	}
}

type Result struct {
	Projects   []searchdb.Document
	Total      int
	Facets     Facets
	Pagination Pagination
}

type Service struct {
	logger  logger.Logger
	db      searchdb.DB
	options Options
}

func New(logger logger.Logger, db searchdb.DB, options Options) *Service {
	return &Service{
		logger:  logger,
		db:      db,
		options: options,
	}
}

// Search returns one page of the owner's projects matching query, with facet
// tables covering every label in the owner's projects.
func (s *Service) Search(ctx context.Context, query Query) (*Result, error) {
	if err := query.validate(s.options.MaxPageSize); err != nil {
		s.logger.Warn("rejected search query", "owner_id", query.OwnerID, "err", err.Error())
		return nil, err
	}

	if s.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.options.Timeout)
		defer cancel()
	}

	start := time.Now()
	composite, err := newCompositeQuery(query, s.options).fetch(ctx, s.db)
	if err != nil {
		s.logger.Error("search failed", "owner_id", query.OwnerID, "err", err.Error())
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}

	total := int(composite.filtered.Total)
	result := &Result{
		Projects:   composite.filtered.Documents,
		Total:      total,
		Facets:     composite.merge(),
		Pagination: calculatePagination(total, query.Page, query.PageSize),
	}

	s.logger.Debug("search completed", "owner_id", query.OwnerID, "total", total, "duration", time.Since(start).String())

	return result, nil
}
