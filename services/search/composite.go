package search

import (
	"context"

	"github.com/meghashyamc/facetsearch/db/searchdb"
	"golang.org/x/sync/errgroup"
)

// compositeQuery is the filtered page query plus one owner-only aggregation per
// facet dimension. The parts are independent: fetch runs them concurrently and
// returns only once all of them succeeded, so merge never sees partial facets.
type compositeQuery struct {
	filtered searchdb.Request
	overall  []searchdb.Request
}

type compositeResult struct {
	filtered *searchdb.Response
	overall  map[searchdb.Dimension][]searchdb.FacetBucket
}

func newCompositeQuery(query Query, options Options) compositeQuery {
	composite := compositeQuery{
		filtered: searchdb.Request{
			OwnerID:      query.OwnerID,
			Text:         query.SearchText,
			Fuzziness:    options.Fuzziness,
			Technologies: uniqueLabels(query.Technologies),
			Industries:   uniqueLabels(query.Industries),
			From:         query.offset(),
			Size:         query.PageSize,
			SortBy:       searchdb.SortField(query.SortField),
			Facets:       searchdb.Dimensions,
			FacetSize:    options.FacetSize,
		},
	}

	for _, dimension := range searchdb.Dimensions {
		composite.overall = append(composite.overall, searchdb.Request{
			OwnerID:   query.OwnerID,
			Facets:    []searchdb.Dimension{dimension},
			FacetSize: options.FacetSize,
		})
	}

	return composite
}

func (c compositeQuery) fetch(ctx context.Context, db searchdb.DB) (*compositeResult, error) {
	g, gctx := errgroup.WithContext(ctx)

	var filtered *searchdb.Response
	g.Go(func() error {
		response, err := db.Search(gctx, c.filtered)
		if err != nil {
			return err
		}
		filtered = response
		return nil
	})

	overall := make([]*searchdb.Response, len(c.overall))
	for i, request := range c.overall {
		g.Go(func() error {
			response, err := db.Search(gctx, request)
			if err != nil {
				return err
			}
			overall[i] = response
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &compositeResult{
		filtered: filtered,
		overall:  make(map[searchdb.Dimension][]searchdb.FacetBucket, len(c.overall)),
	}
	for i, request := range c.overall {
		for _, dimension := range request.Facets {
			result.overall[dimension] = overall[i].Facets[dimension]
		}
	}

	return result, nil
}

func (r *compositeResult) merge() Facets {
	return Facets{
		Technologies: mergeFacetTable(r.filtered.Facets[searchdb.DimensionTechnology], r.overall[searchdb.DimensionTechnology]),
		Industries:   mergeFacetTable(r.filtered.Facets[searchdb.DimensionIndustry], r.overall[searchdb.DimensionIndustry]),
	}
}
