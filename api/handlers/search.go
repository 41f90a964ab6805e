package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/facetsearch/db/searchdb"
	"github.com/meghashyamc/facetsearch/logger"
	"github.com/meghashyamc/facetsearch/services/search"
	"github.com/meghashyamc/facetsearch/validation"
)

type SearchRequest struct {
	Query        string   `form:"q" validate:"valid_query,max=1000"`
	Technologies []string `form:"technology" validate:"max=50,dive,valid_label"`
	Industries   []string `form:"industry" validate:"max=50,dive,valid_label"`
	PerPage      int      `form:"size" validate:"min=0"`
	Page         int      `form:"page" validate:"min=0"`
	SortBy       string   `form:"sort_by"`
}

func (r *SearchRequest) setDefaults(defaultPerPage int) {
	if r.PerPage == 0 {
		r.PerPage = defaultPerPage
	}

	if r.Page == 0 {
		r.Page = 1
	}
}

type SearchResponse struct {
	Results     []searchdb.Document `json:"results"`
	Facets      search.Facets       `json:"facets"`
	PageDetails search.Pagination   `json:"page_details"`
}

func SetupSearch(router *gin.Engine, logger logger.Logger, service *search.Service, validator *validation.Validator, defaultPerPage int) {
	router.GET("/projects/search", RequireOwner(logger), handleSearch(service, logger, validator, defaultPerPage))

}

func handleSearch(service *search.Service, logger logger.Logger, validator *validation.Validator, defaultPerPage int) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SearchRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}
		request.setDefaults(defaultPerPage)

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		result, err := service.Search(c.Request.Context(), search.Query{
			OwnerID:      getOwnerID(c),
			SearchText:   request.Query,
			Technologies: request.Technologies,
			Industries:   request.Industries,
			Page:         request.Page,
			PageSize:     request.PerPage,
			SortField:    request.SortBy,
		})
		if err != nil {
			c.Abort()
			switch {
			case errors.Is(err, search.ErrInvalidQuery):
				writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			case errors.Is(err, search.ErrIndexUnavailable):
				writeResponse(c, nil, http.StatusServiceUnavailable, []string{"search is temporarily unavailable"})
			default:
				writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			}
			return
		}

		c.Header(HeaderPaginationTotalCount, strconv.Itoa(result.Total))
		writeResponse(c, SearchResponse{
			Results:     result.Projects,
			Facets:      result.Facets,
			PageDetails: result.Pagination,
		}, http.StatusOK, nil)
	}
}
