package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/facetsearch/db/searchdb"
	"github.com/meghashyamc/facetsearch/logger"
	"github.com/meghashyamc/facetsearch/services/index"
	"github.com/meghashyamc/facetsearch/validation"
)

type ProjectRequest struct {
	ID int64 `uri:"id" validate:"required,min=1"`
}

func SetupProjects(router *gin.Engine, logger logger.Logger, service *index.Service, validator *validation.Validator) {
	router.PUT("/projects/:id", handleUpsertProject(service, logger, validator))
	router.DELETE("/projects/:id", handleDeleteProject(service, logger, validator))
}

func bindProjectRequest(c *gin.Context, logger logger.Logger, validator *validation.Validator) (ProjectRequest, bool) {
	request := ProjectRequest{}
	if err := c.ShouldBindUri(&request); err != nil {
		logger.Warn("could not extract project id", "err", err.Error())
		c.Abort()
		writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract project id"})
		return request, false
	}

	if err := validator.Validate(request); err != nil {
		c.Abort()
		writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
		return request, false
	}

	return request, true
}

func handleUpsertProject(service *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request, ok := bindProjectRequest(c, logger, validator)
		if !ok {
			return
		}

		project := searchdb.Document{}
		if err := c.ShouldBindJSON(&project); err != nil {
			logger.Warn("could not extract project from request body", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body"})
			return
		}

		if project.ID != request.ID {
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{"project id in path does not match the body"})
			return
		}

		if err := service.Upsert(project); err != nil {
			c.Abort()
			if errors.Is(err, index.ErrInvalidDocument) {
				writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
				return
			}
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, nil, http.StatusNoContent, nil)
	}
}

func handleDeleteProject(service *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request, ok := bindProjectRequest(c, logger, validator)
		if !ok {
			return
		}

		if err := service.Delete(request.ID); err != nil {
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, nil, http.StatusNoContent, nil)
	}
}
