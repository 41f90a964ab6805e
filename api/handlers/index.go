package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meghashyamc/facetsearch/db/searchdb"
	"github.com/meghashyamc/facetsearch/logger"
	"github.com/meghashyamc/facetsearch/services/index"
	"github.com/meghashyamc/facetsearch/validation"
)

type IndexRequest struct {
	Projects []searchdb.Document `json:"projects" validate:"required"`
}

type IndexResponse struct {
	ID string `json:"id"`
}

type IndexStatusRequest struct {
	ID string `uri:"id" validate:"required,uuid4"`
}

type IndexStatusResponse struct {
	ID       string `json:"id"`
	Progress int    `json:"progress"`
}

func SetupIndex(router *gin.Engine, logger logger.Logger, service *index.Service, validator *validation.Validator) {
	router.POST("/index", handleIndex(service, logger, validator))
	router.GET("/index/:id", handleGetIndexStatus(service, logger, validator))
}

func handleIndex(service *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := IndexRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected params from index request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate index request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		requestID := uuid.New().String()
		if err := service.Build(request.Projects, requestID); err != nil {
			c.Abort()
			if errors.Is(err, index.ErrIndexingInProgress) {
				writeResponse(c, nil, http.StatusConflict, []string{err.Error()})
				return
			}
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, IndexResponse{ID: requestID}, http.StatusAccepted, nil)
	}
}

func handleGetIndexStatus(service *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := IndexStatusRequest{}
		if err := c.ShouldBindUri(&request); err != nil {
			logger.Warn("could not extract id from index status request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request id"})
			return
		}

		if err := validator.Validate(request); err != nil {
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		progress, err := service.GetStatus(request.ID)
		if err != nil {
			c.Abort()
			if errors.Is(err, index.ErrRequestNotFound) {
				writeResponse(c, nil, http.StatusNotFound, []string{"no index request with this id"})
				return
			}
			logger.Error("could not get index status", "request_id", request.ID, "err", err.Error())
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		response := IndexStatusResponse{ID: request.ID, Progress: progress}
		switch progress {
		case index.ProgressStatusComplete:
			writeResponse(c, response, http.StatusOK, nil)
		case index.ProgressStatusFailed:
			writeResponse(c, response, http.StatusInternalServerError, []string{"index build failed"})
		default:
			writeResponse(c, response, http.StatusAccepted, nil)
		}
	}
}
