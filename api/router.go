package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/facetsearch/api/handlers"
	"github.com/meghashyamc/facetsearch/logger"
	"github.com/meghashyamc/facetsearch/services/index"
	"github.com/meghashyamc/facetsearch/services/search"
	"github.com/meghashyamc/facetsearch/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupRoutes(router *gin.Engine, logger logger.Logger, searchService *search.Service, indexService *index.Service, validator *validation.Validator, defaultPageSize int) {
	router.GET("/health", health())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.SetupSearch(router, logger, searchService, validator, defaultPageSize)
	handlers.SetupProjects(router, logger, indexService, validator)
	handlers.SetupIndex(router, logger, indexService, validator)

}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter() *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.Use(gin.Recovery())
	router.Use(_CORSMiddleware())
	router.Use(metricsMiddleware())

	return router
}
