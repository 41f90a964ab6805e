package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/facetsearch/logger"
)

// HeaderOwnerID carries the id of the user already authenticated upstream.
const HeaderOwnerID = "X-Owner-ID"

const contextKeyOwnerID = "owner_id"

// RequireOwner rejects requests that do not identify the owner whose projects
// may be searched.
func RequireOwner(logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID, err := strconv.ParseInt(c.GetHeader(HeaderOwnerID), 10, 64)
		if err != nil || ownerID <= 0 {
			logger.Warn("request without a valid owner", "path", c.Request.URL.Path)
			c.Abort()
			writeResponse(c, nil, http.StatusUnauthorized, []string{"missing or invalid owner"})
			return
		}

		c.Set(contextKeyOwnerID, ownerID)
		c.Next()
	}
}

func getOwnerID(c *gin.Context) int64 {
	return c.GetInt64(contextKeyOwnerID)
}
