package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/notevault/notevault/internal/apperr"
	"github.com/notevault/notevault/internal/clientenv"
)

// respondError maps a service error onto its HTTP status and a stable
// message. Unclassified errors come out as a generic 500.
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.StatusOf(err), gin.H{"error": apperr.MessageOf(err)})
}

// pageQuery reads ?page= and ?limit= with sane defaults.
func pageQuery(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func clientEnv(c *gin.Context) clientenv.Env {
	return clientenv.Parse(c.GetHeader("User-Agent"))
}
