package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Documents *DocumentHandler
	Search    *SearchHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/documents/upload", deps.Documents.Upload)
	api.GET("/documents/:tag", deps.Documents.Get)
	api.DELETE("/documents/:tag", deps.Documents.Delete)

	api.POST("/search", deps.Search.Search)
	api.GET("/stats", deps.Search.Stats)
	api.GET("/health", deps.Search.Health)
}
