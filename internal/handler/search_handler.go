package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chengAMS/hyperdoc/internal/pkg/response"
	"github.com/chengAMS/hyperdoc/internal/service"
)

type SearchHandler struct {
	retrieval *service.RetrievalService
}

func NewSearchHandler(retrieval *service.RetrievalService) *SearchHandler {
	return &SearchHandler{retrieval: retrieval}
}

type searchRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k"`
	TagFilter string `json:"tag_filter"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	results, err := h.retrieval.Search(c.Request.Context(), req.Query, req.TopK, req.TagFilter)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"query": req.Query, "results": results})
}

func (h *SearchHandler) Stats(c *gin.Context) {
	stats, err := h.retrieval.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

// Health checks store connectivity by counting stored chunks.
func (h *SearchHandler) Health(c *gin.Context) {
	stats, err := h.retrieval.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "total_chunks": stats.TotalChunks})
}
