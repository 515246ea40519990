package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/chengAMS/hyperdoc/internal/extract"
	"github.com/chengAMS/hyperdoc/internal/filestore"
	"github.com/chengAMS/hyperdoc/internal/pkg/response"
	"github.com/chengAMS/hyperdoc/internal/service"
)

type DocumentHandler struct {
	retrieval   *service.RetrievalService
	archive     filestore.Store
	maxFileSize int64
}

func NewDocumentHandler(retrieval *service.RetrievalService, archive filestore.Store, maxFileSize int64) *DocumentHandler {
	return &DocumentHandler{retrieval: retrieval, archive: archive, maxFileSize: maxFileSize}
}

// Upload accepts a multipart document, extracts its text and ingests
// the chunks under the given tag (the file name when no tag is sent).
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "file is required")
		return
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, "too_large",
			"file exceeds the upload limit of "+formatUploadLimit(h.maxFileSize))
		return
	}
	filename := filepath.Base(fileHeader.Filename)
	if !extract.Supported(filename) {
		response.Error(c, http.StatusBadRequest, "invalid", "unsupported file format")
		return
	}
	tag := strings.TrimSpace(c.PostForm("tag"))
	if tag == "" {
		tag = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "cannot read uploaded file")
		return
	}
	defer file.Close()

	text, err := extract.Text(file, filename)
	if err != nil {
		handleError(c, err)
		return
	}
	stored, total, err := h.retrieval.IngestText(c.Request.Context(), tag, text)
	if err != nil {
		handleError(c, err)
		return
	}

	if h.archive != nil {
		key := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filename)
		_, _ = file.Seek(0, io.SeekStart)
		if err := h.archive.Save(c.Request.Context(), key, file, fileHeader.Size); err != nil {
			// Archiving the original is best effort and never fails
			// an upload whose chunks are already stored.
			logutil.GetLogger(c.Request.Context()).Warn("archive upload failed",
				zap.String("key", key), zap.Error(err))
		}
	}

	response.Success(c, gin.H{
		"tag":           tag,
		"filename":      filename,
		"chunks_total":  total,
		"chunks_stored": stored,
	})
}

// Get returns the stored chunks for one tag.
func (h *DocumentHandler) Get(c *gin.Context) {
	chunks, err := h.retrieval.ListByTag(c.Request.Context(), c.Param("tag"))
	if err != nil {
		handleError(c, err)
		return
	}
	type chunkView struct {
		ID         int64  `json:"id"`
		Text       string `json:"text"`
		Tag        string `json:"tag"`
		TextLength int    `json:"text_length"`
		CreatedAt  int64  `json:"created_at"`
	}
	views := make([]chunkView, 0, len(chunks))
	for _, chunk := range chunks {
		views = append(views, chunkView{
			ID:         chunk.ID,
			Text:       chunk.Text,
			Tag:        chunk.Tag,
			TextLength: len([]rune(chunk.Text)),
			CreatedAt:  chunk.CreatedAt,
		})
	}
	response.Success(c, gin.H{"tag": c.Param("tag"), "chunks": views})
}

// Delete removes every chunk stored under one tag.
func (h *DocumentHandler) Delete(c *gin.Context) {
	deleted, err := h.retrieval.DeleteTag(c.Request.Context(), c.Param("tag"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"tag": c.Param("tag"), "deleted": deleted})
}
