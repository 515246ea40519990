package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chengAMS/hyperdoc/internal/chunker"
	"github.com/chengAMS/hyperdoc/internal/manifold"
	"github.com/chengAMS/hyperdoc/internal/repo"
	"github.com/chengAMS/hyperdoc/internal/service"
)

type fixedEmbedder struct {
	dim int
}

func (e *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dim)
		for j, r := range text {
			vec[j%e.dim] += float32(r%13) / 13
		}
		out[i] = vec
	}
	return out, nil
}

func (e *fixedEmbedder) ModelName() string { return "fixed" }
func (e *fixedEmbedder) Dim() int          { return e.dim }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := repo.NewSQLiteStore(filepath.Join(t.TempDir(), "chunks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	splitter, err := chunker.NewSplitter(200, 40)
	require.NoError(t, err)
	l, err := manifold.NewLorentz(6)
	require.NoError(t, err)
	retrieval, err := service.NewRetrievalService(service.Deps{
		Splitter:    splitter,
		Embedder:    &fixedEmbedder{dim: 6},
		Manifold:    l,
		Store:       store,
		DefaultTopK: 10,
		MaxTopK:     100,
	})
	require.NoError(t, err)

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), RouterDeps{
		Documents: NewDocumentHandler(retrieval, nil, 1024*1024),
		Search:    NewSearchHandler(retrieval),
	})
	return router
}

func uploadRequest(t *testing.T, filename, tag, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	if tag != "" {
		require.NoError(t, writer.WriteField("tag", tag))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func doJSON(router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(router, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestUploadAndSearchFlow(t *testing.T) {
	router := newTestRouter(t)

	text := strings.Repeat("hyperbolic geometry bends space away from the origin. ", 20)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "geometry.txt", "geo", text))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var uploadResp struct {
		Data struct {
			Tag          string `json:"tag"`
			ChunksTotal  int    `json:"chunks_total"`
			ChunksStored int    `json:"chunks_stored"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploadResp))
	assert.Equal(t, "geo", uploadResp.Data.Tag)
	assert.Greater(t, uploadResp.Data.ChunksStored, 1)
	assert.Equal(t, uploadResp.Data.ChunksTotal, uploadResp.Data.ChunksStored)

	rec = doJSON(router, http.MethodPost, "/api/v1/search", gin.H{"query": "hyperbolic geometry", "top_k": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var searchResp struct {
		Data struct {
			Results []struct {
				ID       int64   `json:"id"`
				Tag      string  `json:"tag"`
				Distance float64 `json:"distance"`
			} `json:"results"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &searchResp))
	require.Len(t, searchResp.Data.Results, 3)
	for i := 1; i < len(searchResp.Data.Results); i++ {
		assert.GreaterOrEqual(t, searchResp.Data.Results[i].Distance, searchResp.Data.Results[i-1].Distance)
	}

	rec = doJSON(router, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tags":["geo"]`)

	rec = doJSON(router, http.MethodGet, "/api/v1/documents/geo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tag":"geo"`)

	rec = doJSON(router, http.MethodDelete, "/api/v1/documents/geo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_chunks":0`)
}

func TestUploadDefaultsTagToFilename(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "notes.txt", "", "short note that is long enough to keep"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tag":"notes"`)
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "image.png", "pics", "not really a png"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "big.txt", "big", strings.Repeat("a", 2*1024*1024)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadRequiresFile(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(router, http.MethodPost, "/api/v1/documents/upload", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(router, http.MethodPost, "/api/v1/search", gin.H{"query": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMissingTagReturnsZero(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(router, http.MethodDelete, "/api/v1/documents/ghost", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":0`)
}
