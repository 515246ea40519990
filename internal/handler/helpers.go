package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/chengAMS/hyperdoc/internal/pkg/errors"
	"github.com/chengAMS/hyperdoc/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", err.Error())
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, appErr.ErrGateway):
		response.Error(c, http.StatusBadGateway, "gateway", "embedding gateway error")
	case errors.Is(err, appErr.ErrProjection):
		response.Error(c, http.StatusUnprocessableEntity, "projection", "embedding could not be projected")
	case errors.Is(err, appErr.ErrStore):
		response.Error(c, http.StatusInternalServerError, "store", "storage error")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
