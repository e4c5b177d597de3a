package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kontrakwise/backend/internal/ai"
	"github.com/kontrakwise/backend/internal/middleware"
	"github.com/kontrakwise/backend/internal/pkg/errcode"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
	"github.com/kontrakwise/backend/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai not configured")
	case errors.Is(err, appErr.ErrGenerationFailed):
		response.Error(c, errcode.ErrGenerationFailed, "generation failed")
	case errors.Is(err, appErr.ErrIngestionFailed), errors.Is(err, appErr.ErrExtractionFailed), errors.Is(err, appErr.ErrNoExtractableContent):
		response.Error(c, errcode.ErrIngestionFailed, "ingestion failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

func parsePaging(c *gin.Context) (limit, offset uint) {
	limit = uintQuery(c, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset = uintQuery(c, "offset", 0)
	return limit, offset
}

func uintQuery(c *gin.Context, name string, fallback uint) uint {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return uint(v)
}
