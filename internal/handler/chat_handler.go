package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kontrakwise/backend/internal/model"
	"github.com/kontrakwise/backend/internal/pkg/errcode"
	"github.com/kontrakwise/backend/internal/pkg/response"
	"github.com/kontrakwise/backend/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Query(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.chat.Answer(c.Request.Context(), getUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, answer)
}

// QueryStream answers over SSE. Every stream ends with exactly one terminal
// event; transport-level failures (client gone) just stop the stream.
func (h *ChatHandler) QueryStream(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	emit := func(event model.ChatStreamEvent) error {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := c.Writer.Write([]byte("data: ")); err != nil {
			return err
		}
		if _, err := c.Writer.Write(data); err != nil {
			return err
		}
		if _, err := c.Writer.Write([]byte("\n\n")); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	if err := h.chat.AnswerStream(c.Request.Context(), getUserID(c), &req, emit); err != nil {
		logutil.GetLogger(c.Request.Context()).Warn("chat stream ended with error", zap.Error(err))
	}
}
