package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kontrakwise/backend/internal/pkg/errcode"
	"github.com/kontrakwise/backend/internal/pkg/response"
	"github.com/kontrakwise/backend/internal/service"
)

// uploadMaxBytes caps a single document upload.
const uploadMaxBytes = 50 << 20

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if file.Size <= 0 || file.Size > uploadMaxBytes {
		response.Error(c, errcode.ErrInvalidFile, "file size out of range")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	filename := c.PostForm("filename")
	if filename == "" {
		filename = file.Filename
	}
	docTypeID := c.PostForm("document_type_id")

	doc, err := h.documents.Upload(c.Request.Context(), getUserID(c), filename, docTypeID, opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	limit, offset := parsePaging(c)
	docs, err := h.documents.List(c.Request.Context(), getUserID(c), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
