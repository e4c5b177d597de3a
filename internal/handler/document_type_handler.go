package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kontrakwise/backend/internal/model"
	"github.com/kontrakwise/backend/internal/pkg/errcode"
	"github.com/kontrakwise/backend/internal/pkg/response"
	"github.com/kontrakwise/backend/internal/service"
)

type DocumentTypeHandler struct {
	types *service.DocumentTypeService
}

func NewDocumentTypeHandler(types *service.DocumentTypeService) *DocumentTypeHandler {
	return &DocumentTypeHandler{types: types}
}

type documentTypeRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	RiskRules   []model.RiskRule `json:"risk_rules"`
}

func (h *DocumentTypeHandler) Create(c *gin.Context) {
	var req documentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	item, err := h.types.Create(c.Request.Context(), getUserID(c), req.Name, req.Description, req.RiskRules)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *DocumentTypeHandler) List(c *gin.Context) {
	limit, offset := parsePaging(c)
	items, err := h.types.List(c.Request.Context(), getUserID(c), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"document_types": items})
}

func (h *DocumentTypeHandler) Get(c *gin.Context) {
	item, err := h.types.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *DocumentTypeHandler) Update(c *gin.Context) {
	var req documentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	item, err := h.types.Update(c.Request.Context(), getUserID(c), c.Param("id"), req.Name, req.Description, req.RiskRules)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, item)
}

func (h *DocumentTypeHandler) Delete(c *gin.Context) {
	if err := h.types.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
