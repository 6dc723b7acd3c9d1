package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obetrack/obe-api/internal/service"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
	"github.com/obetrack/obe-api/pkg/response"
)

// CatalogHandler exposes the program course catalog.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListPrograms godoc
// @Summary List program names
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) ListPrograms(c *gin.Context) {
	names, err := h.catalog.ListPrograms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names, nil)
}

// GetProgram godoc
// @Summary Get a program's course catalog
// @Tags Catalog
// @Produce json
// @Param program path string true "Program name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /catalog/{program} [get]
func (h *CatalogHandler) GetProgram(c *gin.Context) {
	program, err := h.catalog.GetProgram(c.Request.Context(), c.Param("program"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// UpsertProgram godoc
// @Summary Replace a program's course catalog
// @Tags Catalog
// @Accept json
// @Produce json
// @Param program path string true "Program name"
// @Param payload body service.UpsertProgramRequest true "Program payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /catalog/{program} [put]
func (h *CatalogHandler) UpsertProgram(c *gin.Context) {
	var req service.UpsertProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid program payload"))
		return
	}
	req.Name = c.Param("program")

	program, err := h.catalog.UpsertProgram(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}
