package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careconnect/careconnect-api/internal/dto"
	"github.com/careconnect/careconnect-api/internal/service"
	appErrors "github.com/careconnect/careconnect-api/pkg/errors"
	"github.com/careconnect/careconnect-api/pkg/response"
)

type inventoryService interface {
	CCSummaries(ctx context.Context) ([]dto.CCSummary, error)
	InventoryDetail(ctx context.Context, location string) ([]dto.ItemInventory, error)
	Markers(ctx context.Context) ([]dto.Marker, error)
}

type exportService interface {
	InventoryExport(ctx context.Context, location, format string) (*service.ExportFile, error)
}

// InventoryHandler exposes the read-side projections.
type InventoryHandler struct {
	inventory inventoryService
	exports   exportService
}

// NewInventoryHandler constructs the handler.
func NewInventoryHandler(inventory inventoryService, exports exportService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, exports: exports}
}

// Summaries godoc
// @Summary Per-club aggregate summary
// @Tags Inventory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /manager/cc_summary [get]
func (h *InventoryHandler) Summaries(c *gin.Context) {
	summaries, err := h.inventory.CCSummaries(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// Detail godoc
// @Summary Per-item inventory of one club
// @Tags Inventory
// @Produce json
// @Param location path string true "Community club"
// @Success 200 {object} response.Envelope
// @Router /manager/inventory/{location} [get]
func (h *InventoryHandler) Detail(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	location := c.Param("location")
	if location != claims.CC {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	items, err := h.inventory.InventoryDetail(c.Request.Context(), location)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Export godoc
// @Summary Download one club's inventory as CSV or PDF
// @Tags Inventory
// @Produce octet-stream
// @Param location path string true "Community club"
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Router /manager/inventory/{location}/export [get]
func (h *InventoryHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	location := c.Param("location")
	if location != claims.CC {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	format := c.DefaultQuery("format", "csv")
	file, err := h.exports.InventoryExport(c.Request.Context(), location, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// Markers godoc
// @Summary Public community club map markers
// @Tags Public
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /community_clubs [get]
func (h *InventoryHandler) Markers(c *gin.Context) {
	markers, err := h.inventory.Markers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, markers, nil)
}
