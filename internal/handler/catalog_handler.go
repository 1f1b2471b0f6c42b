package handler

import (
	"github.com/gin-gonic/gin"

	"inpatient-room-catalog/internal/service"
	"inpatient-room-catalog/pkg/utils"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// ListBuildings returns every building with its classes and capacity labels
func (h *CatalogHandler) ListBuildings(c *gin.Context) {
	gen := h.catalogService.Current()

	utils.SuccessResponse(c, gin.H{
		"buildings":  gen.Buildings,
		"count":      len(gen.Buildings),
		"generation": gen.Seq,
		"fallback":   gen.Fallback,
		"built_at":   gen.BuiltAt,
	})
}

// GetBuilding returns a single building by slug
func (h *CatalogHandler) GetBuilding(c *gin.Context) {
	building, err := h.catalogService.GetBuilding(c.Param("id"))
	if err != nil {
		utils.ErrorFromApp(c, err)
		return
	}

	utils.SuccessResponse(c, building)
}

// GetRooms lists the rooms of one class inside a building
func (h *CatalogHandler) GetRooms(c *gin.Context) {
	listing, err := h.catalogService.GetRoomListing(c.Param("id"), c.Param("class"))
	if err != nil {
		utils.ErrorFromApp(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}
